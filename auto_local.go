package jni

import (
	"log/slog"
	"sync/atomic"
)

// AutoLocal owns the release of one local reference.
//
// Local references are freed by the runtime when the enclosing native call
// returns, but long loops can exhaust the local reference table before that
// happens. An AutoLocal deletes its reference early:
//
//	cls, err := env.FindClass("java/util/Map")
//	if err != nil {
//	    return err
//	}
//	guard := env.AutoLocal(cls)
//	defer guard.Release()
//
// Do not wrap a reference that is still needed after Release; using it
// afterwards is undefined behaviour in the runtime.
type AutoLocal struct {
	obj  Object
	env  *Env
	done atomic.Bool
}

// NewAutoLocal takes over the release obligation for obj.
func NewAutoLocal(env *Env, obj Object) *AutoLocal {
	return &AutoLocal{obj: obj, env: env}
}

// Object returns the guarded reference without transferring ownership.
// It panics once the guard has been released or forgotten.
func (a *AutoLocal) Object() Object {
	if a.done.Load() {
		panic("jni: use of released AutoLocal")
	}
	return a.obj
}

// Forget cancels the release and hands the reference back to the caller,
// who must delete it or let its scope end. The returned Object is only
// valid while its scope is open.
func (a *AutoLocal) Forget() Object {
	if !a.done.CompareAndSwap(false, true) {
		panic("jni: Forget on released AutoLocal")
	}
	return a.obj
}

// Release deletes the reference. It runs at most once per guard, and a
// failure (for example, the scope already closed) is logged rather than
// returned so it can sit in a defer.
func (a *AutoLocal) Release() {
	if !a.done.CompareAndSwap(false, true) {
		return
	}
	if err := a.env.DeleteLocalRef(a.obj); err != nil {
		a.env.logger.Debug("error dropping local ref", slog.String("object", a.obj.String()), slog.Any("error", err))
	}
}

// Released reports whether the guard has been released or forgotten.
func (a *AutoLocal) Released() bool { return a.done.Load() }
