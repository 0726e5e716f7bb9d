package jni

import (
	"fmt"
	"log/slog"

	"github.com/feather-lang/jni/sys"
)

// Env is the call context through which a thread talks to the foreign
// runtime.
//
// An Env is bound to one attached OS thread and is not safe for concurrent
// use. Obtain one from [JavaVM.GetEnv], [JavaVM.AttachCurrentThread] or, for
// a native method receiving a raw table, [JavaVM.EnvFor].
//
// Every local reference the Env hands out is tagged with its innermost open
// scope. Closing the Env (or popping a local frame) invalidates those
// references; later use fails with [ErrStaleReference] instead of reaching
// the runtime.
type Env struct {
	raw    sys.Env
	vm     *JavaVM
	logger *slog.Logger
	top    *scope
	closed bool
}

func newEnv(vm *JavaVM, raw sys.Env) *Env {
	e := &Env{raw: raw, vm: vm, logger: vm.logger}
	e.top = newScope(e, nil, false)
	return e
}

// Raw returns the underlying function table.
func (e *Env) Raw() sys.Env { return e.raw }

// JavaVM returns the runtime this Env belongs to.
func (e *Env) JavaVM() *JavaVM { return e.vm }

// Version returns the interface version implemented by the runtime.
func (e *Env) Version() int32 { return e.raw.GetVersion() }

// Close ends the Env's base scope: every local reference it issued becomes
// stale. It does not detach the thread. Close is idempotent.
func (e *Env) Close() {
	if e.closed {
		return
	}
	e.closeScopes()
	e.closed = true
	e.vm.forgetEnv(e)
}

// Closed reports whether Close has been called.
func (e *Env) Closed() bool { return e.closed }

// pending converts a pending foreign exception into ErrJavaException.
func (e *Env) pending() error {
	if e.raw.ExceptionCheck() {
		return ErrJavaException
	}
	return nil
}

// nonNull translates a raw object result: a pending exception wins over a
// null, and a stray reference returned alongside an exception is released.
func (e *Env) nonNull(raw sys.Jobject, what string) (Object, error) {
	if e.raw.ExceptionCheck() {
		if raw != 0 {
			e.raw.DeleteLocalRef(raw)
		}
		return Object{}, ErrJavaException
	}
	if raw == 0 {
		return Object{}, fmt.Errorf("%w: %s", ErrNullPointer, what)
	}
	return e.issue(raw), nil
}

// clearLookupFailure discards the exception a failed lookup leaves pending;
// the failure is reported as a *NotFoundError instead.
func (e *Env) clearLookupFailure() {
	if e.raw.ExceptionCheck() {
		e.raw.ExceptionClear()
	}
}

// -----------------------------------------------------------------------------
// References
// -----------------------------------------------------------------------------

// NewLocalRef creates another local reference to the object obj refers to.
func (e *Env) NewLocalRef(obj Object) (Object, error) {
	if err := e.check(obj); err != nil {
		return Object{}, err
	}
	if obj.IsNull() {
		return Object{}, nil
	}
	return e.nonNull(e.raw.NewLocalRef(obj.raw), "NewLocalRef")
}

// DeleteLocalRef releases a local reference ahead of its scope's end.
// Deleting null is a no-op.
func (e *Env) DeleteLocalRef(obj Object) error {
	if obj.IsNull() {
		return nil
	}
	if err := e.check(obj); err != nil {
		return err
	}
	if t := e.raw.GetObjectRefType(obj.raw); t != sys.LocalRefType {
		return fmt.Errorf("%w: %v is a %s reference", ErrNotLocal, obj, t)
	}
	e.raw.DeleteLocalRef(obj.raw)
	return nil
}

// AutoLocal wraps obj in a guard that deletes it when released.
func (e *Env) AutoLocal(obj Object) *AutoLocal {
	return NewAutoLocal(e, obj)
}

// WithAutoLocal runs fn with obj and deletes obj when fn returns.
func (e *Env) WithAutoLocal(obj Object, fn func(Object) error) error {
	guard := NewAutoLocal(e, obj)
	defer guard.Release()
	return fn(guard.Object())
}

// NewGlobalRef pins the object obj refers to and returns a shareable guard.
func (e *Env) NewGlobalRef(obj Object) (*GlobalRef, error) {
	if err := e.check(obj); err != nil {
		return nil, err
	}
	if obj.IsNull() {
		return nil, fmt.Errorf("%w: NewGlobalRef", ErrNullPointer)
	}
	raw := e.raw.NewGlobalRef(obj.raw)
	if raw == 0 {
		if err := e.pending(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: NewGlobalRef", ErrNullPointer)
	}
	return NewGlobalRefFromRaw(e.vm, raw), nil
}

// IsSameObject reports whether a and b refer to the same object.
func (e *Env) IsSameObject(a, b Object) (bool, error) {
	if err := e.checkAll(a, b); err != nil {
		return false, err
	}
	return e.raw.IsSameObject(a.raw, b.raw), nil
}

// IsInstanceOf reports whether obj is an instance of class. Null is an
// instance of every class.
func (e *Env) IsInstanceOf(obj Object, class ClassDesc) (bool, error) {
	if err := e.check(obj); err != nil {
		return false, err
	}
	cls, err := e.LookupClass(class)
	if err != nil {
		return false, err
	}
	defer cls.Release()
	return e.raw.IsInstanceOf(obj.raw, cls.Object().raw), nil
}

// -----------------------------------------------------------------------------
// Local frames
// -----------------------------------------------------------------------------

// EnsureLocalCapacity makes room for at least capacity more local references
// in the current frame.
func (e *Env) EnsureLocalCapacity(capacity int32) error {
	if e.closed {
		return ErrEnvClosed
	}
	if errno := e.raw.EnsureLocalCapacity(capacity); errno != sys.OK {
		if err := e.pending(); err != nil {
			return err
		}
		return errno
	}
	return nil
}

// PushLocalFrame opens a local frame with room for capacity references and
// a new scope for the references created inside it.
// Prefer [Env.WithLocalFrame], which cannot leave a frame open.
func (e *Env) PushLocalFrame(capacity int32) error {
	if e.closed {
		return ErrEnvClosed
	}
	if errno := e.raw.PushLocalFrame(capacity); errno != sys.OK {
		if err := e.pending(); err != nil {
			return err
		}
		return errno
	}
	e.pushScope()
	e.logger.Debug("pushed local frame", slog.Int("capacity", int(capacity)), slog.Uint64("generation", e.top.gen))
	return nil
}

// PopLocalFrame closes the innermost local frame, releasing every reference
// created inside it. result, which may be null, is carried over: the
// returned Object refers to the same object and is valid in the parent scope.
func (e *Env) PopLocalFrame(result Object) (Object, error) {
	if e.closed {
		return Object{}, ErrEnvClosed
	}
	if e.top == nil || !e.top.frame {
		return Object{}, ErrNoFrame
	}
	if err := e.check(result); err != nil {
		return Object{}, err
	}
	raw := e.raw.PopLocalFrame(result.raw)
	gen := e.top.gen
	e.popScope()
	e.logger.Debug("popped local frame", slog.Uint64("generation", gen))
	return e.issue(raw), nil
}

// WithLocalFrame runs fn inside a fresh local frame of the given capacity.
// Every local reference fn creates is released when it returns, except the
// Object it returns, which is re-issued in the caller's scope. The frame is
// popped even if fn panics.
func (e *Env) WithLocalFrame(capacity int32, fn func() (Object, error)) (Object, error) {
	if err := e.PushLocalFrame(capacity); err != nil {
		return Object{}, err
	}
	popped := false
	defer func() {
		if !popped {
			if _, err := e.PopLocalFrame(Object{}); err != nil {
				e.logger.Debug("error popping local frame", slog.Any("error", err))
			}
		}
	}()

	result, err := fn()
	if err != nil {
		return Object{}, err
	}
	if err := e.check(result); err != nil {
		return Object{}, err
	}
	popped = true
	return e.PopLocalFrame(result)
}
