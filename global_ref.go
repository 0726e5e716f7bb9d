package jni

import (
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/feather-lang/jni/sys"
)

// GlobalRef is a pinned reference that outlives any single call context and
// may be used from any goroutine.
//
// Clone returns another handle to the same underlying global reference; the
// reference is deleted exactly once, when the last handle is dropped. Drop
// handles on an attached thread where possible: dropping the last handle on
// a detached thread attaches it temporarily, which is slow and logged.
//
// A handle that becomes unreachable without Drop is dropped by the garbage
// collector, on an unattached thread.
type GlobalRef struct {
	state *globalRefState
}

// globalRefState is per handle so that each handle drops at most once.
type globalRefState struct {
	inner   *globalRefGuard
	dropped atomic.Bool
}

// globalRefGuard is shared by every clone.
type globalRefGuard struct {
	obj  Object
	vm   *JavaVM
	refs atomic.Int64
}

// NewGlobalRefFromRaw wraps a reference that the runtime has already
// promoted with NewGlobalRef. Ownership of the reference moves to the
// returned handle.
func NewGlobalRefFromRaw(vm *JavaVM, raw sys.Jobject) *GlobalRef {
	inner := &globalRefGuard{obj: FromRaw(raw), vm: vm}
	inner.refs.Store(1)
	return newGlobalRefHandle(inner)
}

func newGlobalRefHandle(inner *globalRefGuard) *GlobalRef {
	g := &GlobalRef{state: &globalRefState{inner: inner}}
	runtime.AddCleanup(g, func(s *globalRefState) {
		if s.dropped.CompareAndSwap(false, true) {
			s.inner.vm.logger.Debug("GlobalRef handle collected without Drop", slog.String("object", s.inner.obj.String()))
			s.inner.release()
		}
	}, g.state)
	return g
}

// Object returns the pinned reference. It stays valid while any handle is
// alive, on any thread. Object panics once this handle has been dropped.
func (g *GlobalRef) Object() Object {
	if g.state.dropped.Load() {
		panic("jni: use of dropped GlobalRef")
	}
	return g.state.inner.obj
}

// Clone returns a new handle sharing the same global reference.
func (g *GlobalRef) Clone() *GlobalRef {
	if g.state.dropped.Load() {
		panic("jni: Clone of dropped GlobalRef")
	}
	g.state.inner.refs.Add(1)
	return newGlobalRefHandle(g.state.inner)
}

// Drop releases this handle. Dropping a handle twice has no effect.
func (g *GlobalRef) Drop() {
	if g.state.dropped.CompareAndSwap(false, true) {
		g.state.inner.release()
	}
}

// Handles returns the number of live handles sharing the reference.
func (g *GlobalRef) Handles() int64 {
	return g.state.inner.refs.Load()
}

func (g *globalRefGuard) release() {
	if g.refs.Add(-1) != 0 {
		return
	}
	g.vm.deleteGlobalRef(g.obj.raw)
}
