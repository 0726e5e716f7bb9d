package jni

import (
	"sync/atomic"

	"github.com/feather-lang/jni/sys"
)

// generations hands out scope generations. Zero is reserved for untracked
// objects.
var generations atomic.Uint64

// scope is one generation of local references.
//
// The base scope of an Env lives until the Env is closed. Each local frame
// pushes a child scope that closes when the frame is popped, which
// invalidates every Object issued under it in one step.
type scope struct {
	env    *Env
	parent *scope
	gen    uint64
	frame  bool // backed by a foreign local frame
	closed bool
}

func newScope(env *Env, parent *scope, frame bool) *scope {
	return &scope{
		env:    env,
		parent: parent,
		gen:    generations.Add(1),
		frame:  frame,
	}
}

// issue wraps a raw local reference returned by the runtime under the
// innermost scope. Null stays untracked so it is valid everywhere.
func (e *Env) issue(raw sys.Jobject) Object {
	if raw == 0 {
		return Object{}
	}
	return Object{raw: raw, scope: e.top}
}

// check validates that o may be passed to this Env.
func (e *Env) check(o Object) error {
	if e.closed {
		return ErrEnvClosed
	}
	s := o.scope
	if s == nil {
		return nil
	}
	if s.closed {
		return ErrStaleReference
	}
	if s.env != e {
		return ErrWrongEnv
	}
	return nil
}

// checkAll validates every object argument.
func (e *Env) checkAll(objs ...Object) error {
	for _, o := range objs {
		if err := e.check(o); err != nil {
			return err
		}
	}
	return nil
}

// pushScope opens a child scope for a freshly pushed local frame.
func (e *Env) pushScope() {
	e.top = newScope(e, e.top, true)
}

// popScope closes the innermost frame scope.
func (e *Env) popScope() {
	e.top.closed = true
	e.top = e.top.parent
}

// closeScopes closes every open scope, base included.
func (e *Env) closeScopes() {
	for s := e.top; s != nil; s = s.parent {
		s.closed = true
	}
	e.top = nil
}
