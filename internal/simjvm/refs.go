package simjvm

import (
	"fmt"

	"github.com/feather-lang/jni/sys"
)

// ref is one entry of the reference table. Raw references are indexes into
// the table rather than heap addresses, so a deleted reference is detected
// instead of silently reaching a moved or freed object.
type ref struct {
	obj   *Object
	typ   sys.RefType
	env   *Env   // owner of a local reference
	frame *frame // frame holding a local reference
}

// frame is one local frame of a thread. Its capacity is a hard limit: a
// local reference beyond it raises OutOfMemoryError.
type frame struct {
	refs     map[sys.Jobject]struct{}
	capacity int
}

func newFrame(capacity int) *frame {
	return &frame{refs: make(map[sys.Jobject]struct{}), capacity: capacity}
}

// InvalidRefError is the panic value for a reference the runtime cannot
// resolve: deleted, never issued, or a local reference of another thread.
// A real runtime would crash or corrupt memory at this point.
type InvalidRefError struct {
	Ref    sys.Jobject
	Reason string
}

func (e *InvalidRefError) Error() string {
	return fmt.Sprintf("simjvm: invalid reference %#x: %s", uintptr(e.Ref), e.Reason)
}

func (e *Env) top() *frame { return e.frames[len(e.frames)-1] }

// newLocal issues a local reference to o in the current frame. force skips
// the capacity check, for references the runtime must hand out even when
// the table is full. The caller holds vm.mu.
func (e *Env) newLocal(o *Object, force bool) sys.Jobject {
	if o == nil {
		return 0
	}
	f := e.top()
	if !force && len(f.refs) >= f.capacity {
		e.vm.logger.Debug("local reference table overflow", "thread", e.tid, "capacity", f.capacity)
		e.throwObject(e.vm.newThrowable(e.vm.classes[outOfMemoryError],
			fmt.Sprintf("local reference table overflow (max=%d)", f.capacity)))
		return 0
	}
	raw := e.vm.nextRef()
	e.vm.refs[raw] = &ref{obj: o, typ: sys.LocalRefType, env: e, frame: f}
	f.refs[raw] = struct{}{}
	e.vm.locals++
	if n := e.vm.locals; n > e.vm.peakLocals {
		e.vm.peakLocals = n
	}
	return raw
}

func (vm *VM) newGlobal(o *Object) sys.Jobject {
	if o == nil {
		return 0
	}
	raw := vm.nextRef()
	vm.refs[raw] = &ref{obj: o, typ: sys.GlobalRefType}
	vm.globals++
	return raw
}

func (vm *VM) nextRef() sys.Jobject {
	vm.refSeq++
	return sys.Jobject(vm.refSeq)
}

// deref resolves a raw reference. Null resolves to nil.
func (e *Env) deref(raw sys.Jobject) *Object {
	if raw == 0 {
		return nil
	}
	r, ok := e.vm.refs[raw]
	if !ok {
		panic(&InvalidRefError{Ref: raw, Reason: "not a live reference"})
	}
	if r.typ == sys.LocalRefType && r.env != e {
		panic(&InvalidRefError{Ref: raw, Reason: "local reference of another thread"})
	}
	return r.obj
}

func (e *Env) deleteLocal(raw sys.Jobject) {
	if raw == 0 {
		return
	}
	r, ok := e.vm.refs[raw]
	if !ok || r.typ != sys.LocalRefType || r.env != e {
		e.vm.logger.Warn("DeleteLocalRef of invalid local reference", "ref", uintptr(raw), "thread", e.tid)
		return
	}
	delete(r.frame.refs, raw)
	delete(e.vm.refs, raw)
	e.vm.locals--
}

func (vm *VM) deleteGlobal(raw sys.Jobject) {
	if raw == 0 {
		return
	}
	r, ok := vm.refs[raw]
	if !ok || r.typ != sys.GlobalRefType {
		vm.logger.Warn("DeleteGlobalRef of invalid global reference", "ref", uintptr(raw))
		return
	}
	delete(vm.refs, raw)
	vm.globals--
}

// releaseFrame deletes every reference of f.
func (e *Env) releaseFrame(f *frame) {
	for raw := range f.refs {
		delete(e.vm.refs, raw)
		e.vm.locals--
	}
	clear(f.refs)
}
