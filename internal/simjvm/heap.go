package simjvm

import (
	"fmt"
)

// Object is a heap object.
//
// Data holds the native state of built-in classes: a string for
// java/lang/String, a *Class for java/lang/Class, the map storage for
// java/util/HashMap. Values in Data that hold other objects must implement
// tracer so collection can see them.
type Object struct {
	id     uint64
	class  *Class
	fields map[*field]Value
	Data   any
}

// tracer is implemented by native state that references heap objects.
type tracer interface {
	trace(mark func(*Object))
}

func (o *Object) Class() *Class { return o.class }
func (o *Object) ID() uint64    { return o.id }

func (o *Object) String() string {
	if o == nil {
		return "null"
	}
	return fmt.Sprintf("%s@%x", o.class.DottedName(), o.id)
}

// Field returns the value of the named instance field, or the zero Value if
// the class has no such field.
func (o *Object) Field(name string) Value {
	if f := o.class.findField(name, false); f != nil {
		return o.fields[f]
	}
	return Value{}
}

// SetField sets the named instance field. Unknown names are ignored.
func (o *Object) SetField(name string, v Value) {
	if f := o.class.findField(name, false); f != nil {
		o.fields[f] = v
	}
}

// alloc creates an object of cls with zeroed fields. The caller holds vm.mu.
func (vm *VM) alloc(cls *Class, data any) *Object {
	vm.nextObject++
	o := &Object{id: vm.nextObject, class: cls, fields: make(map[*field]Value), Data: data}
	vm.heap[o] = struct{}{}
	vm.allocated++
	return o
}

// Collect frees every object not reachable from a class, a live reference or
// a pending exception, and returns how many were freed.
func (vm *VM) Collect() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	marked := make(map[*Object]bool, len(vm.heap))
	var stack []*Object
	mark := func(o *Object) {
		if o != nil && !marked[o] {
			marked[o] = true
			stack = append(stack, o)
		}
	}

	for _, cls := range vm.classes {
		mark(cls.object)
		for _, f := range cls.sfields {
			mark(f.value.Obj)
		}
	}
	for _, r := range vm.refs {
		mark(r.obj)
	}
	for _, env := range vm.threads {
		mark(env.pending)
	}

	for len(stack) > 0 {
		o := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, v := range o.fields {
			mark(v.Obj)
		}
		if t, ok := o.Data.(tracer); ok {
			t.trace(mark)
		}
	}

	freed := 0
	for o := range vm.heap {
		if !marked[o] {
			delete(vm.heap, o)
			freed++
		}
	}
	vm.collected += uint64(freed)
	vm.logger.Debug("collected", "freed", freed, "live", len(vm.heap))
	return freed
}

// LiveObjects returns the number of objects on the heap.
func (vm *VM) LiveObjects() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return len(vm.heap)
}
