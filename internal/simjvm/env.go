package simjvm

import (
	"errors"
	"fmt"

	"github.com/feather-lang/jni/sys"
)

// Env is the function table of one attached thread. It implements sys.Env.
//
// Every entry point takes the VM lock for its duration, so method
// implementations run with the lock held and must not call back into an
// Env. Use the *Call they receive instead.
type Env struct {
	vm       *VM
	tid      int
	frames   []*frame
	pending  *Object
	detached bool
}

var _ sys.Env = (*Env)(nil)

// enter locks the VM and records a call to name. The caller defers the
// returned unlock.
func (e *Env) enter(name string) func() {
	e.vm.mu.Lock()
	if e.detached {
		e.vm.mu.Unlock()
		panic(fmt.Sprintf("simjvm: %s on the Env of a detached thread", name))
	}
	e.vm.calls[name]++
	return e.vm.mu.Unlock
}

// Thread returns the OS thread the Env is attached to.
func (e *Env) Thread() int { return e.tid }

func (e *Env) GetVersion() int32 {
	defer e.enter("GetVersion")()
	return e.vm.version
}

// -----------------------------------------------------------------------------
// Exceptions
// -----------------------------------------------------------------------------

func (e *Env) throwObject(o *Object) {
	e.pending = o
	e.vm.logger.Debug("exception thrown", "exception", o.String(), "thread", e.tid)
}

// throwNew raises a new instance of the named throwable class.
func (e *Env) throwNew(class, msg string) {
	cls, ok := e.vm.classes[class]
	if !ok {
		cls = e.vm.classes[runtimeException]
	}
	e.throwObject(e.vm.newThrowable(cls, msg))
}

// throwErr raises the exception a method implementation returned.
func (e *Env) throwErr(err error) {
	var t *Thrown
	if errors.As(err, &t) {
		e.throwNew(t.Class, t.Message)
		return
	}
	e.throwNew(runtimeException, err.Error())
}

// newThrowable allocates an instance of cls with its detail message set.
func (vm *VM) newThrowable(cls *Class, msg string) *Object {
	o := vm.alloc(cls, nil)
	o.SetField("detailMessage", Obj(vm.alloc(vm.classes[stringClass], msg)))
	return o
}

func (e *Env) Throw(obj sys.Jobject) sys.Errno {
	defer e.enter("Throw")()
	o := e.deref(obj)
	if o == nil || !o.class.AssignableTo(e.vm.classes[throwableClass]) {
		return sys.EINVAL
	}
	e.throwObject(o)
	return sys.OK
}

func (e *Env) ThrowNew(class sys.Jobject, msg string) sys.Errno {
	defer e.enter("ThrowNew")()
	cls := e.classArg(class)
	if cls == nil || !cls.AssignableTo(e.vm.classes[throwableClass]) {
		return sys.EINVAL
	}
	e.throwObject(e.vm.newThrowable(cls, msg))
	return sys.OK
}

func (e *Env) ExceptionOccurred() sys.Jobject {
	defer e.enter("ExceptionOccurred")()
	return e.newLocal(e.pending, true)
}

func (e *Env) ExceptionCheck() bool {
	defer e.enter("ExceptionCheck")()
	return e.pending != nil
}

func (e *Env) ExceptionClear() {
	defer e.enter("ExceptionClear")()
	e.pending = nil
}

// -----------------------------------------------------------------------------
// Classes and members
// -----------------------------------------------------------------------------

// classArg resolves a reference to a class object. A reference to anything
// else is a caller bug.
func (e *Env) classArg(raw sys.Jobject) *Class {
	o := e.deref(raw)
	if o == nil {
		return nil
	}
	cls, ok := o.Data.(*Class)
	if !ok {
		panic(&InvalidRefError{Ref: raw, Reason: "not a class: " + o.String()})
	}
	return cls
}

func (e *Env) FindClass(name string) sys.Jobject {
	defer e.enter("FindClass")()
	cls, ok := e.vm.classes[name]
	if !ok {
		e.throwNew(noClassDefFoundError, name)
		return 0
	}
	return e.newLocal(cls.object, false)
}

func (e *Env) GetObjectClass(obj sys.Jobject) sys.Jobject {
	defer e.enter("GetObjectClass")()
	o := e.deref(obj)
	if o == nil {
		e.throwNew(nullPointerException, "GetObjectClass")
		return 0
	}
	return e.newLocal(o.class.object, false)
}

func (e *Env) IsInstanceOf(obj, class sys.Jobject) bool {
	defer e.enter("IsInstanceOf")()
	o := e.deref(obj)
	cls := e.classArg(class)
	if o == nil {
		return true
	}
	return cls != nil && o.class.AssignableTo(cls)
}

func (e *Env) IsSameObject(a, b sys.Jobject) bool {
	defer e.enter("IsSameObject")()
	return e.deref(a) == e.deref(b)
}

func (e *Env) GetMethodID(class sys.Jobject, name, sig string) sys.Jmethod {
	defer e.enter("GetMethodID")()
	cls := e.classArg(class)
	if cls == nil {
		e.throwNew(nullPointerException, "GetMethodID")
		return 0
	}
	m := cls.findMethod(name + sig)
	if m == nil {
		e.throwNew(noSuchMethodError, name)
		return 0
	}
	return m.id
}

func (e *Env) GetStaticMethodID(class sys.Jobject, name, sig string) sys.Jmethod {
	defer e.enter("GetStaticMethodID")()
	cls := e.classArg(class)
	if cls == nil {
		e.throwNew(nullPointerException, "GetStaticMethodID")
		return 0
	}
	m := cls.findStatic(name + sig)
	if m == nil {
		e.throwNew(noSuchMethodError, name)
		return 0
	}
	return m.id
}

func (e *Env) GetFieldID(class sys.Jobject, name, sig string) sys.Jfield {
	defer e.enter("GetFieldID")()
	return e.fieldID(class, name, sig, false)
}

func (e *Env) GetStaticFieldID(class sys.Jobject, name, sig string) sys.Jfield {
	defer e.enter("GetStaticFieldID")()
	return e.fieldID(class, name, sig, true)
}

func (e *Env) fieldID(class sys.Jobject, name, sig string, static bool) sys.Jfield {
	cls := e.classArg(class)
	if cls == nil {
		e.throwNew(nullPointerException, "GetFieldID")
		return 0
	}
	f := cls.findField(name, static)
	if f == nil || f.sig != sig {
		e.throwNew(noSuchFieldError, name)
		return 0
	}
	return f.id
}

func (vm *VM) method(id sys.Jmethod) *method {
	if id == 0 || int(id) > len(vm.methods) {
		panic(fmt.Sprintf("simjvm: invalid method id %#x", uintptr(id)))
	}
	return vm.methods[id-1]
}

func (vm *VM) field(id sys.Jfield) *field {
	if id == 0 || int(id) > len(vm.fields) {
		panic(fmt.Sprintf("simjvm: invalid field id %#x", uintptr(id)))
	}
	return vm.fields[id-1]
}

// -----------------------------------------------------------------------------
// Calls
// -----------------------------------------------------------------------------

// invoke runs m with decoded arguments. It reports false if the call threw.
func (e *Env) invoke(m *method, this *Object, args []sys.Jvalue) (Value, bool) {
	if len(args) != len(m.params) {
		e.throwNew(illegalArgumentException,
			fmt.Sprintf("%s%s takes %d arguments, got %d", m.name, m.sig, len(m.params), len(args)))
		return Value{}, false
	}
	vals := make([]Value, len(args))
	for i, w := range args {
		vals[i] = e.decodeWord(m.params[i], w)
	}
	res, err := m.fn(&Call{env: e}, this, vals)
	if err != nil {
		e.throwErr(err)
		return Value{}, false
	}
	return res, true
}

func checkRet(m *method, ret sys.Kind) {
	if m.ret != ret {
		panic(fmt.Sprintf("simjvm: %s.%s%s returns %s, called as %s", m.class.Name, m.name, m.sig, m.ret, ret))
	}
}

func (e *Env) CallMethodA(obj sys.Jobject, mid sys.Jmethod, ret sys.Kind, args []sys.Jvalue) sys.Jvalue {
	defer e.enter("CallMethod")()
	m := e.vm.method(mid)
	if m.static {
		panic(fmt.Sprintf("simjvm: CallMethodA with static method %s", m.name))
	}
	checkRet(m, ret)
	this := e.deref(obj)
	if this == nil {
		e.throwNew(nullPointerException, "calling "+m.name+" on null")
		return 0
	}
	impl := this.class.dispatch(m.key())
	if impl == nil {
		e.throwNew(abstractMethodError, this.class.DottedName()+"."+m.name+m.sig)
		return 0
	}
	res, ok := e.invoke(impl, this, args)
	if !ok {
		return 0
	}
	return e.encodeWord(ret, res)
}

func (e *Env) CallStaticMethodA(class sys.Jobject, mid sys.Jmethod, ret sys.Kind, args []sys.Jvalue) sys.Jvalue {
	defer e.enter("CallStaticMethod")()
	m := e.vm.method(mid)
	if !m.static {
		panic(fmt.Sprintf("simjvm: CallStaticMethodA with instance method %s", m.name))
	}
	checkRet(m, ret)
	cls := e.classArg(class)
	if cls == nil {
		e.throwNew(nullPointerException, "CallStaticMethod")
		return 0
	}
	res, ok := e.invoke(m, cls.object, args)
	if !ok {
		return 0
	}
	return e.encodeWord(ret, res)
}

func (e *Env) NewObjectA(class sys.Jobject, ctor sys.Jmethod, args []sys.Jvalue) sys.Jobject {
	defer e.enter("NewObject")()
	cls := e.classArg(class)
	if cls == nil {
		e.throwNew(nullPointerException, "NewObject")
		return 0
	}
	m := e.vm.method(ctor)
	if m.name != "<init>" || m.class != cls {
		panic(fmt.Sprintf("simjvm: %s%s is not a constructor of %s", m.name, m.sig, cls.Name))
	}
	if cls.Interface {
		e.throwNew(instantiationException, cls.DottedName())
		return 0
	}
	o := e.vm.alloc(cls, nil)
	if _, ok := e.invoke(m, o, args); !ok {
		return 0
	}
	return e.newLocal(o, false)
}

// -----------------------------------------------------------------------------
// Fields
// -----------------------------------------------------------------------------

func (e *Env) GetField(obj sys.Jobject, fid sys.Jfield, kind sys.Kind) sys.Jvalue {
	defer e.enter("GetField")()
	f := e.vm.field(fid)
	o := e.deref(obj)
	if o == nil {
		e.throwNew(nullPointerException, "reading field "+f.name)
		return 0
	}
	return e.encodeWord(kind, o.fields[f])
}

func (e *Env) SetField(obj sys.Jobject, fid sys.Jfield, kind sys.Kind, value sys.Jvalue) {
	defer e.enter("SetField")()
	f := e.vm.field(fid)
	o := e.deref(obj)
	if o == nil {
		e.throwNew(nullPointerException, "writing field "+f.name)
		return
	}
	o.fields[f] = e.decodeWord(kind, value)
}

func (e *Env) GetStaticField(class sys.Jobject, fid sys.Jfield, kind sys.Kind) sys.Jvalue {
	defer e.enter("GetStaticField")()
	e.classArg(class)
	return e.encodeWord(kind, e.vm.field(fid).value)
}

func (e *Env) SetStaticField(class sys.Jobject, fid sys.Jfield, kind sys.Kind, value sys.Jvalue) {
	defer e.enter("SetStaticField")()
	e.classArg(class)
	e.vm.field(fid).value = e.decodeWord(kind, value)
}

// -----------------------------------------------------------------------------
// Strings
// -----------------------------------------------------------------------------

func (e *Env) NewStringUTF(s string) sys.Jobject {
	defer e.enter("NewString")()
	return e.newLocal(e.vm.alloc(e.vm.classes[stringClass], s), false)
}

func (e *Env) GetStringUTF(str sys.Jobject) (string, bool) {
	defer e.enter("GetStringUTF")()
	o := e.deref(str)
	if o == nil {
		return "", false
	}
	s, ok := o.Data.(string)
	return s, ok
}

// -----------------------------------------------------------------------------
// References and frames
// -----------------------------------------------------------------------------

func (e *Env) NewLocalRef(obj sys.Jobject) sys.Jobject {
	defer e.enter("NewLocalRef")()
	return e.newLocal(e.deref(obj), false)
}

func (e *Env) DeleteLocalRef(obj sys.Jobject) {
	defer e.enter("DeleteLocalRef")()
	e.deleteLocal(obj)
}

func (e *Env) NewGlobalRef(obj sys.Jobject) sys.Jobject {
	defer e.enter("NewGlobalRef")()
	return e.vm.newGlobal(e.deref(obj))
}

func (e *Env) DeleteGlobalRef(obj sys.Jobject) {
	defer e.enter("DeleteGlobalRef")()
	e.vm.deleteGlobal(obj)
}

func (e *Env) GetObjectRefType(obj sys.Jobject) sys.RefType {
	defer e.enter("GetObjectRefType")()
	r, ok := e.vm.refs[obj]
	if !ok || (r.typ == sys.LocalRefType && r.env != e) {
		return sys.InvalidRefType
	}
	return r.typ
}

func (e *Env) EnsureLocalCapacity(capacity int32) sys.Errno {
	defer e.enter("EnsureLocalCapacity")()
	if capacity < 0 {
		return sys.EINVAL
	}
	f := e.top()
	need := len(f.refs) + int(capacity)
	if need > e.vm.maxLocals {
		e.throwNew(outOfMemoryError, fmt.Sprintf("cannot ensure %d local references", capacity))
		return sys.ENOMEM
	}
	if need > f.capacity {
		f.capacity = need
	}
	return sys.OK
}

func (e *Env) PushLocalFrame(capacity int32) sys.Errno {
	defer e.enter("PushLocalFrame")()
	if capacity < 0 {
		return sys.EINVAL
	}
	if int(capacity) > e.vm.maxLocals {
		e.throwNew(outOfMemoryError, fmt.Sprintf("cannot push a frame of %d local references", capacity))
		return sys.ENOMEM
	}
	e.frames = append(e.frames, newFrame(int(capacity)))
	e.vm.logger.Debug("pushed local frame", "thread", e.tid, "depth", len(e.frames)-1, "capacity", capacity)
	return sys.OK
}

func (e *Env) PopLocalFrame(result sys.Jobject) sys.Jobject {
	defer e.enter("PopLocalFrame")()
	if len(e.frames) == 1 {
		e.vm.logger.Warn("PopLocalFrame without a pushed frame", "thread", e.tid)
		return 0
	}
	res := e.deref(result)
	f := e.top()
	e.releaseFrame(f)
	e.frames = e.frames[:len(e.frames)-1]
	e.vm.logger.Debug("popped local frame", "thread", e.tid, "depth", len(e.frames))
	return e.newLocal(res, true)
}

func (e *Env) GetJavaVM() (sys.VM, error) {
	defer e.enter("GetJavaVM")()
	return e.vm, nil
}

// Frames returns the number of pushed local frames, not counting the base
// frame.
func (e *Env) Frames() int {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	return len(e.frames) - 1
}

// LocalRefs returns the number of live local references of the thread.
func (e *Env) LocalRefs() int {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	n := 0
	for _, f := range e.frames {
		n += len(f.refs)
	}
	return n
}
