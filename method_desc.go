package jni

import "fmt"

// ConstructorName is the method name constructors are looked up under.
const ConstructorName = "<init>"

// MethodDesc names an instance method or constructor.
type MethodDesc struct {
	id    MethodID
	named bool
	class ClassDesc
	name  string
	sig   string
}

// Method uses an already resolved ID.
func Method(id MethodID) MethodDesc {
	return MethodDesc{id: id}
}

// MethodByName names a method by class, name and signature.
func MethodByName(class ClassDesc, name, sig string) MethodDesc {
	return MethodDesc{named: true, class: class, name: name, sig: sig}
}

// Constructor names the constructor of class with the given signature.
func Constructor(class ClassDesc, sig string) MethodDesc {
	return MethodByName(class, ConstructorName, sig)
}

func (d MethodDesc) String() string {
	if !d.named {
		return fmt.Sprintf("method %#x", uintptr(d.id.raw))
	}
	return d.class.String() + "." + d.name + d.sig
}

// LookupMethod resolves d.
func (e *Env) LookupMethod(d MethodDesc) (MethodID, error) {
	if d.named {
		return e.GetMethodID(d.class, d.name, d.sig)
	}
	if d.id.raw == 0 {
		return MethodID{}, fmt.Errorf("%w: method id", ErrNullPointer)
	}
	return d.id, nil
}

// StaticMethodDesc names a static method.
type StaticMethodDesc struct {
	id    StaticMethodID
	named bool
	class ClassDesc
	name  string
	sig   string
}

// StaticMethod uses an already resolved ID.
func StaticMethod(id StaticMethodID) StaticMethodDesc {
	return StaticMethodDesc{id: id}
}

// StaticMethodByName names a static method by class, name and signature.
func StaticMethodByName(class ClassDesc, name, sig string) StaticMethodDesc {
	return StaticMethodDesc{named: true, class: class, name: name, sig: sig}
}

func (d StaticMethodDesc) String() string {
	if !d.named {
		return fmt.Sprintf("static method %#x", uintptr(d.id.raw))
	}
	return d.class.String() + "." + d.name + d.sig
}

// LookupStaticMethod resolves d.
func (e *Env) LookupStaticMethod(d StaticMethodDesc) (StaticMethodID, error) {
	if d.named {
		return e.GetStaticMethodID(d.class, d.name, d.sig)
	}
	if d.id.raw == 0 {
		return StaticMethodID{}, fmt.Errorf("%w: static method id", ErrNullPointer)
	}
	return d.id, nil
}
