package jni

import (
	"github.com/feather-lang/jni/sys"
)

// FindClass resolves a class by its slash-separated binary name. A class that
// does not resolve is reported as a *NotFoundError and the exception the
// runtime raised for it is cleared.
func (e *Env) FindClass(name string) (Object, error) {
	if e.closed {
		return Object{}, ErrEnvClosed
	}
	raw := e.raw.FindClass(name)
	if raw == 0 {
		e.clearLookupFailure()
		return Object{}, &NotFoundError{Kind: "class", Class: name}
	}
	return e.issue(raw), nil
}

// GetObjectClass returns the runtime class of obj.
func (e *Env) GetObjectClass(obj Object) (Object, error) {
	if err := e.check(obj); err != nil {
		return Object{}, err
	}
	if obj.IsNull() {
		return Object{}, nullArg("GetObjectClass")
	}
	return e.nonNull(e.raw.GetObjectClass(obj.raw), "GetObjectClass")
}

// GetMethodID resolves an instance method or constructor of class.
func (e *Env) GetMethodID(class ClassDesc, name, sig string) (MethodID, error) {
	cls, err := e.LookupClass(class)
	if err != nil {
		return MethodID{}, err
	}
	defer cls.Release()
	raw, err := e.methodIn(false, cls.Object(), class, name, sig)
	return MethodID{raw}, err
}

// GetStaticMethodID resolves a static method of class.
func (e *Env) GetStaticMethodID(class ClassDesc, name, sig string) (StaticMethodID, error) {
	cls, err := e.LookupClass(class)
	if err != nil {
		return StaticMethodID{}, err
	}
	defer cls.Release()
	raw, err := e.methodIn(true, cls.Object(), class, name, sig)
	return StaticMethodID{raw}, err
}

// GetFieldID resolves an instance field of class.
func (e *Env) GetFieldID(class ClassDesc, name, sig string) (FieldID, error) {
	cls, err := e.LookupClass(class)
	if err != nil {
		return FieldID{}, err
	}
	defer cls.Release()
	raw, err := e.fieldIn(false, cls.Object(), class, name, sig)
	return FieldID{raw}, err
}

// GetStaticFieldID resolves a static field of class.
func (e *Env) GetStaticFieldID(class ClassDesc, name, sig string) (StaticFieldID, error) {
	cls, err := e.LookupClass(class)
	if err != nil {
		return StaticFieldID{}, err
	}
	defer cls.Release()
	raw, err := e.fieldIn(true, cls.Object(), class, name, sig)
	return StaticFieldID{raw}, err
}

// methodIn looks a method up in an already resolved class; class only names
// it in errors.
func (e *Env) methodIn(static bool, cls Object, class ClassDesc, name, sig string) (sys.Jmethod, error) {
	var raw sys.Jmethod
	kind := "method"
	if static {
		kind = "static method"
		raw = e.raw.GetStaticMethodID(cls.raw, name, sig)
	} else {
		raw = e.raw.GetMethodID(cls.raw, name, sig)
	}
	if raw == 0 {
		e.clearLookupFailure()
		return 0, &NotFoundError{Kind: kind, Class: class.String(), Name: name, Signature: sig}
	}
	return raw, nil
}

func (e *Env) fieldIn(static bool, cls Object, class ClassDesc, name, sig string) (sys.Jfield, error) {
	var raw sys.Jfield
	kind := "field"
	if static {
		kind = "static field"
		raw = e.raw.GetStaticFieldID(cls.raw, name, sig)
	} else {
		raw = e.raw.GetFieldID(cls.raw, name, sig)
	}
	if raw == 0 {
		e.clearLookupFailure()
		return 0, &NotFoundError{Kind: kind, Class: class.String(), Name: name, Signature: sig}
	}
	return raw, nil
}
