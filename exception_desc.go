package jni

// DefaultExceptionClass is thrown when an exception is described by its
// message alone.
const DefaultExceptionClass = "java/lang/RuntimeException"

// ExceptionDesc describes a throwable: a class and message to construct, or
// an existing throwable.
type ExceptionDesc struct {
	class    ClassDesc
	msg      string
	obj      Object
	resolved bool
}

// Exception describes a new instance of class built with its
// (Ljava/lang/String;)V constructor.
func Exception(class ClassDesc, msg string) ExceptionDesc {
	return ExceptionDesc{class: class, msg: msg}
}

// ExceptionMsg describes a new DefaultExceptionClass with msg.
func ExceptionMsg(msg string) ExceptionDesc {
	return Exception(ClassName(DefaultExceptionClass), msg)
}

// ExceptionObject uses an existing throwable.
func ExceptionObject(throwable Object) ExceptionDesc {
	return ExceptionDesc{obj: throwable, resolved: true}
}

// LookupException resolves d. A constructed throwable is returned as an
// owned local reference; the temporary message string is deleted before
// returning.
func (e *Env) LookupException(d ExceptionDesc) (Lookup, error) {
	if d.resolved {
		if err := e.check(d.obj); err != nil {
			return Lookup{}, err
		}
		return borrowed(d.obj), nil
	}

	msg, err := e.NewString(d.msg)
	if err != nil {
		return Lookup{}, err
	}
	msgGuard := e.AutoLocal(msg)
	defer msgGuard.Release()

	obj, err := e.NewObject(d.class, "(Ljava/lang/String;)V", []Value{ObjectValue(msg)})
	if err != nil {
		return Lookup{}, err
	}
	return owned(e.AutoLocal(obj)), nil
}
