package sys

// Env is the per-thread function table of the foreign runtime.
//
// Entry points follow the runtime's conventions rather than Go's: lookups
// return zero and leave an exception pending on failure, calls leave an
// exception pending when the callee throws, and every returned object is a
// new local reference in the current frame. An Env must only be used from the
// OS thread it was obtained on.
type Env interface {
	GetVersion() int32

	FindClass(name string) Jobject
	GetObjectClass(obj Jobject) Jobject
	IsInstanceOf(obj, class Jobject) bool
	IsSameObject(a, b Jobject) bool

	GetMethodID(class Jobject, name, sig string) Jmethod
	GetStaticMethodID(class Jobject, name, sig string) Jmethod
	GetFieldID(class Jobject, name, sig string) Jfield
	GetStaticFieldID(class Jobject, name, sig string) Jfield

	// CallMethodA invokes method on obj. The caller guarantees that args
	// match the method's declared parameter kinds and ret its return kind.
	CallMethodA(obj Jobject, method Jmethod, ret Kind, args []Jvalue) Jvalue
	CallStaticMethodA(class Jobject, method Jmethod, ret Kind, args []Jvalue) Jvalue
	NewObjectA(class Jobject, ctor Jmethod, args []Jvalue) Jobject

	GetField(obj Jobject, field Jfield, kind Kind) Jvalue
	SetField(obj Jobject, field Jfield, kind Kind, value Jvalue)
	GetStaticField(class Jobject, field Jfield, kind Kind) Jvalue
	SetStaticField(class Jobject, field Jfield, kind Kind, value Jvalue)

	NewStringUTF(s string) Jobject
	// GetStringUTF returns false if str is null or not a string.
	GetStringUTF(str Jobject) (string, bool)

	NewLocalRef(obj Jobject) Jobject
	DeleteLocalRef(obj Jobject)
	NewGlobalRef(obj Jobject) Jobject
	DeleteGlobalRef(obj Jobject)
	GetObjectRefType(obj Jobject) RefType

	EnsureLocalCapacity(capacity int32) Errno
	PushLocalFrame(capacity int32) Errno
	// PopLocalFrame frees every local reference of the current frame and
	// returns a reference to result valid in the previous frame.
	PopLocalFrame(result Jobject) Jobject

	Throw(obj Jobject) Errno
	ThrowNew(class Jobject, msg string) Errno
	ExceptionOccurred() Jobject
	ExceptionCheck() bool
	ExceptionClear()

	GetJavaVM() (VM, error)
}

// VM is the invocation interface of the foreign runtime. Unlike Env it may
// be used from any thread.
type VM interface {
	// GetEnv returns the Env of the calling thread, or EDETACHED if the
	// thread is not attached.
	GetEnv(version int32) (Env, error)
	// AttachCurrentThread attaches the calling thread, returning its Env.
	// Attaching an attached thread returns the existing Env.
	AttachCurrentThread() (Env, error)
	// DetachCurrentThread frees every local reference of the calling thread
	// and detaches it.
	DetachCurrentThread() error
}
