package jni

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/feather-lang/jni/sys"
)

// LevelTrace is the level value conversions are logged at. It sits below
// Debug so that ordinary debug logging stays readable.
const LevelTrace = slog.LevelDebug - 4

// marshal encodes call arguments, rejecting stale or foreign object handles.
func (e *Env) marshal(args []Value) ([]sys.Jvalue, error) {
	if len(args) == 0 {
		return nil, nil
	}
	words := make([]sys.Jvalue, len(args))
	for i, a := range args {
		if a.kind == KindObject {
			if err := e.check(a.obj); err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
		}
		words[i] = a.ToJNI()
	}
	e.trace("marshalled arguments", slog.Any("args", args))
	return words, nil
}

// unmarshal decodes a call result. A pending exception wins over the result;
// an object returned alongside one is deleted.
func (e *Env) unmarshal(kind Kind, word sys.Jvalue) (Value, error) {
	if e.raw.ExceptionCheck() {
		if kind == KindObject && word != 0 {
			e.raw.DeleteLocalRef(sys.Jobject(word))
		}
		return Value{}, ErrJavaException
	}
	var obj Object
	if kind == KindObject {
		obj = e.issue(sys.Jobject(word))
	}
	v := FromJNI(kind, word, obj)
	e.trace("unmarshalled result", slog.String("value", v.String()))
	return v, nil
}

func (e *Env) trace(msg string, attrs ...slog.Attr) {
	ctx := context.Background()
	if e.logger.Enabled(ctx, LevelTrace) {
		e.logger.LogAttrs(ctx, LevelTrace, msg, attrs...)
	}
}

func (e *Env) receiver(obj Object) error {
	if err := e.check(obj); err != nil {
		return err
	}
	if obj.IsNull() {
		return nullArg("method receiver")
	}
	return nil
}

// checkedSig parses sig and validates args against it.
func checkedSig(sig string, args []Value) (MethodSignature, error) {
	ms, err := ParseMethodSignature(sig)
	if err != nil {
		return MethodSignature{}, err
	}
	if err := ms.CheckArgs(args); err != nil {
		return MethodSignature{}, err
	}
	return ms, nil
}

// CallMethodUnchecked invokes an instance method. The caller guarantees that
// args and ret match the method's signature; a mismatch is undefined
// behaviour in the runtime.
func (e *Env) CallMethodUnchecked(obj Object, method MethodDesc, ret Kind, args []Value) (Value, error) {
	if err := e.receiver(obj); err != nil {
		return Value{}, err
	}
	id, err := e.LookupMethod(method)
	if err != nil {
		return Value{}, err
	}
	words, err := e.marshal(args)
	if err != nil {
		return Value{}, err
	}
	return e.unmarshal(ret, e.raw.CallMethodA(obj.raw, id.raw, ret, words))
}

// CallMethod looks up name and sig on the runtime class of obj and invokes
// it after checking args against sig.
//
//	v, err := env.CallMethod(m, "get", "(Ljava/lang/Object;)Ljava/lang/Object;",
//	    []jni.Value{jni.ObjectValue(key)})
func (e *Env) CallMethod(obj Object, name, sig string, args []Value) (Value, error) {
	ms, err := checkedSig(sig, args)
	if err != nil {
		return Value{}, err
	}
	if err := e.receiver(obj); err != nil {
		return Value{}, err
	}
	id, err := e.GetMethodID(ClassOfInstance(obj), name, sig)
	if err != nil {
		return Value{}, err
	}
	return e.CallMethodUnchecked(obj, Method(id), ms.Ret.ValueKind(), args)
}

// CallStaticMethodUnchecked invokes a static method of class. The caller
// guarantees that args and ret match the method's signature.
func (e *Env) CallStaticMethodUnchecked(class ClassDesc, method StaticMethodDesc, ret Kind, args []Value) (Value, error) {
	cls, err := e.LookupClass(class)
	if err != nil {
		return Value{}, err
	}
	defer cls.Release()
	id, err := e.LookupStaticMethod(method)
	if err != nil {
		return Value{}, err
	}
	words, err := e.marshal(args)
	if err != nil {
		return Value{}, err
	}
	return e.unmarshal(ret, e.raw.CallStaticMethodA(cls.Object().raw, id.raw, ret, words))
}

// CallStaticMethod looks up a static method by name and sig and invokes it
// after checking args against sig.
func (e *Env) CallStaticMethod(class ClassDesc, name, sig string, args []Value) (Value, error) {
	ms, err := checkedSig(sig, args)
	if err != nil {
		return Value{}, err
	}
	cls, err := e.LookupClass(class)
	if err != nil {
		return Value{}, err
	}
	defer cls.Release()
	id, err := e.methodIn(true, cls.Object(), class, name, sig)
	if err != nil {
		return Value{}, err
	}
	words, err := e.marshal(args)
	if err != nil {
		return Value{}, err
	}
	ret := ms.Ret.ValueKind()
	return e.unmarshal(ret, e.raw.CallStaticMethodA(cls.Object().raw, id, ret, words))
}

// NewObjectUnchecked constructs an instance of class with ctor. The caller
// guarantees that args match the constructor's signature.
func (e *Env) NewObjectUnchecked(class ClassDesc, ctor MethodDesc, args []Value) (Object, error) {
	cls, err := e.LookupClass(class)
	if err != nil {
		return Object{}, err
	}
	defer cls.Release()
	id, err := e.LookupMethod(ctor)
	if err != nil {
		return Object{}, err
	}
	words, err := e.marshal(args)
	if err != nil {
		return Object{}, err
	}
	return e.nonNull(e.raw.NewObjectA(cls.Object().raw, id.raw, words), "NewObject")
}

// NewObject constructs an instance of class with the constructor of
// signature sig, which must return void.
func (e *Env) NewObject(class ClassDesc, sig string, args []Value) (Object, error) {
	ms, err := checkedSig(sig, args)
	if err != nil {
		return Object{}, err
	}
	if ms.Ret.ValueKind() != KindVoid {
		return Object{}, &SignatureError{Signature: sig, Offset: len(sig) - 1, Reason: "constructor must return void"}
	}
	cls, err := e.LookupClass(class)
	if err != nil {
		return Object{}, err
	}
	defer cls.Release()
	id, err := e.methodIn(false, cls.Object(), class, ConstructorName, sig)
	if err != nil {
		return Object{}, err
	}
	words, err := e.marshal(args)
	if err != nil {
		return Object{}, err
	}
	return e.nonNull(e.raw.NewObjectA(cls.Object().raw, id, words), "NewObject")
}
