package jni

import (
	"fmt"
)

func fieldKind(sig string) (Kind, error) {
	t, err := ParseType(sig)
	if err != nil {
		return 0, err
	}
	return t.ValueKind(), nil
}

func (e *Env) fieldValue(kind Kind, v Value) error {
	if v.kind != kind {
		return fmt.Errorf("%w: %w", ErrInvalidArguments, v.mismatch(kind))
	}
	if kind == KindObject {
		return e.check(v.obj)
	}
	return nil
}

// GetFieldUnchecked reads an instance field. The caller guarantees that kind
// matches the field's type.
func (e *Env) GetFieldUnchecked(obj Object, field FieldDesc, kind Kind) (Value, error) {
	if err := e.receiver(obj); err != nil {
		return Value{}, err
	}
	id, err := e.LookupField(field)
	if err != nil {
		return Value{}, err
	}
	return e.unmarshal(kind, e.raw.GetField(obj.raw, id.raw, kind))
}

// GetField reads the field name of type sig from obj's runtime class.
func (e *Env) GetField(obj Object, name, sig string) (Value, error) {
	kind, err := fieldKind(sig)
	if err != nil {
		return Value{}, err
	}
	if err := e.receiver(obj); err != nil {
		return Value{}, err
	}
	id, err := e.GetFieldID(ClassOfInstance(obj), name, sig)
	if err != nil {
		return Value{}, err
	}
	return e.GetFieldUnchecked(obj, Field(id), kind)
}

// SetFieldUnchecked writes an instance field. The caller guarantees that v
// matches the field's type.
func (e *Env) SetFieldUnchecked(obj Object, field FieldDesc, v Value) error {
	if err := e.receiver(obj); err != nil {
		return err
	}
	if v.kind == KindObject {
		if err := e.check(v.obj); err != nil {
			return err
		}
	}
	id, err := e.LookupField(field)
	if err != nil {
		return err
	}
	e.raw.SetField(obj.raw, id.raw, v.kind, v.ToJNI())
	return e.pending()
}

// SetField writes v to the field name of type sig on obj's runtime class.
func (e *Env) SetField(obj Object, name, sig string, v Value) error {
	kind, err := fieldKind(sig)
	if err != nil {
		return err
	}
	if err := e.fieldValue(kind, v); err != nil {
		return err
	}
	if err := e.receiver(obj); err != nil {
		return err
	}
	id, err := e.GetFieldID(ClassOfInstance(obj), name, sig)
	if err != nil {
		return err
	}
	return e.SetFieldUnchecked(obj, Field(id), v)
}

// GetStaticFieldUnchecked reads a static field of class. The caller
// guarantees that kind matches the field's type.
func (e *Env) GetStaticFieldUnchecked(class ClassDesc, field StaticFieldDesc, kind Kind) (Value, error) {
	cls, err := e.LookupClass(class)
	if err != nil {
		return Value{}, err
	}
	defer cls.Release()
	id, err := e.LookupStaticField(field)
	if err != nil {
		return Value{}, err
	}
	return e.unmarshal(kind, e.raw.GetStaticField(cls.Object().raw, id.raw, kind))
}

// GetStaticField reads the static field name of type sig.
func (e *Env) GetStaticField(class ClassDesc, name, sig string) (Value, error) {
	kind, err := fieldKind(sig)
	if err != nil {
		return Value{}, err
	}
	cls, err := e.LookupClass(class)
	if err != nil {
		return Value{}, err
	}
	defer cls.Release()
	id, err := e.fieldIn(true, cls.Object(), class, name, sig)
	if err != nil {
		return Value{}, err
	}
	return e.unmarshal(kind, e.raw.GetStaticField(cls.Object().raw, id, kind))
}

// SetStaticFieldUnchecked writes a static field of class. The caller
// guarantees that v matches the field's type.
func (e *Env) SetStaticFieldUnchecked(class ClassDesc, field StaticFieldDesc, v Value) error {
	if v.kind == KindObject {
		if err := e.check(v.obj); err != nil {
			return err
		}
	}
	cls, err := e.LookupClass(class)
	if err != nil {
		return err
	}
	defer cls.Release()
	id, err := e.LookupStaticField(field)
	if err != nil {
		return err
	}
	e.raw.SetStaticField(cls.Object().raw, id.raw, v.kind, v.ToJNI())
	return e.pending()
}

// SetStaticField writes v to the static field name of type sig.
func (e *Env) SetStaticField(class ClassDesc, name, sig string, v Value) error {
	kind, err := fieldKind(sig)
	if err != nil {
		return err
	}
	if err := e.fieldValue(kind, v); err != nil {
		return err
	}
	cls, err := e.LookupClass(class)
	if err != nil {
		return err
	}
	defer cls.Release()
	id, err := e.fieldIn(true, cls.Object(), class, name, sig)
	if err != nil {
		return err
	}
	e.raw.SetStaticField(cls.Object().raw, id, v.kind, v.ToJNI())
	return e.pending()
}
