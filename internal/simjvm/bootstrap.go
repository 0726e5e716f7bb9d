package simjvm

import (
	"fmt"
	"math"
	"strconv"
	"unicode/utf16"
)

const (
	objectClass    = "java/lang/Object"
	classClass     = "java/lang/Class"
	stringClass    = "java/lang/String"
	integerClass   = "java/lang/Integer"
	throwableClass = "java/lang/Throwable"

	runtimeException         = "java/lang/RuntimeException"
	illegalArgumentException = "java/lang/IllegalArgumentException"
	nullPointerException     = "java/lang/NullPointerException"
	instantiationException   = "java/lang/InstantiationException"
	numberFormatException    = "java/lang/NumberFormatException"
	noSuchElementException   = "java/util/NoSuchElementException"
	concurrentModification   = "java/util/ConcurrentModificationException"
	outOfMemoryError         = "java/lang/OutOfMemoryError"
	noClassDefFoundError     = "java/lang/NoClassDefFoundError"
	noSuchMethodError        = "java/lang/NoSuchMethodError"
	noSuchFieldError         = "java/lang/NoSuchFieldError"
	abstractMethodError      = "java/lang/AbstractMethodError"
)

// throwables lists the exception classes loaded at startup, each after its
// superclass.
var throwables = [][2]string{
	{"java/lang/Exception", throwableClass},
	{"java/lang/Error", throwableClass},
	{runtimeException, "java/lang/Exception"},
	{"java/lang/IllegalStateException", runtimeException},
	{illegalArgumentException, runtimeException},
	{numberFormatException, illegalArgumentException},
	{nullPointerException, runtimeException},
	{"java/lang/ClassCastException", runtimeException},
	{"java/lang/UnsupportedOperationException", runtimeException},
	{instantiationException, "java/lang/Exception"},
	{noSuchElementException, runtimeException},
	{concurrentModification, runtimeException},
	{"java/lang/VirtualMachineError", "java/lang/Error"},
	{outOfMemoryError, "java/lang/VirtualMachineError"},
	{"java/lang/LinkageError", "java/lang/Error"},
	{noClassDefFoundError, "java/lang/LinkageError"},
	{"java/lang/IncompatibleClassChangeError", "java/lang/LinkageError"},
	{noSuchMethodError, "java/lang/IncompatibleClassChangeError"},
	{noSuchFieldError, "java/lang/IncompatibleClassChangeError"},
	{abstractMethodError, "java/lang/IncompatibleClassChangeError"},
}

func (vm *VM) bootstrap() error {
	defs := []ClassDef{objectDef(), classDef(), stringDef(), integerDef(), throwableDef()}
	for _, t := range throwables {
		defs = append(defs, exceptionDef(t[0], t[1]))
	}
	defs = append(defs, collectionDefs()...)

	for _, def := range defs {
		if _, err := vm.defineClass(def); err != nil {
			return err
		}
	}
	// Object was loaded before Class existed.
	obj := vm.classes[objectClass]
	obj.object = vm.alloc(vm.classes[classClass], obj)
	return nil
}

func nop(*Call, *Object, []Value) (Value, error) { return Void(), nil }

func objectDef() ClassDef {
	return ClassDef{
		Name: objectClass,
		Methods: Methods{
			"<init>()V": nop,
			"toString()Ljava/lang/String;": func(c *Call, this *Object, _ []Value) (Value, error) {
				return Obj(c.String(this.String())), nil
			},
			"hashCode()I": func(_ *Call, this *Object, _ []Value) (Value, error) {
				return Int(int32(this.id)), nil
			},
			"equals(Ljava/lang/Object;)Z": func(_ *Call, this *Object, args []Value) (Value, error) {
				return Bool(this == args[0].Obj), nil
			},
			"getClass()Ljava/lang/Class;": func(_ *Call, this *Object, _ []Value) (Value, error) {
				return Obj(this.class.object), nil
			},
		},
	}
}

func classDef() ClassDef {
	return ClassDef{
		Name: classClass,
		Methods: Methods{
			"getName()Ljava/lang/String;": func(c *Call, this *Object, _ []Value) (Value, error) {
				return Obj(c.String(this.Data.(*Class).DottedName())), nil
			},
			"isInterface()Z": func(_ *Call, this *Object, _ []Value) (Value, error) {
				return Bool(this.Data.(*Class).Interface), nil
			},
		},
	}
}

// javaHash is String#hashCode over UTF-16 code units.
func javaHash(s string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = 31*h + int32(u)
	}
	return h
}

func stringDef() ClassDef {
	str := func(o *Object) string { return o.Data.(string) }
	return ClassDef{
		Name: stringClass,
		Methods: Methods{
			"<init>()V": func(_ *Call, this *Object, _ []Value) (Value, error) {
				this.Data = ""
				return Void(), nil
			},
			"length()I": func(_ *Call, this *Object, _ []Value) (Value, error) {
				return Int(int32(len(utf16.Encode([]rune(str(this)))))), nil
			},
			"isEmpty()Z": func(_ *Call, this *Object, _ []Value) (Value, error) {
				return Bool(str(this) == ""), nil
			},
			"toString()Ljava/lang/String;": func(_ *Call, this *Object, _ []Value) (Value, error) {
				return Obj(this), nil
			},
			"hashCode()I": func(_ *Call, this *Object, _ []Value) (Value, error) {
				return Int(javaHash(str(this))), nil
			},
			"equals(Ljava/lang/Object;)Z": func(_ *Call, this *Object, args []Value) (Value, error) {
				other, ok := GoString(args[0].Obj)
				return Bool(ok && other == str(this)), nil
			},
			"concat(Ljava/lang/String;)Ljava/lang/String;": func(c *Call, this *Object, args []Value) (Value, error) {
				other, ok := GoString(args[0].Obj)
				if !ok {
					return Value{}, &Thrown{Class: nullPointerException}
				}
				return Obj(c.String(str(this) + other)), nil
			},
		},
	}
}

func integerDef() ClassDef {
	value := func(o *Object) int32 { return o.Field("value").Int() }
	return ClassDef{
		Name:   integerClass,
		Fields: map[string]string{"value": "I"},
		StaticFields: map[string]StaticField{
			"MAX_VALUE": {Sig: "I", Value: Int(math.MaxInt32)},
			"MIN_VALUE": {Sig: "I", Value: Int(math.MinInt32)},
		},
		Methods: Methods{
			"<init>(I)V": func(_ *Call, this *Object, args []Value) (Value, error) {
				this.SetField("value", args[0])
				return Void(), nil
			},
			"intValue()I": func(_ *Call, this *Object, _ []Value) (Value, error) {
				return Int(value(this)), nil
			},
			"longValue()J": func(_ *Call, this *Object, _ []Value) (Value, error) {
				return Long(int64(value(this))), nil
			},
			"doubleValue()D": func(_ *Call, this *Object, _ []Value) (Value, error) {
				return Double(float64(value(this))), nil
			},
			"hashCode()I": func(_ *Call, this *Object, _ []Value) (Value, error) {
				return Int(value(this)), nil
			},
			"equals(Ljava/lang/Object;)Z": func(_ *Call, this *Object, args []Value) (Value, error) {
				o := args[0].Obj
				return Bool(o != nil && o.class == this.class && value(o) == value(this)), nil
			},
			"toString()Ljava/lang/String;": func(c *Call, this *Object, _ []Value) (Value, error) {
				return Obj(c.String(strconv.Itoa(int(value(this))))), nil
			},
		},
		StaticMethods: Methods{
			"valueOf(I)Ljava/lang/Integer;": func(c *Call, _ *Object, args []Value) (Value, error) {
				o := c.New(integerClass, nil)
				o.SetField("value", args[0])
				return Obj(o), nil
			},
			"parseInt(Ljava/lang/String;)I": func(_ *Call, _ *Object, args []Value) (Value, error) {
				s, ok := GoString(args[0].Obj)
				if !ok {
					return Value{}, Throwf(numberFormatException, "Cannot parse null string")
				}
				n, err := strconv.ParseInt(s, 10, 32)
				if err != nil {
					return Value{}, Throwf(numberFormatException, "For input string: %q", s)
				}
				return Int(int32(n)), nil
			},
		},
	}
}

func setMessage(_ *Call, this *Object, args []Value) (Value, error) {
	this.SetField("detailMessage", args[0])
	return Void(), nil
}

func throwableDef() ClassDef {
	return ClassDef{
		Name:   throwableClass,
		Fields: map[string]string{"detailMessage": "Ljava/lang/String;"},
		Methods: Methods{
			"<init>()V":                   nop,
			"<init>(Ljava/lang/String;)V": setMessage,
			"getMessage()Ljava/lang/String;": func(_ *Call, this *Object, _ []Value) (Value, error) {
				return this.Field("detailMessage"), nil
			},
			"toString()Ljava/lang/String;": func(c *Call, this *Object, _ []Value) (Value, error) {
				name := this.class.DottedName()
				if msg, ok := GoString(this.Field("detailMessage").Obj); ok {
					return Obj(c.String(fmt.Sprintf("%s: %s", name, msg))), nil
				}
				return Obj(c.String(name)), nil
			},
		},
	}
}

func exceptionDef(name, super string) ClassDef {
	return ClassDef{
		Name:  name,
		Super: super,
		Methods: Methods{
			"<init>()V":                   nop,
			"<init>(Ljava/lang/String;)V": setMessage,
		},
	}
}
