package simjvm_test

import (
	"strings"
	"testing"

	"github.com/feather-lang/jni/internal/simjvm"
	"github.com/feather-lang/jni/sys"
)

func TestDefineClassErrors(t *testing.T) {
	vm := simjvm.New()

	tests := []struct {
		name string
		def  simjvm.ClassDef
		want string
	}{
		{"no name", simjvm.ClassDef{}, "name is required"},
		{"duplicate", simjvm.ClassDef{Name: "java/lang/String"}, "already defined"},
		{"unknown super", simjvm.ClassDef{Name: "a/B", Super: "a/Missing"}, "unknown superclass"},
		{"class as interface", simjvm.ClassDef{Name: "a/B", Interfaces: []string{"java/lang/String"}}, "unknown interface"},
		{"method without signature", simjvm.ClassDef{Name: "a/B", Methods: simjvm.Methods{"run": nil}}, "no signature"},
		{"bad method signature", simjvm.ClassDef{Name: "a/B", Methods: simjvm.Methods{"run(V)V": nil}}, "void parameter"},
		{"void field", simjvm.ClassDef{Name: "a/B", Fields: map[string]string{"x": "V"}}, "bad type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := vm.DefineClass(tt.def)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
	if vm.Class("a/B") != nil {
		t.Error("expected failed definitions not to register a class")
	}
}

func TestDefineClassHierarchy(t *testing.T) {
	vm, env := attach(t)

	if _, err := vm.DefineClass(simjvm.ClassDef{
		Name:      "demo/Shape",
		Interface: true,
		Methods:   simjvm.Methods{"area()D": nil},
	}); err != nil {
		t.Fatalf("DefineClass(Shape) failed: %v", err)
	}
	base, err := vm.DefineClass(simjvm.ClassDef{
		Name:       "demo/Polygon",
		Interfaces: []string{"demo/Shape"},
		Fields:     map[string]string{"sides": "I"},
		Methods: simjvm.Methods{
			"<init>(I)V": func(_ *simjvm.Call, this *simjvm.Object, args []simjvm.Value) (simjvm.Value, error) {
				this.SetField("sides", args[0])
				return simjvm.Void(), nil
			},
			"describe()Ljava/lang/String;": func(c *simjvm.Call, this *simjvm.Object, _ []simjvm.Value) (simjvm.Value, error) {
				return simjvm.Obj(c.String("polygon")), nil
			},
		},
	})
	if err != nil {
		t.Fatalf("DefineClass(Polygon) failed: %v", err)
	}
	square, err := vm.DefineClass(simjvm.ClassDef{
		Name:   "demo/Square",
		Super:  "demo/Polygon",
		Fields: map[string]string{"side": "D"},
		Methods: simjvm.Methods{
			"<init>(D)V": func(_ *simjvm.Call, this *simjvm.Object, args []simjvm.Value) (simjvm.Value, error) {
				this.SetField("sides", simjvm.Int(4))
				this.SetField("side", args[0])
				return simjvm.Void(), nil
			},
			"area()D": func(_ *simjvm.Call, this *simjvm.Object, _ []simjvm.Value) (simjvm.Value, error) {
				s := this.Field("side").Double()
				return simjvm.Double(s * s), nil
			},
		},
	})
	if err != nil {
		t.Fatalf("DefineClass(Square) failed: %v", err)
	}

	if !square.AssignableTo(base) || !square.AssignableTo(vm.Class("demo/Shape")) || !square.AssignableTo(vm.Class("java/lang/Object")) {
		t.Error("expected Square to be a Polygon, a Shape and an Object")
	}
	if base.AssignableTo(square) {
		t.Error("expected Polygon not to be a Square")
	}
	if square.DottedName() != "demo.Square" {
		t.Errorf("DottedName = %q", square.DottedName())
	}

	squareCls := env.FindClass("demo/Square")
	polygonCls := env.FindClass("demo/Polygon")

	sq := env.NewObjectA(squareCls, env.GetMethodID(squareCls, "<init>", "(D)V"), []sys.Jvalue{sys.Jvalue(simjvm.Double(3).Bits)})
	if sq == 0 {
		t.Fatal("expected a Square")
	}

	// Interface method resolved through Polygon, implemented by Square.
	area := env.GetMethodID(polygonCls, "area", "()D")
	if got := (simjvm.Value{Bits: uint64(env.CallMethodA(sq, area, sys.Double, nil))}).Double(); got != 9 {
		t.Errorf("area = %v, want 9", got)
	}
	describe := env.GetMethodID(squareCls, "describe", "()Ljava/lang/String;")
	if s, _ := env.GetStringUTF(sys.Jobject(env.CallMethodA(sq, describe, sys.Object, nil))); s != "polygon" {
		t.Errorf("describe = %q, want 'polygon'", s)
	}
	sides := env.GetFieldID(squareCls, "sides", "I")
	if got := (simjvm.Value{Bits: uint64(env.GetField(sq, sides, sys.Int))}).Int(); got != 4 {
		t.Errorf("sides = %d, want 4", got)
	}

	// Constructors are not inherited.
	if env.GetMethodID(squareCls, "<init>", "(I)V") != 0 {
		t.Error("expected Polygon's constructor not to resolve on Square")
	}
	env.ExceptionClear()

	// A Polygon has no area implementation.
	poly := env.NewObjectA(polygonCls, env.GetMethodID(polygonCls, "<init>", "(I)V"), []sys.Jvalue{3})
	env.CallMethodA(poly, area, sys.Double, nil)
	exc := env.ExceptionOccurred()
	if exc == 0 {
		t.Fatal("expected AbstractMethodError")
	}
	env.ExceptionClear()
	if !env.IsInstanceOf(exc, env.FindClass("java/lang/AbstractMethodError")) {
		t.Error("expected AbstractMethodError")
	}
}

func TestMethodErrorsBecomeExceptions(t *testing.T) {
	vm, env := attach(t)
	if _, err := vm.DefineClass(simjvm.ClassDef{
		Name: "demo/Faulty",
		StaticMethods: simjvm.Methods{
			"fail()V": func(*simjvm.Call, *simjvm.Object, []simjvm.Value) (simjvm.Value, error) {
				return simjvm.Value{}, simjvm.Throwf("java/lang/IllegalStateException", "state %d", 7)
			},
			"crash()V": func(*simjvm.Call, *simjvm.Object, []simjvm.Value) (simjvm.Value, error) {
				return simjvm.Value{}, errTest
			},
		},
	}); err != nil {
		t.Fatalf("DefineClass failed: %v", err)
	}

	cls := env.FindClass("demo/Faulty")
	toString := env.GetMethodID(env.FindClass("java/lang/Throwable"), "toString", "()Ljava/lang/String;")

	tests := []struct {
		method string
		want   string
	}{
		{"fail", "java.lang.IllegalStateException: state 7"},
		{"crash", "java.lang.RuntimeException: test failure"},
	}
	for _, tt := range tests {
		env.CallStaticMethodA(cls, env.GetStaticMethodID(cls, tt.method, "()V"), sys.Void, nil)
		exc := env.ExceptionOccurred()
		if exc == 0 {
			t.Fatalf("%s: expected a pending exception", tt.method)
		}
		env.ExceptionClear()
		s, _ := env.GetStringUTF(sys.Jobject(env.CallMethodA(exc, toString, sys.Object, nil)))
		if s != tt.want {
			t.Errorf("%s: toString = %q, want %q", tt.method, s, tt.want)
		}
	}
}

type testError string

func (e testError) Error() string { return string(e) }

const errTest = testError("test failure")
