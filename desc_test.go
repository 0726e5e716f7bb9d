package jni_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/feather-lang/jni"
)

func TestLookupClassResolvedIsIdentity(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env

	cls, err := env.FindClass("java/util/HashMap")
	if err != nil {
		t.Fatalf("FindClass failed: %v", err)
	}
	local := env.AutoLocal(cls)
	defer local.Release()
	global, err := env.NewGlobalRef(cls)
	if err != nil {
		t.Fatalf("NewGlobalRef failed: %v", err)
	}
	defer global.Drop()

	tests := []struct {
		name string
		desc jni.ClassDesc
		want jni.Object
	}{
		{"ClassOf", jni.ClassOf(cls), cls},
		{"ClassOfLocal", jni.ClassOfLocal(local), cls},
		{"ClassOfGlobal", jni.ClassOfGlobal(global), global.Object()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.desc.Resolved() {
				t.Error("expected descriptor to be resolved")
			}
			tv.sim.ResetCounters()
			l, err := env.LookupClass(tt.desc)
			if err != nil {
				t.Fatalf("LookupClass failed: %v", err)
			}
			l.Release()
			if calls := tv.sim.Stats().Calls; len(calls) != 0 {
				t.Errorf("expected no runtime calls, got %v", calls)
			}
			if l.Owned() {
				t.Error("expected a borrowed lookup")
			}
			if l.Object().Raw() != tt.want.Raw() {
				t.Errorf("Object() = %v, want %v", l.Object(), tt.want)
			}
		})
	}
}

func TestLookupResolvedIDsIsIdentity(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env

	mid, err := env.GetMethodID(jni.ClassName("java/util/Map"), "size", "()I")
	if err != nil {
		t.Fatalf("GetMethodID failed: %v", err)
	}
	smid, err := env.GetStaticMethodID(jni.ClassName("java/lang/Integer"), "valueOf", "(I)Ljava/lang/Integer;")
	if err != nil {
		t.Fatalf("GetStaticMethodID failed: %v", err)
	}
	fid, err := env.GetFieldID(jni.ClassName("java/lang/Integer"), "value", "I")
	if err != nil {
		t.Fatalf("GetFieldID failed: %v", err)
	}
	sfid, err := env.GetStaticFieldID(jni.ClassName("java/lang/Integer"), "MAX_VALUE", "I")
	if err != nil {
		t.Fatalf("GetStaticFieldID failed: %v", err)
	}

	tv.sim.ResetCounters()
	if got, err := env.LookupMethod(jni.Method(mid)); err != nil || got != mid {
		t.Errorf("LookupMethod = %v, %v; want %v, nil", got, err, mid)
	}
	if got, err := env.LookupStaticMethod(jni.StaticMethod(smid)); err != nil || got != smid {
		t.Errorf("LookupStaticMethod = %v, %v; want %v, nil", got, err, smid)
	}
	if got, err := env.LookupField(jni.Field(fid)); err != nil || got != fid {
		t.Errorf("LookupField = %v, %v; want %v, nil", got, err, fid)
	}
	if got, err := env.LookupStaticField(jni.StaticField(sfid)); err != nil || got != sfid {
		t.Errorf("LookupStaticField = %v, %v; want %v, nil", got, err, sfid)
	}
	if calls := tv.sim.Stats().Calls; len(calls) != 0 {
		t.Errorf("expected no runtime calls, got %v", calls)
	}
}

func TestLookupByNameOneCallPerLevel(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env

	tv.sim.ResetCounters()
	if _, err := env.LookupMethod(jni.MethodByName(jni.ClassName("java/util/Map"), "get", "(Ljava/lang/Object;)Ljava/lang/Object;")); err != nil {
		t.Fatalf("LookupMethod failed: %v", err)
	}
	want := map[string]int{"FindClass": 1, "GetMethodID": 1, "DeleteLocalRef": 1, "GetObjectRefType": 1}
	if diff := cmp.Diff(want, tv.sim.Stats().Calls); diff != "" {
		t.Errorf("runtime calls mismatch (-want +got):\n%s", diff)
	}

	tv.sim.ResetCounters()
	ctor, err := env.LookupMethod(jni.Constructor(jni.ClassName("java/lang/Integer"), "(I)V"))
	if err != nil {
		t.Fatalf("LookupMethod(Constructor) failed: %v", err)
	}
	if ctor.Raw() == 0 {
		t.Error("expected a constructor id")
	}
}

func TestLookupNotFound(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env

	tests := []struct {
		name string
		run  func() error
		want jni.NotFoundError
	}{
		{
			"class",
			func() error { _, err := env.FindClass("com/example/Missing"); return err },
			jni.NotFoundError{Kind: "class", Class: "com/example/Missing"},
		},
		{
			"method",
			func() error {
				_, err := env.GetMethodID(jni.ClassName("java/util/Map"), "frobnicate", "()V")
				return err
			},
			jni.NotFoundError{Kind: "method", Class: "java/util/Map", Name: "frobnicate", Signature: "()V"},
		},
		{
			"static method",
			func() error {
				_, err := env.GetStaticMethodID(jni.ClassName("java/lang/Integer"), "intValue", "()I")
				return err
			},
			jni.NotFoundError{Kind: "static method", Class: "java/lang/Integer", Name: "intValue", Signature: "()I"},
		},
		{
			"field with wrong type",
			func() error {
				_, err := env.GetFieldID(jni.ClassName("java/lang/Integer"), "value", "J")
				return err
			},
			jni.NotFoundError{Kind: "field", Class: "java/lang/Integer", Name: "value", Signature: "J"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			var nf *jni.NotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("expected *NotFoundError, got %v", err)
			}
			if diff := cmp.Diff(tt.want, *nf); diff != "" {
				t.Errorf("NotFoundError mismatch (-want +got):\n%s", diff)
			}
			if !errors.Is(err, jni.ErrNotFound) {
				t.Error("expected error to match ErrNotFound")
			}
			if env.ExceptionCheck() {
				t.Error("expected the lookup exception to be cleared")
			}
		})
	}

	t.Run("class failure surfaces unchanged", func(t *testing.T) {
		_, err := env.GetMethodID(jni.ClassName("com/example/Missing"), "run", "()V")
		var nf *jni.NotFoundError
		if !errors.As(err, &nf) || nf.Kind != "class" {
			t.Errorf("expected the class lookup failure, got %v", err)
		}
	})
}

func TestLookupClassOfInstance(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env

	str := mustString(t, env, "s")
	l, err := env.LookupClass(jni.ClassOfInstance(str))
	if err != nil {
		t.Fatalf("LookupClass failed: %v", err)
	}
	defer l.Release()
	if !l.Owned() {
		t.Error("expected an owned lookup")
	}
	name, err := env.CallMethod(l.Object(), "getName", "()Ljava/lang/String;", nil)
	if err != nil {
		t.Fatalf("getName failed: %v", err)
	}
	obj, _ := name.Object()
	if got := goString(t, env, obj); got != "java.lang.String" {
		t.Errorf("expected 'java.lang.String', got %q", got)
	}
}

func TestLookupException(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env

	message := func(t *testing.T, obj jni.Object) string {
		t.Helper()
		v, err := env.CallMethod(obj, "getMessage", "()Ljava/lang/String;", nil)
		if err != nil {
			t.Fatalf("getMessage failed: %v", err)
		}
		msg, _ := v.Object()
		return goString(t, env, msg)
	}

	t.Run("class and message", func(t *testing.T) {
		l, err := env.LookupException(jni.Exception(jni.ClassName("java/lang/IllegalStateException"), "bad state"))
		if err != nil {
			t.Fatalf("LookupException failed: %v", err)
		}
		defer l.Release()
		if !l.Owned() {
			t.Error("expected an owned throwable")
		}
		ok, err := env.IsInstanceOf(l.Object(), jni.ClassName("java/lang/IllegalStateException"))
		if err != nil || !ok {
			t.Errorf("IsInstanceOf = %v, %v; want true, nil", ok, err)
		}
		if got := message(t, l.Object()); got != "bad state" {
			t.Errorf("expected 'bad state', got %q", got)
		}
	})

	t.Run("message only", func(t *testing.T) {
		l, err := env.LookupException(jni.ExceptionMsg("oops"))
		if err != nil {
			t.Fatalf("LookupException failed: %v", err)
		}
		defer l.Release()
		ok, err := env.IsInstanceOf(l.Object(), jni.ClassName(jni.DefaultExceptionClass))
		if err != nil || !ok {
			t.Errorf("IsInstanceOf = %v, %v; want true, nil", ok, err)
		}
		if got := message(t, l.Object()); got != "oops" {
			t.Errorf("expected 'oops', got %q", got)
		}
	})

	t.Run("existing throwable", func(t *testing.T) {
		obj, err := env.NewObject(jni.ClassName("java/lang/Exception"), "(Ljava/lang/String;)V",
			[]jni.Value{jni.ObjectValue(mustString(t, env, "mine"))})
		if err != nil {
			t.Fatalf("NewObject failed: %v", err)
		}
		tv.sim.ResetCounters()
		l, err := env.LookupException(jni.ExceptionObject(obj))
		if err != nil {
			t.Fatalf("LookupException failed: %v", err)
		}
		if l.Owned() || l.Object().Raw() != obj.Raw() {
			t.Errorf("expected the same throwable borrowed, got %v (owned=%v)", l.Object(), l.Owned())
		}
		if calls := tv.sim.Stats().Calls; len(calls) != 0 {
			t.Errorf("expected no runtime calls, got %v", calls)
		}
	})

	t.Run("unknown class", func(t *testing.T) {
		locals := tv.sim.LocalRefs()
		_, err := env.LookupException(jni.Exception(jni.ClassName("com/example/Nope"), "x"))
		if !errors.Is(err, jni.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if got := tv.sim.LocalRefs(); got != locals {
			t.Errorf("expected the message string to be released, locals %d -> %d", locals, got)
		}
	})
}
