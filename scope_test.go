package jni_test

import (
	"errors"
	"testing"

	"github.com/feather-lang/jni"
	"github.com/feather-lang/jni/internal/simjvm"
)

func TestWithLocalFrame(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env
	locals := tv.sim.LocalRefs()

	var inner jni.Object
	kept, err := env.WithLocalFrame(8, func() (jni.Object, error) {
		for range 5 {
			if _, err := env.NewString("tmp"); err != nil {
				return jni.Object{}, err
			}
		}
		var err error
		inner, err = env.NewString("result")
		return inner, err
	})
	if err != nil {
		t.Fatalf("WithLocalFrame failed: %v", err)
	}

	if got := tv.sim.LocalRefs(); got != locals+1 {
		t.Errorf("expected only the result to survive, locals %d -> %d", locals, got)
	}
	if got := goString(t, env, kept); got != "result" {
		t.Errorf("expected 'result', got %q", got)
	}
	if kept.Generation() == inner.Generation() {
		t.Error("expected the result to be re-issued in the outer scope")
	}
	if _, err := env.GetString(inner); !errors.Is(err, jni.ErrStaleReference) {
		t.Errorf("expected ErrStaleReference for the inner handle, got %v", err)
	}
}

func TestWithLocalFrameErrorPopsFrame(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env
	locals := tv.sim.LocalRefs()
	boom := errors.New("boom")

	_, err := env.WithLocalFrame(4, func() (jni.Object, error) {
		if _, err := env.NewString("leak?"); err != nil {
			return jni.Object{}, err
		}
		return jni.Object{}, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected fn error, got %v", err)
	}
	if got := tv.sim.LocalRefs(); got != locals {
		t.Errorf("expected frame refs released, locals %d -> %d", locals, got)
	}
	if _, err := env.PopLocalFrame(jni.Null()); !errors.Is(err, jni.ErrNoFrame) {
		t.Errorf("expected ErrNoFrame, got %v", err)
	}
}

func TestWithLocalFramePanicPopsFrame(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env
	locals := tv.sim.LocalRefs()

	func() {
		defer func() { recover() }()
		env.WithLocalFrame(4, func() (jni.Object, error) {
			env.NewString("x")
			panic("boom")
		})
	}()
	if got := tv.sim.LocalRefs(); got != locals {
		t.Errorf("expected frame refs released after panic, locals %d -> %d", locals, got)
	}
}

func TestLocalFrameCapacity(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env

	_, err := env.WithLocalFrame(2, func() (jni.Object, error) {
		for range 2 {
			if _, err := env.NewString("ok"); err != nil {
				return jni.Object{}, err
			}
		}
		_, err := env.NewString("overflow")
		return jni.Object{}, err
	})
	if !errors.Is(err, jni.ErrJavaException) {
		t.Fatalf("expected the overflow to raise an exception, got %v", err)
	}
	exc, ok := env.TakeException()
	if !ok {
		t.Fatal("expected a pending exception")
	}
	isOOM, err := env.IsInstanceOf(exc, jni.ClassName("java/lang/OutOfMemoryError"))
	if err != nil || !isOOM {
		t.Errorf("IsInstanceOf(OutOfMemoryError) = %v, %v; want true, nil", isOOM, err)
	}

	// A guard per iteration keeps a long loop inside the same capacity.
	_, err = env.WithLocalFrame(2, func() (jni.Object, error) {
		for range 100 {
			obj, err := env.NewString("loop")
			if err != nil {
				return jni.Object{}, err
			}
			env.AutoLocal(obj).Release()
		}
		return jni.Null(), nil
	})
	if err != nil {
		t.Errorf("expected guarded loop to fit, got %v", err)
	}
}

func TestEnsureLocalCapacity(t *testing.T) {
	tv := newTestVM(t, simjvm.WithLocalCapacity(4), simjvm.WithMaxLocals(64))
	env := tv.env

	if err := env.EnsureLocalCapacity(32); err != nil {
		t.Fatalf("EnsureLocalCapacity failed: %v", err)
	}
	for i := range 32 {
		if _, err := env.NewString("x"); err != nil {
			t.Fatalf("NewString #%d failed: %v", i, err)
		}
	}
	if err := env.EnsureLocalCapacity(1000); err == nil {
		t.Error("expected EnsureLocalCapacity beyond the maximum to fail")
	}
	env.ExceptionClear()
}

func TestWithEnvReusesAttachedEnv(t *testing.T) {
	tv := newTestVM(t)

	var obj jni.Object
	err := tv.vm.WithEnv(func(env *jni.Env) error {
		if env != tv.env {
			t.Error("expected WithEnv on an attached thread to reuse its Env")
		}
		var err error
		obj, err = env.NewString("s")
		return err
	})
	if err != nil {
		t.Fatalf("WithEnv failed: %v", err)
	}
	if got := goString(t, tv.env, obj); got != "s" {
		t.Errorf("expected 's', got %q", got)
	}
}

func TestHandleFromOtherEnv(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env

	handoff := make(chan jni.Object)
	errs := make(chan error, 1)
	go func() {
		errs <- tv.vm.WithEnv(func(other *jni.Env) error {
			obj, err := other.NewString("theirs")
			if err != nil {
				return err
			}
			handoff <- obj
			<-handoff
			return nil
		})
	}()
	theirs := <-handoff
	if _, err := env.GetString(theirs); !errors.Is(err, jni.ErrWrongEnv) {
		t.Errorf("expected ErrWrongEnv, got %v", err)
	}
	handoff <- jni.Object{}
	if err := <-errs; err != nil {
		t.Fatalf("worker failed: %v", err)
	}
	// The worker's Env closed when its thread detached.
	if _, err := env.GetString(theirs); !errors.Is(err, jni.ErrStaleReference) {
		t.Errorf("expected ErrStaleReference after detach, got %v", err)
	}
}

func TestHandleFromPoppedFrame(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env

	if err := env.PushLocalFrame(4); err != nil {
		t.Fatalf("PushLocalFrame failed: %v", err)
	}
	obj := mustString(t, env, "framed")
	if _, err := env.PopLocalFrame(jni.Null()); err != nil {
		t.Fatalf("PopLocalFrame failed: %v", err)
	}

	calls := tv.sim.CallCount("CallMethod")
	if _, err := env.CallMethod(obj, "length", "()I", nil); !errors.Is(err, jni.ErrStaleReference) {
		t.Errorf("expected ErrStaleReference, got %v", err)
	}
	_, err := env.CallMethod(mustString(t, env, "k"), "equals", "(Ljava/lang/Object;)Z",
		[]jni.Value{jni.ObjectValue(obj)})
	if !errors.Is(err, jni.ErrStaleReference) {
		t.Errorf("expected ErrStaleReference for a stale argument, got %v", err)
	}
	if got := tv.sim.CallCount("CallMethod"); got != calls {
		t.Errorf("expected stale handles never to reach the runtime, got %d calls", got-calls)
	}

	same, err := env.IsSameObject(jni.Null(), jni.Null())
	if err != nil || !same {
		t.Errorf("IsSameObject(null, null) = %v, %v; want true, nil", same, err)
	}
}

func TestEnvClose(t *testing.T) {
	tv := newTestVM(t)

	done := make(chan error, 1)
	go func() {
		guard, err := tv.vm.AttachCurrentThread()
		if err != nil {
			done <- err
			return
		}
		env := guard.Env()
		obj, err := env.NewString("x")
		if err != nil {
			done <- err
			return
		}
		env.Close()
		env.Close()
		if !env.Closed() {
			t.Error("expected env to report closed")
		}
		if _, err := env.NewString("y"); !errors.Is(err, jni.ErrEnvClosed) {
			t.Errorf("expected ErrEnvClosed, got %v", err)
		}
		if obj.IsNull() {
			t.Error("expected a non-null object")
		}
		done <- guard.Detach()
	}()
	if err := <-done; err != nil {
		t.Fatalf("worker failed: %v", err)
	}
}
