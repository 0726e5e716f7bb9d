package jni_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/feather-lang/jni"
)

func TestMapGetPut(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env
	m := newHashMap(t, env)

	if _, ok, err := m.Get(mustString(t, env, "x")); err != nil || ok {
		t.Fatalf("Get on empty map = ok %v, err %v; want absent", ok, err)
	}

	prev, ok, err := m.Put(mustString(t, env, "x"), mustString(t, env, "1"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if ok {
		t.Errorf("expected no prior mapping, got %v", prev)
	}

	got, ok, err := m.Get(mustString(t, env, "x"))
	if err != nil || !ok {
		t.Fatalf("Get after Put = ok %v, err %v; want present", ok, err)
	}
	if s := goString(t, env, got); s != "1" {
		t.Errorf("expected '1', got %q", s)
	}

	prev, ok, err = m.Put(mustString(t, env, "x"), mustString(t, env, "2"))
	if err != nil || !ok {
		t.Fatalf("second Put = ok %v, err %v; want prior mapping", ok, err)
	}
	if s := goString(t, env, prev); s != "1" {
		t.Errorf("expected prior value '1', got %q", s)
	}
}

func TestMapRemove(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env
	m := newHashMap(t, env)

	if _, ok, err := m.Remove(mustString(t, env, "missing")); err != nil || ok {
		t.Errorf("Remove of missing key = ok %v, err %v; want absent", ok, err)
	}

	if _, _, err := m.Put(mustString(t, env, "k"), mustString(t, env, "v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	prev, ok, err := m.Remove(mustString(t, env, "k"))
	if err != nil || !ok {
		t.Fatalf("Remove = ok %v, err %v; want removed", ok, err)
	}
	if s := goString(t, env, prev); s != "v" {
		t.Errorf("expected removed value 'v', got %q", s)
	}
	if _, ok, _ := m.Get(mustString(t, env, "k")); ok {
		t.Error("expected key to be gone")
	}
}

func TestMapResolvesIDsOnce(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env
	m := newHashMap(t, env)

	tv.sim.ResetCounters()
	for range 3 {
		if _, _, err := m.Put(mustString(t, env, "k"), mustString(t, env, "v")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if _, _, err := m.Get(mustString(t, env, "k")); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
	}
	if got := tv.sim.CallCount("GetMethodID"); got != 0 {
		t.Errorf("expected no method lookups after construction, got %d", got)
	}
	if got := tv.sim.CallCount("CallMethod"); got != 6 {
		t.Errorf("expected one call per operation, got %d", got)
	}
}

func TestMapIterResolvesOnKnownClasses(t *testing.T) {
	tv := newTestVM(t)
	m := newHashMap(t, tv.env)

	tv.sim.ResetCounters()
	it, err := m.Iter()
	if err != nil {
		t.Fatalf("Iter failed: %v", err)
	}
	defer it.Close()
	// entrySet is looked up on java/util/Map and iterator on java/util/Set,
	// never on the runtime class of the receiver.
	if got := tv.sim.CallCount("GetObjectClass"); got != 0 {
		t.Errorf("expected no GetObjectClass calls, got %d", got)
	}
	if got := tv.sim.CallCount("CallMethod"); got != 2 {
		t.Errorf("expected entrySet and iterator calls only, got %d", got)
	}
}

func collect(t *testing.T, env *jni.Env, it *jni.MapIter) map[string]string {
	t.Helper()
	out := map[string]string{}
	for k, v := range it.All() {
		key := goString(t, env, k)
		if _, dup := out[key]; dup {
			t.Errorf("key %q yielded twice", key)
		}
		out[key] = goString(t, env, v)
		env.AutoLocal(k).Release()
		env.AutoLocal(v).Release()
	}
	return out
}

func TestMapIter(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env
	m := newHashMap(t, env)

	for k, v := range map[string]string{"a": "1", "b": "2"} {
		if _, _, err := m.Put(mustString(t, env, k), mustString(t, env, v)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	locals := tv.sim.LocalRefs()
	it, err := m.Iter()
	if err != nil {
		t.Fatalf("Iter failed: %v", err)
	}
	// Only the iterator reference outlives the bounded frame.
	if got := tv.sim.LocalRefs(); got != locals+1 {
		t.Errorf("expected Iter to leave one local ref, locals %d -> %d", locals, got)
	}

	got := collect(t, env, it)
	if diff := cmp.Diff(map[string]string{"a": "1", "b": "2"}, got); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if _, _, ok := it.Next(); ok {
		t.Error("expected no entries after exhaustion")
	}
	if err := it.Err(); err != nil {
		t.Errorf("expected clean exhaustion, got %v", err)
	}
	if got := tv.sim.LocalRefs(); got != locals {
		t.Errorf("expected iteration to release its refs, locals %d -> %d", locals, got)
	}

	// A fresh Iter starts over.
	it2, err := m.Iter()
	if err != nil {
		t.Fatalf("second Iter failed: %v", err)
	}
	defer it2.Close()
	if n := len(collect(t, env, it2)); n != 2 {
		t.Errorf("expected 2 entries on restart, got %d", n)
	}
}

func TestMapIterEmpty(t *testing.T) {
	tv := newTestVM(t)
	m := newHashMap(t, tv.env)

	it, err := m.Iter()
	if err != nil {
		t.Fatalf("Iter failed: %v", err)
	}
	if _, _, ok := it.Next(); ok {
		t.Error("expected no entries")
	}
	if err := it.Err(); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestMapIterStopsOnError(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env
	m := newHashMap(t, env)

	for _, k := range []string{"a", "b", "c"} {
		if _, _, err := m.Put(mustString(t, env, k), mustString(t, env, k)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	it, err := m.Iter()
	if err != nil {
		t.Fatalf("Iter failed: %v", err)
	}
	if _, _, ok := it.Next(); !ok {
		t.Fatal("expected a first entry")
	}

	// Structural modification invalidates the runtime iterator.
	if _, _, err := m.Put(mustString(t, env, "d"), mustString(t, env, "d")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, _, ok := it.Next(); ok {
		t.Fatal("expected iteration to stop")
	}
	if !errors.Is(it.Err(), jni.ErrJavaException) {
		t.Errorf("expected the failure to be kept, got %v", it.Err())
	}
	exc, ok := env.TakeException()
	if !ok {
		t.Fatal("expected a pending exception")
	}
	isCME, err := env.IsInstanceOf(exc, jni.ClassName("java/util/ConcurrentModificationException"))
	if err != nil || !isCME {
		t.Errorf("IsInstanceOf(ConcurrentModificationException) = %v, %v; want true, nil", isCME, err)
	}
	if _, _, ok := it.Next(); ok {
		t.Error("expected iteration to stay stopped")
	}
}

func TestNewMapRejectsNull(t *testing.T) {
	tv := newTestVM(t)
	if _, err := jni.NewMap(tv.env, jni.Null()); !errors.Is(err, jni.ErrNullPointer) {
		t.Errorf("expected ErrNullPointer, got %v", err)
	}
}

func TestMapWithIntegerKeys(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env
	m := newHashMap(t, env)

	boxed := func(n int32) jni.Object {
		v, err := env.CallStaticMethod(jni.ClassName("java/lang/Integer"), "valueOf", "(I)Ljava/lang/Integer;",
			[]jni.Value{jni.IntValue(n)})
		if err != nil {
			t.Fatalf("Integer.valueOf failed: %v", err)
		}
		obj, _ := v.Object()
		return obj
	}

	if _, _, err := m.Put(boxed(7), mustString(t, env, "seven")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	// A different Integer instance with the same value finds the entry.
	v, ok, err := m.Get(boxed(7))
	if err != nil || !ok {
		t.Fatalf("Get = ok %v, err %v; want present", ok, err)
	}
	if s := goString(t, env, v); s != "seven" {
		t.Errorf("expected 'seven', got %q", s)
	}
}
