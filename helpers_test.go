package jni_test

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/feather-lang/jni"
	"github.com/feather-lang/jni/internal/simjvm"
)

// syncBuffer is a log sink safe for writes from other goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testVM struct {
	sim *simjvm.VM
	vm  *jni.JavaVM
	env *jni.Env
	log *syncBuffer
}

// newTestVM starts a simulated runtime and attaches the test goroutine,
// which stays locked to its OS thread until the test ends.
func newTestVM(t *testing.T, opts ...simjvm.Option) *testVM {
	t.Helper()
	logs := &syncBuffer{}
	sim := simjvm.New(opts...)
	vm := jni.NewJavaVM(sim, jni.WithLogger(slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	guard, err := vm.AttachCurrentThread()
	if err != nil {
		t.Fatalf("AttachCurrentThread failed: %v", err)
	}
	t.Cleanup(func() {
		if err := guard.Detach(); err != nil {
			t.Errorf("Detach failed: %v", err)
		}
	})
	return &testVM{sim: sim, vm: vm, env: guard.Env(), log: logs}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustString(t *testing.T, env *jni.Env, s string) jni.Object {
	t.Helper()
	obj, err := env.NewString(s)
	if err != nil {
		t.Fatalf("NewString(%q) failed: %v", s, err)
	}
	return obj
}

func goString(t *testing.T, env *jni.Env, obj jni.Object) string {
	t.Helper()
	s, err := env.GetString(obj)
	if err != nil {
		t.Fatalf("GetString(%v) failed: %v", obj, err)
	}
	return s
}

func newHashMap(t *testing.T, env *jni.Env) *jni.Map {
	t.Helper()
	obj, err := env.NewObject(jni.ClassName("java/util/HashMap"), "()V", nil)
	if err != nil {
		t.Fatalf("new HashMap failed: %v", err)
	}
	m, err := jni.NewMap(env, obj)
	if err != nil {
		t.Fatalf("NewMap failed: %v", err)
	}
	t.Cleanup(m.Release)
	return m
}
