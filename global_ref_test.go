package jni_test

import (
	"runtime"
	"strings"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/feather-lang/jni"
)

func TestGlobalRefReleasedAfterLastDrop(t *testing.T) {
	for _, order := range []string{"forward", "reverse", "original-last"} {
		t.Run(order, func(t *testing.T) {
			tv := newTestVM(t)
			env := tv.env

			g, err := env.NewGlobalRef(mustString(t, env, "shared"))
			if err != nil {
				t.Fatalf("NewGlobalRef failed: %v", err)
			}
			handles := []*jni.GlobalRef{g}
			for range 4 {
				handles = append(handles, g.Clone())
			}
			if got := g.Handles(); got != 5 {
				t.Fatalf("expected 5 handles, got %d", got)
			}

			switch order {
			case "reverse":
				for i, j := 0, len(handles)-1; i < j; i, j = i+1, j-1 {
					handles[i], handles[j] = handles[j], handles[i]
				}
			case "original-last":
				handles = append(handles[1:], handles[0])
			}

			before := tv.sim.CallCount("DeleteGlobalRef")
			for i, h := range handles {
				if tv.sim.GlobalRefs() != 1 {
					t.Fatalf("global ref released after %d of %d drops", i, len(handles))
				}
				h.Drop()
				h.Drop() // second drop of the same handle is ignored
			}
			if got := tv.sim.CallCount("DeleteGlobalRef") - before; got != 1 {
				t.Errorf("expected 1 DeleteGlobalRef, got %d", got)
			}
			if got := tv.sim.GlobalRefs(); got != 0 {
				t.Errorf("expected no global refs, got %d", got)
			}
		})
	}
}

func TestGlobalRefSharedAcrossGoroutines(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env

	g, err := env.NewGlobalRef(mustString(t, env, "shared"))
	if err != nil {
		t.Fatalf("NewGlobalRef failed: %v", err)
	}

	var eg errgroup.Group
	for range 8 {
		clone := g.Clone()
		eg.Go(func() error {
			return tv.vm.WithEnv(func(env *jni.Env) error {
				defer clone.Drop()
				s, err := env.GetString(clone.Object())
				if err != nil {
					return err
				}
				if s != "shared" {
					t.Errorf("expected 'shared', got %q", s)
				}
				return nil
			})
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatalf("worker failed: %v", err)
	}
	if got := tv.sim.GlobalRefs(); got != 1 {
		t.Fatalf("expected the original handle to keep the ref, got %d refs", got)
	}
	g.Drop()
	if got := tv.sim.GlobalRefs(); got != 0 {
		t.Errorf("expected no global refs, got %d", got)
	}
}

func TestGlobalRefDropOnDetachedThread(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env

	g, err := env.NewGlobalRef(mustString(t, env, "pinned"))
	if err != nil {
		t.Fatalf("NewGlobalRef failed: %v", err)
	}
	attaches := tv.sim.CallCount("AttachCurrentThread")
	detaches := tv.sim.CallCount("DetachCurrentThread")

	// The test goroutine holds its thread, so this runs on another one,
	// which was never attached.
	done := make(chan struct{})
	go func() {
		defer close(done)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		g.Drop()
	}()
	<-done

	if got := tv.sim.GlobalRefs(); got != 0 {
		t.Errorf("expected the global ref to be deleted, got %d refs", got)
	}
	if got := tv.sim.CallCount("AttachCurrentThread") - attaches; got != 1 {
		t.Errorf("expected 1 temporary attach, got %d", got)
	}
	if got := tv.sim.CallCount("DetachCurrentThread") - detaches; got != 1 {
		t.Errorf("expected 1 detach, got %d", got)
	}
	if !strings.Contains(tv.log.String(), "detached thread") {
		t.Errorf("expected a warning about the detached drop, got:\n%s", tv.log.String())
	}
	if got := tv.sim.Stats().Threads; got != 1 {
		t.Errorf("expected only the test thread attached, got %d", got)
	}
}

func TestGlobalRefOutlivesFrame(t *testing.T) {
	tv := newTestVM(t)
	env := tv.env

	var g *jni.GlobalRef
	_, err := env.WithLocalFrame(4, func() (jni.Object, error) {
		obj, err := env.NewString("kept")
		if err != nil {
			return jni.Object{}, err
		}
		g, err = env.NewGlobalRef(obj)
		return jni.Null(), err
	})
	if err != nil {
		t.Fatalf("WithLocalFrame failed: %v", err)
	}
	defer g.Drop()

	tv.sim.Collect()
	if got := goString(t, env, g.Object()); got != "kept" {
		t.Errorf("expected 'kept', got %q", got)
	}
	if g.Object().Generation() != 0 {
		t.Errorf("expected global object to be untracked, got generation %d", g.Object().Generation())
	}
}

func TestGlobalRefUseAfterDropPanics(t *testing.T) {
	tv := newTestVM(t)
	g, err := tv.env.NewGlobalRef(mustString(t, tv.env, "x"))
	if err != nil {
		t.Fatalf("NewGlobalRef failed: %v", err)
	}
	g.Drop()

	defer func() {
		if recover() == nil {
			t.Error("expected Object after Drop to panic")
		}
	}()
	g.Object()
}

func TestGlobalRefCollectedWithoutDrop(t *testing.T) {
	tv := newTestVM(t)
	deletes := tv.sim.CallCount("DeleteGlobalRef")
	attaches := tv.sim.CallCount("AttachCurrentThread")

	func() {
		g, err := tv.env.NewGlobalRef(mustString(t, tv.env, "leaked"))
		if err != nil {
			t.Fatalf("NewGlobalRef failed: %v", err)
		}
		_ = g.Clone()
	}()

	deadline := time.Now().Add(10 * time.Second)
	for tv.sim.GlobalRefs() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("leaked handles were never collected, %d global refs left", tv.sim.GlobalRefs())
		}
		runtime.GC()
		time.Sleep(time.Millisecond)
	}

	if got := tv.sim.CallCount("DeleteGlobalRef") - deletes; got != 1 {
		t.Errorf("expected 1 DeleteGlobalRef, got %d", got)
	}
	if got := tv.sim.CallCount("AttachCurrentThread") - attaches; got != 1 {
		t.Errorf("expected 1 temporary attach, got %d", got)
	}
	if !strings.Contains(tv.log.String(), "collected without Drop") {
		t.Errorf("expected a debug record for the collected handles, got:\n%s", tv.log.String())
	}
}
