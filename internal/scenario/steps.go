package scenario

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/feather-lang/jni"
	"github.com/feather-lang/jni/internal/simjvm"
)

// ExceptionError is the error of a step that caught a foreign exception.
// Description is the exception's toString, e.g.
// "java.lang.NumberFormatException: For input string: \"x\"".
type ExceptionError struct {
	Description string
}

func (e *ExceptionError) Error() string { return "exception: " + e.Description }

// state is what one thread of a scenario can name: maps held through local
// references and maps held through global references.
type state struct {
	sim     *simjvm.VM
	env     *jni.Env
	maps    map[string]*jni.Map
	globals map[string]*jni.GlobalRef
}

func newState(sim *simjvm.VM, env *jni.Env) *state {
	return &state{
		sim:     sim,
		env:     env,
		maps:    make(map[string]*jni.Map),
		globals: make(map[string]*jni.GlobalRef),
	}
}

// fork returns a state for another thread. It shares no local references
// and holds its own clone of every global. The caller sets env once the
// thread is attached.
func (s *state) fork() *state {
	f := newState(s.sim, nil)
	for name, g := range s.globals {
		f.globals[name] = g.Clone()
	}
	return f
}

// release deletes every reference the state still holds. References that
// went stale with their frame are skipped.
func (s *state) release() {
	for name, m := range s.maps {
		m.Release()
		_ = s.env.DeleteLocalRef(m.Object())
		delete(s.maps, name)
	}
	for name, g := range s.globals {
		g.Drop()
		delete(s.globals, name)
	}
}

func (s *state) run(ctx context.Context, steps []Step) error {
	for i, st := range steps {
		for range max(st.Repeat, 1) {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := s.step(ctx, st)
			if errors.Is(err, jni.ErrJavaException) && s.env.ExceptionCheck() {
				// Leave nothing pending for the next step.
				err = fmt.Errorf("%w: %w", err, s.caught())
			}
			if err := expectError(st, err); err != nil {
				return fmt.Errorf("step %d (%s): %w", i+1, st.Op, err)
			}
		}
	}
	return nil
}

func expectError(st Step, err error) error {
	switch {
	case st.Error == "":
		return err
	case err == nil:
		return fmt.Errorf("expected error %q", st.Error)
	case !strings.Contains(err.Error(), st.Error):
		return fmt.Errorf("expected error %q, got %w", st.Error, err)
	}
	return nil
}

func (s *state) step(ctx context.Context, st Step) error {
	switch st.Op {
	case "new_map":
		return s.newMap(st.As)
	case "put", "get", "remove":
		return s.mapOp(st)
	case "size":
		return s.size(st)
	case "iter":
		return s.iter(st)
	case "global":
		return s.global(st)
	case "drop":
		g, ok := s.globals[st.Map]
		if !ok {
			return fmt.Errorf("no global named %q", st.Map)
		}
		g.Drop()
		delete(s.globals, st.Map)
		return nil
	case "frame":
		_, err := s.env.WithLocalFrame(st.Capacity, func() (jni.Object, error) {
			return jni.Null(), s.run(ctx, st.Steps)
		})
		return err
	case "parse_int":
		return s.parseInt(st)
	case "throw":
		if err := s.env.ThrowNew(jni.ClassName(st.Class), st.Message); err != nil {
			return err
		}
		return s.caught()
	case "collect":
		s.sim.Collect()
		return nil
	}
	return fmt.Errorf("unknown op %q", st.Op)
}

// str creates a foreign string owned by the returned guard.
func (s *state) str(v string) (*jni.AutoLocal, error) {
	obj, err := s.env.NewString(v)
	if err != nil {
		return nil, err
	}
	return s.env.AutoLocal(obj), nil
}

// goString copies obj and deletes the reference.
func (s *state) goString(obj jni.Object) (string, error) {
	guard := s.env.AutoLocal(obj)
	defer guard.Release()
	return s.env.GetString(guard.Object())
}

// mapNamed resolves name to a map view. done releases what the lookup
// acquired.
func (s *state) mapNamed(name string) (m *jni.Map, done func(), err error) {
	if m, ok := s.maps[name]; ok {
		return m, func() {}, nil
	}
	if g, ok := s.globals[name]; ok {
		m, err := jni.NewMap(s.env, g.Object())
		if err != nil {
			return nil, nil, err
		}
		return m, m.Release, nil
	}
	return nil, nil, fmt.Errorf("no map named %q", name)
}

func (s *state) newMap(name string) error {
	obj, err := s.env.NewObject(jni.ClassName("java/util/HashMap"), "()V", nil)
	if err != nil {
		return err
	}
	m, err := jni.NewMap(s.env, obj)
	if err != nil {
		_ = s.env.DeleteLocalRef(obj)
		return err
	}
	if old, ok := s.maps[name]; ok {
		old.Release()
		_ = s.env.DeleteLocalRef(old.Object())
	}
	s.maps[name] = m
	return nil
}

func (s *state) mapOp(st Step) error {
	m, done, err := s.mapNamed(st.Map)
	if err != nil {
		return err
	}
	defer done()

	key, err := s.str(st.Key)
	if err != nil {
		return err
	}
	defer key.Release()

	var (
		got jni.Object
		ok  bool
	)
	switch st.Op {
	case "put":
		value, err := s.str(st.Value)
		if err != nil {
			return err
		}
		defer value.Release()
		got, ok, err = m.Put(key.Object(), value.Object())
		if err != nil {
			return err
		}
	case "get":
		if got, ok, err = m.Get(key.Object()); err != nil {
			return err
		}
	case "remove":
		if got, ok, err = m.Remove(key.Object()); err != nil {
			return err
		}
	}
	return s.compare(st, got, ok)
}

// compare checks an optional map result against st.Want and st.Absent, and
// deletes the result.
func (s *state) compare(st Step, got jni.Object, ok bool) error {
	if !ok {
		if st.Want != nil {
			return fmt.Errorf("expected %q, got no mapping", *st.Want)
		}
		return nil
	}
	v, err := s.goString(got)
	if err != nil {
		return err
	}
	if st.Absent {
		return fmt.Errorf("expected no mapping, got %q", v)
	}
	if st.Want != nil && *st.Want != v {
		return fmt.Errorf("expected %q, got %q", *st.Want, v)
	}
	return nil
}

func (s *state) size(st Step) error {
	m, done, err := s.mapNamed(st.Map)
	if err != nil {
		return err
	}
	defer done()
	v, err := s.env.CallMethod(m.Object(), "size", "()I", nil)
	if err != nil {
		return err
	}
	n, err := v.Int()
	if err != nil {
		return err
	}
	if st.Want != nil && *st.Want != strconv.Itoa(int(n)) {
		return fmt.Errorf("expected size %s, got %d", *st.Want, n)
	}
	return nil
}

func (s *state) iter(st Step) error {
	m, done, err := s.mapNamed(st.Map)
	if err != nil {
		return err
	}
	defer done()

	it, err := m.Iter()
	if err != nil {
		return err
	}
	defer it.Close()

	got := make(map[string]string)
	for k, v := range it.All() {
		ks, kerr := s.goString(k)
		vs, verr := s.goString(v)
		if err := errors.Join(kerr, verr); err != nil {
			return err
		}
		if _, dup := got[ks]; dup {
			return fmt.Errorf("key %q yielded twice", ks)
		}
		got[ks] = vs
	}
	if err := it.Err(); err != nil {
		return err
	}
	want := st.Entries
	if want == nil {
		want = map[string]string{}
	}
	if !maps.Equal(want, got) {
		return fmt.Errorf("entries mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}
	return nil
}

func (s *state) global(st Step) error {
	m, done, err := s.mapNamed(st.Map)
	if err != nil {
		return err
	}
	defer done()
	g, err := s.env.NewGlobalRef(m.Object())
	if err != nil {
		return err
	}
	if old, ok := s.globals[st.As]; ok {
		old.Drop()
	}
	s.globals[st.As] = g
	return nil
}

func (s *state) parseInt(st Step) error {
	arg, err := s.str(st.Value)
	if err != nil {
		return err
	}
	defer arg.Release()

	v, err := s.env.CallStaticMethod(jni.ClassName("java/lang/Integer"), "parseInt", "(Ljava/lang/String;)I",
		[]jni.Value{jni.ObjectValue(arg.Object())})
	if err != nil {
		return err
	}
	n, err := v.Int()
	if err != nil {
		return err
	}
	if st.Want != nil && *st.Want != strconv.Itoa(int(n)) {
		return fmt.Errorf("expected %s, got %d", *st.Want, n)
	}
	return nil
}

// caught takes the pending exception and turns it into an *ExceptionError.
// The description is read inside a frame of its own, so it works even when
// the exception was a local table overflow.
func (s *state) caught() error {
	exc, ok := s.env.TakeException()
	if !ok {
		return errors.New("expected a pending exception")
	}
	guard := s.env.AutoLocal(exc)
	defer guard.Release()

	var desc string
	_, err := s.env.WithLocalFrame(4, func() (jni.Object, error) {
		v, err := s.env.CallMethod(guard.Object(), "toString", "()Ljava/lang/String;", nil)
		if err != nil {
			return jni.Null(), err
		}
		obj, err := v.Object()
		if err != nil {
			return jni.Null(), err
		}
		desc, err = s.env.GetString(obj)
		return jni.Null(), err
	})
	if err != nil {
		s.env.ExceptionClear()
		return err
	}
	return &ExceptionError{Description: desc}
}
