package jni

import (
	"errors"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/feather-lang/jni/sys"
)

// JavaVM wraps the runtime's invocation interface. Unlike [Env] it is safe
// for concurrent use and may be shared freely.
//
//	vm := jni.NewJavaVM(raw)
//	guard, err := vm.AttachCurrentThread()
//	if err != nil {
//	    return err
//	}
//	defer guard.Detach()
//	env := guard.Env()
type JavaVM struct {
	raw     sys.VM
	logger  *slog.Logger
	version int32

	mu   sync.Mutex
	envs map[sys.Env]*Env
}

// Option configures a JavaVM.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	version int32
}

// WithLogger sets the logger used for teardown diagnostics. The default
// writes warnings and above to stderr.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithVersion sets the interface version requested from GetEnv.
func WithVersion(version int32) Option {
	return func(o *options) { o.version = version }
}

// NewJavaVM wraps raw. Implementations of sys.Env handed out by raw must be
// comparable, since Envs are cached per raw table.
func NewJavaVM(raw sys.VM, opts ...Option) *JavaVM {
	o := options{version: sys.Version1_8}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	return &JavaVM{
		raw:     raw,
		logger:  o.logger,
		version: o.version,
		envs:    make(map[sys.Env]*Env),
	}
}

// Raw returns the underlying invocation interface.
func (vm *JavaVM) Raw() sys.VM { return vm.raw }

// Logger returns the logger the VM and its Envs write to.
func (vm *JavaVM) Logger() *slog.Logger { return vm.logger }

// EnvFor returns the Env wrapping raw, creating it on first use. Native
// methods use this to wrap the table they were called with, and close it
// before returning.
func (vm *JavaVM) EnvFor(raw sys.Env) *Env {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if e, ok := vm.envs[raw]; ok {
		return e
	}
	e := newEnv(vm, raw)
	vm.envs[raw] = e
	return e
}

func (vm *JavaVM) forgetEnv(e *Env) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.envs[e.raw] == e {
		delete(vm.envs, e.raw)
	}
}

// GetEnv returns the Env of the calling thread, or ErrDetached.
// The caller must keep the goroutine on the same OS thread while using it.
func (vm *JavaVM) GetEnv() (*Env, error) {
	raw, err := vm.raw.GetEnv(vm.version)
	if err != nil {
		return nil, err
	}
	return vm.EnvFor(raw), nil
}

// AttachGuard keeps the calling goroutine on its OS thread while attached.
type AttachGuard struct {
	vm       *JavaVM
	env      *Env
	attached bool // this guard attached the thread and must detach it
	done     bool
}

// Env returns the attached thread's Env.
func (g *AttachGuard) Env() *Env { return g.env }

// Detach undoes AttachCurrentThread. If the thread was already attached
// when the guard was created it stays attached. Detach must run on the
// goroutine that attached; it is idempotent.
func (g *AttachGuard) Detach() error {
	if g.done {
		return nil
	}
	g.done = true
	defer runtime.UnlockOSThread()
	if !g.attached {
		return nil
	}
	g.env.Close()
	return g.vm.raw.DetachCurrentThread()
}

// AttachCurrentThread locks the calling goroutine to its OS thread and
// attaches the thread if needed.
func (vm *JavaVM) AttachCurrentThread() (*AttachGuard, error) {
	runtime.LockOSThread()

	raw, err := vm.raw.GetEnv(vm.version)
	if err == nil {
		return &AttachGuard{vm: vm, env: vm.EnvFor(raw)}, nil
	}
	if !errors.Is(err, sys.EDETACHED) {
		runtime.UnlockOSThread()
		return nil, err
	}

	raw, err = vm.raw.AttachCurrentThread()
	if err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	vm.logger.Debug("attached thread")
	return &AttachGuard{vm: vm, env: vm.EnvFor(raw), attached: true}, nil
}

// WithEnv runs fn with the calling thread's Env, attaching the thread for
// the duration of fn if it is not attached already.
func (vm *JavaVM) WithEnv(fn func(*Env) error) (err error) {
	guard, err := vm.AttachCurrentThread()
	if err != nil {
		return err
	}
	defer func() {
		if derr := guard.Detach(); derr != nil && err == nil {
			err = derr
		}
	}()
	return fn(guard.Env())
}

// deleteGlobalRef releases a global reference from whatever thread the
// caller is on. A detached thread is attached for the call and detached
// again, which is slow and logged. Failures are logged, never returned.
func (vm *JavaVM) deleteGlobalRef(raw sys.Jobject) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	env, err := vm.raw.GetEnv(vm.version)
	if err == nil {
		// Safe with an exception pending.
		env.DeleteGlobalRef(raw)
		return
	}
	if !errors.Is(err, sys.EDETACHED) {
		vm.logger.Debug("error dropping global ref", slog.Any("error", err))
		return
	}

	vm.logger.Warn("dropping a GlobalRef in a detached thread; attach the thread before dropping if this appears frequently")
	env, err = vm.raw.AttachCurrentThread()
	if err != nil {
		vm.logger.Debug("error dropping global ref", slog.Any("error", err))
		return
	}
	env.DeleteGlobalRef(raw)
	if err := vm.raw.DetachCurrentThread(); err != nil {
		vm.logger.Debug("error detaching after global ref drop", slog.Any("error", err))
	}
}
