// Package simjvm is an in-process runtime implementing the sys.Env and
// sys.VM function tables.
//
// It keeps a heap of objects, a class registry, per-thread local reference
// frames with a hard capacity, a global reference table and a pending
// exception per thread, which is enough to exercise reference bookkeeping
// without a real JVM. Objects are collected only by an explicit Collect.
//
// Threads are OS threads. Callers must lock their goroutine to its thread
// (runtime.LockOSThread) between attaching and detaching.
package simjvm

import (
	"io"
	"log/slog"
	"maps"
	"sync"

	"github.com/feather-lang/jni/sys"
)

const (
	defaultLocalCapacity = 512
	defaultMaxLocals     = 65536
)

// VM is a simulated runtime. It implements sys.VM.
type VM struct {
	mu      sync.Mutex
	logger  *slog.Logger
	version int32

	localCapacity int
	maxLocals     int
	maxThreads    int

	classes map[string]*Class
	methods []*method
	fields  []*field

	heap       map[*Object]struct{}
	nextObject uint64
	allocated  uint64
	collected  uint64

	refs       map[sys.Jobject]*ref
	refSeq     uint64
	locals     int
	peakLocals int
	globals    int

	threads map[int]*Env
	calls   map[string]int
}

var _ sys.VM = (*VM)(nil)

// Option configures a VM.
type Option func(*VM)

// WithLocalCapacity sets the capacity of each thread's base local frame.
func WithLocalCapacity(n int) Option {
	return func(vm *VM) { vm.localCapacity = n }
}

// WithMaxLocals bounds EnsureLocalCapacity and PushLocalFrame.
func WithMaxLocals(n int) Option {
	return func(vm *VM) { vm.maxLocals = n }
}

// WithMaxThreads bounds the number of attached threads. Attaching past the
// limit fails with sys.ENOMEM. Zero means no limit.
func WithMaxThreads(n int) Option {
	return func(vm *VM) { vm.maxThreads = n }
}

// WithLogger sets the logger for reference table events. The default
// discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(vm *VM) { vm.logger = logger }
}

// New creates a runtime with the bootstrap classes loaded.
func New(opts ...Option) *VM {
	vm := &VM{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		version:       sys.Version1_8,
		localCapacity: defaultLocalCapacity,
		maxLocals:     defaultMaxLocals,
		classes:       make(map[string]*Class),
		heap:          make(map[*Object]struct{}),
		refs:          make(map[sys.Jobject]*ref),
		threads:       make(map[int]*Env),
		calls:         make(map[string]int),
	}
	for _, opt := range opts {
		opt(vm)
	}
	if err := vm.bootstrap(); err != nil {
		panic("simjvm: bootstrap: " + err.Error())
	}
	return vm
}

// Class returns a loaded class, or nil.
func (vm *VM) Class(name string) *Class {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.classes[name]
}

// -----------------------------------------------------------------------------
// Threads
// -----------------------------------------------------------------------------

func (vm *VM) GetEnv(version int32) (sys.Env, error) {
	tid := currentThread()
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.calls["GetEnv"]++
	if version > vm.version {
		return nil, sys.EVERSION
	}
	env, ok := vm.threads[tid]
	if !ok {
		return nil, sys.EDETACHED
	}
	return env, nil
}

func (vm *VM) AttachCurrentThread() (sys.Env, error) {
	tid := currentThread()
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.calls["AttachCurrentThread"]++
	if env, ok := vm.threads[tid]; ok {
		return env, nil
	}
	if vm.maxThreads > 0 && len(vm.threads) >= vm.maxThreads {
		vm.logger.Debug("thread limit reached", "thread", tid, "limit", vm.maxThreads)
		return nil, sys.ENOMEM
	}
	env := &Env{vm: vm, tid: tid, frames: []*frame{newFrame(vm.localCapacity)}}
	vm.threads[tid] = env
	vm.logger.Debug("attached thread", "thread", tid)
	return env, nil
}

func (vm *VM) DetachCurrentThread() error {
	tid := currentThread()
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.calls["DetachCurrentThread"]++
	env, ok := vm.threads[tid]
	if !ok {
		return sys.EDETACHED
	}
	for _, f := range env.frames {
		env.releaseFrame(f)
	}
	env.frames = nil
	env.pending = nil
	env.detached = true
	delete(vm.threads, tid)
	vm.logger.Debug("detached thread", "thread", tid)
	return nil
}

// -----------------------------------------------------------------------------
// Statistics
// -----------------------------------------------------------------------------

// Stats is a snapshot of the runtime's tables.
type Stats struct {
	Classes       int            `yaml:"classes" json:"classes"`
	LiveObjects   int            `yaml:"live_objects" json:"live_objects"`
	Allocated     uint64         `yaml:"allocated" json:"allocated"`
	Collected     uint64         `yaml:"collected" json:"collected"`
	LocalRefs     int            `yaml:"local_refs" json:"local_refs"`
	PeakLocalRefs int            `yaml:"peak_local_refs" json:"peak_local_refs"`
	GlobalRefs    int            `yaml:"global_refs" json:"global_refs"`
	Threads       int            `yaml:"threads" json:"threads"`
	Calls         map[string]int `yaml:"calls" json:"calls"`
}

func (vm *VM) Stats() Stats {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return Stats{
		Classes:       len(vm.classes),
		LiveObjects:   len(vm.heap),
		Allocated:     vm.allocated,
		Collected:     vm.collected,
		LocalRefs:     vm.locals,
		PeakLocalRefs: vm.peakLocals,
		GlobalRefs:    vm.globals,
		Threads:       len(vm.threads),
		Calls:         maps.Clone(vm.calls),
	}
}

// CallCount returns how many times the named entry point ran, e.g.
// "FindClass", "DeleteLocalRef" or "AttachCurrentThread". Calls are counted
// under the name without an A suffix: "CallMethod", "NewObject".
func (vm *VM) CallCount(name string) int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.calls[name]
}

// ResetCounters zeroes the call counters and the local reference peak.
func (vm *VM) ResetCounters() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	clear(vm.calls)
	vm.peakLocals = vm.locals
}

// GlobalRefs returns the number of live global references.
func (vm *VM) GlobalRefs() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.globals
}

// LocalRefs returns the number of live local references across threads.
func (vm *VM) LocalRefs() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.locals
}

// -----------------------------------------------------------------------------
// Method implementation support
// -----------------------------------------------------------------------------

// Call gives a method implementation access to the runtime. It is valid only
// for the duration of the call.
type Call struct {
	env *Env
}

// Class returns a loaded class, or nil.
func (c *Call) Class(name string) *Class { return c.env.vm.classes[name] }

// New allocates an instance of the named class without running a
// constructor.
func (c *Call) New(class string, data any) *Object {
	return c.env.vm.alloc(c.env.vm.classes[class], data)
}

// String allocates a java/lang/String.
func (c *Call) String(s string) *Object { return c.New(stringClass, s) }

// GoString returns the contents of a java/lang/String.
func GoString(o *Object) (string, bool) {
	if o == nil {
		return "", false
	}
	s, ok := o.Data.(string)
	return s, ok
}
