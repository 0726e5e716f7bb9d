// Package jni is a safety layer over the JNI function tables: local and
// global reference lifetimes, method and field lookups, and calls with
// checked signatures.
//
// # Overview
//
// Raw JNI hands out references that silently go bad: a local reference dies
// with its frame, belongs to one thread, and fills a table of fixed size.
// This package wraps the raw tables in package sys and provides:
//
//   - Object handles that know which Env and which local frame issued them
//   - Guards that delete local and global references exactly once
//   - Descriptors that name a class, method or field by string or by an
//     already resolved reference or ID
//   - Calls and field access that check arguments against the signature
//   - A java/util/Map adapter with a range-over-func iterator
//
// # Quick Start
//
//	vm := jni.NewJavaVM(raw)
//	err := vm.WithEnv(func(env *jni.Env) error {
//	    s, err := env.NewString("42")
//	    if err != nil {
//	        return err
//	    }
//	    defer env.AutoLocal(s).Release()
//
//	    v, err := env.CallStaticMethod(jni.ClassName("java/lang/Integer"),
//	        "parseInt", "(Ljava/lang/String;)I", []jni.Value{jni.ObjectValue(s)})
//	    if err != nil {
//	        return err
//	    }
//	    n, _ := v.Int()
//	    fmt.Println(n) // 42
//	    return nil
//	})
//
// # Local References
//
// Every Object returned by an Env is a local reference in the Env's
// innermost scope. Env.WithLocalFrame opens a frame and a scope together;
// when it returns, every Object created inside is stale and any later use
// fails with ErrStaleReference instead of reaching the runtime. An Object
// passed to another thread's Env fails with ErrWrongEnv.
//
// AutoLocal deletes a reference when released, which keeps long loops from
// overflowing the table:
//
//	for _, key := range keys {
//	    k, _ := env.NewString(key)
//	    guard := env.AutoLocal(k)
//	    v, ok, err := m.Get(guard.Object())
//	    guard.Release()
//	    ...
//	}
//
// # Global References
//
// Env.NewGlobalRef pins an object for use on any thread. Clone shares the
// reference; the runtime reference is deleted when the last handle is
// dropped. A handle nobody drops is dropped by the garbage collector, on a
// thread that is attached just for that and logged at warn level.
//
// # Exceptions
//
// A call that leaves a foreign exception pending returns ErrJavaException and
// leaves the exception in place. Use Env.TakeException to inspect and clear
// it. Failed lookups are different: the NoSuchMethodError or
// NoClassDefFoundError is cleared and a *NotFoundError is returned.
//
// # Logging
//
// JavaVM logs through log/slog. Teardown failures are logged at debug,
// global references dropped on a detached thread at warn, and value
// conversions at LevelTrace.
package jni
