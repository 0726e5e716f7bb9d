package jni

import (
	"log/slog"

	"github.com/feather-lang/jni/sys"
)

// Throw resolves ex and leaves it pending. Callers usually return to the
// runtime right after throwing.
func (e *Env) Throw(ex ExceptionDesc) error {
	obj, err := e.LookupException(ex)
	if err != nil {
		return err
	}
	defer obj.Release()
	if errno := e.raw.Throw(obj.Object().raw); errno != sys.OK {
		return errno
	}
	e.logger.Debug("threw exception", slog.String("object", obj.Object().String()))
	return nil
}

// ThrowNew constructs an instance of class with msg and leaves it pending.
func (e *Env) ThrowNew(class ClassDesc, msg string) error {
	cls, err := e.LookupClass(class)
	if err != nil {
		return err
	}
	defer cls.Release()
	if errno := e.raw.ThrowNew(cls.Object().raw, msg); errno != sys.OK {
		return errno
	}
	return nil
}

// ExceptionCheck reports whether an exception is pending.
func (e *Env) ExceptionCheck() bool {
	if e.closed {
		return false
	}
	return e.raw.ExceptionCheck()
}

// ExceptionOccurred returns a local reference to the pending exception, or
// false if none is pending. The exception stays pending.
func (e *Env) ExceptionOccurred() (Object, bool) {
	if e.closed {
		return Object{}, false
	}
	raw := e.raw.ExceptionOccurred()
	if raw == 0 {
		return Object{}, false
	}
	return e.issue(raw), true
}

// ExceptionClear discards the pending exception, if any.
func (e *Env) ExceptionClear() {
	if e.closed {
		return
	}
	e.raw.ExceptionClear()
}

// TakeException returns and clears the pending exception. Once cleared the
// throwable can be inspected with ordinary calls.
func (e *Env) TakeException() (Object, bool) {
	obj, ok := e.ExceptionOccurred()
	if ok {
		e.ExceptionClear()
	}
	return obj, ok
}
