package jni

import (
	"errors"
	"fmt"

	"github.com/feather-lang/jni/sys"
)

var (
	// ErrJavaException reports that a call left an exception pending in the
	// foreign runtime. The exception stays pending; inspect it with
	// [Env.ExceptionOccurred] and clear it with [Env.ExceptionClear].
	ErrJavaException = errors.New("jni: java exception pending")

	// ErrNullPointer reports a null reference where a non-null one was required.
	ErrNullPointer = errors.New("jni: null pointer")

	// ErrNotFound is the sentinel wrapped by every *NotFoundError.
	ErrNotFound = errors.New("jni: not found")

	// ErrStaleReference reports use of a local reference whose scope has
	// closed (its local frame was popped or its Env was closed).
	ErrStaleReference = errors.New("jni: local reference used after its scope closed")

	// ErrWrongEnv reports use of a local reference from an Env other than
	// the one that issued it.
	ErrWrongEnv = errors.New("jni: local reference belongs to another env")

	// ErrNoFrame reports a PopLocalFrame without a matching PushLocalFrame.
	ErrNoFrame = errors.New("jni: no local frame to pop")

	// ErrEnvClosed reports use of a closed Env.
	ErrEnvClosed = errors.New("jni: env is closed")

	// ErrNotLocal reports an attempt to delete a non-local reference as a local one.
	ErrNotLocal = errors.New("jni: not a local reference")

	// ErrInvalidArguments reports an argument list that does not match a
	// method signature.
	ErrInvalidArguments = errors.New("jni: invalid arguments")

	// ErrDetached reports that the calling thread is not attached.
	ErrDetached error = sys.EDETACHED
)

// NotFoundError reports a class, method or field that did not resolve.
type NotFoundError struct {
	Kind      string // "class", "method", "static method", "field", "static field"
	Class     string
	Name      string
	Signature string
}

func (e *NotFoundError) Error() string {
	switch {
	case e.Kind == "class":
		return fmt.Sprintf("jni: class not found: %s", e.Class)
	case e.Signature == "":
		return fmt.Sprintf("jni: %s not found: %s.%s", e.Kind, e.Class, e.Name)
	default:
		return fmt.Sprintf("jni: %s not found: %s.%s%s", e.Kind, e.Class, e.Name, e.Signature)
	}
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// WrongValueTypeError reports narrowing a Value to a kind it does not hold.
type WrongValueTypeError struct {
	Expected string
	Actual   string
}

func (e *WrongValueTypeError) Error() string {
	return fmt.Sprintf("jni: wrong value type: expected %s, got %s", e.Expected, e.Actual)
}

// SignatureError reports a malformed type or method descriptor.
type SignatureError struct {
	Signature string
	Offset    int
	Reason    string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("jni: invalid signature %q at offset %d: %s", e.Signature, e.Offset, e.Reason)
}

func nullArg(what string) error {
	return fmt.Errorf("%w: %s", ErrNullPointer, what)
}
