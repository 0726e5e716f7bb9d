package jni

import "fmt"

// NewString creates a foreign string holding s.
func (e *Env) NewString(s string) (Object, error) {
	if e.closed {
		return Object{}, ErrEnvClosed
	}
	return e.nonNull(e.raw.NewStringUTF(s), "NewString")
}

// GetString copies the contents of a foreign string.
func (e *Env) GetString(str Object) (string, error) {
	if err := e.check(str); err != nil {
		return "", err
	}
	if str.IsNull() {
		return "", nullArg("GetString")
	}
	s, ok := e.raw.GetStringUTF(str.raw)
	if !ok {
		if err := e.pending(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("jni: %v is not a string", str)
	}
	return s, nil
}
