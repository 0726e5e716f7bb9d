//go:build !linux

package simjvm

import (
	"bytes"
	"runtime"
	"strconv"
)

// currentThread falls back to the goroutine ID where no thread ID is
// available. That matches thread identity for goroutines locked to their
// thread, which is what attached callers are required to do.
func currentThread() int {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, _ := strconv.Atoi(string(b))
	return id
}
