//go:build linux

package simjvm

import "golang.org/x/sys/unix"

func currentThread() int { return unix.Gettid() }
