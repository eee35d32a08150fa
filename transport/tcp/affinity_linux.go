//go:build linux
// +build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp - Linux-specific CPU affinity implementation.

package tcp

import (
	"golang.org/x/sys/unix"
)

// pinCurrentThread restricts the calling OS thread to cpus.
// The caller must hold runtime.LockOSThread.
func pinCurrentThread(cpus []int) error {
	var set unix.CPUSet
	set.Zero()
	for _, cpu := range cpus {
		set.Set(cpu)
	}
	return unix.SchedSetaffinity(0, &set)
}
