//go:build !linux
// +build !linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

// pinCurrentThread is a no-op outside Linux.
func pinCurrentThread(cpus []int) error {
	return nil
}
