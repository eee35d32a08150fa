//go:build !linux
// +build !linux

package tcp

import "syscall"

// listenControl leaves socket options at their defaults outside Linux.
func listenControl(cfg *Config) func(network, address string, c syscall.RawConn) error {
	return nil
}
