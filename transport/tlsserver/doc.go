// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tlsserver terminates TLS in front of a stream service.
//
// The acceptor inspects every ClientHello before the handshake continues and
// lets a ServerConfigProvider pick a connection specific *tls.Config, falling
// back to the acceptor's default configuration.
package tlsserver
