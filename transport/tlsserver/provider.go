// File: transport/tlsserver/provider.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Connection specific server configuration selection.

package tlsserver

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/momentics/hioload-mw/control"
)

// ServerConfigProvider picks the server configuration for one connection.
// Returning (nil, nil) keeps the acceptor's default configuration; an error
// aborts the handshake.
type ServerConfigProvider interface {
	ServerConfig(ctx context.Context, hello ClientHello) (*tls.Config, error)
}

// ServerConfigProviderFunc adapts a function to ServerConfigProvider.
type ServerConfigProviderFunc func(ctx context.Context, hello ClientHello) (*tls.Config, error)

// ServerConfig calls f.
func (f ServerConfigProviderFunc) ServerConfig(ctx context.Context, hello ClientHello) (*tls.Config, error) {
	return f(ctx, hello)
}

// ClientConfigHandler tells the acceptor what to do with a ClientHello.
// The zero value keeps the default configuration and stores nothing.
type ClientConfigHandler struct {
	provider  ServerConfigProvider
	storeInfo bool
}

// NewClientConfigHandler returns an empty handler.
func NewClientConfigHandler() ClientConfigHandler {
	return ClientConfigHandler{}
}

// StoreClientHello makes the acceptor insert the ClientHello into the
// connection Context.
func (h ClientConfigHandler) StoreClientHello() ClientConfigHandler {
	h.storeInfo = true
	return h
}

// ServerConfigProvider sets the provider consulted for every connection.
func (h ClientConfigHandler) ServerConfigProvider(p ServerConfigProvider) ClientConfigHandler {
	h.provider = p
	return h
}

// StoresClientHello reports whether StoreClientHello was requested.
func (h ClientConfigHandler) StoresClientHello() bool { return h.storeInfo }

// ServerNameSelector chooses a configuration by SNI. Entries are keyed by
// lower-case host name; a key of the form "*.example.com" matches exactly
// one extra leading label. The backing store may be updated while serving.
type ServerNameSelector struct {
	store *control.ConfigStore[string, *tls.Config]
}

// NewServerNameSelector uses store, creating one when nil.
func NewServerNameSelector(store *control.ConfigStore[string, *tls.Config]) *ServerNameSelector {
	if store == nil {
		store = control.NewConfigStore[string, *tls.Config]()
	}
	return &ServerNameSelector{store: store}
}

// Store returns the backing store.
func (s *ServerNameSelector) Store() *control.ConfigStore[string, *tls.Config] {
	return s.store
}

// Set maps name to cfg.
func (s *ServerNameSelector) Set(name string, cfg *tls.Config) {
	s.store.Set(strings.ToLower(name), cfg)
}

// ServerConfig implements ServerConfigProvider. Unknown or missing names keep
// the default configuration.
func (s *ServerNameSelector) ServerConfig(_ context.Context, hello ClientHello) (*tls.Config, error) {
	return s.lookup(hello.ServerName), nil
}

func (s *ServerNameSelector) lookup(name string) *tls.Config {
	name = strings.TrimSuffix(strings.ToLower(name), ".")
	if name == "" {
		return nil
	}
	if cfg, ok := s.store.Get(name); ok {
		return cfg
	}
	if i := strings.IndexByte(name, '.'); i > 0 {
		if cfg, ok := s.store.Get("*" + name[i:]); ok {
			return cfg
		}
	}
	return nil
}
