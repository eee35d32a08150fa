// File: transport/tlsserver/hello.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tlsserver

import (
	"crypto/tls"
	"slices"
)

// ClientHello is an immutable snapshot of the fields a client offered.
type ClientHello struct {
	ServerName        string
	ALPN              []string
	SupportedVersions []uint16
	CipherSuites      []uint16
	SignatureSchemes  []tls.SignatureScheme
	SupportedCurves   []tls.CurveID
}

// NewClientHello copies info. The result does not alias info's slices.
func NewClientHello(info *tls.ClientHelloInfo) ClientHello {
	if info == nil {
		return ClientHello{}
	}
	return ClientHello{
		ServerName:        info.ServerName,
		ALPN:              slices.Clone(info.SupportedProtos),
		SupportedVersions: slices.Clone(info.SupportedVersions),
		CipherSuites:      slices.Clone(info.CipherSuites),
		SignatureSchemes:  slices.Clone(info.SignatureSchemes),
		SupportedCurves:   slices.Clone(info.SupportedCurves),
	}
}

// OffersALPN reports whether the client offered proto.
func (h ClientHello) OffersALPN(proto string) bool {
	return slices.Contains(h.ALPN, proto)
}
