// Package server provides the listeners HTTP servers accept connections on.
package server

import (
	"crypto/tls"
	"fmt"
	"net"

	"github.com/dtroode/shopwise-auth/internal/model"
)

var (
	_ model.SecurityLayer = (*TLSListener)(nil)
	_ model.SecurityLayer = (*PlainListener)(nil)
)

// TLSListener serves HTTPS with a certificate loaded from disk. TLS 1.2 is
// the lowest accepted version.
type TLSListener struct {
	certFile string
	keyFile  string
}

func NewTLSListener(certFile, keyFile string) *TLSListener {
	return &TLSListener{certFile: certFile, keyFile: keyFile}
}

// Listen loads the key pair on every call so a restarted server picks up a
// renewed certificate.
func (l *TLSListener) Listen(protocol, addr string) (net.Listener, error) {
	cert, err := tls.LoadX509KeyPair(l.certFile, l.keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS key pair: %w", err)
	}

	return tls.Listen(protocol, addr, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})
}

// PlainListener serves unencrypted connections, e.g. behind a TLS
// terminating proxy.
type PlainListener struct{}

func NewPlainListener() *PlainListener {
	return &PlainListener{}
}

func (l *PlainListener) Listen(protocol, addr string) (net.Listener, error) {
	return net.Listen(protocol, addr)
}

// NewSecurityLayer returns a TLS listener when enableHTTPS is set and a plain
// one otherwise.
func NewSecurityLayer(enableHTTPS bool, certFile, keyFile string) model.SecurityLayer {
	if enableHTTPS {
		return NewTLSListener(certFile, keyFile)
	}
	return NewPlainListener()
}
