package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dtroode/shopwise-auth/internal/model"
)

var _ model.Server = (*HTTPServer)(nil)

// HTTPServer runs an echo instance on a listener opened by a security layer.
type HTTPServer struct {
	echo *echo.Echo
	addr string
}

// NewHTTPServer creates an HTTPServer for e listening on addr.
func NewHTTPServer(e *echo.Echo, addr string) *HTTPServer {
	return &HTTPServer{echo: e, addr: addr}
}

// Start blocks serving requests until Stop is called.
func (s *HTTPServer) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.echo.Listener = listener
	if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop waits for in-flight requests until ctx is done.
func (s *HTTPServer) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *HTTPServer) Address() string {
	return s.addr
}
