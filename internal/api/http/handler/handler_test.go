package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	httpcontext "github.com/dtroode/shopwise-auth/internal/api/http/context"
	"github.com/dtroode/shopwise-auth/internal/model"
	"github.com/dtroode/shopwise-auth/internal/testutil"
)

type testResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   errorDetail     `json:"error"`
}

// call runs h against a request and writes returned errors through the
// error handler the router installs.
func call(t *testing.T, h echo.HandlerFunc, req *http.Request, setup func(c echo.Context)) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()

	e := echo.New()
	e.HTTPErrorHandler = NewErrorHandler(testutil.MakeNoopLogger())

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}

	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}

	var resp testResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func jsonRequest(method, target, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func withClaims(req *http.Request, claims model.SessionClaims) *http.Request {
	ctx := httpcontext.NewManager().SetClaimsToContext(req.Context(), claims)
	return req.WithContext(ctx)
}
