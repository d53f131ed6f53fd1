package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/shopwise-auth/internal/api/http/handler/mocks"
	"github.com/dtroode/shopwise-auth/internal/model"
	"github.com/dtroode/shopwise-auth/internal/service"
	"github.com/dtroode/shopwise-auth/internal/testutil"
)

func TestRegistration_SendCode(t *testing.T) {
	t.Parallel()

	emailAck := service.CodeAck{
		Identity:  model.Identity{Kind: model.IdentityEmail, Key: "a@x.com"},
		ExpiresIn: 5 * time.Minute,
	}

	tests := []struct {
		name       string
		body       string
		identity   string
		profile    model.Profile
		ack        service.CodeAck
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "identity field",
			body:       `{"identity":"a@x.com","first_name":"Ann"}`,
			identity:   "a@x.com",
			profile:    model.Profile{FirstName: "Ann"},
			ack:        emailAck,
			wantStatus: http.StatusOK,
		},
		{
			name:       "email field",
			body:       `{"email":" a@x.com ","phone":"+15550001111"}`,
			identity:   "a@x.com",
			profile:    model.Profile{Email: " a@x.com ", Phone: "+15550001111"},
			ack:        emailAck,
			wantStatus: http.StatusOK,
		},
		{
			name:       "already registered",
			body:       `{"email":"a@x.com"}`,
			identity:   "a@x.com",
			profile:    model.Profile{Email: "a@x.com"},
			svcErr:     model.ErrIdentityAlreadyRegistered,
			wantStatus: http.StatusConflict,
			wantCode:   "identity_already_registered",
		},
		{
			name:       "rate limited",
			body:       `{"email":"a@x.com"}`,
			identity:   "a@x.com",
			profile:    model.Profile{Email: "a@x.com"},
			svcErr:     model.ErrRateLimited,
			wantStatus: http.StatusTooManyRequests,
			wantCode:   "rate_limited",
		},
		{
			name:       "delivery failure",
			body:       `{"email":"a@x.com"}`,
			identity:   "a@x.com",
			profile:    model.Profile{Email: "a@x.com"},
			svcErr:     model.ErrDelivery.Wrap(assert.AnError),
			wantStatus: http.StatusBadGateway,
			wantCode:   "delivery_error",
		},
		{
			name:       "malformed body",
			body:       `{"email":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := mocks.NewRegistrationService(t)
			if tt.wantCode != "invalid_input" {
				svc.On("RequestCode", mock.Anything, tt.identity, tt.profile).Return(tt.ack, tt.svcErr)
			}

			h := NewRegistration(svc, CookieConfig{}, testutil.MakeNoopLogger())
			rec, resp := call(t, h.SendCode, jsonRequest(http.MethodPost, "/api/v1/auth/otp/send", tt.body), nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.False(t, resp.Success)
				assert.Equal(t, tt.wantCode, resp.Error.Code)
				assert.NotEmpty(t, resp.Error.Message)
				return
			}

			assert.True(t, resp.Success)
			var ack codeAckResponse
			require.NoError(t, json.Unmarshal(resp.Data, &ack))
			assert.Equal(t, codeAckResponse{Identity: "a@x.com", Channel: "email", ExpiresInSeconds: 300}, ack)
			assert.NotContains(t, rec.Body.String(), `"code"`)
		})
	}
}

func TestRegistration_ResendCode(t *testing.T) {
	t.Parallel()

	svc := mocks.NewRegistrationService(t)
	svc.On("ResendCode", mock.Anything, "+15550001111").Return(service.CodeAck{
		Identity:  model.Identity{Kind: model.IdentityPhone, Key: "+15550001111"},
		ExpiresIn: time.Minute,
	}, nil)

	h := NewRegistration(svc, CookieConfig{}, testutil.MakeNoopLogger())
	rec, resp := call(t, h.ResendCode, jsonRequest(http.MethodPost, "/api/v1/auth/otp/resend", `{"phone":"+15550001111"}`), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var ack codeAckResponse
	require.NoError(t, json.Unmarshal(resp.Data, &ack))
	assert.Equal(t, "phone", ack.Channel)
	assert.EqualValues(t, 60, ack.ExpiresInSeconds)
}

func TestRegistration_VerifyCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantCode   string
		svcErr     error
		wantStatus int
		wantError  string
	}{
		{name: "string code", body: `{"email":"a@x.com","code":"012345"}`, wantCode: "012345", wantStatus: http.StatusOK},
		{name: "numeric code", body: `{"email":"a@x.com","code":12345}`, wantCode: "12345", wantStatus: http.StatusOK},
		{name: "otp field", body: `{"email":"a@x.com","otp":"654321"}`, wantCode: "654321", wantStatus: http.StatusOK},
		{name: "mismatch", body: `{"email":"a@x.com","code":"000000"}`, wantCode: "000000", svcErr: model.ErrCodeMismatch, wantStatus: http.StatusBadRequest, wantError: "code_mismatch"},
		{name: "expired", body: `{"email":"a@x.com","code":"000000"}`, wantCode: "000000", svcErr: model.ErrCodeExpiredOrMissing, wantStatus: http.StatusBadRequest, wantError: "code_expired_or_missing"},
		{name: "attempts exceeded", body: `{"email":"a@x.com","code":"000000"}`, wantCode: "000000", svcErr: model.ErrAttemptsExceeded, wantStatus: http.StatusTooManyRequests, wantError: "attempts_exceeded"},
		{name: "missing code", body: `{"email":"a@x.com"}`, wantStatus: http.StatusBadRequest, wantError: "invalid_input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := mocks.NewRegistrationService(t)
			if tt.wantCode != "" {
				svc.On("VerifyCode", mock.Anything, "a@x.com", tt.wantCode).Return(tt.svcErr)
			}

			h := NewRegistration(svc, CookieConfig{}, testutil.MakeNoopLogger())
			rec, resp := call(t, h.VerifyCode, jsonRequest(http.MethodPost, "/api/v1/auth/otp/verify", tt.body), nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError == "", resp.Success)
			assert.Equal(t, tt.wantError, resp.Error.Code)
		})
	}
}

func TestRegistration_Register(t *testing.T) {
	t.Parallel()

	t.Run("sets session cookie", func(t *testing.T) {
		t.Parallel()

		expires := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
		session := model.Session{
			User: model.User{
				ID:            uuid.New(),
				Email:         "a@x.com",
				FirstName:     "Ann",
				Role:          model.RoleCustomer,
				Status:        model.StatusActive,
				EmailVerified: true,
			},
			Token: model.SessionToken{Value: "signed", ExpiresAt: expires},
		}

		svc := mocks.NewRegistrationService(t)
		svc.On("Finalize", mock.Anything, "a@x.com", model.Profile{FirstName: "Ann", Email: "a@x.com"}, "Secret123").
			Return(session, nil)

		h := NewRegistration(svc, CookieConfig{Secure: true}, testutil.MakeNoopLogger())
		body := `{"email":"a@x.com","first_name":"Ann","password":"Secret123"}`
		rec, resp := call(t, h.Register, jsonRequest(http.MethodPost, "/api/v1/auth/register", body), nil)

		require.Equal(t, http.StatusCreated, rec.Code)
		var data sessionResponse
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Equal(t, "signed", data.Token)
		assert.Equal(t, session.User.ID.String(), data.User.ID)
		assert.True(t, data.User.EmailVerified)
		assert.NotContains(t, rec.Body.String(), "password")

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "token", cookies[0].Name)
		assert.Equal(t, "signed", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
		assert.True(t, cookies[0].Secure)
	})

	t.Run("not verified", func(t *testing.T) {
		t.Parallel()

		svc := mocks.NewRegistrationService(t)
		svc.On("Finalize", mock.Anything, "a@x.com", model.Profile{Email: "a@x.com"}, "Secret123").
			Return(model.Session{}, model.ErrNotVerified)

		h := NewRegistration(svc, CookieConfig{}, testutil.MakeNoopLogger())
		rec, resp := call(t, h.Register, jsonRequest(http.MethodPost, "/api/v1/auth/register", `{"email":"a@x.com","password":"Secret123"}`), nil)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "not_verified", resp.Error.Code)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("store failure is opaque", func(t *testing.T) {
		t.Parallel()

		svc := mocks.NewRegistrationService(t)
		svc.On("Finalize", mock.Anything, "a@x.com", model.Profile{Email: "a@x.com"}, "Secret123").
			Return(model.Session{}, assert.AnError)

		h := NewRegistration(svc, CookieConfig{}, testutil.MakeNoopLogger())
		rec, resp := call(t, h.Register, jsonRequest(http.MethodPost, "/api/v1/auth/register", `{"email":"a@x.com","password":"Secret123"}`), nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "infrastructure_error", resp.Error.Code)
		assert.Equal(t, "internal server error", resp.Error.Message)
	})
}

func TestFlexibleCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: `"012345"`, want: "012345"},
		{in: `123456`, want: "123456"},
		{in: `null`, want: ""},
		{in: `true`, wantErr: true},
	}
	for _, tt := range tests {
		var c flexibleCode
		err := json.Unmarshal([]byte(tt.in), &c)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, string(c))
	}
}
