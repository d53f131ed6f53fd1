package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dtroode/shopwise-auth/internal/api/http/middleware"
	"github.com/dtroode/shopwise-auth/internal/model"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type errorEnvelope struct {
	Success bool        `json:"success"`
	Error   errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

type userResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	FirstName     string     `json:"first_name,omitempty"`
	LastName      string     `json:"last_name,omitempty"`
	Role          model.Role `json:"role"`
	Status        string     `json:"status"`
	EmailVerified bool       `json:"email_verified"`
	PhoneVerified bool       `json:"phone_verified"`
	ProfileImage  string     `json:"profile_image,omitempty"`
	Gender        string     `json:"gender,omitempty"`
	DateOfBirth   string     `json:"date_of_birth,omitempty"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func newUserResponse(u model.User) userResponse {
	var dob string
	if u.DateOfBirth != nil {
		dob = u.DateOfBirth.Format(time.DateOnly)
	}

	return userResponse{
		ID:            u.ID.String(),
		Email:         u.Email,
		Phone:         u.Phone,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Role:          u.Role,
		Status:        string(u.Status),
		EmailVerified: u.EmailVerified,
		PhoneVerified: u.PhoneVerified,
		ProfileImage:  u.ProfileImage,
		Gender:        string(u.Gender),
		DateOfBirth:   dob,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

type sessionResponse struct {
	User      userResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func newSessionResponse(s model.Session) sessionResponse {
	return sessionResponse{
		User:      newUserResponse(s.User),
		Token:     s.Token.Value,
		ExpiresAt: s.Token.ExpiresAt,
	}
}

// identityFields are the ways a client may name its identity. identity wins
// over email, email over phone.
type identityFields struct {
	Identity string `json:"identity"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

func (f identityFields) identity() string {
	for _, v := range []string{f.Identity, f.Email, f.Phone} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// flexibleCode accepts a verification code sent as a JSON string or number.
type flexibleCode string

func (c *flexibleCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = flexibleCode(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = flexibleCode(n.String())
	return nil
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Secure bool
}

func setSessionCookie(c echo.Context, cfg CookieConfig, token model.SessionToken) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    token.Value,
		Path:     "/",
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(c echo.Context, cfg CookieConfig) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return model.NewInvalidInputError("invalid request body")
	}
	return nil
}
