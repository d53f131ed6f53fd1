package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpcontext "github.com/dtroode/shopwise-auth/internal/api/http/context"
	"github.com/dtroode/shopwise-auth/internal/api/http/handler/mocks"
	"github.com/dtroode/shopwise-auth/internal/model"
	"github.com/dtroode/shopwise-auth/internal/service"
	"github.com/dtroode/shopwise-auth/internal/testutil"
)

func newAccountHandler(svc AccountService) *Account {
	return NewAccount(svc, httpcontext.NewManager(), testutil.MakeNoopLogger())
}

func avatarRequest(t *testing.T, field, contentType string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="` + field + `"; filename="me.png"`},
		"Content-Type":        {contentType},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/me/avatar", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestAccount_UploadAvatar(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	claims := model.SessionClaims{SubjectID: id, Role: model.RoleCustomer}

	t.Run("uploaded", func(t *testing.T) {
		t.Parallel()

		svc := mocks.NewAccountService(t)
		svc.On("UploadAvatar", mock.Anything, id, "image/png", int64(3), mock.MatchedBy(func(r io.Reader) bool {
			data, err := io.ReadAll(r)
			return err == nil && string(data) == "png"
		})).Return(model.User{ID: id, ProfileImage: "avatars/x.png"}, nil)

		req := withClaims(avatarRequest(t, "avatar", "image/png", []byte("png")), claims)
		rec, resp := call(t, newAccountHandler(svc).UploadAvatar, req, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var user userResponse
		require.NoError(t, json.Unmarshal(resp.Data, &user))
		assert.Equal(t, "avatars/x.png", user.ProfileImage)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		req := withClaims(avatarRequest(t, "picture", "image/png", []byte("png")), claims)
		rec, resp := call(t, newAccountHandler(mocks.NewAccountService(t)).UploadAvatar, req, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_input", resp.Error.Code)
	})

	t.Run("storage disabled", func(t *testing.T) {
		t.Parallel()

		svc := mocks.NewAccountService(t)
		svc.On("UploadAvatar", mock.Anything, id, "image/png", int64(3), mock.Anything).
			Return(model.User{}, service.ErrStorageDisabled)

		req := withClaims(avatarRequest(t, "avatar", "image/png", []byte("png")), claims)
		rec, _ := call(t, newAccountHandler(svc).UploadAvatar, req, nil)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestAccount_CreateSeller(t *testing.T) {
	t.Parallel()

	t.Run("created", func(t *testing.T) {
		t.Parallel()

		svc := mocks.NewAccountService(t)
		svc.On("Create", mock.Anything, service.CreateAccount{
			Identity: "shop@x.com",
			Profile:  model.Profile{FirstName: "Shop", Email: "shop@x.com"},
			Password: "Secret123",
			Role:     model.RoleVendor,
		}).Return(model.User{ID: uuid.New(), Email: "shop@x.com", Role: model.RoleVendor}, nil)

		body := `{"email":"shop@x.com","first_name":"Shop","password":"Secret123"}`
		req := withClaims(jsonRequest(http.MethodPost, "/api/v1/admin/sellers", body), model.SessionClaims{SubjectID: uuid.New(), Role: model.RoleAdmin})
		rec, resp := call(t, newAccountHandler(svc).CreateSeller, req, nil)

		require.Equal(t, http.StatusCreated, rec.Code)
		var user userResponse
		require.NoError(t, json.Unmarshal(resp.Data, &user))
		assert.Equal(t, model.RoleVendor, user.Role)
	})

	t.Run("conflict", func(t *testing.T) {
		t.Parallel()

		svc := mocks.NewAccountService(t)
		svc.On("Create", mock.Anything, mock.Anything).Return(model.User{}, model.ErrIdentityAlreadyRegistered)

		rec, resp := call(t, newAccountHandler(svc).CreateSeller, jsonRequest(http.MethodPost, "/api/v1/admin/sellers", `{"email":"shop@x.com","password":"Secret123"}`), nil)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "identity_already_registered", resp.Error.Code)
	})
}

func TestAccount_SetStatus(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	withID := func(value string) func(c echo.Context) {
		return func(c echo.Context) {
			c.SetParamNames("id")
			c.SetParamValues(value)
		}
	}

	t.Run("updated", func(t *testing.T) {
		t.Parallel()

		svc := mocks.NewAccountService(t)
		svc.On("SetStatus", mock.Anything, id, model.StatusSuspended).
			Return(model.User{ID: id, Status: model.StatusSuspended}, nil)

		req := jsonRequest(http.MethodPatch, "/api/v1/admin/users/"+id.String()+"/status", `{"status":"suspended"}`)
		rec, resp := call(t, newAccountHandler(svc).SetStatus, req, withID(id.String()))

		require.Equal(t, http.StatusOK, rec.Code)
		var user userResponse
		require.NoError(t, json.Unmarshal(resp.Data, &user))
		assert.Equal(t, "suspended", user.Status)
	})

	t.Run("bad id", func(t *testing.T) {
		t.Parallel()

		req := jsonRequest(http.MethodPatch, "/api/v1/admin/users/nope/status", `{"status":"suspended"}`)
		rec, resp := call(t, newAccountHandler(mocks.NewAccountService(t)).SetStatus, req, withID("nope"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_input", resp.Error.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()

		svc := mocks.NewAccountService(t)
		svc.On("SetStatus", mock.Anything, id, model.StatusActive).Return(model.User{}, model.ErrUserNotFound)

		req := jsonRequest(http.MethodPatch, "/api/v1/admin/users/"+id.String()+"/status", `{"status":"active"}`)
		rec, resp := call(t, newAccountHandler(svc).SetStatus, req, withID(id.String()))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", resp.Error.Code)
	})
}

func TestAccount_UpdateProfile(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	claims := model.SessionClaims{SubjectID: id, Role: model.RoleCustomer}
	first, gender, dob := "Ann", "female", "1990-04-12"

	tests := []struct {
		name       string
		body       string
		want       *service.ProfileUpdate
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "updated",
			body:       `{"first_name":"Ann","gender":"female","date_of_birth":"1990-04-12"}`,
			want:       &service.ProfileUpdate{FirstName: &first, Gender: &gender, DateOfBirth: &dob},
			wantStatus: http.StatusOK,
		},
		{
			name:       "restricted fields are ignored",
			body:       `{"first_name":"Ann","email":"new@x.com","password":"Secret123","role":"admin","email_verified":true}`,
			want:       &service.ProfileUpdate{FirstName: &first},
			wantStatus: http.StatusOK,
		},
		{
			name:       "nothing to update",
			body:       `{"role":"admin"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_input",
		},
		{
			name:       "phone taken",
			body:       `{"first_name":"Ann"}`,
			want:       &service.ProfileUpdate{FirstName: &first},
			svcErr:     model.ErrIdentityAlreadyRegistered,
			wantStatus: http.StatusConflict,
			wantCode:   "identity_already_registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := mocks.NewAccountService(t)
			if tt.want != nil {
				svc.On("UpdateProfile", mock.Anything, id, *tt.want).
					Return(model.User{ID: id, Email: "a@x.com", FirstName: "Ann", Gender: model.GenderFemale}, tt.svcErr)
			}

			req := withClaims(jsonRequest(http.MethodPut, "/api/v1/users/me", tt.body), claims)
			rec, resp := call(t, newAccountHandler(svc).UpdateProfile, req, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			if tt.wantCode != "" {
				return
			}

			var user userResponse
			require.NoError(t, json.Unmarshal(resp.Data, &user))
			assert.Equal(t, "Ann", user.FirstName)
			assert.Equal(t, "female", user.Gender)
		})
	}

	t.Run("no claims", func(t *testing.T) {
		t.Parallel()

		rec, resp := call(t, newAccountHandler(mocks.NewAccountService(t)).UpdateProfile, jsonRequest(http.MethodPut, "/api/v1/users/me", `{"first_name":"Ann"}`), nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid_token", resp.Error.Code)
	})
}
