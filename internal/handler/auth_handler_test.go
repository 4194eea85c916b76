package handler

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"restopos/internal/errors"
	"restopos/internal/logging"
	"restopos/internal/model"
	"restopos/internal/service"
)

func newAuthTestServer() (*echo.Echo, *MockAuthService) {
	svc := new(MockAuthService)
	h := NewAuthHandler(svc, logging.Discard())

	e := newTestEcho()
	e.POST("/api/auth/send-otp", h.SendOTP)
	e.POST("/api/auth/register", h.Register)
	e.POST("/api/auth/login", h.Login)
	e.GET("/api/auth/health", h.Health)
	return e, svc
}

func sampleResult() *service.AuthResult {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return &service.AuthResult{
		User: model.PublicUser{
			ID:        "6f1c1f0e-2b1f-4a51-9f8e-2b8e0c3d7a10",
			Email:     "new@x.com",
			Name:      "Ann",
			Role:      model.RoleCustomer,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Token: "signed.jwt.token",
	}
}

func TestAuthHandler_SendOTP(t *testing.T) {
	e, svc := newAuthTestServer()
	svc.On("SendOTP", mock.Anything, service.SendOTPInput{Email: "new@x.com", Name: "Ann", Password: "Sup3r$ecret1"}).
		Return(&service.SendOTPResult{Success: true, Message: "OTP sent successfully"}, nil)

	rec := doJSON(e, http.MethodPost, "/api/auth/send-otp", `{"email":"new@x.com","name":"Ann","password":"Sup3r$ecret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"OTP sent successfully"}`, rec.Body.String())
}

func TestAuthHandler_SendOTP_EmailOnly(t *testing.T) {
	e, svc := newAuthTestServer()
	svc.On("SendOTP", mock.Anything, service.SendOTPInput{Email: "new@x.com"}).
		Return(&service.SendOTPResult{Success: true, Message: "OTP sent successfully"}, nil)

	rec := doJSON(e, http.MethodPost, "/api/auth/send-otp", `{"email":"new@x.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthHandler_SendOTP_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing email", `{}`},
		{"bad email", `{"email":"nope"}`},
		{"email too long", fmt.Sprintf(`{"email":"%s@x.com"}`, longString(100))},
		{"name without password", `{"email":"a@x.com","name":"Ann"}`},
		{"password without name", `{"email":"a@x.com","password":"Sup3r$ecret1"}`},
		{"short name", `{"email":"a@x.com","name":"A","password":"Sup3r$ecret1"}`},
		{"name with digits", `{"email":"a@x.com","name":"Ann2","password":"Sup3r$ecret1"}`},
		{"short password", `{"email":"a@x.com","name":"Ann","password":"S3$a"}`},
		{"no uppercase", `{"email":"a@x.com","name":"Ann","password":"sup3r$ecret1"}`},
		{"no symbol", `{"email":"a@x.com","name":"Ann","password":"Sup3rSecret1"}`},
		{"no digit", `{"email":"a@x.com","name":"Ann","password":"Super$ecret"}`},
		{"password over 72 bytes", fmt.Sprintf(`{"email":"a@x.com","name":"Ann","password":"Aa1$%s"}`, longString(80))},
		{"multibyte password over 72 bytes", fmt.Sprintf(`{"email":"a@x.com","name":"Ann","password":"Aa1$%s"}`, strings.Repeat("é", 40))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, svc := newAuthTestServer()

			rec := doJSON(e, http.MethodPost, "/api/auth/send-otp", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, errors.CodeValidation, decodeError(t, rec).Code)
			svc.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthHandler_SendOTP_Failures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"already exists", errors.ErrUserAlreadyExists, errors.CodeUserAlreadyExists},
		{"invalid email", errors.ErrInvalidEmail, errors.CodeInvalidEmail},
		{"password too long", errors.ErrPasswordTooLong, errors.CodePasswordTooLong},
		{"mail failure", fmt.Errorf("%w: smtp down", errors.ErrMailDelivery), errors.CodeMailDeliveryFailed},
		{"uncategorized", stderrors.New("redis: connection refused"), errors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, svc := newAuthTestServer()
			svc.On("SendOTP", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := doJSON(e, http.MethodPost, "/api/auth/send-otp", `{"email":"new@x.com"}`)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotContains(t, body.Error, "redis")
		})
	}
}

func TestAuthHandler_Register(t *testing.T) {
	e, svc := newAuthTestServer()
	svc.On("VerifyOTPAndRegister", mock.Anything, "new@x.com", "042917").Return(sampleResult(), nil)

	rec := doJSON(e, http.MethodPost, "/api/auth/register", `{"email":"new@x.com","otp":"042917"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "signed.jwt.token", body["token"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "new@x.com", user["email"])
	assert.Equal(t, "Ann", user["name"])
	assert.NotContains(t, user, "password")
}

func TestAuthHandler_Register_Failures(t *testing.T) {
	e, svc := newAuthTestServer()
	svc.On("VerifyOTPAndRegister", mock.Anything, "new@x.com", "111111").Return(nil, errors.ErrInvalidOrExpiredOTP)
	svc.On("VerifyOTPAndRegister", mock.Anything, "new@x.com", "222222").Return(nil, errors.ErrRegistrationSessionExpired)

	rec := doJSON(e, http.MethodPost, "/api/auth/register", `{"email":"new@x.com","otp":"111111"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeInvalidOrExpiredOTP, decodeError(t, rec).Code)

	rec = doJSON(e, http.MethodPost, "/api/auth/register", `{"email":"new@x.com","otp":"222222"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeRegistrationSessionExpired, decodeError(t, rec).Code)

	for _, otp := range []string{"12345", "1234567", "12a456", ""} {
		rec = doJSON(e, http.MethodPost, "/api/auth/register", fmt.Sprintf(`{"email":"new@x.com","otp":"%s"}`, otp))
		assert.Equal(t, http.StatusBadRequest, rec.Code, otp)
		assert.Equal(t, errors.CodeValidation, decodeError(t, rec).Code, otp)
	}
	svc.AssertNumberOfCalls(t, "VerifyOTPAndRegister", 2)
}

func TestAuthHandler_Login(t *testing.T) {
	e, svc := newAuthTestServer()
	svc.On("Login", mock.Anything, "new@x.com", "Sup3r$ecret1").Return(sampleResult(), nil)
	svc.On("Login", mock.Anything, "new@x.com", "wrong").Return(nil, errors.ErrInvalidCredentials)
	svc.On("Login", mock.Anything, "ghost@x.com", "wrong").Return(nil, errors.ErrInvalidCredentials)

	rec := doJSON(e, http.MethodPost, "/api/auth/login", `{"email":"new@x.com","password":"Sup3r$ecret1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	wrong := doJSON(e, http.MethodPost, "/api/auth/login", `{"email":"new@x.com","password":"wrong"}`)
	unknown := doJSON(e, http.MethodPost, "/api/auth/login", `{"email":"ghost@x.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	assert.Equal(t, errors.CodeInvalidCredentials, decodeError(t, wrong).Code)
}

func TestAuthHandler_Login_UncategorizedIs401(t *testing.T) {
	e, svc := newAuthTestServer()
	svc.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(nil, stderrors.New("db down"))

	rec := doJSON(e, http.MethodPost, "/api/auth/login", `{"email":"new@x.com","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, errors.CodeInternal, decodeError(t, rec).Code)
}

func TestAuthHandler_MalformedBody(t *testing.T) {
	e, _ := newAuthTestServer()

	rec := doJSON(e, http.MethodPost, "/api/auth/login", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeInvalidRequest, decodeError(t, rec).Code)
}

func TestAuthHandler_Health(t *testing.T) {
	e, _ := newAuthTestServer()

	rec := doJSON(e, http.MethodGet, "/api/auth/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK","message":"Auth service is healthy"}`, rec.Body.String())
}

func longString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}

func TestAuthHandler_SendOTP_PasswordByteLimit(t *testing.T) {
	e, svc := newAuthTestServer()
	atLimit := "Aa1$" + longString(68)
	svc.On("SendOTP", mock.Anything, service.SendOTPInput{Email: "new@x.com", Name: "Ann", Password: atLimit}).
		Return(&service.SendOTPResult{Success: true, Message: "OTP sent successfully"}, nil)

	rec := doJSON(e, http.MethodPost, "/api/auth/send-otp", fmt.Sprintf(`{"email":"new@x.com","name":"Ann","password":"%s"}`, atLimit))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/auth/send-otp", fmt.Sprintf(`{"email":"new@x.com","name":"Ann","password":"%sx"}`, atLimit))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, errors.CodeValidation, body.Code)
	assert.Equal(t, "password must be at most 72 bytes", body.Error)
}
