package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"restopos/internal/errors"
	"restopos/internal/logging"
	"restopos/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	log         logging.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, log logging.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log.With("component", "auth_handler")}
}

// SendOTPRequest starts a signup. Name and password travel together or not at all.
type SendOTPRequest struct {
	Email    string `json:"email" validate:"required,email,max=100"`
	Name     string `json:"name,omitempty" validate:"required_with=Password,omitempty,min=2,max=50,personname"`
	Password string `json:"password,omitempty" validate:"required_with=Name,omitempty,min=8,maxbytes=72,strongpassword"`
}

// RegisterRequest completes a signup with the mailed code.
type RegisterRequest struct {
	Email string `json:"email" validate:"required,email,max=100"`
	OTP   string `json:"otp" validate:"required,otp"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required"`
}

// HealthResponse is returned by the auth health check.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SendOTP godoc
// @Summary Send a verification code
// @Description Mails a 6-digit code to the address. Supplying name and password parks them until the code is verified.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SendOTPRequest true "Signup data"
// @Success 200 {object} service.SendOTPResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /auth/send-otp [post]
func (h *AuthHandler) SendOTP(c echo.Context) error {
	var req SendOTPRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.SendOTP(c.Request().Context(), service.SendOTPInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return h.fail(c, "send otp", err, http.StatusBadRequest)
	}

	return c.JSON(http.StatusOK, res)
}

// Register godoc
// @Summary Verify code and create the account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Email and code"
// @Success 201 {object} service.AuthResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.VerifyOTPAndRegister(c.Request().Context(), req.Email, req.OTP)
	if err != nil {
		return h.fail(c, "register", err, http.StatusBadRequest)
	}

	return c.JSON(http.StatusCreated, res)
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} service.AuthResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.fail(c, "login", err, http.StatusUnauthorized)
	}

	return c.JSON(http.StatusOK, res)
}

// Health godoc
// @Summary Auth service health
// @Tags auth
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /auth/health [get]
func (h *AuthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "OK", Message: "Auth service is healthy"})
}

func (h *AuthHandler) bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  errors.CodeInvalidRequest,
		})
	}
	if err := c.Validate(req); err != nil {
		h.log.Warn(c.Request().Context(), "validation failed", "path", c.Path(), "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  errors.CodeValidation,
		})
	}
	return nil
}

// fail maps an auth failure to the endpoint's failure status.
func (h *AuthHandler) fail(c echo.Context, op string, err error, status int) error {
	httpErr := errors.MapAuthError(err, status)
	ctx := c.Request().Context()
	if errors.Categorized(err) {
		h.log.Warn(ctx, op+" failed", "code", httpErr.Code)
	} else {
		h.log.Error(ctx, op+" failed", "error", err)
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}
