package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"restopos/internal/auth"
	"restopos/internal/errors"
	"restopos/internal/service"
)

// UserContextKey is where the JWT middleware stores the validated claims.
const UserContextKey = "user"

// UserHandler serves the authenticated user's own account.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Me godoc
// @Summary Current user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.PublicUser
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	profile, err := h.svc.GetProfile(c.Request().Context(), userID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, profile)
}

// DeleteMe godoc
// @Summary Deactivate the current user
// @Description Soft-deletes the account. The email can be registered again afterwards.
// @Tags users
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/me [delete]
func (h *UserHandler) DeleteMe(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	if err := h.svc.Deactivate(c.Request().Context(), userID); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.NoContent(http.StatusNoContent)
}

func currentUserID(c echo.Context) (string, error) {
	claims, ok := c.Get(UserContextKey).(*auth.Claims)
	if !ok || claims.UserID() == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "invalid token",
			Code:  errors.CodeUnauthorized,
		})
	}
	return claims.UserID(), nil
}
