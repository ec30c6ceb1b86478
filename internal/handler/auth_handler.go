package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "contactvault/internal/errors"
	"contactvault/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=6,max=100"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is the envelope returned by both auth endpoints.
type AuthResponse struct {
	Succeeded bool       `json:"succeeded"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	UserID    string     `json:"userId,omitempty"`
	Email     string     `json:"email,omitempty"`
	Errors    []string   `json:"errors,omitempty"`
}

func authFailure(messages ...string) AuthResponse {
	return AuthResponse{Succeeded: false, Errors: messages}
}

func authSuccess(result *service.AuthResult) AuthResponse {
	return AuthResponse{
		Succeeded: true,
		Token:     result.Token,
		ExpiresAt: &result.ExpiresAt,
		UserID:    result.UserID,
		Email:     result.Email,
	}
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} AuthResponse
// @Failure 500 {object} AuthResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, authFailure("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, authFailure(validationMessages(err)...))
	}

	result, err := h.authService.Register(c.Request().Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			return c.JSON(http.StatusBadRequest, authFailure("Email is already registered"))
		}
		logInternal(c, err)
		return c.JSON(http.StatusInternalServerError, authFailure("failed to register user"))
	}

	return c.JSON(http.StatusOK, authSuccess(result))
}

// Login godoc
// @Summary Authenticate a user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} AuthResponse
// @Failure 401 {object} AuthResponse
// @Failure 500 {object} AuthResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, authFailure("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, authFailure(validationMessages(err)...))
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, authFailure("Invalid email or password"))
		}
		logInternal(c, err)
		return c.JSON(http.StatusInternalServerError, authFailure("failed to login"))
	}

	return c.JSON(http.StatusOK, authSuccess(result))
}
