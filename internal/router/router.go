package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"contactvault/internal/auth"
	"contactvault/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	jwtService *auth.JWTService,
	authHandler *handler.AuthHandler,
	contactHandler *handler.ContactHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// Secured routes: the token gate runs before any contact handler and is
	// the only place the caller identity comes from.
	secured := api.Group("", auth.Middleware(jwtService))

	secured.GET("/contacts", contactHandler.List)
	secured.GET("/contacts/deleted", contactHandler.ListDeleted)
	secured.GET("/contacts/:id", contactHandler.Get)
	secured.POST("/contacts", contactHandler.Create)
	secured.PUT("/contacts/:id", contactHandler.Update)
	secured.DELETE("/contacts/:id", contactHandler.Delete)
	secured.POST("/contacts/:id/restore", contactHandler.Restore)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
