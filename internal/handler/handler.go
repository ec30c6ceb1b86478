package handler

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// logInternal records an unexpected error with the request id so it can be
// correlated with the access log. The caller returns a generic response; the
// underlying message never reaches the client.
func logInternal(c echo.Context, err error) {
	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	c.Logger().Errorf("request %s: %v", requestID, err)
}

// validationMessages flattens a validator error into one message per failed
// field.
func validationMessages(err error) []string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []string{"invalid request"}
	}
	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
	}
	return messages
}
