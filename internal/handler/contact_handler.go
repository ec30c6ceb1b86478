package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"contactvault/internal/auth"
	apperrors "contactvault/internal/errors"
	"contactvault/internal/query"
	"contactvault/internal/service"
)

// ContactHandler handles contact endpoints. Every handler resolves the
// caller identity from the verified token before touching the service.
type ContactHandler struct {
	contactService service.ContactService
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(contactService service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// ContactRequest carries the mutable contact fields for create and update.
// There is no owner field; ownership comes from the token alone.
type ContactRequest struct {
	FirstName   string     `json:"firstName" validate:"required,max=100"`
	LastName    string     `json:"lastName" validate:"required,max=100"`
	Email       string     `json:"email" validate:"required,email,max=255"`
	PhoneNumber string     `json:"phoneNumber" validate:"omitempty,max=30"`
	BirthDate   *time.Time `json:"birthDate"`
	Address     string     `json:"address" validate:"omitempty,max=255"`
	Notes       string     `json:"notes" validate:"omitempty,max=2000"`
}

// ListContactsRequest captures the listing query parameters.
type ListContactsRequest struct {
	Page           int    `query:"page"`
	PageSize       int    `query:"pageSize"`
	SortBy         string `query:"sortBy"`
	SortDescending bool   `query:"sortDescending"`
	Search         string `query:"search"`
}

func (r ContactRequest) toInput() service.ContactInput {
	return service.ContactInput{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		BirthDate:   r.BirthDate,
		Address:     r.Address,
		Notes:       r.Notes,
	}
}

// bindContactRequest binds and validates the body, including the rule that a
// birth date may not lie in the future.
func bindContactRequest(c echo.Context) (*ContactRequest, *echo.HTTPError) {
	var req ContactRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "invalid request body", Code: "INVALID_BODY",
		})
	}
	if err := c.Validate(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: validationMessages(err)[0], Code: "VALIDATION_FAILED",
		})
	}
	if req.BirthDate != nil && req.BirthDate.After(time.Now()) {
		return nil, echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "birth date cannot be in the future", Code: "VALIDATION_FAILED",
		})
	}
	return &req, nil
}

func contactID(c echo.Context) (uint, *echo.HTTPError) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "invalid contact id", Code: "INVALID_ID",
		})
	}
	return uint(id), nil
}

func (h *ContactHandler) fail(c echo.Context, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.StatusCode == http.StatusInternalServerError {
		logInternal(c, err)
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// List godoc
// @Summary List contacts
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (min 1)"
// @Param pageSize query int false "Page size (1-100, default 10)"
// @Param sortBy query string false "Sort key: name, birthdate, email, createdat"
// @Param sortDescending query bool false "Reverse the sort order"
// @Param search query string false "Case-insensitive substring filter"
// @Success 200 {object} query.PagedResult
// @Failure 401 {object} errors.ErrorResponse
// @Router /contacts [get]
func (h *ContactHandler) List(c echo.Context) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}

	var req ListContactsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "invalid query parameters", Code: "INVALID_QUERY",
		})
	}

	result, err := h.contactService.List(c.Request().Context(), identity, query.Params{
		Page:           req.Page,
		PageSize:       req.PageSize,
		SortBy:         req.SortBy,
		SortDescending: req.SortDescending,
		Search:         req.Search,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ListDeleted godoc
// @Summary List soft-deleted contacts
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Contact
// @Failure 401 {object} errors.ErrorResponse
// @Router /contacts/deleted [get]
func (h *ContactHandler) ListDeleted(c echo.Context) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}

	contacts, err := h.contactService.ListDeleted(c.Request().Context(), identity)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, contacts)
}

// Get godoc
// @Summary Get a contact by id
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contact ID"
// @Success 200 {object} model.Contact
// @Failure 404 {object} errors.ErrorResponse
// @Router /contacts/{id} [get]
func (h *ContactHandler) Get(c echo.Context) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}
	id, httpErr := contactID(c)
	if httpErr != nil {
		return httpErr
	}

	contact, err := h.contactService.GetByID(c.Request().Context(), identity, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, contact)
}

// Create godoc
// @Summary Create a contact
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ContactRequest true "Contact data"
// @Success 201 {object} model.Contact
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /contacts [post]
func (h *ContactHandler) Create(c echo.Context) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}
	req, httpErr := bindContactRequest(c)
	if httpErr != nil {
		return httpErr
	}

	contact, err := h.contactService.Create(c.Request().Context(), identity, req.toInput())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, contact)
}

// Update godoc
// @Summary Update a contact
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contact ID"
// @Param request body ContactRequest true "Contact data"
// @Success 200 {object} model.Contact
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /contacts/{id} [put]
func (h *ContactHandler) Update(c echo.Context) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}
	id, httpErr := contactID(c)
	if httpErr != nil {
		return httpErr
	}
	req, httpErr := bindContactRequest(c)
	if httpErr != nil {
		return httpErr
	}

	contact, err := h.contactService.Update(c.Request().Context(), identity, id, req.toInput())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, contact)
}

// Delete godoc
// @Summary Soft-delete a contact
// @Tags contacts
// @Security BearerAuth
// @Param id path int true "Contact ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /contacts/{id} [delete]
func (h *ContactHandler) Delete(c echo.Context) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}
	id, httpErr := contactID(c)
	if httpErr != nil {
		return httpErr
	}

	if err := h.contactService.Delete(c.Request().Context(), identity, id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Restore godoc
// @Summary Restore a soft-deleted contact
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contact ID"
// @Success 200 {object} model.Contact
// @Failure 404 {object} errors.ErrorResponse
// @Router /contacts/{id}/restore [post]
func (h *ContactHandler) Restore(c echo.Context) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}
	id, httpErr := contactID(c)
	if httpErr != nil {
		return httpErr
	}

	contact, err := h.contactService.Restore(c.Request().Context(), identity, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, contact)
}
