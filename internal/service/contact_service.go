package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"contactvault/internal/cache"
	apperrors "contactvault/internal/errors"
	"contactvault/internal/model"
	"contactvault/internal/query"
	"contactvault/internal/repository"
)

const contactCacheTTL = 5 * time.Minute

// ContactCache is the caching seam used for contact lookups. *cache.Client
// satisfies it in production; tests substitute an in-memory one.
type ContactCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) bool
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Delete(ctx context.Context, key string) error
}

// Ensure the redis wrapper satisfies the seam.
var _ ContactCache = (*cache.Client)(nil)

// ContactInput carries the mutable contact fields. OwnerID is deliberately
// absent: ownership always comes from the verified caller identity.
type ContactInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	BirthDate   *time.Time
	Address     string
	Notes       string
}

// ContactService owns the contact lifecycle. The owner id is the first
// argument of every operation and scopes every storage access.
type ContactService interface {
	List(ctx context.Context, ownerID string, params query.Params) (query.PagedResult, error)
	ListDeleted(ctx context.Context, ownerID string) ([]model.Contact, error)
	GetByID(ctx context.Context, ownerID string, id uint) (*model.Contact, error)
	Create(ctx context.Context, ownerID string, in ContactInput) (*model.Contact, error)
	Update(ctx context.Context, ownerID string, id uint, in ContactInput) (*model.Contact, error)
	Delete(ctx context.Context, ownerID string, id uint) error
	Restore(ctx context.Context, ownerID string, id uint) (*model.Contact, error)
}

type contactService struct {
	contacts repository.ContactRepository
	cache    ContactCache
	now      func() time.Time
}

// NewContactService creates a new contact service. A nil cache falls back to
// the wrapper's nil-safe no-op behavior; a nil clock defaults to time.Now.
func NewContactService(contacts repository.ContactRepository, cacheClient ContactCache, now func() time.Time) ContactService {
	if cacheClient == nil {
		cacheClient = (*cache.Client)(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &contactService{
		contacts: contacts,
		cache:    cacheClient,
		now:      now,
	}
}

func (s *contactService) cacheKey(ownerID string, id uint) string {
	return fmt.Sprintf("contact:%s:%d", ownerID, id)
}

// List returns one page of the owner's live contacts. The repository scopes
// the candidate set (ownership, not deleted); the query engine applies
// search, sort, and pagination.
func (s *contactService) List(ctx context.Context, ownerID string, params query.Params) (query.PagedResult, error) {
	candidates, err := s.contacts.ListActive(ctx, ownerID)
	if err != nil {
		return query.PagedResult{}, err
	}
	return query.Apply(candidates, params), nil
}

// ListDeleted returns the owner's soft-deleted contacts: the explicit
// include-deleted path.
func (s *contactService) ListDeleted(ctx context.Context, ownerID string) ([]model.Contact, error) {
	return s.contacts.ListDeleted(ctx, ownerID)
}

// GetByID returns a live contact owned by the caller, with read-through
// caching. Missing and foreign-owned ids are the same ErrContactNotFound.
func (s *contactService) GetByID(ctx context.Context, ownerID string, id uint) (*model.Contact, error) {
	var cached model.Contact
	if s.cache.GetJSON(ctx, s.cacheKey(ownerID, id), &cached) {
		return &cached, nil
	}

	contact, err := s.contacts.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, asNotFound(err)
	}

	s.cache.SetJSON(ctx, s.cacheKey(ownerID, id), contact, contactCacheTTL)
	return contact, nil
}

// Create adds a contact for the caller. Fields are trimmed and the email
// lowercased before any check, so the core never persists unnormalized data.
func (s *contactService) Create(ctx context.Context, ownerID string, in ContactInput) (*model.Contact, error) {
	in = in.normalize()

	exists, err := s.contacts.EmailExists(ctx, ownerID, in.Email, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrDuplicateEmail
	}

	contact := &model.Contact{
		OwnerID:     ownerID,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		BirthDate:   in.BirthDate,
		Address:     in.Address,
		Notes:       in.Notes,
		CreatedAt:   s.now(),
	}
	contact.MarkActive()

	// The unique index closes the race two concurrent creates leave open.
	if err := s.contacts.Create(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// Update mutates a contact located through the same ownership-checked lookup
// as GetByID. The owner id is immutable and never taken from input.
func (s *contactService) Update(ctx context.Context, ownerID string, id uint, in ContactInput) (*model.Contact, error) {
	contact, err := s.contacts.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, asNotFound(err)
	}

	in = in.normalize()

	exists, err := s.contacts.EmailExists(ctx, ownerID, in.Email, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrDuplicateEmail
	}

	now := s.now()
	contact.FirstName = in.FirstName
	contact.LastName = in.LastName
	contact.Email = in.Email
	contact.PhoneNumber = in.PhoneNumber
	contact.BirthDate = in.BirthDate
	contact.Address = in.Address
	contact.Notes = in.Notes
	contact.UpdatedAt = &now

	if err := s.contacts.Update(ctx, contact); err != nil {
		return nil, err
	}

	_ = s.cache.Delete(ctx, s.cacheKey(ownerID, id))
	return contact, nil
}

// Delete soft-deletes a contact: the row is flagged and retained, never
// removed.
func (s *contactService) Delete(ctx context.Context, ownerID string, id uint) error {
	contact, err := s.contacts.FindByID(ctx, ownerID, id)
	if err != nil {
		return asNotFound(err)
	}

	contact.MarkDeleted(s.now())
	if err := s.contacts.Update(ctx, contact); err != nil {
		return err
	}

	_ = s.cache.Delete(ctx, s.cacheKey(ownerID, id))
	return nil
}

// Restore reactivates a soft-deleted contact under the same ownership check,
// unless a live contact has since claimed its email.
func (s *contactService) Restore(ctx context.Context, ownerID string, id uint) (*model.Contact, error) {
	contact, err := s.contacts.FindDeletedByID(ctx, ownerID, id)
	if err != nil {
		return nil, asNotFound(err)
	}

	exists, err := s.contacts.EmailExists(ctx, ownerID, contact.Email, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrDuplicateEmail
	}

	now := s.now()
	contact.MarkActive()
	contact.UpdatedAt = &now

	if err := s.contacts.Update(ctx, contact); err != nil {
		return nil, err
	}

	_ = s.cache.Delete(ctx, s.cacheKey(ownerID, id))
	return contact, nil
}

func (in ContactInput) normalize() ContactInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Address = strings.TrimSpace(in.Address)
	in.Notes = strings.TrimSpace(in.Notes)
	return in
}

// asNotFound collapses a record miss into the domain not-found error while
// letting transient storage failures keep their identity.
func asNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrContactNotFound
	}
	return err
}
