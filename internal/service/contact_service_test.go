package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "contactvault/internal/errors"
	"contactvault/internal/model"
	"contactvault/internal/query"
)

// fakeContactRepo is an in-memory ContactRepository that enforces the same
// ownership scoping and uniqueness rules as the real schema, so the service
// tests exercise the production isolation logic end to end.
type fakeContactRepo struct {
	nextID   uint
	contacts map[uint]model.Contact
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{nextID: 1, contacts: make(map[uint]model.Contact)}
}

func (f *fakeContactRepo) Create(ctx context.Context, contact *model.Contact) error {
	// Mirrors the (owner_id, email, active) unique index.
	for _, existing := range f.contacts {
		if existing.OwnerID == contact.OwnerID && existing.Email == contact.Email && !existing.IsDeleted {
			return apperrors.ErrDuplicateEmail
		}
	}
	contact.ID = f.nextID
	f.nextID++
	f.contacts[contact.ID] = *contact
	return nil
}

func (f *fakeContactRepo) Update(ctx context.Context, contact *model.Contact) error {
	if _, ok := f.contacts[contact.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.contacts[contact.ID] = *contact
	return nil
}

func (f *fakeContactRepo) FindByID(ctx context.Context, ownerID string, id uint) (*model.Contact, error) {
	return f.find(ownerID, id, false)
}

func (f *fakeContactRepo) FindDeletedByID(ctx context.Context, ownerID string, id uint) (*model.Contact, error) {
	return f.find(ownerID, id, true)
}

func (f *fakeContactRepo) find(ownerID string, id uint, deleted bool) (*model.Contact, error) {
	c, ok := f.contacts[id]
	if !ok || c.OwnerID != ownerID || c.IsDeleted != deleted {
		return nil, gorm.ErrRecordNotFound
	}
	copied := c
	return &copied, nil
}

func (f *fakeContactRepo) ListActive(ctx context.Context, ownerID string) ([]model.Contact, error) {
	return f.list(ownerID, false), nil
}

func (f *fakeContactRepo) ListDeleted(ctx context.Context, ownerID string) ([]model.Contact, error) {
	return f.list(ownerID, true), nil
}

func (f *fakeContactRepo) list(ownerID string, deleted bool) []model.Contact {
	var out []model.Contact
	for _, c := range f.contacts {
		if c.OwnerID == ownerID && c.IsDeleted == deleted {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeContactRepo) EmailExists(ctx context.Context, ownerID, email string, excludeID uint) (bool, error) {
	for _, c := range f.contacts {
		if c.OwnerID == ownerID && c.Email == email && !c.IsDeleted && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// fakeContactCache is an in-memory ContactCache with no TTL handling; the
// invalidation tests only care about presence.
type fakeContactCache struct {
	entries map[string][]byte
}

func newFakeContactCache() *fakeContactCache {
	return &fakeContactCache{entries: make(map[string][]byte)}
}

func (f *fakeContactCache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	data, ok := f.entries[key]
	if !ok {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (f *fakeContactCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if payload, err := json.Marshal(value); err == nil {
		f.entries[key] = payload
	}
}

func (f *fakeContactCache) Delete(ctx context.Context, key string) error {
	delete(f.entries, key)
	return nil
}

var fixedNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestContactService() (ContactService, *fakeContactRepo) {
	repo := newFakeContactRepo()
	svc := NewContactService(repo, nil, func() time.Time { return fixedNow })
	return svc, repo
}

func mustCreate(t *testing.T, svc ContactService, ownerID string, in ContactInput) *model.Contact {
	t.Helper()
	contact, err := svc.Create(context.Background(), ownerID, in)
	require.NoError(t, err)
	return contact
}

func contactInput(first, last string) ContactInput {
	return ContactInput{
		FirstName: first,
		LastName:  last,
		Email:     fmt.Sprintf("%s.%s@example.com", strings.ToLower(first), strings.ToLower(last)),
	}
}

func TestContactService_CreateNormalizes(t *testing.T) {
	svc, _ := newTestContactService()

	contact := mustCreate(t, svc, "owner-a", ContactInput{
		FirstName:   "  John ",
		LastName:    " Doe ",
		Email:       "  John.Doe@Example.COM ",
		PhoneNumber: " +1-555-0100 ",
		Address:     "  1 Main St ",
		Notes:       " note ",
	})

	assert.Equal(t, "John", contact.FirstName)
	assert.Equal(t, "Doe", contact.LastName)
	assert.Equal(t, "john.doe@example.com", contact.Email)
	assert.Equal(t, "+1-555-0100", contact.PhoneNumber)
	assert.Equal(t, "1 Main St", contact.Address)
	assert.Equal(t, "note", contact.Notes)
	assert.Equal(t, fixedNow, contact.CreatedAt)
	assert.False(t, contact.IsDeleted)
	assert.Nil(t, contact.DeletedAt)
}

func TestContactService_CreateDuplicateEmail(t *testing.T) {
	svc, _ := newTestContactService()
	mustCreate(t, svc, "owner-a", contactInput("John", "Doe"))

	_, err := svc.Create(context.Background(), "owner-a", ContactInput{
		FirstName: "Jon",
		LastName:  "Dough",
		Email:     "JOHN.DOE@example.com", // same email, different case
	})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateEmail)

	// A different owner may use the same email.
	_, err = svc.Create(context.Background(), "owner-b", contactInput("John", "Doe"))
	assert.NoError(t, err)
}

func TestContactService_TenantIsolation(t *testing.T) {
	svc, _ := newTestContactService()
	contact := mustCreate(t, svc, "owner-a", contactInput("John", "Doe"))

	ctx := context.Background()

	_, err := svc.GetByID(ctx, "owner-b", contact.ID)
	assert.ErrorIs(t, err, apperrors.ErrContactNotFound)

	_, err = svc.Update(ctx, "owner-b", contact.ID, contactInput("Hij", "Acked"))
	assert.ErrorIs(t, err, apperrors.ErrContactNotFound)

	err = svc.Delete(ctx, "owner-b", contact.ID)
	assert.ErrorIs(t, err, apperrors.ErrContactNotFound)

	// The foreign-owner outcome equals the missing-id outcome: no existence
	// leakage across tenants.
	_, missingErr := svc.GetByID(ctx, "owner-b", 9999)
	_, foreignErr := svc.GetByID(ctx, "owner-b", contact.ID)
	assert.Equal(t, missingErr, foreignErr)

	// The owner still sees the untouched contact.
	got, err := svc.GetByID(ctx, "owner-a", contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "John", got.FirstName)
}

func TestContactService_Update(t *testing.T) {
	svc, _ := newTestContactService()
	contact := mustCreate(t, svc, "owner-a", contactInput("John", "Doe"))
	require.Nil(t, contact.UpdatedAt)

	updated, err := svc.Update(context.Background(), "owner-a", contact.ID, ContactInput{
		FirstName: "  Johnny ",
		LastName:  "Doe",
		Email:     "Johnny.Doe@Example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "Johnny", updated.FirstName)
	assert.Equal(t, "johnny.doe@example.com", updated.Email)
	assert.Equal(t, "owner-a", updated.OwnerID, "owner never changes")
	require.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, fixedNow, *updated.UpdatedAt)
}

func TestContactService_UpdateKeepingOwnEmail(t *testing.T) {
	svc, _ := newTestContactService()
	contact := mustCreate(t, svc, "owner-a", contactInput("John", "Doe"))

	// Re-submitting the contact's own email is not a duplicate.
	_, err := svc.Update(context.Background(), "owner-a", contact.ID, ContactInput{
		FirstName: "John",
		LastName:  "Doe",
		Email:     contact.Email,
	})
	assert.NoError(t, err)
}

func TestContactService_UpdateDuplicateEmail(t *testing.T) {
	svc, _ := newTestContactService()
	mustCreate(t, svc, "owner-a", contactInput("John", "Doe"))
	other := mustCreate(t, svc, "owner-a", contactInput("Jane", "Smith"))

	_, err := svc.Update(context.Background(), "owner-a", other.ID, ContactInput{
		FirstName: "Jane",
		LastName:  "Smith",
		Email:     "john.doe@example.com",
	})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
}

func TestContactService_SoftDeleteLifecycle(t *testing.T) {
	svc, _ := newTestContactService()
	ctx := context.Background()
	contact := mustCreate(t, svc, "owner-a", contactInput("John", "Doe"))

	require.NoError(t, svc.Delete(ctx, "owner-a", contact.ID))

	// Gone from the live views.
	_, err := svc.GetByID(ctx, "owner-a", contact.ID)
	assert.ErrorIs(t, err, apperrors.ErrContactNotFound)
	page, err := svc.List(ctx, "owner-a", query.Params{})
	require.NoError(t, err)
	assert.Zero(t, page.TotalCount)

	// Retained on the explicit include-deleted path.
	deleted, err := svc.ListDeleted(ctx, "owner-a")
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.True(t, deleted[0].IsDeleted)
	require.NotNil(t, deleted[0].DeletedAt)
	assert.Equal(t, fixedNow, *deleted[0].DeletedAt)

	// Deleting again is not found: the live lookup no longer matches.
	assert.ErrorIs(t, svc.Delete(ctx, "owner-a", contact.ID), apperrors.ErrContactNotFound)

	// The email is free again for a new live contact.
	_, err = svc.Create(ctx, "owner-a", contactInput("John", "Doe"))
	assert.NoError(t, err)
}

func TestContactService_Restore(t *testing.T) {
	svc, _ := newTestContactService()
	ctx := context.Background()
	contact := mustCreate(t, svc, "owner-a", contactInput("John", "Doe"))
	require.NoError(t, svc.Delete(ctx, "owner-a", contact.ID))

	restored, err := svc.Restore(ctx, "owner-a", contact.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
	assert.Nil(t, restored.DeletedAt)

	got, err := svc.GetByID(ctx, "owner-a", contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "John", got.FirstName)
}

func TestContactService_RestoreBlockedByLiveDuplicate(t *testing.T) {
	svc, _ := newTestContactService()
	ctx := context.Background()
	contact := mustCreate(t, svc, "owner-a", contactInput("John", "Doe"))
	require.NoError(t, svc.Delete(ctx, "owner-a", contact.ID))

	// A live contact claims the email while the original sits deleted.
	mustCreate(t, svc, "owner-a", contactInput("John", "Doe"))

	_, err := svc.Restore(ctx, "owner-a", contact.ID)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
}

func TestContactService_RestoreNotFoundForLiveContact(t *testing.T) {
	svc, _ := newTestContactService()
	contact := mustCreate(t, svc, "owner-a", contactInput("John", "Doe"))

	_, err := svc.Restore(context.Background(), "owner-a", contact.ID)
	assert.ErrorIs(t, err, apperrors.ErrContactNotFound)
}

func TestContactService_GetByIDReadsThroughCache(t *testing.T) {
	repo := newFakeContactRepo()
	cached := newFakeContactCache()
	svc := NewContactService(repo, cached, func() time.Time { return fixedNow })
	ctx := context.Background()

	contact := mustCreate(t, svc, "owner-a", contactInput("John", "Doe"))

	// First read populates the cache.
	_, err := svc.GetByID(ctx, "owner-a", contact.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, cached.entries)

	// Mutate storage behind the service's back: the next read must come from
	// the cache.
	stored := repo.contacts[contact.ID]
	stored.FirstName = "Changed"
	repo.contacts[contact.ID] = stored

	got, err := svc.GetByID(ctx, "owner-a", contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "John", got.FirstName)
}

func TestContactService_UpdateInvalidatesCache(t *testing.T) {
	repo := newFakeContactRepo()
	cached := newFakeContactCache()
	svc := NewContactService(repo, cached, func() time.Time { return fixedNow })
	ctx := context.Background()

	contact := mustCreate(t, svc, "owner-a", contactInput("John", "Doe"))
	_, err := svc.GetByID(ctx, "owner-a", contact.ID)
	require.NoError(t, err)

	_, err = svc.Update(ctx, "owner-a", contact.ID, ContactInput{
		FirstName: "Johnny",
		LastName:  "Doe",
		Email:     contact.Email,
	})
	require.NoError(t, err)

	// The stale pre-update entry is gone; the read reflects the mutation.
	got, err := svc.GetByID(ctx, "owner-a", contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "Johnny", got.FirstName)
}

func TestContactService_DeleteInvalidatesCache(t *testing.T) {
	repo := newFakeContactRepo()
	cached := newFakeContactCache()
	svc := NewContactService(repo, cached, func() time.Time { return fixedNow })
	ctx := context.Background()

	contact := mustCreate(t, svc, "owner-a", contactInput("John", "Doe"))
	_, err := svc.GetByID(ctx, "owner-a", contact.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "owner-a", contact.ID))

	// A cached copy must not outlive the soft delete.
	_, err = svc.GetByID(ctx, "owner-a", contact.ID)
	assert.ErrorIs(t, err, apperrors.ErrContactNotFound)
	assert.Empty(t, cached.entries)
}

func TestContactService_RestoreInvalidatesCache(t *testing.T) {
	repo := newFakeContactRepo()
	cached := newFakeContactCache()
	svc := NewContactService(repo, cached, func() time.Time { return fixedNow })
	ctx := context.Background()

	contact := mustCreate(t, svc, "owner-a", contactInput("John", "Doe"))
	require.NoError(t, svc.Delete(ctx, "owner-a", contact.ID))

	_, err := svc.Restore(ctx, "owner-a", contact.ID)
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, "owner-a", contact.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDeleted)
}

func TestContactService_ListPagination(t *testing.T) {
	svc, _ := newTestContactService()
	ctx := context.Background()

	for i := 1; i <= 15; i++ {
		mustCreate(t, svc, "owner-a", ContactInput{
			FirstName: "First",
			LastName:  fmt.Sprintf("A%02d", i),
			Email:     fmt.Sprintf("a%02d@example.com", i),
		})
	}
	// Another owner's contacts never show up in the listing.
	mustCreate(t, svc, "owner-b", contactInput("Other", "Tenant"))

	page2, err := svc.List(ctx, "owner-a", query.Params{Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 15, page2.TotalCount)
	assert.Equal(t, 3, page2.TotalPages)
	require.Len(t, page2.Items, 5)
	assert.Equal(t, "A06", page2.Items[0].LastName)
	assert.Equal(t, "A10", page2.Items[4].LastName)
	assert.True(t, page2.HasNextPage)
	assert.True(t, page2.HasPreviousPage)
}

func TestContactService_ListSearch(t *testing.T) {
	svc, _ := newTestContactService()
	ctx := context.Background()

	mustCreate(t, svc, "owner-a", contactInput("John", "Doe"))
	mustCreate(t, svc, "owner-a", contactInput("Jane", "Smith"))
	mustCreate(t, svc, "owner-a", contactInput("Johnny", "Walker"))

	result, err := svc.List(ctx, "owner-a", query.Params{Search: "john"})
	require.NoError(t, err)
	require.Equal(t, 2, result.TotalCount)
	assert.Equal(t, "Doe", result.Items[0].LastName)
	assert.Equal(t, "Walker", result.Items[1].LastName)
}
