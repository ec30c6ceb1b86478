package repository

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	apperrors "contactvault/internal/errors"
	"contactvault/internal/model"
)

const mysqlDuplicateEntry = 1062

// ContactRepository defines persistence operations for contacts. Every
// method takes the owner id and repeats the ownership and soft-delete
// predicates explicitly; there is no implicit global filter to bypass.
type ContactRepository interface {
	Create(ctx context.Context, contact *model.Contact) error
	Update(ctx context.Context, contact *model.Contact) error
	FindByID(ctx context.Context, ownerID string, id uint) (*model.Contact, error)
	FindDeletedByID(ctx context.Context, ownerID string, id uint) (*model.Contact, error)
	ListActive(ctx context.Context, ownerID string) ([]model.Contact, error)
	ListDeleted(ctx context.Context, ownerID string) ([]model.Contact, error)
	EmailExists(ctx context.Context, ownerID, email string, excludeID uint) (bool, error)
}

type contactRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewContactRepository creates a new contact repository. Every operation
// runs under the given timeout; deadline overruns surface as a retryable
// storage error, never as not-found.
func NewContactRepository(db *gorm.DB, timeout time.Duration) ContactRepository {
	return &contactRepository{db: db, timeout: timeout}
}

// Create inserts a new contact. The (owner_id, email, active) unique index
// is the authority on per-owner email uniqueness; violations come back as
// ErrDuplicateEmail even when two creates race.
func (r *contactRepository) Create(ctx context.Context, contact *model.Contact) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return mapStorageError(r.db.WithContext(ctx).Create(contact).Error)
}

// Update persists all fields of an already-loaded contact.
func (r *contactRepository) Update(ctx context.Context, contact *model.Contact) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return mapStorageError(r.db.WithContext(ctx).Save(contact).Error)
}

// FindByID returns a live contact owned by ownerID. A missing row and a row
// owned by someone else produce the same gorm.ErrRecordNotFound.
func (r *contactRepository) FindByID(ctx context.Context, ownerID string, id uint) (*model.Contact, error) {
	return r.findByID(ctx, ownerID, id, false)
}

// FindDeletedByID returns a soft-deleted contact owned by ownerID.
func (r *contactRepository) FindDeletedByID(ctx context.Context, ownerID string, id uint) (*model.Contact, error) {
	return r.findByID(ctx, ownerID, id, true)
}

func (r *contactRepository) findByID(ctx context.Context, ownerID string, id uint, deleted bool) (*model.Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var contact model.Contact
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ? AND is_deleted = ?", id, ownerID, deleted).
		First(&contact).Error
	if err != nil {
		return nil, mapStorageError(err)
	}
	return &contact, nil
}

// ListActive returns all live contacts for one owner: the candidate set the
// listing engine filters, sorts, and paginates.
func (r *contactRepository) ListActive(ctx context.Context, ownerID string) ([]model.Contact, error) {
	return r.list(ctx, ownerID, false)
}

// ListDeleted returns soft-deleted contacts for one owner.
func (r *contactRepository) ListDeleted(ctx context.Context, ownerID string) ([]model.Contact, error) {
	return r.list(ctx, ownerID, true)
}

func (r *contactRepository) list(ctx context.Context, ownerID string, deleted bool) ([]model.Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var contacts []model.Contact
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_deleted = ?", ownerID, deleted).
		Find(&contacts).Error
	if err != nil {
		return nil, mapStorageError(err)
	}
	return contacts, nil
}

// EmailExists reports whether a live contact with the given normalized email
// already exists for the owner. excludeID lets updates skip the row being
// edited; pass 0 on create.
func (r *contactRepository) EmailExists(ctx context.Context, ownerID, email string, excludeID uint) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var count int64
	q := r.db.WithContext(ctx).Model(&model.Contact{}).
		Where("owner_id = ? AND email = ? AND is_deleted = ?", ownerID, email, false)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, mapStorageError(err)
	}
	return count > 0, nil
}

// mapStorageError translates driver-level failures into the domain taxonomy:
// deadline overruns become the retryable timeout error and duplicate-key
// violations become ErrDuplicateEmail. Everything else passes through.
func mapStorageError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.ErrStorageTimeout
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return apperrors.ErrDuplicateEmail
	}
	return err
}
