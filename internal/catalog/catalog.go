// Package catalog stores document metadata and user accounts for the
// development backend. File contents live in the storage package.
package catalog

import (
	"context"
	"errors"
	"time"

	"docvault/internal/model"
)

var (
	ErrNotFound  = errors.New("catalog: not found")
	ErrDuplicate = errors.New("catalog: already exists")
)

// Entry is a stored document row.
type Entry struct {
	ID         string
	OwnerID    string
	FileName   string
	FileType   string
	Category   model.Category
	FileSize   int64
	StorageKey string
	Tags       []string
	UploadDate time.Time
}

// Document returns the client-facing view of the entry.
func (e Entry) Document() model.Document {
	size := e.FileSize
	uploaded := e.UploadDate
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return model.Document{
		ID:         e.ID,
		FileName:   e.FileName,
		FileType:   e.FileType,
		Category:   e.Category,
		FileSize:   &size,
		UploadDate: &uploaded,
		Tags:       append([]string(nil), tags...),
	}
}

// ListQuery filters List. Zero fields match everything.
type ListQuery struct {
	OwnerID  string
	Category model.Category
}

// User is a registered account.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Documents persists document entries. List returns newest uploads first.
type Documents interface {
	// Create assigns the ID and returns the stored entry.
	Create(ctx context.Context, e *Entry) (*Entry, error)
	FindByID(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, q ListQuery) ([]Entry, error)
	Update(ctx context.Context, e *Entry) (*Entry, error)
	// Delete does not fail when the entry is already gone.
	Delete(ctx context.Context, id string) error
}

// Users persists accounts. Emails are unique.
type Users interface {
	CreateUser(ctx context.Context, u *User) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
}

// Catalog is the full metadata store.
type Catalog interface {
	Documents
	Users
}
