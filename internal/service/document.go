package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docvault/internal/catalog"
	"docvault/internal/logger"
	"docvault/internal/model"
	"docvault/internal/storage"
)

var (
	ErrIDRequired      = errors.New("id is required")
	ErrNotFound        = errors.New("document not found")
	ErrForbidden       = errors.New("access denied")
	ErrReaderNil       = errors.New("reader is nil")
	ErrEmptyFile       = errors.New("file cannot be empty")
	ErrNameRequired    = errors.New("file name is required")
	ErrInvalidCategory = errors.New("invalid category")
)

// FileInput is an uploaded file as received by the transport layer.
type FileInput struct {
	Reader           io.Reader
	OriginalFilename string
	ContentType      string
	Size             int64
}

// UploadInput describes a new document.
type UploadInput struct {
	File     FileInput
	FileName string
	Category string
	Tags     []string
}

// UpdateInput describes a partial update. Empty fields are left unchanged.
type UpdateInput struct {
	File     *FileInput
	FileName string
	Category string
}

// DocumentService defines the use cases for handling documents. Every call
// is scoped to the owner; another user's document yields ErrForbidden.
type DocumentService interface {
	// Upload stores the content, saves metadata, and rolls back storage if the metadata save fails.
	Upload(ctx context.Context, ownerID string, in UploadInput) (*catalog.Entry, error)
	// List returns the owner's documents, newest first. An empty category lists all.
	List(ctx context.Context, ownerID, category string) ([]catalog.Entry, error)
	Get(ctx context.Context, ownerID, id string) (*catalog.Entry, error)
	Update(ctx context.Context, ownerID, id string, in UpdateInput) (*catalog.Entry, error)
	// Delete removes a document from both storage and the catalog.
	Delete(ctx context.Context, ownerID, id string) error
	// Download opens the document content. The caller closes the reader.
	Download(ctx context.Context, ownerID, id string) (io.ReadCloser, *catalog.Entry, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store storage.Storage
	docs  catalog.Documents
	log   *zap.Logger
	now   func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, docs catalog.Documents, log *zap.Logger) DocumentService {
	return &documentService{
		store: store,
		docs:  docs,
		log:   logger.OrNop(log).Named("documents"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// storageKey builds a collision-free key; the original name only contributes its extension.
func storageKey(originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	return "documents/" + uuid.NewString() + ext
}

func parseCategory(raw string) (model.Category, error) {
	if strings.TrimSpace(raw) == "" {
		return model.DefaultCategory, nil
	}
	c := model.ParseCategory(raw)
	if c == model.CategoryOther && !strings.EqualFold(strings.TrimSpace(raw), string(model.CategoryOther)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, raw)
	}
	return c, nil
}

func (s *documentService) put(ctx context.Context, f FileInput) (storage.ObjectInfo, error) {
	if f.Reader == nil {
		return storage.ObjectInfo{}, ErrReaderNil
	}
	if f.Size == 0 {
		return storage.ObjectInfo{}, ErrEmptyFile
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	info, err := s.store.Put(ctx, storageKey(f.OriginalFilename), f.Reader, storage.PutObjectOptions{
		Size:        f.Size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": f.OriginalFilename,
		},
	})
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("upload to storage: %w", err)
	}
	return info, nil
}

// removeObject is best effort; a leftover object is logged, never surfaced.
func (s *documentService) removeObject(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.log.Warn("failed to delete object", zap.String("key", key), zap.Error(err))
	}
}

func (s *documentService) Upload(ctx context.Context, ownerID string, in UploadInput) (*catalog.Entry, error) {
	name := strings.TrimSpace(in.FileName)
	if name == "" {
		name = strings.TrimSpace(in.File.OriginalFilename)
	}
	if name == "" {
		return nil, ErrNameRequired
	}
	category, err := parseCategory(in.Category)
	if err != nil {
		return nil, err
	}

	objInfo, err := s.put(ctx, in.File)
	if err != nil {
		return nil, err
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	stored, err := s.docs.Create(ctx, &catalog.Entry{
		OwnerID:    ownerID,
		FileName:   name,
		FileType:   objInfo.ContentType,
		Category:   category,
		FileSize:   objInfo.Size,
		StorageKey: objInfo.Key,
		Tags:       tags,
		UploadDate: s.now(),
	})
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, objInfo.Key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	s.log.Info("document uploaded",
		zap.String("id", stored.ID),
		zap.String("owner_id", ownerID),
		zap.Int64("size", stored.FileSize),
	)
	return stored, nil
}

func (s *documentService) List(ctx context.Context, ownerID, category string) ([]catalog.Entry, error) {
	q := catalog.ListQuery{OwnerID: ownerID}
	if strings.TrimSpace(category) != "" {
		c, err := parseCategory(category)
		if err != nil {
			return nil, err
		}
		q.Category = c
	}
	return s.docs.List(ctx, q)
}

func (s *documentService) Get(ctx context.Context, ownerID, id string) (*catalog.Entry, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	e, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if e.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return e, nil
}

func (s *documentService) Update(ctx context.Context, ownerID, id string, in UpdateInput) (*catalog.Entry, error) {
	e, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.FileName); name != "" {
		e.FileName = name
	}
	if strings.TrimSpace(in.Category) != "" {
		c, err := parseCategory(in.Category)
		if err != nil {
			return nil, err
		}
		e.Category = c
	}

	var oldKey string
	if in.File != nil && in.File.Reader != nil && in.File.Size > 0 {
		objInfo, err := s.put(ctx, *in.File)
		if err != nil {
			return nil, err
		}
		oldKey = e.StorageKey
		e.StorageKey = objInfo.Key
		e.FileType = objInfo.ContentType
		e.FileSize = objInfo.Size
	}

	updated, err := s.docs.Update(ctx, e)
	if err != nil {
		if oldKey != "" {
			s.removeObject(ctx, e.StorageKey)
		}
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db update failed: %w", err)
	}
	if oldKey != "" {
		s.removeObject(ctx, oldKey)
	}
	return updated, nil
}

func (s *documentService) Delete(ctx context.Context, ownerID, id string) error {
	e, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	// Delete from storage first; if this fails, keep the row so the object is not orphaned
	if err := s.store.Delete(ctx, e.StorageKey); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.docs.Delete(ctx, id)
}

func (s *documentService) Download(ctx context.Context, ownerID, id string) (io.ReadCloser, *catalog.Entry, error) {
	e, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, e.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	return rc, e, nil
}
