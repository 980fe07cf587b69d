package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"docvault/internal/catalog"
	catMocks "docvault/internal/catalog/mocks"
	"docvault/internal/model"
	"docvault/internal/storage"
	storeMocks "docvault/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func keyFromPut(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
	return storage.ObjectInfo{Key: key, Size: opt.Size, ContentType: opt.ContentType}
}

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		in         func() UploadInput
		setupMocks func(mStore *storeMocks.MockStorage, mCat *catMocks.MockCatalog)
		wantErr    error
		wantErrMsg string
		check      func(t *testing.T, e *catalog.Entry)
	}{
		{
			name: "happy path",
			in: func() UploadInput {
				return UploadInput{
					File:     FileInput{Reader: strings.NewReader("hello world"), OriginalFilename: "Scan.PDF", ContentType: "application/pdf", Size: 11},
					FileName: "Lease",
					Category: "legal",
				}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mCat *catMocks.MockCatalog) {
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "documents/") && strings.HasSuffix(key, ".pdf")
				}), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
					return opt.Size == 11 && opt.ContentType == "application/pdf" && opt.Metadata["original-filename"] == "Scan.PDF"
				})).Return(keyFromPut, nil)

				mCat.On("Create", ctx, mock.MatchedBy(func(e *catalog.Entry) bool {
					return e.OwnerID == "u1" && e.FileName == "Lease" && e.Category == model.CategoryLegal &&
						e.FileSize == 11 && e.Tags != nil && !e.UploadDate.IsZero()
				})).Return(&catalog.Entry{ID: "1", FileName: "Lease"}, nil)
			},
			check: func(t *testing.T, e *catalog.Entry) {
				assert.Equal(t, "1", e.ID)
			},
		},
		{
			name: "name defaults to original file name",
			in: func() UploadInput {
				return UploadInput{File: FileInput{Reader: strings.NewReader("x"), OriginalFilename: "photo.png", ContentType: "image/png", Size: 1}}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mCat *catMocks.MockCatalog) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(keyFromPut, nil)
				mCat.On("Create", ctx, mock.MatchedBy(func(e *catalog.Entry) bool {
					return e.FileName == "photo.png" && e.Category == model.CategoryPersonal
				})).Return(&catalog.Entry{ID: "2"}, nil)
			},
		},
		{
			name: "validation error - nil reader",
			in: func() UploadInput {
				return UploadInput{File: FileInput{OriginalFilename: "test.txt", Size: 1}}
			},
			wantErr: ErrReaderNil,
		},
		{
			name: "validation error - empty file",
			in: func() UploadInput {
				return UploadInput{File: FileInput{Reader: strings.NewReader(""), OriginalFilename: "test.txt"}}
			},
			wantErr: ErrEmptyFile,
		},
		{
			name: "validation error - no name",
			in: func() UploadInput {
				return UploadInput{File: FileInput{Reader: strings.NewReader("x"), Size: 1}}
			},
			wantErr: ErrNameRequired,
		},
		{
			name: "validation error - unknown category",
			in: func() UploadInput {
				return UploadInput{File: FileInput{Reader: strings.NewReader("x"), OriginalFilename: "a.pdf", Size: 1}, Category: "Secret"}
			},
			wantErr: ErrInvalidCategory,
		},
		{
			name: "storage error",
			in: func() UploadInput {
				return UploadInput{File: FileInput{Reader: strings.NewReader("hello"), OriginalFilename: "test.txt", Size: 5}}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mCat *catMocks.MockCatalog) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
			},
			wantErrMsg: "upload to storage: storage fail",
		},
		{
			name: "catalog error with successful rollback",
			in: func() UploadInput {
				return UploadInput{File: FileInput{Reader: strings.NewReader("hello"), OriginalFilename: "test.txt", Size: 5}}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mCat *catMocks.MockCatalog) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(keyFromPut, nil)
				mCat.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(nil)
			},
			wantErrMsg: "db save failed: db fail",
		},
		{
			name: "catalog error with failed rollback",
			in: func() UploadInput {
				return UploadInput{File: FileInput{Reader: strings.NewReader("hello"), OriginalFilename: "test.txt", Size: 5}}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mCat *catMocks.MockCatalog) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(keyFromPut, nil)
				mCat.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(errors.New("delete fail"))
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mCat := new(catMocks.MockCatalog)
			svc := NewDocumentService(mStore, mCat, nil)

			if tt.setupMocks != nil {
				tt.setupMocks(mStore, mCat)
			}

			e, err := svc.Upload(ctx, "u1", tt.in())

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrMsg != "":
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			default:
				require.NoError(t, err)
				require.NotNil(t, e)
				if tt.check != nil {
					tt.check(t, e)
				}
			}

			mStore.AssertExpectations(t)
			mCat.AssertExpectations(t)
		})
	}
}

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		category   string
		setupMocks func(mCat *catMocks.MockCatalog)
		wantErr    error
		wantLen    int
	}{
		{
			name: "all documents of the owner",
			setupMocks: func(mCat *catMocks.MockCatalog) {
				mCat.On("List", ctx, catalog.ListQuery{OwnerID: "u1"}).
					Return([]catalog.Entry{{ID: "1"}, {ID: "2"}}, nil)
			},
			wantLen: 2,
		},
		{
			name:     "by category",
			category: "FINANCIAL",
			setupMocks: func(mCat *catMocks.MockCatalog) {
				mCat.On("List", ctx, catalog.ListQuery{OwnerID: "u1", Category: model.CategoryFinancial}).
					Return([]catalog.Entry{{ID: "1"}}, nil)
			},
			wantLen: 1,
		},
		{
			name:       "unknown category",
			category:   "Secret",
			setupMocks: func(mCat *catMocks.MockCatalog) {},
			wantErr:    ErrInvalidCategory,
		},
		{
			name: "catalog error",
			setupMocks: func(mCat *catMocks.MockCatalog) {
				mCat.On("List", ctx, mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErr: errors.New("db fail"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mCat := new(catMocks.MockCatalog)
			svc := NewDocumentService(nil, mCat, nil)

			tt.setupMocks(mCat)

			res, err := svc.List(ctx, "u1", tt.category)

			if tt.wantErr != nil {
				assert.Error(t, err)
				if errors.Is(tt.wantErr, ErrInvalidCategory) {
					assert.ErrorIs(t, err, ErrInvalidCategory)
				}
			} else {
				assert.NoError(t, err)
				assert.Len(t, res, tt.wantLen)
			}
			mCat.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mCat *catMocks.MockCatalog)
		wantErr    error
	}{
		{
			name: "happy path",
			id:   "1",
			setupMocks: func(mCat *catMocks.MockCatalog) {
				mCat.On("FindByID", ctx, "1").Return(&catalog.Entry{ID: "1", OwnerID: "u1"}, nil)
			},
		},
		{
			name:       "validation - empty id",
			id:         "",
			setupMocks: func(mCat *catMocks.MockCatalog) {},
			wantErr:    ErrIDRequired,
		},
		{
			name: "not found",
			id:   "2",
			setupMocks: func(mCat *catMocks.MockCatalog) {
				mCat.On("FindByID", ctx, "2").Return(nil, catalog.ErrNotFound)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "owned by someone else",
			id:   "3",
			setupMocks: func(mCat *catMocks.MockCatalog) {
				mCat.On("FindByID", ctx, "3").Return(&catalog.Entry{ID: "3", OwnerID: "u2"}, nil)
			},
			wantErr: ErrForbidden,
		},
		{
			name: "generic catalog error",
			id:   "4",
			setupMocks: func(mCat *catMocks.MockCatalog) {
				mCat.On("FindByID", ctx, "4").Return(nil, errors.New("db fail"))
			},
			wantErr: errors.New("db fail"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mCat := new(catMocks.MockCatalog)
			svc := NewDocumentService(nil, mCat, nil)

			tt.setupMocks(mCat)

			e, err := svc.Get(ctx, "u1", tt.id)

			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, ErrIDRequired) || errors.Is(tt.wantErr, ErrNotFound) || errors.Is(tt.wantErr, ErrForbidden) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.Error(t, err)
				}
				assert.Nil(t, e)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, e)
				assert.Equal(t, tt.id, e.ID)
			}
			mCat.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Update(t *testing.T) {
	ctx := context.Background()

	existing := func() *catalog.Entry {
		return &catalog.Entry{ID: "1", OwnerID: "u1", FileName: "a.pdf", FileType: "application/pdf", Category: model.CategoryOther, FileSize: 3, StorageKey: "documents/old.pdf"}
	}

	t.Run("metadata only", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mCat := new(catMocks.MockCatalog)
		svc := NewDocumentService(mStore, mCat, nil)

		mCat.On("FindByID", ctx, "1").Return(existing(), nil)
		mCat.On("Update", ctx, mock.MatchedBy(func(e *catalog.Entry) bool {
			return e.FileName == "b.pdf" && e.Category == model.CategoryMedical && e.StorageKey == "documents/old.pdf"
		})).Return(&catalog.Entry{ID: "1", FileName: "b.pdf"}, nil)

		out, err := svc.Update(ctx, "u1", "1", UpdateInput{FileName: "b.pdf", Category: "Medical"})
		require.NoError(t, err)
		assert.Equal(t, "b.pdf", out.FileName)
		mStore.AssertExpectations(t)
		mCat.AssertExpectations(t)
	})

	t.Run("replace file removes old object", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mCat := new(catMocks.MockCatalog)
		svc := NewDocumentService(mStore, mCat, nil)

		mCat.On("FindByID", ctx, "1").Return(existing(), nil)
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(keyFromPut, nil)
		mCat.On("Update", ctx, mock.MatchedBy(func(e *catalog.Entry) bool {
			return e.StorageKey != "documents/old.pdf" && e.FileType == "image/png" && e.FileSize == 4
		})).Return(&catalog.Entry{ID: "1"}, nil)
		mStore.On("Delete", ctx, "documents/old.pdf").Return(nil)

		_, err := svc.Update(ctx, "u1", "1", UpdateInput{
			File: &FileInput{Reader: strings.NewReader("png!"), OriginalFilename: "b.png", ContentType: "image/png", Size: 4},
		})
		require.NoError(t, err)
		mStore.AssertExpectations(t)
		mCat.AssertExpectations(t)
	})

	t.Run("catalog failure removes new object", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mCat := new(catMocks.MockCatalog)
		svc := NewDocumentService(mStore, mCat, nil)

		var newKey string
		mCat.On("FindByID", ctx, "1").Return(existing(), nil)
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { newKey = args.String(1) }).
			Return(keyFromPut, nil)
		mCat.On("Update", ctx, mock.Anything).Return(nil, errors.New("db fail"))
		mStore.On("Delete", ctx, mock.MatchedBy(func(key string) bool { return key == newKey })).Return(nil)

		_, err := svc.Update(ctx, "u1", "1", UpdateInput{
			File: &FileInput{Reader: strings.NewReader("x"), OriginalFilename: "b.pdf", Size: 1},
		})
		assert.ErrorContains(t, err, "db update failed")
		mStore.AssertExpectations(t)
	})

	t.Run("forbidden", func(t *testing.T) {
		mCat := new(catMocks.MockCatalog)
		svc := NewDocumentService(nil, mCat, nil)
		mCat.On("FindByID", ctx, "1").Return(existing(), nil)

		_, err := svc.Update(ctx, "u2", "1", UpdateInput{FileName: "x"})
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mStore *storeMocks.MockStorage, mCat *catMocks.MockCatalog)
		wantErr    error
	}{
		{
			name: "happy path",
			id:   "1",
			setupMocks: func(mStore *storeMocks.MockStorage, mCat *catMocks.MockCatalog) {
				mCat.On("FindByID", ctx, "1").Return(&catalog.Entry{ID: "1", OwnerID: "u1", StorageKey: "path/to/obj"}, nil)
				mStore.On("Delete", ctx, "path/to/obj").Return(nil)
				mCat.On("Delete", ctx, "1").Return(nil)
			},
		},
		{
			name:       "validation - empty id",
			id:         "",
			setupMocks: func(mStore *storeMocks.MockStorage, mCat *catMocks.MockCatalog) {},
			wantErr:    ErrIDRequired,
		},
		{
			name: "not found",
			id:   "2",
			setupMocks: func(mStore *storeMocks.MockStorage, mCat *catMocks.MockCatalog) {
				mCat.On("FindByID", ctx, "2").Return(nil, catalog.ErrNotFound)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "forbidden",
			id:   "3",
			setupMocks: func(mStore *storeMocks.MockStorage, mCat *catMocks.MockCatalog) {
				mCat.On("FindByID", ctx, "3").Return(&catalog.Entry{ID: "3", OwnerID: "u2"}, nil)
			},
			wantErr: ErrForbidden,
		},
		{
			name: "storage delete error",
			id:   "4",
			setupMocks: func(mStore *storeMocks.MockStorage, mCat *catMocks.MockCatalog) {
				mCat.On("FindByID", ctx, "4").Return(&catalog.Entry{ID: "4", OwnerID: "u1", StorageKey: "path"}, nil)
				mStore.On("Delete", ctx, "path").Return(errors.New("storage fail"))
			},
			wantErr: errors.New("delete storage: storage fail"),
		},
		{
			name: "catalog delete error",
			id:   "5",
			setupMocks: func(mStore *storeMocks.MockStorage, mCat *catMocks.MockCatalog) {
				mCat.On("FindByID", ctx, "5").Return(&catalog.Entry{ID: "5", OwnerID: "u1", StorageKey: "path"}, nil)
				mStore.On("Delete", ctx, "path").Return(nil)
				mCat.On("Delete", ctx, "5").Return(errors.New("db fail"))
			},
			wantErr: errors.New("db fail"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mCat := new(catMocks.MockCatalog)
			svc := NewDocumentService(mStore, mCat, nil)

			tt.setupMocks(mStore, mCat)

			err := svc.Delete(ctx, "u1", tt.id)

			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, ErrIDRequired) || errors.Is(tt.wantErr, ErrNotFound) || errors.Is(tt.wantErr, ErrForbidden) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.Error(t, err)
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
			} else {
				assert.NoError(t, err)
			}
			mStore.AssertExpectations(t)
			mCat.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Download(t *testing.T) {
	ctx := context.Background()
	entry := &catalog.Entry{ID: "1", OwnerID: "u1", FileName: "a.pdf", StorageKey: "k"}

	t.Run("opens content", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mCat := new(catMocks.MockCatalog)
		mCat.On("FindByID", ctx, "1").Return(entry, nil)
		mStore.On("Get", ctx, "k").Return(io.NopCloser(strings.NewReader("%PDF")), storage.ObjectInfo{}, nil)

		rc, e, err := NewDocumentService(mStore, mCat, nil).Download(ctx, "u1", "1")
		require.NoError(t, err)
		defer rc.Close()
		data, _ := io.ReadAll(rc)
		assert.Equal(t, "%PDF", string(data))
		assert.Equal(t, "a.pdf", e.FileName)
	})

	t.Run("missing object", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mCat := new(catMocks.MockCatalog)
		mCat.On("FindByID", ctx, "1").Return(entry, nil)
		mStore.On("Get", ctx, "k").Return(nil, storage.ObjectInfo{}, storage.ErrObjectNotFound)

		_, _, err := NewDocumentService(mStore, mCat, nil).Download(ctx, "u1", "1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("forbidden", func(t *testing.T) {
		mCat := new(catMocks.MockCatalog)
		mCat.On("FindByID", ctx, "1").Return(entry, nil)

		_, _, err := NewDocumentService(nil, mCat, nil).Download(ctx, "u2", "1")
		assert.ErrorIs(t, err, ErrForbidden)
	})
}
