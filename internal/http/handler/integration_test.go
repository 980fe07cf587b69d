package handler_test

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/apperror"
	"docvault/internal/catalog"
	"docvault/internal/download"
	"docvault/internal/http/handler"
	"docvault/internal/http/middleware"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/repository/httpapi"
	"docvault/internal/service"
	"docvault/internal/session"
	"docvault/internal/storage"
	"docvault/internal/store"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	cat := catalog.NewMemory()
	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler()})
	app.Use(middleware.RequestID())
	handler.RegisterRoutes(app, handler.Deps{
		Documents: service.NewDocumentService(storage.NewMemory(), cat, nil),
		Auth:      service.NewAuthService(cat, time.Hour, nil),
	})
	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, srv *httptest.Server) *httpapi.Client {
	t.Helper()
	c, err := httpapi.New(srv.URL+"/api", session.NewManager(), httpapi.WithRetry(1, time.Millisecond))
	require.NoError(t, err)
	return c
}

func signUp(t *testing.T, c *httpapi.Client, name string) {
	t.Helper()
	ctx := context.Background()
	email := name + "@example.com"
	require.NoError(t, c.Register(ctx, name, email, "secret1"))
	require.NoError(t, c.Login(ctx, email, "secret1"))
	require.True(t, c.Session().Authenticated())
}

func pdf(name, body string) *repository.File {
	return &repository.File{
		Name:        name,
		ContentType: "application/pdf",
		Size:        int64(len(body)),
		Content:     strings.NewReader(body),
	}
}

func TestVaultRoundTrip(t *testing.T) {
	ctx := context.Background()
	srv := newBackend(t)
	client := newClient(t, srv)
	dir := t.TempDir()
	st := store.New(client, store.WithSaver(download.Saver{Dir: dir}))

	_, err := client.Download(ctx, "1", "")
	assert.ErrorIs(t, err, apperror.ErrAuthenticationRequired)

	signUp(t, client, "ann")

	require.NoError(t, st.Refresh(ctx))
	assert.Empty(t, st.Records())

	first, err := st.Upload(ctx, repository.UploadInput{
		File:     pdf("scan.pdf", "%PDF-1.4 invoice"),
		FileName: "Invoice.pdf",
		Category: model.CategoryFinancial,
	})
	require.NoError(t, err)
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, model.CategoryFinancial, first.Category)
	require.NotNil(t, first.FileSize)
	assert.Equal(t, int64(16), *first.FileSize)

	second, err := st.Upload(ctx, repository.UploadInput{
		File:     pdf("photo.pdf", "%PDF-1.4 photo"),
		FileName: "Photo.pdf",
		Category: model.CategoryPersonal,
	})
	require.NoError(t, err)
	assert.Equal(t, second.ID, st.Records()[0].ID)

	require.NoError(t, st.Refresh(ctx))
	require.Len(t, st.Records(), 2)
	assert.Equal(t, []string{"2", "1"}, []string{st.Records()[0].ID, st.Records()[1].ID})

	st.SetSearchTerm("invoice")
	filtered := st.Filtered()
	require.Len(t, filtered, 1)
	assert.Equal(t, "Invoice.pdf", filtered[0].FileName)

	byCategory, err := client.ListByCategory(ctx, model.CategoryPersonal)
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Photo.pdf", byCategory[0].FileName)

	edited, err := st.Edit(ctx, first.ID, repository.UpdateInput{FileName: "Invoice-March.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "Invoice-March.pdf", edited.FileName)
	rec, ok := st.Get(first.ID)
	require.True(t, ok)
	assert.Equal(t, "Invoice-March.pdf", rec.FileName)
	assert.Equal(t, model.CategoryFinancial, rec.Category)

	res, err := st.Download(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Invoice-March.pdf"), res.Path)
	assert.Equal(t, "application/pdf", res.ContentType)
	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 invoice", string(data))

	require.NoError(t, st.Remove(ctx, second.ID))
	_, ok = st.Get(second.ID)
	assert.False(t, ok)

	_, err = client.Download(ctx, second.ID, "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestVaultOwnership(t *testing.T) {
	ctx := context.Background()
	srv := newBackend(t)

	owner := newClient(t, srv)
	signUp(t, owner, "ann")
	doc, err := owner.Upload(ctx, repository.UploadInput{File: pdf("a.pdf", "%PDF"), Category: model.CategoryLegal})
	require.NoError(t, err)

	other := newClient(t, srv)
	signUp(t, other, "bob")

	docs, err := other.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = other.Download(ctx, doc.ID, "")
	require.ErrorIs(t, err, apperror.ErrPermissionDenied)
	assert.Equal(t, "You don't have permission to download this file", err.Error())

	_, err = other.Update(ctx, doc.ID, repository.UpdateInput{FileName: "mine.pdf"})
	assert.ErrorIs(t, err, apperror.ErrPermissionDenied)

	err = other.Delete(ctx, doc.ID)
	assert.ErrorIs(t, err, apperror.ErrPermissionDenied)
}

func TestVaultSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	srv := newBackend(t)
	client := newClient(t, srv)

	err := client.Login(ctx, "ghost@example.com", "secret1")
	require.ErrorIs(t, err, apperror.ErrAuthenticationRequired)
	assert.False(t, client.Session().Authenticated())

	signUp(t, client, "ann")

	err = client.Register(ctx, "ann", "ann@example.com", "secret1")
	require.Error(t, err)
	assert.Equal(t, "email already registered", err.Error())

	expired := make(chan struct{}, 1)
	client.Session().OnExpire(func() {
		select {
		case expired <- struct{}{}:
		default:
		}
	})

	client.Session().SetCredential("stale-token")
	_, err = client.List(ctx)
	require.ErrorIs(t, err, apperror.ErrAuthenticationRequired)
	assert.False(t, client.Session().Authenticated())
	select {
	case <-expired:
	default:
		t.Fatal("expected the expiry callback to fire")
	}

	require.NoError(t, client.Login(ctx, "ann@example.com", "secret1"))
	_, err = client.List(ctx)
	require.NoError(t, err)

	client.Logout()
	assert.False(t, client.Session().Authenticated())
	_, err = client.List(ctx)
	assert.ErrorIs(t, err, apperror.ErrAuthenticationRequired)
}
