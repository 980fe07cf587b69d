package cli

import (
	"bytes"
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
	"docvault/internal/http/handler"
	"docvault/internal/model"
	"docvault/internal/service"
	"docvault/internal/storage"
)

const samplePDF = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n"

type env struct {
	dir         string
	downloadDir string
}

func setupEnv(t *testing.T) env {
	t.Helper()
	cat := catalog.NewMemory()
	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler()})
	handler.RegisterRoutes(app, handler.Deps{
		Documents: service.NewDocumentService(storage.NewMemory(), cat, nil),
		Auth:      service.NewAuthService(cat, time.Hour, nil),
	})
	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	e := env{dir: dir, downloadDir: filepath.Join(dir, "downloads")}
	t.Setenv("VAULT_API_URL", srv.URL+"/api")
	t.Setenv("VAULT_SESSION_FILE", filepath.Join(dir, "session.yaml"))
	t.Setenv("VAULT_DOWNLOAD_DIR", e.downloadDir)
	t.Setenv("VAULT_RETRY_ATTEMPTS", "1")
	t.Setenv("VAULT_TRACING", "false")
	t.Setenv("LOG_DISABLE", "true")
	return e
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCLI_DocumentLifecycle(t *testing.T) {
	e := setupEnv(t)

	_, _, err := run(t, "", "register", "--username", "ann", "--email", "ann@example.com", "--password", "secret1")
	require.NoError(t, err)

	stdout, _, err := run(t, "secret1\n", "login", "--email", "ann@example.com")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Logged in as ann@example.com")
	assert.FileExists(t, filepath.Join(e.dir, "session.yaml"))

	stdout, _, err = run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No documents found.")

	lease := writeFile(t, e.dir, "lease.pdf", samplePDF)
	stdout, _, err = run(t, "", "upload", lease, "--category", "legal")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Uploaded lease (id 1, Legal")

	stdout, _, err = run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "lease")
	assert.Contains(t, stdout, "PDF")
	assert.Contains(t, stdout, "1 document(s)")

	stdout, _, err = run(t, "", "list", "--search", "invoice")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No documents found.")

	stdout, _, err = run(t, "", "list", "--category", "LEGAL", "--search", "lea")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 document(s)")

	stdout, _, err = run(t, "", "edit", "1", "--name", "Lease 2024")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Updated Lease 2024")

	stdout, _, err = run(t, "", "download", "1")
	require.NoError(t, err)
	saved := filepath.Join(e.downloadDir, "Lease 2024")
	assert.Contains(t, stdout, "Saved "+saved)
	data, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, samplePDF, string(data))

	stdout, _, err = run(t, "", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Deleted document 1.")

	_, _, err = run(t, "", "logout")
	require.NoError(t, err)

	_, _, err = run(t, "", "list")
	require.ErrorIs(t, err, apperror.ErrAuthenticationRequired)
	assert.Contains(t, userMessage(err), "vault login")

	_, _, err = run(t, "", "download", "1")
	require.ErrorIs(t, err, apperror.ErrAuthenticationRequired)
	assert.Equal(t, "Please login to download files", err.Error())
}

func TestCLI_ValidationNeverReachesServer(t *testing.T) {
	e := setupEnv(t)
	notes := writeFile(t, e.dir, "notes.txt", "plain text")
	lease := writeFile(t, e.dir, "lease.pdf", samplePDF)

	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{
			name:    "unsupported type",
			args:    []string{"upload", notes},
			wantMsg: "only PDF, DOC, DOCX, XLS, XLSX, JPG, PNG files are allowed",
		},
		{
			name:    "unknown category",
			args:    []string{"upload", lease, "--category", "Secret"},
			wantMsg: `unknown category "Secret"`,
		},
		{
			name:    "missing file",
			args:    []string{"upload", filepath.Join(e.dir, "nope.pdf")},
			wantMsg: "could not open",
		},
		{
			name:    "empty edit",
			args:    []string{"edit", "1"},
			wantMsg: "nothing to update",
		},
		{
			name:    "blank name on edit",
			args:    []string{"edit", "1", "--name", " "},
			wantMsg: "document name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, "", tt.args...)
			require.ErrorIs(t, err, apperror.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestCLI_Categories(t *testing.T) {
	setupEnv(t)

	stdout, _, err := run(t, "", "categories")
	require.NoError(t, err)
	for _, c := range model.Categories {
		assert.Contains(t, stdout, string(c))
	}
}

func TestCLI_SessionExpiryNotice(t *testing.T) {
	e := setupEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, "session.yaml"), []byte("token: stale\n"), 0o600))

	_, stderr, err := run(t, "", "list")
	require.ErrorIs(t, err, apperror.ErrAuthenticationRequired)
	assert.Contains(t, stderr, "Your session has expired")

	_, _, err = run(t, "", "list")
	require.ErrorIs(t, err, apperror.ErrAuthenticationRequired)
}

func TestRenderDocuments(t *testing.T) {
	size := int64(2048)
	ts := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	renderDocuments(&buf, []model.Document{
		{ID: "1", FileName: "Invoice.pdf", FileType: "application/pdf", Category: model.CategoryFinancial, FileSize: &size, UploadDate: &ts},
		{ID: "2", FileName: "Photo.png", Category: model.CategoryPersonal},
	})

	got := buf.String()
	for _, want := range []string{"Invoice.pdf", "PDF", "2.0 KB", "Mar 5, 2024", "Photo.png", "FILE", "Unknown size", "Recently", "2 document(s)"} {
		assert.Contains(t, got, want)
	}
}
