// Package validation performs pre-flight checks on files before upload.
package validation

import (
	"errors"
	"mime"
	"strings"

	"docvault/internal/apperror"
)

// MaxUploadSize is the largest accepted file, 10 MiB.
const MaxUploadSize int64 = 10 * 1024 * 1024

const op = "upload.validate"

var (
	ErrFileTooLarge    = errors.New("file size must be less than 10MB")
	ErrUnsupportedType = errors.New("only PDF, DOC, DOCX, XLS, XLSX, JPG, PNG files are allowed")
)

var allowedTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"image/jpeg": true,
	"image/png":  true,
}

// Candidate describes a file the user picked for upload.
type Candidate struct {
	Name        string
	Size        int64
	ContentType string
}

// Validate checks the size first and the MIME type second; the first failure wins.
// The returned error is an *apperror.Error of KindValidation wrapping
// ErrFileTooLarge or ErrUnsupportedType.
func Validate(c Candidate) error {
	if c.Size > MaxUploadSize {
		return apperror.Wrap(apperror.KindValidation, op, ErrFileTooLarge.Error(), ErrFileTooLarge)
	}
	if !AllowedType(c.ContentType) {
		return apperror.Wrap(apperror.KindValidation, op, ErrUnsupportedType.Error(), ErrUnsupportedType)
	}
	return nil
}

// AllowedType reports whether contentType is accepted for upload.
// Media type parameters such as charset are ignored.
func AllowedType(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}
	return allowedTypes[mt]
}
