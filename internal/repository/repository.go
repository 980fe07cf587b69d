// Package repository defines the client-side contract for the document backend.
// The HTTP implementation lives in the httpapi subpackage.
package repository

import (
	"io"

	"docvault/internal/model"
)

// File is a local file handed to Upload or Update.
type File struct {
	// Name is the file's own name, used when no display name is given.
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadInput carries the fields of a new document.
type UploadInput struct {
	File     *File
	Category model.Category
	// FileName is the display name. It defaults to File.Name.
	FileName string
}

// UpdateInput carries a partial update. Zero-valued fields are not sent, so
// a metadata-only edit never re-sends the file.
type UpdateInput struct {
	File     *File
	Category model.Category
	FileName string
}

// Empty reports whether the update carries no field at all.
func (in UpdateInput) Empty() bool {
	return in.File == nil && in.Category == "" && in.FileName == ""
}

// Payload is a downloaded document body.
type Payload struct {
	Data        []byte
	ContentType string
	// FileName is resolved from Content-Disposition, the caller's suggestion,
	// or "document-<id>", in that order.
	FileName string
}
