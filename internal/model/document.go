package model

import "time"

// Document is the canonical, normalized view of one stored file.
// Records with the same ID are the same logical document, possibly at
// different revisions.
type Document struct {
	ID       string   `json:"id"`
	FileName string   `json:"fileName"`
	FileType string   `json:"fileType,omitempty"`
	Category Category `json:"category"`
	// FileSize is nil when the server did not report a size. It is never
	// defaulted to zero.
	FileSize   *int64     `json:"fileSize,omitempty"`
	UploadDate *time.Time `json:"uploadDate,omitempty"`
	Tags       []string   `json:"tags"`
}

// Patch carries the mutable fields of a Document. Nil fields are left as they are.
type Patch struct {
	FileName   *string
	FileType   *string
	Category   *Category
	FileSize   *int64
	UploadDate *time.Time
	Tags       []string
}

// PatchFrom returns a Patch that replaces every mutable field of d.
func PatchFrom(d Document) Patch {
	p := Patch{
		FileName:   &d.FileName,
		FileType:   &d.FileType,
		Category:   &d.Category,
		FileSize:   d.FileSize,
		UploadDate: d.UploadDate,
		Tags:       d.Tags,
	}
	return p
}

// Apply returns a copy of d with the patch applied. The ID never changes.
func (p Patch) Apply(d Document) Document {
	if p.FileName != nil && *p.FileName != "" {
		d.FileName = *p.FileName
	}
	if p.FileType != nil {
		d.FileType = *p.FileType
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	if p.FileSize != nil {
		size := *p.FileSize
		d.FileSize = &size
	}
	if p.UploadDate != nil {
		ts := *p.UploadDate
		d.UploadDate = &ts
	}
	if p.Tags != nil {
		d.Tags = append([]string(nil), p.Tags...)
	}
	return d
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	out := d
	if d.FileSize != nil {
		size := *d.FileSize
		out.FileSize = &size
	}
	if d.UploadDate != nil {
		ts := *d.UploadDate
		out.UploadDate = &ts
	}
	out.Tags = append(make([]string, 0, len(d.Tags)), d.Tags...)
	return out
}
