package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"

	"docvault/internal/model"
)

var ErrMissingID = errors.New("document without id")

// RawDocument is a document as the backend emits it. Historical backends used
// different keys for the name and numeric or string ids; all are accepted.
type RawDocument struct {
	ID any `json:"id"`
	// FileName wins over Filename and Name when several are present.
	FileName   string   `json:"fileName"`
	Filename   string   `json:"filename"`
	Name       string   `json:"name"`
	FileType   string   `json:"fileType"`
	Category   string   `json:"category"`
	FileSize   any      `json:"fileSize"`
	UploadDate any      `json:"uploadDate"`
	Tags       []string `json:"tags"`
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize converts a raw backend item into the canonical record.
// Normalizing an already-normalized record yields the same record.
func Normalize(raw RawDocument) (model.Document, error) {
	id, err := normalizeID(raw.ID)
	if err != nil {
		return model.Document{}, err
	}

	doc := model.Document{
		ID:         id,
		FileName:   firstNonEmpty(raw.FileName, raw.Filename, raw.Name),
		FileType:   strings.TrimSpace(raw.FileType),
		Category:   model.ParseCategory(raw.Category),
		FileSize:   normalizeSize(raw.FileSize),
		UploadDate: normalizeDate(raw.UploadDate),
		Tags:       normalizeTags(raw.Tags),
	}
	if doc.FileName == "" {
		doc.FileName = "document-" + id
	}
	return doc, nil
}

// NormalizeAll normalizes every item, failing on the first malformed one.
func NormalizeAll(raws []RawDocument) ([]model.Document, error) {
	docs := make([]model.Document, 0, len(raws))
	for i, raw := range raws {
		doc, err := Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Raw is the inverse of Normalize: it renders a canonical record in the
// backend's current wire shape.
func Raw(d model.Document) RawDocument {
	raw := RawDocument{
		ID:       d.ID,
		FileName: d.FileName,
		FileType: d.FileType,
		Category: string(d.Category),
		Tags:     d.Tags,
	}
	if d.FileSize != nil {
		raw.FileSize = *d.FileSize
	}
	if d.UploadDate != nil {
		raw.UploadDate = d.UploadDate.Format(time.RFC3339Nano)
	}
	return raw
}

func normalizeID(v any) (string, error) {
	switch v.(type) {
	case nil, bool, map[string]any, []any:
		return "", ErrMissingID
	}
	id, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingID, err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrMissingID
	}
	return id, nil
}

func normalizeSize(v any) *int64 {
	if v == nil {
		return nil
	}
	if n, ok := v.(json.Number); ok {
		v = n.String()
	}
	size, err := cast.ToInt64E(v)
	if err != nil {
		// Some encoders emit whole numbers as 2048.0 or 2.048e3.
		f, ferr := cast.ToFloat64E(v)
		if ferr != nil || f != math.Trunc(f) || f < 0 || f >= math.MaxInt64 {
			return nil
		}
		size = int64(f)
	}
	if size < 0 {
		return nil
	}
	return &size
}

func normalizeDate(v any) *time.Time {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			ts = ts.UTC()
			return &ts
		}
	}
	return nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
