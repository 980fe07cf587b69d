// Package format turns raw document metadata into display strings.
package format

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	unknownSize = "Unknown size"
	recently    = "Recently"
	genericType = "FILE"

	dateLayout = "Jan 2, 2006"
)

// FileSize renders a byte count. A nil size is unknown, not zero.
func FileSize(size *int64) string {
	if size == nil || *size < 0 {
		return unknownSize
	}
	b := float64(*size)
	switch {
	case *size < 1<<10:
		return fmt.Sprintf("%d B", *size)
	case *size < 1<<20:
		return fmt.Sprintf("%.1f KB", b/(1<<10))
	case *size < 1<<30:
		return fmt.Sprintf("%.1f MB", b/(1<<20))
	default:
		return fmt.Sprintf("%.1f GB", b/(1<<30))
	}
}

// Date renders an upload timestamp, or "Recently" when absent.
func Date(ts *time.Time) string {
	if ts == nil || ts.IsZero() {
		return recently
	}
	return ts.Format(dateLayout)
}

// FileType renders the last segment of a MIME type in upper case,
// "application/pdf" becomes "PDF". An empty type is "FILE".
func FileType(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return genericType
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	parts := strings.Split(mimeType, "/")
	return strings.ToUpper(parts[len(parts)-1])
}

// DisplayName strips the directory and the last extension from a file name.
// It is the default document name offered for a freshly picked file.
func DisplayName(fileName string) string {
	base := filepath.Base(fileName)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		return strings.TrimSuffix(base, ext)
	}
	return base
}
