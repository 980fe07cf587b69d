package httpapi

import (
	"mime"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// dispositionName matches a filename parameter in headers that
// mime.ParseMediaType rejects, such as a bare `filename="a.pdf"`.
var dispositionName = regexp.MustCompile(`(?i)filename\*?=(?:[\w-]+'[\w-]*')?"?([^";]+)"?`)

// resolveFileName picks the name for a downloaded payload:
// Content-Disposition filename, then suggested, then "document-<id>".
func resolveFileName(disposition, suggested, id string) string {
	if name := filenameFromDisposition(disposition); name != "" {
		return name
	}
	if name := cleanName(suggested); name != "" {
		return name
	}
	return "document-" + id
}

func filenameFromDisposition(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		// ParseMediaType folds filename* into filename.
		if name := cleanName(params["filename"]); name != "" {
			return name
		}
	}
	m := dispositionName.FindStringSubmatch(header)
	if m == nil {
		return ""
	}
	name := m[1]
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return cleanName(name)
}

func cleanName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}
