package handler

import (
	"strconv"
	"time"

	"docvault/internal/catalog"
)

// documentResponse is the wire form of a catalog entry. Numeric ids are
// emitted as JSON numbers.
type documentResponse struct {
	ID         any       `json:"id"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	Category   string    `json:"category"`
	FileSize   int64     `json:"fileSize"`
	UploadDate time.Time `json:"uploadDate"`
	Tags       []string  `json:"tags"`
}

func wireID(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}

func toResponse(e *catalog.Entry) documentResponse {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return documentResponse{
		ID:         wireID(e.ID),
		FileName:   e.FileName,
		FileType:   e.FileType,
		Category:   string(e.Category),
		FileSize:   e.FileSize,
		UploadDate: e.UploadDate,
		Tags:       tags,
	}
}

func toResponses(entries []catalog.Entry) []documentResponse {
	out := make([]documentResponse, 0, len(entries))
	for i := range entries {
		out = append(out, toResponse(&entries[i]))
	}
	return out
}

type userResponse struct {
	ID       any    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}
