package repository

import (
	"context"

	"docvault/internal/model"
)

// DocumentRepository issues document operations against the backend.
// Every method returns either normalized records or an *apperror.Error.
type DocumentRepository interface {
	// List returns every document visible to the current session.
	List(ctx context.Context) ([]model.Document, error)

	// ListByCategory returns the documents of a single category.
	ListByCategory(ctx context.Context, category model.Category) ([]model.Document, error)

	// Upload sends a new file. The file and the category are required.
	Upload(ctx context.Context, in UploadInput) (model.Document, error)

	// Update sends only the supplied fields of in for document id.
	Update(ctx context.Context, id string, in UpdateInput) (model.Document, error)

	// Delete removes document id.
	Delete(ctx context.Context, id string) error

	// Download fetches the body of document id. It fails with
	// apperror.ErrAuthenticationRequired, without a request, when there is no session.
	Download(ctx context.Context, id, suggestedName string) (*Payload, error)
}
