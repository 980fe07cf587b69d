package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"docvault/internal/apperror"
	"docvault/internal/model"
	"docvault/internal/repository"
)

// maxDownloadSize bounds a downloaded payload held in memory.
const maxDownloadSize = 64 << 20

// List returns every document visible to the current session.
func (c *Client) List(ctx context.Context) ([]model.Document, error) {
	return c.list(ctx, opList, c.endpoint("documents"))
}

// ListByCategory returns the documents filed under category.
func (c *Client) ListByCategory(ctx context.Context, category model.Category) ([]model.Document, error) {
	if category == "" {
		return nil, apperror.Validation(opListByCategory.name, "category is required")
	}
	return c.list(ctx, opListByCategory, c.endpoint("documents", "category", string(category)))
}

func (c *Client) list(ctx context.Context, op operation, target string) ([]model.Document, error) {
	docs, err := retry.DoWithData(
		func() ([]model.Document, error) {
			req, err := c.newRequest(ctx, http.MethodGet, target, nil)
			if err != nil {
				return nil, retry.Unrecoverable(err)
			}
			resp, err := c.do(op, req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			var raw []repository.RawDocument
			if err := decodeJSON(resp.Body, &raw); err != nil {
				return nil, retry.Unrecoverable(op.decodeError(err))
			}
			docs, err := repository.NormalizeAll(raw)
			if err != nil {
				return nil, retry.Unrecoverable(op.decodeError(err))
			}
			return docs, nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			c.log.Debug("retrying request", zap.String("op", op.name), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, asAppError(op, err)
	}
	return docs, nil
}

// retryable reports whether a failed read is worth another attempt.
func retryable(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Kind {
	case apperror.KindTransportFailure:
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	case apperror.KindServerError:
		switch appErr.Status {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}

// asAppError makes sure whatever escapes the retry loop is an *apperror.Error.
func asAppError(op operation, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.Wrap(apperror.KindTransportFailure, op.name, op.fallback, err)
}

// Upload sends a new file with its metadata.
func (c *Client) Upload(ctx context.Context, in repository.UploadInput) (model.Document, error) {
	if in.File == nil || in.File.Content == nil {
		return model.Document{}, apperror.Validation(opUpload.name, "please select a file to upload")
	}
	if in.Category == "" {
		return model.Document{}, apperror.Validation(opUpload.name, "category is required")
	}

	name := strings.TrimSpace(in.FileName)
	if name == "" {
		name = in.File.Name
	}
	form := newMultipartForm()
	if err := form.addFile("file", in.File); err != nil {
		return model.Document{}, apperror.Wrap(apperror.KindValidation, opUpload.name, "could not read the selected file", err)
	}
	form.addField("category", string(in.Category))
	form.addField("filename", name)

	return c.sendDocument(ctx, opUpload, http.MethodPost, c.endpoint("documents", "upload"), form)
}

// Update sends only the fields set on in.
func (c *Client) Update(ctx context.Context, id string, in repository.UpdateInput) (model.Document, error) {
	if strings.TrimSpace(id) == "" {
		return model.Document{}, apperror.Validation(opUpdate.name, "document id is required")
	}

	form := newMultipartForm()
	if in.File != nil && in.File.Content != nil {
		if err := form.addFile("file", in.File); err != nil {
			return model.Document{}, apperror.Wrap(apperror.KindValidation, opUpdate.name, "could not read the selected file", err)
		}
	}
	if in.Category != "" {
		form.addField("category", string(in.Category))
	}
	if name := strings.TrimSpace(in.FileName); name != "" {
		form.addField("filename", name)
	}

	return c.sendDocument(ctx, opUpdate, http.MethodPut, c.endpoint("documents", id), form)
}

func (c *Client) sendDocument(ctx context.Context, op operation, method, target string, form *multipartForm) (model.Document, error) {
	body, contentType, err := form.finish()
	if err != nil {
		return model.Document{}, apperror.Wrap(apperror.KindValidation, op.name, op.fallback, err)
	}
	req, err := c.newRequest(ctx, method, target, body)
	if err != nil {
		return model.Document{}, apperror.Wrap(apperror.KindTransportFailure, op.name, op.fallback, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(op, req)
	if err != nil {
		return model.Document{}, err
	}
	defer resp.Body.Close()

	var raw repository.RawDocument
	if err := decodeJSON(resp.Body, &raw); err != nil {
		return model.Document{}, op.decodeError(err)
	}
	doc, err := repository.Normalize(raw)
	if err != nil {
		return model.Document{}, op.decodeError(err)
	}
	return doc, nil
}

// Delete removes a document.
func (c *Client) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperror.Validation(opDelete.name, "document id is required")
	}
	req, err := c.newRequest(ctx, http.MethodDelete, c.endpoint("documents", id), nil)
	if err != nil {
		return apperror.Wrap(apperror.KindTransportFailure, opDelete.name, opDelete.fallback, err)
	}
	resp, err := c.do(opDelete, req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Download fetches the binary content of a document. It needs a session and
// fails without sending anything when there is none.
func (c *Client) Download(ctx context.Context, id, suggestedName string) (*repository.Payload, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.Validation(opDownload.name, "document id is required")
	}
	if !c.session.Authenticated() {
		return nil, apperror.New(apperror.KindAuthenticationRequired, opDownload.name, "Please login to download files")
	}

	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("documents", "download", id), nil)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindTransportFailure, opDownload.name, opDownload.fallback, err)
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.do(opDownload, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, apperror.Wrap(apperror.KindTransportFailure, opDownload.name, opDownload.fallback, fmt.Errorf("read body: %w", err))
	}
	if len(data) > maxDownloadSize {
		return nil, apperror.Wrap(apperror.KindTransportFailure, opDownload.name, opDownload.fallback,
			fmt.Errorf("payload exceeds %d bytes", maxDownloadSize))
	}

	return &repository.Payload{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		FileName:    resolveFileName(resp.Header.Get("Content-Disposition"), suggestedName, id),
	}, nil
}

func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return dec.Decode(v)
}
