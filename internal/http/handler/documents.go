package handler

import (
	"mime"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/http/middleware"
	"docvault/internal/service"
)

// ListDocuments returns the caller's documents, newest first.
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.List(c.UserContext(), middleware.UserID(c), "")
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(toResponses(res))
	}
}

// ListByCategory returns the caller's documents in one category.
func ListByCategory(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.List(c.UserContext(), middleware.UserID(c), c.Params("category"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(toResponses(res))
	}
}

// fileInput opens an uploaded part. The returned func closes it.
func fileInput(fh *multipart.FileHeader) (*service.FileInput, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &service.FileInput{
		Reader:           f,
		OriginalFilename: fh.Filename,
		ContentType:      fh.Header.Get("Content-Type"),
		Size:             fh.Size,
	}, func() { f.Close() }, nil
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// UploadDocument accepts multipart/form-data with file, category, filename
// and an optional comma separated tags field.
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		in, closeFile, err := fileInput(fh)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer closeFile()

		doc, err := svc.Upload(c.UserContext(), middleware.UserID(c), service.UploadInput{
			File:     *in,
			FileName: c.FormValue("filename"),
			Category: c.FormValue("category"),
			Tags:     splitTags(c.FormValue("tags")),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(toResponse(doc))
	}
}

// GetDocument returns one document's metadata.
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := svc.Get(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(toResponse(doc))
	}
}

// UpdateDocument applies a partial update. Every form field is optional.
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in := service.UpdateInput{
			FileName: c.FormValue("filename"),
			Category: c.FormValue("category"),
		}
		if fh, err := c.FormFile("file"); err == nil {
			file, closeFile, err := fileInput(fh)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer closeFile()
			in.File = file
		}

		doc, err := svc.Update(c.UserContext(), middleware.UserID(c), c.Params("id"), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(toResponse(doc))
	}
}

// DeleteDocument removes a document and its content.
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DownloadDocument streams the content as an attachment named after the document.
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, doc, err := svc.Download(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}

		contentType := doc.FileType
		if contentType == "" {
			contentType = fiber.MIMEOctetStream
		}
		c.Set(fiber.HeaderContentType, contentType)
		c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
		// fasthttp closes rc once the body has been written.
		return c.SendStream(rc, int(doc.FileSize))
	}
}
