package httpapi

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"docvault/internal/repository"
)

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// multipartForm buffers a multipart body so the request carries a
// Content-Length. Field errors are deferred to finish.
type multipartForm struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

func newMultipartForm() *multipartForm {
	f := &multipartForm{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

func (f *multipartForm) addField(name, value string) {
	if f.err != nil {
		return
	}
	f.err = f.w.WriteField(name, value)
}

// addFile writes file as a form part, keeping its declared content type.
func (f *multipartForm) addFile(field string, file *repository.File) error {
	if f.err != nil {
		return f.err
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(file.Name)))
	h.Set("Content-Type", contentType)

	part, err := f.w.CreatePart(h)
	if err != nil {
		f.err = err
		return err
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		f.err = fmt.Errorf("copy %s: %w", file.Name, err)
		return f.err
	}
	return nil
}

func (f *multipartForm) finish() (io.Reader, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if err := f.w.Close(); err != nil {
		return nil, "", err
	}
	return &f.buf, f.w.FormDataContentType(), nil
}
