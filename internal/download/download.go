// Package download saves downloaded payloads to the local filesystem.
package download

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"docvault/internal/logger"
)

const maxDuplicates = 1000

var ErrEmptyName = errors.New("download: file name is empty")

// Saver writes payloads into Dir. Each save goes through a temp file that is
// always removed, whether or not the save succeeds.
type Saver struct {
	Dir string
	Log *zap.Logger
}

// Result describes a saved file.
type Result struct {
	Path        string
	ContentType string
	Size        int64
}

// Save writes data to Dir under fileName. The name is reduced to its base
// name and an existing file is never overwritten: "a.pdf" becomes
// "a (1).pdf". An empty contentType is sniffed from data.
func (s Saver) Save(data []byte, contentType, fileName string) (Result, error) {
	log := logger.OrNop(s.Log)

	name := baseName(fileName)
	if name == "" {
		return Result{}, ErrEmptyName
	}
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}

	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create download dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".docvault-*.part")
	if err != nil {
		return Result{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("failed to remove temp file", zap.String("path", tmpPath), zap.Error(err))
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return Result{}, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return Result{}, fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, fmt.Errorf("close temp file: %w", err)
	}

	final, err := promote(tmpPath, dir, name)
	if err != nil {
		return Result{}, err
	}

	log.Info("document saved",
		zap.String("path", final),
		zap.String("content_type", contentType),
		zap.Int("size", len(data)),
	)
	return Result{Path: final, ContentType: contentType, Size: int64(len(data))}, nil
}

// promote links the temp file to the first free candidate name. Link fails
// when the target exists, so a concurrent save cannot be overwritten.
func promote(tmpPath, dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		stem, ext = name, ""
	}

	for i := 0; i < maxDuplicates; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		target := filepath.Join(dir, candidate)

		err := os.Link(tmpPath, target)
		if err == nil {
			return target, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		// Filesystems without hard links.
		if _, statErr := os.Lstat(target); statErr == nil {
			continue
		}
		if err := copyFile(tmpPath, target); err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return "", err
		}
		return target, nil
	}
	return "", fmt.Errorf("no free file name for %q in %s", name, dir)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read temp file: %w", err)
	}
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return f.Close()
}

func baseName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	base := filepath.Base(filepath.FromSlash(name))
	switch base {
	case ".", "..", string(filepath.Separator):
		return ""
	}
	return base
}
