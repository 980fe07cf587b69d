package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"docvault/internal/apperror"
	"docvault/internal/format"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/store"
)

// parseCategory accepts any casing of a known category and rejects the rest.
func parseCategory(op, raw string) (model.Category, error) {
	c := model.ParseCategory(raw)
	if !strings.EqualFold(strings.TrimSpace(raw), string(c)) {
		return "", apperror.Validation(op, "unknown category %q, run `vault categories` for the list", raw)
	}
	return c, nil
}

// openFile opens path as an upload candidate with a sniffed content type.
// The caller closes the returned file.
func openFile(op, path string) (*repository.File, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, apperror.Wrap(apperror.KindValidation, op, "could not open "+path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, apperror.Wrap(apperror.KindValidation, op, "could not read "+path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, apperror.Validation(op, "%s is a directory", path)
	}

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return nil, nil, apperror.Wrap(apperror.KindValidation, op, "could not read "+path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, nil, apperror.Wrap(apperror.KindValidation, op, "could not read "+path, err)
	}

	return &repository.File{
		Name:        filepath.Base(path),
		ContentType: mt.String(),
		Size:        info.Size(),
		Content:     f,
	}, f, nil
}

func newListCommand(a *app) *cobra.Command {
	var category, search string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your documents, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if category == "" {
				if err := a.store.Refresh(cmd.Context()); err != nil {
					return err
				}
				a.store.SetSearchTerm(search)
				renderDocuments(out(cmd), a.store.Filtered())
				return nil
			}

			c, err := parseCategory("cli.list", category)
			if err != nil {
				return err
			}
			docs, err := a.client.ListByCategory(cmd.Context(), c)
			if err != nil {
				return err
			}
			renderDocuments(out(cmd), lo.Filter(docs, func(d model.Document, _ int) bool {
				return store.Matches(d, search)
			}))
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only list documents in this category")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Case-insensitive match on name, category or tags")
	return cmd
}

func newUploadCommand(a *app) *cobra.Command {
	var name, category string
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file (PDF, DOC, DOCX, XLS, XLSX, JPG, PNG up to 10MB)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := parseCategory("cli.upload", category)
			if err != nil {
				return err
			}
			file, f, err := openFile("cli.upload", args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			if strings.TrimSpace(name) == "" {
				name = format.DisplayName(file.Name)
			}
			if strings.TrimSpace(name) == "" {
				return apperror.Validation("cli.upload", "document name is required")
			}

			doc, err := a.store.Upload(cmd.Context(), repository.UploadInput{
				File:     file,
				Category: c,
				FileName: name,
			})
			if err != nil {
				return err
			}
			renderDocument(out(cmd), "Uploaded", doc)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Document name (defaults to the file name without extension)")
	cmd.Flags().StringVarP(&category, "category", "c", string(model.DefaultCategory), "Document category")
	return cmd
}

func newEditCommand(a *app) *cobra.Command {
	var name, category, filePath string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Rename, recategorize or replace a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in repository.UpdateInput
			if cmd.Flags().Changed("name") {
				if strings.TrimSpace(name) == "" {
					return apperror.Validation("cli.edit", "document name is required")
				}
				in.FileName = name
			}
			if category != "" {
				c, err := parseCategory("cli.edit", category)
				if err != nil {
					return err
				}
				in.Category = c
			}
			if filePath != "" {
				file, f, err := openFile("cli.edit", filePath)
				if err != nil {
					return err
				}
				defer f.Close()
				in.File = file
			}

			doc, err := a.store.Edit(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			renderDocument(out(cmd), "Updated", doc)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "New document name")
	cmd.Flags().StringVarP(&category, "category", "c", "", "New category")
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Replace the content with this file")
	return cmd
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a document",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Deleted document %s.\n", args[0])
			return nil
		},
	}
}

func newDownloadCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Save a document into the download directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Best effort: the listed name is the fallback when the server
			// sends no Content-Disposition.
			if a.client.Session().Authenticated() {
				_ = a.store.Refresh(cmd.Context())
			}
			res, err := a.store.Download(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Saved %s (%s, %s)\n", res.Path, format.FileType(res.ContentType), format.FileSize(&res.Size))
			return nil
		},
	}
	cmd.Flags().StringVarP(&a.downloadDir, "dir", "d", "", "Target directory (defaults to VAULT_DOWNLOAD_DIR)")
	return cmd
}

func newCategoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the document categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, c := range model.Categories {
				fmt.Fprintln(out(cmd), c)
			}
			return nil
		},
	}
}
