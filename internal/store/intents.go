package store

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"docvault/internal/apperror"
	"docvault/internal/download"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/validation"
)

// Refresh replaces the records with the server's list. Records mutated
// while the list was in flight, or still being mutated, keep their local
// state. A refresh that completes after a later-issued refresh was applied
// is discarded.
func (s *DocumentStore) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.refreshIssued++
	ticket := s.refreshIssued
	startSeq := s.seq
	s.mu.Unlock()

	docs, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket < s.refreshApplied {
		return ErrSuperseded
	}
	s.refreshApplied = ticket

	protected := func(id string) bool {
		return s.issued[id] > startSeq || s.inflight[id] > 0
	}
	local := lo.SliceToMap(s.records, func(d model.Document) (string, model.Document) { return d.ID, d })

	merged := make([]model.Document, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for _, d := range docs {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		if protected(d.ID) {
			if cur, ok := local[d.ID]; ok {
				merged = append(merged, cur)
			}
			continue
		}
		merged = append(merged, d.Clone())
	}
	// Local records the server did not list yet, e.g. an upload confirmed
	// during the refresh.
	var fresh []model.Document
	for _, d := range s.records {
		if !seen[d.ID] && protected(d.ID) {
			fresh = append(fresh, d)
		}
	}
	s.records = append(fresh, merged...)

	s.log.Debug("refreshed documents", zap.Int("count", len(s.records)), zap.Int("kept_local", len(fresh)))
	return nil
}

// Upload validates the file, sends it, and puts the confirmed record first.
// Validation failures never reach the network.
func (s *DocumentStore) Upload(ctx context.Context, in repository.UploadInput) (model.Document, error) {
	if in.File == nil {
		return model.Document{}, apperror.Validation("store.upload", "please select a file to upload")
	}
	if err := validation.Validate(validation.Candidate{
		Name:        in.File.Name,
		Size:        in.File.Size,
		ContentType: in.File.ContentType,
	}); err != nil {
		return model.Document{}, err
	}

	doc, err := s.repo.Upload(ctx, in)
	if err != nil {
		return model.Document{}, err
	}

	s.mu.Lock()
	s.touch(doc.ID)
	s.applyUpload(doc)
	s.mu.Unlock()

	s.log.Info("document uploaded", zap.String("id", doc.ID), zap.String("file_name", doc.FileName))
	return doc.Clone(), nil
}

// Edit sends a partial update and applies the server's version of the record.
func (s *DocumentStore) Edit(ctx context.Context, id string, in repository.UpdateInput) (model.Document, error) {
	if in.Empty() {
		return model.Document{}, apperror.Validation("store.edit", "nothing to update")
	}
	if in.File != nil {
		if err := validation.Validate(validation.Candidate{
			Name:        in.File.Name,
			Size:        in.File.Size,
			ContentType: in.File.ContentType,
		}); err != nil {
			return model.Document{}, err
		}
	}

	gen, err := s.begin("store.edit", id)
	if err != nil {
		return model.Document{}, err
	}
	doc, err := s.repo.Update(ctx, id, in)
	if ferr := s.finish(id, gen, err == nil, func() { s.applyUpdate(id, model.PatchFrom(doc)) }); ferr != nil {
		return model.Document{}, ferr
	}
	if err != nil {
		return model.Document{}, err
	}
	return doc, nil
}

// Remove deletes the document on the server, then locally. Like Edit it is
// rejected while another mutation of id is in flight.
func (s *DocumentStore) Remove(ctx context.Context, id string) error {
	gen, err := s.begin("store.remove", id)
	if err != nil {
		return err
	}
	err = s.repo.Delete(ctx, id)
	if ferr := s.finish(id, gen, err == nil, func() { s.applyDelete(id) }); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}
	s.log.Info("document deleted", zap.String("id", id))
	return nil
}

// Download fetches the document and hands it to the configured Saver. The
// record's file name is offered as the suggested name.
func (s *DocumentStore) Download(ctx context.Context, id string) (download.Result, error) {
	if s.saver == nil {
		return download.Result{}, ErrNoSaver
	}

	var suggested string
	if rec, ok := s.Get(id); ok {
		suggested = rec.FileName
	}

	payload, err := s.repo.Download(ctx, id, suggested)
	if err != nil {
		return download.Result{}, err
	}
	res, err := s.saver.Save(payload.Data, payload.ContentType, payload.FileName)
	if err != nil {
		return download.Result{}, fmt.Errorf("save %s: %w", payload.FileName, err)
	}
	return res, nil
}
