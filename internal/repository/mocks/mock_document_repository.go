package mocks

import (
	"context"

	"docvault/internal/model"
	"docvault/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockDocumentRepository struct {
	mock.Mock
}

var _ repository.DocumentRepository = (*MockDocumentRepository)(nil)

func (m *MockDocumentRepository) List(ctx context.Context) ([]model.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListByCategory(ctx context.Context, category model.Category) ([]model.Document, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Upload(ctx context.Context, in repository.UploadInput) (model.Document, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Update(ctx context.Context, id string, in repository.UpdateInput) (model.Document, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRepository) Download(ctx context.Context, id, suggestedName string) (*repository.Payload, error) {
	args := m.Called(ctx, id, suggestedName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Payload), args.Error(1)
}
