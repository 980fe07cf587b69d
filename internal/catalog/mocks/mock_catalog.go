package mocks

import (
	"context"

	"docvault/internal/catalog"

	"github.com/stretchr/testify/mock"
)

type MockCatalog struct {
	mock.Mock
}

var _ catalog.Catalog = (*MockCatalog)(nil)

func (m *MockCatalog) Create(ctx context.Context, e *catalog.Entry) (*catalog.Entry, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Entry), args.Error(1)
}

func (m *MockCatalog) FindByID(ctx context.Context, id string) (*catalog.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Entry), args.Error(1)
}

func (m *MockCatalog) List(ctx context.Context, q catalog.ListQuery) ([]catalog.Entry, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Entry), args.Error(1)
}

func (m *MockCatalog) Update(ctx context.Context, e *catalog.Entry) (*catalog.Entry, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Entry), args.Error(1)
}

func (m *MockCatalog) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCatalog) CreateUser(ctx context.Context, u *catalog.User) (*catalog.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.User), args.Error(1)
}

func (m *MockCatalog) FindUserByEmail(ctx context.Context, email string) (*catalog.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.User), args.Error(1)
}
