package catalog

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Memory is an in-process Catalog. Ids are sequential integers, like the
// postgres catalog's.
type Memory struct {
	mu       sync.RWMutex
	docs     map[string]Entry
	users    map[string]User // by lower-cased email
	nextDoc  int64
	nextUser int64
}

var _ Catalog = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		docs:  make(map[string]Entry),
		users: make(map[string]User),
	}
}

func (m *Memory) Create(_ context.Context, e *Entry) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextDoc++
	out := copyEntry(*e)
	out.ID = strconv.FormatInt(m.nextDoc, 10)
	m.docs[out.ID] = out
	res := copyEntry(out)
	return &res, nil
}

func (m *Memory) FindByID(_ context.Context, id string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyEntry(e)
	return &out, nil
}

func (m *Memory) List(_ context.Context, q ListQuery) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.docs))
	for _, e := range m.docs {
		if q.OwnerID != "" && e.OwnerID != q.OwnerID {
			continue
		}
		if q.Category != "" && !strings.EqualFold(string(e.Category), string(q.Category)) {
			continue
		}
		out = append(out, copyEntry(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadDate.Equal(out[j].UploadDate) {
			return out[i].UploadDate.After(out[j].UploadDate)
		}
		a, _ := strconv.ParseInt(out[i].ID, 10, 64)
		b, _ := strconv.ParseInt(out[j].ID, 10, 64)
		return a > b
	})
	return out, nil
}

func (m *Memory) Update(_ context.Context, e *Entry) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[e.ID]; !ok {
		return nil, ErrNotFound
	}
	m.docs[e.ID] = copyEntry(*e)
	out := copyEntry(*e)
	return &out, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

func (m *Memory) CreateUser(_ context.Context, u *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := m.users[key]; ok {
		return nil, ErrDuplicate
	}
	m.nextUser++
	out := *u
	out.ID = strconv.FormatInt(m.nextUser, 10)
	m.users[key] = out
	return &out, nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func copyEntry(e Entry) Entry {
	e.Tags = append([]string(nil), e.Tags...)
	return e
}
