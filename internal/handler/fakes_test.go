package handler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/nfc-tracker/internal/model"
	"github.com/iliyamo/nfc-tracker/internal/queue"
	"github.com/iliyamo/nfc-tracker/internal/repository"
	"github.com/iliyamo/nfc-tracker/internal/utils"
)

var errBoom = errors.New("boom")

// memStore is an in-memory tag directory and tap log.
type memStore struct {
	mu     sync.Mutex
	tags   []model.Tag
	taps   []model.TapEvent
	nextID uint64
	fail   error
}

func newMemStore(tags ...model.Tag) *memStore {
	s := &memStore{}
	for _, t := range tags {
		s.nextID++
		t.ID = s.nextID
		s.tags = append(s.tags, t)
	}
	return s
}

func (s *memStore) find(tagID string) (model.Tag, bool) {
	for _, t := range s.tags {
		if t.TagID == tagID {
			return t, true
		}
	}
	return model.Tag{}, false
}

func (s *memStore) RecordForTag(_ context.Context, ev *model.TapEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	tag, ok := s.find(ev.TagID)
	if !ok {
		return repository.ErrTagNotFound
	}
	ev.TenantID = tag.TenantID
	ev.ID = uint64(len(s.taps) + 1)
	ev.Timestamp = time.Date(2026, 1, 1, 0, 0, len(s.taps), 0, time.UTC)
	s.taps = append(s.taps, *ev)
	return nil
}

func (s *memStore) ListByTenant(_ context.Context, tenantID uint64) ([]model.TapEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	var out []model.TapEvent
	for i := len(s.taps) - 1; i >= 0; i-- {
		if s.taps[i].TenantID == tenantID {
			out = append(out, s.taps[i])
		}
	}
	return out, nil
}

func (s *memStore) tapsFor(tenantID uint64) int {
	taps, _ := s.ListByTenant(context.Background(), tenantID)
	return len(taps)
}

func (s *memStore) ResolvePublicURL(_ context.Context, tagID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	tag, ok := s.find(tagID)
	if !ok {
		return "", repository.ErrTagNotFound
	}
	return tag.PublicURL, nil
}

// memTags adapts memStore to TagStore, whose ListByTenant returns tags.
type memTags struct{ *memStore }

func (m memTags) ListByTenant(_ context.Context, tenantID uint64) ([]model.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	var out []model.Tag
	for _, t := range m.tags {
		if t.TenantID == tenantID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memTags) Create(_ context.Context, t *model.Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.find(t.TagID); ok {
		return repository.ErrDuplicate
	}
	m.nextID++
	t.ID = m.nextID
	m.tags = append(m.tags, *t)
	return nil
}

func (m memTags) DeleteForTenant(_ context.Context, id, tenantID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tags {
		if t.ID == id && t.TenantID == tenantID {
			m.tags = append(m.tags[:i], m.tags[i+1:]...)
			return nil
		}
	}
	return repository.ErrTagNotFound
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.TapRecordedEvent
	err    error
}

func (p *recordingPublisher) PublishTapRecorded(_ context.Context, ev queue.TapRecordedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type memUsers struct {
	mu    sync.Mutex
	users []model.User
}

func (m *memUsers) add(t *testing.T, u model.User, password string) model.User {
	t.Helper()
	hash, err := utils.HashPassword(password, 4)
	require.NoError(t, err)
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = uint64(len(m.users) + 1)
	u.PasswordHash = hash
	m.users = append(m.users, u)
	return u
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (m *memUsers) Create(_ context.Context, name, email, password string, roleID uint8, tenantID uint64, cost int) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return 0, repository.ErrDuplicate
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	u := model.User{ID: uint64(len(m.users) + 1), Name: name, Email: email, PasswordHash: hash, RoleID: roleID, Role: model.RoleAdmin, TenantID: tenantID}
	m.users = append(m.users, u)
	return u.ID, nil
}

func (m *memUsers) ListByTenant(_ context.Context, tenantID uint64) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.users {
		if u.TenantID == tenantID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) DeleteForTenant(_ context.Context, id, tenantID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, u := range m.users {
		if u.ID == id && u.TenantID == tenantID {
			m.users = append(m.users[:i], m.users[i+1:]...)
			return nil
		}
	}
	return repository.ErrUserNotFound
}

type memTenants map[uint64]string

func (m memTenants) GetByID(_ context.Context, id uint64) (model.Tenant, error) {
	name, ok := m[id]
	if !ok {
		return model.Tenant{}, repository.ErrTenantNotFound
	}
	return model.Tenant{ID: id, Name: name}, nil
}

type pingFunc func(context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type failingUsers struct{}

func (failingUsers) GetByEmail(context.Context, string) (model.User, error) {
	return model.User{}, errBoom
}
