package source

import (
	"context"
	"testing"
	"time"
)

// mockStore is an in-memory stand-in for the consumer interface.
type mockStore struct {
	hashes map[string]map[string]string
	sets   map[string][]string

	hsetErr  error
	hgetErr  error
	saddErr  error
	smembErr error
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if m.hsetErr != nil {
		return m.hsetErr
	}
	m.hashes[key] = fields
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if m.hgetErr != nil {
		return nil, m.hgetErr
	}
	return m.hashes[key], nil
}

func (m *mockStore) SAdd(_ context.Context, key string, members ...string) error {
	if m.saddErr != nil {
		return m.saddErr
	}
	m.sets[key] = append(m.sets[key], members...)
	return nil
}

func (m *mockStore) SMembers(_ context.Context, key string) ([]string, error) {
	if m.smembErr != nil {
		return nil, m.smembErr
	}
	return append([]string(nil), m.sets[key]...), nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{hashes: map[string]map[string]string{}, sets: map[string][]string{}}
	repo := New(ms, "")
	repo.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return repo, ms
}
