package mocks

import (
	"context"
	"sync"

	"github.com/skiffchat/skiff"
)

// API is a hand-rolled mock of the services.API dependency. Calls are
// recorded in order; setting Err scripts the next calls to fail, which
// is how the rollback paths get exercised.
type API struct {
	mu    sync.Mutex
	Calls []string

	// Err, when set, is returned by every call.
	Err error

	// Before, when set, runs at the start of every call. Tests use it
	// to interleave store dispatches with an in-flight request.
	Before func(call string)

	// AssignID is the ID CreateCategory stamps on the confirmed record.
	AssignID string

	SavedPreferences   [][]skiff.Preference
	DeletedPreferences [][]skiff.Preference
}

func NewAPI() *API {
	return &API{AssignID: "server-assigned"}
}

func (m *API) record(call string) {
	if m.Before != nil {
		m.Before(call)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

func (m *API) CreateCategory(_ context.Context, _, _ string, category *skiff.ChannelCategory) (*skiff.ChannelCategory, error) {
	m.record("CreateCategory")
	if m.Err != nil {
		return nil, m.Err
	}
	confirmed := category.Clone()
	confirmed.ID = m.AssignID
	return confirmed, nil
}

func (m *API) UpdateCategories(_ context.Context, _, _ string, categories []*skiff.ChannelCategory) ([]*skiff.ChannelCategory, error) {
	m.record("UpdateCategories")
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]*skiff.ChannelCategory, len(categories))
	for i, c := range categories {
		out[i] = c.Clone()
	}
	return out, nil
}

func (m *API) UpdateCategoryOrder(_ context.Context, _, _ string, order []string) ([]string, error) {
	m.record("UpdateCategoryOrder")
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]string(nil), order...), nil
}

func (m *API) DeleteCategory(_ context.Context, _, _, _ string) error {
	m.record("DeleteCategory")
	return m.Err
}

func (m *API) SavePreferences(_ context.Context, _ string, preferences []skiff.Preference) error {
	m.record("SavePreferences")
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SavedPreferences = append(m.SavedPreferences, preferences)
	return nil
}

func (m *API) DeletePreferences(_ context.Context, _ string, preferences []skiff.Preference) error {
	m.record("DeletePreferences")
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeletedPreferences = append(m.DeletedPreferences, preferences)
	return nil
}
