package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/jwebster45206/mission-script/pkg/dialogue"
)

// MockStore is an in-memory Store for tests
type MockStore struct {
	mu        sync.RWMutex
	missions  map[string]*dialogue.MainMission
	index     map[string]map[int64]struct{}
	pingError error
	saveError error
}

// Ensure MockStore implements Store interface
var _ Store = (*MockStore)(nil)

// NewMockStore creates a new mock store
func NewMockStore() *MockStore {
	return &MockStore{
		missions: make(map[string]*dialogue.MainMission),
		index:    make(map[string]map[int64]struct{}),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail every save with the given error
func (m *MockStore) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// Ping mocks store ping
func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks store close
func (m *MockStore) Close() error {
	return nil
}

// SaveMission mocks saving a mission
func (m *MockStore) SaveMission(ctx context.Context, lang string, mission *dialogue.MainMission) error {
	if mission == nil {
		return errors.New("mission cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.missions[MissionKey(lang, mission.ID)] = mission
	if m.index[lang] == nil {
		m.index[lang] = make(map[int64]struct{})
	}
	m.index[lang][mission.ID] = struct{}{}
	return nil
}

// LoadMission mocks loading a mission
func (m *MockStore) LoadMission(ctx context.Context, lang string, missionID int64) (*dialogue.MainMission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mission, exists := m.missions[MissionKey(lang, missionID)]
	if !exists {
		return nil, nil // Return nil for not found
	}
	return mission, nil
}

// DeleteMission mocks deleting a mission
func (m *MockStore) DeleteMission(ctx context.Context, lang string, missionID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.missions, MissionKey(lang, missionID))
	delete(m.index[lang], missionID)
	return nil
}

// ListMissions mocks listing cached mission ids
func (m *MockStore) ListMissions(ctx context.Context, lang string) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int64, 0, len(m.index[lang]))
	for id := range m.index[lang] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
