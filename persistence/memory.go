package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wfunc/gamehub/models"
)

// Memory keeps records in process; used for tests and single-node setups
// without a database.
type Memory struct {
	mutex   sync.RWMutex
	records []models.GameRecord
	rounds  map[roundKey]struct{}
	nextID  uint
}

type roundKey struct {
	sessionID string
	round     int
}

func NewMemory() *Memory {
	return &Memory{rounds: make(map[roundKey]struct{})}
}

func (m *Memory) SaveGameRecord(_ context.Context, record *models.GameRecord) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	key := roundKey{record.SessionID, record.Round}
	if _, ok := m.rounds[key]; ok {
		return ErrDuplicateRecord
	}
	m.nextID++
	record.ID = m.nextID
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	stored := *record
	stored.Players = append([]models.PlayerInfo(nil), record.Players...)
	m.records = append(m.records, stored)
	m.rounds[key] = struct{}{}
	return nil
}

func (m *Memory) played(name string) []models.GameRecord {
	var out []models.GameRecord
	for _, r := range m.records {
		if _, ok := r.Participant(name); ok {
			out = append(out, r)
		}
	}
	return out
}

func (m *Memory) ListPlayerRecords(_ context.Context, name string, limit int) ([]models.GameRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := m.played(name)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].EndedAt.Equal(out[j].EndedAt) {
			return out[i].EndedAt.After(out[j].EndedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit = clampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []models.GameRecord{}
	}
	return out, nil
}

func (m *Memory) GetPlayerStats(_ context.Context, name string) (*models.PlayerStats, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	played := m.played(name)
	if len(played) == 0 {
		return nil, ErrRecordNotFound
	}
	return models.Tally(name, played), nil
}

func (m *Memory) Close() error { return nil }
