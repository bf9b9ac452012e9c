package ledger

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/raushankrgupta/fitly-tryon/models"
)

type tripleKey struct {
	userID, person, garment string
}

// MemoryStore is an in-process ledger for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.OutfitRecord
	keys    map[tripleKey]struct{}
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keys: make(map[tripleKey]struct{}),
		now:  time.Now,
	}
}

func (m *MemoryStore) Insert(ctx context.Context, rec models.OutfitRecord) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := validate(rec); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := tripleKey{rec.UserID, rec.PersonImagePath, rec.GarmentImagePath}
	if _, exists := m.keys[key]; exists {
		return false, nil
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = m.now().UTC()
	}
	rec.ID = strconv.Itoa(len(m.records) + 1)
	m.keys[key] = struct{}{}
	m.records = append(m.records, rec)
	return true, nil
}

func (m *MemoryStore) ListByUser(ctx context.Context, userID string, page, limit int) (*models.OutfitPage, error) {
	m.mu.RLock()
	var mine []models.OutfitRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].UserID == userID {
			mine = append(mine, m.records[i])
		}
	}
	m.mu.RUnlock()

	// Walked newest-inserted first, so the stable sort breaks created_at ties the same way.
	sort.SliceStable(mine, func(i, j int) bool {
		return mine[i].CreatedAt.After(mine[j].CreatedAt)
	})

	page, offset := normalizePage(page, limit)
	total := int64(len(mine))
	if limit > 0 {
		if offset >= len(mine) {
			mine = nil
		} else {
			end := offset + limit
			if end > len(mine) {
				end = len(mine)
			}
			mine = mine[offset:end]
		}
	}
	return newPage(mine, total, page, limit), nil
}

func (m *MemoryStore) Close() error { return nil }
