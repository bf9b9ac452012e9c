package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/raushankrgupta/fitly-tryon/models"
)

func openTempSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

// backends lists the stores that run without external services.
func backends(t *testing.T) map[string]Store {
	return map[string]Store{
		"sqlite": openTempSQLite(t),
		"memory": NewMemoryStore(),
	}
}

func record(user, person, garment, result string, at time.Time) models.OutfitRecord {
	return models.OutfitRecord{
		UserID:           user,
		PersonImagePath:  person,
		GarmentImagePath: garment,
		ResultImagePath:  result,
		CreatedAt:        at,
	}
}

func TestInsertIsIdempotentPerTriple(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first := record("alice", "https://store/alice/1.jpg", "https://store/alice/2.jpg", "https://store/results/alice/1.jpg", base)
			created, err := store.Insert(ctx, first)
			if err != nil || !created {
				t.Fatalf("first Insert() = %v, %v; want true, nil", created, err)
			}

			again := first
			again.ResultImagePath = "https://store/results/alice/2.jpg"
			again.CreatedAt = base.Add(time.Minute)
			created, err = store.Insert(ctx, again)
			if err != nil || created {
				t.Fatalf("second Insert() = %v, %v; want false, nil", created, err)
			}

			page, err := store.ListByUser(ctx, "alice", 0, 0)
			if err != nil {
				t.Fatalf("ListByUser() error = %v", err)
			}
			if page.Total != 1 || len(page.Outfits) != 1 {
				t.Fatalf("got %d rows (total %d), want 1", len(page.Outfits), page.Total)
			}
			got := page.Outfits[0]
			if got.ResultImagePath != first.ResultImagePath {
				t.Errorf("ResultImagePath = %q, first writer should win", got.ResultImagePath)
			}
			if !got.CreatedAt.Equal(base) {
				t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, base)
			}
			if got.ID == "" {
				t.Error("ID is empty, want store-assigned id")
			}
		})
	}
}

func TestInsertConcurrentDuplicates(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := record("bob", "p", "g", "r", time.Now())

			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				created int
			)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ok, err := store.Insert(ctx, rec)
					if err != nil {
						t.Errorf("Insert() error = %v", err)
						return
					}
					if ok {
						mu.Lock()
						created++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			if created != 1 {
				t.Fatalf("created = %d, want exactly 1", created)
			}
		})
	}
}

func TestInsertRejectsIncompleteRecord(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Insert(context.Background(), record("alice", "", "g", "r", time.Now()))
			if !errors.Is(err, ErrInvalidRecord) {
				t.Fatalf("Insert() error = %v, want ErrInvalidRecord", err)
			}
		})
	}
}

func TestListByUserOrderingAndIsolation(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 5; i++ {
				rec := record("alice", fmt.Sprintf("p%d", i), "g", fmt.Sprintf("r%d", i), base.Add(time.Duration(i)*time.Hour))
				if _, err := store.Insert(ctx, rec); err != nil {
					t.Fatalf("Insert() error = %v", err)
				}
			}
			if _, err := store.Insert(ctx, record("mallory", "p0", "g", "rm", base.Add(10*time.Hour))); err != nil {
				t.Fatalf("Insert() error = %v", err)
			}

			all, err := store.ListByUser(ctx, "alice", 0, 0)
			if err != nil {
				t.Fatalf("ListByUser() error = %v", err)
			}
			if all.Total != 5 || len(all.Outfits) != 5 {
				t.Fatalf("got %d rows (total %d), want 5", len(all.Outfits), all.Total)
			}
			for i, rec := range all.Outfits {
				if rec.UserID != "alice" {
					t.Errorf("row %d belongs to %q", i, rec.UserID)
				}
				if want := fmt.Sprintf("r%d", 4-i); rec.ResultImagePath != want {
					t.Errorf("row %d = %q, want %q (newest first)", i, rec.ResultImagePath, want)
				}
			}
			if all.CurrentPage != 1 || all.TotalPages != 1 {
				t.Errorf("page = %d/%d, want 1/1", all.CurrentPage, all.TotalPages)
			}

			second, err := store.ListByUser(ctx, "alice", 2, 2)
			if err != nil {
				t.Fatalf("ListByUser() error = %v", err)
			}
			if len(second.Outfits) != 2 || second.Outfits[0].ResultImagePath != "r2" || second.Outfits[1].ResultImagePath != "r1" {
				t.Fatalf("page 2 = %+v, want r2, r1", second.Outfits)
			}
			if second.CurrentPage != 2 || second.TotalPages != 3 || second.Total != 5 {
				t.Errorf("page meta = %d/%d total %d, want 2/3 total 5", second.CurrentPage, second.TotalPages, second.Total)
			}

			beyond, err := store.ListByUser(ctx, "alice", 9, 2)
			if err != nil {
				t.Fatalf("ListByUser() error = %v", err)
			}
			if beyond.Outfits == nil || len(beyond.Outfits) != 0 {
				t.Errorf("page 9 = %#v, want empty non-nil slice", beyond.Outfits)
			}

			for _, tt := range []struct {
				name        string
				page, limit int
			}{
				{"huge page", (1 << 62) + 1, 3},
				{"max page", math.MaxInt, 2},
				{"max page single row", math.MaxInt, 1},
			} {
				far, err := store.ListByUser(ctx, "alice", tt.page, tt.limit)
				if err != nil {
					t.Fatalf("%s: ListByUser() error = %v", tt.name, err)
				}
				if far.Outfits == nil || len(far.Outfits) != 0 {
					t.Errorf("%s: got %d rows, want none", tt.name, len(far.Outfits))
				}
				if far.Total != 5 || far.CurrentPage < 2 {
					t.Errorf("%s: page meta = %d total %d", tt.name, far.CurrentPage, far.Total)
				}
			}

			none, err := store.ListByUser(ctx, "nobody", 0, 0)
			if err != nil {
				t.Fatalf("ListByUser() error = %v", err)
			}
			if none.Total != 0 || none.TotalPages != 0 || none.Outfits == nil {
				t.Errorf("empty ledger = %+v", none)
			}
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), Options{Backend: "postgres"}); err == nil {
		t.Fatal("Open() error = nil, want unknown backend error")
	}
}
