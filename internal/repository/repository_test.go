package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/anime-shed/body-measure-go/pkg/models"
)

func newResult(id string, lockedAt time.Time) *models.StoredResult {
	return &models.StoredResult{
		ID:                 id,
		SessionID:          "session-" + id,
		LockedAt:           lockedAt,
		DistanceCm:         180.5,
		ShoulderWidthCm:    45.5,
		RawShoulderWidthCm: 43.5,
		TorsoHeightCm:      54.25,
		SizeLabel:          "L",
		LockSignal:         models.LockSignalStillness,
	}
}

func repositories(t *testing.T) map[string]ResultRepository {
	t.Helper()
	sqliteRepo, err := NewSQLiteResultRepository(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("NewSQLiteResultRepository() error = %v", err)
	}
	repos := map[string]ResultRepository{
		"memory": NewMemoryResultRepository(),
		"sqlite": sqliteRepo,
	}
	t.Cleanup(func() {
		for _, r := range repos {
			r.Close()
		}
	})
	return repos
}

func TestResultRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	lockedAt := time.Date(2025, 3, 1, 12, 0, 0, 123456789, time.UTC)

	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			want := newResult("a", lockedAt)
			if err := repo.SaveResult(ctx, want); err != nil {
				t.Fatalf("SaveResult() error = %v", err)
			}

			got, err := repo.GetResult(ctx, "a")
			if err != nil {
				t.Fatalf("GetResult() error = %v", err)
			}
			if !got.LockedAt.Equal(want.LockedAt) {
				t.Errorf("LockedAt = %v, want %v", got.LockedAt, want.LockedAt)
			}
			copied := *got
			copied.LockedAt = want.LockedAt
			if copied != *want {
				t.Errorf("GetResult() = %+v, want %+v", *got, *want)
			}

			if err := repo.SaveResult(ctx, want); !errors.Is(err, ErrDuplicateResult) {
				t.Errorf("Expected ErrDuplicateResult, got %v", err)
			}
			if _, err := repo.GetResult(ctx, "missing"); !errors.Is(err, ErrResultNotFound) {
				t.Errorf("Expected ErrResultNotFound, got %v", err)
			}
		})
	}
}

func TestResultRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 5; i++ {
				res := newResult(fmt.Sprintf("r%d", i), base.Add(time.Duration(i)*time.Minute))
				if err := repo.SaveResult(ctx, res); err != nil {
					t.Fatalf("SaveResult() error = %v", err)
				}
			}

			got, err := repo.ListResults(ctx, 3)
			if err != nil {
				t.Fatalf("ListResults() error = %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("Expected 3 results, got %d", len(got))
			}
			for i, want := range []string{"r4", "r3", "r2"} {
				if got[i].ID != want {
					t.Errorf("result %d = %s, want %s", i, got[i].ID, want)
				}
			}

			all, err := repo.ListResults(ctx, 0)
			if err != nil {
				t.Fatalf("ListResults() error = %v", err)
			}
			if len(all) != 5 {
				t.Errorf("Expected 5 results with default limit, got %d", len(all))
			}
		})
	}
}

func TestMemoryResultRepository_Closed(t *testing.T) {
	repo := NewMemoryResultRepository()
	repo.Close()

	err := repo.SaveResult(context.Background(), newResult("a", time.Now()))
	if !errors.Is(err, ErrRepositoryUnavailable) {
		t.Errorf("Expected ErrRepositoryUnavailable, got %v", err)
	}
}
