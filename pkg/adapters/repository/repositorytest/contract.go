// Package repositorytest holds behaviour every ports.LinkRepository must show.
package repositorytest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-link-registry/pkg/core/domain"
	"github.com/wadjakorntonsri/go-link-registry/pkg/ports"
)

// Factory returns an empty repository. Cleanup is the caller's job (t.Cleanup).
type Factory func(t *testing.T) ports.LinkRepository

// base carries nanoseconds; stores may keep only microseconds, and Insert then
// writes the stored value back onto the link.
var base = time.Date(2026, 1, 2, 3, 4, 5, 600, time.UTC)

func newLink(code string, created time.Time) *domain.Link {
	return &domain.Link{
		ID:        uuid.NewString(),
		Code:      code,
		TargetURL: "https://example.com/" + code,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

// Run exercises the repository contract against repositories built by newRepo.
func Run(t *testing.T, newRepo Factory) {
	ctx := context.Background()

	t.Run("insert then get", func(t *testing.T) {
		repo := newRepo(t)
		link := newLink("abc123", base)
		require.NoError(t, repo.Insert(ctx, link))

		got, err := repo.GetByCode(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, link.ID, got.ID)
		assert.Equal(t, link.TargetURL, got.TargetURL)
		assert.Equal(t, int64(0), got.Clicks)
		assert.Nil(t, got.LastClickedAt)
		assert.True(t, got.CreatedAt.Equal(link.CreatedAt), "created_at %v, inserted %v", got.CreatedAt, link.CreatedAt)
		assert.True(t, got.UpdatedAt.Equal(link.UpdatedAt), "updated_at %v, inserted %v", got.UpdatedAt, link.UpdatedAt)
		assert.WithinDuration(t, base, got.CreatedAt, time.Microsecond)
	})

	t.Run("get missing", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetByCode(ctx, "nope42")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("duplicate code conflicts", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, newLink("dup001", base)))

		err := repo.Insert(ctx, newLink("dup001", base.Add(time.Second)))
		assert.ErrorIs(t, err, domain.ErrCodeConflict)

		got, err := repo.GetByCode(ctx, "dup001")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/dup001", got.TargetURL)
	})

	t.Run("concurrent inserts of one code have a single winner", func(t *testing.T) {
		repo := newRepo(t)
		const n = 20

		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = repo.Insert(ctx, newLink("race01", base.Add(time.Duration(i))))
			}(i)
		}
		wg.Wait()

		wins, conflicts := 0, 0
		for _, err := range errs {
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrCodeConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, wins)
		assert.Equal(t, n-1, conflicts)
	})

	t.Run("list newest first", func(t *testing.T) {
		repo := newRepo(t)
		for i, code := range []string{"first1", "second", "third3"} {
			require.NoError(t, repo.Insert(ctx, newLink(code, base.Add(time.Duration(i)*time.Minute))))
		}

		links, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, links, 3)
		assert.Equal(t, "third3", links[0].Code)
		assert.Equal(t, "second", links[1].Code)
		assert.Equal(t, "first1", links[2].Code)
	})

	t.Run("list empty", func(t *testing.T) {
		repo := newRepo(t)
		links, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("record hit", func(t *testing.T) {
		repo := newRepo(t)
		link := newLink("hit001", base)
		require.NoError(t, repo.Insert(ctx, link))

		at := base.Add(time.Hour)
		target, err := repo.RecordHit(ctx, "hit001", at)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/hit001", target)

		got, err := repo.GetByCode(ctx, "hit001")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Clicks)
		require.NotNil(t, got.LastClickedAt)
		assert.WithinDuration(t, at, *got.LastClickedAt, time.Microsecond)
		assert.True(t, got.UpdatedAt.Equal(*got.LastClickedAt))
		assert.True(t, got.CreatedAt.Equal(link.CreatedAt))
	})

	t.Run("microsecond timestamps round-trip exactly", func(t *testing.T) {
		repo := newRepo(t)
		created := base.Truncate(time.Microsecond)
		require.NoError(t, repo.Insert(ctx, newLink("micro1", created)))

		at := created.Add(time.Hour + 7*time.Microsecond)
		_, err := repo.RecordHit(ctx, "micro1", at)
		require.NoError(t, err)

		got, err := repo.GetByCode(ctx, "micro1")
		require.NoError(t, err)
		assert.True(t, got.CreatedAt.Equal(created), "created_at %v", got.CreatedAt)
		require.NotNil(t, got.LastClickedAt)
		assert.True(t, got.LastClickedAt.Equal(at), "last_clicked_at %v", got.LastClickedAt)
	})

	t.Run("record hit on missing code does not create it", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.RecordHit(ctx, "ghost1", base)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = repo.GetByCode(ctx, "ghost1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		links, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("concurrent hits are never lost", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, newLink("busy01", base)))

		const n = 150
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, err := repo.RecordHit(ctx, "busy01", base.Add(time.Duration(i)*time.Millisecond)); err != nil {
					errs <- fmt.Errorf("hit %d: %w", i, err)
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Error(err)
		}

		got, err := repo.GetByCode(ctx, "busy01")
		require.NoError(t, err)
		assert.Equal(t, int64(n), got.Clicks)
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, newLink("gone01", base)))

		require.NoError(t, repo.Delete(ctx, "gone01"))
		assert.ErrorIs(t, repo.Delete(ctx, "gone01"), domain.ErrNotFound)

		_, err := repo.GetByCode(ctx, "gone01")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = repo.RecordHit(ctx, "gone01", base)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		links, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("deleted code can be reused", func(t *testing.T) {
		repo := newRepo(t)
		old := newLink("reuse1", base)
		require.NoError(t, repo.Insert(ctx, old))
		_, err := repo.RecordHit(ctx, "reuse1", base)
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, "reuse1"))

		fresh := newLink("reuse1", base.Add(time.Minute))
		fresh.TargetURL = "https://example.org/fresh"
		require.NoError(t, repo.Insert(ctx, fresh))

		got, err := repo.GetByCode(ctx, "reuse1")
		require.NoError(t, err)
		assert.Equal(t, fresh.ID, got.ID)
		assert.Equal(t, "https://example.org/fresh", got.TargetURL)
		assert.Equal(t, int64(0), got.Clicks)
		assert.Nil(t, got.LastClickedAt)
	})

	t.Run("insert keeps counters of restored links", func(t *testing.T) {
		repo := newRepo(t)
		clicked := base.Add(2 * time.Hour)
		link := newLink("restor", base)
		link.Clicks = 42
		link.LastClickedAt = &clicked
		link.UpdatedAt = clicked
		require.NoError(t, repo.Insert(ctx, link))

		got, err := repo.GetByCode(ctx, "restor")
		require.NoError(t, err)
		assert.Equal(t, int64(42), got.Clicks)
		require.NotNil(t, got.LastClickedAt)
		assert.True(t, got.LastClickedAt.Equal(*link.LastClickedAt))
		assert.WithinDuration(t, clicked, *got.LastClickedAt, time.Microsecond)
	})

	t.Run("hits racing a delete leave nothing behind", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, newLink("zombie", base)))

		const n = 50
		var wg sync.WaitGroup
		errs := make(chan error, n)
		start := make(chan struct{})
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				_, err := repo.RecordHit(ctx, "zombie", base.Add(time.Duration(i)*time.Millisecond))
				if err != nil && !errors.Is(err, domain.ErrNotFound) {
					errs <- fmt.Errorf("hit %d: %w", i, err)
				}
			}(i)
		}
		deleted := make(chan error, 1)
		go func() {
			<-start
			deleted <- repo.Delete(ctx, "zombie")
		}()
		close(start)

		require.NoError(t, <-deleted)
		// once the delete is acknowledged no hit may find the link again
		_, err := repo.RecordHit(ctx, "zombie", base)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		wg.Wait()
		close(errs)
		for err := range errs {
			t.Error(err)
		}

		_, err = repo.GetByCode(ctx, "zombie")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		links, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, links)
	})
}
