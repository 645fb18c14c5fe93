package ports

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/go-link-registry/pkg/core/domain"
)

// LinkRepository defines storage operations for links.
// Implementations must enforce code uniqueness on Insert and perform
// RecordHit as a single atomic operation in the store.
type LinkRepository interface {
	Insert(ctx context.Context, link *domain.Link) error // domain.ErrCodeConflict on duplicate code
	GetByCode(ctx context.Context, code string) (*domain.Link, error)
	List(ctx context.Context) ([]domain.Link, error) // newest first
	Delete(ctx context.Context, code string) error    // hard delete
	RecordHit(ctx context.Context, code string, at time.Time) (string, error)
	Close() error
}

// LinkService defines the registry operations
type LinkService interface {
	Create(ctx context.Context, targetURL, code string) (*domain.Link, error)
	Get(ctx context.Context, code string) (*domain.Link, error)
	List(ctx context.Context) ([]domain.Link, error)
	Delete(ctx context.Context, code string) error
	Resolve(ctx context.Context, code string) (string, error)
}
