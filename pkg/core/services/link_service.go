package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/go-link-registry/pkg/core/domain"
	"github.com/wadjakorntonsri/go-link-registry/pkg/metrics"
	"github.com/wadjakorntonsri/go-link-registry/pkg/ports"
)

const (
	DefaultMaxAttempts = 10
	DefaultCodeLength  = domain.MinCodeLength
)

// LinkService is the link registry. It keeps no state of its own: every call
// is a fresh round-trip to the repository, which owns uniqueness and counters.
type LinkService struct {
	repo        ports.LinkRepository
	now         func() time.Time
	newCode     func() (string, error)
	maxAttempts int
	log         *zap.Logger
	metrics     *metrics.Metrics
}

type Option func(*LinkService)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *LinkService) { s.now = now }
}

// WithMaxAttempts bounds how many generated codes Create tries before giving up.
func WithMaxAttempts(n int) Option {
	return func(s *LinkService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithCodeLength sets the length of generated codes, clamped to the valid range.
func WithCodeLength(n int) Option {
	return func(s *LinkService) {
		n = max(domain.MinCodeLength, min(n, domain.MaxCodeLength))
		s.newCode = func() (string, error) { return generateShortCode(n) }
	}
}

// WithCodeGenerator replaces the random code source.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *LinkService) { s.newCode = gen }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *LinkService) { s.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *LinkService) { s.metrics = m }
}

func NewLinkService(repo ports.LinkRepository, opts ...Option) *LinkService {
	s := &LinkService{
		repo:        repo,
		now:         func() time.Time { return time.Now().UTC() },
		newCode:     func() (string, error) { return generateShortCode(DefaultCodeLength) },
		maxAttempts: DefaultMaxAttempts,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers targetURL under code, or under a generated code when code is empty.
func (s *LinkService) Create(ctx context.Context, targetURL, code string) (link *domain.Link, err error) {
	defer s.observe("create", time.Now(), &err)

	if !domain.ValidTarget(targetURL) {
		return nil, domain.ErrInvalidTarget
	}
	if code != "" && !domain.ValidCode(code) {
		return nil, domain.ErrInvalidCode
	}

	now := s.timestamp()
	link = &domain.Link{
		ID:        uuid.NewString(),
		Code:      code,
		TargetURL: targetURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if code != "" {
		if err := s.repo.Insert(ctx, link); err != nil {
			return nil, s.storageErr("insert", err)
		}
		s.log.Info("link created", zap.String("code", link.Code), zap.String("target_url", link.TargetURL))
		return link, nil
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		link.Code, err = s.newCode()
		if err != nil {
			return nil, fmt.Errorf("generate short code: %w", err)
		}

		err = s.repo.Insert(ctx, link)
		if err == nil {
			s.log.Info("link created", zap.String("code", link.Code), zap.String("target_url", link.TargetURL), zap.Int("attempt", attempt))
			return link, nil
		}
		if !errors.Is(err, domain.ErrCodeConflict) {
			return nil, s.storageErr("insert", err)
		}
		s.log.Debug("generated code collided", zap.String("code", link.Code), zap.Int("attempt", attempt), zap.Int("max_attempts", s.maxAttempts))
	}

	s.log.Warn("code generation attempts exhausted", zap.Int("max_attempts", s.maxAttempts))
	return nil, domain.ErrExhaustedCodeSpace
}

// Restore re-inserts a previously exported link, keeping its code, ID and
// counters. It applies the same checks as Create; missing IDs and timestamps
// are filled in. An existing code yields domain.ErrCodeConflict.
func (s *LinkService) Restore(ctx context.Context, link *domain.Link) (err error) {
	defer s.observe("restore", time.Now(), &err)

	if !domain.ValidCode(link.Code) {
		return domain.ErrInvalidCode
	}
	if !domain.ValidTarget(link.TargetURL) {
		return domain.ErrInvalidTarget
	}
	if link.Clicks < 0 {
		return domain.ErrInvalidCounters
	}

	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = s.timestamp()
	}
	if link.UpdatedAt.IsZero() {
		link.UpdatedAt = link.CreatedAt
		if link.LastClickedAt != nil && link.LastClickedAt.After(link.UpdatedAt) {
			link.UpdatedAt = *link.LastClickedAt
		}
	}

	if err = s.repo.Insert(ctx, link); err != nil {
		return s.storageErr("insert", err)
	}
	s.log.Info("link restored", zap.String("code", link.Code), zap.Int64("clicks", link.Clicks))
	return nil
}

// Resolve records a hit on code and returns its target.
func (s *LinkService) Resolve(ctx context.Context, code string) (target string, err error) {
	defer s.observe("resolve", time.Now(), &err)

	if !domain.ValidCode(code) {
		return "", domain.ErrNotFound
	}

	target, err = s.repo.RecordHit(ctx, code, s.timestamp())
	if err != nil {
		return "", s.storageErr("record hit", err)
	}
	return target, nil
}

func (s *LinkService) Get(ctx context.Context, code string) (link *domain.Link, err error) {
	defer s.observe("get", time.Now(), &err)

	if !domain.ValidCode(code) {
		return nil, domain.ErrNotFound
	}

	link, err = s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, s.storageErr("get", err)
	}
	return link, nil
}

// List returns every live link, newest first.
func (s *LinkService) List(ctx context.Context) (links []domain.Link, err error) {
	defer s.observe("list", time.Now(), &err)

	links, err = s.repo.List(ctx)
	if err != nil {
		return nil, s.storageErr("list", err)
	}
	if links == nil {
		links = []domain.Link{}
	}
	return links, nil
}

func (s *LinkService) Delete(ctx context.Context, code string) (err error) {
	defer s.observe("delete", time.Now(), &err)

	if !domain.ValidCode(code) {
		return domain.ErrNotFound
	}

	if err = s.repo.Delete(ctx, code); err != nil {
		return s.storageErr("delete", err)
	}
	s.log.Info("link deleted", zap.String("code", code))
	return nil
}

// storageErr passes classified repository errors through and marks the rest as storage failures.
func (s *LinkService) storageErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrCodeConflict) {
		return err
	}
	s.log.Error("storage failure", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
}

// timestamp is microsecond precision, the finest every store keeps.
func (s *LinkService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *LinkService) observe(op string, started time.Time, err *error) {
	s.metrics.ObserveOperation(op, started, *err)
}

func generateShortCode(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(domain.Alphabet))))
		if err != nil {
			return "", err
		}
		b[i] = domain.Alphabet[num.Int64()]
	}
	return string(b), nil
}

var _ ports.LinkService = (*LinkService)(nil)
