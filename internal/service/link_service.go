package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"shortlink/internal/codegen"
	"shortlink/internal/domain"
	"shortlink/internal/metrics"
	"shortlink/internal/repository"
)

// CodeGenerator produces candidate short codes
type CodeGenerator interface {
	Generate(length int) string
}

// LinkService is the link store: it allocates short codes, resolves them
// and reports diagnostics. HTTP handlers and the CLI call it; it owns no
// state of its own beyond the repository it writes through.
//
// Uniqueness and click counting are delegated to the repository, which
// enforces them inside the storage engine. LinkService adds the retry loop
// for generated codes and nothing else that could race.
type LinkService struct {
	repo        repository.LinkRepository
	generator   CodeGenerator
	logger      *slog.Logger
	codeLength  int
	maxAttempts int // 0 means retry until a free code is found
}

// Option configures a LinkService
type Option func(*LinkService)

// WithCodeLength sets the length of generated codes
func WithCodeLength(length int) Option {
	return func(s *LinkService) {
		if length > 0 {
			s.codeLength = length
		}
	}
}

// WithMaxAttempts caps how many generated codes are tried per create.
// Zero or negative keeps retries unbounded.
func WithMaxAttempts(attempts int) Option {
	return func(s *LinkService) {
		if attempts < 0 {
			attempts = 0
		}
		s.maxAttempts = attempts
	}
}

// NewLinkService creates a new link service
func NewLinkService(repo repository.LinkRepository, generator CodeGenerator, logger *slog.Logger, opts ...Option) *LinkService {
	s := &LinkService{
		repo:       repo,
		generator:  generator,
		logger:     logger,
		codeLength: codegen.DefaultLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores longURL under requestedCode, or under a freshly generated
// code when requestedCode is empty, and returns the code used.
//
// A taken requestedCode fails with domain.ErrDuplicateCode and is never
// retried. A taken generated code is replaced and retried.
func (s *LinkService) Create(ctx context.Context, longURL, requestedCode string) (string, error) {
	if requestedCode != "" {
		return s.createRequested(ctx, longURL, requestedCode)
	}
	return s.createGenerated(ctx, longURL)
}

func (s *LinkService) createRequested(ctx context.Context, longURL, code string) (string, error) {
	link := domain.NewLink(longURL, code)

	if err := s.repo.Insert(ctx, link); err != nil {
		if errors.Is(err, domain.ErrDuplicateCode) {
			metrics.RecordDuplicateRequest()
			return "", fmt.Errorf("short code %q: %w", code, err)
		}
		s.logger.Error("Failed to create link", "short_code", code, "error", err)
		return "", fmt.Errorf("failed to create link: %w", err)
	}

	metrics.RecordLinkCreated("requested")
	s.logger.Info("Link created", "id", link.ID, "short_code", code)
	return code, nil
}

func (s *LinkService) createGenerated(ctx context.Context, longURL string) (string, error) {
	for attempt := 1; s.maxAttempts == 0 || attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("failed to create link: %w", err)
		}

		link := domain.NewLink(longURL, s.generator.Generate(s.codeLength))

		err := s.repo.Insert(ctx, link)
		if err == nil {
			metrics.RecordLinkCreated("generated")
			s.logger.Info("Link created", "id", link.ID, "short_code", link.ShortCode, "attempts", attempt)
			return link.ShortCode, nil
		}

		if !errors.Is(err, domain.ErrDuplicateCode) {
			s.logger.Error("Failed to create link", "error", err)
			return "", fmt.Errorf("failed to create link: %w", err)
		}

		metrics.RecordCodeCollision()
		s.logger.Debug("Generated short code collided", "short_code", link.ShortCode, "attempt", attempt)
	}

	return "", fmt.Errorf("%w after %d attempts", domain.ErrCodeGeneration, s.maxAttempts)
}

// Resolve returns the long URL for code and counts the visit.
// Fails with domain.ErrNotFound for an unknown code.
func (s *LinkService) Resolve(ctx context.Context, code string) (string, error) {
	link, err := s.repo.IncrementClicks(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.RecordNotFound("resolve")
			return "", fmt.Errorf("resolve %q: %w", code, err)
		}
		s.logger.Error("Failed to resolve link", "short_code", code, "error", err)
		return "", fmt.Errorf("resolve %q: %w", code, err)
	}

	metrics.RecordResolve()
	s.logger.Debug("Link resolved", "short_code", code, "clicks", link.Clicks)
	return link.LongURL, nil
}

// Diagnostics returns the stored link, including its click count, without
// modifying it. Fails with domain.ErrNotFound for an unknown code.
func (s *LinkService) Diagnostics(ctx context.Context, code string) (*domain.Link, error) {
	link, err := s.repo.GetByShortCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.RecordNotFound("diagnostics")
			return nil, fmt.Errorf("diagnostics %q: %w", code, err)
		}
		s.logger.Error("Failed to read link", "short_code", code, "error", err)
		return nil, fmt.Errorf("diagnostics %q: %w", code, err)
	}

	return link, nil
}

// Ping reports whether the underlying store is reachable
func (s *LinkService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
