package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lk2023060901/property-research-backend/internal/pkg/logger"
	"github.com/lk2023060901/property-research-backend/internal/websearch/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PatternRepo defines the repository interface for saved patterns
type PatternRepo interface {
	Create(ctx context.Context, p *types.SavedPattern) error
	GetByID(ctx context.Context, id string) (*types.SavedPattern, error)
	List(ctx context.Context, filter *types.PatternFilter) ([]*types.SavedPattern, int64, error)
	ListAll(ctx context.Context, projectID string) ([]*types.SavedPattern, error)
	Update(ctx context.Context, p *types.SavedPattern) error
	Delete(ctx context.Context, id string) error
}

// CreatePatternRequest represents a request to save a pattern
type CreatePatternRequest struct {
	ProjectID string
	Name      string
	Pattern   types.SearchPattern
}

// Validate validates the create request
func (r *CreatePatternRequest) Validate() error {
	if strings.TrimSpace(r.ProjectID) == "" {
		return ErrProjectIDRequired
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrPatternNameRequired
	}
	return r.Pattern.Validate()
}

// UpdatePatternRequest carries the fields to change; nil fields are kept
type UpdatePatternRequest struct {
	Name    *string
	Pattern *types.SearchPattern
}

// CreatePattern validates and stores a new pattern
func (uc *SearchUseCase) CreatePattern(ctx context.Context, req *CreatePatternRequest) (*types.SavedPattern, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	saved := &types.SavedPattern{
		ID:        uuid.New().String(),
		ProjectID: strings.TrimSpace(req.ProjectID),
		Name:      strings.TrimSpace(req.Name),
		Pattern:   req.Pattern,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.repo.Create(ctx, saved); err != nil {
		return nil, fmt.Errorf("failed to create search pattern: %w", err)
	}

	logger.FromContext(ctx).Info("search pattern created",
		zap.String("pattern_id", saved.ID),
		zap.String("project_id", saved.ProjectID),
	)
	return saved, nil
}

// GetPattern retrieves a saved pattern by ID
func (uc *SearchUseCase) GetPattern(ctx context.Context, id string) (*types.SavedPattern, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrPatternNotFound
	}

	saved, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPatternNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get search pattern: %w", err)
	}
	return saved, nil
}

// ListPatterns returns one page of a project's patterns and the total count
func (uc *SearchUseCase) ListPatterns(ctx context.Context, filter *types.PatternFilter) ([]*types.SavedPattern, int64, error) {
	if strings.TrimSpace(filter.ProjectID) == "" {
		return nil, 0, ErrProjectIDRequired
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	patterns, total, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list search patterns: %w", err)
	}
	return patterns, total, nil
}

// UpdatePattern applies req to an existing pattern
func (uc *SearchUseCase) UpdatePattern(ctx context.Context, id string, req *UpdatePatternRequest) (*types.SavedPattern, error) {
	saved, err := uc.GetPattern(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrPatternNameRequired
		}
		saved.Name = name
	}
	if req.Pattern != nil {
		if err := req.Pattern.Validate(); err != nil {
			return nil, err
		}
		saved.Pattern = *req.Pattern
	}
	saved.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, saved); err != nil {
		if errors.Is(err, ErrPatternNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update search pattern: %w", err)
	}
	return saved, nil
}

// DeletePattern removes a saved pattern
func (uc *SearchUseCase) DeletePattern(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrPatternNotFound
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrPatternNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete search pattern: %w", err)
	}

	logger.FromContext(ctx).Info("search pattern deleted", zap.String("pattern_id", id))
	return nil
}

// RunPattern executes a saved pattern. A page above zero overrides the
// stored page.
func (uc *SearchUseCase) RunPattern(ctx context.Context, id, providerName string, page int) (*types.SearchResponse, error) {
	saved, err := uc.GetPattern(ctx, id)
	if err != nil {
		return nil, err
	}

	p := saved.Pattern
	if page > 0 {
		p = p.WithPage(page)
	}
	return uc.Search(ctx, providerName, &p)
}

// RunObserver receives the progress of a project run. Calls are serialized;
// Started precedes every Finished.
type RunObserver interface {
	Started(total int)
	Finished(index int, run *types.PatternRun)
}

// RunProject executes every pattern of a project with bounded concurrency.
// Per-pattern failures are reported in the result; only cancellation and
// provider selection errors fail the whole run.
func (uc *SearchUseCase) RunProject(ctx context.Context, projectID, providerName string) ([]*types.PatternRun, error) {
	return uc.RunProjectObserved(ctx, projectID, providerName, nil)
}

// RunProjectObserved is RunProject reporting each pattern as it completes.
// obs may be nil.
func (uc *SearchUseCase) RunProjectObserved(ctx context.Context, projectID, providerName string, obs RunObserver) ([]*types.PatternRun, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, ErrProjectIDRequired
	}

	id, err := types.ParseProviderID(providerName)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, providerName)
	}
	if _, err := uc.compiler(id); err != nil {
		return nil, err
	}

	ctx = logger.WithProjectID(ctx, projectID)

	patterns, err := uc.repo.ListAll(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list search patterns: %w", err)
	}

	var mu sync.Mutex
	if obs != nil {
		obs.Started(len(patterns))
	}

	runs := make([]*types.PatternRun, len(patterns))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.maxConcurrency)

	for i, saved := range patterns {
		g.Go(func() error {
			run := &types.PatternRun{PatternID: saved.ID, Name: saved.Name}
			runs[i] = run

			p := saved.Pattern
			resp, err := uc.Search(gctx, string(id), &p)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				run.Error = err.Error()
			} else {
				run.Response = resp
			}

			if obs != nil {
				mu.Lock()
				obs.Finished(i, run)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("project search completed",
		zap.String("project_id", projectID),
		zap.Int("patterns", len(patterns)),
	)
	return runs, nil
}
