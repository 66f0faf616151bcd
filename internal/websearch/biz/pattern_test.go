package biz

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/lk2023060901/property-research-backend/internal/websearch/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu       sync.Mutex
	patterns map[string]*types.SavedPattern
	listErr  error
}

func newMemRepo() *memRepo {
	return &memRepo{patterns: map[string]*types.SavedPattern{}}
}

func (r *memRepo) Create(_ context.Context, p *types.SavedPattern) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.patterns[p.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*types.SavedPattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patterns[id]
	if !ok {
		return nil, ErrPatternNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) List(ctx context.Context, filter *types.PatternFilter) ([]*types.SavedPattern, int64, error) {
	all, err := r.ListAll(ctx, filter.ProjectID)
	if err != nil {
		return nil, 0, err
	}
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(all) {
		return []*types.SavedPattern{}, int64(len(all)), nil
	}
	end := min(start+filter.PageSize, len(all))
	return all[start:end], int64(len(all)), nil
}

func (r *memRepo) ListAll(_ context.Context, projectID string) ([]*types.SavedPattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*types.SavedPattern
	for _, p := range r.patterns {
		if p.ProjectID == projectID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memRepo) Update(_ context.Context, p *types.SavedPattern) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patterns[p.ID]; !ok {
		return ErrPatternNotFound
	}
	cp := *p
	r.patterns[p.ID] = &cp
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patterns[id]; !ok {
		return ErrPatternNotFound
	}
	delete(r.patterns, id)
	return nil
}

func createPattern(t *testing.T, f *fixture, project, name, customer string) *types.SavedPattern {
	t.Helper()
	saved, err := f.uc.CreatePattern(context.Background(), &CreatePatternRequest{
		ProjectID: project,
		Name:      name,
		Pattern:   types.SearchPattern{CustomerName: customer},
	})
	require.NoError(t, err)
	return saved
}

func TestCreatePatternRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreatePatternRequest
		wantErr error
	}{
		{"valid", CreatePatternRequest{ProjectID: "p", Name: "n", Pattern: types.SearchPattern{CustomerName: "ABC"}}, nil},
		{"missing project", CreatePatternRequest{Name: "n", Pattern: types.SearchPattern{CustomerName: "ABC"}}, ErrProjectIDRequired},
		{"blank name", CreatePatternRequest{ProjectID: "p", Name: "  ", Pattern: types.SearchPattern{CustomerName: "ABC"}}, ErrPatternNameRequired},
		{"invalid pattern", CreatePatternRequest{ProjectID: "p", Name: "n"}, types.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSearchUseCase_PatternCRUD(t *testing.T) {
	f := newFixture(t, testConfigs())
	ctx := context.Background()

	saved := createPattern(t, f, " proj-1 ", " ABC ", "株式会社ABC")
	_, err := uuid.Parse(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "proj-1", saved.ProjectID)
	assert.Equal(t, "ABC", saved.Name)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := f.uc.GetPattern(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Pattern, got.Pattern)

	newName := "ABC renamed"
	newPattern := types.SearchPattern{CustomerName: "株式会社ABC", Address: "東京都"}
	updated, err := f.uc.UpdatePattern(ctx, saved.ID, &UpdatePatternRequest{Name: &newName, Pattern: &newPattern})
	require.NoError(t, err)
	assert.Equal(t, newName, updated.Name)
	assert.Equal(t, "東京都", updated.Pattern.Address)
	assert.False(t, updated.UpdatedAt.Before(saved.UpdatedAt))

	blank := " "
	_, err = f.uc.UpdatePattern(ctx, saved.ID, &UpdatePatternRequest{Name: &blank})
	assert.ErrorIs(t, err, ErrPatternNameRequired)

	_, err = f.uc.UpdatePattern(ctx, saved.ID, &UpdatePatternRequest{Pattern: &types.SearchPattern{}})
	assert.ErrorIs(t, err, types.ErrValidation)

	require.NoError(t, f.uc.DeletePattern(ctx, saved.ID))
	_, err = f.uc.GetPattern(ctx, saved.ID)
	assert.ErrorIs(t, err, ErrPatternNotFound)
	assert.ErrorIs(t, f.uc.DeletePattern(ctx, saved.ID), ErrPatternNotFound)
}

func TestSearchUseCase_GetPattern_InvalidID(t *testing.T) {
	f := newFixture(t, testConfigs())

	_, err := f.uc.GetPattern(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrPatternNotFound)
	assert.ErrorIs(t, f.uc.DeletePattern(context.Background(), "not-a-uuid"), ErrPatternNotFound)
}

func TestSearchUseCase_ListPatterns(t *testing.T) {
	f := newFixture(t, testConfigs())
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		createPattern(t, f, "proj-1", name, "ABC")
	}
	createPattern(t, f, "proj-2", "other", "XYZ")

	filter := &types.PatternFilter{ProjectID: "proj-1", Page: 2, PageSize: 2}
	patterns, total, err := f.uc.ListPatterns(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, patterns, 1)
	assert.Equal(t, "c", patterns[0].Name)

	filter = &types.PatternFilter{ProjectID: "proj-1"}
	_, _, err = f.uc.ListPatterns(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, filter.Page)
	assert.Equal(t, 20, filter.PageSize)

	_, _, err = f.uc.ListPatterns(ctx, &types.PatternFilter{})
	assert.ErrorIs(t, err, ErrProjectIDRequired)
}

func TestSearchUseCase_RunPattern(t *testing.T) {
	f := newFixture(t, testConfigs())
	ctx := context.Background()

	saved := createPattern(t, f, "proj-1", "abc", "株式会社ABC")

	resp, err := f.uc.RunPattern(ctx, saved.ID, "serpapi", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, types.ProviderSerpAPI, resp.Provider)

	resp, err = f.uc.RunPattern(ctx, saved.ID, "serpapi", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Page)

	// override does not touch the stored pattern
	got, err := f.uc.GetPattern(ctx, saved.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Pattern.Page)

	_, err = f.uc.RunPattern(ctx, uuid.New().String(), "serpapi", 0)
	assert.ErrorIs(t, err, ErrPatternNotFound)
}

func TestSearchUseCase_RunProject(t *testing.T) {
	f := newFixture(t, testConfigs())
	ctx := context.Background()

	createPattern(t, f, "proj-1", "a", "Alpha")
	createPattern(t, f, "proj-1", "b", "Beta")
	createPattern(t, f, "proj-1", "c", "Gamma")

	runs, err := f.uc.RunProject(ctx, "proj-1", "google")
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for i, name := range []string{"a", "b", "c"} {
		assert.Equal(t, name, runs[i].Name)
		require.NotNil(t, runs[i].Response)
		assert.Empty(t, runs[i].Error)
	}
	assert.Equal(t, "Alpha", runs[0].Response.Query)
	assert.Equal(t, int32(3), f.google.calls.Load())
}

func TestSearchUseCase_RunProject_PartialFailure(t *testing.T) {
	f := newFixture(t, testConfigs())
	f.serp.err = errBoom

	createPattern(t, f, "proj-1", "a", "Alpha")

	runs, err := f.uc.RunProject(context.Background(), "proj-1", "serpapi")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Nil(t, runs[0].Response)
	assert.Equal(t, "boom", runs[0].Error)
}

func TestSearchUseCase_RunProject_Errors(t *testing.T) {
	f := newFixture(t, testConfigs())
	ctx := context.Background()

	_, err := f.uc.RunProject(ctx, "", "google")
	assert.ErrorIs(t, err, ErrProjectIDRequired)

	_, err = f.uc.RunProject(ctx, "proj-1", "bing")
	assert.ErrorIs(t, err, types.ErrProviderNotFound)

	f.repo.listErr = errBoom
	_, err = f.uc.RunProject(ctx, "proj-1", "google")
	assert.ErrorIs(t, err, errBoom)

	f.repo.listErr = nil
	runs, err := f.uc.RunProject(ctx, "empty", "google")
	require.NoError(t, err)
	assert.Empty(t, runs)
}

type recordingObserver struct {
	total    int
	finished []int
	failed   int
}

func (o *recordingObserver) Started(total int) { o.total = total }

func (o *recordingObserver) Finished(index int, run *types.PatternRun) {
	o.finished = append(o.finished, index)
	if run.Error != "" {
		o.failed++
	}
}

func TestSearchUseCase_RunProjectObserved(t *testing.T) {
	f := newFixture(t, testConfigs())
	createPattern(t, f, "proj-1", "a", "Alpha")
	createPattern(t, f, "proj-1", "b", "Beta")

	obs := &recordingObserver{}
	runs, err := f.uc.RunProjectObserved(context.Background(), "proj-1", "google", obs)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, 2, obs.total)
	assert.ElementsMatch(t, []int{0, 1}, obs.finished)
	assert.Zero(t, obs.failed)

	// selection errors are reported before Started
	obs = &recordingObserver{total: -1}
	_, err = f.uc.RunProjectObserved(context.Background(), "proj-1", "bing", obs)
	assert.Error(t, err)
	assert.Equal(t, -1, obs.total)
}
