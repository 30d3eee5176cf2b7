package service

import (
	"CraveQuest/internal/model"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type valueFixture struct {
	recipes *fakeRecipeRepo
	ratings *fakeRatingRepo
	svc     ValueService
}

func newValueFixture() *valueFixture {
	cfg := testConfig()
	f := &valueFixture{recipes: newFakeRecipeRepo(), ratings: newFakeRatingRepo()}
	f.svc = NewValueService(f.recipes, f.ratings, newTestCalculator(cfg), newTestCoordinator(cfg), cfg.Cache)
	return f
}

func TestValueService_CachesUntilInvalidated(t *testing.T) {
	f := newValueFixture()
	ctx := context.Background()
	f.recipes.addRecipe(1, testNow.Add(-time.Hour))
	f.ratings.rateTaste(1, 5, 4, 5)

	vs, stale, err := f.svc.GetValueScore(ctx, 1, model.ModeTasteOnly)
	require.NoError(t, err)
	assert.False(t, stale)
	assert.InDelta(t, 77.78, vs.Score, 0.01)
	assert.Equal(t, int64(3), vs.Inputs.SampleCount)

	// 未失效前读到的是缓存
	_, _ = f.ratings.UpsertRating(ctx, 2000, 1, model.RatingAxes{Taste: model.Level(0)})
	vs, _, err = f.svc.GetValueScore(ctx, 1, model.ModeTasteOnly)
	require.NoError(t, err)
	assert.Equal(t, int64(3), vs.Inputs.SampleCount)

	require.NoError(t, f.svc.InvalidateRecipe(ctx, 1))
	vs, stale, err = f.svc.GetValueScore(ctx, 1, model.ModeTasteOnly)
	require.NoError(t, err)
	assert.False(t, stale)
	assert.Equal(t, int64(4), vs.Inputs.SampleCount)
	assert.InDelta(t, 58.33, vs.Score, 0.01)
}

func TestValueService_ModesCachedSeparately(t *testing.T) {
	f := newValueFixture()
	ctx := context.Background()
	f.recipes.addRecipe(1, testNow)
	f.ratings.rateTaste(1, 6, 6, 6)

	taste, _, err := f.svc.GetValueScore(ctx, 1, model.ModeTasteOnly)
	require.NoError(t, err)
	simple, _, err := f.svc.GetValueScore(ctx, 1, model.ModeSimpleValue)
	require.NoError(t, err)

	assert.Equal(t, model.ModeTasteOnly, taste.Mode)
	assert.Equal(t, model.ModeSimpleValue, simple.Mode)
}

func TestValueService_InputErrors(t *testing.T) {
	f := newValueFixture()
	ctx := context.Background()

	_, _, err := f.svc.GetValueScore(ctx, 1, "fancy")
	assert.ErrorIs(t, err, ErrUnknownMode)

	_, _, err = f.svc.GetValueScore(ctx, 404, model.ModeTasteOnly)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
	code, ok := CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, NotFound, code)
}

func TestValueService_ServesStaleWhenRepositoryFails(t *testing.T) {
	f := newValueFixture()
	ctx := context.Background()
	f.recipes.addRecipe(1, testNow)
	f.ratings.rateTaste(1, 5, 4, 5)

	first, _, err := f.svc.GetValueScore(ctx, 1, model.ModeTasteOnly)
	require.NoError(t, err)

	require.NoError(t, f.svc.InvalidateRecipe(ctx, 1))
	f.recipes.err = errors.New("db down")

	vs, stale, err := f.svc.GetValueScore(ctx, 1, model.ModeTasteOnly)
	require.NoError(t, err)
	assert.True(t, stale)
	assert.Equal(t, first.Score, vs.Score)
}

func TestValueService_FailsWithoutStaleData(t *testing.T) {
	f := newValueFixture()
	f.recipes.addRecipe(1, testNow)
	f.recipes.err = errors.New("db down")

	_, _, err := f.svc.GetValueScore(context.Background(), 1, model.ModeTasteOnly)
	require.Error(t, err)
	code, ok := CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ServiceUnavailable, code)
}
