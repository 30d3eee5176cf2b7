package service

import (
	"CraveQuest/internal/api/config"
	"CraveQuest/internal/model"
	"CraveQuest/internal/pkg/cache"
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fakeRecipeRepo struct {
	mu           sync.Mutex
	recipes      map[uint64]*model.Recipe
	interactions []*model.Interaction
	err          error
	listCalls    atomic.Int32
}

func newFakeRecipeRepo() *fakeRecipeRepo {
	return &fakeRecipeRepo{recipes: map[uint64]*model.Recipe{}}
}

func (f *fakeRecipeRepo) addRecipe(id uint64, createdAt time.Time) *model.Recipe {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := &model.Recipe{ID: id, Name: "recipe", CreatedAt: createdAt}
	f.recipes[id] = r
	return r
}

func (f *fakeRecipeRepo) interact(recipeID uint64, t model.InteractionType, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interactions = append(f.interactions, &model.Interaction{RecipeID: recipeID, Type: t, CreatedAt: at})
}

func (f *fakeRecipeRepo) GetRecipe(_ context.Context, id uint64) (*model.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.recipes[id]
	if !ok || r.IsDeleted {
		return nil, nil
	}
	return r, nil
}

func (f *fakeRecipeRepo) GetRecipes(_ context.Context, ids []uint64) ([]*model.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*model.Recipe, 0, len(ids))
	for _, id := range ids {
		if r, ok := f.recipes[id]; ok && !r.IsDeleted {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecipeRepo) ListInteractionsSince(_ context.Context, recipeID uint64, since time.Time) ([]*model.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*model.Interaction, 0)
	for _, it := range f.interactions {
		if it.RecipeID == recipeID && !it.CreatedAt.Before(since) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeRecipeRepo) ListInteractedRecipeIDs(_ context.Context, since time.Time) ([]uint64, error) {
	f.listCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]uint64, 0)
	for _, it := range f.interactions {
		if it.CreatedAt.Before(since) {
			continue
		}
		if r, ok := f.recipes[it.RecipeID]; !ok || r.IsDeleted {
			continue
		}
		if !slices.Contains(ids, it.RecipeID) {
			ids = append(ids, it.RecipeID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

type fakeRatingRepo struct {
	mu      sync.Mutex
	ratings map[[2]uint64]*model.Rating
	aggs    map[uint64]*model.RatingAggregate
	err     error
}

func newFakeRatingRepo() *fakeRatingRepo {
	return &fakeRatingRepo{
		ratings: map[[2]uint64]*model.Rating{},
		aggs:    map[uint64]*model.RatingAggregate{},
	}
}

// rateTaste 每个值代表一个不同用户的口味评分
func (f *fakeRatingRepo) rateTaste(recipeID uint64, levels ...int) {
	for i, l := range levels {
		_, _ = f.UpsertRating(context.Background(), uint64(1000+i), recipeID, model.RatingAxes{Taste: model.Level(l)})
	}
}

func (f *fakeRatingRepo) GetActiveRatings(_ context.Context, recipeID uint64) ([]*model.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ratingsOf(recipeID), nil
}

func (f *fakeRatingRepo) GetRating(_ context.Context, userID, recipeID uint64) (*model.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ratings[[2]uint64{userID, recipeID}], nil
}

func (f *fakeRatingRepo) UpsertRating(_ context.Context, userID, recipeID uint64, axes model.RatingAxes) (*model.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r := &model.Rating{UserID: userID, RecipeID: recipeID, RatingAxes: axes}
	f.ratings[[2]uint64{userID, recipeID}] = r
	f.aggs[recipeID] = model.AggregateOf(recipeID, f.ratingsOf(recipeID))
	return r, nil
}

func (f *fakeRatingRepo) GetAggregate(_ context.Context, recipeID uint64) (*model.RatingAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if agg, ok := f.aggs[recipeID]; ok {
		cp := *agg
		return &cp, nil
	}
	return &model.RatingAggregate{RecipeID: recipeID}, nil
}

func (f *fakeRatingRepo) GetAggregates(_ context.Context, recipeIDs []uint64) (map[uint64]*model.RatingAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := map[uint64]*model.RatingAggregate{}
	for _, id := range recipeIDs {
		if agg, ok := f.aggs[id]; ok {
			cp := *agg
			out[id] = &cp
		}
	}
	return out, nil
}

func (f *fakeRatingRepo) RebuildAggregate(_ context.Context, recipeID uint64) (*model.RatingAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	agg := model.AggregateOf(recipeID, f.ratingsOf(recipeID))
	f.aggs[recipeID] = agg
	return agg, nil
}

func (f *fakeRatingRepo) ratingsOf(recipeID uint64) []*model.Rating {
	out := make([]*model.Rating, 0)
	for k, r := range f.ratings {
		if k[1] == recipeID {
			out = append(out, r)
		}
	}
	return out
}

type memoryBaseline struct {
	mu    sync.Mutex
	snaps map[model.RankingKey]*model.RankingSnapshot
}

func newMemoryBaseline() *memoryBaseline {
	return &memoryBaseline{snaps: map[model.RankingKey]*model.RankingSnapshot{}}
}

func (m *memoryBaseline) Load(_ context.Context, key model.RankingKey) (*model.RankingSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snaps[key], nil
}

func (m *memoryBaseline) Save(_ context.Context, snap *model.RankingSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snap.Key] = snap
	return nil
}

type memoryTrendStore struct {
	mu     sync.Mutex
	counts map[string]map[string]int64
	totals map[string]int64
}

func newMemoryTrendStore() *memoryTrendStore {
	return &memoryTrendStore{counts: map[string]map[string]int64{}, totals: map[string]int64{}}
}

func bucketName(dimension string, bucket int64) string {
	return dimension + ":" + strconv.FormatInt(bucket, 10)
}

func (m *memoryTrendStore) Incr(_ context.Context, dimension string, bucket int64, key string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := bucketName(dimension, bucket)
	if m.counts[name] == nil {
		m.counts[name] = map[string]int64{}
	}
	m.counts[name][key]++
	m.totals[name]++
	return nil
}

func (m *memoryTrendStore) Counts(_ context.Context, dimension string, bucket int64) (map[string]int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := bucketName(dimension, bucket)
	out := map[string]int64{}
	for k, v := range m.counts[name] {
		out[k] = v
	}
	return out, m.totals[name], nil
}

// memoryBackend 与 redis 缓存实现相同的版本语义
type memoryBackend struct {
	mu      sync.Mutex
	entries map[string]*cache.Entry
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{entries: map[string]*cache.Entry{}}
}

func (m *memoryBackend) Get(_ context.Context, key string) (*cache.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *memoryBackend) Set(_ context.Context, key string, e *cache.Entry, _ time.Duration) (*cache.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.entries[key]; ok && cur.Version > e.Version {
		cp := *cur
		return &cp, nil
	}
	cp := *e
	m.entries[key] = &cp
	return e, nil
}

func (m *memoryBackend) MarkStale(_ context.Context, prefix string, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.entries {
		if strings.HasPrefix(k, prefix) {
			e.ExpiresAt = time.Time{}
			e.Version = max(e.Version, version)
		}
	}
	return nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Cache.ComputeTimeout = 2 * time.Second
	return cfg
}

func newTestCoordinator(cfg *config.Config) *cache.Coordinator {
	return cache.NewCoordinator(cfg.Cache, newMemoryBackend(), cache.WithPassthrough(IsInputError))
}

func newTestCalculator(cfg *config.Config) *ValueCalculator {
	calc, err := NewValueCalculator(cfg.Value)
	if err != nil {
		panic(err)
	}
	calc.now = fixedClock
	return calc
}
