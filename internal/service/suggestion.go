package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/almuerzo-cl/almuerzo/backend/internal/cache"
	"github.com/almuerzo-cl/almuerzo/backend/internal/database"
	"github.com/almuerzo-cl/almuerzo/backend/internal/geo"
	"github.com/almuerzo-cl/almuerzo/backend/internal/logging"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

const (
	suggestionCount    = 4
	maxRankedCandidate = 12
	maxReasoning       = 300
	suggestionCacheTTL = 10 * time.Minute
	suggestionLimit    = 20
	suggestionWindow   = time.Hour

	// Weights of the distance and price factors at the sliders' minimum.
	distanceWeight = 0.3
	budgetWeight   = 0.3
	paymentBoost   = 0.05
)

// candidate is a restaurant considered for a suggestion with its menu
// reduced to the requested service.
type candidate struct {
	restaurant models.Restaurant
	menu       []models.MenuItem
	favorite   bool
	best       *models.MenuItem
	similarity float64
	score      float64
}

func (c *candidate) dish(id uuid.UUID) *models.MenuItem {
	for i := range c.menu {
		if c.menu[i].ID == id {
			return &c.menu[i]
		}
	}
	return nil
}

// SuggestionService ranks nearby menus against the diner's cravings and asks
// the chat model to pick and explain the final suggestions.
type SuggestionService struct {
	db       *gorm.DB
	catalog  ICatalogService
	embedder Embedder
	chat     ChatModel
	store    cache.Store
	limitKm  float64
	log      *zap.Logger
	now      func() time.Time
}

// NewSuggestionService builds the service. chat may be nil, in which case
// every answer is the ranked fallback.
func NewSuggestionService(db *gorm.DB, catalog ICatalogService, embedder Embedder, chat ChatModel, store cache.Store, limitKm float64, log *zap.Logger) *SuggestionService {
	if store == nil {
		store = cache.NewMemoryStore()
	}
	return &SuggestionService{
		db:       db,
		catalog:  catalog,
		embedder: embedder,
		chat:     chat,
		store:    store,
		limitKm:  limitKm,
		log:      logging.OrNop(log),
		now:      time.Now,
	}
}

func isTakeaway(serviceType string) bool {
	return models.NormalizeService(serviceType) == models.ServiceTakeaway
}

func validateSuggestion(req *types.MenuSuggestionRequest) error {
	if strings.TrimSpace(req.Cravings) == "" {
		return invalid("cravings are required")
	}
	if req.Budget < 0 || req.Budget > 100 || req.Distance < 0 || req.Distance > 100 {
		return invalid("budget and distance must be between 0 and 100")
	}
	switch models.NormalizeService(req.ServiceType) {
	case "", models.ServiceDineIn, models.ServiceTakeaway:
		return nil
	default:
		return invalid("unknown service type %q", req.ServiceType)
	}
}

func (s *SuggestionService) Suggest(ctx context.Context, userID uuid.UUID, req *types.MenuSuggestionRequest) (*types.MenuSuggestionResponse, error) {
	if err := validateSuggestion(req); err != nil {
		return nil, err
	}
	if err := s.allow(ctx, userID); err != nil {
		return nil, err
	}

	key := s.cacheKey(userID, req)
	if data, err := s.store.Get(ctx, key); err == nil {
		var cached types.MenuSuggestionResponse
		if err := json.Unmarshal(data, &cached); err == nil {
			cached.Cached = true
			return &cached, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("Suggestion cache read failed", zap.Error(err))
	}

	ranked, err := s.rank(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	resp := s.answer(ctx, req, ranked)

	if data, err := json.Marshal(resp); err == nil {
		if err := s.store.Set(ctx, key, data, suggestionCacheTTL); err != nil {
			s.log.Warn("Suggestion cache write failed", zap.Error(err))
		}
	}
	return resp, nil
}

// allow counts the call against the user's hourly allowance.
func (s *SuggestionService) allow(ctx context.Context, userID uuid.UUID) error {
	window := s.now().Truncate(suggestionWindow)
	key := fmt.Sprintf("suggest:rate:%s:%d", userID, window.Unix())
	n, err := s.store.Incr(ctx, key, suggestionWindow)
	if err != nil {
		s.log.Warn("Suggestion rate limit check failed", zap.Error(err))
		return nil
	}
	if n > suggestionLimit {
		return fmt.Errorf("%w: %d suggestions per hour", ErrRateLimited, suggestionLimit)
	}
	return nil
}

func (s *SuggestionService) cacheKey(userID uuid.UUID, req *types.MenuSuggestionRequest) string {
	keyed := *req
	origin := s.catalog.Origin(req.Origin)
	keyed.Origin = &origin
	keyed.ServiceType = models.NormalizeService(req.ServiceType)
	// favorites shape the ranking, the prompt and the reasoning, so answers
	// are never shared between users
	payload := struct {
		User uuid.UUID                   `json:"user"`
		Req  types.MenuSuggestionRequest `json:"req"`
	}{User: userID, Req: keyed}
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return "suggest:" + hex.EncodeToString(sum[:])
}

// rank loads the candidates and orders them by craving similarity combined
// with the distance and budget preferences, keeping the best ones.
func (s *SuggestionService) rank(ctx context.Context, userID uuid.UUID, req *types.MenuSuggestionRequest) ([]*candidate, error) {
	service := models.NormalizeService(req.ServiceType)
	if service == "" {
		service = models.ServiceDineIn
	}

	var (
		restaurants []models.Restaurant
		favorites   map[uuid.UUID]bool
		query       []float32
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		restaurants, err = s.catalog.ListRestaurants(gctx, types.RestaurantFilter{Origin: req.Origin, Service: service})
		return err
	})
	if userID != uuid.Nil {
		g.Go(func() error {
			var err error
			favorites, err = s.catalog.FavoriteIDs(gctx, userID)
			return err
		})
	}
	if s.embedder != nil {
		g.Go(func() error {
			vec, err := s.embedder.Embed(gctx, req.Cravings)
			if err != nil {
				s.log.Warn("Failed to embed cravings, ranking without similarity", zap.Error(err))
				return nil
			}
			query = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := map[uuid.UUID]*candidate{}
	var ids []uuid.UUID
	for _, r := range restaurants {
		favorite := favorites[r.ID]
		if (req.FavoritesOnly && !favorite) || (req.NewOnly && !r.IsNew) || (req.FeaturedOnly && !r.IsFeatured) {
			continue
		}
		byID[r.ID] = &candidate{restaurant: r, favorite: favorite}
		ids = append(ids, r.ID)
	}
	if len(ids) == 0 {
		return nil, ErrNoCandidates
	}

	q := s.db.WithContext(ctx).Where("restaurant_id IN ?", ids)
	if service == models.ServiceTakeaway {
		q = q.Where("available_for_takeaway = ?", true)
	}
	var items []models.MenuItem
	if err := q.Order("name").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load menus: %w", err)
	}
	itemIDs := make([]uuid.UUID, 0, len(items))
	for _, m := range items {
		c := byID[m.RestaurantID]
		c.menu = append(c.menu, m)
		itemIDs = append(itemIDs, m.ID)
	}

	sims, err := s.similarities(ctx, query, itemIDs)
	if err != nil {
		return nil, err
	}

	var ranked []*candidate
	for _, id := range ids {
		c := byID[id]
		if len(c.menu) == 0 {
			continue
		}
		c.best = bestDish(c.menu, sims)
		c.similarity = sims[c.best.ID]
		c.score = s.score(c, req)
		ranked = append(ranked, c)
	}
	if len(ranked) == 0 {
		return nil, ErrNoCandidates
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].restaurant.DistanceKm < ranked[j].restaurant.DistanceKm
	})
	if len(ranked) > maxRankedCandidate {
		ranked = ranked[:maxRankedCandidate]
	}
	return ranked, nil
}

// similarities returns the cosine similarity between query and each item's
// stored embedding from the same model. PostgreSQL computes it with pgvector.
func (s *SuggestionService) similarities(ctx context.Context, query []float32, itemIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	out := map[uuid.UUID]float64{}
	if len(query) == 0 || len(itemIDs) == 0 {
		return out, nil
	}

	if database.IsPostgres(s.db) {
		var rows []struct {
			MenuItemID uuid.UUID
			Similarity float64
		}
		err := s.db.WithContext(ctx).Model(&models.MenuItemEmbedding{}).
			Select("menu_item_id, 1 - (embedding <=> ?) AS similarity", pgvector.NewVector(query)).
			Where("menu_item_id IN ? AND model = ?", itemIDs, s.embedder.Model()).
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to score menu items: %w", err)
		}
		for _, r := range rows {
			out[r.MenuItemID] = r.Similarity
		}
		return out, nil
	}

	var embeddings []models.MenuItemEmbedding
	err := s.db.WithContext(ctx).
		Where("menu_item_id IN ? AND model = ?", itemIDs, s.embedder.Model()).
		Find(&embeddings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load embeddings: %w", err)
	}
	for _, e := range embeddings {
		out[e.MenuItemID] = Cosine(query, e.Embedding.Slice())
	}
	return out, nil
}

// bestDish picks the most similar item; featured and cheaper dishes win ties.
func bestDish(menu []models.MenuItem, sims map[uuid.UUID]float64) *models.MenuItem {
	best := &menu[0]
	for i := 1; i < len(menu); i++ {
		m := &menu[i]
		sm, sb := sims[m.ID], sims[best.ID]
		switch {
		case sm > sb:
			best = m
		case sm == sb && m.IsFeatured && !best.IsFeatured:
			best = m
		case sm == sb && m.IsFeatured == best.IsFeatured && m.UnitPrice() < best.UnitPrice():
			best = m
		}
	}
	return best
}

func (s *SuggestionService) score(c *candidate, req *types.MenuSuggestionRequest) float64 {
	walk := 1.0
	if s.limitKm > 0 {
		walk = 1 - math.Min(c.restaurant.DistanceKm/s.limitKm, 1)
	}
	level := c.restaurant.PriceLevel
	if level < 1 || level > 4 {
		level = 2
	}
	cheap := 1 - float64(level-1)/3

	score := c.similarity +
		distanceWeight*float64(100-req.Distance)/100*walk +
		budgetWeight*float64(100-req.Budget)/100*cheap
	for _, m := range req.PaymentMethods {
		if c.restaurant.PaymentMethods.Contains(m) {
			score += paymentBoost
			break
		}
	}
	return score
}

type modelAnswer struct {
	Suggestions []struct {
		RestaurantID string `json:"restaurant_id"`
		DishID       string `json:"dish_id"`
		Reasoning    string `json:"reasoning"`
		Distance     string `json:"distance"`
	} `json:"suggestions"`
}

// answer asks the chat model to choose among the ranked candidates and
// completes its picks from the ranking.
func (s *SuggestionService) answer(ctx context.Context, req *types.MenuSuggestionRequest, ranked []*candidate) *types.MenuSuggestionResponse {
	want := suggestionCount
	if len(ranked) < want {
		want = len(ranked)
	}
	resp := &types.MenuSuggestionResponse{Source: types.SourceFallback}

	var picks []types.MenuSuggestion
	if s.chat != nil {
		raw, err := s.ask(ctx, req, ranked, want)
		if err == nil {
			picks, err = shapeAnswer(raw, ranked, want)
		}
		if err != nil {
			s.log.Warn("Chat model suggestion failed, using ranked fallback", zap.Error(err))
			picks = nil
		} else {
			resp.Source = types.SourceModel
		}
	}
	resp.Suggestions = fillSuggestions(picks, ranked, want, req)
	return resp
}

func (s *SuggestionService) ask(ctx context.Context, req *types.MenuSuggestionRequest, ranked []*candidate, want int) (string, error) {
	prompt, err := renderSuggestionPrompt(req, ranked, want)
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return s.chat.CompleteJSON(ctx, suggestionSystemPrompt, prompt)
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}

// shapeAnswer resolves the model's ids against the candidates. Entries with
// unknown ids, dishes from another restaurant or repeated restaurants are
// dropped.
func shapeAnswer(raw string, ranked []*candidate, want int) ([]types.MenuSuggestion, error) {
	var ans modelAnswer
	if err := json.Unmarshal([]byte(stripFences(raw)), &ans); err != nil {
		return nil, fmt.Errorf("failed to parse model answer: %w", err)
	}
	byID := make(map[uuid.UUID]*candidate, len(ranked))
	for _, c := range ranked {
		byID[c.restaurant.ID] = c
	}

	seen := map[uuid.UUID]bool{}
	var out []types.MenuSuggestion
	for _, sug := range ans.Suggestions {
		if len(out) == want {
			break
		}
		rid, err := uuid.Parse(sug.RestaurantID)
		if err != nil {
			continue
		}
		c, ok := byID[rid]
		if !ok || seen[rid] {
			continue
		}
		did, err := uuid.Parse(sug.DishID)
		if err != nil {
			continue
		}
		dish := c.dish(did)
		if dish == nil {
			continue
		}
		distance := strings.TrimSpace(sug.Distance)
		if distance == "" {
			distance = geo.WalkingEstimate(c.restaurant.DistanceKm)
		}
		seen[rid] = true
		out = append(out, types.MenuSuggestion{
			Restaurant: summary(c.restaurant),
			Dish:       *dish,
			Reasoning:  truncate(strings.TrimSpace(sug.Reasoning), maxReasoning),
			Distance:   distance,
		})
	}
	return out, nil
}

// fillSuggestions tops picks up to want with the best ranked restaurants not
// already suggested.
func fillSuggestions(picks []types.MenuSuggestion, ranked []*candidate, want int, req *types.MenuSuggestionRequest) []types.MenuSuggestion {
	seen := map[uuid.UUID]bool{}
	for _, p := range picks {
		seen[p.Restaurant.ID] = true
	}
	out := picks
	for _, c := range ranked {
		if len(out) >= want {
			break
		}
		if seen[c.restaurant.ID] {
			continue
		}
		seen[c.restaurant.ID] = true
		walk := geo.WalkingEstimate(c.restaurant.DistanceKm)
		out = append(out, types.MenuSuggestion{
			Restaurant: summary(c.restaurant),
			Dish:       *c.best,
			Reasoning:  fallbackReasoning(c, req, walk),
			Distance:   walk,
		})
	}
	if out == nil {
		out = []types.MenuSuggestion{}
	}
	return out
}

func fallbackReasoning(c *candidate, req *types.MenuSuggestionRequest, walk string) string {
	text := fmt.Sprintf("%s de %s calza con tus ganas de %s. Queda a %s",
		c.best.Name, c.restaurant.Name, truncate(strings.TrimSpace(req.Cravings), 80), walk)
	if c.favorite {
		text += " y es uno de tus favoritos"
	}
	return truncate(text+".", maxReasoning)
}

// summary drops the menu from a restaurant returned in a suggestion.
func summary(r models.Restaurant) models.Restaurant {
	r.MenuItems = nil
	r.Discounts = nil
	return r
}
