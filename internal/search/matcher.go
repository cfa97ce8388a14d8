package search

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/votetripling/ambassador-api/internal/config"
	"github.com/votetripling/ambassador-api/internal/domain"
	"github.com/votetripling/ambassador-api/internal/store"
	"github.com/votetripling/ambassador-api/internal/store/schema"
)

// AdminFilter is the raw admin search filter; empty fields are ignored
type AdminFilter struct {
	Phone                       string
	Email                       string
	FirstName                   string
	LastName                    string
	VoterID                     string
	Status                      string
	IsAmbassadorAndHasConfirmed *bool
}

// Match is a ranked fuzzy search result
type Match struct {
	Tripler *schema.Tripler
	// Score is the composite name similarity in [0, 1]
	Score float64
	// DistanceKm is the distance to the searching ambassador; zero for admin searches
	DistanceKm float64
	Rank       float64
}

// Matcher finds and suggests triplers
type Matcher struct {
	store store.Store
	cfg   config.SearchConfig
}

// NewMatcher creates a matcher
func NewMatcher(st store.Store, cfg config.SearchConfig) *Matcher {
	return &Matcher{store: st, cfg: cfg}
}

// AdminSearch runs the exact admin filter search. Claimed triplers are included.
func (m *Matcher) AdminSearch(ctx context.Context, filter AdminFilter) ([]*schema.Tripler, error) {
	f := store.TriplerFilter{
		Email:                       domain.NormalizeEmail(filter.Email),
		FirstName:                   domain.NormalizeName(filter.FirstName),
		LastName:                    domain.NormalizeName(filter.LastName),
		VoterID:                     filter.VoterID,
		IsAmbassadorAndHasConfirmed: filter.IsAmbassadorAndHasConfirmed,
		Limit:                       m.cfg.AdminSearchLimit,
	}

	if filter.Phone != "" {
		phone, err := domain.NormalizePhone(filter.Phone)
		if err != nil {
			return nil, domain.NewValidationError(domain.MsgInvalidPhone)
		}
		f.Phone = phone
	}
	if filter.Status != "" {
		status := domain.TriplerStatus(filter.Status)
		if !domain.IsValidTriplerStatus(status) {
			return nil, domain.NewValidationError(domain.MsgInvalidStatus)
		}
		f.Status = status
	}

	triplers, err := m.store.SearchTriplers(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to search triplers: %w", err)
	}
	return triplers, nil
}

// Suggest lists the unclaimed triplers nearest to the ambassador. Non-positive arguments use the configured defaults.
func (m *Matcher) Suggest(ctx context.Context, ambassador *schema.Ambassador, maxDistanceMeters float64, limit int) ([]store.SuggestedTripler, error) {
	if maxDistanceMeters <= 0 {
		maxDistanceMeters = m.cfg.SuggestMaxDistance
	}
	if limit <= 0 || limit > m.cfg.SuggestLimit {
		limit = m.cfg.SuggestLimit
	}

	suggested, err := m.store.SuggestTriplers(ctx, store.SuggestFilter{
		Origin:            ambassador.Location(),
		MaxDistanceMeters: maxDistanceMeters,
		Limit:             limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to suggest triplers: %w", err)
	}
	return suggested, nil
}

// AmbassadorSearch ranks unclaimed triplers by name similarity divided by their distance to the ambassador
func (m *Matcher) AmbassadorSearch(ctx context.Context, ambassador *schema.Ambassador, firstName, lastName string) ([]Match, error) {
	q := newQuery(firstName, lastName)
	if q.empty() {
		return []Match{}, nil
	}

	candidates, err := m.candidates(ctx, q, true)
	if err != nil {
		return nil, err
	}

	origin := ambassador.Location()
	matches := make([]Match, 0, len(candidates))
	for _, t := range candidates {
		score := q.score(t)
		dist := math.Max(domain.DistanceKm(origin, t.Location()), minDistanceKm)
		matches = append(matches, Match{
			Tripler:    t,
			Score:      score,
			DistanceKm: dist,
			Rank:       score / dist,
		})
	}

	return m.rank(q, matches), nil
}

// AdminFuzzySearch ranks every tripler by name similarity alone
func (m *Matcher) AdminFuzzySearch(ctx context.Context, firstName, lastName string) ([]Match, error) {
	q := newQuery(firstName, lastName)
	if q.empty() {
		return []Match{}, nil
	}

	candidates, err := m.candidates(ctx, q, false)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(candidates))
	for _, t := range candidates {
		score := q.score(t)
		matches = append(matches, Match{Tripler: t, Score: score, Rank: score})
	}

	return m.rank(q, matches), nil
}

func (m *Matcher) candidates(ctx context.Context, q query, excludeClaimed bool) ([]*schema.Tripler, error) {
	candidates, err := m.store.FindNameCandidates(ctx, store.NameCandidateFilter{
		FirstName:      q.first,
		LastName:       q.last,
		ExcludeClaimed: excludeClaimed,
		Limit:          m.cfg.CandidatePoolLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find name candidates: %w", err)
	}
	return candidates, nil
}

// rank sorts by rank desc, then by the field that was not queried, then by id, and truncates
func (m *Matcher) rank(q query, matches []Match) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Rank != b.Rank {
			return a.Rank > b.Rank
		}
		if ka, kb := q.tieBreakKey(a.Tripler), q.tieBreakKey(b.Tripler); ka != kb {
			return ka < kb
		}
		return a.Tripler.ID < b.Tripler.ID
	})

	if m.cfg.ResultLimit > 0 && len(matches) > m.cfg.ResultLimit {
		matches = matches[:m.cfg.ResultLimit]
	}
	return matches
}

// query holds the normalized name fields of a fuzzy search
type query struct {
	first string
	last  string
}

func newQuery(firstName, lastName string) query {
	return query{
		first: domain.NormalizeName(firstName),
		last:  domain.NormalizeName(lastName),
	}
}

func (q query) empty() bool {
	return q.first == "" && q.last == ""
}

// score averages the similarity over the queried fields
func (q query) score(t *schema.Tripler) float64 {
	var sum float64
	var n int
	if q.first != "" {
		sum += Similarity(q.first, t.FirstNameNormalized)
		n++
	}
	if q.last != "" {
		sum += Similarity(q.last, t.LastNameNormalized)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func (q query) tieBreakKey(t *schema.Tripler) string {
	switch {
	case q.first == "":
		return t.FirstNameNormalized
	case q.last == "":
		return t.LastNameNormalized
	default:
		return ""
	}
}
