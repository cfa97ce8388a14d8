package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/votetripling/ambassador-api/internal/domain"
	"github.com/votetripling/ambassador-api/internal/store/schema"
)

// memoryStore is an in-process Store. Every operation runs under one mutex, which gives each
// conditional write the same atomicity the postgres implementation gets from row locks and
// unique indexes. Records are cloned on the way in and out.
type memoryStore struct {
	mu sync.Mutex

	triplers    map[string]*schema.Tripler
	ambassadors map[string]*schema.Ambassador
	payouts     map[string]*schema.Payout
	claims      map[string]*schema.Claim    // by tripler id
	wasOnce     map[string]*schema.WasOnce  // by ambassador id
	getsPaid    map[string]*schema.GetsPaid // by payout id
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() Store {
	return &memoryStore{
		triplers:    map[string]*schema.Tripler{},
		ambassadors: map[string]*schema.Ambassador{},
		payouts:     map[string]*schema.Payout{},
		claims:      map[string]*schema.Claim{},
		wasOnce:     map[string]*schema.WasOnce{},
		getsPaid:    map[string]*schema.GetsPaid{},
	}
}

func (m *memoryStore) triplerByPhone(phone string) *schema.Tripler {
	for _, t := range m.triplers {
		if t.Phone == phone {
			return t
		}
	}
	return nil
}

func (m *memoryStore) triplerByEmail(email string) *schema.Tripler {
	for _, t := range m.triplers {
		if t.Email != nil && *t.Email == email {
			return t
		}
	}
	return nil
}

func (m *memoryStore) isWasOnceTarget(triplerID string) bool {
	for _, w := range m.wasOnce {
		if w.TriplerID == triplerID {
			return true
		}
	}
	return false
}

func (m *memoryStore) CreateTripler(_ context.Context, input CreateTriplerInput) (*schema.Tripler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.triplerByPhone(input.Phone) != nil {
		return nil, domain.ErrPhoneTaken
	}
	if input.Email != nil && m.triplerByEmail(*input.Email) != nil {
		return nil, domain.ErrEmailTaken
	}

	tripler := newTripler(input, time.Now().UTC())
	m.triplers[tripler.ID] = tripler
	return tripler.Clone(), nil
}

func (m *memoryStore) GetTriplerByID(_ context.Context, id string) (*schema.Tripler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.triplers[id]; ok {
		return t.Clone(), nil
	}
	return nil, nil
}

func (m *memoryStore) GetTriplerByPhone(_ context.Context, phone string) (*schema.Tripler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t := m.triplerByPhone(phone); t != nil {
		return t.Clone(), nil
	}
	return nil, nil
}

func (m *memoryStore) GetTriplerByEmail(_ context.Context, email string) (*schema.Tripler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t := m.triplerByEmail(email); t != nil {
		return t.Clone(), nil
	}
	return nil, nil
}

func (m *memoryStore) GetTriplersByIDs(_ context.Context, ids []string) (map[string]*schema.Tripler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make(map[string]*schema.Tripler, len(ids))
	for _, id := range ids {
		if t, ok := m.triplers[id]; ok {
			result[id] = t.Clone()
		}
	}
	return result, nil
}

func (m *memoryStore) UpdateTripler(_ context.Context, id string, input UpdateTriplerInput) (*schema.Tripler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.triplers[id]
	if !ok {
		return nil, nil
	}

	if input.Phone != nil {
		if other := m.triplerByPhone(*input.Phone); other != nil && other.ID != id {
			return nil, domain.ErrPhoneTaken
		}
	}
	if input.Email != nil {
		if other := m.triplerByEmail(*input.Email); other != nil && other.ID != id {
			return nil, domain.ErrEmailTaken
		}
	}

	updated := t.Clone()
	changed := false
	if input.FirstName != nil {
		updated.FirstName = *input.FirstName
		updated.FirstNameNormalized = domain.NormalizeName(*input.FirstName)
		changed = true
	}
	if input.LastName != nil {
		last := *input.LastName
		updated.LastName = &last
		updated.LastNameNormalized = domain.NormalizeName(last)
		changed = true
	}
	if input.Phone != nil {
		updated.Phone = *input.Phone
		changed = true
	}
	if input.Email != nil {
		email := *input.Email
		updated.Email = &email
		changed = true
	}
	if input.VoterID != nil {
		voterID := *input.VoterID
		updated.VoterID = &voterID
		changed = true
	}
	if input.Address != nil {
		addr := *input.Address
		addr.SchemaVersion = schema.AddressSchemaVersion
		updated.Address = datatypes.NewJSONType(addr)
		changed = true
	}
	if input.Location != nil {
		updated.Latitude = input.Location.Latitude
		updated.Longitude = input.Location.Longitude
		changed = true
	}
	if changed {
		updated.UpdatedAt = time.Now().UTC()
	}

	m.triplers[id] = updated
	return updated.Clone(), nil
}

func (m *memoryStore) DeleteTripler(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.deleteTripler(id), nil
}

func (m *memoryStore) DetachTripler(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.triplers[id]; ok && t.Status == domain.TriplerStatusConfirmed {
		return false, domain.ErrStatusMismatch
	}
	return m.deleteTripler(id), nil
}

// deleteTripler removes a tripler and its edges; the caller holds the lock
func (m *memoryStore) deleteTripler(id string) bool {
	if _, ok := m.triplers[id]; !ok {
		return false
	}

	delete(m.triplers, id)
	delete(m.claims, id)
	for ambassadorID, w := range m.wasOnce {
		if w.TriplerID == id {
			delete(m.wasOnce, ambassadorID)
		}
	}
	return true
}

func (m *memoryStore) UpdateTriplerPhone(_ context.Context, id string, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.triplers[id]
	if !ok {
		return nil
	}
	if other := m.triplerByPhone(phone); other != nil && other.ID != id {
		return domain.ErrPhoneTaken
	}

	t.Phone = phone
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memoryStore) BeginConfirmation(_ context.Context, input BeginConfirmationInput) (*schema.Tripler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.triplers[input.TriplerID]
	if !ok || !containsStatus(input.FromStatuses, t.Status) {
		return nil, domain.ErrStatusMismatch
	}
	if other := m.triplerByPhone(input.Phone); other != nil && other.ID != t.ID {
		return nil, domain.ErrPhoneTaken
	}

	t.Status = domain.TriplerStatusPending
	t.Phone = input.Phone
	t.Triplees = datatypes.NewJSONType(schema.NewTriplees(input.Triplees))
	t.Verification = append(t.Verification, input.Verification...)
	t.UpdatedAt = time.Now().UTC()

	return t.Clone(), nil
}

func containsStatus(statuses []domain.TriplerStatus, status domain.TriplerStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (m *memoryStore) ConfirmTripler(_ context.Context, input ConfirmTriplerInput) (*ConfirmResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.triplers[input.TriplerID]
	if !ok || t.Status != domain.TriplerStatusPending {
		return nil, domain.ErrStatusMismatch
	}
	claim, ok := m.claims[t.ID]
	if !ok || claim.AmbassadorID != input.AmbassadorID {
		return nil, domain.ErrStatusMismatch
	}
	if input.PayoutAmount < 0 || input.ReferralBonusAmount < 0 {
		return nil, errNegativeAmount
	}

	at := input.ConfirmedAt
	t.Status = domain.TriplerStatusConfirmed
	t.ConfirmedAt = &at
	t.UpdatedAt = time.Now().UTC()

	return &ConfirmResult{
		Tripler: t.Clone(),
		Payout:  m.createPayout(input.AmbassadorID, t.ID, input.PayoutAmount, at),
		Bonus:   m.applyReferralBonus(input.AmbassadorID, input.ReferralBonusAmount, at),
	}, nil
}

func (m *memoryStore) AppendCarrierInfo(_ context.Context, id string, record domain.CarrierRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.triplers[id]
	if !ok {
		return nil
	}

	t.CarrierInfo = append(t.CarrierInfo, record)
	if record.IsBlocked {
		t.BlockedCarrierInfo = append(t.BlockedCarrierInfo, record)
	}
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memoryStore) ListTriplersPendingUpgrade(_ context.Context, limit int) ([]*schema.Tripler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*schema.Tripler
	for _, t := range m.triplers {
		if t.Status != domain.TriplerStatusConfirmed || t.UpgradeSMSSent {
			continue
		}
		if _, claimed := m.claims[t.ID]; !claimed {
			continue
		}
		out = append(out, t.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i].ConfirmedAt, out[j].ConfirmedAt
		if ai != nil && aj != nil && !ai.Equal(*aj) {
			return ai.Before(*aj)
		}
		return out[i].ID < out[j].ID
	})

	return truncate(out, limit), nil
}

func (m *memoryStore) MarkUpgradeSMSSent(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.triplers[id]
	if !ok || t.UpgradeSMSSent {
		return false, nil
	}

	t.UpgradeSMSSent = true
	t.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *memoryStore) CreateAmbassador(_ context.Context, input CreateAmbassadorInput) (*schema.Ambassador, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.ambassadors {
		if a.Phone == input.Phone {
			return nil, domain.ErrAmbassadorExists
		}
	}

	ambassador := newAmbassador(input, time.Now().UTC())
	m.ambassadors[ambassador.ID] = ambassador

	if t := m.triplerByPhone(ambassador.Phone); t != nil {
		m.wasOnce[ambassador.ID] = &schema.WasOnce{
			AmbassadorID: ambassador.ID,
			TriplerID:    t.ID,
		}
	}

	return ambassador.Clone(), nil
}

func (m *memoryStore) GetAmbassadorByID(_ context.Context, id string) (*schema.Ambassador, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.ambassadors[id]; ok {
		return a.Clone(), nil
	}
	return nil, nil
}

func (m *memoryStore) GetAmbassadorByPhone(_ context.Context, phone string) (*schema.Ambassador, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.ambassadors {
		if a.Phone == phone {
			return a.Clone(), nil
		}
	}
	return nil, nil
}

func (m *memoryStore) countClaims(ambassadorID string) int64 {
	var n int64
	for _, c := range m.claims {
		if c.AmbassadorID == ambassadorID {
			n++
		}
	}
	return n
}

func (m *memoryStore) CreateClaim(_ context.Context, input CreateClaimInput) (*schema.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.ambassadors[input.AmbassadorID]; !ok {
		return nil, errAmbassadorMissing(input.AmbassadorID)
	}
	if _, ok := m.triplers[input.TriplerID]; !ok {
		return nil, errTriplerMissing(input.TriplerID)
	}
	if input.Limit > 0 && m.countClaims(input.AmbassadorID) >= int64(input.Limit) {
		return nil, domain.ErrClaimLimitReached
	}
	if m.isWasOnceTarget(input.TriplerID) {
		return nil, domain.ErrAlreadyClaimed
	}
	if _, claimed := m.claims[input.TriplerID]; claimed {
		return nil, domain.ErrAlreadyClaimed
	}

	claim := &schema.Claim{
		AmbassadorID: input.AmbassadorID,
		TriplerID:    input.TriplerID,
		Since:        input.Since,
	}
	m.claims[input.TriplerID] = claim

	cp := *claim
	return &cp, nil
}

func (m *memoryStore) GetClaimByTripler(_ context.Context, triplerID string) (*schema.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.claims[triplerID]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m *memoryStore) CountClaims(_ context.Context, ambassadorID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.countClaims(ambassadorID), nil
}

func (m *memoryStore) ListClaimedTriplers(_ context.Context, ambassadorID string) ([]*schema.Tripler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var claims []*schema.Claim
	for _, c := range m.claims {
		if c.AmbassadorID == ambassadorID {
			claims = append(claims, c)
		}
	}
	sort.Slice(claims, func(i, j int) bool {
		if !claims[i].Since.Equal(claims[j].Since) {
			return claims[i].Since.Before(claims[j].Since)
		}
		return claims[i].TriplerID < claims[j].TriplerID
	})

	out := make([]*schema.Tripler, 0, len(claims))
	for _, c := range claims {
		if t, ok := m.triplers[c.TriplerID]; ok {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (m *memoryStore) GetWasOnce(_ context.Context, ambassadorID string) (*schema.WasOnce, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w, ok := m.wasOnce[ambassadorID]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, nil
}

func (m *memoryStore) createPayout(ambassadorID, triplerID string, amount int64, createdAt time.Time) *schema.Payout {
	payout := newPayout(amount, createdAt)
	m.payouts[payout.ID] = payout
	m.getsPaid[payout.ID] = &schema.GetsPaid{
		AmbassadorID: ambassadorID,
		PayoutID:     payout.ID,
		TriplerID:    triplerID,
	}
	cp := *payout
	return &cp
}

// applyReferralBonus pays the claimer of the former tripler record of ambassadorID, at most once
func (m *memoryStore) applyReferralBonus(ambassadorID string, amount int64, createdAt time.Time) *ReferralBonus {
	w, ok := m.wasOnce[ambassadorID]
	if !ok || w.RewardedPreviousClaimer {
		return nil
	}
	former, ok := m.triplers[w.TriplerID]
	if !ok || former.Status != domain.TriplerStatusConfirmed {
		return nil
	}
	claim, ok := m.claims[w.TriplerID]
	if !ok {
		return nil
	}

	w.RewardedPreviousClaimer = true
	former.IsAmbassadorAndHasConfirmed = true
	former.UpdatedAt = time.Now().UTC()

	return &ReferralBonus{
		Payout:    m.createPayout(claim.AmbassadorID, former.ID, amount, createdAt),
		ClaimerID: claim.AmbassadorID,
		TriplerID: former.ID,
	}
}

func (m *memoryStore) ListPayoutsByAmbassador(_ context.Context, ambassadorID string) ([]*EarnedPayout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*EarnedPayout{}
	for payoutID, g := range m.getsPaid {
		if g.AmbassadorID != ambassadorID {
			continue
		}
		if p, ok := m.payouts[payoutID]; ok {
			cp := *p
			out = append(out, &EarnedPayout{Payout: &cp, TriplerID: g.TriplerID})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memoryStore) SearchTriplers(_ context.Context, filter TriplerFilter) ([]*schema.Tripler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*schema.Tripler
	for _, t := range m.triplers {
		if filter.Phone != "" && t.Phone != filter.Phone {
			continue
		}
		if filter.Email != "" && (t.Email == nil || *t.Email != filter.Email) {
			continue
		}
		if filter.FirstName != "" && !strings.Contains(t.FirstNameNormalized, filter.FirstName) {
			continue
		}
		if filter.LastName != "" && !strings.Contains(t.LastNameNormalized, filter.LastName) {
			continue
		}
		if filter.VoterID != "" && (t.VoterID == nil || *t.VoterID != filter.VoterID) {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.IsAmbassadorAndHasConfirmed != nil && t.IsAmbassadorAndHasConfirmed != *filter.IsAmbassadorAndHasConfirmed {
			continue
		}
		out = append(out, t.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastNameNormalized != out[j].LastNameNormalized {
			return out[i].LastNameNormalized < out[j].LastNameNormalized
		}
		if out[i].FirstNameNormalized != out[j].FirstNameNormalized {
			return out[i].FirstNameNormalized < out[j].FirstNameNormalized
		}
		return out[i].ID < out[j].ID
	})

	return truncate(out, filter.Limit), nil
}

func (m *memoryStore) FindNameCandidates(_ context.Context, filter NameCandidateFilter) ([]*schema.Tripler, error) {
	if filter.FirstName == "" && filter.LastName == "" {
		return []*schema.Tripler{}, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	type candidate struct {
		tripler *schema.Tripler
		bucket  int
	}

	var cands []candidate
	for _, t := range m.triplers {
		if filter.ExcludeClaimed {
			if _, claimed := m.claims[t.ID]; claimed || m.isWasOnceTarget(t.ID) {
				continue
			}
		}

		contains, prefix := false, false
		if filter.FirstName != "" {
			contains = contains || strings.Contains(t.FirstNameNormalized, filter.FirstName)
			prefix = prefix || strings.HasPrefix(t.FirstNameNormalized, namePrefix(filter.FirstName))
		}
		if filter.LastName != "" {
			contains = contains || strings.Contains(t.LastNameNormalized, filter.LastName)
			prefix = prefix || strings.HasPrefix(t.LastNameNormalized, namePrefix(filter.LastName))
		}
		if !contains && !prefix {
			continue
		}

		bucket := 1
		if contains {
			bucket = 0
		}
		cands = append(cands, candidate{tripler: t, bucket: bucket})
	}

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].bucket != cands[j].bucket {
			return cands[i].bucket < cands[j].bucket
		}
		return cands[i].tripler.ID < cands[j].tripler.ID
	})

	out := make([]*schema.Tripler, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.tripler.Clone())
	}
	return truncate(out, filter.Limit), nil
}

func (m *memoryStore) SuggestTriplers(_ context.Context, filter SuggestFilter) ([]SuggestedTripler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []SuggestedTripler
	for _, t := range m.triplers {
		if _, claimed := m.claims[t.ID]; claimed || m.isWasOnceTarget(t.ID) {
			continue
		}
		d := domain.DistanceMeters(filter.Origin, t.Location())
		if d > filter.MaxDistanceMeters {
			continue
		}
		out = append(out, SuggestedTripler{Tripler: t.Clone(), DistanceMeters: d})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceMeters != out[j].DistanceMeters {
			return out[i].DistanceMeters < out[j].DistanceMeters
		}
		return out[i].Tripler.ID < out[j].Tripler.ID
	})

	return truncate(out, filter.Limit), nil
}

func (m *memoryStore) Ping(_ context.Context) error {
	return nil
}

func truncate[T any](items []T, limit int) []T {
	if items == nil {
		items = []T{}
	}
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
