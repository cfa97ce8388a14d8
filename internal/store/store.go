package store

import (
	"context"
	"time"

	"github.com/votetripling/ambassador-api/internal/domain"
	"github.com/votetripling/ambassador-api/internal/store/schema"
)

// CreateTriplerInput represents the data needed to create a tripler
type CreateTriplerInput struct {
	FirstName string
	LastName  *string
	Phone     string // canonical E.164
	Email     *string
	VoterID   *string
	Address   schema.Address
	Location  domain.Location
}

// UpdateTriplerInput represents a partial update of a tripler's profile; nil fields are left unchanged
type UpdateTriplerInput struct {
	FirstName *string
	LastName  *string
	Phone     *string // canonical E.164
	Email     *string
	VoterID   *string
	Address   *schema.Address
	Location  *domain.Location
}

// BeginConfirmationInput represents the data persisted when a tripler moves to pending
type BeginConfirmationInput struct {
	TriplerID string
	// FromStatuses are the statuses the tripler must currently be in
	FromStatuses []domain.TriplerStatus
	Phone        string // canonical E.164
	Triplees     []domain.Triplee
	// Verification records are appended to the existing list
	Verification []domain.Verification
}

// CreateAmbassadorInput represents the data needed to create an ambassador
type CreateAmbassadorInput struct {
	FirstName string
	LastName  *string
	Phone     string // canonical E.164
	Email     *string
	Location  domain.Location
}

// CreateClaimInput represents a CLAIMS edge to create
type CreateClaimInput struct {
	AmbassadorID string
	TriplerID    string
	Since        time.Time
	// Limit is the maximum number of claims the ambassador may hold; zero means unlimited
	Limit int
}

// ConfirmTriplerInput represents a confirmation together with the payouts it earns
type ConfirmTriplerInput struct {
	TriplerID string
	// AmbassadorID must hold the claim of the tripler; it is paid PayoutAmount
	AmbassadorID string
	ConfirmedAt  time.Time
	PayoutAmount int64
	// ReferralBonusAmount is paid to the claimer of the ambassador's former tripler record, at most once
	ReferralBonusAmount int64
}

// ConfirmResult is the outcome of a committed confirmation
type ConfirmResult struct {
	Tripler *schema.Tripler
	Payout  *schema.Payout
	// Bonus is nil when no referral bonus was due or another caller already paid it
	Bonus *ReferralBonus
}

// ReferralBonus is a referral bonus paid during a confirmation
type ReferralBonus struct {
	Payout *schema.Payout
	// ClaimerID is the ambassador who claimed the former tripler
	ClaimerID string
	// TriplerID is the former tripler record of the referred ambassador
	TriplerID string
}

// EarnedPayout is a payout together with the tripler its GETS_PAID edge points at
type EarnedPayout struct {
	*schema.Payout
	TriplerID string
}

// TriplerFilter represents the admin search filter; empty fields are ignored
type TriplerFilter struct {
	Phone     string // canonical E.164
	Email     string
	FirstName string // normalized, substring match
	LastName  string // normalized, substring match
	VoterID   string
	Status    domain.TriplerStatus
	// IsAmbassadorAndHasConfirmed filters on the referral flag when set
	IsAmbassadorAndHasConfirmed *bool
	Limit                       int
}

// NameCandidateFilter represents the indexed name lookup that seeds fuzzy search.
// A tripler matches when a queried normalized name column contains the query or
// shares its first two characters. Substring matches come first, then prefix matches,
// each ordered by id.
type NameCandidateFilter struct {
	FirstName string // normalized
	LastName  string // normalized
	// ExcludeClaimed drops triplers with a CLAIMS edge or a WAS_ONCE edge pointing at them
	ExcludeClaimed bool
	Limit          int
}

// SuggestFilter represents the distance based suggestion query
type SuggestFilter struct {
	Origin            domain.Location
	MaxDistanceMeters float64
	Limit             int
}

// SuggestedTripler is an unclaimed tripler with its distance to the origin
type SuggestedTripler struct {
	Tripler        *schema.Tripler
	DistanceMeters float64
}

// Store defines the interface for database operations.
// Lookups return nil, nil when the record does not exist.
type Store interface {
	// CreateTripler creates an unconfirmed tripler. Returns domain.ErrPhoneTaken or domain.ErrEmailTaken on collisions
	CreateTripler(ctx context.Context, input CreateTriplerInput) (*schema.Tripler, error)
	// GetTriplerByID retrieves a tripler by id
	GetTriplerByID(ctx context.Context, id string) (*schema.Tripler, error)
	// GetTriplerByPhone retrieves a tripler by canonical phone
	GetTriplerByPhone(ctx context.Context, phone string) (*schema.Tripler, error)
	// GetTriplerByEmail retrieves a tripler by email
	GetTriplerByEmail(ctx context.Context, email string) (*schema.Tripler, error)
	// GetTriplersByIDs retrieves several triplers, keyed by id
	GetTriplersByIDs(ctx context.Context, ids []string) (map[string]*schema.Tripler, error)
	// UpdateTripler applies a partial profile update
	UpdateTripler(ctx context.Context, id string, input UpdateTriplerInput) (*schema.Tripler, error)
	// DeleteTripler deletes a tripler and every edge pointing at it. Returns false when it did not exist
	DeleteTripler(ctx context.Context, id string) (bool, error)
	// DetachTripler deletes a tripler that is not confirmed, with its edges.
	// Returns false when it did not exist and ErrStatusMismatch when it is confirmed
	DetachTripler(ctx context.Context, id string) (bool, error)
	// UpdateTriplerPhone changes the phone of a tripler
	UpdateTriplerPhone(ctx context.Context, id string, phone string) error

	// BeginConfirmation moves a tripler to pending if its status is one of input.FromStatuses.
	// Returns domain.ErrStatusMismatch when the status changed concurrently
	BeginConfirmation(ctx context.Context, input BeginConfirmationInput) (*schema.Tripler, error)
	// ConfirmTripler moves a pending tripler to confirmed, sets confirmed_at, pays the claiming ambassador and
	// applies the referral bonus in one transaction. Returns domain.ErrStatusMismatch, with nothing written,
	// when the tripler is not pending or not claimed by input.AmbassadorID
	ConfirmTripler(ctx context.Context, input ConfirmTriplerInput) (*ConfirmResult, error)
	// AppendCarrierInfo appends a carrier lookup to carrier_info, and to blocked_carrier_info when blocked
	AppendCarrierInfo(ctx context.Context, id string, record domain.CarrierRecord) error
	// ListTriplersPendingUpgrade lists claimed, confirmed triplers that were not sent the upgrade sms
	ListTriplersPendingUpgrade(ctx context.Context, limit int) ([]*schema.Tripler, error)
	// MarkUpgradeSMSSent flags a tripler as sent the upgrade sms. Returns false when it was already flagged
	MarkUpgradeSMSSent(ctx context.Context, id string) (bool, error)

	// CreateAmbassador creates an ambassador and links a WAS_ONCE edge when a tripler with the same phone exists.
	// Returns domain.ErrAmbassadorExists when the phone is already registered
	CreateAmbassador(ctx context.Context, input CreateAmbassadorInput) (*schema.Ambassador, error)
	// GetAmbassadorByID retrieves an ambassador by id
	GetAmbassadorByID(ctx context.Context, id string) (*schema.Ambassador, error)
	// GetAmbassadorByPhone retrieves an ambassador by canonical phone
	GetAmbassadorByPhone(ctx context.Context, phone string) (*schema.Ambassador, error)

	// CreateClaim creates a CLAIMS edge. Returns domain.ErrAlreadyClaimed when the tripler is claimed
	// or is a WAS_ONCE target, and domain.ErrClaimLimitReached when the ambassador holds input.Limit claims
	CreateClaim(ctx context.Context, input CreateClaimInput) (*schema.Claim, error)
	// GetClaimByTripler retrieves the active claim of a tripler
	GetClaimByTripler(ctx context.Context, triplerID string) (*schema.Claim, error)
	// CountClaims counts the claims held by an ambassador
	CountClaims(ctx context.Context, ambassadorID string) (int64, error)
	// ListClaimedTriplers lists the triplers claimed by an ambassador, oldest claim first
	ListClaimedTriplers(ctx context.Context, ambassadorID string) ([]*schema.Tripler, error)
	// GetWasOnce retrieves the WAS_ONCE edge of an ambassador
	GetWasOnce(ctx context.Context, ambassadorID string) (*schema.WasOnce, error)

	// ListPayoutsByAmbassador lists payouts earned by an ambassador with their tripler, oldest first
	ListPayoutsByAmbassador(ctx context.Context, ambassadorID string) ([]*EarnedPayout, error)

	// SearchTriplers runs the admin filter search
	SearchTriplers(ctx context.Context, filter TriplerFilter) ([]*schema.Tripler, error)
	// FindNameCandidates runs the bounded name lookup that seeds fuzzy search
	FindNameCandidates(ctx context.Context, filter NameCandidateFilter) ([]*schema.Tripler, error)
	// SuggestTriplers lists unclaimed triplers nearest to the origin
	SuggestTriplers(ctx context.Context, filter SuggestFilter) ([]SuggestedTripler, error)

	// Ping checks the connection to the backing store
	Ping(ctx context.Context) error
}

// namePrefixLength is the prefix length used by the name candidate lookup
const namePrefixLength = 2

func namePrefix(q string) string {
	r := []rune(q)
	if len(r) > namePrefixLength {
		r = r[:namePrefixLength]
	}
	return string(r)
}
