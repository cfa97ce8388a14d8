package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/votetripling/ambassador-api/internal/domain"
	"github.com/votetripling/ambassador-api/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

func stringPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}

// buildTestTripler creates a tripler input located in San Francisco
func buildTestTripler(firstName, lastName, phone string) CreateTriplerInput {
	return CreateTriplerInput{
		FirstName: firstName,
		LastName:  stringPtr(lastName),
		Phone:     phone,
		Address:   schema.NewAddress("1 Market St", "San Francisco", "CA", "94105", "US"),
		Location:  domain.Location{Latitude: 37.7749, Longitude: -122.4194},
	}
}

// buildTestAmbassador creates an ambassador input located in San Francisco
func buildTestAmbassador(firstName, phone string) CreateAmbassadorInput {
	return CreateAmbassadorInput{
		FirstName: firstName,
		LastName:  stringPtr("Organizer"),
		Phone:     phone,
		Location:  domain.Location{Latitude: 37.7749, Longitude: -122.4194},
	}
}

func testTriplees() []domain.Triplee {
	return []domain.Triplee{
		{FirstName: "Ana", LastName: "Diaz", Relationship: "cousin"},
		{FirstName: "Ben", LastName: "Lee", Housemate: true},
		{FirstName: "Cy", LastName: "Ng"},
	}
}

func mustCreateTripler(t *testing.T, store Store, input CreateTriplerInput) *schema.Tripler {
	t.Helper()
	tripler, err := store.CreateTripler(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, tripler)
	return tripler
}

func mustCreateAmbassador(t *testing.T, store Store, input CreateAmbassadorInput) *schema.Ambassador {
	t.Helper()
	ambassador, err := store.CreateAmbassador(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, ambassador)
	return ambassador
}

// mustConfirm claims the tripler for ambassador unless it is claimed already, then confirms it
func mustConfirm(t *testing.T, store Store, tripler *schema.Tripler, ambassador *schema.Ambassador) *schema.Tripler {
	t.Helper()
	ctx := context.Background()
	claim, err := store.GetClaimByTripler(ctx, tripler.ID)
	require.NoError(t, err)
	if claim == nil {
		_, err = store.CreateClaim(ctx, CreateClaimInput{AmbassadorID: ambassador.ID, TriplerID: tripler.ID, Since: time.Now().UTC()})
		require.NoError(t, err)
	}
	_, err = store.BeginConfirmation(ctx, BeginConfirmationInput{
		TriplerID:    tripler.ID,
		FromStatuses: []domain.TriplerStatus{domain.TriplerStatusUnconfirmed},
		Phone:        tripler.Phone,
		Triplees:     testTriplees(),
	})
	require.NoError(t, err)
	result, err := store.ConfirmTripler(ctx, ConfirmTriplerInput{
		TriplerID:           tripler.ID,
		AmbassadorID:        ambassador.ID,
		ConfirmedAt:         time.Now().UTC(),
		PayoutAmount:        1500,
		ReferralBonusAmount: 1000,
	})
	require.NoError(t, err)
	return result.Tripler
}

func confirmInput(tripler *schema.Tripler, ambassador *schema.Ambassador, at time.Time) ConfirmTriplerInput {
	return ConfirmTriplerInput{
		TriplerID:           tripler.ID,
		AmbassadorID:        ambassador.ID,
		ConfirmedAt:         at,
		PayoutAmount:        1500,
		ReferralBonusAmount: 1000,
	}
}

// =============================================================================
// Test: Triplers
// =============================================================================

func testCreateTripler(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("creates unconfirmed tripler with normalized names", func(t *testing.T) {
		input := buildTestTripler("José", "O'Brien", "+15550100001")
		input.Email = stringPtr("jose@example.org")
		input.VoterID = stringPtr("CA-001")

		tripler := mustCreateTripler(t, store, input)
		assert.NotEmpty(t, tripler.ID)
		assert.Equal(t, domain.TriplerStatusUnconfirmed, tripler.Status)
		assert.Equal(t, "jose", tripler.FirstNameNormalized)
		assert.Equal(t, "obrien", tripler.LastNameNormalized)
		assert.Nil(t, tripler.ConfirmedAt)
		assert.Empty(t, tripler.TripleeList())

		got, err := store.GetTriplerByID(ctx, tripler.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "José", got.FirstName)
		assert.Equal(t, "San Francisco", got.City())
		assert.Equal(t, schema.AddressSchemaVersion, got.Address.Data().SchemaVersion)
		assert.InDelta(t, 37.7749, got.Latitude, 1e-9)
		assert.Equal(t, "CA-001", *got.VoterID)

		byPhone, err := store.GetTriplerByPhone(ctx, "+15550100001")
		require.NoError(t, err)
		require.NotNil(t, byPhone)
		assert.Equal(t, tripler.ID, byPhone.ID)

		byEmail, err := store.GetTriplerByEmail(ctx, "jose@example.org")
		require.NoError(t, err)
		require.NotNil(t, byEmail)
		assert.Equal(t, tripler.ID, byEmail.ID)
	})

	t.Run("duplicate phone is rejected", func(t *testing.T) {
		_, err := store.CreateTripler(ctx, buildTestTripler("Other", "Person", "+15550100001"))
		assert.ErrorIs(t, err, domain.ErrPhoneTaken)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		input := buildTestTripler("Other", "Person", "+15550100002")
		input.Email = stringPtr("jose@example.org")
		_, err := store.CreateTripler(ctx, input)
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
	})

	t.Run("missing records return nil", func(t *testing.T) {
		got, err := store.GetTriplerByID(ctx, "not-a-uuid")
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = store.GetTriplerByID(ctx, "00000000-0000-0000-0000-000000000000")
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = store.GetTriplerByPhone(ctx, "+15559999999")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func testGetTriplersByIDs(t *testing.T, store Store) {
	ctx := context.Background()

	a := mustCreateTripler(t, store, buildTestTripler("Ann", "Able", "+15550100011"))
	b := mustCreateTripler(t, store, buildTestTripler("Bob", "Baker", "+15550100012"))

	got, err := store.GetTriplersByIDs(ctx, []string{a.ID, b.ID, "00000000-0000-0000-0000-000000000000", "junk"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "Ann", got[a.ID].FirstName)
	assert.Equal(t, "Bob", got[b.ID].FirstName)

	got, err = store.GetTriplersByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testUpdateTripler(t *testing.T, store Store) {
	ctx := context.Background()

	tripler := mustCreateTripler(t, store, buildTestTripler("Ann", "Able", "+15550100021"))
	other := mustCreateTripler(t, store, buildTestTripler("Bob", "Baker", "+15550100022"))

	t.Run("partial update keeps untouched fields", func(t *testing.T) {
		addr := schema.NewAddress("2 Main St", "Oakland", "CA", "94607", "US")
		updated, err := store.UpdateTripler(ctx, tripler.ID, UpdateTriplerInput{
			LastName: stringPtr("Ábleton"),
			Address:  &addr,
			Location: &domain.Location{Latitude: 37.8044, Longitude: -122.2712},
		})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "Ann", updated.FirstName)
		assert.Equal(t, "Ábleton", *updated.LastName)
		assert.Equal(t, "ableton", updated.LastNameNormalized)
		assert.Equal(t, "Oakland", updated.City())
		assert.InDelta(t, 37.8044, updated.Latitude, 1e-9)
		assert.Equal(t, "+15550100021", updated.Phone)
	})

	t.Run("phone collision is rejected", func(t *testing.T) {
		_, err := store.UpdateTripler(ctx, tripler.ID, UpdateTriplerInput{Phone: stringPtr(other.Phone)})
		assert.ErrorIs(t, err, domain.ErrPhoneTaken)
	})

	t.Run("missing tripler returns nil", func(t *testing.T) {
		updated, err := store.UpdateTripler(ctx, "00000000-0000-0000-0000-000000000000", UpdateTriplerInput{FirstName: stringPtr("X")})
		require.NoError(t, err)
		assert.Nil(t, updated)
	})

	t.Run("phone change", func(t *testing.T) {
		require.NoError(t, store.UpdateTriplerPhone(ctx, tripler.ID, "+15550100029"))
		got, err := store.GetTriplerByPhone(ctx, "+15550100029")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, tripler.ID, got.ID)

		err = store.UpdateTriplerPhone(ctx, tripler.ID, other.Phone)
		assert.ErrorIs(t, err, domain.ErrPhoneTaken)
	})
}

func testDeleteTripler(t *testing.T, store Store) {
	ctx := context.Background()

	ambassador := mustCreateAmbassador(t, store, buildTestAmbassador("Amy", "+15550200031"))
	tripler := mustCreateTripler(t, store, buildTestTripler("Ann", "Able", "+15550100031"))

	_, err := store.CreateClaim(ctx, CreateClaimInput{AmbassadorID: ambassador.ID, TriplerID: tripler.ID, Since: time.Now().UTC()})
	require.NoError(t, err)

	deleted, err := store.DeleteTripler(ctx, tripler.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := store.GetTriplerByID(ctx, tripler.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	claim, err := store.GetClaimByTripler(ctx, tripler.ID)
	require.NoError(t, err)
	assert.Nil(t, claim)

	count, err := store.CountClaims(ctx, ambassador.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	deleted, err = store.DeleteTripler(ctx, tripler.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func testDetachTripler(t *testing.T, store Store) {
	ctx := context.Background()

	ambassador := mustCreateAmbassador(t, store, buildTestAmbassador("Amy", "+15550200035"))
	pending := mustCreateTripler(t, store, buildTestTripler("Ann", "Able", "+15550100035"))
	confirmed := mustConfirm(t, store, mustCreateTripler(t, store, buildTestTripler("Bea", "Best", "+15550100036")), ambassador)

	_, err := store.CreateClaim(ctx, CreateClaimInput{AmbassadorID: ambassador.ID, TriplerID: pending.ID, Since: time.Now().UTC()})
	require.NoError(t, err)

	t.Run("confirmed tripler is kept", func(t *testing.T) {
		deleted, err := store.DetachTripler(ctx, confirmed.ID)
		assert.ErrorIs(t, err, domain.ErrStatusMismatch)
		assert.False(t, deleted)

		got, err := store.GetTriplerByID(ctx, confirmed.ID)
		require.NoError(t, err)
		require.NotNil(t, got)

		claim, err := store.GetClaimByTripler(ctx, confirmed.ID)
		require.NoError(t, err)
		assert.NotNil(t, claim)
	})

	t.Run("unconfirmed tripler is deleted with its claim", func(t *testing.T) {
		deleted, err := store.DetachTripler(ctx, pending.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		claim, err := store.GetClaimByTripler(ctx, pending.ID)
		require.NoError(t, err)
		assert.Nil(t, claim)

		deleted, err = store.DetachTripler(ctx, pending.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

// =============================================================================
// Test: Status machine
// =============================================================================

func testConfirmationLifecycle(t *testing.T, store Store) {
	ctx := context.Background()

	tripler := mustCreateTripler(t, store, buildTestTripler("Ann", "Able", "+15550100041"))
	amy := mustCreateAmbassador(t, store, buildTestAmbassador("Amy", "+15550200041"))
	ben := mustCreateAmbassador(t, store, buildTestAmbassador("Ben", "+15550200042"))
	_, err := store.CreateClaim(ctx, CreateClaimInput{AmbassadorID: amy.ID, TriplerID: tripler.ID, Since: time.Now().UTC()})
	require.NoError(t, err)

	t.Run("begin confirmation stores triplees and verification", func(t *testing.T) {
		pending, err := store.BeginConfirmation(ctx, BeginConfirmationInput{
			TriplerID:    tripler.ID,
			FromStatuses: []domain.TriplerStatus{domain.TriplerStatusUnconfirmed},
			Phone:        "+15550100042",
			Triplees:     testTriplees(),
			Verification: []domain.Verification{{Source: "ekata", Name: "Ann Able"}},
		})
		require.NoError(t, err)
		require.NotNil(t, pending)
		assert.Equal(t, domain.TriplerStatusPending, pending.Status)
		assert.Equal(t, "+15550100042", pending.Phone)
		assert.Equal(t, testTriplees(), pending.TripleeList())
		require.Len(t, pending.Verification, 1)
		assert.Equal(t, "ekata", pending.Verification[0].Source)
	})

	t.Run("begin confirmation from a stale status fails", func(t *testing.T) {
		_, err := store.BeginConfirmation(ctx, BeginConfirmationInput{
			TriplerID:    tripler.ID,
			FromStatuses: []domain.TriplerStatus{domain.TriplerStatusUnconfirmed},
			Phone:        "+15550100042",
			Triplees:     testTriplees(),
		})
		assert.ErrorIs(t, err, domain.ErrStatusMismatch)
	})

	t.Run("pending can be resent and verification accumulates", func(t *testing.T) {
		pending, err := store.BeginConfirmation(ctx, BeginConfirmationInput{
			TriplerID:    tripler.ID,
			FromStatuses: []domain.TriplerStatus{domain.TriplerStatusUnconfirmed, domain.TriplerStatusPending},
			Phone:        "+15550100042",
			Triplees:     testTriplees(),
			Verification: []domain.Verification{{Source: "twilio", Name: "ANN ABLE"}},
		})
		require.NoError(t, err)
		assert.Len(t, pending.Verification, 2)
	})

	t.Run("confirming for an ambassador other than the claimer writes nothing", func(t *testing.T) {
		_, err := store.ConfirmTripler(ctx, confirmInput(tripler, ben, time.Now().UTC()))
		assert.ErrorIs(t, err, domain.ErrStatusMismatch)

		got, err := store.GetTriplerByID(ctx, tripler.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TriplerStatusPending, got.Status)
		assert.Nil(t, got.ConfirmedAt)

		payouts, err := store.ListPayoutsByAmbassador(ctx, ben.ID)
		require.NoError(t, err)
		assert.Empty(t, payouts)
	})

	t.Run("a rejected payout leaves the tripler pending", func(t *testing.T) {
		input := confirmInput(tripler, amy, time.Now().UTC())
		input.PayoutAmount = -1
		_, err := store.ConfirmTripler(ctx, input)
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrStatusMismatch)

		got, err := store.GetTriplerByID(ctx, tripler.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TriplerStatusPending, got.Status)
		assert.Nil(t, got.ConfirmedAt)

		payouts, err := store.ListPayoutsByAmbassador(ctx, amy.ID)
		require.NoError(t, err)
		assert.Empty(t, payouts)
	})

	t.Run("confirm sets confirmed_at once and pays once", func(t *testing.T) {
		at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
		result, err := store.ConfirmTripler(ctx, confirmInput(tripler, amy, at))
		require.NoError(t, err)
		assert.Equal(t, domain.TriplerStatusConfirmed, result.Tripler.Status)
		require.NotNil(t, result.Tripler.ConfirmedAt)
		assert.True(t, at.Equal(*result.Tripler.ConfirmedAt))
		assert.Equal(t, int64(1500), result.Payout.Amount)
		assert.Nil(t, result.Bonus)

		_, err = store.ConfirmTripler(ctx, confirmInput(tripler, amy, at.Add(time.Hour)))
		assert.ErrorIs(t, err, domain.ErrStatusMismatch)

		got, err := store.GetTriplerByID(ctx, tripler.ID)
		require.NoError(t, err)
		assert.True(t, at.Equal(*got.ConfirmedAt))

		payouts, err := store.ListPayoutsByAmbassador(ctx, amy.ID)
		require.NoError(t, err)
		require.Len(t, payouts, 1)
		assert.Equal(t, result.Payout.ID, payouts[0].ID)
		assert.Equal(t, tripler.ID, payouts[0].TriplerID)
	})

	t.Run("confirming an unconfirmed tripler fails", func(t *testing.T) {
		other := mustCreateTripler(t, store, buildTestTripler("Bob", "Baker", "+15550100043"))
		_, err := store.CreateClaim(ctx, CreateClaimInput{AmbassadorID: amy.ID, TriplerID: other.ID, Since: time.Now().UTC()})
		require.NoError(t, err)

		_, err = store.ConfirmTripler(ctx, confirmInput(other, amy, time.Now().UTC()))
		assert.ErrorIs(t, err, domain.ErrStatusMismatch)
	})
}

func testCarrierInfo(t *testing.T, store Store) {
	ctx := context.Background()

	tripler := mustCreateTripler(t, store, buildTestTripler("Ann", "Able", "+15550100051"))
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.AppendCarrierInfo(ctx, tripler.ID, domain.CarrierRecord{
		Phone: "+15550100051", CarrierName: "Verizon", CheckedAt: now,
	}))
	require.NoError(t, store.AppendCarrierInfo(ctx, tripler.ID, domain.CarrierRecord{
		Phone: "+15550100051", CarrierName: "Burner Mobile", IsBlocked: true, CheckedAt: now,
	}))

	got, err := store.GetTriplerByID(ctx, tripler.ID)
	require.NoError(t, err)
	require.Len(t, got.CarrierInfo, 2)
	assert.Equal(t, "Verizon", got.CarrierInfo[0].CarrierName)
	assert.Equal(t, "Burner Mobile", got.CarrierInfo[1].CarrierName)
	require.Len(t, got.BlockedCarrierInfo, 1)
	assert.Equal(t, "Burner Mobile", got.BlockedCarrierInfo[0].CarrierName)
	assert.True(t, got.BlockedCarrierInfo[0].IsBlocked)
}

// =============================================================================
// Test: Ambassadors and claims
// =============================================================================

func testCreateAmbassador(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("links was_once when a tripler has the same phone", func(t *testing.T) {
		tripler := mustCreateTripler(t, store, buildTestTripler("Ann", "Able", "+15550100061"))
		ambassador := mustCreateAmbassador(t, store, buildTestAmbassador("Ann", "+15550100061"))

		wasOnce, err := store.GetWasOnce(ctx, ambassador.ID)
		require.NoError(t, err)
		require.NotNil(t, wasOnce)
		assert.Equal(t, tripler.ID, wasOnce.TriplerID)
		assert.False(t, wasOnce.RewardedPreviousClaimer)

		got, err := store.GetAmbassadorByPhone(ctx, "+15550100061")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, ambassador.ID, got.ID)
	})

	t.Run("no was_once without a matching tripler", func(t *testing.T) {
		ambassador := mustCreateAmbassador(t, store, buildTestAmbassador("Zed", "+15550200062"))
		wasOnce, err := store.GetWasOnce(ctx, ambassador.ID)
		require.NoError(t, err)
		assert.Nil(t, wasOnce)
	})

	t.Run("duplicate phone is rejected", func(t *testing.T) {
		_, err := store.CreateAmbassador(ctx, buildTestAmbassador("Again", "+15550200062"))
		assert.ErrorIs(t, err, domain.ErrAmbassadorExists)
	})

	t.Run("missing ambassador returns nil", func(t *testing.T) {
		got, err := store.GetAmbassadorByID(ctx, "00000000-0000-0000-0000-000000000000")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func testClaims(t *testing.T, store Store) {
	ctx := context.Background()

	amy := mustCreateAmbassador(t, store, buildTestAmbassador("Amy", "+15550200071"))
	bo := mustCreateAmbassador(t, store, buildTestAmbassador("Bo", "+15550200072"))

	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	var triplers []*schema.Tripler
	for i := 0; i < 3; i++ {
		triplers = append(triplers, mustCreateTripler(t, store,
			buildTestTripler(fmt.Sprintf("T%d", i), "Claimed", fmt.Sprintf("+1555010007%d", i))))
	}

	t.Run("claims are listed oldest first", func(t *testing.T) {
		for i := len(triplers) - 2; i >= 0; i-- {
			claim, err := store.CreateClaim(ctx, CreateClaimInput{
				AmbassadorID: amy.ID,
				TriplerID:    triplers[i].ID,
				Since:        base.Add(time.Duration(i) * time.Minute),
				Limit:        2,
			})
			require.NoError(t, err)
			assert.Equal(t, amy.ID, claim.AmbassadorID)
		}

		claimed, err := store.ListClaimedTriplers(ctx, amy.ID)
		require.NoError(t, err)
		require.Len(t, claimed, 2)
		assert.Equal(t, triplers[0].ID, claimed[0].ID)
		assert.Equal(t, triplers[1].ID, claimed[1].ID)

		count, err := store.CountClaims(ctx, amy.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("limit is enforced", func(t *testing.T) {
		_, err := store.CreateClaim(ctx, CreateClaimInput{
			AmbassadorID: amy.ID, TriplerID: triplers[2].ID, Since: base, Limit: 2,
		})
		assert.ErrorIs(t, err, domain.ErrClaimLimitReached)
	})

	t.Run("a tripler has at most one claimer", func(t *testing.T) {
		_, err := store.CreateClaim(ctx, CreateClaimInput{
			AmbassadorID: bo.ID, TriplerID: triplers[0].ID, Since: base, Limit: 12,
		})
		assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)

		claim, err := store.GetClaimByTripler(ctx, triplers[0].ID)
		require.NoError(t, err)
		require.NotNil(t, claim)
		assert.Equal(t, amy.ID, claim.AmbassadorID)
	})

	t.Run("was_once targets cannot be claimed", func(t *testing.T) {
		former := mustCreateTripler(t, store, buildTestTripler("Fay", "Former", "+15550100079"))
		mustCreateAmbassador(t, store, buildTestAmbassador("Fay", "+15550100079"))

		_, err := store.CreateClaim(ctx, CreateClaimInput{
			AmbassadorID: bo.ID, TriplerID: former.ID, Since: base, Limit: 12,
		})
		assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
	})

	t.Run("claiming for an unknown ambassador fails", func(t *testing.T) {
		_, err := store.CreateClaim(ctx, CreateClaimInput{
			AmbassadorID: "00000000-0000-0000-0000-000000000000", TriplerID: triplers[2].ID, Since: base,
		})
		assert.Error(t, err)
	})
}

// =============================================================================
// Test: Payouts
// =============================================================================

func testPayouts(t *testing.T, store Store) {
	ctx := context.Background()

	ambassador := mustCreateAmbassador(t, store, buildTestAmbassador("Amy", "+15550200081"))
	ann := mustCreateTripler(t, store, buildTestTripler("Ann", "Able", "+15550100081"))
	bob := mustCreateTripler(t, store, buildTestTripler("Bob", "Baker", "+15550100082"))

	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	for _, tr := range []*schema.Tripler{ann, bob} {
		_, err := store.CreateClaim(ctx, CreateClaimInput{AmbassadorID: ambassador.ID, TriplerID: tr.ID, Since: base})
		require.NoError(t, err)
		_, err = store.BeginConfirmation(ctx, BeginConfirmationInput{
			TriplerID:    tr.ID,
			FromStatuses: []domain.TriplerStatus{domain.TriplerStatusUnconfirmed},
			Phone:        tr.Phone,
			Triplees:     testTriplees(),
		})
		require.NoError(t, err)
	}

	second, err := store.ConfirmTripler(ctx, confirmInput(bob, ambassador, base.Add(time.Minute)))
	require.NoError(t, err)
	first, err := store.ConfirmTripler(ctx, confirmInput(ann, ambassador, base))
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutStatusPending, first.Payout.Status)

	payouts, err := store.ListPayoutsByAmbassador(ctx, ambassador.ID)
	require.NoError(t, err)
	require.Len(t, payouts, 2)
	assert.Equal(t, first.Payout.ID, payouts[0].ID)
	assert.Equal(t, ann.ID, payouts[0].TriplerID)
	assert.Equal(t, int64(1500), payouts[0].Amount)
	assert.Equal(t, second.Payout.ID, payouts[1].ID)
	assert.Equal(t, bob.ID, payouts[1].TriplerID)

	none, err := store.ListPayoutsByAmbassador(ctx, "00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testReferralBonus(t *testing.T, store Store) {
	ctx := context.Background()

	claimer := mustCreateAmbassador(t, store, buildTestAmbassador("Amy", "+15550200091"))
	former := mustCreateTripler(t, store, buildTestTripler("Fay", "Former", "+15550100091"))
	_, err := store.CreateClaim(ctx, CreateClaimInput{AmbassadorID: claimer.ID, TriplerID: former.ID, Since: time.Now().UTC()})
	require.NoError(t, err)

	referred := mustCreateAmbassador(t, store, buildTestAmbassador("Fay", "+15550100091"))

	confirmForReferred := func(t *testing.T, first, phone string) *ConfirmResult {
		tripler := mustCreateTripler(t, store, buildTestTripler(first, "Recruit", phone))
		_, err := store.CreateClaim(ctx, CreateClaimInput{AmbassadorID: referred.ID, TriplerID: tripler.ID, Since: time.Now().UTC()})
		require.NoError(t, err)
		_, err = store.BeginConfirmation(ctx, BeginConfirmationInput{
			TriplerID:    tripler.ID,
			FromStatuses: []domain.TriplerStatus{domain.TriplerStatusUnconfirmed},
			Phone:        phone,
			Triplees:     testTriplees(),
		})
		require.NoError(t, err)
		result, err := store.ConfirmTripler(ctx, confirmInput(tripler, referred, time.Now().UTC()))
		require.NoError(t, err)
		return result
	}

	t.Run("no bonus while the former tripler is unconfirmed", func(t *testing.T) {
		result := confirmForReferred(t, "Gus", "+15550100092")
		assert.Nil(t, result.Bonus)
	})

	mustConfirm(t, store, former, claimer)

	t.Run("bonus is paid to the claimer once", func(t *testing.T) {
		result := confirmForReferred(t, "Hal", "+15550100093")
		require.NotNil(t, result.Bonus)
		assert.Equal(t, claimer.ID, result.Bonus.ClaimerID)
		assert.Equal(t, former.ID, result.Bonus.TriplerID)
		assert.Equal(t, int64(1000), result.Bonus.Payout.Amount)

		again := confirmForReferred(t, "Ida", "+15550100094")
		assert.Nil(t, again.Bonus)

		// the payout for confirming the former tripler and the bonus both point at it
		payouts, err := store.ListPayoutsByAmbassador(ctx, claimer.ID)
		require.NoError(t, err)
		require.Len(t, payouts, 2)
		for _, p := range payouts {
			assert.Equal(t, former.ID, p.TriplerID)
		}

		wasOnce, err := store.GetWasOnce(ctx, referred.ID)
		require.NoError(t, err)
		assert.True(t, wasOnce.RewardedPreviousClaimer)

		got, err := store.GetTriplerByID(ctx, former.ID)
		require.NoError(t, err)
		assert.True(t, got.IsAmbassadorAndHasConfirmed)
	})

	t.Run("no bonus without a was_once edge", func(t *testing.T) {
		tripler := mustCreateTripler(t, store, buildTestTripler("Jo", "Plain", "+15550100095"))
		confirmed := mustConfirm(t, store, tripler, claimer)
		assert.Equal(t, domain.TriplerStatusConfirmed, confirmed.Status)

		payouts, err := store.ListPayoutsByAmbassador(ctx, claimer.ID)
		require.NoError(t, err)
		assert.Len(t, payouts, 3)
	})
}

// =============================================================================
// Test: Upgrade sweep
// =============================================================================

func testUpgradePending(t *testing.T, store Store) {
	ctx := context.Background()

	ambassador := mustCreateAmbassador(t, store, buildTestAmbassador("Amy", "+15550200101"))

	claimedConfirmed := mustCreateTripler(t, store, buildTestTripler("Ann", "Able", "+15550100101"))
	claimedUnconfirmed := mustCreateTripler(t, store, buildTestTripler("Cat", "Cole", "+15550100103"))

	for _, tr := range []*schema.Tripler{claimedConfirmed, claimedUnconfirmed} {
		_, err := store.CreateClaim(ctx, CreateClaimInput{AmbassadorID: ambassador.ID, TriplerID: tr.ID, Since: time.Now().UTC()})
		require.NoError(t, err)
	}
	mustConfirm(t, store, claimedConfirmed, ambassador)

	pending, err := store.ListTriplersPendingUpgrade(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, claimedConfirmed.ID, pending[0].ID)

	marked, err := store.MarkUpgradeSMSSent(ctx, claimedConfirmed.ID)
	require.NoError(t, err)
	assert.True(t, marked)

	marked, err = store.MarkUpgradeSMSSent(ctx, claimedConfirmed.ID)
	require.NoError(t, err)
	assert.False(t, marked)

	pending, err = store.ListTriplersPendingUpgrade(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

// =============================================================================
// Test: Search
// =============================================================================

func testSearchTriplers(t *testing.T, store Store) {
	ctx := context.Background()

	zoe := buildTestTripler("Zoe", "Adams", "+15550100111")
	zoe.Email = stringPtr("zoe@example.org")
	zoe.VoterID = stringPtr("V-111")
	mustCreateTripler(t, store, zoe)
	mustCreateTripler(t, store, buildTestTripler("Amy", "Adams", "+15550100112"))
	amb := mustCreateAmbassador(t, store, buildTestAmbassador("Amy", "+15550200111"))
	confirmed := mustConfirm(t, store, mustCreateTripler(t, store, buildTestTripler("Carl", "Brown", "+15550100113")), amb)

	t.Run("ordered by last then first name", func(t *testing.T) {
		all, err := store.SearchTriplers(ctx, TriplerFilter{Limit: 10})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "Amy", all[0].FirstName)
		assert.Equal(t, "Zoe", all[1].FirstName)
		assert.Equal(t, "Carl", all[2].FirstName)
	})

	t.Run("filters combine", func(t *testing.T) {
		got, err := store.SearchTriplers(ctx, TriplerFilter{LastName: "adam", Limit: 10})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = store.SearchTriplers(ctx, TriplerFilter{LastName: "adam", FirstName: "zo", Limit: 10})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Zoe", got[0].FirstName)

		got, err = store.SearchTriplers(ctx, TriplerFilter{Email: "zoe@example.org", VoterID: "V-111", Limit: 10})
		require.NoError(t, err)
		assert.Len(t, got, 1)

		got, err = store.SearchTriplers(ctx, TriplerFilter{Phone: "+15550100112", Limit: 10})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Amy", got[0].FirstName)

		got, err = store.SearchTriplers(ctx, TriplerFilter{Status: domain.TriplerStatusConfirmed, Limit: 10})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, confirmed.ID, got[0].ID)

		got, err = store.SearchTriplers(ctx, TriplerFilter{IsAmbassadorAndHasConfirmed: boolPtr(true), Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("limit applies", func(t *testing.T) {
		got, err := store.SearchTriplers(ctx, TriplerFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("like wildcards are literal", func(t *testing.T) {
		got, err := store.SearchTriplers(ctx, TriplerFilter{LastName: "%", Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func testFindNameCandidates(t *testing.T, store Store) {
	ctx := context.Background()

	ambassador := mustCreateAmbassador(t, store, buildTestAmbassador("Amy", "+15550200121"))
	jon := mustCreateTripler(t, store, buildTestTripler("Jonathan", "Smith", "+15550100121"))
	joan := mustCreateTripler(t, store, buildTestTripler("Joan", "Smyth", "+15550100122"))
	mustCreateTripler(t, store, buildTestTripler("Pat", "Lee", "+15550100123"))
	claimed := mustCreateTripler(t, store, buildTestTripler("Jon", "Smithers", "+15550100124"))

	_, err := store.CreateClaim(ctx, CreateClaimInput{AmbassadorID: ambassador.ID, TriplerID: claimed.ID, Since: time.Now().UTC()})
	require.NoError(t, err)

	t.Run("substring matches precede prefix matches", func(t *testing.T) {
		got, err := store.FindNameCandidates(ctx, NameCandidateFilter{FirstName: "jon", Limit: 10})
		require.NoError(t, err)
		require.Len(t, got, 3)

		// jonathan and jon contain "jon"; joan only shares the "jo" prefix
		assert.Equal(t, joan.ID, got[2].ID)
		ids := []string{got[0].ID, got[1].ID}
		assert.Contains(t, ids, jon.ID)
		assert.Contains(t, ids, claimed.ID)
	})

	t.Run("claimed triplers can be excluded", func(t *testing.T) {
		got, err := store.FindNameCandidates(ctx, NameCandidateFilter{FirstName: "jon", LastName: "smith", ExcludeClaimed: true, Limit: 10})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, jon.ID, got[0].ID)
		assert.Equal(t, joan.ID, got[1].ID)
	})

	t.Run("pool limit applies", func(t *testing.T) {
		got, err := store.FindNameCandidates(ctx, NameCandidateFilter{FirstName: "jon", Limit: 1})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("empty query returns nothing", func(t *testing.T) {
		got, err := store.FindNameCandidates(ctx, NameCandidateFilter{Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func testSuggestTriplers(t *testing.T, store Store) {
	ctx := context.Background()

	origin := domain.Location{Latitude: 37.7749, Longitude: -122.4194}
	ambassador := mustCreateAmbassador(t, store, buildTestAmbassador("Amy", "+15550200131"))

	near := buildTestTripler("Near", "One", "+15550100131")
	near.Location = domain.Location{Latitude: 37.7759, Longitude: -122.4194}
	nearer := buildTestTripler("Nearer", "Two", "+15550100132")
	nearer.Location = origin
	far := buildTestTripler("Far", "Three", "+15550100133")
	far.Location = domain.Location{Latitude: 34.0522, Longitude: -118.2437}
	claimedIn := buildTestTripler("Claimed", "Four", "+15550100134")
	claimedIn.Location = origin

	nearT := mustCreateTripler(t, store, near)
	nearerT := mustCreateTripler(t, store, nearer)
	mustCreateTripler(t, store, far)
	claimedT := mustCreateTripler(t, store, claimedIn)

	_, err := store.CreateClaim(ctx, CreateClaimInput{AmbassadorID: ambassador.ID, TriplerID: claimedT.ID, Since: time.Now().UTC()})
	require.NoError(t, err)

	got, err := store.SuggestTriplers(ctx, SuggestFilter{Origin: origin, MaxDistanceMeters: 10000, Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, nearerT.ID, got[0].Tripler.ID)
	assert.InDelta(t, 0, got[0].DistanceMeters, 1)
	assert.Equal(t, nearT.ID, got[1].Tripler.ID)
	assert.InDelta(t, 111, got[1].DistanceMeters, 2)

	got, err = store.SuggestTriplers(ctx, SuggestFilter{Origin: origin, MaxDistanceMeters: 10000, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func testPing(t *testing.T, store Store) {
	require.NoError(t, store.Ping(context.Background()))
}

// RunStoreTests runs the store suite against an implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"CreateTripler", testCreateTripler},
		{"GetTriplersByIDs", testGetTriplersByIDs},
		{"UpdateTripler", testUpdateTripler},
		{"DeleteTripler", testDeleteTripler},
		{"DetachTripler", testDetachTripler},
		{"ConfirmationLifecycle", testConfirmationLifecycle},
		{"CarrierInfo", testCarrierInfo},
		{"CreateAmbassador", testCreateAmbassador},
		{"Claims", testClaims},
		{"Payouts", testPayouts},
		{"ReferralBonus", testReferralBonus},
		{"UpgradePending", testUpgradePending},
		{"SearchTriplers", testSearchTriplers},
		{"FindNameCandidates", testFindNameCandidates},
		{"SuggestTriplers", testSuggestTriplers},
		{"Ping", testPing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
