package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/votetripling/ambassador-api/internal/adapter"
	"github.com/votetripling/ambassador-api/internal/config"
	"github.com/votetripling/ambassador-api/internal/domain"
	"github.com/votetripling/ambassador-api/internal/messages"
	"github.com/votetripling/ambassador-api/internal/mocks"
	"github.com/votetripling/ambassador-api/internal/store"
	"github.com/votetripling/ambassador-api/internal/store/schema"
)

type upgradeFixture struct {
	store    store.Store
	notifier *mocks.MockNotifier
	sweeper  *upgradeSweeper
}

func setupUpgradeSweeper(t *testing.T, cfg UpgradeSweeperConfig) *upgradeFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	renderer, err := messages.NewRenderer(config.ProgramConfig{
		OrganizationName:      "Vote Org",
		AmbassadorLandingPage: "https://example.org/a",
	}, config.MessagesConfig{
		TriplerUpgrade: "Thanks {{.TriplerFirstName}}! {{.AmbassadorFirstName}} invites you to join {{.OrganizationName}}: {{.AmbassadorLandingPage}}",
	})
	require.NoError(t, err)

	f := &upgradeFixture{
		store:    store.NewMemoryStore(),
		notifier: mocks.NewMockNotifier(ctrl),
	}
	f.sweeper = NewUpgradeSweeper(cfg, f.store, f.notifier, renderer, adapter.NewClock()).(*upgradeSweeper)
	return f
}

// confirmedTripler creates a tripler claimed by a new ambassador and walks it to confirmed
func (f *upgradeFixture) confirmedTripler(t *testing.T, n int) *schema.Tripler {
	t.Helper()
	ctx := context.Background()

	tripler, err := f.store.CreateTripler(ctx, store.CreateTriplerInput{
		FirstName: "Ann",
		Phone:     "+1555010000" + string(rune('0'+n)),
		Address:   schema.NewAddress("1 Main St", "Oakland", "CA", "94607", "US"),
	})
	require.NoError(t, err)
	ambassador, err := f.store.CreateAmbassador(ctx, store.CreateAmbassadorInput{
		FirstName: "Amy",
		Phone:     "+1555020000" + string(rune('0'+n)),
	})
	require.NoError(t, err)
	_, err = f.store.CreateClaim(ctx, store.CreateClaimInput{
		AmbassadorID: ambassador.ID,
		TriplerID:    tripler.ID,
		Since:        time.Now(),
	})
	require.NoError(t, err)
	_, err = f.store.BeginConfirmation(ctx, store.BeginConfirmationInput{
		TriplerID:    tripler.ID,
		FromStatuses: []domain.TriplerStatus{domain.TriplerStatusUnconfirmed},
		Phone:        tripler.Phone,
		Triplees: []domain.Triplee{
			{FirstName: "Ana"}, {FirstName: "Ben"}, {FirstName: "Cy"},
		},
	})
	require.NoError(t, err)
	result, err := f.store.ConfirmTripler(ctx, store.ConfirmTriplerInput{
		TriplerID:    tripler.ID,
		AmbassadorID: ambassador.ID,
		ConfirmedAt:  time.Now(),
		PayoutAmount: 1500,
	})
	require.NoError(t, err)
	return result.Tripler
}

func TestUpgradeSweeper_SendsOnce(t *testing.T) {
	f := setupUpgradeSweeper(t, UpgradeSweeperConfig{BatchSize: 10, WorkerPoolSize: 2})
	ctx := context.Background()

	first := f.confirmedTripler(t, 1)
	second := f.confirmedTripler(t, 2)

	f.notifier.EXPECT().
		SendSMS(gomock.Any(), first.Phone, "Thanks Ann! Amy invites you to join Vote Org: https://example.org/a").
		Return(nil)
	f.notifier.EXPECT().SendSMS(gomock.Any(), second.Phone, gomock.Any()).Return(nil)

	stats, err := f.sweeper.sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), stats.sent.Load())
	assert.Zero(t, stats.failed.Load())

	for _, id := range []string{first.ID, second.ID} {
		got, err := f.store.GetTriplerByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.UpgradeSMSSent)
	}

	// nothing left to send
	stats, err = f.sweeper.sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.sent.Load())
}

func TestUpgradeSweeper_SkipsUnconfirmed(t *testing.T) {
	f := setupUpgradeSweeper(t, UpgradeSweeperConfig{})
	ctx := context.Background()

	_, err := f.store.CreateTripler(ctx, store.CreateTriplerInput{
		FirstName: "Ann",
		Phone:     "+15550100009",
		Address:   schema.NewAddress("1 Main St", "Oakland", "CA", "94607", "US"),
	})
	require.NoError(t, err)

	stats, err := f.sweeper.sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.sent.Load())
}

func TestUpgradeSweeper_SendFailureLeavesTriplerEligible(t *testing.T) {
	f := setupUpgradeSweeper(t, UpgradeSweeperConfig{MaxRetryTime: time.Nanosecond})
	ctx := context.Background()

	tripler := f.confirmedTripler(t, 1)

	f.notifier.EXPECT().SendSMS(gomock.Any(), tripler.Phone, gomock.Any()).Return(errors.New("twilio down")).MinTimes(1)

	stats, err := f.sweeper.sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), stats.failed.Load())
	assert.Zero(t, stats.sent.Load())

	got, err := f.store.GetTriplerByID(ctx, tripler.ID)
	require.NoError(t, err)
	assert.False(t, got.UpgradeSMSSent)

	pending, err := f.store.ListTriplersPendingUpgrade(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestUpgradeSweeper_StartStop(t *testing.T) {
	f := setupUpgradeSweeper(t, UpgradeSweeperConfig{Interval: time.Hour})
	tripler := f.confirmedTripler(t, 1)

	sent := make(chan struct{})
	f.notifier.EXPECT().SendSMS(gomock.Any(), tripler.Phone, gomock.Any()).
		DoAndReturn(func(context.Context, string, string) error {
			close(sent)
			return nil
		})

	done := make(chan error, 1)
	go func() {
		done <- f.sweeper.Start(context.Background())
	}()

	select {
	case <-sent:
	case <-time.After(5 * time.Second):
		t.Fatal("upgrade sms was not sent")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.sweeper.Stop(ctx))
	require.NoError(t, <-done)

	assert.Equal(t, "upgrade-sweeper", f.sweeper.Name())
}
