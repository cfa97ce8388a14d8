package reward

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/votetripling/ambassador-api/internal/adapter"
	"github.com/votetripling/ambassador-api/internal/config"
	"github.com/votetripling/ambassador-api/internal/logger"
	"github.com/votetripling/ambassador-api/internal/store"
	"github.com/votetripling/ambassador-api/internal/store/schema"
)

// Result holds a committed confirmation and the payouts it created
type Result struct {
	Tripler *schema.Tripler
	// Payout is owed to the ambassador who claimed the confirmed tripler
	Payout *schema.Payout
	// Bonus is the referral bonus, nil when none was due
	Bonus *store.ReferralBonus
}

// Engine issues payouts when a tripler confirms
type Engine struct {
	store   store.Store
	program config.ProgramConfig
	clock   adapter.Clock
}

// NewEngine creates a reward engine
func NewEngine(st store.Store, program config.ProgramConfig, clock adapter.Clock) *Engine {
	return &Engine{
		store:   st,
		program: program,
		clock:   clock,
	}
}

// Confirm confirms a pending tripler claimed by ambassador and pays the ambassador. When the ambassador was once
// a tripler themselves, the ambassador who claimed that former record is paid the referral bonus, at most once
// and one hop only. The status change and every payout commit together. The error wraps
// domain.ErrStatusMismatch when the tripler is no longer pending or claimed by ambassador.
func (e *Engine) Confirm(ctx context.Context, ambassador *schema.Ambassador, triplerID string) (*Result, error) {
	result, err := e.store.ConfirmTripler(ctx, store.ConfirmTriplerInput{
		TriplerID:           triplerID,
		AmbassadorID:        ambassador.ID,
		ConfirmedAt:         e.clock.Now(),
		PayoutAmount:        e.program.PayoutPerTripler,
		ReferralBonusAmount: e.program.FirstRewardPayout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to confirm tripler: %w", err)
	}

	logger.InfoCtx(ctx, "Payout created",
		zap.String("payout_id", result.Payout.ID),
		zap.String("ambassador_id", ambassador.ID),
		zap.String("tripler_id", triplerID),
		zap.Int64("amount", result.Payout.Amount))

	if result.Bonus != nil {
		logger.InfoCtx(ctx, "Referral bonus paid",
			zap.String("payout_id", result.Bonus.Payout.ID),
			zap.String("claimer_id", result.Bonus.ClaimerID),
			zap.String("former_tripler_id", result.Bonus.TriplerID))
	}

	return &Result{Tripler: result.Tripler, Payout: result.Payout, Bonus: result.Bonus}, nil
}
