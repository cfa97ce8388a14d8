package fraud

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/votetripling/ambassador-api/internal/adapter"
	"github.com/votetripling/ambassador-api/internal/domain"
	"github.com/votetripling/ambassador-api/internal/logger"
	"github.com/votetripling/ambassador-api/internal/lookup"
	"github.com/votetripling/ambassador-api/internal/store"
)

// Result is the outcome of a carrier screen
type Result struct {
	CarrierName string
	Blocked     bool
}

// BlockError returns the user facing error for a blocked result
func (r *Result) BlockError() error {
	return domain.NewFraudBlockError(fmt.Sprintf(domain.MsgFraudCarrier, r.CarrierName))
}

// Screen gates tripler phones on their carrier and keeps the audit trail of every lookup
type Screen struct {
	store    store.Store
	carriers lookup.CarrierLookup
	clock    adapter.Clock
}

// NewScreen creates a carrier screen
func NewScreen(st store.Store, carriers lookup.CarrierLookup, clock adapter.Clock) *Screen {
	return &Screen{
		store:    st,
		carriers: carriers,
		clock:    clock,
	}
}

// Check looks up the carrier of phone and appends the result to the tripler's carrier_info,
// and to blocked_carrier_info when blocked. A failed lookup is a dependency failure.
func (s *Screen) Check(ctx context.Context, triplerID string, phone string) (*Result, error) {
	carrier, err := s.carriers.LookupCarrier(ctx, phone)
	if err != nil {
		return nil, domain.NewDependencyError(domain.MsgCarrierLookup, err)
	}

	record := domain.CarrierRecord{
		Phone:       phone,
		CarrierName: carrier.Name,
		IsBlocked:   carrier.Blocked,
		CheckedAt:   s.clock.Now(),
	}
	if err := s.store.AppendCarrierInfo(ctx, triplerID, record); err != nil {
		return nil, fmt.Errorf("failed to record carrier info: %w", err)
	}

	if carrier.Blocked {
		logger.WarnCtx(ctx, "Blocked carrier",
			zap.String("tripler_id", triplerID),
			zap.String("carrier", carrier.Name))
	}

	return &Result{CarrierName: carrier.Name, Blocked: carrier.Blocked}, nil
}
