package lookup

import (
	"context"

	"go.uber.org/zap"

	"github.com/votetripling/ambassador-api/internal/logger"
)

// UnscreenedCarrierName is recorded for numbers checked without a carrier provider
const UnscreenedCarrierName = "unscreened"

// UnscreenedCarrierLookup allows every number. It backs local development when no
// carrier provider is configured.
type UnscreenedCarrierLookup struct{}

// NewUnscreenedCarrierLookup creates a carrier lookup that never blocks
func NewUnscreenedCarrierLookup() *UnscreenedCarrierLookup {
	return &UnscreenedCarrierLookup{}
}

func (UnscreenedCarrierLookup) LookupCarrier(ctx context.Context, phone string) (*Carrier, error) {
	logger.WarnCtx(ctx, "Carrier not screened, no provider configured", zap.String("phone", phone))
	return &Carrier{Name: UnscreenedCarrierName}, nil
}
