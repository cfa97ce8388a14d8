package claims

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/votetripling/ambassador-api/internal/adapter"
	"github.com/votetripling/ambassador-api/internal/domain"
	"github.com/votetripling/ambassador-api/internal/logger"
	"github.com/votetripling/ambassador-api/internal/messages"
	"github.com/votetripling/ambassador-api/internal/messaging"
	"github.com/votetripling/ambassador-api/internal/notify"
	"github.com/votetripling/ambassador-api/internal/store"
	"github.com/votetripling/ambassador-api/internal/store/schema"
)

// Manager owns claim exclusivity between ambassadors and triplers
type Manager struct {
	store     store.Store
	notifier  notify.Notifier
	renderer  *messages.Renderer
	publisher messaging.Publisher
	clock     adapter.Clock
}

// NewManager creates a claim manager
func NewManager(
	st store.Store,
	notifier notify.Notifier,
	renderer *messages.Renderer,
	publisher messaging.Publisher,
	clock adapter.Clock,
) *Manager {
	return &Manager{
		store:     st,
		notifier:  notifier,
		renderer:  renderer,
		publisher: publisher,
		clock:     clock,
	}
}

// Limit returns the maximum number of triplers an ambassador may claim
func (m *Manager) Limit() int {
	return m.renderer.Program().ClaimTriplerLimit
}

// Claim creates a CLAIMS edge from ambassador to the tripler
func (m *Manager) Claim(ctx context.Context, ambassador *schema.Ambassador, triplerID string) (*schema.Claim, error) {
	if ambassador == nil {
		return nil, domain.NewNotFoundError(domain.MsgInvalidAmbassador)
	}

	tripler, err := m.store.GetTriplerByID(ctx, triplerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tripler: %w", err)
	}
	if tripler == nil {
		return nil, domain.NewNotFoundError(domain.MsgInvalidTripler)
	}

	claim, err := m.store.CreateClaim(ctx, store.CreateClaimInput{
		AmbassadorID: ambassador.ID,
		TriplerID:    tripler.ID,
		Since:        m.clock.Now(),
		Limit:        m.Limit(),
	})
	switch {
	case errors.Is(err, domain.ErrClaimLimitReached):
		return nil, domain.NewStateError(domain.MsgClaimLimit)
	case errors.Is(err, domain.ErrAlreadyClaimed):
		return nil, domain.NewConflictError(domain.MsgAlreadyClaimed)
	case err != nil:
		return nil, fmt.Errorf("failed to create claim: %w", err)
	}

	logger.InfoCtx(ctx, "Tripler claimed",
		zap.String("tripler_id", tripler.ID),
		zap.String("ambassador_id", ambassador.ID))

	return claim, nil
}

// Detach notifies the tripler and its claiming ambassador, then deletes the tripler together with its edges.
// Nothing is deleted when either message cannot be sent. Confirmed triplers cannot be detached.
func (m *Manager) Detach(ctx context.Context, triplerID string) error {
	tripler, err := m.store.GetTriplerByID(ctx, triplerID)
	if err != nil {
		return fmt.Errorf("failed to get tripler: %w", err)
	}
	if tripler == nil {
		return domain.NewNotFoundError(domain.MsgInvalidTripler)
	}
	if tripler.Status == domain.TriplerStatusConfirmed {
		return domain.NewStateError(domain.MsgCannotDetach)
	}

	claim, err := m.store.GetClaimByTripler(ctx, tripler.ID)
	if err != nil {
		return fmt.Errorf("failed to get claim: %w", err)
	}
	if claim == nil {
		return domain.NewStateError(domain.MsgCannotDetach)
	}

	ambassador, err := m.store.GetAmbassadorByID(ctx, claim.AmbassadorID)
	if err != nil {
		return fmt.Errorf("failed to get ambassador: %w", err)
	}
	if ambassador == nil {
		return domain.NewStateError(domain.MsgCannotDetach)
	}

	data := m.renderer.NewData(tripler, ambassador)
	if err := m.send(ctx, tripler.Phone, messages.RejectionForTripler, data); err != nil {
		return err
	}
	if err := m.send(ctx, ambassador.Phone, messages.RejectionForAmbassador, data); err != nil {
		return err
	}

	deleted, err := m.store.DetachTripler(ctx, tripler.ID)
	if errors.Is(err, domain.ErrStatusMismatch) {
		return domain.NewStateError(domain.MsgCannotDetach)
	}
	if err != nil {
		return fmt.Errorf("failed to delete tripler: %w", err)
	}
	if !deleted {
		return domain.NewNotFoundError(domain.MsgInvalidTripler)
	}

	logger.InfoCtx(ctx, "Tripler detached",
		zap.String("tripler_id", tripler.ID),
		zap.String("ambassador_id", ambassador.ID))

	event := messaging.NewTriplerEvent(domain.TriplerEventDetached, tripler.ID, ambassador.ID, m.clock.Now())
	if err := m.publisher.PublishTriplerEvent(ctx, event); err != nil {
		logger.WarnCtx(ctx, "Failed to publish tripler event",
			zap.Error(err),
			zap.String("tripler_id", tripler.ID))
	}

	return nil
}

func (m *Manager) send(ctx context.Context, to string, name messages.Name, data messages.Data) error {
	body, err := m.renderer.Render(name, data)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	if err := m.notifier.SendSMS(ctx, to, body); err != nil {
		return domain.NewDependencyError(domain.MsgRejectionSMS, err)
	}
	return nil
}
