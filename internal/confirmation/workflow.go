package confirmation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/votetripling/ambassador-api/internal/adapter"
	"github.com/votetripling/ambassador-api/internal/domain"
	"github.com/votetripling/ambassador-api/internal/fraud"
	"github.com/votetripling/ambassador-api/internal/logger"
	"github.com/votetripling/ambassador-api/internal/lookup"
	"github.com/votetripling/ambassador-api/internal/messages"
	"github.com/votetripling/ambassador-api/internal/messaging"
	"github.com/votetripling/ambassador-api/internal/notify"
	"github.com/votetripling/ambassador-api/internal/reward"
	"github.com/votetripling/ambassador-api/internal/store"
	"github.com/votetripling/ambassador-api/internal/store/schema"
	"github.com/votetripling/ambassador-api/internal/tasks"
)

// Config holds the confirmation workflow settings
type Config struct {
	// AdminEmailDelay is how long after a confirmation the admin report is mailed
	AdminEmailDelay time.Duration
}

// Deps holds the collaborators of the confirmation workflow
type Deps struct {
	Store      store.Store
	Screen     *fraud.Screen
	Identities []lookup.IdentityLookup
	Notifier   notify.Notifier
	Renderer   *messages.Renderer
	Rewards    *reward.Engine
	Queue      tasks.Queue
	Publisher  messaging.Publisher
	Clock      adapter.Clock
}

// StartInput is the request of an ambassador to start confirming a claimed tripler
type StartInput struct {
	Ambassador *schema.Ambassador
	TriplerID  string
	// Phone replaces the tripler phone when set; it is normalized here
	Phone    string
	Triplees []domain.Triplee
}

// Workflow moves triplers through unconfirmed -> pending -> confirmed
type Workflow struct {
	Deps
	cfg Config
}

// NewWorkflow creates a confirmation workflow
func NewWorkflow(deps Deps, cfg Config) *Workflow {
	return &Workflow{Deps: deps, cfg: cfg}
}

// StartConfirmation screens the tripler phone, sends the confirmation sms and moves the tripler to pending.
// Nothing is persisted, except the carrier audit log, unless the sms was sent.
func (w *Workflow) StartConfirmation(ctx context.Context, input StartInput) (*schema.Tripler, error) {
	tripler, err := w.claimedTripler(ctx, input.Ambassador, input.TriplerID)
	if err != nil {
		return nil, err
	}

	if tripler.Status != domain.TriplerStatusUnconfirmed {
		return nil, domain.NewStateError(domain.MsgInvalidStatus)
	}

	if err := validateTriplees(input.Triplees); err != nil {
		return nil, err
	}

	phone := tripler.Phone
	if input.Phone != "" {
		phone, err = w.checkNewPhone(ctx, input.Ambassador, tripler, input.Phone)
		if err != nil {
			return nil, err
		}
	}
	if phone == input.Ambassador.Phone {
		return nil, domain.NewConflictError(domain.MsgSelfReferral)
	}

	screen, err := w.Screen.Check(ctx, tripler.ID, phone)
	if err != nil {
		return nil, err
	}
	if screen.Blocked {
		return nil, screen.BlockError()
	}

	verification := w.lookupIdentities(ctx, tripler.ID, phone)

	data := w.Renderer.NewData(tripler, input.Ambassador).WithTriplees(input.Triplees)
	if err := w.sendSMS(ctx, phone, messages.TriplerConfirmation, data); err != nil {
		return nil, domain.NewDependencyError(domain.MsgConfirmationSMS, err)
	}

	updated, err := w.Store.BeginConfirmation(ctx, store.BeginConfirmationInput{
		TriplerID:    tripler.ID,
		FromStatuses: []domain.TriplerStatus{domain.TriplerStatusUnconfirmed},
		Phone:        phone,
		Triplees:     input.Triplees,
		Verification: verification,
	})
	switch {
	case errors.Is(err, domain.ErrStatusMismatch):
		return nil, domain.NewStateError(domain.MsgInvalidStatus)
	case errors.Is(err, domain.ErrPhoneTaken):
		return nil, domain.NewConflictError(domain.MsgPhoneInUse)
	case err != nil:
		return nil, fmt.Errorf("failed to begin confirmation: %w", err)
	}

	logger.InfoCtx(ctx, "Tripler confirmation started",
		zap.String("tripler_id", updated.ID),
		zap.String("ambassador_id", input.Ambassador.ID))

	w.publish(ctx, domain.TriplerEventPending, updated.ID, input.Ambassador.ID)

	return updated, nil
}

// Confirm moves a pending tripler to confirmed, pays the claiming ambassador and reports the confirmation
func (w *Workflow) Confirm(ctx context.Context, triplerID string) (*schema.Tripler, error) {
	tripler, err := w.Store.GetTriplerByID(ctx, triplerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tripler: %w", err)
	}
	if tripler == nil {
		return nil, domain.NewNotFoundError(domain.MsgInvalidTripler)
	}
	if tripler.Status != domain.TriplerStatusPending {
		return nil, domain.NewStateError(domain.MsgCannotConfirm)
	}

	claim, ambassador, err := w.claimer(ctx, tripler.ID)
	if err != nil {
		return nil, err
	}
	if ambassador == nil {
		return nil, domain.NewStateError(domain.MsgUnclaimedTripler)
	}

	result, err := w.Rewards.Confirm(ctx, ambassador, tripler.ID)
	if errors.Is(err, domain.ErrStatusMismatch) {
		return nil, domain.NewStateError(domain.MsgCannotConfirm)
	}
	if err != nil {
		return nil, err
	}
	confirmed := result.Tripler

	logger.InfoCtx(ctx, "Tripler confirmed",
		zap.String("tripler_id", confirmed.ID),
		zap.String("ambassador_id", ambassador.ID))

	data := w.Renderer.NewData(confirmed, ambassador)
	data.PaymentAmount = domain.FormatCents(w.Renderer.Program().PayoutPerTripler)
	if err := w.sendSMS(ctx, ambassador.Phone, messages.AmbassadorTriplerConfirmed, data); err != nil {
		logger.WarnCtx(ctx, "Could not send ambassador sms on tripler confirmation",
			zap.Error(err),
			zap.String("tripler_id", confirmed.ID))
	}

	w.scheduleAdminEmail(ctx, adminReport{
		OrganizationName: w.Renderer.Program().OrganizationName,
		Tripler:          confirmed,
		AmbassadorName:   domain.FullName(ambassador.FirstName, ambassador.LastName),
		ClaimedAt:        claim.Since,
	})

	w.publish(ctx, domain.TriplerEventConfirmed, confirmed.ID, ambassador.ID)

	return confirmed, nil
}

// Remind resends the confirmation request of a pending tripler, optionally to a new phone
func (w *Workflow) Remind(ctx context.Context, ambassador *schema.Ambassador, triplerID string, newPhone string) (*schema.Tripler, error) {
	tripler, err := w.claimedTripler(ctx, ambassador, triplerID)
	if err != nil {
		return nil, err
	}
	if tripler.Status != domain.TriplerStatusPending {
		return nil, domain.NewStateError(domain.MsgInvalidStatus)
	}

	if newPhone != "" {
		phone, err := w.checkNewPhone(ctx, ambassador, tripler, newPhone)
		if err != nil {
			return nil, err
		}
		if phone != tripler.Phone {
			err := w.Store.UpdateTriplerPhone(ctx, tripler.ID, phone)
			if errors.Is(err, domain.ErrPhoneTaken) {
				return nil, domain.NewConflictError(domain.MsgPhoneInUse)
			}
			if err != nil {
				return nil, fmt.Errorf("failed to update tripler phone: %w", err)
			}
			tripler.Phone = phone
		}
	}

	data := w.Renderer.NewData(tripler, ambassador)
	if err := w.sendSMS(ctx, tripler.Phone, messages.TriplerReminder, data); err != nil {
		return nil, domain.NewDependencyError(domain.MsgReminderSMS, err)
	}

	return tripler, nil
}

// Reconfirm resends the reconfirmation message to a pending tripler. The status is left unchanged.
func (w *Workflow) Reconfirm(ctx context.Context, triplerID string) error {
	tripler, err := w.Store.GetTriplerByID(ctx, triplerID)
	if err != nil {
		return fmt.Errorf("failed to get tripler: %w", err)
	}
	if tripler == nil {
		return domain.NewNotFoundError(domain.MsgInvalidTripler)
	}
	if tripler.Status != domain.TriplerStatusPending {
		return domain.NewStateError(domain.MsgInvalidStatus)
	}

	_, ambassador, err := w.claimer(ctx, tripler.ID)
	if err != nil {
		return err
	}
	if ambassador == nil {
		return domain.NewStateError(domain.MsgUnclaimedTripler)
	}

	data := w.Renderer.NewData(tripler, ambassador)
	if err := w.sendSMS(ctx, tripler.Phone, messages.TriplerReconfirmation, data); err != nil {
		return domain.NewDependencyError(domain.MsgReconfirmationSMS, err)
	}

	return nil
}

// claimedTripler returns the tripler when it is claimed by ambassador
func (w *Workflow) claimedTripler(ctx context.Context, ambassador *schema.Ambassador, triplerID string) (*schema.Tripler, error) {
	if ambassador == nil {
		return nil, domain.NewNotFoundError(domain.MsgInvalidAmbassador)
	}

	tripler, err := w.Store.GetTriplerByID(ctx, triplerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tripler: %w", err)
	}
	if tripler == nil {
		return nil, domain.NewNotFoundError(domain.MsgInvalidTripler)
	}

	claim, err := w.Store.GetClaimByTripler(ctx, tripler.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	if claim == nil || claim.AmbassadorID != ambassador.ID {
		return nil, domain.NewNotFoundError(domain.MsgInvalidTripler)
	}

	return tripler, nil
}

// claimer returns the claim of a tripler and its ambassador, or nils when it is unclaimed
func (w *Workflow) claimer(ctx context.Context, triplerID string) (*schema.Claim, *schema.Ambassador, error) {
	claim, err := w.Store.GetClaimByTripler(ctx, triplerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get claim: %w", err)
	}
	if claim == nil {
		return nil, nil, nil
	}

	ambassador, err := w.Store.GetAmbassadorByID(ctx, claim.AmbassadorID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get ambassador: %w", err)
	}
	if ambassador == nil {
		return nil, nil, nil
	}
	return claim, ambassador, nil
}

// checkNewPhone normalizes a replacement phone and rejects self referrals and phones owned by another tripler
func (w *Workflow) checkNewPhone(ctx context.Context, ambassador *schema.Ambassador, tripler *schema.Tripler, raw string) (string, error) {
	phone, err := domain.NormalizePhone(raw)
	if err != nil {
		return "", domain.NewValidationError(domain.MsgInvalidPhone)
	}
	if phone == ambassador.Phone {
		return "", domain.NewConflictError(domain.MsgSelfReferral)
	}
	if phone == tripler.Phone {
		return phone, nil
	}

	other, err := w.Store.GetTriplerByPhone(ctx, phone)
	if err != nil {
		return "", fmt.Errorf("failed to get tripler by phone: %w", err)
	}
	if other != nil && other.ID != tripler.ID {
		return "", domain.NewConflictError(domain.MsgPhoneInUse)
	}
	return phone, nil
}

// lookupIdentities collects caller name records; failed lookups are skipped
func (w *Workflow) lookupIdentities(ctx context.Context, triplerID string, phone string) []domain.Verification {
	verification := []domain.Verification{}
	for _, identities := range w.Identities {
		v, err := identities.LookupIdentity(ctx, phone)
		if err != nil {
			logger.WarnCtx(ctx, "Could not get verification info for tripler",
				zap.Error(err),
				zap.String("tripler_id", triplerID))
			continue
		}
		if v != nil {
			verification = append(verification, *v)
		}
	}
	return verification
}

func (w *Workflow) sendSMS(ctx context.Context, to string, name messages.Name, data messages.Data) error {
	body, err := w.Renderer.Render(name, data)
	if err != nil {
		return err
	}
	return w.Notifier.SendSMS(ctx, to, body)
}

func (w *Workflow) scheduleAdminEmail(ctx context.Context, report adminReport) {
	recipients := w.Renderer.Program().AdminEmails
	if len(recipients) == 0 {
		return
	}

	triplerID := report.Tripler.ID
	err := w.Queue.Schedule(ctx, "admin_email", w.cfg.AdminEmailDelay, func(ctx context.Context) error {
		subject, err := w.Renderer.Render(messages.AdminEmailSubject, w.Renderer.NewData(report.Tripler, nil))
		if err != nil {
			return err
		}
		body, err := report.render()
		if err != nil {
			return err
		}
		return w.Notifier.SendEmail(ctx, recipients, subject, body)
	})
	if err != nil {
		logger.WarnCtx(ctx, "Could not schedule admin email",
			zap.Error(err),
			zap.String("tripler_id", triplerID))
	}
}

func (w *Workflow) publish(ctx context.Context, eventType domain.TriplerEventType, triplerID string, ambassadorID string) {
	event := messaging.NewTriplerEvent(eventType, triplerID, ambassadorID, w.Clock.Now())
	if err := w.Publisher.PublishTriplerEvent(ctx, event); err != nil {
		logger.WarnCtx(ctx, "Failed to publish tripler event",
			zap.Error(err),
			zap.String("tripler_id", triplerID),
			zap.String("event_type", string(eventType)))
	}
}

func validateTriplees(triplees []domain.Triplee) error {
	if len(triplees) != domain.RequiredTriplees {
		return domain.NewValidationError(domain.MsgInsufficientTriple)
	}
	for _, t := range triplees {
		if t.FirstName == "" {
			return domain.NewValidationError(domain.MsgInsufficientTriple)
		}
	}
	return nil
}
