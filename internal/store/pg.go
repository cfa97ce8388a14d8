package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/votetripling/ambassador-api/internal/domain"
	"github.com/votetripling/ambassador-api/internal/store/schema"
)

// pgUniqueViolation is the SQLSTATE of a unique constraint violation
const pgUniqueViolation = "23505"

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// Zero values fall back to the defaults of NormalizeConnectionPoolSettings.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns <= 0 {
		maxOpenConns = 20
	}
	if maxIdleConns <= 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime <= 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime <= 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// translateError maps unique constraint violations to domain sentinels
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return err
	}

	switch pgErr.ConstraintName {
	case "idx_triplers_phone":
		return domain.ErrPhoneTaken
	case "idx_triplers_email":
		return domain.ErrEmailTaken
	case "idx_ambassadors_phone":
		return domain.ErrAmbassadorExists
	case "claims_pkey":
		return domain.ErrAlreadyClaimed
	default:
		return err
	}
}

// escapeLike escapes LIKE wildcards in user input
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func statusStrings(statuses []domain.TriplerStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// CreateTripler creates an unconfirmed tripler
func (s *pgStore) CreateTripler(ctx context.Context, input CreateTriplerInput) (*schema.Tripler, error) {
	tripler := newTripler(input, time.Now().UTC())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(tripler).Error
	})
	if err != nil {
		if err = translateError(err); isDomainSentinel(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create tripler: %w", err)
	}

	return tripler, nil
}

func (s *pgStore) getTripler(ctx context.Context, field string, value string) (*schema.Tripler, error) {
	var tripler schema.Tripler
	err := s.db.WithContext(ctx).Where(field+" = ?", value).First(&tripler).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tripler: %w", err)
	}
	return &tripler, nil
}

// GetTriplerByID retrieves a tripler by id
func (s *pgStore) GetTriplerByID(ctx context.Context, id string) (*schema.Tripler, error) {
	if !validID(id) {
		return nil, nil
	}
	return s.getTripler(ctx, "id", id)
}

// GetTriplerByPhone retrieves a tripler by canonical phone
func (s *pgStore) GetTriplerByPhone(ctx context.Context, phone string) (*schema.Tripler, error) {
	return s.getTripler(ctx, "phone", phone)
}

// GetTriplerByEmail retrieves a tripler by email
func (s *pgStore) GetTriplerByEmail(ctx context.Context, email string) (*schema.Tripler, error) {
	return s.getTripler(ctx, "email", email)
}

// GetTriplersByIDs retrieves several triplers, keyed by id
func (s *pgStore) GetTriplersByIDs(ctx context.Context, ids []string) (map[string]*schema.Tripler, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	result := make(map[string]*schema.Tripler, len(valid))
	if len(valid) == 0 {
		return result, nil
	}

	var triplers []*schema.Tripler
	if err := s.db.WithContext(ctx).Where("id IN ?", valid).Find(&triplers).Error; err != nil {
		return nil, fmt.Errorf("failed to get triplers by ids: %w", err)
	}
	for _, t := range triplers {
		result[t.ID] = t
	}

	return result, nil
}

// UpdateTripler applies a partial profile update
func (s *pgStore) UpdateTripler(ctx context.Context, id string, input UpdateTriplerInput) (*schema.Tripler, error) {
	if !validID(id) {
		return nil, nil
	}

	var updated *schema.Tripler
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tripler schema.Tripler
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&tripler).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		updates := triplerUpdates(input)
		if len(updates) == 0 {
			updated = &tripler
			return nil
		}
		updates["updated_at"] = time.Now().UTC()

		if err := tx.Model(&schema.Tripler{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		var fresh schema.Tripler
		if err := tx.Where("id = ?", id).First(&fresh).Error; err != nil {
			return err
		}
		updated = &fresh
		return nil
	})
	if err != nil {
		if err = translateError(err); isDomainSentinel(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update tripler: %w", err)
	}

	return updated, nil
}

// triplerUpdates builds the column map of a partial tripler update
func triplerUpdates(input UpdateTriplerInput) map[string]interface{} {
	updates := map[string]interface{}{}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
		updates["first_name_normalized"] = domain.NormalizeName(*input.FirstName)
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
		updates["last_name_normalized"] = domain.NormalizeName(*input.LastName)
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.Email != nil {
		updates["email"] = *input.Email
	}
	if input.VoterID != nil {
		updates["voter_id"] = *input.VoterID
	}
	if input.Address != nil {
		addr := *input.Address
		addr.SchemaVersion = schema.AddressSchemaVersion
		updates["address"] = datatypes.NewJSONType(addr)
	}
	if input.Location != nil {
		updates["latitude"] = input.Location.Latitude
		updates["longitude"] = input.Location.Longitude
	}
	return updates
}

// DeleteTripler deletes a tripler; foreign keys cascade to its edges
func (s *pgStore) DeleteTripler(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}

	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&schema.Tripler{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete tripler: %w", err)
	}

	return deleted, nil
}

// DetachTripler deletes a tripler unless it is confirmed
func (s *pgStore) DetachTripler(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}

	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND status <> ?", id, string(domain.TriplerStatusConfirmed)).Delete(&schema.Tripler{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			deleted = true
			return nil
		}

		var count int64
		if err := tx.Model(&schema.Tripler{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrStatusMismatch
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrStatusMismatch) {
			return false, err
		}
		return false, fmt.Errorf("failed to detach tripler: %w", err)
	}

	return deleted, nil
}

// UpdateTriplerPhone changes the phone of a tripler
func (s *pgStore) UpdateTriplerPhone(ctx context.Context, id string, phone string) error {
	if !validID(id) {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&schema.Tripler{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"phone":      phone,
				"updated_at": time.Now().UTC(),
			}).Error
	})
	if err != nil {
		if err = translateError(err); isDomainSentinel(err) {
			return err
		}
		return fmt.Errorf("failed to update tripler phone: %w", err)
	}

	return nil
}

// BeginConfirmation moves a tripler to pending with a compare-and-set on status
func (s *pgStore) BeginConfirmation(ctx context.Context, input BeginConfirmationInput) (*schema.Tripler, error) {
	if !validID(input.TriplerID) {
		return nil, domain.ErrStatusMismatch
	}

	var updated schema.Tripler
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":     string(domain.TriplerStatusPending),
			"phone":      input.Phone,
			"triplees":   datatypes.NewJSONType(schema.NewTriplees(input.Triplees)),
			"updated_at": time.Now().UTC(),
		}
		if len(input.Verification) > 0 {
			data, err := json.Marshal(input.Verification)
			if err != nil {
				return fmt.Errorf("failed to marshal verification: %w", err)
			}
			updates["verification"] = gorm.Expr("verification || ?::jsonb", string(data))
		}

		res := tx.Model(&schema.Tripler{}).
			Where("id = ? AND status IN ?", input.TriplerID, statusStrings(input.FromStatuses)).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrStatusMismatch
		}

		return tx.Where("id = ?", input.TriplerID).First(&updated).Error
	})
	if err != nil {
		if err = translateError(err); isDomainSentinel(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to begin confirmation: %w", err)
	}

	return &updated, nil
}

// ConfirmTripler moves a pending tripler to confirmed and issues its payouts in one transaction.
// The status update is conditional on the tripler being pending and claimed by the payee.
func (s *pgStore) ConfirmTripler(ctx context.Context, input ConfirmTriplerInput) (*ConfirmResult, error) {
	if !validID(input.TriplerID) || !validID(input.AmbassadorID) {
		return nil, domain.ErrStatusMismatch
	}

	result := &ConfirmResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&schema.Tripler{}).
			Where("id = ? AND status = ?", input.TriplerID, string(domain.TriplerStatusPending)).
			Where("EXISTS (SELECT 1 FROM claims c WHERE c.tripler_id = triplers.id AND c.ambassador_id = ?)", input.AmbassadorID).
			Updates(map[string]interface{}{
				"status":       string(domain.TriplerStatusConfirmed),
				"confirmed_at": input.ConfirmedAt,
				"updated_at":   time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrStatusMismatch
		}

		var updated schema.Tripler
		if err := tx.Where("id = ?", input.TriplerID).First(&updated).Error; err != nil {
			return err
		}
		result.Tripler = &updated

		payout, err := insertPayout(tx, input.AmbassadorID, input.TriplerID, input.PayoutAmount, input.ConfirmedAt)
		if err != nil {
			return fmt.Errorf("failed to create payout: %w", err)
		}
		result.Payout = payout

		bonus, err := payReferralBonus(tx, input.AmbassadorID, input.ReferralBonusAmount, input.ConfirmedAt)
		if err != nil {
			return fmt.Errorf("failed to apply referral bonus: %w", err)
		}
		result.Bonus = bonus

		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrStatusMismatch) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to confirm tripler: %w", err)
	}

	return result, nil
}

// AppendCarrierInfo appends a carrier lookup using jsonb concatenation so concurrent appends never overwrite
func (s *pgStore) AppendCarrierInfo(ctx context.Context, id string, record domain.CarrierRecord) error {
	if !validID(id) {
		return nil
	}

	data, err := json.Marshal([]domain.CarrierRecord{record})
	if err != nil {
		return fmt.Errorf("failed to marshal carrier record: %w", err)
	}

	updates := map[string]interface{}{
		"carrier_info": gorm.Expr("carrier_info || ?::jsonb", string(data)),
		"updated_at":   time.Now().UTC(),
	}
	if record.IsBlocked {
		updates["blocked_carrier_info"] = gorm.Expr("blocked_carrier_info || ?::jsonb", string(data))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&schema.Tripler{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return fmt.Errorf("failed to append carrier info: %w", err)
	}

	return nil
}

// ListTriplersPendingUpgrade lists claimed, confirmed triplers that were not sent the upgrade sms
func (s *pgStore) ListTriplersPendingUpgrade(ctx context.Context, limit int) ([]*schema.Tripler, error) {
	var triplers []*schema.Tripler
	err := s.db.WithContext(ctx).
		Where("status = ? AND upgrade_sms_sent = ?", string(domain.TriplerStatusConfirmed), false).
		Where("EXISTS (SELECT 1 FROM claims c WHERE c.tripler_id = triplers.id)").
		Order("confirmed_at ASC, id ASC").
		Limit(limit).
		Find(&triplers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list triplers pending upgrade: %w", err)
	}

	return triplers, nil
}

// MarkUpgradeSMSSent flags a tripler as sent the upgrade sms
func (s *pgStore) MarkUpgradeSMSSent(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}

	var marked bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&schema.Tripler{}).
			Where("id = ? AND upgrade_sms_sent = ?", id, false).
			Updates(map[string]interface{}{
				"upgrade_sms_sent": true,
				"updated_at":       time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		marked = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to mark upgrade sms sent: %w", err)
	}

	return marked, nil
}

// CreateAmbassador creates an ambassador and links WAS_ONCE to a tripler with the same phone
func (s *pgStore) CreateAmbassador(ctx context.Context, input CreateAmbassadorInput) (*schema.Ambassador, error) {
	ambassador := newAmbassador(input, time.Now().UTC())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ambassador).Error; err != nil {
			return err
		}

		var tripler schema.Tripler
		err := tx.Where("phone = ?", ambassador.Phone).First(&tripler).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		return tx.Create(&schema.WasOnce{
			AmbassadorID: ambassador.ID,
			TriplerID:    tripler.ID,
		}).Error
	})
	if err != nil {
		if err = translateError(err); isDomainSentinel(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create ambassador: %w", err)
	}

	return ambassador, nil
}

func (s *pgStore) getAmbassador(ctx context.Context, field string, value string) (*schema.Ambassador, error) {
	var ambassador schema.Ambassador
	err := s.db.WithContext(ctx).Where(field+" = ?", value).First(&ambassador).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ambassador: %w", err)
	}
	return &ambassador, nil
}

// GetAmbassadorByID retrieves an ambassador by id
func (s *pgStore) GetAmbassadorByID(ctx context.Context, id string) (*schema.Ambassador, error) {
	if !validID(id) {
		return nil, nil
	}
	return s.getAmbassador(ctx, "id", id)
}

// GetAmbassadorByPhone retrieves an ambassador by canonical phone
func (s *pgStore) GetAmbassadorByPhone(ctx context.Context, phone string) (*schema.Ambassador, error) {
	return s.getAmbassador(ctx, "phone", phone)
}

// CreateClaim creates a CLAIMS edge. The ambassador row is locked so the claim limit holds under concurrency;
// the claims primary key on tripler_id is the final arbiter of exclusivity.
func (s *pgStore) CreateClaim(ctx context.Context, input CreateClaimInput) (*schema.Claim, error) {
	if !validID(input.AmbassadorID) || !validID(input.TriplerID) {
		return nil, fmt.Errorf("invalid claim ids %q -> %q", input.AmbassadorID, input.TriplerID)
	}

	claim := &schema.Claim{
		AmbassadorID: input.AmbassadorID,
		TriplerID:    input.TriplerID,
		Since:        input.Since,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ambassador schema.Ambassador
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", input.AmbassadorID).
			First(&ambassador).Error; err != nil {
			return fmt.Errorf("failed to lock ambassador: %w", err)
		}

		if input.Limit > 0 {
			var count int64
			if err := tx.Model(&schema.Claim{}).Where("ambassador_id = ?", input.AmbassadorID).Count(&count).Error; err != nil {
				return err
			}
			if count >= int64(input.Limit) {
				return domain.ErrClaimLimitReached
			}
		}

		var wasOnce int64
		if err := tx.Model(&schema.WasOnce{}).Where("tripler_id = ?", input.TriplerID).Count(&wasOnce).Error; err != nil {
			return err
		}
		if wasOnce > 0 {
			return domain.ErrAlreadyClaimed
		}

		return tx.Create(claim).Error
	})
	if err != nil {
		if err = translateError(err); isDomainSentinel(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create claim: %w", err)
	}

	return claim, nil
}

// GetClaimByTripler retrieves the active claim of a tripler
func (s *pgStore) GetClaimByTripler(ctx context.Context, triplerID string) (*schema.Claim, error) {
	if !validID(triplerID) {
		return nil, nil
	}

	var claim schema.Claim
	err := s.db.WithContext(ctx).Where("tripler_id = ?", triplerID).First(&claim).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}

	return &claim, nil
}

// CountClaims counts the claims held by an ambassador
func (s *pgStore) CountClaims(ctx context.Context, ambassadorID string) (int64, error) {
	if !validID(ambassadorID) {
		return 0, nil
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&schema.Claim{}).Where("ambassador_id = ?", ambassadorID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count claims: %w", err)
	}

	return count, nil
}

// ListClaimedTriplers lists the triplers claimed by an ambassador, oldest claim first
func (s *pgStore) ListClaimedTriplers(ctx context.Context, ambassadorID string) ([]*schema.Tripler, error) {
	if !validID(ambassadorID) {
		return []*schema.Tripler{}, nil
	}

	var triplers []*schema.Tripler
	err := s.db.WithContext(ctx).
		Joins("JOIN claims c ON c.tripler_id = triplers.id").
		Where("c.ambassador_id = ?", ambassadorID).
		Order("c.since ASC, triplers.id ASC").
		Find(&triplers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list claimed triplers: %w", err)
	}

	return triplers, nil
}

// GetWasOnce retrieves the WAS_ONCE edge of an ambassador
func (s *pgStore) GetWasOnce(ctx context.Context, ambassadorID string) (*schema.WasOnce, error) {
	if !validID(ambassadorID) {
		return nil, nil
	}

	var wasOnce schema.WasOnce
	err := s.db.WithContext(ctx).Where("ambassador_id = ?", ambassadorID).First(&wasOnce).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get was_once: %w", err)
	}

	return &wasOnce, nil
}

// insertPayout creates a pending payout and its GETS_PAID edge within tx
func insertPayout(tx *gorm.DB, ambassadorID, triplerID string, amount int64, createdAt time.Time) (*schema.Payout, error) {
	payout := newPayout(amount, createdAt)
	if err := tx.Create(payout).Error; err != nil {
		return nil, err
	}
	if err := tx.Create(&schema.GetsPaid{
		AmbassadorID: ambassadorID,
		PayoutID:     payout.ID,
		TriplerID:    triplerID,
	}).Error; err != nil {
		return nil, err
	}
	return payout, nil
}

// payReferralBonus flips was_once.rewarded_previous_claimer with a conditional update and, when this
// caller won, pays the claimer of the former tripler record within tx. Returns nil, nil when no bonus is due.
func payReferralBonus(tx *gorm.DB, ambassadorID string, amount int64, createdAt time.Time) (*ReferralBonus, error) {
	res := tx.Model(&schema.WasOnce{}).
		Where("ambassador_id = ? AND rewarded_previous_claimer = ?", ambassadorID, false).
		Where("EXISTS (SELECT 1 FROM triplers t WHERE t.id = was_once.tripler_id AND t.status = ?)",
			string(domain.TriplerStatusConfirmed)).
		Where("EXISTS (SELECT 1 FROM claims c WHERE c.tripler_id = was_once.tripler_id)").
		Update("rewarded_previous_claimer", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	var wasOnce schema.WasOnce
	if err := tx.Where("ambassador_id = ?", ambassadorID).First(&wasOnce).Error; err != nil {
		return nil, err
	}

	if err := tx.Model(&schema.Tripler{}).
		Where("id = ?", wasOnce.TriplerID).
		Updates(map[string]interface{}{
			"is_ambassador_and_has_confirmed": true,
			"updated_at":                      time.Now().UTC(),
		}).Error; err != nil {
		return nil, err
	}

	var claim schema.Claim
	if err := tx.Where("tripler_id = ?", wasOnce.TriplerID).First(&claim).Error; err != nil {
		return nil, fmt.Errorf("failed to get claimer of former tripler: %w", err)
	}

	payout, err := insertPayout(tx, claim.AmbassadorID, wasOnce.TriplerID, amount, createdAt)
	if err != nil {
		return nil, err
	}

	return &ReferralBonus{
		Payout:    payout,
		ClaimerID: claim.AmbassadorID,
		TriplerID: wasOnce.TriplerID,
	}, nil
}

// ListPayoutsByAmbassador lists payouts earned by an ambassador with their tripler, oldest first
func (s *pgStore) ListPayoutsByAmbassador(ctx context.Context, ambassadorID string) ([]*EarnedPayout, error) {
	out := []*EarnedPayout{}
	if !validID(ambassadorID) {
		return out, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var edges []schema.GetsPaid
		if err := tx.Where("ambassador_id = ?", ambassadorID).Find(&edges).Error; err != nil {
			return err
		}
		if len(edges) == 0 {
			return nil
		}

		triplerByPayout := make(map[string]string, len(edges))
		payoutIDs := make([]string, 0, len(edges))
		for _, g := range edges {
			triplerByPayout[g.PayoutID] = g.TriplerID
			payoutIDs = append(payoutIDs, g.PayoutID)
		}

		var payouts []*schema.Payout
		if err := tx.Where("id IN ?", payoutIDs).
			Order("created_at ASC, id ASC").
			Find(&payouts).Error; err != nil {
			return err
		}
		for _, p := range payouts {
			out = append(out, &EarnedPayout{Payout: p, TriplerID: triplerByPayout[p.ID]})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}

	return out, nil
}

// SearchTriplers runs the admin filter search
func (s *pgStore) SearchTriplers(ctx context.Context, filter TriplerFilter) ([]*schema.Tripler, error) {
	q := s.db.WithContext(ctx).Model(&schema.Tripler{})

	if filter.Phone != "" {
		q = q.Where("phone = ?", filter.Phone)
	}
	if filter.Email != "" {
		q = q.Where("email = ?", filter.Email)
	}
	if filter.FirstName != "" {
		q = q.Where("first_name_normalized LIKE ?", "%"+escapeLike(filter.FirstName)+"%")
	}
	if filter.LastName != "" {
		q = q.Where("last_name_normalized LIKE ?", "%"+escapeLike(filter.LastName)+"%")
	}
	if filter.VoterID != "" {
		q = q.Where("voter_id = ?", filter.VoterID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.IsAmbassadorAndHasConfirmed != nil {
		q = q.Where("is_ambassador_and_has_confirmed = ?", *filter.IsAmbassadorAndHasConfirmed)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var triplers []*schema.Tripler
	err := q.Order("last_name_normalized ASC, first_name_normalized ASC, id ASC").Find(&triplers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search triplers: %w", err)
	}

	return triplers, nil
}

// FindNameCandidates runs the bounded name lookup that seeds fuzzy search
func (s *pgStore) FindNameCandidates(ctx context.Context, filter NameCandidateFilter) ([]*schema.Tripler, error) {
	type field struct {
		column string
		query  string
	}
	var fields []field
	if filter.FirstName != "" {
		fields = append(fields, field{"first_name_normalized", filter.FirstName})
	}
	if filter.LastName != "" {
		fields = append(fields, field{"last_name_normalized", filter.LastName})
	}
	if len(fields) == 0 {
		return []*schema.Tripler{}, nil
	}

	var (
		matchSQL    []string
		matchArgs   []interface{}
		containsSQL []string
		containsArg []interface{}
	)
	for _, f := range fields {
		contains := "%" + escapeLike(f.query) + "%"
		prefix := escapeLike(namePrefix(f.query)) + "%"
		matchSQL = append(matchSQL, fmt.Sprintf("%s LIKE ? OR %s LIKE ?", f.column, f.column))
		matchArgs = append(matchArgs, contains, prefix)
		containsSQL = append(containsSQL, f.column+" LIKE ?")
		containsArg = append(containsArg, contains)
	}

	q := s.db.WithContext(ctx).
		Where(strings.Join(matchSQL, " OR "), matchArgs...)
	if filter.ExcludeClaimed {
		q = q.Where("NOT EXISTS (SELECT 1 FROM claims c WHERE c.tripler_id = triplers.id)").
			Where("NOT EXISTS (SELECT 1 FROM was_once w WHERE w.tripler_id = triplers.id)")
	}

	q = q.Clauses(clause.OrderBy{
		Expression: clause.Expr{
			SQL:                "CASE WHEN " + strings.Join(containsSQL, " OR ") + " THEN 0 ELSE 1 END, id ASC",
			Vars:               containsArg,
			WithoutParentheses: true,
		},
	})
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var triplers []*schema.Tripler
	if err := q.Find(&triplers).Error; err != nil {
		return nil, fmt.Errorf("failed to find name candidates: %w", err)
	}

	return triplers, nil
}

// distanceMetersSQL is the haversine distance in meters between the @lat/@lng origin and a tripler row t
const distanceMetersSQL = `2 * 6371000 * asin(least(1, sqrt(
	power(sin(radians(t.latitude - @lat) / 2), 2) +
	cos(radians(@lat)) * cos(radians(t.latitude)) * power(sin(radians(t.longitude - @lng) / 2), 2))))`

// SuggestTriplers lists unclaimed triplers nearest to the origin
func (s *pgStore) SuggestTriplers(ctx context.Context, filter SuggestFilter) ([]SuggestedTripler, error) {
	type row struct {
		ID             string
		DistanceMeters float64
	}

	var rows []row
	err := s.db.WithContext(ctx).Raw(`
SELECT id, distance_meters FROM (
	SELECT t.id AS id, `+distanceMetersSQL+` AS distance_meters
	FROM triplers t
	WHERE NOT EXISTS (SELECT 1 FROM claims c WHERE c.tripler_id = t.id)
	  AND NOT EXISTS (SELECT 1 FROM was_once w WHERE w.tripler_id = t.id)
) d
WHERE distance_meters <= @max
ORDER BY distance_meters ASC, id ASC
LIMIT @limit`,
		map[string]interface{}{
			"lat":   filter.Origin.Latitude,
			"lng":   filter.Origin.Longitude,
			"max":   filter.MaxDistanceMeters,
			"limit": filter.Limit,
		}).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to suggest triplers: %w", err)
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	triplers, err := s.GetTriplersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]SuggestedTripler, 0, len(rows))
	for _, r := range rows {
		if t, ok := triplers[r.ID]; ok {
			result = append(result, SuggestedTripler{Tripler: t, DistanceMeters: r.DistanceMeters})
		}
	}

	return result, nil
}

// Ping checks the database connection
func (s *pgStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
