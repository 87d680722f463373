package subscription

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fatoora/backend/internal/domain/account"
	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/domain/subscription"
	"github.com/fatoora/backend/internal/infrastructure/logger"
	"github.com/fatoora/backend/internal/infrastructure/telemetry"
)

const callbackKeyPrefix = "payment:"

// SubscriptionService evaluates entitlements and manages subscription payments
type SubscriptionService struct {
	records     subscription.SubscriptionRepository
	packages    subscription.PackageRepository
	accounts    account.AccountRepository
	tx          shared.AccountTransactor
	engine      *subscription.Engine
	idempotency shared.IdempotencyStore
	idemCfg     shared.IdempotencyConfig
	publisher   shared.EventPublisher
	clock       shared.Clock
	metrics     *telemetry.BusinessMetrics
	logger      *zap.Logger
}

// SubscriptionServiceConfig holds the dependencies of a SubscriptionService.
// IdempotencyStore, EventPublisher and Metrics are optional.
type SubscriptionServiceConfig struct {
	Records          subscription.SubscriptionRepository
	Packages         subscription.PackageRepository
	Accounts         account.AccountRepository
	Transactor       shared.AccountTransactor
	Engine           *subscription.Engine
	IdempotencyStore shared.IdempotencyStore
	Idempotency      shared.IdempotencyConfig
	EventPublisher   shared.EventPublisher
	Clock            shared.Clock
	Metrics          *telemetry.BusinessMetrics
	Logger           *zap.Logger
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(cfg SubscriptionServiceConfig) *SubscriptionService {
	clock := cfg.Clock
	if clock == nil {
		clock = shared.SystemClock{}
	}
	engine := cfg.Engine
	if engine == nil {
		engine = subscription.NewEngine(subscription.DefaultConfig(), clock)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	idemCfg := cfg.Idempotency
	if idemCfg.TTL <= 0 {
		idemCfg.TTL = shared.DefaultIdempotencyConfig().TTL
	}
	return &SubscriptionService{
		records:     cfg.Records,
		packages:    cfg.Packages,
		accounts:    cfg.Accounts,
		tx:          cfg.Transactor,
		engine:      engine,
		idempotency: cfg.IdempotencyStore,
		idemCfg:     idemCfg,
		publisher:   cfg.EventPublisher,
		clock:       clock,
		metrics:     cfg.Metrics,
		logger:      log,
	}
}

// EvaluateEntitlement decides whether the user may use the service now
func (s *SubscriptionService) EvaluateEntitlement(ctx context.Context, userID uuid.UUID) (*EntitlementResponse, error) {
	sub, err := s.subscriber(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toEntitlementResponse(s.engine.Evaluate(sub), s.engine.Config())
	return &resp, nil
}

// RequireEntitlement returns a ForbiddenError carrying the denial reason
// when the user may not use the service
func (s *SubscriptionService) RequireEntitlement(ctx context.Context, userID uuid.UUID) error {
	sub, err := s.subscriber(ctx, userID)
	if err != nil {
		return err
	}
	d := s.engine.Evaluate(sub)
	if !d.Allowed {
		s.metrics.RecordEntitlementDenied(ctx, string(d.Reason))
	}
	return s.denial(d)
}

// EvaluateCanPay decides whether the user may start a new payment
func (s *SubscriptionService) EvaluateCanPay(ctx context.Context, userID uuid.UUID) (*EntitlementResponse, error) {
	sub, err := s.subscriber(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toEntitlementResponse(s.engine.EvaluateCanPay(sub), s.engine.Config())
	return &resp, nil
}

// CreatePayment creates a pending record for a package. It is refused while
// another payment is pending or outside the renewal window.
func (s *SubscriptionService) CreatePayment(ctx context.Context, userID uuid.UUID, req CreatePaymentRequest) (*RecordResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "subscription", "create_payment")
	defer span.End()

	acc, err := s.accounts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	discount := decimal.Zero
	if req.Discount != nil {
		discount = *req.Discount
	}

	var record *subscription.Record
	err = s.tx.WithinAccount(ctx, acc.ID, func(ctx context.Context) error {
		records, err := s.records.ListByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("list subscription records: %w", err)
		}
		sub := subscription.Subscriber{UserID: userID, JoinedAt: acc.JoinedAt, Records: records}
		if err := s.denial(s.engine.EvaluateCanPay(sub)); err != nil {
			return err
		}

		pkg, err := s.packages.FindByID(ctx, req.PackageID)
		if err != nil {
			if shared.IsNotFound(err) {
				return shared.NewValidationError("INVALID_PACKAGE", "package_id", "package does not exist")
			}
			return err
		}
		record, err = subscription.NewRecord(userID, pkg, req.DurationMonths, discount, s.clock.Now())
		if err != nil {
			return err
		}
		return s.records.Create(ctx, record)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, subscription.NewPaymentCreatedEvent(record))
	logger.FromContextOr(ctx, s.logger).Info("Subscription payment created",
		zap.String("user_id", userID.String()),
		zap.String("record_id", record.ID.String()),
		zap.String("package", record.PackageName),
		zap.Int("duration_months", record.DurationMonths))

	resp := ToRecordResponse(record)
	return &resp, nil
}

// ApplyCompletedPayment computes the expiration of a completed record. It is
// idempotent: a record that was already applied is returned as stored.
func (s *SubscriptionService) ApplyCompletedPayment(ctx context.Context, recordID uuid.UUID) (*RecordResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "subscription", "apply_completed_payment")
	defer span.End()

	record, _, err := s.settle(ctx, recordID, func(r *subscription.Record) error {
		if r.Status != subscription.RecordStatusCompleted {
			return shared.NewValidationError("RECORD_NOT_COMPLETED", "status",
				fmt.Sprintf("a %s subscription record cannot be applied", r.Status))
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToRecordResponse(record)
	return &resp, nil
}

// HandlePaymentCallback applies a gateway notification. Callback IDs already
// seen within the idempotency TTL are acknowledged without touching the
// database. A paid callback completes and applies the record; a failed one
// deactivates a record that is not completed yet.
func (s *SubscriptionService) HandlePaymentCallback(ctx context.Context, req PaymentCallbackRequest) (*CallbackResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "subscription", "handle_payment_callback")
	defer span.End()

	log := logger.FromContextOr(ctx, s.logger).With(
		zap.String("callback_id", req.CallbackID),
		zap.String("record_id", req.RecordID.String()))

	key := callbackKeyPrefix + req.CallbackID
	if s.dedupEnabled() {
		seen, err := s.idempotency.IsProcessed(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("check callback %s: %w", req.CallbackID, err)
		}
		if seen {
			s.metrics.RecordPaymentCallback(ctx, telemetry.CallbackDuplicate)
			log.Info("Payment callback already processed")
			return &CallbackResponse{RecordID: req.RecordID, AlreadyProcessed: true}, nil
		}
	}

	var mutate func(r *subscription.Record) error
	if req.IsPaid() {
		mutate = func(r *subscription.Record) error {
			return r.MarkCompleted(s.clock.Now())
		}
	} else {
		mutate = func(r *subscription.Record) error {
			if r.Status == subscription.RecordStatusCompleted {
				log.Warn("Ignoring failed callback for a completed record")
				return nil
			}
			return r.Deactivate(req.Note, s.clock.Now())
		}
	}

	record, applied, err := s.settle(ctx, req.RecordID, mutate)
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordPaymentCallback(ctx, telemetry.CallbackFailed)
		log.Error("Failed to handle payment callback", zap.Error(err))
		return nil, err
	}

	resp := &CallbackResponse{RecordID: record.ID, Status: string(record.Status), Applied: applied}
	if s.dedupEnabled() {
		fresh, err := s.idempotency.MarkProcessed(ctx, key, s.idemCfg.TTL)
		if err != nil {
			log.Warn("Failed to mark payment callback processed", zap.Error(err))
		} else if !fresh {
			resp.AlreadyProcessed = true
		}
	}
	rr := ToRecordResponse(record)
	resp.Record = &rr
	s.metrics.RecordPaymentCallback(ctx, callbackOutcome(resp))

	log.Info("Payment callback handled",
		zap.String("status", resp.Status),
		zap.Bool("applied", applied))
	return resp, nil
}

// settle loads a record inside its owner's account transaction and lets
// mutate change it. A completed record is then applied exactly once; any
// other status change is stored as is. It reports whether this call set the
// expiration.
func (s *SubscriptionService) settle(ctx context.Context, recordID uuid.UUID, mutate func(r *subscription.Record) error) (*subscription.Record, bool, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, false, err
	}
	acc, err := s.accounts.FindByUserID(ctx, record.UserID)
	if err != nil {
		return nil, false, err
	}

	var applied bool
	err = s.tx.WithinAccount(ctx, acc.ID, func(ctx context.Context) error {
		r, err := s.records.FindByID(ctx, recordID)
		if err != nil {
			return err
		}
		record = r

		prev := r.Status
		if err := mutate(r); err != nil {
			return err
		}
		if r.Status != subscription.RecordStatusCompleted {
			if r.Status == prev {
				return nil
			}
			return s.records.UpdateStatus(ctx, r)
		}
		if r.IsApplied() {
			return nil
		}

		applied, err = s.applyCompleted(ctx, r, acc)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if applied {
		s.publish(ctx, subscription.NewPaymentAppliedEvent(record))
		logger.FromContextOr(ctx, s.logger).Info("Subscription payment applied",
			zap.String("user_id", record.UserID.String()),
			zap.String("record_id", record.ID.String()),
			zap.Time("expiration_date", *record.ExpirationDate))
	}
	return record, applied, nil
}

// applyCompleted runs the engine on r and stores the result guarded by
// expiration_date IS NULL. When another writer won, r is replaced by the
// stored record.
func (s *SubscriptionService) applyCompleted(ctx context.Context, r *subscription.Record, acc *account.Account) (bool, error) {
	records, err := s.records.ListByUser(ctx, r.UserID)
	if err != nil {
		return false, fmt.Errorf("list subscription records: %w", err)
	}
	pkg, err := s.packageOf(ctx, r)
	if err != nil {
		return false, err
	}

	sub := subscription.Subscriber{UserID: r.UserID, JoinedAt: acc.JoinedAt, Records: records}
	applied, err := s.engine.ApplyCompletedPayment(r, sub, pkg)
	if err != nil || !applied {
		return false, err
	}

	stored, err := s.records.CompleteIfUnapplied(ctx, r)
	if err != nil {
		return false, fmt.Errorf("store applied record: %w", err)
	}
	if !stored {
		current, err := s.records.FindByID(ctx, r.ID)
		if err != nil {
			return false, err
		}
		*r = *current
		return false, nil
	}
	return true, nil
}

// packageOf loads the record's package when the record still needs pricing
func (s *SubscriptionService) packageOf(ctx context.Context, r *subscription.Record) (*subscription.Package, error) {
	if r.Amount != nil || r.PackageID == nil {
		return nil, nil
	}
	pkg, err := s.packages.FindByID(ctx, *r.PackageID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return pkg, nil
}

// ListRecords returns the user's records, oldest first
func (s *SubscriptionService) ListRecords(ctx context.Context, userID uuid.UUID) ([]RecordResponse, error) {
	records, err := s.records.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]RecordResponse, len(records))
	for i := range records {
		out[i] = ToRecordResponse(&records[i])
	}
	return out, nil
}

// ListPackages returns the purchasable packages
func (s *SubscriptionService) ListPackages(ctx context.Context) ([]PackageResponse, error) {
	pkgs, err := s.packages.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PackageResponse, len(pkgs))
	for i := range pkgs {
		out[i] = ToPackageResponse(&pkgs[i])
	}
	return out, nil
}

// CreatePackage adds a purchasable package
func (s *SubscriptionService) CreatePackage(ctx context.Context, req CreatePackageRequest) (*PackageResponse, error) {
	pkg, err := subscription.NewPackage(req.Name, req.Description, req.Price, req.FiscalRelated, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.packages.Save(ctx, pkg); err != nil {
		return nil, err
	}
	resp := ToPackageResponse(pkg)
	return &resp, nil
}

func (s *SubscriptionService) subscriber(ctx context.Context, userID uuid.UUID) (subscription.Subscriber, error) {
	acc, err := s.accounts.FindByUserID(ctx, userID)
	if err != nil {
		return subscription.Subscriber{}, err
	}
	records, err := s.records.ListByUser(ctx, userID)
	if err != nil {
		return subscription.Subscriber{}, fmt.Errorf("list subscription records: %w", err)
	}
	return subscription.Subscriber{UserID: userID, JoinedAt: acc.JoinedAt, Records: records}, nil
}

func (s *SubscriptionService) denial(d subscription.Decision) error {
	if d.Allowed {
		return nil
	}
	return shared.NewForbiddenError(strings.ToUpper(string(d.Reason)), d.Reason.Message(s.engine.Config()))
}

func callbackOutcome(resp *CallbackResponse) string {
	switch {
	case resp.AlreadyProcessed:
		return telemetry.CallbackDuplicate
	case resp.Applied:
		return telemetry.CallbackApplied
	default:
		return telemetry.CallbackUpdated
	}
}

func (s *SubscriptionService) dedupEnabled() bool {
	return s.idempotency != nil && s.idemCfg.Enabled
}

func (s *SubscriptionService) publish(ctx context.Context, event shared.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.FromContextOr(ctx, s.logger).Warn("Failed to publish subscription event",
			zap.String("event_type", event.EventType()),
			zap.Error(err))
	}
}
