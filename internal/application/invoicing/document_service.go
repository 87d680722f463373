package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fatoora/backend/internal/domain/account"
	"github.com/fatoora/backend/internal/domain/invoicing"
	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/infrastructure/logger"
	"github.com/fatoora/backend/internal/infrastructure/telemetry"
)

// statsWindowDays is the length of the trailing window reported by Stats
const statsWindowDays = 30

// DocumentService handles document computation and lifecycle transitions
type DocumentService struct {
	docs      invoicing.DocumentRepository
	history   invoicing.HistoryRepository
	accounts  account.AccountRepository
	catalog   account.CatalogRepository
	customers account.CustomerRepository
	tx        shared.AccountTransactor
	locker    shared.AccountLocker
	publisher shared.EventPublisher
	clock     shared.Clock
	loc       *time.Location
	metrics   *telemetry.BusinessMetrics
	logger    *zap.Logger
}

// DocumentServiceConfig holds the dependencies of a DocumentService.
// Locker, EventPublisher and Metrics are optional.
type DocumentServiceConfig struct {
	Documents      invoicing.DocumentRepository
	History        invoicing.HistoryRepository
	Accounts       account.AccountRepository
	Catalog        account.CatalogRepository
	Customers      account.CustomerRepository
	Transactor     shared.AccountTransactor
	Locker         shared.AccountLocker
	EventPublisher shared.EventPublisher
	Clock          shared.Clock
	// Location is the fiscal time zone. Defaults to UTC.
	Location *time.Location
	Metrics  *telemetry.BusinessMetrics
	Logger   *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(cfg DocumentServiceConfig) *DocumentService {
	clock := cfg.Clock
	if clock == nil {
		clock = shared.SystemClock{}
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &DocumentService{
		docs:      cfg.Documents,
		history:   cfg.History,
		accounts:  cfg.Accounts,
		catalog:   cfg.Catalog,
		customers: cfg.Customers,
		tx:        cfg.Transactor,
		locker:    cfg.Locker,
		publisher: cfg.EventPublisher,
		clock:     clock,
		loc:       loc,
		metrics:   cfg.Metrics,
		logger:    log,
	}
}

// ComputeDocument prices the requested lines from the catalog, seals the
// document and stores it under a fresh identifier. The identifier count and
// the insert run in one account-locked transaction.
func (s *DocumentService) ComputeDocument(ctx context.Context, accountID uuid.UUID, req CreateDocumentRequest) (*DocumentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "compute", telemetry.AccountAttr(accountID.String()))
	defer span.End()

	discount, err := discountFrom(req.DiscountType, req.DiscountAmount)
	if err != nil {
		return nil, err
	}

	var doc *invoicing.Document
	err = s.withinAccount(ctx, accountID, func(ctx context.Context) error {
		acc, err := s.accounts.FindByID(ctx, accountID)
		if err != nil {
			return err
		}
		if !acc.ProfileComplete() {
			return shared.NewValidationError("PROFILE_INCOMPLETE", "account",
				"complete the account profile before issuing documents")
		}

		var customer *account.Customer
		if req.CustomerID != nil {
			customer, err = s.customers.FindByID(ctx, accountID, *req.CustomerID)
			if err != nil {
				if shared.IsNotFound(err) {
					return shared.NewValidationError("INVALID_CUSTOMER", "customer_id", "invalid customer provided")
				}
				return err
			}
			if err := customer.Validate(); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		var deliveryDate time.Time
		if req.DeliveryDate != nil {
			deliveryDate = *req.DeliveryDate
		}
		doc, err = invoicing.NewDocument(accountID, invoicing.NewDocumentParams{
			DocumentType:  invoicing.DocumentType(req.DocumentType),
			InvoiceType:   invoicing.InvoiceType(req.InvoiceType),
			PaymentMethod: invoicing.PaymentMethod(req.PaymentMethod),
			DeliveryDate:  deliveryDate,
			Customer:      customer,
			Discount:      discount,
			ValidUntil:    req.ValidUntil,
		}, now, s.loc)
		if err != nil {
			return err
		}

		if err := s.addLines(ctx, doc, acc, req.Items); err != nil {
			return err
		}

		uid, err := invoicing.NextUID(ctx, s.docs, accountID, doc.DocumentType, now.In(s.loc))
		if err != nil {
			return err
		}
		if err := doc.AssignUID(uid); err != nil {
			return err
		}
		if err := doc.Seal(acc.FiscalProfile(s.loc), now); err != nil {
			return err
		}
		return s.docs.Create(ctx, doc)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.fail(ctx, "compute document", err, zap.String("account_id", accountID.String()))
	}

	s.publishEvents(ctx, doc)
	s.metrics.RecordDocumentComputed(ctx, string(doc.DocumentType), string(doc.InvoiceCode))
	logger.FromContextOr(ctx, s.logger).Info("Document sealed",
		zap.String("account_id", accountID.String()),
		zap.String("document_id", doc.ID.String()),
		zap.String("uid", doc.UID),
		zap.String("total_after_vat", doc.TotalAfterVAT.String()))

	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// addLines loads every requested product in one query and appends the
// computed lines in request order
func (s *DocumentService) addLines(ctx context.Context, doc *invoicing.Document, acc *account.Account, items []LineItemInput) error {
	if len(items) == 0 {
		return shared.NewValidationError("NO_LINES", "items", "a document needs at least one line")
	}
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}

	entries, err := s.catalog.FindByIDs(ctx, acc.ID, ids)
	if err != nil {
		return fmt.Errorf("load catalog entries: %w", err)
	}
	byID := make(map[uuid.UUID]account.CatalogEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	for i, it := range items {
		entry, ok := byID[it.ProductID]
		if !ok {
			return shared.NewValidationError("PRODUCT_NOT_FOUND", fmt.Sprintf("items[%d].product_id", i),
				fmt.Sprintf("product %s does not exist", it.ProductID))
		}
		line, err := invoicing.ComputeLine(entry, it.Quantity, acc.VATRate)
		if err != nil {
			return err
		}
		if err := doc.AddLine(line); err != nil {
			return err
		}
	}
	return nil
}

// TransitionInvoiceCode turns a sealed invoice into a credit note. The
// pre-transition snapshot is appended before the document is updated.
func (s *DocumentService) TransitionInvoiceCode(ctx context.Context, accountID, docID uuid.UUID) (*TransitionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "transition_invoice_code", telemetry.AccountAttr(accountID.String()))
	defer span.End()

	return s.transition(ctx, accountID, docID, "transition invoice code",
		func(doc *invoicing.Document, acc *account.Account, now time.Time) (invoicing.HistoryRecord, error) {
			return doc.TransitionInvoiceCode(acc.RequiresFiscalConfirmation, now)
		})
}

// TransitionDocumentType converts an unexpired offer into an invoice
func (s *DocumentService) TransitionDocumentType(ctx context.Context, accountID, docID uuid.UUID) (*TransitionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "transition_document_type", telemetry.AccountAttr(accountID.String()))
	defer span.End()

	return s.transition(ctx, accountID, docID, "transition document type",
		func(doc *invoicing.Document, _ *account.Account, now time.Time) (invoicing.HistoryRecord, error) {
			return doc.TransitionDocumentType(now, s.loc)
		})
}

type transitionFunc func(doc *invoicing.Document, acc *account.Account, now time.Time) (invoicing.HistoryRecord, error)

func (s *DocumentService) transition(ctx context.Context, accountID, docID uuid.UUID, op string, apply transitionFunc) (*TransitionResponse, error) {
	var (
		doc *invoicing.Document
		h   invoicing.HistoryRecord
	)
	err := s.withinAccount(ctx, accountID, func(ctx context.Context) error {
		acc, err := s.accounts.FindByID(ctx, accountID)
		if err != nil {
			return err
		}
		doc, err = s.docs.FindByID(ctx, accountID, docID)
		if err != nil {
			return err
		}
		h, err = apply(doc, acc, s.clock.Now())
		if err != nil {
			return err
		}
		if err := s.history.Append(ctx, &h); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		return s.docs.SaveWithLock(ctx, doc)
	})
	if err != nil {
		return nil, s.fail(ctx, op, err,
			zap.String("account_id", accountID.String()), zap.String("document_id", docID.String()))
	}

	s.publishEvents(ctx, doc)
	s.metrics.RecordTransition(ctx, string(h.ActionType))
	logger.FromContextOr(ctx, s.logger).Info("Document transitioned",
		zap.String("document_id", doc.ID.String()),
		zap.String("action", string(h.ActionType)),
		zap.String("previous_uid", h.UID),
		zap.String("uid", doc.UID))

	return &TransitionResponse{
		Document: ToDocumentResponse(doc),
		History:  ToHistoryResponse(h),
	}, nil
}

// RecordSubmission stores a tax-authority outcome for a sealed invoice.
// Rejected and error outcomes also append a reject_invoice snapshot.
func (s *DocumentService) RecordSubmission(ctx context.Context, accountID, docID uuid.UUID, req SubmissionResultRequest) (*SubmissionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "record_submission", telemetry.AccountAttr(accountID.String()))
	defer span.End()

	var (
		doc *invoicing.Document
		h   *invoicing.HistoryRecord
	)
	err := s.withinAccount(ctx, accountID, func(ctx context.Context) error {
		var err error
		doc, err = s.docs.FindByID(ctx, accountID, docID)
		if err != nil {
			return err
		}
		h, err = doc.RecordSubmission(invoicing.SubmissionResult{
			Status:        invoicing.Status(req.Status),
			Note:          req.Note,
			InvoiceNumber: req.InvoiceNumber,
			InvoicePK:     req.InvoicePK,
		}, s.clock.Now())
		if err != nil {
			return err
		}
		if h != nil {
			if err := s.history.Append(ctx, h); err != nil {
				return fmt.Errorf("append history: %w", err)
			}
		}
		return s.docs.SaveWithLock(ctx, doc)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.fail(ctx, "record submission", err,
			zap.String("account_id", accountID.String()), zap.String("document_id", docID.String()))
	}

	s.publishEvents(ctx, doc)

	resp := &SubmissionResponse{Document: ToDocumentResponse(doc)}
	if h != nil {
		hr := ToHistoryResponse(*h)
		resp.History = &hr
	}
	return resp, nil
}

// CanShareCreditNote reports whether a credit note may be sent to the tax authority
func (s *DocumentService) CanShareCreditNote(ctx context.Context, accountID, docID uuid.UUID) (bool, error) {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return false, err
	}
	doc, err := s.docs.FindByID(ctx, accountID, docID)
	if err != nil {
		return false, err
	}
	records, err := s.history.ListByDocument(ctx, accountID, docID)
	if err != nil {
		return false, fmt.Errorf("list history: %w", err)
	}
	return invoicing.CanShareCreditNote(doc, records, acc.FiscalConfigUpdatedAt), nil
}

// NextIdentifier previews the identifier the next document of docType issued
// on date would get. The preview is not reserved.
func (s *DocumentService) NextIdentifier(ctx context.Context, accountID uuid.UUID, docType string, date time.Time) (string, error) {
	t := invoicing.DocumentType(docType)
	if t == "" {
		t = invoicing.DocumentTypeInvoice
	}
	if !t.IsValid() {
		return "", shared.NewValidationError("INVALID_DOCUMENT_TYPE", "document_type",
			fmt.Sprintf("unknown document type %q", docType))
	}
	if date.IsZero() {
		date = s.clock.Now()
	}

	var uid string
	err := s.tx.WithinAccount(ctx, accountID, func(ctx context.Context) error {
		var err error
		uid, err = invoicing.NextUID(ctx, s.docs, accountID, t, date.In(s.loc))
		return err
	})
	if err != nil {
		return "", err
	}
	return uid, nil
}

// Stats sums invoice and credit note totals for the current fiscal day and
// the trailing 30 days including today
func (s *DocumentService) Stats(ctx context.Context, accountID uuid.UUID) (*StatsResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "stats", telemetry.AccountAttr(accountID.String()))
	defer span.End()

	today := shared.StartOfDay(s.clock.Now().In(s.loc))
	tomorrow := today.AddDate(0, 0, 1)
	windowStart := today.AddDate(0, 0, -(statsWindowDays - 1))

	var err error
	resp := &StatsResponse{Date: today.Format(time.DateOnly)}
	if resp.DailyInvoiceTotal, err = s.docs.SumTotals(ctx, accountID, invoicing.InvoiceCodeInvoice, today, tomorrow); err != nil {
		return nil, fmt.Errorf("sum daily invoices: %w", err)
	}
	if resp.DailyCreditTotal, err = s.docs.SumTotals(ctx, accountID, invoicing.InvoiceCodeCredit, today, tomorrow); err != nil {
		return nil, fmt.Errorf("sum daily credits: %w", err)
	}
	if resp.MonthlyInvoiceTotal, err = s.docs.SumTotals(ctx, accountID, invoicing.InvoiceCodeInvoice, windowStart, tomorrow); err != nil {
		return nil, fmt.Errorf("sum monthly invoices: %w", err)
	}
	if resp.MonthlyCreditTotal, err = s.docs.SumTotals(ctx, accountID, invoicing.InvoiceCodeCredit, windowStart, tomorrow); err != nil {
		return nil, fmt.Errorf("sum monthly credits: %w", err)
	}
	if resp.DocumentsToday, err = s.docs.CountIssuedBetween(ctx, accountID, today, tomorrow); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	return resp, nil
}

// GetByID returns a document of the account
func (s *DocumentService) GetByID(ctx context.Context, accountID, docID uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.docs.FindByID(ctx, accountID, docID)
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// GetByUID returns a document of the account by identifier
func (s *DocumentService) GetByUID(ctx context.Context, accountID uuid.UUID, uid string) (*DocumentResponse, error) {
	doc, err := s.docs.FindByUID(ctx, accountID, uid)
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// History returns the lifecycle snapshots of a document, oldest first
func (s *DocumentService) History(ctx context.Context, accountID, docID uuid.UUID) ([]HistoryResponse, error) {
	if _, err := s.docs.FindByID(ctx, accountID, docID); err != nil {
		return nil, err
	}
	records, err := s.history.ListByDocument(ctx, accountID, docID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	out := make([]HistoryResponse, len(records))
	for i, h := range records {
		out[i] = ToHistoryResponse(h)
	}
	return out, nil
}

// List returns a page of the account's documents and the total count
func (s *DocumentService) List(ctx context.Context, accountID uuid.UUID, filter DocumentListFilter) ([]DocumentResponse, int64, error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	f.Search = filter.Search

	docs, total, err := s.docs.List(ctx, accountID, invoicing.DocumentFilter{
		Filter:       f,
		DocumentType: invoicing.DocumentType(filter.DocumentType),
		InvoiceCode:  invoicing.InvoiceCode(filter.InvoiceCode),
		Status:       invoicing.Status(filter.Status),
		From:         filter.From,
		To:           filter.To,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]DocumentResponse, len(docs))
	for i := range docs {
		out[i] = ToDocumentResponse(&docs[i])
	}
	return out, total, nil
}

// withinAccount runs fn in the account transaction, behind the distributed
// account lock when one is configured
func (s *DocumentService) withinAccount(ctx context.Context, accountID uuid.UUID, fn func(ctx context.Context) error) error {
	run := func(ctx context.Context) error {
		return s.tx.WithinAccount(ctx, accountID, fn)
	}
	if s.locker == nil {
		return run(ctx)
	}
	return s.locker.WithLock(ctx, accountID, run)
}

// publishEvents hands the document's pending events to the publisher. A
// failed publish is logged; the document is already committed.
func (s *DocumentService) publishEvents(ctx context.Context, doc *invoicing.Document) {
	events := doc.GetDomainEvents()
	doc.ClearDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		logger.FromContextOr(ctx, s.logger).Warn("Failed to publish document events",
			zap.String("document_id", doc.ID.String()),
			zap.Error(err))
	}
}

// fail logs invariant violations at error level and returns err unchanged
func (s *DocumentService) fail(ctx context.Context, op string, err error, fields ...zap.Field) error {
	if shared.IsInvariant(err) {
		logger.FromContextOr(ctx, s.logger).Error("Invariant violated during "+op,
			append(fields, zap.Error(err))...)
	}
	return err
}
