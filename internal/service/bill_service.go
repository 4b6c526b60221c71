package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/pda-bills-api/internal/dto"
	"github.com/noah-isme/pda-bills-api/internal/models"
	"github.com/noah-isme/pda-bills-api/internal/workflow"
	appErrors "github.com/noah-isme/pda-bills-api/pkg/errors"
)

type billStore interface {
	Create(ctx context.Context, tx *sqlx.Tx, bill *models.Bill) error
	GetByID(ctx context.Context, id string) (*models.Bill, error)
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Bill, error)
	Update(ctx context.Context, tx *sqlx.Tx, bill *models.Bill, expectedVersion int64) error
	List(ctx context.Context, filter models.BillFilter) ([]models.Bill, int, error)
	Delete(ctx context.Context, id string) error
}

type balanceLedger interface {
	ReserveTx(ctx context.Context, tx *sqlx.Tx, employeeID, excludeBillID string, amount decimal.Decimal) error
	ApplyDeltaTx(ctx context.Context, tx *sqlx.Tx, adj BalanceAdjustment) (decimal.Decimal, error)
}

type billCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type idempotencyStore interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, string, error)
	Complete(ctx context.Context, key, billID string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

type notificationPublisher interface {
	Publish(event models.NotificationEvent)
}

type artifactScheduler interface {
	Schedule(bill models.Bill)
	Remove(billID string) error
}

// BillService is the workflow engine: it persists transitions computed by the
// workflow package together with the matching balance ledger writes.
type BillService struct {
	bills     billStore
	employees employeeLookup
	ledger    balanceLedger
	tx        txRunner
	policy    workflow.Policy
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService

	cache     billCache
	cacheTTL  time.Duration
	idem      idempotencyStore
	idemTTL   time.Duration
	notifier  notificationPublisher
	artifacts artifactScheduler

	group singleflight.Group
	now   func() time.Time
}

// BillServiceOption configures the service.
type BillServiceOption func(*BillService)

// WithBillCache enables the bill detail cache.
func WithBillCache(cache billCache, ttl time.Duration) BillServiceOption {
	return func(s *BillService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithIdempotency enables Idempotency-Key handling on submission.
func WithIdempotency(store idempotencyStore, ttl time.Duration) BillServiceOption {
	return func(s *BillService) {
		s.idem = store
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		s.idemTTL = ttl
	}
}

// WithNotifier sets the dispatcher for Hold and Reject events.
func WithNotifier(notifier notificationPublisher) BillServiceOption {
	return func(s *BillService) { s.notifier = notifier }
}

// WithArtifacts sets the artifact generator.
func WithArtifacts(artifacts artifactScheduler) BillServiceOption {
	return func(s *BillService) { s.artifacts = artifacts }
}

// WithBillMetrics records workflow counters.
func WithBillMetrics(metrics *MetricsService) BillServiceOption {
	return func(s *BillService) { s.metrics = metrics }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) BillServiceOption {
	return func(s *BillService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewBillService constructs the workflow engine.
func NewBillService(bills billStore, employees employeeLookup, ledger balanceLedger, tx txRunner, policy workflow.Policy, validate *validator.Validate, logger *zap.Logger, opts ...BillServiceOption) *BillService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &BillService{
		bills:     bills,
		employees: employees,
		ledger:    ledger,
		tx:        tx,
		policy:    policy,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Submit creates a bill for the acting employee after checking the balance.
// The returned flag is true when an earlier request with the same key
// already created the bill.
func (s *BillService) Submit(ctx context.Context, req dto.CreateBillRequest, actor *models.JWTClaims, idempotencyKey string) (*models.Bill, bool, error) {
	if actor == nil {
		return nil, false, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bill payload")
	}
	if err := s.policy.Validate(req.Category, req.Value); err != nil {
		s.metrics.RecordSubmission(req.Category, err)
		return nil, false, err
	}

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if s.idem != nil && idempotencyKey != "" {
		key := actor.UserID + ":" + idempotencyKey
		reserved, existing, err := s.idem.Reserve(ctx, key, s.idemTTL)
		if err != nil {
			s.logger.Warn("idempotency reserve failed", zap.Error(err))
		} else if !reserved {
			if existing == "" {
				return nil, false, appErrors.Clone(appErrors.ErrDuplicateRequest, "a request with this idempotency key is in progress")
			}
			bill, err := s.load(ctx, existing)
			return bill, err == nil, err
		} else {
			bill, err := s.submit(ctx, req, actor)
			if err != nil {
				if releaseErr := s.idem.Release(ctx, key); releaseErr != nil {
					s.logger.Warn("idempotency release failed", zap.Error(releaseErr))
				}
				return nil, false, err
			}
			if err := s.idem.Complete(ctx, key, bill.ID, s.idemTTL); err != nil {
				s.logger.Warn("idempotency complete failed", zap.Error(err))
			}
			return bill, false, nil
		}
	}
	bill, err := s.submit(ctx, req, actor)
	return bill, false, err
}

func (s *BillService) submit(ctx context.Context, req dto.CreateBillRequest, actor *models.JWTClaims) (*models.Bill, error) {
	employee, err := s.employees.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Storage(err, "failed to load employee")
	}

	bill, err := s.policy.NewBill(uuid.NewString(), *employee, req.Category, req.Value, req.Description, s.now())
	if err != nil {
		return nil, err
	}
	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.ledger.ReserveTx(ctx, tx, employee.ID, "", bill.Value); err != nil {
			return err
		}
		if err := s.bills.Create(ctx, tx, &bill); err != nil {
			return appErrors.Storage(err, "failed to create bill")
		}
		return nil
	})
	s.metrics.RecordSubmission(req.Category, err)
	if err != nil {
		return nil, asAppError(err, "failed to create bill")
	}

	s.logger.Info("bill submitted",
		zap.String("bill_id", bill.ID),
		zap.String("employee_id", bill.EmployeeID),
		zap.String("category", string(bill.Category)),
		zap.String("value", bill.Value.String()),
		zap.String("status", string(bill.OverallStatus)))
	if s.artifacts != nil {
		s.artifacts.Schedule(bill)
	}
	return &bill, nil
}

// Act applies a department decision. The acting role determines the stage.
func (s *BillService) Act(ctx context.Context, id string, req dto.BillActionRequest, actor *models.JWTClaims) (*models.Bill, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid action payload")
	}
	stage, ok := workflow.StageForRole(actor.Role)
	if req.Stage != "" {
		if err := workflow.Authorize(actor.Role, req.Stage); err != nil {
			return nil, err
		}
	} else if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role cannot act on bills")
	}

	var (
		updated models.Bill
		event   *models.NotificationEvent
	)
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.bills.GetForUpdate(ctx, tx, id)
		if err != nil {
			return mapBillError(err, "failed to load bill")
		}
		updated, event, err = s.policy.Apply(*current, workflow.Command{
			Stage:  stage,
			Action: req.Action,
			Remark: req.Remark,
			Actor:  actorLabel(actor),
			At:     s.now(),
		})
		if err != nil {
			return err
		}
		if err := workflow.CheckConsistency(&updated); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "transition produced an inconsistent bill")
		}
		if err := s.bills.Update(ctx, tx, &updated, current.Version); err != nil {
			return mapBillUpdateError(err)
		}
		return nil
	})
	s.metrics.RecordTransition(stage, req.Action, err)
	if err != nil {
		return nil, asAppError(err, "failed to update bill")
	}

	s.logger.Info("bill transition",
		zap.String("bill_id", updated.ID),
		zap.String("stage", string(stage)),
		zap.String("action", string(req.Action)),
		zap.String("status", string(updated.OverallStatus)),
		zap.String("actor_id", actor.UserID))
	s.afterWrite(ctx, updated)
	if event != nil && s.notifier != nil {
		s.notifier.Publish(*event)
	}
	return &updated, nil
}

// Edit changes a held bill, restarts its route and settles the balance delta.
// Only the submitter or an administrator may edit.
func (s *BillService) Edit(ctx context.Context, id string, req dto.EditBillRequest, actor *models.JWTClaims) (*models.Bill, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bill payload")
	}

	var updated models.Bill
	var delta decimal.Decimal
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.bills.GetForUpdate(ctx, tx, id)
		if err != nil {
			return mapBillError(err, "failed to load bill")
		}
		if current.EmployeeID != actor.UserID && actor.Role != models.RoleAdmin {
			return appErrors.Clone(appErrors.ErrForbidden, "only the submitter can edit this bill")
		}
		updated, err = s.policy.Edit(*current, workflow.Change{
			Category:    req.Category,
			Value:       req.Value,
			Description: req.Description,
			Note:        req.Note,
			Actor:       actorLabel(actor),
			At:          s.now(),
		})
		if err != nil {
			return err
		}

		// The bill keeps its own hold, so an increase must fit what is left
		// after every in-flight bill including this one.
		delta = current.Value.Sub(updated.Value)
		if delta.IsNegative() {
			if err := s.ledger.ReserveTx(ctx, tx, current.EmployeeID, "", delta.Neg()); err != nil {
				return err
			}
		}
		if !delta.IsZero() {
			if _, err := s.ledger.ApplyDeltaTx(ctx, tx, BalanceAdjustment{
				EmployeeID: current.EmployeeID,
				Delta:      delta,
				BillID:     current.ID,
				ActorID:    actor.UserID,
				Reason:     models.BalanceReasonBillEdit,
			}); err != nil {
				return err
			}
		}
		if err := s.bills.Update(ctx, tx, &updated, current.Version); err != nil {
			return mapBillUpdateError(err)
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err, "failed to edit bill")
	}

	s.logger.Info("bill edited",
		zap.String("bill_id", updated.ID),
		zap.String("value", updated.Value.String()),
		zap.String("balance_delta", delta.String()),
		zap.String("status", string(updated.OverallStatus)),
		zap.String("actor_id", actor.UserID))
	s.afterWrite(ctx, updated)
	return &updated, nil
}

// Get returns a bill. Employees only see their own bills.
func (s *BillService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Bill, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	bill, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, bill) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "bill belongs to another employee")
	}
	return bill, nil
}

func (s *BillService) load(ctx context.Context, id string) (*models.Bill, error) {
	key := billCacheKey(id)
	if s.cache != nil {
		var cached models.Bill
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}
	value, err, _ := s.group.Do(id, func() (interface{}, error) {
		bill, err := s.bills.GetByID(ctx, id)
		if err != nil {
			return nil, mapBillError(err, "failed to load bill")
		}
		// Only finalized bills are cached; an in-flight row can be
		// superseded by a transition that already invalidated the key.
		if s.cache != nil && workflow.IsTerminal(bill) {
			_ = s.cache.Set(ctx, key, bill, s.cacheTTL)
		}
		return bill, nil
	})
	if err != nil {
		return nil, err
	}
	bill := *value.(*models.Bill)
	return &bill, nil
}

// List returns bills visible to the actor. Employees are restricted to their
// own bills; reviewers may filter by the stage awaiting them.
func (s *BillService) List(ctx context.Context, query dto.BillQuery, actor *models.JWTClaims) ([]models.Bill, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	filter := models.BillFilter{Page: query.Page, PageSize: query.PageSize, EmployeeID: strings.TrimSpace(query.EmployeeID)}
	if query.Status != "" {
		status := models.OverallStatus(query.Status)
		filter.Status = &status
	}
	if query.Category != "" {
		category := models.Category(query.Category)
		if !category.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown category")
		}
		filter.Category = &category
	}
	if query.Awaiting != "" {
		stage := models.Stage(query.Awaiting)
		if query.Awaiting == "me" {
			own, ok := workflow.StageForRole(actor.Role)
			if !ok {
				return nil, nil, appErrors.Clone(appErrors.ErrValidation, "role has no review stage")
			}
			stage = own
		}
		if !stage.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown stage")
		}
		filter.AwaitingStage = &stage
	}
	if actor.Role == models.RoleEmployee {
		filter.EmployeeID = actor.UserID
	}

	bills, total, err := s.bills.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Storage(err, "failed to list bills")
	}
	page, size := pageDefaults(query.Page, query.PageSize)
	return bills, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Delete removes a bill administratively. The balance is not touched.
func (s *BillService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only administrators can delete bills")
	}
	bill, err := s.bills.GetByID(ctx, id)
	if err != nil {
		return mapBillError(err, "failed to load bill")
	}
	if err := s.bills.Delete(ctx, id); err != nil {
		return mapBillError(err, "failed to delete bill")
	}
	s.logger.Warn("bill deleted without balance reversal",
		zap.String("bill_id", id),
		zap.String("employee_id", bill.EmployeeID),
		zap.String("value", bill.Value.String()),
		zap.Bool("in_flight", workflow.InFlight(bill)),
		zap.String("actor_id", actor.UserID))
	if s.cache != nil {
		_ = s.cache.Delete(ctx, billCacheKey(id))
	}
	if s.artifacts != nil {
		if err := s.artifacts.Remove(id); err != nil {
			s.logger.Warn("failed to remove bill artifacts", zap.String("bill_id", id), zap.Error(err))
		}
	}
	return nil
}

func (s *BillService) afterWrite(ctx context.Context, bill models.Bill) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, billCacheKey(bill.ID))
	}
	if s.artifacts != nil {
		s.artifacts.Schedule(bill)
	}
}

func canView(actor *models.JWTClaims, bill *models.Bill) bool {
	return actor.Role != models.RoleEmployee || bill.EmployeeID == actor.UserID
}

func actorLabel(actor *models.JWTClaims) string {
	if actor.Name != "" {
		return actor.Name
	}
	return actor.UserID
}

func billCacheKey(id string) string {
	return "bills:detail:" + id
}

func mapBillError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "bill not found")
	}
	return appErrors.Storage(err, message)
}

func mapBillUpdateError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrConflict, "bill was modified concurrently")
	}
	return appErrors.Storage(err, "failed to update bill")
}
