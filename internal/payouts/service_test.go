package payouts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/stockyardhq/stockyard-backend/internal/orders"
	"github.com/stockyardhq/stockyard-backend/internal/timeline"
	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
	"github.com/stockyardhq/stockyard-backend/pkg/enums"
	pkgerrors "github.com/stockyardhq/stockyard-backend/pkg/errors"
	"github.com/stockyardhq/stockyard-backend/pkg/outbox"
)

type stubRepo struct {
	findOrderForUpdateFn func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	findOrderFn          func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	findSellerAccountFn  func(ctx context.Context, sellerID uuid.UUID) (*models.SellerPaymentAccount, error)
	findCandidatesFn     func(ctx context.Context, limit int) ([]models.Order, error)
	updateCalls          []map[string]any
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) FindOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.findOrderForUpdateFn != nil {
		return s.findOrderForUpdateFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.findOrderFn != nil {
		return s.findOrderFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.updateCalls = append(s.updateCalls, updates)
	return nil
}

func (s *stubRepo) FindSellerAccount(ctx context.Context, sellerID uuid.UUID) (*models.SellerPaymentAccount, error) {
	if s.findSellerAccountFn != nil {
		return s.findSellerAccountFn(ctx, sellerID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindReleaseCandidates(ctx context.Context, limit int) ([]models.Order, error) {
	if s.findCandidatesFn != nil {
		return s.findCandidatesFn(ctx, limit)
	}
	return nil, nil
}

func (s *stubRepo) FindExpiredProtectionHolds(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	return nil, nil
}

type stubTxRunner struct {
	calls int
}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.calls++
	return fn(&gorm.DB{})
}

type stubOutbox struct {
	emitted []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.emitted = append(s.emitted, event)
	return nil
}

func (s *stubOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	return s.Emit(ctx, tx, event)
}

type stubRecorder struct {
	entries []timeline.Entry
}

func (s *stubRecorder) Append(ctx context.Context, tx *gorm.DB, entry timeline.Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubRecorder) List(ctx context.Context, orderID uuid.UUID, limit int) ([]models.TimelineEvent, error) {
	return nil, nil
}

type stubStripe struct {
	createTransferFn func(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error)
	transferCalls    int
}

func (s *stubStripe) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	return nil, errors.New("not implemented")
}

func (s *stubStripe) CreateTransfer(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error) {
	s.transferCalls++
	if s.createTransferFn != nil {
		return s.createTransferFn(ctx, params)
	}
	return &stripe.Transfer{ID: "tr_test_123"}, nil
}

func (s *stubStripe) CreateRefund(ctx context.Context, params *stripe.RefundParams) (*stripe.Refund, error) {
	return nil, errors.New("not implemented")
}

type fixture struct {
	repo     *stubRepo
	tx       *stubTxRunner
	stripe   *stubStripe
	outbox   *stubOutbox
	recorder *stubRecorder
	svc      Service
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     &stubRepo{},
		tx:       &stubTxRunner{},
		stripe:   &stubStripe{},
		outbox:   &stubOutbox{},
		recorder: &stubRecorder{},
		now:      time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	svc, err := NewService(f.repo, f.tx, f.stripe, f.outbox, f.recorder, nil, nil)
	require.NoError(t, err)
	svc.(*service).now = func() time.Time { return f.now }
	f.svc = svc
	return f
}

func adminActor() orders.ActorInput {
	return orders.ActorInput{UserID: uuid.New(), Role: enums.RoleAdmin}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code())
}

// releasableOrder passes every eligibility gate: delivered, buyer-confirmed,
// window lapsed, no holds or disputes.
func releasableOrder(f *fixture) *models.Order {
	delivered := f.now.Add(-96 * time.Hour)
	confirmed := f.now.Add(-48 * time.Hour)
	windowEnd := f.now.Add(-24 * time.Hour)
	paid := f.now.Add(-120 * time.Hour)
	txStatus := enums.TxStatusDeliveredPendingConfirmation
	return &models.Order{
		ID:                uuid.New(),
		OrderNumber:       1042,
		BuyerID:           uuid.New(),
		SellerID:          uuid.New(),
		Status:            enums.OrderStatusReadyToRelease,
		TransactionStatus: &txStatus,
		TransportOption:   enums.TransportSeller,
		Currency:          enums.CurrencyUSD,
		GrossAmount:       decimal.NewFromInt(2400),
		PlatformFee:       decimal.NewFromInt(120),
		SellerAmount:      decimal.NewFromInt(2280),
		PayoutHoldReason:  enums.HoldReasonNone,
		PaidAt:            &paid,
		DeliveredAt:       &delivered,
		BuyerConfirmedAt:  &confirmed,
		ProtectionEndsAt:  &windowEnd,
	}
}

func stubOrder(f *fixture, order *models.Order) {
	f.repo.findOrderForUpdateFn = func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		if id != order.ID {
			return nil, gorm.ErrRecordNotFound
		}
		copied := *order
		return &copied, nil
	}
}

func stubSellerAccount(f *fixture, sellerID uuid.UUID, enabled bool) {
	f.repo.findSellerAccountFn = func(ctx context.Context, id uuid.UUID) (*models.SellerPaymentAccount, error) {
		return &models.SellerPaymentAccount{
			ID:              uuid.New(),
			SellerID:        sellerID,
			StripeAccountID: "acct_seller_1",
			PayoutsEnabled:  enabled,
		}, nil
	}
}

func TestRelease_TransfersAndCompletesOrder(t *testing.T) {
	f := newFixture(t)
	order := releasableOrder(f)
	stubOrder(f, order)
	stubSellerAccount(f, order.SellerID, true)

	var gotParams *stripe.TransferParams
	f.stripe.createTransferFn = func(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error) {
		gotParams = params
		return &stripe.Transfer{ID: "tr_abc"}, nil
	}

	detail, err := f.svc.Release(context.Background(), ReleaseInput{OrderID: order.ID, Actor: adminActor()})
	require.NoError(t, err)

	require.NotNil(t, gotParams)
	assert.Equal(t, int64(228000), *gotParams.Amount)
	assert.Equal(t, "usd", *gotParams.Currency)
	assert.Equal(t, "acct_seller_1", *gotParams.Destination)

	require.NotNil(t, detail.TransferID)
	assert.Equal(t, "tr_abc", *detail.TransferID)
	assert.Equal(t, enums.OrderStatusCompleted, detail.Status)
	require.NotNil(t, detail.ReleasedAt)

	require.Len(t, f.repo.updateCalls, 1)
	assert.Equal(t, enums.TxStatusCompleted, f.repo.updateCalls[0]["transaction_status"])
	assert.Equal(t, enums.HoldReasonNone, f.repo.updateCalls[0]["payout_hold_reason"])

	require.Len(t, f.recorder.entries, 1)
	assert.Equal(t, enums.TimelinePayoutReleased, f.recorder.entries[0].EventType)
	require.Len(t, f.outbox.emitted, 1)
	assert.Equal(t, enums.EventPayoutReleased, f.outbox.emitted[0].EventType)
}

func TestRelease_RetryAfterTransferIsNoOp(t *testing.T) {
	f := newFixture(t)
	order := releasableOrder(f)
	transferID := "tr_existing"
	order.TransferID = &transferID
	stubOrder(f, order)

	detail, err := f.svc.Release(context.Background(), ReleaseInput{OrderID: order.ID, Actor: adminActor()})
	require.NoError(t, err)

	assert.Equal(t, "tr_existing", *detail.TransferID)
	assert.Zero(t, f.stripe.transferCalls)
	assert.Empty(t, f.repo.updateCalls)
	assert.Empty(t, f.outbox.emitted)
}

func TestRelease_BlockedWhileProtectionWindowOpen(t *testing.T) {
	f := newFixture(t)
	order := releasableOrder(f)
	windowEnd := f.now.Add(24 * time.Hour)
	order.ProtectionEndsAt = &windowEnd
	order.PayoutHoldReason = enums.HoldReasonProtectionWindow
	stubOrder(f, order)

	_, err := f.svc.Release(context.Background(), ReleaseInput{OrderID: order.ID, Actor: adminActor()})
	assertCode(t, err, pkgerrors.CodeConflict)
	assert.Zero(t, f.stripe.transferCalls)
	assert.Empty(t, f.repo.updateCalls)
}

func TestRelease_BlockedByAdminHold(t *testing.T) {
	f := newFixture(t)
	order := releasableOrder(f)
	order.AdminHold = true
	stubOrder(f, order)

	_, err := f.svc.Release(context.Background(), ReleaseInput{OrderID: order.ID, Actor: adminActor()})
	assertCode(t, err, pkgerrors.CodeConflict)
	assert.Zero(t, f.stripe.transferCalls)
}

func TestRelease_SellerWithoutAccountRejected(t *testing.T) {
	f := newFixture(t)
	order := releasableOrder(f)
	stubOrder(f, order)

	_, err := f.svc.Release(context.Background(), ReleaseInput{OrderID: order.ID, Actor: adminActor()})
	assertCode(t, err, pkgerrors.CodeValidation)
	assert.Zero(t, f.stripe.transferCalls)
}

func TestRelease_DisabledAccountRejected(t *testing.T) {
	f := newFixture(t)
	order := releasableOrder(f)
	stubOrder(f, order)
	stubSellerAccount(f, order.SellerID, false)

	_, err := f.svc.Release(context.Background(), ReleaseInput{OrderID: order.ID, Actor: adminActor()})
	assertCode(t, err, pkgerrors.CodeValidation)
	assert.Zero(t, f.stripe.transferCalls)
}

func TestRelease_NonAdminForbidden(t *testing.T) {
	f := newFixture(t)
	order := releasableOrder(f)
	stubOrder(f, order)

	_, err := f.svc.Release(context.Background(), ReleaseInput{
		OrderID: order.ID,
		Actor:   orders.ActorInput{UserID: order.SellerID, Role: enums.RoleSeller},
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
	assert.Zero(t, f.tx.calls)
}

func TestRelease_TransferFailureLeavesOrderUntouched(t *testing.T) {
	f := newFixture(t)
	order := releasableOrder(f)
	stubOrder(f, order)
	stubSellerAccount(f, order.SellerID, true)
	f.stripe.createTransferFn = func(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error) {
		return nil, errors.New("stripe: account cannot receive transfers")
	}

	_, err := f.svc.Release(context.Background(), ReleaseInput{OrderID: order.ID, Actor: adminActor()})
	assertCode(t, err, pkgerrors.CodeDependency)
	assert.Empty(t, f.repo.updateCalls)
	assert.Empty(t, f.recorder.entries)
}

func TestBulkRelease_ReportsPerOrderOutcomes(t *testing.T) {
	f := newFixture(t)
	good := releasableOrder(f)
	held := releasableOrder(f)
	held.AdminHold = true

	byID := map[uuid.UUID]*models.Order{good.ID: good, held.ID: held}
	f.repo.findOrderForUpdateFn = func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		order, ok := byID[id]
		if !ok {
			return nil, gorm.ErrRecordNotFound
		}
		copied := *order
		return &copied, nil
	}
	stubSellerAccount(f, good.SellerID, true)

	result, err := f.svc.BulkRelease(context.Background(), BulkReleaseInput{
		OrderIDs: []uuid.UUID{good.ID, held.ID, uuid.New()},
		Actor:    adminActor(),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Requested)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Items, 3)

	assert.True(t, result.Items[0].Succeeded)
	assert.Equal(t, "tr_test_123", result.Items[0].TransferID)
	assert.False(t, result.Items[1].Succeeded)
	assert.Contains(t, result.Items[1].Error, "not releasable")
	assert.False(t, result.Items[2].Succeeded)
}

func TestSetHold_RequiresNoteAndRecordsIt(t *testing.T) {
	f := newFixture(t)
	order := releasableOrder(f)
	stubOrder(f, order)

	_, err := f.svc.SetHold(context.Background(), HoldInput{OrderID: order.ID, Actor: adminActor()})
	assertCode(t, err, pkgerrors.CodeValidation)

	detail, err := f.svc.SetHold(context.Background(), HoldInput{
		OrderID: order.ID,
		Note:    "suspected duplicate listing",
		Actor:   adminActor(),
	})
	require.NoError(t, err)
	assert.True(t, detail.AdminHold)

	require.Len(t, f.repo.updateCalls, 1)
	assert.Equal(t, true, f.repo.updateCalls[0]["admin_hold"])
	assert.Equal(t, enums.HoldReasonAdminHold, f.repo.updateCalls[0]["payout_hold_reason"])
	require.Len(t, f.recorder.entries, 1)
	assert.Equal(t, enums.TimelineAdminHoldSet, f.recorder.entries[0].EventType)
	require.Len(t, f.outbox.emitted, 1)
	assert.Equal(t, enums.EventPayoutHoldSet, f.outbox.emitted[0].EventType)
}

func TestSetHold_AlreadyHeldIsNoOp(t *testing.T) {
	f := newFixture(t)
	order := releasableOrder(f)
	order.AdminHold = true
	stubOrder(f, order)

	detail, err := f.svc.SetHold(context.Background(), HoldInput{
		OrderID: order.ID,
		Note:    "second reviewer",
		Actor:   adminActor(),
	})
	require.NoError(t, err)
	assert.True(t, detail.AdminHold)
	assert.Empty(t, f.repo.updateCalls)
	assert.Empty(t, f.outbox.emitted)
}

func TestClearHold_EmitsClearedEvent(t *testing.T) {
	f := newFixture(t)
	order := releasableOrder(f)
	order.AdminHold = true
	stubOrder(f, order)

	detail, err := f.svc.ClearHold(context.Background(), HoldInput{
		OrderID: order.ID,
		Note:    "review finished, listing verified",
		Actor:   adminActor(),
	})
	require.NoError(t, err)
	assert.False(t, detail.AdminHold)

	require.Len(t, f.repo.updateCalls, 1)
	assert.Equal(t, false, f.repo.updateCalls[0]["admin_hold"])
	assert.Equal(t, enums.HoldReasonNone, f.repo.updateCalls[0]["payout_hold_reason"])
	require.Len(t, f.outbox.emitted, 1)
	assert.Equal(t, enums.EventPayoutHoldCleared, f.outbox.emitted[0].EventType)
}

func TestClearHold_RestoresProtectionWindowReason(t *testing.T) {
	f := newFixture(t)
	order := releasableOrder(f)
	order.AdminHold = true
	order.PayoutHoldReason = enums.HoldReasonAdminHold
	stillOpen := f.now.Add(24 * time.Hour)
	order.ProtectionEndsAt = &stillOpen
	stubOrder(f, order)

	_, err := f.svc.ClearHold(context.Background(), HoldInput{
		OrderID: order.ID,
		Note:    "review finished",
		Actor:   adminActor(),
	})
	require.NoError(t, err)

	require.Len(t, f.repo.updateCalls, 1)
	assert.Equal(t, enums.HoldReasonProtectionWindow, f.repo.updateCalls[0]["payout_hold_reason"], "clearing an admin hold must not drop an open protection window")
}

func TestSetPayoutApproval_ClearsHighValueReviewHold(t *testing.T) {
	f := newFixture(t)
	order := releasableOrder(f)
	order.PayoutHoldReason = enums.HoldReasonHighValueReview
	stubOrder(f, order)

	detail, err := f.svc.SetPayoutApproval(context.Background(), ApprovalInput{
		OrderID: order.ID,
		Note:    "verified sale docs",
		Actor:   adminActor(),
	})
	require.NoError(t, err)

	require.NotNil(t, detail.AdminPayoutApproval)
	assert.True(t, *detail.AdminPayoutApproval)
	assert.Equal(t, enums.HoldReasonNone, detail.PayoutHoldReason)

	require.Len(t, f.repo.updateCalls, 1)
	assert.Equal(t, enums.HoldReasonNone, f.repo.updateCalls[0]["payout_hold_reason"])
}

func TestSetPayoutApproval_NeverClearsComplianceHold(t *testing.T) {
	f := newFixture(t)
	order := releasableOrder(f)
	order.PayoutHoldReason = enums.HoldReasonComplianceReview
	stubOrder(f, order)

	detail, err := f.svc.SetPayoutApproval(context.Background(), ApprovalInput{
		OrderID: order.ID,
		Actor:   adminActor(),
	})
	require.NoError(t, err)

	assert.Equal(t, enums.HoldReasonComplianceReview, detail.PayoutHoldReason)
	require.Len(t, f.repo.updateCalls, 1)
	_, touched := f.repo.updateCalls[0]["payout_hold_reason"]
	assert.False(t, touched)
}

func TestClearPayoutApproval_LeavesHoldReasonAlone(t *testing.T) {
	f := newFixture(t)
	order := releasableOrder(f)
	approved := true
	order.AdminPayoutApproval = &approved
	stubOrder(f, order)

	detail, err := f.svc.ClearPayoutApproval(context.Background(), ApprovalInput{
		OrderID: order.ID,
		Actor:   adminActor(),
	})
	require.NoError(t, err)

	require.NotNil(t, detail.AdminPayoutApproval)
	assert.False(t, *detail.AdminPayoutApproval)
	require.Len(t, f.repo.updateCalls, 1)
	_, touched := f.repo.updateCalls[0]["payout_hold_reason"]
	assert.False(t, touched)
}

func TestForceMarkPaid_BankTransferOrder(t *testing.T) {
	f := newFixture(t)
	order := releasableOrder(f)
	order.Status = enums.OrderStatusAwaitingBankTransfer
	order.TransactionStatus = nil
	order.PaidAt = nil
	order.DeliveredAt = nil
	order.BuyerConfirmedAt = nil
	order.ProtectionEndsAt = nil
	stubOrder(f, order)

	detail, err := f.svc.ForceMarkPaid(context.Background(), ForceMarkPaidInput{
		OrderID:   order.ID,
		Reference: "wire ref 20260310-114",
		Note:      "bank confirmed receipt by phone",
		Actor:     adminActor(),
	})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPaidHeld, detail.Status)
	require.NotNil(t, detail.PaidAt)

	require.Len(t, f.repo.updateCalls, 1)
	assert.Equal(t, enums.TxStatusFulfillmentRequired, f.repo.updateCalls[0]["transaction_status"])
	require.Len(t, f.recorder.entries, 1)
	assert.Equal(t, enums.TimelinePaymentForceConfirmed, f.recorder.entries[0].EventType)
	assert.Equal(t, "wire ref 20260310-114", f.recorder.entries[0].Metadata["reference"])
	require.Len(t, f.outbox.emitted, 1)
	assert.Equal(t, enums.EventOrderPaid, f.outbox.emitted[0].EventType)
}

func TestForceMarkPaid_CardOrderRejected(t *testing.T) {
	f := newFixture(t)
	order := releasableOrder(f)
	order.Status = enums.OrderStatusPending
	order.PaidAt = nil
	stubOrder(f, order)

	_, err := f.svc.ForceMarkPaid(context.Background(), ForceMarkPaidInput{
		OrderID: order.ID,
		Note:    "trying to unstick checkout",
		Actor:   adminActor(),
	})
	assertCode(t, err, pkgerrors.CodeInvalidTransition)
}

func TestForceMarkPaid_AlreadyPaidIsNoOp(t *testing.T) {
	f := newFixture(t)
	order := releasableOrder(f)
	order.Status = enums.OrderStatusAwaitingWire
	stubOrder(f, order)

	_, err := f.svc.ForceMarkPaid(context.Background(), ForceMarkPaidInput{
		OrderID: order.ID,
		Note:    "duplicate confirmation",
		Actor:   adminActor(),
	})
	require.NoError(t, err)
	assert.Empty(t, f.repo.updateCalls)
	assert.Empty(t, f.outbox.emitted)
}

func TestQueue_ExplainsEligibilityPerOrder(t *testing.T) {
	f := newFixture(t)
	eligible := releasableOrder(f)
	blocked := releasableOrder(f)
	blocked.PayoutHoldReason = enums.HoldReasonProtectionWindow
	windowEnd := f.now.Add(48 * time.Hour)
	blocked.ProtectionEndsAt = &windowEnd

	f.repo.findCandidatesFn = func(ctx context.Context, limit int) ([]models.Order, error) {
		return []models.Order{*eligible, *blocked}, nil
	}

	entries, err := f.svc.Queue(context.Background(), QueueFilters{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.True(t, entries[0].Eligible)
	assert.Empty(t, entries[0].BlockReason)

	assert.False(t, entries[1].Eligible)
	assert.Equal(t, "protection_window_open", entries[1].BlockReason)
	require.NotNil(t, entries[1].EarliestRelease)
	assert.Equal(t, windowEnd, *entries[1].EarliestRelease)

	onlyEligible, err := f.svc.Queue(context.Background(), QueueFilters{EligibleOnly: true})
	require.NoError(t, err)
	require.Len(t, onlyEligible, 1)
	assert.Equal(t, eligible.ID, onlyEligible[0].OrderID)
}
