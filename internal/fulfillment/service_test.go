package fulfillment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stockyardhq/stockyard-backend/internal/orders"
	"github.com/stockyardhq/stockyard-backend/internal/timeline"
	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
	"github.com/stockyardhq/stockyard-backend/pkg/enums"
	pkgerrors "github.com/stockyardhq/stockyard-backend/pkg/errors"
	"github.com/stockyardhq/stockyard-backend/pkg/outbox"
	"github.com/stockyardhq/stockyard-backend/pkg/types"
)

type stubRepo struct {
	order       *models.Order
	updateCalls []map[string]any
	findErr     error
	updateErr   error
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.order == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubRepo) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	s.updateCalls = append(s.updateCalls, updates)
	return s.updateErr
}

type stubTxRunner struct{ calls int }

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.calls++
	return fn(&gorm.DB{})
}

type stubOutbox struct{ emitted []outbox.DomainEvent }

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.emitted = append(s.emitted, event)
	return nil
}

func (s *stubOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	return s.Emit(ctx, tx, event)
}

type stubRecorder struct{ entries []timeline.Entry }

func (s *stubRecorder) Append(ctx context.Context, tx *gorm.DB, entry timeline.Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubRecorder) List(ctx context.Context, orderID uuid.UUID, limit int) ([]models.TimelineEvent, error) {
	return nil, nil
}

type fixture struct {
	repo     *stubRepo
	outbox   *stubOutbox
	recorder *stubRecorder
	svc      Service
	now      time.Time
}

func newFixture(t *testing.T, order *models.Order) *fixture {
	t.Helper()
	f := &fixture{
		repo:     &stubRepo{order: order},
		outbox:   &stubOutbox{},
		recorder: &stubRecorder{},
		now:      time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	svc, err := NewService(f.repo, &stubTxRunner{}, f.outbox, f.recorder, nil, nil, Config{
		ProtectionWindow: 72 * time.Hour,
	})
	require.NoError(t, err)
	svc.(*service).now = func() time.Time { return f.now }
	f.svc = svc
	return f
}

func testAddress() *types.Address {
	return &types.Address{
		Line1:      "4821 Ranch Road 12",
		City:       "San Marcos",
		State:      "TX",
		PostalCode: "78666",
		Country:    "US",
	}
}

func paidDeliveryOrder() *models.Order {
	paidAt := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	txStatus := enums.TxStatusFulfillmentRequired
	return &models.Order{
		ID:                uuid.New(),
		OrderNumber:       1001,
		BuyerID:           uuid.New(),
		SellerID:          uuid.New(),
		Status:            enums.OrderStatusPaidHeld,
		TransactionStatus: &txStatus,
		TransportOption:   enums.TransportSeller,
		PayoutHoldReason:  enums.HoldReasonNone,
		DisputeStatus:     enums.DisputeStatusNone,
		DeliveryAddress:   testAddress(),
		PaidAt:            &paidAt,
	}
}

func paidPickupOrder() *models.Order {
	o := paidDeliveryOrder()
	o.TransportOption = enums.TransportBuyer
	o.DeliveryAddress = nil
	return o
}

func windows(n int) []types.TimeWindow {
	base := time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)
	out := make([]types.TimeWindow, 0, n)
	for i := 0; i < n; i++ {
		start := base.Add(time.Duration(i) * 24 * time.Hour)
		out = append(out, types.TimeWindow{Start: start, End: start.Add(4 * time.Hour)})
	}
	return out
}

func sellerActor(o *models.Order) orders.ActorInput {
	return orders.ActorInput{UserID: o.SellerID, Role: enums.RoleSeller}
}

func buyerActor(o *models.Order) orders.ActorInput {
	return orders.ActorInput{UserID: o.BuyerID, Role: enums.RoleBuyer}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code())
}

func TestProposeDelivery_MovesToProposed(t *testing.T) {
	order := paidDeliveryOrder()
	f := newFixture(t, order)

	detail, err := f.svc.ProposeDelivery(context.Background(), ProposeDeliveryInput{
		OrderID: order.ID,
		Windows: windows(2),
		Actor:   sellerActor(order),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TxStatusDeliveryProposed, detail.EffectiveStatus)
	require.NotNil(t, detail.Delivery)
	assert.Len(t, detail.Delivery.Windows, 2)
	require.Len(t, f.recorder.entries, 1)
	assert.Equal(t, enums.TimelineDeliveryProposed, f.recorder.entries[0].EventType)
	require.Len(t, f.outbox.emitted, 1)
	assert.Equal(t, enums.EventFulfillmentUpdated, f.outbox.emitted[0].EventType)
}

func TestProposeDelivery_RequiresBuyerAddress(t *testing.T) {
	order := paidDeliveryOrder()
	order.DeliveryAddress = nil
	f := newFixture(t, order)

	_, err := f.svc.ProposeDelivery(context.Background(), ProposeDeliveryInput{
		OrderID: order.ID,
		Windows: windows(1),
		Actor:   sellerActor(order),
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestProposeDelivery_RequiresPayment(t *testing.T) {
	order := paidDeliveryOrder()
	order.PaidAt = nil
	order.Status = enums.OrderStatusPending
	f := newFixture(t, order)

	_, err := f.svc.ProposeDelivery(context.Background(), ProposeDeliveryInput{
		OrderID: order.ID,
		Windows: windows(1),
		Actor:   sellerActor(order),
	})
	assertCode(t, err, pkgerrors.CodeInvalidTransition)
}

func TestProposeDelivery_RejectsPickupOrders(t *testing.T) {
	order := paidPickupOrder()
	f := newFixture(t, order)

	_, err := f.svc.ProposeDelivery(context.Background(), ProposeDeliveryInput{
		OrderID: order.ID,
		Windows: windows(1),
		Actor:   sellerActor(order),
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestProposeDelivery_OnlySeller(t *testing.T) {
	order := paidDeliveryOrder()
	f := newFixture(t, order)

	_, err := f.svc.ProposeDelivery(context.Background(), ProposeDeliveryInput{
		OrderID: order.ID,
		Windows: windows(1),
		Actor:   buyerActor(order),
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestProposeDelivery_RepeatGetsFreshTimelineID(t *testing.T) {
	order := paidDeliveryOrder()
	f := newFixture(t, order)

	_, err := f.svc.ProposeDelivery(context.Background(), ProposeDeliveryInput{
		OrderID: order.ID,
		Windows: windows(2),
		Actor:   sellerActor(order),
	})
	require.NoError(t, err)

	// Proposing again replaces the windows; the second timeline entry must
	// not reuse the deterministic per-type id or the append would be
	// silently dropped.
	_, err = f.svc.ProposeDelivery(context.Background(), ProposeDeliveryInput{
		OrderID: order.ID,
		Windows: windows(3),
		Actor:   sellerActor(order),
	})
	require.NoError(t, err)

	require.Len(t, f.recorder.entries, 2)
	assert.Empty(t, f.recorder.entries[0].EventID)
	assert.NotEmpty(t, f.recorder.entries[1].EventID)
	assert.NotEqual(t, timeline.EventID(order.ID, enums.TimelineDeliveryProposed), f.recorder.entries[1].EventID)
}

func TestAgreeDeliveryWindow_SetsAgreedWindow(t *testing.T) {
	order := paidDeliveryOrder()
	order.Delivery = &types.DeliveryDetails{Windows: windows(3)}
	proposed := enums.TxStatusDeliveryProposed
	order.TransactionStatus = &proposed
	f := newFixture(t, order)

	detail, err := f.svc.AgreeDeliveryWindow(context.Background(), AgreeDeliveryWindowInput{
		OrderID:     order.ID,
		WindowIndex: 1,
		Actor:       buyerActor(order),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TxStatusDeliveryScheduled, detail.EffectiveStatus)
	require.NotNil(t, detail.Delivery.AgreedWindow)
	assert.True(t, detail.Delivery.AgreedWindow.Equal(order.Delivery.Windows[1]))
}

func TestAgreeDeliveryWindow_IndexOutOfRange(t *testing.T) {
	order := paidDeliveryOrder()
	order.Delivery = &types.DeliveryDetails{Windows: windows(2)}
	proposed := enums.TxStatusDeliveryProposed
	order.TransactionStatus = &proposed
	f := newFixture(t, order)

	_, err := f.svc.AgreeDeliveryWindow(context.Background(), AgreeDeliveryWindowInput{
		OrderID:     order.ID,
		WindowIndex: 5,
		Actor:       buyerActor(order),
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestAgreeDeliveryWindow_OnlyFromProposed(t *testing.T) {
	order := paidDeliveryOrder()
	f := newFixture(t, order)

	_, err := f.svc.AgreeDeliveryWindow(context.Background(), AgreeDeliveryWindowInput{
		OrderID:     order.ID,
		WindowIndex: 0,
		Actor:       buyerActor(order),
	})
	assertCode(t, err, pkgerrors.CodeInvalidTransition)

	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	details, ok := appErr.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(enums.TxStatusFulfillmentRequired), details["current_status"])
}

func TestStartTracking_RequiresSchedule(t *testing.T) {
	order := paidDeliveryOrder()
	proposed := enums.TxStatusDeliveryProposed
	order.TransactionStatus = &proposed
	f := newFixture(t, order)

	_, err := f.svc.StartTracking(context.Background(), StartTrackingInput{
		OrderID: order.ID,
		Actor:   sellerActor(order),
	})
	assertCode(t, err, pkgerrors.CodeInvalidTransition)
}

func TestStartTracking_SetsOutForDelivery(t *testing.T) {
	order := paidDeliveryOrder()
	scheduled := enums.TxStatusDeliveryScheduled
	order.TransactionStatus = &scheduled
	agreed := windows(1)[0]
	order.Delivery = &types.DeliveryDetails{Windows: windows(1), AgreedWindow: &agreed}
	f := newFixture(t, order)

	detail, err := f.svc.StartTracking(context.Background(), StartTrackingInput{
		OrderID: order.ID,
		Actor:   sellerActor(order),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TxStatusOutForDelivery, detail.EffectiveStatus)
	assert.True(t, detail.TrackingEnabled)
	require.NotNil(t, detail.Delivery.OutForDeliveryAt)
	assert.Equal(t, f.now, *detail.Delivery.OutForDeliveryAt)
}

func TestStartTracking_RetryIsNoOp(t *testing.T) {
	order := paidDeliveryOrder()
	moving := enums.TxStatusOutForDelivery
	order.TransactionStatus = &moving
	order.TrackingEnabled = true
	f := newFixture(t, order)

	detail, err := f.svc.StartTracking(context.Background(), StartTrackingInput{
		OrderID: order.ID,
		Actor:   sellerActor(order),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TxStatusOutForDelivery, detail.EffectiveStatus)
	assert.Empty(t, f.repo.updateCalls)
	assert.Empty(t, f.outbox.emitted)
}

func TestMarkDelivered_SnapshotsProtectionWindow(t *testing.T) {
	order := paidDeliveryOrder()
	moving := enums.TxStatusOutForDelivery
	order.TransactionStatus = &moving
	f := newFixture(t, order)

	detail, err := f.svc.MarkDelivered(context.Background(), MarkDeliveredInput{
		OrderID: order.ID,
		Actor:   sellerActor(order),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TxStatusDeliveredPendingConfirmation, detail.EffectiveStatus)
	require.NotNil(t, detail.ProtectionEndsAt)
	assert.Equal(t, f.now.Add(72*time.Hour), *detail.ProtectionEndsAt)
	assert.Equal(t, enums.HoldReasonProtectionWindow, detail.PayoutHoldReason)
	require.NotNil(t, detail.DeliveredAt)
	require.Len(t, f.outbox.emitted, 1)
	assert.Equal(t, enums.EventDeliveryConfirmed, f.outbox.emitted[0].EventType)
}

func TestMarkDelivered_KeepsExistingSnapshot(t *testing.T) {
	order := paidDeliveryOrder()
	moving := enums.TxStatusOutForDelivery
	order.TransactionStatus = &moving
	existing := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	order.ProtectionEndsAt = &existing
	f := newFixture(t, order)

	detail, err := f.svc.MarkDelivered(context.Background(), MarkDeliveredInput{
		OrderID: order.ID,
		Actor:   sellerActor(order),
	})
	require.NoError(t, err)
	require.NotNil(t, detail.ProtectionEndsAt)
	assert.True(t, detail.ProtectionEndsAt.Equal(existing), "snapshot must not be recomputed")
}

func TestMarkDelivered_KeepsReviewHold(t *testing.T) {
	order := paidDeliveryOrder()
	moving := enums.TxStatusOutForDelivery
	order.TransactionStatus = &moving
	order.PayoutHoldReason = enums.HoldReasonHighValueReview
	f := newFixture(t, order)

	detail, err := f.svc.MarkDelivered(context.Background(), MarkDeliveredInput{
		OrderID: order.ID,
		Actor:   sellerActor(order),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.HoldReasonHighValueReview, detail.PayoutHoldReason)
}

func TestMarkDelivered_RetryIsNoOp(t *testing.T) {
	order := paidDeliveryOrder()
	deliveredAt := time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC)
	order.DeliveredAt = &deliveredAt
	order.Status = enums.OrderStatusDelivered
	f := newFixture(t, order)

	_, err := f.svc.MarkDelivered(context.Background(), MarkDeliveredInput{
		OrderID: order.ID,
		Actor:   sellerActor(order),
	})
	require.NoError(t, err)
	assert.Empty(t, f.repo.updateCalls)
}

func TestMarkDelivered_BuyerMayRecordHandoff(t *testing.T) {
	order := paidDeliveryOrder()
	moving := enums.TxStatusOutForDelivery
	order.TransactionStatus = &moving
	f := newFixture(t, order)

	detail, err := f.svc.MarkDelivered(context.Background(), MarkDeliveredInput{
		OrderID: order.ID,
		Actor:   buyerActor(order),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TxStatusDeliveredPendingConfirmation, detail.EffectiveStatus)
	require.NotNil(t, detail.DeliveredAt)
}

func TestMarkDelivered_RejectsThirdParties(t *testing.T) {
	order := paidDeliveryOrder()
	moving := enums.TxStatusOutForDelivery
	order.TransactionStatus = &moving
	f := newFixture(t, order)

	_, err := f.svc.MarkDelivered(context.Background(), MarkDeliveredInput{
		OrderID: order.ID,
		Actor:   orders.ActorInput{UserID: uuid.New(), Role: enums.RoleBuyer},
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestSetPickupInfo_GeneratesCodeOnce(t *testing.T) {
	order := paidPickupOrder()
	f := newFixture(t, order)

	detail, err := f.svc.SetPickupInfo(context.Background(), SetPickupInfoInput{
		OrderID:  order.ID,
		Location: testAddress(),
		Windows:  windows(2),
		Actor:    sellerActor(order),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TxStatusReadyForPickup, detail.EffectiveStatus)
	require.NotNil(t, detail.Pickup)
	firstCode := detail.Pickup.PickupCode
	require.Len(t, firstCode, 6)
	require.NotNil(t, detail.Pickup.ReadyAt)

	// Re-publishing windows keeps the code the buyer already has.
	detail, err = f.svc.SetPickupInfo(context.Background(), SetPickupInfoInput{
		OrderID:  order.ID,
		Location: testAddress(),
		Windows:  windows(3),
		Actor:    sellerActor(order),
	})
	require.NoError(t, err)
	assert.Equal(t, firstCode, detail.Pickup.PickupCode)
	assert.Len(t, detail.Pickup.Windows, 3)
}

func TestSetPickupInfo_RejectsDeliveryOrders(t *testing.T) {
	order := paidDeliveryOrder()
	f := newFixture(t, order)

	_, err := f.svc.SetPickupInfo(context.Background(), SetPickupInfoInput{
		OrderID:  order.ID,
		Location: testAddress(),
		Windows:  windows(1),
		Actor:    sellerActor(order),
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestSelectPickupWindow_MovesToProposed(t *testing.T) {
	order := paidPickupOrder()
	ready := enums.TxStatusReadyForPickup
	order.TransactionStatus = &ready
	order.Pickup = &types.PickupDetails{Location: testAddress(), Windows: windows(2), PickupCode: "123456"}
	f := newFixture(t, order)

	detail, err := f.svc.SelectPickupWindow(context.Background(), SelectPickupWindowInput{
		OrderID:     order.ID,
		WindowIndex: 0,
		Actor:       buyerActor(order),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TxStatusPickupProposed, detail.EffectiveStatus)
	require.NotNil(t, detail.Pickup.SelectedWindow)
}

func TestSchedulePickup_RequiresSelection(t *testing.T) {
	order := paidPickupOrder()
	proposed := enums.TxStatusPickupProposed
	order.TransactionStatus = &proposed
	order.Pickup = &types.PickupDetails{Location: testAddress(), Windows: windows(2), PickupCode: "123456"}
	f := newFixture(t, order)

	_, err := f.svc.SchedulePickup(context.Background(), SchedulePickupInput{
		OrderID: order.ID,
		Actor:   sellerActor(order),
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestConfirmPickup_CodeMustMatch(t *testing.T) {
	order := paidPickupOrder()
	scheduled := enums.TxStatusPickupScheduled
	order.TransactionStatus = &scheduled
	selected := windows(1)[0]
	order.Pickup = &types.PickupDetails{
		Location:        testAddress(),
		Windows:         windows(1),
		SelectedWindow:  &selected,
		ScheduledWindow: &selected,
		PickupCode:      "654321",
	}
	f := newFixture(t, order)

	_, err := f.svc.ConfirmPickup(context.Background(), ConfirmPickupInput{
		OrderID:    order.ID,
		PickupCode: "000000",
		Actor:      sellerActor(order),
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
	assert.Empty(t, f.repo.updateCalls)
}

func TestConfirmPickup_CompletesHandoffWithSnapshot(t *testing.T) {
	order := paidPickupOrder()
	scheduled := enums.TxStatusPickupScheduled
	order.TransactionStatus = &scheduled
	selected := windows(1)[0]
	order.Pickup = &types.PickupDetails{
		Location:        testAddress(),
		Windows:         windows(1),
		SelectedWindow:  &selected,
		ScheduledWindow: &selected,
		PickupCode:      "654321",
	}
	f := newFixture(t, order)

	detail, err := f.svc.ConfirmPickup(context.Background(), ConfirmPickupInput{
		OrderID:    order.ID,
		PickupCode: "654321",
		Actor:      sellerActor(order),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TxStatusPickedUp, detail.EffectiveStatus)
	require.NotNil(t, detail.Pickup.PickedUpAt)
	require.NotNil(t, detail.ProtectionEndsAt)
	assert.Equal(t, f.now.Add(72*time.Hour), *detail.ProtectionEndsAt)
	assert.Equal(t, enums.HoldReasonProtectionWindow, detail.PayoutHoldReason)
}

func TestConfirmPickup_AdminBypassesCode(t *testing.T) {
	order := paidPickupOrder()
	scheduled := enums.TxStatusPickupScheduled
	order.TransactionStatus = &scheduled
	selected := windows(1)[0]
	order.Pickup = &types.PickupDetails{
		Location:        testAddress(),
		Windows:         windows(1),
		SelectedWindow:  &selected,
		ScheduledWindow: &selected,
		PickupCode:      "654321",
	}
	f := newFixture(t, order)

	detail, err := f.svc.ConfirmPickup(context.Background(), ConfirmPickupInput{
		OrderID: order.ID,
		Actor:   orders.ActorInput{UserID: uuid.New(), Role: enums.RoleAdmin},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TxStatusPickedUp, detail.EffectiveStatus)
}

func TestConfirmPickup_RetryIsNoOp(t *testing.T) {
	order := paidPickupOrder()
	pickedUpAt := time.Date(2026, 3, 9, 16, 0, 0, 0, time.UTC)
	order.Pickup = &types.PickupDetails{PickupCode: "654321", PickedUpAt: &pickedUpAt}
	f := newFixture(t, order)

	_, err := f.svc.ConfirmPickup(context.Background(), ConfirmPickupInput{
		OrderID:    order.ID,
		PickupCode: "654321",
		Actor:      sellerActor(order),
	})
	require.NoError(t, err)
	assert.Empty(t, f.repo.updateCalls)
}
