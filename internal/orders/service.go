package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stockyardhq/stockyard-backend/internal/timeline"
	"github.com/stockyardhq/stockyard-backend/pkg/auth"
	"github.com/stockyardhq/stockyard-backend/pkg/custody"
	dbpkg "github.com/stockyardhq/stockyard-backend/pkg/db"
	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
	"github.com/stockyardhq/stockyard-backend/pkg/enums"
	pkgerrors "github.com/stockyardhq/stockyard-backend/pkg/errors"
	"github.com/stockyardhq/stockyard-backend/pkg/logger"
	"github.com/stockyardhq/stockyard-backend/pkg/outbox"
	"github.com/stockyardhq/stockyard-backend/pkg/outbox/payloads"
	"github.com/stockyardhq/stockyard-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Notifier dispatches best-effort notifications after the primary write
// committed. Implementations must never block or fail the caller.
type Notifier interface {
	Dispatch(ctx context.Context, event payloads.NotificationRequestedEvent)
}

const (
	orderNumberConstraint = "uq_orders_order_number"
	orderNumberRetries    = 3
)

// Config tunes lifecycle behavior.
type Config struct {
	PlatformFeePercent decimal.Decimal
	HighValueThreshold decimal.Decimal
	PaymentTTL         time.Duration
	WireTTL            time.Duration
}

// Service owns the order lifecycle from checkout intent through payment,
// confirmation and cancellation.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderDetail, error)
	Get(ctx context.Context, orderID uuid.UUID, actor auth.Actor) (*OrderDetail, error)
	List(ctx context.Context, actor auth.Actor, params pagination.Params, filters OrderFilters) (*OrderList, error)
	ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*OrderDetail, error)
	ConfirmReceipt(ctx context.Context, input ConfirmReceiptInput) (*OrderDetail, error)
	Cancel(ctx context.Context, input CancelOrderInput) (*OrderDetail, error)
	SweepAbandoned(ctx context.Context, input SweepInput) (*SweepResult, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	recorder timeline.Recorder
	notifier Notifier
	logg     *logger.Logger
	cfg      Config
	now      func() time.Time
}

// NewService builds the order lifecycle service.
func NewService(repo Repository, tx txRunner, ob outboxPublisher, recorder timeline.Recorder, notifier Notifier, logg *logger.Logger, cfg Config) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("timeline recorder required")
	}
	if cfg.PaymentTTL <= 0 {
		cfg.PaymentTTL = time.Hour
	}
	if cfg.WireTTL <= 0 {
		cfg.WireTTL = 72 * time.Hour
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   ob,
		recorder: recorder,
		notifier: notifier,
		logg:     logg,
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderDetail, error) {
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	if !input.TransportOption.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transport option must be BUYER_TRANSPORT or SELLER_TRANSPORT")
	}
	qty := input.Quantity
	if qty <= 0 {
		qty = 1
	}
	if input.TransportOption == enums.TransportSeller && input.DeliveryAddress == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address required for seller transport")
	}

	var created *models.Order
	createInTx := func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		listing, err := repo.FindListing(ctx, input.ListingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
		}
		if !listing.Active {
			return pkgerrors.New(pkgerrors.CodeValidation, "listing is no longer available")
		}
		if listing.SellerID == input.BuyerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "cannot buy your own listing")
		}

		if err := repo.ReserveListing(ctx, listing.ID, qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "reserve listing quantity")
		}

		gross := listing.Price.Mul(decimal.NewFromInt(int64(qty)))
		fee := gross.Mul(s.cfg.PlatformFeePercent).Div(decimal.NewFromInt(100)).Round(2)
		sellerAmount := gross.Sub(fee)
		if sellerAmount.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeInternal, "platform fee exceeds gross amount")
		}

		number, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}

		status, ttl := initialStatus(input.PaymentMethod, s.cfg)
		expiresAt := s.now().Add(ttl)

		order := &models.Order{
			ID:               uuid.New(),
			OrderNumber:      number,
			ListingID:        listing.ID,
			BuyerID:          input.BuyerID,
			SellerID:         listing.SellerID,
			Quantity:         qty,
			Currency:         listing.Currency,
			GrossAmount:      gross,
			PlatformFee:      fee,
			SellerAmount:     sellerAmount,
			Status:           status,
			TransportOption:  input.TransportOption,
			PayoutHoldReason: enums.HoldReasonNone,
			DisputeStatus:    enums.DisputeStatusNone,
			DeliveryAddress:  input.DeliveryAddress,
			PaymentExpiresAt: &expiresAt,
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		reservation := &models.ListingReservation{
			ID:        uuid.New(),
			ListingID: listing.ID,
			OrderID:   order.ID,
			Quantity:  qty,
			ExpiresAt: &expiresAt,
		}
		if err := repo.CreateReservation(ctx, reservation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create listing reservation")
		}

		if err := s.recorder.Append(ctx, tx, timeline.Entry{
			OrderID:   order.ID,
			EventType: enums.TimelineOrderCreated,
			ActorRole: enums.RoleBuyer,
			ActorID:   &input.BuyerID,
			Message:   fmt.Sprintf("Order #%d created for listing %s", order.OrderNumber, listing.Title),
		}); err != nil {
			return err
		}

		created = order
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.BuyerID, Role: string(enums.RoleBuyer)},
			Data: payloads.OrderCreatedEvent{
				OrderID:   order.ID,
				ListingID: listing.ID,
				BuyerID:   order.BuyerID,
				SellerID:  order.SellerID,
				Quantity:  qty,
			},
		})
	}

	err := s.tx.WithTx(ctx, createInTx)
	// MAX+1 number allocation can collide under concurrent creates; the
	// loser re-runs the whole transaction with a fresh number instead of
	// surfacing the constraint violation.
	for retries := 0; retries < orderNumberRetries && dbpkg.IsUniqueViolation(err, orderNumberConstraint); retries++ {
		err = s.tx.WithTx(ctx, createInTx)
	}
	if err != nil {
		return nil, err
	}
	return Detail(created, custody.Evaluate(created, s.now())), nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor auth.Actor) (*OrderDetail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if err := authorizeParticipant(order, actor); err != nil {
		return nil, err
	}
	return Detail(order, custody.Evaluate(order, s.now())), nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	repoFilters := ListFilters{
		DisputesOnly: filters.DisputesOnly,
		DateFrom:     filters.DateFrom,
		DateTo:       filters.DateTo,
	}
	if filters.Status != nil {
		status := string(*filters.Status)
		repoFilters.Status = &status
	}
	switch actor.Role {
	case enums.RoleBuyer:
		id := actor.UserID
		repoFilters.BuyerID = &id
	case enums.RoleSeller:
		id := actor.UserID
		repoFilters.SellerID = &id
	case enums.RoleAdmin, enums.RoleSystem:
		// unscoped
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor role")
	}

	rows, nextCursor, err := s.repo.ListOrders(ctx, params, repoFilters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	list := &OrderList{NextCursor: nextCursor, Orders: make([]OrderSummary, 0, len(rows))}
	for i := range rows {
		o := rows[i]
		effective := custody.EffectiveStatus(&o)
		if filters.EffectiveStatus != nil && effective != *filters.EffectiveStatus {
			continue
		}
		list.Orders = append(list.Orders, OrderSummary{
			ID:              o.ID,
			OrderNumber:     o.OrderNumber,
			ListingID:       o.ListingID,
			GrossAmount:     o.GrossAmount,
			Status:          o.Status,
			EffectiveStatus: effective,
			TransportOption: o.TransportOption,
			CreatedAt:       o.CreatedAt,
		})
	}
	return list, nil
}

func (s *service) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*OrderDetail, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrderForUpdate(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		// Webhook retries and the client's own confirm call both land here.
		if order.PaidAt != nil {
			result = order
			return nil
		}
		if !order.Status.IsAwaitingPayment() {
			return pkgerrors.InvalidTransition(string(order.Status),
				string(enums.OrderStatusPending), string(enums.OrderStatusAwaitingBankTransfer), string(enums.OrderStatusAwaitingWire))
		}

		now := s.now()
		txStatus := enums.TxStatusFulfillmentRequired
		holdReason := enums.HoldReasonNone
		if !s.cfg.HighValueThreshold.IsZero() && order.GrossAmount.GreaterThanOrEqual(s.cfg.HighValueThreshold) {
			holdReason = enums.HoldReasonHighValueReview
		}

		updates := map[string]any{
			"status":             enums.OrderStatusPaidHeld,
			"transaction_status": txStatus,
			"payout_hold_reason": holdReason,
			"paid_at":            now,
		}
		if input.PaymentIntentID != "" {
			updates["payment_intent_id"] = input.PaymentIntentID
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}

		// The reservation converts into a sale; reserved quantity drops
		// without returning to available stock.
		if reservation, err := repo.FindReservationByOrder(ctx, order.ID); err == nil {
			if err := repo.ConsumeListingReservation(ctx, reservation.ListingID, reservation.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume listing reservation")
			}
			if err := repo.DeleteReservation(ctx, reservation.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete listing reservation")
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing reservation")
		}

		order.Status = enums.OrderStatusPaidHeld
		order.TransactionStatus = &txStatus
		order.PayoutHoldReason = holdReason
		order.PaidAt = &now
		if input.PaymentIntentID != "" {
			intentID := input.PaymentIntentID
			order.PaymentIntentID = &intentID
		}

		if err := s.recorder.Append(ctx, tx, timeline.Entry{
			OrderID:   order.ID,
			EventType: enums.TimelineOrderPaid,
			ActorRole: input.Actor.Role,
			Message:   "Payment captured and held in custody",
			Metadata:  map[string]any{"source": input.Source},
		}); err != nil {
			return err
		}

		result = order
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderPaidEvent{
				OrderID:         order.ID,
				BuyerID:         order.BuyerID,
				SellerID:        order.SellerID,
				GrossAmount:     order.GrossAmount,
				PaymentIntentID: input.PaymentIntentID,
				PaidAt:          now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifySeller(ctx, result, enums.NotificationTypeOrderUpdate, "Order paid",
		fmt.Sprintf("Order #%d is paid and awaiting fulfillment", result.OrderNumber))
	return Detail(result, custody.Evaluate(result, s.now())), nil
}

func (s *service) ConfirmReceipt(ctx context.Context, input ConfirmReceiptInput) (*OrderDetail, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrderForUpdate(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if input.Actor.Role != enums.RoleAdmin && order.BuyerID != input.Actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer of record may confirm receipt")
		}

		// Second confirm call is an explicit idempotent success.
		if order.BuyerConfirmedAt != nil {
			result = order
			return nil
		}

		allowed := []enums.OrderStatus{
			enums.OrderStatusPaid, enums.OrderStatusPaidHeld,
			enums.OrderStatusInTransit, enums.OrderStatusDelivered,
		}
		if !statusIn(order.Status, allowed) {
			return pkgerrors.InvalidTransition(string(order.Status), statusStrings(allowed)...)
		}
		if !order.DeliveryMarked() {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				"delivery must be marked as delivered before you can confirm receipt").
				WithDetails(map[string]any{"current_status": string(custody.EffectiveStatus(order))})
		}

		now := s.now()
		order.BuyerConfirmedAt = &now

		nextStatus := enums.OrderStatusBuyerConfirmed
		holdReason := order.PayoutHoldReason
		if holdReason == enums.HoldReasonProtectionWindow &&
			(order.ProtectionEndsAt == nil || !now.Before(*order.ProtectionEndsAt)) {
			holdReason = enums.HoldReasonNone
		}
		probe := *order
		probe.Status = nextStatus
		probe.PayoutHoldReason = holdReason
		if custody.Evaluate(&probe, now).Eligible {
			nextStatus = enums.OrderStatusReadyToRelease
		}

		updates := map[string]any{
			"status":             nextStatus,
			"buyer_confirmed_at": now,
			"payout_hold_reason": holdReason,
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm receipt")
		}
		order.Status = nextStatus
		order.PayoutHoldReason = holdReason

		if err := s.recorder.Append(ctx, tx, timeline.Entry{
			OrderID:   order.ID,
			EventType: enums.TimelineBuyerConfirmed,
			ActorRole: input.Actor.Role,
			ActorID:   &input.Actor.UserID,
			Message:   "Buyer confirmed receipt of the animals",
		}); err != nil {
			return err
		}

		result = order
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBuyerConfirmedReceipt,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.Actor.UserID, Role: string(input.Actor.Role)},
			Data:          payloads.BuyerConfirmedEvent{OrderID: order.ID, ConfirmedAt: s.now()},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifySeller(ctx, result, enums.NotificationTypeOrderUpdate, "Receipt confirmed",
		fmt.Sprintf("The buyer confirmed receipt for order #%d", result.OrderNumber))
	return Detail(result, custody.Evaluate(result, s.now())), nil
}

func (s *service) Cancel(ctx context.Context, input CancelOrderInput) (*OrderDetail, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.cancelInTx(ctx, tx, input)
		if err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return Detail(result, custody.Evaluate(result, s.now())), nil
}

// cancelInTx applies a single cancellation with its reservation release
// inside the caller's transaction. The sweep reuses it per item.
func (s *service) cancelInTx(ctx context.Context, tx *gorm.DB, input CancelOrderInput) (*models.Order, error) {
	repo := s.repo.WithTx(tx)

	order, err := repo.FindOrderForUpdate(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	switch input.Actor.Role {
	case enums.RoleAdmin, enums.RoleSystem:
	case enums.RoleBuyer:
		if order.BuyerID != input.Actor.UserID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer of record may cancel")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cancellation not permitted for this role")
	}

	if order.Status == enums.OrderStatusCancelled {
		return order, nil
	}
	if order.TransferID != nil && *order.TransferID != "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "funds were already released; cancellation is not possible")
	}
	if !input.Force && !order.Status.IsAwaitingPayment() {
		return nil, pkgerrors.InvalidTransition(string(order.Status), statusStrings(enums.AwaitingPaymentStatuses)...)
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.InvalidTransition(string(order.Status))
	}

	now := s.now()
	updates := map[string]any{
		"status":       enums.OrderStatusCancelled,
		"cancelled_at": now,
	}
	if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}

	// Reservation release happens in lockstep with the cancellation.
	reservation, err := repo.FindReservationByOrder(ctx, order.ID)
	if err == nil {
		if err := repo.RestoreListingQuantity(ctx, reservation.ListingID, reservation.Quantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore listing quantity")
		}
		if err := repo.DeleteReservation(ctx, reservation.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete listing reservation")
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing reservation")
	}

	order.Status = enums.OrderStatusCancelled
	order.CancelledAt = &now

	if err := s.recorder.Append(ctx, tx, timeline.Entry{
		OrderID:   order.ID,
		EventType: enums.TimelineOrderCancelled,
		ActorRole: input.Actor.Role,
		Message:   cancelMessage(input.Reason),
	}); err != nil {
		return nil, err
	}

	if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCancelled,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Data: payloads.OrderCancelledEvent{
			OrderID:     order.ID,
			ListingID:   order.ListingID,
			CancelledAt: now,
			Reason:      input.Reason,
			Swept:       input.Actor.Role == enums.RoleSystem,
		},
	}); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) SweepAbandoned(ctx context.Context, input SweepInput) (*SweepResult, error) {
	if input.BatchSize <= 0 {
		input.BatchSize = 100
	}
	cutoff := input.Cutoff
	if cutoff.IsZero() {
		cutoff = s.now()
	}

	candidates, err := s.repo.FindAwaitingPaymentBefore(ctx, cutoff, input.BatchSize)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find abandoned checkouts")
	}

	result := &SweepResult{Scanned: len(candidates), DryRun: input.DryRun}
	for i := range candidates {
		order := candidates[i]
		if input.DryRun {
			result.Items = append(result.Items, SweepItemResult{OrderID: order.ID, Action: "would_cancel"})
			result.Cancelled++
			continue
		}

		cancelInput := CancelOrderInput{
			OrderID: order.ID,
			Reason:  "checkout session expired",
			Force:   input.Force,
			Actor:   ActorInput{Role: enums.RoleSystem},
		}
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			_, err := s.cancelInTx(ctx, tx, cancelInput)
			return err
		})
		if err != nil {
			result.Failed++
			result.Items = append(result.Items, SweepItemResult{OrderID: order.ID, Action: "failed", Error: err.Error()})
			if s.logg != nil {
				s.logg.Error(s.logg.WithField(ctx, "order_id", order.ID.String()), "abandoned checkout sweep item failed", err)
			}
			continue
		}
		result.Cancelled++
		result.Items = append(result.Items, SweepItemResult{OrderID: order.ID, Action: "cancelled"})
	}
	return result, nil
}

func (s *service) notifySeller(ctx context.Context, order *models.Order, notifType enums.NotificationType, title, message string) {
	if s.notifier == nil || order == nil {
		return
	}
	s.notifier.Dispatch(ctx, payloads.NotificationRequestedEvent{
		UserID:  order.SellerID,
		OrderID: order.ID,
		Type:    notifType,
		Title:   title,
		Message: message,
	})
}

func authorizeParticipant(order *models.Order, actor auth.Actor) error {
	if actor.IsAdmin() || actor.IsSystem() {
		return nil
	}
	if order.BuyerID == actor.UserID || order.SellerID == actor.UserID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "actor is not a participant of this order")
}

func initialStatus(paymentMethod string, cfg Config) (enums.OrderStatus, time.Duration) {
	switch paymentMethod {
	case "bank_transfer":
		return enums.OrderStatusAwaitingBankTransfer, cfg.WireTTL
	case "wire":
		return enums.OrderStatusAwaitingWire, cfg.WireTTL
	default:
		return enums.OrderStatusPending, cfg.PaymentTTL
	}
}

func cancelMessage(reason string) string {
	if reason == "" {
		return "Order cancelled"
	}
	return fmt.Sprintf("Order cancelled: %s", reason)
}

func statusIn(status enums.OrderStatus, set []enums.OrderStatus) bool {
	for _, candidate := range set {
		if candidate == status {
			return true
		}
	}
	return false
}

func statusStrings(set []enums.OrderStatus) []string {
	out := make([]string, 0, len(set))
	for _, s := range set {
		out = append(out, string(s))
	}
	return out
}
