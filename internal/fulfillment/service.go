package fulfillment

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockyardhq/stockyard-backend/internal/orders"
	"github.com/stockyardhq/stockyard-backend/internal/timeline"
	"github.com/stockyardhq/stockyard-backend/pkg/custody"
	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
	"github.com/stockyardhq/stockyard-backend/pkg/enums"
	pkgerrors "github.com/stockyardhq/stockyard-backend/pkg/errors"
	"github.com/stockyardhq/stockyard-backend/pkg/logger"
	"github.com/stockyardhq/stockyard-backend/pkg/outbox"
	"github.com/stockyardhq/stockyard-backend/pkg/outbox/payloads"
	"github.com/stockyardhq/stockyard-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Config tunes fulfillment behavior.
type Config struct {
	// ProtectionWindow is snapshotted onto the order at handoff time and
	// never recomputed from later config changes.
	ProtectionWindow time.Duration
}

// Service drives both fulfillment machines: seller delivery and buyer pickup.
type Service interface {
	ProposeDelivery(ctx context.Context, input ProposeDeliveryInput) (*orders.OrderDetail, error)
	AgreeDeliveryWindow(ctx context.Context, input AgreeDeliveryWindowInput) (*orders.OrderDetail, error)
	StartTracking(ctx context.Context, input StartTrackingInput) (*orders.OrderDetail, error)
	MarkDelivered(ctx context.Context, input MarkDeliveredInput) (*orders.OrderDetail, error)
	SetPickupInfo(ctx context.Context, input SetPickupInfoInput) (*orders.OrderDetail, error)
	SelectPickupWindow(ctx context.Context, input SelectPickupWindowInput) (*orders.OrderDetail, error)
	SchedulePickup(ctx context.Context, input SchedulePickupInput) (*orders.OrderDetail, error)
	ConfirmPickup(ctx context.Context, input ConfirmPickupInput) (*orders.OrderDetail, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	recorder timeline.Recorder
	notifier orders.Notifier
	logg     *logger.Logger
	cfg      Config
	now      func() time.Time
}

// NewService builds the fulfillment service.
func NewService(repo Repository, tx txRunner, ob outboxPublisher, recorder timeline.Recorder, notifier orders.Notifier, logg *logger.Logger, cfg Config) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fulfillment repository required")
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
	if cfg.ProtectionWindow <= 0 {
		cfg.ProtectionWindow = 72 * time.Hour
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

func (s *service) ProposeDelivery(ctx context.Context, input ProposeDeliveryInput) (*orders.OrderDetail, error) {
	if len(input.Windows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one delivery window is required")
	}
	for i, window := range input.Windows {
		if err := window.Validate(); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("window %d: %s", i, err.Error()))
		}
	}

	return s.mutate(ctx, input.OrderID, func(tx *gorm.DB, repo Repository, order *models.Order) (*pendingNotification, error) {
		if err := requireSeller(order, input.Actor); err != nil {
			return nil, err
		}
		if err := requirePaid(order); err != nil {
			return nil, err
		}
		if order.TransportOption != enums.TransportSeller {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery windows apply to seller transport orders only")
		}
		if order.DeliveryAddress == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no delivery address on file")
		}

		from := custody.EffectiveStatus(order)
		if err := guardTransition(order.TransportOption, from, enums.TxStatusDeliveryProposed); err != nil {
			return nil, err
		}

		delivery := order.Delivery
		if delivery == nil {
			delivery = &types.DeliveryDetails{}
		}
		delivery.Windows = input.Windows
		delivery.AgreedWindow = nil
		delivery.ETA = input.ETA
		delivery.Transporter = input.Transporter
		if input.Notes != nil {
			delivery.Notes = input.Notes
		}

		return s.applyTransition(ctx, tx, repo, order, transition{
			from:          from,
			to:            enums.TxStatusDeliveryProposed,
			timelineEvent: enums.TimelineDeliveryProposed,
			message:       fmt.Sprintf("Seller proposed %d delivery window(s)", len(input.Windows)),
			actor:         input.Actor,
			updates:       map[string]any{"delivery": delivery},
			mutateModel:   func(o *models.Order) { o.Delivery = delivery },
			notifyUserID:  order.BuyerID,
			notifyTitle:   "Delivery windows proposed",
			notifyMessage: fmt.Sprintf("The seller proposed delivery windows for order #%d", order.OrderNumber),
		})
	})
}

func (s *service) AgreeDeliveryWindow(ctx context.Context, input AgreeDeliveryWindowInput) (*orders.OrderDetail, error) {
	return s.mutate(ctx, input.OrderID, func(tx *gorm.DB, repo Repository, order *models.Order) (*pendingNotification, error) {
		if err := requireBuyer(order, input.Actor); err != nil {
			return nil, err
		}

		from := custody.EffectiveStatus(order)
		if err := guardTransition(order.TransportOption, from, enums.TxStatusDeliveryScheduled); err != nil {
			return nil, err
		}
		if order.Delivery == nil || input.WindowIndex < 0 || input.WindowIndex >= len(order.Delivery.Windows) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "window index is out of range").
				WithDetails(map[string]any{"window_index": input.WindowIndex})
		}

		delivery := order.Delivery
		agreed := delivery.Windows[input.WindowIndex]
		delivery.AgreedWindow = &agreed

		return s.applyTransition(ctx, tx, repo, order, transition{
			from:          from,
			to:            enums.TxStatusDeliveryScheduled,
			timelineEvent: enums.TimelineDeliveryAgreed,
			message:       fmt.Sprintf("Buyer agreed to delivery window %s to %s", agreed.Start.Format(time.RFC3339), agreed.End.Format(time.RFC3339)),
			actor:         input.Actor,
			updates:       map[string]any{"delivery": delivery},
			mutateModel:   func(o *models.Order) { o.Delivery = delivery },
			notifyUserID:  order.SellerID,
			notifyTitle:   "Delivery window agreed",
			notifyMessage: fmt.Sprintf("The buyer agreed to a delivery window for order #%d", order.OrderNumber),
		})
	})
}

func (s *service) StartTracking(ctx context.Context, input StartTrackingInput) (*orders.OrderDetail, error) {
	return s.mutate(ctx, input.OrderID, func(tx *gorm.DB, repo Repository, order *models.Order) (*pendingNotification, error) {
		if err := requireSeller(order, input.Actor); err != nil {
			return nil, err
		}

		from := custody.EffectiveStatus(order)
		// A retried start is a no-op once the order is already moving.
		if from == enums.TxStatusOutForDelivery {
			return nil, nil
		}
		if err := guardTransition(order.TransportOption, from, enums.TxStatusOutForDelivery); err != nil {
			return nil, err
		}

		now := s.now()
		delivery := order.Delivery
		if delivery == nil {
			delivery = &types.DeliveryDetails{}
		}
		delivery.OutForDeliveryAt = &now

		return s.applyTransition(ctx, tx, repo, order, transition{
			from:          from,
			to:            enums.TxStatusOutForDelivery,
			timelineEvent: enums.TimelineOutForDelivery,
			message:       "Animals are out for delivery; tracking is live",
			actor:         input.Actor,
			updates: map[string]any{
				"delivery":         delivery,
				"status":           enums.OrderStatusInTransit,
				"tracking_enabled": true,
			},
			mutateModel: func(o *models.Order) {
				o.Delivery = delivery
				o.Status = enums.OrderStatusInTransit
				o.TrackingEnabled = true
			},
			notifyUserID:  order.BuyerID,
			notifyTitle:   "Out for delivery",
			notifyMessage: fmt.Sprintf("Order #%d is out for delivery", order.OrderNumber),
		})
	})
}

func (s *service) MarkDelivered(ctx context.Context, input MarkDeliveredInput) (*orders.OrderDetail, error) {
	return s.mutate(ctx, input.OrderID, func(tx *gorm.DB, repo Repository, order *models.Order) (*pendingNotification, error) {
		// Either party may record the handoff; the buyer confirming a
		// physical handover is as authoritative as the seller.
		if err := requireParty(order, input.Actor); err != nil {
			return nil, err
		}
		// Retried webhook or double tap; the handoff is already recorded.
		if order.DeliveryMarked() {
			return nil, nil
		}

		from := custody.EffectiveStatus(order)
		if err := guardTransition(order.TransportOption, from, enums.TxStatusDeliveredPendingConfirmation); err != nil {
			return nil, err
		}

		now := s.now()
		delivery := order.Delivery
		if delivery == nil {
			delivery = &types.DeliveryDetails{}
		}
		delivery.DeliveredAt = &now
		if input.SignatureURL != nil {
			delivery.SignatureURL = input.SignatureURL
		}

		updates := map[string]any{
			"delivery":     delivery,
			"status":       enums.OrderStatusDelivered,
			"delivered_at": now,
		}
		s.snapshotProtection(order, now, updates)

		return s.applyTransition(ctx, tx, repo, order, transition{
			from:          from,
			to:            enums.TxStatusDeliveredPendingConfirmation,
			timelineEvent: enums.TimelineDelivered,
			message:       "Delivery completed; awaiting buyer confirmation",
			actor:         input.Actor,
			updates:       updates,
			mutateModel: func(o *models.Order) {
				o.Delivery = delivery
				o.Status = enums.OrderStatusDelivered
				o.DeliveredAt = &now
			},
			outboxEvent: &outbox.DomainEvent{
				EventType:     enums.EventDeliveryConfirmed,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Version:       1,
				Data: payloads.FulfillmentUpdatedEvent{
					OrderID:    order.ID,
					FromStatus: from,
					ToStatus:   enums.TxStatusDeliveredPendingConfirmation,
					Transport:  order.TransportOption,
				},
			},
			notifyUserID:  order.BuyerID,
			notifyTitle:   "Delivery complete",
			notifyMessage: fmt.Sprintf("Order #%d was delivered; please confirm receipt", order.OrderNumber),
		})
	})
}

func (s *service) SetPickupInfo(ctx context.Context, input SetPickupInfoInput) (*orders.OrderDetail, error) {
	if input.Location == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup location is required")
	}
	if len(input.Windows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one pickup window is required")
	}
	for i, window := range input.Windows {
		if err := window.Validate(); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("window %d: %s", i, err.Error()))
		}
	}

	return s.mutate(ctx, input.OrderID, func(tx *gorm.DB, repo Repository, order *models.Order) (*pendingNotification, error) {
		if err := requireSeller(order, input.Actor); err != nil {
			return nil, err
		}
		if err := requirePaid(order); err != nil {
			return nil, err
		}
		if order.TransportOption != enums.TransportBuyer {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup info applies to buyer transport orders only")
		}

		from := custody.EffectiveStatus(order)
		if err := guardTransition(order.TransportOption, from, enums.TxStatusReadyForPickup); err != nil {
			return nil, err
		}

		now := s.now()
		pickup := order.Pickup
		if pickup == nil {
			pickup = &types.PickupDetails{}
		}
		pickup.Location = input.Location
		pickup.Windows = input.Windows
		pickup.SelectedWindow = nil
		pickup.ScheduledWindow = nil
		if input.Notes != nil {
			pickup.Notes = input.Notes
		}
		if pickup.ReadyAt == nil {
			pickup.ReadyAt = &now
		}
		// The code survives re-publishing of windows so a buyer who already
		// received it is not locked out.
		if pickup.PickupCode == "" {
			code, err := generatePickupCode()
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate pickup code")
			}
			pickup.PickupCode = code
		}

		return s.applyTransition(ctx, tx, repo, order, transition{
			from:          from,
			to:            enums.TxStatusReadyForPickup,
			timelineEvent: enums.TimelinePickupReady,
			message:       "Seller published pickup location and windows",
			actor:         input.Actor,
			updates:       map[string]any{"pickup": pickup},
			mutateModel:   func(o *models.Order) { o.Pickup = pickup },
			notifyUserID:  order.BuyerID,
			notifyTitle:   "Ready for pickup",
			notifyMessage: fmt.Sprintf("Order #%d is ready for pickup; choose a window", order.OrderNumber),
		})
	})
}

func (s *service) SelectPickupWindow(ctx context.Context, input SelectPickupWindowInput) (*orders.OrderDetail, error) {
	return s.mutate(ctx, input.OrderID, func(tx *gorm.DB, repo Repository, order *models.Order) (*pendingNotification, error) {
		if err := requireBuyer(order, input.Actor); err != nil {
			return nil, err
		}

		from := custody.EffectiveStatus(order)
		if err := guardTransition(order.TransportOption, from, enums.TxStatusPickupProposed); err != nil {
			return nil, err
		}
		if order.Pickup == nil || input.WindowIndex < 0 || input.WindowIndex >= len(order.Pickup.Windows) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "window index is out of range").
				WithDetails(map[string]any{"window_index": input.WindowIndex})
		}

		pickup := order.Pickup
		selected := pickup.Windows[input.WindowIndex]
		pickup.SelectedWindow = &selected

		return s.applyTransition(ctx, tx, repo, order, transition{
			from:          from,
			to:            enums.TxStatusPickupProposed,
			timelineEvent: enums.TimelinePickupProposed,
			message:       fmt.Sprintf("Buyer selected pickup window %s to %s", selected.Start.Format(time.RFC3339), selected.End.Format(time.RFC3339)),
			actor:         input.Actor,
			updates:       map[string]any{"pickup": pickup},
			mutateModel:   func(o *models.Order) { o.Pickup = pickup },
			notifyUserID:  order.SellerID,
			notifyTitle:   "Pickup window selected",
			notifyMessage: fmt.Sprintf("The buyer selected a pickup window for order #%d", order.OrderNumber),
		})
	})
}

func (s *service) SchedulePickup(ctx context.Context, input SchedulePickupInput) (*orders.OrderDetail, error) {
	return s.mutate(ctx, input.OrderID, func(tx *gorm.DB, repo Repository, order *models.Order) (*pendingNotification, error) {
		if err := requireSeller(order, input.Actor); err != nil {
			return nil, err
		}

		from := custody.EffectiveStatus(order)
		if err := guardTransition(order.TransportOption, from, enums.TxStatusPickupScheduled); err != nil {
			return nil, err
		}
		if order.Pickup == nil || order.Pickup.SelectedWindow == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer has not selected a pickup window yet")
		}

		pickup := order.Pickup
		pickup.ScheduledWindow = pickup.SelectedWindow

		return s.applyTransition(ctx, tx, repo, order, transition{
			from:          from,
			to:            enums.TxStatusPickupScheduled,
			timelineEvent: enums.TimelinePickupScheduled,
			message:       "Pickup scheduled",
			actor:         input.Actor,
			updates:       map[string]any{"pickup": pickup},
			mutateModel:   func(o *models.Order) { o.Pickup = pickup },
			notifyUserID:  order.BuyerID,
			notifyTitle:   "Pickup scheduled",
			notifyMessage: fmt.Sprintf("Pickup for order #%d is confirmed", order.OrderNumber),
		})
	})
}

func (s *service) ConfirmPickup(ctx context.Context, input ConfirmPickupInput) (*orders.OrderDetail, error) {
	return s.mutate(ctx, input.OrderID, func(tx *gorm.DB, repo Repository, order *models.Order) (*pendingNotification, error) {
		if err := requireSeller(order, input.Actor); err != nil {
			return nil, err
		}
		if order.Pickup != nil && order.Pickup.PickedUpAt != nil {
			return nil, nil
		}

		from := custody.EffectiveStatus(order)
		if err := guardTransition(order.TransportOption, from, enums.TxStatusPickedUp); err != nil {
			return nil, err
		}
		if order.Pickup == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "no pickup info on file")
		}
		if input.Actor.Role != enums.RoleAdmin && input.PickupCode != order.Pickup.PickupCode {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "pickup code does not match")
		}

		now := s.now()
		pickup := order.Pickup
		pickup.PickedUpAt = &now

		updates := map[string]any{
			"pickup":       pickup,
			"status":       enums.OrderStatusDelivered,
			"delivered_at": now,
		}
		s.snapshotProtection(order, now, updates)

		return s.applyTransition(ctx, tx, repo, order, transition{
			from:          from,
			to:            enums.TxStatusPickedUp,
			timelineEvent: enums.TimelinePickedUp,
			message:       "Buyer picked up the animals; handoff code verified",
			actor:         input.Actor,
			updates:       updates,
			mutateModel: func(o *models.Order) {
				o.Pickup = pickup
				o.Status = enums.OrderStatusDelivered
				o.DeliveredAt = &now
			},
			outboxEvent: &outbox.DomainEvent{
				EventType:     enums.EventDeliveryConfirmed,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Version:       1,
				Data: payloads.FulfillmentUpdatedEvent{
					OrderID:    order.ID,
					FromStatus: from,
					ToStatus:   enums.TxStatusPickedUp,
					Transport:  order.TransportOption,
				},
			},
			notifyUserID:  order.BuyerID,
			notifyTitle:   "Pickup complete",
			notifyMessage: fmt.Sprintf("Order #%d was picked up; please confirm receipt", order.OrderNumber),
		})
	})
}

// transition bundles everything a single state change writes.
type transition struct {
	from          enums.TransactionStatus
	to            enums.TransactionStatus
	timelineEvent enums.TimelineEventType
	message       string
	actor         orders.ActorInput
	updates       map[string]any
	mutateModel   func(o *models.Order)
	outboxEvent   *outbox.DomainEvent
	notifyUserID  uuid.UUID
	notifyTitle   string
	notifyMessage string
}

type pendingNotification struct {
	userID  uuid.UUID
	orderID uuid.UUID
	title   string
	message string
}

func (s *service) mutate(ctx context.Context, orderID uuid.UUID, fn func(tx *gorm.DB, repo Repository, order *models.Order) (*pendingNotification, error)) (*orders.OrderDetail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var (
		result *models.Order
		notify *pendingNotification
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		pending, err := fn(tx, repo, order)
		if err != nil {
			return err
		}
		result = order
		notify = pending
		return nil
	})
	if err != nil {
		return nil, err
	}
	if notify != nil && s.notifier != nil {
		s.notifier.Dispatch(ctx, payloads.NotificationRequestedEvent{
			UserID:  notify.userID,
			OrderID: notify.orderID,
			Type:    enums.NotificationTypeFulfillment,
			Title:   notify.title,
			Message: notify.message,
		})
	}
	return orders.Detail(result, custody.Evaluate(result, s.now())), nil
}

func (s *service) applyTransition(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, t transition) (*pendingNotification, error) {
	t.updates["transaction_status"] = t.to
	if err := repo.UpdateOrder(ctx, order.ID, t.updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply fulfillment transition")
	}
	to := t.to
	order.TransactionStatus = &to
	if t.mutateModel != nil {
		t.mutateModel(order)
	}
	if protection, ok := t.updates["protection_ends_at"].(time.Time); ok {
		order.ProtectionEndsAt = &protection
	}
	if days, ok := t.updates["protection_days"].(int); ok {
		order.ProtectionDays = &days
	}
	if reason, ok := t.updates["payout_hold_reason"].(enums.PayoutHoldReason); ok {
		order.PayoutHoldReason = reason
	}

	var actorID *uuid.UUID
	if t.actor.UserID != uuid.Nil {
		id := t.actor.UserID
		actorID = &id
	}
	// Self-transitions (re-proposing windows, re-publishing pickup info)
	// legitimately recur, so they get a fresh id instead of the
	// deterministic per-type default.
	eventID := ""
	if t.from == t.to {
		eventID = fmt.Sprintf("%s:%s:%d", order.ID, t.timelineEvent, s.now().UnixNano())
	}
	if err := s.recorder.Append(ctx, tx, timeline.Entry{
		OrderID:   order.ID,
		EventType: t.timelineEvent,
		ActorRole: t.actor.Role,
		ActorID:   actorID,
		Message:   t.message,
		Metadata:  map[string]any{"from": string(t.from), "to": string(t.to)},
		EventID:   eventID,
	}); err != nil {
		return nil, err
	}

	event := t.outboxEvent
	if event == nil {
		event = &outbox.DomainEvent{
			EventType:     enums.EventFulfillmentUpdated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.FulfillmentUpdatedEvent{
				OrderID:    order.ID,
				FromStatus: t.from,
				ToStatus:   t.to,
				Transport:  order.TransportOption,
			},
		}
	}
	if err := s.outbox.Emit(ctx, tx, *event); err != nil {
		return nil, err
	}

	return &pendingNotification{
		userID:  t.notifyUserID,
		orderID: order.ID,
		title:   t.notifyTitle,
		message: t.notifyMessage,
	}, nil
}

// snapshotProtection fixes the buyer-protection window at handoff time if it
// has not been fixed before.
func (s *service) snapshotProtection(order *models.Order, handoffAt time.Time, updates map[string]any) {
	if order.ProtectionEndsAt != nil {
		return
	}
	endsAt := handoffAt.Add(s.cfg.ProtectionWindow)
	days := int(s.cfg.ProtectionWindow / (24 * time.Hour))
	updates["protection_ends_at"] = endsAt
	updates["protection_days"] = days
	if order.PayoutHoldReason == enums.HoldReasonNone {
		updates["payout_hold_reason"] = enums.HoldReasonProtectionWindow
	}
}

func requireSeller(order *models.Order, actor orders.ActorInput) error {
	if actor.Role == enums.RoleAdmin || actor.Role == enums.RoleSystem {
		return nil
	}
	if order.SellerID != actor.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the seller of record may perform this action")
	}
	return nil
}

func requireParty(order *models.Order, actor orders.ActorInput) error {
	if actor.Role == enums.RoleAdmin || actor.Role == enums.RoleSystem {
		return nil
	}
	if order.SellerID != actor.UserID && order.BuyerID != actor.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer or seller of record may perform this action")
	}
	return nil
}

func requireBuyer(order *models.Order, actor orders.ActorInput) error {
	if actor.Role == enums.RoleAdmin || actor.Role == enums.RoleSystem {
		return nil
	}
	if order.BuyerID != actor.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer of record may perform this action")
	}
	return nil
}

func requirePaid(order *models.Order) error {
	if order.PaidAt == nil {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order is not paid yet")
	}
	if order.Status.IsTerminal() {
		return pkgerrors.InvalidTransition(string(order.Status))
	}
	return nil
}

func generatePickupCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
