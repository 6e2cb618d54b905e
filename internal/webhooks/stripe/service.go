package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/stockyardhq/stockyard-backend/internal/orders"
	"github.com/stockyardhq/stockyard-backend/internal/timeline"
	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
	"github.com/stockyardhq/stockyard-backend/pkg/enums"
	pkgerrors "github.com/stockyardhq/stockyard-backend/pkg/errors"
	"github.com/stockyardhq/stockyard-backend/pkg/logger"
	"github.com/stockyardhq/stockyard-backend/pkg/outbox"
	"github.com/stockyardhq/stockyard-backend/pkg/outbox/payloads"
)

type orderRepository interface {
	WithTx(tx *gorm.DB) orderRepository
	FindOrderByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type orderService interface {
	ConfirmPayment(ctx context.Context, input orders.ConfirmPaymentInput) (*orders.OrderDetail, error)
}

type ServiceParams struct {
	Orders            orderService
	OrderRepo         orderRepository
	TransactionRunner txRunner
	Outbox            outboxPublisher
	Recorder          timeline.Recorder
	Logger            *logger.Logger
}

// Service applies processor events to the order lifecycle. Signature checks
// and the replay guard run in the controller; by the time an event reaches
// HandleEvent it is authentic and first-seen.
type Service struct {
	orders   orderService
	repo     orderRepository
	txRunner txRunner
	outbox   outboxPublisher
	recorder timeline.Recorder
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order service required")
	}
	if params.OrderRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox publisher required")
	}
	if params.Recorder == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "timeline recorder required")
	}
	return &Service{
		orders:   params.Orders,
		repo:     params.OrderRepo,
		txRunner: params.TransactionRunner,
		outbox:   params.Outbox,
		recorder: params.Recorder,
		logg:     params.Logger,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent")
		}
		return s.handlePaymentSucceeded(ctx, &intent)

	case stripe.EventTypePaymentIntentPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent")
		}
		s.logPaymentFailure(ctx, &intent)
		return nil

	case stripe.EventTypeChargeDisputeCreated:
		var chargeback stripe.Dispute
		if err := json.Unmarshal(event.Data.Raw, &chargeback); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode dispute")
		}
		return s.setChargeback(ctx, &chargeback, true)

	case stripe.EventTypeChargeDisputeClosed:
		var chargeback stripe.Dispute
		if err := json.Unmarshal(event.Data.Raw, &chargeback); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode dispute")
		}
		// The hold lifts only when the marketplace wins.
		if chargeback.Status != stripe.DisputeStatusWon {
			return nil
		}
		return s.setChargeback(ctx, &chargeback, false)

	default:
		return nil
	}
}

func (s *Service) handlePaymentSucceeded(ctx context.Context, intent *stripe.PaymentIntent) error {
	orderID, err := orderIDFromMetadata(intent.Metadata)
	if err != nil {
		// Not every intent on the account belongs to an order.
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "payment_intent_id", intent.ID), "payment intent without order metadata, skipping")
		}
		return nil
	}

	_, err = s.orders.ConfirmPayment(ctx, orders.ConfirmPaymentInput{
		OrderID:         orderID,
		PaymentIntentID: intent.ID,
		Source:          "stripe_webhook",
		Actor:           orders.ActorInput{Role: enums.RoleSystem},
	})
	if err != nil {
		var appErr *pkgerrors.Error
		// A replayed confirmation on a paid order is success, not failure.
		if errors.As(err, &appErr) && appErr.Code() == pkgerrors.CodeAlreadyApplied {
			return nil
		}
		return err
	}
	return nil
}

func (s *Service) logPaymentFailure(ctx context.Context, intent *stripe.PaymentIntent) {
	if s.logg == nil {
		return
	}
	fields := map[string]any{"payment_intent_id": intent.ID}
	if intent.LastPaymentError != nil {
		fields["decline_reason"] = string(intent.LastPaymentError.Code)
	}
	// The order stays in its awaiting-payment state; the checkout expiry
	// sweep reclaims the reservation if the buyer never retries.
	s.logg.Warn(s.logg.WithFields(ctx, fields), "payment attempt failed")
}

func (s *Service) setChargeback(ctx context.Context, chargeback *stripe.Dispute, active bool) error {
	if chargeback.PaymentIntent == nil || chargeback.PaymentIntent.ID == "" {
		return nil
	}
	paymentIntentID := chargeback.PaymentIntent.ID

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrderByPaymentIntent(ctx, paymentIntentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if s.logg != nil {
					s.logg.Warn(s.logg.WithField(ctx, "payment_intent_id", paymentIntentID), "chargeback for unknown payment intent")
				}
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by payment intent")
		}
		if order.ChargebackActive == active {
			return nil
		}

		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"chargeback_active": active}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag chargeback")
		}

		message := "Chargeback reported on the captured payment; payout is frozen"
		if !active {
			message = "Chargeback resolved in the marketplace's favor; payout unfrozen"
		}
		if err := s.recorder.Append(ctx, tx, timeline.Entry{
			OrderID:   order.ID,
			EventType: enums.TimelineChargebackReported,
			ActorRole: enums.RoleSystem,
			Message:   message,
			Metadata:  map[string]any{"stripe_dispute_id": chargeback.ID, "active": active},
			EventID:   chargebackEventID(order.ID, chargeback.ID, active),
		}); err != nil {
			return err
		}

		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventChargebackReported,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.ChargebackReportedEvent{
				OrderID:         order.ID,
				PaymentIntentID: paymentIntentID,
				StripeDisputeID: chargeback.ID,
				Active:          active,
			},
		})
	})
}

func orderIDFromMetadata(metadata map[string]string) (uuid.UUID, error) {
	raw, ok := metadata["order_id"]
	if !ok || raw == "" {
		return uuid.Nil, errors.New("order_id missing from metadata")
	}
	return uuid.Parse(raw)
}

func chargebackEventID(orderID uuid.UUID, stripeDisputeID string, active bool) string {
	state := "opened"
	if !active {
		state = "closed"
	}
	return orderID.String() + ":chargeback:" + stripeDisputeID + ":" + state
}
