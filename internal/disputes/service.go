package disputes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/stockyardhq/stockyard-backend/internal/orders"
	"github.com/stockyardhq/stockyard-backend/internal/payments"
	"github.com/stockyardhq/stockyard-backend/internal/timeline"
	"github.com/stockyardhq/stockyard-backend/pkg/custody"
	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
	"github.com/stockyardhq/stockyard-backend/pkg/enums"
	pkgerrors "github.com/stockyardhq/stockyard-backend/pkg/errors"
	"github.com/stockyardhq/stockyard-backend/pkg/logger"
	"github.com/stockyardhq/stockyard-backend/pkg/outbox"
	"github.com/stockyardhq/stockyard-backend/pkg/outbox/payloads"
)

// maxEvidenceURLs caps the accumulated evidence list per dispute.
const maxEvidenceURLs = 20

// Config holds the dispute lifecycle tunables.
type Config struct {
	EvidenceWindow time.Duration
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns the protection-window dispute lifecycle.
type Service interface {
	Open(ctx context.Context, input OpenInput) (*DisputeDetail, error)
	SubmitEvidence(ctx context.Context, input SubmitEvidenceInput) (*DisputeDetail, error)
	RequestEvidence(ctx context.Context, input RequestEvidenceInput) (*DisputeDetail, error)
	Resolve(ctx context.Context, input ResolveInput) (*DisputeDetail, error)
	Cancel(ctx context.Context, input CancelInput) (*DisputeDetail, error)
	Get(ctx context.Context, orderID uuid.UUID, actor orders.ActorInput) (*DisputeDetail, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	stripe   payments.StripePaymentClient
	outbox   outboxPublisher
	recorder timeline.Recorder
	notifier orders.Notifier
	logg     *logger.Logger
	cfg      Config
	now      func() time.Time
}

// NewService builds the dispute service.
func NewService(repo Repository, tx txRunner, stripeClient payments.StripePaymentClient, ob outboxPublisher, recorder timeline.Recorder, notifier orders.Notifier, logg *logger.Logger, cfg Config) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("disputes repository required")
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
	if cfg.EvidenceWindow <= 0 {
		cfg.EvidenceWindow = 72 * time.Hour
	}
	return &service{
		repo:     repo,
		tx:       tx,
		stripe:   stripeClient,
		outbox:   ob,
		recorder: recorder,
		notifier: notifier,
		logg:     logg,
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

func (s *service) Open(ctx context.Context, input OpenInput) (*DisputeDetail, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a reason is required to open a dispute")
	}

	var (
		created  *models.Dispute
		sellerID uuid.UUID
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.lockOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		sellerID = order.SellerID

		if !isAdmin(input.Actor) && order.BuyerID != input.Actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer of record may open a dispute")
		}
		if order.TransferID != nil && *order.TransferID != "" {
			return pkgerrors.New(pkgerrors.CodeConflict, "funds were already released to the seller; contact support instead")
		}
		if order.Status == enums.OrderStatusCancelled || order.Status == enums.OrderStatusRefunded || order.Status == enums.OrderStatusCompleted {
			return pkgerrors.InvalidTransition(string(order.Status))
		}
		if order.DisputeStatus.IsOpenLike() {
			return pkgerrors.New(pkgerrors.CodeConflict, "a dispute is already open on this order")
		}
		if !order.DeliveryMarked() {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "disputes open only after delivery or pickup is confirmed")
		}

		now := s.now()
		// Buyers dispute inside the protection window; admins may open one
		// later on the buyer's behalf, up until release.
		if !isAdmin(input.Actor) {
			if order.ProtectionEndsAt == nil || !now.Before(*order.ProtectionEndsAt) {
				return pkgerrors.New(pkgerrors.CodeConflict, "the protection window has closed; contact support to escalate")
			}
		}

		dueAt := now.Add(s.cfg.EvidenceWindow)
		dispute := &models.Dispute{
			ID:            uuid.New(),
			OrderID:       order.ID,
			Status:        enums.DisputeStatusOpen,
			OpenedBy:      input.Actor.UserID,
			Reason:        input.Reason,
			EvidenceURLs:  input.EvidenceURLs,
			EvidenceDueAt: &dueAt,
			CreatedAt:     now,
		}
		if err := repo.CreateDispute(ctx, dispute); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create dispute")
		}

		disputed := *order
		disputed.DisputeStatus = enums.DisputeStatusOpen
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"dispute_status":     enums.DisputeStatusOpen,
			"dispute_opened_at":  now,
			"status":             enums.OrderStatusDisputed,
			"transaction_status": enums.TxStatusDisputeOpened,
			"payout_hold_reason": custody.RecomputeHoldReason(&disputed, now),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag order as disputed")
		}

		if err := s.recorder.Append(ctx, tx, timeline.Entry{
			OrderID:   order.ID,
			EventType: enums.TimelineDisputeOpened,
			ActorRole: input.Actor.Role,
			ActorID:   actorID(input.Actor),
			Message:   fmt.Sprintf("Dispute opened: %s", input.Reason),
			EventID:   disputeEventID(dispute.ID, enums.TimelineDisputeOpened),
		}); err != nil {
			return err
		}

		created = dispute
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDisputeOpened,
			AggregateType: enums.AggregateDispute,
			AggregateID:   dispute.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.Actor.UserID, Role: string(input.Actor.Role)},
			Data: payloads.DisputeOpenedEvent{
				OrderID:   order.ID,
				DisputeID: dispute.ID,
				OpenedBy:  input.Actor.UserID,
				Reason:    input.Reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, sellerID, input.OrderID, "Dispute opened",
		"The buyer opened a dispute; payout is on hold until it is resolved")
	return Detail(created), nil
}

func (s *service) SubmitEvidence(ctx context.Context, input SubmitEvidenceInput) (*DisputeDetail, error) {
	if len(input.EvidenceURLs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one evidence url is required")
	}

	var result *models.Dispute
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.lockOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if !isAdmin(input.Actor) && order.BuyerID != input.Actor.UserID && order.SellerID != input.Actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only dispute participants may submit evidence")
		}

		dispute, err := s.lockOpenDispute(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}

		merged := append(append([]string{}, dispute.EvidenceURLs...), input.EvidenceURLs...)
		if len(merged) > maxEvidenceURLs {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("a dispute holds at most %d evidence urls", maxEvidenceURLs))
		}

		updates := map[string]any{"evidence_urls": merged}
		if strings.TrimSpace(input.Notes) != "" {
			updates["evidence_notes"] = input.Notes
			notes := input.Notes
			dispute.EvidenceNotes = &notes
		}
		// Fresh evidence moves a stalled dispute back in front of a reviewer.
		if dispute.Status == enums.DisputeStatusNeedsEvidence {
			updates["status"] = enums.DisputeStatusUnderReview
			dispute.Status = enums.DisputeStatusUnderReview
		}
		dispute.EvidenceURLs = merged

		if err := repo.UpdateDispute(ctx, dispute.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store evidence")
		}
		if dispute.Status == enums.DisputeStatusUnderReview {
			if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"dispute_status": dispute.Status}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sync order dispute status")
			}
		}

		result = dispute
		return s.recorder.Append(ctx, tx, timeline.Entry{
			OrderID:   order.ID,
			EventType: enums.TimelineDisputeEvidence,
			ActorRole: input.Actor.Role,
			ActorID:   actorID(input.Actor),
			Message:   fmt.Sprintf("%d evidence item(s) submitted", len(input.EvidenceURLs)),
			Metadata:  map[string]any{"count": len(input.EvidenceURLs)},
			EventID:   repeatedEventID(order.ID, enums.TimelineDisputeEvidence, s.now()),
		})
	})
	if err != nil {
		return nil, err
	}
	return Detail(result), nil
}

func (s *service) RequestEvidence(ctx context.Context, input RequestEvidenceInput) (*DisputeDetail, error) {
	if err := requireAdmin(input.Actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Note) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a note telling the parties what to provide is required")
	}

	var result *models.Dispute
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.lockOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		dispute, err := s.lockOpenDispute(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if dispute.Status == enums.DisputeStatusNeedsEvidence {
			result = dispute
			return nil
		}

		now := s.now()
		dueAt := now.Add(s.cfg.EvidenceWindow)
		note := input.Note
		if err := repo.UpdateDispute(ctx, dispute.ID, map[string]any{
			"status":          enums.DisputeStatusNeedsEvidence,
			"evidence_due_at": dueAt,
			"evidence_notes":  note,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "request evidence")
		}
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"dispute_status": enums.DisputeStatusNeedsEvidence}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sync order dispute status")
		}
		dispute.Status = enums.DisputeStatusNeedsEvidence
		dispute.EvidenceDueAt = &dueAt
		dispute.EvidenceNotes = &note

		result = dispute
		return s.recorder.Append(ctx, tx, timeline.Entry{
			OrderID:   order.ID,
			EventType: enums.TimelineDisputeEvidence,
			ActorRole: input.Actor.Role,
			ActorID:   actorID(input.Actor),
			Message:   fmt.Sprintf("Admin requested more evidence: %s", input.Note),
			Metadata:  map[string]any{"requested": true},
			EventID:   repeatedEventID(order.ID, enums.TimelineDisputeEvidence, now),
		})
	})
	if err != nil {
		return nil, err
	}
	return Detail(result), nil
}

func (s *service) Resolve(ctx context.Context, input ResolveInput) (*DisputeDetail, error) {
	if err := requireAdmin(input.Actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Note) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a resolution note is required")
	}

	var (
		result   *models.Dispute
		buyerID  uuid.UUID
		sellerID uuid.UUID
		outcome  string
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.lockOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		buyerID = order.BuyerID
		sellerID = order.SellerID

		dispute, err := s.lockOpenDispute(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}

		now := s.now()
		var (
			terminal     enums.DisputeStatus
			refundAmount decimal.Decimal
			sellerKept   decimal.Decimal
			orderUpdates map[string]any
			refundID     string
		)

		switch input.Resolution {
		case ResolutionRelease:
			terminal = enums.DisputeStatusResolvedRelease
			sellerKept = order.SellerAmount
			resolved := *order
			resolved.DisputeStatus = terminal
			orderUpdates = map[string]any{
				"dispute_status":     terminal,
				"status":             enums.OrderStatusDelivered,
				"transaction_status": enums.TxStatusDeliveredPendingConfirmation,
				"payout_hold_reason": custody.RecomputeHoldReason(&resolved, now),
			}
			outcome = "resolved in the seller's favor"

		case ResolutionRefund:
			terminal = enums.DisputeStatusResolvedRefund
			refundAmount = order.GrossAmount
			sellerKept = decimal.Zero
			refundID, err = s.issueRefund(ctx, dispute.ID, order, nil)
			if err != nil {
				return err
			}
			orderUpdates = map[string]any{
				"dispute_status": terminal,
				"status":         enums.OrderStatusRefunded,
				"refund_id":      refundID,
				"refunded_at":    now,
			}
			outcome = "resolved with a full refund to the buyer"

		case ResolutionPartialRefund:
			if input.RefundAmount == nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "refund amount is required for a partial refund")
			}
			refundAmount = *input.RefundAmount
			if refundAmount.LessThanOrEqual(decimal.Zero) || refundAmount.GreaterThanOrEqual(order.GrossAmount) {
				return pkgerrors.New(pkgerrors.CodeValidation, "partial refund must be between zero and the order total")
			}
			sellerKept = order.SellerAmount.Sub(refundAmount)
			if sellerKept.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation, "refund exceeds the amount held for the seller")
			}
			terminal = enums.DisputeStatusResolvedPartialRefund
			refundID, err = s.issueRefund(ctx, dispute.ID, order, &refundAmount)
			if err != nil {
				return err
			}
			// The refunded slice comes out of gross and seller together
			// so gross_amount = platform_fee + seller_amount keeps
			// holding, and the later transfer pays only the remainder.
			// The dispute consumed the inspection window, so the order
			// goes straight to release-eligible; review holds survive.
			resolved := *order
			resolved.DisputeStatus = terminal
			resolved.ProtectionEndsAt = nil
			orderUpdates = map[string]any{
				"dispute_status":     terminal,
				"status":             enums.OrderStatusReadyToRelease,
				"transaction_status": enums.TxStatusDeliveredPendingConfirmation,
				"gross_amount":       order.GrossAmount.Sub(refundAmount),
				"seller_amount":      sellerKept,
				"payout_hold_reason": custody.RecomputeHoldReason(&resolved, now),
				"refund_id":          refundID,
				"refunded_at":        now,
			}
			outcome = fmt.Sprintf("resolved with a partial refund of %s %s", refundAmount.StringFixed(2), order.Currency)

		default:
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown resolution %q", input.Resolution))
		}

		note := input.Note
		resolvedBy := input.Actor.UserID
		if err := repo.UpdateDispute(ctx, dispute.ID, map[string]any{
			"status":             terminal,
			"resolved_by":        resolvedBy,
			"resolution_note":    note,
			"refund_amount":      refundAmount,
			"seller_amount_kept": sellerKept,
			"resolved_at":        now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist resolution")
		}
		if err := repo.UpdateOrder(ctx, order.ID, orderUpdates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply resolution to order")
		}

		dispute.Status = terminal
		dispute.ResolvedBy = &resolvedBy
		dispute.ResolutionNote = &note
		dispute.RefundAmount = &refundAmount
		dispute.SellerAmountKept = &sellerKept
		dispute.ResolvedAt = &now

		if err := s.recorder.Append(ctx, tx, timeline.Entry{
			OrderID:   order.ID,
			EventType: enums.TimelineDisputeResolved,
			ActorRole: input.Actor.Role,
			ActorID:   actorID(input.Actor),
			Message:   fmt.Sprintf("Dispute %s: %s", outcome, input.Note),
			EventID:   disputeEventID(dispute.ID, enums.TimelineDisputeResolved),
		}); err != nil {
			return err
		}

		if refundID != "" {
			if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventRefundIssued,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Version:       1,
				Actor:         &outbox.ActorRef{UserID: input.Actor.UserID, Role: string(input.Actor.Role)},
				Data: payloads.RefundIssuedEvent{
					OrderID:      order.ID,
					RefundID:     refundID,
					RefundAmount: refundAmount,
					Partial:      terminal == enums.DisputeStatusResolvedPartialRefund,
					RefundedAt:   now,
				},
			}); err != nil {
				return err
			}
		}

		result = dispute
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDisputeResolved,
			AggregateType: enums.AggregateDispute,
			AggregateID:   dispute.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.Actor.UserID, Role: string(input.Actor.Role)},
			Data: payloads.DisputeResolvedEvent{
				OrderID:    order.ID,
				DisputeID:  dispute.ID,
				Resolution: terminal,
				ResolvedBy: input.Actor.UserID,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, buyerID, input.OrderID, "Dispute resolved", fmt.Sprintf("Your dispute was %s", outcome))
	s.notify(ctx, sellerID, input.OrderID, "Dispute resolved", fmt.Sprintf("The dispute on your order was %s", outcome))
	return Detail(result), nil
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*DisputeDetail, error) {
	var result *models.Dispute
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.lockOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		dispute, err := s.lockOpenDispute(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if !isAdmin(input.Actor) && dispute.OpenedBy != input.Actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the party who opened the dispute may withdraw it")
		}

		if err := repo.UpdateDispute(ctx, dispute.ID, map[string]any{
			"status": enums.DisputeStatusCancelled,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel dispute")
		}
		withdrawn := *order
		withdrawn.DisputeStatus = enums.DisputeStatusCancelled
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"dispute_status":     enums.DisputeStatusCancelled,
			"status":             enums.OrderStatusDelivered,
			"transaction_status": enums.TxStatusDeliveredPendingConfirmation,
			"payout_hold_reason": custody.RecomputeHoldReason(&withdrawn, s.now()),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore order after dispute")
		}
		dispute.Status = enums.DisputeStatusCancelled

		result = dispute
		return s.recorder.Append(ctx, tx, timeline.Entry{
			OrderID:   order.ID,
			EventType: enums.TimelineDisputeCancelled,
			ActorRole: input.Actor.Role,
			ActorID:   actorID(input.Actor),
			Message:   "Dispute withdrawn",
			EventID:   disputeEventID(dispute.ID, enums.TimelineDisputeCancelled),
		})
	})
	if err != nil {
		return nil, err
	}
	return Detail(result), nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor orders.ActorInput) (*DisputeDetail, error) {
	order, err := s.repo.FindOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !isAdmin(actor) && order.BuyerID != actor.UserID && order.SellerID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a participant in this order")
	}

	dispute, err := s.repo.FindLatestDispute(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no dispute on this order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dispute")
	}
	return Detail(dispute), nil
}

// issueRefund moves money back to the buyer through the captured payment.
// A nil amount refunds the full charge.
func (s *service) issueRefund(ctx context.Context, disputeID uuid.UUID, order *models.Order, amount *decimal.Decimal) (string, error) {
	if s.stripe == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "payment processor is not configured")
	}
	if order.PaymentIntentID == nil || *order.PaymentIntentID == "" {
		return "", pkgerrors.New(pkgerrors.CodeConflict, "order has no captured payment to refund")
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(*order.PaymentIntentID),
	}
	if amount != nil {
		params.Amount = stripe.Int64(payments.AmountToCents(*amount))
	}
	params.AddMetadata("order_id", order.ID.String())
	params.AddMetadata("dispute_id", disputeID.String())
	params.SetIdempotencyKey("dispute-refund-" + disputeID.String())

	ref, err := s.stripe.CreateRefund(ctx, params)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund")
	}
	return ref.ID, nil
}

func (s *service) lockOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) lockOpenDispute(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Dispute, error) {
	dispute, err := repo.FindOpenDisputeForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "no open dispute on this order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dispute")
	}
	return dispute, nil
}

func (s *service) notify(ctx context.Context, userID, orderID uuid.UUID, title, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Dispatch(ctx, payloads.NotificationRequestedEvent{
		UserID:  userID,
		OrderID: orderID,
		Type:    enums.NotificationTypeDispute,
		Title:   title,
		Message: message,
	})
}

func isAdmin(actor orders.ActorInput) bool {
	return actor.Role == enums.RoleAdmin || actor.Role == enums.RoleSystem
}

func requireAdmin(actor orders.ActorInput) error {
	if isAdmin(actor) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
}

func actorID(actor orders.ActorInput) *uuid.UUID {
	if actor.UserID == uuid.Nil {
		return nil
	}
	id := actor.UserID
	return &id
}

// disputeEventID keys one-shot timeline entries to the dispute row, so a
// second dispute on the same order still records its own lifecycle.
func disputeEventID(disputeID uuid.UUID, eventType enums.TimelineEventType) string {
	return fmt.Sprintf("%s:%s", disputeID, eventType)
}

func repeatedEventID(orderID uuid.UUID, eventType enums.TimelineEventType, at time.Time) string {
	return fmt.Sprintf("%s:%s:%d", orderID, eventType, at.UnixNano())
}
