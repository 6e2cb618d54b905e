package payouts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"go.uber.org/multierr"
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
	"github.com/stockyardhq/stockyard-backend/pkg/types"
)

// bulkWorkers caps concurrent releases inside one bulk request.
const bulkWorkers = 4

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns custody release and the admin override surface.
type Service interface {
	Release(ctx context.Context, input ReleaseInput) (*orders.OrderDetail, error)
	BulkRelease(ctx context.Context, input BulkReleaseInput) (*BulkResult, error)
	SetHold(ctx context.Context, input HoldInput) (*orders.OrderDetail, error)
	ClearHold(ctx context.Context, input HoldInput) (*orders.OrderDetail, error)
	BulkSetHold(ctx context.Context, input BulkHoldInput) (*BulkResult, error)
	BulkClearHold(ctx context.Context, input BulkHoldInput) (*BulkResult, error)
	SetPayoutApproval(ctx context.Context, input ApprovalInput) (*orders.OrderDetail, error)
	ClearPayoutApproval(ctx context.Context, input ApprovalInput) (*orders.OrderDetail, error)
	ForceMarkPaid(ctx context.Context, input ForceMarkPaidInput) (*orders.OrderDetail, error)
	Queue(ctx context.Context, filters QueueFilters) ([]QueueEntry, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	stripe   payments.StripePaymentClient
	outbox   outboxPublisher
	recorder timeline.Recorder
	notifier orders.Notifier
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the payout service.
func NewService(repo Repository, tx txRunner, stripeClient payments.StripePaymentClient, ob outboxPublisher, recorder timeline.Recorder, notifier orders.Notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payouts repository required")
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
	return &service{
		repo:     repo,
		tx:       tx,
		stripe:   stripeClient,
		outbox:   ob,
		recorder: recorder,
		notifier: notifier,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Release(ctx context.Context, input ReleaseInput) (*orders.OrderDetail, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if err := requireAdmin(input.Actor); err != nil {
		return nil, err
	}
	if s.stripe == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment processor is not configured")
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

		// A transfer id means the money already moved; the retry succeeds
		// without touching the processor again.
		if order.TransferID != nil && *order.TransferID != "" {
			result = order
			return nil
		}

		now := s.now()
		decision := custody.Evaluate(order, now)
		if !decision.Eligible {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("order is not releasable: %s", decision.Explanation)).
				WithDetails(map[string]any{
					"block_reason":        string(decision.Reason),
					"earliest_release_at": decision.EarliestReleaseAt,
				})
		}

		account, err := repo.FindSellerAccount(ctx, order.SellerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "seller has no payout account on file")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller payout account")
		}
		if !account.PayoutsEnabled {
			return pkgerrors.New(pkgerrors.CodeValidation, "seller payout account is not enabled yet")
		}

		params := &stripe.TransferParams{
			Amount:        stripe.Int64(payments.AmountToCents(order.SellerAmount)),
			Currency:      stripe.String(strings.ToLower(string(order.Currency))),
			Destination:   stripe.String(account.StripeAccountID),
			TransferGroup: stripe.String(order.ID.String()),
		}
		params.AddMetadata("order_id", order.ID.String())
		// The per-order idempotency key makes a crashed attempt safe to
		// retry; Stripe returns the original transfer instead of paying twice.
		params.SetIdempotencyKey("payout-" + order.ID.String())

		tr, err := s.stripe.CreateTransfer(ctx, params)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transfer")
		}

		updates := map[string]any{
			"transfer_id":        tr.ID,
			"released_at":        now,
			"completed_at":       now,
			"status":             enums.OrderStatusCompleted,
			"transaction_status": enums.TxStatusCompleted,
			"payout_hold_reason": enums.HoldReasonNone,
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist release")
		}

		transferID := tr.ID
		completed := enums.TxStatusCompleted
		order.TransferID = &transferID
		order.ReleasedAt = &now
		order.CompletedAt = &now
		order.Status = enums.OrderStatusCompleted
		order.TransactionStatus = &completed
		order.PayoutHoldReason = enums.HoldReasonNone

		if err := s.recorder.Append(ctx, tx, timeline.Entry{
			OrderID:   order.ID,
			EventType: enums.TimelinePayoutReleased,
			ActorRole: input.Actor.Role,
			ActorID:   actorID(input.Actor),
			Message:   fmt.Sprintf("Payout of %s %s released to seller", order.SellerAmount.StringFixed(2), order.Currency),
			Metadata:  map[string]any{"transfer_id": tr.ID},
		}); err != nil {
			return err
		}

		result = order
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutReleased,
			AggregateType: enums.AggregatePayout,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.Actor.UserID, Role: string(input.Actor.Role)},
			Data: payloads.PayoutReleasedEvent{
				OrderID:      order.ID,
				SellerID:     order.SellerID,
				TransferID:   tr.ID,
				SellerAmount: order.SellerAmount,
				ReleasedAt:   now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, result.SellerID, result.ID, enums.NotificationTypePayout, "Payout released",
		fmt.Sprintf("Your payout for order #%d is on the way", result.OrderNumber))
	return orders.Detail(result, custody.Evaluate(result, s.now())), nil
}

func (s *service) BulkRelease(ctx context.Context, input BulkReleaseInput) (*BulkResult, error) {
	if err := requireAdmin(input.Actor); err != nil {
		return nil, err
	}
	return s.runBulk(ctx, input.OrderIDs, func(ctx context.Context, orderID uuid.UUID) (string, error) {
		detail, err := s.Release(ctx, ReleaseInput{OrderID: orderID, Note: input.Note, Actor: input.Actor})
		if err != nil {
			return "", err
		}
		if detail.TransferID != nil {
			return *detail.TransferID, nil
		}
		return "", nil
	})
}

func (s *service) SetHold(ctx context.Context, input HoldInput) (*orders.OrderDetail, error) {
	return s.adminUpdate(ctx, input.OrderID, input.Actor, func(order *models.Order, now time.Time) (map[string]any, *timeline.Entry, *outbox.DomainEvent, error) {
		if strings.TrimSpace(input.Note) == "" {
			return nil, nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "a note is required when placing a hold")
		}
		if order.AdminHold {
			return nil, nil, nil, nil
		}
		notes := appendNote(order.AdminActionNotes, input.Actor, input.Note, now)
		order.AdminHold = true
		order.AdminActionNotes = notes
		order.PayoutHoldReason = custody.RecomputeHoldReason(order, now)
		updates := map[string]any{
			"admin_hold":         true,
			"admin_action_notes": notes,
			"admin_reviewed_at":  now,
			"payout_hold_reason": order.PayoutHoldReason,
		}
		entry := &timeline.Entry{
			OrderID:   order.ID,
			EventType: enums.TimelineAdminHoldSet,
			ActorRole: input.Actor.Role,
			ActorID:   actorID(input.Actor),
			Message:   fmt.Sprintf("Admin placed a payout hold: %s", input.Note),
			EventID:   repeatedEventID(order.ID, enums.TimelineAdminHoldSet, now),
		}
		event := holdChangedEvent(enums.EventPayoutHoldSet, order, true, input.Actor)
		return updates, entry, event, nil
	})
}

func (s *service) ClearHold(ctx context.Context, input HoldInput) (*orders.OrderDetail, error) {
	return s.adminUpdate(ctx, input.OrderID, input.Actor, func(order *models.Order, now time.Time) (map[string]any, *timeline.Entry, *outbox.DomainEvent, error) {
		if !order.AdminHold {
			return nil, nil, nil, nil
		}
		notes := appendNote(order.AdminActionNotes, input.Actor, input.Note, now)
		order.AdminHold = false
		order.AdminActionNotes = notes
		order.PayoutHoldReason = custody.RecomputeHoldReason(order, now)
		updates := map[string]any{
			"admin_hold":         false,
			"admin_action_notes": notes,
			"admin_reviewed_at":  now,
			"payout_hold_reason": order.PayoutHoldReason,
		}
		entry := &timeline.Entry{
			OrderID:   order.ID,
			EventType: enums.TimelineAdminHoldCleared,
			ActorRole: input.Actor.Role,
			ActorID:   actorID(input.Actor),
			Message:   "Admin cleared the payout hold",
			EventID:   repeatedEventID(order.ID, enums.TimelineAdminHoldCleared, now),
		}
		event := holdChangedEvent(enums.EventPayoutHoldCleared, order, false, input.Actor)
		return updates, entry, event, nil
	})
}

func (s *service) BulkSetHold(ctx context.Context, input BulkHoldInput) (*BulkResult, error) {
	if err := requireAdmin(input.Actor); err != nil {
		return nil, err
	}
	return s.runBulk(ctx, input.OrderIDs, func(ctx context.Context, orderID uuid.UUID) (string, error) {
		_, err := s.SetHold(ctx, HoldInput{OrderID: orderID, Note: input.Note, Actor: input.Actor})
		return "", err
	})
}

func (s *service) BulkClearHold(ctx context.Context, input BulkHoldInput) (*BulkResult, error) {
	if err := requireAdmin(input.Actor); err != nil {
		return nil, err
	}
	return s.runBulk(ctx, input.OrderIDs, func(ctx context.Context, orderID uuid.UUID) (string, error) {
		_, err := s.ClearHold(ctx, HoldInput{OrderID: orderID, Note: input.Note, Actor: input.Actor})
		return "", err
	})
}

func (s *service) SetPayoutApproval(ctx context.Context, input ApprovalInput) (*orders.OrderDetail, error) {
	return s.adminUpdate(ctx, input.OrderID, input.Actor, func(order *models.Order, now time.Time) (map[string]any, *timeline.Entry, *outbox.DomainEvent, error) {
		if order.AdminPayoutApproval != nil && *order.AdminPayoutApproval {
			return nil, nil, nil, nil
		}
		notes := order.AdminActionNotes
		if strings.TrimSpace(input.Note) != "" {
			notes = appendNote(notes, input.Actor, input.Note, now)
		}
		updates := map[string]any{
			"admin_payout_approval": true,
			"admin_action_notes":    notes,
			"admin_reviewed_at":     now,
		}
		approved := true
		order.AdminPayoutApproval = &approved
		order.AdminActionNotes = notes
		// Approval clears the marketplace's own review holds; regulatory
		// holds stay until resolved out of band.
		if order.PayoutHoldReason.IsMarketplaceClearable() {
			updates["payout_hold_reason"] = enums.HoldReasonNone
			order.PayoutHoldReason = enums.HoldReasonNone
		}
		entry := &timeline.Entry{
			OrderID:   order.ID,
			EventType: enums.TimelinePayoutApprovalSet,
			ActorRole: input.Actor.Role,
			ActorID:   actorID(input.Actor),
			Message:   "Admin approved this payout",
			EventID:   repeatedEventID(order.ID, enums.TimelinePayoutApprovalSet, now),
		}
		return updates, entry, nil, nil
	})
}

func (s *service) ClearPayoutApproval(ctx context.Context, input ApprovalInput) (*orders.OrderDetail, error) {
	return s.adminUpdate(ctx, input.OrderID, input.Actor, func(order *models.Order, now time.Time) (map[string]any, *timeline.Entry, *outbox.DomainEvent, error) {
		if order.AdminPayoutApproval == nil || !*order.AdminPayoutApproval {
			return nil, nil, nil, nil
		}
		notes := order.AdminActionNotes
		if strings.TrimSpace(input.Note) != "" {
			notes = appendNote(notes, input.Actor, input.Note, now)
		}
		updates := map[string]any{
			"admin_payout_approval": false,
			"admin_action_notes":    notes,
			"admin_reviewed_at":     now,
		}
		cleared := false
		order.AdminPayoutApproval = &cleared
		order.AdminActionNotes = notes
		entry := &timeline.Entry{
			OrderID:   order.ID,
			EventType: enums.TimelinePayoutApprovalCleared,
			ActorRole: input.Actor.Role,
			ActorID:   actorID(input.Actor),
			Message:   "Admin withdrew payout approval",
			EventID:   repeatedEventID(order.ID, enums.TimelinePayoutApprovalCleared, now),
		}
		return updates, entry, nil, nil
	})
}

func (s *service) ForceMarkPaid(ctx context.Context, input ForceMarkPaidInput) (*orders.OrderDetail, error) {
	if strings.TrimSpace(input.Note) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a note is required when force-confirming payment")
	}
	return s.adminUpdate(ctx, input.OrderID, input.Actor, func(order *models.Order, now time.Time) (map[string]any, *timeline.Entry, *outbox.DomainEvent, error) {
		if order.PaidAt != nil {
			return nil, nil, nil, nil
		}
		if order.Status != enums.OrderStatusAwaitingBankTransfer && order.Status != enums.OrderStatusAwaitingWire {
			return nil, nil, nil, pkgerrors.InvalidTransition(string(order.Status),
				string(enums.OrderStatusAwaitingBankTransfer), string(enums.OrderStatusAwaitingWire))
		}

		notes := appendNote(order.AdminActionNotes, input.Actor, input.Note, now)
		updates := map[string]any{
			"status":             enums.OrderStatusPaidHeld,
			"transaction_status": enums.TxStatusFulfillmentRequired,
			"paid_at":            now,
			"admin_action_notes": notes,
			"admin_reviewed_at":  now,
		}
		txStatus := enums.TxStatusFulfillmentRequired
		order.Status = enums.OrderStatusPaidHeld
		order.TransactionStatus = &txStatus
		order.PaidAt = &now
		order.AdminActionNotes = notes

		metadata := map[string]any{}
		if input.Reference != "" {
			metadata["reference"] = input.Reference
		}
		entry := &timeline.Entry{
			OrderID:   order.ID,
			EventType: enums.TimelinePaymentForceConfirmed,
			ActorRole: input.Actor.Role,
			ActorID:   actorID(input.Actor),
			Message:   "Admin confirmed out-of-band payment receipt",
			Metadata:  metadata,
		}
		event := &outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.Actor.UserID, Role: string(input.Actor.Role)},
			Data: payloads.OrderPaidEvent{
				OrderID:     order.ID,
				BuyerID:     order.BuyerID,
				SellerID:    order.SellerID,
				GrossAmount: order.GrossAmount,
				PaidAt:      now,
			},
		}
		return updates, entry, event, nil
	})
}

func (s *service) Queue(ctx context.Context, filters QueueFilters) ([]QueueEntry, error) {
	rows, err := s.repo.FindReleaseCandidates(ctx, filters.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout queue candidates")
	}

	now := s.now()
	entries := make([]QueueEntry, 0, len(rows))
	for i := range rows {
		order := rows[i]
		decision := custody.Evaluate(&order, now)
		if filters.EligibleOnly && !decision.Eligible {
			continue
		}
		entries = append(entries, QueueEntry{
			OrderID:          order.ID,
			OrderNumber:      order.OrderNumber,
			SellerID:         order.SellerID,
			SellerAmount:     order.SellerAmount,
			EffectiveStatus:  custody.EffectiveStatus(&order),
			PayoutHoldReason: order.PayoutHoldReason,
			AdminHold:        order.AdminHold,
			Eligible:         decision.Eligible,
			BlockReason:      string(decision.Reason),
			Explanation:      decision.Explanation,
			EarliestRelease:  decision.EarliestReleaseAt,
			PaidAt:           order.PaidAt,
			DeliveredAt:      order.DeliveredAt,
		})
	}
	return entries, nil
}

// adminUpdate wraps the shared lock/mutate/record/emit shape of the override
// operations. A nil updates map from fn means the change was already applied.
func (s *service) adminUpdate(ctx context.Context, orderID uuid.UUID, actor orders.ActorInput, fn func(order *models.Order, now time.Time) (map[string]any, *timeline.Entry, *outbox.DomainEvent, error)) (*orders.OrderDetail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		updates, entry, event, err := fn(order, s.now())
		if err != nil {
			return err
		}
		result = order
		if updates == nil {
			return nil
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply admin update")
		}
		if entry != nil {
			if err := s.recorder.Append(ctx, tx, *entry); err != nil {
				return err
			}
		}
		if event != nil {
			if err := s.outbox.Emit(ctx, tx, *event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders.Detail(result, custody.Evaluate(result, s.now())), nil
}

// runBulk fans orderIDs over a small worker pool; each item runs in its own
// transaction and fails on its own.
func (s *service) runBulk(ctx context.Context, orderIDs []uuid.UUID, fn func(ctx context.Context, orderID uuid.UUID) (string, error)) (*BulkResult, error) {
	if len(orderIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one order id is required")
	}

	type indexed struct {
		idx int
		id  uuid.UUID
	}
	jobs := make(chan indexed)
	items := make([]BulkItemResult, len(orderIDs))

	var wg sync.WaitGroup
	workers := bulkWorkers
	if len(orderIDs) < workers {
		workers = len(orderIDs)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				transferID, err := fn(ctx, job.id)
				item := BulkItemResult{OrderID: job.id, Succeeded: err == nil, TransferID: transferID}
				if err != nil {
					item.Error = err.Error()
				}
				items[job.idx] = item
			}
		}()
	}
	for i, id := range orderIDs {
		jobs <- indexed{idx: i, id: id}
	}
	close(jobs)
	wg.Wait()

	result := &BulkResult{Requested: len(orderIDs), Items: items}
	var errs error
	for _, item := range items {
		if item.Succeeded {
			result.Succeeded++
		} else {
			result.Failed++
			errs = multierr.Append(errs, fmt.Errorf("order %s: %s", item.OrderID, item.Error))
		}
	}
	if errs != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "failed", result.Failed), fmt.Sprintf("bulk payout operation finished with failures: %v", errs))
	}
	return result, nil
}

func (s *service) notify(ctx context.Context, userID, orderID uuid.UUID, notifType enums.NotificationType, title, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Dispatch(ctx, payloads.NotificationRequestedEvent{
		UserID:  userID,
		OrderID: orderID,
		Type:    notifType,
		Title:   title,
		Message: message,
	})
}

func requireAdmin(actor orders.ActorInput) error {
	if actor.Role == enums.RoleAdmin || actor.Role == enums.RoleSystem {
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

func appendNote(notes types.AdminNotes, actor orders.ActorInput, note string, at time.Time) types.AdminNotes {
	if strings.TrimSpace(note) == "" {
		return notes
	}
	return append(notes, types.AdminNote{
		AuthorID:  actor.UserID.String(),
		Note:      note,
		CreatedAt: at,
	})
}

// repeatedEventID keys timeline entries for events that can legitimately
// recur on one order, unlike the deterministic per-type default.
func repeatedEventID(orderID uuid.UUID, eventType enums.TimelineEventType, at time.Time) string {
	return fmt.Sprintf("%s:%s:%d", orderID, eventType, at.UnixNano())
}

func holdChangedEvent(eventType enums.OutboxEventType, order *models.Order, held bool, actor orders.ActorInput) *outbox.DomainEvent {
	return &outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePayout,
		AggregateID:   order.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
		Data: payloads.PayoutHoldChangedEvent{
			OrderID:    order.ID,
			Held:       held,
			HoldReason: order.PayoutHoldReason,
			AdminID:    actor.UserID,
		},
	}
}
