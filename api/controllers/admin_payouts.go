package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/stockyardhq/stockyard-backend/api/responses"
	"github.com/stockyardhq/stockyard-backend/api/validators"
	"github.com/stockyardhq/stockyard-backend/internal/payouts"
	pkgerrors "github.com/stockyardhq/stockyard-backend/pkg/errors"
	"github.com/stockyardhq/stockyard-backend/pkg/logger"
)

// AdminPayoutQueue lists release candidates with their eligibility verdicts.
func AdminPayoutQueue(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filters payouts.QueueFilters

		if raw := strings.TrimSpace(r.URL.Query().Get("eligible_only")); raw != "" {
			value, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid eligible_only value"))
				return
			}
			filters.EligibleOnly = value
		}
		limit, err := validators.ParseQueryInt(r, "limit", 100, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.Limit = limit

		entries, err := svc.Queue(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"queue": entries})
	}
}

type releaseBody struct {
	Note string `json:"note,omitempty" validate:"max=2000"`
}

// AdminReleasePayout releases custody funds for one order.
func AdminReleasePayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body releaseBody
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Release(r.Context(), payouts.ReleaseInput{
			OrderID: orderID,
			Note:    validators.SanitizeString(body.Note, 2000),
			Actor:   actorInput(actor),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// AdminBulkReleasePayouts releases a batch, each order succeeding or failing
// on its own.
func AdminBulkReleasePayouts(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input payouts.BulkReleaseInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Actor = actorInput(actor)

		result, err := svc.BulkRelease(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeBulkResult(w, result)
	}
}

func writeBulkResult(w http.ResponseWriter, result *payouts.BulkResult) {
	if result != nil && result.Failed > 0 && result.Succeeded > 0 {
		responses.WriteSuccessStatus(w, http.StatusMultiStatus, result)
		return
	}
	responses.WriteSuccess(w, result)
}

// AdminSetHold freezes an order's payout with a required reason note.
func AdminSetHold(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return holdHandler(svc, logg, true)
}

// AdminClearHold lifts a previously set admin hold.
func AdminClearHold(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return holdHandler(svc, logg, false)
}

func holdHandler(svc payouts.Service, logg *logger.Logger, set bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input payouts.HoldInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.OrderID = orderID
		input.Actor = actorInput(actor)

		var detail any
		if set {
			detail, err = svc.SetHold(r.Context(), input)
		} else {
			detail, err = svc.ClearHold(r.Context(), input)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// AdminBulkSetHold freezes a batch of orders.
func AdminBulkSetHold(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return bulkHoldHandler(svc, logg, true)
}

// AdminBulkClearHold lifts holds on a batch of orders.
func AdminBulkClearHold(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return bulkHoldHandler(svc, logg, false)
}

func bulkHoldHandler(svc payouts.Service, logg *logger.Logger, set bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input payouts.BulkHoldInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Actor = actorInput(actor)

		var result *payouts.BulkResult
		if set {
			result, err = svc.BulkSetHold(r.Context(), input)
		} else {
			result, err = svc.BulkClearHold(r.Context(), input)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeBulkResult(w, result)
	}
}

type approvalBody struct {
	Note string `json:"note,omitempty" validate:"max=2000"`
}

// AdminSetPayoutApproval records the explicit marketplace sign-off and clears
// clearable review holds.
func AdminSetPayoutApproval(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return approvalHandler(svc, logg, true)
}

// AdminClearPayoutApproval withdraws a previously granted sign-off.
func AdminClearPayoutApproval(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return approvalHandler(svc, logg, false)
}

func approvalHandler(svc payouts.Service, logg *logger.Logger, set bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body approvalBody
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := payouts.ApprovalInput{
			OrderID: orderID,
			Note:    validators.SanitizeString(body.Note, 2000),
			Actor:   actorInput(actor),
		}

		var detail any
		if set {
			detail, err = svc.SetPayoutApproval(r.Context(), input)
		} else {
			detail, err = svc.ClearPayoutApproval(r.Context(), input)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// AdminForceMarkPaid confirms an out-of-band bank transfer or wire.
func AdminForceMarkPaid(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input payouts.ForceMarkPaidInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.OrderID = orderID
		input.Actor = actorInput(actor)

		detail, err := svc.ForceMarkPaid(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}
