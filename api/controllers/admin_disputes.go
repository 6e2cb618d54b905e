package controllers

import (
	"net/http"

	"github.com/stockyardhq/stockyard-backend/api/responses"
	"github.com/stockyardhq/stockyard-backend/api/validators"
	"github.com/stockyardhq/stockyard-backend/internal/disputes"
	"github.com/stockyardhq/stockyard-backend/pkg/logger"
)

// AdminResolveDispute closes a dispute with a release, refund or partial
// refund decision.
func AdminResolveDispute(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
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

		var input disputes.ResolveInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.OrderID = orderID
		input.Actor = actorInput(actor)

		detail, err := svc.Resolve(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// AdminRequestDisputeEvidence asks a party for more material and restarts
// the evidence clock.
func AdminRequestDisputeEvidence(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
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

		var input disputes.RequestEvidenceInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.OrderID = orderID
		input.Actor = actorInput(actor)

		detail, err := svc.RequestEvidence(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}
