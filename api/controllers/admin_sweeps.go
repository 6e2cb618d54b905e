package controllers

import (
	"net/http"

	"github.com/stockyardhq/stockyard-backend/api/responses"
	"github.com/stockyardhq/stockyard-backend/api/validators"
	"github.com/stockyardhq/stockyard-backend/internal/orders"
	"github.com/stockyardhq/stockyard-backend/pkg/logger"
)

type sweepBody struct {
	BatchSize int  `json:"batch_size,omitempty" validate:"omitempty,min=1,max=1000"`
	DryRun    bool `json:"dry_run,omitempty"`
	Force     bool `json:"force,omitempty"`
}

// AdminSweepAbandoned runs one bounded abandoned-checkout sweep on demand,
// the same pass the scheduler runs on its own clock.
func AdminSweepAbandoned(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body sweepBody
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SweepAbandoned(r.Context(), orders.SweepInput{
			BatchSize: body.BatchSize,
			DryRun:    body.DryRun,
			Force:     body.Force,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
