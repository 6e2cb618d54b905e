package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockyardhq/stockyard-backend/api/controllers"
	webhookcontrollers "github.com/stockyardhq/stockyard-backend/api/controllers/webhooks"
	"github.com/stockyardhq/stockyard-backend/api/middleware"
	"github.com/stockyardhq/stockyard-backend/internal/disputes"
	"github.com/stockyardhq/stockyard-backend/internal/fulfillment"
	"github.com/stockyardhq/stockyard-backend/internal/notifications"
	"github.com/stockyardhq/stockyard-backend/internal/orders"
	"github.com/stockyardhq/stockyard-backend/internal/payouts"
	"github.com/stockyardhq/stockyard-backend/internal/timeline"
	stripewebhook "github.com/stockyardhq/stockyard-backend/internal/webhooks/stripe"
	"github.com/stockyardhq/stockyard-backend/pkg/config"
	"github.com/stockyardhq/stockyard-backend/pkg/db"
	"github.com/stockyardhq/stockyard-backend/pkg/logger"
	"github.com/stockyardhq/stockyard-backend/pkg/redis"
	"github.com/stockyardhq/stockyard-backend/pkg/stripe"
)

// Deps bundles everything the router wires into handlers. cmd/api builds
// one of these at startup.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DBPinger db.Pinger
	Redis    *redis.Client

	Orders        orders.Service
	Fulfillment   fulfillment.Service
	Disputes      disputes.Service
	Payouts       payouts.Service
	Notifications notifications.Service
	Timeline      timeline.Recorder

	StripeClient       *stripe.Client
	StripeWebhookSvc   *stripewebhook.Service
	StripeWebhookGuard *stripewebhook.IdempotencyGuard
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DBPinger, d.Redis))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(d.StripeWebhookSvc, d.StripeClient, d.StripeWebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(d.Redis, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(d.Orders, logg))
			r.Get("/", controllers.ListOrders(d.Orders, logg))
			r.Get("/{orderID}", controllers.OrderDetail(d.Orders, logg))
			r.Get("/{orderID}/timeline", controllers.OrderTimeline(d.Orders, d.Timeline, logg))
			r.Post("/{orderID}/confirm-payment", controllers.ConfirmPayment(d.Orders, logg))
			r.Post("/{orderID}/confirm-receipt", controllers.ConfirmReceipt(d.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.CancelOrder(d.Orders, logg))

			r.Route("/{orderID}/fulfillment", func(r chi.Router) {
				r.Post("/delivery/propose", controllers.ProposeDelivery(d.Fulfillment, logg))
				r.Post("/delivery/agree", controllers.AgreeDeliveryWindow(d.Fulfillment, logg))
				r.Post("/tracking", controllers.StartTracking(d.Fulfillment, logg))
				r.Post("/delivered", controllers.MarkDelivered(d.Fulfillment, logg))
				r.Post("/pickup/info", controllers.SetPickupInfo(d.Fulfillment, logg))
				r.Post("/pickup/window", controllers.SelectPickupWindow(d.Fulfillment, logg))
				r.Post("/pickup/schedule", controllers.SchedulePickup(d.Fulfillment, logg))
				r.Post("/pickup/confirm", controllers.ConfirmPickup(d.Fulfillment, logg))
			})

			r.Route("/{orderID}/dispute", func(r chi.Router) {
				r.Post("/", controllers.OpenDispute(d.Disputes, logg))
				r.Get("/", controllers.DisputeDetail(d.Disputes, logg))
				r.Post("/evidence", controllers.SubmitDisputeEvidence(d.Disputes, logg))
				r.Post("/cancel", controllers.CancelDispute(d.Disputes, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(d.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(d.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(d.Notifications, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))

			r.Route("/orders/{orderID}", func(r chi.Router) {
				r.Post("/release", controllers.AdminReleasePayout(d.Payouts, logg))
				r.Post("/hold", controllers.AdminSetHold(d.Payouts, logg))
				r.Post("/unhold", controllers.AdminClearHold(d.Payouts, logg))
				r.Post("/approve", controllers.AdminSetPayoutApproval(d.Payouts, logg))
				r.Post("/unapprove", controllers.AdminClearPayoutApproval(d.Payouts, logg))
				r.Post("/force-paid", controllers.AdminForceMarkPaid(d.Payouts, logg))
				r.Post("/dispute/resolve", controllers.AdminResolveDispute(d.Disputes, logg))
				r.Post("/dispute/request-evidence", controllers.AdminRequestDisputeEvidence(d.Disputes, logg))
			})

			r.Route("/payouts", func(r chi.Router) {
				r.Get("/queue", controllers.AdminPayoutQueue(d.Payouts, logg))
				r.Post("/release", controllers.AdminBulkReleasePayouts(d.Payouts, logg))
				r.Post("/hold", controllers.AdminBulkSetHold(d.Payouts, logg))
				r.Post("/unhold", controllers.AdminBulkClearHold(d.Payouts, logg))
			})

			r.Post("/sweeps/abandoned-checkouts", controllers.AdminSweepAbandoned(d.Orders, logg))
		})
	})

	return r
}
