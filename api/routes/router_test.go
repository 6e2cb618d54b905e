package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stockyardhq/stockyard-backend/internal/disputes"
	"github.com/stockyardhq/stockyard-backend/internal/fulfillment"
	"github.com/stockyardhq/stockyard-backend/internal/notifications"
	"github.com/stockyardhq/stockyard-backend/internal/orders"
	"github.com/stockyardhq/stockyard-backend/internal/payouts"
	"github.com/stockyardhq/stockyard-backend/pkg/auth"
	"github.com/stockyardhq/stockyard-backend/pkg/config"
	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
	"github.com/stockyardhq/stockyard-backend/pkg/enums"
	"github.com/stockyardhq/stockyard-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubOrdersService struct {
	listCalls int
	getCalls  int
}

func (s *stubOrdersService) Create(context.Context, orders.CreateOrderInput) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

func (s *stubOrdersService) Get(context.Context, uuid.UUID, auth.Actor) (*orders.OrderDetail, error) {
	s.getCalls++
	return &orders.OrderDetail{}, nil
}

func (s *stubOrdersService) List(context.Context, auth.Actor, pagination.Params, orders.OrderFilters) (*orders.OrderList, error) {
	s.listCalls++
	return &orders.OrderList{}, nil
}

func (s *stubOrdersService) ConfirmPayment(context.Context, orders.ConfirmPaymentInput) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

func (s *stubOrdersService) ConfirmReceipt(context.Context, orders.ConfirmReceiptInput) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

func (s *stubOrdersService) Cancel(context.Context, orders.CancelOrderInput) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

func (s *stubOrdersService) SweepAbandoned(context.Context, orders.SweepInput) (*orders.SweepResult, error) {
	return &orders.SweepResult{}, nil
}

type stubPayoutsService struct {
	queueCalls int
}

func (s *stubPayoutsService) Release(context.Context, payouts.ReleaseInput) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

func (s *stubPayoutsService) BulkRelease(context.Context, payouts.BulkReleaseInput) (*payouts.BulkResult, error) {
	return &payouts.BulkResult{}, nil
}

func (s *stubPayoutsService) SetHold(context.Context, payouts.HoldInput) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

func (s *stubPayoutsService) ClearHold(context.Context, payouts.HoldInput) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

func (s *stubPayoutsService) BulkSetHold(context.Context, payouts.BulkHoldInput) (*payouts.BulkResult, error) {
	return &payouts.BulkResult{}, nil
}

func (s *stubPayoutsService) BulkClearHold(context.Context, payouts.BulkHoldInput) (*payouts.BulkResult, error) {
	return &payouts.BulkResult{}, nil
}

func (s *stubPayoutsService) SetPayoutApproval(context.Context, payouts.ApprovalInput) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

func (s *stubPayoutsService) ClearPayoutApproval(context.Context, payouts.ApprovalInput) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

func (s *stubPayoutsService) ForceMarkPaid(context.Context, payouts.ForceMarkPaidInput) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

func (s *stubPayoutsService) Queue(context.Context, payouts.QueueFilters) ([]payouts.QueueEntry, error) {
	s.queueCalls++
	return nil, nil
}

type stubDisputesService struct{}

func (stubDisputesService) Open(context.Context, disputes.OpenInput) (*disputes.DisputeDetail, error) {
	return &disputes.DisputeDetail{}, nil
}

func (stubDisputesService) SubmitEvidence(context.Context, disputes.SubmitEvidenceInput) (*disputes.DisputeDetail, error) {
	return &disputes.DisputeDetail{}, nil
}

func (stubDisputesService) RequestEvidence(context.Context, disputes.RequestEvidenceInput) (*disputes.DisputeDetail, error) {
	return &disputes.DisputeDetail{}, nil
}

func (stubDisputesService) Resolve(context.Context, disputes.ResolveInput) (*disputes.DisputeDetail, error) {
	return &disputes.DisputeDetail{}, nil
}

func (stubDisputesService) Cancel(context.Context, disputes.CancelInput) (*disputes.DisputeDetail, error) {
	return &disputes.DisputeDetail{}, nil
}

func (stubDisputesService) Get(context.Context, uuid.UUID, orders.ActorInput) (*disputes.DisputeDetail, error) {
	return &disputes.DisputeDetail{}, nil
}

type stubFulfillmentService struct{}

func (stubFulfillmentService) ProposeDelivery(context.Context, fulfillment.ProposeDeliveryInput) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

func (stubFulfillmentService) AgreeDeliveryWindow(context.Context, fulfillment.AgreeDeliveryWindowInput) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

func (stubFulfillmentService) StartTracking(context.Context, fulfillment.StartTrackingInput) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

func (stubFulfillmentService) MarkDelivered(context.Context, fulfillment.MarkDeliveredInput) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

func (stubFulfillmentService) SetPickupInfo(context.Context, fulfillment.SetPickupInfoInput) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

func (stubFulfillmentService) SelectPickupWindow(context.Context, fulfillment.SelectPickupWindowInput) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

func (stubFulfillmentService) SchedulePickup(context.Context, fulfillment.SchedulePickupInput) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

func (stubFulfillmentService) ConfirmPickup(context.Context, fulfillment.ConfirmPickupInput) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(context.Context, notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{Items: []models.Notification{}}, nil
}

func (stubNotificationsService) MarkRead(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "router-test-secret", Issuer: "stockyard", ExpirationMinutes: 60},
	}
}

func testRouter(t *testing.T) (http.Handler, *stubOrdersService, *stubPayoutsService) {
	t.Helper()
	ordersSvc := &stubOrdersService{}
	payoutsSvc := &stubPayoutsService{}
	handler := NewRouter(Deps{
		Config:        testConfig(),
		DBPinger:      stubPinger{},
		Orders:        ordersSvc,
		Fulfillment:   stubFulfillmentService{},
		Disputes:      stubDisputesService{},
		Payouts:       payoutsSvc,
		Notifications: stubNotificationsService{},
	})
	return handler, ordersSvc, payoutsSvc
}

func mintToken(t *testing.T, role enums.ActorRole) string {
	t.Helper()
	cfg := testConfig()
	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	handler, _, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestOrdersRequireAuth(t *testing.T) {
	handler, ordersSvc, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if ordersSvc.listCalls != 0 {
		t.Fatal("service should not be reached without a token")
	}
}

func TestOrdersListWithToken(t *testing.T) {
	handler, ordersSvc, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleBuyer))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if ordersSvc.listCalls != 1 {
		t.Fatalf("expected one list call, got %d", ordersSvc.listCalls)
	}
}

func TestAdminRoutesRejectNonAdmins(t *testing.T) {
	handler, _, payoutsSvc := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/payouts/queue", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleSeller))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
	if payoutsSvc.queueCalls != 0 {
		t.Fatal("queue should not run for non-admins")
	}
}

func TestAdminQueueWithAdminToken(t *testing.T) {
	handler, _, payoutsSvc := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/payouts/queue", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleAdmin))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if payoutsSvc.queueCalls != 1 {
		t.Fatalf("expected one queue call, got %d", payoutsSvc.queueCalls)
	}
}
