package custody

import (
	"testing"
	"time"

	"github.com/stockyardhq/stockyard-backend/pkg/db/models"
	"github.com/stockyardhq/stockyard-backend/pkg/enums"
	"github.com/stockyardhq/stockyard-backend/pkg/types"
)

func txStatus(s enums.TransactionStatus) *enums.TransactionStatus {
	return &s
}

func TestEffectiveStatusPrefersCanonicalField(t *testing.T) {
	order := &models.Order{
		Status:            enums.OrderStatusPaid,
		TransactionStatus: txStatus(enums.TxStatusOutForDelivery),
	}
	if got := EffectiveStatus(order); got != enums.TxStatusOutForDelivery {
		t.Fatalf("expected OUT_FOR_DELIVERY, got %s", got)
	}
}

func TestEffectiveStatusCollapsesReadyToReleaseAlias(t *testing.T) {
	alias, err := enums.ParseTransactionStatus("READY_TO_RELEASE")
	if err != nil {
		t.Fatalf("alias should parse: %v", err)
	}
	order := &models.Order{
		Status:            enums.OrderStatusReadyToRelease,
		TransactionStatus: &alias,
	}
	if got := EffectiveStatus(order); got != enums.TxStatusDeliveredPendingConfirmation {
		t.Fatalf("expected alias to collapse to DELIVERED_PENDING_CONFIRMATION, got %s", got)
	}
}

func TestEffectiveStatusDerivesFromLegacyStatus(t *testing.T) {
	now := time.Now()
	window := types.TimeWindow{Start: now, End: now.Add(time.Hour)}

	tests := []struct {
		name  string
		order *models.Order
		want  enums.TransactionStatus
	}{
		{
			name:  "paid seller transport no fulfillment",
			order: &models.Order{Status: enums.OrderStatusPaid, TransportOption: enums.TransportSeller},
			want:  enums.TxStatusFulfillmentRequired,
		},
		{
			name: "paid seller transport windows proposed",
			order: &models.Order{
				Status:          enums.OrderStatusPaidHeld,
				TransportOption: enums.TransportSeller,
				Delivery:        &types.DeliveryDetails{Windows: []types.TimeWindow{window}},
			},
			want: enums.TxStatusDeliveryProposed,
		},
		{
			name: "paid seller transport window agreed",
			order: &models.Order{
				Status:          enums.OrderStatusPaid,
				TransportOption: enums.TransportSeller,
				Delivery:        &types.DeliveryDetails{Windows: []types.TimeWindow{window}, AgreedWindow: &window},
			},
			want: enums.TxStatusDeliveryScheduled,
		},
		{
			name:  "in transit seller transport",
			order: &models.Order{Status: enums.OrderStatusInTransit, TransportOption: enums.TransportSeller},
			want:  enums.TxStatusOutForDelivery,
		},
		{
			name: "paid buyer transport pickup ready",
			order: &models.Order{
				Status:          enums.OrderStatusPaid,
				TransportOption: enums.TransportBuyer,
				Pickup:          &types.PickupDetails{ReadyAt: &now, Windows: []types.TimeWindow{window}},
			},
			want: enums.TxStatusReadyForPickup,
		},
		{
			name: "paid buyer transport window selected",
			order: &models.Order{
				Status:          enums.OrderStatusPaid,
				TransportOption: enums.TransportBuyer,
				Pickup:          &types.PickupDetails{ReadyAt: &now, SelectedWindow: &window},
			},
			want: enums.TxStatusPickupProposed,
		},
		{
			name: "paid buyer transport picked up",
			order: &models.Order{
				Status:          enums.OrderStatusPaid,
				TransportOption: enums.TransportBuyer,
				Pickup:          &types.PickupDetails{PickedUpAt: &now},
			},
			want: enums.TxStatusPickedUp,
		},
		{
			name:  "delivered legacy",
			order: &models.Order{Status: enums.OrderStatusDelivered, TransportOption: enums.TransportSeller},
			want:  enums.TxStatusDeliveredPendingConfirmation,
		},
		{
			name:  "buyer confirmed legacy",
			order: &models.Order{Status: enums.OrderStatusBuyerConfirmed, TransportOption: enums.TransportSeller},
			want:  enums.TxStatusDeliveredPendingConfirmation,
		},
		{
			name:  "disputed legacy",
			order: &models.Order{Status: enums.OrderStatusDisputed, TransportOption: enums.TransportSeller},
			want:  enums.TxStatusDisputeOpened,
		},
		{
			name:  "completed legacy",
			order: &models.Order{Status: enums.OrderStatusCompleted, TransportOption: enums.TransportSeller},
			want:  enums.TxStatusCompleted,
		},
		{
			name:  "pending awaits fulfillment",
			order: &models.Order{Status: enums.OrderStatusPending, TransportOption: enums.TransportSeller},
			want:  enums.TxStatusFulfillmentRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveStatus(tt.order); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestEffectiveStatusStableAcrossCalls(t *testing.T) {
	now := time.Now()
	order := &models.Order{
		Status:          enums.OrderStatusPaid,
		TransportOption: enums.TransportBuyer,
		Pickup:          &types.PickupDetails{ReadyAt: &now},
	}
	first := EffectiveStatus(order)
	for i := 0; i < 5; i++ {
		if got := EffectiveStatus(order); got != first {
			t.Fatalf("call %d returned %s, first call returned %s", i, got, first)
		}
	}
}
