package payments

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/refund"
	"github.com/stripe/stripe-go/v84/transfer"

	pkgstripe "github.com/stockyardhq/stockyard-backend/pkg/stripe"
)

// StripePaymentClient exposes the subset of Stripe operations the custody
// flows need: inspecting captured intents, paying sellers, refunding buyers.
type StripePaymentClient interface {
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	CreateTransfer(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error)
	CreateRefund(ctx context.Context, params *stripe.RefundParams) (*stripe.Refund, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the provided Stripe client so services can be tested.
func NewStripeClient(api *pkgstripe.Client) StripePaymentClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	return paymentintent.Get(id, params)
}

func (w *stripeClientWrapper) CreateTransfer(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error) {
	if params != nil {
		params.Context = ctx
	}
	return transfer.New(params)
}

func (w *stripeClientWrapper) CreateRefund(ctx context.Context, params *stripe.RefundParams) (*stripe.Refund, error) {
	if params != nil {
		params.Context = ctx
	}
	return refund.New(params)
}

// AmountToCents converts a decimal money amount to Stripe's integer cents.
func AmountToCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
