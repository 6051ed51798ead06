// Package notification tells buyers that the payment instructions for a
// subscription order are ready.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/vindisync/internal/config"
	orderdomain "github.com/smallbiznis/vindisync/internal/order/domain"
	"github.com/smallbiznis/vindisync/internal/providers/email"
	"github.com/smallbiznis/vindisync/pkg/log/ctxlogger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const paymentInstructionsTemplate = "payment_instructions"

var ErrMissingRecipient = errors.New("notification_missing_recipient")

type Params struct {
	fx.In

	Provider email.Provider
	Config   config.Config
	Log      *zap.Logger
}

type Notifier struct {
	provider email.Provider
	storeURL string
	log      *zap.Logger
}

func New(p Params) *Notifier {
	return &Notifier{
		provider: p.Provider,
		storeURL: strings.TrimSpace(p.Config.Vindi.StoreBaseURL),
		log:      p.Log.Named("notification"),
	}
}

type paymentInstructionsData struct {
	CustomerName string
	IncrementID  string
	BillID       string
	StoreURL     string
}

// PaymentInstructionsAvailable emails the buyer of order.
func (n *Notifier) PaymentInstructionsAvailable(ctx context.Context, order *orderdomain.Order) error {
	to := strings.TrimSpace(order.CustomerEmail)
	if to == "" {
		to = strings.TrimSpace(order.BillingAddress.Email)
	}
	if to == "" {
		return ErrMissingRecipient
	}

	data := paymentInstructionsData{
		CustomerName: order.BillingAddress.FullName(),
		IncrementID:  order.IncrementID,
		StoreURL:     n.storeURL,
	}
	if order.VindiBillID != nil {
		data.BillID = *order.VindiBillID
	}

	subject := fmt.Sprintf("Pedido #%s: instruções de pagamento disponíveis", order.IncrementID)
	if err := n.provider.SendTemplate(ctx, []string{to}, subject, paymentInstructionsTemplate, data); err != nil {
		return err
	}
	ctxlogger.WithContext(ctx, n.log).Info("payment instructions sent", zap.String("increment_id", order.IncrementID))
	return nil
}
