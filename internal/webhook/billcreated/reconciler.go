// Package billcreated reconciles Vindi bill_created events with the orders of
// the bill's subscription.
package billcreated

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/smallbiznis/vindisync/internal/clock"
	"github.com/smallbiznis/vindisync/internal/lock"
	lockdomain "github.com/smallbiznis/vindisync/internal/lock/domain"
	obsmetrics "github.com/smallbiznis/vindisync/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/vindisync/internal/order/domain"
	queuedomain "github.com/smallbiznis/vindisync/internal/queue/domain"
	"github.com/smallbiznis/vindisync/internal/webhook/domain"
	"github.com/smallbiznis/vindisync/pkg/log/ctxlogger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Locks    *lock.Manager
	Orders   orderdomain.Repository
	Queue    queuedomain.Service
	Notifier domain.Notifier              `optional:"true"`
	Metrics  *obsmetrics.ReconcileMetrics `optional:"true"`
}

type Reconciler struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	locks    *lock.Manager
	orders   orderdomain.Repository
	queue    queuedomain.Service
	notifier domain.Notifier
	metrics  *obsmetrics.ReconcileMetrics
}

func New(p Params) *Reconciler {
	return &Reconciler{
		db:       p.DB,
		log:      p.Log.Named("webhook.bill_created"),
		clock:    p.Clock,
		locks:    p.Locks,
		orders:   p.Orders,
		queue:    p.Queue,
		notifier: p.Notifier,
		metrics:  p.Metrics,
	}
}

// Handle decides, under the subscription lock, whether the bill is attached
// to the subscription's open order, deferred until sibling orders settle, or
// queued for order creation. Bills without a subscription are single sales
// and are left alone.
func (r *Reconciler) Handle(ctx context.Context, data json.RawMessage) (domain.Result, error) {
	log := ctxlogger.WithContext(ctx, r.log)

	bill, err := parseBill(data)
	if err != nil {
		r.metrics.IncOutcome(obsmetrics.OutcomeMalformed)
		log.Error("error while interpreting webhook bill_created", zap.Error(err))
		return domain.Result{}, domain.ErrMalformedEvent
	}
	billID := string(bill.ID)

	if bill.Subscription == nil || bill.Subscription.ID == "" {
		r.metrics.IncOutcome(obsmetrics.OutcomeSingleSale)
		log.Info("ignoring bill_created for single sale", zap.String("vindi_bill_id", billID))
		return domain.Result{Outcome: domain.OutcomeSingleSale, BillID: billID}, nil
	}
	subscriptionID := string(bill.Subscription.ID)

	var (
		result   domain.Result
		attached *orderdomain.Order
	)
	err = r.locks.WithLock(ctx, subscriptionID, func(ctx context.Context) error {
		start := time.Now()
		defer func() { r.metrics.ObserveDuration(time.Since(start)) }()

		var err error
		result, attached, err = r.reconcile(ctx, subscriptionID, billID, data)
		return err
	})
	if err != nil {
		if errors.Is(err, lockdomain.ErrLockTimeout) {
			r.metrics.IncOutcome(obsmetrics.OutcomeLockTimeout)
		} else {
			r.metrics.IncOutcome(obsmetrics.OutcomeError)
		}
		return domain.Result{SubscriptionID: subscriptionID, BillID: billID}, err
	}
	r.metrics.IncOutcome(string(result.Outcome))

	// Sent after the lock is released; delivery problems never undo the attach.
	if attached != nil && r.notifier != nil {
		if err := r.notifier.PaymentInstructionsAvailable(ctx, attached); err != nil {
			log.Warn("payment instructions notification failed",
				zap.String("order_id", attached.ID.String()),
				zap.Error(err),
			)
		}
	}
	return result, nil
}

func (r *Reconciler) reconcile(ctx context.Context, subscriptionID, billID string, data json.RawMessage) (domain.Result, *orderdomain.Order, error) {
	log := ctxlogger.WithContext(ctx, r.log).With(zap.String("vindi_bill_id", billID))
	result := domain.Result{SubscriptionID: subscriptionID, BillID: billID}

	orders, err := r.orders.ListBySubscription(ctx, r.db, subscriptionID)
	if err != nil {
		return result, nil, err
	}

	for _, o := range orders {
		if o.VindiBillID != nil && *o.VindiBillID == billID {
			log.Info("bill already attached", zap.String("order_id", o.ID.String()))
			result.Outcome = domain.OutcomeDuplicate
			result.OrderID = &o.ID
			return result, nil, nil
		}
	}

	// The order linked to the subscription is its most recent one.
	if len(orders) > 0 && orders[0].AwaitingBill() {
		target := orders[0]
		if others := countAwaiting(orders[1:]); others > 0 {
			log.Warn("multiple orders awaiting a bill for subscription, attaching the newest",
				zap.String("order_id", target.ID.String()),
				zap.Int("other_candidates", others),
			)
		}

		now := r.clock.Now()
		if err := r.orders.AttachBill(ctx, r.db, target.ID, billID, now); err != nil {
			return result, nil, err
		}
		target.CanCreateNewOrder = false
		target.VindiBillID = &billID
		target.BillAttachedAt = &now

		log.Info("vindi bill id set for the order", zap.String("order_id", target.ID.String()))
		result.Outcome = domain.OutcomeAttached
		result.OrderID = &target.ID
		return result, target, nil
	}

	pending, err := r.orders.ListAttachable(ctx, r.db, subscriptionID)
	if err != nil {
		return result, nil, err
	}
	if len(pending) > 0 {
		// Nothing attaches to an order behind a settled one, so every later
		// bill for the subscription defers until it is fixed by hand.
		staleIDs := make([]string, 0, len(pending))
		for _, o := range pending {
			staleIDs = append(staleIDs, o.ID.String())
		}
		fields := []zap.Field{
			zap.Strings("stale_order_ids", staleIDs),
			zap.Int("orders_awaiting_bill", len(pending)),
		}
		if len(orders) > 0 {
			fields = append(fields, zap.String("settled_order_id", orders[0].ID.String()))
		}
		log.Warn("not all orders for subscription have vindi_bill_id set", fields...)
		result.Outcome = domain.OutcomeDeferred
		return result, nil, nil
	}

	entry, err := r.queue.Enqueue(ctx, queuedomain.EnqueueRequest{
		SubscriptionID: subscriptionID,
		BillID:         billID,
		Payload:        data,
	})
	if err != nil {
		if errors.Is(err, queuedomain.ErrDuplicateEntry) {
			log.Info("bill already queued for order creation")
			result.Outcome = domain.OutcomeDuplicate
			return result, nil, nil
		}
		return result, nil, err
	}
	result.Outcome = domain.OutcomeQueued
	result.QueueEntryID = &entry.ID
	return result, nil, nil
}

func countAwaiting(orders []*orderdomain.Order) int {
	n := 0
	for _, o := range orders {
		if o.AwaitingBill() {
			n++
		}
	}
	return n
}

func parseBill(data json.RawMessage) (*domain.Bill, error) {
	if len(data) == 0 {
		return nil, errors.New("empty event data")
	}
	var payload domain.BillCreatedData
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.Bill == nil {
		return nil, errors.New("bill missing")
	}
	if payload.Bill.ID == "" {
		return nil, errors.New("bill id missing")
	}
	return payload.Bill, nil
}
