package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/vindisync/internal/clock"
	obsmetrics "github.com/smallbiznis/vindisync/internal/observability/metrics"
	"github.com/smallbiznis/vindisync/internal/queue/domain"
	"github.com/smallbiznis/vindisync/pkg/db"
	"github.com/smallbiznis/vindisync/pkg/log/ctxlogger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("queue.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

// Enqueue appends a pending entry holding the payload verbatim. A bill can
// be queued once; a second attempt returns ErrDuplicateEntry.
func (s *Service) Enqueue(ctx context.Context, req domain.EnqueueRequest) (*domain.Entry, error) {
	if len(req.Payload) == 0 || !json.Valid(req.Payload) {
		return nil, domain.ErrInvalidPayload
	}
	subscriptionID := strings.TrimSpace(req.SubscriptionID)
	billID := strings.TrimSpace(req.BillID)
	if subscriptionID == "" || billID == "" {
		return nil, domain.ErrInvalidPayload
	}

	now := s.clock.Now()
	entry := &domain.Entry{
		ID:             s.genID.Generate(),
		BillData:       datatypes.JSON(append([]byte(nil), req.Payload...)),
		Status:         domain.StatusPending,
		SubscriptionID: subscriptionID,
		BillID:         billID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Insert(ctx, s.db, entry); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateEntry
		}
		return nil, err
	}

	s.metrics.RecordQueueEntry(ctx)
	ctxlogger.WithContext(ctx, s.log).Info("order creation queued",
		zap.String("queue_entry_id", entry.ID.String()),
		zap.String("vindi_bill_id", entry.BillID),
	)
	return entry, nil
}
