package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"strings"

	"github.com/smallbiznis/vindisync/internal/config"
	obsmetrics "github.com/smallbiznis/vindisync/internal/observability/metrics"
	"github.com/smallbiznis/vindisync/internal/webhook/billcreated"
	"github.com/smallbiznis/vindisync/internal/webhook/domain"
	"github.com/smallbiznis/vindisync/pkg/log/ctxlogger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config      config.Config
	Events      *config.WebhookConfigHolder
	Log         *zap.Logger
	BillCreated *billcreated.Reconciler
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	key      string
	events   *config.WebhookConfigHolder
	log      *zap.Logger
	handlers map[string]domain.Handler
	metrics  *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		key:    strings.TrimSpace(p.Config.Webhook.Key),
		events: p.Events,
		log:    p.Log.Named("webhook.service"),
		handlers: map[string]domain.Handler{
			domain.EventBillCreated: p.BillCreated,
		},
		metrics: p.Metrics,
	}
}

// Ingest authenticates a Vindi webhook delivery and routes it by event type.
// Event types that are not accepted by configuration, or that have no
// handler, are acknowledged as ignored so Vindi stops retrying them.
func (s *Service) Ingest(ctx context.Context, key string, payload []byte) (domain.Result, error) {
	if s.key != "" && subtle.ConstantTimeCompare([]byte(strings.TrimSpace(key)), []byte(s.key)) != 1 {
		return domain.Result{}, domain.ErrUnauthorized
	}

	log := ctxlogger.WithContext(ctx, s.log)

	var envelope domain.Envelope
	if !json.Valid(payload) || json.Unmarshal(payload, &envelope) != nil {
		log.Error("webhook payload is not a vindi event")
		s.metrics.RecordWebhookEvent(ctx, "", obsmetrics.OutcomeMalformed)
		return domain.Result{}, domain.ErrMalformedEvent
	}
	eventType := strings.TrimSpace(envelope.Event.Type)
	if eventType == "" {
		log.Error("webhook event type missing")
		s.metrics.RecordWebhookEvent(ctx, "", obsmetrics.OutcomeMalformed)
		return domain.Result{}, domain.ErrMalformedEvent
	}
	log = log.With(zap.String("event_type", eventType))

	if !s.events.Accepts(eventType) {
		log.Info("webhook event ignored")
		s.metrics.RecordWebhookEvent(ctx, eventType, string(domain.OutcomeIgnored))
		return domain.Result{Outcome: domain.OutcomeIgnored, EventType: eventType}, nil
	}
	if eventType == domain.EventTest {
		log.Info("webhook test event received")
		s.metrics.RecordWebhookEvent(ctx, eventType, string(domain.OutcomeAcknowledged))
		return domain.Result{Outcome: domain.OutcomeAcknowledged, EventType: eventType}, nil
	}

	handler, ok := s.handlers[eventType]
	if !ok {
		log.Info("no handler for webhook event")
		s.metrics.RecordWebhookEvent(ctx, eventType, string(domain.OutcomeIgnored))
		return domain.Result{Outcome: domain.OutcomeIgnored, EventType: eventType}, nil
	}

	result, err := handler.Handle(ctx, envelope.Event.Data)
	result.EventType = eventType
	outcome := string(result.Outcome)
	if err != nil {
		outcome = obsmetrics.OutcomeError
	}
	s.metrics.RecordWebhookEvent(ctx, eventType, outcome)
	return result, err
}
