package email

import (
	"context"

	"go.uber.org/zap"
)

// Provider delivers HTML email. SendTemplate renders one of the embedded
// templates by name (without the .html suffix).
type Provider interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string) error
	SendTemplate(ctx context.Context, to []string, subject string, templateName string, data any) error
}

// NoOpProvider drops every message. It is installed when SMTP is disabled.
type NoOpProvider struct {
	log *zap.Logger
}

func NewNoOp(log *zap.Logger) *NoOpProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &NoOpProvider{log: log}
}

func (p *NoOpProvider) Send(_ context.Context, to []string, subject string, _ string) error {
	p.logger().Debug("email delivery disabled, message dropped",
		zap.Int("recipients", len(to)),
		zap.String("subject", subject),
	)
	return nil
}

func (p *NoOpProvider) SendTemplate(ctx context.Context, to []string, subject string, _ string, _ any) error {
	return p.Send(ctx, to, subject, "")
}

func (p *NoOpProvider) logger() *zap.Logger {
	if p == nil || p.log == nil {
		return zap.NewNop()
	}
	return p.log
}
