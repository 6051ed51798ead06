package email

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/smallbiznis/vindisync/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSendTemplateBuildsMessage(t *testing.T) {
	p := NewSMTP(Config{Host: "smtp.example.com", Port: 587, From: "loja@example.com"})

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	p.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		assert.Equal(t, "loja@example.com", from)
		return nil
	}

	err := p.SendTemplate(context.Background(), []string{"ana@example.com"}, "Pedido #100", "payment_instructions", map[string]any{
		"CustomerName": "Ana",
		"IncrementID":  "100",
		"BillID":       "900",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"ana@example.com"}, gotTo)
	msg := string(gotMsg)
	assert.True(t, strings.Contains(msg, "Subject: Pedido #100\r\n"))
	assert.Contains(t, msg, "#100")
	assert.Contains(t, msg, "Fatura Vindi: 900")
}

func TestSendRequiresRecipients(t *testing.T) {
	p := NewSMTP(Config{})
	assert.ErrorIs(t, p.Send(context.Background(), nil, "s", "b"), ErrNoRecipients)
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := Render("missing", nil)
	assert.Error(t, err)
}

func TestNewFromConfigDisabled(t *testing.T) {
	p, ok := NewFromConfig(config.Config{}, zap.NewNop()).(*NoOpProvider)
	require.True(t, ok)
	assert.NoError(t, p.SendTemplate(context.Background(), []string{"ana@example.com"}, "s", "payment_instructions", nil))
}

func TestNewFromConfigEnabled(t *testing.T) {
	cfg := config.Config{Email: config.EmailConfig{Enabled: true, SMTPHost: "smtp.example.com", SMTPPort: 25}}
	_, ok := NewFromConfig(cfg, zap.NewNop()).(*SMTPProvider)
	assert.True(t, ok)
}
