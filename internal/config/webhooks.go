package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// WebhookEvents lists the Vindi event types the dispatcher accepts.
type WebhookEvents struct {
	Accepted []string `mapstructure:"accepted"`
}

func DefaultWebhookEvents() WebhookEvents {
	return WebhookEvents{
		Accepted: []string{"bill_created", "test"},
	}
}

type WebhookConfigHolder struct {
	current atomic.Value // holds WebhookEvents
}

func NewWebhookConfigHolder() (*WebhookConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("webhooks")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/vindisync")
	v.AddConfigPath(".")

	v.SetEnvPrefix("VINDISYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	watch := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		v.SetDefault("webhooks.accepted", DefaultWebhookEvents().Accepted)
		watch = false
	}

	var events WebhookEvents
	if err := v.UnmarshalKey("webhooks", &events); err != nil {
		return nil, err
	}
	if err := validateWebhookEvents(events); err != nil {
		return nil, err
	}

	holder := NewStaticWebhookConfigHolder(events)
	if !watch {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated WebhookEvents
		if err := v.UnmarshalKey("webhooks", &updated); err != nil {
			log.Printf("[webhook-config] reload failed: %v", err)
			return
		}
		if err := validateWebhookEvents(updated); err != nil {
			log.Printf("[webhook-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(normalizeWebhookEvents(updated))
		log.Printf("[webhook-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticWebhookConfigHolder returns a holder that never reloads.
func NewStaticWebhookConfigHolder(events WebhookEvents) *WebhookConfigHolder {
	holder := &WebhookConfigHolder{}
	holder.current.Store(normalizeWebhookEvents(events))
	return holder
}

func (h *WebhookConfigHolder) Get() WebhookEvents {
	return h.current.Load().(WebhookEvents)
}

// Accepts reports whether eventType is enabled. A nil holder accepts the defaults.
func (h *WebhookConfigHolder) Accepts(eventType string) bool {
	events := DefaultWebhookEvents()
	if h != nil {
		events = h.Get()
	}
	eventType = strings.ToLower(strings.TrimSpace(eventType))
	for _, accepted := range events.Accepted {
		if accepted == eventType {
			return true
		}
	}
	return false
}

func validateWebhookEvents(events WebhookEvents) error {
	if len(events.Accepted) == 0 {
		return errors.New("webhooks.accepted cannot be empty")
	}
	return nil
}

func normalizeWebhookEvents(events WebhookEvents) WebhookEvents {
	out := make([]string, 0, len(events.Accepted))
	for _, item := range events.Accepted {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return WebhookEvents{Accepted: out}
}
