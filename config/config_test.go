package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TAX_RATE", "")
	t.Setenv("CARD_PAYMENT_DELAY", "")
	t.Setenv("STATE_BACKEND", "")
	t.Setenv("KAFKA_ORDERS_TOPIC", "")
	t.Setenv("KAFKA_GROUP_ID", "")
	t.Setenv("STATE_TTL", "")
	t.Setenv("SESSION_IDLE_TIMEOUT", "")

	settings := Load()

	assert.Equal(t, "redis", settings.StateBackend)
	assert.Equal(t, 0.08, settings.TaxRate)
	assert.Equal(t, 3.99, settings.DeliveryFee)
	assert.Equal(t, 50.0, settings.FreeDeliveryThreshold)
	assert.Equal(t, 3*time.Second, settings.CardPaymentDelay)
	assert.Equal(t, 2*time.Second, settings.PayPalPaymentDelay)
	assert.Equal(t, "orders", settings.KafkaOrdersTopic)
	assert.Equal(t, "agg-svc-consumer", settings.KafkaGroupID)
	assert.Zero(t, settings.StateTTL)
	assert.Equal(t, 30*time.Minute, settings.SessionIdle)
}

func TestLoad_Overrides(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check func(*testing.T, Settings)
	}{
		{
			name:  "tax rate",
			key:   "TAX_RATE",
			value: "0.1",
			check: func(t *testing.T, s Settings) { assert.Equal(t, 0.1, s.TaxRate) },
		},
		{
			name:  "invalid tax rate falls back",
			key:   "TAX_RATE",
			value: "ten percent",
			check: func(t *testing.T, s Settings) { assert.Equal(t, 0.08, s.TaxRate) },
		},
		{
			name:  "card delay",
			key:   "CARD_PAYMENT_DELAY",
			value: "150ms",
			check: func(t *testing.T, s Settings) { assert.Equal(t, 150*time.Millisecond, s.CardPaymentDelay) },
		},
		{
			name:  "postgres backend",
			key:   "STATE_BACKEND",
			value: "postgres",
			check: func(t *testing.T, s Settings) { assert.Equal(t, "postgres", s.StateBackend) },
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Setenv(testCase.key, testCase.value)
			testCase.check(t, Load())
		})
	}
}
