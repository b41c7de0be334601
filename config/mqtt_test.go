package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestMQTTOptions(t *testing.T) {
	cfg := &Config{MQTT: MQTTConfig{
		Broker:               "tcp://broker:1883",
		ClientID:             "courier-tracking-1",
		Username:             "svc",
		Password:             "secret",
		MaxReconnectInterval: 15 * time.Second,
	}}

	opts := mqttOptions(cfg, zerolog.Nop())

	if opts.ClientID != "courier-tracking-1" || len(opts.Servers) != 1 || opts.Servers[0].Host != "broker:1883" {
		t.Errorf("unexpected identity %s %v", opts.ClientID, opts.Servers)
	}
	if opts.CleanSession || !opts.ResumeSubs {
		t.Error("expected a persistent session with resumed subscriptions")
	}
	if !opts.AutoReconnect || !opts.ConnectRetry {
		t.Error("expected automatic reconnects")
	}
	if opts.MaxReconnectInterval != 15*time.Second {
		t.Errorf("unexpected max reconnect interval %s", opts.MaxReconnectInterval)
	}
	if opts.Username != "svc" || opts.Password != "secret" {
		t.Error("expected credentials to be set")
	}
	if opts.OnConnectionLost == nil || opts.OnReconnecting == nil || opts.OnConnect == nil {
		t.Error("expected connection handlers")
	}
}
