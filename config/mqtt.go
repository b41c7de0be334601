package config

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

const mqttConnectTimeout = 10 * time.Second

// NewMQTT connects with a persistent session so subscriptions survive a
// reconnect. Paho retries with a backoff capped at MaxReconnectInterval.
func NewMQTT(cfg *Config, log zerolog.Logger) (mqtt.Client, error) {
	client := mqtt.NewClient(mqttOptions(cfg, log))
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect: timed out after %s", mqttConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return client, nil
}

func mqttOptions(cfg *Config, log zerolog.Logger) *mqtt.ClientOptions {
	log = log.With().Str("broker", cfg.MQTT.Broker).Logger()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTT.Broker).
		SetClientID(cfg.MQTT.ClientID).
		SetCleanSession(false).
		SetResumeSubs(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetMaxReconnectInterval(cfg.MQTT.MaxReconnectInterval).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn().Err(err).Msg("mqtt connection lost")
		}).
		SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
			log.Info().Msg("mqtt reconnecting")
		}).
		SetOnConnectHandler(func(_ mqtt.Client) {
			log.Info().Msg("mqtt connected")
		})

	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username).SetPassword(cfg.MQTT.Password)
	}
	return opts
}
