package publish

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/icodeforyou/darksky-go/config"
	"github.com/icodeforyou/darksky-go/task"
)

const publishTimeout = 5 * time.Second

// Publisher sends current conditions to an MQTT broker as retained messages,
// so subscribers get the latest reading as soon as they connect.
type Publisher struct {
	client mqtt.Client
	logger *slog.Logger
	topic  string
}

func New(cnfg config.AppConfigMqtt) *Publisher {
	logger := slog.Default().With("module", "publish")
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cnfg.Host, cnfg.Port))
	opts.SetClientID(cnfg.GetClientID())
	opts.SetUsername(cnfg.Username)
	opts.SetPassword(cnfg.Password)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(client mqtt.Client) {
		logger.Info("MQTT connected")
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", slog.Any("error", err))
	}

	mqttLogger := slog.Default().With("module", "mqtt")
	mqtt.CRITICAL = newMqttLogger(mqttLogger, slog.LevelError)
	mqtt.ERROR = newMqttLogger(mqttLogger, slog.LevelError)
	mqtt.WARN = newMqttLogger(mqttLogger, slog.LevelWarn)

	return newWithClient(mqtt.NewClient(opts), logger, cnfg.GetTopic())
}

func newWithClient(client mqtt.Client, logger *slog.Logger, topic string) *Publisher {
	return &Publisher{
		client: client,
		logger: logger,
		topic:  topic,
	}
}

func (p *Publisher) Connect() error {
	p.logger.Debug("connecting MQTT client")
	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (p *Publisher) Disconnect() {
	p.logger.Info("disconnecting MQTT client")
	p.client.Disconnect(250)
}

func (p *Publisher) Topic() string {
	return p.topic + "/currently"
}

func (p *Publisher) Publish(c task.Conditions) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding conditions: %w", err)
	}

	token := p.client.Publish(p.Topic(), 0, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timeout when publishing to %s", p.Topic())
	}
	if token.Error() != nil {
		return fmt.Errorf("error when publishing to %s: %w", p.Topic(), token.Error())
	}

	p.logger.Debug("published current conditions", slog.String("topic", p.Topic()), slog.Int("bytes", len(payload)))
	return nil
}

// Listener adapts Publish to task.Tasks.OnForecast, failures are logged.
func (p *Publisher) Listener() task.Listener {
	return func(c task.Conditions) {
		if err := p.Publish(c); err != nil {
			p.logger.Error("publish failed", slog.Any("error", err))
		}
	}
}
