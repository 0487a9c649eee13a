// Package mqttsink republishes relayed events to an MQTT broker.
package mqttsink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kdudkov/scanrelay/internal/relay"
	"github.com/kdudkov/scanrelay/pkg/model"
)

const (
	unknownTalkgroup  = "unknown"
	disconnectQuiesce = 250
)

type Config struct {
	Broker    string
	ClientID  string
	Topic     string
	QueueSize int
	Timeout   time.Duration
}

type Publisher struct {
	logger  *slog.Logger
	client  mqtt.Client
	topic   string
	size    int
	timeout time.Duration
}

func New(cfg Config) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("no mqtt broker")
	}

	if cfg.ClientID == "" {
		cfg.ClientID = "scanrelay-" + uuid.NewString()[:8]
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second * 5
	}

	logger := slog.Default().With("logger", "mqtt", "broker", cfg.Broker)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.Timeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("connection lost", slog.Any("error", err))
		}).
		SetOnConnectHandler(func(_ mqtt.Client) {
			logger.Info("connected")
		})

	client := mqtt.NewClient(opts)

	token := client.Connect()
	if ok := token.WaitTimeout(cfg.Timeout); !ok {
		return nil, fmt.Errorf("mqtt connect to %s: timeout", cfg.Broker)
	}

	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}

	return newPublisher(logger, client, cfg), nil
}

func newPublisher(logger *slog.Logger, client mqtt.Client, cfg Config) *Publisher {
	return &Publisher{
		logger:  logger,
		client:  client,
		topic:   strings.TrimSuffix(cfg.Topic, "/"),
		size:    cfg.QueueSize,
		timeout: cfg.Timeout,
	}
}

// Run registers a queue in the relay and publishes from it until ctx is done.
// If the broker can't keep up and the queue overflows, a fresh queue is
// registered; events in between are lost.
func (p *Publisher) Run(ctx context.Context, reg relay.Registry) {
	defer p.client.Disconnect(disconnectQuiesce)

	for ctx.Err() == nil {
		q := relay.NewQueue("mqtt-"+uuid.NewString(), p.size)
		reg.Register(q)

		p.drain(ctx, q)
		reg.Unregister(q.Name())

		if q.Overflowed() {
			p.logger.Warn("publish queue overflow, some events were not published")
		}
	}
}

func (p *Publisher) drain(ctx context.Context, q *relay.Queue) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-q.C():
			if !ok {
				return
			}

			p.publish(msg)
		}
	}
}

func (p *Publisher) publish(msg *relay.Message) {
	b, err := json.Marshal(msg.Payload)
	if err != nil {
		p.logger.Error("marshal error", slog.Any("error", err))
		return
	}

	topic := TopicFor(p.topic, msg)

	token := p.client.Publish(topic, 0, false, b)
	if !token.WaitTimeout(p.timeout) {
		p.logger.Warn("publish timeout", slog.String("topic", topic))
		return
	}

	if err := token.Error(); err != nil {
		p.logger.Warn("publish error", slog.String("topic", topic), slog.Any("error", err))
	}
}

// TopicFor builds <base>/<talkgroup> for radio events and <base>/<type> for anything else.
func TopicFor(base string, msg *relay.Message) string {
	var leaf string

	if ev, ok := msg.Payload.(*model.RadioEvent); ok && msg.Type == relay.EventName {
		leaf = ev.TalkgroupOrSource
		if leaf == "" {
			leaf = unknownTalkgroup
		}
	} else {
		leaf = msg.Type
	}

	leaf = strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(leaf)

	if base == "" {
		return leaf
	}

	return base + "/" + leaf
}
