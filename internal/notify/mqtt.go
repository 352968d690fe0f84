package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const EventSchedulesUpdated = "schedules.updated"

// ScheduleEvent tells display clients that stored schedules changed.
type ScheduleEvent struct {
	Type      string    `json:"type"`
	JobID     string    `json:"jobId,omitempty"`
	Saved     int       `json:"saved"`
	Districts []string  `json:"districts,omitempty"`
	Source    string    `json:"source"` // "fetch" or "upload"
	At        time.Time `json:"at"`
}

type PublisherConfig struct {
	BrokerURL string
	ClientID  string
	Topic     string
}

// Publisher sends schedule events to one MQTT topic.
type Publisher struct {
	client mqtt.Client
	topic  string
}

// MQTT connection handler
var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("connected to MQTT broker")
}

// MQTT connection lost handler
var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("MQTT connection lost")
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if cfg.BrokerURL == "" {
		return nil, fmt.Errorf("mqtt broker url is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("mqtt topic is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("sehri-%d", time.Now().UnixNano())
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return &Publisher{client: client, topic: cfg.Topic}, nil
}

// Publish sends ev with QoS 1 and waits for the broker to accept it.
func (p *Publisher) Publish(ev ScheduleEvent) error {
	payload, err := json.Marshal(ev.withDefaults())
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	token := p.client.Publish(p.topic, 1, false, payload)
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("publish to %s timed out", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}

	log.Debug().Str("topic", p.topic).Int("saved", ev.Saved).Msg("event published")
	return nil
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
	log.Info().Msg("MQTT publisher disconnected")
}

func (ev ScheduleEvent) withDefaults() ScheduleEvent {
	if ev.Type == "" {
		ev.Type = EventSchedulesUpdated
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	return ev
}

// Notifier receives schedule change events.
type Notifier interface {
	Publish(ev ScheduleEvent) error
}

// Fanout publishes to every notifier and joins their errors.
type Fanout []Notifier

func (f Fanout) Publish(ev ScheduleEvent) error {
	ev = ev.withDefaults()
	var errs []error
	for _, n := range f {
		if err := n.Publish(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event. It stands in when no broker is configured.
type Discard struct{}

func (Discard) Publish(ScheduleEvent) error { return nil }
