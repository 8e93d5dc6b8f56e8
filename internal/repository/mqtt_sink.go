package repository

import (
	"context"
	"fmt"
	"time"

	"gluco_watch/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type MQTTOpts struct {
	BrokerURL, ClientID string
	Username, Password  string
	QoS                 byte
}

// publisher is the part of mqtt.Client the sink uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSink publishes the record, retained, on users/{identity}/latest so a
// display that subscribes late still gets the current value.
type MQTTSink struct {
	client publisher
	qos    byte
	close  func()
}

// NewMQTTSink connects to the broker. Reconnects are left to the paho client.
func NewMQTTSink(ctx context.Context, o MQTTOpts) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(o.BrokerURL).
		SetClientID(o.ClientID).
		SetCleanSession(true).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true)
	if o.Username != "" {
		opts.SetUsername(o.Username)
	}
	if o.Password != "" {
		opts.SetPassword(o.Password)
	}

	client := mqtt.NewClient(opts)
	if err := waitToken(ctx, client.Connect()); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", o.BrokerURL, err)
	}
	return &MQTTSink{
		client: client,
		qos:    o.QoS,
		close:  func() { client.Disconnect(250) },
	}, nil
}

var _ Sink = (*MQTTSink)(nil)

func (s *MQTTSink) Name() string { return "mqtt" }

func (s *MQTTSink) Persist(ctx context.Context, rec models.Record) error {
	body, err := rec.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	topic := UserLatestPath(rec.Identity)
	if err := waitToken(ctx, s.client.Publish(topic, s.qos, true, body)); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	return nil
}

func (s *MQTTSink) Close() {
	if s.close != nil {
		s.close()
	}
}

func waitToken(ctx context.Context, t mqtt.Token) error {
	select {
	case <-t.Done():
		return t.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
