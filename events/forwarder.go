// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/danielhkuo/campus-tally/models"
	"github.com/danielhkuo/campus-tally/notify"
)

const defaultWriteTimeout = 5 * time.Second

// MessageWriter is the part of *kafka.Writer the forwarder needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter returns a writer keyed by election id, so one election's
// markers land on one partition in order
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		Compression:  kafka.Snappy,
	}
}

// Forwarder copies hub change events to a Kafka topic. Delivery is best
// effort: a failed write is logged and the event is dropped.
type Forwarder struct {
	hub          *notify.Hub
	writer       MessageWriter
	writeTimeout time.Duration
}

func NewForwarder(hub *notify.Hub, writer MessageWriter) *Forwarder {
	return &Forwarder{hub: hub, writer: writer, writeTimeout: defaultWriteTimeout}
}

// Run forwards events until ctx is done, then closes the writer
func (f *Forwarder) Run(ctx context.Context) error {
	sub := f.hub.Subscribe()
	defer sub.Close()
	defer func() {
		if err := f.writer.Close(); err != nil {
			slog.Error("failed to close kafka writer", "error", err)
		}
	}()

	slog.Info("forwarding change events to kafka", "subscription_id", sub.ID)

	for {
		select {
		case <-ctx.Done():
			if dropped := sub.Dropped(); dropped > 0 {
				slog.Warn("kafka forwarder fell behind", "dropped", dropped)
			}
			return ctx.Err()
		case ev, ok := <-sub.C():
			if !ok {
				return nil
			}
			if err := f.forward(ctx, ev); err != nil {
				slog.Error("failed to forward change event", "election_id", ev.ElectionID, "error", err)
			}
		}
	}
}

func (f *Forwarder) forward(ctx context.Context, ev notify.Event) error {
	value, err := json.Marshal(models.ChangeEvent{ElectionID: ev.ElectionID, At: ev.At})
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	wctx, cancel := context.WithTimeout(ctx, f.writeTimeout)
	defer cancel()

	err = f.writer.WriteMessages(wctx, kafka.Message{
		Key:   []byte(ev.ElectionID),
		Value: value,
		Time:  ev.At,
	})
	if err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}
