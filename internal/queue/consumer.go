package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/ashroots/table-reservation/internal/metrics"
	"github.com/ashroots/table-reservation/internal/model"
)

// Mailer delivers a confirmation to the guest.
type Mailer interface {
	SendConfirmation(ctx context.Context, c model.Confirmation) error
}

// Consumer drains the confirmation queue into a Mailer.
type Consumer struct {
	url         string
	mailer      Mailer
	log         zerolog.Logger
	sendTimeout time.Duration
}

func NewConsumer(url string, mailer Mailer, sendTimeout time.Duration, log zerolog.Logger) *Consumer {
	if sendTimeout <= 0 {
		sendTimeout = 30 * time.Second
	}
	return &Consumer{url: url, mailer: mailer, log: log, sendTimeout: sendTimeout}
}

// Run connects to RabbitMQ and consumes until ctx is cancelled, redialing
// with exponential backoff whenever the connection drops. It returns
// ctx.Err() on shutdown.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		dctx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
		conn, err := dial(dctx, c.url)
		cancel()
		if err != nil {
			c.log.Warn().Err(err).Dur("retry_in", backoff).Msg("confirmation consumer: dial failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn().Err(err).Msg("confirmation consumer: loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		c.log.Warn().Err(err).Msg("confirmation consumer: set QoS failed")
	}
	if _, err := declare(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(ConfirmationQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.log.Info().Str("queue", ConfirmationQueue).Msg("confirmation consumer: listening")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(ctx, d.Body); err != nil {
				c.log.Error().Err(err).Str("message_id", d.MessageId).Msg("confirmation consumer: delivery failed")
				// reject without requeue to avoid tight redelivery loops
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, body []byte) error {
	var ev ReservationConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		metrics.IncNotification("deliver", "error")
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Email == "" || ev.ReservationID == 0 {
		metrics.IncNotification("deliver", "error")
		return errors.New("event without recipient or reservation id")
	}

	ctx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	defer cancel()
	if err := c.mailer.SendConfirmation(ctx, ev.Confirmation()); err != nil {
		metrics.IncNotification("deliver", "error")
		return fmt.Errorf("send confirmation: %w", err)
	}
	metrics.IncNotification("deliver", "ok")
	c.log.Info().Uint64("reservation_id", ev.ReservationID).Msg("confirmation email sent")
	return nil
}
