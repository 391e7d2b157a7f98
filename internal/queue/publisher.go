package queue

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/ashroots/table-reservation/internal/model"
)

// ConfirmationQueue is the durable queue confirmations travel through.
const ConfirmationQueue = "reservation.confirmed"

// Publisher hands confirmations to RabbitMQ. It dials per publish: bookings
// are rare enough that a long-lived channel and its reconnect handling are
// not worth carrying on the request path.
type Publisher struct {
	url string
	log zerolog.Logger
}

func NewPublisher(url string, log zerolog.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

// Send publishes c as a persistent ReservationConfirmedEvent. Errors are
// logged and returned; the caller decides whether they matter.
func (p *Publisher) Send(ctx context.Context, c model.Confirmation) error {
	body, err := json.Marshal(NewReservationConfirmedEvent(c))
	if err != nil {
		return err
	}

	conn, err := dial(ctx, p.url)
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := declare(ch); err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: queue declare failed")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    strconv.FormatUint(c.ReservationID, 10),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", ConfirmationQueue, false, false, pub); err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: publish failed")
		return err
	}
	p.log.Debug().Uint64("reservation_id", c.ReservationID).Msg("confirmation published")
	return nil
}

// declare is idempotent; both sides call it so either may start first.
func declare(ch *amqp.Channel) (amqp.Queue, error) {
	return ch.QueueDeclare(ConfirmationQueue, true, false, false, false, nil)
}
