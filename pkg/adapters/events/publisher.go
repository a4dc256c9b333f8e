package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/wadjakorntonsri/habit-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/habit-tracker/pkg/ports"
)

const publishTimeout = 5 * time.Second

// channel is the subset of *amqp091.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher sends habit events to a durable topic exchange.
type Publisher struct {
	conn       *amqp091.Connection
	channel    channel
	exchange   string
	routingKey string
	now        func() time.Time
}

func NewPublisher(url, exchange, routingKey string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &Publisher{
		conn:       conn,
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
		now:        time.Now,
	}, nil
}

func (p *Publisher) PublishHabitCreated(ctx context.Context, habit domain.Habit) error {
	return p.publish(ctx, NewHabitCreatedMessage(habit, p.now()))
}

func (p *Publisher) PublishHabitToggled(ctx context.Context, habitID string, date domain.Date, completed bool) error {
	return p.publish(ctx, NewHabitToggledMessage(habitID, date, completed, p.now()))
}

func (p *Publisher) publish(ctx context.Context, msg *Message) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,   // exchange
		p.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Type:         msg.Type,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.Type, err)
	}

	slog.DebugContext(ctx, "Published habit event",
		"type", msg.Type,
		"habit_id", msg.HabitID,
		"exchange", p.exchange)
	return nil
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

var _ ports.EventPublisher = (*Publisher)(nil)
