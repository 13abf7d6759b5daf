package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"car-fleet/internal/common/rabbitmq"
	"car-fleet/internal/fleet/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

type rmqChanneler interface {
	Channel() (*amqp.Channel, error)
}

type PositionPublisher struct {
	rmq    rmqChanneler
	logger *slog.Logger
}

func NewPositionPublisher(rmq rmqChanneler, logger *slog.Logger) *PositionPublisher {
	return &PositionPublisher{rmq: rmq, logger: logger}
}

// PublishPosition publishes a position.ingested.{plate} message to the
// fleet_topic exchange.
func (p *PositionPublisher) PublishPosition(ctx context.Context, plate string, pos domain.Position) error {
	ch, err := p.rmq.Channel()
	if err != nil {
		return fmt.Errorf("channel: %w", err)
	}

	msg := map[string]any{
		"plate":     plate,
		"car_id":    pos.CarID,
		"latitude":  pos.Latitude,
		"longitude": pos.Longitude,
		"address":   pos.Address,
		"date":      pos.Date.UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	routingKey := rabbitmq.RoutePositionPrefix + plateSegment(plate)
	if err := ch.PublishWithContext(ctx,
		rabbitmq.ExchangeFleetTopic,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	p.logger.Info("position_published", "action", "publish_position", "plate", plate, "car_id", pos.CarID)
	return nil
}

// plateSegment keeps the plate a single AMQP routing-key word. A "."
// in the plate would split the key into extra words and miss the
// position.ingested.* queue binding.
func plateSegment(plate string) string {
	return strings.ReplaceAll(plate, ".", "_")
}
