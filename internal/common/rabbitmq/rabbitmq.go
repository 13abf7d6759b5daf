package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"car-fleet/internal/common/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeFleetTopic    = "fleet_topic"
	QueuePositionIngested = "position_ingested"
	RoutePositionPrefix   = "position.ingested."
)

// MQ is a resilient RabbitMQ connector with auto-reconnect and topology setup.
type MQ struct {
	url    string
	logger *slog.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	pubChan *amqp.Channel

	closed    chan struct{}
	reconnect chan struct{}
}

func NewMQ(cfg config.RMQ, logger *slog.Logger) *MQ {
	return &MQ{
		url:       fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.User, cfg.Password, cfg.Host, cfg.Port),
		logger:    logger,
		closed:    make(chan struct{}),
		reconnect: make(chan struct{}, 1),
	}
}

// Connect establishes the initial connection and starts a background
// watcher that reconnects on failures. Further retries happen in the
// watcher, not here.
func (mq *MQ) Connect(ctx context.Context) error {
	if err := mq.connectOnce(); err != nil {
		return err
	}
	go mq.watch()
	return nil
}

// DeclareTopology declares the fleet exchange, queue, and binding on
// the current publishing channel.
func (mq *MQ) DeclareTopology() error {
	ch, err := mq.Channel()
	if err != nil {
		return err
	}
	return declareTopology(ch)
}

// Channel returns the shared publishing channel.
func (mq *MQ) Channel() (*amqp.Channel, error) {
	mq.mu.RLock()
	defer mq.mu.RUnlock()
	if mq.pubChan == nil || mq.pubChan.IsClosed() {
		return nil, fmt.Errorf("rabbitmq: no open channel")
	}
	return mq.pubChan, nil
}

// Close stops the watcher and closes AMQP resources.
func (mq *MQ) Close() {
	select {
	case <-mq.closed:
		// already closed
	default:
		close(mq.closed)
	}

	mq.mu.Lock()
	if mq.pubChan != nil {
		_ = mq.pubChan.Close()
		mq.pubChan = nil
	}
	if mq.conn != nil {
		_ = mq.conn.Close()
		mq.conn = nil
	}
	mq.mu.Unlock()
}

// connectOnce tries to connect and open a publishing channel once.
func (mq *MQ) connectOnce() error {
	conn, err := amqp.DialConfig(mq.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(30 * time.Second),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial failed: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq: failed to open channel: %w", err)
	}

	if err := declareTopology(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("rabbitmq: failed to declare topology: %w", err)
	}

	mq.mu.Lock()
	if mq.pubChan != nil && !mq.pubChan.IsClosed() {
		_ = mq.pubChan.Close()
	}
	mq.conn = conn
	mq.pubChan = ch
	mq.mu.Unlock()

	// either the connection or the publisher channel closing should
	// trigger reconnect
	go func(conn *amqp.Connection, ch *amqp.Channel) {
		connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
		chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-mq.closed:
			return
		case <-connClosed:
		case <-chClosed:
		}

		select {
		case mq.reconnect <- struct{}{}:
		default:
			// already enqueued
		}
	}(conn, ch)

	mq.logger.Info("rabbitmq_connected", "url_host", mq.urlHost())
	return nil
}

// watch runs in background and attempts reconnects with capped
// exponential backoff.
func (mq *MQ) watch() {
	backoff := time.Second
	for {
		select {
		case <-mq.closed:
			return
		case <-mq.reconnect:
			for {
				select {
				case <-mq.closed:
					return
				default:
				}

				if err := mq.connectOnce(); err == nil {
					backoff = time.Second
					mq.logger.Info("rabbitmq_reconnected")
					break
				} else {
					mq.logger.Error("rabbitmq_reconnect_failed", "error", err.Error())
				}

				time.Sleep(backoff)
				if backoff < 30*time.Second {
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
				}
			}
		}
	}
}

// urlHost strips credentials for logging.
func (mq *MQ) urlHost() string {
	if at := strings.LastIndexByte(mq.url, '@'); at >= 0 {
		return mq.url[at+1:]
	}
	return mq.url
}

func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ExchangeFleetTopic, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangeFleetTopic, err)
	}

	if _, err := ch.QueueDeclare(QueuePositionIngested, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", QueuePositionIngested, err)
	}

	if err := ch.QueueBind(QueuePositionIngested, RoutePositionPrefix+"*", ExchangeFleetTopic, false, nil); err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", QueuePositionIngested, ExchangeFleetTopic, err)
	}

	return nil
}
