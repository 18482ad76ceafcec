package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"trainer-workload-service/internal/config"
	"trainer-workload-service/internal/logger"
	"trainer-workload-service/internal/model"
	"trainer-workload-service/internal/repository"
	"trainer-workload-service/internal/workload"
)

const (
	reconnectDelay       = 5 * time.Second
	maxReconnectAttempts = 10
	processTimeout       = 30 * time.Second
)

// transactionIDHeader carries the producer's correlation id, mirrored into
// every log line while the message is being processed.
const transactionIDHeader = "transaction_id"

type Consumer struct {
	cfg     config.RabbitConfig
	log     *logrus.Logger
	service workload.Service
	journal repository.EventJournal

	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfg config.RabbitConfig, log *logrus.Logger, service workload.Service, journal repository.EventJournal) (*Consumer, error) {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Consumer{
		cfg:     cfg,
		log:     log,
		service: service,
		journal: journal,
		ctx:     ctx,
		cancel:  cancel,
	}

	if err := c.connect(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	return c, nil
}

func (c *Consumer) connect() error {
	dsn := fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		c.cfg.User, c.cfg.Password, c.cfg.Host, c.cfg.Port, c.cfg.VHost)

	conn, err := amqp.Dial(dsn)
	if err != nil {
		return fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := c.declareTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = ch
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{
		"host":  c.cfg.Host,
		"queue": c.cfg.Queue,
		"dlq":   c.cfg.DLQ,
	}).Info("connected to RabbitMQ")

	go c.monitorConnection()

	return nil
}

// declareTopology sets up the dead-letter exchange and queue first, then the
// work queue bound to them, so a nack without requeue routes the message to
// the DLQ instead of dropping it.
func (c *Consumer) declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(
		c.cfg.DLX,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare dead-letter exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(
		c.cfg.DLQ,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare dead-letter queue: %w", err)
	}

	if err := ch.QueueBind(c.cfg.DLQ, "", c.cfg.DLX, false, nil); err != nil {
		return fmt.Errorf("failed to bind dead-letter queue: %w", err)
	}

	if _, err := ch.QueueDeclare(
		c.cfg.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-dead-letter-exchange": c.cfg.DLX,
		},
	); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	return nil
}

func (c *Consumer) monitorConnection() {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return
	}

	notifyClose := conn.NotifyClose(make(chan *amqp.Error))

	select {
	case err := <-notifyClose:
		if err != nil {
			c.log.WithError(err).Error("RabbitMQ connection closed unexpectedly")
			c.reconnect()
		}
	case <-c.ctx.Done():
		return
	}
}

func (c *Consumer) reconnect() {
	c.mu.Lock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		c.log.WithField("attempt", attempt).Info("attempting to reconnect to RabbitMQ")

		if err := c.connect(); err == nil {
			c.log.Info("successfully reconnected to RabbitMQ")
			go func() {
				if err := c.Start(c.ctx); err != nil && c.ctx.Err() == nil {
					c.log.WithError(err).Error("failed to restart consumer after reconnect")
				}
			}()
			return
		}

		delay := reconnectDelay * time.Duration(attempt)
		c.log.WithFields(logrus.Fields{
			"attempt": attempt,
			"delay":   delay,
		}).Warn("reconnection failed, retrying")

		select {
		case <-time.After(delay):
		case <-c.ctx.Done():
			return
		}
	}

	c.log.Error("max reconnection attempts reached, giving up")
}

func (c *Consumer) Start(ctx context.Context) error {
	c.mu.RLock()
	channel := c.channel
	c.mu.RUnlock()

	if channel == nil {
		return fmt.Errorf("channel is not initialized")
	}

	msgs, err := channel.Consume(
		c.cfg.Queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.log.WithField("workers", c.cfg.Workers).Info("starting consumer workers")

	for i := 0; i < c.cfg.Workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, msgs, i)
	}

	<-ctx.Done()
	c.log.Info("stopping consumer workers")
	c.wg.Wait()

	return nil
}

func (c *Consumer) worker(ctx context.Context, msgs <-chan amqp.Delivery, workerID int) {
	defer c.wg.Done()

	c.log.WithField("worker_id", workerID).Debug("worker started")

	for {
		select {
		case <-ctx.Done():
			c.log.WithField("worker_id", workerID).Debug("worker stopped")
			return

		case msg, ok := <-msgs:
			if !ok {
				c.log.WithField("worker_id", workerID).Warn("message channel closed")
				return
			}

			c.processMessage(ctx, msg, workerID)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg amqp.Delivery, workerID int) {
	ctx, cancel := context.WithTimeout(ctx, processTimeout)
	defer cancel()

	// The transaction id only lives in this message's context, so it cannot
	// leak into logs of the next message the worker picks up.
	ctx = logger.WithTransactionID(ctx, transactionID(msg))
	entry := logger.FromContext(ctx, c.log).WithField("worker_id", workerID)

	var payload model.WorkloadMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		entry.WithError(err).WithField("body", string(msg.Body)).Error("failed to unmarshal message")
		_ = msg.Nack(false, false) // undecodable, dead-letter it
		return
	}

	entry = entry.WithFields(logrus.Fields{
		"trainer": payload.TrainerUsername,
		"action":  payload.ActionType,
	})

	if payload.EventID != "" && c.journal != nil {
		seen, err := c.journal.Seen(ctx, payload.EventID)
		if err != nil {
			entry.WithError(err).Warn("failed to check event journal, processing anyway")
		} else if seen {
			entry.WithField("event_id", payload.EventID).Info("duplicate event, acknowledging without reprocessing")
			_ = msg.Ack(false)
			return
		}
	}

	if err := c.service.CalculateAndSave(ctx, &payload); err != nil {
		if isTerminal(err) {
			// Poison message: retrying cannot change the outcome, route it
			// to the dead-letter queue now.
			entry.WithError(err).Error("rejecting message")
			_ = msg.Nack(false, false)
		} else {
			entry.WithError(err).Warn("processing failed, requeueing message")
			_ = msg.Nack(false, true)
		}
		return
	}

	if payload.EventID != "" && c.journal != nil {
		if err := c.journal.Record(ctx, payload.EventID, payload.TrainerUsername); err != nil {
			entry.WithError(err).Warn("failed to record event in journal")
		}
	}

	if err := msg.Ack(false); err != nil {
		entry.WithError(err).Warn("failed to ack message")
	}
}

func (c *Consumer) Close() {
	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	c.log.Info("consumer closed")
}
