package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/insyd/notify/backend/internal/fanout"
	"github.com/insyd/notify/backend/internal/models"
	"github.com/nats-io/nats.go"
)

const (
	queueGroup    = "notify-ingest"
	ingestTimeout = 10 * time.Second
)

// Ingester is the operation every consumed event is handed to
type Ingester interface {
	Ingest(ctx context.Context, ev *models.Event) (*models.IngestResult, error)
}

// Reply is sent back when the publisher used request-reply
type Reply struct {
	Result *models.IngestResult `json:"result,omitempty"`
	Error  string               `json:"error,omitempty"`
}

// Consumer ingests events published on a NATS subject
type Consumer struct {
	conn     *nats.Conn
	sub      *nats.Subscription
	subject  string
	ingester Ingester
	logger   *slog.Logger
}

// Connect dials NATS. Call Start to begin consuming.
func Connect(url, subject string, ingester Ingester, logger *slog.Logger) (*Consumer, error) {
	logger = logger.With("component", "broker.Consumer", "subject", subject)

	nc, err := nats.Connect(url,
		nats.Name("notify-api"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &Consumer{conn: nc, subject: subject, ingester: ingester, logger: logger}, nil
}

// Start subscribes in a queue group, so several processes share the load
func (c *Consumer) Start() error {
	sub, err := c.conn.QueueSubscribe(c.subject, queueGroup, c.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.subject, err)
	}
	c.sub = sub
	c.logger.Info("Consuming events from NATS")
	return nil
}

// Close drains the subscription and the connection
func (c *Consumer) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Drain()
}

func (c *Consumer) handle(msg *nats.Msg) {
	reply := c.process(msg.Data)
	if msg.Reply == "" {
		return
	}
	payload, err := json.Marshal(reply)
	if err != nil {
		c.logger.Error("cannot encode reply", "error", err)
		return
	}
	if err := msg.Respond(payload); err != nil {
		c.logger.Warn("cannot send reply", "error", err)
	}
}

// process ingests one message. Malformed or invalid events are logged and
// dropped; there is no redelivery.
func (c *Consumer) process(data []byte) Reply {
	var ev models.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		c.logger.Warn("dropping undecodable event", "error", err)
		return Reply{Error: "invalid JSON"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	result, err := c.ingester.Ingest(ctx, &ev)
	if err != nil {
		var verr *fanout.ValidationError
		if errors.As(err, &verr) {
			c.logger.Warn("dropping invalid event", "event_id", ev.EventID, "error", err)
		} else {
			c.logger.Error("event ingest failed", "event_id", ev.EventID, "error", err)
		}
		return Reply{Error: err.Error()}
	}
	return Reply{Result: result}
}
