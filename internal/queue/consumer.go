package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/foodbridge/distribution-api/internal/logger"
)

// Consumer drains the pickup.approved queue and appends each event to an
// audit log file.  It reconnects with backoff for the lifetime of the
// context, so a broker restart only pauses consumption.
type Consumer struct {
    url     string
    logPath string
}

// NewConsumer builds a Consumer reading RABBITMQ_URL from the environment.
// Events are appended to logs/pickups.log under dir.
func NewConsumer(dir string) *Consumer {
    return &Consumer{
        url:     os.Getenv("RABBITMQ_URL"),
        logPath: filepath.Join(dir, "pickups.log"),
    }
}

// Run consumes until the context is cancelled.  Call in a goroutine.
func (c *Consumer) Run(ctx context.Context) {
    if c.url == "" {
        logger.Get().Info("RABBITMQ_URL unset, pickup consumer disabled")
        return
    }
    if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
        logger.Get().Error("create log dir", zap.Error(err))
        return
    }

    backoff := time.Second
    for {
        if err := c.consumeOnce(ctx); err != nil {
            if ctx.Err() != nil {
                return
            }
            logger.Get().Warn("pickup consumer disconnected", zap.Error(err), zap.Duration("retry_in", backoff))
        }
        select {
        case <-ctx.Done():
            return
        case <-time.After(backoff):
        }
        if backoff < 30*time.Second {
            backoff *= 2
        }
    }
}

func (c *Consumer) consumeOnce(ctx context.Context) error {
    conn, err := amqp.Dial(c.url)
    if err != nil {
        return err
    }
    defer conn.Close()

    ch, err := conn.Channel()
    if err != nil {
        return err
    }
    defer ch.Close()

    if _, err := ch.QueueDeclare(QueuePickupApproved, true, false, false, false, nil); err != nil {
        return err
    }

    deliveries, err := ch.Consume(QueuePickupApproved, "", false, false, false, false, nil)
    if err != nil {
        return err
    }
    logger.Get().Info("pickup consumer connected", zap.String("queue", QueuePickupApproved))

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-deliveries:
            if !ok {
                return fmt.Errorf("delivery channel closed")
            }
            if err := c.record(d.Body); err != nil {
                logger.Get().Error("record pickup event", zap.Error(err))
                _ = d.Nack(false, true)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// record appends one event to the audit log as a single JSON line.
func (c *Consumer) record(body []byte) error {
    var ev PickupApprovedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        // Malformed payloads are logged raw rather than requeued forever.
        logger.Get().Warn("malformed pickup event", zap.ByteString("body", body))
        return nil
    }

    f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return err
    }
    defer f.Close()

    line, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    _, err = fmt.Fprintf(f, "%s\n", line)
    return err
}
