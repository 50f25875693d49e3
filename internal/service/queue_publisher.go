package service // package service hosts outbound integrations

import (
    "context"
    "encoding/json"
    "os"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/foodbridge/distribution-api/internal/logger"
    "github.com/foodbridge/distribution-api/internal/queue"
)

// Publisher sends hand-out notifications to RabbitMQ.  Publishing is best
// effort: the hand-out has already committed when Publish runs, so a broker
// outage is logged and swallowed rather than failing the request.
type Publisher struct {
    mu   sync.Mutex
    url  string
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewPublisher creates a Publisher and tries an initial connection.  When
// RABBITMQ_URL is unset or the broker is down, the publisher stays inert and
// reconnects lazily on the next Publish.
func NewPublisher() *Publisher {
    p := &Publisher{url: os.Getenv("RABBITMQ_URL")}
    if p.url != "" {
        if err := p.connect(); err != nil {
            logger.Get().Warn("rabbitmq unavailable at startup", zap.Error(err))
        }
    }
    return p
}

func (p *Publisher) connect() error {
    conn, err := amqp.Dial(p.url)
    if err != nil {
        return err
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return err
    }
    if _, err := ch.QueueDeclare(queue.QueuePickupApproved, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return err
    }
    p.conn = conn
    p.ch = ch
    return nil
}

// PublishPickupApproved publishes a hand-out event as persistent JSON.
// One reconnect attempt is made on a dead channel; after that the event is
// dropped with a log line.
func (p *Publisher) PublishPickupApproved(ctx context.Context, ev queue.PickupApprovedEvent) {
    if p.url == "" {
        return
    }

    body, err := json.Marshal(ev)
    if err != nil {
        logger.Get().Error("marshal pickup event", zap.Error(err))
        return
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    for attempt := 0; attempt < 2; attempt++ {
        if p.ch == nil || p.conn == nil || p.conn.IsClosed() {
            if err := p.connect(); err != nil {
                logger.Get().Warn("rabbitmq reconnect failed", zap.Error(err))
                return
            }
        }

        pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
        err = p.ch.PublishWithContext(pubCtx, "", queue.QueuePickupApproved, false, false, amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent,
            Timestamp:    time.Now(),
            Body:         body,
        })
        cancel()
        if err == nil {
            return
        }
        // Force a fresh connection on the retry.
        p.teardown()
    }
    logger.Get().Warn("dropping pickup event after publish failures",
        zap.Uint64("event_id", ev.EventID), zap.Error(err))
}

func (p *Publisher) teardown() {
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}

// Close shuts the publisher down.
func (p *Publisher) Close() {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.teardown()
}
