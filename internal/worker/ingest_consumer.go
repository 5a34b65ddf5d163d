package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"gopherai-docqa/internal/ingest"
)

// IngestConsumer runs ingestion jobs delivered through a durable RabbitMQ queue.
type IngestConsumer struct {
	conn      *amqp.Connection
	runner    Runner
	queueName string
	prefetch  int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewIngestConsumer(conn *amqp.Connection, runner Runner, queueName string, prefetch int) *IngestConsumer {
	if prefetch <= 0 {
		prefetch = 1
	}
	return &IngestConsumer{
		conn:      conn,
		runner:    runner,
		queueName: queueName,
		prefetch:  prefetch,
	}
}

func (w *IngestConsumer) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := ch.Qos(w.prefetch, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if w.handle(workerCtx, d.Body) {
					_ = d.Ack(false)
				} else {
					_ = d.Nack(false, false)
				}
			}
		}
	}()

	return nil
}

// handle runs one delivery and reports whether to ack it. Pipeline failures are
// acked: the document is already marked failed and a redelivery would not help.
// Only undecodable payloads are rejected.
func (w *IngestConsumer) handle(ctx context.Context, body []byte) bool {
	var job ingest.Job
	if err := json.Unmarshal(body, &job); err != nil {
		log.Printf("worker decode ingest job failed: %v", err)
		return false
	}
	if job.TenantID == "" || job.DocumentID == "" {
		log.Printf("worker ingest job missing tenant or document id")
		return false
	}
	if _, err := w.runner.Run(ctx, job); err != nil {
		log.Printf("worker ingest %s/%s failed: %v", job.TenantID, job.DocumentID, err)
	}
	return true
}

func (w *IngestConsumer) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
