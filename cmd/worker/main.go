package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"resume-builder/internal/bootstrap"
	"resume-builder/internal/queue"
	"resume-builder/internal/shared/config"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/workerproc"
)

const (
	defaultWorkerConcurrency  = 4
	defaultShutdownTimeoutSec = 30
	maxReconnectBackoff       = 30 * time.Second
)

func main() {
	cfg := config.Load()
	telemetry.Configure(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	concurrency := envInt("WORKER_CONCURRENCY", defaultWorkerConcurrency)
	shutdownTimeout := time.Duration(envInt("WORKER_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	queueName := strings.TrimSpace(cfg.RabbitMQQueue)
	if queueName == "" {
		queueName = queue.DefaultQueueName
	}
	processor := workerproc.Auditor{Resumes: app.ResumesRepo}

	w := &worker{
		processor:   processor,
		queue:       queueName,
		concurrency: max(1, concurrency),
	}
	log.Printf("worker started queue=%s concurrency=%d", queueName, w.concurrency)

	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			log.Printf("worker: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleepCtx(ctx, backoff) {
				break
			}
			if backoff < maxReconnectBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := w.consume(ctx, conn); err != nil && ctx.Err() == nil {
			log.Printf("worker: consume loop ended: %v; reconnecting", err)
			_ = conn.Close()
			sleepCtx(ctx, 2*time.Second)
			continue
		}
		_ = conn.Close()
	}

	log.Printf("shutdown requested, waiting up to %s for in-flight events", shutdownTimeout)
	waitDone := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		log.Printf("shutdown timeout reached; exiting with in-flight events")
	}
}

type worker struct {
	processor   workerproc.Processor
	queue       string
	concurrency int
	wg          sync.WaitGroup
}

func (w *worker) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(w.concurrency, 0, false); err != nil {
		log.Printf("worker: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(w.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	deliveries, err := ch.Consume(w.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	sem := make(chan struct{}, w.concurrency)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			select {
			case <-ctx.Done():
				_ = d.Nack(false, true)
				return nil
			case sem <- struct{}{}:
			}
			w.wg.Add(1)
			go func(d amqp.Delivery) {
				defer w.wg.Done()
				defer func() { <-sem }()
				handleDelivery(ctx, w.processor, d)
			}(d)
		}
	}
}

// handleDelivery acks processed and unrecoverable events. Other failures are
// requeued once; a redelivered event that fails again is dropped.
func handleDelivery(ctx context.Context, p workerproc.Processor, d amqp.Delivery) {
	metrics.IncCompletionEventsReceived()
	body := string(d.Body)

	err := workerproc.HandleMessage(ctx, p, body)
	if err == nil {
		metrics.IncCompletionEventsVerified()
		ack(d, baseFields(d, body))
		return
	}

	fields := baseFields(d, body)
	fields["error"] = err.Error()
	var procErr workerproc.ErrProcess
	if errors.As(err, &procErr) {
		fields["resume_id"] = procErr.ResumeID
		if procErr.RequestID != "" {
			fields["request_id"] = procErr.RequestID
		}
	}

	if workerproc.Unrecoverable(err) {
		metrics.IncCompletionEventsRejected()
		telemetry.Error("worker.completion.rejected", fields)
		ack(d, fields)
		return
	}

	requeue := !d.Redelivered
	fields["requeue"] = requeue
	telemetry.Error("worker.completion.failed", fields)
	if !requeue {
		metrics.IncCompletionEventsRejected()
	}
	if nackErr := d.Nack(false, requeue); nackErr != nil {
		fields["ack_error"] = nackErr.Error()
		telemetry.Error("worker.completion.nack_failed", fields)
	}
}

func ack(d amqp.Delivery, fields map[string]any) {
	if err := d.Ack(false); err != nil {
		fields["ack_error"] = err.Error()
		telemetry.Error("worker.completion.ack_failed", fields)
	}
}

func baseFields(d amqp.Delivery, body string) map[string]any {
	meta := workerproc.ComputeMeta(body)
	return map[string]any{
		"delivery_tag": d.DeliveryTag,
		"message_id":   d.MessageId,
		"redelivered":  d.Redelivered,
		"body_len":     meta.BodyLen,
		"body_sha256":  meta.BodySHA,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
