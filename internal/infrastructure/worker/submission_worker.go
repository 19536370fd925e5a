// Package worker provides background submission of finalized orders to the
// excise service.
package worker

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mirumee/avatax-excise/internal/domain/commerce"
	"github.com/mirumee/avatax-excise/internal/domain/tax"
	"github.com/mirumee/avatax-excise/internal/infrastructure/telemetry"
)

var (
	// ErrQueueFull is returned when the submission queue cannot accept more orders
	ErrQueueFull = errors.New("worker: submission queue is full")
	// ErrNotRunning is returned when enqueueing before Start or after Stop
	ErrNotRunning = errors.New("worker: submission worker is not running")
)

// SubmissionWorkerConfig holds configuration for the submission worker
type SubmissionWorkerConfig struct {
	// QueueSize bounds the number of orders waiting for submission
	QueueSize int
	// MaxAttempts is how often a submission is tried before giving up
	MaxAttempts int
	// RetryBackoff is the pause between submission attempts
	RetryBackoff time.Duration
	// Autocommit commits each accepted transaction right after creation
	Autocommit bool
}

// DefaultSubmissionWorkerConfig returns default configuration
func DefaultSubmissionWorkerConfig() SubmissionWorkerConfig {
	return SubmissionWorkerConfig{
		QueueSize:    100,
		MaxAttempts:  5,
		RetryBackoff: 60 * time.Second,
	}
}

// SubmissionWorker submits finalized orders to the excise service in the
// background. Each order is retried with a fixed backoff; the outcome is
// journaled so nothing is lost when retries are exhausted.
type SubmissionWorker struct {
	calculator tax.Calculator
	journal    tax.TransactionJournal
	config     SubmissionWorkerConfig
	logger     *zap.Logger

	queue   chan *commerce.Order
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewSubmissionWorker creates a new submission worker
func NewSubmissionWorker(
	calculator tax.Calculator,
	journal tax.TransactionJournal,
	config SubmissionWorkerConfig,
	logger *zap.Logger,
) *SubmissionWorker {
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = 60 * time.Second
	}

	return &SubmissionWorker{
		calculator: calculator,
		journal:    journal,
		config:     config,
		logger:     logger,
		queue:      make(chan *commerce.Order, config.QueueSize),
	}
}

// Start starts the background submission loop
func (w *SubmissionWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Info("submission worker started",
		zap.Int("queue_size", w.config.QueueSize),
		zap.Int("max_attempts", w.config.MaxAttempts),
		zap.Duration("retry_backoff", w.config.RetryBackoff),
		zap.Bool("autocommit", w.config.Autocommit),
	)
	return nil
}

// Stop gracefully stops the worker, waiting for the in-flight submission
func (w *SubmissionWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("submission worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue queues an order for submission without blocking. A full queue is an
// error the caller must surface, orders must never be dropped silently.
func (w *SubmissionWorker) Enqueue(ctx context.Context, order *commerce.Order) error {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()
	if !running {
		return ErrNotRunning
	}

	select {
	case w.queue <- order:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// run is the main submission loop
func (w *SubmissionWorker) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case order := <-w.queue:
			w.submit(ctx, order)
		}
	}
}

// submit tries to create (and optionally commit) the excise transaction for
// one order, retrying transient failures with a fixed backoff
func (w *SubmissionWorker) submit(ctx context.Context, order *commerce.Order) {
	ctx, span := telemetry.StartSpan(ctx, "worker.submit_order",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, order.ID),
	)
	defer span.End()

	var lastErr error
	attempts := 0

	for attempts < w.config.MaxAttempts {
		attempts++

		result, err := w.calculator.CalculateOrder(ctx, order)
		if err == nil {
			w.recordSuccess(ctx, order, result, attempts)
			return
		}
		lastErr = err

		w.logger.Warn("order submission attempt failed",
			zap.Int64("order_id", order.ID),
			zap.Int("attempt", attempts),
			zap.Error(err),
		)

		if !isRetryable(err) {
			break
		}
		if attempts >= w.config.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			w.recordFailure(ctx, order, attempts, ctx.Err())
			return
		case <-time.After(w.config.RetryBackoff):
		}
	}

	telemetry.RecordError(span, lastErr)
	w.recordFailure(ctx, order, attempts, lastErr)
}

// recordSuccess journals the accepted transaction and runs the optional
// autocommit. A failed commit keeps the SUCCEEDED status so the transaction
// can be committed out of band.
func (w *SubmissionWorker) recordSuccess(ctx context.Context, order *commerce.Order, result *tax.CalculationResult, attempts int) {
	record := &tax.TransactionRecord{
		Kind:              tax.TransactionKindOrder,
		Token:             order.Token.String(),
		InvoiceNumber:     strconv.FormatInt(order.ID, 10),
		Status:            tax.TransactionStatusSucceeded,
		TotalTaxAmount:    result.TotalTaxAmount,
		ItemizedTaxesJSON: result.ItemizedTaxesJSON,
		UserTranID:        result.UserTranID,
		Attempts:          attempts,
	}

	if w.config.Autocommit && result.UserTranID != "" {
		if err := w.calculator.CommitTransaction(ctx, result.UserTranID); err != nil {
			w.logger.Error("failed to commit excise transaction",
				zap.Int64("order_id", order.ID),
				zap.String("user_tran_id", result.UserTranID),
				zap.Error(err),
			)
			record.LastError = err.Error()
		} else {
			record.Status = tax.TransactionStatusCommitted
		}
	}

	if err := w.journal.Record(ctx, record); err != nil {
		w.logger.Error("failed to journal order submission",
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
		return
	}

	w.logger.Info("order submitted to excise service",
		zap.Int64("order_id", order.ID),
		zap.String("user_tran_id", result.UserTranID),
		zap.String("status", string(record.Status)),
		zap.Int("attempts", attempts),
	)
}

// recordFailure journals an exhausted submission
func (w *SubmissionWorker) recordFailure(ctx context.Context, order *commerce.Order, attempts int, lastErr error) {
	record := &tax.TransactionRecord{
		Kind:          tax.TransactionKindOrder,
		Token:         order.Token.String(),
		InvoiceNumber: strconv.FormatInt(order.ID, 10),
		Status:        tax.TransactionStatusFailed,
		Attempts:      attempts,
	}
	if lastErr != nil {
		record.LastError = lastErr.Error()
	}

	if err := w.journal.Record(ctx, record); err != nil {
		w.logger.Error("failed to journal submission failure",
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
	}

	w.logger.Error("order submission abandoned",
		zap.Int64("order_id", order.ID),
		zap.Int("attempts", attempts),
		zap.Error(lastErr),
	)
}

// isRetryable reports whether a submission error can heal on its own.
// Bad addresses, empty transactions and rejected credentials will fail the
// same way on every attempt.
func isRetryable(err error) bool {
	return errors.Is(err, tax.ErrServiceUnavailable) || errors.Is(err, tax.ErrInvalidResponse)
}
