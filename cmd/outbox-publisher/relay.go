package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medibook/medibook-backend/pkg/config"
	"github.com/medibook/medibook-backend/pkg/db/models"
	"github.com/medibook/medibook-backend/pkg/enums"
	"github.com/medibook/medibook-backend/pkg/logger"
	"github.com/medibook/medibook-backend/pkg/outbox/payloads"
	"github.com/medibook/medibook-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize   = 50
	defaultPollMs      = 500
	defaultMaxAttempts = 10
	sendTimeout        = 15 * time.Second
	maxBackoff         = 10 * time.Second
	jitterWindow       = 250 * time.Millisecond
)

// Message attributes read by the payment service without decoding the body.
const (
	attrEventID      = "event_id"
	attrEventType    = "event_type"
	attrSubmissionID = "submission_id"
	attrOwnerID      = "owner_id"
	attrCurrency     = "currency"
	attrTotal        = "total"
	attrItemCount    = "item_count"
	attrOccurredAt   = "occurred_at"
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type txStore interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pinger interface {
	Ping(context.Context) error
}

type outboxRows interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type deadLetters interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type eventResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// checkoutSink delivers one message and waits for the broker ack.
type checkoutSink interface {
	Send(ctx context.Context, msg *gcppubsub.Message) error
}

type relayParams struct {
	Outbox      config.OutboxConfig
	Logger      *logger.Logger
	Store       txStore
	Broker      pinger
	Rows        outboxRows
	DeadLetters deadLetters
	Events      eventResolver
	Sink        checkoutSink
}

// relay moves checkout_submitted rows from the outbox to the payment topic.
// Messages for one owner share an ordering key, so the payment service sees
// a patient's checkouts in submission order.
type relay struct {
	logg        *logger.Logger
	store       txStore
	broker      pinger
	rows        outboxRows
	dlq         deadLetters
	events      eventResolver
	sink        checkoutSink
	batchSize   int
	maxAttempts int
	poll        time.Duration
}

func newRelay(p relayParams) (*relay, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	case p.Store == nil:
		return nil, errors.New("database client is required")
	case p.Broker == nil:
		return nil, errors.New("pubsub client is required")
	case p.Rows == nil:
		return nil, errors.New("outbox repository is required")
	case p.DeadLetters == nil:
		return nil, errors.New("dlq repository is required")
	case p.Events == nil:
		return nil, errors.New("event registry is required")
	case p.Sink == nil:
		return nil, errors.New("checkout sink is required")
	}

	r := &relay{
		logg:        p.Logger,
		store:       p.Store,
		broker:      p.Broker,
		rows:        p.Rows,
		dlq:         p.DeadLetters,
		events:      p.Events,
		sink:        p.Sink,
		batchSize:   p.Outbox.BatchSize,
		maxAttempts: p.Outbox.MaxAttempts,
		poll:        time.Duration(p.Outbox.PollIntervalMS) * time.Millisecond,
	}
	if r.batchSize <= 0 {
		r.batchSize = defaultBatchSize
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = defaultMaxAttempts
	}
	if r.poll <= 0 {
		r.poll = defaultPollMs * time.Millisecond
	}
	return r, nil
}

func (r *relay) run(ctx context.Context) error {
	if err := r.store.Ping(ctx); err != nil {
		r.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := r.broker.Ping(ctx); err != nil {
		r.logg.Error(ctx, "pubsub ping failed", err)
		return fmt.Errorf("pubsub ping failed: %w", err)
	}

	wait := r.poll
	for {
		if err := ctx.Err(); err != nil {
			r.logg.Info(ctx, "checkout relay stopping")
			return err
		}

		settled, err := r.drain(ctx)
		switch {
		case err != nil:
			r.logg.Error(ctx, "checkout relay batch failed", err)
			wait = nextBackoff(wait, r.poll, maxBackoff)
		case settled > 0:
			wait = r.poll
			continue
		default:
			wait = r.poll
		}

		if err := sleepCtx(ctx, withJitter(wait)); err != nil {
			return err
		}
	}
}

// drain relays one batch inside a single transaction and returns how many
// rows left the queue. Rows queued behind a failed delivery for the same
// owner are left for the next batch.
func (r *relay) drain(ctx context.Context) (int, error) {
	settled := 0
	err := r.store.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := r.rows.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return err
		}
		held := make(map[string]struct{})
		for _, row := range rows {
			done, err := r.relayRow(ctx, tx, row, held)
			if err != nil {
				return err
			}
			if done {
				settled++
			}
		}
		return nil
	})
	return settled, err
}

// relayRow reports whether the row left the queue. A returned error aborts
// the batch transaction.
func (r *relay) relayRow(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, held map[string]struct{}) (bool, error) {
	ctx = r.logg.WithFields(ctx, map[string]any{
		"outbox_id":     row.ID.String(),
		"submission_id": row.AggregateID.String(),
		"attempt_count": row.AttemptCount,
	})

	resolved, err := r.events.Resolve(row)
	if err != nil {
		return true, r.deadLetter(ctx, tx, row, enums.OutboxDLQReasonNonRetryable, err)
	}
	msg, err := checkoutMessage(row, resolved)
	if err != nil {
		return true, r.deadLetter(ctx, tx, row, enums.OutboxDLQReasonNonRetryable, err)
	}

	owner := msg.OrderingKey
	ctx = r.logg.WithCartOwner(ctx, owner)
	if _, blocked := held[owner]; blocked {
		r.logg.Debug(ctx, "checkout event held behind earlier failure")
		return false, nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	sendErr := r.sink.Send(sendCtx, msg)
	cancel()

	if sendErr == nil {
		if err := r.rows.MarkPublishedTx(tx, row.ID); err != nil {
			return false, fmt.Errorf("mark published %s: %w", row.ID, err)
		}
		r.logg.Info(ctx, "checkout event published")
		return true, nil
	}

	var nonRetry registry.NonRetryableError
	if errors.As(sendErr, &nonRetry) {
		return true, r.deadLetter(ctx, tx, row, enums.OutboxDLQReasonNonRetryable, sendErr)
	}

	held[owner] = struct{}{}
	if row.AttemptCount+1 >= r.maxAttempts {
		return true, r.deadLetter(ctx, tx, row, enums.OutboxDLQReasonMaxAttempts, fmt.Errorf("max publish attempts reached: %w", sendErr))
	}
	r.logg.Warn(r.logg.WithField(ctx, "error", sendErr.Error()), "checkout event publish failed")
	if err := r.rows.MarkFailedTx(tx, row.ID, sendErr); err != nil {
		return false, fmt.Errorf("mark failure %s: %w", row.ID, err)
	}
	return false, nil
}

func (r *relay) deadLetter(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) error {
	message := cause.Error()
	r.logg.Warn(r.logg.WithFields(ctx, map[string]any{
		"error_reason": reason,
		"error":        message,
	}), "checkout event dead-lettered")

	entry := models.OutboxDLQ{
		EventID:       row.ID,
		EventType:     row.EventType,
		AggregateType: row.AggregateType,
		AggregateID:   row.AggregateID,
		Payload:       row.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &message,
		AttemptCount:  row.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if err := r.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", row.ID, err)
	}
	if err := r.rows.MarkTerminalTx(tx, row.ID, cause, r.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", row.ID, err)
	}
	return nil
}

// checkoutMessage maps a resolved row onto the message the payment service
// consumes. The stored envelope goes out unchanged as the body.
func checkoutMessage(row models.OutboxEvent, resolved *registry.ResolvedEvent) (*gcppubsub.Message, error) {
	event, ok := resolved.Payload.(*payloads.CheckoutSubmittedEvent)
	if !ok || event == nil {
		return nil, registry.NewNonRetryableError(fmt.Errorf("unexpected payload %T for %s", resolved.Payload, row.EventType))
	}

	owner := strings.TrimSpace(event.OwnerID)
	if owner == "" && resolved.Envelope.Actor != nil {
		owner = strings.TrimSpace(resolved.Envelope.Actor.OwnerID)
	}
	if owner == "" {
		return nil, registry.NewNonRetryableError(errors.New("checkout event has no owner"))
	}
	if event.SubmissionID != uuid.Nil && event.SubmissionID != row.AggregateID {
		return nil, registry.NewNonRetryableError(fmt.Errorf("submission %s does not match aggregate %s", event.SubmissionID, row.AggregateID))
	}

	occurred := resolved.Envelope.OccurredAt
	if occurred.IsZero() {
		occurred = row.CreatedAt
	}

	return &gcppubsub.Message{
		Data:        row.Payload,
		OrderingKey: owner,
		Attributes: map[string]string{
			attrEventID:      resolved.Envelope.EventID,
			attrEventType:    string(row.EventType),
			attrSubmissionID: row.AggregateID.String(),
			attrOwnerID:      owner,
			attrCurrency:     event.Currency.String(),
			attrTotal:        strconv.FormatInt(event.Total, 10),
			attrItemCount:    strconv.Itoa(len(event.Items)),
			attrOccurredAt:   occurred.UTC().Format(time.RFC3339Nano),
		},
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	if next := current * 2; next < max {
		return next
	}
	return max
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}

// topicSink publishes with message ordering enabled. A failed publish pauses
// its ordering key inside the client, so the key is resumed for the retry.
type topicSink struct {
	pub *gcppubsub.Publisher
}

func newTopicSink(pub *gcppubsub.Publisher) (*topicSink, error) {
	if pub == nil {
		return nil, errors.New("checkout publisher not configured")
	}
	pub.EnableMessageOrdering = true
	return &topicSink{pub: pub}, nil
}

func (s *topicSink) Send(ctx context.Context, msg *gcppubsub.Message) error {
	if _, err := s.pub.Publish(ctx, msg).Get(ctx); err != nil {
		if msg.OrderingKey != "" {
			s.pub.ResumePublish(msg.OrderingKey)
		}
		return err
	}
	return nil
}

// Stop flushes outstanding messages.
func (s *topicSink) Stop() {
	s.pub.Stop()
}
