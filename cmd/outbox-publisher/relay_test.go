package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medibook/medibook-backend/pkg/config"
	"github.com/medibook/medibook-backend/pkg/db/models"
	"github.com/medibook/medibook-backend/pkg/enums"
	"github.com/medibook/medibook-backend/pkg/logger"
	"github.com/medibook/medibook-backend/pkg/outbox"
	"github.com/medibook/medibook-backend/pkg/outbox/payloads"
	"github.com/medibook/medibook-backend/pkg/outbox/registry"
)

func TestRelayPublishesCheckoutKeyedByOwner(t *testing.T) {
	row := checkoutRow(t, "patient-1", 0)
	row.CreatedAt = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	rows := &fakeRows{events: []models.OutboxEvent{row}}
	sink := &fakeSink{}
	r := newTestRelay(t, rows, sink, &fakeDLQ{}, nil)

	settled, err := r.drain(context.Background())
	if err != nil {
		t.Fatalf("drain returned error: %v", err)
	}
	if settled != 1 {
		t.Fatalf("expected one settled row, got %d", settled)
	}
	if len(sink.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(sink.sent))
	}
	msg := sink.sent[0]
	if msg.OrderingKey != "patient-1" {
		t.Fatalf("expected ordering key patient-1, got %q", msg.OrderingKey)
	}
	want := map[string]string{
		attrEventType:    "checkout_submitted",
		attrSubmissionID: row.AggregateID.String(),
		attrOwnerID:      "patient-1",
		attrCurrency:     "VND",
		attrTotal:        "60000",
		attrItemCount:    "1",
		attrOccurredAt:   "2026-03-01T08:00:00Z",
	}
	for key, value := range want {
		if msg.Attributes[key] != value {
			t.Fatalf("attribute %s: expected %q got %q", key, value, msg.Attributes[key])
		}
	}
	if msg.Attributes[attrEventID] == "" {
		t.Fatalf("expected event_id attribute")
	}
	if !bytes.Equal(msg.Data, row.Payload) {
		t.Fatalf("message data should be the stored envelope")
	}
	if len(rows.published) != 1 || rows.published[0] != row.ID {
		t.Fatalf("expected row marked published, got %v", rows.published)
	}
}

func TestRelayHoldsOwnerBehindFailedDelivery(t *testing.T) {
	first := checkoutRow(t, "patient-1", 0)
	second := checkoutRow(t, "patient-1", 0)
	other := checkoutRow(t, "patient-2", 0)
	rows := &fakeRows{events: []models.OutboxEvent{first, second, other}}
	sink := &fakeSink{errs: []error{errors.New("transient")}}
	r := newTestRelay(t, rows, sink, &fakeDLQ{}, nil)

	settled, err := r.drain(context.Background())
	if err != nil {
		t.Fatalf("drain returned error: %v", err)
	}
	if settled != 1 {
		t.Fatalf("expected only the other owner's row to settle, got %d", settled)
	}
	if len(sink.sent) != 2 {
		t.Fatalf("held row must not be sent, sent=%d", len(sink.sent))
	}
	if sink.sent[1].OrderingKey != "patient-2" {
		t.Fatalf("expected patient-2 delivered, got %q", sink.sent[1].OrderingKey)
	}
	if len(rows.failed) != 1 || rows.failed[0] != first.ID {
		t.Fatalf("expected first row marked failed, got %v", rows.failed)
	}
	if len(rows.published) != 1 || rows.published[0] != other.ID {
		t.Fatalf("expected other owner published, got %v", rows.published)
	}
}

func TestRelayDeadLettersUnresolvableRow(t *testing.T) {
	row := checkoutRow(t, "patient-1", 0)
	row.EventType = enums.OutboxEventType("cart_abandoned")
	rows := &fakeRows{events: []models.OutboxEvent{row}}
	dlq := &fakeDLQ{}
	sink := &fakeSink{}
	r := newTestRelay(t, rows, sink, dlq, nil)

	settled, err := r.drain(context.Background())
	if err != nil {
		t.Fatalf("drain returned error: %v", err)
	}
	if settled != 1 {
		t.Fatalf("dead-lettered row should leave the queue")
	}
	if len(sink.sent) != 0 {
		t.Fatalf("unresolvable row must not be sent")
	}
	if len(dlq.entries) != 1 {
		t.Fatalf("expected dlq entry, got %d", len(dlq.entries))
	}
	entry := dlq.entries[0]
	if entry.EventID != row.ID || !bytes.Equal(entry.Payload, row.Payload) {
		t.Fatalf("dlq entry does not mirror the row: %+v", entry)
	}
	if entry.ErrorReason != enums.OutboxDLQReasonNonRetryable {
		t.Fatalf("unexpected error reason: %s", entry.ErrorReason)
	}
	if len(rows.terminal) != 1 {
		t.Fatalf("expected row marked terminal")
	}
}

func TestRelayDeadLettersCheckoutWithoutOwner(t *testing.T) {
	row := checkoutRow(t, "", 0)
	rows := &fakeRows{events: []models.OutboxEvent{row}}
	dlq := &fakeDLQ{}
	sink := &fakeSink{}
	r := newTestRelay(t, rows, sink, dlq, nil)

	if _, err := r.drain(context.Background()); err != nil {
		t.Fatalf("drain returned error: %v", err)
	}
	if len(sink.sent) != 0 {
		t.Fatalf("ownerless checkout must not be sent")
	}
	if len(dlq.entries) != 1 || dlq.entries[0].ErrorReason != enums.OutboxDLQReasonNonRetryable {
		t.Fatalf("expected non-retryable dlq entry, got %+v", dlq.entries)
	}
}

func TestRelayDeadLettersOnMaxAttempts(t *testing.T) {
	row := checkoutRow(t, "patient-1", 1)
	rows := &fakeRows{events: []models.OutboxEvent{row}}
	dlq := &fakeDLQ{}
	sink := &fakeSink{errs: []error{errors.New("transient")}}
	r := newTestRelay(t, rows, sink, dlq, &config.OutboxConfig{
		BatchSize:      1,
		PollIntervalMS: 100,
		MaxAttempts:    2,
	})

	if _, err := r.drain(context.Background()); err != nil {
		t.Fatalf("drain returned error: %v", err)
	}
	if len(dlq.entries) != 1 {
		t.Fatalf("expected dlq entry, got %d", len(dlq.entries))
	}
	if dlq.entries[0].ErrorReason != enums.OutboxDLQReasonMaxAttempts {
		t.Fatalf("unexpected error reason: %s", dlq.entries[0].ErrorReason)
	}
	if len(rows.failed) != 0 {
		t.Fatalf("terminal row should not be marked failed")
	}
}

func TestRelayDeadLettersNonRetryableSend(t *testing.T) {
	row := checkoutRow(t, "patient-1", 0)
	rows := &fakeRows{events: []models.OutboxEvent{row}}
	dlq := &fakeDLQ{}
	sink := &fakeSink{errs: []error{registry.NewNonRetryableError(errors.New("topic deleted"))}}
	r := newTestRelay(t, rows, sink, dlq, nil)

	if _, err := r.drain(context.Background()); err != nil {
		t.Fatalf("drain returned error: %v", err)
	}
	if len(dlq.entries) != 1 || dlq.entries[0].ErrorReason != enums.OutboxDLQReasonNonRetryable {
		t.Fatalf("expected non-retryable dlq entry, got %+v", dlq.entries)
	}
}

func TestCheckoutMessageFallsBackToActorOwner(t *testing.T) {
	id := uuid.New()
	resolved := &registry.ResolvedEvent{
		Envelope: outbox.PayloadEnvelope{
			EventID: "evt-1",
			Actor:   &outbox.ActorRef{UserID: "caregiver-1", OwnerID: "patient-9"},
		},
		Payload: &payloads.CheckoutSubmittedEvent{SubmissionID: id, Currency: enums.CurrencyVND},
	}
	row := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventCheckoutSubmitted, AggregateID: id, CreatedAt: time.Now()}

	msg, err := checkoutMessage(row, resolved)
	if err != nil {
		t.Fatalf("checkout message: %v", err)
	}
	if msg.OrderingKey != "patient-9" || msg.Attributes[attrOwnerID] != "patient-9" {
		t.Fatalf("expected actor owner, got key=%q attrs=%v", msg.OrderingKey, msg.Attributes)
	}

	row.AggregateID = uuid.New()
	if _, err := checkoutMessage(row, resolved); err == nil {
		t.Fatalf("expected mismatched submission id to be rejected")
	}
}

func TestNewRelayRequiresSink(t *testing.T) {
	_, err := newRelay(relayParams{
		Logger:      logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		Store:       &fakeDB{},
		Broker:      &fakeDB{},
		Rows:        &fakeRows{},
		DeadLetters: &fakeDLQ{},
		Events:      mustRegistry(t),
	})
	if err == nil {
		t.Fatalf("expected error without a sink")
	}
}

func TestRelayRunStopsOnCancel(t *testing.T) {
	r := newTestRelay(t, &fakeRows{}, &fakeSink{}, &fakeDLQ{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNextBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	if got := nextBackoff(0, base, time.Second); got != 200*time.Millisecond {
		t.Fatalf("unexpected backoff %s", got)
	}
	if got := nextBackoff(800*time.Millisecond, base, time.Second); got != time.Second {
		t.Fatalf("backoff should cap, got %s", got)
	}
}

func newTestRelay(t *testing.T, rows outboxRows, sink checkoutSink, dlq deadLetters, override *config.OutboxConfig) *relay {
	t.Helper()
	outboxCfg := config.OutboxConfig{BatchSize: 10, PollIntervalMS: 100, MaxAttempts: 5}
	if override != nil {
		outboxCfg = *override
	}
	r, err := newRelay(relayParams{
		Outbox:      outboxCfg,
		Logger:      logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		Store:       &fakeDB{},
		Broker:      &fakeDB{},
		Rows:        rows,
		DeadLetters: dlq,
		Events:      mustRegistry(t),
		Sink:        sink,
	})
	if err != nil {
		t.Fatalf("failed to construct relay: %v", err)
	}
	return r
}

func mustRegistry(t *testing.T) *registry.EventRegistry {
	t.Helper()
	reg, err := registry.NewEventRegistry(config.PubSubConfig{CheckoutTopic: "checkout-submissions"})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

// checkoutRow builds an outbox row shaped like the one checkout submission writes.
func checkoutRow(t *testing.T, ownerID string, attempts int) models.OutboxEvent {
	t.Helper()
	submissionID := uuid.New()
	data, err := json.Marshal(payloads.CheckoutSubmittedEvent{
		SubmissionID: submissionID,
		OwnerID:      ownerID,
		Currency:     enums.CurrencyVND,
		Total:        60000,
		Items: []payloads.CheckoutItem{
			{ItemReference: "p-1:box", ItemName: "Paracetamol", Quantity: 2, Price: 30000},
		},
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version: 1,
		EventID: uuid.NewString(),
		Data:    data,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventCheckoutSubmitted,
		AggregateType: enums.AggregateCheckoutSubmission,
		AggregateID:   submissionID,
		Payload:       envelope,
		AttemptCount:  attempts,
		CreatedAt:     time.Now(),
	}
}

type fakeRows struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (f *fakeRows) FetchUnpublishedForPublish(_ *gorm.DB, _, _ int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRows) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRows) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRows) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDB struct{}

func (f *fakeDB) Ping(context.Context) error {
	return nil
}

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakeSink struct {
	errs []error
	sent []*gcppubsub.Message
}

func (f *fakeSink) Send(_ context.Context, msg *gcppubsub.Message) error {
	f.sent = append(f.sent, msg)
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

type fakeDLQ struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQ) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}
