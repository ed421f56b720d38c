package enums

import "testing"

func TestParseSubmissionStatus(t *testing.T) {
	got, err := ParseSubmissionStatus("submitted")
	if err != nil || got != SubmissionStatusSubmitted {
		t.Fatalf("expected submitted, got %q err=%v", got, err)
	}
	if _, err := ParseSubmissionStatus("shipped"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if SubmissionStatus("").IsValid() {
		t.Fatal("empty status must be invalid")
	}
}

func TestParseActorRole(t *testing.T) {
	if _, err := ParseActorRole("caregiver"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ActorRole("vendor").IsValid() {
		t.Fatal("vendor is not an actor role")
	}
}

func TestCurrencySymbol(t *testing.T) {
	if CurrencyVND.Symbol() != "₫" {
		t.Fatalf("unexpected VND symbol %q", CurrencyVND.Symbol())
	}
	if _, err := ParseCurrency("USD"); err == nil {
		t.Fatal("USD is not supported")
	}
}

func TestOutboxEnums(t *testing.T) {
	if got, err := ParseOutboxEventType("checkout_submitted"); err != nil || got != EventCheckoutSubmitted {
		t.Fatalf("unexpected event type %q err=%v", got, err)
	}
	if _, err := ParseOutboxAggregateType("vendor_order"); err == nil {
		t.Fatal("vendor_order is not an aggregate here")
	}
	if !OutboxDLQReasonMaxAttempts.IsValid() || OutboxDLQErrorReason("timeout").IsValid() {
		t.Fatal("unexpected dlq reason validity")
	}
}
