package amqp

import "testing"

func TestTransactionChangedMessageRoundTrip(t *testing.T) {
	msg := NewTransactionChangedMessage("user-1", 2025, 3)
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := TransactionChangedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.OwnerID != "user-1" || got.Year != 2025 || got.Month != 3 {
		t.Fatalf("got %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("timestamp not carried")
	}
}

func TestMailJobMessageRejectsGarbage(t *testing.T) {
	if _, err := MailJobMessageFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected unmarshal error")
	}
}
