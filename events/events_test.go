package events

import (
	"testing"
	"time"
)

func TestEventBus(t *testing.T) {
	eventBus := NewEventBus()

	id, eventChan := eventBus.Subscribe()

	if count := eventBus.GetTotalSubscriptions(); count != 1 {
		t.Errorf("Expected 1 subscriber, got %d", count)
	}
	if !eventBus.HasSubscriber(id) {
		t.Errorf("Expected subscriber %s to exist", id)
	}
	ids := eventBus.GetSubscriberIDs()
	if len(ids) != 1 || ids[0] != id {
		t.Errorf("Expected subscriber id list [%s], got %v", id, ids)
	}

	event := NewBlockConnected(7, "test-block-hash", "test-root", 3)

	// Publish event in goroutine to avoid blocking
	go func() {
		eventBus.Publish(event)
	}()

	select {
	case receivedEvent := <-eventChan:
		if receivedEvent.Type() != EventBlockConnected {
			t.Errorf("Expected BlockConnected event, got %s", receivedEvent.Type())
		}
		if receivedEvent.BlockHash() != "test-block-hash" {
			t.Errorf("Expected block hash test-block-hash, got %s", receivedEvent.BlockHash())
		}
		connected, ok := receivedEvent.(*BlockConnected)
		if !ok {
			t.Fatalf("Expected *BlockConnected, got %T", receivedEvent)
		}
		if connected.Height() != 7 {
			t.Errorf("Expected height 7, got %d", connected.Height())
		}
		if connected.TxCount() != 3 {
			t.Errorf("Expected 3 transactions, got %d", connected.TxCount())
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	eventBus := NewEventBus()

	id, eventChan := eventBus.Subscribe()

	if !eventBus.Unsubscribe(id) {
		t.Fatal("Expected unsubscribe to succeed")
	}
	if count := eventBus.GetTotalSubscriptions(); count != 0 {
		t.Errorf("Expected 0 subscribers, got %d", count)
	}
	if eventBus.Unsubscribe(id) {
		t.Error("Expected second unsubscribe to fail")
	}

	// Channel must be closed after unsubscribe
	select {
	case _, open := <-eventChan:
		if open {
			t.Error("Expected channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for channel close")
	}
}

func TestEventBusRejectedEvent(t *testing.T) {
	eventBus := NewEventBus()

	_, eventChan := eventBus.Subscribe()

	go func() {
		eventBus.Publish(NewTransactionRejected("tx-hash", "block-hash", "NullifierReuse", "nullifier already revealed"))
	}()

	select {
	case receivedEvent := <-eventChan:
		rejected, ok := receivedEvent.(*TransactionRejected)
		if !ok {
			t.Fatalf("Expected *TransactionRejected, got %T", receivedEvent)
		}
		if rejected.Code() != "NullifierReuse" {
			t.Errorf("Expected code NullifierReuse, got %s", rejected.Code())
		}
		if rejected.TxHash() != "tx-hash" {
			t.Errorf("Expected tx hash tx-hash, got %s", rejected.TxHash())
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
	}
}
