package enums

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	allowed := []struct {
		from OrderStatus
		to   OrderStatus
	}{
		{OrderStatusPending, OrderStatusConfirmed},
		{OrderStatusPending, OrderStatusProcessing},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusConfirmed, OrderStatusProcessing},
		{OrderStatusConfirmed, OrderStatusCancelled},
		{OrderStatusProcessing, OrderStatusShipped},
		{OrderStatusProcessing, OrderStatusCancelled},
		{OrderStatusShipped, OrderStatusDelivered},
		{OrderStatusDelivered, OrderStatusReturned},
		{OrderStatusCancelled, OrderStatusRefunded},
		{OrderStatusReturned, OrderStatusRefunded},
	}
	for _, tt := range allowed {
		if !tt.from.CanTransitionTo(tt.to) {
			t.Fatalf("expected %s -> %s to be allowed", tt.from, tt.to)
		}
	}

	denied := []struct {
		from OrderStatus
		to   OrderStatus
	}{
		{OrderStatusPending, OrderStatusDelivered},
		{OrderStatusConfirmed, OrderStatusDelivered},
		{OrderStatusShipped, OrderStatusCancelled},
		{OrderStatusDelivered, OrderStatusPending},
		{OrderStatusRefunded, OrderStatusPending},
		{OrderStatusRefunded, OrderStatusRefunded},
		{OrderStatusCancelled, OrderStatusConfirmed},
	}
	for _, tt := range denied {
		if tt.from.CanTransitionTo(tt.to) {
			t.Fatalf("expected %s -> %s to be rejected", tt.from, tt.to)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if !OrderStatusRefunded.IsTerminal() {
		t.Fatal("REFUNDED should be terminal")
	}
	if OrderStatusDelivered.IsTerminal() {
		t.Fatal("DELIVERED can still move to RETURNED")
	}
	if OrderStatusCancelled.IsTerminal() {
		t.Fatal("CANCELLED can still move to REFUNDED")
	}
}

func TestParseOrderStatus(t *testing.T) {
	if _, err := ParseOrderStatus("SHIPPED"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatal("statuses are upper case on the wire")
	}
	if _, err := ParseOrderStatus("LOST"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
