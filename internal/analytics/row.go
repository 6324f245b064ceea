package analytics

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/shopvite/shopvite-backend/pkg/enums"
	"github.com/shopvite/shopvite-backend/pkg/outbox"
)

// OrderEventRow is one row in the order_events BigQuery table. Every outbox
// event that touches an order or a payment lands here; the raw payload rides
// along as JSON for ad-hoc analysis.
type OrderEventRow struct {
	EventID       string             `bigquery:"event_id"`
	EventType     string             `bigquery:"event_type"`
	AggregateType string             `bigquery:"aggregate_type"`
	AggregateID   string             `bigquery:"aggregate_id"`
	OccurredAt    time.Time          `bigquery:"occurred_at"`
	OrderID       *string            `bigquery:"order_id"`
	UserID        *string            `bigquery:"user_id"`
	OrderNumber   *int64             `bigquery:"order_number"`
	Status        *string            `bigquery:"status"`
	AmountCents   *int64             `bigquery:"amount_cents"`
	Currency      *string            `bigquery:"currency"`
	Payload       cbigquery.NullJSON `bigquery:"payload"`
}

// BuildOrderEventRow flattens an outbox envelope into a BigQuery row.
func BuildOrderEventRow(eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID string, envelope outbox.PayloadEnvelope) (*OrderEventRow, error) {
	payload := map[string]any{}
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		if payload == nil {
			payload = map[string]any{}
		}
	}

	payloadJSON := cbigquery.NullJSON{}
	if len(envelope.Data) > 0 {
		payloadJSON.Valid = true
		payloadJSON.JSONVal = string(envelope.Data)
	}

	row := &OrderEventRow{
		EventID:       envelope.EventID,
		EventType:     string(eventType),
		AggregateType: string(aggregateType),
		AggregateID:   aggregateID,
		OccurredAt:    envelope.OccurredAt.UTC(),
		OrderID:       stringField(payload, "order_id"),
		UserID:        stringField(payload, "user_id"),
		OrderNumber:   intField(payload, "order_number"),
		Currency:      stringField(payload, "currency"),
	}

	switch eventType {
	case enums.EventOrderCreated:
		row.AmountCents = intField(payload, "total_cents")
		status := string(enums.OrderStatusPending)
		row.Status = &status
	case enums.EventOrderStatusChanged:
		row.Status = stringField(payload, "to_status")
	case enums.EventPaymentSucceeded, enums.EventPaymentFailed:
		row.AmountCents = intField(payload, "amount_cents")
		row.Status = stringField(payload, "status")
	}

	row.Payload = payloadJSON
	return row, nil
}

func stringField(payload map[string]any, key string) *string {
	raw, ok := payload[key]
	if !ok {
		return nil
	}
	str, ok := raw.(string)
	if !ok {
		return nil
	}
	trimmed := strings.TrimSpace(str)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func intField(payload map[string]any, key string) *int64 {
	raw, ok := payload[key]
	if !ok {
		return nil
	}
	// JSON numbers decode as float64.
	num, ok := raw.(float64)
	if !ok {
		return nil
	}
	value := int64(num)
	return &value
}
