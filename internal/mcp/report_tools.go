package mcp

import (
	"context"
	"fmt"
	"time"

	"orderbot/internal/ledger"
)

type LocatorReportTool struct {
	locators LocatorReporter
}

func (t *LocatorReportTool) Name() string { return "locator-report" }
func (t *LocatorReportTool) Description() string {
	return `Report which UI locator candidates have been resolving since the bot started.

WHEN TO USE:
- After WhatsApp Web ships markup changes, to see which fallbacks now win
- When sends start failing, to find targets whose every candidate misses

Returns: {winning: [{target, candidate, hits, avg_ms}], misses: {target: n}, strategies: {name/outcome: n}}.`
}
func (t *LocatorReportTool) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"target": stringSchema("Optional target name, e.g. message input; empty reports all"),
	})
}
func (t *LocatorReportTool) Execute(_ context.Context, args map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{
		"winning":    t.locators.WinningCandidates(getStringArg(args, "target")),
		"misses":     t.locators.Misses(),
		"strategies": t.locators.StrategyOutcomes(),
	}, nil
}

type DeliveryJournalTool struct {
	ledger DeliveryLog
	now    func() time.Time
}

func (t *DeliveryJournalTool) Name() string { return "delivery-journal" }
func (t *DeliveryJournalTool) Description() string {
	return `List the delivery attempts recorded for an order.

Order numbers restart every day: pass order_number with an optional day
(YYYY-MM-DD, default today), or the run_id of a single dispatch.

Returns: {day, order_number, deliveries: [{run_id, channel, target, success, detail, created_at}]}.`
}
func (t *DeliveryJournalTool) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"order_number": map[string]interface{}{
			"type":        "integer",
			"description": "Order number of the day",
		},
		"day":    stringSchema("Day of the order, YYYY-MM-DD; defaults to today"),
		"run_id": stringSchema("Dispatch run id; overrides order_number and day"),
	})
}
func (t *DeliveryJournalTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	if runID := getStringArg(args, "run_id"); runID != "" {
		deliveries, err := t.ledger.DeliveriesByRun(ctx, runID)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"run_id": runID, "deliveries": deliveries}, nil
	}

	n := getIntArg(args, "order_number", 0)
	if n <= 0 {
		return nil, fmt.Errorf("order_number must be positive, or pass run_id")
	}
	day := t.now()
	if raw := getStringArg(args, "day"); raw != "" {
		parsed, err := time.ParseInLocation(ledger.DayLayout, raw, time.Local)
		if err != nil {
			return nil, fmt.Errorf("day must be YYYY-MM-DD: %w", err)
		}
		day = parsed
	}
	deliveries, err := t.ledger.Deliveries(ctx, day, n)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"day":          day.Format(ledger.DayLayout),
		"order_number": n,
		"deliveries":   deliveries,
	}, nil
}
