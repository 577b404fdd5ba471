// Package metrics defines the OpenCensus measures and views recorded by
// the delivery engine. Register DeliveryViews alongside the HTTP and SQL
// views when tracing is enabled.
package metrics

import (
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

// Measures recorded per webhook delivery.
var (
	MDeliveryLatencyMs = stats.Float64(
		"hookline.io/delivery/latency",
		"End to end latency of one webhook delivery attempt",
		stats.UnitMilliseconds)

	MDeliveries = stats.Int64(
		"hookline.io/delivery/count",
		"Webhook delivery attempts completed",
		stats.UnitDimensionless)

	MShipmentsAccepted = stats.Int64(
		"hookline.io/shipment/accepted",
		"Shipments accepted for delivery",
		stats.UnitDimensionless)
)

// KeyOutcome tags delivery measures with the attempt outcome
// (successful, failed or error).
var KeyOutcome = tag.MustNewKey("outcome")

// DeliveryViews aggregates the delivery measures for exporters.
var DeliveryViews = []*view.View{
	{
		Name:        "hookline.io/delivery/latency",
		Description: "Distribution of webhook delivery latency",
		Measure:     MDeliveryLatencyMs,
		Aggregation: view.Distribution(10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000),
		TagKeys:     []tag.Key{KeyOutcome},
	},
	{
		Name:        "hookline.io/delivery/count",
		Description: "Count of completed webhook deliveries",
		Measure:     MDeliveries,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{KeyOutcome},
	},
	{
		Name:        "hookline.io/shipment/accepted",
		Description: "Count of shipments accepted for delivery",
		Measure:     MShipmentsAccepted,
		Aggregation: view.Count(),
	},
}
