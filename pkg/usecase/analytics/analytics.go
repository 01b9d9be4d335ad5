// Package analytics derives aggregate metrics over the item collection and
// caches them with bounded staleness.
package analytics

import (
	"time"

	"github.com/m-mizutani/winnow/pkg/model"
)

// Calculate computes a fresh snapshot over the given items. It is a pure
// function; missing numeric fields count as zero rather than erroring.
func Calculate(items []*model.Item) *model.AnalyticsSnapshot {
	snapshot := &model.AnalyticsSnapshot{
		TotalItems:  len(items),
		LastUpdated: time.Now(),
	}

	var totalResponseMs float64
	var timedItems int

	for _, item := range items {
		switch {
		case item.Failed():
			snapshot.ErrorItems++
		case item.Completed():
			snapshot.CompletedItems++
		}

		snapshot.TotalTokens += item.Tokens()
		snapshot.TotalCost += item.TotalCost()

		if item.ResponseTimeMs > 0 {
			totalResponseMs += item.ResponseTimeMs
			timedItems++
		}
	}

	if timedItems > 0 {
		snapshot.AvgResponseTimeMs = totalResponseMs / float64(timedItems)
	}
	if snapshot.TotalItems > 0 {
		snapshot.SuccessRate = float64(snapshot.CompletedItems) / float64(snapshot.TotalItems) * 100
	}

	return snapshot
}
