package polling

import (
	"time"

	"github.com/dean-jl/dnsengine/internal/model"
)

const (
	etaCacheBuffer         = 15 * time.Minute
	etaDataFloor           = 5 * time.Minute
	etaHighConfidenceAfter = 15 * time.Minute
	ttlEstimateFactor      = 1.5
)

// EstimateCompletion computes the session's completion-time estimate
// per spec.md §4.12 "ETA": under 5 minutes of data it extrapolates
// from the average record TTL, otherwise from the observed
// propagation velocity. A 15-minute cache buffer is always added.
// Terminal sessions have no remaining time.
func EstimateCompletion(sess model.PollingSession, records []model.DNSRecord, now time.Time) model.ETAEstimate {
	if sess.IsTerminal() {
		return model.ETAEstimate{TimeRemaining: 0}
	}

	elapsed := now.Sub(sess.StartedAt)
	if elapsed < etaDataFloor {
		estimate := time.Duration(float64(averageTTL(records)) * ttlEstimateFactor * float64(time.Second))
		return model.ETAEstimate{TimeRemaining: estimate + etaCacheBuffer, Confidence: model.ETALow}
	}

	remainingPercent := 100 - sess.OverallProgress
	if remainingPercent <= 0 {
		return model.ETAEstimate{TimeRemaining: etaCacheBuffer, Confidence: model.ETAHigh}
	}

	velocity := float64(sess.OverallProgress) / elapsed.Minutes() // percent per minute
	confidence := model.ETAMedium
	if elapsed >= etaHighConfidenceAfter {
		confidence = model.ETAHigh
	}
	if velocity <= 0 {
		// No observed progress yet past the data floor: fall back to
		// the TTL-based estimate rather than dividing by zero.
		estimate := time.Duration(float64(averageTTL(records)) * ttlEstimateFactor * float64(time.Second))
		return model.ETAEstimate{TimeRemaining: estimate + etaCacheBuffer, Confidence: confidence}
	}

	minutesRemaining := float64(remainingPercent) / velocity
	return model.ETAEstimate{
		TimeRemaining: time.Duration(minutesRemaining*float64(time.Minute)) + etaCacheBuffer,
		Confidence:    confidence,
	}
}

func averageTTL(records []model.DNSRecord) int {
	if len(records) == 0 {
		return model.DefaultTTL
	}
	sum := 0
	for _, r := range records {
		ttl := r.TTL
		if ttl == 0 {
			ttl = model.DefaultTTL
		}
		sum += ttl
	}
	return sum / len(records)
}
