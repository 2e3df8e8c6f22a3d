// Package polling is the polling session scheduler (C12): it drives
// the propagation checker at a cadence until every active record for
// a domain propagates, times out, or is cancelled.
package polling

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dean-jl/dnsengine/internal/model"
	"github.com/dean-jl/dnsengine/internal/propagation"
	"github.com/dean-jl/dnsengine/internal/store"
	"golang.org/x/sync/errgroup"
)

// PropagationChecker is the capability this package depends on;
// satisfied by *propagation.Checker in production, stubbed in tests.
type PropagationChecker interface {
	Check(ctx context.Context, domain string, r model.DNSRecord) model.RecordPropagationStatus
}

// Scheduler is the polling session scheduler (C12).
type Scheduler struct {
	store   store.Storage
	checker PropagationChecker
}

// New constructs a Scheduler over the given store and propagation
// checker.
func New(st store.Storage, checker PropagationChecker) *Scheduler {
	return &Scheduler{store: st, checker: checker}
}

// StartSession returns the domain's existing active session if one is
// already polling (idempotent), otherwise creates a new one with the
// default cadence and horizon (spec.md §4.12 "Creation").
func (s *Scheduler) StartSession(ctx context.Context, domainID, userID string) (model.PollingSession, error) {
	existing, err := s.store.GetActiveSessionForDomain(domainID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return model.PollingSession{}, err
	}

	records, err := s.store.GetActiveRecordsByDomain(domainID)
	if err != nil {
		return model.PollingSession{}, err
	}

	sess := model.PollingSession{
		DomainID:        domainID,
		UserID:          userID,
		Status:          model.SessionPolling,
		CheckIntervalMS: model.DefaultCheckIntervalMS,
		MaxDurationMS:   model.DefaultMaxDurationMS,
		StartedAt:       time.Now(),
		TotalRecords:    len(records),
	}
	return s.store.CreateSession(sess)
}

// CheckProgress runs a single tick for sessionID against domainFQDN,
// the apex name the session's records belong to (spec.md §4.12
// "Tick"). It is safe to call concurrently for the same session — the
// terminal-state guard in step 1 makes repeat ticks on a finished
// session a no-op, and per-record updates are independent.
func (s *Scheduler) CheckProgress(ctx context.Context, sessionID, domainFQDN string) (model.PollingSession, error) {
	sess, err := s.store.GetSession(sessionID)
	if err != nil {
		return model.PollingSession{}, err
	}
	if sess.Status != model.SessionPolling {
		return sess, nil
	}

	now := time.Now()
	if now.Sub(sess.StartedAt) > time.Duration(sess.MaxDurationMS)*time.Millisecond {
		sess.Status = model.SessionTimeout
		sess.CompletedAt = &now
		if err := s.store.UpdateSession(sess); err != nil {
			return model.PollingSession{}, err
		}
		return sess, nil
	}

	records, err := s.store.GetActiveRecordsByDomain(sess.DomainID)
	if err != nil {
		return model.PollingSession{}, err
	}

	statuses := s.checkRecords(ctx, domainFQDN, records)
	if err := s.persistRecordUpdates(ctx, records, statuses); err != nil {
		return model.PollingSession{}, err
	}

	coverage := propagation.CalculateGlobalCoverage(statuses)
	sess.LastCheckedAt = &now
	sess.PropagatedRecords = coverage.FullyPropagated
	sess.OverallProgress = coverage.MeanPercentage
	sess.TotalRecords = len(records)
	if sess.Metadata == nil {
		sess.Metadata = make(map[string]string)
	}
	sess.Metadata["breakdown_full"] = strconv.Itoa(coverage.FullyPropagated)
	sess.Metadata["breakdown_partial"] = strconv.Itoa(coverage.Partial)
	sess.Metadata["breakdown_none"] = strconv.Itoa(coverage.NotPropagated)

	if coverage.MeanPercentage == 100 {
		sess.Status = model.SessionCompleted
		sess.CompletedAt = &now
	} else {
		eta := EstimateCompletion(sess, records, now)
		completion := now.Add(eta.TimeRemaining)
		sess.EstimatedCompletion = &completion
		sess.Metadata["eta_confidence"] = string(eta.Confidence)
	}

	if err := s.store.UpdateSession(sess); err != nil {
		return model.PollingSession{}, err
	}
	return sess, nil
}

// checkRecords runs one C10 check per record concurrently, bounded by
// the number of active records (spec.md §5 "fan-out width is bounded
// by ... active records per domain").
func (s *Scheduler) checkRecords(ctx context.Context, domain string, records []model.DNSRecord) []model.RecordPropagationStatus {
	statuses := make([]model.RecordPropagationStatus, len(records))
	var g errgroup.Group
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			statuses[i] = s.checker.Check(ctx, domain, rec)
			return nil
		})
	}
	_ = g.Wait()
	return statuses
}

// persistRecordUpdates writes each record's derived propagation fields
// in parallel; a single record's store failure does not block the
// others (spec.md §4.12 step 5).
func (s *Scheduler) persistRecordUpdates(ctx context.Context, records []model.DNSRecord, statuses []model.RecordPropagationStatus) error {
	var g errgroup.Group
	for i := range records {
		i := i
		g.Go(func() error {
			rec := records[i]
			status := statuses[i]
			rec.PropagationCoverage = status.PropagationPercentage
			rec.PropagationStatus = propagation.DeterminePropagationStatusEnum(status.PropagationPercentage)
			checkedAt := status.CheckedAt
			rec.LastCheckedAt = &checkedAt
			return s.store.UpdateRecord(rec)
		})
	}
	return g.Wait()
}

// CancelSession marks sessionID cancelled unconditionally (spec.md
// §4.12 "Cancellation"); subsequent ticks observe the terminal status
// and become no-ops.
func (s *Scheduler) CancelSession(ctx context.Context, sessionID string) (model.PollingSession, error) {
	sess, err := s.store.GetSession(sessionID)
	if err != nil {
		return model.PollingSession{}, err
	}
	now := time.Now()
	sess.Status = model.SessionCancelled
	sess.CompletedAt = &now
	if err := s.store.UpdateSession(sess); err != nil {
		return model.PollingSession{}, err
	}
	return sess, nil
}

