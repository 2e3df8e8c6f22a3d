package polling

import (
	"context"
	"testing"
	"time"

	"github.com/dean-jl/dnsengine/internal/model"
	"github.com/dean-jl/dnsengine/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	percentage int
}

func (c stubChecker) Check(ctx context.Context, domain string, r model.DNSRecord) model.RecordPropagationStatus {
	return model.RecordPropagationStatus{
		RecordID:              r.ID,
		TotalServers:          6,
		PropagatedServers:     c.percentage * 6 / 100,
		PropagationPercentage: c.percentage,
		CheckedAt:             time.Now(),
	}
}

func newTestStore(t *testing.T) store.Storage {
	t.Helper()
	s, err := store.NewStorage("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedActiveRecord(t *testing.T, st store.Storage, domainID string) model.DNSRecord {
	t.Helper()
	rec, err := st.CreateRecord(model.DNSRecord{DomainID: domainID, Type: model.RecordTypeTXT, Purpose: model.PurposeSPF, Status: model.RecordStatusActive, TTL: 3600})
	require.NoError(t, err)
	return rec
}

func TestStartSessionIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	seedActiveRecord(t, st, "dom1")
	s := New(st, stubChecker{})

	first, err := s.StartSession(context.Background(), "dom1", "user1")
	require.NoError(t, err)

	second, err := s.StartSession(context.Background(), "dom1", "user1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, second.TotalRecords)
}

func TestCheckProgressCompletesAt100Percent(t *testing.T) {
	st := newTestStore(t)
	seedActiveRecord(t, st, "dom1")
	s := New(st, stubChecker{percentage: 100})

	sess, err := s.StartSession(context.Background(), "dom1", "user1")
	require.NoError(t, err)

	updated, err := s.CheckProgress(context.Background(), sess.ID, "example.com")
	require.NoError(t, err)

	assert.Equal(t, model.SessionCompleted, updated.Status)
	assert.NotNil(t, updated.CompletedAt)
	assert.Equal(t, 100, updated.OverallProgress)
}

func TestCheckProgressStaysPollingBelow100(t *testing.T) {
	st := newTestStore(t)
	seedActiveRecord(t, st, "dom1")
	s := New(st, stubChecker{percentage: 50})

	sess, err := s.StartSession(context.Background(), "dom1", "user1")
	require.NoError(t, err)

	updated, err := s.CheckProgress(context.Background(), sess.ID, "example.com")
	require.NoError(t, err)

	assert.Equal(t, model.SessionPolling, updated.Status)
	assert.Nil(t, updated.CompletedAt)
	assert.NotNil(t, updated.EstimatedCompletion)
}

func TestCheckProgressTimesOut(t *testing.T) {
	st := newTestStore(t)
	seedActiveRecord(t, st, "dom1")
	s := New(st, stubChecker{percentage: 50})

	sess, err := s.StartSession(context.Background(), "dom1", "user1")
	require.NoError(t, err)
	sess.StartedAt = time.Now().Add(-49 * time.Hour)
	sess.MaxDurationMS = model.DefaultMaxDurationMS
	require.NoError(t, st.UpdateSession(sess))

	updated, err := s.CheckProgress(context.Background(), sess.ID, "example.com")
	require.NoError(t, err)

	assert.Equal(t, model.SessionTimeout, updated.Status)
	assert.NotNil(t, updated.CompletedAt)
}

func TestCheckProgressNoopOnTerminalSession(t *testing.T) {
	st := newTestStore(t)
	seedActiveRecord(t, st, "dom1")
	s := New(st, stubChecker{percentage: 50})

	sess, err := s.StartSession(context.Background(), "dom1", "user1")
	require.NoError(t, err)

	cancelled, err := s.CancelSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCancelled, cancelled.Status)

	unchanged, err := s.CheckProgress(context.Background(), sess.ID, "example.com")
	require.NoError(t, err)
	assert.Equal(t, model.SessionCancelled, unchanged.Status)
}

func TestEstimateCompletionLowConfidenceUnderFiveMinutes(t *testing.T) {
	sess := model.PollingSession{Status: model.SessionPolling, StartedAt: time.Now().Add(-1 * time.Minute)}
	records := []model.DNSRecord{{TTL: 3600}}

	eta := EstimateCompletion(sess, records, time.Now())
	assert.Equal(t, model.ETALow, eta.Confidence)
	assert.Greater(t, eta.TimeRemaining, time.Duration(0))
}

func TestEstimateCompletionMediumConfidenceWithVelocity(t *testing.T) {
	sess := model.PollingSession{
		Status:          model.SessionPolling,
		StartedAt:       time.Now().Add(-10 * time.Minute),
		OverallProgress: 50,
	}
	eta := EstimateCompletion(sess, nil, time.Now())
	assert.Equal(t, model.ETAMedium, eta.Confidence)
}

func TestEstimateCompletionTerminalSessionHasNoRemainingTime(t *testing.T) {
	sess := model.PollingSession{Status: model.SessionCompleted}
	eta := EstimateCompletion(sess, nil, time.Now())
	assert.Equal(t, time.Duration(0), eta.TimeRemaining)
}
