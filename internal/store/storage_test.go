package store

import (
	"testing"

	"github.com/dean-jl/dnsengine/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) Storage {
	t.Helper()
	s, err := NewStorage("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndListRecords(t *testing.T) {
	s := newTestStorage(t)

	rec, err := s.CreateRecord(model.DNSRecord{
		DomainID: "dom1",
		Type:     model.RecordTypeTXT,
		Name:     "@",
		Value:    "v=spf1 ~all",
		Purpose:  model.PurposeSPF,
		Status:   model.RecordStatusActive,
		Metadata: map[string]string{"selector": "google"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)

	records, err := s.GetRecordsByDomain("dom1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "google", records[0].Metadata["selector"])
}

func TestGetActiveRecordsByDomainFiltersStatus(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.CreateRecord(model.DNSRecord{DomainID: "dom1", Type: model.RecordTypeTXT, Status: model.RecordStatusActive})
	require.NoError(t, err)
	_, err = s.CreateRecord(model.DNSRecord{DomainID: "dom1", Type: model.RecordTypeTXT, Status: model.RecordStatusRemoved})
	require.NoError(t, err)

	active, err := s.GetActiveRecordsByDomain("dom1")
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStorage(t)

	sess, err := s.CreateSession(model.PollingSession{DomainID: "dom1", UserID: "user1", Status: model.SessionPolling})
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	active, err := s.GetActiveSessionForDomain("dom1")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, active.ID)

	sess.Status = model.SessionCompleted
	require.NoError(t, s.UpdateSession(sess))

	_, err = s.GetActiveSessionForDomain("dom1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetSessionNotFound(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.GetSession("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
