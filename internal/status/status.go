// Package status is the read-side status data layer (C13): it
// authorizes reads against a user id and absorbs the 30s frontend
// polling rhythm behind a short-lived process-local cache, mirroring
// C3's cache shape for consistency within the codebase.
package status

import (
	"errors"
	"sync"
	"time"

	"github.com/dean-jl/dnsengine/internal/model"
	"github.com/dean-jl/dnsengine/internal/store"
)

// ErrUnauthorized is returned when the caller's user id does not own
// the requested session or domain.
var ErrUnauthorized = errors.New("unauthorized")

const cacheTTL = 10 * time.Second

type cacheKey struct {
	kind   string
	id     string
	userID string
}

type cacheEntry struct {
	value  any
	expiry time.Time
}

// Service is the status data layer (C13).
type Service struct {
	store store.Storage
	cache sync.Map // cacheKey -> cacheEntry
}

// New constructs a Service over the given store.
func New(st store.Storage) *Service {
	return &Service{store: st}
}

// GetPollingSessionWithAuth returns sessionID's state, verifying it
// belongs to userID.
func (s *Service) GetPollingSessionWithAuth(sessionID, userID string) (model.PollingSession, error) {
	key := cacheKey{kind: "session", id: sessionID, userID: userID}
	if cached, ok := s.get(key); ok {
		return cached.(model.PollingSession), nil
	}

	sess, err := s.store.GetSession(sessionID)
	if err != nil {
		return model.PollingSession{}, err
	}
	if sess.UserID != userID {
		return model.PollingSession{}, ErrUnauthorized
	}

	s.put(key, sess)
	return sess, nil
}

// GetDomainActivePollingSession returns domainID's active session, if
// any, verifying it belongs to userID.
func (s *Service) GetDomainActivePollingSession(domainID, userID string) (model.PollingSession, error) {
	key := cacheKey{kind: "active-session", id: domainID, userID: userID}
	if cached, ok := s.get(key); ok {
		return cached.(model.PollingSession), nil
	}

	sess, err := s.store.GetActiveSessionForDomain(domainID)
	if err != nil {
		return model.PollingSession{}, err
	}
	if sess.UserID != userID {
		return model.PollingSession{}, ErrUnauthorized
	}

	s.put(key, sess)
	return sess, nil
}

// GetDNSRecordStatuses returns every active record for domainID,
// verifying the domain belongs to userID.
func (s *Service) GetDNSRecordStatuses(domainID, userID string) ([]model.DNSRecord, error) {
	key := cacheKey{kind: "record-statuses", id: domainID, userID: userID}
	if cached, ok := s.get(key); ok {
		return cached.([]model.DNSRecord), nil
	}

	domain, err := s.store.GetDomain(domainID)
	if err != nil {
		return nil, err
	}
	if domain.OwnerID != userID {
		return nil, ErrUnauthorized
	}

	records, err := s.store.GetActiveRecordsByDomain(domainID)
	if err != nil {
		return nil, err
	}

	s.put(key, records)
	return records, nil
}

// InvalidateDomain drops every cache entry keyed by domainID (the
// active-session and record-statuses views). Callers invoke this
// after a write that would otherwise leave the cache serving stale
// data for up to cacheTTL.
func (s *Service) InvalidateDomain(domainID string) {
	s.invalidateID(domainID)
}

// InvalidateSession drops every cache entry keyed by sessionID (the
// GetPollingSessionWithAuth view). Entries keyed by the session's
// domain are left alone; InvalidateDomain drops those.
func (s *Service) InvalidateSession(sessionID string) {
	s.invalidateID(sessionID)
}

func (s *Service) invalidateID(id string) {
	s.cache.Range(func(k, _ any) bool {
		key := k.(cacheKey)
		if key.id == id {
			s.cache.Delete(key)
		}
		return true
	})
}

func (s *Service) get(key cacheKey) (any, bool) {
	v, ok := s.cache.Load(key)
	if !ok {
		return nil, false
	}
	entry := v.(cacheEntry)
	if time.Now().After(entry.expiry) {
		s.cache.Delete(key)
		return nil, false
	}
	return entry.value, true
}

func (s *Service) put(key cacheKey, value any) {
	s.cache.Store(key, cacheEntry{value: value, expiry: time.Now().Add(cacheTTL)})
}
