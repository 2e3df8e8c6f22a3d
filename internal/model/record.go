// Package model holds the data types shared across the DNS provisioning
// and propagation engine: records, sessions, and the small value types
// the generators and checkers pass between each other.
package model

import "time"

// RecordType enumerates the DNS resource record types the engine manages.
type RecordType string

const (
	RecordTypeA     RecordType = "A"
	RecordTypeAAAA  RecordType = "AAAA"
	RecordTypeTXT   RecordType = "TXT"
	RecordTypeMX    RecordType = "MX"
	RecordTypeCNAME RecordType = "CNAME"
	RecordTypeNS    RecordType = "NS"
)

// Purpose enumerates why a record was provisioned.
type Purpose string

const (
	PurposeSPF      Purpose = "spf"
	PurposeDKIM     Purpose = "dkim"
	PurposeDMARC    Purpose = "dmarc"
	PurposeMX       Purpose = "mx"
	PurposeTracking Purpose = "tracking"
	PurposeCustom   Purpose = "custom"
)

// RecordStatus is the lifecycle status of a provisioned record.
type RecordStatus string

const (
	RecordStatusActive  RecordStatus = "active"
	RecordStatusRemoved RecordStatus = "removed"
)

// PropagationStatus is the propagation lifecycle of a provisioned record.
type PropagationStatus string

const (
	PropagationPending     PropagationStatus = "pending"
	PropagationPropagating PropagationStatus = "propagating"
	PropagationPropagated  PropagationStatus = "propagated"
)

// DefaultTTL is the default TTL (seconds) applied to new records when the
// caller does not specify one.
const DefaultTTL = 3600

// Domain is the opaque, read-only-to-the-core identifier for a zone this
// engine provisions records for. Ownership and the provider zone handle
// live here; the core never mutates a Domain.
type Domain struct {
	ID        string
	FQDN      string
	ZoneID    string // provider-zone handle
	OwnerID   string // ownership tag, e.g. the user id
	CreatedAt time.Time
}

// DNSRecord is one provisioned record, as described in spec.md §3.
//
// Invariant: at most one active record per (DomainID, Type, Name, Value).
type DNSRecord struct {
	ID                  string
	DomainID            string
	Type                RecordType
	Name                string // label relative to apex; "@" denotes the apex
	Value               string // provider-normalised content
	TTL                 int    // seconds
	Priority            int    // MX only, 0-65535
	Purpose             Purpose
	Status              RecordStatus
	PropagationStatus   PropagationStatus
	PropagationCoverage int // 0-100
	LastCheckedAt       *time.Time
	Metadata            map[string]string // provider record id, selector, platform, ...
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Key returns the dedup tuple used to enforce the at-most-one-active
// invariant and to match records returned by the authoritative provider.
func (r DNSRecord) Key() RecordKey {
	return RecordKey{DomainID: r.DomainID, Type: r.Type, Name: r.Name, Value: r.Value}
}

// RecordKey is the (domainId, type, name, value) uniqueness tuple from
// spec.md §3.
type RecordKey struct {
	DomainID string
	Type     RecordType
	Name     string
	Value    string
}
