// Package store is the gorm-backed persistence layer for provisioned
// records and polling sessions, grounded on the pack's
// gorm+sqlite/postgres storage pattern.
package store

import (
	"encoding/json"
	"time"

	"github.com/dean-jl/dnsengine/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DomainView is the read-only view of a zone the core provisions
// records for. The core never writes this table — it is seeded/synced
// externally (billing, ownership, zone delegation).
type DomainView struct {
	ID        string `gorm:"primaryKey"`
	FQDN      string `gorm:"uniqueIndex"`
	ZoneID    string
	OwnerID   string `gorm:"index"`
	CreatedAt time.Time
}

func (DomainView) TableName() string { return "domains" }

// DNSRecordRow is the gorm row backing model.DNSRecord.
type DNSRecordRow struct {
	ID                  string `gorm:"primaryKey"`
	DomainID            string `gorm:"index"`
	Type                string
	Name                string
	Value               string
	TTL                 int
	Priority            int
	Purpose             string
	Status              string
	PropagationStatus   string
	PropagationCoverage int
	LastCheckedAt       *time.Time
	MetadataJSON        string `gorm:"column:metadata"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (DNSRecordRow) TableName() string { return "dns_records" }

func (r *DNSRecordRow) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ToModel converts a persisted row to the domain type.
func (r DNSRecordRow) ToModel() model.DNSRecord {
	rec := model.DNSRecord{
		ID:                  r.ID,
		DomainID:            r.DomainID,
		Type:                model.RecordType(r.Type),
		Name:                r.Name,
		Value:               r.Value,
		TTL:                 r.TTL,
		Priority:            r.Priority,
		Purpose:             model.Purpose(r.Purpose),
		Status:              model.RecordStatus(r.Status),
		PropagationStatus:   model.PropagationStatus(r.PropagationStatus),
		PropagationCoverage: r.PropagationCoverage,
		LastCheckedAt:       r.LastCheckedAt,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
	if r.MetadataJSON != "" {
		_ = json.Unmarshal([]byte(r.MetadataJSON), &rec.Metadata)
	}
	return rec
}

// FromModel builds a row from the domain type, preserving the row's
// existing ID when updating an existing record.
func FromModel(rec model.DNSRecord) (DNSRecordRow, error) {
	var metaJSON string
	if len(rec.Metadata) > 0 {
		b, err := json.Marshal(rec.Metadata)
		if err != nil {
			return DNSRecordRow{}, err
		}
		metaJSON = string(b)
	}
	return DNSRecordRow{
		ID:                  rec.ID,
		DomainID:            rec.DomainID,
		Type:                string(rec.Type),
		Name:                rec.Name,
		Value:               rec.Value,
		TTL:                 rec.TTL,
		Priority:            rec.Priority,
		Purpose:             string(rec.Purpose),
		Status:              string(rec.Status),
		PropagationStatus:   string(rec.PropagationStatus),
		PropagationCoverage: rec.PropagationCoverage,
		LastCheckedAt:       rec.LastCheckedAt,
		MetadataJSON:        metaJSON,
		CreatedAt:           rec.CreatedAt,
		UpdatedAt:           rec.UpdatedAt,
	}, nil
}

// PollingSessionRow is the gorm row backing model.PollingSession.
type PollingSessionRow struct {
	ID                  string `gorm:"primaryKey"`
	DomainID            string `gorm:"index"`
	UserID              string `gorm:"index"`
	Status              string
	CheckIntervalMS     int64
	MaxDurationMS       int64
	StartedAt           time.Time
	LastCheckedAt       *time.Time
	CompletedAt         *time.Time
	EstimatedCompletion *time.Time
	TotalRecords        int
	PropagatedRecords   int
	OverallProgress     int
	MetadataJSON        string `gorm:"column:metadata"`
}

func (PollingSessionRow) TableName() string { return "polling_sessions" }

func (s *PollingSessionRow) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (s PollingSessionRow) ToModel() model.PollingSession {
	sess := model.PollingSession{
		ID:                  s.ID,
		DomainID:            s.DomainID,
		UserID:              s.UserID,
		Status:              model.SessionStatus(s.Status),
		CheckIntervalMS:     s.CheckIntervalMS,
		MaxDurationMS:       s.MaxDurationMS,
		StartedAt:           s.StartedAt,
		LastCheckedAt:       s.LastCheckedAt,
		CompletedAt:         s.CompletedAt,
		EstimatedCompletion: s.EstimatedCompletion,
		TotalRecords:        s.TotalRecords,
		PropagatedRecords:   s.PropagatedRecords,
		OverallProgress:     s.OverallProgress,
	}
	if s.MetadataJSON != "" {
		_ = json.Unmarshal([]byte(s.MetadataJSON), &sess.Metadata)
	}
	return sess
}

func sessionFromModel(sess model.PollingSession) (PollingSessionRow, error) {
	var metaJSON string
	if len(sess.Metadata) > 0 {
		b, err := json.Marshal(sess.Metadata)
		if err != nil {
			return PollingSessionRow{}, err
		}
		metaJSON = string(b)
	}
	return PollingSessionRow{
		ID:                  sess.ID,
		DomainID:            sess.DomainID,
		UserID:              sess.UserID,
		Status:              string(sess.Status),
		CheckIntervalMS:     sess.CheckIntervalMS,
		MaxDurationMS:       sess.MaxDurationMS,
		StartedAt:           sess.StartedAt,
		LastCheckedAt:       sess.LastCheckedAt,
		CompletedAt:         sess.CompletedAt,
		EstimatedCompletion: sess.EstimatedCompletion,
		TotalRecords:        sess.TotalRecords,
		PropagatedRecords:   sess.PropagatedRecords,
		OverallProgress:     sess.OverallProgress,
		MetadataJSON:        metaJSON,
	}, nil
}
