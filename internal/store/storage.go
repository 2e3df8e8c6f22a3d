package store

import (
	"errors"
	"fmt"

	"github.com/dean-jl/dnsengine/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Storage persists DNS records and polling sessions. The core never
// writes DomainView rows — those are synced externally.
type Storage interface {
	GetDomain(id string) (model.Domain, error)

	CreateRecord(rec model.DNSRecord) (model.DNSRecord, error)
	UpdateRecord(rec model.DNSRecord) error
	GetRecordsByDomain(domainID string) ([]model.DNSRecord, error)
	GetActiveRecordsByDomain(domainID string) ([]model.DNSRecord, error)
	DeleteRecord(id string) error

	CreateSession(sess model.PollingSession) (model.PollingSession, error)
	UpdateSession(sess model.PollingSession) error
	GetSession(id string) (model.PollingSession, error)
	GetActiveSessionForDomain(domainID string) (model.PollingSession, error)

	Close() error
}

// DBStorage implements Storage using gorm over sqlite or postgres.
type DBStorage struct {
	db *gorm.DB
}

// NewStorage opens a connection of the given dialect and migrates the
// schema. dbType is "sqlite" or "postgres".
func NewStorage(dbType, dsn string) (Storage, error) {
	var dialector gorm.Dialector
	switch dbType {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&DomainView{}, &DNSRecordRow{}, &PollingSessionRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}

	return &DBStorage{db: db}, nil
}

func (s *DBStorage) GetDomain(id string) (model.Domain, error) {
	var row DomainView
	if err := s.db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Domain{}, ErrNotFound
		}
		return model.Domain{}, fmt.Errorf("failed to get domain: %w", err)
	}
	return model.Domain{ID: row.ID, FQDN: row.FQDN, ZoneID: row.ZoneID, OwnerID: row.OwnerID, CreatedAt: row.CreatedAt}, nil
}

func (s *DBStorage) CreateRecord(rec model.DNSRecord) (model.DNSRecord, error) {
	row, err := FromModel(rec)
	if err != nil {
		return model.DNSRecord{}, fmt.Errorf("failed to encode record: %w", err)
	}
	if err := s.db.Create(&row).Error; err != nil {
		return model.DNSRecord{}, fmt.Errorf("failed to create record: %w", err)
	}
	return row.ToModel(), nil
}

func (s *DBStorage) UpdateRecord(rec model.DNSRecord) error {
	row, err := FromModel(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	if err := s.db.Model(&DNSRecordRow{}).Where("id = ?", row.ID).Select("*").Updates(&row).Error; err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return nil
}

func (s *DBStorage) GetRecordsByDomain(domainID string) ([]model.DNSRecord, error) {
	var rows []DNSRecordRow
	if err := s.db.Where("domain_id = ?", domainID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	out := make([]model.DNSRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToModel())
	}
	return out, nil
}

func (s *DBStorage) GetActiveRecordsByDomain(domainID string) ([]model.DNSRecord, error) {
	var rows []DNSRecordRow
	if err := s.db.Where("domain_id = ? AND status = ?", domainID, string(model.RecordStatusActive)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list active records: %w", err)
	}
	out := make([]model.DNSRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToModel())
	}
	return out, nil
}

func (s *DBStorage) DeleteRecord(id string) error {
	if err := s.db.Delete(&DNSRecordRow{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

func (s *DBStorage) CreateSession(sess model.PollingSession) (model.PollingSession, error) {
	row, err := sessionFromModel(sess)
	if err != nil {
		return model.PollingSession{}, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.db.Create(&row).Error; err != nil {
		return model.PollingSession{}, fmt.Errorf("failed to create session: %w", err)
	}
	return row.ToModel(), nil
}

func (s *DBStorage) UpdateSession(sess model.PollingSession) error {
	row, err := sessionFromModel(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.db.Model(&PollingSessionRow{}).Where("id = ?", row.ID).Select("*").Updates(&row).Error; err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

func (s *DBStorage) GetSession(id string) (model.PollingSession, error) {
	var row PollingSessionRow
	if err := s.db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.PollingSession{}, ErrNotFound
		}
		return model.PollingSession{}, fmt.Errorf("failed to get session: %w", err)
	}
	return row.ToModel(), nil
}

func (s *DBStorage) GetActiveSessionForDomain(domainID string) (model.PollingSession, error) {
	var row PollingSessionRow
	err := s.db.Where("domain_id = ? AND status = ?", domainID, string(model.SessionPolling)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PollingSession{}, ErrNotFound
	}
	if err != nil {
		return model.PollingSession{}, fmt.Errorf("failed to get active session: %w", err)
	}
	return row.ToModel(), nil
}

func (s *DBStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
