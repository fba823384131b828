// Package callhistory is an additive audit log of DG-ID switches, kept
// entirely outside the routing engine's authoritative state: losing or
// disabling it never changes routing decisions. Grounded on the
// gateway's own GORM+pure-Go-sqlite database layer, repointed from DMR
// user records at a CallRecord log of binding changes.
package callhistory

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/dgidgateway/dgidgateway/internal/logging"
)

// Direction records which side originated the DG-ID switch.
type Direction string

const (
	DirectionRF  Direction = "rf"
	DirectionNet Direction = "net"
)

// CallRecord is one logged binding change: a switch onto dgid, the
// backend description active at the time, and its span.
type CallRecord struct {
	ID          uint      `gorm:"primarykey"`
	DGID        uint8     `gorm:"index"`
	BackendDesc string    `gorm:"size:64"`
	Direction   string    `gorm:"size:8"`
	StartedAt   time.Time `gorm:"index"`
	EndedAt     *time.Time
}

func (CallRecord) TableName() string { return "call_records" }

// Store wraps the GORM handle and offers the narrow operations the
// routing engine needs: open a record on switch, close it on timeout or
// re-switch.
type Store struct {
	db *gorm.DB
}

// Open creates (if necessary) and migrates the sqlite database at path.
func Open(path string, log *logging.Logger) (*Store, error) {
	var gormLog logger.Interface
	if log != nil {
		gormLog = logger.New(stdLogAdapter{log}, logger.Config{
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		})
	} else {
		gormLog = logger.Default.LogMode(logger.Silent)
	}

	dialector := sqlite.Dialector{DriverName: "sqlite", DSN: path}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("callhistory: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("callhistory: underlying db: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return nil, fmt.Errorf("callhistory: pragma %q: %w", pragma, err)
		}
	}

	if err := db.AutoMigrate(&CallRecord{}); err != nil {
		return nil, fmt.Errorf("callhistory: migrate: %w", err)
	}

	if log != nil {
		log.Info("callhistory: database opened", logging.String("path", path))
	}
	return &Store{db: db}, nil
}

// RecordSwitch opens a new, unterminated CallRecord for a binding change
// and returns its ID so a later RecordEnd can close it.
func (s *Store) RecordSwitch(dgid uint8, backendDesc string, dir Direction, at time.Time) (uint, error) {
	rec := CallRecord{DGID: dgid, BackendDesc: backendDesc, Direction: string(dir), StartedAt: at}
	if err := s.db.Create(&rec).Error; err != nil {
		return 0, fmt.Errorf("callhistory: record switch: %w", err)
	}
	return rec.ID, nil
}

// RecordEnd stamps the end time of a previously opened record (e.g. on
// inactivity timeout). A zero id is a no-op, matching a store-disabled
// or record-creation-failed caller.
func (s *Store) RecordEnd(id uint, at time.Time) error {
	if id == 0 {
		return nil
	}
	return s.db.Model(&CallRecord{}).Where("id = ?", id).Update("ended_at", at).Error
}

// Recent returns the most recent limit records, newest first.
func (s *Store) Recent(limit int) ([]CallRecord, error) {
	var recs []CallRecord
	err := s.db.Order("started_at DESC").Limit(limit).Find(&recs).Error
	return recs, err
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// stdLogAdapter satisfies gorm logger.Writer with the component logger.
type stdLogAdapter struct{ log *logging.Logger }

func (a stdLogAdapter) Printf(format string, args ...interface{}) {
	a.log.Warn(fmt.Sprintf(format, args...))
}
