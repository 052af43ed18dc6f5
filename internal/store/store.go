// Package store persists inbound message and attachment metadata in SQLite.
package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InboundMessage is one received webhook email.
type InboundMessage struct {
	ID         uint   `gorm:"primaryKey"`
	Sender     string `gorm:"index"`
	Subject    string
	ReceivedAt time.Time
	CreatedAt  time.Time
}

// StoredAttachment is the metadata of one uploaded attachment.
type StoredAttachment struct {
	ID          uint `gorm:"primaryKey"`
	MessageID   uint `gorm:"index"`
	Name        string
	ContentType string
	Size        int64
	StorageKey  string
	StorageURI  string
	CreatedAt   time.Time
}

// Store wraps the metadata database.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if necessary) the SQLite database at path and runs
// schema migration.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&InboundMessage{}, &StoredAttachment{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// SaveMessage inserts a message record; its ID is filled in on success.
func (s *Store) SaveMessage(ctx context.Context, m *InboundMessage) error {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// SaveAttachment inserts an attachment metadata record.
func (s *Store) SaveAttachment(ctx context.Context, a *StoredAttachment) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("failed to save attachment: %w", err)
	}
	return nil
}

// AttachmentsForMessage returns the attachment records of one message in
// insertion order.
func (s *Store) AttachmentsForMessage(ctx context.Context, messageID uint) ([]StoredAttachment, error) {
	var attachments []StoredAttachment
	err := s.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("id").
		Find(&attachments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load attachments: %w", err)
	}
	return attachments, nil
}
