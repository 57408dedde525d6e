package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quick-ledger/ottero/internal/domain/billing"
	"github.com/quick-ledger/ottero/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormNumberSequence issues document sequence values from the
// document_sequences table, one row per company and kind
type GormNumberSequence struct {
	db *gorm.DB
}

// NewGormNumberSequence creates a new GormNumberSequence
func NewGormNumberSequence(db *gorm.DB) *GormNumberSequence {
	return &GormNumberSequence{db: db}
}

// Next returns the next value. The row is locked for the duration of the
// increment so concurrent callers never receive the same value.
func (s *GormNumberSequence) Next(ctx context.Context, companyID uuid.UUID, kind billing.Kind) (int64, error) {
	var next int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		seed := models.DocumentSequenceModel{CompanyID: companyID, Kind: kind, LastValue: 0, UpdatedAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}

		var row models.DocumentSequenceModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("company_id = ? AND kind = ?", companyID, kind).
			First(&row).Error; err != nil {
			return err
		}

		next = row.LastValue + 1
		return tx.Model(&models.DocumentSequenceModel{}).
			Where("company_id = ? AND kind = ?", companyID, kind).
			Updates(map[string]interface{}{"last_value": next, "updated_at": now}).Error
	})
	if err != nil {
		return 0, fmt.Errorf("next %s sequence for company %s: %w", kind, companyID, err)
	}
	return next, nil
}

// LastValues returns the last issued value of every company and kind
func (s *GormNumberSequence) LastValues(ctx context.Context) ([]billing.SequenceValue, error) {
	var rows []models.DocumentSequenceModel
	if err := s.db.WithContext(ctx).
		Where("last_value > 0").
		Order("company_id, kind").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list sequences: %w", err)
	}
	values := make([]billing.SequenceValue, len(rows))
	for i, row := range rows {
		values[i] = billing.SequenceValue{CompanyID: row.CompanyID, Kind: row.Kind, Last: row.LastValue}
	}
	return values, nil
}

var _ billing.NumberSequence = (*GormNumberSequence)(nil)
