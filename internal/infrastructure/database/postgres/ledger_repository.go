// internal/infrastructure/database/postgres/ledger_repository.go
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/your-org/caseledger-backend/internal/domain/ledger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerEntry is the persisted form of one ledger item: a single document
// keyed by item code, rewritten wholesale on every save.
type LedgerEntry struct {
	ItemCode  string    `gorm:"primaryKey;size:100"`
	Document  []byte    `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

// TableName override
func (LedgerEntry) TableName() string { return "ledger_entries" }

// LedgerRepository is the gorm-backed ledger.Repository
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// GetItem loads and unmarshals the item document
func (r *LedgerRepository) GetItem(ctx context.Context, itemCode string) (*ledger.Item, error) {
	var entry LedgerEntry
	err := r.db.WithContext(ctx).Where("item_code = ?", itemCode).First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ledger.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entry %s: %w", itemCode, err)
	}

	var item ledger.Item
	if err := json.Unmarshal(entry.Document, &item); err != nil {
		return nil, fmt.Errorf("failed to decode ledger entry %s: %w", itemCode, err)
	}
	return &item, nil
}

// ListItems loads all item documents, ordered by item code
func (r *LedgerRepository) ListItems(ctx context.Context) ([]*ledger.Item, error) {
	var entries []LedgerEntry
	if err := r.db.WithContext(ctx).Order("item_code").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	items := make([]*ledger.Item, 0, len(entries))
	for _, entry := range entries {
		var item ledger.Item
		if err := json.Unmarshal(entry.Document, &item); err != nil {
			return nil, fmt.Errorf("failed to decode ledger entry %s: %w", entry.ItemCode, err)
		}
		items = append(items, &item)
	}
	return items, nil
}

// SaveItem rewrites the full item document in one upsert
func (r *LedgerRepository) SaveItem(ctx context.Context, item *ledger.Item) error {
	document, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode ledger entry %s: %w", item.ItemCode, err)
	}

	entry := LedgerEntry{
		ItemCode: item.ItemCode,
		Document: document,
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to save ledger entry %s: %w", item.ItemCode, err)
	}
	return nil
}
