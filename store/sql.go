package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/debts"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// debtorRow is a debtor in the debtors table. Seq keeps the insertion order.
type debtorRow struct {
	ID               string          `gorm:"primaryKey"`
	Seq              int64           `gorm:"index;not null"`
	Name             string          `gorm:"not null"`
	CurrentDebt      decimal.Decimal `gorm:"type:text;not null"`
	HistoricDebt     decimal.Decimal `gorm:"type:text;not null"`
	TotalPenalty     decimal.Decimal `gorm:"type:text;not null"`
	StartDate        time.Time
	LastUpdate       time.Time
	LastPenaltyCheck *time.Time
	PenaltyEnabled   bool
}

func (debtorRow) TableName() string { return "debtors" }

// movementRow is a movement in the movements table.
type movementRow struct {
	ID       uint            `gorm:"primaryKey"`
	DebtorID string          `gorm:"index;not null"`
	Position int             `gorm:"not null"`
	Date     time.Time       `gorm:"not null"`
	Amount   decimal.Decimal `gorm:"type:text;not null"`
	Type     string          `gorm:"size:16;not null"`
	Balance  decimal.Decimal `gorm:"type:text;not null"`
}

func (movementRow) TableName() string { return "movements" }

// configRow is the single row of the configs table.
type configRow struct {
	ID            string          `gorm:"primaryKey"`
	PenaltyDays   int             `gorm:"not null"`
	PenaltyAmount decimal.Decimal `gorm:"type:text;not null"`
}

func (configRow) TableName() string { return "configs" }

const penaltyConfigID = "penaltyConfig"

// SQL is a Store backed by an embedded SQLite database. Every write runs in
// a single transaction.
type SQL struct {
	db *gorm.DB
}

// OpenSQL opens or creates the database at path and migrates its schema.
// Use ":memory:" for a throwaway database.
func OpenSQL(path string) (*SQL, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open database %q: %w", debts.ErrPersistence, path, err)
	}
	if err := db.AutoMigrate(&debtorRow{}, &movementRow{}, &configRow{}); err != nil {
		return nil, fmt.Errorf("%w: cannot migrate database %q: %w", debts.ErrPersistence, path, err)
	}
	return &SQL{db: db}, nil
}

// Close releases the database.
func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQL) LoadAllDebtors(ctx context.Context) ([]*debts.Debtor, error) {
	db := s.db.WithContext(ctx)

	var rows []debtorRow
	if err := db.Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("cannot load debtors: %w", err)
	}
	var moves []movementRow
	if err := db.Order("debtor_id, position").Find(&moves).Error; err != nil {
		return nil, fmt.Errorf("cannot load movements: %w", err)
	}

	history := make(map[string][]debts.Movement)
	for _, m := range moves {
		history[m.DebtorID] = append(history[m.DebtorID], debts.Movement{
			Date:    m.Date,
			Amount:  m.Amount,
			Type:    debts.MovementType(m.Type),
			Balance: m.Balance,
		})
	}

	debtors := make([]*debts.Debtor, 0, len(rows))
	for _, r := range rows {
		d := &debts.Debtor{
			ID:             r.ID,
			Name:           r.Name,
			CurrentDebt:    r.CurrentDebt,
			HistoricDebt:   r.HistoricDebt,
			TotalPenalty:   r.TotalPenalty,
			StartDate:      r.StartDate,
			LastUpdate:     r.LastUpdate,
			PenaltyEnabled: r.PenaltyEnabled,
			History:        history[r.ID],
		}
		if r.LastPenaltyCheck != nil {
			d.LastPenaltyCheck = *r.LastPenaltyCheck
		}
		debtors = append(debtors, d)
	}
	return debtors, nil
}

func (s *SQL) LoadConfig(ctx context.Context) (debts.PenaltyConfig, bool, error) {
	var row configRow
	err := s.db.WithContext(ctx).Take(&row, "id = ?", penaltyConfigID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return debts.PenaltyConfig{}, false, nil
	}
	if err != nil {
		return debts.PenaltyConfig{}, false, fmt.Errorf("cannot load config: %w", err)
	}
	return debts.PenaltyConfig{PenaltyDays: row.PenaltyDays, PenaltyAmount: row.PenaltyAmount}, true, nil
}

func (s *SQL) SaveDebtor(ctx context.Context, d *debts.Debtor) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := toRow(d)
		var existing debtorRow
		err := tx.Select("seq").Take(&existing, "id = ?", d.ID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			var last int64
			if err := tx.Model(&debtorRow{}).Select("COALESCE(MAX(seq), 0)").Scan(&last).Error; err != nil {
				return fmt.Errorf("cannot number debtor %q: %w", d.Name, err)
			}
			row.Seq = last + 1
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("cannot insert debtor %q: %w", d.Name, err)
			}
		case err != nil:
			return fmt.Errorf("cannot find debtor %q: %w", d.Name, err)
		default:
			row.Seq = existing.Seq
			if err := tx.Save(&row).Error; err != nil {
				return fmt.Errorf("cannot update debtor %q: %w", d.Name, err)
			}
		}
		if err := tx.Where("debtor_id = ?", d.ID).Delete(&movementRow{}).Error; err != nil {
			return fmt.Errorf("cannot clear history of %q: %w", d.Name, err)
		}
		return insertMovements(tx, d)
	})
}

func (s *SQL) DeleteDebtor(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("debtor_id = ?", id).Delete(&movementRow{}).Error; err != nil {
			return fmt.Errorf("cannot delete history of %q: %w", id, err)
		}
		if err := tx.Delete(&debtorRow{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("cannot delete debtor %q: %w", id, err)
		}
		return nil
	})
}

func (s *SQL) SaveConfig(ctx context.Context, cfg debts.PenaltyConfig) error {
	row := configRow{ID: penaltyConfigID, PenaltyDays: cfg.PenaltyDays, PenaltyAmount: cfg.PenaltyAmount}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("cannot save config: %w", err)
	}
	return nil
}

func (s *SQL) ReplaceAllDebtors(ctx context.Context, debtors []*debts.Debtor) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&movementRow{}).Error; err != nil {
			return fmt.Errorf("cannot clear movements: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&debtorRow{}).Error; err != nil {
			return fmt.Errorf("cannot clear debtors: %w", err)
		}
		for i, d := range debtors {
			row := toRow(d)
			row.Seq = int64(i + 1)
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("cannot insert debtor %q: %w", d.Name, err)
			}
			if err := insertMovements(tx, d); err != nil {
				return err
			}
		}
		return nil
	})
}

func toRow(d *debts.Debtor) debtorRow {
	row := debtorRow{
		ID:             d.ID,
		Name:           d.Name,
		CurrentDebt:    d.CurrentDebt,
		HistoricDebt:   d.HistoricDebt,
		TotalPenalty:   d.TotalPenalty,
		StartDate:      d.StartDate,
		LastUpdate:     d.LastUpdate,
		PenaltyEnabled: d.PenaltyEnabled,
	}
	if !d.LastPenaltyCheck.IsZero() {
		t := d.LastPenaltyCheck
		row.LastPenaltyCheck = &t
	}
	return row
}

func insertMovements(tx *gorm.DB, d *debts.Debtor) error {
	if len(d.History) == 0 {
		return nil
	}
	rows := make([]movementRow, len(d.History))
	for i, m := range d.History {
		rows[i] = movementRow{
			DebtorID: d.ID,
			Position: i,
			Date:     m.Date,
			Amount:   m.Amount,
			Type:     string(m.Type),
			Balance:  m.Balance,
		}
	}
	if err := tx.CreateInBatches(rows, 100).Error; err != nil {
		return fmt.Errorf("cannot insert history of %q: %w", d.Name, err)
	}
	return nil
}
