package persistence

import (
	"context"
	"fmt"

	"github.com/aar-healthcare/medbot/domain/clinic"
	"github.com/aar-healthcare/medbot/internal/database"
	"gorm.io/gorm"
)

// ClinicModel is a row of the clinics table.
type ClinicModel struct {
	ID      int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Name    string  `gorm:"column:name;not null"`
	Address string  `gorm:"column:address;not null"`
	Lat     float64 `gorm:"column:lat;not null"`
	Lng     float64 `gorm:"column:lng;not null"`
	Phone   string  `gorm:"column:phone"`
}

// TableName returns the table name.
func (ClinicModel) TableName() string { return "clinics" }

// ClinicMapper maps between domain Clinic and ClinicModel.
type ClinicMapper struct{}

// ToDomain converts a ClinicModel to a domain Clinic.
func (ClinicMapper) ToDomain(m ClinicModel) clinic.Clinic {
	return clinic.Reconstruct(m.ID, m.Name, m.Address, m.Lat, m.Lng, m.Phone)
}

// ToModel converts a domain Clinic to a ClinicModel. A zero id lets the
// database assign one.
func (ClinicMapper) ToModel(c clinic.Clinic) ClinicModel {
	return ClinicModel{
		ID:      c.ID(),
		Name:    c.Name(),
		Address: c.Address(),
		Lat:     c.Location().Lat(),
		Lng:     c.Location().Lng(),
		Phone:   c.Phone(),
	}
}

// ClinicStore implements clinic.Store using GORM.
type ClinicStore struct {
	db     database.Database
	mapper ClinicMapper
}

// NewClinicStore creates a new ClinicStore.
func NewClinicStore(db database.Database) ClinicStore {
	return ClinicStore{db: db}
}

// FindAll returns every clinic ordered by id.
func (s ClinicStore) FindAll(ctx context.Context) ([]clinic.Clinic, error) {
	var models []ClinicModel
	if err := s.db.Session(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find clinics: %w", err)
	}

	result := make([]clinic.Clinic, len(models))
	for i, m := range models {
		result[i] = s.mapper.ToDomain(m)
	}
	return result, nil
}

// Count returns the number of clinics.
func (s ClinicStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.Session(ctx).Model(&ClinicModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count clinics: %w", err)
	}
	return n, nil
}

// SeedIfEmpty inserts clinics in one transaction when the table is empty.
func (s ClinicStore) SeedIfEmpty(ctx context.Context, clinics []clinic.Clinic) (bool, error) {
	if len(clinics) == 0 {
		return false, nil
	}

	seeded := false
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&ClinicModel{}).Count(&n).Error; err != nil {
			return fmt.Errorf("count clinics: %w", err)
		}
		if n > 0 {
			return nil
		}

		models := make([]ClinicModel, len(clinics))
		for i, c := range clinics {
			models[i] = s.mapper.ToModel(c)
		}
		if err := tx.Create(&models).Error; err != nil {
			return fmt.Errorf("insert clinics: %w", err)
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return seeded, nil
}

var _ clinic.Store = ClinicStore{}
