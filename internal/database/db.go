package database

import (
	"surveillance/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Models lists every persisted entity in migration order.
func Models() []interface{} {
	return []interface{}{
		&model.Role{},
		&model.User{},
		&model.RefreshToken{},
		&model.UserRegistration{},
		&model.DistrictBoundary{},
		&model.VillageBoundary{},
		&model.AshaReport{},
		&model.WaterQualityReading{},
		&model.ClinicalReport{},
		&model.Directive{},
		&model.StateAdvisory{},
		&model.DistrictAlert{},
		&model.RiskScore{},
		&model.AuditLog{},
	}
}

// NewConnection opens the pool and auto-migrates the schema. Duplicate keys surface as gorm.ErrDuplicatedKey.
func NewConnection(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		log.Warn("failed to auto-migrate models", zap.Error(err))
	}

	return db, nil
}
