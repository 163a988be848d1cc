package storage

import (
	"gorm.io/gorm"

	"github.com/RepettoEstates/listing_svc/internal/model"
)

// AutoMigrate runs database migrations for the storage layer models.
func AutoMigrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&model.Seller{},
		&model.Property{},
		&model.BlogCategory{},
		&model.BlogPost{},
		&model.Inquiry{},
		&model.VisitRequest{},
		&model.Subscriber{},
	)
}
