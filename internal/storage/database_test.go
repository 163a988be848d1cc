package storage_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/RepettoEstates/listing_svc/internal/model"
	"github.com/RepettoEstates/listing_svc/internal/storage"
)

func openTestDatabase(testingT *testing.T) storage.Config {
	testingT.Helper()
	return storage.Config{
		DriverName:     storage.DriverNameSQLite,
		DataSourceName: fmt.Sprintf("file:storage-test-%s?mode=memory&cache=shared", storage.NewID()),
	}
}

func TestOpenDatabaseRequiresDriverName(testingT *testing.T) {
	_, err := storage.OpenDatabase(storage.Config{})
	require.ErrorIs(testingT, err, storage.ErrMissingDatabaseDriverName)
}

func TestOpenDatabaseRejectsUnknownDriver(testingT *testing.T) {
	_, err := storage.OpenDatabase(storage.Config{DriverName: "oracle", DataSourceName: "dsn"})
	require.ErrorIs(testingT, err, storage.ErrUnsupportedDatabaseDriver)
}

func TestOpenDatabaseRequiresDataSourceName(testingT *testing.T) {
	_, err := storage.OpenDatabase(storage.Config{DriverName: storage.DriverNameSQLite})
	require.ErrorIs(testingT, err, storage.ErrMissingDataSourceName)
}

func TestAutoMigrateCreatesDomainTables(testingT *testing.T) {
	database, openErr := storage.OpenDatabase(openTestDatabase(testingT))
	require.NoError(testingT, openErr)
	require.NoError(testingT, storage.AutoMigrate(database))

	seller, sellerErr := model.NewSeller(model.SellerInput{FirstName: "A", LastName: "B", Phone: "5551112222"})
	require.NoError(testingT, sellerErr)
	require.NoError(testingT, database.Create(&seller).Error)

	var count int64
	require.NoError(testingT, database.Model(&model.Seller{}).Count(&count).Error)
	require.EqualValues(testingT, 1, count)
}

func TestSubscriberEmailIsUnique(testingT *testing.T) {
	database, openErr := storage.OpenDatabase(openTestDatabase(testingT))
	require.NoError(testingT, openErr)
	require.NoError(testingT, storage.AutoMigrate(database))

	first, firstErr := model.NewSubscriber(model.SubscriberInput{Email: "dup@example.com"})
	require.NoError(testingT, firstErr)
	require.NoError(testingT, database.Create(&first).Error)

	second, secondErr := model.NewSubscriber(model.SubscriberInput{Email: "dup@example.com"})
	require.NoError(testingT, secondErr)
	require.Error(testingT, database.Create(&second).Error)
}

func TestNewIDIsUnique(testingT *testing.T) {
	require.NotEqual(testingT, storage.NewID(), storage.NewID())
}
