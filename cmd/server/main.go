package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/RepettoEstates/listing_svc/internal/api"
	"github.com/RepettoEstates/listing_svc/internal/lifecycle"
	"github.com/RepettoEstates/listing_svc/internal/model"
	"github.com/RepettoEstates/listing_svc/internal/notifications"
	"github.com/RepettoEstates/listing_svc/internal/storage"
	"github.com/RepettoEstates/listing_svc/internal/task"
)

const (
	commandUseName              = "server"
	commandShortDescription     = "Run the listing server"
	commandLongDescription      = "Launch the real-estate listing HTTP server"
	missingConfigurationMessage = "missing required configuration"
	loggerCreationErrorMessage  = "logger"

	logEventListening        = "listening"
	logEventNoticesDisabled  = "email_notices_disabled"
	logFieldAddress          = "addr"
	loggerContextOpenDatabase = "open_db"
	loggerContextAutoMigrate  = "migrate"
	loggerContextMailer       = "mailer"
	loggerContextServer       = "server"

	flagNameApplicationAddress     = "app-addr"
	flagNameDatabaseDriver         = "db-driver"
	flagNameDatabaseDataSourceName = "db-dsn"
	flagNameAdminBearerToken       = "admin-bearer-token"

	flagUsageApplicationAddress     = "address for the HTTP server to listen on"
	flagUsageDatabaseDriver         = "database driver (sqlite or postgres)"
	flagUsageDatabaseDataSourceName = "database connection string"
	flagUsageAdminBearerToken       = "bearer token required for admin API access"

	environmentKeyApplicationAddress = "APP_ADDR"
	environmentKeyDatabaseDriver     = "DB_DRIVER"
	environmentKeyDatabaseDataSource = "DB_DSN"
	environmentKeyAdminBearerToken   = "ADMIN_BEARER_TOKEN"
	environmentKeySMTPHost           = "SMTP_HOST"
	environmentKeySMTPPort           = "SMTP_PORT"
	environmentKeySMTPUser           = "SMTP_USER"
	environmentKeySMTPPassword       = "SMTP_PASSWORD"
	environmentKeyMailFrom           = "MAIL_FROM"
	environmentKeyAgencyName         = "AGENCY_NAME"
	environmentKeyAgencyEmail        = "AGENCY_EMAIL"
	environmentKeyPublicBaseURL      = "PUBLIC_BASE_URL"
	environmentKeyBusinessHoursOpen  = "BUSINESS_HOURS_OPEN"
	environmentKeyBusinessHoursClose = "BUSINESS_HOURS_CLOSE"

	defaultApplicationAddress = ":8080"
	defaultDatabaseDriver     = storage.DriverNameSQLite
	defaultPublicBaseURL      = "http://localhost:8080"

	readHeaderTimeoutSeconds     = 5
	unexpectedArgumentsMessage   = "unexpected command arguments"
	commandInitializationFailure = "failed to configure command"
	flagNotDefinedMessage        = "flag %s not defined"
	environmentConfigurationErr  = "failed to apply environment configuration"
)

// ServerConfig captures configuration needed to run the server.
type ServerConfig struct {
	ApplicationAddress     string
	DatabaseDriver         string
	DatabaseDataSourceName string
	AdminBearerToken       string
	SMTPHost               string
	SMTPPort               int
	SMTPUser               string
	SMTPPassword           string
	MailFrom               string
	AgencyName             string
	AgencyEmail            string
	PublicBaseURL          string
	BusinessHours          model.BusinessHours
}

// DatabaseOpener opens a database connection using the provided configuration.
type DatabaseOpener func(storage.Config) (*gorm.DB, error)

// ServerApplication constructs and executes the server command.
type ServerApplication struct {
	configurationLoader *viper.Viper
	databaseOpener      DatabaseOpener
}

// NewServerApplication creates a ServerApplication with default dependencies.
func NewServerApplication() *ServerApplication {
	return &ServerApplication{
		configurationLoader: viper.New(),
		databaseOpener:      storage.OpenDatabase,
	}
}

// WithDatabaseOpener overrides the database opener dependency.
func (application *ServerApplication) WithDatabaseOpener(databaseOpener DatabaseOpener) *ServerApplication {
	application.databaseOpener = databaseOpener
	return application
}

// Command builds the Cobra command for the server.
func (application *ServerApplication) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:   commandUseName,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  application.runCommand,
	}

	if configurationErr := application.configureCommand(rootCommand); configurationErr != nil {
		return nil, configurationErr
	}

	return rootCommand, nil
}

func (application *ServerApplication) configureCommand(command *cobra.Command) error {
	application.configurationLoader.SetDefault(environmentKeyApplicationAddress, defaultApplicationAddress)
	application.configurationLoader.SetDefault(environmentKeyDatabaseDriver, defaultDatabaseDriver)
	application.configurationLoader.SetDefault(environmentKeyDatabaseDataSource, "")
	application.configurationLoader.SetDefault(environmentKeyAdminBearerToken, "")
	application.configurationLoader.SetDefault(environmentKeyPublicBaseURL, defaultPublicBaseURL)
	application.configurationLoader.SetDefault(environmentKeyBusinessHoursOpen, model.DefaultBusinessHours.Open)
	application.configurationLoader.SetDefault(environmentKeyBusinessHoursClose, model.DefaultBusinessHours.Close)
	application.configurationLoader.AutomaticEnv()

	commandFlags := command.Flags()
	commandFlags.String(flagNameApplicationAddress, defaultApplicationAddress, flagUsageApplicationAddress)
	commandFlags.String(flagNameDatabaseDriver, defaultDatabaseDriver, flagUsageDatabaseDriver)
	commandFlags.String(flagNameDatabaseDataSourceName, "", flagUsageDatabaseDataSourceName)
	commandFlags.String(flagNameAdminBearerToken, "", flagUsageAdminBearerToken)

	flagBindings := []struct {
		environmentKey string
		flagName       string
	}{
		{environmentKeyApplicationAddress, flagNameApplicationAddress},
		{environmentKeyDatabaseDriver, flagNameDatabaseDriver},
		{environmentKeyDatabaseDataSource, flagNameDatabaseDataSourceName},
		{environmentKeyAdminBearerToken, flagNameAdminBearerToken},
	}

	for _, binding := range flagBindings {
		if bindErr := application.bindFlag(commandFlags, binding.environmentKey, binding.flagName); bindErr != nil {
			return bindErr
		}
		if environmentErr := application.applyEnvironmentConfiguration(commandFlags, binding.environmentKey, binding.flagName); environmentErr != nil {
			return environmentErr
		}
	}

	if markErr := command.MarkFlagRequired(flagNameDatabaseDataSourceName); markErr != nil {
		return markErr
	}

	if markErr := command.MarkFlagRequired(flagNameAdminBearerToken); markErr != nil {
		return markErr
	}

	return nil
}

func (application *ServerApplication) bindFlag(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	flag := flagSet.Lookup(flagName)
	if flag == nil {
		return fmt.Errorf(flagNotDefinedMessage, flagName)
	}

	if bindErr := application.configurationLoader.BindPFlag(environmentKey, flag); bindErr != nil {
		return bindErr
	}

	return nil
}

func (application *ServerApplication) applyEnvironmentConfiguration(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	environmentValue, environmentFound := os.LookupEnv(environmentKey)
	if !environmentFound {
		return nil
	}

	if setErr := flagSet.Set(flagName, environmentValue); setErr != nil {
		return fmt.Errorf("%s: %w", environmentConfigurationErr, setErr)
	}

	return nil
}

func (application *ServerApplication) loadServerConfig() ServerConfig {
	loader := application.configurationLoader
	return ServerConfig{
		ApplicationAddress:     loader.GetString(environmentKeyApplicationAddress),
		DatabaseDriver:         strings.TrimSpace(loader.GetString(environmentKeyDatabaseDriver)),
		DatabaseDataSourceName: strings.TrimSpace(loader.GetString(environmentKeyDatabaseDataSource)),
		AdminBearerToken:       strings.TrimSpace(loader.GetString(environmentKeyAdminBearerToken)),
		SMTPHost:               strings.TrimSpace(loader.GetString(environmentKeySMTPHost)),
		SMTPPort:               loader.GetInt(environmentKeySMTPPort),
		SMTPUser:               strings.TrimSpace(loader.GetString(environmentKeySMTPUser)),
		SMTPPassword:           loader.GetString(environmentKeySMTPPassword),
		MailFrom:               strings.TrimSpace(loader.GetString(environmentKeyMailFrom)),
		AgencyName:             strings.TrimSpace(loader.GetString(environmentKeyAgencyName)),
		AgencyEmail:            strings.TrimSpace(loader.GetString(environmentKeyAgencyEmail)),
		PublicBaseURL:          strings.TrimSpace(loader.GetString(environmentKeyPublicBaseURL)),
		BusinessHours: model.BusinessHours{
			Open:  strings.TrimSpace(loader.GetString(environmentKeyBusinessHoursOpen)),
			Close: strings.TrimSpace(loader.GetString(environmentKeyBusinessHoursClose)),
		},
	}
}

func (application *ServerApplication) runCommand(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}

	serverConfig := application.loadServerConfig()

	if validationErr := application.ensureRequiredConfiguration(serverConfig); validationErr != nil {
		return validationErr
	}

	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
	}()

	database, databaseErr := application.databaseOpener(storage.Config{
		DriverName:     serverConfig.DatabaseDriver,
		DataSourceName: serverConfig.DatabaseDataSourceName,
	})
	if databaseErr != nil {
		logger.Fatal(loggerContextOpenDatabase, zap.Error(databaseErr))
	}

	if migrateErr := storage.AutoMigrate(database); migrateErr != nil {
		logger.Fatal(loggerContextAutoMigrate, zap.Error(migrateErr))
	}

	dispatcher := buildDispatcher(serverConfig, database, logger)

	worker := task.NewDispatchWorker(logger, 0, 0)
	worker.Start(context.Background())
	defer worker.Stop()

	router := buildRouter(database, logger, dispatcher, worker, serverConfig)

	httpServer := &http.Server{
		Addr:              serverConfig.ApplicationAddress,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeoutSeconds * time.Second,
	}

	logger.Info(logEventListening, zap.String(logFieldAddress, serverConfig.ApplicationAddress))
	if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		logger.Fatal(loggerContextServer, zap.Error(serveErr))
	}

	return nil
}

// buildDispatcher wires the SMTP mailer when one is configured. Without an
// SMTP host the server runs with notices disabled.
func buildDispatcher(serverConfig ServerConfig, database *gorm.DB, logger *zap.Logger) *notifications.Dispatcher {
	if serverConfig.SMTPHost == "" {
		logger.Warn(logEventNoticesDisabled)
		return nil
	}

	mailer, mailerErr := notifications.NewSMTPMailer(notifications.SMTPMailerConfig{
		Host:          serverConfig.SMTPHost,
		Port:          serverConfig.SMTPPort,
		Username:      serverConfig.SMTPUser,
		Password:      serverConfig.SMTPPassword,
		SenderAddress: serverConfig.MailFrom,
	})
	if mailerErr != nil {
		logger.Fatal(loggerContextMailer, zap.Error(mailerErr))
	}

	return notifications.NewDispatcher(database, mailer, logger, notifications.DispatcherConfig{
		AgencyName:    serverConfig.AgencyName,
		AgencyAddress: serverConfig.AgencyEmail,
		PublicBaseURL: serverConfig.PublicBaseURL,
	})
}

func (application *ServerApplication) ensureRequiredConfiguration(configuration ServerConfig) error {
	var missingParameters []string

	if configuration.DatabaseDataSourceName == "" {
		missingParameters = append(missingParameters, flagNameDatabaseDataSourceName)
	}

	if configuration.AdminBearerToken == "" {
		missingParameters = append(missingParameters, flagNameAdminBearerToken)
	}

	if len(missingParameters) == 0 {
		return nil
	}

	return fmt.Errorf("%s: %s", missingConfigurationMessage, strings.Join(missingParameters, ", "))
}

// coordinatorNotifier adapts the optional dispatcher to the lifecycle notifier
// dependency; a nil dispatcher leaves the coordinator on its noop notifier.
func coordinatorNotifier(dispatcher *notifications.Dispatcher) lifecycle.TransitionNotifier {
	if dispatcher == nil {
		return nil
	}
	return dispatcher
}

func intakeNotifier(dispatcher *notifications.Dispatcher) api.IntakeNotifier {
	if dispatcher == nil {
		return nil
	}
	return dispatcher
}

func main() {
	_ = godotenv.Load()

	application := NewServerApplication()
	rootCommand, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandInitializationFailure, commandErr)
		os.Exit(1)
	}

	if executeErr := rootCommand.Execute(); executeErr != nil {
		os.Exit(1)
	}
}
