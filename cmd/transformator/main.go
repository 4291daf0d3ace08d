package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/KirillMachuk/tg-transformator-bot/internal/api"
	"github.com/KirillMachuk/tg-transformator-bot/internal/flow"
	"github.com/KirillMachuk/tg-transformator-bot/internal/genai"
	"github.com/KirillMachuk/tg-transformator-bot/internal/pdf"
	"github.com/KirillMachuk/tg-transformator-bot/internal/session"
	"github.com/KirillMachuk/tg-transformator-bot/internal/sheets"
	"github.com/KirillMachuk/tg-transformator-bot/internal/telegram"
	"github.com/KirillMachuk/tg-transformator-bot/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for bot state data
	DefaultStateDir = "/var/lib/transformator"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "transformator.db"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Hard requirements: without these the bot cannot talk at all
	if *flags.telegramToken == "" {
		slog.Error("TELEGRAM_BOT_TOKEN is required")
		os.Exit(1)
	}
	if *flags.openaiKey == "" {
		slog.Error("OPENAI_API_KEY is required")
		os.Exit(1)
	}

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Build module options
	storeOpts := buildStoreOptions(flags)
	genaiOpts := buildGenAIOptions(flags)
	telegramOpts := buildTelegramOptions(flags)
	pdfOpts := buildPDFOptions(flags)
	sheetsOpts := buildSheetsOptions(flags)
	flowOpts := buildFlowOptions(flags)
	apiOpts := buildAPIOptions(flags)

	// Start the service
	slog.Info("Bootstrapping Transformator bot with configured modules")
	slog.Debug("Module options counts",
		"store", len(storeOpts), "genai", len(genaiOpts), "telegram", len(telegramOpts),
		"pdf", len(pdfOpts), "sheets", len(sheetsOpts), "flow", len(flowOpts), "api", len(apiOpts))
	if err := api.Run(storeOpts, genaiOpts, telegramOpts, pdfOpts, sheetsOpts, flowOpts, apiOpts...); err != nil {
		slog.Error("Transformator bot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Transformator bot exited successfully")
}

// Config holds environment configuration
type Config struct {
	TelegramToken   string
	SecretToken     string
	OpenAIKey       string
	OpenAIModel     string
	StoreDriver     string
	DatabaseURL     string
	RedisURL        string
	StateDir        string
	GASEndpoint     string
	CredentialsJSON string
	SheetID         string
	SheetRange      string
	PDFFontPath     string
	ConsultationURL string
	APIAddr         string
}

// Flags holds command line flag values
type Flags struct {
	telegramToken   *string
	secretToken     *string
	openaiKey       *string
	openaiModel     *string
	storeDriver     *string
	dbDSN           *string
	redisURL        *string
	stateDir        *string
	gasEndpoint     *string
	credentialsJSON *string
	sheetID         *string
	sheetRange      *string
	pdfFontPath     *string
	consultationURL *string
	apiAddr         *string
}

// initializeLogger sets up structured logging; LOG_DEBUG enables debug level
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("LOG_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		SecretToken:     os.Getenv("TELEGRAM_SECRET_TOKEN"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     os.Getenv("OPENAI_MODEL"),
		StoreDriver:     os.Getenv("SESSION_DB_DRIVER"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		StateDir:        os.Getenv("TRANSFORMATOR_STATE_DIR"),
		GASEndpoint:     os.Getenv("GAS_ENDPOINT"),
		CredentialsJSON: os.Getenv("GOOGLE_CREDENTIALS_JSON"),
		SheetID:         os.Getenv("GOOGLE_SHEET_ID"),
		SheetRange:      os.Getenv("GOOGLE_SHEET_RANGE"),
		PDFFontPath:     os.Getenv("PDF_FONT_PATH"),
		ConsultationURL: os.Getenv("CONSULTATION_URL"),
		APIAddr:         os.Getenv("API_ADDR"),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No TRANSFORMATOR_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// Infer the store driver from the configured backends when not set
	if config.StoreDriver == "" {
		switch {
		case config.RedisURL != "":
			config.StoreDriver = "redis"
		case strings.Contains(config.DatabaseURL, "postgres://") || strings.Contains(config.DatabaseURL, "host="):
			config.StoreDriver = "postgres"
		case config.DatabaseURL != "":
			config.StoreDriver = "sqlite"
		default:
			config.StoreDriver = "sqlite"
			config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
			slog.Debug("No database configured, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
		}
	}

	slog.Debug("environment variables loaded",
		"TELEGRAM_BOT_TOKEN_SET", config.TelegramToken != "",
		"TELEGRAM_SECRET_TOKEN_SET", config.SecretToken != "",
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"OPENAI_MODEL", config.OpenAIModel,
		"SESSION_DB_DRIVER", config.StoreDriver,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"REDIS_URL_SET", config.RedisURL != "",
		"GAS_ENDPOINT_SET", config.GASEndpoint != "",
		"GOOGLE_SHEET_ID_SET", config.SheetID != "",
		"API_ADDR", config.APIAddr)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		telegramToken:   flag.String("telegram-token", config.TelegramToken, "Telegram bot token (overrides $TELEGRAM_BOT_TOKEN)"),
		secretToken:     flag.String("secret-token", config.SecretToken, "webhook shared secret (overrides $TELEGRAM_SECRET_TOKEN)"),
		openaiKey:       flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		openaiModel:     flag.String("openai-model", config.OpenAIModel, "OpenAI model name (overrides $OPENAI_MODEL)"),
		storeDriver:     flag.String("store-driver", config.StoreDriver, "session store driver: memory, sqlite, postgres or redis (overrides $SESSION_DB_DRIVER)"),
		dbDSN:           flag.String("db-dsn", config.DatabaseURL, "database DSN for the session store (overrides $DATABASE_URL)"),
		redisURL:        flag.String("redis-url", config.RedisURL, "Redis URL for the session store (overrides $REDIS_URL)"),
		stateDir:        flag.String("state-dir", config.StateDir, "state directory for bot data (overrides $TRANSFORMATOR_STATE_DIR)"),
		gasEndpoint:     flag.String("gas-endpoint", config.GASEndpoint, "Google Apps Script endpoint for answer storage (overrides $GAS_ENDPOINT)"),
		credentialsJSON: flag.String("google-credentials-json", config.CredentialsJSON, "Google service account credentials JSON (overrides $GOOGLE_CREDENTIALS_JSON)"),
		sheetID:         flag.String("google-sheet-id", config.SheetID, "Google spreadsheet ID (overrides $GOOGLE_SHEET_ID)"),
		sheetRange:      flag.String("google-sheet-range", config.SheetRange, "Google spreadsheet range (overrides $GOOGLE_SHEET_RANGE)"),
		pdfFontPath:     flag.String("pdf-font-path", config.PDFFontPath, "path to a UTF-8 TTF font for PDF reports (overrides $PDF_FONT_PATH)"),
		consultationURL: flag.String("consultation-url", config.ConsultationURL, "consultation booking URL for the follow-up message (overrides $CONSULTATION_URL)"),
		apiAddr:         flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"telegramTokenSet", *flags.telegramToken != "",
		"openaiKeySet", *flags.openaiKey != "",
		"storeDriver", *flags.storeDriver,
		"dbDSN_set", *flags.dbDSN != "",
		"redisURL_set", *flags.redisURL != "",
		"stateDir", *flags.stateDir,
		"apiAddr", *flags.apiAddr)

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if *flags.storeDriver != "sqlite" || *flags.dbDSN == "" {
		return nil
	}
	stateDir := filepath.Dir(*flags.dbDSN)
	slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
		return err
	}
	return nil
}

// buildStoreOptions constructs session store configuration options
func buildStoreOptions(flags Flags) []session.Option {
	var storeOpts []session.Option
	if *flags.dbDSN != "" {
		storeOpts = append(storeOpts, session.WithDSN(*flags.dbDSN))
	}
	if *flags.redisURL != "" {
		storeOpts = append(storeOpts, session.WithRedisURL(*flags.redisURL))
	}
	return storeOpts
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	if *flags.openaiModel != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(*flags.openaiModel))
	}
	return genaiOpts
}

// buildTelegramOptions constructs Telegram client configuration options
func buildTelegramOptions(flags Flags) []telegram.Option {
	var telegramOpts []telegram.Option
	if *flags.telegramToken != "" {
		telegramOpts = append(telegramOpts, telegram.WithToken(*flags.telegramToken))
	}
	return telegramOpts
}

// buildPDFOptions constructs PDF renderer configuration options
func buildPDFOptions(flags Flags) []pdf.Option {
	var pdfOpts []pdf.Option
	if *flags.pdfFontPath != "" {
		pdfOpts = append(pdfOpts, pdf.WithFontPath(*flags.pdfFontPath))
	}
	return pdfOpts
}

// buildSheetsOptions constructs answer storage configuration options
func buildSheetsOptions(flags Flags) []sheets.Option {
	var sheetsOpts []sheets.Option
	if *flags.gasEndpoint != "" {
		sheetsOpts = append(sheetsOpts, sheets.WithGASEndpoint(*flags.gasEndpoint))
	}
	if *flags.credentialsJSON != "" {
		sheetsOpts = append(sheetsOpts, sheets.WithCredentialsJSON(*flags.credentialsJSON))
	}
	if *flags.sheetID != "" {
		sheetsOpts = append(sheetsOpts, sheets.WithSheet(*flags.sheetID, *flags.sheetRange))
	}
	return sheetsOpts
}

// buildFlowOptions constructs conversation flow configuration options
func buildFlowOptions(flags Flags) []flow.Option {
	var flowOpts []flow.Option
	if *flags.consultationURL != "" {
		flowOpts = append(flowOpts, flow.WithConsultationURL(*flags.consultationURL))
	}
	return flowOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	if *flags.secretToken != "" {
		apiOpts = append(apiOpts, api.WithSecretToken(*flags.secretToken))
	}
	if *flags.storeDriver != "" {
		apiOpts = append(apiOpts, api.WithStoreDriver(*flags.storeDriver))
	}
	return apiOpts
}
