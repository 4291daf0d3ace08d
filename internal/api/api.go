package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/KirillMachuk/tg-transformator-bot/internal/flow"
	"github.com/KirillMachuk/tg-transformator-bot/internal/genai"
	"github.com/KirillMachuk/tg-transformator-bot/internal/pdf"
	"github.com/KirillMachuk/tg-transformator-bot/internal/session"
	"github.com/KirillMachuk/tg-transformator-bot/internal/sheets"
	"github.com/KirillMachuk/tg-transformator-bot/internal/telegram"
)

// DefaultAPIAddr is the listen address used when none is configured.
const DefaultAPIAddr = ":8080"

// Opts holds configuration for the webhook server.
type Opts struct {
	// Addr is the address the HTTP server listens on.
	Addr string
	// SecretToken, when set, must match the secret header Telegram sends
	// with every webhook delivery.
	SecretToken string
	// StoreDriver selects the session backend: "memory", "sqlite",
	// "postgres" or "redis".
	StoreDriver string
}

// Option configures the webhook server.
type Option func(*Opts)

// WithAddr sets the HTTP listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// WithSecretToken sets the webhook shared secret.
func WithSecretToken(token string) Option {
	return func(o *Opts) {
		o.SecretToken = token
	}
}

// WithStoreDriver selects the session store backend.
func WithStoreDriver(driver string) Option {
	return func(o *Opts) {
		o.StoreDriver = driver
	}
}

func applyOptions(opts ...Option) Opts {
	cfg := Opts{Addr: DefaultAPIAddr, StoreDriver: "memory"}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAPIAddr
	}
	return cfg
}

// buildStore constructs the session store for the configured driver. A
// backend that fails to initialize degrades to the in-memory store so the
// bot keeps answering even without durable sessions.
func buildStore(driver string, storeOpts []session.Option) session.Store {
	var (
		primary session.Store
		err     error
	)
	switch driver {
	case "postgres":
		primary, err = session.NewPostgresStore(storeOpts...)
	case "redis":
		primary, err = session.NewRedisStore(storeOpts...)
	case "sqlite":
		primary, err = session.NewSQLiteStore(storeOpts...)
	case "", "memory":
		return session.NewMemoryStore(storeOpts...)
	default:
		slog.Warn("buildStore: unknown session store driver, using in-memory store", "driver", driver)
		return session.NewMemoryStore(storeOpts...)
	}
	if err != nil {
		slog.Error("buildStore: failed to initialize session store, degrading to in-memory store", "driver", driver, "error", err)
		return session.NewMemoryStore(storeOpts...)
	}
	slog.Info("buildStore: session store initialized", "driver", driver)
	return session.NewFallbackStore(primary)
}

// Run wires the bot's collaborators together and serves the Telegram
// webhook until the HTTP server stops.
func Run(storeOpts []session.Option, genaiOpts []genai.Option, telegramOpts []telegram.Option, pdfOpts []pdf.Option, sheetsOpts []sheets.Option, flowOpts []flow.Option, apiOpts ...Option) error {
	cfg := applyOptions(apiOpts...)

	tgClient, err := telegram.NewClient(telegramOpts...)
	if err != nil {
		return fmt.Errorf("failed to create Telegram client: %w", err)
	}

	genaiClient, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return fmt.Errorf("failed to create GenAI client: %w", err)
	}

	store := buildStore(cfg.StoreDriver, storeOpts)
	renderer := pdf.NewRenderer(pdfOpts...)
	recorder := sheets.NewRecorder(sheetsOpts...)

	conversation := flow.NewConversation(store, genaiClient, tgClient, renderer, recorder, flowOpts...)
	server := NewServer(conversation, tgClient, cfg.SecretToken)

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", server.webhookHandler)
	mux.HandleFunc("/health", server.healthHandler)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
	}

	slog.Info("API server running", "addr", cfg.Addr, "store_driver", cfg.StoreDriver)
	return httpServer.ListenAndServe()
}
