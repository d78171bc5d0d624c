package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/config"
	"github.com/Frankwerd/Career-Suite-AI-V6/internal/store"
	"github.com/Frankwerd/Career-Suite-AI-V6/pkg/gmail"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.Path
		if dsn == "" {
			dsn = "careersuite.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "xlsx":
		path := cfg.Store.Path
		if path == "" {
			path = "careersuite.xlsx"
		}
		return store.NewXLSX(path)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initGmail() (gmail.Client, error) {
	if cfg.Gmail.Token == "" {
		return nil, eris.New("gmail token is required (CAREERSUITE_GMAIL_TOKEN)")
	}

	var opts []gmail.Option
	if cfg.Gmail.BaseURL != "" {
		opts = append(opts, gmail.WithBaseURL(cfg.Gmail.BaseURL))
	}
	return gmail.NewClient(cfg.Gmail.Token, opts...), nil
}

// loadRules returns the built-in reconciliation rules, overlaid with the
// rules file when one is configured.
func loadRules() (config.Rules, error) {
	if cfg.RulesPath == "" {
		return config.DefaultRules(), nil
	}
	return config.LoadRules(cfg.RulesPath)
}
