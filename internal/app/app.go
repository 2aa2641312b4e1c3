// Package app wires stores and services from configuration. Every binary
// builds on it so that the API, CLI and TUI share one composition.
package app

import (
	"context"
	"database/sql"

	accountStore "github.com/MrJamesThe3rd/ledgersync/internal/account/store"
	"github.com/MrJamesThe3rd/ledgersync/internal/banksync"
	"github.com/MrJamesThe3rd/ledgersync/internal/categorize"
	categoryStore "github.com/MrJamesThe3rd/ledgersync/internal/category/store"
	"github.com/MrJamesThe3rd/ledgersync/internal/config"
	credentialStore "github.com/MrJamesThe3rd/ledgersync/internal/credential/store"
	"github.com/MrJamesThe3rd/ledgersync/internal/database"
	"github.com/MrJamesThe3rd/ledgersync/internal/statement"
	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
	txStore "github.com/MrJamesThe3rd/ledgersync/internal/transaction/store"
)

type App struct {
	DB           *sql.DB
	Accounts     *accountStore.Store
	Categories   *categoryStore.Store
	Transactions *transaction.Service
	Sync         *banksync.Service
	Cache        *categorize.Cache
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.New(ctx, cfg.ConnectionString(), database.Pool{
		MaxOpen:     cfg.DB.MaxOpenConns,
		MaxIdle:     cfg.DB.MaxIdleConns,
		MaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}

	return Wire(db, cfg), nil
}

// Wire builds the services on an open database.
func Wire(db *sql.DB, cfg *config.Config) *App {
	var (
		accounts     = accountStore.New(db)
		categories   = categoryStore.New(db)
		transactions = transaction.NewService(txStore.New(db))
	)

	cache := categorize.NewCache(cfg.Categories.CacheTTL, func() (*categorize.Tables, error) {
		return categorize.LoadTables(cfg.Categories.DictionaryPath, cfg.Categories.MCCPath)
	})

	client := statement.NewClient(cfg.Statement.BaseURL, cfg.Statement.Timeout,
		statement.WithMaxWindow(cfg.Statement.MaxWindow),
		statement.WithPageLimit(cfg.Statement.PageLimit),
	)

	syncService := banksync.NewService(
		accounts,
		credentialStore.New(db),
		client,
		categorize.NewResolver(categories, transactions, cache),
		transactions,
		database.NewAccountLocker(db),
		banksync.Options{
			AccountDelay:    cfg.Sync.AccountDelay,
			BatchTimeout:    cfg.Sync.BatchTimeout,
			InitialLookback: cfg.Sync.InitialLookback,
		},
	)

	return &App{
		DB:           db,
		Accounts:     accounts,
		Categories:   categories,
		Transactions: transactions,
		Sync:         syncService,
		Cache:        cache,
	}
}

func (a *App) Close() error {
	return a.DB.Close()
}
