package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/kdudkov/scanrelay/internal/config"
	"github.com/kdudkov/scanrelay/internal/database"
	"github.com/kdudkov/scanrelay/internal/store"
)

// openStore picks the backend by the uri scheme: mongodb:// and mongodb+srv://
// go to the change stream backed collection, sqlite: and mysql: to the gorm one.
func openStore(ctx context.Context, cfg *config.AppConfig) (store.EventStore, error) {
	uri := cfg.StoreURI()

	switch {
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		return store.NewMongo(ctx, uri, cfg.DBName(), cfg.Collection(), cfg.StoreTimeout())

	case database.IsDSN(uri):
		db, err := database.GetDatabase(uri, cfg.Debug())
		if err != nil {
			return nil, store.Unavailable("open database", err)
		}

		mm := database.New(db).SetPollInterval(cfg.SQLPollInterval())

		if err := mm.Migrate(); err != nil {
			return nil, store.Unavailable("migrate", err)
		}

		return mm, nil

	case uri == "":
		return nil, fmt.Errorf("%w: no store uri", config.ErrConfigurationMissing)

	default:
		return nil, fmt.Errorf("%w: unsupported store uri %q", config.ErrConfigurationMissing, uri)
	}
}
