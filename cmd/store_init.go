package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dashboard-fill/internal/config"
	"github.com/sells-group/dashboard-fill/internal/store"
)

// initStore opens the configured run history backend. It returns a nil store
// when history is disabled.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "dashboard-fill.db"
		}
		st, err = store.NewSQLite(config.Resolve(workDir, dsn))
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// requireStore is initStore for commands that only make sense with history enabled.
func requireStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New(`run history is disabled; set "store.driver" to sqlite or postgres`)
	}
	return st, nil
}
