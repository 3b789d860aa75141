package sink

import (
	"context"
	"fmt"

	"afdp/internal/config"
	"afdp/internal/models"
	"afdp/internal/sink/mongodoc"
	"afdp/internal/sink/sqldoc"
)

// Open connects to the collection selected by cfg.Driver.
func Open(ctx context.Context, cfg *config.SinkConfig) (Collection, error) {
	switch cfg.Driver {
	case config.SinkMongo:
		store, err := mongodoc.Open(cfg.URI, cfg.Database, cfg.Collection, cfg.GetTimeout())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrConnectivity, err)
		}

		return store, nil
	case config.SinkSQLite:
		store, err := sqldoc.Open(ctx, sqldoc.SQLite, cfg.URI, cfg.Collection)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrConnectivity, err)
		}

		return store, nil
	case config.SinkPostgres:
		store, err := sqldoc.Open(ctx, sqldoc.Postgres, cfg.URI, cfg.Collection)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrConnectivity, err)
		}

		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidSinkDriver, cfg.Driver)
	}
}
