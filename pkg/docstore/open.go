package docstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/pkg/cache"
	"github.com/noah-isme/school-portal-api/pkg/config"
	"github.com/noah-isme/school-portal-api/pkg/database"
)

// Open connects the backend named by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*RowStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Store.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Store.Timeout)
		defer cancel()
	}

	switch cfg.Store.Driver {
	case "", config.StoreDriverMemory:
		logger.Warn("document store is in-memory; data is lost on restart")
		return NewMemory(), nil
	case config.StoreDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Store.EnsureSchema {
			if err := EnsurePostgresSchema(ctx, db); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		logger.Info("document store connected", zap.String("driver", "postgres"), zap.String("db", cfg.Database.Name))
		return NewPostgres(db), nil
	case config.StoreDriverRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		logger.Info("document store connected", zap.String("driver", "redis"), zap.String("prefix", cfg.Redis.StorePrefix))
		return NewRedis(client, cfg.Redis.StorePrefix), nil
	case config.StoreDriverMongo:
		client, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		logger.Info("document store connected", zap.String("driver", "mongo"), zap.String("db", cfg.Mongo.Database))
		return NewMongo(client, cfg.Mongo.Database), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
