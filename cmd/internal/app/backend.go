package app

import (
	"context"
	"fmt"
	"time"

	"github.com/JatinVashisht1/clean-notes-backend/cmd/identity"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/internal/migrations"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/internal/notes"
)

// backend bundles the stores of one storage engine with its lifecycle.
// The app owns the pool or client; the stores only borrow it.
type backend struct {
	name     string
	accounts identity.Store
	notes    notes.Store
	close    func(ctx context.Context) error
}

func (b *backend) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return b.accounts.Ping(ctx)
}

func (b *backend) Close(ctx context.Context) error {
	if b.close == nil {
		return nil
	}
	return b.close(ctx)
}

func openBackend(ctx context.Context, cfg Config, log Logger) (*backend, error) {
	switch cfg.Storage {
	case StorageMemory:
		log.Warn("storage.memory", "note", "accounts and notes are lost on restart")
		return &backend{
			name:     StorageMemory,
			accounts: identity.NewMemoryStore(),
			notes:    notes.NewMemoryStore(),
		}, nil
	case StoragePostgres:
		return openPostgres(ctx, cfg, log)
	case StorageMongo:
		return openMongo(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("app: unknown storage %q", cfg.Storage)
	}
}

func openPostgres(ctx context.Context, cfg Config, log Logger) (*backend, error) {
	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("app: postgres: %w", err)
	}
	fail := func(err error) (*backend, error) {
		pool.Close()
		return nil, err
	}

	if cfg.MigrateOnStart {
		if err := migrations.UpPool(ctx, pool); err != nil {
			return fail(err)
		}
		log.Info("db.migrated")
	}

	accounts, err := identity.NewPostgresStore(pool, identity.WithSchema(cfg.DBSchema))
	if err != nil {
		return fail(err)
	}
	noteStore, err := notes.NewPostgresStore(pool, cfg.DBSchema)
	if err != nil {
		return fail(err)
	}

	log.Info("storage.postgres", "schema", cfg.DBSchema)
	return &backend{
		name:     StoragePostgres,
		accounts: accounts,
		notes:    noteStore,
		close: func(context.Context) error {
			pool.Close()
			return nil
		},
	}, nil
}

func openMongo(ctx context.Context, cfg Config, log Logger) (*backend, error) {
	client, err := NewMongoClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("app: mongo: %w", err)
	}
	fail := func(err error) (*backend, error) {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	db := client.Database(cfg.MongoDatabase)
	accounts, err := identity.NewMongoStore(db, identity.DefaultAccountsCollection)
	if err != nil {
		return fail(err)
	}
	noteStore, err := notes.NewMongoStore(db, notes.DefaultCollection)
	if err != nil {
		return fail(err)
	}
	if err := accounts.EnsureIndexes(ctx); err != nil {
		return fail(err)
	}
	if err := noteStore.EnsureIndexes(ctx); err != nil {
		return fail(err)
	}

	log.Info("storage.mongo", "database", cfg.MongoDatabase)
	return &backend{
		name:     StorageMongo,
		accounts: accounts,
		notes:    noteStore,
		close:    client.Disconnect,
	}, nil
}
