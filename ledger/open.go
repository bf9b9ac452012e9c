package ledger

import (
	"context"
	"fmt"
)

// Options selects a ledger backend.
type Options struct {
	Backend    string
	SQLitePath string
	MongoURI   string
	DBName     string
}

// Open returns the configured Store.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "sqlite":
		s, err := OpenSQLite(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "mongo":
		s, err := ConnectMongo(ctx, opts.MongoURI, opts.DBName)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend: %s", opts.Backend)
	}
}
