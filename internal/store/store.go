package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/nao1215/sismoscrape/internal/model"
)

// DefaultTableName is the table written when none is configured.
const DefaultTableName = "TablaWebScrapping"

// Store is a single table of rows keyed by their id field.
type Store interface {
	// Scan returns every record in the table, ordered by rank.
	Scan(ctx context.Context) ([]*model.Row, error)

	// Delete removes the records with the given ids. Unknown ids are ignored.
	Delete(ctx context.Context, ids ...string) error

	// Put inserts rows keyed by their id, overwriting records with the same id.
	Put(ctx context.Context, rows ...*model.Row) error

	// Close releases the backend.
	Close() error
}

// AtomicReplacer is implemented by stores that can substitute the whole
// table contents in a single transaction.
type AtomicReplacer interface {
	// Replace removes every record and inserts rows. On error the table is
	// left as it was. It returns the number of records removed.
	Replace(ctx context.Context, rows []*model.Row) (int, error)
}

// Kind names a store backend.
type Kind string

// Supported backends.
const (
	KindSQLite   Kind = "sqlite"
	KindDynamoDB Kind = "dynamodb"
	KindMemory   Kind = "memory"
)

// Kinds returns the supported backends.
func Kinds() []Kind {
	return []Kind{KindSQLite, KindDynamoDB, KindMemory}
}

// Valid reports whether k is a supported backend.
func (k Kind) Valid() bool {
	for _, kind := range Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// OpenOptions selects and configures a backend.
type OpenOptions struct {
	// Kind is the backend to open.
	Kind Kind

	// TableName is the table the store reads and writes.
	TableName string

	// DBDir is the directory holding the SQLite database file.
	DBDir string

	// Region is the AWS region. Empty uses the SDK's default resolution.
	Region string

	// Endpoint overrides the DynamoDB endpoint, e.g. for DynamoDB Local.
	Endpoint string

	// Logger receives backend diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// Open opens the backend described by opts.
func Open(ctx context.Context, opts OpenOptions) (Store, error) {
	if opts.TableName == "" {
		opts.TableName = DefaultTableName
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	switch opts.Kind {
	case KindSQLite:
		return OpenSQLite(opts.DBDir, opts.TableName, DefaultSQLiteOptions())
	case KindMemory:
		return NewMemoryStore(), nil
	case KindDynamoDB:
		var loadOpts []func(*awsconfig.LoadOptions) error
		if opts.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
			if opts.Endpoint != "" {
				o.BaseEndpoint = aws.String(opts.Endpoint)
			}
		})
		return NewDynamoDBStore(client, opts.TableName, WithDynamoDBLogger(opts.Logger)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, opts.Kind)
	}
}
