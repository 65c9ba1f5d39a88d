package store

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sismoscrape/internal/model"
)

// DynamoDB limits and defaults.
const (
	// MaxBatchWriteItems is the largest number of requests BatchWriteItem accepts.
	MaxBatchWriteItems = 25

	// DefaultDeleteConcurrency is how many delete batches run at once.
	DefaultDeleteConcurrency = 4

	// DefaultMaxBatchPasses bounds how often unprocessed items are resubmitted.
	DefaultMaxBatchPasses = 5
)

// DynamoDBAPI is the subset of the DynamoDB client used by DynamoDBStore.
type DynamoDBAPI interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// DynamoDBStore stores each row as an item whose attributes are the row
// fields. The table's partition key must be the string attribute "id".
//
// DynamoDB items are unordered, so Scan returns column keys sorted by name
// with the rank and id fields last.
type DynamoDBStore struct {
	client            DynamoDBAPI
	table             string
	deleteConcurrency int
	maxPasses         int
	logger            *slog.Logger
}

// DynamoDBOption configures a DynamoDBStore.
type DynamoDBOption func(*DynamoDBStore)

// WithDeleteConcurrency sets how many delete batches run at once.
func WithDeleteConcurrency(n int) DynamoDBOption {
	return func(s *DynamoDBStore) {
		if n > 0 {
			s.deleteConcurrency = n
		}
	}
}

// WithMaxBatchPasses sets how often a batch is resubmitted while DynamoDB
// reports unprocessed items.
func WithMaxBatchPasses(n int) DynamoDBOption {
	return func(s *DynamoDBStore) {
		if n > 0 {
			s.maxPasses = n
		}
	}
}

// WithDynamoDBLogger sets a custom logger.
func WithDynamoDBLogger(logger *slog.Logger) DynamoDBOption {
	return func(s *DynamoDBStore) {
		s.logger = logger
	}
}

// NewDynamoDBStore creates a store for table using client.
func NewDynamoDBStore(client DynamoDBAPI, table string, opts ...DynamoDBOption) *DynamoDBStore {
	s := &DynamoDBStore{
		client:            client,
		table:             table,
		deleteConcurrency: DefaultDeleteConcurrency,
		maxPasses:         DefaultMaxBatchPasses,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan reads every item of the table, following pagination.
func (s *DynamoDBStore) Scan(ctx context.Context) ([]*model.Row, error) {
	rows := make([]*model.Row, 0)

	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan table %s: %w", s.table, err)
		}

		for _, item := range out.Items {
			row, err := itemToRow(item)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	sortRows(rows)
	return rows, nil
}

// Delete removes items by id. Batches are sent concurrently; the first
// failure cancels the batches not yet sent.
func (s *DynamoDBStore) Delete(ctx context.Context, ids ...string) error {
	requests := make([]types.WriteRequest, 0, len(ids))
	for _, id := range ids {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: map[string]types.AttributeValue{
					model.FieldID: &types.AttributeValueMemberS{Value: id},
				},
			},
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.deleteConcurrency)
	for _, chunk := range chunkRequests(requests, MaxBatchWriteItems) {
		g.Go(func() error {
			return s.batchWrite(gctx, chunk)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to delete items from %s: %w", s.table, err)
	}
	return nil
}

// Put writes rows as items, one batch at a time.
func (s *DynamoDBStore) Put(ctx context.Context, rows ...*model.Row) error {
	requests := make([]types.WriteRequest, 0, len(rows))
	for i, row := range rows {
		if row.ID() == "" {
			return fmt.Errorf("row %d: %w", i, ErrMissingID)
		}

		item, err := attributevalue.MarshalMap(row.Map())
		if err != nil {
			return fmt.Errorf("failed to encode row %s: %w", row.ID(), err)
		}
		requests = append(requests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
	}

	for _, chunk := range chunkRequests(requests, MaxBatchWriteItems) {
		if err := s.batchWrite(ctx, chunk); err != nil {
			return fmt.Errorf("failed to put items into %s: %w", s.table, err)
		}
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *DynamoDBStore) Close() error {
	return nil
}

// batchWrite sends one batch and resubmits whatever DynamoDB reports as
// unprocessed, up to maxPasses times.
func (s *DynamoDBStore) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{s.table: requests}

	for pass := 0; pass < s.maxPasses; pass++ {
		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: pending,
		})
		if err != nil {
			return err
		}

		remaining := out.UnprocessedItems[s.table]
		if len(remaining) == 0 {
			return nil
		}

		s.logger.Debug("resubmitting unprocessed items",
			"table", s.table,
			"pass", pass+1,
			"count", len(remaining),
		)
		pending = map[string][]types.WriteRequest{s.table: remaining}
	}

	return fmt.Errorf("%w: %d requests after %d passes", ErrUnprocessedItems, len(pending[s.table]), s.maxPasses)
}

func chunkRequests(requests []types.WriteRequest, size int) [][]types.WriteRequest {
	chunks := make([][]types.WriteRequest, 0, (len(requests)+size-1)/size)
	for start := 0; start < len(requests); start += size {
		end := min(start+size, len(requests))
		chunks = append(chunks, requests[start:end])
	}
	return chunks
}

// itemToRow decodes an item. Whole numbers become int.
func itemToRow(item map[string]types.AttributeValue) (*model.Row, error) {
	var fields map[string]any
	if err := attributevalue.UnmarshalMap(item, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode item: %w", err)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k != model.FieldRank && k != model.FieldID {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	row := model.NewRow()
	for _, k := range keys {
		row.Set(k, wholeNumber(fields[k]))
	}
	if v, ok := fields[model.FieldRank]; ok {
		row.Set(model.FieldRank, wholeNumber(v))
	}
	if v, ok := fields[model.FieldID]; ok {
		row.Set(model.FieldID, v)
	}
	return row, nil
}

func wholeNumber(v any) any {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return v
	}
	return int(f)
}
