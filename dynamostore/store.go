// Package dynamostore persists an objtree map in a DynamoDB table, one item
// per key. The adapter is sparse: keys load with GetItem, mutations buffer in
// the tree, and Save flushes them in BatchWriteItem chunks.
//
// The table needs a string partition key (default "pk"); values live as
// msgpack bytes in the "v" attribute.
package dynamostore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/andreyvit/objtree"
)

// Client is the slice of the DynamoDB API the store uses. *dynamodb.Client
// satisfies it; tests substitute a fake.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Config names the table and its attributes.
type Config struct {
	Table   string
	PKAttr  string // partition key attribute, "pk" by default
	ValAttr string // value attribute, "v" by default
}

func (c *Config) validate() {
	if c.Table == "" {
		panic("dynamostore: Config.Table is required")
	}
	if c.PKAttr == "" {
		c.PKAttr = "pk"
	}
	if c.ValAttr == "" {
		c.ValAttr = "v"
	}
}

// batchMax is the DynamoDB BatchWriteItem request limit.
const batchMax = 25

// Store is a sparse map adapter over a DynamoDB table.
type Store struct {
	objtree.SourceBase
	client Client
	config Config
	ctx    context.Context

	pendingPuts map[string][]byte
	pendingDels map[string]bool
}

func New(client Client, config Config) *Store {
	config.validate()
	return &Store{client: client, config: config, ctx: context.Background()}
}

// WithContext returns a store issuing its calls under ctx.
func (s *Store) WithContext(ctx context.Context) *Store {
	cp := *s
	cp.ctx = ctx
	return &cp
}

func (s *Store) Meta() objtree.SourceMeta {
	return objtree.SourceMeta{Sparse: true, Kind: objtree.OMap}
}

func (s *Store) NewInstance(origin objtree.Origin) objtree.DataSource {
	return New(s.client, s.config).WithContext(s.ctx)
}

func (s *Store) ReadKey(key objtree.Key) (objtree.Object, error) {
	out, err := s.client.GetItem(s.ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.Table),
		Key: map[string]types.AttributeValue{
			s.config.PKAttr: &types.AttributeValueMemberS{Value: encodeKey(key)},
		},
	})
	if err != nil {
		return objtree.Object{}, fmt.Errorf("dynamostore: get %v: %w", key, err)
	}
	if out.Item == nil {
		return objtree.Object{}, nil
	}
	return s.decodeItem(out.Item)
}

func (s *Store) decodeItem(item map[string]types.AttributeValue) (objtree.Object, error) {
	attr, ok := item[s.config.ValAttr].(*types.AttributeValueMemberB)
	if !ok {
		return objtree.Object{}, fmt.Errorf("dynamostore: item missing %s attribute", s.config.ValAttr)
	}
	return decodeValue(attr.Value)
}

// Read materializes the whole table through a scan; it backs whole-value
// access to the bound node.
func (s *Store) Read() (objtree.Object, error) {
	out := objtree.NewOMap()
	cur := &scanCursor{store: s, slice: objtree.All(), withValues: true}
	for cur.Next() {
		item := cur.Item()
		out.Set(item.Key, item.Value)
	}
	if err := cur.Err(); err != nil {
		return objtree.Object{}, err
	}
	return out, nil
}

func (s *Store) WriteKey(key objtree.Key, value objtree.Object) error {
	v, err := encodeValue(value)
	if err != nil {
		return err
	}
	if s.pendingPuts == nil {
		s.pendingPuts = make(map[string][]byte)
	}
	ek := encodeKey(key)
	s.pendingPuts[ek] = v
	delete(s.pendingDels, ek)
	return nil
}

func (s *Store) DeleteKey(key objtree.Key) error {
	if s.pendingDels == nil {
		s.pendingDels = make(map[string]bool)
	}
	ek := encodeKey(key)
	s.pendingDels[ek] = true
	delete(s.pendingPuts, ek)
	return nil
}

// Commit flushes buffered writes in BatchWriteItem chunks, deletes first.
// Unprocessed items are resubmitted until the batch drains.
func (s *Store) Commit(data objtree.Object, deleted []objtree.Key) error {
	var reqs []types.WriteRequest
	for k := range s.pendingDels {
		reqs = append(reqs, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: map[string]types.AttributeValue{
					s.config.PKAttr: &types.AttributeValueMemberS{Value: k},
				},
			},
		})
	}
	for k, v := range s.pendingPuts {
		reqs = append(reqs, types.WriteRequest{
			PutRequest: &types.PutRequest{
				Item: map[string]types.AttributeValue{
					s.config.PKAttr:  &types.AttributeValueMemberS{Value: k},
					s.config.ValAttr: &types.AttributeValueMemberB{Value: v},
				},
			},
		})
	}
	for len(reqs) > 0 {
		n := min(len(reqs), batchMax)
		chunk := reqs[:n]
		reqs = reqs[n:]
		out, err := s.client.BatchWriteItem(s.ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{s.config.Table: chunk},
		})
		if err != nil {
			return fmt.Errorf("dynamostore: batch write: %w", err)
		}
		if un := out.UnprocessedItems[s.config.Table]; len(un) > 0 {
			reqs = append(reqs, un...)
		}
	}
	s.pendingPuts = nil
	s.pendingDels = nil
	return nil
}

// scanCursor pages through a Scan, filtering keys against the slice on the
// client side.
type scanCursor struct {
	store      *Store
	slice      objtree.Slice
	withValues bool

	page    []map[string]types.AttributeValue
	lastKey map[string]types.AttributeValue
	started bool
	item    objtree.Item
	err     error
}

func (c *scanCursor) Next() bool {
	for c.err == nil {
		if len(c.page) == 0 {
			if c.started && c.lastKey == nil {
				return false
			}
			c.fetch()
			continue
		}
		raw := c.page[0]
		c.page = c.page[1:]
		attr, ok := raw[c.store.config.PKAttr].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		key, err := decodeKey(attr.Value)
		if err != nil {
			continue
		}
		if !c.slice.Contains(key) {
			continue
		}
		c.item = objtree.Item{Key: key}
		if c.withValues {
			v, err := c.store.decodeItem(raw)
			if err != nil {
				c.err = err
				return false
			}
			c.item.Value = v
		}
		return true
	}
	return false
}

func (c *scanCursor) fetch() {
	out, err := c.store.client.Scan(c.store.ctx, &dynamodb.ScanInput{
		TableName:         aws.String(c.store.config.Table),
		ExclusiveStartKey: c.lastKey,
	})
	if err != nil {
		c.err = fmt.Errorf("dynamostore: scan: %w", err)
		return
	}
	c.started = true
	c.page = out.Items
	c.lastKey = out.LastEvaluatedKey
	if len(c.page) == 0 && c.lastKey == nil {
		// drained; Next observes started && no lastKey
		c.page = nil
	}
}

func (c *scanCursor) Key() objtree.Key   { return c.item.Key }
func (c *scanCursor) Item() objtree.Item { return c.item }
func (c *scanCursor) Err() error         { return c.err }

func (s *Store) IterKeys(sl objtree.Slice) (objtree.KeyCursor, error) {
	return &scanCursor{store: s, slice: sl}, nil
}

func (s *Store) IterItems(sl objtree.Slice) (objtree.ItemCursor, error) {
	return &scanCursor{store: s, slice: sl, withValues: true}, nil
}
