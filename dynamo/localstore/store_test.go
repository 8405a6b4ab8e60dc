package localstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/acksell/storefront/dynamo"
	"github.com/acksell/storefront/dynamo/table"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ordersDef = table.Definition{
	Name: "orders",
	Keys: table.PrimaryKeyDefinition{
		PartitionKey: table.KeyDef{Name: "email", Kind: table.KeyKindS},
		SortKey:      table.KeyDef{Name: "id", Kind: table.KeyKindS},
	},
}

var productsDef = table.Definition{
	Name: "products",
	Keys: table.PrimaryKeyDefinition{
		PartitionKey: table.KeyDef{Name: "id", Kind: table.KeyKindS},
	},
	TimeToLiveKey: "expires_at",
}

type product struct {
	ID    string  `dynamodbav:"id"`
	Name  string  `dynamodbav:"name"`
	Price float64 `dynamodbav:"price"`
}

func (product) IsValid() error { return nil }

type orderRow struct {
	Email  string `dynamodbav:"email"`
	ID     string `dynamodbav:"id"`
	Status string `dynamodbav:"status"`
}

func (orderRow) IsValid() error { return nil }

func newTestClient(t *testing.T) *dynamo.Client {
	t.Helper()
	store, err := New(Options{}, ordersDef, productsDef)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return dynamo.New(store)
}

func TestPutGetRoundtrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	want := product{ID: "p1", Name: "lamp", Price: 19.99}
	require.NoError(t, client.PutItem(ctx, dynamo.NewPut(productsDef, want)))

	key, err := productsDef.Key("p1")
	require.NoError(t, err)
	item, err := client.NewLookup().GetItem(ctx, productsDef, key)
	require.NoError(t, err)

	var got product
	require.NoError(t, attributevalue.UnmarshalMap(item, &got))
	assert.Equal(t, want, got)
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	client := newTestClient(t)
	key, err := productsDef.Key("nope")
	require.NoError(t, err)
	_, err = client.NewLookup().GetItem(context.Background(), productsDef, key)
	assert.ErrorIs(t, err, dynamo.ErrNotFound)
}

func TestCreateTwiceFailsCondition(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	p := product{ID: "p1", Name: "lamp"}
	require.NoError(t, client.PutItem(ctx, dynamo.NewCreate(productsDef, p)))
	err := client.PutItem(ctx, dynamo.NewCreate(productsDef, p))
	assert.ErrorIs(t, err, dynamo.ErrConditionFailed)
}

func TestReplaceMissingFailsCondition(t *testing.T) {
	client := newTestClient(t)
	err := client.PutItem(context.Background(), dynamo.NewReplace(productsDef, product{ID: "ghost"}))
	assert.ErrorIs(t, err, dynamo.ErrConditionFailed)
}

func TestExistingDeleteMissingFailsCondition(t *testing.T) {
	client := newTestClient(t)
	key, err := productsDef.Key("ghost")
	require.NoError(t, err)
	err = client.DeleteItem(context.Background(), dynamo.NewExistingDelete(productsDef, key))
	assert.ErrorIs(t, err, dynamo.ErrConditionFailed)
}

func TestExistingUpdateMissingFailsCondition(t *testing.T) {
	client := newTestClient(t)
	key, err := ordersDef.Key("a@b.se", "01A")
	require.NoError(t, err)
	err = client.UpdateItem(context.Background(), dynamo.NewExistingUpdate(ordersDef, key).
		Set(dynamo.SetField("status", "SHIPPED")))
	assert.ErrorIs(t, err, dynamo.ErrConditionFailed)
}

func TestUpdateSetsField(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.PutItem(ctx, dynamo.NewPut(ordersDef, orderRow{Email: "a@b.se", ID: "01A", Status: "PLACED"})))
	key, err := ordersDef.Key("a@b.se", "01A")
	require.NoError(t, err)
	require.NoError(t, client.UpdateItem(ctx, dynamo.NewExistingUpdate(ordersDef, key).
		Set(dynamo.SetField("status", "SHIPPED"))))

	item, err := client.NewLookup().GetItem(ctx, ordersDef, key)
	require.NoError(t, err)
	var got orderRow
	require.NoError(t, attributevalue.UnmarshalMap(item, &got))
	assert.Equal(t, "SHIPPED", got.Status)
}

func TestPutWithTTLStoresEpochSeconds(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	expiry := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, client.PutItem(ctx, dynamo.NewPut(productsDef, product{ID: "p1"}).WithTTL(expiry)))

	key, err := productsDef.Key("p1")
	require.NoError(t, err)
	item, err := client.NewLookup().GetItem(ctx, productsDef, key)
	require.NoError(t, err)
	ttl, ok := item["expires_at"].(*types.AttributeValueMemberN)
	require.True(t, ok, "expires_at should be a number attribute")
	assert.Equal(t, "1788264000", ttl.Value)
}

func TestQueryPartitionSortedAndPaged(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	for _, id := range []string{"01C", "01A", "01B"} {
		require.NoError(t, client.PutItem(ctx, dynamo.NewPut(ordersDef, orderRow{Email: "a@b.se", ID: id, Status: "PLACED"})))
	}
	require.NoError(t, client.PutItem(ctx, dynamo.NewPut(ordersDef, orderRow{Email: "other@b.se", ID: "01Z", Status: "PLACED"})))

	q := client.NewQuery(ordersDef, dynamo.PartitionOnly("a@b.se")).WithPageSize(2)
	first, err := q.Next(ctx)
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.False(t, first.IsDone)

	rest, err := q.All(ctx)
	require.NoError(t, err)
	require.Len(t, rest, 1)

	var got orderRow
	require.NoError(t, attributevalue.UnmarshalMap(rest[0], &got))
	assert.Equal(t, "01C", got.ID, "pages walk the sort key in order")
}

func TestQueryBeginsWith(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	for _, id := range []string{"CREATED#1", "CREATED#2", "UPDATED#1"} {
		require.NoError(t, client.PutItem(ctx, dynamo.NewPut(ordersDef, orderRow{Email: "a@b.se", ID: id})))
	}
	items, err := client.NewQuery(ordersDef,
		dynamo.NewKeyCondition("a@b.se", dynamo.BeginsWith("CREATED#"))).All(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestQueryBetween(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	for _, id := range []string{"01A", "01B", "01C", "01D"} {
		require.NoError(t, client.PutItem(ctx, dynamo.NewPut(ordersDef, orderRow{Email: "a@b.se", ID: id})))
	}
	items, err := client.NewQuery(ordersDef,
		dynamo.NewKeyCondition("a@b.se", dynamo.Between("01B", "01C"))).All(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	var got orderRow
	require.NoError(t, attributevalue.UnmarshalMap(items[0], &got))
	assert.Equal(t, "01B", got.ID)
}

func TestQueryDescending(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	for _, id := range []string{"01A", "01B"} {
		require.NoError(t, client.PutItem(ctx, dynamo.NewPut(ordersDef, orderRow{Email: "a@b.se", ID: id})))
	}
	items, err := client.NewQuery(ordersDef, dynamo.PartitionOnly("a@b.se")).
		WithDescending().All(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	var got orderRow
	require.NoError(t, attributevalue.UnmarshalMap(items[0], &got))
	assert.Equal(t, "01B", got.ID)
}

func TestScanSeesAllPartitions(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	for _, id := range []string{"p1", "p2", "p3"} {
		require.NoError(t, client.PutItem(ctx, dynamo.NewPut(productsDef, product{ID: id})))
	}
	items, err := client.NewScan(productsDef).All(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestUnknownTable(t *testing.T) {
	store, err := New(Options{}, productsDef)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	client := dynamo.New(store)
	key, err := ordersDef.Key("a@b.se", "01A")
	require.NoError(t, err)
	_, err = client.NewLookup().GetItem(context.Background(), ordersDef, key)
	var notFound *types.ResourceNotFoundException
	assert.True(t, errors.As(err, &notFound))
}
