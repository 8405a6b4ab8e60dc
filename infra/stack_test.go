package infra

import (
	"testing"

	"github.com/acksell/storefront/dynamo/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStackYAML(t *testing.T) {
	stack, err := Load("stack.yaml")
	require.NoError(t, err)

	assert.Equal(t, "storefront", stack.Name)
	assert.Len(t, stack.Tables, 3)
	assert.Len(t, stack.Topics, 1)
	assert.Len(t, stack.Queues, 4)
	assert.Len(t, stack.Subscriptions, 2)
	assert.Len(t, stack.Routes, 11)

	// Placeholder segments in route paths must survive yaml parsing.
	paths := make(map[string]string, len(stack.Routes))
	for _, r := range stack.Routes {
		paths[r.Operation] = r.Path
	}
	assert.Equal(t, "/products/{id}", paths["GetProduct"])
	assert.Equal(t, "/orders/{email}/{id}/status", paths["UpdateOrderStatus"])

	events, err := stack.TableNamed("events")
	require.NoError(t, err)
	assert.Equal(t, "expires_at", events.TimeToLiveKey)
	require.NotNil(t, events.SortKey)

	for _, q := range stack.Queues {
		if q.DeadLetter != nil {
			assert.Equal(t, 3, q.DeadLetter.MaxReceive, "queue %s", q.Name)
		}
	}
}

func TestValidateRejectsDanglingDeadLetter(t *testing.T) {
	s := &Stack{
		Name: "s",
		Queues: []Queue{
			{Name: "main", DeadLetter: &DeadLetter{Queue: "missing", MaxReceive: 3}},
		},
	}
	assert.Error(t, s.Validate())
}

func TestValidateRejectsZeroMaxReceive(t *testing.T) {
	s := &Stack{
		Name: "s",
		Queues: []Queue{
			{Name: "main", DeadLetter: &DeadLetter{Queue: "dlq", MaxReceive: 0}},
			{Name: "dlq"},
		},
	}
	assert.Error(t, s.Validate())
}

func TestValidateRejectsUnknownSubscriptionTarget(t *testing.T) {
	s := &Stack{
		Name:          "s",
		Topics:        []Topic{{Name: "t"}},
		Subscriptions: []Subscription{{Topic: "t", Queue: "missing"}},
	}
	assert.Error(t, s.Validate())
}

func TestValidateRejectsBadKeyKind(t *testing.T) {
	s := &Stack{
		Name:   "s",
		Tables: []Table{{Name: "t", PartitionKey: KeyDef{Name: "id", Kind: "X"}}},
	}
	assert.Error(t, s.Validate())
}

func TestValidateRejectsRouteWithoutOperation(t *testing.T) {
	s := &Stack{
		Name:   "s",
		Routes: []Route{{Method: "GET", Path: "/x"}},
	}
	assert.Error(t, s.Validate())
}

func TestTableDefinitionBridge(t *testing.T) {
	tbl := Table{
		Name:          "events",
		PartitionKey:  KeyDef{Name: "pk", Kind: "S"},
		SortKey:       &KeyDef{Name: "sk", Kind: "S"},
		TimeToLiveKey: "expires_at",
	}
	def := tbl.Definition()
	assert.Equal(t, "events", def.Name)
	assert.True(t, def.HasSortKey())
	assert.Equal(t, table.KeyKindS, def.Keys.SortKey.Kind)
	assert.Equal(t, "expires_at", def.TimeToLiveKey)
}
