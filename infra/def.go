package infra

import (
	"github.com/acksell/storefront/dynamo/table"
)

// Definition converts the declared table into the typed table definition
// the dynamo client and the local store consume.
func (t Table) Definition() table.Definition {
	def := table.Definition{
		Name: t.Name,
		Keys: table.PrimaryKeyDefinition{
			PartitionKey: table.KeyDef{Name: t.PartitionKey.Name, Kind: table.KeyKind(t.PartitionKey.Kind)},
		},
		TimeToLiveKey: t.TimeToLiveKey,
	}
	if t.SortKey != nil {
		def.Keys.SortKey = table.KeyDef{Name: t.SortKey.Name, Kind: table.KeyKind(t.SortKey.Kind)}
	}
	return def
}

// Definitions converts every declared table.
func (s *Stack) Definitions() []table.Definition {
	defs := make([]table.Definition, len(s.Tables))
	for i, t := range s.Tables {
		defs[i] = t.Definition()
	}
	return defs
}
