package importrun

import "maps"

// Entity is the gateway-side view of a stored customer or ticket: the persisted
// identity plus its fields keyed by target-schema field names. The engine
// merges MappedRecords into Entities without knowing which aggregate sits
// behind the gateway.
type Entity struct {
	ID      string
	Fields  map[string]any
	Dynamic map[string]string
}

func NewEntity(id string) *Entity {
	return &Entity{
		ID:      id,
		Fields:  map[string]any{},
		Dynamic: map[string]string{},
	}
}

// Clone returns a deep copy so merges never mutate the gateway's snapshot.
func (e *Entity) Clone() *Entity {
	out := NewEntity(e.ID)
	maps.Copy(out.Fields, e.Fields)
	maps.Copy(out.Dynamic, e.Dynamic)
	return out
}
