// Package mapping defines the target schemas records can be imported into and
// the column-to-field mapping applied before validation.
package mapping

// Ignored marks a source column that maps to no target field.
const Ignored = ""

// FieldMapping has exactly one entry per source column: the target field name
// or Ignored. The auto-proposed mapping claims each target at most once;
// manual edits may map several columns to one target, in which case the last
// mapped column in column order wins when records are built.
type FieldMapping map[string]string

type Target string

const (
	TargetCustomer Target = "customer"
	TargetTicket   Target = "ticket"
)

func ParseTarget(v string) (Target, bool) {
	switch Target(v) {
	case TargetCustomer:
		return TargetCustomer, true
	case TargetTicket:
		return TargetTicket, true
	default:
		return "", false
	}
}

type FieldKind string

const (
	KindString FieldKind = "string"
	KindNumber FieldKind = "number"
	KindEmail  FieldKind = "email"
	KindDate   FieldKind = "date"
	KindBool   FieldKind = "bool"
)

type TargetField struct {
	Name     string
	Kind     FieldKind
	Required bool
	// Identity fields participate in existing-record lookup.
	Identity bool
}

// TargetSchema is the ordered field set of one import target. Field order is
// significant: matcher ties break on the first declared field.
type TargetSchema struct {
	Target Target
	Fields []TargetField
}

func (s TargetSchema) Field(name string) (TargetField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return TargetField{}, false
}

func (s TargetSchema) RequiredFields() []TargetField {
	var out []TargetField
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}

func CustomerSchema() TargetSchema {
	return TargetSchema{
		Target: TargetCustomer,
		Fields: []TargetField{
			{Name: "email", Kind: KindEmail, Required: true, Identity: true},
			{Name: "name", Kind: KindString},
			{Name: "phone", Kind: KindString},
			{Name: "company", Kind: KindString},
			{Name: "externalId", Kind: KindString, Identity: true},
			{Name: "address", Kind: KindString},
			{Name: "city", Kind: KindString},
			{Name: "zip", Kind: KindString},
			{Name: "country", Kind: KindString},
			{Name: "notes", Kind: KindString},
			{Name: "vip", Kind: KindBool},
			{Name: "customerSince", Kind: KindDate},
		},
	}
}

func TicketSchema() TargetSchema {
	return TargetSchema{
		Target: TargetTicket,
		Fields: []TargetField{
			{Name: "id", Kind: KindNumber, Identity: true},
			{Name: "customerEmail", Kind: KindEmail, Required: true},
			{Name: "title", Kind: KindString},
			{Name: "description", Kind: KindString},
			{Name: "status", Kind: KindString},
			{Name: "priority", Kind: KindString},
			{Name: "type", Kind: KindString},
			{Name: "reference", Kind: KindString, Identity: true},
			{Name: "assignee", Kind: KindString},
			{Name: "dueDate", Kind: KindDate},
			{Name: "closed", Kind: KindBool},
		},
	}
}

// SchemaFor returns the static schema of a target.
func SchemaFor(target Target) TargetSchema {
	switch target {
	case TargetTicket:
		return TicketSchema()
	default:
		return CustomerSchema()
	}
}
