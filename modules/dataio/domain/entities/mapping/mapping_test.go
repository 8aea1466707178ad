package mapping_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/mapping"
)

func TestParseTarget(t *testing.T) {
	target, ok := mapping.ParseTarget("customer")
	require.True(t, ok)
	require.Equal(t, mapping.TargetCustomer, target)

	_, ok = mapping.ParseTarget("invoice")
	require.False(t, ok)
}

func TestSchemaField(t *testing.T) {
	schema := mapping.CustomerSchema()

	email, ok := schema.Field("email")
	require.True(t, ok)
	require.True(t, email.Required)
	require.True(t, email.Identity)

	_, ok = schema.Field("nope")
	require.False(t, ok)
}

func TestRequiredFields(t *testing.T) {
	var names []string
	for _, f := range mapping.TicketSchema().RequiredFields() {
		names = append(names, f.Name)
	}
	require.Equal(t, []string{"customerEmail"}, names)

	names = names[:0]
	for _, f := range mapping.CustomerSchema().RequiredFields() {
		names = append(names, f.Name)
	}
	require.Equal(t, []string{"email"}, names)
}
