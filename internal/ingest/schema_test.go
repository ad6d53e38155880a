package ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectShopifyExport(t *testing.T) {
	headers := []string{"Name", "Email", "Created at", "Lineitem quantity", "Lineitem name", "Lineitem price", "Lineitem variant", "Total"}

	schema, err := Detect(headers)
	require.NoError(t, err)

	assert.Equal(t, "Name", schema[FieldOrderID])
	assert.Equal(t, "Lineitem name", schema[FieldProductTitle])
	assert.Equal(t, "Lineitem quantity", schema[FieldQuantity])
	assert.Equal(t, "Lineitem price", schema[FieldPrice])
	assert.Equal(t, "Lineitem variant", schema[FieldVariant])
	assert.Equal(t, "Total", schema[FieldTotal])
	assert.Equal(t, "Created at", schema[FieldDate])
}

func TestDetectThirdPartyHeaders(t *testing.T) {
	headers := []string{"Order Number", "Product Title", "Qty", "Unit Price", "Order Total", "Order Date", "Size"}

	schema, err := Detect(headers)
	require.NoError(t, err)

	assert.Equal(t, "Order Number", schema[FieldOrderID])
	assert.Equal(t, "Product Title", schema[FieldProductTitle])
	assert.Equal(t, "Qty", schema[FieldQuantity])
	assert.Equal(t, "Unit Price", schema[FieldPrice])
	assert.Equal(t, "Order Total", schema[FieldTotal])
	assert.Equal(t, "Order Date", schema[FieldDate])
	assert.Equal(t, "Size", schema[FieldVariant])
}

func TestDetectCaseInsensitiveSubstring(t *testing.T) {
	headers := []string{"ORDER ID", "my product title column"}

	schema, err := Detect(headers)
	require.NoError(t, err)

	assert.Equal(t, "ORDER ID", schema[FieldOrderID])
	assert.Equal(t, "my product title column", schema[FieldProductTitle])
}

func TestDetectAliasPriorityOrder(t *testing.T) {
	// Both "Name" and "Order Number" are order id aliases; "Name" is tried
	// first and takes the first matching header in file order.
	headers := []string{"Order Number", "Name", "Lineitem name"}

	schema, err := Detect(headers)
	require.NoError(t, err)

	assert.Equal(t, "Name", schema[FieldOrderID])
	assert.Equal(t, "Lineitem name", schema[FieldProductTitle])
}

func TestDetectExactMatchBeatsSubstring(t *testing.T) {
	// "Lineitem name" comes first in file order and contains "name", but the
	// exact "Name" header still resolves the order id.
	headers := []string{"Lineitem name", "Name"}

	schema, err := Detect(headers)
	require.NoError(t, err)

	assert.Equal(t, "Name", schema[FieldOrderID])
	assert.Equal(t, "Lineitem name", schema[FieldProductTitle])
}

func TestDetectMissingRequiredColumns(t *testing.T) {
	headers := []string{"Email", "Shipping Address", "Financial Status"}

	_, err := Detect(headers)
	require.Error(t, err)

	var ingErr *Error
	require.True(t, errors.As(err, &ingErr))
	assert.Equal(t, KindSchemaValidationFailed, ingErr.Kind)
	assert.ElementsMatch(t, []Field{FieldOrderID, FieldProductTitle}, ingErr.Missing)
	assert.Empty(t, ingErr.Found)
	assert.Equal(t, headers, ingErr.Headers)

	diag := ingErr.Diagnostic()
	assert.Contains(t, diag, "missing order id")
	assert.Contains(t, diag, "missing product title")
	assert.Contains(t, diag, "Order Number")
	assert.Contains(t, diag, "Financial Status")
}

func TestDetectPartialRequired(t *testing.T) {
	headers := []string{"Order ID", "Quantity", "Price"}

	_, err := Detect(headers)
	var ingErr *Error
	require.True(t, errors.As(err, &ingErr))
	assert.Equal(t, []Field{FieldOrderID}, ingErr.Found)
	assert.Equal(t, []Field{FieldProductTitle}, ingErr.Missing)
}

func TestDetectOptionalFieldsAbsent(t *testing.T) {
	headers := []string{"Order", "Product"}

	schema, err := Detect(headers)
	require.NoError(t, err)

	assert.Len(t, schema, 2)
	_, hasQty := schema[FieldQuantity]
	assert.False(t, hasQty)
}
