package ingest

import "strings"

// Field is one of the canonical data points every accepted export schema
// must ultimately resolve to.
type Field string

const (
	FieldOrderID      Field = "order id"
	FieldProductTitle Field = "product title"
	FieldQuantity     Field = "quantity"
	FieldPrice        Field = "price"
	FieldTotal        Field = "total"
	FieldDate         Field = "date"
	FieldVariant      Field = "variant"
)

// fields lists canonical fields in resolution order.
var fields = []Field{
	FieldOrderID,
	FieldProductTitle,
	FieldQuantity,
	FieldPrice,
	FieldTotal,
	FieldDate,
	FieldVariant,
}

// fieldAliases lists accepted header spellings per canonical field, in
// priority order. Shopify has shipped several export layouts over the years
// and third-party apps invent their own; this table covers the variants seen
// in the wild.
var fieldAliases = map[Field][]string{
	FieldOrderID:      {"Name", "Order", "Order Number", "Order ID", "#", "Order Name"},
	FieldProductTitle: {"Lineitem name", "Product Title", "Title", "Product Name", "Item Name", "Product"},
	FieldQuantity:     {"Lineitem quantity", "Quantity", "Qty", "Item Quantity"},
	FieldPrice:        {"Lineitem price", "Price", "Unit Price", "Item Price", "Line Item Price"},
	FieldTotal:        {"Total", "Order Total", "Line Total", "Amount"},
	FieldDate:         {"Created at", "Date", "Order Date", "Created At"},
	FieldVariant:      {"Lineitem variant", "Variant", "Product Variant", "Size", "Option"},
}

func aliasesFor(f Field) []string { return fieldAliases[f] }

// Schema maps each resolved canonical field to the concrete header that
// carries it in this file. Fields with no matching header are absent and
// take their documented defaults during normalization.
type Schema map[Field]string

// Detect resolves the canonical field mapping from a header row. A header
// matches an alias when it contains the alias case-insensitively or equals
// it exactly; the first alias with any match wins. Within one alias an exact
// header match beats a substring match regardless of file order, so a "Name"
// column is not shadowed by an earlier "Lineitem name". Detection fails
// unless both an order id and a product title column resolve.
func Detect(headers []string) (Schema, error) {
	schema := Schema{}
	for _, field := range fields {
		if header, ok := resolve(headers, fieldAliases[field]); ok {
			schema[field] = header
		}
	}

	var found, missing []Field
	for _, f := range []Field{FieldOrderID, FieldProductTitle} {
		if _, ok := schema[f]; ok {
			found = append(found, f)
		} else {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &Error{
			Kind:    KindSchemaValidationFailed,
			Message: "required columns not found: " + joinFields(missing),
			Headers: headers,
			Found:   found,
			Missing: missing,
		}
	}
	return schema, nil
}

func resolve(headers, aliases []string) (string, bool) {
	for _, alias := range aliases {
		for _, header := range headers {
			if header == alias {
				return header, true
			}
		}
		lower := strings.ToLower(alias)
		for _, header := range headers {
			if strings.Contains(strings.ToLower(header), lower) {
				return header, true
			}
		}
	}
	return "", false
}

func joinFields(fs []Field) string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
