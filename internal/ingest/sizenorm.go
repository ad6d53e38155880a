package ingest

import (
	"regexp"
	"strings"
)

// sizeToken matches apparel size indicators as whole words, so "Shirt - XL"
// and "Shirt - Large" group with their other sizes but "XLarge Widget" does
// not.
var sizeToken = regexp.MustCompile(`(?i)\b(XS|S|M|L|XL|XXL|XXXL|2XL|3XL|\d+XL|X-Small|Small|Medium|X-Large|XX-Large|Large)\b`)

var spaceRun = regexp.MustCompile(`\s+`)

// Normalized carries both the display identity of a product row (as it
// appeared in the file) and the size-stripped group identity used for
// cross-size aggregation.
type Normalized struct {
	DisplayName    string
	GroupName      string
	DisplayVariant string
	GroupVariant   string
}

// GroupKey is the aggregation identity: group name and group variant.
func (n Normalized) GroupKey() string {
	return n.GroupName + " - " + n.GroupVariant
}

// DisplayKey is the literal per-size identity retained for reconstruction.
func (n Normalized) DisplayKey() string {
	return n.DisplayName + " - " + n.DisplayVariant
}

// NormalizeSize strips size tokens from a product title and variant. The
// group name falls back to the original title rather than ever grouping on
// an empty string; a variant stripped to nothing becomes DefaultVariant.
func NormalizeSize(title, variant string) Normalized {
	n := Normalized{
		DisplayName:    title,
		DisplayVariant: variant,
		GroupName:      StripSizeTokens(title),
		GroupVariant:   StripSizeTokens(variant),
	}
	if n.GroupName == "" {
		n.GroupName = title
	}
	if n.GroupVariant == "" {
		n.GroupVariant = DefaultVariant
	}
	return n
}

// StripSizeTokens removes size tokens, collapses the leftover whitespace,
// and trims separator residue ("Shirt - Large" strips to "Shirt", not
// "Shirt -").
func StripSizeTokens(s string) string {
	stripped := sizeToken.ReplaceAllString(s, "")
	collapsed := spaceRun.ReplaceAllString(stripped, " ")
	return strings.Trim(collapsed, " -")
}
