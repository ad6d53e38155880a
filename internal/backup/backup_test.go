package backup

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplens/shoplens-cli/internal/model"
)

func exportTime() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestWriteReadRoundTrip(t *testing.T) {
	d := &model.Dataset{
		Orders: []model.OrderRecord{
			{ID: "#1", Total: 50, Date: exportTime(), Items: []model.OrderItem{
				{Product: "Tee", Variant: "M", Quantity: 2, Price: 25},
			}},
		},
		Products: []model.ProductRecord{
			{Name: "Tee", Variant: "Default", TotalQuantity: 2, TotalRevenue: 50, Orders: []string{"#1"}},
		},
	}
	d.Resummarize()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Export(d, map[string]float64{"Tee": 10}, exportTime())))

	doc, err := Read(&buf)
	require.NoError(t, err)

	assert.Equal(t, exportTime(), doc.ExportDate)
	assert.Equal(t, d.Orders, doc.Data.Orders)
	assert.Equal(t, d.Products, doc.Data.Products)
	assert.Equal(t, d.Summary, doc.Data.Summary)
	assert.InDelta(t, 10, doc.CostSettings["Tee"], 0.001)
}

func TestReadRecomputesSummary(t *testing.T) {
	in := `{
		"exportDate": "2026-03-01T12:00:00Z",
		"data": {
			"orders": [{"id": "#1", "total": 50, "date": "2026-03-01T12:00:00Z", "items": []}],
			"products": [{"name": "Tee", "variant": "Default", "totalQuantity": 2, "totalRevenue": 50, "orders": ["#1"]}],
			"summary": {"totalOrders": 42, "totalProducts": 42, "totalRevenue": 0, "totalItems": 0}
		}
	}`

	doc, err := Read(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Data.Summary.TotalOrders)
	assert.InDelta(t, 50, doc.Data.Summary.TotalRevenue, 0.001)
	assert.Equal(t, 2, doc.Data.Summary.TotalItems)
}

func TestReadRejectsMissingOrders(t *testing.T) {
	in := `{"exportDate": "2026-03-01T12:00:00Z", "data": {"products": []}}`

	_, err := Read(strings.NewReader(in))
	assert.True(t, errors.Is(err, ErrRejected))
}

func TestReadRejectsMissingProducts(t *testing.T) {
	in := `{"data": {"orders": []}}`

	_, err := Read(strings.NewReader(in))
	assert.True(t, errors.Is(err, ErrRejected))
}

func TestReadRejectsMissingData(t *testing.T) {
	_, err := Read(strings.NewReader(`{"exportDate": "2026-03-01T12:00:00Z"}`))
	assert.True(t, errors.Is(err, ErrRejected))
}

func TestReadRejectsMalformedJSON(t *testing.T) {
	_, err := Read(strings.NewReader(`{not json`))
	assert.True(t, errors.Is(err, ErrRejected))
}

func TestReadAcceptsEmptyLists(t *testing.T) {
	in := `{"data": {"orders": [], "products": []}}`

	doc, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	assert.Empty(t, doc.Data.Orders)
	assert.Empty(t, doc.Data.Products)
}
