// Package backup reads and writes the portable backup document: the full
// dataset plus cost settings, JSON-encoded with an export timestamp.
package backup

import (
	"encoding/json"
	"io"
	"time"

	"github.com/rotisserie/eris"

	"github.com/shoplens/shoplens-cli/internal/model"
)

// ErrRejected marks a backup file that does not carry the required
// data.orders/data.products shape. Nothing is imported from such a file.
var ErrRejected = eris.New("invalid backup file format")

// Document is the backup wire format.
type Document struct {
	ExportDate   time.Time          `json:"exportDate"`
	Data         *model.Dataset     `json:"data"`
	CostSettings map[string]float64 `json:"costSettings,omitempty"`
}

// Export assembles a backup document for writing.
func Export(d *model.Dataset, costSettings map[string]float64, now time.Time) Document {
	return Document{
		ExportDate:   now,
		Data:         d,
		CostSettings: costSettings,
	}
}

// Write encodes the document as indented JSON.
func Write(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(doc), "backup: encode")
}

// shadow mirrors Document with presence-detecting pointers so an absent
// orders or products key is distinguishable from an empty list.
type shadow struct {
	ExportDate time.Time `json:"exportDate"`
	Data       *struct {
		Orders   *[]model.OrderRecord   `json:"orders"`
		Products *[]model.ProductRecord `json:"products"`
		Summary  model.Summary          `json:"summary"`
	} `json:"data"`
	CostSettings map[string]float64 `json:"costSettings"`
}

// Read decodes and validates a backup document. A file missing data.orders
// or data.products returns ErrRejected; nothing is partially imported.
func Read(r io.Reader) (*Document, error) {
	var s shadow
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, eris.Wrap(ErrRejected, err.Error())
	}
	if s.Data == nil || s.Data.Orders == nil || s.Data.Products == nil {
		return nil, eris.Wrap(ErrRejected, "missing data.orders or data.products")
	}

	d := &model.Dataset{
		Orders:   *s.Data.Orders,
		Products: *s.Data.Products,
		Summary:  s.Data.Summary,
	}
	d.Resummarize()

	return &Document{
		ExportDate:   s.ExportDate,
		Data:         d,
		CostSettings: s.CostSettings,
	}, nil
}
