package backup

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/shoplens/shoplens-cli/internal/model"
	"github.com/shoplens/shoplens-cli/internal/profit"
)

// WriteXLSX writes a spreadsheet report with Summary, Products, and Orders
// sheets. The profit report may be nil when no cost settings exist; product
// cost columns are then zero.
func WriteXLSX(path string, d *model.Dataset, report *profit.Report) error {
	f := xlsx.NewFile()

	if err := addSummarySheet(f, d, report); err != nil {
		return err
	}
	if err := addProductsSheet(f, d, report); err != nil {
		return err
	}
	if err := addOrdersSheet(f, d); err != nil {
		return err
	}

	return eris.Wrap(f.Save(path), "xlsx: save file")
}

func addSummarySheet(f *xlsx.File, d *model.Dataset, report *profit.Report) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "xlsx: add summary sheet")
	}

	write := func(label string, set func(*xlsx.Cell)) {
		row := sheet.AddRow()
		row.AddCell().SetString(label)
		set(row.AddCell())
	}

	write("Total Orders", func(c *xlsx.Cell) { c.SetInt(d.Summary.TotalOrders) })
	write("Total Items", func(c *xlsx.Cell) { c.SetInt(d.Summary.TotalItems) })
	write("Total Revenue", func(c *xlsx.Cell) { c.SetFloatWithFormat(d.Summary.TotalRevenue, "0.00") })
	if report != nil {
		write("Total Profit", func(c *xlsx.Cell) { c.SetFloatWithFormat(report.TotalProfit, "0.00") })
	}
	return nil
}

func addProductsSheet(f *xlsx.File, d *model.Dataset, report *profit.Report) error {
	sheet, err := f.AddSheet("Products")
	if err != nil {
		return eris.Wrap(err, "xlsx: add products sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Product", "Variant", "Quantity", "Revenue", "Unit Cost", "Profit", "Margin %"} {
		header.AddCell().SetString(h)
	}

	rows := profitRows(d, report)
	for _, p := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Variant)
		row.AddCell().SetInt(p.TotalQuantity)
		row.AddCell().SetFloatWithFormat(p.TotalRevenue, "0.00")
		row.AddCell().SetFloatWithFormat(p.Cost, "0.00")
		row.AddCell().SetFloatWithFormat(p.Profit, "0.00")
		row.AddCell().SetFloatWithFormat(p.ProfitMargin, "0.0")
	}
	return nil
}

func addOrdersSheet(f *xlsx.File, d *model.Dataset) error {
	sheet, err := f.AddSheet("Orders")
	if err != nil {
		return eris.Wrap(err, "xlsx: add orders sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Order", "Date", "Total", "Items"} {
		header.AddCell().SetString(h)
	}

	for _, o := range d.Orders {
		var items int
		for _, item := range o.Items {
			items += item.Quantity
		}
		row := sheet.AddRow()
		row.AddCell().SetString(o.ID)
		row.AddCell().SetString(o.Date.Format("2006-01-02"))
		row.AddCell().SetFloatWithFormat(o.Total, "0.00")
		row.AddCell().SetInt(items)
	}
	return nil
}

// profitRows pairs each product with its profit row, falling back to
// zero-cost rows when no report was computed.
func profitRows(d *model.Dataset, report *profit.Report) []profit.ProductProfit {
	if report != nil {
		return report.Products
	}
	rows := make([]profit.ProductProfit, 0, len(d.Products))
	for _, p := range d.Products {
		pp := profit.ProductProfit{ProductRecord: p, Profit: p.TotalRevenue}
		if p.TotalRevenue > 0 {
			pp.ProfitMargin = 100
		}
		rows = append(rows, pp)
	}
	return rows
}
