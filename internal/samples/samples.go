package samples

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Generate writes sample input documents into dir: a clean product
// catalog spreadsheet, a header-less quote spreadsheet, a plain-text
// invoice, and a non-business text for exercising document rejection.
func Generate(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sample dir: %w", err)
	}

	var created []string
	writers := []struct {
		name  string
		write func(path string) error
	}{
		{"sample_products.xlsx", writeProductCatalog},
		{"sample_quote.xlsx", writeQuoteSheet},
		{"sample_invoice.txt", writeTextInvoice},
		{"not_a_quote.txt", writePoem},
	}
	for _, wr := range writers {
		path := filepath.Join(dir, wr.name)
		if err := wr.write(path); err != nil {
			return created, fmt.Errorf("write %s: %w", wr.name, err)
		}
		created = append(created, path)
	}
	return created, nil
}

func writeProductCatalog(path string) error {
	rows := [][]any{
		{"Item Code", "Item Name", "Description", "Item Group", "Stock UOM", "Standard Rate"},
		{"GADGET-001", "Super Gadget", "A wonderful gadget for all your needs.", "Products", "Nos", 199.99},
		{"WIDGET-X", "Mega Widget", "The heavy duty widget option.", "Raw Material", "Kg", 45.50},
	}
	return writeSheet(path, "Products", rows)
}

func writeQuoteSheet(path string) error {
	rows := [][]any{
		{"Item Name", "Description", "Price", "UOM"},
		{"Test Widget A", "A high quality widget", 100.0, "Nos"},
		{"Test Widget B", "Another widget", 250.50, "Nos"},
	}
	return writeSheet(path, "Sheet1", rows)
}

func writeSheet(path, sheet string, rows [][]any) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func writeTextInvoice(path string) error {
	const invoice = `INVOICE #12345

Supplier: Tech Corp
Date: 2024-01-08

Items:
1. Laptop Pro X1 | Code: LAP-X1 | High performance laptop with 32GB RAM. | $1200
2. Wireless Mouse | Code: PERI-MSE-01 | Ergonomic wireless mouse. | $25
3. Monitor 4K | Code: DISP-4K-27 | 27 inch 4K display. | $350
`
	return os.WriteFile(path, []byte(invoice), 0o644)
}

func writePoem(path string) error {
	const poem = `The fog comes
on little cat feet.
It sits looking
over harbor and city
on silent haunches
and then moves on.
`
	return os.WriteFile(path, []byte(poem), 0o644)
}
