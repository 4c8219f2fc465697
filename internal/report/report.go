package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

var ErrNoOrders = errors.New("failed to generate report, 0 orders were provided")

// Generator holds the state for the Excel report generation process.
type Generator struct {
	file *excelize.File
}

// OrderRow holds one order record flattened for the Excel export.
type OrderRow struct {
	ID        int       // Order identifier
	Stage     string    // Tuning tier the order was placed for
	Status    string    // Server-side order status
	Customer  string    // Customer username or telegram ID
	Firmware  string    // Firmware description (brand, model, ECU)
	Price     float64   // Price paid
	CreatedAt time.Time // When the order was created
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		file: excelize.NewFile(),
	}
}

// GenerateOrdersReport builds an Excel workbook from order rows, one sheet
// per tuning stage, and returns the serialized file. Returns ErrNoOrders for
// an empty input.
func GenerateOrdersReport(rows []OrderRow) (*bytes.Buffer, error) {
	var err error

	if len(rows) == 0 {
		return nil, ErrNoOrders
	}

	rowsByStage := make(map[string][]OrderRow)
	for _, row := range rows {
		stage := row.Stage
		if stage == "" {
			stage = "unstaged"
		}
		rowsByStage[stage] = append(rowsByStage[stage], row)
	}

	gen := NewGenerator()
	defer gen.file.Close()

	if err = gen.addSheets(rowsByStage); err != nil {
		return nil, fmt.Errorf("failed to add sheets: %w", err)
	}

	// setup first sheet as active
	gen.file.SetActiveSheet(0)

	// delete default sheet
	if sheetIndex, _ := gen.file.GetSheetIndex("Sheet1"); sheetIndex != -1 {
		if err = gen.file.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("failed to delete default sheet 'Sheet1': %w", err)
		}
	}

	buffer, err := gen.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write data from saved file: %w", err)
	}

	return buffer, nil
}

// addSheets creates one sheet per tuning stage and fills it with the orders
// of that stage.
func (g *Generator) addSheets(rowsByStage map[string][]OrderRow) error {
	var err error
	headerIndex := 2

	for stage, ordersInStage := range rowsByStage {
		sheetName := truncateSheetName(stage)

		if _, err = g.file.NewSheet(sheetName); err != nil {
			return fmt.Errorf("failed to generate new sheet '%s': %w", sheetName, err)
		}

		if err = g.setupSheet(sheetName, len(ordersInStage)); err != nil {
			return fmt.Errorf("failed to setup sheet '%s': %w", sheetName, err)
		}

		// Fill data
		for i, order := range ordersInStage {
			if err = g.addRow(sheetName, i+headerIndex, order); err != nil { // i+2, because the first row - header
				return fmt.Errorf("failed to add row '%d': %w", i+headerIndex, err)
			}
		}
	}
	return nil
}

// setupSheet initializes the specified sheet with headers, styles, and column
// widths, and wraps the data range into a table.
func (g *Generator) setupSheet(sheetName string, rowCount int) error {
	var err error

	// Style creating
	headerStyle, err := g.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "center", Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create new style: %w", err)
	}

	// Headers creating
	rowHeight := 20
	headers := []string{"Order ID", "Created", "Customer", "Firmware", "Status", "Price"}
	if err = g.file.SetRowHeight(sheetName, 1, float64(rowHeight)); err != nil {
		return fmt.Errorf("failed to set row height for headers: %w", err)
	}
	if err = g.file.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("failed to set sheet row for headers: %w", err)
	}
	if err = g.file.SetCellStyle(sheetName, "A1", "F1", headerStyle); err != nil {
		return fmt.Errorf("failed to set cell style for headers: %w", err)
	}

	// Setup width column
	widths := map[string]float64{
		"A": 12, "B": 18, "C": 28, "D": 45, "E": 16, "F": 12, //nolint:mnd // const values for row width
	}
	for col, width := range widths {
		if err = g.file.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	// Add table
	if err = g.file.AddTable(sheetName, &excelize.Table{
		Range:     fmt.Sprintf("A1:F%d", rowCount+1),
		Name:      "table_" + strings.ReplaceAll(sheetName, " ", ""),
		StyleName: "TableStyleMedium9",
	}); err != nil {
		return fmt.Errorf("failed to add table: %w", err)
	}

	return nil
}

// addRow adds a new row to the specified sheet with the details of the given
// order.
func (g *Generator) addRow(sheetName string, rowNum int, row OrderRow) error {
	rowData := []interface{}{
		row.ID,
		row.CreatedAt.Format("02.01.2006"),
		row.Customer,
		row.Firmware,
		row.Status,
		row.Price,
	}
	cell, _ := excelize.CoordinatesToCellName(1, rowNum)

	if err := g.file.SetSheetRow(sheetName, cell, &rowData); err != nil {
		return fmt.Errorf("failed to set sheet row: %w", err)
	}

	return nil
}

// truncateSheetName truncates the given sheet name to a maximum of 31 runes,
// the hard limit Excel puts on sheet names.
func truncateSheetName(name string) string {
	if utf8.RuneCountInString(name) > 31 {
		runes := []rune(name)
		return string(runes[:31])
	}
	return name
}
