// Package report writes step results to an xlsx workbook.
//
// Layout:
//   - One sheet, "Test Results", shared by every run.
//   - Each run appends a header block (device, run id, timestamp, column
//     titles) followed by one row per step.
//   - The file is saved after every row so a crash keeps what already ran.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
)

// SheetName is the sheet holding all runs.
const SheetName = "Test Results"

// HeaderTimeLayout formats the run timestamp (locale-style date and time).
const HeaderTimeLayout = "01/02/06 15:04:05"

// ColumnTitles are the titles written after each run header.
var ColumnTitles = []string{"Test Number", "Test Case", "Result", "Note", "Error Log"}

// Header is the per-run header block.
type Header struct {
	DeviceName string
	RunID      string
	StartTime  time.Time
}

// Row is one test case row: (case number, description, result, note, error).
type Row struct {
	CaseNumber  int
	Description string
	Result      string // PASS, FAIL or observed text
	Note        string // Screenshot file name
	Error       string
}

func (r Row) cells() []interface{} {
	cells := []interface{}{r.CaseNumber, r.Description, r.Result}
	if r.Note != "" || r.Error != "" {
		cells = append(cells, r.Note, r.Error)
	}
	return cells
}

// Workbook appends rows to the report file.
type Workbook struct {
	mu        sync.Mutex
	path      string
	file      *excelize.File
	next      int // next free row (1-based)
	created   bool
	passStyle int
	failStyle int
	boldStyle int
}

// Open opens the workbook at path, creating it (and its directory) when
// missing, and appends the per-run header block.
func Open(path string, header Header) (*Workbook, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create report directory: %w", err)
		}
	}

	w := &Workbook{path: path}

	_, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		w.file = excelize.NewFile()
		w.created = true
		if err := w.initSheet(); err != nil {
			w.file.Close()
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("stat report: %w", err)
	default:
		w.file, err = excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open report %s: %w", path, err)
		}
		idx, err := w.file.GetSheetIndex(SheetName)
		if err != nil {
			w.file.Close()
			return nil, err
		}
		if idx == -1 {
			if _, err := w.file.NewSheet(SheetName); err != nil {
				w.file.Close()
				return nil, err
			}
			if err := w.setColumnWidths(); err != nil {
				w.file.Close()
				return nil, err
			}
		}
	}

	rows, err := w.file.GetRows(SheetName)
	if err != nil {
		w.file.Close()
		return nil, err
	}
	w.next = len(rows) + 1

	if err := w.initStyles(); err != nil {
		w.file.Close()
		return nil, err
	}
	if err := w.writeHeader(header); err != nil {
		w.file.Close()
		return nil, err
	}
	return w, nil
}

// columnWidths size the Test Number .. Error Log columns.
var columnWidths = map[string]float64{"A": 14, "B": 48, "C": 18, "D": 40, "E": 60}

// initSheet renames the default sheet and sets column widths on a new file.
func (w *Workbook) initSheet() error {
	if err := w.file.SetSheetName(w.file.GetSheetName(0), SheetName); err != nil {
		return err
	}
	return w.setColumnWidths()
}

func (w *Workbook) setColumnWidths() error {
	for col, width := range columnWidths {
		if err := w.file.SetColWidth(SheetName, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) initStyles() error {
	var err error
	if w.passStyle, err = w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Color: "008000"}}); err != nil {
		return err
	}
	if w.failStyle, err = w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Color: "C00000"}}); err != nil {
		return err
	}
	w.boldStyle, err = w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	return err
}

func (w *Workbook) writeHeader(h Header) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	lines := [][]interface{}{
		{"Device Name", h.DeviceName},
		{"Run ID", h.RunID},
		{"test date/time", h.StartTime.Format(HeaderTimeLayout)},
	}
	for _, line := range lines {
		if _, err := w.writeRowLocked(line); err != nil {
			return err
		}
	}

	titles := make([]interface{}, len(ColumnTitles))
	for i, t := range ColumnTitles {
		titles[i] = t
	}
	row, err := w.writeRowLocked(titles)
	if err != nil {
		return err
	}
	if err := w.styleRange(row, 1, len(titles), w.boldStyle); err != nil {
		return err
	}
	return w.saveLocked()
}

// Append writes one row and saves the file.
func (w *Workbook) Append(r Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return fmt.Errorf("report %s is closed", w.path)
	}

	row, err := w.writeRowLocked(r.cells())
	if err != nil {
		return err
	}
	switch r.Result {
	case "PASS":
		err = w.styleRange(row, 3, 3, w.passStyle)
	case "FAIL":
		err = w.styleRange(row, 3, 3, w.failStyle)
	}
	if err != nil {
		return err
	}
	return w.saveLocked()
}

func (w *Workbook) writeRowLocked(cells []interface{}) (int, error) {
	row := w.next
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return 0, err
	}
	if err := w.file.SetSheetRow(SheetName, cell, &cells); err != nil {
		return 0, fmt.Errorf("write row %d: %w", row, err)
	}
	w.next++
	return row, nil
}

func (w *Workbook) styleRange(row, fromCol, toCol, style int) error {
	from, err := excelize.CoordinatesToCellName(fromCol, row)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(toCol, row)
	if err != nil {
		return err
	}
	return w.file.SetCellStyle(SheetName, from, to, style)
}

func (w *Workbook) saveLocked() error {
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("save report %s: %w", w.path, err)
	}
	return nil
}

// Path returns the workbook file path.
func (w *Workbook) Path() string {
	return w.path
}

// Created reports whether this run created the file.
func (w *Workbook) Created() bool {
	return w.created
}

// Close releases the workbook. Rows are already on disk.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// ReadRows returns every row of the results sheet.
func ReadRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetRows(SheetName)
}
