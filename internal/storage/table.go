package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/happyhackingspace/hinter/internal/htmlutil"
)

// LabelColumn holds the annotation of each record.
const LabelColumn = "is_construction"

// Values of LabelColumn.
const (
	LabelConstruction = 1
	LabelOther        = 0
	LabelSkipped      = -1
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a CSV table of incident records. Every column of the source file
// is preserved; LabelColumn is added when missing.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// ReadTable reads a CSV file with a header row.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	t, err := ParseTable(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// ParseTable parses CSV data with a header row.
func ParseTable(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header row")
	}

	t := &Table{Header: records[0], Rows: records[1:]}
	t.reindex()
	if _, ok := t.index[LabelColumn]; !ok {
		t.Header = append(t.Header, LabelColumn)
		t.reindex()
	}
	for i, row := range t.Rows {
		for len(row) < len(t.Header) {
			row = append(row, "")
		}
		t.Rows[i] = row
	}
	return t, nil
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		h = strings.ToLower(strings.TrimSpace(h))
		if _, ok := t.index[h]; !ok {
			t.index[h] = i
		}
	}
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.Rows) }

// Has reports whether the table has column col.
func (t *Table) Has(col string) bool {
	_, ok := t.index[strings.ToLower(col)]
	return ok
}

// Value returns the raw value of column col of record i, "" when absent.
func (t *Table) Value(i int, col string) string {
	j, ok := t.index[strings.ToLower(col)]
	if !ok || i < 0 || i >= len(t.Rows) {
		return ""
	}
	return strings.TrimSpace(t.Rows[i][j])
}

// Text returns column col of record i with any markup stripped.
func (t *Table) Text(i int, col string) string {
	v := t.Value(i, col)
	if htmlutil.LooksLikeHTML(v) {
		return htmlutil.Text(v)
	}
	return v
}

// Label returns the annotation of record i. ok is false for unlabeled records.
func (t *Table) Label(i int) (label int, ok bool) {
	v := t.Value(i, LabelColumn)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	switch int(f) {
	case LabelConstruction, LabelOther, LabelSkipped:
		return int(f), float64(int(f)) == f
	}
	return 0, false
}

// SetLabel sets the annotation of record i.
func (t *Table) SetLabel(i, label int) {
	t.Rows[i][t.index[LabelColumn]] = strconv.Itoa(label)
}

// ClearLabel removes the annotation of record i.
func (t *Table) ClearLabel(i int) {
	t.Rows[i][t.index[LabelColumn]] = ""
}

// Counts tallies the annotations.
func (t *Table) Counts() (construction, other, skipped, unlabeled int) {
	for i := range t.Rows {
		label, ok := t.Label(i)
		switch {
		case !ok:
			unlabeled++
		case label == LabelConstruction:
			construction++
		case label == LabelOther:
			other++
		default:
			skipped++
		}
	}
	return
}

// Write writes the table to path atomically, with a UTF-8 byte order mark so
// that spreadsheet applications detect the encoding.
func (t *Table) Write(path string) error {
	return writeAtomic(path, func(f *os.File) error {
		if _, err := f.Write(utf8BOM); err != nil {
			return err
		}
		w := csv.NewWriter(f)
		if err := w.Write(t.Header); err != nil {
			return err
		}
		if err := w.WriteAll(t.Rows); err != nil {
			return err
		}
		return w.Error()
	})
}
