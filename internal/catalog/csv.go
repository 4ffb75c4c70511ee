package catalog

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Column names of the catalog file.
const (
	ColPlaceID  = "place_id"
	ColRegion   = "區域"
	ColFoodType = "美食類型"
	ColName     = "店名"
	ColHours    = "營業時間"
	ColAddress  = "地址"
	ColPhone    = "電話"
	ColReviews  = "評論"
)

// columnAliases maps legacy header names to their canonical column.
var columnAliases = map[string]string{
	"類型": ColFoodType,
}

// BaseColumns is the column order written by the store pass.
var BaseColumns = []string{ColPlaceID, ColRegion, ColFoodType, ColName, ColHours, ColAddress, ColPhone}

// EnrichedColumns adds the reviews column written by the review pass.
var EnrichedColumns = []string{ColPlaceID, ColRegion, ColFoodType, ColName, ColHours, ColAddress, ColPhone, ColReviews}

const utf8BOM = "\ufeff"

// Table is a parsed catalog file.
type Table struct {
	Columns []string // canonical header names in file order
	Records []StoreRecord
}

// HasColumns reports whether every named column is present.
func (t *Table) HasColumns(cols ...string) bool {
	if t == nil {
		return false
	}
	for _, c := range cols {
		if !slices.Contains(t.Columns, c) {
			return false
		}
	}
	return true
}

// Decode converts raw file bytes to UTF-8 text without a BOM.
// Input that is not valid UTF-8 is treated as Big5.
func Decode(data []byte) ([]byte, error) {
	var dec transform.Transformer = unicode.BOMOverride(unicode.UTF8.NewDecoder())
	if !utf8.Valid(data) {
		dec = traditionalchinese.Big5.NewDecoder()
	}
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return bytes.TrimPrefix(out, []byte(utf8BOM)), nil
}

// ReadCSV parses a catalog file. Header names and store names are trimmed.
// Rows shorter than the header are padded; missing columns yield empty fields.
func ReadCSV(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	data, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}

	index := make(map[string]int, len(header))
	columns := make([]string, 0, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if canonical, ok := columnAliases[name]; ok {
			name = canonical
		}
		if _, dup := index[name]; dup {
			continue
		}
		index[name] = i
		columns = append(columns, name)
	}

	field := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	table := &Table{Columns: columns}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog row: %w", err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		table.Records = append(table.Records, StoreRecord{
			PlaceID:  strings.TrimSpace(field(row, ColPlaceID)),
			Region:   strings.TrimSpace(field(row, ColRegion)),
			FoodType: strings.TrimSpace(field(row, ColFoodType)),
			Name:     strings.TrimSpace(field(row, ColName)),
			Hours:    field(row, ColHours),
			Address:  field(row, ColAddress),
			Phone:    field(row, ColPhone),
			Reviews:  field(row, ColReviews),
		})
	}
	return table, nil
}

// ReadFile parses the catalog file at path.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f)
}

func (r StoreRecord) values(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		switch c {
		case ColPlaceID:
			out[i] = r.PlaceID
		case ColRegion:
			out[i] = r.Region
		case ColFoodType:
			out[i] = r.FoodType
		case ColName:
			out[i] = r.Name
		case ColHours:
			out[i] = r.Hours
		case ColAddress:
			out[i] = r.Address
		case ColPhone:
			out[i] = r.Phone
		case ColReviews:
			out[i] = r.Reviews
		}
	}
	return out
}

// WriteCSV writes a UTF-8 BOM, the header and one line per record with
// every field quoted.
func WriteCSV(w io.Writer, columns []string, records []StoreRecord) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(utf8BOM); err != nil {
		return err
	}
	if err := writeQuotedRow(bw, columns); err != nil {
		return err
	}
	for _, rec := range records {
		if err := writeQuotedRow(bw, rec.values(columns)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteRows writes arbitrary rows in the same fully quoted format.
func WriteRows(w io.Writer, header []string, rows [][]string) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(utf8BOM); err != nil {
		return err
	}
	if err := writeQuotedRow(bw, header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writeQuotedRow(bw, row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeQuotedRow(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}

// WriteFileAtomic writes via a temp file in the same directory and renames
// it over path, so readers never observe a partial catalog.
func WriteFileAtomic(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create catalog dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// WriteFile atomically writes records to path with the given columns.
func WriteFile(path string, columns []string, records []StoreRecord) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		return WriteCSV(w, columns, records)
	})
}
