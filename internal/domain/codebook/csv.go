package codebook

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"workshop/internal/core/apperror"
	"workshop/internal/core/types"
)

// CSV framing shared by all codebooks: semicolon delimiter, UTF-8 with BOM,
// dot decimal separator, booleans as 0/1, empty cell for null.
const csvDelimiter = ';'

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type colKind int

const (
	kindString colKind = iota
	kindBool
	kindInt
	kindFloat
	kindDecimal
	kindDate
	kindTime
	kindStrings
)

type column struct {
	name string
	kind colKind
}

var (
	decimalType = reflect.TypeOf(decimal.Decimal{})
	dateType    = reflect.TypeOf(types.Date{})
	timeType    = reflect.TypeOf(time.Time{})
)

// columnsOf derives the logical column list from the row struct. Surrogate
// identity and lock version stay out of files, same as the envelope.
func columnsOf[T Row](newFn func() T) []column {
	t := reflect.TypeOf(newFn())
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return structColumns(t)
}

func structColumns(t reflect.Type) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			ft := f.Type
			for ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				cols = append(cols, structColumns(ft)...)
				continue
			}
		}

		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" || name == "id" || name == "version" {
			continue
		}
		cols = append(cols, column{name: name, kind: fieldKind(f.Type)})
	}
	return cols
}

func fieldKind(t reflect.Type) colKind {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case t == decimalType:
		return kindDecimal
	case t == dateType:
		return kindDate
	case t == timeType:
		return kindTime
	}
	switch t.Kind() {
	case reflect.Bool:
		return kindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return kindInt
	case reflect.Float32, reflect.Float64:
		return kindFloat
	case reflect.Slice:
		return kindStrings
	default:
		return kindString
	}
}

// ExportCSV writes all rows in the shared CSV framing.
func (s *Service[T]) ExportCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.repo.All(ctx)
	if err != nil {
		return err
	}

	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cols := columnsOf(s.desc.New)
	cw := csv.NewWriter(w)
	cw.Comma = csvDelimiter

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range rows {
		raw, err := marshalLogical(row)
		if err != nil {
			return fmt.Errorf("%s %s: %w", s.desc.Name, row.NaturalKey(), err)
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return err
		}

		record := make([]string, len(cols))
		for i, c := range cols {
			record[i] = encodeCell(c.kind, fields[c.name])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", row.NaturalKey(), err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ImportCSV parses rows in the shared framing and upserts them by natural
// key. Unknown columns are ignored, rows with malformed cells are reported
// in the error list and the rest are applied.
func (s *Service[T]) ImportCSV(ctx context.Context, r io.Reader, opts ImportOptions) (ImportStats, error) {
	br := bufio.NewReader(r)
	if peek, err := br.Peek(len(utf8BOM)); err == nil && string(peek) == string(utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = csvDelimiter
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return ImportStats{}, apperror.NewInvalidInput("csv file is empty or has no header").WithCause(err)
	}

	cols := columnsOf(s.desc.New)
	known := make(map[string]colKind, len(cols))
	for _, c := range cols {
		known[c.name] = c.kind
	}

	var (
		rows      []T
		parseErrs []ImportError
		seen      = make(map[string]bool)
		rowNum    int
	)

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			parseErrs = append(parseErrs, ImportError{Row: rowNum, Message: err.Error()})
			continue
		}

		fields := make(map[string]json.RawMessage)
		var cellErr error
		for i, cell := range record {
			if i >= len(header) {
				break
			}
			kind, ok := known[header[i]]
			if !ok {
				continue
			}
			raw, err := decodeCell(kind, cell)
			if err != nil {
				cellErr = fmt.Errorf("column %q: %w", header[i], err)
				break
			}
			if raw != nil {
				fields[header[i]] = raw
			}
		}
		if cellErr != nil {
			parseErrs = append(parseErrs, ImportError{Row: rowNum, Message: cellErr.Error()})
			continue
		}

		raw, err := json.Marshal(fields)
		if err != nil {
			parseErrs = append(parseErrs, ImportError{Row: rowNum, Message: err.Error()})
			continue
		}
		row := s.desc.New()
		if err := json.Unmarshal(raw, row); err != nil {
			parseErrs = append(parseErrs, ImportError{Row: rowNum, Message: err.Error()})
			continue
		}

		if seen[row.NaturalKey()] {
			parseErrs = append(parseErrs, ImportError{
				Row:     rowNum,
				Key:     row.NaturalKey(),
				Message: "duplicate key in file",
			})
			continue
		}
		seen[row.NaturalKey()] = true
		rows = append(rows, row)
	}

	stats, err := s.ImportTyped(ctx, rows, opts)
	if err != nil {
		return ImportStats{}, err
	}
	stats.Errors = append(stats.Errors, parseErrs...)
	return stats, nil
}

func encodeCell(kind colKind, raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	switch kind {
	case kindBool:
		if string(raw) == "true" {
			return "1"
		}
		return "0"
	case kindDecimal, kindDate, kindTime, kindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return strings.Trim(string(raw), `"`)
		}
		return s
	case kindStrings:
		var items []string
		if err := json.Unmarshal(raw, &items); err != nil {
			return ""
		}
		return strings.Join(items, ",")
	default:
		return string(raw)
	}
}

func decodeCell(kind colKind, cell string) (json.RawMessage, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}

	switch kind {
	case kindBool:
		switch cell {
		case "1", "true":
			return json.RawMessage("true"), nil
		case "0", "false":
			return json.RawMessage("false"), nil
		default:
			return nil, fmt.Errorf("invalid boolean %q, want 0 or 1", cell)
		}
	case kindInt:
		if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid integer %q", cell)
		}
		return json.RawMessage(cell), nil
	case kindFloat:
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return nil, fmt.Errorf("invalid number %q", cell)
		}
		return json.RawMessage(cell), nil
	case kindDecimal:
		if _, err := decimal.NewFromString(cell); err != nil {
			return nil, fmt.Errorf("invalid decimal %q", cell)
		}
		return json.Marshal(cell)
	case kindDate:
		if _, err := types.ParseDate(cell); err != nil {
			return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", cell)
		}
		return json.Marshal(cell)
	case kindStrings:
		parts := strings.Split(cell, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return json.Marshal(parts)
	default:
		return json.Marshal(cell)
	}
}
