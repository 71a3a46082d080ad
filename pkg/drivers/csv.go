package drivers

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/opst/datapod/pkg/table"
)

// CSV is the driver for tabular/csv.
//
// The first record is the header. No index column is read or written.
//
// Each column is typed by its non-empty cells: int when all of them are integers,
// float when all are numbers, bool when all are true/false (as True, TRUE or true),
// and string otherwise. Empty cells are missing. A column without any value is float.
var CSV = newFileDriver(NewSpec("tabular", "csv"), decodeCSV, encodeCSV)

func decodeCSV(_ context.Context, r io.Reader) (table.Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return table.Table{}, err
	}
	if len(records) == 0 {
		return table.New()
	}

	header := records[0]
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	rows := records[1:]

	columns := make([]table.Column, len(header))
	for nth, name := range header {
		cells := make([]string, len(rows))
		for r, rec := range rows {
			cells[r] = rec[nth]
		}
		columns[nth] = inferColumn(name, cells)
	}
	return table.New(columns...)
}

var boolWords = map[string]bool{
	"true": true, "True": true, "TRUE": true,
	"false": false, "False": false, "FALSE": false,
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func inferColumn(name string, cells []string) table.Column {
	isInt, isFloat, isBool := true, true, true
	for _, c := range cells {
		if c == "" {
			continue
		}
		if isInt {
			if _, err := strconv.ParseInt(c, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, ok := parseFloat(c); !ok {
				isFloat = false
			}
		}
		if isBool {
			if _, ok := boolWords[c]; !ok {
				isBool = false
			}
		}
	}

	kind := table.String
	allMissing := true
	for _, c := range cells {
		if c != "" {
			allMissing = false
			break
		}
	}
	switch {
	case len(cells) == 0:
		kind = table.String
	case allMissing:
		kind = table.Float
	case isInt:
		kind = table.Int
	case isFloat:
		kind = table.Float
	case isBool:
		kind = table.Bool
	}

	values := make([]any, len(cells))
	for i, c := range cells {
		if c == "" {
			continue
		}
		switch kind {
		case table.Int:
			values[i], _ = strconv.ParseInt(c, 10, 64)
		case table.Float:
			values[i], _ = parseFloat(c)
		case table.Bool:
			values[i] = boolWords[c]
		default:
			values[i] = c
		}
	}
	return table.Column{Name: name, Kind: kind, Values: values}
}

func formatCell(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		switch {
		case math.IsNaN(x):
			return "", nil
		case math.IsInf(x, 1):
			return "inf", nil
		case math.IsInf(x, -1):
			return "-inf", nil
		case x == math.Trunc(x) && math.Abs(x) < 1e16:
			// integral floats keep ".0" not to be read back as int
			return strconv.FormatFloat(x, 'f', 1, 64), nil
		default:
			return strconv.FormatFloat(x, 'g', -1, 64), nil
		}
	case bool:
		if x {
			return "True", nil
		}
		return "False", nil
	default:
		return "", fmt.Errorf("unsupported cell type %T", v)
	}
}

func encodeCSV(w io.Writer, t table.Table) error {
	if t.NumColumns() == 0 {
		return nil
	}
	buf := new(bytes.Buffer)
	cw := csv.NewWriter(buf)

	write := func(record []string) error {
		// csv.Writer writes a single empty field as a blank line, which readers skip.
		if len(record) == 1 && record[0] == "" {
			cw.Flush()
			_, err := buf.WriteString("\"\"\n")
			return err
		}
		return cw.Write(record)
	}

	if err := write(t.Columns()); err != nil {
		return err
	}

	record := make([]string, t.NumColumns())
	for nth := 0; nth < t.NumRows(); nth++ {
		for i, v := range t.Row(nth) {
			s, err := formatCell(v)
			if err != nil {
				return err
			}
			record[i] = s
		}
		if err := write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	_, err := io.Copy(w, buf)
	return err
}
