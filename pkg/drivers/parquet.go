package drivers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/opst/datapod/pkg/table"
)

// Parquet is the driver for tabular/parquet.
//
// Columns are nullable utf8, int64, float64 or bool. No index column is read or written.
// Load decodes the whole file eagerly, in a single thread.
var Parquet = newFileDriver(NewSpec("tabular", "parquet"), decodeParquet, encodeParquet)

var errNoColumns = errors.New("parquet needs at least one column")

func arrowType(k table.Kind) arrow.DataType {
	switch k {
	case table.Int:
		return arrow.PrimitiveTypes.Int64
	case table.Float:
		return arrow.PrimitiveTypes.Float64
	case table.Bool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

func encodeParquet(w io.Writer, t table.Table) error {
	if t.NumColumns() == 0 {
		return errNoColumns
	}

	fields := make([]arrow.Field, t.NumColumns())
	for i := range fields {
		c := t.ColumnAt(i)
		fields[i] = arrow.Field{Name: c.Name, Type: arrowType(c.Kind), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	for i := range fields {
		c := t.ColumnAt(i)
		switch fb := b.Field(i).(type) {
		case *array.StringBuilder:
			for _, v := range c.Values {
				if v == nil {
					fb.AppendNull()
				} else {
					fb.Append(v.(string))
				}
			}
		case *array.Int64Builder:
			for _, v := range c.Values {
				if v == nil {
					fb.AppendNull()
				} else {
					fb.Append(v.(int64))
				}
			}
		case *array.Float64Builder:
			for _, v := range c.Values {
				if v == nil {
					fb.AppendNull()
				} else {
					fb.Append(v.(float64))
				}
			}
		case *array.BooleanBuilder:
			for _, v := range c.Values {
				if v == nil {
					fb.AppendNull()
				} else {
					fb.Append(v.(bool))
				}
			}
		}
	}

	rec := b.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	buf := new(bytes.Buffer)
	err := pqarrow.WriteTable(
		tbl, buf, int64(max(1, t.NumRows())),
		parquet.NewWriterProperties(), pqarrow.DefaultWriterProps(),
	)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, buf)
	return err
}

func decodeParquet(ctx context.Context, r io.Reader) (table.Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return table.Table{}, err
	}

	tbl, err := pqarrow.ReadTable(
		ctx, bytes.NewReader(raw),
		parquet.NewReaderProperties(memory.DefaultAllocator),
		pqarrow.ArrowReadProperties{Parallel: false, BatchSize: 64 * 1024},
		memory.DefaultAllocator,
	)
	if err != nil {
		return table.Table{}, err
	}
	defer tbl.Release()

	schema := tbl.Schema()
	columns := make([]table.Column, tbl.NumCols())
	for i := range columns {
		field := schema.Field(i)
		col, err := readArrowColumn(field, tbl.Column(i))
		if err != nil {
			return table.Table{}, err
		}
		columns[i] = col
	}
	return table.New(columns...)
}

func readArrowColumn(field arrow.Field, col *arrow.Column) (table.Column, error) {
	c := table.Column{Name: field.Name, Values: make([]any, 0, col.Len())}

	switch field.Type.ID() {
	case arrow.STRING, arrow.LARGE_STRING:
		c.Kind = table.String
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32:
		c.Kind = table.Int
	case arrow.FLOAT32, arrow.FLOAT64:
		c.Kind = table.Float
	case arrow.BOOL:
		c.Kind = table.Bool
	case arrow.NULL:
		c.Kind = table.Float
	default:
		return table.Column{}, fmt.Errorf("column %q has unsupported type %s", field.Name, field.Type)
	}

	for _, chunk := range col.Data().Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				c.Values = append(c.Values, nil)
				continue
			}
			var v any
			switch a := chunk.(type) {
			case *array.String:
				v = a.Value(i)
			case *array.LargeString:
				v = a.Value(i)
			case *array.Int8:
				v = int64(a.Value(i))
			case *array.Int16:
				v = int64(a.Value(i))
			case *array.Int32:
				v = int64(a.Value(i))
			case *array.Int64:
				v = a.Value(i)
			case *array.Uint8:
				v = int64(a.Value(i))
			case *array.Uint16:
				v = int64(a.Value(i))
			case *array.Uint32:
				v = int64(a.Value(i))
			case *array.Float32:
				v = float64(a.Value(i))
			case *array.Float64:
				v = a.Value(i)
			case *array.Boolean:
				v = a.Value(i)
			default:
				return table.Column{}, fmt.Errorf("column %q has unexpected chunk %T", field.Name, chunk)
			}
			c.Values = append(c.Values, v)
		}
	}
	return c, nil
}
