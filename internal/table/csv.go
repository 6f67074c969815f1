package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/specialistvlad/flightgrid/internal/etlerr"
)

// DecodeCSV reads a header row followed by data rows. Every column is
// decoded as String; empty fields become null.
func DecodeCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, etlerr.Malformed("", "missing header row")
	}
	if err != nil {
		return nil, etlerr.MalformedErr("", err)
	}

	schema := make(Schema, len(header))
	for i, name := range header {
		schema[i] = Column{Name: name, Type: String}
	}
	if err := schema.Validate(); err != nil {
		return nil, etlerr.MalformedErr("", err)
	}

	var rows [][]Value
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) && errors.Is(pe.Err, csv.ErrFieldCount) {
				return nil, &etlerr.Error{
					Kind: etlerr.ErrMalformedInput,
					Row:  len(rows),
					Msg:  fmt.Sprintf("line %d has %d fields, header has %d", pe.Line, len(rec), len(header)),
				}
			}
			return nil, etlerr.MalformedErr("", err)
		}
		row := make([]Value, len(rec))
		for i, field := range rec {
			if field == "" {
				row[i] = Null()
			} else {
				row[i] = Str(field)
			}
		}
		rows = append(rows, row)
	}
	return &Table{schema: schema, rows: rows}, nil
}

// EncodeCSV writes the header and every row. Null cells are written as empty
// fields; no index column is added.
func EncodeCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.schema.Names()); err != nil {
		return err
	}
	rec := make([]string, len(t.schema))
	for _, row := range t.rows {
		for j, v := range row {
			rec[j] = v.Text()
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
