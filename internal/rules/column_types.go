package rules

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/guillermoBallester/schemadvisor/internal/core/port"
)

var (
	textTypes    = []string{"character varying", "character", "text"}
	numericTypes = []string{"numeric", "integer", "bigint", "smallint"}
)

// dateLayouts are the textual date forms recognized in text columns.
var dateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02.01.2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

type columnTypes struct{ base }

func newColumnTypes() *columnTypes {
	return &columnTypes{base{name: "column_types", title: "Column Type Analysis", scope: port.ScopeTable}}
}

func (r *columnTypes) Probe(ctx context.Context, probe port.SchemaProbe, target domain.Target, th domain.Thresholds) domain.Result {
	f := r.findings(target)
	table := target.Display()

	cols, err := listColumns(ctx, probe, target, append(append([]string{}, textTypes...), numericTypes...))
	if err != nil {
		f.fail(err, "Failed to list columns of table '%s'", table)
		return f.result()
	}

	for _, col := range cols {
		numeric := isNumericType(col.dataType)
		shape, err := classifyColumn(ctx, probe, target, col.name, numeric, th.TypeSampleSize)
		if err != nil {
			f.fail(err, "Failed to sample values of column '%s' in table '%s'", col.name, table)
			continue
		}

		switch {
		case numeric:
			if shape.binary {
				f.warn("Numeric column '%s' in table '%s' might be better as a boolean type (contains only 0 and 1).", col.name, table)
			}
		case shape.boolean:
			f.warn("Column '%s' in table '%s' might be better as a boolean type.", col.name, table)
		case shape.number:
			f.warn("Column '%s' in table '%s' of type '%s' only holds numbers and might be better as a numeric type.", col.name, table, col.dataType)
		case shape.date:
			f.warn("Column '%s' in table '%s' of type '%s' only holds dates and might be better as a date or timestamp type.", col.name, table, col.dataType)
		}
	}
	return f.result()
}

func isNumericType(dataType string) bool {
	for _, t := range numericTypes {
		if t == dataType {
			return true
		}
	}
	return false
}

// valueShape records which value classes every distinct value of a column
// belongs to.
type valueShape struct {
	binary, boolean, number, date bool
}

func (s valueShape) any() bool {
	return s.binary || s.boolean || s.number || s.date
}

func (s *valueShape) narrow(v string) {
	s.binary = s.binary && isBinaryDigit(v)
	s.boolean = s.boolean && isBooleanLike(v)
	s.number = s.number && isNumber(v)
	s.date = s.date && isDate(v)
}

// classifyColumn reads the column's distinct values page by page and stops
// as soon as no class can still hold, so a mixed column usually costs one
// page while a uniform one is confirmed against every value. An empty
// column matches no class.
func classifyColumn(ctx context.Context, probe port.SchemaProbe, target domain.Target, column string, numeric bool, pageSize int) (valueShape, error) {
	shape := valueShape{binary: numeric, boolean: !numeric, number: !numeric, date: !numeric}
	if pageSize < 1 {
		pageSize = 1
	}
	sql := bind(queryDistinctValues, target, column)

	var after any
	seen := 0
	for shape.any() {
		rows, err := probe.Query(ctx, sql, pageSize, after)
		if err != nil {
			return valueShape{}, err
		}
		for _, row := range rows {
			shape.narrow(str(row["value"]))
		}
		seen += len(rows)
		if len(rows) < pageSize {
			break
		}
		after = str(rows[len(rows)-1]["value"])
	}
	if seen == 0 {
		return valueShape{}, nil
	}
	return shape, nil
}

func isBooleanLike(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "no", "true", "false", "1", "0":
		return true
	}
	return false
}

func isBinaryDigit(v string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return err == nil && (f == 0 || f == 1)
}

func isNumber(v string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}

func isDate(v string) bool {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}
