package catalog

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sakif/college-tracker/internal/model"
)

//go:embed seed/colleges.csv
var defaultSeed []byte

// DefaultSeed returns the bundled catalog seed.
func DefaultSeed() io.Reader {
	return bytes.NewReader(defaultSeed)
}

// ParseSeed reads a scorecard-style CSV (INSTNM, CITY, STABBR, ZIP, INSTURL,
// CONTROL, ADM_RATE, GRAD_RATE, SAT_AVG, TUITION, TUITION_IN, TUITION_OUT).
// Columns may be missing or reordered. Rows without INSTNM are skipped.
// Numbers may use thousands separators; blank or unparsable numbers are nil.
func ParseSeed(r io.Reader) ([]model.College, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog: reading seed header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := col["INSTNM"]; !ok {
		return nil, fmt.Errorf("catalog: seed has no INSTNM column")
	}

	var out []model.College
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: reading seed line %d: %w", line, err)
		}

		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		name := get("INSTNM")
		if name == "" {
			continue
		}
		c := model.College{
			InstName:   name,
			City:       get("CITY"),
			State:      get("STABBR"),
			Zip:        get("ZIP"),
			URL:        get("INSTURL"),
			AdmRate:    number(get("ADM_RATE")),
			GradRate:   number(get("GRAD_RATE")),
			SATAvg:     number(get("SAT_AVG")),
			Tuition:    number(get("TUITION")),
			TuitionIn:  number(get("TUITION_IN")),
			TuitionOut: number(get("TUITION_OUT")),
		}
		if n := number(get("CONTROL")); n != nil {
			v := int(*n)
			c.Control = &v
		}
		out = append(out, c)
	}
	return out, nil
}

func number(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
