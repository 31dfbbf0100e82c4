package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/OFFIS-RIT/dracor-mcp/pkg/common"
	"github.com/OFFIS-RIT/dracor-mcp/pkg/dracor"
)

// NetworkResult holds the edges of a network CSV and the rows that were
// skipped.
type NetworkResult struct {
	Edges    []common.NetworkEdge `json:"edges"`
	Warnings []string             `json:"warnings,omitempty"`
}

// RelationsResult holds the formal relations of a relations CSV and the
// rows that were skipped.
type RelationsResult struct {
	Relations []common.FormalRelation `json:"relations"`
	Warnings  []string                `json:"warnings,omitempty"`
}

type columns struct {
	source, kind, target, value int
}

var (
	networkColumns3 = columns{source: 0, kind: -1, target: 1, value: 2}
	networkColumns4 = columns{source: 0, kind: 1, target: 2, value: 3}
)

// ParseNetworkCSV parses network data as delivered by the networkdata/csv
// endpoint. Quoted fields follow RFC 4180, so `"A, B",C,1` is one edge.
// A header row is recognised by its column names; without one, rows of
// three (source,target,weight) or four (source,type,target,weight) fields
// are accepted.
func ParseNetworkCSV(body []byte) (NetworkResult, error) {
	res := NetworkResult{Edges: []common.NetworkEdge{}}

	rejected, err := readRecords(body, [][]string{{"source"}, {"target"}, {"weight"}}, func(line int, cols *columns, record []string) error {
		c, err := networkLayout(cols, record)
		if err != nil {
			return err
		}
		source := strings.TrimSpace(record[c.source])
		target := strings.TrimSpace(record[c.target])
		if source == "" || target == "" {
			return errors.New("empty source or target")
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(record[c.value]), 64)
		if err != nil {
			return fmt.Errorf("invalid weight %q", record[c.value])
		}

		edge := common.NetworkEdge{Source: source, Target: target, Weight: weight}
		if c.kind >= 0 {
			edge.Type = strings.TrimSpace(record[c.kind])
		}
		res.Edges = append(res.Edges, edge)
		return nil
	}, &res.Warnings)
	if err != nil {
		return NetworkResult{}, err
	}
	if len(res.Edges) == 0 && rejected > 0 {
		return NetworkResult{}, &dracor.ParseError{
			Format: dracor.FormatCSV,
			Err:    fmt.Errorf("no valid edge in %d rows", rejected),
		}
	}

	return res, nil
}

// ParseRelationsCSV parses the relations/csv endpoint. Its header is
// Source,Type,Target,Label; a Relation column is accepted in place of Label.
func ParseRelationsCSV(body []byte) (RelationsResult, error) {
	res := RelationsResult{Relations: []common.FormalRelation{}}

	rejected, err := readRecords(body, [][]string{{"source"}, {"target"}, {"label", "relation"}}, func(line int, cols *columns, record []string) error {
		c := networkColumns4
		if cols != nil {
			c = *cols
		}
		if !fits(c, record) {
			return fmt.Errorf("expected 4 fields, got %d", len(record))
		}
		source := strings.TrimSpace(record[c.source])
		target := strings.TrimSpace(record[c.target])
		relation := strings.TrimSpace(record[c.value])
		if source == "" || target == "" || relation == "" {
			return errors.New("empty source, target or relation")
		}

		rel := common.FormalRelation{Source: source, Target: target, Relation: relation}
		if c.kind >= 0 {
			rel.Type = strings.TrimSpace(record[c.kind])
		}
		res.Relations = append(res.Relations, rel)
		return nil
	}, &res.Warnings)
	if err != nil {
		return RelationsResult{}, err
	}
	if len(res.Relations) == 0 && rejected > 0 {
		return RelationsResult{}, &dracor.ParseError{
			Format: dracor.FormatCSV,
			Err:    fmt.Errorf("no valid relation in %d rows", rejected),
		}
	}

	return res, nil
}

// readRecords walks every CSV record. The first record is treated as a
// header when it names all required columns, each given as a list of
// accepted names; the value column is the last one in required. Rows rejected by fn
// are recorded in warnings.
func readRecords(
	body []byte,
	required [][]string,
	fn func(line int, cols *columns, record []string) error,
	warnings *[]string,
) (int, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var header *columns
	rejected := 0
	first := true

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return 0, &dracor.ParseError{Format: dracor.FormatCSV, Err: err}
			}
			*warnings = append(*warnings, fmt.Sprintf("line %d: %v", parseErr.StartLine, parseErr.Err))
			rejected++
			first = false
			if errors.Is(parseErr.Err, csv.ErrBareQuote) {
				continue
			}
			// the reader cannot resynchronise after a broken quoted field
			break
		}
		line, _ := reader.FieldPos(0)

		if isBlank(record) {
			continue
		}
		if first {
			first = false
			if cols, ok := headerColumns(record, required); ok {
				header = &cols
				continue
			}
		}

		if err := fn(line, header, record); err != nil {
			*warnings = append(*warnings, fmt.Sprintf("line %d: %v", line, err))
			rejected++
		}
	}

	return rejected, nil
}

func headerColumns(record []string, required [][]string) (columns, bool) {
	index := make(map[string]int, len(record))
	for i, field := range record {
		index[strings.ToLower(strings.TrimSpace(field))] = i
	}

	cols := columns{kind: -1}
	for i, names := range required {
		pos, ok := lookup(index, names)
		if !ok {
			return columns{}, false
		}
		switch i {
		case 0:
			cols.source = pos
		case 1:
			cols.target = pos
		default:
			cols.value = pos
		}
	}
	if pos, ok := index["type"]; ok {
		cols.kind = pos
	}
	return cols, true
}

func lookup(index map[string]int, names []string) (int, bool) {
	for _, name := range names {
		if pos, ok := index[name]; ok {
			return pos, true
		}
	}
	return 0, false
}

func networkLayout(header *columns, record []string) (columns, error) {
	if header != nil {
		if !fits(*header, record) {
			return columns{}, fmt.Errorf("expected at least %d fields, got %d", width(*header), len(record))
		}
		return *header, nil
	}
	switch len(record) {
	case 3:
		return networkColumns3, nil
	case 4:
		return networkColumns4, nil
	default:
		return columns{}, fmt.Errorf("expected 3 or 4 fields, got %d", len(record))
	}
}

func width(c columns) int {
	return max(c.source, c.kind, c.target, c.value) + 1
}

func fits(c columns, record []string) bool {
	return len(record) >= width(c)
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
