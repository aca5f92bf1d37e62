// Package dataset loads and serves the sample table of a screen: one row per
// imaged sample with its scatter coordinates, image location and annotations.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	ColIndex     = "index"
	ColURL       = "url"
	ColInfo      = "info"
	ColX         = "x"
	ColY         = "y"
	ColGene      = "gene"
	ColNeighbors = "neighbors"
)

var requiredColumns = []string{ColIndex, ColURL, ColInfo, ColX, ColY}

// hiddenColumns are kept out of table views and CSV export.
var hiddenColumns = map[string]bool{ColNeighbors: true, "path": true}

// Sample is one row of a screen's sample table.
type Sample struct {
	Index string
	URL   string
	Info  string
	X     float64
	Y     float64
	Gene  string
	// Neighbors holds precomputed neighbor sample ids, nearest first.
	Neighbors []string
	// Extra carries any additional CSV columns verbatim.
	Extra map[string]string
	// Path is the image location: the url column resolved against the
	// dataset directory when relative, or the raw URL when absolute.
	Path string
}

// Table is an immutable, loaded sample table.
type Table struct {
	samples []Sample
	byIndex map[string]int
	columns []string
}

// Load reads a sample table from a CSV file. Relative image urls resolve
// against the file's directory.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()
	t, err := FromReader(f, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("samples", t.Len()).Msg("Dataset loaded")
	return t, nil
}

// FromReader parses CSV sample data. dir is the base for relative image urls.
func FromReader(r io.Reader, dir string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	t := &Table{byIndex: make(map[string]int)}
	for _, name := range header {
		t.columns = append(t.columns, strings.TrimSpace(name))
	}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		line++
		if len(record) != len(header) {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", line, len(header), len(record))
		}
		sample, err := parseSample(record, colIdx, dir)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if _, exists := t.byIndex[sample.Index]; exists {
			return nil, fmt.Errorf("line %d: duplicate sample index %q", line, sample.Index)
		}
		t.byIndex[sample.Index] = len(t.samples)
		t.samples = append(t.samples, sample)
	}
	return t, nil
}

func parseSample(record []string, colIdx map[string]int, dir string) (Sample, error) {
	get := func(col string) string {
		if i, ok := colIdx[col]; ok {
			return strings.TrimSpace(record[i])
		}
		return ""
	}
	x, err := strconv.ParseFloat(get(ColX), 64)
	if err != nil {
		return Sample{}, fmt.Errorf("bad x coordinate %q", get(ColX))
	}
	y, err := strconv.ParseFloat(get(ColY), 64)
	if err != nil {
		return Sample{}, fmt.Errorf("bad y coordinate %q", get(ColY))
	}
	s := Sample{
		Index: get(ColIndex),
		URL:   get(ColURL),
		Info:  get(ColInfo),
		X:     x,
		Y:     y,
		Gene:  get(ColGene),
	}
	if s.Index == "" {
		return Sample{}, fmt.Errorf("empty sample index")
	}
	if neighbors := get(ColNeighbors); neighbors != "" {
		for _, n := range strings.Split(neighbors, ";") {
			if n = strings.TrimSpace(n); n != "" {
				s.Neighbors = append(s.Neighbors, n)
			}
		}
	}
	for col, i := range colIdx {
		switch col {
		case ColIndex, ColURL, ColInfo, ColX, ColY, ColGene, ColNeighbors:
			continue
		}
		if s.Extra == nil {
			s.Extra = make(map[string]string)
		}
		s.Extra[col] = strings.TrimSpace(record[i])
	}
	s.Path = resolvePath(s.URL, dir)
	return s, nil
}

// resolvePath leaves absolute URLs and absolute paths alone and joins
// relative paths onto the dataset directory.
func resolvePath(rawURL, dir string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Scheme != "" {
		return rawURL
	}
	if filepath.IsAbs(rawURL) {
		return rawURL
	}
	return filepath.Join(dir, rawURL)
}

func (t *Table) Len() int {
	return len(t.samples)
}

// Samples returns all samples in file order.
func (t *Table) Samples() []Sample {
	return t.samples
}

// Get looks a sample up by index.
func (t *Table) Get(index string) (*Sample, bool) {
	i, ok := t.byIndex[index]
	if !ok {
		return nil, false
	}
	return &t.samples[i], true
}

// Select returns the samples for the given indices, skipping unknown ids.
func (t *Table) Select(indices []string) []Sample {
	out := make([]Sample, 0, len(indices))
	for _, idx := range indices {
		if s, ok := t.Get(idx); ok {
			out = append(out, *s)
		}
	}
	return out
}

// Genes returns the gene label per sample, aligned with Samples().
func (t *Table) Genes() []string {
	out := make([]string, len(t.samples))
	for i, s := range t.samples {
		out[i] = s.Gene
	}
	return out
}

// VisibleColumns is the column list for table views, with bookkeeping
// columns hidden.
func (t *Table) VisibleColumns() []string {
	out := make([]string, 0, len(t.columns))
	for _, col := range t.columns {
		if !hiddenColumns[col] {
			out = append(out, col)
		}
	}
	return out
}

// WriteCSV exports the given samples (all samples when indices is nil) with
// the visible columns only.
func (t *Table) WriteCSV(w io.Writer, indices []string) error {
	samples := t.samples
	if indices != nil {
		samples = t.Select(indices)
	}
	columns := t.VisibleColumns()
	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return err
	}
	for _, s := range samples {
		record := make([]string, len(columns))
		for i, col := range columns {
			switch col {
			case ColIndex:
				record[i] = s.Index
			case ColURL:
				record[i] = s.URL
			case ColInfo:
				record[i] = s.Info
			case ColX:
				record[i] = strconv.FormatFloat(s.X, 'g', -1, 64)
			case ColY:
				record[i] = strconv.FormatFloat(s.Y, 'g', -1, 64)
			case ColGene:
				record[i] = s.Gene
			default:
				record[i] = s.Extra[col]
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
