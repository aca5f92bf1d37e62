package samples

import (
	"math"
	"strconv"

	"github.com/microscopium/microscopium/internal/dataset"
)

// montageMaxTiles matches the montage renderer: larger selections keep the
// first montageMaxTiles-1 tiles and flag truncation.
const montageMaxTiles = 25

func buildScatterPoints(table *dataset.Table) []ScatterPoint {
	samples := table.Samples()
	points := make([]ScatterPoint, len(samples))
	for i, s := range samples {
		points[i] = ScatterPoint{
			Id:   s.Index,
			X:    s.X,
			Y:    s.Y,
			Info: s.Info,
			Gene: s.Gene,
			URL:  s.URL,
		}
	}
	return points
}

func buildTableRows(table *dataset.Table, selected []dataset.Sample) ([]string, [][]string) {
	columns := table.VisibleColumns()
	rows := make([][]string, len(selected))
	for i, s := range selected {
		record := make([]string, len(columns))
		for j, col := range columns {
			switch col {
			case dataset.ColIndex:
				record[j] = s.Index
			case dataset.ColURL:
				record[j] = s.URL
			case dataset.ColInfo:
				record[j] = s.Info
			case dataset.ColX:
				record[j] = strconv.FormatFloat(s.X, 'g', -1, 64)
			case dataset.ColY:
				record[j] = strconv.FormatFloat(s.Y, 'g', -1, 64)
			case dataset.ColGene:
				record[j] = s.Gene
			default:
				record[j] = s.Extra[col]
			}
		}
		rows[i] = record
	}
	return columns, rows
}

// buildMontageTiles lays the selection out on a square grid in the unit
// square, in selection order, row by row.
func buildMontageTiles(selected []dataset.Sample) ([]MontageTile, bool) {
	truncated := false
	if len(selected) > montageMaxTiles {
		selected = selected[:montageMaxTiles-1]
		truncated = true
	}
	if len(selected) == 0 {
		return nil, false
	}
	sideLen := int(math.Ceil(math.Sqrt(float64(len(selected)))))
	size := 1.0 / float64(sideLen)
	tiles := make([]MontageTile, len(selected))
	for i, s := range selected {
		row := i / sideLen
		col := i % sideLen
		tiles[i] = MontageTile{
			Id:   s.Index,
			URL:  s.URL,
			Row:  row,
			Col:  col,
			X:    float64(col) * size,
			Y:    float64(row) * size,
			Size: size,
		}
	}
	return tiles, truncated
}
