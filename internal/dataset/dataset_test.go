package dataset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `index,url,info,x,y,gene,neighbors,plate
A01,images/a01.png,well A01,0.5,1.5,myc,A02;B01,p1
A02,images/a02.png,well A02,0.7,1.1,myc,A01;B01,p1
B01,https://cdn.example.com/b01.png,well B01,-2.0,0.3,tp53,,p2
`

func loadTable(t *testing.T) *Table {
	t.Helper()
	table, err := FromReader(strings.NewReader(sampleCSV), "/data/screen1")
	require.NoError(t, err)
	return table
}

func TestFromReader(t *testing.T) {
	table := loadTable(t)
	assert.Equal(t, 3, table.Len())

	s, ok := table.Get("A01")
	require.True(t, ok)
	assert.Equal(t, "well A01", s.Info)
	assert.Equal(t, 0.5, s.X)
	assert.Equal(t, "myc", s.Gene)
	assert.Equal(t, []string{"A02", "B01"}, s.Neighbors)
	assert.Equal(t, "p1", s.Extra["plate"])
	assert.Equal(t, "/data/screen1/images/a01.png", s.Path)
}

func TestAbsoluteURLUntouched(t *testing.T) {
	table := loadTable(t)
	s, ok := table.Get("B01")
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/b01.png", s.Path)
	assert.Nil(t, s.Neighbors)
}

func TestMissingRequiredColumn(t *testing.T) {
	_, err := FromReader(strings.NewReader("index,url,info,x\nA01,u,i,1\n"), ".")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"y"`)
}

func TestDuplicateIndex(t *testing.T) {
	csv := "index,url,info,x,y\nA01,u,i,1,2\nA01,u,i,3,4\n"
	_, err := FromReader(strings.NewReader(csv), ".")
	assert.Error(t, err)
}

func TestBadCoordinate(t *testing.T) {
	csv := "index,url,info,x,y\nA01,u,i,not-a-number,2\n"
	_, err := FromReader(strings.NewReader(csv), ".")
	assert.Error(t, err)
}

func TestSelect(t *testing.T) {
	table := loadTable(t)
	selected := table.Select([]string{"B01", "A01", "missing"})
	require.Len(t, selected, 2)
	assert.Equal(t, "B01", selected[0].Index)
	assert.Equal(t, "A01", selected[1].Index)
}

func TestVisibleColumnsHideNeighbors(t *testing.T) {
	table := loadTable(t)
	cols := table.VisibleColumns()
	assert.NotContains(t, cols, ColNeighbors)
	assert.Contains(t, cols, "plate")
}

func TestWriteCSVSelection(t *testing.T) {
	table := loadTable(t)
	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf, []string{"A02"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "index,url,info,x,y,gene,plate", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "A02,"))
}

func TestWriteCSVAll(t *testing.T) {
	table := loadTable(t)
	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf, nil))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 4)
}

func TestGenes(t *testing.T) {
	table := loadTable(t)
	assert.Equal(t, []string{"myc", "myc", "tp53"}, table.Genes())
}
