package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title: "Cohorts",
		Columns: []Column{
			{Key: "name", Title: "Name", Width: 3},
			{Key: "members", Title: "Members", Width: 1, Center: true},
		},
		Rows: []map[string]string{
			{"name": "Math, year 1", "members": "12"},
			{"name": "Physics", "members": "0"},
		},
		Dimmed: []bool{false, true},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,Members", lines[0])
	assert.Equal(t, `"Math, year 1",12`, lines[1])
}

func TestCSVExporterRequiresColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 40))
	long := strings.Repeat("x", 100)
	assert.Len(t, truncate(long, 16), 8)
}
