package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFRenderLessonTable(t *testing.T) {
	data := Dataset{
		Headers: []string{"Date", "Start", "End", "Client", "Instructor", "Vehicle", "Rating", "Notes"},
		Rows: []map[string]string{
			{"Date": "2030-03-15", "Start": "14:00", "End": "16:00", "Client": "Luc Moreau", "Instructor": "Marie Dupont", "Vehicle": "Peugeot 208", "Rating": "4", "Notes": "Good progress on parking"},
		},
	}

	raw, err := NewPDFExporter().Render(data, "Lesson history")
	require.NoError(t, err)
	assert.True(t, len(raw) > 0)
	assert.Equal(t, "%PDF", string(raw[:4]))
}

func TestPDFRenderRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, "empty")
	require.Error(t, err)
}

func TestColumnWidthsFillPage(t *testing.T) {
	widths := columnWidths([]string{"Date", "Notes", "Unknown"})
	require.Len(t, widths, 3)

	sum := 0.0
	for _, w := range widths {
		sum += w
	}
	assert.InDelta(t, 273.0, sum, 0.001)
	assert.Greater(t, widths[1], widths[0])
}
