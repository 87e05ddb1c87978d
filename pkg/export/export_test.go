package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Networking Lab attendance",
		Columns: []string{"Date", "Student", "Time In", "Time Out"},
		Rows: [][]string{
			{"2024-05-06", "Ada Lovelace", "09:02", ""},
			{"2024-05-06", "Grace Hopper", "09:10", "10:55"},
		},
	}
}

func TestCSVRenderer(t *testing.T) {
	out, err := NewCSVRenderer().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Date,Student,Time In,Time Out\n2024-05-06,Ada Lovelace,09:02,\n2024-05-06,Grace Hopper,09:10,10:55\n", string(out))
}

func TestPDFRenderer(t *testing.T) {
	d := sampleDataset()
	for i := 0; i < 120; i++ {
		d.Rows = append(d.Rows, []string{"2024-05-07", "Student", "09:00", ""})
	}
	out, err := NewPDFRenderer("labgate").Render(d)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRendererRejectsRaggedRows(t *testing.T) {
	d := sampleDataset()
	d.Rows = append(d.Rows, []string{"only one"})
	_, err := NewCSVRenderer().Render(d)
	assert.Error(t, err)
	_, err = NewPDFRenderer("").Render(Dataset{})
	assert.Error(t, err)
}
