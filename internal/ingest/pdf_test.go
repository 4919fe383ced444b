package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"rsc.io/pdf"
)

func TestPageText(t *testing.T) {
	runs := []pdf.Text{
		{FontSize: 10, X: 0, Y: 700, W: 20, S: "Hel"},
		{FontSize: 10, X: 20, Y: 700, W: 10, S: "lo"},
		{FontSize: 10, X: 40, Y: 700, W: 30, S: "world"},
		{FontSize: 10, X: 0, Y: 688, W: 30, S: "again"},
	}
	assert.Equal(t, "Hello world again", pageText(runs))
	assert.Equal(t, "", pageText(nil))
}

func TestPDFExtractInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	assert.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 garbage"), 0644))

	_, err := (&PDFFormat{}).Extract(context.Background(), path)
	assert.Error(t, err)

	_, err = (&PDFFormat{}).Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
