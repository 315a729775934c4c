package loader

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner stands in for pdftotext so the tests run without poppler.
type fakeRunner struct {
	output []byte
	err    error
	args   []string
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	f.args = args
	return f.output, f.err
}

func TestPDFParserExtractsText(t *testing.T) {
	runner := &fakeRunner{output: []byte("Quarterly Report\n\nRevenue grew 12%.\n")}
	p := &PDFParser{runner: runner}

	text, _, err := p.Parse("docs/report.pdf", nil)
	require.NoError(t, err)
	assert.Equal(t, "Quarterly Report\n\nRevenue grew 12%.", text)
	assert.Contains(t, runner.args, "docs/report.pdf")
	assert.Contains(t, runner.args, "-nopgbrk")
}

func TestPDFParserToolFailure(t *testing.T) {
	p := &PDFParser{runner: &fakeRunner{err: errors.New("syntax error in file")}}
	_, _, err := p.Parse("bad.pdf", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
}

func TestPDFParserToolMissing(t *testing.T) {
	p := &PDFParser{runner: &fakeRunner{err: exec.ErrNotFound}}
	_, _, err := p.Parse("a.pdf", nil)
	assert.ErrorIs(t, err, ErrPDFToolNotFound)
}

func TestDefaultRegistersPDF(t *testing.T) {
	_, ok := Default().parsers[".pdf"]
	assert.True(t, ok)
}
