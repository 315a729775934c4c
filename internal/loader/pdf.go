package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// pdfTool is the poppler-utils text extractor the PDF parser shells
// out to; install with "brew install poppler" or "apt install
// poppler-utils".
const pdfTool = "pdftotext"

const pdfTimeout = 60 * time.Second

// ErrPDFToolNotFound is returned when pdftotext is not in PATH.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH, install poppler-utils")

// commandRunner executes an external tool and returns its stdout.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// PDFParser extracts text from PDF files by running pdftotext on the
// file path; the raw bytes handed to Parse are left to the tool. The
// runner is swappable so tests do not need poppler installed.
type PDFParser struct {
	runner commandRunner
}

func NewPDFParser() *PDFParser { return &PDFParser{runner: execRunner{}} }

func (p *PDFParser) Extensions() []string { return []string{".pdf"} }

func (p *PDFParser) Name() string { return "pdf" }

func (p *PDFParser) Parse(path string, _ []byte) (string, map[string]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pdfTimeout)
	defer cancel()

	out, err := p.runner.Run(ctx, pdfTool, "-enc", "UTF-8", "-nopgbrk", path, "-")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", nil, fmt.Errorf("pdf %s: %w", path, ErrPDFToolNotFound)
		}
		return "", nil, fmt.Errorf("pdf %s: pdftotext failed: %w", path, err)
	}
	return strings.TrimSpace(string(out)), nil, nil
}
