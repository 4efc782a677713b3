package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

var ErrNoText = errors.New("pdf: no extractable text")

// Extractor pulls the text layer out of a DANFE PDF by shelling out to
// pdftotext (poppler-utils). Scanned PDFs without a text layer come back
// as ErrNoText so callers can report a meaningful failure instead of
// sending an empty prompt to the AI provider.
type Extractor struct {
	binaryPath string
	timeout    time.Duration
}

func NewExtractor() (*Extractor, error) {
	path, err := exec.LookPath("pdftotext")
	if err != nil {
		return nil, fmt.Errorf("pdftotext not found in PATH: %w", err)
	}
	return &Extractor{binaryPath: path, timeout: 30 * time.Second}, nil
}

// Available reports whether the pdftotext binary can still be resolved.
// Used by the health endpoint.
func (e *Extractor) Available() bool {
	_, err := exec.LookPath(e.binaryPath)
	return err == nil
}

// ExtractText writes the PDF bytes to a temp file, runs pdftotext with
// layout preservation and returns the trimmed text of all pages.
func (e *Extractor) ExtractText(ctx context.Context, pdfBytes []byte) (string, error) {
	if len(pdfBytes) == 0 {
		return "", errors.New("pdf: empty input")
	}

	tmp, err := os.CreateTemp("", "danfe-*.pdf")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(pdfBytes); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	tmp.Close()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	// "-" sends the text to stdout. -layout keeps columns roughly where
	// they are on the page, which helps the AI associate labels with values.
	cmd := exec.CommandContext(ctx, e.binaryPath, "-layout", "-enc", "UTF-8", tmpPath, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("pdftotext timed out after %v", e.timeout)
		}
		return "", fmt.Errorf("pdftotext failed: %s: %w", strings.TrimSpace(stderr.String()), err)
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
