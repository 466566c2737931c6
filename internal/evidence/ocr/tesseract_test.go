package ocr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docverify/pkg/platform/sentinel"
)

type call struct {
	name string
	args []string
}

// exitStatus mimics *exec.ExitError for a process that ran and exited non-zero.
type exitStatus int

func (e exitStatus) Error() string { return fmt.Sprintf("exit status %d", int(e)) }
func (e exitStatus) ExitCode() int { return int(e) }

// stubRunner records invocations and simulates pdftoppm output files.
type stubRunner struct {
	calls     []call
	stdout    string
	stderr    string
	failOn    string
	failErr   error
	renderPNG bool
}

func (r *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.calls = append(r.calls, call{name: name, args: args})
	if name == r.failOn {
		err := r.failErr
		if err == nil {
			err = exitStatus(1)
		}
		return nil, []byte(r.stderr), err
	}
	if name == "pdftoppm" && r.renderPNG {
		prefix := args[len(args)-1]
		if err := os.WriteFile(prefix+"-1.png", []byte("png"), 0o600); err != nil {
			return nil, nil, err
		}
	}
	if name == "tesseract" {
		return []byte(r.stdout), nil, nil
	}
	return nil, nil, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTesseractEngine_Image(t *testing.T) {
	runner := &stubRunner{stdout: "NAME: JOHN DOE"}
	engine := NewTesseractEngine(TesseractConfig{TessdataDir: "/opt/tessdata"}, runner, discardLogger())

	var events []Progress
	text, err := engine.Recognize(context.Background(), "/docs/id.png", "eng", func(p Progress) {
		events = append(events, p)
	})

	require.NoError(t, err)
	assert.Equal(t, "NAME: JOHN DOE", text)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, "tesseract", runner.calls[0].name)
	assert.Equal(t, []string{"/docs/id.png", "stdout", "-l", "eng", "--tessdata-dir", "/opt/tessdata"}, runner.calls[0].args)
	assert.Equal(t, []Progress{
		{Status: StatusLoading, Fraction: 0},
		{Status: StatusRecognizing, Fraction: 0.5},
		{Status: StatusDone, Fraction: 1},
	}, events)
}

func TestTesseractEngine_PDFRendersFirstPage(t *testing.T) {
	runner := &stubRunner{stdout: "DOB: 01/15/1985", renderPNG: true}
	engine := NewTesseractEngine(TesseractConfig{DPI: 200}, runner, discardLogger())

	text, err := engine.Recognize(context.Background(), "/docs/ID.PDF", "eng", nil)

	require.NoError(t, err)
	assert.Equal(t, "DOB: 01/15/1985", text)
	require.Len(t, runner.calls, 2)
	assert.Equal(t, "pdftoppm", runner.calls[0].name)
	assert.Equal(t, []string{"-r", "200", "-png", "-f", "1", "-l", "1", "/docs/ID.PDF"}, runner.calls[0].args[:8])

	page := runner.calls[1].args[0]
	assert.True(t, strings.HasSuffix(page, "page-1.png"))
	_, statErr := os.Stat(page)
	assert.True(t, os.IsNotExist(statErr), "rendered page is cleaned up")
}

func TestTesseractEngine_PDFWithoutPages(t *testing.T) {
	runner := &stubRunner{}
	engine := NewTesseractEngine(TesseractConfig{}, runner, discardLogger())

	_, err := engine.Recognize(context.Background(), "/docs/empty.pdf", "eng", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no images")
	assert.Len(t, runner.calls, 1, "tesseract is not invoked")
}

func TestTesseractEngine_Failures(t *testing.T) {
	t.Run("tesseract error includes stderr", func(t *testing.T) {
		runner := &stubRunner{failOn: "tesseract", stderr: "Error opening data file"}
		engine := NewTesseractEngine(TesseractConfig{}, runner, discardLogger())

		_, err := engine.Recognize(context.Background(), "/docs/id.jpg", "eng", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Error opening data file")
	})

	t.Run("pdftoppm error", func(t *testing.T) {
		runner := &stubRunner{failOn: "pdftoppm", stderr: "Syntax Error"}
		engine := NewTesseractEngine(TesseractConfig{}, runner, discardLogger())

		_, err := engine.Recognize(context.Background(), "/docs/id.pdf", "eng", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pdftoppm")
	})
}

func TestTesseractEngine_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name        string
		failOn      string
		failErr     error
		stderr      string
		path        string
		engineFault bool
	}{
		{"unreadable image", "tesseract", exitStatus(1), "Error in pixReadStream: Unknown format", "/docs/id.png", false},
		{"broken pdf", "pdftoppm", exitStatus(1), "Syntax Error: Couldn't read xref table", "/docs/id.pdf", false},
		{"missing language data", "tesseract", exitStatus(1), "Error opening data file /usr/share/tessdata/eng.traineddata", "/docs/id.png", true},
		{"language failed to load", "tesseract", exitStatus(1), "Failed loading language 'eng'", "/docs/id.png", true},
		{"binary not installed", "tesseract", errors.New(`exec: "tesseract": executable file not found in $PATH`), "", "/docs/id.png", true},
		{"killed by signal", "tesseract", exitStatus(-1), "", "/docs/id.png", true},
		{"timed out", "tesseract", context.DeadlineExceeded, "", "/docs/id.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{failOn: tt.failOn, failErr: tt.failErr, stderr: tt.stderr}
			engine := NewTesseractEngine(TesseractConfig{}, runner, discardLogger())

			_, err := engine.Recognize(context.Background(), tt.path, "eng", nil)

			require.Error(t, err)
			assert.Equal(t, tt.engineFault, errors.Is(err, sentinel.ErrUnavailable))
			assert.Equal(t, tt.engineFault, isEngineFault(err))
		})
	}
}
