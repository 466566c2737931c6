package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"docverify/pkg/platform/sentinel"
)

// stderr fragments tesseract prints when its installation, not the document,
// is at fault.
var engineFaults = []string{
	"Error opening data file",
	"Failed loading language",
	"Could not initialize tesseract",
}

// TesseractConfig locates the OCR binaries.
type TesseractConfig struct {
	Tesseract   string
	Pdftoppm    string
	TessdataDir string
	DPI         int
}

// TesseractEngine recognises text with the tesseract CLI. PDFs are rendered
// to a PNG first and only their first page is read.
type TesseractEngine struct {
	cfg    TesseractConfig
	runner Runner
	logger *slog.Logger
}

func NewTesseractEngine(cfg TesseractConfig, runner Runner, logger *slog.Logger) *TesseractEngine {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TesseractEngine{cfg: cfg, runner: runner, logger: logger}
}

// Recognize implements Engine.
func (e *TesseractEngine) Recognize(ctx context.Context, path, lang string, progress ProgressFunc) (string, error) {
	progress.report(StatusLoading, 0)

	input := path
	if isPDF(path) {
		page, cleanup, err := e.renderFirstPage(ctx, path)
		if err != nil {
			return "", err
		}
		defer cleanup()
		input = page
	}

	progress.report(StatusRecognizing, 0.5)

	// tesseract <file> stdout -l <lang>
	args := []string{input, "stdout", "-l", lang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", classify("tesseract", err, errb)
	}

	progress.report(StatusDone, 1)
	return string(out), nil
}

func (e *TesseractEngine) renderFirstPage(ctx context.Context, path string) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "docverify-pp-*")
	if err != nil {
		return "", nil, fmt.Errorf("create render dir: %w: %w", sentinel.ErrUnavailable, err)
	}
	cleanup := func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.WarnContext(ctx, "failed to remove render dir", "dir", tmpDir, "error", err)
		}
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png -f 1 -l 1 <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-r", strconv.Itoa(e.cfg.DPI), "-png", "-f", "1", "-l", "1", path, prefix)
	if err != nil {
		cleanup()
		return "", nil, classify("pdftoppm", err, errb)
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		cleanup()
		return "", nil, fmt.Errorf("pdftoppm produced no images")
	}
	return matches[0], cleanup, nil
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// classify marks a command failure with sentinel.ErrUnavailable when the
// engine itself is broken. A plain non-zero exit is blamed on the document.
func classify(cmd string, err error, stderr []byte) error {
	detail := truncate(strings.TrimSpace(string(stderr)), 512)
	if engineFault(err, detail) {
		return fmt.Errorf("%s: %w: %w: %s", cmd, sentinel.ErrUnavailable, err, detail)
	}
	return fmt.Errorf("%s: %w: %s", cmd, err, detail)
}

func engineFault(err error, stderr string) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	// *exec.ExitError; anything else means the process never ran.
	var exited interface{ ExitCode() int }
	if !errors.As(err, &exited) || exited.ExitCode() == -1 {
		return true
	}
	for _, fault := range engineFaults {
		if strings.Contains(stderr, fault) {
			return true
		}
	}
	return false
}
