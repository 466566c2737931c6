package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"docverify/internal/evidence/application"
	appstore "docverify/internal/evidence/application/store"
	"docverify/internal/evidence/ocr"
	"docverify/internal/evidence/parser"
	"docverify/internal/platform/config"
	"docverify/internal/platform/logger"
	"docverify/internal/verification"
	"docverify/internal/verification/adapters"
	"docverify/internal/verification/handler"
	statusstore "docverify/internal/verification/store"
	id "docverify/pkg/domain"
)

// verifydoc runs one document through the verification pipeline against a
// seeded application and prints the result. Nothing is persisted.
func main() {
	var (
		seed     = flag.String("seed", "", "JSON file of application records (required)")
		appIDArg = flag.String("application", "", "application ID to verify against (required)")
		document = flag.String("document", "", "path to the ID image or PDF (required)")
		timeout  = flag.Duration("timeout", 2*time.Minute, "overall timeout")
	)
	flag.Parse()

	if *seed == "" || *appIDArg == "" || *document == "" {
		fmt.Fprintln(os.Stderr, "usage: verifydoc --seed apps.json --application 42 --document id.png")
		os.Exit(2)
	}
	if err := run(*seed, *appIDArg, *document, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "verifydoc: %v\n", err)
		os.Exit(1)
	}
}

func run(seedPath, appIDArg, documentPath string, timeout time.Duration) error {
	applicationID, err := id.ParseApplicationID(appIDArg)
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.NewWithWriter(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	memory := appstore.NewInMemoryStore(0)
	if _, err := appstore.LoadSeed(ctx, seedPath, memory, cfg.Policy.DateLayout); err != nil {
		return err
	}

	rules := parser.DefaultRules()
	if cfg.Rules.File != "" {
		if rules, err = parser.LoadRules(cfg.Rules.File, rules); err != nil {
			return fmt.Errorf("load parser rules: %w", err)
		}
	}

	engine := ocr.NewTesseractEngine(ocr.TesseractConfig{
		Tesseract:   cfg.OCR.TesseractPath,
		Pdftoppm:    cfg.OCR.PdftoppmPath,
		TessdataDir: cfg.OCR.TessdataDir,
		DPI:         cfg.OCR.DPI,
	}, nil, log)
	extractor := ocr.New(engine,
		ocr.WithLanguage(cfg.OCR.Language),
		ocr.WithRunTimeout(cfg.OCR.RunTimeout),
		ocr.WithLogger(log),
	)

	service := verification.NewService(
		adapters.NewOCRAdapter(extractor),
		parser.New(parser.WithRules(rules), parser.WithLogger(log)),
		application.NewService(memory, application.WithLogger(log)),
		statusstore.NewInMemoryStore(),
		verification.WithPolicy(cfg.Policy.Domain()),
		verification.WithLogger(log),
	)

	result, err := service.Verify(ctx, applicationID, documentPath)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(handler.FromResult(applicationID.String(), result))
}
