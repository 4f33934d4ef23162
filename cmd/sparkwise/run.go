package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/DukeRupert/sparkwise/internal/battery"
	"github.com/DukeRupert/sparkwise/internal/domain"
	"github.com/DukeRupert/sparkwise/internal/pool"
	"github.com/DukeRupert/sparkwise/internal/report"
	"github.com/DukeRupert/sparkwise/internal/service"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// errInvalidInputs is returned after field errors have been printed.
var errInvalidInputs = errors.New("invalid inputs")

func runBattery(cmd *cobra.Command, file string) error {
	var in battery.Inputs
	if err := loadInputs(cmd, file, &in); err != nil {
		return err
	}

	res, err := newCalculations().Battery(cmd.Context(), in)
	if err != nil {
		return err
	}

	return emit(cmd, res, func(w io.Writer) { printBattery(w, in, res) })
}

func runPool(cmd *cobra.Command, file string, validateOnly bool) error {
	var in pool.Inputs
	if err := loadInputs(cmd, file, &in); err != nil {
		return err
	}

	if validateOnly {
		errs := pool.Validate(in)
		if err := emit(cmd, map[string]any{"valid": len(errs) == 0, "errors": errs}, func(w io.Writer) {
			printFieldErrors(w, errs)
		}); err != nil {
			return err
		}
		if len(errs) > 0 {
			return errInvalidInputs
		}
		return nil
	}

	res, err := newCalculations().Pool(cmd.Context(), in)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			printFieldErrors(cmd.ErrOrStderr(), ve.Fields)
			return errInvalidInputs
		}
		return err
	}

	return emit(cmd, res, func(w io.Writer) { printPool(w, res) })
}

func runSolarPV(cmd *cobra.Command, file, render string) error {
	raw, err := readInputs(cmd, file)
	if err != nil {
		return err
	}
	raw, err = toJSON(raw)
	if err != nil {
		return err
	}

	cert := newCalculations().SolarPV(cmd.Context(), raw)

	if render != "" {
		format := domain.DocumentFormat(strings.TrimPrefix(strings.ToLower(filepath.Ext(render)), "."))
		if !format.IsValid() {
			return fmt.Errorf("--render must end in .pdf or .html, got %q", render)
		}

		gen, err := report.NewGenerator(format, discardLogger())
		if err != nil {
			return err
		}

		f, err := os.Create(render)
		if err != nil {
			return fmt.Errorf("creating %s: %w", render, err)
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		doc := &report.Document{Certificate: cert, GeneratedAt: time.Now()}
		if _, err := gen.Generate(ctx, doc, f); err != nil {
			return fmt.Errorf("rendering %s: %w", render, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("writing %s: %w", render, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", render)
	}

	return emit(cmd, cert, func(w io.Writer) { printCertificate(w, cert) })
}

// =============================================================================
// Input and output helpers
// =============================================================================

// newCalculations returns the engines without history.
func newCalculations() service.CalculationService {
	return service.NewCalculationService(nil, discardLogger())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// readInputs reads file, or stdin when file is "-".
func readInputs(cmd *cobra.Command, file string) ([]byte, error) {
	if file == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return b, nil
	}

	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading inputs: %w", err)
	}
	return b, nil
}

// loadInputs decodes a JSON or YAML document into v.
func loadInputs(cmd *cobra.Command, file string, v any) error {
	raw, err := readInputs(cmd, file)
	if err != nil {
		return err
	}
	if json.Valid(raw) {
		if err := json.Unmarshal(raw, v); err != nil {
			return fmt.Errorf("parsing inputs: %w", err)
		}
		return nil
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parsing inputs: %w", err)
	}
	return nil
}

// toJSON converts a YAML installation record to JSON. JSON input is
// returned unchanged so lenient number handling still applies.
func toJSON(raw []byte) ([]byte, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || json.Valid([]byte(trimmed)) {
		return []byte(trimmed), nil
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing installation record: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("converting installation record: %w", err)
	}
	return out, nil
}

// emit writes v as indented JSON or calls text.
func emit(cmd *cobra.Command, v any, text func(io.Writer)) error {
	output, _ := cmd.Flags().GetString("output")

	switch output {
	case outputJSON:
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputText:
		text(cmd.OutOrStdout())
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want text or json)", output)
	}
}
