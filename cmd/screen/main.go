// Command screen runs one screening batch from a JSON file and prints the run
// as JSON.
//
//	screen -input universe.json -profile profile.yaml > run.json
//
// The input is either a JSON array of securities or an object with a
// "securities" array.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/aristath/valuescreen/internal/config"
	"github.com/aristath/valuescreen/internal/modules/pipeline"
	"github.com/aristath/valuescreen/pkg/logger"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("screen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "-", "path to the securities JSON file, - for stdin")
	profilePath := fs.String("profile", "", "path to a YAML screening profile (optional)")
	workers := fs.Int("workers", 4, "number of evaluation workers")
	logLevel := fs.String("log-level", "warn", "log level: debug, info, warn or error")
	pretty := fs.Bool("pretty", false, "indent the JSON output")
	quiet := fs.Bool("quiet", false, "discard all log output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *workers <= 0 {
		return fmt.Errorf("-workers must be positive, got %d", *workers)
	}

	log := logger.Nop()
	if !*quiet {
		log = logger.New(logger.Config{Level: *logLevel, Pretty: true, Output: stderr})
	}

	profile, err := config.LoadProfile(*profilePath)
	if err != nil {
		return err
	}
	runner, err := pipeline.NewRunner(profile.PipelineConfig(*workers), log)
	if err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	data, err := readInput(*inputPath, stdin)
	if err != nil {
		return err
	}
	securities, err := decodeSecurities(data)
	if err != nil {
		return err
	}

	result, err := runner.Run(securities)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}

// decodeSecurities accepts a bare array or {"securities": [...]}.
func decodeSecurities(data []byte) ([]pipeline.SecurityInput, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("input is empty")
	}

	var securities []pipeline.SecurityInput
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &securities); err != nil {
			return nil, fmt.Errorf("failed to decode securities: %w", err)
		}
		return securities, nil
	}

	var batch struct {
		Securities []pipeline.SecurityInput `json:"securities"`
	}
	if err := json.Unmarshal(trimmed, &batch); err != nil {
		return nil, fmt.Errorf("failed to decode securities: %w", err)
	}
	return batch.Securities, nil
}
