// Standalone tool that converts BioBERT (dmis-lab/biobert-base-cased-v1.1)
// to ONNX format for the local hugot embedder.
//
// The Python conversion script is embedded in the binary so this command
// works when installed via `go install`.
//
// Requires uv (https://docs.astral.sh/uv/) and Python >=3.10.
//
// Usage: download-model [dest]
//
// dest defaults to $MODEL_DIR/biobert, then ~/.medbot/models/biobert.
package main

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/aar-healthcare/medbot/internal/config"
)

//go:embed convert-model.py
var script []byte

const modelName = "biobert"

func main() {
	dest := defaultDest()
	if len(os.Args) > 1 {
		dest = os.Args[1]
	}

	if present(dest) {
		fmt.Printf("Model already present at %s\n", dest)
		return
	}

	tmp, err := os.CreateTemp("", "convert-model-*.py")
	if err != nil {
		fmt.Fprintf(os.Stderr, "create temp file: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(script); err != nil {
		fmt.Fprintf(os.Stderr, "write temp file: %v\n", err)
		os.Exit(1)
	}
	if err := tmp.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close temp file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Converting model to %s...\n", dest)

	delay := 2 * time.Second
	for i := range 4 {
		if i > 0 {
			fmt.Fprintf(os.Stderr, "retry in %s: %v\n", delay, err)
			time.Sleep(delay)
			delay *= 2
		}

		cmd := exec.Command("uv", "run", tmp.Name(), dest)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err = cmd.Run(); err == nil {
			break
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "convert model: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Model ready at %s\n", dest)
}

func defaultDest() string {
	if dir := os.Getenv("MODEL_DIR"); dir != "" {
		return filepath.Join(dir, modelName)
	}
	return filepath.Join(config.DefaultDataDir(), config.DefaultModelSubdir, modelName)
}

// present reports whether dest already holds a tokenizer and an ONNX export.
func present(dest string) bool {
	if _, err := os.Stat(filepath.Join(dest, "tokenizer.json")); err != nil {
		return false
	}
	_, err := os.Stat(filepath.Join(dest, "model.onnx"))
	return err == nil
}
