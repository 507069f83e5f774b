package provider

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

const localBatchMax = 8

// session holds the process-wide hugot session. ONNX Runtime allows one
// session per process and is not safe for concurrent inference, so the
// mutex guards both setup and every pipeline run.
var session struct {
	mu       sync.Mutex
	hugot    *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	modelDir string
}

// LocalEmbedding runs a BERT-family encoder (BioBERT by default) in process.
// Vectors are the attention-masked mean of the last hidden state and are
// not normalised.
//
// The model is looked up in modelDir as a subdirectory holding
// tokenizer.json and an ONNX export. Binaries built with the embed_model tag
// carry a copy that is extracted into modelDir on first use.
type LocalEmbedding struct {
	modelDir string
}

// NewLocalEmbedding creates a LocalEmbedding reading models from modelDir.
func NewLocalEmbedding(modelDir string) *LocalEmbedding {
	return &LocalEmbedding{modelDir: modelDir}
}

// Available reports whether a model can be loaded.
func (l *LocalEmbedding) Available() bool {
	if hasEmbeddedModel {
		return true
	}
	_, err := findModel(l.modelDir)
	return err == nil
}

// Warm loads the model so the first request does not pay for it.
func (l *LocalEmbedding) Warm() error {
	return l.load()
}

func (l *LocalEmbedding) load() error {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.pipeline != nil {
		if session.modelDir != l.modelDir {
			return fmt.Errorf("model already loaded from %s", session.modelDir)
		}
		return nil
	}

	path, err := l.modelPath()
	if err != nil {
		return err
	}

	s, err := newHugotSession()
	if err != nil {
		return fmt.Errorf("create hugot session: %w", err)
	}
	pipeline, err := hugot.NewPipeline(s, hugot.FeatureExtractionConfig{
		ModelPath: path,
		Name:      "medbot-embeddings",
	})
	if err != nil {
		_ = s.Destroy()
		return fmt.Errorf("create feature extraction pipeline: %w", err)
	}

	session.hugot = s
	session.pipeline = pipeline
	session.modelDir = l.modelDir
	return nil
}

func (l *LocalEmbedding) modelPath() (string, error) {
	if path, err := findModel(l.modelDir); err == nil {
		return path, nil
	}
	if !hasEmbeddedModel {
		return "", fmt.Errorf("no model in %s; run download-model or build with -tags embed_model", l.modelDir)
	}
	return extractModel(embeddedModelFS, l.modelDir)
}

// findModel returns the first subdirectory of dir that holds tokenizer.json.
func findModel(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read model directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(filepath.Join(candidate, "tokenizer.json")); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no model with tokenizer.json under %s", dir)
}

// extractModel copies models/<name>/... from src into dir/<name>/ unless it
// is already there, and returns dir/<name>.
func extractModel(src fs.FS, dir string) (string, error) {
	models, err := fs.Sub(src, "models")
	if err != nil {
		return "", fmt.Errorf("open embedded models: %w", err)
	}
	entries, err := fs.ReadDir(models, ".")
	if err != nil {
		return "", fmt.Errorf("list embedded models: %w", err)
	}

	name := ""
	for _, entry := range entries {
		if entry.IsDir() {
			name = entry.Name()
			break
		}
	}
	if name == "" {
		return "", fmt.Errorf("no embedded model directory")
	}

	target := filepath.Join(dir, name)
	if _, err := os.Stat(filepath.Join(target, "tokenizer.json")); err == nil {
		return target, nil
	}

	model, err := fs.Sub(models, name)
	if err != nil {
		return "", fmt.Errorf("open embedded model %s: %w", name, err)
	}
	if err := os.CopyFS(target, model); err != nil {
		return "", fmt.Errorf("extract embedded model: %w", err)
	}
	return target, nil
}

// Capacity returns the maximum number of texts per Embed call.
func (l *LocalEmbedding) Capacity() int { return localBatchMax }

// Embed runs the model over req's texts.
func (l *LocalEmbedding) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse([][]float64{}, Usage{}), nil
	}
	if len(texts) > localBatchMax {
		return EmbeddingResponse{}, fmt.Errorf("embed: %d texts exceeds capacity %d", len(texts), localBatchMax)
	}
	if err := ctx.Err(); err != nil {
		return EmbeddingResponse{}, err
	}
	if err := l.load(); err != nil {
		return EmbeddingResponse{}, NewProviderError("local_embedding", 0, "load model", err)
	}

	session.mu.Lock()
	result, err := session.pipeline.RunPipeline(texts)
	session.mu.Unlock()
	if err != nil {
		return EmbeddingResponse{}, NewProviderError("local_embedding", 0, "run pipeline", err)
	}
	if len(result.Embeddings) != len(texts) {
		return EmbeddingResponse{}, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmptyResponse, len(result.Embeddings), len(texts))
	}

	return NewEmbeddingResponse(widen(result.Embeddings), Usage{}), nil
}

func widen(vectors [][]float32) [][]float64 {
	out := make([][]float64, len(vectors))
	for i, v := range vectors {
		row := make([]float64, len(v))
		for j, x := range v {
			row[j] = float64(x)
		}
		out[i] = row
	}
	return out
}

// Close is a no-op; the session lives for the whole process.
func (l *LocalEmbedding) Close() error {
	return nil
}

var _ Embedder = (*LocalEmbedding)(nil)
