package persistence

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/aar-healthcare/medbot/domain/knowledge"
)

// Knowledge file names inside the knowledge directory.
const (
	KnowledgeTextsFile      = "knowledge_texts.json"
	KnowledgeEmbeddingsFile = "knowledge_embeddings.bin"
)

// The embedding matrix is a fixed header followed by rows*cols
// little-endian float32 values in row-major order.
var matrixMagic = [4]byte{'M', 'B', 'K', 'E'}

const matrixVersion uint32 = 1

type matrixHeader struct {
	Magic   [4]byte
	Version uint32
	Rows    uint32
	Cols    uint32
}

// KnowledgeFileStore implements knowledge.Store with two files in a
// directory: a JSON array of texts and a binary embedding matrix.
type KnowledgeFileStore struct {
	dir string
}

// NewKnowledgeFileStore creates a store rooted at dir.
func NewKnowledgeFileStore(dir string) KnowledgeFileStore {
	return KnowledgeFileStore{dir: dir}
}

// Dir returns the knowledge directory.
func (s KnowledgeFileStore) Dir() string { return s.dir }

// Load reads both files. It returns knowledge.ErrNotFound when either is
// missing.
func (s KnowledgeFileStore) Load(ctx context.Context) (knowledge.Base, error) {
	if err := ctx.Err(); err != nil {
		return knowledge.Base{}, err
	}

	textData, err := os.ReadFile(filepath.Join(s.dir, KnowledgeTextsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return knowledge.Base{}, knowledge.ErrNotFound
	}
	if err != nil {
		return knowledge.Base{}, fmt.Errorf("read knowledge texts: %w", err)
	}

	var texts []string
	if err := json.Unmarshal(textData, &texts); err != nil {
		return knowledge.Base{}, fmt.Errorf("decode knowledge texts: %w", err)
	}

	f, err := os.Open(filepath.Join(s.dir, KnowledgeEmbeddingsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return knowledge.Base{}, knowledge.ErrNotFound
	}
	if err != nil {
		return knowledge.Base{}, fmt.Errorf("open knowledge embeddings: %w", err)
	}
	defer func() { _ = f.Close() }()

	embeddings, err := readMatrix(bufio.NewReader(f))
	if err != nil {
		return knowledge.Base{}, fmt.Errorf("read knowledge embeddings: %w", err)
	}

	return knowledge.NewBase(texts, embeddings)
}

// Save writes the embedding matrix, then the texts. Each file is replaced
// atomically.
func (s KnowledgeFileStore) Save(ctx context.Context, base knowledge.Base) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create knowledge directory: %w", err)
	}

	var matrix bytes.Buffer
	if err := writeMatrix(&matrix, base.Embeddings()); err != nil {
		return fmt.Errorf("encode knowledge embeddings: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.dir, KnowledgeEmbeddingsFile), matrix.Bytes()); err != nil {
		return fmt.Errorf("write knowledge embeddings: %w", err)
	}

	texts, err := json.MarshalIndent(base.Texts(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode knowledge texts: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.dir, KnowledgeTextsFile), texts); err != nil {
		return fmt.Errorf("write knowledge texts: %w", err)
	}
	return nil
}

func writeMatrix(w io.Writer, rows [][]float64) error {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	header := matrixHeader{
		Magic:   matrixMagic,
		Version: matrixVersion,
		Rows:    uint32(len(rows)),
		Cols:    uint32(cols),
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}

	buf := make([]byte, 4*cols)
	for i, row := range rows {
		if len(row) != cols {
			return fmt.Errorf("row %d has %d columns, want %d", i, len(row), cols)
		}
		for j, v := range row {
			binary.LittleEndian.PutUint32(buf[4*j:], math.Float32bits(float32(v)))
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func readMatrix(r io.Reader) ([][]float64, error) {
	var header matrixHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header.Magic != matrixMagic {
		return nil, fmt.Errorf("not an embedding matrix")
	}
	if header.Version != matrixVersion {
		return nil, fmt.Errorf("unsupported matrix version %d", header.Version)
	}

	rows := make([][]float64, header.Rows)
	buf := make([]byte, 4*header.Cols)
	for i := range rows {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("read row %d: %w", i, err)
		}
		row := make([]float64, header.Cols)
		for j := range row {
			row[j] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[4*j:])))
		}
		rows[i] = row
	}
	return rows, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(tmp.Name())
		return errors.Join(werr, cerr)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

var _ knowledge.Store = KnowledgeFileStore{}
