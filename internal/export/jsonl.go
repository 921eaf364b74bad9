// Package export writes per-sequence embeddings and log-probabilities as
// JSON Lines.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/samcharles93/helix/internal/trainer"
)

// Record is one exported line.
type Record struct {
	Name      string   `json:"seq_name"`
	Embedding floats32 `json:"embedding"`
	LogProbs  floats64 `json:"logprobs"`
}

// floats64 encodes non-finite values as null.
type floats64 []float64

func (f floats64) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	b := make([]byte, 0, 2+len(f)*12)
	b = append(b, '[')
	for i, v := range f {
		if i > 0 {
			b = append(b, ',')
		}
		b = appendFloat(b, v, 64)
	}
	return append(b, ']'), nil
}

type floats32 []float32

func (f floats32) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	b := make([]byte, 0, 2+len(f)*10)
	b = append(b, '[')
	for i, v := range f {
		if i > 0 {
			b = append(b, ',')
		}
		b = appendFloat(b, float64(v), 32)
	}
	return append(b, ']'), nil
}

func appendFloat(b []byte, v float64, bits int) []byte {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return append(b, "null"...)
	}
	return strconv.AppendFloat(b, v, 'g', -1, bits)
}

// Writer streams Records, one JSON object per line.
type Writer struct {
	bw *bufio.Writer
	n  int
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// Write appends one sequence.
func (w *Writer) Write(e trainer.SequenceEmbedding) error {
	b, err := json.Marshal(Record{
		Name:      e.Name,
		Embedding: e.Embedding,
		LogProbs:  e.LogProbs,
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.Name, err)
	}
	if _, err := w.bw.Write(b); err != nil {
		return err
	}
	w.n++
	return w.bw.WriteByte('\n')
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	return w.n
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

// WriteFile writes every embedding to path and returns the number of
// records written. The file is written to a temporary sibling and renamed
// into place.
func WriteFile(path string, embs []trainer.SequenceEmbedding) (int, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := NewWriter(tmp)
	for _, e := range embs {
		if err := w.Write(e); err != nil {
			_ = tmp.Close()
			return 0, err
		}
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, err
	}
	return w.Count(), nil
}

// Read decodes every record from r.
func Read(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	var out []Record
	for {
		var raw struct {
			Name      string     `json:"seq_name"`
			Embedding []*float64 `json:"embedding"`
			LogProbs  []*float64 `json:"logprobs"`
		}
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("record %d: %w", len(out)+1, err)
		}
		rec := Record{Name: raw.Name}
		if raw.Embedding != nil {
			rec.Embedding = make(floats32, len(raw.Embedding))
			for i, v := range raw.Embedding {
				rec.Embedding[i] = float32(orNaN(v))
			}
		}
		if raw.LogProbs != nil {
			rec.LogProbs = make(floats64, len(raw.LogProbs))
			for i, v := range raw.LogProbs {
				rec.LogProbs[i] = orNaN(v)
			}
		}
		out = append(out, rec)
	}
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
