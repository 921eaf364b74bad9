package dataset

import (
	"context"
	"io"
	"math/rand"
)

// LoaderConfig controls batching for BatchLoader.
type LoaderConfig struct {
	BatchSize int
	Shuffle   bool
	Seed      int64
	MaskRatio float64
	// MaxLen crops sequences longer than this many bases (0 keeps all).
	MaxLen int
	// DropLast skips a trailing partial batch.
	DropLast bool
}

// BatchLoader yields randomly masked batches drawn from a Table.  A fresh
// mask is drawn every time a record is visited.
type BatchLoader struct {
	table   *Table
	cfg     LoaderConfig
	masker  *Masker
	rng     *rand.Rand
	order   []int
	pos     int
	encoded [][2][]int
}

// NewBatchLoader encodes every record once and prepares the first epoch.
func NewBatchLoader(t *Table, cfg LoaderConfig) *BatchLoader {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	l := &BatchLoader{
		table:   t,
		cfg:     cfg,
		masker:  NewMasker(cfg.MaskRatio, cfg.Seed),
		rng:     rand.New(rand.NewSource(cfg.Seed + 1)),
		order:   make([]int, t.Len()),
		encoded: make([][2][]int, t.Len()),
	}
	for i, rec := range t.Records {
		seq := rec.Sequence
		if cfg.MaxLen > 0 && len(seq) > cfg.MaxLen {
			seq = seq[:cfg.MaxLen]
		}
		tokens, labels := Encode(seq)
		l.encoded[i] = [2][]int{tokens, labels}
	}
	l.Reset()
	return l
}

// Len returns the number of samples in the underlying table.
func (l *BatchLoader) Len() int { return l.table.Len() }

// BatchSize returns the configured batch size.
func (l *BatchLoader) BatchSize() int { return l.cfg.BatchSize }

// Reset rewinds to the start of an epoch, reshuffling if configured.
func (l *BatchLoader) Reset() {
	for i := range l.order {
		l.order[i] = i
	}
	if l.cfg.Shuffle {
		l.rng.Shuffle(len(l.order), func(i, j int) {
			l.order[i], l.order[j] = l.order[j], l.order[i]
		})
	}
	l.pos = 0
}

// Next returns the next batch, or io.EOF when the epoch is exhausted.
func (l *BatchLoader) Next(ctx context.Context) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	remaining := len(l.order) - l.pos
	if remaining <= 0 || (l.cfg.DropLast && remaining < l.cfg.BatchSize) {
		return nil, io.EOF
	}
	n := min(l.cfg.BatchSize, remaining)
	idx := l.order[l.pos : l.pos+n]
	l.pos += n

	width := 0
	for _, i := range idx {
		width = max(width, len(l.encoded[i][0]))
	}

	b := &Batch{
		Masked:        make([][]int, n),
		Species:       make([]int, n),
		TargetsMasked: make([][]int, n),
		Targets:       make([][]int, n),
		Names:         make([]string, n),
	}
	for r, i := range idx {
		rec := l.table.Records[i]
		tokens, labels := pad(l.encoded[i][0], l.encoded[i][1], width)
		masked, tm := l.masker.Mask(tokens, labels)
		sp, _ := l.table.SpeciesID(rec.Species)
		b.Masked[r] = masked
		b.TargetsMasked[r] = tm
		b.Targets[r] = labels
		b.Species[r] = sp
		b.Names[r] = rec.Name
	}
	return b, nil
}

func pad(tokens, labels []int, width int) ([]int, []int) {
	if len(tokens) == width {
		return tokens, labels
	}
	pt := make([]int, width)
	pl := make([]int, width)
	copy(pt, tokens)
	copy(pl, labels)
	for i := len(tokens); i < width; i++ {
		pt[i] = TokenN
		pl[i] = IgnoreIndex
	}
	return pt, pl
}

// EmbeddingLoader yields one item per sequence.  Each item is already
// expanded into Period rows where row r masks the positions j with
// j%Period == r, so every known base is predicted exactly once.  Species
// holds a single label for the whole item.
type EmbeddingLoader struct {
	table  *Table
	period int
	maxLen int
	pos    int
}

// NewEmbeddingLoader returns a loader over t.  period <= 0 defaults to 8.
func NewEmbeddingLoader(t *Table, period, maxLen int) *EmbeddingLoader {
	if period <= 0 {
		period = 8
	}
	return &EmbeddingLoader{table: t, period: period, maxLen: maxLen}
}

// Len returns the number of sequences.
func (l *EmbeddingLoader) Len() int { return l.table.Len() }

// BatchSize is always 1: one sequence per item.
func (l *EmbeddingLoader) BatchSize() int { return 1 }

// Reset rewinds to the first sequence.
func (l *EmbeddingLoader) Reset() { l.pos = 0 }

// Next returns the expanded rows of the next sequence, or io.EOF.
func (l *EmbeddingLoader) Next(ctx context.Context) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.pos >= l.table.Len() {
		return nil, io.EOF
	}
	rec := l.table.Records[l.pos]
	l.pos++

	seq := rec.Sequence
	if l.maxLen > 0 && len(seq) > l.maxLen {
		seq = seq[:l.maxLen]
	}
	tokens, labels := Encode(seq)
	rows := min(l.period, len(tokens))
	sp, _ := l.table.SpeciesID(rec.Species)
	b := &Batch{
		Masked:        make([][]int, rows),
		TargetsMasked: make([][]int, rows),
		Targets:       make([][]int, rows),
		Species:       []int{sp},
		Names:         []string{rec.Name},
	}
	for r := range rows {
		masked, tm := MaskPeriodic(tokens, labels, rows, r)
		b.Masked[r] = masked
		b.TargetsMasked[r] = tm
		b.Targets[r] = labels
	}
	return b, nil
}
