package dataset

import "math/rand"

// Masker applies BERT-style masking: each known position is selected with
// probability Ratio; selected positions are replaced by TokenMask (80%), a
// random base (10%) or left unchanged (10%).
type Masker struct {
	Ratio float64
	rng   *rand.Rand
}

// NewMasker returns a masker with a deterministic random source.
func NewMasker(ratio float64, seed int64) *Masker {
	if ratio <= 0 || ratio > 1 {
		ratio = 0.15
	}
	return &Masker{Ratio: ratio, rng: rand.New(rand.NewSource(seed))}
}

// Mask returns the masked input and masked targets for one encoded row.
// At least one known position is masked whenever the row has one.
func (m *Masker) Mask(tokens, labels []int) (masked, targetsMasked []int) {
	masked = make([]int, len(tokens))
	copy(masked, tokens)
	targetsMasked = make([]int, len(labels))
	var known []int
	picked := 0
	for i, lbl := range labels {
		targetsMasked[i] = IgnoreIndex
		if lbl == IgnoreIndex {
			continue
		}
		known = append(known, i)
		if m.rng.Float64() < m.Ratio {
			m.maskAt(masked, targetsMasked, labels, i)
			picked++
		}
	}
	if picked == 0 && len(known) > 0 {
		m.maskAt(masked, targetsMasked, labels, known[m.rng.Intn(len(known))])
	}
	return masked, targetsMasked
}

func (m *Masker) maskAt(masked, targetsMasked, labels []int, i int) {
	targetsMasked[i] = labels[i]
	switch r := m.rng.Float64(); {
	case r < 0.8:
		masked[i] = TokenMask
	case r < 0.9:
		masked[i] = m.rng.Intn(NumClasses)
	}
}

// MaskPeriodic masks every known position j with j%period == offset,
// replacing it with TokenMask.
func MaskPeriodic(tokens, labels []int, period, offset int) (masked, targetsMasked []int) {
	masked = make([]int, len(tokens))
	copy(masked, tokens)
	targetsMasked = make([]int, len(labels))
	for i, lbl := range labels {
		targetsMasked[i] = IgnoreIndex
		if lbl == IgnoreIndex || i%period != offset {
			continue
		}
		targetsMasked[i] = lbl
		masked[i] = TokenMask
	}
	return masked, targetsMasked
}
