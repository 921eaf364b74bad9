package dataset

// Batch is one step of input for the model.  All row slices share the same
// length B; within a batch every row has the same length L.
type Batch struct {
	// Masked holds input tokens with masked positions replaced.
	Masked [][]int
	// Species holds one species index per row.  Loaders in embedding mode
	// may return a single label for the whole sequence.
	Species []int
	// TargetsMasked carries the true label at masked positions and
	// IgnoreIndex everywhere else.
	TargetsMasked [][]int
	// Targets carries the true label at every known position.
	Targets [][]int
	// Names are the source sequence names, one per row or one per sequence.
	Names []string
}

// Rows returns the number of rows in the batch.
func (b *Batch) Rows() int { return len(b.Masked) }
