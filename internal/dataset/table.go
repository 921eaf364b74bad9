package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

var (
	ErrMissingColumn  = errors.New("dataset: missing column")
	ErrUnknownSpecies = errors.New("dataset: unknown species")
	ErrEmptySequence  = errors.New("dataset: empty sequence")
)

// Record is one row of a sequence table.
type Record struct {
	Name     string
	Species  string
	Sequence string
}

// Table is an in-memory sequence table with a species vocabulary.
type Table struct {
	Records []Record
	species []string
	index   map[string]int
}

// LoadTable reads a tab-separated sequence table from path.
func LoadTable(path string, species []string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ReadTable(f, species)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ReadTable parses a tab-separated table with the columns seq_name, species
// and sequence (any order, extra columns ignored).  When species is empty
// the vocabulary is the sorted set of species names found in the table;
// otherwise every row must use a listed species.
func ReadTable(r io.Reader, species []string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty table", ErrMissingColumn)
		}
		return nil, err
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.TrimSpace(strings.ToLower(h))] = i
	}
	nameCol, ok1 := cols["seq_name"]
	speciesCol, ok2 := cols["species"]
	seqCol, ok3 := cols["sequence"]
	switch {
	case !ok1:
		return nil, fmt.Errorf("%w: seq_name", ErrMissingColumn)
	case !ok2:
		return nil, fmt.Errorf("%w: species", ErrMissingColumn)
	case !ok3:
		return nil, fmt.Errorf("%w: sequence", ErrMissingColumn)
	}
	need := max(nameCol, speciesCol, seqCol)

	t := &Table{}
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(rec) <= need {
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, need+1, len(rec))
		}
		seq := strings.TrimSpace(rec[seqCol])
		if seq == "" {
			return nil, fmt.Errorf("line %d: %w", line, ErrEmptySequence)
		}
		t.Records = append(t.Records, Record{
			Name:     strings.TrimSpace(rec[nameCol]),
			Species:  strings.TrimSpace(rec[speciesCol]),
			Sequence: seq,
		})
	}

	if len(species) == 0 {
		for _, rec := range t.Records {
			species = append(species, rec.Species)
		}
		slices.Sort(species)
		species = slices.Compact(species)
	}
	t.setSpecies(species)
	for i, rec := range t.Records {
		if _, ok := t.index[rec.Species]; !ok {
			return nil, fmt.Errorf("record %d (%s): %w %q", i, rec.Name, ErrUnknownSpecies, rec.Species)
		}
	}
	return t, nil
}

func (t *Table) setSpecies(species []string) {
	t.species = slices.Clone(species)
	t.index = make(map[string]int, len(species))
	for i, s := range species {
		t.index[s] = i
	}
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.Records) }

// Species returns the species vocabulary in index order.
func (t *Table) Species() []string { return slices.Clone(t.species) }

// SpeciesID returns the index of a species name.
func (t *Table) SpeciesID(name string) (int, bool) {
	id, ok := t.index[name]
	return id, ok
}
