package relabel

import (
	"fmt"
	"sort"
)

// IDENTITY_TABLE_SIZE covers every value a one-byte classification can hold.
const IDENTITY_TABLE_SIZE = 256

// RemapTable maps a raw label to its target code. Raw labels without an
// entry are unmapped.
type RemapTable map[uint32]uint32

// Lookup returns the code for raw and whether raw is mapped.
func (t RemapTable) Lookup(raw uint32) (uint32, bool) {
	code, ok := t[raw]
	return code, ok
}

// TableBuilder constructs a RemapTable. Implementations are selected by the
// remap_strategy setting.
type TableBuilder interface {
	Build() (RemapTable, error)
}

// IdentityTableBuilder maps 0..IDENTITY_TABLE_SIZE-1 to themselves.
type IdentityTableBuilder struct{}

// Build returns the identity table.
func (IdentityTableBuilder) Build() (RemapTable, error) {
	table := make(RemapTable, IDENTITY_TABLE_SIZE)
	for i := uint32(0); i < IDENTITY_TABLE_SIZE; i++ {
		table[i] = i
	}
	return table, nil
}

// ArrayTableBuilder maps raw id i to Codes[i].
type ArrayTableBuilder struct {
	Codes []uint32
}

// Build returns a table with one entry per array element.
func (b ArrayTableBuilder) Build() (RemapTable, error) {
	if len(b.Codes) == 0 {
		return nil, fmt.Errorf("%w: empty remap array", ErrConfig)
	}
	table := make(RemapTable, len(b.Codes))
	for i, code := range b.Codes {
		table[uint32(i)] = code
	}
	return table, nil
}

// UnmappedPolicy decides what happens to a raw label with no table entry.
type UnmappedPolicy int

const (
	// UnmappedZero substitutes 0 (unlabeled) and logs the raw value.
	UnmappedZero UnmappedPolicy = iota
	// UnmappedFail stops at the first unmapped label.
	UnmappedFail
)

// RemapStats summarises one RemapEngine.Apply.
type RemapStats struct {
	Mapped   int64
	Unmapped int64
	// UnmappedValues counts occurrences per distinct unmapped raw label.
	UnmappedValues map[uint32]int64
}

// UnmappedSorted returns the distinct unmapped raw labels in ascending order.
func (s RemapStats) UnmappedSorted() []uint32 {
	vals := make([]uint32, 0, len(s.UnmappedValues))
	for v := range s.UnmappedValues {
		vals = append(vals, v)
	}
	sort.Slice(vals, func(i, j int) bool { return vals[i] < vals[j] })
	return vals
}

// RemapEngine applies a RemapTable to a label array.
type RemapEngine struct {
	Table  RemapTable
	Policy UnmappedPolicy
}

// Remap returns the target code of raw, or 0 and false if raw is unmapped.
// It has no side effects.
func (e *RemapEngine) Remap(raw uint32) (uint32, bool) {
	if code, ok := e.Table.Lookup(raw); ok {
		return code, true
	}
	return 0, false
}

// Apply rewrites labels in place. Under UnmappedZero every unmapped label
// becomes 0 and each distinct raw value is reported once on the ops stream;
// under UnmappedFail the first unmapped label returns ErrUnmappedLabel and
// labels is left partially rewritten.
func (e *RemapEngine) Apply(labels []uint32) (RemapStats, error) {
	stats := RemapStats{UnmappedValues: make(map[uint32]int64)}
	for i, raw := range labels {
		code, ok := e.Remap(raw)
		if ok {
			labels[i] = code
			stats.Mapped++
			continue
		}
		if e.Policy == UnmappedFail {
			return stats, fmt.Errorf("%w: label %d at index %d not found in remap", ErrUnmappedLabel, raw, i)
		}
		if stats.UnmappedValues[raw] == 0 {
			opsf("Label %d not found in remap; using 0", raw)
		}
		tracef("label %d at index %d not found in remap", raw, i)
		stats.UnmappedValues[raw]++
		stats.Unmapped++
		labels[i] = 0
	}
	if stats.Unmapped > 0 {
		opsf("%d labels (%d distinct values) were not found in remap and set to 0",
			stats.Unmapped, len(stats.UnmappedValues))
	}
	return stats, nil
}
