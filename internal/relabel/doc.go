// Package relabel writes externally supplied per-point labels into the
// classification field of a point cloud.
//
// A run has five stages, executed in order on a single goroutine:
//
//  1. LoadLabels reads the raw uint32 label array (one entry per point).
//  2. A TableBuilder produces the RemapTable; the default composes the
//     class definition document with the built-in Taxonomy.
//  3. RemapEngine.Apply rewrites the label array in place.
//  4. Pipeline.Run streams points from a PointSource to a PointSink,
//     filling in classification 0 with the label at the same index.
//  5. Finalize merges the sink's inventory into the header and closes it.
//
// Run wires the stages to LAS files on disk.
package relabel
