// Package las reads and writes uncompressed ASPRS LAS point clouds.
//
// Only the parts of the container that a streaming relabel pass needs are
// decoded: the public header block, the raw point records, and the fields
// that the writer recomputes from its inventory (point counts, per-return
// counts, extent). Everything else in the header and the VLR block is
// carried through byte for byte.
/*
FILE STRUCTURE:
├── Public header block (227 bytes for 1.0-1.2, 235 for 1.3, 375 for 1.4)
├── Variable length records (up to OffsetToPointData)
├── Point records (PointRecordLength bytes each, PointCount records)
└── Extended VLRs (1.4 only, ignored on read and dropped on write)

POINT RECORD LAYOUT (little-endian):
├── Formats 0-5 (legacy)
│   ├── X, Y, Z int32 at 0, 4, 8
│   ├── Intensity uint16 at 12
│   ├── Return byte at 14 (return number bits 0-2)
│   └── Classification byte at 15 (class bits 0-4, flags bits 5-7)
└── Formats 6-10 (extended)
    ├── X, Y, Z int32 at 0, 4, 8
    ├── Intensity uint16 at 12
    ├── Return byte at 14 (return number bits 0-3)
    └── Classification byte at 16 (full 0-255)

LAZ (compressed) files set bit 7 of the point format id and are rejected.
*/
package las
