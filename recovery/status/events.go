// Package status defines the closed set of typed progress/outcome events
// the recovery engine publishes (spec §4.5) and the Sink interface that
// receives them. The engine never assumes anything about a sink's side
// effects and never reads back from it; this mirrors the way the teacher's
// disko.FileSystemImplementer in api.go is the sole contract between the
// generic driver and a concrete filesystem implementation.
//
// This replaces the reference tool's variadic status(level, fmt, ...)
// callback (original_source/final/recover.h) with one method per event
// variant, each carrying its own typed payload, per spec §9's design note.
package status

// Sink receives every event the recovery engine publishes. Implementations
// must not re-enter the engine from within a Sink method (spec §5).
type Sink interface {
	// Cleanup is published once teardown has released the device.
	Cleanup()

	// GroupInfoStart is published before the group cache begins building.
	GroupInfoStart()
	// GroupProgress reports that group g's descriptor and bitmaps have been
	// located.
	GroupProgress(group uint32)

	// ScanStart is published before the classifier begins its pass.
	ScanStart()
	// ScanIndirect reports a block classified as an N-level indirect block,
	// where level is 1, 2, or 3.
	ScanIndirect(level int, block uint32)
	// ScanBMP reports a block classified as a candidate BMP header.
	ScanBMP(block uint32)
	// ScanProgress reports the percentage of blocks scanned so far.
	ScanProgress(percent int)

	// CollectStart is published before the assembler begins processing
	// candidates.
	CollectStart()
	// Sanity reports that the pre-reservation sanity check is being run
	// against candidate block bnum.
	Sanity(block uint32)
	// Inode reports that inode inum was reserved for the candidate
	// currently being assembled.
	Inode(inode uint32)
	// Populate reports that inode inum is about to be populated.
	Populate(inode uint32)
	// PopulateDirect reports the inclusive range of direct blocks written
	// into an inode: [firstDirect, lastDirect].
	PopulateDirect(firstDirect, lastDirect uint32)
	// PopulateIndirect reports that indirect block bnum was written into
	// level L's pointer slot.
	PopulateIndirect(level int, block uint32)
	// Link reports that inode inum is about to be linked into the root
	// directory.
	Link(inode uint32)
	// Recovered reports that name was successfully linked into the root
	// directory.
	Recovered(name string)

	// Done is published at the end of each of the init/scan/collect phases.
	Done()

	// Error reports a fatal condition. The recovery engine does not publish
	// this event: Init, Scan and Collect return their fatal errors to the
	// caller without calling Error.
	Error(format string, args ...any)
	// Warn reports a recoverable condition; the current candidate is
	// skipped and the engine continues.
	Warn(format string, args ...any)
}
