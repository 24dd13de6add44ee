// Package recovery implements the repair engine: given exclusive access to
// a live ext-family block device, it locates data blocks that look like
// orphaned BMP files and reconstructs an inode and root directory entry for
// each one, in place, without a second pass of the filesystem's own
// allocator.
package recovery

import (
	stderrors "errors"

	"github.com/dargueta/bmprecover/recovery/errors"
	"github.com/dargueta/bmprecover/recovery/status"
)

// state is the engine's position in its Uninitialized -> Ready -> Scanned ->
// Collected lifecycle (spec §5). Close is valid from any state.
type state int

const (
	stateUninitialized state = iota
	stateReady
	stateScanned
	stateCollected
)

// Recovery drives one run of the recovery process against a single device.
// It replaces the reference tool's global init/scan/collect functions
// operating on process-wide state (original_source/final/recover.c) with a
// single value a caller can hold, test against an in-memory image, and
// guarantee gets torn down, mirroring the scoped-resource style of the
// teacher's driver.Driver implementations. It owns the device
// mapping and group cache for the duration of a Scan/Collect run.
type Recovery struct {
	state      state
	sink       status.Sink
	dev        *DeviceView
	cache      *GroupCache
	candidates *Candidates
}

// Init opens and memory-maps the device at path and builds its group cache
// (spec §4.1, §4.2). The caller must call Close exactly once, regardless of
// whether Scan or Collect ever run.
func Init(path string, sink status.Sink) (*Recovery, error) {
	dev, err := OpenDevice(path)
	if err != nil {
		return nil, err
	}

	cache, err := buildGroupCache(dev, sink)
	if err != nil {
		dev.Close()
		return nil, err
	}

	return &Recovery{state: stateReady, sink: sink, dev: dev, cache: cache}, nil
}

// Scan classifies every free block on the device into the BMP-start and
// indirect-block candidate lists (spec §4.3). It's only valid from the
// Ready state and advances the engine to Scanned.
//
// Finding zero BMP starts is fatal (spec §4.6: Ready ->(scan, 0 BMP)->
// Uninitialized): the engine tears itself down, same as Close, and reverts
// to stateUninitialized so a caller can't go on to Collect against a
// device nothing was ever found on.
func (r *Recovery) Scan() (*Candidates, error) {
	if r.state != stateReady {
		return nil, errors.ErrAllocFailure.WithMessage("Scan called outside the Ready state")
	}

	candidates, err := Scan(r.dev, r.cache, r.sink)
	if err != nil {
		if stderrors.Is(err, errors.ErrNoBmpStarts) {
			r.Close()
		}
		return nil, err
	}
	r.candidates = candidates
	r.state = stateScanned
	return candidates, nil
}

// Collect reserves inodes and links a root directory entry for every
// BMP-start candidate that survives its checks (spec §4.4). It's only valid
// from the Scanned state and advances the engine to Collected.
//
// priorityInodes is tried, in order, before falling back to a linear scan;
// pass nil to use DefaultPriorityInodes.
func (r *Recovery) Collect(priorityInodes []uint32) ([]Result, error) {
	if r.state != stateScanned {
		return nil, errors.ErrAllocFailure.WithMessage("Collect called outside the Scanned state")
	}
	if priorityInodes == nil {
		priorityInodes = DefaultPriorityInodes
	}

	results, err := Collect(r.dev, r.cache, r.candidates, r.sink, priorityInodes)
	if err != nil {
		return nil, err
	}
	r.state = stateCollected
	return results, nil
}

// Close releases the device mapping. It's idempotent and safe to call from
// any state, including before Init's DeviceView was ever assigned (spec
// §4.1, §7): a caller that defers Close immediately after a successful Init
// always tears down cleanly, no matter where a later step fails.
func (r *Recovery) Close() error {
	if r == nil {
		return nil
	}
	err := r.dev.Close()
	r.state = stateUninitialized
	if r.sink != nil {
		r.sink.Cleanup()
	}
	return err
}
