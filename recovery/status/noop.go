package status

import "fmt"

func sprintf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

// NoopSink discards every event. Tests that don't care about the status
// stream embed this to satisfy the Sink interface without implementing
// every method.
type NoopSink struct{}

func (NoopSink) Cleanup()                               {}
func (NoopSink) GroupInfoStart()                         {}
func (NoopSink) GroupProgress(group uint32)              {}
func (NoopSink) ScanStart()                              {}
func (NoopSink) ScanIndirect(level int, block uint32)    {}
func (NoopSink) ScanBMP(block uint32)                    {}
func (NoopSink) ScanProgress(percent int)                {}
func (NoopSink) CollectStart()                           {}
func (NoopSink) Sanity(block uint32)                     {}
func (NoopSink) Inode(inode uint32)                      {}
func (NoopSink) Populate(inode uint32)                   {}
func (NoopSink) PopulateDirect(first, last uint32)       {}
func (NoopSink) PopulateIndirect(level int, block uint32) {}
func (NoopSink) Link(inode uint32)                       {}
func (NoopSink) Recovered(name string)                   {}
func (NoopSink) Done()                                   {}
func (NoopSink) Error(format string, args ...any)        {}
func (NoopSink) Warn(format string, args ...any)         {}

// RecordingSink collects the scan candidates, recoveries, warnings and
// errors it receives, for assertions in tests about what the engine
// published (spec §8 property 5, classifier determinism). Every other event
// is discarded.
type RecordingSink struct {
	NoopSink
	Recoveries []string
	Warnings   []string
	Errors     []string
	BMPStarts  []uint32
	Indirects  map[int][]uint32
}

// NewRecordingSink builds an empty RecordingSink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{Indirects: map[int][]uint32{1: nil, 2: nil, 3: nil}}
}

func (s *RecordingSink) ScanBMP(block uint32) {
	s.BMPStarts = append(s.BMPStarts, block)
}

func (s *RecordingSink) ScanIndirect(level int, block uint32) {
	s.Indirects[level] = append(s.Indirects[level], block)
}

func (s *RecordingSink) Recovered(name string) {
	s.Recoveries = append(s.Recoveries, name)
}

func (s *RecordingSink) Warn(format string, args ...any) {
	s.Warnings = append(s.Warnings, sprintf(format, args...))
}

func (s *RecordingSink) Error(format string, args ...any) {
	s.Errors = append(s.Errors, sprintf(format, args...))
}
