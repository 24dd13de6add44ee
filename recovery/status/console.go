package status

import (
	"fmt"
	"io"
)

// ConsoleSink formats every event as a single line of text, written to Out
// (or Err for Error/Warn). It's the sink cmd/bmprecover uses by default,
// grounded on the teacher's cmd/main.go approach of reporting problems with
// plain Fprintf calls rather than a structured logging library.
type ConsoleSink struct {
	Out io.Writer
	Err io.Writer
}

// NewConsoleSink builds a ConsoleSink writing to the given streams.
func NewConsoleSink(out, err io.Writer) *ConsoleSink {
	return &ConsoleSink{Out: out, Err: err}
}

func (s *ConsoleSink) Cleanup() {
	fmt.Fprintln(s.Out, "cleanup: device released")
}

func (s *ConsoleSink) GroupInfoStart() {
	fmt.Fprintln(s.Out, "building group cache...")
}

func (s *ConsoleSink) GroupProgress(group uint32) {
	fmt.Fprintf(s.Out, "  group %d mapped\n", group)
}

func (s *ConsoleSink) ScanStart() {
	fmt.Fprintln(s.Out, "scanning free blocks...")
}

func (s *ConsoleSink) ScanIndirect(level int, block uint32) {
	fmt.Fprintf(s.Out, "  block %d: candidate %dx indirect\n", block, level)
}

func (s *ConsoleSink) ScanBMP(block uint32) {
	fmt.Fprintf(s.Out, "  block %d: candidate BMP header\n", block)
}

func (s *ConsoleSink) ScanProgress(percent int) {
	fmt.Fprintf(s.Out, "  scan %d%%\n", percent)
}

func (s *ConsoleSink) CollectStart() {
	fmt.Fprintln(s.Out, "collecting recoverable files...")
}

func (s *ConsoleSink) Sanity(block uint32) {
	fmt.Fprintf(s.Out, "  sanity check: block %d\n", block)
}

func (s *ConsoleSink) Inode(inode uint32) {
	fmt.Fprintf(s.Out, "  reserved inode %d\n", inode)
}

func (s *ConsoleSink) Populate(inode uint32) {
	fmt.Fprintf(s.Out, "  populating inode %d\n", inode)
}

func (s *ConsoleSink) PopulateDirect(firstDirect, lastDirect uint32) {
	fmt.Fprintf(s.Out, "    direct blocks %d..%d\n", firstDirect, lastDirect)
}

func (s *ConsoleSink) PopulateIndirect(level int, block uint32) {
	fmt.Fprintf(s.Out, "    %dx indirect block %d\n", level, block)
}

func (s *ConsoleSink) Link(inode uint32) {
	fmt.Fprintf(s.Out, "  linking inode %d into root directory\n", inode)
}

func (s *ConsoleSink) Recovered(name string) {
	fmt.Fprintf(s.Out, "recovered %s\n", name)
}

func (s *ConsoleSink) Done() {
	fmt.Fprintln(s.Out, "done")
}

func (s *ConsoleSink) Error(format string, args ...any) {
	fmt.Fprintf(s.Err, "error: "+format+"\n", args...)
}

func (s *ConsoleSink) Warn(format string, args ...any) {
	fmt.Fprintf(s.Err, "warning: "+format+"\n", args...)
}
