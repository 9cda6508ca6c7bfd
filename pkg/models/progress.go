package models

import "sync/atomic"

// ScanProgress counts entries for progress reporting.
//
// TotalFound is "discovered so far": a subdirectory's entries are only added
// once it is listed, which happens after the directory entry itself has been
// counted as processed. Processed may therefore briefly catch up with or
// overtake the total a reader would expect.
type ScanProgress struct {
	TotalFound atomic.Int64
	Processed  atomic.Int64
}

// Discover adds n newly listed entries to the total
func (p *ScanProgress) Discover(n int) {
	p.TotalFound.Add(int64(n))
}

// Advance marks one entry as finished and returns the new counters
func (p *ScanProgress) Advance() (processed, total int64) {
	processed = p.Processed.Add(1)
	return processed, p.TotalFound.Load()
}

// Snapshot returns both counters
func (p *ScanProgress) Snapshot() (processed, total int64) {
	return p.Processed.Load(), p.TotalFound.Load()
}
