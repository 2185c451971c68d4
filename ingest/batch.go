package ingest

// Accumulator collects normalized records into the current batch window and
// reports when a flush threshold is crossed. Owned by the pipeline's control
// goroutine; not safe for concurrent use.
type Accumulator struct {
	countLimit int
	sizeLimit  int64 // bytes

	records []Record
	bytes   int64
}

// NewAccumulator creates an accumulator with fixed flush thresholds.
func NewAccumulator(countLimit int, sizeLimitBytes int64) *Accumulator {
	return &Accumulator{
		countLimit: countLimit,
		sizeLimit:  sizeLimitBytes,
	}
}

// Offer appends a record to the current window and reports whether either
// threshold (count or cumulative payload bytes) is now crossed. A record is
// never split across windows.
func (a *Accumulator) Offer(r Record) bool {
	a.records = append(a.records, r)
	a.bytes += int64(len(r.Payload))

	return len(a.records) >= a.countLimit || a.bytes >= a.sizeLimit
}

// Drain returns the current window's contents and resets the window.
func (a *Accumulator) Drain() []Record {
	drained := a.records
	a.records = nil
	a.bytes = 0
	return drained
}

// Len returns the number of buffered records.
func (a *Accumulator) Len() int {
	return len(a.records)
}

// Bytes returns the cumulative payload size of the buffered records.
func (a *Accumulator) Bytes() int64 {
	return a.bytes
}
