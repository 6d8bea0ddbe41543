package telemetry

import "sync"

// Report is a single call recorded by Recorder.
type Report struct {
	ID     string
	Params []any
	Count  int64
}

// Recorder is an API that keeps every report in memory, it is meant to be used in tests
// to assert on what a component reported.
type Recorder struct {
	mu      sync.Mutex
	Broken  []Report
	Warning []Report
	Debug   []Report
	Counts  []Report
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Broken = append(r.Broken, Report{ID: id, Params: params})
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warning = append(r.Warning, Report{ID: id, Params: params})
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Debug = append(r.Debug, Report{ID: msg, Params: params})
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Counts = append(r.Counts, Report{ID: id, Count: count})
}

// BrokenIDs returns the ids of every ReportBroken call in order.
func (r *Recorder) BrokenIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, len(r.Broken))
	for i, b := range r.Broken {
		ids[i] = b.ID
	}
	return ids
}

// LastCount returns the most recent count reported for id.
func (r *Recorder) LastCount(id string) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.Counts) - 1; i >= 0; i-- {
		if r.Counts[i].ID == id {
			return r.Counts[i].Count, true
		}
	}
	return 0, false
}
