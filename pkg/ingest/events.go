package ingest

// Event is one frame of the ingest event stream. Exactly one terminal event
// (Summary or Failure) ends every stream.
type Event interface {
	event()
}

// Progress reports integer-percent advancement through the source. It is
// emitted only when the percentage increases, which bounds event volume on
// very large files.
type Progress struct {
	Progress int `json:"progress"`
	Entries  int `json:"entries"`
	Lines    int `json:"lines"`
}

// Summary is the terminal event of a successful ingest.
type Summary struct {
	Done         bool           `json:"done"`
	TotalEntries int            `json:"total_entries"`
	TriageLevels []string       `json:"triage_levels"`
	TriageCounts map[string]int `json:"triage_counts"`
}

// Failure is the terminal event of a failed ingest. The partial store
// contents are left in place; callers must clear before retrying.
type Failure struct {
	Error string `json:"error"`
}

func (Progress) event() {}
func (Summary) event()  {}
func (Failure) event()  {}
