package scanlog

import "strings"

// Kind identifies which of the two record grammars a line matched.
type Kind string

const (
	KindFile  Kind = "File"
	KindShare Kind = "Share"
)

// FileMeta is the pipe-delimited metadata cluster that only File records
// carry. Share records have no equivalent, so the variant is expressed by
// Record.File being nil rather than by a cluster of empty optional fields.
type FileMeta struct {
	RuleName     string `json:"matched_rule_name"`
	Pattern      string `json:"matched_regex"`
	Size         string `json:"file_size"`
	LastModified string `json:"file_last_modified"`
}

// Record is a single extracted scan-log record. It is created once at
// extraction time and immutable thereafter. This is also the serialized
// form written to the intermediate store, one JSON document per line.
type Record struct {
	Timestamp    string    `json:"timestamp"`
	Kind         Kind      `json:"log_entry_type"`
	TriageLevel  string    `json:"triage_level"`
	ReadWrite    string    `json:"read_write"`
	Server       string    `json:"server"`
	FullPath     string    `json:"full_file_path"`
	MatchContext string    `json:"match_context"`
	File         *FileMeta `json:"file_meta,omitempty"`
}

// Entry is the flat wire representation served by the query API and mirrored
// by the CSV export columns. File-only fields are empty strings for shares.
type Entry struct {
	Timestamp        string `json:"timestamp"`
	LogEntryType     string `json:"log_entry_type"`
	TriageLevel      string `json:"triage_level"`
	MatchedRuleName  string `json:"matched_rule_name"`
	ReadWrite        string `json:"read_write"`
	MatchedRegex     string `json:"matched_regex"`
	FileSize         string `json:"file_size"`
	FileLastModified string `json:"file_last_modified"`
	Server           string `json:"server"`
	FullFilePath     string `json:"full_file_path"`
	MatchContext     string `json:"match_context"`
}

// Entry flattens the record into its wire representation.
func (r *Record) Entry() Entry {
	e := Entry{
		Timestamp:    r.Timestamp,
		LogEntryType: string(r.Kind),
		TriageLevel:  r.TriageLevel,
		ReadWrite:    r.ReadWrite,
		Server:       r.Server,
		FullFilePath: r.FullPath,
		MatchContext: r.MatchContext,
	}
	if r.File != nil {
		e.MatchedRuleName = r.File.RuleName
		e.MatchedRegex = r.File.Pattern
		e.FileSize = r.File.Size
		e.FileLastModified = r.File.LastModified
	}
	return e
}

// CSVRow returns the record as the ten export columns, in header order.
// The matched pattern text is intentionally not exported.
func (r *Record) CSVRow() []string {
	e := r.Entry()
	return []string{
		e.Timestamp,
		e.LogEntryType,
		e.TriageLevel,
		e.MatchedRuleName,
		e.ReadWrite,
		e.FileSize,
		e.FileLastModified,
		e.Server,
		e.FullFilePath,
		e.MatchContext,
	}
}

// ServerFromPath extracts the host name from a UNC-style path. A path that
// does not begin with two separators has no server component.
func ServerFromPath(path string) string {
	if !strings.HasPrefix(path, `\\`) {
		return ""
	}
	rest := path[2:]
	if i := strings.IndexByte(rest, '\\'); i >= 0 {
		return rest[:i]
	}
	return rest
}

// Truncate shortens s to max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
