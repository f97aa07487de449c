package scanlog

import (
	"regexp"
	"strings"
)

// Both grammars share the prefix: bracketed host (ignored), timestamp,
// bracketed entry kind, braced triage level.
//
// File lines embed a pipe-delimited metadata cluster whose pattern field may
// itself contain '>', so metadata is matched greedily up to the last ">("
// pair. The path cannot contain ')', which terminates it.
var filePattern = regexp.MustCompile(
	`^\[[^\]]+\]\s+` +
		`(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}Z?)\s+` +
		`\[(\w+)\]\s+` +
		`\{(\w+)\}` +
		`<(.+)>\(` +
		`([^)]+)\)\s*` +
		`(.*)$`)

// Share lines are simpler: the share path runs to the first '>' and the
// access mode sits in parentheses.
var sharePattern = regexp.MustCompile(
	`^\[[^\]]+\]\s+` +
		`(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}Z?)\s+` +
		`\[(\w+)\]\s+` +
		`\{(\w+)\}` +
		`<([^>]+)>` +
		`\(([^)]+)\)\s*` +
		`(.*)$`)

// Extract applies the grammar for the classified kind. It returns nil when
// the line carries a kind marker but fails the full structural grammar, for
// example a line truncated mid-write. Malformed input never produces an
// error, only a dropped line.
func Extract(class Class, line string) *Record {
	line = strings.TrimSpace(line)
	switch class {
	case ClassFile:
		return extractFile(line)
	case ClassShare:
		return extractShare(line)
	}
	return nil
}

func extractFile(line string) *Record {
	m := filePattern.FindStringSubmatch(line)
	if m == nil || m[2] != string(KindFile) {
		return nil
	}
	rule, readWrite, pattern, size, modified := splitMetadata(m[4])
	path := m[5]
	return &Record{
		Timestamp:    m[1],
		Kind:         KindFile,
		TriageLevel:  m[3],
		ReadWrite:    readWrite,
		Server:       ServerFromPath(path),
		FullPath:     path,
		MatchContext: strings.TrimSpace(m[6]),
		File: &FileMeta{
			RuleName:     rule,
			Pattern:      pattern,
			Size:         size,
			LastModified: modified,
		},
	}
}

func extractShare(line string) *Record {
	m := sharePattern.FindStringSubmatch(line)
	if m == nil || m[2] != string(KindShare) {
		return nil
	}
	path := m[4]
	return &Record{
		Timestamp:    m[1],
		Kind:         KindShare,
		TriageLevel:  m[3],
		ReadWrite:    m[5],
		Server:       ServerFromPath(path),
		FullPath:     path,
		MatchContext: strings.TrimSpace(m[6]),
	}
}

// splitMetadata resolves the pipe-delimited File metadata. The pattern field
// is the only one permitted to contain '|', so with five or more tokens the
// first two are rule name and access mode, the last two are size and last
// modified, and everything between is rejoined as the pattern. Fewer tokens
// degrade gracefully rather than rejecting the line.
func splitMetadata(meta string) (rule, readWrite, pattern, size, modified string) {
	parts := strings.Split(meta, "|")
	switch {
	case len(parts) >= 5:
		return parts[0], parts[1],
			strings.Join(parts[2:len(parts)-2], "|"),
			parts[len(parts)-2], parts[len(parts)-1]
	case len(parts) >= 2:
		return parts[0], parts[1], "", "", ""
	default:
		return meta, "", "", "", ""
	}
}
