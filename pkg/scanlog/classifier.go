package scanlog

import "strings"

// Class is the classifier verdict for a single raw line.
type Class int

const (
	// ClassIgnore marks blank lines, informational entries and known
	// status banners. These are expected non-record content.
	ClassIgnore Class = iota
	// ClassFile marks lines carrying the File entry-kind marker.
	ClassFile
	// ClassShare marks lines carrying the Share entry-kind marker.
	ClassShare
	// ClassUnrecognized marks lines matching no known marker. Snaffler
	// output is not guaranteed to be fully structured, so these are
	// dropped rather than treated as errors.
	ClassUnrecognized
)

const (
	infoMarker  = "[Info]"
	shareMarker = "[Share]"
	fileMarker  = "[File]"
)

// statusBanners are the known non-record status fragments Snaffler
// interleaves with record lines: worker-pool task counters, memory notices,
// pool-size notices and run-status phrases. The exact text is an upstream
// contract; keep the full set in this one list.
var statusBanners = []string{
	"ShareFinder Tasks",
	"TreeWalker Tasks",
	"FileScanner Tasks",
	"RAM in use",
	"Insufficient",
	"Max ShareFinder",
	"Max TreeWalker",
	"Max FileScanner",
	"Been Snafflin",
	"Status Update",
}

// Classify decides what a raw line is before any grammar is applied.
func Classify(line string) Class {
	line = strings.TrimSpace(line)
	if line == "" {
		return ClassIgnore
	}
	if strings.Contains(line, infoMarker) {
		return ClassIgnore
	}
	for _, marker := range statusBanners {
		if strings.Contains(line, marker) {
			return ClassIgnore
		}
	}
	switch {
	case strings.Contains(line, shareMarker):
		return ClassShare
	case strings.Contains(line, fileMarker):
		return ClassFile
	}
	return ClassUnrecognized
}
