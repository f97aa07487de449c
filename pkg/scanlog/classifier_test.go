package scanlog

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Class
	}{
		{
			name: "empty line",
			line: "",
			want: ClassIgnore,
		},
		{
			name: "whitespace only",
			line: "   \t  ",
			want: ClassIgnore,
		},
		{
			name: "info entry",
			line: "[HOST1] 2024-01-15 10:30:00Z [Info] Starting up",
			want: ClassIgnore,
		},
		{
			name: "sharefinder task banner",
			line: "ShareFinder Tasks Completed: 40 Remaining: 2",
			want: ClassIgnore,
		},
		{
			name: "sharefinder banner embedded mid-line",
			line: "[HOST1] 2024-01-15 10:30:00Z ShareFinder Tasks Completed: 40",
			want: ClassIgnore,
		},
		{
			name: "treewalker task banner",
			line: "TreeWalker Tasks Completed: 12 Remaining: 100",
			want: ClassIgnore,
		},
		{
			name: "filescanner task banner",
			line: "FileScanner Tasks Completed: 3 Remaining: 900",
			want: ClassIgnore,
		},
		{
			name: "ram notice",
			line: "4212MB RAM in use.",
			want: ClassIgnore,
		},
		{
			name: "insufficiency notice",
			line: "Insufficient memory to continue at full speed",
			want: ClassIgnore,
		},
		{
			name: "max pool size notices",
			line: "Max ShareFinder Tasks: 64",
			want: ClassIgnore,
		},
		{
			name: "run summary phrase",
			line: "Been Snafflin for 00:10:32 and we ain't done yet...",
			want: ClassIgnore,
		},
		{
			name: "generic status update",
			line: "Status Update:",
			want: ClassIgnore,
		},
		{
			name: "share record",
			line: `[HOST1] 2024-01-15 10:30:00Z [Share] {Black}<\\SERVER1\backup>(R) backup share`,
			want: ClassShare,
		},
		{
			name: "file record",
			line: `[HOST1] 2024-01-15 10:30:00Z [File] {Red}<Rule|RW|pat|1|2024>(\\S\f.txt) ctx`,
			want: ClassFile,
		},
		{
			name: "unstructured noise",
			line: "some random output the tool emitted",
			want: ClassUnrecognized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.line); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}
