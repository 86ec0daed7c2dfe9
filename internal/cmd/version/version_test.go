package version

import (
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		commit    string
		buildDate string
		want      string
	}{
		{
			name:    "version only",
			version: "1.2.3",
			want:    "rdsharness version 1.2.3\n",
		},
		{
			name:      "version with date",
			version:   "v1.2.3",
			buildDate: "2026-10-01",
			want:      "rdsharness version 1.2.3 (2026-10-01)\n",
		},
		{
			name:      "commit is shortened",
			version:   "1.2.3",
			commit:    "0123456789abcdef",
			buildDate: "2026-10-01",
			want:      "rdsharness version 1.2.3 (0123456, 2026-10-01)\n",
		},
		{
			name: "empty version",
			want: "rdsharness version DEV\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.version, tt.commit, tt.buildDate)
			if got != tt.want {
				t.Errorf("Format(%q, %q, %q) = %q, want %q", tt.version, tt.commit, tt.buildDate, got, tt.want)
			}
		})
	}
}
