package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelease(t *testing.T) {
	// package-level variables; not parallel
	tests := []struct {
		name    string
		version string
		commit  string
		want    string
	}{
		{"unset", "", "", "dev"},
		{"version only", "v1.0.0", "", "v1.0.0"},
		{"short commit", "v1.0.0", "abc", "v1.0.0+abc"},
		{"long commit", "", "0123456789abcdef", "dev+0123456"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldVersion, oldCommit := Version, Commit
			t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })
			Version, Commit = tt.version, tt.commit
			assert.Equal(t, tt.want, Release())
		})
	}
}
