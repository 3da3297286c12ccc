// Package buildinfo carries version metadata stamped at link time:
//
//	go build -ldflags "-X 'github.com/m3rciful/wordbot/core/buildinfo.Version=v0.3.0' \
//	  -X 'github.com/m3rciful/wordbot/core/buildinfo.Commit=$(git rev-parse --short HEAD)' \
//	  -X 'github.com/m3rciful/wordbot/core/buildinfo.Date=$(date -u +%FT%TZ)'" ./cmd/wordbot
package buildinfo

// Defaults apply to local builds.
var (
	// Version reports the release tag.
	Version = "dev"
	// Commit reports the source commit.
	Commit = "local"
	// Date reports the build timestamp in RFC3339.
	Date = ""
)

// String renders the metadata for `wordbot --version`.
func String() string {
	s := Version + " (" + Commit
	if Date != "" {
		s += ", " + Date
	}
	return s + ")"
}
