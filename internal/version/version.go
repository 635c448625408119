// Package version provides version information for the plumb binary.
package version

// Build information, recorded once at startup from ldflags values.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info describes the running build.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Set records the build information. Empty values keep the defaults.
func Set(v, c, d string) {
	if v != "" {
		version = v
	}
	if c != "" {
		commit = c
	}
	if d != "" {
		date = d
	}
}

// Get returns the recorded build information.
func Get() Info {
	return Info{Version: version, Commit: commit, Date: date}
}

// IsDev reports whether this is an unversioned development build.
func IsDev() bool {
	return version == "dev"
}
