package buildconfig

// Build-time variables injected via ldflags:
//
//	-X github.com/Harshitk-cp/factline/internal/buildconfig.version=v1.2.0
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

// Info is the build identity reported by the status endpoint and the
// startup log line.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date,omitempty"`
}

func Version() string {
	return version
}

func Commit() string {
	return commit
}

func VersionInfo() Info {
	return Info{Version: version, Commit: commit, BuildDate: buildDate}
}

// UserAgent identifies outbound requests to outlets and APIs.
func UserAgent() string {
	return "factline/" + version
}
