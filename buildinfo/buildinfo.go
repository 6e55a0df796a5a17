// Package buildinfo reports build-time properties injected via ldflags:
//
//	go build -ldflags "-X github.com/nomis52/activitytodo/buildinfo.version=v1.2.0"
package buildinfo

import "runtime"

// Properties describes the running binary.
type Properties struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
}

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// Get returns the current build properties.
func Get() Properties {
	return Properties{
		Version:   version,
		BuildTime: buildTime,
		GitCommit: gitCommit,
		GoVersion: runtime.Version(),
	}
}

// String is the one line form used by --version.
func (p Properties) String() string {
	return p.Version + " (commit " + p.GitCommit + ", built " + p.BuildTime + ", " + p.GoVersion + ")"
}
