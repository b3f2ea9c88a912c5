package version

import "fmt"

// Values are set at build time using -ldflags.
var Version = "dev"
var Built = ""
var GitCommit = ""

type Info struct {
	Version   string `json:"version"`
	Built     string `json:"built,omitempty"`
	GitCommit string `json:"git_commit,omitempty"`
}

func Get() Info {
	return Info{Version: Version, Built: Built, GitCommit: GitCommit}
}

// Line renders the one-line banner the command line tools print for
// --version.
func Line(binary string) string {
	if Version == "" || Version == "dev" {
		return binary + " dev"
	}
	return fmt.Sprintf("%s version %s", binary, Version)
}
