package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version overrides the module version, e.g.
// -ldflags "-X github.com/satishbabariya/cqlmigrate/cli/internal/version.Version=1.2.0"
var Version = ""

const driverModule = "github.com/apache/cassandra-gocql-driver/v2"

// Info holds version information
type Info struct {
	Version   string
	Commit    string
	Modified  bool
	Driver    string
	GoVersion string
	Platform  string
}

// Get returns version information for the running binary.
func Get() Info {
	info := Info{
		Version:   Version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.fill(bi)
	}
	if info.Version == "" {
		info.Version = "devel"
	}
	return info
}

// fill takes the module version, VCS stamp and driver version from bi.
func (i *Info) fill(bi *debug.BuildInfo) {
	if i.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		i.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			i.Commit = s.Value
			if len(i.Commit) > 12 {
				i.Commit = i.Commit[:12]
			}
		case "vcs.modified":
			i.Modified = s.Value == "true"
		}
	}
	for _, dep := range bi.Deps {
		if dep.Path != driverModule {
			continue
		}
		i.Driver = dep.Version
		if dep.Replace != nil {
			i.Driver = dep.Replace.Version
		}
	}
}

// String returns a one line version string
func (i Info) String() string {
	return fmt.Sprintf("cqlmigrate %s (%s %s)", i.Version, i.Platform, i.GoVersion)
}

// Rows returns the known details as label/value pairs for table output.
func (i Info) Rows() [][]string {
	rows := [][]string{{"Version", i.Version}}
	if i.Commit != "" {
		commit := i.Commit
		if i.Modified {
			commit += " (modified)"
		}
		rows = append(rows, []string{"Commit", commit})
	}
	if i.Driver != "" {
		rows = append(rows, []string{"gocql", i.Driver})
	}
	return append(rows,
		[]string{"Go Version", i.GoVersion},
		[]string{"Platform", i.Platform},
	)
}
