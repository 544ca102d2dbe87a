package buildinfo

import "runtime/debug"

var (
	version = "dev"
	commit  = ""
)

// SetVersion lets build scripts inject the release tag and commit.
func SetVersion(v, c string) {
	if v != "" {
		version = v
	}
	if c != "" {
		commit = c
	}
}

// Version returns the release tag, falling back to the module version embedded by the Go toolchain.
func Version() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// Commit returns the VCS revision, if known.
func Commit() string {
	if commit != "" {
		return commit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			if len(setting.Value) > 12 {
				return setting.Value[:12]
			}
			return setting.Value
		}
	}
	return ""
}
