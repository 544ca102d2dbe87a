package keylog

import "runtime"

// Environment summarises keyboard source support on the running host.
type Environment struct {
	Provider  string
	Available bool
	Message   string
}

const (
	providerQuartz      = "quartz_event_tap"
	providerUnavailable = "unavailable"
)

// DetectEnvironment reports which keyboard source DefaultSource will use.
func DetectEnvironment() Environment {
	return detectEnvironment(runtime.GOOS)
}

func detectEnvironment(goos string) Environment {
	if goos == "darwin" {
		return Environment{
			Provider:  providerQuartz,
			Available: true,
			Message:   "accessibility trust is checked when the tap starts",
		}
	}
	return Environment{
		Provider: providerUnavailable,
		Message:  "keyboard tap is only implemented for darwin",
	}
}
