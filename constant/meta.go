// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// AudioControl is the canonical application identifier used for filesystem paths and CLI branding.
	AudioControl = "audiocontrol3"

	// Version is the current application semantic version string.
	Version = "3.0.0"

	// Repository is the upstream source repository, used for update discovery.
	Repository = "hifiberry/audiocontrol3"
)
