// Package version carries build identity, overridable with
// -ldflags "-X github.com/keshon/voice-warden/internal/version.Version=...".
package version

var (
	AppName   = "Voice Warden"
	Version   = "dev"
	BuildDate = "unknown"
)
