// Package version holds build metadata. BuildDate and GoVersion are set with
// -ldflags "-X replybot/internal/version.BuildDate=...".
package version

var (
	AppName        = "Replybot"
	AppDescription = "Per-guild trigger replies for Discord"
	BuildDate      = "dev"
	GoVersion      = "unknown"
)
