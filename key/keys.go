// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Controller Coordination - these keys govern the engine that arbitrates between player backends.
const (
	ControllerAutoPause    = "controller.auto_pause"
	ControllerAutoProgress = "controller.auto_progress_interval"
)

// Player Backends - these keys select and parameterize the playback backends created at startup.
const (
	PlayersDefault = "players.default"

	PlayersMPDHost    = "players.mpd.host"
	PlayersMPDPort    = "players.mpd.port"
	PlayersMPDTimeout = "players.mpd.timeout"

	PlayersMPVSocket = "players.mpv.socket"
)

// Addons - these keys control optional behavior units layered on top of the controller.
const (
	AddonsEnabled = "addons.enabled"

	VolumeNormTargetLevel   = "addons.volumenorm.target_level"
	VolumeNormMaxAdjustment = "addons.volumenorm.max_adjustment"
	VolumeNormDefaultLevel  = "addons.volumenorm.default_level"
)

// REST API - these keys configure the HTTP status and command surface.
const (
	APIEnable = "api.enable"
	APIHost   = "api.host"
	APIPort   = "api.port"
)

// Diagnostics
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI behavior
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
