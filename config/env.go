// cybercraft-launcher/config/env.go
package config

// Environment variables read by the launcher. The EnvUI* values are set by
// the host on the UI child process.
const (
	EnvBackendURL     = "CYBERCRAFT_BACKEND_URL"
	EnvBackendTimeout = "CYBERCRAFT_BACKEND_TIMEOUT"
	EnvLaunchCommand  = "CYBERCRAFT_LAUNCH_COMMAND"
	EnvLogLevel       = "CYBERCRAFT_LOG_LEVEL"

	EnvUIMode       = "CYBERCRAFT_UI"
	EnvGatewayURL   = "CYBERCRAFT_GATEWAY_URL"
	EnvGatewayToken = "CYBERCRAFT_GATEWAY_TOKEN"
)
