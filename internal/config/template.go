package config

import "fmt"

// Defaults shared by the CLI flags and the config template.
const (
	DefaultWords       = 50
	DefaultPreviewSize = 150
	DefaultPreviewStep = 50
	DefaultTickMs      = 100
	DefaultServerHost  = "localhost"
	DefaultServerPort  = 23234
)

// DefaultTemplate returns the commented config written by `speedtype config`.
func DefaultTemplate() string {
	return fmt.Sprintf(`# speedtype configuration
# Uncomment a value to enable it. Environment variables override the file,
# CLI flags override both.

[practice]
# user = "me"             # Practice user (default: $%s, then $USER)
# words = %d              # Words per test
# preview-size = %d      # Words shown in the start-position preview
# preview-step = %d       # Preview scroll step
# tick-ms = %d           # Live stats refresh interval

[server]
# host = %q
# port = %d
# host-key = ""           # SSH host key path (generated when missing)

[log]
# debug = false           # Write JSON debug logs (also $%s=1)
# file = ""               # Log file path (default: new file under $XDG_STATE_HOME/speedtype)
`,
		EnvUser,
		DefaultWords,
		DefaultPreviewSize,
		DefaultPreviewStep,
		DefaultTickMs,
		DefaultServerHost,
		DefaultServerPort,
		EnvDebug,
	)
}
