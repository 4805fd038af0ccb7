package event

import "time"

// Role identifies one of the two fixed managed processes.
type Role string

const (
	RoleServer  Role = "server"
	RoleBrowser Role = "browser"
)

// Kind classifies an event payload.
type Kind string

const (
	KindStdout  Kind = "stdout"
	KindStderr  Kind = "stderr"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
)

// Channel names delivered to the upstream sink. The server role keeps its
// historical "py-" prefix on the wire.
const (
	ChannelServerOutput   = "py-output"
	ChannelServerStarted  = "py-started"
	ChannelServerReady    = "py-ready"
	ChannelBrowserOutput  = "chrome-output"
	ChannelBrowserStarted = "chrome-started"
)

// Event is a single lifecycle or output notification flowing upward.
type Event struct {
	Role    Role      `json:"role"`
	Kind    Kind      `json:"kind"`
	Channel string    `json:"channel"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// OutputChannel returns the output channel name for a role.
func OutputChannel(role Role) string {
	if role == RoleBrowser {
		return ChannelBrowserOutput
	}
	return ChannelServerOutput
}

// StartedChannel returns the started channel name for a role.
func StartedChannel(role Role) string {
	if role == RoleBrowser {
		return ChannelBrowserStarted
	}
	return ChannelServerStarted
}
