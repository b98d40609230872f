package backend

type Phase int32

const (
	PhaseInitializing Phase = iota
	PhaseAwaitingLogin
	PhaseLoggedOut
	PhaseLoggingIn
	PhaseLoggedIn
	PhaseShuttingDown
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseAwaitingLogin:
		return "awaiting-login"
	case PhaseLoggedOut:
		return "logged-out"
	case PhaseLoggingIn:
		return "logging-in"
	case PhaseLoggedIn:
		return "logged-in"
	case PhaseShuttingDown:
		return "shutting-down"
	default:
		return "unknown"
	}
}

// HubPhase is only meaningful while logged in.
type HubPhase int32

const (
	HubDisconnectedPhase HubPhase = iota
	HubConnectingPhase
	HubConnectedPhase
)

func (p HubPhase) String() string {
	switch p {
	case HubDisconnectedPhase:
		return "disconnected"
	case HubConnectingPhase:
		return "connecting"
	case HubConnectedPhase:
		return "connected"
	default:
		return "unknown"
	}
}
