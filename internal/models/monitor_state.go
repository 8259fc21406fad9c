package models

import "time"

// Control modes selectable through the gateway.
const (
	ModeAuto = "auto"
	ModeOn   = "on"
	ModeOff  = "off"
)

// MonitorState is the single durable record shared by the monitor loop and
// the control gateway. Field names match the persisted JSON document.
type MonitorState struct {
	ConsecutiveFailures int        `json:"consecutive_failures"`
	PlugOn              bool       `json:"plug_on"`
	LastOnlineAt        *time.Time `json:"last_wan1_online_time"`
	Mode                string     `json:"mode"`
}

// DefaultState is the record used when nothing has been persisted yet or the
// state file is unreadable.
func DefaultState() MonitorState {
	return MonitorState{
		ConsecutiveFailures: 0,
		PlugOn:              false,
		LastOnlineAt:        nil,
		Mode:                ModeAuto,
	}
}

// ValidMode reports whether m is one of the accepted control modes.
func ValidMode(m string) bool {
	switch m {
	case ModeAuto, ModeOn, ModeOff:
		return true
	}
	return false
}

// ModeOption describes one selectable mode for the public /modes listing.
type ModeOption struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// ModeOptions enumerates the valid modes with operator-facing descriptions.
func ModeOptions() []ModeOption {
	return []ModeOption{
		{
			Value:       ModeAuto,
			Label:       "Auto - Automatic control based on WAN1",
			Description: "Automatically turns plug on/off based on WAN1 status",
		},
		{
			Value:       ModeOn,
			Label:       "On - Keep plug always ON",
			Description: "Plug will stay ON regardless of WAN1 status",
		},
		{
			Value:       ModeOff,
			Label:       "Off - Keep plug always OFF",
			Description: "Plug will stay OFF regardless of WAN1 status",
		},
	}
}
