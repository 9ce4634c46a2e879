package layout

import (
	"errors"
	"fmt"
)

// Mode is one of the four pane arrangements.
type Mode string

const (
	Single        Mode = "single"
	TwoHorizontal Mode = "two-horizontal"
	TwoVertical   Mode = "two-vertical"
	Four          Mode = "four"
)

// ErrUnknownMode indicates an unrecognized layout mode name.
var ErrUnknownMode = errors.New("unknown layout mode")

// ErrNoSuchPane indicates a pane index outside the current layout.
var ErrNoSuchPane = errors.New("no such pane")

// PaneCount returns the number of visible panes for the mode.
func (m Mode) PaneCount() int {
	switch m {
	case TwoHorizontal, TwoVertical:
		return 2
	case Four:
		return 4
	default:
		return 1
	}
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Single, TwoHorizontal, TwoVertical, Four:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Pane is one visible rectangular region of the layout.
type Pane struct {
	Index     int    `json:"index"`
	SessionID string `json:"session_id,omitempty"`
	Focused   bool   `json:"focused"`
	Exited    bool   `json:"exited,omitempty"`
}

// Snapshot is the externally visible layout state.
type Snapshot struct {
	Mode  Mode   `json:"mode"`
	Focus int    `json:"focus"`
	Panes []Pane `json:"panes"`
}
