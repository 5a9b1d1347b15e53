package habit

import "fmt"

// Mode decides what toggling an already completed day does.
type Mode string

const (
	// ModeOneWay never removes a completion for today.
	ModeOneWay Mode = "one_way"
	// ModeToggle removes an existing completion.
	ModeToggle Mode = "toggle"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeOneWay, ModeToggle:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown completion mode %q", s)
}

type Policy struct {
	Mode        Mode
	AllowFuture bool
	// HeatmapDays bounds the completions returned by Detail.
	HeatmapDays int
}

const DefaultHeatmapDays = 365

func DefaultPolicy() Policy {
	return Policy{Mode: ModeOneWay, HeatmapDays: DefaultHeatmapDays}
}
