package reconcile

import (
	"fmt"
	"strings"
)

// Mode selects which passes run.
type Mode int

const (
	// ModeTwoPass runs the whole-file pass followed by the sequential pass.
	ModeTwoPass Mode = iota
	// ModeEarlyHoursOnly runs only the whole-file pass.
	ModeEarlyHoursOnly
	// ModeOff leaves timestamps as parsed.
	ModeOff
)

var modeNames = map[Mode]string{
	ModeTwoPass:        "two-pass",
	ModeEarlyHoursOnly: "early-hours",
	ModeOff:            "off",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ValidModes lists the accepted mode names.
func ValidModes() []string {
	return []string{ModeTwoPass.String(), ModeEarlyHoursOnly.String(), ModeOff.String()}
}

// ParseMode maps a configuration string to a Mode. The empty string is
// ModeTwoPass.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "two-pass", "twopass", "default":
		return ModeTwoPass, nil
	case "early-hours", "early-hours-only", "file":
		return ModeEarlyHoursOnly, nil
	case "off", "none", "false":
		return ModeOff, nil
	}
	return ModeTwoPass, fmt.Errorf("unknown reconcile mode %q (valid: %s)", s, strings.Join(ValidModes(), ", "))
}
