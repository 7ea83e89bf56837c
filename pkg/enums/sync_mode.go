package enums

import (
	"fmt"
	"strings"
)

// SyncMode selects the orchestrator pipeline.
type SyncMode string

const (
	SyncModeFull        SyncMode = "full"
	SyncModeIncremental SyncMode = "incremental"
)

var validSyncModes = []SyncMode{
	SyncModeFull,
	SyncModeIncremental,
}

// String implements fmt.Stringer.
func (m SyncMode) String() string {
	return string(m)
}

// IsValid reports whether the value is a known SyncMode.
func (m SyncMode) IsValid() bool {
	for _, candidate := range validSyncModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseSyncMode converts raw input into a SyncMode.
func ParseSyncMode(value string) (SyncMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validSyncModes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync mode %q", value)
}

// CustomerKind is the classification of one order against the customer history.
type CustomerKind string

const (
	CustomerKindGuest  CustomerKind = "guest"
	CustomerKindNew    CustomerKind = "new"
	CustomerKindRepeat CustomerKind = "repeat"
)
