// Package models defines the core data structures shared by the console.
// It includes graph entities, filters, stats and the upstream API records.
package models

import "time"

type DiscoveryStatus string

const (
	DiscoveryIdle                   DiscoveryStatus = "IDLE"
	DiscoveryStarting               DiscoveryStatus = "STARTING"
	DiscoveryConnecting             DiscoveryStatus = "CONNECTING"
	DiscoveryDiscoveringTables      DiscoveryStatus = "DISCOVERING_TABLES"
	DiscoveryDiscoveringColumns     DiscoveryStatus = "DISCOVERING_COLUMNS"
	DiscoveryDiscoveringProcedures  DiscoveryStatus = "DISCOVERING_PROCEDURES"
	DiscoveryDiscoveringConstraints DiscoveryStatus = "DISCOVERING_CONSTRAINTS"
	DiscoveryFinalizing             DiscoveryStatus = "FINALIZING"
	DiscoveryRunning                DiscoveryStatus = "RUNNING"
	DiscoveryCompleted              DiscoveryStatus = "COMPLETED"
	DiscoveryFailed                 DiscoveryStatus = "FAILED"
)

func (s DiscoveryStatus) Terminal() bool {
	return s == DiscoveryCompleted || s == DiscoveryFailed
}

type DiscoveryProgress struct {
	ConnectionID             string          `json:"connectionId"`
	CurrentStep              DiscoveryStatus `json:"currentStep"`
	Progress                 int             `json:"progress"`
	Message                  string          `json:"message"`
	EstimatedTimeRemainingMs int64           `json:"estimatedTimeRemaining,omitempty"`
	StartedAt                time.Time       `json:"startedAt"`
	Error                    string          `json:"error,omitempty"`
}
