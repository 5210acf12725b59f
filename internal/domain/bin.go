package domain

import "time"

// BinType describes how a bin is managed.
type BinType string

const (
	BinHot          BinType = "hot"
	BinCold         BinType = "cold"
	BinVermicompost BinType = "vermicompost"
)

// Moisture is the squeeze-test reading recorded in a log.
type Moisture string

const (
	MoistureDry   Moisture = "dry"
	MoistureIdeal Moisture = "ideal"
	MoistureWet   Moisture = "wet"
)

// Smell is the odour reading recorded in a log.
type Smell string

const (
	SmellEarthy  Smell = "earthy"
	SmellSour    Smell = "sour"
	SmellAmmonia Smell = "ammonia"
	SmellNone    Smell = "none"
)

// CompostBin is a tracked pile or worm bin. Logs are kept oldest-first.
type CompostBin struct {
	ID        string
	Name      string
	Type      BinType
	StartDate time.Time
	Logs      []BinLog
}

// BinLog is a single observation of a bin.
type BinLog struct {
	ID          string
	Date        time.Time
	Temperature *float64 // celsius, nil when not measured
	Moisture    Moisture
	Smell       Smell
	Notes       string
}

// RecentLogs returns up to n logs, newest first.
func (b *CompostBin) RecentLogs(n int) []BinLog {
	if n > len(b.Logs) {
		n = len(b.Logs)
	}
	out := make([]BinLog, 0, n)
	for i := len(b.Logs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, b.Logs[i])
	}
	return out
}
