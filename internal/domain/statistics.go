package domain

// Trend is an advisory direction signal.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Valid reports whether t is a known trend.
func (t Trend) Valid() bool {
	return t == TrendUp || t == TrendDown || t == TrendStable
}

// TicketStatistics holds metrics derived from the full ticket set.
type TicketStatistics struct {
	OpenTickets       int
	ResolvedToday     int
	AIResolved        int
	AwaitingAction    int
	AvgResolutionTime string
	EscalationRate    int
	EscalationTrend   Trend
}

// ZeroStatistics is the value reported for an empty or unreadable ticket set.
func ZeroStatistics() TicketStatistics {
	return TicketStatistics{
		AvgResolutionTime: "0h",
		EscalationTrend:   TrendStable,
	}
}
