package topics

const (
	// Wagers: cada evento anexado ao log de uma aposta
	WagerEvents = "wager_events"

	// DLQs
	WagerEventsDLQ = "wager_events_dlq"
)
