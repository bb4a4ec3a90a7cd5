package service

// Broadcaster sends real-time events to connected clients.
// Implemented by the WebSocket hub.
type Broadcaster interface {
	BroadcastPlanEvent(planID string, eventType string, data any)
}

// NoopBroadcaster is a no-op implementation for testing or when WS is disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastPlanEvent(string, string, any) {}

// Plan event types.
const (
	EventPlanProgress  = "plan_progress"
	EventPlanCompleted = "plan_completed"
	EventPlanFailed    = "plan_failed"
)
