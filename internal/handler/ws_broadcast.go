package handler

// BroadcastPlanEvent implements service.Broadcaster using the WebSocket hub.
func (h *Hub) BroadcastPlanEvent(planID string, eventType string, data any) {
	h.BroadcastToPlan(planID, WSEvent{
		Type:   eventType,
		PlanID: planID,
		Data:   data,
	})
}
