package events

// TargetFields carries the computed business fields target routing depends
// on. Keeping routing a pure function of (event type, fields) keeps the
// fan-out mapping testable away from the handlers.
type TargetFields struct {
	DepositDueCents int64
}

// ResolveTargets determines which integrations an event fans out to.
// An empty result means the event is purely internal and creates no
// outbox entry.
func ResolveTargets(eventType string, fields TargetFields) []string {
	switch eventType {
	case EventTypeBookingCreated:
		if fields.DepositDueCents > 0 {
			return []string{TargetEmail, TargetStripe}
		}
		return []string{TargetEmail}
	case EventTypePaymentRecorded:
		return []string{TargetEmail}
	case EventTypeMessageReceived:
		return []string{TargetAIProcessing}
	}
	return nil
}
