package tracing

// Span names.
const (
	SpanRun = "dispatch.run"
)

// Span attribute keys.
const (
	AttrEventName     = "event.name"
	AttrRunID         = "run.id"
	AttrWantsProgress = "event.wants_progress"
	AttrWantsMessage  = "event.wants_message"
	AttrMessageKind   = "message.kind"
	AttrMessageHint   = "message.hint"
	AttrEnvelopeSeq   = "envelope.seq"
)

// Span event names.
const (
	EventEnvelopeDelivered = "envelope.delivered"
	EventMessageQueued     = "message.queued"
	EventMessageDuplicate  = "message.duplicate"
	EventMessageSuppressed = "message.suppressed"
	EventCancelled         = "run.cancelled"
)
