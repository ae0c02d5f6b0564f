package events

// Topic constants for events emitted by the cart manager.
const (
	// TopicCartUpdated carries the full cart snapshot after a local
	// mutation was applied.
	TopicCartUpdated = "cart.updated"
	// TopicCartReplaced carries the snapshot adopted after an external
	// change overwrote the in-memory cart.
	TopicCartReplaced = "cart.replaced"
)
