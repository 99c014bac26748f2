package mqtt

const RootLevel string = "alabs/doorbell"

const (
	StatusLevel  = "status"
	ControlLevel = "control"
)

// StatusTopic carries device -> server messages, ControlTopic server -> device commands.
const StatusTopic = RootLevel + "/" + StatusLevel
const ControlTopic = RootLevel + "/" + ControlLevel

// DefaultQoS is at-most-once: publishes are fire-and-forget.
const DefaultQoS byte = 0
