package msgbus

// TypeKey identifies one message variant. Keys are plain dotted strings
// ("order.received") chosen by the variant's author; a key must map to
// exactly one variant and stay stable for the life of the process.
type TypeKey string

// Message is the unit of information that flows through a bus. Messages
// are immutable values built by the producer at publish time; the bus
// holds no reference to them once the dispatch pass completes. Payload
// validation is the producer's concern, the bus only relies on Key.
type Message interface {
	Key() TypeKey
}

// Classed is implemented by messages that satisfy broader capabilities in
// addition to their own key. A subscription made for a class key receives
// every message whose Classes include it, after the exact-key handlers.
type Classed interface {
	Message
	Classes() []TypeKey
}

// Class keys of the built-in message kinds.
const (
	ClassCommand      TypeKey = "class.command"
	ClassEvent        TypeKey = "class.event"
	ClassNotification TypeKey = "class.notification"
)

// Command marks a message that requests an action. Embedding it makes the
// variant visible to ClassCommand subscriptions.
type Command struct{}

func (Command) Classes() []TypeKey { return []TypeKey{ClassCommand} }

// Event marks a message that states something happened.
type Event struct{}

func (Event) Classes() []TypeKey { return []TypeKey{ClassEvent} }

// Notification marks a plain informational message.
type Notification struct{}

func (Notification) Classes() []TypeKey { return []TypeKey{ClassNotification} }
