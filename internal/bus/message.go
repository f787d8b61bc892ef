package bus

// CloseTopic is reserved for the message telling consumers to stop.
const CloseTopic = "CLOSE"

// BusMessage is the unit handed to asynchronous consumers.
type BusMessage struct {
	Topic   string
	Payload []byte
}

// NewCloseMessage returns an empty message on CloseTopic.
func NewCloseMessage() BusMessage {
	return BusMessage{Topic: CloseTopic}
}

// IsClose reports whether m is a close message.
func (m BusMessage) IsClose() bool {
	return m.Topic == CloseTopic
}

func (m BusMessage) String() string {
	return "[" + m.Topic + "]" + string(m.Payload)
}
