package itch

// Message pairs the common header with its tag-specific Body (§4.2).
type Message struct {
	Header
	Body Body
}

// Type reports the tag of the message's body.
func (m Message) Type() MessageType {
	return m.Body.messageType()
}
