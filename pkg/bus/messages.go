package bus

// InboundMessage is one user message delivered by a chat channel.
// Command is empty for free text; for commands it holds the bare command
// name ("search", "recommend", "setname") and Args the rest of the line.
type InboundMessage struct {
	Channel    string
	SenderID   string
	SenderName string
	ChatID     string
	Content    string
	Command    string
	Args       string
	Metadata   map[string]string
}

// OutboundMessage is a reply to be delivered by a chat channel. Choices,
// when set, are rendered as an inline reply keyboard where the transport
// supports one.
type OutboundMessage struct {
	Channel string
	ChatID  string
	Content string
	Choices []string
}
