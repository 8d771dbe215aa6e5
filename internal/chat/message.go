package chat

type Kind byte

const (
	// KindNotice is a system line: handshake replies, join/leave notices,
	// command results. Notices are never blocked.
	KindNotice Kind = iota
	KindChat
	KindWhisper
)

func (k Kind) String() string {
	switch k {
	case KindNotice:
		return "notice"
	case KindChat:
		return "chat"
	case KindWhisper:
		return "whisper"
	default:
		return "unknown"
	}
}

// Message is a formatted line together with the nickname it is attributed
// to. Block checks use From, never the text.
type Message struct {
	Kind Kind
	From string
	Text string
}

func NewNotice(text string) Message {
	return Message{Kind: KindNotice, Text: text}
}

func NewChat(from string, text string) Message {
	return Message{Kind: KindChat, From: from, Text: from + ": " + text}
}

func NewWhisper(from string, text string) Message {
	return Message{Kind: KindWhisper, From: from, Text: from + " whispers: " + text}
}

type BlockLevel byte

const (
	Unblocked BlockLevel = iota
	BlockWhisper
	BlockAll
)

func (l BlockLevel) String() string {
	switch l {
	case Unblocked:
		return "unblocked"
	case BlockWhisper:
		return "whisper-blocked"
	case BlockAll:
		return "all-blocked"
	default:
		return "unknown"
	}
}

// Suppresses reports whether a message of kind k from a sender at this
// level must be withheld.
func (l BlockLevel) Suppresses(k Kind) bool {
	switch k {
	case KindWhisper:
		return l == BlockWhisper || l == BlockAll
	case KindChat:
		return l == BlockAll
	default:
		return false
	}
}
