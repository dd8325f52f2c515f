// Package message defines the user-facing notification value carried from
// job streams to the message queue.
package message

import "fmt"

// UIHint tells the presentation layer how a message should be shown.
type UIHint int

const (
	HintNone UIHint = iota
	HintToast
	HintDialog
)

func (h UIHint) String() string {
	switch h {
	case HintToast:
		return "toast"
	case HintDialog:
		return "dialog"
	default:
		return "none"
	}
}

// Kind classifies a message's outcome.
type Kind int

const (
	KindNone Kind = iota
	KindSuccess
	KindError
	KindInfo
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	case KindInfo:
		return "info"
	default:
		return "none"
	}
}

// Message is a comparable value: two messages are duplicates iff == holds.
// HasText distinguishes an absent text from an empty one.
type Message struct {
	Text    string
	HasText bool
	Hint    UIHint
	Kind    Kind
}

// New returns a message with text set.
func New(text string, hint UIHint, kind Kind) Message {
	return Message{Text: text, HasText: true, Hint: hint, Kind: kind}
}

// WithoutText returns a message whose text is absent.
func WithoutText(hint UIHint, kind Kind) Message {
	return Message{Hint: hint, Kind: kind}
}

// Sentinel is the harmless, non-displaying message handed back when a
// removal cannot be honoured. It is the zero Message.
func Sentinel() Message {
	return Message{}
}

// IsSentinel reports whether m displays nothing.
func (m Message) IsSentinel() bool {
	return m == Sentinel()
}

// Ptr returns a pointer to a copy of m, for optional fields.
func (m Message) Ptr() *Message {
	return &m
}

func (m Message) String() string {
	text := "<none>"
	if m.HasText {
		text = fmt.Sprintf("%q", m.Text)
	}
	return fmt.Sprintf("%s/%s %s", m.Kind, m.Hint, text)
}
