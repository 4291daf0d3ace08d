// Package models defines the transport-neutral inline keyboard shape.
package models

// KeyboardButton is one inline button: Data buttons post a callback payload,
// URL buttons open a link. Exactly one of Data/URL is set.
type KeyboardButton struct {
	Text string `json:"text"`
	Data string `json:"data,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Keyboard is an inline keyboard: rows of buttons.
type Keyboard [][]KeyboardButton

// SingleButton builds a one-row keyboard with a single callback button.
func SingleButton(text, data string) Keyboard {
	return Keyboard{{{Text: text, Data: data}}}
}
