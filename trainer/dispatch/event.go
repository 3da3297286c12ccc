// Package dispatch turns decoded chat events into quiz operations and reply descriptors.
// It never talks to the network: files arrive through a Fetcher and replies are returned
// for the transport to render.
package dispatch

import (
	"context"
	"io"
)

// Kind tells which field of an Event is set.
type Kind int

const (
	KindText Kind = iota + 1
	KindButton
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindButton:
		return "button"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// FileRef identifies an uploaded document.
type FileRef struct {
	ID   string
	Name string
	Size int64
}

// Event is one inbound chat update.
type Event struct {
	Kind   Kind
	ChatID int64
	Text   string
	Token  string
	File   FileRef
}

// Choice is one inline button.
type Choice struct {
	Label string
	Token string
}

// Reply is one outbound message.
type Reply struct {
	ChatID  int64
	Text    string
	Choices []Choice
}

// Fetcher opens the content of an uploaded file. Close releases any temporary storage.
type Fetcher interface {
	Fetch(ctx context.Context, ref FileRef) (io.ReadCloser, error)
}
