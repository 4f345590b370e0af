package app

import (
	"context"
	"fmt"
)

// Dialog is the interface for bot's dialogs. Implementations should be in the 'dialogs' directory.
type Dialog interface {
	// OnEnter called when user enters this dialog
	OnEnter(ctx context.Context) error
	// OnMessage called when user sends a message, being in this dialog
	OnMessage(ctx context.Context, text string, msgID int) error
}

type DialogID int

const (
	DialogMain = DialogID(iota)
	DialogDownload
)

var allDialogIDs = map[DialogID]string{
	DialogMain:     "main",
	DialogDownload: "download",
}

func (id DialogID) Validate() error {
	_, ok := allDialogIDs[id]
	if !ok {
		return fmt.Errorf("%v is unknown dialog id", int(id))
	}
	return nil
}

func (id DialogID) String() string {
	if name, ok := allDialogIDs[id]; ok {
		return name
	}
	return fmt.Sprintf("DialogID(%d)", int(id))
}
