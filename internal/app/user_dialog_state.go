package app

import "sync"

// UserDialogState remembers the current dialog of every user the bot talks to.
type UserDialogState struct {
	mu             sync.Mutex
	dialogByUserID map[int64]Dialog
}

func NewUserDialogState() *UserDialogState {
	return &UserDialogState{
		dialogByUserID: make(map[int64]Dialog),
	}
}

func (uds *UserDialogState) FindDialogByUser(userID int64) Dialog {
	uds.mu.Lock()
	defer uds.mu.Unlock()

	return uds.dialogByUserID[userID]
}

func (uds *UserDialogState) SetDialogForUser(userID int64, dialog Dialog) {
	uds.mu.Lock()
	defer uds.mu.Unlock()

	uds.dialogByUserID[userID] = dialog
}

// ForgetUser drops the user's dialog so the next message starts from the main dialog.
func (uds *UserDialogState) ForgetUser(userID int64) {
	uds.mu.Lock()
	defer uds.mu.Unlock()

	delete(uds.dialogByUserID, userID)
}

func (uds *UserDialogState) Len() int {
	uds.mu.Lock()
	defer uds.mu.Unlock()

	return len(uds.dialogByUserID)
}
