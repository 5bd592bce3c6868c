package model

// Workspace is the read model consumed from the workspace collaborator.
// The only column written back by this service is LatestChatMessageTs.
type Workspace struct {
	ID                  string   `json:"id"`
	OwnerID             string   `json:"owner_id"`
	Members             []string `json:"members"`
	BannedMembers       []string `json:"banned_members"`
	LatestChatMessageTs int64    `json:"latest_chat_message_ts"`
}

func (w *Workspace) HasMember(userID string) bool {
	for _, id := range w.Members {
		if id == userID {
			return true
		}
	}
	return false
}

func (w *Workspace) HasBanned(userID string) bool {
	for _, id := range w.BannedMembers {
		if id == userID {
			return true
		}
	}
	return false
}
