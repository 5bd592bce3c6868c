package model

type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Avatar      string `json:"avatar"`
	DeviceToken string `json:"device_token,omitempty"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`
}

// UserSummary is the author-resolution value returned alongside notes.
type UserSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
}
