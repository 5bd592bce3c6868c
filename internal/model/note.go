package model

import "encoding/json"

type NoteType string

const (
	NoteTypeContent NoteType = "CONTENT"
	NoteTypeChat    NoteType = "CHAT"
)

func (t NoteType) Valid() bool {
	return t == NoteTypeContent || t == NoteTypeChat
}

type FieldKind string

const (
	FieldKindContent  FieldKind = "content"
	FieldKindDateTime FieldKind = "datetime"
)

// Field is a tagged union: a content field carries Content, a date-time
// field carries DateTime (unix millis). Kind decides which side is live.
type Field struct {
	Kind     FieldKind `json:"kind"`
	Label    string    `json:"label"`
	Content  string    `json:"content,omitempty"`
	DateTime int64     `json:"date_time,omitempty"`
}

type fieldAlias Field

// UnmarshalJSON accepts the tagged form and, for older clients that omit the
// kind, falls back to which payload key is present.
func (f *Field) UnmarshalJSON(data []byte) error {
	var raw struct {
		fieldAlias
		RawContent  *string `json:"content"`
		RawDateTime *int64  `json:"date_time"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Field(raw.fieldAlias)
	if raw.RawContent != nil {
		f.Content = *raw.RawContent
	}
	if raw.RawDateTime != nil {
		f.DateTime = *raw.RawDateTime
	}
	if f.Kind == "" {
		if raw.RawDateTime != nil && raw.RawContent == nil {
			f.Kind = FieldKindDateTime
		} else {
			f.Kind = FieldKindContent
		}
	}
	return nil
}

type Note struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	WorkspaceID string    `json:"workspace_id"`
	Fields      []Field   `json:"fields"`
	NoteType    NoteType  `json:"note_type"`
	Tags        []string  `json:"tags"`
	VectorData  []float32 `json:"vector_data,omitempty"`
	Ctime       int64     `json:"ctime"`
	Mtime       int64     `json:"mtime"`
}
