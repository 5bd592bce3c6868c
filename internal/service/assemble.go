package service

import (
	"strings"

	"github.com/reolin/wsnotes/internal/model"
)

// AssembleFields concatenates a note's fields into the embedding input.
// Every field contributes its label; content fields additionally contribute
// their content. Date-time fields carry no embeddable text beyond the label.
func AssembleFields(fields []model.Field) string {
	var b strings.Builder
	for _, field := range fields {
		b.WriteString("field label: ")
		b.WriteString(field.Label)
		b.WriteString(" ")
		switch field.Kind {
		case model.FieldKindContent:
			b.WriteString("field content: ")
			b.WriteString(field.Content)
			b.WriteString(" ")
		case model.FieldKindDateTime:
		}
	}
	return b.String()
}
