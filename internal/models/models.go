// Package models holds the gorm models persisted by circlemind.
package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// JSONList encodes a list column for map based updates, which bypass the json serializer of
// the model field.
func JSONList(values []string) string {
	if values == nil {
		values = []string{}
	}
	b, _ := json.Marshal(values)
	return string(b)
}

// All returns every model, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Profile{},
		&Post{},
		&PostAppeal{},
		&Comment{},
		&Reaction{},
		&Story{},
		&StoryView{},
		&UserBlock{},
		&Friend{},
		&Notification{},
	}
}
