package record

import (
	"encoding/json"

	"github.com/go-telegram/bot/models"
)

// ChatFields extracts the chat-related fields of a record from a Telegram
// chat object. Absent fields stay at their zero defaults. When a chat
// carries both a title and a username, the username wins for ChatName: the
// assignments run in that order on purpose and callers depend on it.
func ChatFields(chat *models.Chat) Record {
	if chat == nil {
		return Record{}
	}

	out := Record{ChatID: chat.ID}

	if chat.Title != "" {
		out.ChatName = chat.Title
	}
	if chat.Username != "" {
		out.ChatName = chat.Username
	}

	out.Username = chat.Username
	out.UserFirstName = chat.FirstName
	out.UserLastName = chat.LastName

	return out
}

// UserFields extracts the user-related fields of a record from a Telegram
// user object. Absent fields stay at their zero defaults.
func UserFields(user *models.User) Record {
	if user == nil {
		return Record{}
	}

	return Record{
		UserID:        user.ID,
		Username:      user.Username,
		UserFirstName: user.FirstName,
		UserLastName:  user.LastName,
	}
}

// EncodeEntities serializes a message's formatting entities into the
// attachment field. An empty entity list yields an empty string rather than
// "[]" so that attachment emptiness keeps meaning "no entities".
func EncodeEntities(entities []models.MessageEntity) string {
	if len(entities) == 0 {
		return ""
	}

	raw, err := json.Marshal(entities)
	if err != nil {
		return ""
	}

	return string(raw)
}

// DecodeEntities is the inverse of EncodeEntities. Malformed or empty input
// yields a nil slice, never an error: a record with a garbage attachment
// simply carries no detectable entities.
func DecodeEntities(attachment string) []models.MessageEntity {
	if attachment == "" {
		return nil
	}

	var entities []models.MessageEntity
	if err := json.Unmarshal([]byte(attachment), &entities); err != nil {
		return nil
	}

	return entities
}
