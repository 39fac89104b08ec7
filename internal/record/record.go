// Package record defines the canonical audit record shared by every stage of
// the relay pipeline, plus the pure extractors that build partial records
// from Telegram wire objects.
package record

import "time"

// Action classifies a record as an inbound update, an outbound service
// request (getMe/setWebhook) or an outbound reply.
type Action string

const (
	ActionRequest  Action = "request"
	ActionResponse Action = "response"
	ActionUpdate   Action = "update"
)

// Method values used for inbound records; outbound records carry the
// Telegram API method name instead.
const (
	MethodMessage       = "message"
	MethodCallbackQuery = "callback_query"
	MethodError         = "error"
)

// Record is the unit persisted to the audit log and passed between pipeline
// stages. Integer fields default to 0 when unknown, string fields to "";
// a record is fully populated before it reaches the log writer and is never
// mutated afterward.
type Record struct {
	Time          time.Time `bson:"time" json:"time"`
	Action        Action    `bson:"action" json:"action"`
	Method        string    `bson:"method" json:"method"`
	UpdateID      int64     `bson:"update_id" json:"update_id"`
	UserID        int64     `bson:"user_id" json:"user_id"`
	Username      string    `bson:"username" json:"username"`
	UserFirstName string    `bson:"user_fname" json:"user_fname"`
	UserLastName  string    `bson:"user_lname" json:"user_lname"`
	MessageID     int64     `bson:"message_id" json:"message_id"`
	ChatID        int64     `bson:"chat_id" json:"chat_id"`
	ChatName      string    `bson:"chatname" json:"chatname"`
	Content       string    `bson:"content" json:"content"`
	Attachment    string    `bson:"attachment" json:"attachment"`
	Error         string    `bson:"error" json:"error"`

	// LogID is assigned by the log writer after a successful insert and is
	// never stored inside the document itself.
	LogID string `bson:"-" json:"log_id"`
}

// Merge copies every populated field of src into r, overwriting what is
// already there. Zero values in src leave r untouched, mirroring how
// extractor output is layered onto a record under construction.
func (r *Record) Merge(src Record) {
	if src.Action != "" {
		r.Action = src.Action
	}
	if src.Method != "" {
		r.Method = src.Method
	}
	if src.UpdateID != 0 {
		r.UpdateID = src.UpdateID
	}
	if src.UserID != 0 {
		r.UserID = src.UserID
	}
	if src.Username != "" {
		r.Username = src.Username
	}
	if src.UserFirstName != "" {
		r.UserFirstName = src.UserFirstName
	}
	if src.UserLastName != "" {
		r.UserLastName = src.UserLastName
	}
	if src.MessageID != 0 {
		r.MessageID = src.MessageID
	}
	if src.ChatID != 0 {
		r.ChatID = src.ChatID
	}
	if src.ChatName != "" {
		r.ChatName = src.ChatName
	}
	if src.Content != "" {
		r.Content = src.Content
	}
	if src.Attachment != "" {
		r.Attachment = src.Attachment
	}
	if src.Error != "" {
		r.Error = src.Error
	}
}
