package models

import "time"

// Document describes an attachment stored out-of-band. The stored
// filename is collision-resistant; the original filename is kept
// separately for display and download headers.
type Document struct {
	URL              string `bson:"url" json:"url"`
	Filename         string `bson:"filename" json:"filename"`
	OriginalFilename string `bson:"original_filename" json:"originalFilename"`
	MimeType         string `bson:"mimetype" json:"mimetype"`
}

// Message is immutable after creation except for the seen/seenAt pair,
// which only ever transitions false -> true.
type Message struct {
	ID         string     `bson:"_id,omitempty" json:"id"`
	SenderID   string     `bson:"sender_id" json:"senderId"`
	ReceiverID string     `bson:"receiver_id" json:"receiverId"`
	Text       string     `bson:"text" json:"text"`
	Document   *Document  `bson:"document,omitempty" json:"document,omitempty"`
	Seen       bool       `bson:"seen" json:"seen"`
	SeenAt     *time.Time `bson:"seen_at,omitempty" json:"seenAt,omitempty"`
	CreatedAt  time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updatedAt"`
}

// InConversation reports whether the message belongs to the
// conversation between a and b, in either direction.
func (m *Message) InConversation(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) ||
		(m.SenderID == b && m.ReceiverID == a)
}
