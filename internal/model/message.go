package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type MessageType string

const (
	MessageTypeText          MessageType = "Text"
	MessageTypeObject        MessageType = "Object"
	MessageTypeSound         MessageType = "Sound"
	MessageTypeSessionInvite MessageType = "SessionInvite"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeObject, MessageTypeSound, MessageTypeSessionInvite:
		return true
	}
	return false
}

func (t *MessageType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	mt := MessageType(raw)
	if !mt.Valid() {
		return fmt.Errorf("unknown message type %q", raw)
	}
	*t = mt
	return nil
}

// Message is one entry of a conversation. OtherID is the non-self
// participant and keys the message cache.
type Message struct {
	ID             string      `json:"id"`
	SenderID       string      `json:"senderId"`
	RecipientID    string      `json:"recipientId"`
	OtherID        string      `json:"otherId"`
	MessageType    MessageType `json:"messageType"`
	Content        string      `json:"content"`
	SendTime       ResTime     `json:"sendTime"`
	LastUpdateTime ResTime     `json:"lastUpdateTime"`
	ReadTime       *ResTime    `json:"readTime,omitempty"`
	IsMigrated     bool        `json:"isMigrated"`
	OwnerID        string      `json:"ownerId"`
}

// NewTextMessage builds an outbound text message owned by the sender. The
// server assigns the id.
func NewTextMessage(senderID, recipientID, content string, now time.Time) Message {
	stamp := NewResTime(now)
	return Message{
		SenderID:       senderID,
		RecipientID:    recipientID,
		OtherID:        recipientID,
		MessageType:    MessageTypeText,
		Content:        content,
		SendTime:       stamp,
		LastUpdateTime: stamp,
		IsMigrated:     true,
		OwnerID:        senderID,
	}
}

func (m *Message) IsRead() bool {
	return m.ReadTime != nil && !m.ReadTime.IsZero()
}

// ArchivedMessage is the persisted form of a Message.
type ArchivedMessage struct {
	ID             string     `db:"id"`
	OwnerID        string     `db:"owner_id"`
	OtherID        string     `db:"other_id"`
	SenderID       string     `db:"sender_id"`
	RecipientID    string     `db:"recipient_id"`
	MessageType    string     `db:"message_type"`
	Content        string     `db:"content"`
	SendTime       time.Time  `db:"send_time"`
	LastUpdateTime time.Time  `db:"last_update_time"`
	ReadTime       *time.Time `db:"read_time"`
	IsMigrated     bool       `db:"is_migrated"`
	ArchivedAt     time.Time  `db:"archived_at"`
}

func ArchiveMessage(m Message) ArchivedMessage {
	archived := ArchivedMessage{
		ID:             m.ID,
		OwnerID:        m.OwnerID,
		OtherID:        m.OtherID,
		SenderID:       m.SenderID,
		RecipientID:    m.RecipientID,
		MessageType:    string(m.MessageType),
		Content:        m.Content,
		SendTime:       m.SendTime.Time,
		LastUpdateTime: m.LastUpdateTime.Time,
		IsMigrated:     m.IsMigrated,
	}
	if m.IsRead() {
		read := m.ReadTime.Time
		archived.ReadTime = &read
	}
	return archived
}

func (a ArchivedMessage) ToMessage() Message {
	msg := Message{
		ID:             a.ID,
		SenderID:       a.SenderID,
		RecipientID:    a.RecipientID,
		OtherID:        a.OtherID,
		MessageType:    MessageType(a.MessageType),
		Content:        a.Content,
		SendTime:       NewResTime(a.SendTime),
		LastUpdateTime: NewResTime(a.LastUpdateTime),
		IsMigrated:     a.IsMigrated,
		OwnerID:        a.OwnerID,
	}
	if a.ReadTime != nil {
		read := NewResTime(*a.ReadTime)
		msg.ReadTime = &read
	}
	return msg
}
