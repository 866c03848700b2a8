package models

import "time"

const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// ChatMessage is one side of a companion exchange.
type ChatMessage struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Message   string    `db:"message" json:"message"`
	Sender    string    `db:"sender" json:"sender"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
