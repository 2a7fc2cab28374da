package model

type MessageType string

const (
	MessageMotivational MessageType = "motivational"
	MessageTip          MessageType = "tip"
	MessageFunFact      MessageType = "fun-fact"
	MessageCreative     MessageType = "creative"
)

// AITaskMessage — эфемерное сообщение-поддержка для задачи, живет только в памяти.
type AITaskMessage struct {
	Message string      `json:"message"`
	Type    MessageType `json:"type"`
}
