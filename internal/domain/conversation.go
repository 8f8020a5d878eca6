package domain

// Conversation is a two-party chat thread.
type Conversation struct {
	ConversationID string    `json:"id" dynamodbav:"conversation_id"`
	Participants   []string  `json:"participants" dynamodbav:"participants"`
	ListingID      string    `json:"listing_id,omitempty" dynamodbav:"listing_id,omitempty"`
	CreatedAt      Timestamp `json:"created" dynamodbav:"created_at"`
}

// OtherParticipant returns the participant that is not senderID. ok is false
// unless exactly one such participant exists.
func (c *Conversation) OtherParticipant(senderID string) (string, bool) {
	var other string
	found := 0
	for _, p := range c.Participants {
		if p == "" || p == senderID {
			continue
		}
		if p != other {
			other = p
			found++
		}
	}
	if found != 1 {
		return "", false
	}
	return other, true
}

// Message is a chat message stored under its conversation.
type Message struct {
	ConversationID string    `json:"conversation_id" dynamodbav:"conversation_id"`
	MessageID      string    `json:"id" dynamodbav:"message_id"`
	SenderID       string    `json:"sender_id" dynamodbav:"sender_id"`
	Text           string    `json:"text" dynamodbav:"text"`
	CreatedAt      Timestamp `json:"created" dynamodbav:"created_at"`
}
