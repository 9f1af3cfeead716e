package domain

import "time"

// Room is a two-party conversation. Participants are stored in normalized
// order so that a pair of users maps to exactly one room.
type Room struct {
	ID            string    `json:"id"`
	Participants  [2]string `json:"participants"`
	LastMessage   string    `json:"lastMessage,omitempty"`
	LastMessageAt time.Time `json:"lastMessageAt,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// HasParticipant reports whether userID is one of the room's two participants.
func (r *Room) HasParticipant(userID string) bool {
	return r.Participants[0] == userID || r.Participants[1] == userID
}

// OtherParticipant returns the participant that is not userID.
func (r *Room) OtherParticipant(userID string) string {
	if r.Participants[0] == userID {
		return r.Participants[1]
	}
	return r.Participants[0]
}

// NormalizePair orders a participant pair lexicographically.
func NormalizePair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
