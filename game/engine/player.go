package engine

import "github.com/google/uuid"

// Player is one seat at the table. Identity is the opaque ID; the seat
// index and display name are attributes, not identity.
type Player struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
	Name  string `json:"name,omitempty"`
}

// NewPlayer creates a player for the given seat.
func NewPlayer(index int, name string) Player {
	return Player{ID: uuid.New().String(), Index: index, Name: name}
}

// Equal reports whether two players are the same seat holder (by ID only).
func (p Player) Equal(other Player) bool {
	return p.ID == other.ID
}
