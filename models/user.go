package models

// User is the profile slice the order views need. Account management
// lives elsewhere; this side only ever reads.
type User struct {
	UserID string `bson:"userid" json:"userId"`
	Name   string `bson:"name" json:"name"`
	Email  string `bson:"email,omitempty" json:"email,omitempty"`
	Phone  string `bson:"phone,omitempty" json:"phone,omitempty"`
}
