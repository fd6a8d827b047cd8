package model

import "time"

type StylistContext struct {
	Age             int    `json:"age,omitempty" firestore:"age,omitempty"`
	Gender          string `json:"gender,omitempty" firestore:"gender,omitempty"`
	StylePreference string `json:"stylePreference,omitempty" firestore:"stylePreference,omitempty"`
	Occasion        string `json:"occasion,omitempty" firestore:"occasion,omitempty"`
}

type StylistEntry struct {
	ID        string
	UserID    string
	Query     string
	Context   StylistContext
	Response  string
	Provider  string
	CreatedAt time.Time
}

// StylistFeedback is a 1..5 rating a user leaves on one of their entries.
type StylistFeedback struct {
	ID        string
	UserID    string
	EntryID   string
	Rating    int
	Comment   string
	CreatedAt time.Time
}
