// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data. There is no inheritance; Go favours
// composition, so a Content record is a plain value that every layer passes around.
package model

import "time"

// Content types the application itself produces. The type field is free-form,
// so callers may store any other classification they like.
const (
	TypeText  = "text"
	TypeImage = "image"
	TypeFile  = "file"
)

// Content represents one generated or saved piece of content.
//
// JSON TAGS:
// The browser client was written against a document store and reads the
// identifier from "_id", so we keep that key on the wire even though the Go
// field is a plain ID string. Every other key is camelCase.
//
// MUTABILITY:
// Only IsFavorite changes after creation (via the favorite toggle).
// ID and CreatedAt are assigned once, at insertion, and never rewritten.
type Content struct {
	ID         string    `json:"_id"`
	Topic      string    `json:"topic"`
	Type       string    `json:"type"`
	Content    string    `json:"content"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	IsFavorite bool      `json:"isFavorite"`
	CreatedAt  time.Time `json:"createdAt"`
}

// StockImage is a single stock photo returned by an image search.
type StockImage struct {
	URL          string `json:"url"`
	Photographer string `json:"photographer"`
	Alt          string `json:"alt"`
}
