// package services defines DTOs and interfaces for the streaming API
package services

import (
	"context"
)

// Catalog defines read operations against the streaming catalog.
type Catalog interface {
	// Songs retrieves one page of the global song feed.
	Songs(ctx context.Context, page int) (*SongPage, error)

	// ArtistSongs retrieves every song for the given artist.
	ArtistSongs(ctx context.Context, artistID int) ([]Track, error)

	// Sections retrieves the curated home sections.
	Sections(ctx context.Context) ([]Section, error)
}

// Authenticator defines the session lifecycle operations.
type Authenticator interface {
	// Login exchanges credentials for an authenticated session.
	Login(ctx context.Context, username, password string) (*User, error)

	// Me returns the user behind the current session.
	Me(ctx context.Context) (*User, error)

	// Refresh rotates the token pair using the refresh token cookie.
	Refresh(ctx context.Context) error

	// Logout revokes the session server-side and clears local cookies.
	Logout(ctx context.Context) error
}

// Track represents a song in the catalog feed.
type Track struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	ArtistID   int    `json:"artistId"`
	ArtistName string `json:"artistName"`
	StreamURL  string `json:"songUrl"`
	ArtworkURL string `json:"imageUrl"`
	Duration   int    `json:"duration"` // seconds
	PlayCount  int    `json:"playCount"`
}

// SongPage represents one page of the global song feed.
type SongPage struct {
	Items       []Track `json:"items"`
	Page        int     `json:"page"`
	PageSize    int     `json:"pageSize"`
	TotalPages  int     `json:"totalPages"`
	HasNextPage bool    `json:"hasNextPage"`
}

// Section represents a curated row on the home surface (e.g. "Trending now").
type Section struct {
	ID     int     `json:"id"`
	Title  string  `json:"title"`
	Tracks []Track `json:"tracks"`
}

// User represents the account behind a session.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == "admin"
}
