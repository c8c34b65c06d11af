// Package model defines the records persisted by the catalog and the
// derived views computed from them.
//
// Records are flat structs with JSON tags; the JSON shape is the persisted
// format (see catalog's key layout), so renaming a tag is a storage migration.
package model

import "time"

// User represents a registered reader.
//
// Email is stored trimmed and lower-cased so lookups are case-insensitive.
// Password holds whatever representation the configured auth.PasswordHasher
// produced (a bcrypt hash by default), never the plaintext.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Password     string    `json:"password"`
	JoinDate     time.Time `json:"joinDate"`
	ProfileImage string    `json:"profileImage,omitempty"`
}

// DisplayName returns the name shown next to a user's reviews.
func (u *User) DisplayName() string {
	if u == nil || u.Username == "" {
		return "Former member"
	}
	return u.Username
}

// Profile is the part of a User that is safe to show other readers.
type Profile struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	JoinDate     time.Time `json:"joinDate"`
	ProfileImage string    `json:"profileImage,omitempty"`
}

// Profile returns the public view of u.
func (u User) Profile() Profile {
	return Profile{
		ID:           u.ID,
		Username:     u.Username,
		JoinDate:     u.JoinDate,
		ProfileImage: u.ProfileImage,
	}
}
