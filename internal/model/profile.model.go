package model

import "strings"

// SelfName is the display sentinel some clients store in participant lists
// in place of the acting user's name.
const SelfName = "You"

type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
}

func (p Profile) DisplayName() string {
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	if p.Email != "" {
		return p.Email
	}
	return p.ID
}
