package model

import "time"

type User struct {
	ID              string          `json:"id"`
	PrimaryUsername string          `json:"primary_username"`
	DisplayName     *string         `json:"display_name"`
	PasswordHash    string          `json:"-"`
	PGPKey          string          `json:"-"`
	EmailForwarding EmailForwarding `json:"email_forwarding"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// DisplayNameOrUsername returns the display name when set, else the primary username.
func (u *User) DisplayNameOrUsername() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return u.PrimaryUsername
}

func (u *User) HasPGPKey() bool {
	return u.PGPKey != ""
}

// EmailForwarding holds where and how received messages are relayed.
type EmailForwarding struct {
	Enabled      bool         `json:"enabled"`
	EmailAddress string       `json:"email_address"`
	CustomSMTP   bool         `json:"custom_smtp"`
	SMTP         SMTPSettings `json:"smtp"`
}
