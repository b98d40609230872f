package model

import "encoding/json"

type UserProfile struct {
	IconURL       string            `json:"iconUrl"`
	DisplayBadges []json.RawMessage `json:"displayBadges"`
}

type UserInfo struct {
	ID                 string       `json:"id"`
	Username           string       `json:"username"`
	NormalizedUsername string       `json:"normalizedUsername"`
	RegistrationDate   string       `json:"registrationDate"`
	IsVerified         bool         `json:"isVerified"`
	IsLocked           bool         `json:"isLocked"`
	SupressBanEvasion  bool         `json:"supressBanEvasion"`
	TwoFactorLogin     bool         `json:"2fa_login"`
	Profile            *UserProfile `json:"profile,omitempty"`
}

type Contact struct {
	ID                    string       `json:"id"`
	ContactUsername       string       `json:"contactUsername"`
	ContactStatus         string       `json:"contactStatus"`
	IsAccepted            bool         `json:"isAccepted"`
	Profile               *UserProfile `json:"profile,omitempty"`
	LatestMessageTime     ResTime      `json:"latestMessageTime"`
	IsMigrated            bool         `json:"isMigrated"`
	IsCounterpartMigrated bool         `json:"isCounterpartMigrated"`
	OwnerID               string       `json:"ownerId"`
}
