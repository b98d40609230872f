package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultAppVersion is reported in statuses broadcast by this client.
const DefaultAppVersion = "0.0.0 of null"

type RSAParameters struct {
	Exponent string          `json:"Exponent"`
	Modulus  string          `json:"Modulus"`
	P        json.RawMessage `json:"P,omitempty"`
	Q        json.RawMessage `json:"Q,omitempty"`
	DP       json.RawMessage `json:"DP,omitempty"`
	DQ       json.RawMessage `json:"DQ,omitempty"`
	InverseQ json.RawMessage `json:"InverseQ,omitempty"`
	D        json.RawMessage `json:"D,omitempty"`
}

type UserSessionMetadata struct {
	SessionHash   string             `json:"sessionHash"`
	AccessLevel   SessionAccessLevel `json:"accessLevel"`
	SessionHidden bool               `json:"sessionHidden"`
	IsHost        bool               `json:"isHost"`
	BroadcastKey  *string            `json:"broadcastKey,omitempty"`
}

// UserStatus is a realtime presence record. CurrentSessionIndex is -1 when
// the user is in no session.
type UserStatus struct {
	UserID                string                `json:"userId"`
	UserSessionID         string                `json:"userSessionId"`
	SessionType           UserSessionType       `json:"sessionType"`
	OutputDevice          *OutputDevice         `json:"outputDevice,omitempty"`
	IsMobile              bool                  `json:"isMobile"`
	OnlineStatus          *OnlineStatus         `json:"onlineStatus,omitempty"`
	IsPresent             bool                  `json:"isPresent"`
	LastPresenceTimestamp *ResTime              `json:"lastPresenceTimestamp,omitempty"`
	LastStatusChange      ResTime               `json:"lastStatusChange"`
	HashSalt              *string               `json:"hashSalt,omitempty"`
	AppVersion            string                `json:"appVersion"`
	CompatibilityHash     *string               `json:"compatibilityHash"`
	PublicRSAKey          *RSAParameters        `json:"publicRSAKey,omitempty"`
	Sessions              []UserSessionMetadata `json:"sessions"`
	CurrentSessionIndex   int64                 `json:"currentSessionIndex"`
}

// NewUserStatus is the status this client announces for itself after login.
func NewUserStatus(userID string, now time.Time) UserStatus {
	stamp := NewResTime(now)
	device := OutputDeviceUnknown
	online := OnlineStatusOnline
	return UserStatus{
		UserID:                userID,
		UserSessionID:         uuid.NewString(),
		SessionType:           SessionTypeChatClient,
		OutputDevice:          &device,
		OnlineStatus:          &online,
		IsPresent:             true,
		LastPresenceTimestamp: &stamp,
		LastStatusChange:      stamp,
		AppVersion:            DefaultAppVersion,
		Sessions:              []UserSessionMetadata{},
		CurrentSessionIndex:   -1,
	}
}

func (s *UserStatus) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("status has no user id")
	}
	if s.CurrentSessionIndex < -1 || s.CurrentSessionIndex >= int64(len(s.Sessions)) {
		return fmt.Errorf("current session index %d out of range for %d sessions",
			s.CurrentSessionIndex, len(s.Sessions))
	}
	return nil
}

// CurrentSession returns the session the user is in, if any.
func (s *UserStatus) CurrentSession() (UserSessionMetadata, bool) {
	if s.CurrentSessionIndex < 0 || s.CurrentSessionIndex >= int64(len(s.Sessions)) {
		return UserSessionMetadata{}, false
	}
	return s.Sessions[s.CurrentSessionIndex], true
}

// Online returns the online status, treating an absent value as Offline.
func (s *UserStatus) Online() OnlineStatus {
	if s.OnlineStatus == nil {
		return OnlineStatusOffline
	}
	return *s.OnlineStatus
}

type BroadcastTarget struct {
	Group     BroadcastGroup `json:"group"`
	TargetIDs []string       `json:"targetIds"`
}

func PublicBroadcast() BroadcastTarget {
	return BroadcastTarget{Group: BroadcastPublic, TargetIDs: []string{}}
}
