package model

// SessionInfo is a pushed world/session listing entry, keyed by SessionID.
type SessionInfo struct {
	Name                string   `json:"name"`
	Description         *string  `json:"description,omitempty"`
	Tags                []string `json:"tags"`
	SessionID           string   `json:"sessionId"`
	NormalizedSessionID string   `json:"normalizedSessionId"`
	HostUserID          *string  `json:"hostUserId,omitempty"`
	HostUserSessionID   *string  `json:"hostUserSessionId,omitempty"`
	HostMachineID       string   `json:"hostMachineId"`
	HostUsername        string   `json:"hostUsername"`
	CompatibilityHash   string   `json:"compatibilityHash"`
	UniverseID          *string  `json:"universeId,omitempty"`
	AppVersion          string   `json:"appVersion"`
	HeadlessHost        bool     `json:"headlessHost"`
	SessionURLs         []string `json:"sessionURLs"`
	ParentSessionIDs    []string `json:"parentSessionIds"`
	NestedSessionIDs    []string `json:"nestedSessionIds"`
	ThumbnailURL        *string  `json:"thumbnailUrl,omitempty"`
	JoinedUsers         uint32   `json:"joinedUsers"`
	ActiveUsers         uint32   `json:"activeUsers"`
	TotalJoinedUsers    uint32   `json:"totalJoinedUsers"`
	TotalActiveUsers    uint32   `json:"totalActiveUsers"`
	MaxUsers            uint32   `json:"maxUsers"`
	MobileFriendly      bool     `json:"mobileFriendly"`
	SessionBeginTime    ResTime  `json:"sessionBeginTime"`
	LastUpdate          string   `json:"lastUpdate"`
	HideFromListing     bool     `json:"hideFromListing"`
	BroadcastKey        *string  `json:"broadcastKey,omitempty"`
	HasEnded            bool     `json:"hasEnded"`
	IsValid             bool     `json:"isValid"`
}

// Listed reports whether the session should appear in a session browser.
func (s *SessionInfo) Listed() bool {
	return s.IsValid && !s.HasEnded && !s.HideFromListing
}

func (s *SessionInfo) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
