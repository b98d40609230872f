package model

import (
	"encoding/json"
	"fmt"
)

// OnlineStatus is ordered: Offline < Invisible < Away < Busy < Online < Sociable.
type OnlineStatus int

const (
	OnlineStatusOffline OnlineStatus = iota
	OnlineStatusInvisible
	OnlineStatusAway
	OnlineStatusBusy
	OnlineStatusOnline
	OnlineStatusSociable
)

var onlineStatusNames = []string{"Offline", "Invisible", "Away", "Busy", "Online", "Sociable"}

func (s OnlineStatus) String() string {
	if s < 0 || int(s) >= len(onlineStatusNames) {
		return fmt.Sprintf("OnlineStatus(%d)", int(s))
	}
	return onlineStatusNames[s]
}

func (s OnlineStatus) MarshalJSON() ([]byte, error) {
	if s < 0 || int(s) >= len(onlineStatusNames) {
		return nil, fmt.Errorf("invalid online status %d", int(s))
	}
	return json.Marshal(onlineStatusNames[s])
}

func (s *OnlineStatus) UnmarshalJSON(data []byte) error {
	idx, err := unmarshalEnum(data, onlineStatusNames)
	if err != nil {
		return fmt.Errorf("online status: %w", err)
	}
	*s = OnlineStatus(idx)
	return nil
}

type UserSessionType string

const (
	SessionTypeUnknown         UserSessionType = "Unknown"
	SessionTypeGraphicalClient UserSessionType = "GraphicalClient"
	SessionTypeChatClient      UserSessionType = "ChatClient"
	SessionTypeHeadless        UserSessionType = "Headless"
	SessionTypeBot             UserSessionType = "Bot"
)

type OutputDevice string

const (
	OutputDeviceUnknown OutputDevice = "Unknown"
	OutputDeviceScreen  OutputDevice = "Screen"
	OutputDeviceVR      OutputDevice = "VR"
	OutputDeviceCamera  OutputDevice = "Camera"
)

type SessionAccessLevel string

const (
	AccessLevelPrivate         SessionAccessLevel = "Private"
	AccessLevelLAN             SessionAccessLevel = "LAN"
	AccessLevelContacts        SessionAccessLevel = "Contacts"
	AccessLevelContactsPlus    SessionAccessLevel = "ContactsPlus"
	AccessLevelRegisteredUsers SessionAccessLevel = "RegisteredUsers"
	AccessLevelAnyone          SessionAccessLevel = "Anyone"
)

// BroadcastGroup is serialized as its numeric value.
type BroadcastGroup uint8

const (
	BroadcastPublic BroadcastGroup = iota
	BroadcastAllContacts
	BroadcastSpecificContacts
	BroadcastKey
	BroadcastConnectionIDs
)

func unmarshalEnum(data []byte, names []string) (int, error) {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		// Some payloads carry the numeric form.
		var n int
		if numErr := json.Unmarshal(data, &n); numErr != nil {
			return 0, err
		}
		if n < 0 || n >= len(names) {
			return 0, fmt.Errorf("value %d out of range", n)
		}
		return n, nil
	}
	for i, name := range names {
		if name == raw {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown value %q", raw)
}
