package model

import (
	"encoding/json"
	"fmt"
)

// Authentication discriminants understood by the userSessions endpoint.
const (
	AuthTypePassword     = "password"
	AuthTypeSessionToken = "sessionToken"
)

// Authentication is the credential variant of a login request: either
// PasswordAuth or TokenAuth.
type Authentication interface {
	AuthType() string
}

type PasswordAuth struct {
	Password string
}

func (PasswordAuth) AuthType() string { return AuthTypePassword }

func (a PasswordAuth) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string `json:"$type"`
		Password string `json:"password"`
	}{AuthTypePassword, a.Password})
}

type TokenAuth struct {
	SessionToken string
}

func (TokenAuth) AuthType() string { return AuthTypeSessionToken }

func (a TokenAuth) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type         string `json:"$type"`
		SessionToken string `json:"sessionToken"`
	}{AuthTypeSessionToken, a.SessionToken})
}

// DecodeAuthentication dispatches on the "$type" field.
func DecodeAuthentication(data []byte) (Authentication, error) {
	var tagged struct {
		Type         string `json:"$type"`
		Password     string `json:"password"`
		SessionToken string `json:"sessionToken"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, err
	}
	switch tagged.Type {
	case AuthTypePassword:
		return PasswordAuth{Password: tagged.Password}, nil
	case AuthTypeSessionToken:
		return TokenAuth{SessionToken: tagged.SessionToken}, nil
	default:
		return nil, fmt.Errorf("unknown authentication type %q", tagged.Type)
	}
}

type LoginRequest struct {
	Username        string         `json:"username"`
	Authentication  Authentication `json:"authentication"`
	SecretMachineID string         `json:"secretMachineId"`
	RememberMe      bool           `json:"rememberMe"`
}

func (r *LoginRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Username        string          `json:"username"`
		Authentication  json.RawMessage `json:"authentication"`
		SecretMachineID string          `json:"secretMachineId"`
		RememberMe      bool            `json:"rememberMe"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	auth, err := DecodeAuthentication(raw.Authentication)
	if err != nil {
		return err
	}
	*r = LoginRequest{
		Username:        raw.Username,
		Authentication:  auth,
		SecretMachineID: raw.SecretMachineID,
		RememberMe:      raw.RememberMe,
	}
	return nil
}

type SessionEntity struct {
	UserID              string `json:"userId"`
	Token               string `json:"token"`
	Created             string `json:"created"`
	Expire              string `json:"expire"`
	RememberMe          bool   `json:"rememberMe"`
	SecretMachineIDHash string `json:"secretMachineIdHash"`
	SecretMachineIDSalt string `json:"secretMachineIdSalt"`
	UIDHash             string `json:"uidHash"`
	UIDSalt             string `json:"uidSalt"`
	OriginalLoginType   string `json:"originalLoginType"`
	OriginalLoginID     string `json:"originalLoginId"`
	LogoutURLClientSide bool   `json:"logoutUrlClientSide"`
	SessionLoginCounter uint64 `json:"sessionLoginCounter"`
	SourceIP            string `json:"sourceIP"`
	UserAgent           string `json:"userAgent"`
	IsMachineBound      bool   `json:"isMachineBound"`
	PartitionKey        string `json:"partitionKey"`
	RowKey              string `json:"rowKey"`
}

type ConfigFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type LoginResponse struct {
	Entity      SessionEntity `json:"entity"`
	ConfigFiles []ConfigFile  `json:"configFiles,omitempty"`
}
