package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthentication_MarshalJSON(t *testing.T) {
	t.Run("password", func(t *testing.T) {
		data, err := json.Marshal(PasswordAuth{Password: "hunter2"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"$type":"password","password":"hunter2"}`, string(data))
	})

	t.Run("session token", func(t *testing.T) {
		data, err := json.Marshal(TokenAuth{SessionToken: "tok"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"$type":"sessionToken","sessionToken":"tok"}`, string(data))
	})
}

func TestDecodeAuthentication(t *testing.T) {
	auth, err := DecodeAuthentication([]byte(`{"$type":"password","password":"p"}`))
	require.NoError(t, err)
	assert.Equal(t, PasswordAuth{Password: "p"}, auth)

	auth, err = DecodeAuthentication([]byte(`{"$type":"sessionToken","sessionToken":"t"}`))
	require.NoError(t, err)
	assert.Equal(t, TokenAuth{SessionToken: "t"}, auth)

	_, err = DecodeAuthentication([]byte(`{"password":"p"}`))
	assert.Error(t, err)
}

func TestLoginRequest_JSON(t *testing.T) {
	req := LoginRequest{
		Username:        "alice",
		Authentication:  TokenAuth{SessionToken: "abc"},
		SecretMachineID: "00000000-0000-0000-0000-000000000000",
		RememberMe:      true,
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"username":"alice",
		"authentication":{"$type":"sessionToken","sessionToken":"abc"},
		"secretMachineId":"00000000-0000-0000-0000-000000000000",
		"rememberMe":true
	}`, string(data))

	var decoded LoginRequest
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, req, decoded)
}

func TestLoginResponse_Decode(t *testing.T) {
	body := `{"entity":{"userId":"U-1","token":"tok","created":"2024-01-01T00:00:00",
		"expire":"2024-02-01T00:00:00","rememberMe":false,"sourceIP":"1.2.3.4"}}`

	var resp LoginResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "U-1", resp.Entity.UserID)
	assert.Equal(t, "tok", resp.Entity.Token)
	assert.Equal(t, "1.2.3.4", resp.Entity.SourceIP)
	assert.Empty(t, resp.ConfigFiles)
}
