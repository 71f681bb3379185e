package identity

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatline-im/chatline/internal/chat"
)

// forgeToken builds an unsigned JWT with the given payload claims. Resolve
// never checks the signature, so a fixed dummy one is enough.
func forgeToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	enc := base64.RawURLEncoding
	return enc.EncodeToString(header) + "." + enc.EncodeToString(payload) + "." + enc.EncodeToString([]byte("sig"))
}

func TestResolve(t *testing.T) {
	token := forgeToken(t, map[string]any{"userId": 10, "userName": "alice"})

	id, err := Resolve(token)
	require.NoError(t, err)
	require.Equal(t, chat.Identity{UserID: 10, UserName: "alice"}, id)
	require.True(t, id.Known())
}

func TestResolveStringUserID(t *testing.T) {
	token := forgeToken(t, map[string]any{"userId": "10", "userName": "alice"})

	id, err := Resolve(token)
	require.NoError(t, err)
	require.Equal(t, int64(10), id.UserID)
}

func TestResolveFailsSoftly(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty credential", ""},
		{"not a jwt", "garbage"},
		{"payload not base64", "a.!!!.c"},
		{"missing userId claim", forgeToken(t, map[string]any{"userName": "alice"})},
		{"zero userId claim", forgeToken(t, map[string]any{"userId": 0, "userName": "alice"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Resolve(tt.token)
			require.ErrorIs(t, err, chat.ErrAbsentIdentity)
			require.False(t, id.Known())
		})
	}
}
