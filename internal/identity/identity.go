// Package identity extracts the viewer's identity from a bearer credential.
package identity

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chatline-im/chatline/internal/chat"
)

// Resolve decodes the payload segment of a JWT bearer credential without
// verifying its signature; verification is the server's job on every call
// that carries the token. Any missing or malformed credential yields the
// zero Identity and chat.ErrAbsentIdentity so callers degrade to an
// anonymous view instead of failing hard.
func Resolve(credential string) (chat.Identity, error) {
	if credential == "" {
		return chat.Identity{}, chat.ErrAbsentIdentity
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return chat.Identity{}, fmt.Errorf("%w: %v", chat.ErrAbsentIdentity, err)
	}

	userID, err := claimInt64(claims, "userId")
	if err != nil {
		return chat.Identity{}, fmt.Errorf("%w: %v", chat.ErrAbsentIdentity, err)
	}

	userName, _ := claims["userName"].(string)

	id := chat.Identity{UserID: userID, UserName: userName}
	if !id.Known() {
		return chat.Identity{}, chat.ErrAbsentIdentity
	}
	return id, nil
}

// claimInt64 reads a numeric claim that may arrive as a JSON number,
// json.Number or string depending on how the server signed the token.
func claimInt64(claims jwt.MapClaims, name string) (int64, error) {
	v, ok := claims[name]
	if !ok {
		return 0, fmt.Errorf("claim %q missing", name)
	}
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case json.Number:
		return n.Int64()
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("claim %q has unsupported type %T", name, v)
	}
}
