package chat

// Identity is the viewer's identity for the session, derived once from the
// bearer credential. The zero value means anonymous: the client can read a
// shared view but cannot send or attribute messages.
type Identity struct {
	UserID   int64
	UserName string
}

// Known reports whether the identity was resolved from a credential.
func (i Identity) Known() bool {
	return i.UserID != 0
}
