package chat

import "errors"

// Error taxonomy for the sync engine. Callers branch with errors.Is; none of
// these are ever raised as panics, and none trigger automatic retries.
var (
	// ErrAbsentIdentity means the bearer credential was missing or could not
	// be decoded. The client degrades to an anonymous, read-only view.
	ErrAbsentIdentity = errors.New("no usable identity in credential")

	// ErrHistoryFetch means a history load failed for a reason other than
	// "no history exists". The conversation log is left untouched.
	ErrHistoryFetch = errors.New("history fetch failed")

	// ErrSendPersist means the send failed before the server confirmed it.
	// No message was appended anywhere.
	ErrSendPersist = errors.New("send not persisted")

	// ErrInvalidSend means the send request was a no-op: empty body after
	// trimming, no target, or an anonymous sender.
	ErrInvalidSend = errors.New("invalid send request")

	// ErrBroadcast means the post-persist broadcast failed. The message is
	// already durable and visible to the sender; this is logged, never fatal.
	ErrBroadcast = errors.New("broadcast failed")
)
