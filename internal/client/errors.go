package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Kind classifies a failed remote call by the operation that issued it.
type Kind int

const (
	KindConnection Kind = iota + 1
	KindDiscovery
	KindPreview
	KindIngestion
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindDiscovery:
		return "discovery"
	case KindPreview:
		return "preview"
	case KindIngestion:
		return "ingestion"
	}
	return "unknown"
}

// Fallback messages, used when the backend gave no error text.
const (
	fallbackConnect = "connection request failed"
	fallbackTables  = "failed to load tables"
	fallbackColumns = "failed to load columns"
	fallbackPreview = "failed to load preview"
	fallbackIngest  = "ingestion request failed"
)

// Error is the normalized failure of a remote call. Message is the backend's
// error text when it sent one, otherwise a fixed per-call description; Err
// carries the transport or decoding cause, if any.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a remote error of kind k.
func IsKind(err error, k Kind) bool {
	var remote *Error
	return errors.As(err, &remote) && remote.Kind == k
}

// remoteMessage inspects the "error" member of a response. Any truthy value
// counts as an error; the text is empty when the value is not a string.
func remoteMessage(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}

	switch val := v.(type) {
	case nil:
		return "", false
	case bool:
		return "", val
	case float64:
		return "", val != 0
	case string:
		return strings.TrimSpace(val), val != ""
	default:
		return string(raw), true
	}
}
