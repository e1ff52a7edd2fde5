package backend

import (
	"bytes"
	"encoding/json"
)

// decodeEnvelope accepts either a bare JSON value or one wrapped as {"data": ...}.
func decodeEnvelope(raw []byte, dest interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var wrapped struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Data) > 0 && !bytes.Equal(wrapped.Data, []byte("null")) {
			return json.Unmarshal(wrapped.Data, dest)
		}
	}
	return json.Unmarshal(raw, dest)
}

func upstreamMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
