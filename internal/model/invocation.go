package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Attribute is a single key/value emitted by contract execution.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event groups attributes by event type.
type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// InvocationRecord is one executed contract message as produced by the raw
// log reader, stored one per JSONL line.
type InvocationRecord struct {
	Height    uint64          `json:"height"`
	TxHash    string          `json:"tx_hash"`
	MsgIndex  uint32          `json:"msg_index"`
	Sender    string          `json:"sender"`
	Contract  string          `json:"contract"`
	Msg       json.RawMessage `json:"msg"`
	Events    []Event         `json:"events"`
	Fee       string          `json:"fee,omitempty"`
	Timestamp uint64          `json:"timestamp"`
}

// Time returns the block time of the invocation in UTC.
func (r InvocationRecord) Time() time.Time {
	return time.Unix(int64(r.Timestamp), 0).UTC()
}

// Action returns the tagged-union key of the executed message, e.g. "swap".
func (r InvocationRecord) Action() (string, json.RawMessage, error) {
	var msg map[string]json.RawMessage
	if err := json.Unmarshal(r.Msg, &msg); err != nil {
		return "", nil, fmt.Errorf("decode msg: %w", err)
	}
	if len(msg) != 1 {
		return "", nil, fmt.Errorf("msg must have exactly one action, got %d", len(msg))
	}
	for name, body := range msg {
		return name, body, nil
	}
	return "", nil, nil
}
