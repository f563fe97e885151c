package model

// DecodeError records an invocation that could not be classified or recorded.
type DecodeError struct {
	Height   uint64 `json:"height"`
	TxHash   string `json:"tx_hash"`
	MsgIndex uint32 `json:"msg_index"`
	Contract string `json:"contract"`
	Action   string `json:"action,omitempty"`
	Error    string `json:"error"`
}
