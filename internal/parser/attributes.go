package parser

import (
	"fmt"
	"strings"

	"mirrorScope/internal/model"
)

// AttributeLog is a read-only view over the attributes of one event type.
type AttributeLog struct {
	attrs []model.Attribute
}

// FindAttributes collects the attributes of every event of the given type,
// in emission order.
func FindAttributes(events []model.Event, eventType string) AttributeLog {
	var attrs []model.Attribute
	for _, event := range events {
		if event.Type != eventType {
			continue
		}
		attrs = append(attrs, event.Attributes...)
	}
	return AttributeLog{attrs: attrs}
}

// Find returns the first value for key.
func (l AttributeLog) Find(key string) (string, bool) {
	for _, attr := range l.attrs {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// Get returns the first value for key, or "" when absent.
func (l AttributeLog) Get(key string) string {
	value, _ := l.Find(key)
	return value
}

// Require returns the first value for key or an error naming the key.
func (l AttributeLog) Require(key string) (string, error) {
	value, ok := l.Find(key)
	if !ok || value == "" {
		return "", fmt.Errorf("missing attribute %q", key)
	}
	return value, nil
}

// Len reports the number of attributes in the view.
func (l AttributeLog) Len() int {
	return len(l.attrs)
}

// TokenAmount is an amount paired with its denom or token address.
type TokenAmount struct {
	Token  string
	Amount string
}

// SplitTokenAmount splits "1000uusd" into its leading integer and denom.
func SplitTokenAmount(value string) (TokenAmount, error) {
	value = strings.TrimSpace(value)
	i := 0
	for i < len(value) && value[i] >= '0' && value[i] <= '9' {
		i++
	}
	if i == 0 {
		return TokenAmount{}, fmt.Errorf("invalid token amount %q: missing amount", value)
	}
	if i == len(value) {
		return TokenAmount{}, fmt.Errorf("invalid token amount %q: missing denom", value)
	}
	return TokenAmount{Token: value[i:], Amount: value[:i]}, nil
}

// SplitTokenAmounts parses a comma-separated list such as "100uusd, 50token".
func SplitTokenAmounts(value string) ([]TokenAmount, error) {
	parts := strings.Split(value, ",")
	out := make([]TokenAmount, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		amount, err := SplitTokenAmount(part)
		if err != nil {
			return nil, err
		}
		out = append(out, amount)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no token amounts in %q", value)
	}
	return out, nil
}
