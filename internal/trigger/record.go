// Package trigger holds the per-guild vocabulary engine: records, the compiled
// lookup structure, the guild cache, matching and reply selection.
package trigger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const DefaultProbability = 100

var (
	ErrInvalidRecord   = errors.New("invalid trigger record")
	ErrTriggerNotFound = errors.New("trigger not found")
)

// MatchType decides how a trigger is compared against message content.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchContains MatchType = "contains"
)

// SendMode decides how a selected reply is delivered.
type SendMode string

const (
	SendReply   SendMode = "reply"
	SendMessage SendMode = "message"
)

// Labels used by older stored data and by the add form.
var (
	matchTypeLabels = map[string]MatchType{
		"exact":    MatchExact,
		"相同":       MatchExact,
		"contains": MatchContains,
		"包含":       MatchContains,
	}
	sendModeLabels = map[string]SendMode{
		"reply":   SendReply,
		"回覆":      SendReply,
		"message": SendMessage,
		"訊息":      SendMessage,
	}
)

// ParseMatchType accepts both the canonical and the legacy label.
func ParseMatchType(s string) (MatchType, error) {
	if t, ok := matchTypeLabels[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown match type %q", ErrInvalidRecord, s)
}

// ParseSendMode accepts both the canonical and the legacy label.
func ParseSendMode(s string) (SendMode, error) {
	if m, ok := sendModeLabels[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown send mode %q", ErrInvalidRecord, s)
}

// Record is one registered vocabulary entry of a guild.
type Record struct {
	Trigger     string    `json:"trigger"`
	Replies     []string  `json:"replies"`
	MatchType   MatchType `json:"type"`
	SendMode    SendMode  `json:"mode"`
	Probability int       `json:"probability"`
}

// UnmarshalJSON normalizes stored records once, at the store boundary.
// Missing probability becomes 100, unknown match types fall back to contains
// and unknown modes to reply. Probability may be a number or a numeric
// string, replies a list or a single string; blank replies are dropped.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		Trigger     string          `json:"trigger"`
		Replies     json.RawMessage `json:"replies"`
		MatchType   string          `json:"type"`
		SendMode    string          `json:"mode"`
		Probability json.RawMessage `json:"probability"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	replies, err := decodeStoredReplies(raw.Replies)
	if err != nil {
		return err
	}
	probability, err := decodeStoredProbability(raw.Probability)
	if err != nil {
		return err
	}

	r.Trigger = raw.Trigger
	r.Replies = replies
	r.Probability = probability

	r.MatchType = MatchContains
	if t, err := ParseMatchType(raw.MatchType); err == nil {
		r.MatchType = t
	}

	r.SendMode = SendReply
	if m, err := ParseSendMode(raw.SendMode); err == nil {
		r.SendMode = m
	}
	return nil
}

func decodeStoredReplies(raw json.RawMessage) ([]string, error) {
	if isJSONNull(raw) {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		var single string
		if json.Unmarshal(raw, &single) != nil {
			return nil, fmt.Errorf("replies: %w", err)
		}
		list = []string{single}
	}

	replies := list[:0]
	for _, reply := range list {
		if strings.TrimSpace(reply) != "" {
			replies = append(replies, reply)
		}
	}
	if len(replies) == 0 {
		return nil, nil
	}
	return replies, nil
}

func decodeStoredProbability(raw json.RawMessage) (int, error) {
	if isJSONNull(raw) {
		return DefaultProbability, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return clampProbability(int(n)), nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, fmt.Errorf("probability: not a number: %s", raw)
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "%")
	if text == "" {
		return DefaultProbability, nil
	}
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("probability: %q is not a number", text)
	}
	return clampProbability(int(n)), nil
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// Usable reports whether a record can take part in matching: a non-blank
// trigger and at least one non-blank reply. An empty contains trigger would
// match every message.
func (r Record) Usable() bool {
	if strings.TrimSpace(r.Trigger) == "" {
		return false
	}
	for _, reply := range r.Replies {
		if strings.TrimSpace(reply) != "" {
			return true
		}
	}
	return false
}

func clampProbability(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Validate checks a record coming from user input before it is stored.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Trigger) == "" {
		return fmt.Errorf("%w: trigger is empty", ErrInvalidRecord)
	}
	if len(r.Replies) == 0 {
		return fmt.Errorf("%w: no replies", ErrInvalidRecord)
	}
	for i, reply := range r.Replies {
		if strings.TrimSpace(reply) == "" {
			return fmt.Errorf("%w: reply #%d is empty", ErrInvalidRecord, i+1)
		}
		if strings.Contains(reply, "@everyone") || strings.Contains(reply, "@here") {
			return fmt.Errorf("%w: reply #%d mentions @everyone or @here", ErrInvalidRecord, i+1)
		}
	}
	if r.MatchType != MatchExact && r.MatchType != MatchContains {
		return fmt.Errorf("%w: unknown match type %q", ErrInvalidRecord, r.MatchType)
	}
	if r.SendMode != SendReply && r.SendMode != SendMessage {
		return fmt.Errorf("%w: unknown send mode %q", ErrInvalidRecord, r.SendMode)
	}
	if r.Probability < 0 || r.Probability > 100 {
		return fmt.Errorf("%w: probability %d is outside 0-100", ErrInvalidRecord, r.Probability)
	}
	return nil
}
