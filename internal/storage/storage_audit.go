package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"replybot/internal/trigger"
)

type AuditAction string

const (
	AuditAdd    AuditAction = "add"
	AuditModify AuditAction = "modify"
	AuditDelete AuditAction = "delete"
)

// AuditEntry records one change to a guild's trigger list.
type AuditEntry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	UserID    string         `json:"user_id"`
	Username  string         `json:"username"`
	Action    AuditAction    `json:"action"`
	Record    trigger.Record `json:"record"`
}

// AppendAudit puts entry at the head of the guild log, trimming it to the
// configured limit. ID and Timestamp are filled in when empty.
func (s *Storage) AppendAudit(ctx context.Context, guildID string, entry AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.getGuildDocument(ctx, guildID)
	if err != nil {
		return err
	}

	entries := append([]AuditEntry{entry}, decodeLogs(guildID, doc.Logs)...)
	if len(entries) > s.auditLimit {
		entries = entries[:s.auditLimit]
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("error marshalling audit log: %w", err)
	}
	doc.Logs = raw
	return s.putGuildDocument(ctx, guildID, doc)
}

// FetchAudit returns the guild log, newest first.
func (s *Storage) FetchAudit(ctx context.Context, guildID string) ([]AuditEntry, error) {
	doc, err := s.readGuildDocument(ctx, guildID)
	if err != nil {
		return nil, err
	}
	entries := decodeLogs(guildID, doc.Logs)
	if len(entries) > s.auditLimit {
		entries = entries[:s.auditLimit]
	}
	return entries, nil
}

func decodeLogs(guildID string, raw json.RawMessage) []AuditEntry {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var entries []AuditEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Printf("[WARN] Guild %s audit log is malformed, starting a new one: %v", guildID, err)
		return nil
	}
	return entries
}
