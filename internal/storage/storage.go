// Package storage persists one document per guild: its trigger list and its
// audit log.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"replybot/internal/trigger"
)

const DefaultAuditLimit = 100

var (
	ErrClosed = errors.New("storage is closed")
	// ErrMalformedData is returned by writes that would have to replace stored
	// data they cannot parse. Reads treat such data as empty.
	ErrMalformedData = errors.New("stored guild data is malformed")
)

// Storage implements trigger.Store on top of a Backend.
type Storage struct {
	backend    Backend
	auditLimit int

	// serializes read-modify-write of guild documents
	mu sync.Mutex
}

// guildDocument is the stored shape. Replies stays raw so that one malformed
// field does not take the audit log down with it.
type guildDocument struct {
	Replies json.RawMessage `json:"replies,omitempty"`
	Logs    json.RawMessage `json:"logs,omitempty"`
}

func New(backend Backend, auditLimit int) *Storage {
	if auditLimit <= 0 {
		auditLimit = DefaultAuditLimit
	}
	return &Storage{backend: backend, auditLimit: auditLimit}
}

// Open opens the backend selected by driver and wraps it.
func Open(driver, jsonPath, sqlitePath string, auditLimit int) (*Storage, error) {
	backend, err := OpenBackend(driver, jsonPath, sqlitePath)
	if err != nil {
		return nil, err
	}
	return New(backend, auditLimit), nil
}

func (s *Storage) Close() error {
	return s.backend.Close()
}

// getGuildDocument returns an empty document for unknown guilds and
// ErrMalformedData for a document that is not a JSON object.
func (s *Storage) getGuildDocument(ctx context.Context, guildID string) (*guildDocument, error) {
	raw, ok, err := s.backend.Get(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("error reading guild %s: %w", guildID, err)
	}
	doc := &guildDocument{}
	if !ok {
		return doc, nil
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("%w: guild %s document: %v", ErrMalformedData, guildID, err)
	}
	return doc, nil
}

// readGuildDocument is getGuildDocument for read paths: malformed data is
// logged and read as an empty document.
func (s *Storage) readGuildDocument(ctx context.Context, guildID string) (*guildDocument, error) {
	doc, err := s.getGuildDocument(ctx, guildID)
	if errors.Is(err, ErrMalformedData) {
		log.Printf("[WARN] %v, treating as empty", err)
		return &guildDocument{}, nil
	}
	return doc, err
}

func (s *Storage) putGuildDocument(ctx context.Context, guildID string, doc *guildDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error marshalling guild %s: %w", guildID, err)
	}
	if err := s.backend.Set(ctx, guildID, raw); err != nil {
		return fmt.Errorf("error writing guild %s: %w", guildID, err)
	}
	return nil
}

// FetchTriggers returns the guild's usable records in stored order. A list
// that is not an array reads as no data; unreadable elements are skipped.
func (s *Storage) FetchTriggers(ctx context.Context, guildID string) ([]trigger.Record, error) {
	doc, err := s.readGuildDocument(ctx, guildID)
	if err != nil {
		return nil, err
	}
	records, _, err := decodeReplies(guildID, doc.Replies)
	if err != nil {
		log.Printf("[WARN] %v, treating as no data", err)
		return nil, nil
	}
	return records, nil
}

// SaveTriggers replaces the guild's list and keeps its audit log. Stored
// elements that could not be read are carried over after records, so a
// save never destroys data it did not see. A stored list that is not an
// array is not overwritten.
func (s *Storage) SaveTriggers(ctx context.Context, guildID string, records []trigger.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.getGuildDocument(ctx, guildID)
	if err != nil {
		return err
	}
	_, skipped, err := decodeReplies(guildID, doc.Replies)
	if err != nil {
		return err
	}

	elems := make([]json.RawMessage, 0, len(records)+len(skipped))
	for _, r := range records {
		raw, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("error marshalling trigger %q: %w", r.Trigger, err)
		}
		elems = append(elems, raw)
	}
	elems = append(elems, skipped...)

	raw, err := json.Marshal(elems)
	if err != nil {
		return fmt.Errorf("error marshalling triggers: %w", err)
	}
	doc.Replies = raw
	return s.putGuildDocument(ctx, guildID, doc)
}

// DeleteGuild drops everything stored for the guild.
func (s *Storage) DeleteGuild(ctx context.Context, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Delete(ctx, guildID)
}

// decodeReplies reads the stored list one element at a time. Elements that
// do not decode, or decode to a record that is not Usable, are logged and
// returned raw in skipped.
func decodeReplies(guildID string, raw json.RawMessage) (records []trigger.Record, skipped []json.RawMessage, err error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, nil, fmt.Errorf("%w: guild %s trigger list: %v", ErrMalformedData, guildID, err)
	}

	for i, elem := range elems {
		var r trigger.Record
		if err := json.Unmarshal(elem, &r); err != nil {
			log.Printf("[WARN] Guild %s trigger #%d is unreadable, skipping it: %v", guildID, i+1, err)
			skipped = append(skipped, elem)
			continue
		}
		if !r.Usable() {
			log.Printf("[WARN] Guild %s trigger #%d has no trigger text or no replies, skipping it", guildID, i+1)
			skipped = append(skipped, elem)
			continue
		}
		records = append(records, r)
	}
	return records, skipped, nil
}
