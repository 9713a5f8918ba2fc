package trigger

import (
	"context"
	"fmt"
	"log"
	"sync"

	"replybot/internal/cooldown"
)

// Message is the part of an inbound chat message the engine looks at.
type Message struct {
	GuildID     string
	ChannelID   string
	AuthorIsBot bool
	Content     string
}

// Response is what the transport should send back.
type Response struct {
	Text string
	Mode SendMode
}

// Engine wires the cooldown gate, the guild cache, matching and reply
// selection together, and owns the mutation path that keeps the cache in
// step with the store.
type Engine struct {
	store    Store
	cache    *Cache
	cooldown *cooldown.Limiter
	selector *Selector

	locksMu sync.Mutex
	locks   map[string]*guildLock
}

// NewEngine builds an engine. A nil limiter disables the per-channel gate and
// a nil selector falls back to a clock-seeded one.
func NewEngine(store Store, cache *Cache, limiter *cooldown.Limiter, selector *Selector) *Engine {
	if selector == nil {
		selector = NewSelector()
	}
	return &Engine{
		store:    store,
		cache:    cache,
		cooldown: limiter,
		selector: selector,
		locks:    make(map[string]*guildLock),
	}
}

func (e *Engine) Cache() *Cache { return e.cache }

// HandleMessage returns the reply to send for msg, or nil when nothing should
// be sent. It never panics into the caller's message pipeline.
func (e *Engine) HandleMessage(ctx context.Context, msg Message) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERR] Recovered while handling message in guild %s: %v", msg.GuildID, r)
			resp = nil
		}
	}()

	if msg.AuthorIsBot || msg.GuildID == "" {
		return nil
	}
	if e.cooldown != nil && e.cooldown.Check(msg.ChannelID) {
		return nil
	}

	data := e.cache.Get(ctx, msg.GuildID)
	if data == nil {
		return nil
	}
	record, ok := FindMatch(data, msg.Content)
	if !ok {
		return nil
	}
	text, ok := e.selector.Select(record)
	if !ok {
		return nil
	}
	return &Response{Text: text, Mode: record.SendMode}
}

// NotifyTriggersChanged pushes a freshly saved list into the cache.
func (e *Engine) NotifyTriggersChanged(guildID string, records []Record) {
	e.cache.Update(guildID, records)
}

// Lookup matches content without the cooldown gate and without the
// probability draw.
func (e *Engine) Lookup(ctx context.Context, guildID, content string) (Record, bool) {
	return FindMatch(e.cache.Get(ctx, guildID), content)
}

// Triggers returns the authoritative list from the store.
func (e *Engine) Triggers(ctx context.Context, guildID string) ([]Record, error) {
	records, err := e.store.FetchTriggers(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("fetch triggers: %w", err)
	}
	return records, nil
}

// Upsert validates rec and stores it, replacing a record with the same
// trigger in place. It returns the replaced record, if any. The cache is only
// updated after the store write succeeded.
func (e *Engine) Upsert(ctx context.Context, guildID string, rec Record) (*Record, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	unlock := e.lockGuild(guildID)
	defer unlock()

	records, err := e.store.FetchTriggers(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("fetch triggers: %w", err)
	}

	updated := make([]Record, 0, len(records)+1)
	var previous *Record
	for _, r := range records {
		if r.Trigger == rec.Trigger && previous == nil {
			old := r
			previous = &old
			updated = append(updated, rec)
			continue
		}
		if r.Trigger == rec.Trigger {
			continue
		}
		updated = append(updated, r)
	}
	if previous == nil {
		updated = append(updated, rec)
	}

	if err := e.store.SaveTriggers(ctx, guildID, updated); err != nil {
		return nil, fmt.Errorf("save triggers: %w", err)
	}
	e.NotifyTriggersChanged(guildID, updated)
	return previous, nil
}

// Remove deletes the record with the given trigger and returns it.
func (e *Engine) Remove(ctx context.Context, guildID, trigger string) (Record, error) {
	unlock := e.lockGuild(guildID)
	defer unlock()

	records, err := e.store.FetchTriggers(ctx, guildID)
	if err != nil {
		return Record{}, fmt.Errorf("fetch triggers: %w", err)
	}

	var (
		removed Record
		found   bool
	)
	kept := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Trigger == trigger {
			if !found {
				removed, found = r, true
			}
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return Record{}, fmt.Errorf("%w: %q", ErrTriggerNotFound, trigger)
	}

	if err := e.store.SaveTriggers(ctx, guildID, kept); err != nil {
		return Record{}, fmt.Errorf("save triggers: %w", err)
	}
	e.NotifyTriggersChanged(guildID, kept)
	return removed, nil
}

// guildLock is held by one mutation and waited on by others; refs counts both
// so the entry can go once nobody needs it.
type guildLock struct {
	mu   sync.Mutex
	refs int
}

func (e *Engine) lockGuild(guildID string) func() {
	e.locksMu.Lock()
	l, ok := e.locks[guildID]
	if !ok {
		l = &guildLock{}
		e.locks[guildID] = l
	}
	l.refs++
	e.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		e.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, guildID)
		}
		e.locksMu.Unlock()
	}
}
