package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"replybot/internal/cooldown"
)

type fakeStore struct {
	mu       sync.Mutex
	data     map[string][]Record
	fetches  int
	fetchErr error
	saveErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]Record)}
}

func (s *fakeStore) FetchTriggers(_ context.Context, guildID string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return append([]Record(nil), s.data[guildID]...), nil
}

func (s *fakeStore) SaveTriggers(_ context.Context, guildID string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data[guildID] = append([]Record(nil), records...)
	return nil
}

func (s *fakeStore) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func exact(trigger string, replies ...string) Record {
	return Record{Trigger: trigger, Replies: replies, MatchType: MatchExact, SendMode: SendReply, Probability: 100}
}

func contains(trigger string, replies ...string) Record {
	return Record{Trigger: trigger, Replies: replies, MatchType: MatchContains, SendMode: SendMessage, Probability: 100}
}

func TestCompile_Partitions(t *testing.T) {
	records := []Record{
		exact("hi", "a"),
		contains("foo", "b"),
		exact("bye", "c"),
		contains("bar", "d"),
		contains("baz", "e"),
	}

	c := Compile(records)
	if c == nil {
		t.Fatalf("want compiled data, got nil")
	}
	if len(c.Exact) != 2 {
		t.Fatalf("want 2 exact, got %d", len(c.Exact))
	}
	if len(c.Partial) != 3 {
		t.Fatalf("want 3 partial, got %d", len(c.Partial))
	}
	if c.Len() != len(records) {
		t.Fatalf("want %d records, got %d", len(records), c.Len())
	}
	for i, want := range []string{"foo", "bar", "baz"} {
		if c.Partial[i].Trigger != want {
			t.Fatalf("partial[%d]: want %q, got %q", i, want, c.Partial[i].Trigger)
		}
	}
	for _, r := range c.Partial {
		if _, ok := c.Exact[r.Trigger]; ok {
			t.Fatalf("record %q in both partitions", r.Trigger)
		}
	}
}

func TestCompile_Empty(t *testing.T) {
	if Compile(nil) != nil {
		t.Fatalf("want nil for nil input")
	}
	if Compile([]Record{}) != nil {
		t.Fatalf("want nil for empty input")
	}
}

func TestCompile_DuplicateExactLastWins(t *testing.T) {
	c := Compile([]Record{exact("hi", "first"), exact("hi", "second")})
	if got := c.Exact["hi"].Replies[0]; got != "second" {
		t.Fatalf("want second, got %q", got)
	}
}

func TestFindMatch_ExactBeatsContains(t *testing.T) {
	c := Compile([]Record{contains("h", "partial"), exact("hi", "exact")})

	r, ok := FindMatch(c, "hi")
	if !ok {
		t.Fatalf("want match")
	}
	if r.MatchType != MatchExact || r.Replies[0] != "exact" {
		t.Fatalf("want exact record, got %+v", r)
	}
}

func TestFindMatch_FirstContainsInOrder(t *testing.T) {
	c := Compile([]Record{contains("lo", "first"), contains("hello", "second"), contains("ell", "third")})

	r, ok := FindMatch(c, "say hello")
	if !ok {
		t.Fatalf("want match")
	}
	if r.Trigger != "lo" {
		t.Fatalf("want first qualifying record, got %q", r.Trigger)
	}
}

func TestFindMatch_NoMatch(t *testing.T) {
	c := Compile([]Record{exact("hi", "a"), contains("xyz", "b")})
	if _, ok := FindMatch(c, "nothing here"); ok {
		t.Fatalf("want no match")
	}
	if _, ok := FindMatch(nil, "hi"); ok {
		t.Fatalf("want no match on nil data")
	}
}

func TestFindMatch_NoNormalization(t *testing.T) {
	c := Compile([]Record{exact("Hi", "a")})
	if _, ok := FindMatch(c, "hi"); ok {
		t.Fatalf("matching must be case sensitive")
	}
	if _, ok := FindMatch(c, "Hi "); ok {
		t.Fatalf("matching must not trim")
	}
}

func TestSelect_ProbabilityZero(t *testing.T) {
	s := NewSeededSelector(1, 2)
	r := exact("hi", "a", "b")
	r.Probability = 0
	for i := 0; i < 1000; i++ {
		if _, ok := s.Select(r); ok {
			t.Fatalf("trial %d: want suppression", i)
		}
	}
}

func TestSelect_ProbabilityHundred(t *testing.T) {
	s := NewSeededSelector(3, 4)
	r := exact("hi", "a", "b")
	for i := 0; i < 1000; i++ {
		if reply, ok := s.Select(r); !ok || reply == "" {
			t.Fatalf("trial %d: want reply", i)
		}
	}
}

func TestSelect_Distribution(t *testing.T) {
	s := NewSeededSelector(42, 7)
	r := exact("hi", "a", "b", "c", "d")
	counts := map[string]int{}
	const trials = 10000
	for i := 0; i < trials; i++ {
		reply, ok := s.Select(r)
		if !ok {
			t.Fatalf("unexpected suppression")
		}
		counts[reply]++
	}
	for _, reply := range r.Replies {
		freq := float64(counts[reply]) / trials
		if freq < 0.22 || freq > 0.28 {
			t.Fatalf("reply %q: frequency %.3f outside tolerance of 0.25", reply, freq)
		}
	}
}

func TestSelect_PartialProbability(t *testing.T) {
	s := NewSeededSelector(9, 9)
	r := exact("hi", "a")
	r.Probability = 30
	hits := 0
	const trials = 10000
	for i := 0; i < trials; i++ {
		if _, ok := s.Select(r); ok {
			hits++
		}
	}
	freq := float64(hits) / trials
	if freq < 0.27 || freq > 0.33 {
		t.Fatalf("want ~0.30 answer rate, got %.3f", freq)
	}
}

func TestCache_GetWithinTTLFetchesOnce(t *testing.T) {
	store := newFakeStore()
	store.data["g1"] = []Record{exact("hi", "a")}
	clock := newFakeClock()
	c := NewCache(store, WithClock(clock.Now))

	first := c.Get(context.Background(), "g1")
	clock.Advance(time.Minute)
	second := c.Get(context.Background(), "g1")

	if first == nil || first != second {
		t.Fatalf("want identical compiled object, got %p and %p", first, second)
	}
	if n := store.fetchCount(); n != 1 {
		t.Fatalf("want 1 fetch, got %d", n)
	}
}

func TestCache_RefetchAfterTTL(t *testing.T) {
	store := newFakeStore()
	store.data["g1"] = []Record{exact("hi", "a")}
	clock := newFakeClock()
	c := NewCache(store, WithClock(clock.Now))

	c.Get(context.Background(), "g1")
	store.data["g1"] = []Record{exact("hi", "b")}
	clock.Advance(DefaultCacheTTL)

	data := c.Get(context.Background(), "g1")
	if n := store.fetchCount(); n != 2 {
		t.Fatalf("want 2 fetches, got %d", n)
	}
	if got := data.Exact["hi"].Replies[0]; got != "b" {
		t.Fatalf("want refreshed reply b, got %q", got)
	}
}

func TestCache_UpdateVisibleImmediately(t *testing.T) {
	store := newFakeStore()
	store.data["g1"] = []Record{exact("hi", "old")}
	clock := newFakeClock()
	c := NewCache(store, WithClock(clock.Now))

	c.Get(context.Background(), "g1")
	c.Update("g1", []Record{exact("hi", "new")})

	data := c.Get(context.Background(), "g1")
	if got := data.Exact["hi"].Replies[0]; got != "new" {
		t.Fatalf("want new, got %q", got)
	}
	if n := store.fetchCount(); n != 1 {
		t.Fatalf("update must not trigger a fetch, got %d fetches", n)
	}
}

func TestCache_CapacityEvictsOldest(t *testing.T) {
	store := newFakeStore()
	clock := newFakeClock()
	c := NewCache(store, WithClock(clock.Now), WithCapacity(100))

	for i := 0; i < 100; i++ {
		c.Update(fmt.Sprintf("g%d", i), []Record{exact("hi", "a")})
		clock.Advance(time.Millisecond)
	}
	// Reading g0 must not protect it from eviction.
	c.Get(context.Background(), "g0")

	c.Update("g100", []Record{exact("hi", "a")})

	if n := c.Len(); n != 100 {
		t.Fatalf("want 100 entries, got %d", n)
	}
	c.mu.Lock()
	_, g0 := c.entries["g0"]
	_, g1 := c.entries["g1"]
	_, g100 := c.entries["g100"]
	c.mu.Unlock()
	if g0 {
		t.Fatalf("oldest entry g0 should have been evicted")
	}
	if !g1 || !g100 {
		t.Fatalf("want g1 and g100 resident")
	}
	if ev := c.Stats().Evictions; ev != 1 {
		t.Fatalf("want 1 eviction, got %d", ev)
	}
}

func TestCache_FetchErrorReturnsNil(t *testing.T) {
	store := newFakeStore()
	store.fetchErr = errors.New("store down")
	c := NewCache(store)

	if data := c.Get(context.Background(), "g1"); data != nil {
		t.Fatalf("want nil on store failure")
	}
	if c.Stats().FetchErrors != 1 {
		t.Fatalf("want fetch error counted")
	}
	if c.Len() != 0 {
		t.Fatalf("failed fetch must not be cached")
	}
}

func TestCache_EmptyGuildCachedAsNil(t *testing.T) {
	store := newFakeStore()
	c := NewCache(store)

	if c.Get(context.Background(), "g1") != nil {
		t.Fatalf("want nil for guild without data")
	}
	c.Get(context.Background(), "g1")
	if n := store.fetchCount(); n != 1 {
		t.Fatalf("want 1 fetch for cached empty guild, got %d", n)
	}
}

type blockingStore struct {
	*fakeStore
	started chan struct{}
	release chan struct{}
}

func (s *blockingStore) FetchTriggers(ctx context.Context, guildID string) ([]Record, error) {
	records, err := s.fakeStore.FetchTriggers(ctx, guildID)
	close(s.started)
	<-s.release
	return records, err
}

func TestCache_StaleRefreshDoesNotOverwriteUpdate(t *testing.T) {
	store := &blockingStore{
		fakeStore: newFakeStore(),
		started:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	store.data["g1"] = []Record{exact("hi", "stale")}
	c := NewCache(store)

	done := make(chan *Compiled)
	go func() { done <- c.Get(context.Background(), "g1") }()

	<-store.started
	c.Update("g1", []Record{exact("hi", "fresh")})
	close(store.release)

	got := <-done
	if r := got.Exact["hi"].Replies[0]; r != "fresh" {
		t.Fatalf("in-flight get should return the fresher entry, got %q", r)
	}
	c.mu.Lock()
	resident := c.entries["g1"].data.Exact["hi"].Replies[0]
	c.mu.Unlock()
	if resident != "fresh" {
		t.Fatalf("stale refresh overwrote update: resident %q", resident)
	}
}

func TestCache_SweepAndInvalidate(t *testing.T) {
	store := newFakeStore()
	clock := newFakeClock()
	c := NewCache(store, WithClock(clock.Now), WithTTL(time.Minute))

	c.Update("a", []Record{exact("hi", "a")})
	clock.Advance(2 * time.Minute)
	c.Update("b", []Record{exact("hi", "b")})

	if n := c.Sweep(); n != 1 {
		t.Fatalf("want 1 swept, got %d", n)
	}
	if n := c.Sweep(); n != 0 {
		t.Fatalf("sweep must be idempotent, got %d", n)
	}
	if !c.Invalidate("b") {
		t.Fatalf("want b invalidated")
	}
	if c.Len() != 0 {
		t.Fatalf("want empty cache")
	}
}

func TestEngine_EndToEnd(t *testing.T) {
	store := newFakeStore()
	store.data["g1"] = []Record{{
		Trigger:     "你好",
		Replies:     []string{"嗨"},
		MatchType:   MatchExact,
		SendMode:    SendReply,
		Probability: 100,
	}}
	e := NewEngine(store, NewCache(store), nil, NewSeededSelector(1, 1))

	resp := e.HandleMessage(context.Background(), Message{GuildID: "g1", ChannelID: "c1", Content: "你好"})
	if resp == nil {
		t.Fatalf("want response")
	}
	if resp.Text != "嗨" || resp.Mode != SendReply {
		t.Fatalf("want 嗨/reply, got %+v", resp)
	}

	if resp := e.HandleMessage(context.Background(), Message{GuildID: "g1", ChannelID: "c1", Content: "你好啊"}); resp != nil {
		t.Fatalf("exact trigger must not match longer content, got %+v", resp)
	}
}

func TestEngine_IgnoresBotsAndNoGuild(t *testing.T) {
	store := newFakeStore()
	store.data["g1"] = []Record{exact("hi", "a")}
	e := NewEngine(store, NewCache(store), nil, nil)

	if e.HandleMessage(context.Background(), Message{GuildID: "g1", AuthorIsBot: true, Content: "hi"}) != nil {
		t.Fatalf("bot authors must be ignored")
	}
	if e.HandleMessage(context.Background(), Message{Content: "hi"}) != nil {
		t.Fatalf("messages without guild must be ignored")
	}
	if store.fetchCount() != 0 {
		t.Fatalf("ignored messages must not touch the store")
	}
}

func TestEngine_UpsertAndRemove(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	e := NewEngine(store, NewCache(store), nil, NewSeededSelector(1, 1))

	if _, err := e.Upsert(ctx, "g1", exact("hi", "a")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := e.Upsert(ctx, "g1", contains("yo", "b")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	prev, err := e.Upsert(ctx, "g1", exact("hi", "c"))
	if err != nil {
		t.Fatalf("upsert replace: %v", err)
	}
	if prev == nil || prev.Replies[0] != "a" {
		t.Fatalf("want previous record returned, got %+v", prev)
	}
	if got := store.data["g1"]; len(got) != 2 || got[0].Trigger != "hi" || got[0].Replies[0] != "c" {
		t.Fatalf("replace must keep position and not duplicate: %+v", got)
	}

	resp := e.HandleMessage(ctx, Message{GuildID: "g1", ChannelID: "c", Content: "hi"})
	if resp == nil || resp.Text != "c" {
		t.Fatalf("mutation must be visible to next message, got %+v", resp)
	}

	removed, err := e.Remove(ctx, "g1", "hi")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed.Trigger != "hi" {
		t.Fatalf("want removed hi, got %q", removed.Trigger)
	}
	if e.HandleMessage(ctx, Message{GuildID: "g1", ChannelID: "c2", Content: "hi"}) != nil {
		t.Fatalf("removed trigger must not answer")
	}

	if _, err := e.Remove(ctx, "g1", "missing"); !errors.Is(err, ErrTriggerNotFound) {
		t.Fatalf("want ErrTriggerNotFound, got %v", err)
	}
}

func TestEngine_FailedSaveDoesNotTouchCache(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.data["g1"] = []Record{exact("hi", "old")}
	e := NewEngine(store, NewCache(store), nil, NewSeededSelector(1, 1))
	e.Cache().Get(ctx, "g1")

	store.saveErr = errors.New("disk full")
	if _, err := e.Upsert(ctx, "g1", exact("hi", "new")); err == nil {
		t.Fatalf("want save error")
	}
	r, ok := e.Lookup(ctx, "g1", "hi")
	if !ok || r.Replies[0] != "old" {
		t.Fatalf("cache must not mirror a failed save, got %+v", r)
	}
}

func TestEngine_UpsertRejectsInvalid(t *testing.T) {
	e := NewEngine(newFakeStore(), NewCache(newFakeStore()), nil, nil)
	_, err := e.Upsert(context.Background(), "g1", exact("hi", "ping @everyone"))
	if !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("want ErrInvalidRecord, got %v", err)
	}
}

func TestRecord_UnmarshalNormalizes(t *testing.T) {
	var records []Record
	raw := `[
		{"trigger":"a","replies":["x"],"type":"相同","mode":"訊息"},
		{"trigger":"b","replies":["y"],"type":"包含","mode":"回覆","probability":40},
		{"trigger":"c","replies":["z"],"type":"exact","mode":"message","probability":250}
	]`
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if records[0].MatchType != MatchExact || records[0].SendMode != SendMessage || records[0].Probability != 100 {
		t.Fatalf("record a not normalized: %+v", records[0])
	}
	if records[1].MatchType != MatchContains || records[1].SendMode != SendReply || records[1].Probability != 40 {
		t.Fatalf("record b not normalized: %+v", records[1])
	}
	if records[2].Probability != 100 {
		t.Fatalf("want probability clamped to 100, got %d", records[2].Probability)
	}
}

func TestRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		wantErr bool
	}{
		{"valid", exact("hi", "a"), false},
		{"empty trigger", exact(" ", "a"), true},
		{"no replies", Record{Trigger: "hi", MatchType: MatchExact, SendMode: SendReply, Probability: 100}, true},
		{"empty reply", exact("hi", "a", ""), true},
		{"here mention", exact("hi", "@here"), true},
		{"bad type", Record{Trigger: "hi", Replies: []string{"a"}, MatchType: "fuzzy", SendMode: SendReply, Probability: 100}, true},
		{"bad probability", Record{Trigger: "hi", Replies: []string{"a"}, MatchType: MatchExact, SendMode: SendReply, Probability: 101}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("want error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEngine_ChannelCooldown(t *testing.T) {
	store := newFakeStore()
	store.data["g1"] = []Record{exact("hi", "a")}
	clock := newFakeClock()
	limiter := cooldown.NewWithClock(500*time.Millisecond, clock.Now)
	e := NewEngine(store, NewCache(store, WithClock(clock.Now)), limiter, NewSeededSelector(1, 1))
	msg := Message{GuildID: "g1", ChannelID: "c1", Content: "hi"}

	if e.HandleMessage(context.Background(), msg) == nil {
		t.Fatalf("first message must answer")
	}
	clock.Advance(100 * time.Millisecond)
	if e.HandleMessage(context.Background(), msg) != nil {
		t.Fatalf("message inside cooldown must be dropped")
	}
	other := msg
	other.ChannelID = "c2"
	if e.HandleMessage(context.Background(), other) == nil {
		t.Fatalf("cooldown is per channel")
	}
	clock.Advance(time.Second)
	if e.HandleMessage(context.Background(), msg) == nil {
		t.Fatalf("message after cooldown must answer")
	}
}

func TestCompile_SkipsUnusableRecords(t *testing.T) {
	c := Compile([]Record{
		contains("", "spam"),
		contains("  ", "spam"),
		exact("hi"),
		exact("yo", " ", ""),
		contains("ok", "fine"),
	})
	if c.Len() != 1 || c.Partial[0].Trigger != "ok" {
		t.Fatalf("want only the usable record, got %+v", c)
	}

	if got := Compile([]Record{contains("", "spam")}); got != nil {
		t.Fatalf("want nil when nothing is usable, got %+v", got)
	}
}

func TestEngine_EmptyStoredTriggerMatchesNothing(t *testing.T) {
	var records []Record
	raw := `[{"trigger":"","replies":["spam"],"type":"包含"},{"trigger":"hey","replies":[" "],"type":"包含"}]`
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	store := newFakeStore()
	store.data["g1"] = records
	e := NewEngine(store, NewCache(store), nil, NewSeededSelector(1, 1))

	for _, content := range []string{"hello", "anything at all", "hey there", ""} {
		if resp := e.HandleMessage(context.Background(), Message{GuildID: "g1", ChannelID: "c1", Content: content}); resp != nil {
			t.Fatalf("content %q must not match, got %+v", content, resp)
		}
	}
}

func TestRecord_UnmarshalLenientFields(t *testing.T) {
	var records []Record
	raw := `[
		{"trigger":"a","replies":"single","probability":"50"},
		{"trigger":"b","replies":["x","  ",""],"probability":"75%"},
		{"trigger":"c","replies":[],"probability":""},
		{"trigger":"d","replies":["y"],"probability":null}
	]`
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(records[0].Replies) != 1 || records[0].Replies[0] != "single" || records[0].Probability != 50 {
		t.Fatalf("record a: %+v", records[0])
	}
	if len(records[1].Replies) != 1 || records[1].Replies[0] != "x" || records[1].Probability != 75 {
		t.Fatalf("record b: %+v", records[1])
	}
	if records[2].Replies != nil || records[2].Probability != 100 {
		t.Fatalf("record c: %+v", records[2])
	}
	if records[3].Probability != 100 {
		t.Fatalf("record d: %+v", records[3])
	}

	for _, bad := range []string{
		`{"trigger":"x","replies":["y"],"probability":"often"}`,
		`{"trigger":"x","replies":["y"],"probability":true}`,
		`{"trigger":"x","replies":5}`,
	} {
		var r Record
		if err := json.Unmarshal([]byte(bad), &r); err == nil {
			t.Fatalf("want error for %s", bad)
		}
	}
}

func TestRecord_Usable(t *testing.T) {
	if !exact("hi", "a").Usable() {
		t.Fatalf("want usable")
	}
	for _, r := range []Record{exact("", "a"), exact(" ", "a"), exact("hi"), exact("hi", "", "  ")} {
		if r.Usable() {
			t.Fatalf("want unusable: %+v", r)
		}
	}
}

func TestCache_BookkeepingDoesNotGrow(t *testing.T) {
	store := newFakeStore()
	c := NewCache(store)

	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("g%d", i)
		c.Get(context.Background(), id)
		c.Update(id, []Record{exact("hi", "a")})
		c.Invalidate(id)
	}
	c.Purge()

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.versions) != 0 || len(c.inflight) != 0 {
		t.Fatalf("want no leftover bookkeeping, got %d versions, %d in flight", len(c.versions), len(c.inflight))
	}
}

func TestCache_StaleRefreshLeavesNoBookkeeping(t *testing.T) {
	store := &blockingStore{
		fakeStore: newFakeStore(),
		started:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	c := NewCache(store)

	done := make(chan struct{})
	go func() {
		c.Get(context.Background(), "g1")
		close(done)
	}()

	<-store.started
	c.Invalidate("g1")
	close(store.release)
	<-done

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.versions) != 0 || len(c.inflight) != 0 {
		t.Fatalf("want no leftover bookkeeping, got %d versions, %d in flight", len(c.versions), len(c.inflight))
	}
}

func TestEngine_ConcurrentUpsertsKeepEveryRecord(t *testing.T) {
	store := newFakeStore()
	e := NewEngine(store, NewCache(store), nil, nil)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := e.Upsert(context.Background(), "g1", exact(fmt.Sprintf("t%d", i), "a")); err != nil {
				t.Errorf("upsert %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	records, _ := store.FetchTriggers(context.Background(), "g1")
	if len(records) != n {
		t.Fatalf("want %d records, got %d", n, len(records))
	}

	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	if len(e.locks) != 0 {
		t.Fatalf("want guild locks released, got %d", len(e.locks))
	}
}
