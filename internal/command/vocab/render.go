// Package vocab holds the slash commands that manage a guild's trigger list:
// add, remove, list and logs.
package vocab

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"replybot/internal/storage"
	"replybot/internal/trigger"

	"github.com/bwmarrin/discordgo"
)

const (
	listPageSize = 6
	logsPageSize = 4

	maxChoices   = 25
	maxChoiceLen = 100

	maxTriggerLen  = 200
	replyBudget    = 800
	fieldValueMax  = 1024
	replySeparator = " ⋄ "
	replyDelimiter = "</>"

	timeLayout = "2006-01-02 15:04:05"
)

// truncate cuts s to at most max runes, marking the cut with "...".
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

type field struct {
	Name  string
	Value string
}

// listFields renders one embed field per record. Replies share a fixed
// budget so a record with many replies still fits a field.
func listFields(records []trigger.Record) []field {
	fields := make([]field, 0, len(records))
	for _, r := range records {
		name := "• **" + truncate(r.Trigger, maxTriggerLen) + "**"
		if r.Probability != trigger.DefaultProbability {
			name += fmt.Sprintf(" (%d%%)", r.Probability)
		}

		per := replyBudget
		if n := len(r.Replies); n > 0 {
			per = (replyBudget - utf8.RuneCountInString(replySeparator)*(n-1)) / n
		}
		per = max(per, 1)

		replies := make([]string, len(r.Replies))
		for i, reply := range r.Replies {
			replies[i] = truncate(strings.TrimSpace(reply), per)
		}
		value := truncate(strings.Join(replies, replySeparator), fieldValueMax-50)
		value += fmt.Sprintf("\n`%s`/`%s`", r.MatchType, r.SendMode)

		fields = append(fields, field{Name: truncate(name, 256), Value: value})
	}
	return fields
}

// pageCount is at least 1 so an empty list still renders a page.
func pageCount(n, size int) int {
	if n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// pageOf returns the zero-based page of items.
func pageOf[T any](items []T, page, size int) []T {
	start := page * size
	if start < 0 || start >= len(items) {
		return nil
	}
	end := min(start+size, len(items))
	return items[start:end]
}

// clampPage keeps a one-based page inside [1, total].
func clampPage(page, total int) int {
	return max(1, min(page, total))
}

const (
	pageBack    = "back"
	pageRefresh = "refresh"
	pageNext    = "next"
)

// turnPage moves a zero-based page, wrapping around at both ends.
func turnPage(action string, current, total int) int {
	if total <= 0 {
		return 0
	}
	current = ((current % total) + total) % total
	switch action {
	case pageBack:
		return (current - 1 + total) % total
	case pageNext:
		return (current + 1) % total
	default:
		return current
	}
}

func pageButtonID(action string, page int) string {
	return "list:" + action + ":" + strconv.Itoa(page)
}

func parsePageButtonID(id string) (action string, page int, ok bool) {
	parts := strings.Split(id, ":")
	if len(parts) != 3 || parts[0] != "list" {
		return "", 0, false
	}
	switch parts[1] {
	case pageBack, pageRefresh, pageNext:
	default:
		return "", 0, false
	}
	page, err := strconv.Atoi(parts[2])
	if err != nil || page < 0 {
		return "", 0, false
	}
	return parts[1], page, true
}

func stripNewlines(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}

// splitReplies turns the add form's reply text into candidate replies.
func splitReplies(raw string) []string {
	var replies []string
	for _, part := range strings.Split(stripNewlines(raw), replyDelimiter) {
		if part = strings.TrimSpace(part); part != "" {
			replies = append(replies, part)
		}
	}
	return replies
}

// parseProbability accepts "", "30" and "30%". Empty means always.
func parseProbability(raw string) (int, error) {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "%")
	if raw == "" {
		return trigger.DefaultProbability, nil
	}
	p, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: probability %q is not a number", trigger.ErrInvalidRecord, raw)
	}
	if p < 0 || p > 100 {
		return 0, fmt.Errorf("%w: probability %d is outside 0-100", trigger.ErrInvalidRecord, p)
	}
	return p, nil
}

// autocompleteChoices filters triggers case-insensitively by substring.
func autocompleteChoices(records []trigger.Record, query string) []*discordgo.ApplicationCommandOptionChoice {
	query = strings.ToLower(query)
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, maxChoices)
	for _, r := range records {
		if len(choices) == maxChoices {
			break
		}
		if !strings.Contains(strings.ToLower(r.Trigger), query) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate(r.Trigger, maxChoiceLen),
			Value: cutRunes(r.Trigger, maxChoiceLen),
		})
	}
	return choices
}

func cutRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// resolveTrigger maps a submitted value back to a stored trigger. Choice
// values are capped in length, so a capped value resolves by unique prefix.
func resolveTrigger(records []trigger.Record, input string) (string, bool) {
	for _, r := range records {
		if r.Trigger == input {
			return input, true
		}
	}
	if utf8.RuneCountInString(input) < maxChoiceLen {
		return "", false
	}
	found := ""
	for _, r := range records {
		if strings.HasPrefix(r.Trigger, input) {
			if found != "" {
				return "", false
			}
			found = r.Trigger
		}
	}
	return found, found != ""
}

var auditEmoji = map[storage.AuditAction]string{
	storage.AuditAdd:    "📝",
	storage.AuditModify: "✏️",
	storage.AuditDelete: "🗑️",
}

func auditField(e storage.AuditEntry, loc *time.Location) field {
	name := e.Timestamp.In(loc).Format(timeLayout) + " • " + truncate(e.Username, 20)
	emoji := auditEmoji[e.Action]
	trig := "`" + truncate(e.Record.Trigger, 50) + "`"

	if e.Action == storage.AuditDelete {
		return field{Name: name, Value: emoji + " **Deleted trigger:** " + trig}
	}

	label := "Added trigger"
	if e.Action == storage.AuditModify {
		label = "Modified trigger"
	}
	replies := make([]string, len(e.Record.Replies))
	for i, r := range e.Record.Replies {
		replies[i] = "`" + truncate(r, 30) + "`"
	}
	replyText := strings.Join(replies, ", ")
	if replyText == "" {
		replyText = "none"
	}

	value := strings.Join([]string{
		emoji + " **" + label + ":** " + trig,
		"└ Replies: " + replyText,
		"└ Type: `" + string(e.Record.MatchType) + "`",
		"└ Mode: `" + string(e.Record.SendMode) + "`",
		fmt.Sprintf("└ Probability: `%d%%`", e.Record.Probability),
	}, "\n")
	return field{Name: name, Value: truncate(value, fieldValueMax)}
}
