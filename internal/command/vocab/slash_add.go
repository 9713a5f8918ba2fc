package vocab

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"replybot/internal/command"
	"replybot/internal/storage"
	"replybot/internal/trigger"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"
)

const (
	addModalID   = "add:modal"
	fieldTrigger = "trigger"
	fieldReplies = "replies"
	fieldType    = "type"
	fieldMode    = "mode"
	fieldChance  = "probability"
)

type AddCommand struct{}

func (c *AddCommand) Name() string        { return "add" }
func (c *AddCommand) Description() string { return "Add a trigger and its replies to this server" }
func (c *AddCommand) Category() string    { return "💬 Vocabulary" }

func (c *AddCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *AddCommand) Run(ctx interface{}) error {
	sc, ok := ctx.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	return command.RespondModal(sc.Session, sc.Event, addModal())
}

func addModal() *discordgo.InteractionResponseData {
	input := func(id, label, placeholder, value string, style discordgo.TextInputStyle, required bool, maxLen int) discordgo.MessageComponent {
		return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    id,
				Label:       label,
				Placeholder: placeholder,
				Value:       value,
				Style:       style,
				Required:    required,
				MaxLength:   maxLen,
			},
		}}
	}
	return &discordgo.InteractionResponseData{
		CustomID: addModalID,
		Title:    "Add vocabulary",
		Components: []discordgo.MessageComponent{
			input(fieldTrigger, "Trigger text", "hello", "", discordgo.TextInputParagraph, true, 4000),
			input(fieldReplies, "Replies, separate random picks with </>", "hi!\n</>\nhey!", "", discordgo.TextInputParagraph, true, 4000),
			input(fieldType, "Match type (exact, contains)", "exact, contains", "exact", discordgo.TextInputShort, true, 10),
			input(fieldMode, "Send mode (reply, message)", "reply, message", "reply", discordgo.TextInputShort, true, 10),
			input(fieldChance, "Reply probability in percent (0-100)", "100", "100", discordgo.TextInputShort, false, 4),
		},
	}
}

func (c *AddCommand) ModalSubmit(ctx *command.ModalSubmitContext) error {
	s, e := ctx.Session, ctx.Event
	if e.GuildID == "" {
		return nil
	}

	rec, err := parseAddForm(modalValues(e.ModalSubmitData()))
	if err != nil {
		return command.RespondError(s, e, "That entry can't be saved", invalidReason(err))
	}

	opCtx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	previous, err := ctx.Engine.Upsert(opCtx, e.GuildID, rec)
	if errors.Is(err, trigger.ErrInvalidRecord) {
		return command.RespondError(s, e, "That entry can't be saved", invalidReason(err))
	}
	if errors.Is(err, storage.ErrMalformedData) {
		return command.RespondError(s, e, "That entry can't be saved", "This server's stored vocabulary is damaged and needs to be repaired first.")
	}
	if err != nil {
		return fmt.Errorf("save trigger: %w", err)
	}

	action := storage.AuditAdd
	title := "Vocabulary added"
	if previous != nil {
		action = storage.AuditModify
		title = "Vocabulary updated"
	}
	user := command.ResolveUser(e)
	if err := ctx.Storage.AppendAudit(opCtx, e.GuildID, storage.AuditEntry{
		UserID:   user.ID,
		Username: user.Username,
		Action:   action,
		Record:   rec,
	}); err != nil {
		log.Printf("[WARN] Failed to write audit entry for guild %s: %v", e.GuildID, err)
	}

	msg := embed.NewEmbed().
		SetColor(command.ColorSuccess).
		SetTitle(title).
		AddField("Trigger", "`"+truncate(rec.Trigger, 1000)+"`").
		AddField("Replies", truncate(strings.Join(rec.Replies, "\n"), fieldValueMax)).
		AddField("Match type", "`"+string(rec.MatchType)+"`").
		AddField("Send mode", "`"+string(rec.SendMode)+"`").
		AddField("Probability", fmt.Sprintf("`%d%%`", rec.Probability))
	return command.RespondEmbedEphemeral(s, e, msg.MessageEmbed)
}

// parseAddForm builds a record from the submitted form fields.
func parseAddForm(values map[string]string) (trigger.Record, error) {
	matchType, err := trigger.ParseMatchType(values[fieldType])
	if err != nil {
		return trigger.Record{}, err
	}
	mode, err := trigger.ParseSendMode(values[fieldMode])
	if err != nil {
		return trigger.Record{}, err
	}
	probability, err := parseProbability(values[fieldChance])
	if err != nil {
		return trigger.Record{}, err
	}

	rec := trigger.Record{
		Trigger:     strings.TrimSpace(stripNewlines(values[fieldTrigger])),
		Replies:     splitReplies(values[fieldReplies]),
		MatchType:   matchType,
		SendMode:    mode,
		Probability: probability,
	}
	return rec, rec.Validate()
}

func modalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	for _, comp := range data.Components {
		row, ok := comp.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if input, ok := inner.(*discordgo.TextInput); ok {
				values[input.CustomID] = input.Value
			}
		}
	}
	return values
}

func invalidReason(err error) string {
	return strings.TrimPrefix(err.Error(), trigger.ErrInvalidRecord.Error()+": ")
}
