package discord

import (
	"context"
	"errors"
	"net/http"

	"replybot/internal/trigger"
	"replybot/pkg/retrylimit"

	"github.com/bwmarrin/discordgo"
)

// messageSender is the part of *discordgo.Session the dispatcher needs.
type messageSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Dispatcher delivers trigger replies through a shared throttle, retrying
// transient failures.
type Dispatcher struct {
	sender  messageSender
	limiter *retrylimit.Limiter
	retry   retrylimit.Config
}

func NewDispatcher(sender messageSender, limiter *retrylimit.Limiter, retry retrylimit.Config) *Dispatcher {
	return &Dispatcher{sender: sender, limiter: limiter, retry: retry}
}

// Send answers src with resp, either as a reply or as a plain channel message.
func (d *Dispatcher) Send(ctx context.Context, src *discordgo.Message, resp *trigger.Response) error {
	msg := buildMessage(src, resp)
	return retrylimit.WithRetry(ctx, d.limiter, d.retry, func() error {
		_, err := d.sender.ChannelMessageSendComplex(src.ChannelID, msg)
		return err
	})
}

// buildMessage never lets a reply ping anyone except, in reply mode, the
// author of the triggering message.
func buildMessage(src *discordgo.Message, resp *trigger.Response) *discordgo.MessageSend {
	msg := &discordgo.MessageSend{
		Content:         resp.Text,
		AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}},
	}
	if resp.Mode == trigger.SendReply {
		msg.Reference = src.Reference()
		msg.AllowedMentions.RepliedUser = true
	}
	return msg
}

// isRetryable retries rate limits, server errors and transport failures.
func isRetryable(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		code := restErr.Response.StatusCode
		return code == http.StatusTooManyRequests || code >= 500
	}
	return true
}
