package discord

import (
	"context"
	"io"

	"github.com/bwmarrin/discordgo"

	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/calculate"
)

// channelNotifier delivers job notifications to one Discord channel.
type channelNotifier struct {
	session   *discordgo.Session
	channelID string
}

var _ calculate.Notifier = (*channelNotifier)(nil)

func (n *channelNotifier) Notify(ctx context.Context, text string) error {
	_, err := n.session.ChannelMessageSend(n.channelID, text)
	return err
}

func (n *channelNotifier) NotifyFile(ctx context.Context, text, filename string, r io.Reader) error {
	_, err := n.session.ChannelFileSendWithMessage(n.channelID, text, filename, r)
	return err
}
