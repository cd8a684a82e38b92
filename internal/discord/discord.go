// Package discord connects the bot to Discord: it watches chat rooms for
// settlement requests, records ordinary messages as expense history, and
// delivers job notifications back to the rooms.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/calculate"
	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/models"
)

// MsgInvalidArgs is the reply to a settlement command with the wrong number
// of arguments; MsgInvalidDateFormat when the dates themselves are unusable.
const (
	MsgInvalidArgs       = "정산 인자가 잘못되었습니다."
	MsgInvalidDateFormat = "정산 인자가 잘못되었습니다. (날짜 형식: YYMMDDSS)"
)

// MsgGroupError is the reply when the group roster cannot be resolved.
const MsgGroupError = "서버 오류가 발생했습니다."

// GroupDirectory resolves a chat room and message author into the group and
// member identities used by the settlement backend.
type GroupDirectory interface {
	GetOrCreateGroup(ctx context.Context, groupID int64, groupName, nickname string) (*models.Group, error)
}

// Bot owns the Discord session and the settlement job entry point.
type Bot struct {
	session      *discordgo.Session
	directory    GroupDirectory
	orchestrator *calculate.Orchestrator
	uploader     ChatUploader
}

// New creates the bot and registers its message handler. uploader may be nil
// to disable chat recording.
func New(token string, directory GroupDirectory, orchestrator *calculate.Orchestrator, uploader ChatUploader) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	b := &Bot{session: session, directory: directory, orchestrator: orchestrator, uploader: uploader}
	session.AddHandler(b.onMessage)
	return b, nil
}

// Open establishes the websocket connection to Discord.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}
	slog.Info("Connected to Discord successfully")
	return nil
}

// Close shuts down the Discord session.
func (b *Bot) Close() {
	if b.session != nil {
		b.session.Close()
	}
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore the bot's own messages
	if m.Author.ID == s.State.User.ID {
		return
	}

	rng, err := ParseSettleMessage(m.Content, time.Now())
	switch {
	case err == nil:
		// Each job runs in its own goroutine with its own timer state, so
		// one slow computation never blocks other rooms.
		go b.runSettlement(s, m, rng)
	case errors.Is(err, ErrNotSettlement):
		// Ordinary chatter is the expense history settlements are computed
		// from.
		go b.recordChat(s, m)
	default:
		slog.Info("rejected settlement request", "channelId", m.ChannelID, "error", err)
		s.ChannelMessageSend(m.ChannelID, argErrorReply(err))
	}
}

// argErrorReply picks the reply for a rejected settlement command.
func argErrorReply(err error) string {
	if errors.Is(err, ErrArgCount) {
		return MsgInvalidArgs
	}
	return MsgInvalidDateFormat
}

// resolveGroup registers the room and author with the directory and returns
// the group roster. On failure the room is told and false comes back.
func (b *Bot) resolveGroup(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) (*models.Group, bool) {
	channelID, err := strconv.ParseInt(m.ChannelID, 10, 64)
	if err != nil {
		slog.Error("unexpected non-numeric channel id", "channelId", m.ChannelID, "error", err)
		return nil, false
	}

	roomName := m.ChannelID
	if ch, err := s.Channel(m.ChannelID); err == nil && ch.Name != "" {
		roomName = ch.Name
	}

	group, err := b.directory.GetOrCreateGroup(ctx, channelID, roomName, m.Author.Username)
	if err != nil {
		slog.Error("failed to resolve group", "channelId", m.ChannelID, "error", err)
		s.ChannelMessageSend(m.ChannelID, MsgGroupError)
		return nil, false
	}
	return group, true
}

func (b *Bot) runSettlement(s *discordgo.Session, m *discordgo.MessageCreate, rng DateRange) {
	ctx := context.Background()

	group, ok := b.resolveGroup(ctx, s, m)
	if !ok {
		return
	}

	req := models.CalculationRequest{
		GroupID:   group.GroupID,
		StartTime: rng.Start.Format(models.TimeLayout),
		EndTime:   rng.End.Format(models.TimeLayout),
	}

	notifier := &channelNotifier{session: s, channelID: m.ChannelID}
	if _, err := b.orchestrator.Run(ctx, group, req, notifier); err != nil {
		slog.Error("settlement job finished with error", "groupId", group.GroupID, "error", err)
	}
}
