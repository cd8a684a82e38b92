package discord

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/chat"
	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/models"
)

// Replies of the chat-recording path.
const (
	MsgMemberNotFound   = "멤버 정보를 찾을 수 없습니다."
	MsgChatSaveFailed   = "채팅 저장에 실패했습니다."
	MsgChatNetworkError = "네트워크 오류가 발생했습니다."
)

// ErrMemberNotFound reports an author whose nickname is missing from the
// group roster.
var ErrMemberNotFound = errors.New("member not found in roster")

// ChatUploader records ordinary group messages as expense history.
type ChatUploader interface {
	Upload(ctx context.Context, messages []chat.Message) error
}

// chatMessageFor resolves the author in the roster and builds the upload
// payload for one chat line.
func chatMessageFor(group *models.Group, nickname, content string, now time.Time) (chat.Message, error) {
	for _, m := range group.Members {
		if m.Nickname == nickname {
			return chat.Message{
				GroupID:   group.GroupID,
				Timestamp: now.Format(models.TimeLayout),
				MemberID:  m.MemberID,
				Message:   content,
			}, nil
		}
	}
	return chat.Message{}, ErrMemberNotFound
}

// recordChat registers the room and author, then uploads the message as
// expense history. Every ordinary message goes through here, so the roster
// fills up from normal conversation before anyone asks for a settlement.
func (b *Bot) recordChat(s *discordgo.Session, m *discordgo.MessageCreate) {
	ctx := context.Background()

	group, ok := b.resolveGroup(ctx, s, m)
	if !ok {
		return
	}
	if b.uploader == nil {
		return
	}

	msg, err := chatMessageFor(group, m.Author.Username, m.Content, time.Now())
	if err != nil {
		slog.Warn("author missing from roster", "groupId", group.GroupID, "nickname", m.Author.Username)
		s.ChannelMessageSend(m.ChannelID, MsgMemberNotFound)
		return
	}

	if err := b.uploader.Upload(ctx, []chat.Message{msg}); err != nil {
		slog.Error("failed to upload chat message", "groupId", group.GroupID, "error", err)
		var statusErr *chat.StatusError
		if errors.As(err, &statusErr) {
			s.ChannelMessageSend(m.ChannelID, MsgChatSaveFailed)
		} else {
			s.ChannelMessageSend(m.ChannelID, MsgChatNetworkError)
		}
	}
}
