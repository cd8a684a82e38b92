package discord

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/models"
)

func rosterGroup() *models.Group {
	return &models.Group{
		GroupID:   7,
		GroupName: "여행 모임",
		Members: []models.Member{
			{MemberID: 1, Nickname: "민수"},
			{MemberID: 2, Nickname: "영희"},
		},
	}
}

func TestChatMessageFor(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 34, 56, 0, time.Local)

	msg, err := chatMessageFor(rosterGroup(), "영희", "점심 2만원 냈어", now)
	require.NoError(t, err)

	assert.Equal(t, int64(7), msg.GroupID)
	assert.Equal(t, int64(2), msg.MemberID)
	assert.Equal(t, "점심 2만원 냈어", msg.Message)
	assert.Equal(t, "2025-06-01 12:34:56", msg.Timestamp)
}

func TestChatMessageFor_UnknownMember(t *testing.T) {
	_, err := chatMessageFor(rosterGroup(), "철수", "안녕", time.Now())

	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestArgErrorReply(t *testing.T) {
	_, err := ParseSettleMessage("!정산 25060100", time.Now())
	require.Error(t, err)
	assert.Equal(t, MsgInvalidArgs, argErrorReply(err))

	_, err = ParseSettleMessage("!정산 어제 오늘", time.Now())
	require.Error(t, err)
	assert.Equal(t, MsgInvalidDateFormat, argErrorReply(err))

	_, err = ParseSettleMessage("!정산 25069900 25069923", time.Now())
	require.Error(t, err)
	assert.Equal(t, MsgInvalidDateFormat, argErrorReply(err))
}
