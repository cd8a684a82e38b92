// Package report renders a computed transfer result into the chat message
// shown to the group.
package report

import (
	"fmt"
	"strings"

	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/models"
)

// Report header and URL lead-ins, as the bot sends them.
const (
	header        = "정산 결과\n"
	calculateLead = "이 정산의 세부 내용을 보려면? "
	groupLead     = "채팅방 전체 정산 기록을 보려면? "
)

// IntegrityError reports a transfer that references a member id missing from
// the group roster. The report is abandoned rather than rendered with holes.
type IntegrityError struct {
	MemberID int64
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("transfer references unknown member id %d", e.MemberID)
}

// BuildNameIndex maps every member id of the group to its nickname.
func BuildNameIndex(group *models.Group) map[int64]string {
	index := make(map[int64]string, len(group.Members))
	for _, m := range group.Members {
		index[m.MemberID] = m.Nickname
	}
	return index
}

// Format renders one line per transfer in the order the calculate service
// returned them, followed by the detail and group record URLs. Every payer
// and payee id must resolve in the name index; one unresolved id fails the
// whole report.
func Format(result *models.TransferResult, names map[int64]string) (string, error) {
	var b strings.Builder
	b.WriteString(header)
	for _, t := range result.Transfers {
		payer, ok := names[t.PayerID]
		if !ok {
			return "", &IntegrityError{MemberID: t.PayerID}
		}
		payee, ok := names[t.PayeeID]
		if !ok {
			return "", &IntegrityError{MemberID: t.PayeeID}
		}
		fmt.Fprintf(&b, "%s -> %s: %d원\n", payer, payee, t.Amount)
	}
	b.WriteString(calculateLead + result.CalculateURL + "\n")
	b.WriteString(groupLead + result.GroupURL)
	return b.String(), nil
}
