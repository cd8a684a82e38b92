// Package models contains the shared domain types of the Tally Bot core.
package models

// TimeLayout is the second-precision timestamp format used on the wire.
const TimeLayout = "2006-01-02 15:04:05"

// Member is one participant of a chat group. Nicknames are unique within a
// group.
type Member struct {
	MemberID int64  `json:"memberId"`
	Nickname string `json:"nickname"`
}

// Group is a chat room registered with the bot, created on first contact.
type Group struct {
	GroupID   int64    `json:"groupId"`
	GroupName string   `json:"groupName"`
	Members   []Member `json:"members"`
}

// CalculationRequest asks the calculate service to settle a group's expenses
// over an inclusive time window.
type CalculationRequest struct {
	GroupID   int64  `json:"groupId"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Transfer is one who-pays-whom instruction in a computed result.
type Transfer struct {
	PayerID int64 `json:"payerId"`
	PayeeID int64 `json:"payeeId"`
	Amount  int64 `json:"amount"`
}

// TransferResult is the outcome of one settlement computation, produced once
// by the calculate service.
type TransferResult struct {
	Transfers    []Transfer `json:"transfers"`
	CalculateURL string     `json:"calculateUrl"`
	GroupURL     string     `json:"groupUrl"`
}

// Payment is one expense line inside a settlement detail record. Ratio is
// aligned index-by-index with Target and must sum to 1.
type Payment struct {
	ID       int64     `json:"id"`
	Item     string    `json:"item" validate:"required"`
	Amount   int64     `json:"amount" validate:"gt=0"`
	Payer    string    `json:"payer" validate:"required"`
	Target   []string  `json:"target" validate:"min=1,dive,required"`
	Ratio    []float64 `json:"ratio"`
	ImageURL string    `json:"imageUrl,omitempty"`
}

// SettlementDetail is the authoritative settlement document. CreatedAt is an
// opaque nullable string carried exactly as persisted.
type SettlementDetail struct {
	ID           string    `json:"id"`
	Title        string    `json:"title" validate:"required"`
	CreatedAt    *string   `json:"createdAt"`
	Participants []string  `json:"participants" validate:"min=1,dive,required"`
	Payments     []Payment `json:"payments" validate:"min=1,dive"`
	IsCompleted  bool      `json:"isCompleted"`
}

// SettlementSummary is the denormalized listing entry derived from one
// detail record.
type SettlementSummary struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	CreatedAt        *string `json:"createdAt"`
	ParticipantCount int     `json:"participantCount"`
	TotalAmount      int64   `json:"totalAmount"`
	IsCompleted      bool    `json:"isCompleted"`
}
