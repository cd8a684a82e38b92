package calculate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/models"
	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/report"
)

// User-visible messages, kept exactly as the original KakaoTalk bot sent
// them.
const (
	MsgInProgress   = "정산을 수행하고 있습니다. 잠시만 기다려 주십시오."
	MsgTimedOut     = "정산 처리 시간이 초과되었습니다. 나중에 다시 시도해주세요."
	MsgCompleted    = "정산이 완료되었습니다."
	MsgFailed       = "정산 중 오류가 발생했습니다. 관리자에게 문의하여 주십시오."
	MsgStartFailed  = "정산 시작 중 오류가 발생했습니다."
	MsgNetworkError = "정산 조회 중 네트워크 오류가 발생했습니다"
)

// Notifier delivers interim and final messages of one settlement job to the
// chat room that requested it.
type Notifier interface {
	Notify(ctx context.Context, text string) error
	NotifyFile(ctx context.Context, text, filename string, r io.Reader) error
}

// PollConfig holds the timing knobs of one poll cycle. The heartbeat clock
// and the overall budget clock run independently.
type PollConfig struct {
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	MaxWait           time.Duration
}

// DefaultPollConfig returns the timings the original bot used.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		PollInterval:      time.Second,
		HeartbeatInterval: 10 * time.Second,
		MaxWait:           60 * time.Second,
	}
}

// Orchestrator drives one settlement computation end to end. A single
// orchestrator serves concurrent jobs; all per-job state lives in the method
// frames.
type Orchestrator struct {
	client *Client
	cfg    PollConfig
	qrGen  func(content string) ([]byte, error)
}

// NewOrchestrator creates an orchestrator over the given client. Zero fields
// of cfg fall back to the defaults.
func NewOrchestrator(client *Client, cfg PollConfig) *Orchestrator {
	def := DefaultPollConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = def.HeartbeatInterval
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = def.MaxWait
	}
	return &Orchestrator{client: client, cfg: cfg}
}

// SetQRGenerator installs a renderer used to attach a QR image of the
// settlement detail URL to the final report. Without one the report is sent
// as plain text.
func (o *Orchestrator) SetQRGenerator(gen func(content string) ([]byte, error)) {
	o.qrGen = gen
}

// Submit validates a calculation request and submits it. A malformed request
// is rejected before any network call; a rejected or undeliverable submit
// comes back as a SubmissionError and polling must not start.
func (o *Orchestrator) Submit(ctx context.Context, req models.CalculationRequest) (string, error) {
	start, err := time.Parse(models.TimeLayout, req.StartTime)
	if err != nil {
		return "", &ValidationError{Reason: fmt.Sprintf("malformed startTime %q", req.StartTime)}
	}
	end, err := time.Parse(models.TimeLayout, req.EndTime)
	if err != nil {
		return "", &ValidationError{Reason: fmt.Sprintf("malformed endTime %q", req.EndTime)}
	}
	if !start.Before(end) {
		return "", &ValidationError{Reason: fmt.Sprintf("startTime %q is not before endTime %q", req.StartTime, req.EndTime)}
	}

	calculateID, err := o.client.StartCalculation(ctx, req)
	if err != nil {
		return "", &SubmissionError{Cause: err}
	}
	return calculateID, nil
}

// AwaitResult polls the brief result of a submitted job until it completes,
// fails, or the overall wait budget runs out. While the job is pending it
// sends at most one in-progress notice per heartbeat interval. The heartbeat
// clock and the budget clock are independent; neither resets the other.
func (o *Orchestrator) AwaitResult(ctx context.Context, calculateID string, notifier Notifier) (*models.TransferResult, error) {
	submitted := time.Now()
	lastHeartbeat := submitted

	for {
		status, result, err := o.client.FetchBriefResult(ctx, calculateID)
		if err != nil {
			return nil, &TransportError{Cause: err}
		}

		switch status {
		case http.StatusOK:
			return result, nil
		case http.StatusAccepted:
			// still computing
		default:
			return nil, &ProtocolError{StatusCode: status}
		}

		now := time.Now()
		if now.Sub(lastHeartbeat) >= o.cfg.HeartbeatInterval {
			if err := notifier.Notify(ctx, MsgInProgress); err != nil {
				slog.Warn("failed to send heartbeat", "calculateId", calculateID, "error", err)
			}
			lastHeartbeat = now
		}
		if now.Sub(submitted) >= o.cfg.MaxWait {
			return nil, ErrTimedOut
		}

		select {
		case <-ctx.Done():
			return nil, &TransportError{Cause: ctx.Err()}
		case <-time.After(o.cfg.PollInterval):
		}
	}
}

// Run executes the full lifecycle of one settlement request: submit, an
// acknowledgement message, the poll loop, and exactly one terminal
// notification carrying the report, the timeout message, or an error
// message.
func (o *Orchestrator) Run(ctx context.Context, group *models.Group, req models.CalculationRequest, notifier Notifier) (*models.TransferResult, error) {
	calculateID, err := o.Submit(ctx, req)
	if err != nil {
		slog.Error("calculation submit failed", "groupId", req.GroupID, "error", err)
		o.notify(ctx, notifier, MsgStartFailed)
		return nil, err
	}
	slog.Info("calculation submitted", "groupId", req.GroupID, "calculateId", calculateID)

	o.notify(ctx, notifier, MsgInProgress)

	result, err := o.AwaitResult(ctx, calculateID, notifier)
	if err != nil {
		o.notifyFailure(ctx, notifier, calculateID, err)
		return nil, err
	}

	text, err := report.Format(result, report.BuildNameIndex(group))
	if err != nil {
		slog.Error("failed to build transfer report", "calculateId", calculateID, "error", err)
		o.notify(ctx, notifier, MsgFailed)
		return nil, err
	}

	slog.Info("calculation completed", "groupId", req.GroupID, "calculateId", calculateID, "transfers", len(result.Transfers))
	o.sendReport(ctx, notifier, result, MsgCompleted+"\n"+text)
	return result, nil
}

func (o *Orchestrator) notifyFailure(ctx context.Context, notifier Notifier, calculateID string, err error) {
	slog.Error("calculation did not complete", "calculateId", calculateID, "error", err)

	var transportErr *TransportError
	switch {
	case errors.Is(err, ErrTimedOut):
		o.notify(ctx, notifier, MsgTimedOut)
	case errors.As(err, &transportErr):
		o.notify(ctx, notifier, fmt.Sprintf("%s: %v", MsgNetworkError, transportErr.Cause))
	default:
		o.notify(ctx, notifier, MsgFailed)
	}
}

// sendReport delivers the final report, attaching a QR image of the detail
// URL when a generator is installed. Attachment failures fall back to plain
// text so the report is never lost.
func (o *Orchestrator) sendReport(ctx context.Context, notifier Notifier, result *models.TransferResult, text string) {
	if o.qrGen != nil && result.CalculateURL != "" {
		img, err := o.qrGen(result.CalculateURL)
		if err == nil {
			if err = notifier.NotifyFile(ctx, text, "settlement_qr.jpg", bytes.NewReader(img)); err == nil {
				return
			}
		}
		slog.Warn("failed to attach QR code to report", "error", err)
	}
	o.notify(ctx, notifier, text)
}

func (o *Orchestrator) notify(ctx context.Context, notifier Notifier, text string) {
	if err := notifier.Notify(ctx, text); err != nil {
		slog.Warn("failed to deliver notification", "error", err)
	}
}
