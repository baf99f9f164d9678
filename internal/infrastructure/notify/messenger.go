package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sngm3741/bizsurvey-services/api/internal/public/domain"
)

const (
	discordAttempts = 3
	defaultDelay    = 200 * time.Millisecond
	defaultTimeout  = 5 * time.Second
	senderID        = "bizsurvey"
	failureTarget   = "admin_notification"
)

// FailureRecorder は全チャネルへの送信に失敗した通知を保存する。
type FailureRecorder interface {
	Record(ctx context.Context, target string, payload map[string]any, cause error, attempts int) error
}

// Config は Messenger の依存。
type Config struct {
	HTTPClient         *http.Client
	Endpoint           string
	DiscordDestination string
	SlackDestination   string
	AdminBaseURL       string
	Failures           FailureRecorder
	Logger             *log.Logger
	RetryDelay         time.Duration
}

// Messenger はメッセンジャーゲートウェイ経由で管理チャネルへ新着回答を通知する。
// Discord を優先し、失敗時は Slack にフォールバック、両方失敗したら failed_notifications へ記録する。
type Messenger struct {
	client       *http.Client
	endpoint     string
	discord      string
	slack        string
	adminBaseURL string
	failures     FailureRecorder
	logger       *log.Logger
	retryDelay   time.Duration
}

// NewMessenger は Config から Messenger を生成する。
func NewMessenger(cfg Config) *Messenger {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	delay := cfg.RetryDelay
	if delay < 0 {
		delay = 0
	} else if delay == 0 {
		delay = defaultDelay
	}
	return &Messenger{
		client:       client,
		endpoint:     strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
		discord:      strings.TrimSpace(cfg.DiscordDestination),
		slack:        strings.TrimSpace(cfg.SlackDestination),
		adminBaseURL: strings.TrimRight(strings.TrimSpace(cfg.AdminBaseURL), "/"),
		failures:     cfg.Failures,
		logger:       cfg.Logger,
		retryDelay:   delay,
	}
}

// NotifySubmission は新着回答を管理チャネルへ通知する。送信先が未設定なら何もしない。
func (m *Messenger) NotifySubmission(ctx context.Context, submission domain.Submission) error {
	if m.endpoint == "" || (m.discord == "" && m.slack == "") {
		return nil
	}

	var discordErr, slackErr error
	attempts := 0

	if m.discord != "" {
		discordErr = m.sendWithRetry(ctx, m.discord, buildDiscordMessage(m.adminBaseURL, submission), discordAttempts, m.retryDelay)
		attempts += discordAttempts
		if discordErr == nil {
			return nil
		}
		m.logf("Discord通知の送信に失敗: %v", discordErr)
	}

	if m.slack != "" {
		slackErr = m.sendWithRetry(ctx, m.slack, buildSlackMessage(m.adminBaseURL, submission), 1, 0)
		attempts++
		if slackErr == nil {
			return nil
		}
		m.logf("Slack通知の送信に失敗: %v", slackErr)
	}

	combined := errors.Join(discordErr, slackErr)
	m.persistFailure(ctx, submission, combined, attempts)
	return combined
}

func buildDiscordMessage(adminBaseURL string, s domain.Submission) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("**%s** から新しいアンケート回答があります。\n", displayCompany(s)))
	builder.WriteString(fmt.Sprintf("- 業種: %s\n", firstNonEmpty(s.IndustryName, s.Industry)))
	builder.WriteString(fmt.Sprintf("- 受付番号: %s\n", s.ReferenceCode))
	if s.Profile.Region != "" {
		builder.WriteString(fmt.Sprintf("- 地域: %s\n", s.Profile.Region))
	}
	if s.Profile.CompanySize != "" {
		builder.WriteString(fmt.Sprintf("- 規模: %s\n", s.Profile.CompanySize))
	}
	if link := surveyLink(adminBaseURL, s.ID); link != "" {
		builder.WriteString(fmt.Sprintf("[管理画面で確認](%s)\n", link))
	}
	return builder.String()
}

func buildSlackMessage(adminBaseURL string, s domain.Submission) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf(":warning: %s から新しいアンケート回答があります。\n", displayCompany(s)))
	builder.WriteString(fmt.Sprintf("業種: %s\n", firstNonEmpty(s.IndustryName, s.Industry)))
	builder.WriteString(fmt.Sprintf("受付番号: %s\n", s.ReferenceCode))
	if link := surveyLink(adminBaseURL, s.ID); link != "" {
		builder.WriteString(fmt.Sprintf("管理画面: %s\n", link))
	}
	return builder.String()
}

func surveyLink(adminBaseURL, id string) string {
	if adminBaseURL == "" || id == "" {
		return ""
	}
	return adminBaseURL + "/" + id
}

func displayCompany(s domain.Submission) string {
	return firstNonEmpty(s.Profile.CompanyName, "匿名の企業")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (m *Messenger) sendWithRetry(ctx context.Context, destination, text string, attempts int, delay time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := m.send(ctx, destination, text); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if delay > 0 && i < attempts-1 {
			select {
			case <-ctx.Done():
				return errors.Join(lastErr, ctx.Err())
			case <-time.After(delay):
			}
		}
	}
	return lastErr
}

func (m *Messenger) persistFailure(ctx context.Context, s domain.Submission, cause error, attempts int) {
	if m.failures == nil || cause == nil {
		return
	}
	payload := map[string]any{
		"surveyId":      s.ID,
		"referenceCode": s.ReferenceCode,
		"industry":      s.Industry,
		"companyName":   s.Profile.CompanyName,
		"email":         s.Profile.Email,
	}
	if err := m.failures.Record(ctx, failureTarget, payload, cause, attempts); err != nil {
		m.logf("failed_notifications への保存に失敗: %v", err)
	}
}

func (m *Messenger) send(ctx context.Context, destination, text string) error {
	payload := map[string]any{
		"userId":      senderID,
		"text":        text,
		"destination": destination,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("メッセンジャー送信用ペイロードの作成に失敗: %w", err)
	}

	timeout := m.client.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctxWithTimeout, http.MethodPost, m.endpoint+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("メッセンジャー送信リクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("メッセンジャー送信リクエストに失敗: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		message, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		return fmt.Errorf("メッセンジャー送信でエラーが発生: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(message)))
	}
	return nil
}

func (m *Messenger) logf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}
