package sendgrid

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yungbote/skillbharat-backend/internal/platform/ctxutil"
	"github.com/yungbote/skillbharat-backend/internal/platform/envutil"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

type Client interface {
	Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error)
}

type Config struct {
	APIKey           string
	BaseURL          string
	DefaultFromEmail string
	DefaultFromName  string
	Timeout          time.Duration
	MaxRetries       int
	RetryWait        time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:           envutil.String("SENDGRID_API_KEY", ""),
		BaseURL:          envutil.String("SENDGRID_BASE_URL", ""),
		DefaultFromEmail: envutil.String("SENDGRID_FROM_EMAIL", ""),
		DefaultFromName:  envutil.String("SENDGRID_FROM_NAME", "Skill Bharat"),
		Timeout:          envutil.Duration("SENDGRID_TIMEOUT_SECONDS", 30*time.Second),
		MaxRetries:       envutil.Int("SENDGRID_MAX_RETRIES", 3),
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = time.Second
	}

	c := &client{log: log.With("client", "SendGridClient"), cfg: cfg}
	c.http = resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(retryable).
		AddRetryHook(func(r *resty.Response, err error) {
			c.log.Warn("Sendgrid request retrying", "status", statusOf(r), "error", err)
		})
	return c, nil
}

type client struct {
	log  *logger.Logger
	cfg  Config
	http *resty.Client
}

type EmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type SendEmailRequest struct {
	From       EmailAddress
	ReplyTo    *EmailAddress
	To         []EmailAddress
	Subject    string
	Text       string
	HTML       string
	Categories []string
	CustomArgs map[string]string
}

type SendEmailResult struct {
	StatusCode int
	MessageID  string
	RequestID  string
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             EmailAddress      `json:"from"`
	ReplyTo          *EmailAddress     `json:"reply_to,omitempty"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
	Categories       []string          `json:"categories,omitempty"`
}

type personalization struct {
	To         []EmailAddress    `json:"to"`
	CustomArgs map[string]string `json:"custom_args,omitempty"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type errorItem struct {
	Message string `json:"message"`
	Field   any    `json:"field,omitempty"`
}

type errorResponse struct {
	Errors []errorItem `json:"errors"`
}

type HTTPError struct {
	StatusCode int
	Body       string
	Errors     []errorItem
}

func (e *HTTPError) Error() string {
	if len(e.Errors) > 0 && strings.TrimSpace(e.Errors[0].Message) != "" {
		return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, e.Errors[0].Message)
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 4000 {
		msg = msg[:4000] + "..."
	}
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, msg)
}

func (c *client) Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error) {
	if strings.TrimSpace(req.From.Email) == "" {
		req.From.Email = c.cfg.DefaultFromEmail
		if strings.TrimSpace(req.From.Name) == "" {
			req.From.Name = c.cfg.DefaultFromName
		}
	}
	req.From.Email = strings.TrimSpace(req.From.Email)
	req.Subject = strings.TrimSpace(req.Subject)
	if req.From.Email == "" {
		return nil, fmt.Errorf("sendgrid: From.Email required (or set SENDGRID_FROM_EMAIL)")
	}
	if len(req.To) == 0 {
		return nil, fmt.Errorf("sendgrid: To required")
	}
	if req.Subject == "" {
		return nil, fmt.Errorf("sendgrid: Subject required")
	}

	var contents []mailContent
	if t := strings.TrimSpace(req.Text); t != "" {
		contents = append(contents, mailContent{Type: "text/plain", Value: t})
	}
	if h := strings.TrimSpace(req.HTML); h != "" {
		contents = append(contents, mailContent{Type: "text/html", Value: h})
	}
	if len(contents) == 0 {
		return nil, fmt.Errorf("sendgrid: Text or HTML content required")
	}

	wire := mailSendRequest{
		Personalizations: []personalization{{To: req.To, CustomArgs: req.CustomArgs}},
		From:             req.From,
		ReplyTo:          req.ReplyTo,
		Subject:          req.Subject,
		Content:          contents,
		Categories:       req.Categories,
	}

	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctxutil.Default(ctx)).
		SetBody(wire).
		SetError(&apiErr).
		Post("/v3/mail/send")
	if err != nil {
		return nil, fmt.Errorf("sendgrid: %w", err)
	}
	if resp.IsError() {
		return nil, &HTTPError{StatusCode: resp.StatusCode(), Body: resp.String(), Errors: apiErr.Errors}
	}
	return &SendEmailResult{
		StatusCode: resp.StatusCode(),
		MessageID:  strings.TrimSpace(resp.Header().Get("X-Message-Id")),
		RequestID:  strings.TrimSpace(resp.Header().Get("X-Request-Id")),
	}, nil
}

func retryable(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func statusOf(r *resty.Response) int {
	if r == nil {
		return 0
	}
	return r.StatusCode()
}
