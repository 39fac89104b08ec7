// Package telegram implements the outbound Bot API transport: the two call
// shapes the relay issues (plain JSON, multipart upload), response
// validation, and audit logging of every call.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"tg_relay_bot/internal/config"
	"tg_relay_bot/internal/logging"
	"tg_relay_bot/internal/metrics"
	"tg_relay_bot/internal/record"
)

// API methods issued by the relay.
const (
	MethodGetMe           = "getMe"
	MethodSetWebhook      = "setWebhook"
	MethodSendMessage     = "sendMessage"
	MethodEditMessageText = "editMessageText"
)

const defaultCallTimeout = 30 * time.Second

// httpDoer captures the subset of http.Client behavior the client relies on,
// allowing stubbing in tests without a live API.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// recordAppender is the audit log contract the client depends on.
type recordAppender interface {
	Append(ctx context.Context, rec record.Record) (string, bool)
}

// Client issues Bot API calls against <base>/bot<token>/<method> and logs
// every call, successful or not, as one audit record.
type Client struct {
	token   string
	baseURL string
	http    httpDoer
	audit   recordAppender
	logger  *logrus.Entry
}

// NewClient constructs a transport client from the runtime configuration.
func NewClient(cfg config.Config, audit recordAppender, logger *logrus.Entry) (*Client, error) {
	if strings.TrimSpace(cfg.TelegramToken) == "" {
		return nil, errors.New("telegram token is required")
	}
	if audit == nil {
		return nil, errors.New("audit writer is required")
	}
	if logger == nil {
		logger = logging.Logger()
	}

	return &Client{
		token:   cfg.TelegramToken,
		baseURL: strings.TrimRight(cfg.TelegramAPIURL, "/"),
		http:    &http.Client{Timeout: defaultCallTimeout},
		audit:   audit,
		logger:  logger,
	}, nil
}

// CallJSON performs a Bot API call with a JSON body, validates the response,
// and returns the logged record (including the assigned log id). Failures
// are captured in the record's error field; no error escapes.
func (c *Client) CallJSON(ctx context.Context, method string, params map[string]any, updateID int64) record.Record {
	var body io.Reader
	if len(params) > 0 {
		raw, err := json.Marshal(params)
		if err != nil {
			return c.finish(ctx, method, updateID, params, nil, &TransportError{Err: err})
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), body)
	if err != nil {
		return c.finish(ctx, method, updateID, params, nil, &TransportError{Err: err})
	}
	req.Header.Set("Content-Type", "application/json")

	result, callErr := c.do(req)
	return c.finish(ctx, method, updateID, params, result, callErr)
}

// CallMultipart performs a Bot API call with a multipart body. Any param
// whose value is a path to an existing local file is attached as file
// content under its base filename; every other param becomes a plain field.
// Used for certificate upload during webhook registration.
func (c *Client) CallMultipart(ctx context.Context, method string, params map[string]any, updateID int64) record.Record {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for key, value := range params {
		if err := writePart(mw, key, value); err != nil {
			_ = mw.Close()
			return c.finish(ctx, method, updateID, params, nil, &TransportError{Err: err})
		}
	}

	if err := mw.Close(); err != nil {
		return c.finish(ctx, method, updateID, params, nil, &TransportError{Err: err})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), &buf)
	if err != nil {
		return c.finish(ctx, method, updateID, params, nil, &TransportError{Err: err})
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	result, callErr := c.do(req)
	return c.finish(ctx, method, updateID, params, result, callErr)
}

// SelfTest verifies communication with the Bot API via getMe.
func (c *Client) SelfTest(ctx context.Context) record.Record {
	return c.CallJSON(ctx, MethodGetMe, nil, 0)
}

// SetWebhook registers the webhook delivery URL, uploading the certificate
// when one is configured.
func (c *Client) SetWebhook(ctx context.Context, url, certPath string) record.Record {
	params := map[string]any{"url": url}
	if certPath != "" {
		params["certificate"] = certPath
	}

	return c.CallMultipart(ctx, MethodSetWebhook, params, 0)
}

// RemoveWebhook unregisters webhook delivery.
func (c *Client) RemoveWebhook(ctx context.Context) record.Record {
	return c.CallMultipart(ctx, MethodSetWebhook, map[string]any{"url": ""}, 0)
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return validateResponse(nil, 0, err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return validateResponse(nil, 0, readErr)
	}

	return validateResponse(body, resp.StatusCode, nil)
}

func (c *Client) finish(ctx context.Context, method string, updateID int64, params map[string]any, result json.RawMessage, callErr error) record.Record {
	rec := extractResult(method, updateID, params, result, callErr)

	outcome := metrics.OutcomeOK
	if callErr != nil {
		outcome = metrics.OutcomeError
		c.logger.WithFields(logging.Fields{
			"event":     "api_call_failed",
			"method":    method,
			"update_id": updateID,
		}).WithError(callErr).Warn("telegram api call failed")
	}
	metrics.APIRequestsTotal.WithLabelValues(method, outcome).Inc()

	logID, _ := c.audit.Append(ctx, rec)
	rec.LogID = logID

	return rec
}

func writePart(mw *multipart.Writer, key string, value any) error {
	if path, ok := value.(string); ok && fileExists(path) {
		part, err := mw.CreateFormFile(key, filepath.Base(path))
		if err != nil {
			return fmt.Errorf("create file part %s: %w", key, err)
		}

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()

		if _, err := io.Copy(part, f); err != nil {
			return fmt.Errorf("copy %s: %w", path, err)
		}

		return nil
	}

	if err := mw.WriteField(key, fmt.Sprint(value)); err != nil {
		return fmt.Errorf("write field %s: %w", key, err)
	}

	return nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}

	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// botProfile is the getMe result shape the relay cares about.
type botProfile struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// extractResult builds the audit record for one outbound call, decoding the
// validated result into the per-method shape. getMe and setWebhook are
// service requests; everything else is a response to an inbound update.
func extractResult(method string, updateID int64, params map[string]any, result json.RawMessage, callErr error) record.Record {
	rec := record.Record{
		Method: method,
		Action: actionFor(method),
	}
	if updateID > 0 {
		rec.UpdateID = updateID
	}

	if callErr != nil {
		rec.Error = callErr.Error()
		return rec
	}

	switch method {
	case MethodGetMe:
		var profile botProfile
		if err := json.Unmarshal(result, &profile); err == nil && profile.ID != 0 {
			rec.UserID = profile.ID
			rec.Username = profile.Username
			rec.UserFirstName = profile.FirstName
			rec.UserLastName = profile.LastName
			rec.Content = "bot detected"
		}

	case MethodSetWebhook:
		var confirmed bool
		if err := json.Unmarshal(result, &confirmed); err == nil && confirmed {
			if url, _ := params["url"].(string); url == "" {
				rec.Content = "connection removed"
			} else {
				rec.Content = "connection set"
			}
		}

	case MethodSendMessage, MethodEditMessageText:
		var msg models.Message
		if err := json.Unmarshal(result, &msg); err == nil {
			rec.MessageID = int64(msg.ID)
			rec.Merge(record.ChatFields(&msg.Chat))
			// In private chats user_id equals chat_id.
			if rec.UserID == 0 && msg.Chat.Type == "private" {
				rec.UserID = msg.Chat.ID
			}
			rec.Content = msg.Text
			rec.Attachment = record.EncodeEntities(msg.Entities)
		}
	}

	return rec
}

func actionFor(method string) record.Action {
	if method == MethodGetMe || method == MethodSetWebhook {
		return record.ActionRequest
	}

	return record.ActionResponse
}
