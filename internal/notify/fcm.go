package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const defaultFCMEndpoint = "https://fcm.googleapis.com/fcm/send"

// FCMGateway wraps the FCM HTTP send API. Send never returns an error to
// callers; provider failure becomes false.
type FCMGateway struct {
	serverKey string
	endpoint  string
	client    *http.Client
}

func NewFCMGateway(serverKey, endpoint string) *FCMGateway {
	if endpoint == "" {
		endpoint = defaultFCMEndpoint
	}
	return &FCMGateway{
		serverKey: serverKey,
		endpoint:  endpoint,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type fcmMessage struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Priority     string            `json:"priority,omitempty"`
	DryRun       bool              `json:"dry_run,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound string `json:"sound,omitempty"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

func (g *FCMGateway) Send(ctx context.Context, token, title, body string, data map[string]string) bool {
	msg := fcmMessage{
		To:           token,
		Notification: fcmNotification{Title: title, Body: body, Sound: "default"},
		Data:         data,
		Priority:     "high",
	}
	ok, err := g.post(ctx, msg)
	if err != nil {
		logutil.GetLogger(ctx).Error("failed to send notification", zap.Error(err))
		return false
	}
	if ok {
		logutil.GetLogger(ctx).Info("notification sent", zap.String("title", title))
	}
	return ok
}

// IsTokenValid probes the token with a dry-run send.
func (g *FCMGateway) IsTokenValid(ctx context.Context, token string) bool {
	ok, err := g.post(ctx, fcmMessage{
		To:           token,
		Notification: fcmNotification{},
		DryRun:       true,
	})
	if err != nil {
		return false
	}
	return ok
}

func (g *FCMGateway) post(ctx context.Context, msg fcmMessage) (bool, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "key="+g.serverKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logutil.GetLogger(ctx).Warn("fcm request rejected",
			zap.String("status", resp.Status),
			zap.String("body", strings.TrimSpace(string(body))),
		)
		return false, nil
	}
	var out fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Failure == 0, nil
}
