package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fathima-sithara/chat-backend/internal/models"
)

// HTTPAPI backs the controller with the server's REST surface.
// Reads are retried with exponential backoff; mark-seen is retried
// too, which is safe because the operation is idempotent.
type HTTPAPI struct {
	base            string
	token           string
	http            *http.Client
	retryMaxElapsed time.Duration
}

func NewHTTPAPI(baseURL, token string, timeout, retryMaxElapsed time.Duration) *HTTPAPI {
	tr := &http.Transport{
		DialContext:     (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		MaxIdleConns:    16,
		IdleConnTimeout: 90 * time.Second,
	}
	return &HTTPAPI{
		base:            baseURL,
		token:           token,
		http:            &http.Client{Transport: tr, Timeout: timeout},
		retryMaxElapsed: retryMaxElapsed,
	}
}

type apiEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *HTTPAPI) ListConversation(ctx context.Context, peerID string) ([]*models.Message, error) {
	var out []*models.Message
	err := a.do(ctx, http.MethodGet, "/api/messages/"+peerID, nil, &out)
	return out, err
}

func (a *HTTPAPI) MarkSeen(ctx context.Context, messageIDs []string) (int, error) {
	body := map[string][]string{"messageIds": messageIDs}
	var out struct {
		UpdatedCount int `json:"updatedCount"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/messages/mark-seen", body, &out); err != nil {
		return 0, err
	}
	return out.UpdatedCount, nil
}

func (a *HTTPAPI) ListPeers(ctx context.Context) ([]*models.User, error) {
	var out []*models.User
	err := a.do(ctx, http.MethodGet, "/api/messages/users", nil, &out)
	return out, err
}

func (a *HTTPAPI) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	operation := func() error {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, a.base+path, rd)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+a.token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := a.http.Do(req)
		if err != nil {
			return err
		}
		defer func() {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("server error: %s", resp.Status)
		}
		var env apiEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return backoff.Permanent(err)
		}
		if resp.StatusCode >= 400 || env.Status != "ok" {
			return backoff.Permanent(fmt.Errorf("request failed: %s", env.Message))
		}
		if out != nil && len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, out); err != nil {
				return backoff.Permanent(err)
			}
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = a.retryMaxElapsed
	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}
