package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestWebhookSend(t *testing.T) {
	var payload map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Error("expected Content-Type: application/json")
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := NewDispatcher(Config{WebhookURL: server.URL}, zap.NewNop().Sugar())
	results := d.Dispatch(context.Background(), ":green_heart: All queries within limits again!")

	if len(results) != 1 || !results[0].Success || results[0].Channel != "webhook" {
		t.Fatalf("results = %+v", results)
	}
	if payload["msg"] != ":green_heart: All queries within limits again!" {
		t.Errorf("payload = %v", payload)
	}
}

func TestWebhookSendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	d := NewDispatcher(Config{WebhookURL: server.URL}, nil)
	results := d.Dispatch(context.Background(), "hello")
	if len(results) != 1 || results[0].Success || results[0].Error == "" {
		t.Fatalf("results = %+v, want one failure", results)
	}
}

func TestSlackSend(t *testing.T) {
	var payload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := NewDispatcher(Config{SlackWebhookURL: server.URL}, nil)
	results := d.Dispatch(context.Background(), "hello slack")
	if len(results) != 1 || !results[0].Success || results[0].Channel != "slack" {
		t.Fatalf("results = %+v", results)
	}
	if payload["text"] != "hello slack" {
		t.Errorf("payload = %v", payload)
	}
}

func TestDefaultsToLog(t *testing.T) {
	d := NewDispatcher(Config{}, zap.NewNop().Sugar())
	results := d.Dispatch(context.Background(), "hello")
	if len(results) != 1 || results[0].Channel != "log" || !results[0].Success {
		t.Fatalf("results = %+v", results)
	}
}

func TestEmptyMessageNotSent(t *testing.T) {
	ch := &recordingChannel{}
	d := NewDispatcherWithChannels(ch)
	if results := d.Dispatch(context.Background(), ""); results != nil {
		t.Errorf("results = %+v, want nil", results)
	}
	if ch.calls != 0 {
		t.Errorf("channel called %d times", ch.calls)
	}
}

func TestDispatchContinuesAfterFailure(t *testing.T) {
	failing := &recordingChannel{err: errors.New("boom")}
	ok := &recordingChannel{}
	results := NewDispatcherWithChannels(failing, ok).Dispatch(context.Background(), "x")
	if len(results) != 2 || results[0].Success || !results[1].Success {
		t.Fatalf("results = %+v", results)
	}
	if ok.calls != 1 {
		t.Error("second channel not called")
	}
}

type recordingChannel struct {
	err   error
	calls int
}

func (r *recordingChannel) Send(context.Context, string) error {
	r.calls++
	return r.err
}

func (r *recordingChannel) Name() string { return "recording" }
