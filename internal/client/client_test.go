package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchSuccess(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/questions/category/grammaire" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
			t.Errorf("Authorization = %q", auth)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status":"success","message":"ok","data":{"id":"1"}}`))
	}))
	defer srv.Close()

	res := New(srv.URL+"/", WithToken("tok")).Fetch(context.Background(), "/api/questions/category/grammaire", map[string]any{"content": "x"})
	if !res.OK() || res.Status != http.StatusCreated {
		t.Fatalf("result = %+v", res)
	}
	if gotBody["content"] != "x" {
		t.Errorf("server received %v", gotBody)
	}
	var env struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(res.Data, &env); err != nil || env.Data.ID != "1" {
		t.Errorf("data = %s (%v)", res.Data, err)
	}
}

func TestFetchHTTPError(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"envelope message", `{"status":"error","message":"Validation failed."}`, "Validation failed."},
		{"no message", `{"status":"error"}`, "HTTP error! status: 400"},
		{"not json", `<html>bad</html>`, "HTTP error! status: 400"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			res := New(srv.URL).Fetch(context.Background(), "/x", map[string]string{})
			if res.Error != tt.want || res.Status != http.StatusBadRequest || res.Data != nil {
				t.Errorf("result = %+v, want error %q", res, tt.want)
			}
		})
	}
}

func TestFetchInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"status":`))
	}))
	defer srv.Close()

	res := New(srv.URL).Fetch(context.Background(), "/x", nil)
	if res.Error != MsgInvalidJSON || res.Status != http.StatusAccepted {
		t.Errorf("result = %+v", res)
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	res := New(srv.URL, WithTimeout(50*time.Millisecond)).Fetch(context.Background(), "/slow", map[string]string{})
	if res.Error != MsgTimeout || res.Status != http.StatusGatewayTimeout {
		t.Errorf("result = %+v", res)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestFetchTransportErrors(t *testing.T) {
	deadline := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, context.DeadlineExceeded
	})}
	res := New("http://api.invalid", WithHTTPClient(deadline)).Fetch(context.Background(), "/x", nil)
	if res.Error != MsgTimeout || res.Status != http.StatusGatewayTimeout {
		t.Errorf("deadline result = %+v", res)
	}

	refused := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})}
	res = New("http://api.invalid", WithHTTPClient(refused)).Fetch(context.Background(), "/x", nil)
	if res.Status != http.StatusInternalServerError || res.Error == "" || res.Error == MsgTimeout {
		t.Errorf("refused result = %+v", res)
	}
}

func TestFetchCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := New("http://127.0.0.1:1").Get(ctx, "/health")
	if res.Error != MsgTimeout || res.Status != http.StatusGatewayTimeout {
		t.Errorf("result = %+v", res)
	}
}
