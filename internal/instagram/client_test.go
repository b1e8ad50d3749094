package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"postpilot/internal/domain"
)

func validToken() *domain.OAuthToken {
	return &domain.OAuthToken{
		IGUserID:    "17841400000000",
		AccessToken: "long-lived-token",
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	}
}

func imageRequest() PublishRequest {
	return PublishRequest{
		IGUserID:  "17841400000000",
		MediaKind: domain.MediaTypeImage,
		MediaURL:  "http://localhost:8080/media/a.png",
		Caption:   "Fresh drop.\n\n#coffee",
	}
}

func TestPublishImage(t *testing.T) {
	var containerCalls, publishCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/17841400000000/media":
			containerCalls++
			if err := r.ParseForm(); err != nil {
				t.Fatalf("parse form: %v", err)
			}
			if got := r.PostFormValue("image_url"); got != "http://localhost:8080/media/a.png" {
				t.Fatalf("image_url = %q", got)
			}
			if got := r.PostFormValue("caption"); got != "Fresh drop.\n\n#coffee" {
				t.Fatalf("caption = %q", got)
			}
			if got := r.PostFormValue("access_token"); got != "long-lived-token" {
				t.Fatalf("access_token = %q", got)
			}
			if r.PostFormValue("media_type") != "" {
				t.Fatal("image container must not set media_type")
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "container-9"})
		case "/17841400000000/media_publish":
			publishCalls++
			if got := r.PostFormValue("creation_id"); got != "container-9" {
				t.Fatalf("creation_id = %q", got)
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "post-42"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{BaseURL: srv.URL})
	result, err := client.Publish(context.Background(), validToken(), imageRequest())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if result.PostID != "post-42" || result.ContainerID != "container-9" {
		t.Fatalf("result = %+v", result)
	}
	if containerCalls != 1 || publishCalls != 1 {
		t.Fatalf("calls = %d/%d, want 1/1", containerCalls, publishCalls)
	}
}

func TestPublishVideoPollsContainer(t *testing.T) {
	var statusCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/17841400000000/media":
			if got := r.PostFormValue("media_type"); got != "VIDEO" {
				t.Fatalf("media_type = %q, want VIDEO", got)
			}
			if got := r.PostFormValue("video_url"); got == "" {
				t.Fatal("video_url missing")
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "container-7"})
		case r.URL.Path == "/container-7" && r.Method == http.MethodGet:
			n := atomic.AddInt32(&statusCalls, 1)
			status := "IN_PROGRESS"
			if n >= 3 {
				status = "FINISHED"
			}
			json.NewEncoder(w).Encode(map[string]string{"status_code": status})
		case r.URL.Path == "/17841400000000/media_publish":
			if atomic.LoadInt32(&statusCalls) < 3 {
				t.Fatal("published before container finished")
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "post-77"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{BaseURL: srv.URL, PollInterval: time.Millisecond})
	req := imageRequest()
	req.MediaKind = domain.MediaTypeVideo
	req.MediaURL = "http://localhost:8080/media/a.mp4"

	result, err := client.Publish(context.Background(), validToken(), req)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if result.PostID != "post-77" {
		t.Fatalf("post id = %q", result.PostID)
	}
}

func TestPublishVideoContainerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/17841400000000/media":
			json.NewEncoder(w).Encode(map[string]string{"id": "container-7"})
		case r.URL.Path == "/container-7":
			json.NewEncoder(w).Encode(map[string]string{"status_code": "ERROR"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{BaseURL: srv.URL, PollInterval: time.Millisecond})
	req := imageRequest()
	req.MediaKind = domain.MediaTypeVideo

	_, err := client.Publish(context.Background(), validToken(), req)
	if err == nil {
		t.Fatal("want error for failed container")
	}
	if domain.Transient(err) {
		t.Fatalf("container ERROR classified transient: %v", err)
	}
}

func TestPublishExpiredTokenMakesNoCalls(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{BaseURL: srv.URL})
	token := validToken()
	token.ExpiresAt = time.Now().Add(-time.Hour)

	_, err := client.Publish(context.Background(), token, imageRequest())
	if !errors.Is(err, domain.ErrAuthExpired) {
		t.Fatalf("err = %v, want ErrAuthExpired", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("HTTP calls = %d, want 0 for expired token", calls)
	}
}

func TestAPIErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		code       int
		subcode    int
		want       error
		transient  bool
	}{
		{name: "expired session", statusCode: 400, code: 190, want: domain.ErrAuthExpired},
		{name: "revoked session", statusCode: 400, code: 190, subcode: 460, want: domain.ErrAuthRevoked},
		{name: "app rate limit", statusCode: 400, code: 4, want: domain.ErrRateLimited, transient: true},
		{name: "user rate limit", statusCode: 400, code: 17, want: domain.ErrRateLimited, transient: true},
		{name: "page rate limit", statusCode: 400, code: 32, want: domain.ErrRateLimited, transient: true},
		{name: "custom rate limit", statusCode: 400, code: 613, want: domain.ErrRateLimited, transient: true},
		{name: "http 429", statusCode: 429, code: 0, want: domain.ErrRateLimited, transient: true},
		{name: "server error", statusCode: 500, code: 1, want: domain.ErrProviderUnavailable, transient: true},
		{name: "permanent bad request", statusCode: 400, code: 100, want: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			apiErr := &APIError{StatusCode: tc.statusCode, Code: tc.code, Subcode: tc.subcode, Message: "boom"}
			if tc.want != nil && !errors.Is(apiErr, tc.want) {
				t.Fatalf("errors.Is(%v, %v) = false", apiErr, tc.want)
			}
			if got := domain.Transient(apiErr); got != tc.transient {
				t.Fatalf("Transient = %v, want %v", got, tc.transient)
			}
		})
	}
}

func TestPublishSurfacesGraphError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"Invalid user id","code":110,"error_subcode":0}}`)
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{BaseURL: srv.URL})
	_, err := client.Publish(context.Background(), validToken(), imageRequest())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Code != 110 || apiErr.Message != "Invalid user id" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}
