package instagram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"postpilot/internal/domain"
)

func testOAuth(baseURL string) *OAuth {
	return NewOAuth(OAuthOptions{
		AppID:       "app-1",
		AppSecret:   "secret-1",
		RedirectURI: "http://localhost:8080/oauth/meta/callback",
		BaseURL:     baseURL,
	})
}

func TestAuthURL(t *testing.T) {
	o := testOAuth("")
	raw := o.AuthURL("state-123")

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	if parsed.Host != "www.facebook.com" {
		t.Fatalf("host = %q", parsed.Host)
	}
	q := parsed.Query()
	if q.Get("client_id") != "app-1" || q.Get("response_type") != "code" || q.Get("state") != "state-123" {
		t.Fatalf("query = %v", q)
	}
	scope := q.Get("scope")
	for _, want := range []string{"instagram_basic", "pages_show_list", "pages_read_engagement", "instagram_content_publish"} {
		if !strings.Contains(scope, want) {
			t.Fatalf("scope %q missing %q", scope, want)
		}
	}
}

func TestExchangeCodeJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/access_token" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("code") != "auth-code" || q.Get("client_secret") != "secret-1" {
			t.Fatalf("query = %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"short-token","token_type":"bearer","expires_in":5183944}`)
	}))
	defer srv.Close()

	token, err := testOAuth(srv.URL).ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if token.AccessToken != "short-token" || token.ExpiresIn != 5183944 {
		t.Fatalf("token = %+v", token)
	}
}

func TestLongLivedTokenFormResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("grant_type") != "fb_exchange_token" || q.Get("fb_exchange_token") != "short-token" {
			t.Fatalf("query = %v", q)
		}
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "access_token=long-token&expires_in=5184000")
	}))
	defer srv.Close()

	token, err := testOAuth(srv.URL).LongLivedToken(context.Background(), "short-token")
	if err != nil {
		t.Fatalf("long-lived exchange: %v", err)
	}
	if token.AccessToken != "long-token" || token.ExpiresIn != 5184000 {
		t.Fatalf("token = %+v", token)
	}
}

func TestTokenExpiresAtDefaultsToSixtyDays(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	explicit := &TokenResponse{AccessToken: "t", ExpiresIn: 3600}
	if got := explicit.ExpiresAt(now); !got.Equal(now.Add(time.Hour)) {
		t.Fatalf("explicit expiry = %v", got)
	}

	implicit := &TokenResponse{AccessToken: "t"}
	if got := implicit.ExpiresAt(now); !got.Equal(now.Add(60*24*time.Hour)) {
		t.Fatalf("implicit expiry = %v, want 60 days", got)
	}
}

func TestExchangeCodeErrors(t *testing.T) {
	if _, err := testOAuth("").ExchangeCode(context.Background(), ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty code = %v, want ErrInvalidInput", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"This authorization code has expired.","code":100,"error_subcode":36007}}`)
	}))
	defer srv.Close()

	_, err := testOAuth(srv.URL).ExchangeCode(context.Background(), "stale-code")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Code != 100 || apiErr.Subcode != 36007 {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}

func TestParseTokenResponseMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"token_type":"bearer"}`)
	}))
	defer srv.Close()

	if _, err := testOAuth(srv.URL).ExchangeCode(context.Background(), "code"); err == nil {
		t.Fatal("want error for response without access_token")
	}
}
