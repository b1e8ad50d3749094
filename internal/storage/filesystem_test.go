package storage

import (
	"context"
	"io"
	"testing"
)

func TestWriteOpenRoundtrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	key, err := store.Write(ctx, "jobs/abc.png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if key != "jobs/abc.png" {
		t.Fatalf("key = %q", key)
	}

	reader, size, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer reader.Close()
	if size != int64(len("png-bytes")) {
		t.Fatalf("size = %d", size)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("data = %q", data)
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{name: "plain key", key: "abc.png", want: "abc.png"},
		{name: "nested key", key: "jobs/abc.png", want: "jobs/abc.png"},
		{name: "leading slash stripped", key: "/abc.png", want: "abc.png"},
		{name: "dot slash stripped", key: "./abc.png", want: "abc.png"},
		{name: "traversal rejected", key: "../secrets.txt", wantErr: true},
		{name: "nested traversal rejected", key: "jobs/../../secrets.txt", wantErr: true},
		{name: "empty rejected", key: "", wantErr: true},
		{name: "dot rejected", key: ".", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := sanitizeKey(tc.key)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("sanitizeKey(%q) = %q, want error", tc.key, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("sanitizeKey(%q): %v", tc.key, err)
			}
			if got != tc.want {
				t.Fatalf("sanitizeKey(%q) = %q, want %q", tc.key, got, tc.want)
			}
		})
	}
}

func TestOpenMissingKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, _, err := store.Open(context.Background(), "missing.png"); err == nil {
		t.Fatal("want error for missing key")
	}
}

func TestMIMEMappings(t *testing.T) {
	if got := ContentTypeForKey("a.PNG"); got != "image/png" {
		t.Fatalf("ContentTypeForKey(a.PNG) = %q", got)
	}
	if got := ContentTypeForKey("a.mp4"); got != "video/mp4" {
		t.Fatalf("ContentTypeForKey(a.mp4) = %q", got)
	}
	if got := ContentTypeForKey("a.xyz"); got != "application/octet-stream" {
		t.Fatalf("ContentTypeForKey(a.xyz) = %q", got)
	}
	if got := ExtensionForMIME("image/png"); got != ".png" {
		t.Fatalf("ExtensionForMIME(image/png) = %q", got)
	}
	if got := ExtensionForMIME("video/mp4"); got != ".mp4" {
		t.Fatalf("ExtensionForMIME(video/mp4) = %q", got)
	}
	if got := ExtensionForMIME("application/unknown"); got != ".bin" {
		t.Fatalf("ExtensionForMIME(unknown) = %q", got)
	}
}
