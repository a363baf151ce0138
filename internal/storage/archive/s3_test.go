// internal/storage/archive/s3_test.go
package archive

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestS3Config_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "file.txt", "file.txt"},
		{"recordings", "file.txt", "recordings/file.txt"},
		{"recordings/", "file.txt", "recordings/file.txt"},
		{"/recordings/", "offline_data/x.msgpack", "recordings/offline_data/x.msgpack"},
	}

	for _, tt := range tests {
		s, err := NewS3(S3Config{Bucket: "b", Region: "us-east-1", Prefix: tt.prefix})
		if err != nil {
			t.Fatalf("NewS3: %v", err)
		}
		got := s.key(tt.path)
		if got != tt.want {
			t.Errorf("key(%q) with prefix %q = %q, want %q", tt.path, tt.prefix, got, tt.want)
		}
	}
}

func TestS3Storage_WithPrefix(t *testing.T) {
	tests := []struct {
		prefix string
		sub    string
		want   string
	}{
		{"", "rec-001", "rec-001/f"},
		{"root", "rec-001", "root/rec-001/f"},
		{"root", "/rec-001/", "root/rec-001/f"},
	}

	for _, tt := range tests {
		s, _ := NewS3(S3Config{Bucket: "b", Prefix: tt.prefix})
		got := s.WithPrefix(tt.sub).key("f")
		if got != tt.want {
			t.Errorf("WithPrefix(%q) on %q: key = %q, want %q", tt.sub, tt.prefix, got, tt.want)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no such key", &types.NoSuchKey{}, true},
		{"not found", &types.NotFound{}, true},
		{"status text", errors.New("api error: StatusCode: 404"), true},
		{"other", errors.New("access denied"), false},
	}

	for _, tt := range tests {
		if got := isNotFound(tt.err); got != tt.want {
			t.Errorf("%s: isNotFound = %v, want %v", tt.name, got, tt.want)
		}
	}
}
