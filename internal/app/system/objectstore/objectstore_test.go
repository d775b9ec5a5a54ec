package objectstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{"profile-photos/u1", "profile-photos/u1", false},
		{"profile-photos//u1", "profile-photos/u1", false},
		{"", "", true},
		{"/etc/passwd", "", true},
		{"profile-photos/../../etc", "", true},
		{`a\b`, "", true},
		{".", "", true},
	}
	for _, tt := range tests {
		got, err := cleanKey(tt.key)
		if (err != nil) != tt.wantErr {
			t.Errorf("cleanKey(%q) err = %v, wantErr %v", tt.key, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("cleanKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestLocal_PutOverwritesAndServesURL(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, "/files/")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	ctx := context.Background()

	if err := l.Put(ctx, "profile-photos/u1", strings.NewReader("first"), "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := l.Put(ctx, "profile-photos/u1", strings.NewReader("second"), "image/png"); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "profile-photos", "u1"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want second", data)
	}

	entries, _ := os.ReadDir(filepath.Join(dir, "profile-photos"))
	if len(entries) != 1 {
		t.Errorf("expected temp files to be cleaned up, found %d entries", len(entries))
	}

	u, err := l.URL(ctx, "profile-photos/u1")
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if u != "/files/profile-photos/u1" {
		t.Errorf("URL = %q", u)
	}
}

func TestLocal_RejectsTraversal(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "/files")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	err = l.Put(context.Background(), "../escape", strings.NewReader("x"), "")
	if !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

type fakePutter struct {
	in   *s3.PutObjectInput
	body string
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3_Put(t *testing.T) {
	fp := &fakePutter{}
	s := &S3{cfg: S3Config{Bucket: "avatars", Prefix: "prod", Region: "us-east-1"}, client: fp}

	if err := s.Put(context.Background(), "profile-photos/u1", strings.NewReader("img"), "image/jpeg"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if aws.ToString(fp.in.Bucket) != "avatars" {
		t.Errorf("bucket = %q", aws.ToString(fp.in.Bucket))
	}
	if aws.ToString(fp.in.Key) != "prod/profile-photos/u1" {
		t.Errorf("key = %q", aws.ToString(fp.in.Key))
	}
	if aws.ToString(fp.in.ContentType) != "image/jpeg" {
		t.Errorf("content type = %q", aws.ToString(fp.in.ContentType))
	}
	if aws.ToInt64(fp.in.ContentLength) != 3 || fp.body != "img" {
		t.Errorf("body = %q (len %d)", fp.body, aws.ToInt64(fp.in.ContentLength))
	}
}

func TestS3_PutError(t *testing.T) {
	s := &S3{cfg: S3Config{Bucket: "b"}, client: &fakePutter{err: errors.New("denied")}}
	if err := s.Put(context.Background(), "k", strings.NewReader("x"), ""); err == nil {
		t.Fatal("expected error")
	}
}

func TestS3_URL(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want string
	}{
		{"public", S3Config{Bucket: "b", PublicURL: "https://cdn.example.com/"}, "https://cdn.example.com/profile-photos/u1"},
		{"endpoint", S3Config{Bucket: "b", Endpoint: "http://127.0.0.1:9000"}, "http://127.0.0.1:9000/b/profile-photos/u1"},
		{"aws", S3Config{Bucket: "b", Region: "us-east-2"}, "https://b.s3.us-east-2.amazonaws.com/profile-photos/u1"},
		{"prefixed", S3Config{Bucket: "b", Region: "us-east-2", Prefix: "avatars"}, "https://b.s3.us-east-2.amazonaws.com/avatars/profile-photos/u1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &S3{cfg: tt.cfg, client: &fakePutter{}}
			got, err := s.URL(context.Background(), "profile-photos/u1")
			if err != nil {
				t.Fatalf("URL: %v", err)
			}
			if got != tt.want {
				t.Errorf("URL = %q, want %q", got, tt.want)
			}
		})
	}
}
