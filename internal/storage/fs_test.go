package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFSStoreRoundTrip(t *testing.T) {
	s, err := NewFSStore(t.TempDir(), "https://portal.test/files")
	if err != nil {
		t.Fatal(err)
	}

	url, err := s.Put(BucketSignatures, "lrn-1/training_agreement/signature.png", strings.NewReader("png"))
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://portal.test/files/signatures/lrn-1/training_agreement/signature.png" {
		t.Fatalf("url=%q", url)
	}

	rc, err := s.Get(BucketSignatures, "lrn-1/training_agreement/signature.png")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "png" {
		t.Fatalf("got %q", b)
	}

	if err := s.Remove(BucketSignatures, "lrn-1/training_agreement/signature.png"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(BucketSignatures, "lrn-1/training_agreement/signature.png"); err == nil {
		t.Fatal("blob still readable after remove")
	}
}

func TestFSStoreRejectsEscapingKeys(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "blobs")
	s, err := NewFSStore(base, "")
	if err != nil {
		t.Fatal(err)
	}

	// a file outside the blob base must stay unreadable through the store
	secret := filepath.Join(dir, "secret.txt")
	if err := os.WriteFile(secret, []byte("top-secret"), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{
		"../../secret.txt",
		"../secret.txt",
		"..",
		"a/../../../secret.txt",
	} {
		if rc, err := s.Get(BucketDocuments, key); !errors.Is(err, ErrInvalidKey) {
			if err == nil {
				rc.Close()
			}
			t.Fatalf("Get(%q): err=%v, want ErrInvalidKey", key, err)
		}
		if _, err := s.Put(BucketDocuments, key, strings.NewReader("x")); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("Put(%q): err=%v, want ErrInvalidKey", key, err)
		}
		if err := s.Remove(BucketDocuments, key); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("Remove(%q): err=%v, want ErrInvalidKey", key, err)
		}
	}

	// dot segments that stay inside the bucket are still fine
	if _, err := s.Put(BucketDocuments, "a/../b.pdf", strings.NewReader("pdf")); err != nil {
		t.Fatalf("in-bucket dot segment: %v", err)
	}
	rc, err := s.Get(BucketDocuments, "b.pdf")
	if err != nil {
		t.Fatal(err)
	}
	rc.Close()
}

func TestFSStoreFileURLWithoutPublicBase(t *testing.T) {
	s, err := NewFSStore(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	url, err := s.PublicURL(BucketDocuments, "x.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(url, "file://") {
		t.Fatalf("url=%q, want file:// fallback", url)
	}
}
