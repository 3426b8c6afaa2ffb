package storage

import (
	"errors"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FSStore keeps blobs on the local filesystem, one directory per bucket.
// Public URLs are served under publicBase (e.g. PUBLIC_URL + "/files").
type FSStore struct {
	base       string
	publicBase string
}

func NewFSStore(base, publicBase string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base, publicBase: strings.TrimSuffix(publicBase, "/")}, nil
}

// ErrInvalidKey rejects keys that would resolve outside their bucket.
var ErrInvalidKey = errors.New("key escapes bucket")

// resolve maps (bucket, key) onto disk. Keys come from URL wildcards, so
// the resolved path must stay under the bucket directory.
func (s *FSStore) resolve(bucket, key string) (string, error) {
	if bucket == "" || key == "" {
		return "", errors.New("empty bucket or key")
	}
	root := filepath.Join(s.base, bucket)
	dst := filepath.Join(root, filepath.FromSlash(key))
	rel, err := filepath.Rel(root, dst)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return dst, nil
}

func (s *FSStore) Put(bucket, key string, r io.Reader) (string, error) {
	dst, err := s.resolve(bucket, key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return s.PublicURL(bucket, key)
}

func (s *FSStore) Get(bucket, key string) (io.ReadCloser, error) {
	dst, err := s.resolve(bucket, key)
	if err != nil {
		return nil, err
	}
	return os.Open(dst)
}

func (s *FSStore) PublicURL(bucket, key string) (string, error) {
	if s.publicBase != "" {
		return s.publicBase + "/" + bucket + "/" + path.Clean(key), nil
	}
	u := url.URL{Scheme: "file", Path: filepath.Join(s.base, bucket, key)}
	return u.String(), nil
}

func (s *FSStore) Remove(bucket, key string) error {
	dst, err := s.resolve(bucket, key)
	if err != nil {
		return err
	}
	return os.Remove(dst)
}
