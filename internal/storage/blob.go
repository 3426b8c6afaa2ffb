package storage

import "io"

// Bucket names used by the document workflow. Signatures and rendered
// documents live in separate namespaces on purpose: the resolution chain
// must never confuse one for the other.
const (
	BucketSignatures = "signatures"
	BucketDocuments  = "documents"
)

type BlobStore interface {
	Put(bucket, key string, r io.Reader) (string, error) // returns public URL
	Get(bucket, key string) (io.ReadCloser, error)
	PublicURL(bucket, key string) (string, error)
	Remove(bucket, key string) error
}
