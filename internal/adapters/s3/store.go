// Package s3 implements a blob store on an S3 bucket.
package s3

import (
	"context"
	_ "crypto/sha256" // registers digest.SHA256
	"errors"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/jonboulle/clockwork"
	"github.com/opencontainers/go-digest"
	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports"
	"go.trai.ch/zerr"
)

// digestMetadataKey is the object metadata key holding the content digest.
const digestMetadataKey = "stash-digest"

var _ ports.BlobStore = (*Store)(nil)

// Store implements ports.BlobStore on top of an S3 bucket. Each cache key maps
// to one object under the configured prefix.
type Store struct {
	client Client
	bucket string
	prefix string
	clock  clockwork.Clock
}

// NewStore creates a store over an existing client. The prefix is cleaned and
// stripped of surrounding slashes; "/" and "." mean the bucket root.
func NewStore(client Client, bucket, prefix string, clock clockwork.Clock) *Store {
	return &Store{client: client, bucket: bucket, prefix: normalizePrefix(prefix), clock: clock}
}

func normalizePrefix(prefix string) string {
	return strings.Trim(path.Clean("/"+prefix), "/")
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *Store) Close() error {
	return nil
}

// Lookup implements ports.BlobStore.
func (s *Store) Lookup(ctx context.Context, key domain.CacheKey, exact bool) (*domain.Entry, error) {
	if exact {
		return s.head(ctx, key.String())
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.objectKey(key.String())),
	})

	var newest *types.Object
	var newestKey string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to list cache objects"), "prefix", key.String())
		}
		for i := range page.Contents {
			obj := &page.Contents[i]
			cacheKey, ok := s.cacheKey(aws.ToString(obj.Key))
			if !ok || !domain.ParseCacheKey(cacheKey).HasPrefix(key) {
				continue
			}
			if newest == nil || aws.ToTime(obj.LastModified).After(aws.ToTime(newest.LastModified)) {
				newest = obj
				newestKey = cacheKey
			}
		}
	}

	if newest == nil {
		return nil, nil
	}
	// Listings carry no user metadata; the digest comes from a HEAD.
	return s.head(ctx, newestKey)
}

// Open implements ports.BlobStore.
func (s *Store) Open(ctx context.Context, entry domain.Entry) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(entry.Key)),
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to download cache object"), "key", entry.Key)
	}

	if entry.Digest == "" {
		return out.Body, nil
	}
	d, err := digest.Parse(entry.Digest)
	if err != nil {
		_ = out.Body.Close()
		return nil, zerr.With(zerr.Wrap(err, "invalid entry digest"), "key", entry.Key)
	}
	return &verifyingReader{body: out.Body, verifier: d.Verifier(), digest: d}, nil
}

// Put implements ports.BlobStore. The content is spooled to a temporary file
// first so the upload has a known length and a seekable body.
func (s *Store) Put(ctx context.Context, key domain.CacheKey, r io.Reader) (*domain.Entry, error) {
	spool, err := os.CreateTemp("", "stash-upload-*")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create upload spool")
	}
	defer func() {
		_ = spool.Close()
		_ = os.Remove(spool.Name())
	}()

	digester := digest.Canonical.Digester()
	size, err := io.Copy(io.MultiWriter(spool, digester.Hash()), r)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to spool upload"), "key", key.String())
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return nil, zerr.Wrap(err, "failed to rewind upload spool")
	}

	d := digester.Digest()
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key.String())),
		Body:          spool,
		ContentLength: aws.Int64(size),
		Metadata:      map[string]string{digestMetadataKey: d.String()},
	})
	if err != nil {
		return nil, zerr.With(zerr.With(zerr.Wrap(err, "failed to upload cache object"), "key", key.String()), "bucket", s.bucket)
	}

	return &domain.Entry{
		Key:     key.String(),
		Digest:  d.String(),
		Size:    size,
		Created: s.clock.Now().UTC(),
	}, nil
}

func (s *Store) head(ctx context.Context, cacheKey string) (*domain.Entry, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(cacheKey)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to stat cache object"), "key", cacheKey)
	}

	return &domain.Entry{
		Key:     cacheKey,
		Digest:  out.Metadata[digestMetadataKey],
		Size:    aws.ToInt64(out.ContentLength),
		Created: aws.ToTime(out.LastModified).UTC(),
	}, nil
}

func (s *Store) objectKey(cacheKey string) string {
	if s.prefix == "" {
		return cacheKey
	}
	return s.prefix + "/" + cacheKey
}

func (s *Store) cacheKey(objectKey string) (string, bool) {
	if s.prefix == "" {
		return objectKey, true
	}
	p := s.prefix + "/"
	if len(objectKey) < len(p) || objectKey[:len(p)] != p {
		return "", false
	}
	return objectKey[len(p):], true
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

type verifyingReader struct {
	body     io.ReadCloser
	verifier digest.Verifier
	digest   digest.Digest
}

func (r *verifyingReader) Read(p []byte) (int, error) {
	n, err := r.body.Read(p)
	_, _ = r.verifier.Write(p[:n])
	if err == io.EOF && !r.verifier.Verified() {
		return n, zerr.With(zerr.New("cache object does not match digest"), "digest", r.digest.String())
	}
	return n, err
}

func (r *verifyingReader) Close() error {
	return r.body.Close()
}
