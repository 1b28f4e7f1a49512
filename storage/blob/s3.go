package blob

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// S3Store persists blobs in an S3 (or S3-compatible) bucket. Objects are
// read with ranged GETs so large assets are never buffered whole.
type S3Store struct {
	sess   *session.Session
	bucket string
}

var _ Store = (*S3Store)(nil)

func NewS3Store(conf core.S3Config) (*S3Store, error) {
	sess, err := session.NewSession(
		aws.NewConfig().
			WithEndpoint(conf.Endpoint).
			WithCredentials(credentials.NewStaticCredentials(conf.AccessKey, conf.AccessSecret, "")).
			WithRegion(conf.Region),
	)
	if err != nil {
		return nil, errors.Wrap(err, "opening s3 session")
	}
	return &S3Store{sess: sess, bucket: conf.Bucket}, nil
}

func (s *S3Store) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	cr := &countingReader{r: r}
	_, err := s3manager.NewUploader(s.sess).UploadWithContext(ctx, &s3manager.UploadInput{
		Body:   cr,
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return 0, errors.Wrap(err, "uploading object")
	}
	return cr.n, nil
}

func (s *S3Store) Open(ctx context.Context, key string) (Object, error) {
	svc := s3.New(s.sess)
	head, err := svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "statting object")
	}
	return &s3Object{
		svc:    svc,
		bucket: s.bucket,
		key:    key,
		size:   aws.Int64Value(head.ContentLength),
	}, nil
}

func (s *S3Store) Stat(ctx context.Context, key string) (int64, error) {
	head, err := s3.New(s.sess).HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		if isNotFound(err) {
			return 0, ErrNotFound
		}
		return 0, errors.Wrap(err, "statting object")
	}
	return aws.Int64Value(head.ContentLength), nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	if _, err := s3.New(s.sess).DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}); err != nil {
		return errors.Wrap(err, "deleting object")
	}
	return nil
}

// s3Object fetches object bytes on demand with ranged GETs, tracking its own
// cursor between calls.
type s3Object struct {
	svc    *s3.S3
	bucket string
	key    string
	size   int64
	pos    int64
}

func (o *s3Object) Seek(pos int64) error {
	if pos < 0 {
		return errors.Errorf("invalid seek position %d", pos)
	}
	o.pos = pos
	return nil
}

func (o *s3Object) Read(p []byte) (int, error) {
	if o.pos >= o.size {
		return 0, io.EOF
	}
	end := o.pos + int64(len(p)) - 1
	if end >= o.size {
		end = o.size - 1
	}
	rng := fmt.Sprintf("bytes=%d-%d", o.pos, end)

	out, err := o.svc.GetObject(&s3.GetObjectInput{
		Bucket: &o.bucket,
		Key:    &o.key,
		Range:  &rng,
	})
	if err != nil {
		if isNotFound(err) {
			return 0, ErrNotFound
		}
		return 0, errors.Wrap(err, "getting object range")
	}
	defer out.Body.Close()

	n, err := io.ReadFull(out.Body, p[:end-o.pos+1])
	if err == io.ErrUnexpectedEOF {
		err = nil
	}
	o.pos += int64(n)
	return n, errors.Wrap(err, "reading object range")
}

func (o *s3Object) Size() int64 { return o.size }

func (o *s3Object) Close() error { return nil }

func isNotFound(err error) bool {
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
