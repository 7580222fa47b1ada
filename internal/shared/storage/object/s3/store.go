package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"docstore-backend/internal/shared/storage/object"
	"docstore-backend/internal/shared/util"
)

const deleteBatchSize = 1000

// API is the subset of the S3 client the store relies on.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Store implements object.Store on Amazon S3. A user's namespace is the key
// prefix "<prefix>/<userId>/".
type Store struct {
	client   API
	bucket   string
	prefix   string
	kmsKeyID string
	now      func() time.Time
}

// Options configures New.
type Options struct {
	Region   string
	Bucket   string
	Prefix   string
	KMSKeyID string

	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// New creates a new S3-backed store.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})
	return NewWithClient(client, opts.Bucket, opts.Prefix, opts.KMSKeyID), nil
}

// NewWithClient wires the store to an existing client.
func NewWithClient(client API, bucket, prefix, kmsKeyID string) *Store {
	return &Store{
		client:   client,
		bucket:   bucket,
		prefix:   normalizePrefix(prefix),
		kmsKeyID: strings.TrimSpace(kmsKeyID),
		now:      time.Now,
	}
}

// Save uploads the reader contents under a generated name. The put is
// conditional so an existing object is never replaced.
func (s *Store) Save(ctx context.Context, userID, originalName string, r io.Reader) (string, error) {
	if err := util.ValidateSegment(userID); err != nil {
		return "", fmt.Errorf("user id %q: %w", userID, err)
	}
	sanitizedName, err := util.SanitizeFileName(originalName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// The body may only be consumed once; buffer it so a retry after a
	// name collision can resend it.
	body, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	at := s.now()
	for attempt := 0; attempt < object.MaxNameAttempts; attempt++ {
		storedName := object.NextStoredName(sanitizedName, at, attempt)
		key := s.documentKey(userID, storedName)

		input := &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			IfNoneMatch: aws.String("*"),
		}
		if s.kmsKeyID != "" {
			input.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
			input.SSEKMSKeyId = aws.String(s.kmsKeyID)
		} else {
			input.ServerSideEncryption = s3types.ServerSideEncryptionAes256
		}

		_, err := s.client.PutObject(ctx, input)
		if isPreconditionFailed(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("s3 put object bucket=%s key=%s: %w", s.bucket, key, err)
		}
		return storedName, nil
	}
	return "", fmt.Errorf("no free stored name for %q after %d attempts", sanitizedName, object.MaxNameAttempts)
}

// ListDocuments returns the names directly below the user's prefix.
func (s *Store) ListDocuments(ctx context.Context, userID string) ([]string, error) {
	if err := util.ValidateSegment(userID); err != nil {
		return nil, fmt.Errorf("user id %q: %w", userID, err)
	}
	return s.listLevel(ctx, s.userPrefix(userID))
}

// ListUsers returns the first-level "directories" below the store prefix.
func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	base := ""
	if s.prefix != "" {
		base = s.prefix + "/"
	}
	names := []string{}
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(base),
			Delimiter:         aws.String("/"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 list users bucket=%s: %w", s.bucket, err)
		}
		for _, cp := range out.CommonPrefixes {
			if name := childName(base, aws.ToString(cp.Prefix)); name != "" {
				names = append(names, name)
			}
		}
		if !aws.ToBool(out.IsTruncated) {
			return names, nil
		}
		token = out.NextContinuationToken
	}
}

// DeleteUser removes every object below the user's prefix.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	if err := util.ValidateSegment(userID); err != nil {
		return fmt.Errorf("user id %q: %w", userID, err)
	}
	prefix := s.userPrefix(userID)

	found := false
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return fmt.Errorf("s3 list bucket=%s prefix=%s: %w", s.bucket, prefix, err)
		}
		ids := make([]s3types.ObjectIdentifier, 0, len(out.Contents))
		for _, obj := range out.Contents {
			ids = append(ids, s3types.ObjectIdentifier{Key: obj.Key})
		}
		if len(ids) > 0 {
			found = true
			if err := s.deleteBatch(ctx, ids); err != nil {
				return err
			}
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}
	if !found {
		return object.ErrNotFound
	}
	return nil
}

// DeleteDocument removes a single object from the user's namespace.
func (s *Store) DeleteDocument(ctx context.Context, userID, name string) error {
	if err := util.ValidateSegment(userID); err != nil {
		return fmt.Errorf("user id %q: %w", userID, err)
	}
	if err := util.ValidateSegment(name); err != nil {
		return fmt.Errorf("file name %q: %w", name, err)
	}
	key := s.documentKey(userID, name)

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if isNotFound(err) {
		return object.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("s3 head object bucket=%s key=%s: %w", s.bucket, key, err)
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("s3 delete object bucket=%s key=%s: %w", s.bucket, key, err)
	}
	return nil
}

func (s *Store) listLevel(ctx context.Context, prefix string) ([]string, error) {
	names := []string{}
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			Delimiter:         aws.String("/"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 list bucket=%s prefix=%s: %w", s.bucket, prefix, err)
		}
		for _, obj := range out.Contents {
			if name := childName(prefix, aws.ToString(obj.Key)); name != "" {
				names = append(names, name)
			}
		}
		for _, cp := range out.CommonPrefixes {
			if name := childName(prefix, aws.ToString(cp.Prefix)); name != "" {
				names = append(names, name)
			}
		}
		if !aws.ToBool(out.IsTruncated) {
			return names, nil
		}
		token = out.NextContinuationToken
	}
}

func (s *Store) deleteBatch(ctx context.Context, ids []s3types.ObjectIdentifier) error {
	for start := 0; start < len(ids); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3types.Delete{Objects: ids[start:end], Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("s3 delete objects bucket=%s: %w", s.bucket, err)
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return fmt.Errorf("s3 delete objects bucket=%s key=%s: %s", s.bucket, aws.ToString(first.Key), aws.ToString(first.Message))
		}
	}
	return nil
}

func (s *Store) userPrefix(userID string) string {
	return applyPrefix(s.prefix, userID) + "/"
}

func (s *Store) documentKey(userID, name string) string {
	return applyPrefix(s.prefix, path.Join(userID, name))
}

// childName returns the first path component of key below parent.
func childName(parent, key string) string {
	rest := strings.TrimPrefix(key, parent)
	if rest == key && parent != "" {
		return ""
	}
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" || strings.Contains(rest, "/") {
		return ""
	}
	return rest
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
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

func isPreconditionFailed(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	return false
}

func normalizePrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

func applyPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(prefix, "/")
	cleanKey := strings.TrimLeft(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return cleanPrefix
	}
	return cleanPrefix + "/" + cleanKey
}

var _ object.Store = (*Store)(nil)
