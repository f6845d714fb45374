package docstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"golang.org/x/text/unicode/norm"
)

// Store wraps an S3 client plus config for local storage.
// キーは常に "{collection}/{dir}/{filename}" の相対パスで扱います。
type Store struct {
	client    *s3.Client
	accessKey string
	secretKey string
	bucket    string
	region    string
	localDir  string
	useLocal  bool
}

// TextFileRegexp matches the document formats accepted as knowledgebase input.
var TextFileRegexp = regexp.MustCompile(`(?i)\.(txt|md|markdown)$`)

// NewStore creates a new Store with AWS SDK v2.
// Always initializes the S3 client for better flexibility and future extensibility.
func NewStore(accessKey, secretKey, region, bucket, localDir string, useLocal bool) (*Store, error) {
	if localDir == "" {
		return nil, errors.New("localDir is required")
	}

	if !useLocal {
		if accessKey == "" || secretKey == "" || region == "" || bucket == "" {
			return nil, errors.New("AWS credentials and bucket are required when useLocal is false")
		}
	} else {
		// In local mode, if AWS args are missing, use dummies to prevent initialization errors
		if accessKey == "" {
			accessKey = "dummy"
		}
		if secretKey == "" {
			secretKey = "dummy"
		}
		if region == "" {
			region = "us-east-1"
		}
		if bucket == "" {
			bucket = "dummy"
		}
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg)

	return &Store{
		client:    s3Client,
		accessKey: accessKey,
		secretKey: secretKey,
		bucket:    bucket,
		region:    region,
		localDir:  localDir,
		useLocal:  useLocal,
	}, nil
}

func (c *Store) key(collection string, dir string, filename string) string {
	return filepath.Join(collection, dir, filepath.Base(filename))
}

// Write saves a document under "{collection}/{dir}/{filename}".
// テキストは NFC 正規化してから保存します。
func (c *Store) Write(ctx context.Context, collection string, dir string, filename string, content []byte) (*string, error) {
	content = norm.NFC.Bytes(content)
	key := c.key(collection, dir, filename)

	if c.useLocal {
		destPath := filepath.Join(c.localDir, key)
		if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
			return nil, err
		}
		if err := os.WriteFile(destPath, content, 0644); err != nil {
			return nil, err
		}
		return aws.String(key), nil
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		return nil, err
	}
	return aws.String(key), nil
}

// Read returns the content of "{collection}/{dir}/{filename}".
func (c *Store) Read(ctx context.Context, collection string, dir string, filename string) ([]byte, error) {
	key := c.key(collection, dir, filename)
	localFilePath := filepath.Join(c.localDir, key)

	// Try local first
	if content, err := os.ReadFile(localFilePath); err == nil {
		return content, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if c.useLocal {
		return nil, os.ErrNotExist
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	output, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			return nil, os.ErrNotExist
		}
		return nil, err
	}
	defer output.Body.Close()
	return io.ReadAll(output.Body)
}

// List returns filenames directly under "{collection}/{dir}/" matching re, sorted.
// re が nil の場合は全ファイルを返します。
func (c *Store) List(ctx context.Context, collection string, dir string, re *regexp.Regexp) ([]string, error) {
	prefix := filepath.Join(collection, dir) + "/"
	var names []string

	if c.useLocal {
		entries, err := os.ReadDir(filepath.Join(c.localDir, collection, dir))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return []string{}, nil
			}
			return nil, err
		}
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			if re == nil || re.MatchString(e.Name()) {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		return names, nil
	}

	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range output.Contents {
			key := aws.ToString(obj.Key)
			rest := strings.TrimPrefix(key, prefix)
			if rest == "" || strings.Contains(rest, "/") {
				continue // 直下のファイルのみ
			}
			if re == nil || re.MatchString(rest) {
				names = append(names, rest)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// Del deletes a file identified by key both locally and (if useLocal=false) on S3.
func (c *Store) Del(ctx context.Context, collection string, dir string, filename string) error {
	var localErr, s3Err error
	key := c.key(collection, dir, filename)
	localFilePath := filepath.Join(c.localDir, key)

	if _, err := os.Stat(localFilePath); err == nil {
		localErr = os.Remove(localFilePath)
		if localErr == nil {
			// ファイル削除後、空ディレクトリ掃除（c.localDirは絶対に消さない）
			d := filepath.Dir(localFilePath)
			for d != c.localDir && d != "." && d != "/" {
				files, err := os.ReadDir(d)
				if err != nil || len(files) > 0 {
					break
				}
				os.Remove(d)
				d = filepath.Dir(d)
			}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		localErr = err
	}

	if !c.useLocal {
		ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
		defer cancel()
		_, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(c.bucket),
			Key:    aws.String(key),
		})
		if err == nil {
			_, s3Err = c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(c.bucket),
				Key:    aws.String(key),
			})
		} else {
			var apiErr smithy.APIError
			if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound") {
				s3Err = nil // S3上に存在しないので削除不要
			} else {
				s3Err = err
			}
		}
	}

	if localErr != nil && s3Err != nil {
		return fmt.Errorf("Failed to delete file locally and from S3: local error: %v, S3 error: %v", localErr, s3Err)
	} else if localErr != nil {
		return fmt.Errorf("Failed to delete file locally: %v", localErr)
	} else if s3Err != nil {
		return fmt.Errorf("Failed to delete file from S3: %v", s3Err)
	}
	return nil
}

// DelCollection removes every object stored under the collection prefix.
func (c *Store) DelCollection(ctx context.Context, collection string) error {
	if c.useLocal {
		target := filepath.Join(c.localDir, collection)
		if target == c.localDir || collection == "" {
			return errors.New("Invalid collection name.")
		}
		if err := os.RemoveAll(target); err != nil {
			return err
		}
		return nil
	}

	prefix := collection + "/"
	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, obj := range output.Contents {
			_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(c.bucket),
				Key:    obj.Key,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// IsExist returns true if the file identified by key exists in localDir or S3.
func (c *Store) IsExist(ctx context.Context, collection string, dir string, filename string) bool {
	key := c.key(collection, dir, filename)
	localFilePath := filepath.Join(c.localDir, key)
	if _, err := os.Stat(localFilePath); err == nil {
		return true
	}
	if c.useLocal {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return false
	}
	return false // その他エラーも「存在しない」とみなす
}
