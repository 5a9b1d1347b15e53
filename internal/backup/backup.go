// Package backup takes encrypted snapshots of the LifeBoard database and
// restores them. Snapshots are sealed with a passphrase-derived key and
// stored in a local directory or an S3-compatible bucket.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "modernc.org/sqlite"
)

// Destination stores sealed snapshots under a key.
type Destination interface {
	Put(ctx context.Context, key string, body []byte) error
}

// DirDestination writes snapshots into a local directory.
type DirDestination struct {
	Dir string
}

func (d DirDestination) Put(ctx context.Context, key string, body []byte) error {
	if err := os.MkdirAll(d.Dir, 0o700); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	dst := filepath.Join(d.Dir, key)
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, body, 0o600); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename backup: %w", err)
	}
	return nil
}

// s3Client is the subset of the S3 API used here.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string
}

// Enabled reports whether enough is set to reach a bucket.
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type S3Destination struct {
	client s3Client
	bucket string
	prefix string
}

func NewS3Destination(cfg S3Config) *S3Destination {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return &S3Destination{client: s3.New(opts), bucket: cfg.Bucket, prefix: cfg.Prefix}
}

func (d *S3Destination) Put(ctx context.Context, key string, body []byte) error {
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(d.bucket),
		Key:           aws.String(path.Join(d.prefix, key)),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("upload to s3: %w", err)
	}
	return nil
}

// Snapshot returns a consistent copy of the database as SQLite file bytes.
func Snapshot(ctx context.Context, db *sql.DB) ([]byte, error) {
	dir, err := os.MkdirTemp("", "lifeboard-snapshot-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, "snapshot.db")
	if _, err := db.ExecContext(ctx, `VACUUM INTO ?`, file); err != nil {
		return nil, fmt.Errorf("vacuum into: %w", err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

// Result describes a stored backup.
type Result struct {
	Key       string
	Size      int
	CreatedAt time.Time
}

// KeyFor names the backup taken at t.
func KeyFor(t time.Time) string {
	return fmt.Sprintf("lifeboard-%s.db.enc", t.UTC().Format("2006-01-02T150405Z"))
}

// Run snapshots db, seals the snapshot with passphrase and stores it at dest.
func Run(ctx context.Context, db *sql.DB, passphrase string, dest Destination, now time.Time) (*Result, error) {
	plain, err := Snapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	sealed, err := Seal(plain, passphrase)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	key := KeyFor(now)
	if err := dest.Put(ctx, key, sealed); err != nil {
		return nil, err
	}
	return &Result{Key: key, Size: len(sealed), CreatedAt: now.UTC()}, nil
}

// Restore decrypts sealed, checks that it holds a healthy SQLite database and
// moves it into place at dbPath. The server must not be running.
func Restore(ctx context.Context, sealed []byte, passphrase, dbPath string) error {
	plain, err := Open(sealed, passphrase)
	if err != nil {
		return err
	}

	tmp := dbPath + ".restore"
	if err := os.WriteFile(tmp, plain, 0o600); err != nil {
		return fmt.Errorf("write restored db: %w", err)
	}
	if err := checkIntegrity(ctx, tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dbPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace database: %w", err)
	}

	// Stale WAL files would be replayed over the restored data.
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")
	return nil
}

func checkIntegrity(ctx context.Context, file string) error {
	db, err := sql.Open("sqlite", file)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}
