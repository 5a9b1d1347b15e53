package backup

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/go-cmp/cmp"

	"github.com/lifeboard/lifeboard/internal/database"
	"github.com/lifeboard/lifeboard/internal/store"
)

type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	bucket  string
	putErr  error
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[*input.Key] = data
	m.bucket = *input.Bucket
	return &s3.PutObjectOutput{}, nil
}

type memDestination map[string][]byte

func (d memDestination) Put(_ context.Context, key string, body []byte) error {
	d[key] = body
	return nil
}

func seededDB(t *testing.T, path string) {
	t.Helper()
	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if _, err := store.NewUserStore(db).Create("alice@example.com", "alice", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
}

func TestKeyFor(t *testing.T) {
	at := time.Date(2026, 10, 16, 7, 5, 9, 0, time.FixedZone("x", 2*3600))
	if got, want := KeyFor(at), "lifeboard-2026-10-16T050509Z.db.enc"; got != want {
		t.Errorf("KeyFor = %q, want %q", got, want)
	}
}

func TestRunAndRestore(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.db")
	seededDB(t, src)

	db, err := database.Open(src)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	dest := memDestination{}
	now := time.Date(2026, 10, 16, 3, 0, 0, 0, time.UTC)
	res, err := Run(context.Background(), db, "pw", dest, now)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Key != KeyFor(now) {
		t.Errorf("key = %q, want %q", res.Key, KeyFor(now))
	}
	sealed, ok := dest[res.Key]
	if !ok {
		t.Fatalf("destination has %v, want key %s", dest, res.Key)
	}
	if res.Size != len(sealed) {
		t.Errorf("size = %d, want %d", res.Size, len(sealed))
	}

	restored := filepath.Join(dir, "restored.db")
	if err := Restore(context.Background(), sealed, "pw", restored); err != nil {
		t.Fatalf("restore: %v", err)
	}

	rdb, err := database.Connect(restored)
	if err != nil {
		t.Fatalf("open restored: %v", err)
	}
	defer rdb.Close()
	u, err := store.NewUserStore(rdb).GetByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u == nil || u.Name != "alice" {
		t.Errorf("restored user = %+v, want alice", u)
	}
	if _, err := os.Stat(restored + ".restore"); !os.IsNotExist(err) {
		t.Error("temporary restore file left behind")
	}
}

func TestRestoreRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.db")
	if err := os.WriteFile(target, []byte("keep me"), 0o600); err != nil {
		t.Fatal(err)
	}

	notSQLite, err := Seal([]byte("definitely not a database file, just text padding it out"), "pw")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if err := Restore(context.Background(), notSQLite, "pw", target); err == nil {
		t.Error("expected integrity failure for non-database payload")
	}
	if err := Restore(context.Background(), notSQLite, "wrong", target); !errors.Is(err, ErrDecrypt) {
		t.Errorf("wrong passphrase err = %v, want ErrDecrypt", err)
	}

	got, _ := os.ReadFile(target)
	if string(got) != "keep me" {
		t.Errorf("target overwritten with %q", got)
	}
}

func TestDirDestination(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "backups")
	d := DirDestination{Dir: dir}

	if err := d.Put(context.Background(), "a.db.enc", []byte("sealed")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "a.db.enc"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "sealed" {
		t.Errorf("content = %q", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1", len(entries))
	}
}

func TestS3Destination(t *testing.T) {
	mock := &mockS3Client{}
	d := &S3Destination{client: mock, bucket: "lifeboard", prefix: "nightly"}

	if err := d.Put(context.Background(), "a.db.enc", []byte("sealed")); err != nil {
		t.Fatalf("put: %v", err)
	}
	want := map[string][]byte{"nightly/a.db.enc": []byte("sealed")}
	if diff := cmp.Diff(want, mock.objects); diff != "" {
		t.Errorf("objects mismatch (-want +got):\n%s", diff)
	}
	if mock.bucket != "lifeboard" {
		t.Errorf("bucket = %q", mock.bucket)
	}

	mock.putErr = errors.New("boom")
	if err := d.Put(context.Background(), "b.db.enc", nil); err == nil {
		t.Error("expected upload error")
	}
}

func TestS3ConfigEnabled(t *testing.T) {
	if (S3Config{Bucket: "b"}).Enabled() {
		t.Error("bucket alone should not enable s3")
	}
	if !(S3Config{Bucket: "b", AccessKey: "k", SecretKey: "s"}).Enabled() {
		t.Error("bucket with credentials should enable s3")
	}
}
