package archive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/golang/snappy"

	"github.com/benchdeck/benchdeck/pkg/config"
	"github.com/benchdeck/benchdeck/pkg/logging"
	"github.com/benchdeck/benchdeck/pkg/logring"
	"github.com/benchdeck/benchdeck/pkg/runner"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    bool
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.fail {
		return nil, errors.New("access denied")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.objects[*in.Key] = body
	f.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func testUploader(client objectPutter) *Uploader {
	return NewWithClient(client, config.ArchiveConfig{
		Bucket: "bench-archive",
		Prefix: "runs",
	}, logging.NewNopLogger())
}

func TestUploadRunWritesAllArtifacts(t *testing.T) {
	fake := newFakeS3()
	u := testUploader(fake)

	err := u.UploadRun(context.Background(), "run-1", []Artifact{
		{Key: "log.txt.snappy", Body: []byte("compressed")},
		{Key: "results.csv", Body: []byte("round,elapsed_ms\n"), ContentType: "text/csv"},
	})
	if err != nil {
		t.Fatalf("UploadRun: %v", err)
	}

	want := []string{"runs/run-1/log.txt.snappy", "runs/run-1/results.csv"}
	got := fake.keys()
	if len(got) != len(want) {
		t.Fatalf("got keys %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestUploadRunPropagatesFailure(t *testing.T) {
	fake := newFakeS3()
	fake.fail = true
	u := testUploader(fake)

	err := u.UploadRun(context.Background(), "run-1", []Artifact{
		{Key: "log.txt.snappy", Body: []byte("x")},
	})
	if err == nil {
		t.Fatal("UploadRun did not propagate the error")
	}
}

func TestHookArchivesLogAndWindowedResults(t *testing.T) {
	resultsDir := t.TempDir()

	started := time.Now().Add(-time.Minute)
	finished := time.Now()

	// Inside the run window.
	fresh := filepath.Join(resultsDir, "experiment_results_14-03-26_10_30.csv")
	if err := os.WriteFile(fresh, []byte("round,elapsed_ms\n1,100\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Written long before the run; must not be archived.
	stale := filepath.Join(resultsDir, "experiment_results_01-01-26_00_00.csv")
	if err := os.WriteFile(stale, []byte("round,elapsed_ms\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := started.Add(-time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	ring := logring.NewRing(100)
	ring.Append("run-1", "Starting experiment...")
	ring.Append("run-1", "Experiment completed successfully.")
	ring.Append("run-2", "unrelated")

	fake := newFakeS3()
	hook := NewHook(testUploader(fake), ring, resultsDir, logging.NewNopLogger())

	hook.RunFinished(context.Background(), runner.RunInfo{
		ID:         "run-1",
		State:      runner.StateCompleted,
		StartedAt:  started,
		FinishedAt: &finished,
	})

	want := []string{
		"runs/run-1/experiment_results_14-03-26_10_30.csv",
		"runs/run-1/log.txt.snappy",
	}
	got := fake.keys()
	if len(got) != len(want) {
		t.Fatalf("got keys %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	log, err := snappy.Decode(nil, fake.objects["runs/run-1/log.txt.snappy"])
	if err != nil {
		t.Fatalf("decode log: %v", err)
	}
	wantLog := "Starting experiment...\nExperiment completed successfully.\n"
	if string(log) != wantLog {
		t.Errorf("log = %q, want %q", log, wantLog)
	}
}

func TestHookSurvivesUploadFailure(t *testing.T) {
	fake := newFakeS3()
	fake.fail = true
	ring := logring.NewRing(10)
	hook := NewHook(testUploader(fake), ring, t.TempDir(), logging.NewNopLogger())

	finished := time.Now()
	// Must not panic or propagate.
	hook.RunFinished(context.Background(), runner.RunInfo{
		ID:         "run-1",
		State:      runner.StateFailed,
		StartedAt:  finished.Add(-time.Second),
		FinishedAt: &finished,
	})
}
