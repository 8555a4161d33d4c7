package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"os"
	"sync"
	"testing"

	"rravin-be/internal/apperror"
	"rravin-be/internal/entity"
	"rravin-be/pkg/tabular"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeFileHeaders(t *testing.T, files map[string]string) []*multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(&body, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)

	return form.File["files"]
}

func newUploadService(t *testing.T, store *fakeStore) IUploadService {
	t.Helper()
	summarizers := tabular.NewRegistry()
	summarizers.Register(entity.FileKindCSV, tabular.NewCSVSummarizer(50))
	return NewUploadService(newFakeFactory(store), summarizers, t.TempDir(), nopLogger{})
}

func TestUploadAcceptsBatch(t *testing.T) {
	store := newFakeStore()
	svc := newUploadService(t, store)
	session := store.addSession(3)

	headers := makeFileHeaders(t, map[string]string{
		"sales.csv": "month,revenue\nJan,100\nFeb,110\n",
		"costs.csv": "month,cost\nJan,40\n",
	})

	res, err := svc.Register(context.Background(), session.Id, headers)
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalFiles)
	assert.Equal(t, 1, res.RemainingUploads)
	require.Len(t, res.Files, 2)

	byName := map[string]int{}
	for _, f := range res.Files {
		byName[f.OriginalName] = f.Rows
	}
	assert.Equal(t, 2, byName["sales.csv"])
	assert.Equal(t, 1, byName["costs.csv"])

	// Bytes landed on disk and the ledger points at them.
	require.Len(t, store.files, 2)
	for _, f := range store.files {
		_, statErr := os.Stat(f.StoredPath)
		assert.NoError(t, statErr)
	}
}

func TestUploadQuotaExceeded(t *testing.T) {
	store := newFakeStore()
	svc := newUploadService(t, store)
	session := store.addSession(3)
	store.sessions[session.Id].FilesUploaded = 2

	headers := makeFileHeaders(t, map[string]string{
		"a.csv": "x\n1\n",
		"b.csv": "x\n1\n",
	})

	_, err := svc.Register(context.Background(), session.Id, headers)
	quota, ok := apperror.AsQuotaExceeded(err)
	require.True(t, ok, "expected QuotaExceededError, got %v", err)

	assert.Equal(t, 3, quota.MaxFiles)
	assert.Equal(t, 2, quota.Uploaded)
	assert.Equal(t, 2, quota.Requested)
	assert.Equal(t, 1, quota.Remaining())

	// The rejected batch spent nothing.
	assert.Equal(t, 2, store.sessions[session.Id].FilesUploaded)
	assert.Empty(t, store.files)
}

func TestUploadRejectsUnsupportedTypeBeforeQuota(t *testing.T) {
	store := newFakeStore()
	svc := newUploadService(t, store)
	session := store.addSession(3)

	headers := makeFileHeaders(t, map[string]string{
		"good.csv":  "x\n1\n",
		"notes.txt": "not tabular",
	})

	_, err := svc.Register(context.Background(), session.Id, headers)
	var invalid *apperror.InvalidFileError
	require.True(t, errors.As(err, &invalid), "expected InvalidFileError, got %v", err)

	assert.Equal(t, 0, store.sessions[session.Id].FilesUploaded)
	assert.Empty(t, store.files)
}

func TestUploadUnknownSession(t *testing.T) {
	store := newFakeStore()
	svc := newUploadService(t, store)

	headers := makeFileHeaders(t, map[string]string{"a.csv": "x\n1\n"})

	_, err := svc.Register(context.Background(), store.addSession(3).Id, headers)
	require.NoError(t, err)

	orphan := store.addSession(3)
	delete(store.sessions, orphan.Id)
	_, err = svc.Register(context.Background(), orphan.Id, headers)
	_, ok := apperror.AsNotFound(err)
	assert.True(t, ok)
}

func TestUploadConcurrentBatchesNeverOversell(t *testing.T) {
	store := newFakeStore()
	svc := newUploadService(t, store)
	session := store.addSession(3)

	batches := make([][]*multipart.FileHeader, 4)
	for i := range batches {
		batches[i] = makeFileHeaders(t, map[string]string{
			"a.csv": "x\n1\n",
			"b.csv": "x\n2\n",
		})
	}

	var wg sync.WaitGroup
	results := make([]error, len(batches))
	for i, headers := range batches {
		wg.Add(1)
		go func(i int, headers []*multipart.FileHeader) {
			defer wg.Done()
			_, results[i] = svc.Register(context.Background(), session.Id, headers)
		}(i, headers)
	}
	wg.Wait()

	accepted := 0
	for _, err := range results {
		if err == nil {
			accepted++
		} else {
			_, ok := apperror.AsQuotaExceeded(err)
			assert.True(t, ok, "unexpected error: %v", err)
		}
	}

	// Three single slots cannot fit two two-file batches.
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 2, store.sessions[session.Id].FilesUploaded)
	assert.Len(t, store.files, 2)
}

func TestUploadReleasesQuotaWhenPersistFails(t *testing.T) {
	store := newFakeStore()
	svc := newUploadService(t, store)
	session := store.addSession(3)
	store.failCreateFile = true

	headers := makeFileHeaders(t, map[string]string{"a.csv": "x\n1\n"})

	_, err := svc.Register(context.Background(), session.Id, headers)
	var unavailable *apperror.StoreUnavailableError
	require.True(t, errors.As(err, &unavailable), "expected StoreUnavailableError, got %v", err)

	assert.Equal(t, 0, store.sessions[session.Id].FilesUploaded)
}
