package minio

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"euphro-assets/internal/config"
	"euphro-assets/internal/domain"
	"euphro-assets/internal/repository/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// fakeS3 implements the handful of path-style S3 calls the repository makes.
type fakeS3 struct {
	mu        sync.Mutex
	objects   map[string][]byte
	parts     map[int][]byte
	completed []int
	aborted   bool
	removed   []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, parts: map[int][]byte{}}
}

func (s *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/images/")
	q := r.URL.Query()

	switch {
	case r.Method == http.MethodPost && q.Has("uploads"):
		w.Write([]byte(`<InitiateMultipartUploadResult><Bucket>images</Bucket><Key>` + key + `</Key><UploadId>upload-1</UploadId></InitiateMultipartUploadResult>`))
	case r.Method == http.MethodPut && q.Get("uploadId") != "":
		n, _ := strconv.Atoi(q.Get("partNumber"))
		body, _ := io.ReadAll(r.Body)
		s.parts[n] = body
		w.Header().Set("ETag", `"etag-`+strconv.Itoa(n)+`"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPost && q.Get("uploadId") != "":
		var req struct {
			Parts []struct {
				PartNumber int
				ETag       string
			} `xml:"Part"`
		}
		body, _ := io.ReadAll(r.Body)
		xml.Unmarshal(body, &req)
		if len(req.Parts) == 0 {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`<Error><Code>MalformedXML</Code><Message>The XML you provided was not well-formed.</Message></Error>`))
			return
		}
		var assembled []byte
		for _, p := range req.Parts {
			s.completed = append(s.completed, p.PartNumber)
			assembled = append(assembled, s.parts[p.PartNumber]...)
		}
		s.objects[key] = assembled
		w.Write([]byte(`<CompleteMultipartUploadResult><Bucket>images</Bucket><Key>` + key + `</Key><ETag>"final"</ETag></CompleteMultipartUploadResult>`))
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		s.objects[key] = body
		w.Header().Set("ETag", `"object"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete && q.Get("uploadId") != "":
		s.aborted = true
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodDelete:
		s.removed = append(s.removed, key)
		delete(s.objects, key)
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodGet:
		data, ok := s.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
			return
		}
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("ETag", `"object"`)
		w.Write(data)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newTestRepository(t *testing.T, s3 *fakeS3, partSize int64) *FileRepository {
	t.Helper()
	srv := httptest.NewServer(s3)
	t.Cleanup(srv.Close)

	cfg := config.StorageConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "images",
		Region:    "us-east-1",
		PartSize:  partSize,
	}
	core, err := NewCore(cfg)
	require.NoError(t, err)

	zlog.Init()
	return NewMinIORepository(core, cfg, retry.Strategy{Attempts: 1}, &zlog.Logger)
}

func TestMultipartDestination_Upload(t *testing.T) {
	s3 := newFakeS3()
	repo := newTestRepository(t, s3, 4)
	dst := repo.Destination("runs/1/image.png", "image/png")
	ctx := context.Background()

	require.NoError(t, dst.Create(ctx, 10))
	data := []byte("0123456789")
	// parts arrive out of order
	for _, c := range []domain.Chunk{{Index: 2, Start: 8, End: 10}, {Index: 0, Start: 0, End: 4}, {Index: 1, Start: 4, End: 8}} {
		require.NoError(t, dst.WriteRange(ctx, c, bytes.NewReader(data[c.Start:c.End])))
	}
	require.NoError(t, dst.Finalize(ctx))

	assert.Equal(t, int64(4), dst.PartSize())
	assert.Equal(t, []int{1, 2, 3}, s3.completed)
	assert.Equal(t, data, s3.objects["runs/1/image.png"])
}

func TestMultipartDestination_EmptyFile(t *testing.T) {
	s3 := newFakeS3()
	repo := newTestRepository(t, s3, 4)
	dst := repo.Destination("runs/1/empty.txt", "text/plain")
	ctx := context.Background()

	require.NoError(t, dst.Create(ctx, 0))
	require.NoError(t, dst.Finalize(ctx))

	assert.True(t, s3.aborted)
	assert.Empty(t, s3.completed)
	data, ok := s3.objects["runs/1/empty.txt"]
	assert.True(t, ok)
	assert.Empty(t, data)
}

func TestMultipartDestination_WriteBeforeCreate(t *testing.T) {
	repo := newTestRepository(t, newFakeS3(), 4)
	dst := repo.Destination("a.bin", "")

	err := dst.WriteRange(context.Background(), domain.Chunk{Start: 0, End: 1}, bytes.NewReader([]byte{1}))
	assert.ErrorIs(t, err, storage.ErrNotCreated)
	assert.ErrorIs(t, dst.Finalize(context.Background()), storage.ErrNotCreated)
	assert.NoError(t, dst.Abort(context.Background()))
}

func TestMultipartDestination_Abort(t *testing.T) {
	s3 := newFakeS3()
	repo := newTestRepository(t, s3, 4)
	dst := repo.Destination("a.bin", "")

	require.NoError(t, dst.Create(context.Background(), 4))
	require.NoError(t, dst.Abort(context.Background()))

	assert.True(t, s3.aborted)
}

func TestFileRepository_GetAndDeleteObject(t *testing.T) {
	s3 := newFakeS3()
	s3.objects["runs/1/object.png"] = []byte("png-bytes")
	repo := newTestRepository(t, s3, 4)
	ctx := context.Background()

	rc, err := repo.GetObject(ctx, "runs/1/object.png")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, []byte("png-bytes"), body)

	require.NoError(t, repo.DeleteObject(ctx, "runs/1/object.png"))
	assert.Equal(t, []string{"runs/1/object.png"}, s3.removed)

	_, err = repo.GetObject(ctx, "runs/1/object.png")
	assert.True(t, errors.Is(err, storage.ErrObjectNotFound))
}
