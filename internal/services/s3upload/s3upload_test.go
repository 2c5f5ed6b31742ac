package s3upload_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saitan/internal/config"
	"saitan/internal/services"
	"saitan/internal/services/s3upload"
)

type fakeAPI struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
	err     error
}

func (f *fakeAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string]string{}
		f.types = map[string]string{}
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = string(body)
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func writeCapture(t *testing.T, sidecars ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "example_com_page.warc.gz")
	require.NoError(t, os.WriteFile(path, []byte("WARC"), 0o644))
	for _, suffix := range sidecars {
		require.NoError(t, os.WriteFile(path+suffix, []byte(suffix), 0o644))
	}
	return path
}

func TestUploadCaptureAndSidecars(t *testing.T) {
	api := &fakeAPI{}
	client, err := s3upload.New(context.Background(), config.Upload{Bucket: "archives", Prefix: "captures"}, s3upload.WithAPI(api))
	require.NoError(t, err)

	path := writeCapture(t, ".ots", ".sha256")
	uri, err := client.Upload(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "s3://archives/captures/example_com_page.warc.gz", uri)
	assert.Equal(t, map[string]string{
		"archives/captures/example_com_page.warc.gz":        "WARC",
		"archives/captures/example_com_page.warc.gz.ots":    ".ots",
		"archives/captures/example_com_page.warc.gz.sha256": ".sha256",
	}, api.objects)
	assert.Equal(t, "application/warc+gzip", api.types["archives/captures/example_com_page.warc.gz"])
}

func TestUploadSkipsMissingSidecars(t *testing.T) {
	api := &fakeAPI{}
	client, err := s3upload.New(context.Background(), config.Upload{Bucket: "archives"}, s3upload.WithAPI(api))
	require.NoError(t, err)

	uri, err := client.Upload(context.Background(), writeCapture(t, ".sha256"))
	require.NoError(t, err)
	assert.Equal(t, "s3://archives/example_com_page.warc.gz", uri)
	assert.Len(t, api.objects, 2)
}

func TestUploadErrors(t *testing.T) {
	t.Run("no bucket", func(t *testing.T) {
		client, err := s3upload.New(context.Background(), config.Upload{}, s3upload.WithAPI(&fakeAPI{}))
		require.NoError(t, err)
		_, err = client.Upload(context.Background(), writeCapture(t))
		assert.Equal(t, services.KindUnavailable, services.KindOf(err))
	})
	t.Run("put fails", func(t *testing.T) {
		client, err := s3upload.New(context.Background(), config.Upload{Bucket: "b"}, s3upload.WithAPI(&fakeAPI{err: errors.New("access denied")}))
		require.NoError(t, err)
		_, err = client.Upload(context.Background(), writeCapture(t))
		require.Error(t, err)
		assert.Equal(t, services.KindNetwork, services.KindOf(err))
		assert.Contains(t, err.Error(), "access denied")
	})
	t.Run("missing capture", func(t *testing.T) {
		client, err := s3upload.New(context.Background(), config.Upload{Bucket: "b"}, s3upload.WithAPI(&fakeAPI{}))
		require.NoError(t, err)
		_, err = client.Upload(context.Background(), filepath.Join(t.TempDir(), "absent.warc.gz"))
		assert.Equal(t, services.KindIO, services.KindOf(err))
	})
}

func TestNewLoadsStaticCredentials(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "none"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "none"))
	client, err := s3upload.New(context.Background(), config.Upload{
		Bucket:          "b",
		Prefix:          "/p/",
		Region:          "eu-central-1",
		Endpoint:        "http://127.0.0.1:9000",
		PathStyle:       true,
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "p/file.warc.gz", client.Key("/tmp/file.warc.gz"))
}
