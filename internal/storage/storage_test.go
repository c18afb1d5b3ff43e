package storage

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/beauty-assistant-api/internal/config"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var allowed = []string{"image/jpeg", "image/png", "image/jpg"}

func TestReadImage(t *testing.T) {
	img, err := ReadImage(bytes.NewReader(pngBytes(t)), 1<<20, allowed)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, ".png", img.Extension)
	assert.Positive(t, img.Size())
}

func TestReadImage_Rejects(t *testing.T) {
	data := pngBytes(t)

	_, err := ReadImage(bytes.NewReader(data), int64(len(data)-1), allowed)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = ReadImage(strings.NewReader("just some text pretending to be a photo"), 1<<20, allowed)
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = ReadImage(strings.NewReader(""), 1<<20, allowed)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = ReadImage(bytes.NewReader(data), 1<<20, []string{"image/jpeg"})
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestNewObjectKey(t *testing.T) {
	key := NewObjectKey("faces", ".png")
	assert.Regexp(t, regexp.MustCompile(`^faces/\d{4}/\d{2}/\d{2}/[0-9A-Za-z]{27}\.png$`), key)
	assert.NotEqual(t, key, NewObjectKey("faces", ".png"))
}

func TestLocalStorage(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "faces/2026/01/02/a.png", strings.NewReader("data"), 4, "image/png"))
	got, err := os.ReadFile(filepath.Join(dir, "faces", "2026", "01", "02", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))

	assert.Error(t, s.Save(ctx, "../escape.png", strings.NewReader("x"), 1, "image/png"))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("client went away") }

func TestLocalStorage_NoPartialFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	err = s.Save(context.Background(), "faces/x.png", failingReader{}, 10, "image/png")
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "faces"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type fakeObjectAPI struct {
	put  *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeObjectAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Storage(t *testing.T) {
	api := &fakeObjectAPI{}
	s := &S3Storage{client: api, bucket: "faces-bucket"}
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "faces/k.png", strings.NewReader("data"), 4, "image/png"))
	assert.Equal(t, "faces-bucket", aws.ToString(api.put.Bucket))
	assert.Equal(t, "faces/k.png", aws.ToString(api.put.Key))
	assert.Equal(t, "image/png", aws.ToString(api.put.ContentType))
	assert.Equal(t, int64(4), aws.ToInt64(api.put.ContentLength))
	assert.Equal(t, "data", string(api.body))

	api.err = errors.New("access denied")
	assert.ErrorContains(t, s.Save(ctx, "faces/k.png", strings.NewReader("data"), 4, "image/png"), "access denied")
}

func TestNew(t *testing.T) {
	s, err := New(context.Background(), config.UploadConfig{StorageType: config.StorageLocal, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	_, err = New(context.Background(), config.UploadConfig{StorageType: "ftp"})
	assert.Error(t, err)

	s, err = New(context.Background(), config.UploadConfig{
		StorageType: config.StorageS3,
		S3Bucket:    "b",
		S3Region:    "us-east-1",
		S3Endpoint:  "http://localhost:9000",
		S3AccessKey: "minio",
		S3SecretKey: "minio123",
	})
	require.NoError(t, err)
	assert.IsType(t, &S3Storage{}, s)
}
