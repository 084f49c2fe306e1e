package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/common"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLocalStorage_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), "a.png", strings.NewReader("data"), "image/png"))
	assert.Equal(t, "/uploads/a.png", s.URL("a.png"))

	content, err := os.ReadFile(filepath.Join(dir, "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(content))

	require.NoError(t, s.Delete(context.Background(), "a.png"))
	require.NoError(t, s.Delete(context.Background(), "a.png"))
	_, err = os.Stat(filepath.Join(dir, "a.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorage_RejectsPathEscape(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../x.png", "sub/x.png", ".hidden", ""} {
		assert.Error(t, s.Save(context.Background(), name, strings.NewReader("x"), ""), name)
	}
}

func TestProcessImage_KeepsSmallImages(t *testing.T) {
	data := pngBytes(t, 10, 5)

	img, err := ProcessImage(data, 100)

	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, ".png", img.Ext)
	assert.Equal(t, 10, img.Width)
	assert.Equal(t, data, img.Data)
}

func TestProcessImage_ResizesWideImages(t *testing.T) {
	img, err := ProcessImage(pngBytes(t, 400, 200), 100)

	require.NoError(t, err)
	assert.Equal(t, 100, img.Width)
	assert.Equal(t, 50, img.Height)

	decoded, err := png.Decode(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, decoded.Bounds().Dx())
}

func TestProcessImage_RejectsNonImages(t *testing.T) {
	_, err := ProcessImage([]byte("%PDF-1.4 not an image"), 100)
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	// PNG signature with a broken body
	_, err = ProcessImage([]byte("\x89PNG\r\n\x1a\nbroken"), 100)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestDecodeBase64(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString([]byte("hello"))

	data, err := DecodeBase64(raw, 100)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	data, err = DecodeBase64("data:image/png;base64,"+raw, 100)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = DecodeBase64(raw, 3)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = DecodeBase64("***", 100)
	assert.Error(t, err)
}

func TestUploader_StoresUnderUUIDName(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)
	uploader := NewUploader(s, 1<<20, 1920)

	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 4, 4))
	path, err := uploader.Upload(context.Background(), payload, "me.png")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "/uploads/"))
	assert.True(t, strings.HasSuffix(path, ".png"))
	assert.NotContains(t, path, "me.png")
	_, err = os.Stat(filepath.Join(dir, strings.TrimPrefix(path, "/uploads/")))
	assert.NoError(t, err)
}

func TestUploader_RejectsOversizeAndNonImage(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	uploader := NewUploader(s, 64, 1920)

	_, err = uploader.Upload(context.Background(), base64.StdEncoding.EncodeToString(make([]byte, 1024)), "big.png")
	var appErr *common.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Fields[0].Message, "too large")

	_, err = uploader.Upload(context.Background(), base64.StdEncoding.EncodeToString([]byte("just text")), "a.txt")
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.HasField("base64Data"))
}

type failingStorage struct {
	*LocalStorage
	err error
}

func (s failingStorage) Save(context.Context, string, io.Reader, string) error {
	return s.err
}

func TestUploader_SaveFailureKeepsCause(t *testing.T) {
	local, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	diskFull := errors.New("no space left on device")
	uploader := NewUploader(failingStorage{LocalStorage: local, err: diskFull}, 1<<20, 1920)

	payload := base64.StdEncoding.EncodeToString(pngBytes(t, 4, 4))
	_, err = uploader.Upload(context.Background(), payload, "me.png")

	var appErr *common.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, "could not store file", appErr.Message)
	assert.ErrorIs(t, err, diskFull)
}

func TestUploader_ReleaseDeletesOwnFilesOnly(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)
	uploader := NewUploader(s, 1<<20, 1920)
	ctx := context.Background()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.png"), []byte("x"), 0644))

	ref, err := uploader.Upload(ctx, base64.StdEncoding.EncodeToString(pngBytes(t, 4, 4)), "a.png")
	require.NoError(t, err)

	uploader.Release(ctx, []string{ref, "https://cdn.test/uploads/keep.png", "/uploads/", "/uploads/../keep.png"})

	_, err = os.Stat(filepath.Join(dir, strings.TrimPrefix(ref, "/uploads/")))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "keep.png"))
	assert.NoError(t, err)
}
