package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlob struct {
	putKeys []string
	delKeys []string
	putErr  error
	delErr  error
}

func (f *fakeBlob) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.putKeys = append(f.putKeys, *in.Key)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeBlob) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.delErr != nil {
		return nil, f.delErr
	}
	f.delKeys = append(f.delKeys, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func testImage(t *testing.T, width int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, width/2))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: uint8(x), A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func TestUpload(t *testing.T) {
	blob := &fakeBlob{}
	m := NewWithClient(blob, "platera-media", "us-east-1")

	ref, err := m.Upload(context.Background(), testImage(t, 64), "thumbnails", "Fried Rice")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref.Alias, "thumbnails/fried-rice-"))
	assert.Equal(t, "https://platera-media.s3.us-east-1.amazonaws.com/"+ref.Alias+".jpg", ref.URL)
	require.Len(t, blob.putKeys, 1)
	assert.Equal(t, ref.Alias+".jpg", blob.putKeys[0])
}

func TestUploadRejectsNonImage(t *testing.T) {
	blob := &fakeBlob{}
	m := NewWithClient(blob, "b", "r")

	_, err := m.Upload(context.Background(), []byte("not an image"), "thumbnails", "x")
	require.ErrorIs(t, err, ErrNotImage)
	assert.Empty(t, blob.putKeys, "nothing should reach the store")
}

func TestUploadPropagatesStoreError(t *testing.T) {
	blob := &fakeBlob{putErr: errors.New("boom")}
	m := NewWithClient(blob, "b", "r")

	_, err := m.Upload(context.Background(), testImage(t, 32), "thumbnails", "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotImage)
}

func TestReplaceDeletesOldOnlyAfterUpload(t *testing.T) {
	blob := &fakeBlob{}
	m := NewWithClient(blob, "b", "r")

	ref, err := m.Replace(context.Background(), "thumbnails/old-1", testImage(t, 32), "thumbnails", "new dish")
	require.NoError(t, err)
	assert.NotEmpty(t, ref.Alias)

	require.Len(t, blob.putKeys, 1)
	require.Len(t, blob.delKeys, 1)
	assert.Equal(t, "thumbnails/old-1.jpg", blob.delKeys[0])
}

func TestReplaceKeepsOldOnUploadFailure(t *testing.T) {
	blob := &fakeBlob{putErr: errors.New("storage down")}
	m := NewWithClient(blob, "b", "r")

	_, err := m.Replace(context.Background(), "thumbnails/old-1", testImage(t, 32), "thumbnails", "new dish")
	require.Error(t, err)
	assert.Empty(t, blob.delKeys, "old alias must remain untouched")
}

func TestReplaceSucceedsWhenOldDeleteFails(t *testing.T) {
	blob := &fakeBlob{delErr: errors.New("gone already")}
	m := NewWithClient(blob, "b", "r")

	ref, err := m.Replace(context.Background(), "thumbnails/old-1", testImage(t, 32), "thumbnails", "dish")
	require.NoError(t, err, "stale orphan is acceptable, a failed replace is not")
	assert.NotEmpty(t, ref.Alias)
}

func TestReplaceWithoutOldAlias(t *testing.T) {
	blob := &fakeBlob{}
	m := NewWithClient(blob, "b", "r")

	_, err := m.Replace(context.Background(), "", testImage(t, 32), "profiles", "me")
	require.NoError(t, err)
	assert.Empty(t, blob.delKeys)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Fried Rice", "fried-rice"},
		{"Nasi Goreng  Spesial!", "nasi-goreng-spesial"},
		{"  --  ", "media"},
		{"", "media"},
		{"Crème Brûlée", "cr-me-br-l-e"},
		{strings.Repeat("a", 60), strings.Repeat("a", 40)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "input %q", tt.in)
	}
}
