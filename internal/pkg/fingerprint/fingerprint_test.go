package fingerprint

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foodpics/internal/pkg/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

func testImage(fill color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, fill)
		}
	}
	img.Set(3, 4, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// Serves fixed bodies by path and counts requests.
func imageServer(t *testing.T, bodies map[string][]byte) (*httptest.Server, *int32) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func newProvider(t *testing.T) *Provider {
	provider, err := NewProvider(5*time.Second, 16, WithRateLimit(1000, 1000))
	require.NoError(t, err)
	return provider
}

func TestComputeIsStable(t *testing.T) {
	red := encodePNG(t, testImage(color.NRGBA{R: 255, A: 255}))
	server, _ := imageServer(t, map[string][]byte{"/a.png": red, "/b.png": red})
	provider := newProvider(t)

	a, err := provider.Compute(context.Background(), server.URL+"/a.png")
	require.NoError(t, err)
	b, err := provider.Compute(context.Background(), server.URL+"/b.png")
	require.NoError(t, err)
	assert.Equal(t, a, b, "same pixels under different urls")
}

func TestComputeDistinguishesImages(t *testing.T) {
	server, _ := imageServer(t, map[string][]byte{
		"/red.png":  encodePNG(t, testImage(color.NRGBA{R: 255, A: 255})),
		"/blue.png": encodePNG(t, testImage(color.NRGBA{B: 255, A: 255})),
	})
	provider := newProvider(t)

	red, err := provider.Compute(context.Background(), server.URL+"/red.png")
	require.NoError(t, err)
	blue, err := provider.Compute(context.Background(), server.URL+"/blue.png")
	require.NoError(t, err)
	assert.NotEqual(t, red, blue)
}

func TestComputeUsesCache(t *testing.T) {
	server, hits := imageServer(t, map[string][]byte{
		"/a.png": encodePNG(t, testImage(color.NRGBA{G: 255, A: 255})),
	})
	provider := newProvider(t)

	first, err := provider.Compute(context.Background(), server.URL+"/a.png")
	require.NoError(t, err)
	second, err := provider.Compute(context.Background(), server.URL+"/a.png")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestComputeDecodesJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(color.NRGBA{R: 200, G: 100, A: 255}), nil))
	server, _ := imageServer(t, map[string][]byte{"/a.jpg": buf.Bytes()})

	_, err := newProvider(t).Compute(context.Background(), server.URL+"/a.jpg")
	assert.NoError(t, err)
}

func TestComputeErrors(t *testing.T) {
	server, _ := imageServer(t, map[string][]byte{"/junk.png": []byte("not an image")})
	provider := newProvider(t)

	_, err := provider.Compute(context.Background(), server.URL+"/missing.png")
	assert.ErrorIs(t, err, ErrUnexpectedStatus)

	_, err = provider.Compute(context.Background(), server.URL+"/junk.png")
	assert.Error(t, err)
}

func TestPixelsIgnoresEncoding(t *testing.T) {
	img := testImage(color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	decoded, _, err := image.Decode(bytes.NewReader(encodePNG(t, img)))
	require.NoError(t, err)
	assert.Equal(t, Pixels(img), Pixels(decoded))
}
