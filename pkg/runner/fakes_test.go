package runner

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shouni/go-comicflow/pkg/generator"
	"github.com/shouni/go-comicflow/pkg/prompts"
)

type fakeTextGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeTextGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeTextGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeImageGenerator struct {
	parts   []generator.ContentPart
	err     error
	prompts []string
}

func (f *fakeImageGenerator) GenerateImage(ctx context.Context, prompt string) ([]generator.ContentPart, error) {
	f.prompts = append(f.prompts, prompt)
	return f.parts, f.err
}

type fakeImageWriter struct {
	saved [][]byte
	name  string
	err   error
}

func (f *fakeImageWriter) SaveImage(ctx context.Context, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, data)
	return f.name, nil
}

func newPromptBuilder(t *testing.T) *prompts.TextPromptBuilder {
	t.Helper()
	pb, err := prompts.NewTextPromptBuilder()
	require.NoError(t, err)
	return pb
}

func testImage(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(c)))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(c), nil))
	return buf.Bytes()
}
