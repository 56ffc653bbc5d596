package adapters

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-chara-asset-kit/pkg/domain"
)

// mockImageGenerator は imagekit.ImageGenerator の関数フィールド式モックなのだ。
type mockImageGenerator struct {
	panelFunc func(ctx context.Context, req imagedom.ImageGenerationRequest) (*imagedom.ImageResponse, error)
}

func (m *mockImageGenerator) GenerateMangaPanel(ctx context.Context, req imagedom.ImageGenerationRequest) (*imagedom.ImageResponse, error) {
	return m.panelFunc(ctx, req)
}

func (m *mockImageGenerator) GenerateMangaPage(ctx context.Context, req imagedom.ImagePageRequest) (*imagedom.ImageResponse, error) {
	return nil, errors.New("not used")
}

// fastGeminiClient は内部再試行の待機を短縮したクライアントを返すのだ。
func fastGeminiClient(t *testing.T, imgGen *mockImageGenerator) *GeminiGenerationClient {
	t.Helper()
	c, err := NewGeminiGenerationClient(imgGen)
	require.NoError(t, err)
	c.initialInterval = 1 * time.Millisecond
	return c
}

func TestGeminiGenerationClient_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("成功: プロンプト合成と参照URLの受け渡しが正しいこと", func(t *testing.T) {
		var captured imagedom.ImageGenerationRequest
		mock := &mockImageGenerator{
			panelFunc: func(ctx context.Context, req imagedom.ImageGenerationRequest) (*imagedom.ImageResponse, error) {
				captured = req
				return &imagedom.ImageResponse{Data: []byte("fake-png"), MimeType: "image/png"}, nil
			},
		}
		c, err := NewGeminiGenerationClient(mock)
		require.NoError(t, err)

		seed := int64(42)
		img, err := c.Generate(ctx, GenerateParams{
			Prompt:       "zundamon running",
			Style:        "clean line art",
			ReferenceURL: "https://example.com/master.png",
			Width:        1024,
			Height:       1024,
			Seed:         &seed,
		})

		require.NoError(t, err)
		assert.Equal(t, []byte("fake-png"), img.Data)
		assert.Equal(t, "image/png", img.MimeType)
		assert.Equal(t, "zundamon running, clean line art", captured.Prompt)
		assert.Equal(t, "https://example.com/master.png", captured.ReferenceURL)
		assert.Equal(t, "1:1", captured.AspectRatio)
		require.NotNil(t, captured.Seed)
		assert.Equal(t, seed, *captured.Seed)
		assert.NotEmpty(t, captured.NegativePrompt)
	})

	t.Run("参照URLなしは恒久的エラーになること", func(t *testing.T) {
		c, err := NewGeminiGenerationClient(&mockImageGenerator{})
		require.NoError(t, err)

		_, err = c.Generate(ctx, GenerateParams{Prompt: "p", ReferenceAssetID: "ref"})

		require.Error(t, err)
		assert.True(t, domain.IsPermanent(err))
	})

	t.Run("SDKのエラーは内部再試行の後に一時的エラーとして扱われること", func(t *testing.T) {
		var calls atomic.Int64
		mock := &mockImageGenerator{
			panelFunc: func(ctx context.Context, req imagedom.ImageGenerationRequest) (*imagedom.ImageResponse, error) {
				calls.Add(1)
				return nil, errors.New("rpc error")
			},
		}
		c := fastGeminiClient(t, mock)

		_, err := c.Generate(ctx, GenerateParams{Prompt: "p", ReferenceURL: "https://example.com/r.png"})

		require.Error(t, err)
		assert.True(t, domain.IsTransient(err))
		assert.Equal(t, int64(3), calls.Load(), "initial call plus bounded internal retries")
	})

	t.Run("一過性のSDKエラーは内部再試行で吸収されること", func(t *testing.T) {
		var calls atomic.Int64
		mock := &mockImageGenerator{
			panelFunc: func(ctx context.Context, req imagedom.ImageGenerationRequest) (*imagedom.ImageResponse, error) {
				if calls.Add(1) == 1 {
					return nil, errors.New("rpc error: unavailable")
				}
				return &imagedom.ImageResponse{Data: []byte("fake-png"), MimeType: "image/png"}, nil
			},
		}
		c := fastGeminiClient(t, mock)

		img, err := c.Generate(ctx, GenerateParams{Prompt: "p", ReferenceURL: "https://example.com/r.png"})

		require.NoError(t, err)
		assert.Equal(t, []byte("fake-png"), img.Data)
		assert.Equal(t, int64(2), calls.Load())
	})

	t.Run("キャンセルはそのまま伝播すること", func(t *testing.T) {
		mock := &mockImageGenerator{
			panelFunc: func(ctx context.Context, req imagedom.ImageGenerationRequest) (*imagedom.ImageResponse, error) {
				return nil, ctx.Err()
			},
		}
		c, err := NewGeminiGenerationClient(mock)
		require.NoError(t, err)

		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()

		_, err = c.Generate(cancelCtx, GenerateParams{Prompt: "p", ReferenceURL: "https://example.com/r.png"})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("nilのImageGeneratorは生成時に弾かれること", func(t *testing.T) {
		_, err := NewGeminiGenerationClient(nil)
		assert.Error(t, err)
	})
}

func TestAspectRatio(t *testing.T) {
	cases := []struct {
		width, height int
		expected      string
	}{
		{1920, 1080, "16:9"},
		{1024, 768, "4:3"},
		{1024, 1024, "1:1"},
		{768, 1024, "3:4"},
		{1080, 1920, "9:16"},
		{0, 0, "1:1"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, aspectRatio(tc.width, tc.height), "%dx%d", tc.width, tc.height)
	}
}
