package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	imagekit "github.com/shouni/gemini-image-kit/pkg/generator"

	"github.com/shouni/go-chara-asset-kit/pkg/domain"
)

// defaultNegativePrompt は不自然な描画とキャラクター崩れを抑えるための標準セットです。
const defaultNegativePrompt = "deformed faces, mismatched eyes, low-quality faces, blurry facial features, extra limbs, distorted anatomy, watermark, text, signatures"

// GeminiGenerationClient は Gemini を生成バックエンドとして使う GenerationClient 実装です。
// 参照画像は ReferenceURL から取得してモデルへ渡すため、HTTPサービス版と違い
// 参照アセットIDではなく画像本体のURLを必要とします。
type GeminiGenerationClient struct {
	imgGen          imagekit.ImageGenerator
	maxRetries      uint64
	initialInterval time.Duration
}

// NewGeminiGenerationClient は初期化済みの ImageGenerator を受け取ってアダプターを生成します。
func NewGeminiGenerationClient(imgGen imagekit.ImageGenerator) (*GeminiGenerationClient, error) {
	if imgGen == nil {
		return nil, fmt.Errorf("imgGen (ImageGenerator) is required")
	}
	return &GeminiGenerationClient{
		imgGen:          imgGen,
		maxRetries:      defaultMaxRetries,
		initialInterval: defaultInitialInterval,
	}, nil
}

// Generate は単一画像の生成を実行します。
func (c *GeminiGenerationClient) Generate(ctx context.Context, p GenerateParams) (*GeneratedImage, error) {
	const op = "generate"

	if p.ReferenceURL == "" {
		return nil, domain.NewPermanent(op, fmt.Errorf("Geminiバックエンドには参照画像のURLが必要です: reference_asset_id=%s", p.ReferenceAssetID))
	}

	prompt := p.Prompt
	if p.Style != "" {
		prompt = strings.Join([]string{p.Prompt, p.Style}, ", ")
	}

	genReq := imagedom.ImageGenerationRequest{
		Prompt:         prompt,
		NegativePrompt: defaultNegativePrompt,
		Seed:           p.Seed,
		ReferenceURL:   p.ReferenceURL,
		AspectRatio:    aspectRatio(p.Width, p.Height),
	}

	start := time.Now()
	resp, err := withRetry(ctx, c.maxRetries, c.initialInterval, func() (*imagedom.ImageResponse, error) {
		out, err := c.imgGen.GenerateMangaPanel(ctx, genReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("Gemini画像生成に失敗しました",
				"reference_asset_id", p.ReferenceAssetID, "error", err)
			// Gemini SDK のエラーは分類が難しいため、安全側に倒して一時的エラーとして扱います。
			return nil, domain.NewTransient(op, err)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	mimeType := resp.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(resp.Data)
	}

	return &GeneratedImage{
		Data:             resp.Data,
		MimeType:         mimeType,
		GenerationTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// aspectRatio は要求サイズを Gemini が受け付けるアスペクト比表現へ丸めます。
func aspectRatio(width, height int) string {
	if width <= 0 || height <= 0 {
		return "1:1"
	}
	ratio := float64(width) / float64(height)
	switch {
	case ratio > 1.5:
		return "16:9"
	case ratio > 1.1:
		return "4:3"
	case ratio < 0.65:
		return "9:16"
	case ratio < 0.9:
		return "3:4"
	default:
		return "1:1"
	}
}
