package adapters

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/go-chara-asset-kit/pkg/domain"
)

// HTTPGenerationClient はHTTPベースの画像生成サービスへのアダプターです。
type HTTPGenerationClient struct {
	baseURL         string
	hc              *http.Client
	maxRetries      uint64
	initialInterval time.Duration
}

// NewHTTPGenerationClient は HTTPGenerationClient を生成します。
// timeout は生成1回あたりの待機上限で、呼び出し元のコンテキスト期限の下に重ねて適用されます。
func NewHTTPGenerationClient(baseURL string, timeout time.Duration) *HTTPGenerationClient {
	return &HTTPGenerationClient{
		baseURL:         baseURL,
		hc:              &http.Client{Timeout: timeout},
		maxRetries:      defaultMaxRetries,
		initialInterval: defaultInitialInterval,
	}
}

// generateRequest / generateResponse は生成サービスのワイヤ形式です。
type generateRequest struct {
	Prompt           string `json:"prompt"`
	ReferenceAssetID string `json:"reference_asset_id"`
	Style            string `json:"style,omitempty"`
	Width            int    `json:"width,omitempty"`
	Height           int    `json:"height,omitempty"`
	Seed             *int64 `json:"seed,omitempty"`
}

type generateResponse struct {
	ImageBase64      string `json:"image_base64"`
	MimeType         string `json:"mime_type"`
	GenerationTimeMs int64  `json:"generation_time_ms"`
}

// Generate は生成サービスを呼び出し、成果物のバイト列を返します。
// 一時的な障害は有界の内部再試行で吸収し、恒久的な障害は即座に返します。
func (c *HTTPGenerationClient) Generate(ctx context.Context, p GenerateParams) (*GeneratedImage, error) {
	const op = "generate"

	payload := generateRequest{
		Prompt:           p.Prompt,
		ReferenceAssetID: p.ReferenceAssetID,
		Style:            p.Style,
		Width:            p.Width,
		Height:           p.Height,
		Seed:             p.Seed,
	}

	start := time.Now()
	resp, err := withRetry(ctx, c.maxRetries, c.initialInterval, func() (*generateResponse, error) {
		var out generateResponse
		if err := postJSON(ctx, c.hc, c.baseURL+"/generate", payload, &out, op); err != nil {
			slog.Warn("画像生成リクエストに失敗しました",
				"reference_asset_id", p.ReferenceAssetID, "error", err)
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(resp.ImageBase64)
	if err != nil {
		return nil, domain.NewPermanent(op, fmt.Errorf("画像データのデコードに失敗しました: %w", err))
	}
	if len(data) == 0 {
		return nil, domain.NewPermanent(op, fmt.Errorf("画像データが空です"))
	}

	elapsed := resp.GenerationTimeMs
	if elapsed == 0 {
		elapsed = time.Since(start).Milliseconds()
	}

	mimeType := resp.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return &GeneratedImage{
		Data:             data,
		MimeType:         mimeType,
		GenerationTimeMs: elapsed,
	}, nil
}
