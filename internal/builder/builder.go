package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	imagekit "github.com/shouni/gemini-image-kit/pkg/generator"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"

	"github.com/shouni/go-chara-asset-kit/internal/config"
	"github.com/shouni/go-chara-asset-kit/internal/runner"
	"github.com/shouni/go-chara-asset-kit/pkg/adapters"
	"github.com/shouni/go-chara-asset-kit/pkg/analyzer"
	"github.com/shouni/go-chara-asset-kit/pkg/gate"
	"github.com/shouni/go-chara-asset-kit/pkg/orchestrator"
	"github.com/shouni/go-chara-asset-kit/pkg/ranker"
	"github.com/shouni/go-chara-asset-kit/pkg/store"
)

// 画像キャッシュの設定なのだ
const (
	defaultCacheExpiration   = 5 * time.Minute
	cacheCleanupInterval     = 15 * time.Minute
	defaultTTL               = 5 * time.Minute
	defaultGeminiTemperature = float32(0.2)
)

// BuildGenerateRunner は生成オーケストレーションを担当する Runner を構築します。
func BuildGenerateRunner(ctx context.Context, appCtx *AppContext) (runner.GenerateRunner, error) {
	orch, err := BuildOrchestrator(ctx, appCtx)
	if err != nil {
		return nil, fmt.Errorf("オーケストレーターの構築に失敗したのだ: %w", err)
	}
	return runner.NewDefaultGenerateRunner(orch), nil
}

// BuildOrchestrator は依存関係を解決して RetryOrchestrator を構築します。
func BuildOrchestrator(ctx context.Context, appCtx *AppContext) (*orchestrator.RetryOrchestrator, error) {
	genClient, err := initializeGenerationClient(ctx, appCtx)
	if err != nil {
		return nil, fmt.Errorf("生成クライアントの初期化に失敗したのだ: %w", err)
	}

	analysisClient := adapters.NewHTTPAnalysisClient(appCtx.Config.AnalysisBaseURL, appCtx.Options.HTTPTimeout)

	assetStore, err := store.NewRemoteAssetStore(appCtx.Writer, appCtx.Options.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("アセットストアの初期化に失敗しました: %w", err)
	}

	limits := orchestrator.NewServiceLimits(orchestrator.LimitsConfig{
		MaxConcurrentGenerations: config.DefaultMaxGenerations,
		MaxConcurrentAnalyses:    config.DefaultMaxAnalyses,
		GenerationInterval:       config.DefaultGenerationRate,
		AnalysisInterval:         config.DefaultAnalysisRate,
	})

	return orchestrator.New(
		analyzer.New(),
		ranker.New(ranker.DefaultWeights()),
		gate.New(),
		genClient,
		analysisClient,
		assetStore,
		limits,
		orchestrator.Config{},
	)
}

// initializeGenerationClient はバックエンド設定に応じた GenerationClient を返します。
// gemini を指定した場合は参照画像URLをモデルに渡す直接生成、それ以外はHTTPサービス経由です。
func initializeGenerationClient(ctx context.Context, appCtx *AppContext) (adapters.GenerationClient, error) {
	switch appCtx.Config.Backend {
	case "gemini":
		imgGen, err := initializeImageGenerator(ctx, appCtx)
		if err != nil {
			return nil, err
		}
		return adapters.NewGeminiGenerationClient(imgGen)
	default:
		return adapters.NewHTTPGenerationClient(appCtx.Config.GenerationBaseURL, appCtx.Options.HTTPTimeout), nil
	}
}

// initializeAIClient は gemini クライアントを初期化します。
func initializeAIClient(ctx context.Context, apiKey string) (gemini.GenerativeModel, error) {
	clientConfig := gemini.Config{
		APIKey:      apiKey,
		Temperature: genai.Ptr(defaultGeminiTemperature),
	}
	aiClient, err := gemini.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}

// initializeImageGenerator は、画像キャッシュを含む ImageGenerator を初期化します。
func initializeImageGenerator(ctx context.Context, appCtx *AppContext) (imagekit.ImageGenerator, error) {
	aiClient, err := initializeAIClient(ctx, appCtx.Config.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	imgCache := cache.New(defaultCacheExpiration, cacheCleanupInterval)
	core, err := imagekit.NewGeminiImageCore(
		aiClient,
		appCtx.Reader,
		appCtx.httpClient,
		imgCache,
		defaultTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("GeminiImageCore の初期化に失敗しました: %w", err)
	}

	imgGen, err := imagekit.NewGeminiGenerator(
		core,
		aiClient,
		appCtx.Config.GeminiImageModel,
	)
	if err != nil {
		return nil, fmt.Errorf("GeminiGenerator の初期化に失敗しました: %w", err)
	}

	return imgGen, nil
}
