package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultGenerationBaseURL = "http://localhost:8701" // 画像生成サービス
	DefaultAnalysisBaseURL   = "http://localhost:8702" // 画像解析サービス
	DefaultBackend           = "http"                  // http | gemini
	DefaultImageModel        = "gemini-3-pro-image-preview"
	DefaultHTTPTimeout       = 30 * time.Second
	DefaultGenerationRate    = 10 * time.Second // 生成リクエストの最小間隔
	DefaultAnalysisRate      = 2 * time.Second  // 解析リクエストの最小間隔
	DefaultMaxGenerations    = 2                // 生成サービスへの同時接続上限
	DefaultMaxAnalyses       = 4                // 解析サービスへの同時接続上限
	DefaultPoolFile          = "examples/reference_pool.json"
	DefaultOutputDir         = "output/assets"      // 採用画像と監査ログの保存先なのだ
	DefaultResultFile        = "output/result.json" // 実行結果（試行履歴込み）の保存先なのだ
	DefaultStyleSuffix       = "official art, clean line art, high-quality coloring, clear character features, high resolution"
)

// Config はアプリケーション全体の環境設定（接続先やAPIキー）を保持する構造体なのだ。
type Config struct {
	GenerationBaseURL string
	AnalysisBaseURL   string
	Backend           string
	GeminiAPIKey      string
	GeminiImageModel  string
	StyleSuffix       string

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	cfg := &Config{
		GenerationBaseURL: envutil.GetEnv("GENERATION_BASE_URL", DefaultGenerationBaseURL),
		AnalysisBaseURL:   envutil.GetEnv("ANALYSIS_BASE_URL", DefaultAnalysisBaseURL),
		Backend:           envutil.GetEnv("GENERATION_BACKEND", DefaultBackend),
		GeminiAPIKey:      envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiImageModel:  envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
		StyleSuffix:       envutil.GetEnv("IMAGE_STYLE_SUFFIX", DefaultStyleSuffix),
	}
	return cfg
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// 対象と指示
	CharacterID string   // --character
	Prompt      string   // --prompt
	Style       string   // --style
	Tags        []string // --tags

	// 試行ポリシー。しきい値の -1 は「未指定（デフォルトを使う）」を意味する
	MaxAttempts          int // --max-attempts
	QualityThreshold     int // --quality-threshold
	ConsistencyThreshold int // --consistency-threshold

	// 入出力
	PoolFile   string // --pool-file: 参照プールJSON（ローカル or gs://...）
	OutputDir  string // --output-dir
	ResultFile string // --result-file

	// 実行制御
	HTTPTimeout time.Duration // --http-timeout
}
