// Package adapters は外部の画像生成サービスと解析サービスへの薄いI/Oアダプターを提供します。
// ビジネス判断は一切持たず、呼び出しの実行・エラー分類・有界な内部再試行だけを担当します。
package adapters

import "context"

// GenerateParams は生成サービスへの1回分の要求です。
type GenerateParams struct {
	Prompt           string
	Style            string
	ReferenceAssetID string
	ReferenceURL     string // Geminiバックエンドが参照画像の取得に使用します
	Width            int
	Height           int
	Seed             *int64
}

// GeneratedImage は生成サービスから返る成果物です。
type GeneratedImage struct {
	Data             []byte
	MimeType         string
	GenerationTimeMs int64
}

// UploadResult は候補画像のアップロードと特徴抽出の結果です。
type UploadResult struct {
	AssetID  string
	MediaURL string
	Features map[string]float64
}

// ConsistencyResult は参照アセットと候補アセットの同一被写体判定の結果です。
type ConsistencyResult struct {
	ConsistencyScore int
	SameSubject      bool
	Confidence       float64
}

// GenerationClient はテキスト/画像から画像を生成する外部モデルへの窓口です。
type GenerationClient interface {
	Generate(ctx context.Context, p GenerateParams) (*GeneratedImage, error)
}

// AnalysisClient は特徴抽出・品質スコア・一貫性スコアを提供する外部サービスへの窓口です。
type AnalysisClient interface {
	UploadAndExtract(ctx context.Context, data []byte) (*UploadResult, error)
	ScoreQuality(ctx context.Context, assetID string) (int, error)
	ScoreConsistency(ctx context.Context, referenceAssetID, candidateAssetID string) (*ConsistencyResult, error)
}
