package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/shouni/go-chara-asset-kit/pkg/domain"
)

// 解析サービスのステータス遷移なのだ。pending → processing → success|error と進む。
const (
	statusPending    = "pending"
	statusProcessing = "processing"
	statusSuccess    = "success"
	statusError      = "error"
)

const (
	// DefaultPollInterval はステータス確認の間隔です。
	DefaultPollInterval = 2 * time.Second
	// DefaultPollTimeout は1アセットの解析完了を待つ上限です。超過は一時的エラー扱いになります。
	DefaultPollTimeout = 30 * time.Second

	scoreCacheExpiration = 30 * time.Minute
	scoreCacheCleanup    = 1 * time.Hour
)

// HTTPAnalysisClient はHTTPベースの画像解析サービスへのアダプターです。
// サーバー側の解析は非同期のため、アップロード後はステータスを一定間隔でポーリングします。
type HTTPAnalysisClient struct {
	baseURL         string
	hc              *http.Client
	pollInterval    time.Duration
	pollTimeout     time.Duration
	maxRetries      uint64
	initialInterval time.Duration

	// 同一アセットの解析結果・一貫性スコアは変化しないため、メモ化して再問い合わせを避けます。
	memo *cache.Cache
	// 並行リクエストが同じアセットのポーリングを重複実行しないようにまとめます。
	pollGroup singleflight.Group
}

// NewHTTPAnalysisClient は HTTPAnalysisClient を生成します。
func NewHTTPAnalysisClient(baseURL string, timeout time.Duration) *HTTPAnalysisClient {
	return &HTTPAnalysisClient{
		baseURL:         baseURL,
		hc:              &http.Client{Timeout: timeout},
		pollInterval:    DefaultPollInterval,
		pollTimeout:     DefaultPollTimeout,
		maxRetries:      defaultMaxRetries,
		initialInterval: defaultInitialInterval,
		memo:            cache.New(scoreCacheExpiration, scoreCacheCleanup),
	}
}

// ワイヤ形式なのだ
type uploadResponse struct {
	AssetID  string `json:"asset_id"`
	MediaURL string `json:"media_url"`
}

type statusResponse struct {
	Status       string             `json:"status"`
	Features     map[string]float64 `json:"features,omitempty"`
	QualityScore int                `json:"quality_score,omitempty"`
	Message      string             `json:"message,omitempty"`
}

type consistencyRequest struct {
	ReferenceAssetID string `json:"reference_asset_id"`
	CandidateAssetID string `json:"candidate_asset_id"`
}

type consistencyResponse struct {
	ConsistencyScore int     `json:"consistency_score"`
	SameSubject      bool    `json:"same_subject"`
	Confidence       float64 `json:"confidence"`
}

// UploadAndExtract は候補画像をアップロードし、特徴抽出の完了を待って結果を返します。
func (c *HTTPAnalysisClient) UploadAndExtract(ctx context.Context, data []byte) (*UploadResult, error) {
	const op = "upload"

	if len(data) == 0 {
		return nil, domain.NewPermanent(op, fmt.Errorf("アップロードする画像データが空です"))
	}
	contentType := http.DetectContentType(data)

	up, err := withRetry(ctx, c.maxRetries, c.initialInterval, func() (*uploadResponse, error) {
		var out uploadResponse
		if err := postRaw(ctx, c.hc, c.baseURL+"/upload", data, contentType, &out, op); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	if up.AssetID == "" {
		return nil, domain.NewPermanent(op, fmt.Errorf("レスポンスに asset_id がありません"))
	}

	st, err := c.awaitAnalysis(ctx, up.AssetID)
	if err != nil {
		return nil, err
	}

	return &UploadResult{
		AssetID:  up.AssetID,
		MediaURL: up.MediaURL,
		Features: st.Features,
	}, nil
}

// ScoreQuality は解析済みアセットの品質スコアを返します。
// 解析が未完了の場合は完了までポーリングします。
func (c *HTTPAnalysisClient) ScoreQuality(ctx context.Context, assetID string) (int, error) {
	st, err := c.awaitAnalysis(ctx, assetID)
	if err != nil {
		return 0, err
	}
	return st.QualityScore, nil
}

// ScoreConsistency は参照アセットと候補アセットの一貫性スコアを返します。
// 同じ組み合わせの結果はメモ化され、2回目以降はサービスへ問い合わせません。
func (c *HTTPAnalysisClient) ScoreConsistency(ctx context.Context, referenceAssetID, candidateAssetID string) (*ConsistencyResult, error) {
	const op = "consistency"

	cacheKey := "consistency:" + referenceAssetID + "|" + candidateAssetID
	if cached, found := c.memo.Get(cacheKey); found {
		if result, ok := cached.(*ConsistencyResult); ok {
			return result, nil
		}
	}

	payload := consistencyRequest{
		ReferenceAssetID: referenceAssetID,
		CandidateAssetID: candidateAssetID,
	}

	resp, err := withRetry(ctx, c.maxRetries, c.initialInterval, func() (*consistencyResponse, error) {
		var out consistencyResponse
		if err := postJSON(ctx, c.hc, c.baseURL+"/consistency", payload, &out, op); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}

	result := &ConsistencyResult{
		ConsistencyScore: resp.ConsistencyScore,
		SameSubject:      resp.SameSubject,
		Confidence:       resp.Confidence,
	}
	c.memo.Set(cacheKey, result, cache.DefaultExpiration)
	return result, nil
}

// awaitAnalysis は指定アセットの解析が終端ステータスへ到達するまでポーリングします。
// 待機上限を超えた場合は一時的エラーとして返し、呼び出し元の試行ポリシーに委ねます。
func (c *HTTPAnalysisClient) awaitAnalysis(ctx context.Context, assetID string) (*statusResponse, error) {
	const op = "analyze"

	cacheKey := "status:" + assetID
	if cached, found := c.memo.Get(cacheKey); found {
		if st, ok := cached.(*statusResponse); ok {
			return st, nil
		}
	}

	// singleflight で同一アセットへの並行ポーリングを1本にまとめます。
	v, err, _ := c.pollGroup.Do(assetID, func() (interface{}, error) {
		st, err := c.pollUntilDone(ctx, assetID)
		if err != nil {
			return nil, err
		}
		c.memo.Set(cacheKey, st, cache.DefaultExpiration)
		return st, nil
	})
	if err != nil {
		return nil, err
	}

	st, ok := v.(*statusResponse)
	if !ok {
		return nil, domain.NewPermanent(op, fmt.Errorf("singleflight の戻り値が不正です: %T", v))
	}
	return st, nil
}

// pollUntilDone は固定間隔のポーリング本体です。デッドラインなしのビジーウェイトはしません。
func (c *HTTPAnalysisClient) pollUntilDone(ctx context.Context, assetID string) (*statusResponse, error) {
	const op = "analyze"

	pollCtx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	defer cancel()

	statusURL := c.baseURL + "/status/" + url.PathEscape(assetID)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		var st statusResponse
		if err := getJSON(pollCtx, c.hc, statusURL, &st, op); err != nil {
			// ポーリング中の一時的エラーは次の周期で再確認します。恒久的エラーは即時返却です。
			if domain.IsPermanent(err) {
				return nil, err
			}
			slog.Warn("ステータス確認に失敗しました。次の周期で再試行します", "asset_id", assetID, "error", err)
		} else {
			switch st.Status {
			case statusSuccess:
				return &st, nil
			case statusError:
				return nil, domain.NewPermanent(op, fmt.Errorf("解析がエラーで終了しました: %s", st.Message))
			case statusPending, statusProcessing:
				// 継続
			default:
				return nil, domain.NewPermanent(op, fmt.Errorf("未知のステータスです: %q", st.Status))
			}
		}

		select {
		case <-ticker.C:
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				// 呼び出し元のキャンセル・期限切れはそのまま伝播させます。
				return nil, ctx.Err()
			}
			return nil, domain.NewTransient(op, fmt.Errorf("解析完了待ちが %s を超えました: asset_id=%s", c.pollTimeout, assetID))
		}
	}
}
