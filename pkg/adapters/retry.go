package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/shouni/go-chara-asset-kit/pkg/domain"
)

const (
	// defaultMaxRetries は一時的エラーに対する即時内部再試行の上限回数です。
	// この再試行は試行予算（maxAttempts）とは独立にカウントされます。
	defaultMaxRetries = 2
	// defaultInitialInterval は指数バックオフの初期待機時間です。
	defaultInitialInterval = 500 * time.Millisecond
)

// withRetry は op を実行し、一時的エラーに限って指数バックオフ付きで再試行します。
// 恒久的エラーは backoff.Permanent で包み、即座に呼び出し元へ返します。
func withRetry[T any](ctx context.Context, maxRetries uint64, initialInterval time.Duration, op func() (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialInterval

	return backoff.RetryWithData(func() (T, error) {
		v, err := op()
		if err != nil && domain.IsPermanent(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx))
}

// doAndClassify はHTTPリクエストを実行し、結果を一時的/恒久的エラーへ分類します。
//   - 通信断やタイムアウト → TransientError
//   - 5xx               → TransientError
//   - 4xx・不正なボディ    → PermanentError
func doAndClassify(hc *http.Client, req *http.Request, op string) ([]byte, error) {
	resp, err := hc.Do(req)
	if err != nil {
		return nil, domain.NewTransient(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewTransient(op, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err))
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, domain.NewTransient(op, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body)))
	case resp.StatusCode >= 400:
		return nil, domain.NewPermanent(op, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body)))
	}

	return body, nil
}

// postJSON はJSONペイロードをPOSTし、レスポンスJSONを out へデコードします。
func postJSON(ctx context.Context, hc *http.Client, url string, payload, out any, op string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return domain.NewPermanent(op, fmt.Errorf("リクエストのエンコードに失敗しました: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return domain.NewPermanent(op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := doAndClassify(hc, req, op)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewPermanent(op, fmt.Errorf("レスポンスのデコードに失敗しました: %w", err))
	}
	return nil
}

// postRaw は生のバイト列をPOSTし、レスポンスJSONを out へデコードします。
func postRaw(ctx context.Context, hc *http.Client, url string, data []byte, contentType string, out any, op string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return domain.NewPermanent(op, err)
	}
	req.Header.Set("Content-Type", contentType)

	body, err := doAndClassify(hc, req, op)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewPermanent(op, fmt.Errorf("レスポンスのデコードに失敗しました: %w", err))
	}
	return nil
}

// getJSON はGETリクエストを実行し、レスポンスJSONを out へデコードします。
func getJSON(ctx context.Context, hc *http.Client, url string, out any, op string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.NewPermanent(op, err)
	}

	body, err := doAndClassify(hc, req, op)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewPermanent(op, fmt.Errorf("レスポンスのデコードに失敗しました: %w", err))
	}
	return nil
}

// truncate はエラーメッセージに含めるレスポンス断片を短く切り詰めます。
func truncate(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
