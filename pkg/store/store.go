// Package store は採用された生成画像の永続化と、試行監査ログの追記を提供します。
// 保存先は remoteio.OutputWriter が解決するため、ローカルパスと gs:// の両方に対応します。
package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/go-utils/urlpath"

	"github.com/shouni/go-chara-asset-kit/pkg/domain"
)

const (
	metadataMimeType = "application/json"
	auditMimeType    = "application/x-ndjson"
)

// RemoteAssetStore は OutputWriter 経由で画像・メタデータ・監査ログを書き出す AssetStore 実装です。
type RemoteAssetStore struct {
	writer  remoteio.OutputWriter
	baseDir string

	// 監査ログはリクエスト単位で全量を書き直すため、リクエストごとの累積を保持します。
	mu     sync.Mutex
	audits map[string][]domain.Attempt
}

// NewRemoteAssetStore は RemoteAssetStore を生成します。
func NewRemoteAssetStore(writer remoteio.OutputWriter, baseDir string) (*RemoteAssetStore, error) {
	if writer == nil {
		return nil, fmt.Errorf("writer (OutputWriter) is required")
	}
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir is required")
	}
	return &RemoteAssetStore{
		writer:  writer,
		baseDir: baseDir,
		audits:  make(map[string][]domain.Attempt),
	}, nil
}

// storedMetadata はメタデータJSONのレイアウトです。
type storedMetadata struct {
	CharacterID string                `json:"character_id"`
	Asset       domain.ReferenceAsset `json:"asset"`
	ImagePath   string                `json:"image_path"`
	StoredAt    time.Time             `json:"stored_at"`
}

// CreateReferenceAsset は画像本体を書き出した後にメタデータを書き出します。
// メタデータは最後に書くため、メタデータが存在する＝画像も揃っている、が成立します。
func (s *RemoteAssetStore) CreateReferenceAsset(ctx context.Context, characterID string, asset domain.ReferenceAsset, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("保存する画像データが空です")
	}

	assetID := asset.ID
	if assetID == "" {
		assetID = deriveAssetID(data)
	}
	asset.ID = assetID

	imagePath, err := urlpath.ResolveOutputPath(s.baseDir, assetID+imageExtension(data))
	if err != nil {
		return "", fmt.Errorf("画像の出力パス解決に失敗しました: %w", err)
	}
	mimeType := detectMimeType(data)
	if err := s.writer.Write(ctx, imagePath, bytes.NewReader(data), mimeType); err != nil {
		return "", fmt.Errorf("画像本体の保存に失敗しました: %w", err)
	}

	meta := storedMetadata{
		CharacterID: characterID,
		Asset:       asset,
		ImagePath:   imagePath,
		StoredAt:    time.Now().UTC(),
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("メタデータのエンコードに失敗しました: %w", err)
	}

	metaPath, err := urlpath.ResolveOutputPath(s.baseDir, assetID+".json")
	if err != nil {
		return "", fmt.Errorf("メタデータの出力パス解決に失敗しました: %w", err)
	}
	if err := s.writer.Write(ctx, metaPath, bytes.NewReader(metaJSON), metadataMimeType); err != nil {
		return "", fmt.Errorf("メタデータの保存に失敗しました: %w", err)
	}

	return assetID, nil
}

// AppendAttemptAudit はリクエスト単位の監査レコードを追記します。
// 書き込み先が追記をサポートしないため、累積分を JSON Lines として毎回書き直します。
func (s *RemoteAssetStore) AppendAttemptAudit(ctx context.Context, requestID string, attempt domain.Attempt) error {
	s.mu.Lock()
	s.audits[requestID] = append(s.audits[requestID], attempt)
	lines := make([]domain.Attempt, len(s.audits[requestID]))
	copy(lines, s.audits[requestID])
	s.mu.Unlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, a := range lines {
		if err := enc.Encode(a); err != nil {
			return fmt.Errorf("監査レコードのエンコードに失敗しました: %w", err)
		}
	}

	auditPath, err := urlpath.ResolveOutputPath(s.baseDir, requestID+"_audit.jsonl")
	if err != nil {
		return fmt.Errorf("監査ログの出力パス解決に失敗しました: %w", err)
	}
	if err := s.writer.Write(ctx, auditPath, &buf, auditMimeType); err != nil {
		return fmt.Errorf("監査ログの保存に失敗しました: %w", err)
	}
	return nil
}

// deriveAssetID は画像バイト列から決定論的なアセットIDを導出します。
func deriveAssetID(data []byte) string {
	sum := sha256.Sum256(data)
	return "gen_" + hex.EncodeToString(sum[:6])
}

func detectMimeType(data []byte) string {
	return http.DetectContentType(data)
}

func imageExtension(data []byte) string {
	switch detectMimeType(data) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
