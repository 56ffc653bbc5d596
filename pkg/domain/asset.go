package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// AssetKind は参照アセットの由来種別です。
type AssetKind string

const (
	// KindMaster はキャラクター確立時に最初に登録される正典画像です。キャラクターごとに一意です。
	KindMaster AssetKind = "master"
	// KindCoreSet はマスターと同時に整備される追加の正典セット（別アングル等）です。
	KindCoreSet AssetKind = "core_set"
	// KindGenerated は本キットが生成し、合格判定を経てプールに採用された画像です。
	KindGenerated AssetKind = "generated"
)

// Priority は種別の優先度を返します。値が大きいほど正典性が高いのだ。
func (k AssetKind) Priority() int {
	switch k {
	case KindMaster:
		return 3
	case KindCoreSet:
		return 2
	case KindGenerated:
		return 1
	default:
		return 0
	}
}

// Valid は既知の種別かどうかを返します。
func (k AssetKind) Valid() bool {
	return k.Priority() > 0
}

// ReferenceAsset は1枚の参照画像とそのメタデータです。作成後は不変として扱います。
type ReferenceAsset struct {
	ID               string    `json:"id"`
	Kind             AssetKind `json:"kind"`
	QualityScore     int       `json:"quality_score"`     // 0..100 の画質スコア
	ConsistencyScore int       `json:"consistency_score"` // 0..100 のキャラクター一致スコア
	ShotType         ShotType  `json:"shot_type"`
	Angle            Angle     `json:"angle"`
	Keywords         []string  `json:"keywords"`
	SourceURL        string    `json:"source_url"` // 画像本体の取得先（ローカル or https/gs）
	CreatedAt        time.Time `json:"created_at"`
}

// HasKeyword はアセットのキーワード集合に kw が含まれるかを返します。
func (a ReferenceAsset) HasKeyword(kw string) bool {
	for _, k := range a.Keywords {
		if k == kw {
			return true
		}
	}
	return false
}

// ReferencePool はひとりのキャラクターが専有する参照アセットの集合です。
// 1回のオーケストレーション中は読み取り専用として扱います。
type ReferencePool []ReferenceAsset

// Master はプール内のマスター参照を返します。存在しない場合は ok=false です。
func (p ReferencePool) Master() (ReferenceAsset, bool) {
	for _, a := range p {
		if a.Kind == KindMaster {
			return a, true
		}
	}
	return ReferenceAsset{}, false
}

// FindByID は ID が一致するアセットを返します。
func (p ReferencePool) FindByID(id string) (ReferenceAsset, bool) {
	for _, a := range p {
		if a.ID == id {
			return a, true
		}
	}
	return ReferenceAsset{}, false
}

// Clone はプールの防御的コピーを返します。キーワードスライスも新しく割り当てます。
func (p ReferencePool) Clone() ReferencePool {
	copied := make(ReferencePool, len(p))
	for i, a := range p {
		assetCopy := a
		if a.Keywords != nil {
			assetCopy.Keywords = make([]string, len(a.Keywords))
			copy(assetCopy.Keywords, a.Keywords)
		}
		copied[i] = assetCopy
	}
	return copied
}

// ParseReferencePool はJSONバイト列から参照プールをパースして返します。
// マスターの重複や未知の種別は設定ミスとして弾きます。
func ParseReferencePool(data []byte) (ReferencePool, error) {
	var pool ReferencePool
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, fmt.Errorf("参照プールのデコードに失敗しました: %w", err)
	}

	masterCount := 0
	seen := make(map[string]struct{}, len(pool))
	for _, a := range pool {
		if a.ID == "" {
			return nil, fmt.Errorf("参照アセットに id がありません")
		}
		if _, dup := seen[a.ID]; dup {
			return nil, fmt.Errorf("参照アセット id が重複しています: %s", a.ID)
		}
		seen[a.ID] = struct{}{}
		if !a.Kind.Valid() {
			return nil, fmt.Errorf("参照アセット %s の種別が不正です: %q", a.ID, a.Kind)
		}
		if a.Kind == KindMaster {
			masterCount++
		}
	}
	if masterCount > 1 {
		return nil, fmt.Errorf("マスター参照はキャラクターごとに1枚までです（%d枚検出）", masterCount)
	}

	// 内部で保持するデータが呼び出し元と共有されないよう、コピーを返します。
	return pool.Clone(), nil
}
