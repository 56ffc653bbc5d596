// Package ranker は、解析済みプロンプトに対して参照アセットプールを決定論的に順位付けします。
package ranker

import (
	"sort"

	"github.com/shouni/go-chara-asset-kit/pkg/domain"
)

// Weights は加点式スコアリングの重み設定です。
// 既定値は運用で調整可能なデフォルトポリシーであり、厳密な契約ではありません。
type Weights struct {
	KindMaster    int // マスター参照の基礎点
	KindCoreSet   int // コアセット参照の基礎点
	KindGenerated int // 生成採用参照の基礎点

	QualityBonus      int // QualityScore が QualityCutoff 以上のときの加点
	QualityCutoff     int
	ConsistencyBonus  int // ConsistencyScore が ConsistencyCutoff 以上のときの加点
	ConsistencyCutoff int

	AxisMatch      int // 画角・アングルがプロファイルと一致するごとの加点
	KeywordOverlap int // キーワード重複1件ごとの加点
	KeywordCap     int // キーワード加点の上限
}

// DefaultWeights は既定の重みを返します。
func DefaultWeights() Weights {
	return Weights{
		KindMaster:        10,
		KindCoreSet:       8,
		KindGenerated:     5,
		QualityBonus:      5,
		QualityCutoff:     80,
		ConsistencyBonus:  5,
		ConsistencyCutoff: 85,
		AxisMatch:         3,
		KeywordOverlap:    1,
		KeywordCap:        5,
	}
}

// ReferenceRanker は参照アセットのスコアリングと順位付けを行います。
// プールを変更せず、同じ入力には常に同じ順序を返します。
type ReferenceRanker struct {
	weights Weights
}

// New は指定された重みで ReferenceRanker を生成します。
func New(w Weights) *ReferenceRanker {
	return &ReferenceRanker{weights: w}
}

// Score は1アセットの合計スコアを計算します。
func (r *ReferenceRanker) Score(a domain.ReferenceAsset, profile domain.PromptProfile) int {
	w := r.weights
	score := 0

	switch a.Kind {
	case domain.KindMaster:
		score += w.KindMaster
	case domain.KindCoreSet:
		score += w.KindCoreSet
	case domain.KindGenerated:
		score += w.KindGenerated
	}

	if a.QualityScore >= w.QualityCutoff {
		score += w.QualityBonus
	}
	if a.ConsistencyScore >= w.ConsistencyCutoff {
		score += w.ConsistencyBonus
	}

	if profile.ShotType != domain.ShotUnspecified && a.ShotType == profile.ShotType {
		score += w.AxisMatch
	}
	if profile.Angle != domain.AngleUnspecified && a.Angle == profile.Angle {
		score += w.AxisMatch
	}

	overlap := 0
	for _, kw := range profile.Keywords {
		if a.HasKeyword(kw) {
			overlap += w.KeywordOverlap
			if overlap >= w.KeywordCap {
				overlap = w.KeywordCap
				break
			}
		}
	}
	score += overlap

	return score
}

// Rank は excluded に含まれない全アセットをスコア降順で返します。
// 同点時は種別優先度（Master > CoreSet > Generated）、次に CreatedAt の新しい順で決着します。
// 除外後にプールが空なら空スライスを返し、呼び出し元は「参照なし」の終端条件として扱います。
func (r *ReferenceRanker) Rank(pool domain.ReferencePool, profile domain.PromptProfile, excluded map[string]struct{}) []domain.ReferenceAsset {
	candidates := make([]domain.ReferenceAsset, 0, len(pool))
	for _, a := range pool {
		if _, skip := excluded[a.ID]; skip {
			continue
		}
		candidates = append(candidates, a)
	}

	scores := make(map[string]int, len(candidates))
	for _, a := range candidates {
		scores[a.ID] = r.Score(a, profile)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if scores[a.ID] != scores[b.ID] {
			return scores[a.ID] > scores[b.ID]
		}
		if a.Kind.Priority() != b.Kind.Priority() {
			return a.Kind.Priority() > b.Kind.Priority()
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	return candidates
}
