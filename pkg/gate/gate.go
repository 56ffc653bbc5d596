// Package gate は生成候補に対する合否判定を提供します。
package gate

import (
	"fmt"

	"github.com/shouni/go-chara-asset-kit/pkg/domain"
)

// Decision はゲートの判定結果です。
type Decision struct {
	Accepted bool
	Reason   string // 不合格時のみ。どのしきい値にどれだけ届かなかったかを人間可読で示します。
}

// ConsistencyGate は品質・一貫性の両しきい値を適用する純粋な判定器です。
// 隠れた状態を持たず、同じ入力には常に同じ判定を返します。
type ConsistencyGate struct{}

// New は ConsistencyGate を生成します。
func New() *ConsistencyGate {
	return &ConsistencyGate{}
}

// Evaluate は qualityScore と consistencyScore が両方ともしきい値以上のときだけ合格を返します。
// 不合格理由は "quality 65/70, consistency 92/80" の形式で、両軸の実測値としきい値を併記します。
func (g *ConsistencyGate) Evaluate(qualityScore, consistencyScore int, th domain.Thresholds) Decision {
	if qualityScore >= th.Quality && consistencyScore >= th.Consistency {
		return Decision{Accepted: true}
	}

	reason := fmt.Sprintf("quality %d/%d, consistency %d/%d",
		qualityScore, th.Quality, consistencyScore, th.Consistency)
	return Decision{Accepted: false, Reason: reason}
}
