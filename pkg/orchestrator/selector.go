package orchestrator

import (
	"github.com/shouni/go-chara-asset-kit/pkg/domain"
)

// referenceSelector は試行番号に応じた参照アセットの選択ポリシーを実装します。
//
//	試行1:     プール全体の最上位ランクを選ぶ
//	試行2:     マスター参照が未使用ならそれを強制選択する（正典参照を最低1回は試すため）
//	試行3以降: 使用済みを除外した次点を選ぶ。除外で枯渇したら、プール全体を順位順で再利用する
type referenceSelector struct {
	ranker  Ranker
	pool    domain.ReferencePool
	profile domain.PromptProfile
	used    map[string]struct{}
}

func newReferenceSelector(ranker Ranker, pool domain.ReferencePool, profile domain.PromptProfile) *referenceSelector {
	return &referenceSelector{
		ranker:  ranker,
		pool:    pool,
		profile: profile,
		used:    make(map[string]struct{}),
	}
}

// next は attemptNumber（1始まり）に対応する参照を返し、使用済みとして記録します。
// 選択できる参照が1枚もない場合は ErrNoReferenceAvailable を返します。
func (s *referenceSelector) next(attemptNumber int) (domain.ReferenceAsset, error) {
	if len(s.pool) == 0 {
		return domain.ReferenceAsset{}, domain.ErrNoReferenceAvailable
	}

	if attemptNumber == 2 {
		if master, ok := s.pool.Master(); ok {
			if _, usedAlready := s.used[master.ID]; !usedAlready {
				s.used[master.ID] = struct{}{}
				return master, nil
			}
		}
		// マスターが無い、または使用済みの場合はランキング規則へフォールバックします。
	}

	var excluded map[string]struct{}
	if attemptNumber > 1 {
		excluded = s.used
	}

	ranked := s.ranker.Rank(s.pool, s.profile, excluded)
	if len(ranked) == 0 {
		// 真に枯渇した後に限り、使用済み記録をリセットしてプール全体を順位順で再利用します。
		s.used = make(map[string]struct{})
		ranked = s.ranker.Rank(s.pool, s.profile, nil)
	}
	if len(ranked) == 0 {
		return domain.ReferenceAsset{}, domain.ErrNoReferenceAvailable
	}

	selected := ranked[0]
	s.used[selected.ID] = struct{}{}
	return selected, nil
}
