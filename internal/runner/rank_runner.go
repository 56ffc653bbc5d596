package runner

import (
	"context"
	"fmt"

	"github.com/shouni/go-chara-asset-kit/pkg/analyzer"
	"github.com/shouni/go-chara-asset-kit/pkg/domain"
	"github.com/shouni/go-chara-asset-kit/pkg/ranker"
)

// RankedReference は順位付け結果の1行分です。
type RankedReference struct {
	Asset domain.ReferenceAsset
	Score int
}

// RankRunner は生成を伴わないランキングのドライランを実行するインターフェースです。
type RankRunner interface {
	Run(ctx context.Context, prompt string, pool domain.ReferencePool) (domain.PromptProfile, []RankedReference, error)
}

// DefaultRankRunner は pkg/analyzer と pkg/ranker を利用した標準実装です。
type DefaultRankRunner struct {
	analyzer *analyzer.PromptAnalyzer
	ranker   *ranker.ReferenceRanker
}

func NewDefaultRankRunner() *DefaultRankRunner {
	return &DefaultRankRunner{
		analyzer: analyzer.New(),
		ranker:   ranker.New(ranker.DefaultWeights()),
	}
}

// Run はプロンプトを解析し、プール全体を順位付けして返すのだ。
func (rr *DefaultRankRunner) Run(_ context.Context, prompt string, pool domain.ReferencePool) (domain.PromptProfile, []RankedReference, error) {
	profile := rr.analyzer.Analyze(prompt)

	ranked := rr.ranker.Rank(pool, profile, nil)
	if len(ranked) == 0 {
		return profile, nil, fmt.Errorf("選択可能な参照アセットがありません")
	}

	rows := make([]RankedReference, 0, len(ranked))
	for _, asset := range ranked {
		rows = append(rows, RankedReference{Asset: asset, Score: rr.ranker.Score(asset, profile)})
	}
	return profile, rows, nil
}
