// Package analyzer は自由文プロンプトから粗い属性（画角・アングル・雰囲気・舞台・キーワード）を
// 抽出するルールベースの分類器を提供します。学習は行わず、設定済みの辞書と固定の優先順だけで
// 決定論的に動作します。
package analyzer

import (
	"strings"
	"unicode"

	"github.com/shouni/go-chara-asset-kit/pkg/domain"
)

// PromptAnalyzer はプロンプト解析器です。失敗モードを持たない純粋関数として振る舞い、
// 未知の入力にはニュートラルなプロファイルを返します。
type PromptAnalyzer struct {
	shotRules    []rule[domain.ShotType]
	angleRules   []rule[domain.Angle]
	moodRules    []rule[domain.Mood]
	settingRules []rule[domain.Setting]
	stopWords    map[string]struct{}
}

// rule は「部分文字列が含まれていたらこの値」を表す1エントリです。
// スライスの並び順がそのまま優先順になり、軸ごとに最初のマッチが勝ちます。
type rule[T ~string] struct {
	substr string
	value  T
}

// New はデフォルト辞書を持つ PromptAnalyzer を生成します。
func New() *PromptAnalyzer {
	return &PromptAnalyzer{
		shotRules:    defaultShotRules(),
		angleRules:   defaultAngleRules(),
		moodRules:    defaultMoodRules(),
		settingRules: defaultSettingRules(),
		stopWords:    defaultStopWords(),
	}
}

// Analyze はプロンプトを解析して PromptProfile を返します。エラーは返しません。
func (a *PromptAnalyzer) Analyze(prompt string) domain.PromptProfile {
	lowered := strings.ToLower(prompt)

	return domain.PromptProfile{
		ShotType: matchFirst(lowered, a.shotRules, domain.ShotUnspecified),
		Angle:    matchFirst(lowered, a.angleRules, domain.AngleUnspecified),
		Mood:     matchFirst(lowered, a.moodRules, domain.MoodNeutral),
		Setting:  matchFirst(lowered, a.settingRules, domain.SettingNeutral),
		Keywords: a.extractKeywords(lowered),
	}
}

// matchFirst は大文字小文字を区別しない部分一致で、最初に該当したルールの値を返します。
func matchFirst[T ~string](lowered string, rules []rule[T], fallback T) T {
	for _, r := range rules {
		if strings.Contains(lowered, r.substr) {
			return r.value
		}
	}
	return fallback
}

// extractKeywords はプロンプトの内容語を抽出します。
// 英数字以外で分割し、ストップワードと2文字以下の語を除外した上で、出現順を保った重複なしの列を返します。
func (a *PromptAnalyzer) extractKeywords(lowered string) []string {
	words := strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var keywords []string
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len(w) <= 2 {
			continue
		}
		if _, stop := a.stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		keywords = append(keywords, w)
	}
	return keywords
}
