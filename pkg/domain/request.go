package domain

import "fmt"

// しきい値と試行回数のデフォルトなのだ
const (
	DefaultMaxAttempts          = 3
	MaxAttemptsLimit            = 5
	DefaultQualityThreshold     = 70
	DefaultConsistencyThreshold = 80
)

// Thresholds は1リクエスト分の合格基準（パーセンテージ）です。
type Thresholds struct {
	Quality     int `json:"quality"`
	Consistency int `json:"consistency"`
}

// GenerationRequest は1回の生成オーケストレーションへの入力です。
// 省略可能な数値フィールドは 0 を「未指定」とみなし、Normalize でデフォルトを充当します。
type GenerationRequest struct {
	CharacterID          string   `json:"character_id"`
	Prompt               string   `json:"prompt"`
	Style                string   `json:"style,omitempty"`
	MaxAttempts          int      `json:"max_attempts,omitempty"`
	QualityThreshold     int      `json:"quality_threshold,omitempty"`
	ConsistencyThreshold int      `json:"consistency_threshold,omitempty"`
	Tags                 []string `json:"tags,omitempty"`

	// しきい値 0 は合法な値（ゲート無効化）なので、未指定との区別用フラグを持ちます。
	QualityThresholdSet     bool `json:"-"`
	ConsistencyThresholdSet bool `json:"-"`
}

// Normalize は未指定フィールドへデフォルト値を充当します。
func (r *GenerationRequest) Normalize() {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = DefaultMaxAttempts
	}
	if r.QualityThreshold == 0 && !r.QualityThresholdSet {
		r.QualityThreshold = DefaultQualityThreshold
	}
	if r.ConsistencyThreshold == 0 && !r.ConsistencyThresholdSet {
		r.ConsistencyThreshold = DefaultConsistencyThreshold
	}
}

// Validate はリクエストの不変条件を検査します。
func (r GenerationRequest) Validate() error {
	if r.CharacterID == "" {
		return fmt.Errorf("character_id は必須です")
	}
	if r.Prompt == "" {
		return fmt.Errorf("prompt は必須です")
	}
	if r.MaxAttempts < 1 || r.MaxAttempts > MaxAttemptsLimit {
		return fmt.Errorf("max_attempts は 1..%d の範囲で指定してください: %d", MaxAttemptsLimit, r.MaxAttempts)
	}
	if r.QualityThreshold < 0 || r.QualityThreshold > 100 {
		return fmt.Errorf("quality_threshold は 0..100 の範囲で指定してください: %d", r.QualityThreshold)
	}
	if r.ConsistencyThreshold < 0 || r.ConsistencyThreshold > 100 {
		return fmt.Errorf("consistency_threshold は 0..100 の範囲で指定してください: %d", r.ConsistencyThreshold)
	}
	return nil
}

// Thresholds は合格基準を束ねて返します。
func (r GenerationRequest) Thresholds() Thresholds {
	return Thresholds{Quality: r.QualityThreshold, Consistency: r.ConsistencyThreshold}
}
