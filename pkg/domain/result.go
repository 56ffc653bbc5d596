package domain

// Outcome はオーケストレーションの終端状態です。
type Outcome string

const (
	// OutcomeAccepted は候補画像がゲートを通過し、プールへ採用されたことを示します。
	OutcomeAccepted Outcome = "accepted"
	// OutcomeExhausted は試行予算を使い切ったことを示します。ポリシー上の想定内の結末です。
	OutcomeExhausted Outcome = "exhausted"
	// OutcomeAborted は選択可能な参照が1枚もなく、即時中断したことを示します。
	OutcomeAborted Outcome = "aborted"
	// OutcomeCanceled は呼び出し元のキャンセルで中断したことを示します。
	OutcomeCanceled Outcome = "canceled"
)

// Attempt は generate→analyze→gate の1サイクル分の監査レコードです。
// 作成後は変更しません。番号は 1 始まりで欠番なしです。
type Attempt struct {
	AttemptNumber    int       `json:"attempt_number"`
	ReferenceID      string    `json:"reference_id"`
	ReferenceKind    AssetKind `json:"reference_kind"`
	QualityScore     int       `json:"quality_score"`
	ConsistencyScore int       `json:"consistency_score"`
	Accepted         bool      `json:"accepted"`
	RejectReason     string    `json:"reject_reason,omitempty"`
	ElapsedMs        int64     `json:"elapsed_ms"`
}

// GenerationResult は呼び出し元へ必ず返す構造化された結果です。
// 失敗時も試行履歴と理由を全量保持し、上流の再試行判断と人間のデバッグの両方に使えます。
type GenerationResult struct {
	Success             bool      `json:"success"`
	Outcome             Outcome   `json:"outcome"`
	AcceptedAssetID     string    `json:"accepted_asset_id,omitempty"`
	SelectedReferenceID string    `json:"selected_reference_id,omitempty"`
	Attempts            []Attempt `json:"attempts"`
	TotalElapsedMs      int64     `json:"total_elapsed_ms"`
	FailureReasons      []string  `json:"failure_reasons,omitempty"`
}
