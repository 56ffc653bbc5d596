package domain

import (
	"errors"
	"fmt"
)

// ErrNoReferenceAvailable はプールに選択可能な参照が1枚も残っていないことを示します。
// 残り試行予算に関わらず致命的であり、オーケストレーションは即時中断します。
var ErrNoReferenceAvailable = errors.New("利用可能な参照アセットがありません")

// TransientError はネットワーク断や 5xx など、短い間隔の再試行で回復しうる外部サービス障害です。
type TransientError struct {
	Op  string // 失敗した操作名（"generate" 等）
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: 一時的な外部サービス障害: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError は 4xx や不正なレスポンスなど、再試行しても回復しない外部サービス障害です。
type PermanentError struct {
	Op  string
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s: サービスがリクエストを拒否しました: %v", e.Op, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// NewTransient は操作名付きの TransientError を生成します。
func NewTransient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// NewPermanent は操作名付きの PermanentError を生成します。
func NewPermanent(op string, err error) error {
	return &PermanentError{Op: op, Err: err}
}

// IsTransient は err が一時的な障害として分類されているかを返します。
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent は err が恒久的な障害として分類されているかを返します。
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
