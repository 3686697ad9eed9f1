package domain

import (
	"errors"
	"fmt"
)

// UserFacingErrorMessage は、生成に失敗した際にユーザーへ表示する固定メッセージです
const UserFacingErrorMessage = "The Aurora interfered with the signal. Try again!"

// ドメイン固有のエラー型を定義
var (
	// ErrEmptyPrompt は、空白のみのプロンプトが送信された場合のエラーです
	ErrEmptyPrompt = errors.New("プロンプトが空です")

	// ErrAlreadyInFlight は、生成中に再度送信された場合のエラーです
	ErrAlreadyInFlight = errors.New("生成処理が既に実行中です")

	// ErrProviderUnavailable は、AIプロバイダーとの通信に失敗した場合のエラーです
	ErrProviderUnavailable = errors.New("AIプロバイダーが利用できません")

	// ErrTimeout は、生成処理がタイムアウトした場合のエラーです
	ErrTimeout = errors.New("生成処理がタイムアウトしました")

	// ErrMalformedPayload は、プロバイダーの応答形式が不正な場合のエラーです
	ErrMalformedPayload = errors.New("プロバイダーの応答形式が不正です")

	// ErrEmptyText は、生成されたキャプションが空の場合のエラーです
	ErrEmptyText = errors.New("生成されたテキストが空です")
)

// FailureKind は、生成失敗の種類を表します
type FailureKind int

const (
	FailureProviderUnavailable FailureKind = iota
	FailureTimeout
	FailureMalformedPayload
	FailureEmptyText
)

var failureKindSentinels = []error{
	ErrProviderUnavailable,
	ErrTimeout,
	ErrMalformedPayload,
	ErrEmptyText,
}

var failureKindNames = []string{
	"provider_unavailable",
	"timeout",
	"malformed_payload",
	"empty_text",
}

// String はFailureKindの名前を返します
func (k FailureKind) String() string {
	if int(k) >= 0 && int(k) < len(failureKindNames) {
		return failureKindNames[k]
	}
	return "provider_unavailable"
}

// sentinel はFailureKindに対応するセンチネルエラーを返します
func (k FailureKind) sentinel() error {
	if int(k) >= 0 && int(k) < len(failureKindSentinels) {
		return failureKindSentinels[k]
	}
	return ErrProviderUnavailable
}

// GenerationFailure は、生成クライアントとノーマライザーが返す唯一の失敗型です
// 原因に関わらずこの型に集約されるため、呼び出し側はプロバイダー固有のエラーを判別する必要がありません
type GenerationFailure struct {
	Kind FailureKind
	Err  error
}

// NewGenerationFailure は新しいGenerationFailureを作成します
func NewGenerationFailure(kind FailureKind, err error) *GenerationFailure {
	return &GenerationFailure{Kind: kind, Err: err}
}

// Error はerrorインターフェースを実装します
func (f *GenerationFailure) Error() string {
	if f.Err == nil {
		return f.Kind.sentinel().Error()
	}
	return fmt.Sprintf("%s: %v", f.Kind.sentinel().Error(), f.Err)
}

// Unwrap は内部のエラーを返します
func (f *GenerationFailure) Unwrap() error {
	return f.Err
}

// Is は、種類に対応するセンチネルエラーとの比較を可能にします
func (f *GenerationFailure) Is(target error) bool {
	return target == f.Kind.sentinel()
}
