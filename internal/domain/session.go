package domain

// Session は、1つのプレゼンテーション層が所有する生成リクエストのライフサイクルです
// Responseが存在するのはStatusがStatusCompleteの場合のみです
type Session struct {
	Status       VibeStatus
	Response     *VibeResponse
	ErrorMessage string
	Prompt       string

	// GenerationID は送信ごとに単調増加するフェンシングトークンです
	GenerationID uint64
}

// NewSession は、Idle状態の新しいSessionを作成します
func NewSession() Session {
	return Session{Status: StatusIdle}
}

// Snapshot は、呼び出し側が変更しても影響のないコピーを返します
func (s Session) Snapshot() Session {
	if s.Response != nil {
		resp := s.Response.clone()
		s.Response = &resp
	}
	return s
}

// GenerationRequest は、StatusThinkingへの遷移で発生する副作用です
// 受け取った側は生成クライアントをちょうど1回呼び出します
type GenerationRequest struct {
	GenerationID uint64
	Prompt       Prompt
}

// Event は、Sessionの状態遷移を引き起こす入力です
type Event interface {
	isEvent()
}

// SubmitEvent は、ユーザーによるプロンプトの送信です
type SubmitEvent struct {
	Prompt Prompt
}

// ImagePhaseEvent は、画像生成フェーズの開始を通知します
type ImagePhaseEvent struct {
	GenerationID uint64
}

// SucceededEvent は、生成と正規化が成功したことを通知します
type SucceededEvent struct {
	GenerationID uint64
	Response     VibeResponse
}

// FailedEvent は、生成が失敗したことを通知します
type FailedEvent struct {
	GenerationID uint64
	Err          error
}

// ResetEvent は、Idleへ戻す操作です
type ResetEvent struct{}

func (SubmitEvent) isEvent()     {}
func (ImagePhaseEvent) isEvent() {}
func (SucceededEvent) isEvent()  {}
func (FailedEvent) isEvent()     {}
func (ResetEvent) isEvent()      {}

// CheckSubmit は、送信が受け付けられるかを判定します
// 受け付けられない場合はErrEmptyPromptまたはErrAlreadyInFlightを返します
func (s Session) CheckSubmit(prompt Prompt) error {
	if prompt.IsEmpty() {
		return ErrEmptyPrompt
	}
	if s.Status.IsBusy() {
		return ErrAlreadyInFlight
	}
	return nil
}

// Apply は、イベントを適用した次のSessionを返します
// Sessionは値として扱われ、レシーバーは変更されません
func (s Session) Apply(event Event) (Session, *GenerationRequest) {
	switch ev := event.(type) {
	case SubmitEvent:
		if s.CheckSubmit(ev.Prompt) != nil {
			return s, nil
		}
		next := Session{
			Status:       StatusThinking,
			Prompt:       ev.Prompt.Content(),
			GenerationID: s.GenerationID + 1,
		}
		return next, &GenerationRequest{GenerationID: next.GenerationID, Prompt: ev.Prompt}

	case ImagePhaseEvent:
		if ev.GenerationID != s.GenerationID || s.Status != StatusThinking {
			return s, nil
		}
		s.Status = StatusGeneratingImage
		return s, nil

	case SucceededEvent:
		if ev.GenerationID != s.GenerationID || !s.Status.IsBusy() {
			return s, nil
		}
		if ev.Response.Text == "" {
			return s.Apply(FailedEvent{GenerationID: ev.GenerationID, Err: ErrEmptyText})
		}
		resp := ev.Response.clone()
		s.Status = StatusComplete
		s.Response = &resp
		s.ErrorMessage = ""
		return s, nil

	case FailedEvent:
		if ev.GenerationID != s.GenerationID || !s.Status.IsBusy() {
			return s, nil
		}
		s.Status = StatusError
		s.Response = nil
		s.ErrorMessage = UserFacingErrorMessage
		return s, nil

	case ResetEvent:
		// 生成中のリセットはリクエストの放棄として扱い、後から届く結果はGenerationIDで破棄されます
		return Session{Status: StatusIdle, GenerationID: s.GenerationID}, nil
	}

	return s, nil
}
