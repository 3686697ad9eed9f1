package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"vibecheck/internal/domain"

	"github.com/google/uuid"
)

// ErrServiceClosed は、Close後に操作された場合のエラーです
var ErrServiceClosed = errors.New("セッションサービスは終了しています")

// VibeSessionService は、1つのSessionを所有し、状態遷移と生成処理を仲介するアプリケーションサービスです
//
// 状態の変更は常にdomain.Session.Applyを通して行われます。
// 生成結果はGenerationIDで照合され、古いリクエストの結果は破棄されます。
// オブザーバーへの通知は専用のゴルーチンから状態変更の順序どおりに行われます。
type VibeSessionService struct {
	generator       Generator
	maxPromptLength int
	logger          *slog.Logger

	mu             sync.Mutex
	session        domain.Session
	inflightID     uint64
	inflightCancel context.CancelFunc
	observers      map[int]func(domain.Session)
	nextObserverID int
	pending        []domain.Session
	closed         bool

	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewVibeSessionService は新しいVibeSessionServiceインスタンスを作成します
func NewVibeSessionService(generator Generator, maxPromptLength int, logger *slog.Logger) *VibeSessionService {
	if maxPromptLength <= 0 {
		maxPromptLength = domain.DefaultMaxPromptLength
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &VibeSessionService{
		generator:       generator,
		maxPromptLength: maxPromptLength,
		logger:          logger,
		session:         domain.NewSession(),
		observers:       make(map[int]func(domain.Session)),
		ctx:             ctx,
		cancel:          cancel,
		wake:            make(chan struct{}, 1),
		done:            make(chan struct{}),
	}
	go s.dispatch()
	return s
}

// State は現在のSessionのスナップショットを返します
func (s *VibeSessionService) State() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Snapshot()
}

// Subscribe は、状態変更ごとに呼び出されるオブザーバーを登録します
// 戻り値の関数を呼び出すと登録が解除されます
func (s *VibeSessionService) Subscribe(fn func(domain.Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextObserverID
	s.nextObserverID++
	s.observers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// Submit は、プロンプトを送信して生成を開始します
// 生成の完了を待たずに戻ります。受け付けられなかった場合はその理由を返します
func (s *VibeSessionService) Submit(text string) error {
	_, err := s.SubmitWithID(text)
	return err
}

// SubmitWithID は、Submitと同様にプロンプトを送信し、受け付けた生成のGenerationIDを返します
func (s *VibeSessionService) SubmitWithID(text string) (uint64, error) {
	prompt := domain.NewPrompt(text).Truncate(s.maxPromptLength)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrServiceClosed
	}
	if err := s.session.CheckSubmit(prompt); err != nil {
		s.logger.Debug("送信を無視しました", "reason", err, "status", s.session.Status.String())
		return 0, err
	}

	next, req := s.session.Apply(domain.SubmitEvent{Prompt: prompt})
	s.commit(next)
	if req == nil {
		return 0, domain.ErrEmptyPrompt
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.inflightID = req.GenerationID
	s.inflightCancel = cancel

	requestID := uuid.NewString()
	s.logger.Info("生成を開始します", "generation_id", req.GenerationID, "request_id", requestID, "prompt_chars", len(req.Prompt.Content()))

	s.wg.Add(1)
	go s.run(ctx, cancel, *req, requestID)
	return req.GenerationID, nil
}

// Reset は、SessionをIdleに戻します
// 生成中の場合はリクエストを放棄し、そのコンテキストをキャンセルします
func (s *VibeSessionService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.session.Status.IsBusy() {
		s.logger.Info("生成中のリクエストを放棄します", "generation_id", s.session.GenerationID)
		s.cancelInflight()
	}

	next, _ := s.session.Apply(domain.ResetEvent{})
	s.commit(next)
}

// Close は、実行中の生成をキャンセルし、通知ゴルーチンを停止します
func (s *VibeSessionService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancelInflight()
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	<-s.done
}

// run は、生成クライアントを1回呼び出し、結果をイベントとして適用します
func (s *VibeSessionService) run(ctx context.Context, cancel context.CancelFunc, req domain.GenerationRequest, requestID string) {
	defer s.wg.Done()
	defer cancel()

	logger := s.logger.With("generation_id", req.GenerationID, "request_id", requestID)
	start := time.Now()

	raw, err := s.generator.Generate(ctx, req.Prompt, func() {
		s.apply(logger, domain.ImagePhaseEvent{GenerationID: req.GenerationID})
	})

	var resp domain.VibeResponse
	if err == nil {
		resp, err = domain.Normalize(raw)
	}

	if err != nil {
		kind := classifyFailure(ctx, err).Kind
		logger.Warn("生成に失敗しました", "kind", kind.String(), "error", err, "latency", time.Since(start))
		s.apply(logger, domain.FailedEvent{GenerationID: req.GenerationID, Err: err})
		return
	}

	logger.Info("生成が完了しました", "has_image", resp.HasImage(), "tags", len(resp.Tags), "latency", time.Since(start))
	s.apply(logger, domain.SucceededEvent{GenerationID: req.GenerationID, Response: resp})
}

// apply は、生成ゴルーチンから届いたイベントをSessionに適用します
func (s *VibeSessionService) apply(logger *slog.Logger, event domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	next, _ := s.session.Apply(event)
	if next == s.session {
		logger.Debug("古いリクエストの結果を破棄しました", "current_generation_id", s.session.GenerationID, "status", s.session.Status.String())
		return
	}
	if next.Status.IsTerminal() && s.inflightID == next.GenerationID {
		s.inflightCancel = nil
	}
	s.commit(next)
}

// commit は、新しいSessionを保存し、変更があれば通知キューに追加します
// 呼び出し側はs.muを保持している必要があります
func (s *VibeSessionService) commit(next domain.Session) {
	if next == s.session {
		return
	}
	s.session = next
	s.pending = append(s.pending, next.Snapshot())

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// cancelInflight は、実行中の生成のコンテキストをキャンセルします
// 呼び出し側はs.muを保持している必要があります
func (s *VibeSessionService) cancelInflight() {
	if s.inflightCancel != nil {
		s.inflightCancel()
		s.inflightCancel = nil
	}
}

// dispatch は、通知キューの内容を順番にオブザーバーへ配送します
func (s *VibeSessionService) dispatch() {
	defer close(s.done)

	for {
		select {
		case <-s.wake:
			s.flush()
		case <-s.ctx.Done():
			s.flush()
			return
		}
	}
}

// flush は、保留中の状態をすべてのオブザーバーに通知します
func (s *VibeSessionService) flush() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	observers := make([]func(domain.Session), 0, len(s.observers))
	for id := 0; id < s.nextObserverID; id++ {
		if fn, ok := s.observers[id]; ok {
			observers = append(observers, fn)
		}
	}
	s.mu.Unlock()

	for _, state := range pending {
		for _, fn := range observers {
			fn(state.Snapshot())
		}
	}
}
