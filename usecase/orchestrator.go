package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/satriahrh/cocoa-fruit/assistant/domain"
	"github.com/satriahrh/cocoa-fruit/assistant/utils/log"
	"go.uber.org/zap"
)

// DefaultForecastDays is how many forecast days a weather turn asks for.
const DefaultForecastDays = 5

var ErrTurnInProgress = errors.New("a turn is already in progress")

// WeatherRecorder remembers successful weather lookups. *HistoryService
// implements it.
type WeatherRecorder interface {
	Record(ctx context.Context, city string, snapshot domain.WeatherSnapshot) (HistoryEntry, error)
}

// Dependencies are the collaborators shared by every conversation of a
// process.
type Dependencies struct {
	Streamer     *Streamer
	Weather      domain.WeatherClient
	History      WeatherRecorder
	ForecastDays int
}

// TurnResult describes what one HandleTurn call did.
type TurnResult struct {
	Intent domain.Intent
	// Text is the assembled assistant output appended to the transcript.
	Text string
	Mode domain.Mode
	// InterviewComplete is set on the turn that finished the interview.
	InterviewComplete bool
	// Err is the collaborator failure behind an apology, if any. The user has
	// already been shown a message for it.
	Err     error
	Stopped bool
}

// Orchestrator drives one conversation. It owns the transcript and the
// interview state; HandleTurn, CancelInterview and Clear must be called from a
// single goroutine.
type Orchestrator struct {
	deps Dependencies
	now  func() time.Time

	busy      sync.Mutex
	mode      domain.Mode
	messages  []domain.Message
	interview *Interview
}

func NewOrchestrator(deps Dependencies) *Orchestrator {
	if deps.ForecastDays <= 0 {
		deps.ForecastDays = DefaultForecastDays
	}
	return &Orchestrator{
		deps: deps,
		now:  time.Now,
		mode: domain.ModeIdle,
	}
}

func (o *Orchestrator) Mode() domain.Mode { return o.mode }

// Messages returns a copy of the full transcript.
func (o *Orchestrator) Messages() []domain.Message {
	out := make([]domain.Message, len(o.messages))
	copy(out, o.messages)
	return out
}

// InterviewProgress reports the interview progress; ok is false when idle.
func (o *Orchestrator) InterviewProgress() (progress float64, ok bool) {
	if o.interview == nil {
		return 0, false
	}
	return o.interview.Progress(), true
}

// HandleTurn processes one user turn, sending output chunks to emit as they
// are produced. Blank turns are ignored.
func (o *Orchestrator) HandleTurn(ctx context.Context, text string, emit Emit) TurnResult {
	if !o.busy.TryLock() {
		return TurnResult{Mode: o.mode, Err: ErrTurnInProgress}
	}
	defer o.busy.Unlock()

	if strings.TrimSpace(text) == "" {
		return TurnResult{Mode: o.mode}
	}
	if emit == nil {
		emit = func(string) bool { return true }
	}

	o.append(domain.UserRole, text)

	var res TurnResult
	if o.mode == domain.ModeInInterview {
		res = o.handleInterview(ctx, text, emit)
	} else {
		res.Intent = Classify(text)
		log.WithCtx(ctx).Info("🧭 Turn classified", zap.String("intent", string(res.Intent)))
		switch res.Intent {
		case domain.IntentWeather:
			res = o.handleWeather(ctx, text, emit)
		case domain.IntentCareer:
			res = o.handleCareer(emit)
		default:
			res = o.handleGeneral(ctx, emit)
		}
	}

	// Keep user and assistant turns alternating even when nothing was produced.
	switch {
	case res.Text != "":
		o.append(domain.AssistantRole, res.Text)
	case res.Stopped:
		o.append(domain.AssistantRole, stoppedReply)
	}
	res.Mode = o.mode
	return res
}

// CancelInterview abandons an active interview and returns the message to show.
func (o *Orchestrator) CancelInterview() string {
	if o.mode != domain.ModeInInterview {
		return noInterviewMessage
	}
	o.toIdle()
	return cancelledMessage
}

// Clear forgets the transcript and any active interview.
func (o *Orchestrator) Clear() string {
	o.messages = nil
	o.toIdle()
	return conversationCleared
}

func (o *Orchestrator) handleInterview(ctx context.Context, text string, emit Emit) TurnResult {
	res := TurnResult{Intent: domain.IntentCareer}

	complete, response := o.interview.ProcessAnswer(text)
	if !complete {
		res.Text = response
		res.Stopped = !emit(response)
		return res
	}

	res.InterviewComplete = true
	intro := response + "\n\n"
	report := o.interview.BuildReportPrompt()
	o.toIdle()

	if !emit(intro) {
		res.Text = intro
		res.Stopped = true
		return res
	}

	log.WithCtx(ctx).Info("📝 Interview complete, generating report")
	out := o.deps.Streamer.Stream(ctx, o.messages, report, emit)
	res.Text = intro + out.Text
	res.Stopped = out.Stopped
	if out.Err != nil {
		res.Err = out.Err
	}
	return res
}

func (o *Orchestrator) handleWeather(ctx context.Context, text string, emit Emit) TurnResult {
	res := TurnResult{Intent: domain.IntentWeather}
	logger := log.WithCtx(ctx)

	city := ExtractCity(text)
	if city == "" {
		res.Text = askCityMessage
		res.Stopped = !emit(res.Text)
		return res
	}

	report, err := o.deps.Weather.Lookup(ctx, city, o.deps.ForecastDays)
	if err != nil {
		logger.Warn("weather lookup failed", zap.String("city", city), zap.Error(err))
		res.Err = err
		res.Text = weatherErrorMessage(city, err)
		res.Stopped = !emit(res.Text)
		return res
	}

	if o.deps.History != nil {
		if _, err := o.deps.History.Record(ctx, city, report.Current); err != nil {
			logger.Error("❌ Failed to record weather history", zap.String("city", city), zap.Error(err))
		}
	}

	out := o.deps.Streamer.Stream(ctx, o.messages, WeatherPrompt(city, report), emit)
	res.Text = out.Text
	res.Stopped = out.Stopped
	if out.Err != nil {
		res.Err = out.Err
	}
	return res
}

func (o *Orchestrator) handleCareer(emit Emit) TurnResult {
	o.interview = NewInterview()
	o.mode = domain.ModeInInterview

	welcome := o.interview.Start()
	return TurnResult{
		Intent:  domain.IntentCareer,
		Text:    welcome,
		Stopped: !emit(welcome),
	}
}

func (o *Orchestrator) handleGeneral(ctx context.Context, emit Emit) TurnResult {
	out := o.deps.Streamer.Stream(ctx, o.messages, "", emit)
	res := TurnResult{Intent: domain.IntentGeneral, Text: out.Text, Stopped: out.Stopped}
	if out.Err != nil {
		res.Err = out.Err
	}
	return res
}

func (o *Orchestrator) toIdle() {
	if o.interview != nil {
		o.interview.Cancel()
	}
	o.interview = nil
	o.mode = domain.ModeIdle
}

func (o *Orchestrator) append(role domain.Role, content string) {
	o.messages = append(o.messages, domain.Message{
		Role:      role,
		Content:   content,
		Timestamp: o.now(),
	})
}
