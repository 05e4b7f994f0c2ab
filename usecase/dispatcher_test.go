package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/git-756/discord-switchbot-lock/adapters/mockdevice"
	"github.com/git-756/discord-switchbot-lock/domain"
	"github.com/git-756/discord-switchbot-lock/domain/entities"
	"github.com/git-756/discord-switchbot-lock/internal/config"
	"github.com/git-756/discord-switchbot-lock/internal/worker"
)

// recordingSender collects replies per channel
type recordingSender struct {
	mu      sync.Mutex
	replies []string
}

func (s *recordingSender) SendReply(ctx context.Context, channelID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, text)
}

func (s *recordingSender) Replies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.replies))
	copy(out, s.replies)
	return out
}

type fixture struct {
	api        *mockdevice.MemoryDeviceAPI
	runner     *ReplyRunner
	dispatcher *Dispatcher
	sender     *recordingSender
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := zaptest.NewLogger(t)
	pool := worker.NewPool(2, logger)
	t.Cleanup(pool.Close)

	api := mockdevice.NewSeededDeviceAPI("lock-1", "meter-1", logger)
	runner := NewReplyRunner(pool, logger)
	dispatcher := NewDispatcher(DispatcherConfig{
		LockID:        "lock-1",
		SensorID:      "meter-1",
		TriggerOpen:   config.DefaultTriggerOpen,
		TriggerClose:  config.DefaultTriggerClose,
		TriggerStatus: config.DefaultTriggerStatus,
		TriggerSensor: config.DefaultTriggerSensor,
	}, api, runner, logger)

	return &fixture{api: api, runner: runner, dispatcher: dispatcher, sender: &recordingSender{}}
}

func (f *fixture) message(content string) domain.ChatMessage {
	return domain.ChatMessage{
		ChannelID:  "channel-1",
		AuthorID:   "user-1",
		AuthorName: "alice",
		Content:    content,
		Replier:    f.sender,
	}
}

func TestDispatcher_OpenSuccess(t *testing.T) {
	f := newFixture(t)

	if !f.dispatcher.Handle(context.Background(), f.message(config.DefaultTriggerOpen)) {
		t.Fatal("Open trigger should be handled")
	}
	f.runner.Wait()

	replies := f.sender.Replies()
	if len(replies) != 2 {
		t.Fatalf("Expected ack and outcome, got %v", replies)
	}
	if replies[0] != AckText(ActionUnlock) {
		t.Errorf("Expected ack first, got %q", replies[0])
	}
	if replies[1] != LockCommandText(entities.LockActionUnlock) {
		t.Errorf("Expected success outcome, got %q", replies[1])
	}

	calls := f.api.Calls()
	if len(calls) != 1 || calls[0].Op != "SendLockCommand" || calls[0].DeviceID != "lock-1" || calls[0].Action != entities.LockActionUnlock {
		t.Errorf("Expected one unlock call on lock-1, got %+v", calls)
	}
}

func TestDispatcher_OpenFailure(t *testing.T) {
	f := newFixture(t)
	f.api.FailWith(&entities.Failure{Kind: entities.FailureAPI, Reason: "X"})

	f.dispatcher.Handle(context.Background(), f.message(config.DefaultTriggerOpen))
	f.runner.Wait()

	replies := f.sender.Replies()
	if len(replies) != 2 {
		t.Fatalf("Expected ack and outcome, got %v", replies)
	}
	if !strings.Contains(replies[1], "X") || !strings.HasPrefix(replies[1], "❌") {
		t.Errorf("Expected failure outcome containing X, got %q", replies[1])
	}
}

func TestDispatcher_CloseAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.Handle(ctx, f.message(config.DefaultTriggerClose))
	f.runner.Wait()
	f.dispatcher.Handle(ctx, f.message("  "+config.DefaultTriggerStatus+"  "))
	f.runner.Wait()

	replies := f.sender.Replies()
	if len(replies) != 4 {
		t.Fatalf("Expected 4 replies, got %v", replies)
	}
	if replies[1] != LockCommandText(entities.LockActionLock) {
		t.Errorf("Unexpected close outcome %q", replies[1])
	}
	if !strings.Contains(replies[3], "施錠されています") || !strings.Contains(replies[3], "90%") {
		t.Errorf("Unexpected status outcome %q", replies[3])
	}
}

func TestDispatcher_SensorSubstring(t *testing.T) {
	f := newFixture(t)

	f.dispatcher.Handle(context.Background(), f.message("ねえ、"+config.DefaultTriggerSensor+" 教えて"))
	f.runner.Wait()

	replies := f.sender.Replies()
	if len(replies) != 2 {
		t.Fatalf("Expected ack and outcome, got %v", replies)
	}
	if !strings.Contains(replies[1], "22.5 °C") || !strings.Contains(replies[1], "45.0 %") {
		t.Errorf("Unexpected sensor outcome %q", replies[1])
	}
}

func TestDispatcher_ExactTriggersRequireEquality(t *testing.T) {
	f := newFixture(t)

	if f.dispatcher.Handle(context.Background(), f.message("お願い"+config.DefaultTriggerOpen)) {
		t.Error("Lock triggers should not match as substrings")
	}
}

func TestDispatcher_IgnoresSelf(t *testing.T) {
	f := newFixture(t)

	for _, content := range []string{config.DefaultTriggerOpen, config.DefaultTriggerSensor, "anything"} {
		msg := f.message(content)
		msg.FromSelf = true
		if f.dispatcher.Handle(context.Background(), msg) {
			t.Errorf("Self message %q should not be dispatched", content)
		}
	}
	f.runner.Wait()

	if len(f.sender.Replies()) != 0 {
		t.Errorf("Expected no replies, got %v", f.sender.Replies())
	}
	if len(f.api.Calls()) != 0 {
		t.Errorf("Expected no API calls, got %+v", f.api.Calls())
	}
}

func TestDispatcher_NoMatch(t *testing.T) {
	f := newFixture(t)

	if f.dispatcher.Handle(context.Background(), f.message("hello there")) {
		t.Error("Unmatched message should not be handled")
	}
	f.runner.Wait()

	if len(f.sender.Replies()) != 0 {
		t.Errorf("Expected no replies, got %v", f.sender.Replies())
	}
}

func TestDispatcher_AckBeforeCallCompletes(t *testing.T) {
	f := newFixture(t)
	f.api.SetDelay(100 * time.Millisecond)

	start := time.Now()
	f.dispatcher.Handle(context.Background(), f.message(config.DefaultTriggerStatus))
	if elapsed := time.Since(start); elapsed >= 100*time.Millisecond {
		t.Errorf("Handle blocked for %s; the call should run off the caller", elapsed)
	}
	if replies := f.sender.Replies(); len(replies) != 1 {
		t.Errorf("Expected only the ack before the call finished, got %v", replies)
	}

	f.runner.Wait()
	if replies := f.sender.Replies(); len(replies) != 2 {
		t.Errorf("Expected ack and outcome, got %v", replies)
	}
}

func TestDispatcher_PoolClosed(t *testing.T) {
	logger := zap.NewNop()
	pool := worker.NewPool(1, logger)
	pool.Close()

	api := mockdevice.NewSeededDeviceAPI("lock-1", "", logger)
	runner := NewReplyRunner(pool, logger)
	d := NewDispatcher(DispatcherConfig{LockID: "lock-1", TriggerOpen: "open", TriggerClose: "close", TriggerStatus: "status"}, api, runner, logger)

	sender := &recordingSender{}
	d.Handle(context.Background(), domain.ChatMessage{ChannelID: "c", Content: "open", Replier: sender})
	runner.Wait()

	replies := sender.Replies()
	if len(replies) != 2 || !strings.Contains(replies[1], worker.ErrPoolClosed.Error()) {
		t.Errorf("Expected ack and a failure outcome, got %v", replies)
	}
}

func TestNewDispatcher_RegistersConfiguredDevicesOnly(t *testing.T) {
	logger := zap.NewNop()
	pool := worker.NewPool(1, logger)
	defer pool.Close()

	d := NewDispatcher(DispatcherConfig{SensorID: "meter-1", TriggerSensor: "temp"}, mockdevice.NewMemoryDeviceAPI(logger), NewReplyRunner(pool, logger), logger)

	triggers := d.Triggers()
	if len(triggers) != 1 || triggers[0].Action != ActionSensor {
		t.Errorf("Expected only the sensor trigger, got %+v", triggers)
	}
}
