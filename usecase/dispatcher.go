package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/git-756/discord-switchbot-lock/domain"
	"github.com/git-756/discord-switchbot-lock/domain/entities"
	"github.com/git-756/discord-switchbot-lock/domain/repositories"
)

// Action is the remote operation a trigger selects
type Action string

const (
	ActionUnlock     Action = "unlock"
	ActionLock       Action = "lock"
	ActionLockStatus Action = "lock_status"
	ActionSensor     Action = "sensor"
)

// MatchMode controls how a trigger phrase is compared with a message
type MatchMode int

const (
	// MatchExact requires the trimmed message to equal the phrase
	MatchExact MatchMode = iota
	// MatchContains requires the phrase to appear anywhere in the message
	MatchContains
)

// Trigger maps a phrase to an action
type Trigger struct {
	Phrase string
	Mode   MatchMode
	Action Action
}

// Matches reports whether content fires this trigger
func (t Trigger) Matches(content string) bool {
	if t.Phrase == "" {
		return false
	}
	switch t.Mode {
	case MatchContains:
		return strings.Contains(content, t.Phrase)
	default:
		return strings.TrimSpace(content) == t.Phrase
	}
}

// DispatcherConfig selects the devices and phrases the dispatcher reacts to.
// Lock triggers are registered only with a LockID, the sensor trigger only
// with a SensorID.
type DispatcherConfig struct {
	LockID   string
	SensorID string

	TriggerOpen   string
	TriggerClose  string
	TriggerStatus string
	TriggerSensor string
}

// Dispatcher turns trigger phrases into device operations
type Dispatcher struct {
	api      repositories.DeviceAPI
	runner   *ReplyRunner
	triggers []Trigger
	lockID   string
	sensorID string
	logger   *zap.Logger
}

// Ensure Dispatcher implements the MessageHandler interface
var _ repositories.MessageHandler = (*Dispatcher)(nil)

// NewDispatcher creates a new trigger dispatcher
func NewDispatcher(cfg DispatcherConfig, api repositories.DeviceAPI, runner *ReplyRunner, logger *zap.Logger) *Dispatcher {
	var triggers []Trigger
	if cfg.LockID != "" {
		triggers = append(triggers,
			Trigger{Phrase: cfg.TriggerOpen, Mode: MatchExact, Action: ActionUnlock},
			Trigger{Phrase: cfg.TriggerClose, Mode: MatchExact, Action: ActionLock},
			Trigger{Phrase: cfg.TriggerStatus, Mode: MatchExact, Action: ActionLockStatus},
		)
	}
	if cfg.SensorID != "" {
		triggers = append(triggers, Trigger{Phrase: cfg.TriggerSensor, Mode: MatchContains, Action: ActionSensor})
	}

	for _, t := range triggers {
		logger.Info("Trigger registered", zap.String("action", string(t.Action)), zap.String("phrase", t.Phrase))
	}

	return &Dispatcher{
		api:      api,
		runner:   runner,
		triggers: triggers,
		lockID:   cfg.LockID,
		sensorID: cfg.SensorID,
		logger:   logger,
	}
}

// Triggers returns the registered triggers in match order
func (d *Dispatcher) Triggers() []Trigger {
	out := make([]Trigger, len(d.triggers))
	copy(out, d.triggers)
	return out
}

// Match returns the first trigger fired by content
func (d *Dispatcher) Match(content string) (Trigger, bool) {
	for _, t := range d.triggers {
		if t.Matches(content) {
			return t, true
		}
	}
	return Trigger{}, false
}

// Handle acknowledges a matching message, runs its operation on the worker
// pool and replies once with the outcome. Messages from the bot itself and
// messages matching no trigger are left alone.
func (d *Dispatcher) Handle(ctx context.Context, msg domain.ChatMessage) bool {
	if msg.FromSelf {
		return false
	}

	trigger, ok := d.Match(msg.Content)
	if !ok {
		return false
	}

	d.logger.Info("Trigger matched",
		zap.String("action", string(trigger.Action)),
		zap.String("channelID", msg.ChannelID),
		zap.String("author", msg.AuthorName))

	msg.Reply(ctx, AckText(trigger.Action))

	action := trigger.Action
	d.runner.Go(ctx, msg,
		func(ctx context.Context) string { return d.execute(ctx, action) },
		func(err error) string { return FailureText(action, err.Error()) },
	)
	return true
}

// execute performs the remote call for action and formats the outcome
func (d *Dispatcher) execute(ctx context.Context, action Action) string {
	var failure *entities.Failure
	var text string

	switch action {
	case ActionUnlock, ActionLock:
		lockAction := entities.LockActionLock
		if action == ActionUnlock {
			lockAction = entities.LockActionUnlock
		}
		result := d.api.SendLockCommand(ctx, d.lockID, lockAction)
		failure, text = result.Failure(), LockCommandText(lockAction)

	case ActionLockStatus:
		result := d.api.GetLockStatus(ctx, d.lockID)
		failure, text = result.Failure(), LockStatusText(result.Value())

	case ActionSensor:
		result := d.api.GetSensorReading(ctx, d.sensorID)
		failure, text = result.Failure(), SensorText(result.Value())
	}

	if failure != nil {
		d.logger.Warn("Device operation failed",
			zap.String("action", string(action)),
			zap.String("kind", string(failure.Kind)),
			zap.String("reason", failure.Reason))
		return FailureText(action, failure.Reason)
	}

	d.logger.Info("Device operation succeeded", zap.String("action", string(action)))
	return text
}
