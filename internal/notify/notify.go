// Package notify posts project status changes (permit and utility
// decisions, progress updates) to chat channels on Slack and Discord.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/zulandar/chargeyard/internal/config"
	"github.com/zulandar/chargeyard/internal/models"
	"go.uber.org/zap"
)

// Sidebar colors by severity.
const (
	ColorSuccess = "#36a64f"
	ColorInfo    = "#2196f3"
	ColorWarning = "#ff9800"
)

// Adapter delivers an event to one chat platform.
type Adapter interface {
	Name() string
	Send(ctx context.Context, ev Event) error
}

// Event is a status change formatted for chat.
type Event struct {
	Title    string
	Body     string
	Severity string // info, success or warning
	Fields   []Field
}

// Field is a key-value pair shown under the event.
type Field struct {
	Name  string
	Value string
	Short bool
}

// Color returns the sidebar color for the event's severity.
func (e Event) Color() string {
	switch e.Severity {
	case "success":
		return ColorSuccess
	case "warning":
		return ColorWarning
	default:
		return ColorInfo
	}
}

// statusSeverity maps a permit, utility or progress status to a severity.
func statusSeverity(status string) string {
	switch status {
	case models.PermitApproved, models.ProgressCompleted:
		return "success"
	case models.PermitCorrectionsRequired, models.UtilityDenied, models.ProgressOnHold:
		return "warning"
	default:
		return "info"
	}
}

// PermitEvent formats a permit status for the named project.
func PermitEvent(projectName string, p models.Permit) Event {
	ev := Event{
		Title:    fmt.Sprintf("%s permit %s", p.PermitType, p.Status),
		Body:     projectName,
		Severity: statusSeverity(p.Status),
	}
	if p.PermitNumber != "" {
		ev.Fields = append(ev.Fields, Field{Name: "Permit #", Value: p.PermitNumber, Short: true})
	}
	if p.SubmittedDate != "" {
		ev.Fields = append(ev.Fields, Field{Name: "Submitted", Value: p.SubmittedDate, Short: true})
	}
	if p.ApprovedDate != "" {
		ev.Fields = append(ev.Fields, Field{Name: "Approved", Value: p.ApprovedDate, Short: true})
	}
	return ev
}

// UtilityEvent formats a utility application status for the named project.
func UtilityEvent(projectName string, u models.Utility) Event {
	ev := Event{
		Title:    fmt.Sprintf("%s application %s", u.UtilityName, u.ApplicationStatus),
		Body:     projectName,
		Severity: statusSeverity(u.ApplicationStatus),
	}
	if u.DesignReviewStatus != "" {
		ev.Fields = append(ev.Fields, Field{Name: "Design review", Value: u.DesignReviewStatus, Short: true})
	}
	if u.MeterSetDate != "" {
		ev.Fields = append(ev.Fields, Field{Name: "Meter set", Value: u.MeterSetDate, Short: true})
	}
	if u.ServiceActivationDate != "" {
		ev.Fields = append(ev.Fields, Field{Name: "Service active", Value: u.ServiceActivationDate, Short: true})
	}
	return ev
}

// ProgressEvent formats a project's progress.
func ProgressEvent(p models.Project) Event {
	ev := Event{
		Title:    fmt.Sprintf("%s is %s", p.Name, p.ProgressStatus),
		Severity: statusSeverity(p.ProgressStatus),
		Fields: []Field{
			{Name: "Progress", Value: strconv.Itoa(p.ProgressPercent) + "%", Short: true},
		},
	}
	if p.Client != "" {
		ev.Body = "Client: " + p.Client
	}
	return ev
}

// Dispatcher fans events out to every configured adapter. A nil or empty
// Dispatcher drops events.
type Dispatcher struct {
	adapters []Adapter
	log      *zap.Logger
}

// NewDispatcher returns a Dispatcher over adapters.
func NewDispatcher(log *zap.Logger, adapters ...Adapter) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{adapters: adapters, log: log}
}

// FromConfig builds the adapters named in cfg. No tokens means no adapters.
func FromConfig(cfg config.NotifyConfig, log *zap.Logger) (*Dispatcher, error) {
	var adapters []Adapter
	if cfg.SlackToken != "" {
		s, err := NewSlack(SlackOpts{BotToken: cfg.SlackToken, ChannelID: cfg.SlackChannel})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, s)
	}
	if cfg.DiscordToken != "" {
		d, err := NewDiscord(DiscordOpts{BotToken: cfg.DiscordToken, ChannelID: cfg.DiscordChannel})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, d)
	}
	return NewDispatcher(log, adapters...), nil
}

// Enabled reports whether any adapter is configured.
func (d *Dispatcher) Enabled() bool {
	return d != nil && len(d.adapters) > 0
}

// Announce sends ev to every adapter. Delivery is attempted once per
// adapter; the returned error joins every failure.
func (d *Dispatcher) Announce(ctx context.Context, ev Event) error {
	if !d.Enabled() {
		return nil
	}
	var errs []error
	for _, a := range d.adapters {
		if err := a.Send(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("notify: %s: %w", a.Name(), err))
			continue
		}
		d.log.Debug("notification sent", zap.String("adapter", a.Name()), zap.String("title", ev.Title))
	}
	return errors.Join(errs...)
}
