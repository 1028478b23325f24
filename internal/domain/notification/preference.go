package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/pkg/validator"
)

const (
	DefaultQuietHoursStart      = "22:00"
	DefaultQuietHoursEnd        = "08:00"
	DefaultTimezone             = "UTC"
	DefaultEscalateAfterMinutes = 30

	MinEscalateAfterMinutes = 5
	MaxEscalateAfterMinutes = 1440
)

// NotificationPreferences is the per-user delivery policy. It is loaded once per
// evaluation and treated as an immutable value.
type NotificationPreferences struct {
	UserID string `json:"user_id"`

	EmailEnabled bool `json:"email_enabled"`
	SMSEnabled   bool `json:"sms_enabled"`
	PushEnabled  bool `json:"push_enabled"`
	InAppEnabled bool `json:"in_app_enabled"`
	SlackEnabled bool `json:"slack_enabled"`
	TeamsEnabled bool `json:"teams_enabled"`

	CostAlerts      bool `json:"cost_alerts"`
	UsageAlerts     bool `json:"usage_alerts"`
	SystemAlerts    bool `json:"system_alerts"`
	TeamAlerts      bool `json:"team_alerts"`
	Reports         bool `json:"reports"`
	Recommendations bool `json:"recommendations"`

	// CategoryChannels restricts the channels of a category. A missing entry allows every channel.
	CategoryChannels map[Category][]Channel `json:"category_channels,omitempty"`

	QuietHoursEnabled bool   `json:"quiet_hours_enabled"`
	QuietHoursStart   string `json:"quiet_hours_start"`
	QuietHoursEnd     string `json:"quiet_hours_end"`
	Timezone          string `json:"timezone"`
	WeekendQuiet      bool   `json:"weekend_quiet"`

	BatchEmails    bool           `json:"batch_emails"`
	BatchFrequency BatchFrequency `json:"batch_frequency"`

	PreferredChannel Channel `json:"preferred_channel"`

	AutoEscalate         bool `json:"auto_escalate"`
	EscalateAfterMinutes int  `json:"escalate_after_minutes"`

	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultPreferences returns the baseline every user starts with:
// informational channels on, intrusive channels off.
func DefaultPreferences(userID string) NotificationPreferences {
	return NotificationPreferences{
		UserID:               userID,
		EmailEnabled:         true,
		SMSEnabled:           false,
		PushEnabled:          true,
		InAppEnabled:         true,
		SlackEnabled:         false,
		TeamsEnabled:         false,
		CostAlerts:           true,
		UsageAlerts:          true,
		SystemAlerts:         true,
		TeamAlerts:           true,
		Reports:              true,
		Recommendations:      true,
		QuietHoursEnabled:    false,
		QuietHoursStart:      DefaultQuietHoursStart,
		QuietHoursEnd:        DefaultQuietHoursEnd,
		Timezone:             DefaultTimezone,
		WeekendQuiet:         false,
		BatchEmails:          false,
		BatchFrequency:       BatchImmediate,
		PreferredChannel:     ChannelEmail,
		AutoEscalate:         false,
		EscalateAfterMinutes: DefaultEscalateAfterMinutes,
	}
}

// CategoryEnabled returns the top-level toggle for c
func (p NotificationPreferences) CategoryEnabled(c Category) bool {
	switch c {
	case CategoryCost:
		return p.CostAlerts
	case CategoryUsage:
		return p.UsageAlerts
	case CategorySystem:
		return p.SystemAlerts
	case CategoryTeam:
		return p.TeamAlerts
	case CategoryReports:
		return p.Reports
	case CategoryRecommendations:
		return p.Recommendations
	}
	return p.SystemAlerts
}

// ChannelEnabled returns the global toggle for ch
func (p NotificationPreferences) ChannelEnabled(ch Channel) bool {
	switch ch.Normalize() {
	case ChannelEmail:
		return p.EmailEnabled
	case ChannelSMS:
		return p.SMSEnabled
	case ChannelPush:
		return p.PushEnabled
	case ChannelInApp:
		return p.InAppEnabled
	case ChannelSlack:
		return p.SlackEnabled
	case ChannelTeams:
		return p.TeamsEnabled
	}
	return false
}

// ChannelAllowedFor reports whether ch may carry notifications of category c
func (p NotificationPreferences) ChannelAllowedFor(c Category, ch Channel) bool {
	allowed, ok := p.CategoryChannels[c]
	if !ok {
		return true
	}
	return NewChannelSet(allowed...).Has(ch)
}

// Location resolves the user's timezone, falling back to UTC
func (p NotificationPreferences) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Normalize replaces malformed fields with their defaults so a damaged record
// never blocks evaluation.
func (p NotificationPreferences) Normalize() NotificationPreferences {
	def := DefaultPreferences(p.UserID)

	if _, err := ParseClock(p.QuietHoursStart); err != nil {
		p.QuietHoursStart = def.QuietHoursStart
	}
	if _, err := ParseClock(p.QuietHoursEnd); err != nil {
		p.QuietHoursEnd = def.QuietHoursEnd
	}
	if !validator.IsValidTimezone(p.Timezone) {
		p.Timezone = def.Timezone
	}
	if !p.BatchFrequency.IsValid() {
		p.BatchFrequency = def.BatchFrequency
	}
	if !p.PreferredChannel.IsValid() {
		p.PreferredChannel = def.PreferredChannel
	}
	p.PreferredChannel = p.PreferredChannel.Normalize()
	if p.EscalateAfterMinutes < MinEscalateAfterMinutes || p.EscalateAfterMinutes > MaxEscalateAfterMinutes {
		p.EscalateAfterMinutes = def.EscalateAfterMinutes
	}
	if len(p.CategoryChannels) > 0 {
		cleaned := make(map[Category][]Channel, len(p.CategoryChannels))
		for c, chs := range p.CategoryChannels {
			if !c.IsValid() {
				continue
			}
			valid := make([]Channel, 0, len(chs))
			for _, ch := range chs {
				if ch.IsValid() {
					valid = append(valid, ch.Normalize())
				}
			}
			cleaned[c] = valid
		}
		p.CategoryChannels = cleaned
	}
	return p
}

// AsPatch returns a patch that sets every field of p
func (p NotificationPreferences) AsPatch() PreferencesPatch {
	quietStart, quietEnd, tz := p.QuietHoursStart, p.QuietHoursEnd, p.Timezone
	freq, preferred, minutes := p.BatchFrequency, p.PreferredChannel, p.EscalateAfterMinutes
	patch := PreferencesPatch{
		EmailEnabled:         boolPtr(p.EmailEnabled),
		SMSEnabled:           boolPtr(p.SMSEnabled),
		PushEnabled:          boolPtr(p.PushEnabled),
		InAppEnabled:         boolPtr(p.InAppEnabled),
		SlackEnabled:         boolPtr(p.SlackEnabled),
		TeamsEnabled:         boolPtr(p.TeamsEnabled),
		CostAlerts:           boolPtr(p.CostAlerts),
		UsageAlerts:          boolPtr(p.UsageAlerts),
		SystemAlerts:         boolPtr(p.SystemAlerts),
		TeamAlerts:           boolPtr(p.TeamAlerts),
		Reports:              boolPtr(p.Reports),
		Recommendations:      boolPtr(p.Recommendations),
		QuietHoursEnabled:    boolPtr(p.QuietHoursEnabled),
		QuietHoursStart:      &quietStart,
		QuietHoursEnd:        &quietEnd,
		Timezone:             &tz,
		WeekendQuiet:         boolPtr(p.WeekendQuiet),
		BatchEmails:          boolPtr(p.BatchEmails),
		BatchFrequency:       &freq,
		PreferredChannel:     &preferred,
		AutoEscalate:         boolPtr(p.AutoEscalate),
		EscalateAfterMinutes: &minutes,
	}
	if p.CategoryChannels != nil {
		patch.CategoryChannels = copyCategoryChannels(p.CategoryChannels)
	}
	return patch
}

// PreferencesPatch is a partial update. Nil fields are left untouched.
type PreferencesPatch struct {
	EmailEnabled *bool `json:"email_enabled,omitempty"`
	SMSEnabled   *bool `json:"sms_enabled,omitempty"`
	PushEnabled  *bool `json:"push_enabled,omitempty"`
	InAppEnabled *bool `json:"in_app_enabled,omitempty"`
	SlackEnabled *bool `json:"slack_enabled,omitempty"`
	TeamsEnabled *bool `json:"teams_enabled,omitempty"`

	CostAlerts      *bool `json:"cost_alerts,omitempty"`
	UsageAlerts     *bool `json:"usage_alerts,omitempty"`
	SystemAlerts    *bool `json:"system_alerts,omitempty"`
	TeamAlerts      *bool `json:"team_alerts,omitempty"`
	Reports         *bool `json:"reports,omitempty"`
	Recommendations *bool `json:"recommendations,omitempty"`

	// CategoryChannels replaces the listed categories only
	CategoryChannels map[Category][]Channel `json:"category_channels,omitempty"`

	QuietHoursEnabled *bool   `json:"quiet_hours_enabled,omitempty"`
	QuietHoursStart   *string `json:"quiet_hours_start,omitempty"`
	QuietHoursEnd     *string `json:"quiet_hours_end,omitempty"`
	Timezone          *string `json:"timezone,omitempty"`
	WeekendQuiet      *bool   `json:"weekend_quiet,omitempty"`

	BatchEmails    *bool           `json:"batch_emails,omitempty"`
	BatchFrequency *BatchFrequency `json:"batch_frequency,omitempty"`

	PreferredChannel *Channel `json:"preferred_channel,omitempty"`

	AutoEscalate         *bool `json:"auto_escalate,omitempty"`
	EscalateAfterMinutes *int  `json:"escalate_after_minutes,omitempty"`
}

// Apply returns base with every non-nil field of the patch written over it
func (pp PreferencesPatch) Apply(base NotificationPreferences) NotificationPreferences {
	out := base
	setBool(&out.EmailEnabled, pp.EmailEnabled)
	setBool(&out.SMSEnabled, pp.SMSEnabled)
	setBool(&out.PushEnabled, pp.PushEnabled)
	setBool(&out.InAppEnabled, pp.InAppEnabled)
	setBool(&out.SlackEnabled, pp.SlackEnabled)
	setBool(&out.TeamsEnabled, pp.TeamsEnabled)
	setBool(&out.CostAlerts, pp.CostAlerts)
	setBool(&out.UsageAlerts, pp.UsageAlerts)
	setBool(&out.SystemAlerts, pp.SystemAlerts)
	setBool(&out.TeamAlerts, pp.TeamAlerts)
	setBool(&out.Reports, pp.Reports)
	setBool(&out.Recommendations, pp.Recommendations)
	setBool(&out.QuietHoursEnabled, pp.QuietHoursEnabled)
	setBool(&out.WeekendQuiet, pp.WeekendQuiet)
	setBool(&out.BatchEmails, pp.BatchEmails)
	setBool(&out.AutoEscalate, pp.AutoEscalate)

	if pp.QuietHoursStart != nil {
		out.QuietHoursStart = *pp.QuietHoursStart
	}
	if pp.QuietHoursEnd != nil {
		out.QuietHoursEnd = *pp.QuietHoursEnd
	}
	if pp.Timezone != nil {
		out.Timezone = *pp.Timezone
	}
	if pp.BatchFrequency != nil {
		out.BatchFrequency = *pp.BatchFrequency
	}
	if pp.PreferredChannel != nil {
		out.PreferredChannel = pp.PreferredChannel.Normalize()
	}
	if pp.EscalateAfterMinutes != nil {
		out.EscalateAfterMinutes = *pp.EscalateAfterMinutes
	}

	if len(pp.CategoryChannels) > 0 {
		merged := copyCategoryChannels(base.CategoryChannels)
		if merged == nil {
			merged = make(map[Category][]Channel, len(pp.CategoryChannels))
		}
		for c, chs := range pp.CategoryChannels {
			merged[c] = normalizeChannels(chs)
		}
		out.CategoryChannels = merged
	}
	return out
}

// IsEmpty reports whether the patch changes nothing
func (pp PreferencesPatch) IsEmpty() bool {
	bools := []*bool{
		pp.EmailEnabled, pp.SMSEnabled, pp.PushEnabled, pp.InAppEnabled, pp.SlackEnabled, pp.TeamsEnabled,
		pp.CostAlerts, pp.UsageAlerts, pp.SystemAlerts, pp.TeamAlerts, pp.Reports, pp.Recommendations,
		pp.QuietHoursEnabled, pp.WeekendQuiet, pp.BatchEmails, pp.AutoEscalate,
	}
	for _, b := range bools {
		if b != nil {
			return false
		}
	}
	return pp.QuietHoursStart == nil &&
		pp.QuietHoursEnd == nil &&
		pp.Timezone == nil &&
		pp.BatchFrequency == nil &&
		pp.PreferredChannel == nil &&
		pp.EscalateAfterMinutes == nil &&
		len(pp.CategoryChannels) == 0
}

// Validate checks every field present in the patch
func (pp PreferencesPatch) Validate() error {
	var errs validator.ValidationErrors

	if pp.QuietHoursStart != nil && !validator.IsValidClock(*pp.QuietHoursStart) {
		errs = append(errs, validator.ValidationError{
			Field:   "quiet_hours_start",
			Message: "quiet_hours_start must be in HH:MM 24-hour format",
		})
	}
	if pp.QuietHoursEnd != nil && !validator.IsValidClock(*pp.QuietHoursEnd) {
		errs = append(errs, validator.ValidationError{
			Field:   "quiet_hours_end",
			Message: "quiet_hours_end must be in HH:MM 24-hour format",
		})
	}
	if pp.Timezone != nil && !validator.IsValidTimezone(*pp.Timezone) {
		errs = append(errs, validator.ValidationError{
			Field:   "timezone",
			Message: "timezone must be a valid IANA zone name",
		})
	}
	if pp.BatchFrequency != nil && !pp.BatchFrequency.IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "batch_frequency",
			Message: "batch_frequency must be one of: " + strings.Join(BatchFrequencyValues, ", "),
		})
	}
	if pp.PreferredChannel != nil && !pp.PreferredChannel.IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "preferred_channel",
			Message: "preferred_channel must be one of: EMAIL, SMS, PUSH, IN_APP, SLACK, WEBHOOK",
		})
	}
	if pp.EscalateAfterMinutes != nil &&
		(*pp.EscalateAfterMinutes < MinEscalateAfterMinutes || *pp.EscalateAfterMinutes > MaxEscalateAfterMinutes) {
		errs = append(errs, validator.ValidationError{
			Field:   "escalate_after_minutes",
			Message: fmt.Sprintf("escalate_after_minutes must be between %d and %d", MinEscalateAfterMinutes, MaxEscalateAfterMinutes),
		})
	}
	for c, chs := range pp.CategoryChannels {
		if !c.IsValid() {
			errs = append(errs, validator.ValidationError{
				Field:   "category_channels",
				Message: fmt.Sprintf("unknown category %q", c),
			})
			continue
		}
		for _, ch := range chs {
			if !ch.IsValid() {
				errs = append(errs, validator.ValidationError{
					Field:   "category_channels." + string(c),
					Message: fmt.Sprintf("unknown channel %q", ch),
				})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ParseClock converts an HH:MM string into minutes after midnight
func ParseClock(s string) (int, error) {
	if !validator.IsValidClock(s) {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func normalizeChannels(chs []Channel) []Channel {
	out := make([]Channel, 0, len(chs))
	seen := make(ChannelSet, len(chs))
	for _, ch := range chs {
		ch = ch.Normalize()
		if seen.Has(ch) {
			continue
		}
		seen.Add(ch)
		out = append(out, ch)
	}
	return out
}

func copyCategoryChannels(in map[Category][]Channel) map[Category][]Channel {
	if in == nil {
		return nil
	}
	out := make(map[Category][]Channel, len(in))
	for c, chs := range in {
		out[c] = append([]Channel(nil), chs...)
	}
	return out
}
