package notification

import (
	"time"
)

// NotificationType represents the kind of event a producer reports
type NotificationType string

const (
	// Cost
	TypeCostThresholdWarning  NotificationType = "COST_THRESHOLD_WARNING"
	TypeCostThresholdExceeded NotificationType = "COST_THRESHOLD_EXCEEDED"
	TypeBudgetExceeded        NotificationType = "BUDGET_EXCEEDED"
	TypeCostSpikeDetected     NotificationType = "COST_SPIKE_DETECTED"

	// Usage
	TypeUsageLimitWarning   NotificationType = "USAGE_LIMIT_WARNING"
	TypeUsageLimitExceeded  NotificationType = "USAGE_LIMIT_EXCEEDED"
	TypeRateLimitWarning    NotificationType = "RATE_LIMIT_WARNING"
	TypeUnusualUsagePattern NotificationType = "UNUSUAL_USAGE_PATTERN"

	// System
	TypeAPIKeyExpiring    NotificationType = "API_KEY_EXPIRING"
	TypeAPIKeyInvalid     NotificationType = "API_KEY_INVALID"
	TypeProviderOutage    NotificationType = "PROVIDER_OUTAGE"
	TypeSystemMaintenance NotificationType = "SYSTEM_MAINTENANCE"
	TypeIntegrationError  NotificationType = "INTEGRATION_ERROR"

	// Team
	TypeNewTeamMember     NotificationType = "NEW_TEAM_MEMBER"
	TypeTeamMemberRemoved NotificationType = "TEAM_MEMBER_REMOVED"
	TypeRoleChanged       NotificationType = "ROLE_CHANGED"
	TypeMemberInvited     NotificationType = "MEMBER_INVITED"

	// Reports
	TypeDailySummary  NotificationType = "DAILY_SUMMARY"
	TypeWeeklyReport  NotificationType = "WEEKLY_REPORT"
	TypeMonthlyReport NotificationType = "MONTHLY_REPORT"

	// Recommendations
	TypeOptimizationTip       NotificationType = "OPTIMIZATION_TIP"
	TypeModelRecommendation   NotificationType = "MODEL_RECOMMENDATION"
	TypeCostSavingOpportunity NotificationType = "COST_SAVING_OPPORTUNITY"
)

// AllNotificationTypes returns all available notification types
func AllNotificationTypes() []NotificationType {
	return []NotificationType{
		TypeCostThresholdWarning,
		TypeCostThresholdExceeded,
		TypeBudgetExceeded,
		TypeCostSpikeDetected,
		TypeUsageLimitWarning,
		TypeUsageLimitExceeded,
		TypeRateLimitWarning,
		TypeUnusualUsagePattern,
		TypeAPIKeyExpiring,
		TypeAPIKeyInvalid,
		TypeProviderOutage,
		TypeSystemMaintenance,
		TypeIntegrationError,
		TypeNewTeamMember,
		TypeTeamMemberRemoved,
		TypeRoleChanged,
		TypeMemberInvited,
		TypeDailySummary,
		TypeWeeklyReport,
		TypeMonthlyReport,
		TypeOptimizationTip,
		TypeModelRecommendation,
		TypeCostSavingOpportunity,
	}
}

// Category groups notification types under one top-level toggle
type Category string

const (
	CategoryCost            Category = "cost"
	CategoryUsage           Category = "usage"
	CategorySystem          Category = "system"
	CategoryTeam            Category = "team"
	CategoryReports         Category = "reports"
	CategoryRecommendations Category = "recommendations"
)

// AllCategories returns every category in display order
func AllCategories() []Category {
	return []Category{
		CategoryCost,
		CategoryUsage,
		CategorySystem,
		CategoryTeam,
		CategoryReports,
		CategoryRecommendations,
	}
}

// IsValid reports whether c is a known category
func (c Category) IsValid() bool {
	switch c {
	case CategoryCost, CategoryUsage, CategorySystem, CategoryTeam, CategoryReports, CategoryRecommendations:
		return true
	}
	return false
}

// Lookup returns the category of t. ok is false for types without a mapping;
// callers that cannot fail should use Category instead.
func (t NotificationType) Lookup() (Category, bool) {
	switch t {
	case TypeCostThresholdWarning, TypeCostThresholdExceeded, TypeBudgetExceeded, TypeCostSpikeDetected:
		return CategoryCost, true
	case TypeUsageLimitWarning, TypeUsageLimitExceeded, TypeRateLimitWarning, TypeUnusualUsagePattern:
		return CategoryUsage, true
	case TypeAPIKeyExpiring, TypeAPIKeyInvalid, TypeProviderOutage, TypeSystemMaintenance, TypeIntegrationError:
		return CategorySystem, true
	case TypeNewTeamMember, TypeTeamMemberRemoved, TypeRoleChanged, TypeMemberInvited:
		return CategoryTeam, true
	case TypeDailySummary, TypeWeeklyReport, TypeMonthlyReport:
		return CategoryReports, true
	case TypeOptimizationTip, TypeModelRecommendation, TypeCostSavingOpportunity:
		return CategoryRecommendations, true
	}
	return CategorySystem, false
}

// Category returns the category of t, falling back to system for unknown types
func (t NotificationType) Category() Category {
	c, _ := t.Lookup()
	return c
}

// Priority of a notification candidate
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

var PriorityValues = []string{
	string(PriorityLow),
	string(PriorityMedium),
	string(PriorityHigh),
	string(PriorityCritical),
}

// Escalates reports whether p qualifies for auto-escalation
func (p Priority) Escalates() bool {
	return p == PriorityHigh || p == PriorityCritical
}

// Channel is a delivery mechanism
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
	ChannelPush  Channel = "PUSH"
	ChannelInApp Channel = "IN_APP"
	ChannelSlack Channel = "SLACK"
	ChannelTeams Channel = "TEAMS"

	// ChannelWebhook is accepted as an alias of ChannelTeams.
	ChannelWebhook Channel = "WEBHOOK"
)

// AllChannels returns the deliverable channels in fan-out order
func AllChannels() []Channel {
	return []Channel{ChannelEmail, ChannelSMS, ChannelPush, ChannelInApp, ChannelSlack, ChannelTeams}
}

// Normalize maps aliases onto their canonical channel
func (c Channel) Normalize() Channel {
	if c == ChannelWebhook {
		return ChannelTeams
	}
	return c
}

// IsValid reports whether c (or its alias) is a known channel
func (c Channel) IsValid() bool {
	switch c.Normalize() {
	case ChannelEmail, ChannelSMS, ChannelPush, ChannelInApp, ChannelSlack, ChannelTeams:
		return true
	}
	return false
}

// Intrusive channels are stripped during quiet hours
func (c Channel) Intrusive() bool {
	switch c.Normalize() {
	case ChannelSMS, ChannelPush, ChannelSlack, ChannelTeams:
		return true
	}
	return false
}

// ChannelSet is an unordered set of channels
type ChannelSet map[Channel]struct{}

// NewChannelSet builds a set from channels, normalizing aliases
func NewChannelSet(channels ...Channel) ChannelSet {
	s := make(ChannelSet, len(channels))
	for _, c := range channels {
		s[c.Normalize()] = struct{}{}
	}
	return s
}

func (s ChannelSet) Has(c Channel) bool {
	_, ok := s[c.Normalize()]
	return ok
}

func (s ChannelSet) Add(c Channel) {
	s[c.Normalize()] = struct{}{}
}

func (s ChannelSet) Remove(c Channel) {
	delete(s, c.Normalize())
}

func (s ChannelSet) Len() int {
	return len(s)
}

// Slice returns the members in AllChannels order
func (s ChannelSet) Slice() []Channel {
	out := make([]Channel, 0, len(s))
	for _, c := range AllChannels() {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// BatchFrequency controls email digest cadence
type BatchFrequency string

const (
	BatchImmediate BatchFrequency = "immediate"
	BatchHourly    BatchFrequency = "hourly"
	BatchDaily     BatchFrequency = "daily"
	BatchWeekly    BatchFrequency = "weekly"
)

var BatchFrequencyValues = []string{
	string(BatchImmediate),
	string(BatchHourly),
	string(BatchDaily),
	string(BatchWeekly),
}

func (f BatchFrequency) IsValid() bool {
	switch f {
	case BatchImmediate, BatchHourly, BatchDaily, BatchWeekly:
		return true
	}
	return false
}

// Candidate is an ephemeral notification emitted by an upstream monitor
type Candidate struct {
	UserID    string
	Type      NotificationType
	Priority  Priority
	Title     string
	Message   string
	Data      map[string]interface{}
	CreatedAt time.Time
}

// Notification is the persisted record of a candidate and the decision taken for it
type Notification struct {
	ID               string
	UserID           string
	Type             NotificationType
	Category         Category
	Priority         Priority
	Title            string
	Message          string
	Data             map[string]interface{}
	Channels         []Channel
	SuppressedReason string
	IsRead           bool
	ReadAt           *time.Time
	EscalatedAt      *time.Time
	CreatedAt        time.Time
}

// Recipient holds the addresses adapters deliver to
type Recipient struct {
	UserID          string
	Email           string
	Phone           string
	SlackWebhookURL string
	TeamsWebhookURL string
}

// DeliveryStatus is the outcome of one channel send
type DeliveryStatus string

const (
	DeliverySucceeded DeliveryStatus = "succeeded"
	DeliveryFailed    DeliveryStatus = "failed"
)

// Delivery records one attempt on one channel
type Delivery struct {
	ID             string
	NotificationID string
	Channel        Channel
	Status         DeliveryStatus
	Error          string
	Escalation     bool
	AttemptedAt    time.Time
}

// EscalationStatus tracks an armed escalation timer
type EscalationStatus string

const (
	EscalationArmed    EscalationStatus = "armed"
	EscalationFiring   EscalationStatus = "firing"
	EscalationFired    EscalationStatus = "fired"
	EscalationDisarmed EscalationStatus = "disarmed"
)

// Escalation is a persisted re-notification deadline
type Escalation struct {
	NotificationID string
	UserID         string
	EscalateAt     time.Time
	Status         EscalationStatus
	Attempts       int
	ClaimedAt      *time.Time
	UpdatedAt      time.Time
}

// DigestItem is a batched email waiting for its digest window
type DigestItem struct {
	ID             string
	UserID         string
	NotificationID string
	Category       Category
	Frequency      BatchFrequency
	Title          string
	Message        string
	DueAt          time.Time
	EnqueuedAt     time.Time
}
