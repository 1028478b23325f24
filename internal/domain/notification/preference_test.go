package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestDefaultPreferences(t *testing.T) {
	p := DefaultPreferences("user-1")

	assert.True(t, p.EmailEnabled)
	assert.True(t, p.PushEnabled)
	assert.True(t, p.InAppEnabled)
	assert.False(t, p.SMSEnabled)
	assert.False(t, p.SlackEnabled)
	assert.False(t, p.TeamsEnabled)
	for _, c := range AllCategories() {
		assert.True(t, p.CategoryEnabled(c), c)
	}
	assert.False(t, p.QuietHoursEnabled)
	assert.Equal(t, "22:00", p.QuietHoursStart)
	assert.Equal(t, "08:00", p.QuietHoursEnd)
	assert.Equal(t, "UTC", p.Timezone)
	assert.Equal(t, BatchImmediate, p.BatchFrequency)
	assert.Equal(t, ChannelEmail, p.PreferredChannel)
	assert.False(t, p.AutoEscalate)
	assert.Equal(t, 30, p.EscalateAfterMinutes)
}

func TestPatchApply_TouchesOnlyPresentFields(t *testing.T) {
	base := DefaultPreferences("user-1")
	patch := PreferencesPatch{
		SMSEnabled: boolPtr(true),
		Timezone:   strPtr("Europe/Berlin"),
	}

	out := patch.Apply(base)

	assert.True(t, out.SMSEnabled)
	assert.Equal(t, "Europe/Berlin", out.Timezone)
	assert.True(t, out.EmailEnabled)
	assert.Equal(t, base.QuietHoursStart, out.QuietHoursStart)
	assert.Equal(t, base.EscalateAfterMinutes, out.EscalateAfterMinutes)
}

func TestPatchApply_MergesCategoryChannels(t *testing.T) {
	base := DefaultPreferences("user-1")
	base.CategoryChannels = map[Category][]Channel{
		CategoryCost: {ChannelEmail},
	}
	patch := PreferencesPatch{
		CategoryChannels: map[Category][]Channel{
			CategoryTeam: {ChannelWebhook, ChannelTeams, ChannelInApp},
		},
	}

	out := patch.Apply(base)

	assert.Equal(t, []Channel{ChannelEmail}, out.CategoryChannels[CategoryCost])
	assert.Equal(t, []Channel{ChannelTeams, ChannelInApp}, out.CategoryChannels[CategoryTeam])
	assert.Len(t, base.CategoryChannels, 1)
}

func TestPatchIsEmpty(t *testing.T) {
	assert.True(t, PreferencesPatch{}.IsEmpty())
	assert.False(t, PreferencesPatch{WeekendQuiet: boolPtr(false)}.IsEmpty())
	assert.False(t, PreferencesPatch{EscalateAfterMinutes: intPtr(10)}.IsEmpty())
}

func TestPatchValidate(t *testing.T) {
	freq := BatchFrequency("fortnightly")
	ch := Channel("FAX")
	patch := PreferencesPatch{
		QuietHoursStart:      strPtr("24:00"),
		QuietHoursEnd:        strPtr("7:00"),
		Timezone:             strPtr("Mars/Olympus"),
		BatchFrequency:       &freq,
		PreferredChannel:     &ch,
		EscalateAfterMinutes: intPtr(2),
	}

	err := patch.Validate()
	require.Error(t, err)

	fields := err.(interface{ ToMap() map[string]string }).ToMap()
	for _, f := range []string{
		"quiet_hours_start", "quiet_hours_end", "timezone", "batch_frequency", "preferred_channel", "escalate_after_minutes",
	} {
		assert.Contains(t, fields, f)
	}

	ok := PreferencesPatch{
		QuietHoursStart:      strPtr("23:15"),
		Timezone:             strPtr("America/New_York"),
		EscalateAfterMinutes: intPtr(1440),
	}
	assert.NoError(t, ok.Validate())
}

func TestNormalize_RepairsDamagedRecord(t *testing.T) {
	p := NotificationPreferences{
		UserID:               "user-1",
		QuietHoursStart:      "bogus",
		QuietHoursEnd:        "08:30",
		Timezone:             "",
		BatchFrequency:       "",
		PreferredChannel:     "WEBHOOK",
		EscalateAfterMinutes: 99999,
		CategoryChannels: map[Category][]Channel{
			"nope":       {ChannelEmail},
			CategoryCost: {"FAX", ChannelSMS},
		},
	}

	n := p.Normalize()

	assert.Equal(t, DefaultQuietHoursStart, n.QuietHoursStart)
	assert.Equal(t, "08:30", n.QuietHoursEnd)
	assert.Equal(t, DefaultTimezone, n.Timezone)
	assert.Equal(t, BatchImmediate, n.BatchFrequency)
	assert.Equal(t, ChannelTeams, n.PreferredChannel)
	assert.Equal(t, DefaultEscalateAfterMinutes, n.EscalateAfterMinutes)
	assert.Equal(t, map[Category][]Channel{CategoryCost: {ChannelSMS}}, n.CategoryChannels)
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("22:00")
	require.NoError(t, err)
	assert.Equal(t, 1320, m)

	m, err = ParseClock("00:01")
	require.NoError(t, err)
	assert.Equal(t, 1, m)

	_, err = ParseClock("22:60")
	assert.Error(t, err)
}
