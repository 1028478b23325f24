package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEveryTypeHasACategory(t *testing.T) {
	for _, nt := range AllNotificationTypes() {
		c, ok := nt.Lookup()
		assert.True(t, ok, "%s has no category mapping", nt)
		assert.True(t, c.IsValid(), nt)
	}
}

func TestCategoryMapping(t *testing.T) {
	assert.Equal(t, CategoryCost, TypeBudgetExceeded.Category())
	assert.Equal(t, CategoryUsage, TypeRateLimitWarning.Category())
	assert.Equal(t, CategorySystem, TypeProviderOutage.Category())
	assert.Equal(t, CategoryTeam, TypeMemberInvited.Category())
	assert.Equal(t, CategoryReports, TypeWeeklyReport.Category())
	assert.Equal(t, CategoryRecommendations, TypeModelRecommendation.Category())

	c, ok := NotificationType("NOT_A_TYPE").Lookup()
	assert.False(t, ok)
	assert.Equal(t, CategorySystem, c)
}

func TestChannelAlias(t *testing.T) {
	assert.Equal(t, ChannelTeams, ChannelWebhook.Normalize())
	assert.True(t, ChannelWebhook.IsValid())
	assert.False(t, Channel("FAX").IsValid())

	s := NewChannelSet(ChannelWebhook, ChannelEmail)
	assert.True(t, s.Has(ChannelTeams))
	assert.Equal(t, []Channel{ChannelEmail, ChannelTeams}, s.Slice())
}

func TestIntrusiveChannels(t *testing.T) {
	assert.True(t, ChannelSMS.Intrusive())
	assert.True(t, ChannelPush.Intrusive())
	assert.True(t, ChannelSlack.Intrusive())
	assert.True(t, ChannelTeams.Intrusive())
	assert.False(t, ChannelEmail.Intrusive())
	assert.False(t, ChannelInApp.Intrusive())
}
