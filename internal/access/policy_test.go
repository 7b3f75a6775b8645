package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name                                              string
		whitelisted, authenticated, sessionReady, crawler bool
		want                                              Tier
	}{
		{"whitelisted case", true, false, false, false, TierFull},
		{"authenticated reader", false, true, false, false, TierFull},
		{"whitelisted beats session", true, false, true, false, TierFull},
		{"session and cookie ready", false, false, true, false, TierQuotaCheck},
		{"session ready beats crawler", false, false, true, true, TierQuotaCheck},
		{"crawler without session", false, false, false, true, TierCrawler},
		{"anonymous first visit", false, false, false, false, TierDeniedNeedsCookie},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.whitelisted, tt.authenticated, tt.sessionReady, tt.crawler)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserAgentDetector(t *testing.T) {
	d := UserAgentDetector{}

	assert.True(t, d.IsCrawler("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"))
	assert.True(t, d.IsCrawler("Mozilla/5.0 (compatible; bingbot/2.0)"))
	assert.False(t, d.IsCrawler("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"))
	assert.False(t, d.IsCrawler(""))
}
