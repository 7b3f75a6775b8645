package access

import "strings"

// CrawlerDetector reports whether a request comes from a search-engine
// crawler. Crawlers get the restricted-safe full serialization without
// consuming quota, and are exempt from the consent-cookie flow.
type CrawlerDetector interface {
	IsCrawler(userAgent string) bool
}

// UserAgentDetector is a CrawlerDetector matching known crawler user-agent
// substrings. Reverse-DNS verification of crawler IPs is a deployment
// concern handled upstream.
type UserAgentDetector struct{}

var crawlerTokens = []string{
	"googlebot",
	"bingbot",
	"duckduckbot",
	"yandexbot",
	"baiduspider",
}

func (UserAgentDetector) IsCrawler(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, token := range crawlerTokens {
		if strings.Contains(ua, token) {
			return true
		}
	}
	return false
}
