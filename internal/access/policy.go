// Package access decides which serialization privilege applies to a request
// for a case.
package access

// Tier is the access tier resolved for one request.
type Tier int

const (
	// TierFull serves the full case body: whitelisted jurisdiction or
	// authenticated reader.
	TierFull Tier = iota
	// TierQuotaCheck means the reader is anonymous but has a quota session
	// and the consent cookie; the quota store decides whether this view is
	// granted.
	TierQuotaCheck
	// TierCrawler serves a recognized crawler the full body without
	// consuming any quota.
	TierCrawler
	// TierDeniedNeedsCookie means the reader must pass the consent-cookie
	// flow before viewing non-whitelisted cases.
	TierDeniedNeedsCookie
)

func (t Tier) String() string {
	switch t {
	case TierFull:
		return "full"
	case TierQuotaCheck:
		return "quota"
	case TierCrawler:
		return "crawler"
	case TierDeniedNeedsCookie:
		return "needs-cookie"
	}
	return "unknown"
}

// Resolve picks the access tier for a request. First match wins:
//
//  1. whitelisted case or authenticated reader: full access
//  2. quota session present and consent cookie set: quota check
//  3. crawler: crawler access
//  4. otherwise: consent-cookie flow
//
// Pure function; consulting the quota store for tier 2 is the caller's job.
func Resolve(caseWhitelisted, authenticated, quotaSessionReady, isCrawler bool) Tier {
	switch {
	case caseWhitelisted || authenticated:
		return TierFull
	case quotaSessionReady:
		return TierQuotaCheck
	case isCrawler:
		return TierCrawler
	default:
		return TierDeniedNeedsCookie
	}
}
