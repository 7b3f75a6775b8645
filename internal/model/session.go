package model

import "time"

// QuotaSession is the per-client daily allowance record, keyed by an opaque
// session token. Remaining never goes below zero; LastUpdated is the time of
// the last daily reset, not the last decrement.
type QuotaSession struct {
	Remaining   int       `json:"remaining"`
	LastUpdated time.Time `json:"last_updated"`
}
