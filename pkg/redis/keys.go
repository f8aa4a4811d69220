package redis

import "strings"

const defaultNamespace = "gb"

const (
	statsPrefix   = "review_stats"
	lockPrefix    = "lock"
	counterPrefix = "counter"
	eventPrefix   = "event"
	idemPrefix    = "idem"
)

// Keyspace builds colon-separated keys under a fixed namespace. Blank parts
// are skipped.
type Keyspace string

func (k Keyspace) key(parts ...string) string {
	ns := strings.TrimSpace(string(k))
	if ns == "" {
		ns = defaultNamespace
	}
	var b strings.Builder
	b.WriteString(ns)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}

// StatsKey is the cache key for a profile's review statistics.
func (k Keyspace) StatsKey(targetType, targetID string) string {
	return k.key(statsPrefix, targetType, targetID)
}

// LockKey is the key of a distributed job lock.
func (k Keyspace) LockKey(name string) string { return k.key(lockPrefix, name) }

// CounterKey is the key of a rate-limit or usage counter.
func (k Keyspace) CounterKey(name string) string { return k.key(counterPrefix, name) }

// EventKey is the dedupe key for an inbound webhook event.
func (k Keyspace) EventKey(source, eventID string) string {
	return k.key(eventPrefix, source, eventID)
}

// IdempotencyKey scopes a client-supplied Idempotency-Key header.
func (k Keyspace) IdempotencyKey(scope, key string) string {
	return k.key(idemPrefix, scope, key)
}
