package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Unlimited marks a numeric allowance without a cap.
const Unlimited = -1

// Features is the flag bundle granted by a subscription tier, persisted as JSONB.
type Features struct {
	DailySwipeLimit       int  `json:"dailySwipeLimit"`
	SuperLikesPerDay      int  `json:"superLikesPerDay"`
	MonthlyBoosts         int  `json:"monthlyBoosts"`
	CanSeeWhoLikedYou     bool `json:"canSeeWhoLikedYou"`
	CanUndoSwipe          bool `json:"canUndoSwipe"`
	PriorityListing       bool `json:"priorityListing"`
	ProfileAnalytics      bool `json:"profileAnalytics"`
	AdvancedAnalytics     bool `json:"advancedAnalytics"`
	CanMessageBeforeMatch bool `json:"canMessageBeforeMatch"`
	VerifiedBadge         bool `json:"verifiedBadge"`
}

// Value marshals the bundle into JSON for Postgres.
func (f Features) Value() (driver.Value, error) {
	buf, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes JSONB into the bundle.
func (f *Features) Scan(value interface{}) error {
	raw, err := jsonBytes("features", value)
	if err != nil {
		return err
	}
	var decoded Features
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return err
		}
	}
	*f = decoded
	return nil
}

// StringList is a JSON array of strings (review tags, photo URLs).
type StringList []string

// Value marshals the list into JSON, writing an empty array for nil.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	buf, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes a JSON array into the list.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	raw, err := jsonBytes("string list", value)
	if err != nil {
		return err
	}
	result := StringList{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &result); err != nil {
			return err
		}
	}
	*l = result
	return nil
}

func jsonBytes(kind string, value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("%s: unsupported scan type %T", kind, value)
	}
}
