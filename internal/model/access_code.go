package model

import "time"

// AccessCode : a code issued by the identity source. A nil ExpiredAt marks the active code.
type AccessCode struct {
	ID        int64      `db:"id" json:"id"`
	Code      string     `db:"code" json:"-"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	ExpiredAt *time.Time `db:"expired_at" json:"expired_at,omitempty"`
}

func (c *AccessCode) IsActive() bool {
	return c.ExpiredAt == nil
}

type AccessCodeStats struct {
	HasActiveCode       bool       `json:"has_active_code"`
	ActiveSince         *time.Time `json:"active_since,omitempty"`
	TotalCodesInHistory int        `json:"total_codes_in_history"`
}

// MapAccess : record of the external identity source
type MapAccess struct {
	ID   string `json:"id"`
	Name string `json:"Name"`
}
