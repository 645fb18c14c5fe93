package domain

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Link binds a short code to a target URL and its usage counters
type Link struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	TargetURL     string     `json:"target_url"`
	Clicks        int64      `json:"clicks"`
	LastClickedAt *time.Time `json:"last_clicked_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

const (
	// Alphabet is the set of characters a code may contain.
	Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	MinCodeLength = 6
	MaxCodeLength = 8
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9]{6,8}$`)

// ValidCode reports whether code is an acceptable short code.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// ValidTarget reports whether raw is an absolute URL with a host and no surrounding space.
func ValidTarget(raw string) bool {
	if raw == "" || strings.TrimSpace(raw) != raw {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != ""
}
