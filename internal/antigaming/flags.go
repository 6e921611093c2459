package antigaming

import "fmt"

// Code identifies which check raised a flag.
type Code string

const (
	CodeDwellTime         Code = "DWELL_TIME"
	CodeHoneypot          Code = "HONEYPOT"
	CodeLTVCAC            Code = "LTV_CAC"
	CodeGrowthRate        Code = "GROWTH_RATE"
	CodeChurnRate         Code = "CHURN_RATE"
	CodeMarketSize        Code = "MARKET_SIZE"
	CodeSuspiciousContent Code = "SUSPICIOUS_CONTENT"
	CodeRepeatedValues    Code = "REPEATED_VALUES"
	CodeRateLimit         Code = "RATE_LIMIT"
)

// Flag is one failed check with its user-facing message.
type Flag struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

const (
	msgDwellTime  = "Form completed too quickly. Please take time to provide thoughtful responses."
	msgHoneypot   = "Bot detection triggered."
	msgLTVCAC     = "LTV should be higher than CAC for a sustainable business model."
	msgGrowthRate = "Growth rate seems unrealistic. Please provide accurate data."
	msgChurnRate  = "Churn rate cannot exceed 100%."
	msgMarketSize = "Serviceable market cannot be larger than total addressable market."
	msgRepeated   = "Suspicious pattern of identical responses detected."
)

func rateLimitFlag(limit Limit) Flag {
	return Flag{
		Code:    CodeRateLimit,
		Message: fmt.Sprintf("Maximum %d submissions per %d hours allowed.", limit.Max, int(limit.Window.Hours())),
	}
}

func suspiciousContentFlag(label string) Flag {
	return Flag{
		Code:    CodeSuspiciousContent,
		Message: fmt.Sprintf("Suspicious content detected in '%s'.", label),
	}
}
