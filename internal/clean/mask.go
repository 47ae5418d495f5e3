package clean

import (
	"regexp"
	"strings"
)

// blacklistPatterns match whole lines to delete outright: copyright
// notices, contact blocks, confidentiality markers, page footers.
var blacklistPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*copyright\s*(\(c\)|©)?\s*\d{4}`),
	regexp.MustCompile(`^\s*©.*$`),
	regexp.MustCompile(`(?i)^\s*(tel|电话|传真|fax)\s*[:：].*$`),
	regexp.MustCompile(`^\s*(本文档|本文件|本資料)?\s*(机密|秘密|内部资料|严禁外传)\s*$`),
}

var (
	mobilePattern = regexp.MustCompile(`1[3-9]\d{9}`)
	idNumberPattern = regexp.MustCompile(`\d{18}`)
)

func maskMobile(s string) string {
	return mobilePattern.ReplaceAllStringFunc(s, func(m string) string {
		return m[:3] + "****" + m[len(m)-4:]
	})
}

func maskIDNumber(s string) string {
	return idNumberPattern.ReplaceAllStringFunc(s, func(m string) string {
		return m[:6] + strings.Repeat("*", 8) + m[len(m)-4:]
	})
}

// MaskCompliance removes blacklisted lines and masks mobile/ID numbers
// (spec.md §4.5 stage 5).
func MaskCompliance(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, l := range lines {
		blocked := false
		for _, pat := range blacklistPatterns {
			if pat.MatchString(l) {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}
		kept = append(kept, l)
	}
	masked := strings.Join(kept, "\n")
	// ID numbers first: an 18-digit ID contains 11-digit runs that the
	// mobile pattern would otherwise match and mask in the wrong format.
	masked = maskIDNumber(masked)
	masked = maskMobile(masked)
	return masked
}
