package feeds

import (
	"strconv"
	"time"
)

const (
	DefaultNewsFormat   = "rss2"
	DefaultSocialFormat = "rss"
	DefaultSocialCount  = 8
	DefaultCalendarDays = 14
)

// NewsFormat допускает rss, rss2 и atom; всё остальное заменяется на rss2.
func NewsFormat(format string) string {
	switch format {
	case "rss", "rss2", "atom":
		return format
	}
	return DefaultNewsFormat
}

// BlogFormat допускает rss и atom. rss2 означает rss, остальное — atom.
func BlogFormat(format string) string {
	switch format {
	case "rss", "atom":
		return format
	case "rss2":
		return "rss"
	}
	return "atom"
}

// SocialFormat допускает rss и xml; всё остальное заменяется на rss.
func SocialFormat(format string) string {
	if format == "rss" || format == "xml" {
		return format
	}
	return DefaultSocialFormat
}

// SocialCount заменяет 0 на значение по умолчанию. Границы не проверяются.
func SocialCount(n int) int {
	if n == 0 {
		return DefaultSocialCount
	}
	return n
}

// CalendarDays заменяет 0 на 14 дней. Границы не проверяются.
func CalendarDays(n int) int {
	if n == 0 {
		return DefaultCalendarDays
	}
	return n
}

// CacheBuster склеивает часы, минуты и секунды без разделителей и дополнения нулями.
// Значение меняется раз в секунду и не уникально в пределах суток.
func CacheBuster(t time.Time) string {
	return strconv.Itoa(t.Hour()) + strconv.Itoa(t.Minute()) + strconv.Itoa(t.Second())
}
