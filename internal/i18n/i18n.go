// Package i18n supplies English and Japanese strings and yen formatting for the
// presentation layer. Domain code never calls into it.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"paysched/internal/core"
)

type Lang string

const (
	EN Lang = "en"
	JA Lang = "ja"
)

// Catalog is every string of one language.
type Catalog struct {
	Lang     Lang
	Statuses StatusLabels
	Methods  MethodLabels
	Types    TypeLabels
	UI       Chrome
}

var (
	supported = []language.Tag{language.English, language.Japanese}
	matcher   = language.NewMatcher(supported)
	catalogs  = map[Lang]*Catalog{EN: &enCatalog, JA: &jaCatalog}
)

// Languages lists the supported languages, default first.
func Languages() []Lang { return []Lang{EN, JA} }

// Match picks a language from an explicit choice (query parameter or cookie)
// and falls back to the Accept-Language header, then English.
func Match(explicit, acceptLanguage string) Lang {
	if l := Lang(explicit); catalogs[l] != nil {
		return l
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return EN
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return EN
	}
	if supported[idx] == language.Japanese {
		return JA
	}
	return EN
}

// For returns the catalog of l, English when l is unknown.
func For(l Lang) *Catalog {
	if c, ok := catalogs[l]; ok {
		return c
	}
	return &enCatalog
}

func (c *Catalog) Status(s core.Status) string        { return c.Statuses.For(s) }
func (c *Catalog) Method(m core.PaymentMethod) string { return c.Methods.For(m) }
func (c *Catalog) Type(t core.PaymentType) string     { return c.Types.For(t) }

// Tag is the BCP 47 tag used for the html lang attribute.
func (c *Catalog) Tag() string { return string(c.Lang) }

// FormatYen renders an amount with ja-JP grouping and no fraction digits.
// Both languages use the same form.
func FormatYen(amount core.Yen) string {
	p := message.NewPrinter(language.Japanese)
	if amount < 0 {
		return p.Sprintf("-¥%v", number.Decimal(-int64(amount)))
	}
	return p.Sprintf("¥%v", number.Decimal(int64(amount)))
}

// FormatDate renders d for display, e.g. "Jan 20, 2024" or "2024年1月20日".
func (c *Catalog) FormatDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	if c.Lang == JA {
		return d.Format("2006年1月2日")
	}
	return d.Format("Jan 2, 2006")
}

// MonthTitle renders the calendar heading, e.g. "January 2024" or "2024年1月".
func (c *Catalog) MonthTitle(year int, month int) string {
	d := core.NewDate(year, 1, 1).AddDate(0, month-1, 0)
	if c.Lang == JA {
		return d.Format("2006年1月")
	}
	return d.Format("January 2006")
}

// Weekdays lists short weekday names starting on Sunday.
func (c *Catalog) Weekdays() []string {
	if c.Lang == JA {
		return []string{"日", "月", "火", "水", "木", "金", "土"}
	}
	return []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
}
