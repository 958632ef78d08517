package domain

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

var weekdays = [...]string{"星期日", "星期一", "星期二", "星期三", "星期四", "星期五", "星期六"}

// TitleBuilder formats diary entry titles such as "2026年2月19日 星期四 · 杭州".
// The location suffix is left off for system default resolutions.
type TitleBuilder struct {
	dict  *Dictionary
	loc   *time.Location
	clock clockwork.Clock
}

// NewTitleBuilder creates a TitleBuilder that renders dates in tz. A nil
// clock uses real time; a nil tz uses UTC.
func NewTitleBuilder(dict *Dictionary, tz *time.Location, clock clockwork.Clock) *TitleBuilder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if tz == nil {
		tz = time.UTC
	}
	if dict == nil {
		dict = NewDictionary()
	}
	return &TitleBuilder{dict: dict, loc: tz, clock: clock}
}

// Build returns the title for an entry written at the given time.
func (b *TitleBuilder) Build(at time.Time, r ResolutionResult) string {
	at = at.In(b.loc)
	title := fmt.Sprintf("%d年%d月%d日 %s", at.Year(), int(at.Month()), at.Day(), weekdays[at.Weekday()])
	if r.Tier == FromSystemDefault || r.Location == "" {
		return title
	}
	return title + " · " + b.dict.DisplayName(r.Location)
}

// BuildNow returns the title for an entry written now.
func (b *TitleBuilder) BuildNow(r ResolutionResult) string {
	return b.Build(b.clock.Now(), r)
}
