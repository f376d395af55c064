package feed

import "time"

const timestampLayout = "Jan 2, 2006 at 3:04 PM"

// FormatTimestamp форматирует время для отображения. Формат не зависит от локали сервера.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(timestampLayout)
}
