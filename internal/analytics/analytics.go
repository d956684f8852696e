package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"positronic/internal/storage"
)

// DailyStats aggregates recorder events for a single day.
type DailyStats struct {
	Date          string        `json:"date"`
	TotalMessages int           `json:"total_messages"`
	UniqueUsers   int           `json:"unique_users"`
	TotalTokens   int           `json:"total_tokens"`
	PerUser       map[int64]int `json:"per_user"`
}

// Summarize folds events falling on targetDate's day into daily stats.
func Summarize(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	stats := &DailyStats{
		Date:    startOfDay.Format("2006-01-02"),
		PerUser: make(map[int64]int),
	}

	for _, ev := range events {
		if ev.Timestamp.Before(startOfDay) || !ev.Timestamp.Before(endOfDay) {
			continue
		}
		if ev.UserMessage == "" {
			continue
		}
		stats.TotalMessages++
		stats.TotalTokens += ev.TotalTokens
		stats.PerUser[ev.UserID]++
	}
	stats.UniqueUsers = len(stats.PerUser)
	return stats
}

// Render formats the stats as a plain-text report suitable for Telegram.
func (s *DailyStats) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Usage report for %s\n", s.Date)
	fmt.Fprintf(&b, "Messages: %d\n", s.TotalMessages)
	fmt.Fprintf(&b, "Unique users: %d\n", s.UniqueUsers)
	if s.TotalTokens > 0 {
		fmt.Fprintf(&b, "Tokens: %d\n", s.TotalTokens)
	}
	if len(s.PerUser) > 0 {
		ids := make([]int64, 0, len(s.PerUser))
		for id := range s.PerUser {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		b.WriteString("Per user:\n")
		for _, id := range ids {
			fmt.Fprintf(&b, "- %d: %d\n", id, s.PerUser[id])
		}
	}
	return b.String()
}
