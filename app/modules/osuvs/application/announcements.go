package osuvsservice

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	"github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/infrastructure/difficulty"
)

const displayTime = "Mon 02 Jan 2006 15:04 MST"

func mapURL(id osuvsdomain.MapID) string {
	return fmt.Sprintf("https://osu.ppy.sh/b/%d", id)
}

func userURL(id osuvsdomain.ParticipantID) string {
	return fmt.Sprintf("https://osu.ppy.sh/users/%d", id)
}

// announce posts a and reports whether it was delivered. Failures are logged only.
func (s *OsuVSService) announce(ctx context.Context, a osuvsdomain.Announcement) bool {
	err := s.sink.Post(ctx, a)
	s.metrics.RecordAnnouncement(ctx, string(a.Kind), err == nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to post announcement",
			slog.String("kind", string(a.Kind)),
			slog.Uint64("map_id", uint64(a.MapID)),
			slog.Any("error", err),
		)
		return false
	}
	return true
}

func startAnnouncement(comp osuvsdomain.Competition, attrs *difficulty.Attributes) osuvsdomain.Announcement {
	embed := &osuvsdomain.Embed{
		Title:       fmt.Sprintf("osu!vs competition on map %d", comp.MapID),
		Description: "Set your best score before the competition ends. Only your best play counts.",
		URL:         mapURL(comp.MapID),
		Fields: []osuvsdomain.EmbedField{
			{Name: "Start", Value: comp.StartDate.UTC().Format(displayTime), Inline: true},
			{Name: "End", Value: comp.EndDate.UTC().Format(displayTime), Inline: true},
			{Name: "Duration", Value: formatDuration(comp.Duration()), Inline: true},
		},
	}
	if attrs != nil {
		embed.Fields = append(embed.Fields,
			osuvsdomain.EmbedField{Name: "Stars", Value: fmt.Sprintf("%.2f★", attrs.Stars), Inline: true},
			osuvsdomain.EmbedField{Name: "Max pp", Value: fmt.Sprintf("%.0fpp", attrs.MaxPP), Inline: true},
			osuvsdomain.EmbedField{Name: "Max combo", Value: fmt.Sprintf("%dx", attrs.MaxCombo), Inline: true},
		)
	}
	return osuvsdomain.Announcement{
		Kind:  osuvsdomain.AnnouncementStarted,
		MapID: comp.MapID,
		Text:  fmt.Sprintf("A new osu!vs competition has started on %s!", mapURL(comp.MapID)),
		Embed: embed,
	}
}

func endAnnouncement(comp osuvsdomain.Competition, board *Leaderboard) osuvsdomain.Announcement {
	embed := &osuvsdomain.Embed{
		Title:  fmt.Sprintf("osu!vs competition on map %d is ending", comp.MapID),
		URL:    mapURL(comp.MapID),
		Footer: "Ends " + comp.EndDate.UTC().Format(displayTime),
	}
	if board == nil || len(board.Entries) == 0 {
		embed.Description = "Nobody has set a score yet."
	} else {
		embed.Description = fmt.Sprintf("%d participants set a score.", board.Total)
		for _, e := range board.Entries {
			embed.Fields = append(embed.Fields, osuvsdomain.EmbedField{
				Name:  fmt.Sprintf("#%d %s", e.Rank, entryName(e)),
				Value: entryLine(e),
			})
		}
	}
	return osuvsdomain.Announcement{
		Kind:  osuvsdomain.AnnouncementEnding,
		MapID: comp.MapID,
		Text:  fmt.Sprintf("The osu!vs competition on %s is about to end!", mapURL(comp.MapID)),
		Embed: embed,
	}
}

func entryName(e LeaderboardEntry) string {
	if e.Handle != "" {
		return e.Handle
	}
	return userURL(e.Submission.ParticipantID)
}

func entryLine(e LeaderboardEntry) string {
	sub := e.Submission
	parts := []string{
		formatScore(sub.RawScore),
		"+" + sub.Mods.String(),
		fmt.Sprintf("%.2f%%", accuracyPercent(sub)),
		fmt.Sprintf("%dx", sub.MaxCombo),
	}
	if e.Performance != nil && e.MaxPerformance != nil {
		parts = append(parts, fmt.Sprintf("%.2f/%.2fpp", *e.Performance, *e.MaxPerformance))
	}
	return strings.Join(parts, " • ")
}

func accuracyPercent(sub osuvsdomain.Submission) float64 {
	switch {
	case sub.Accuracy > 1:
		return sub.Accuracy
	case sub.Accuracy > 0:
		return sub.Accuracy * 100
	default:
		return sub.Statistics.Accuracy() * 100
	}
}

// formatScore renders n with thousands separators.
func formatScore(n uint64) string {
	s := strconv.FormatUint(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func formatDuration(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	hours := int((d % (24 * time.Hour)) / time.Hour)
	switch {
	case days > 0 && hours > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case days > 0:
		return fmt.Sprintf("%dd", days)
	default:
		return d.Round(time.Minute).String()
	}
}
