package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/terraincognita07/comoestou/internal/identity"
	"github.com/terraincognita07/comoestou/internal/models"
	"github.com/terraincognita07/comoestou/internal/services"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	takenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

type SummaryCmd struct {
	Email    string `help:"Email of the account to summarize." required:""`
	Language string `help:"Language for labels (pt or en). Defaults to the configured language."`
}

func (cmd *SummaryCmd) Run(ctx *Context) error {
	runtime, err := OpenRuntime(ctx.Config, RuntimeOptions{Offline: true})
	if err != nil {
		return err
	}
	defer runtime.Close()

	return RunSummaryCommand(context.Background(), runtime, cmd.Email, cmd.Language, ctx.stdout())
}

// RunSummaryCommand prints the week of moods and heart rates and the days
// still open for an entry.
func RunSummaryCommand(ctx context.Context, runtime *Runtime, email string, language string, out io.Writer) error {
	user, err := runtime.Provider.FindByEmail(email)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) || errors.Is(err, identity.ErrInvalidEmail) {
			return fmt.Errorf("user %s not found", strings.TrimSpace(email))
		}
		return fmt.Errorf("load user: %w", err)
	}

	language = runtime.I18n.NormalizeLanguage(language)
	messages := runtime.I18n.Messages(language)
	labeler := func(day time.Time) string {
		return runtime.I18n.WeekdayLabel(language, day.Weekday())
	}

	moodPoints, err := runtime.Moods.MoodChart(ctx, user.UID, labeler)
	if err != nil {
		return err
	}
	heartRatePoints, err := runtime.Moods.HeartRateChart(ctx, user.UID, labeler)
	if err != nil {
		return err
	}
	days, err := runtime.Moods.Availability(ctx, user.UID, "", labeler)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("%s <%s>", displayName(user), user.Email)))
	fmt.Fprintln(out)

	fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("Mood, last %d days", services.ChartWindowDays)))
	for _, point := range moodPoints {
		value := mutedStyle.Render("·")
		if point.Recorded {
			level := int(point.Value)
			value = fmt.Sprintf("%d %s %s", level, models.MoodEmoji(level), moodOptionLabel(messages, level))
		}
		fmt.Fprintf(out, "  %-3s %s  %s\n", point.Label, point.Date, value)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("Heart rate, last %d days", services.ChartWindowDays)))
	if !services.HasAnyRecorded(heartRatePoints) {
		fmt.Fprintln(out, "  "+mutedStyle.Render(messages["chart.heart_rate.empty"]))
	} else {
		for _, point := range heartRatePoints {
			value := mutedStyle.Render("·")
			if point.Recorded {
				value = strconv.Itoa(int(point.Value)) + " bpm"
			}
			fmt.Fprintf(out, "  %-3s %s  %s\n", point.Label, point.Date, value)
		}
	}
	fmt.Fprintln(out)

	open := 0
	for _, day := range days {
		if day.Available {
			open++
		}
	}
	fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("Open days, last %d days: %d", len(days), open)))
	for _, day := range days {
		marker := "open"
		if !day.Available {
			marker = takenStyle.Render("filled")
		}
		fmt.Fprintf(out, "  %-3s %s  %s\n", day.Label, day.Date, marker)
	}
	return nil
}

func displayName(user identity.User) string {
	if name := strings.TrimSpace(user.DisplayName); name != "" {
		return name
	}
	return user.Initials()
}

func moodOptionLabel(messages map[string]string, level int) string {
	for _, option := range models.DefaultMoodOptions() {
		if option.Level == level {
			if label, ok := messages[option.Key]; ok {
				return label
			}
			return option.Key
		}
	}
	return ""
}
