package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/studymap/internal/cli/formatter"
	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

func studymapHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// planFormValues backs the interactive "plan create" form.
type planFormValues struct {
	Topic   string
	Hours   string
	Purpose domain.Purpose
	Offline bool
}

func purposeLabel(p domain.Purpose) string {
	words := strings.Split(string(p), "_")
	for i, w := range words {
		if i == 0 && w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func purposeOptions() []huh.Option[domain.Purpose] {
	opts := make([]huh.Option[domain.Purpose], 0, len(domain.Purposes))
	for _, p := range domain.Purposes {
		opts = append(opts, huh.NewOption(purposeLabel(p), p))
	}
	return opts
}

func createPlanForm(v *planFormValues) *huh.Form {
	if v.Purpose == "" {
		v.Purpose = domain.PurposePersonalInterest
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("What do you want to learn?").
				Placeholder("Linear algebra").
				Value(&v.Topic).
				Validate(validateTopic),
			huh.NewInput().
				Title("Hours available").
				Placeholder("20").
				Value(&v.Hours).
				Validate(validateHours),
			huh.NewSelect[domain.Purpose]().
				Title("Purpose of study").
				Options(purposeOptions()...).
				Value(&v.Purpose),
			huh.NewConfirm().
				Title("Generate locally without the backend?").
				Affirmative("Yes").
				Negative("No").
				Value(&v.Offline),
		),
	).WithTheme(studymapHuhTheme()).WithShowHelp(false)
}

func passwordForm(username, password *string) *huh.Form {
	fields := []huh.Field{}
	if *username == "" {
		fields = append(fields, huh.NewInput().
			Title("Username or email").
			Value(username).
			Validate(validateTopic))
	}
	fields = append(fields, huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(password))
	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(studymapHuhTheme()).WithShowHelp(false)
}

func confirmForm(title string, ok *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(ok),
		),
	).WithTheme(studymapHuhTheme()).WithShowHelp(false)
}

func validateTopic(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("required")
	}
	return nil
}

// validateHours accepts blank (no budget) or a non-negative number.
func validateHours(s string) error {
	_, err := parseHours(s)
	return err
}

func parseHours(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	h, err := strconv.ParseFloat(s, 64)
	if err != nil || h < 0 {
		return 0, fmt.Errorf("hours must be a non-negative number")
	}
	return h, nil
}
