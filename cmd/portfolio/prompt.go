package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/ALT-F4-LLC/portfolio/internal/model"
	"github.com/ALT-F4-LLC/portfolio/internal/output"
)

// errCancelled reports that the user backed out of a prompt.
var errCancelled = errors.New("cancelled")

func interactive(w *output.Writer) bool {
	return !w.JSONMode && term.IsTerminal(int(os.Stdin.Fd()))
}

// confirm asks a yes/no question.
func confirm(title, affirmative string) error {
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative(affirmative).
				Negative("Cancel").
				Value(&confirmed),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errCancelled
		}
		return cmdErr(fmt.Errorf("interactive form failed: %w", err), output.ErrGeneral)
	}
	if !confirmed {
		return errCancelled
	}
	return nil
}

// issueForm prompts for the editable fields of an issue.
func issueForm(issue *model.Issue) error {
	title := issue.Title
	content := issue.Content
	priority := issue.Priority.String()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewText().
				Title("Content").
				Value(&content),
			huh.NewSelect[string]().
				Title("Priority").
				Options(
					huh.NewOption("low", model.PriorityLow.String()),
					huh.NewOption("medium", model.PriorityMedium.String()),
					huh.NewOption("high", model.PriorityHigh.String()),
				).
				Value(&priority),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errCancelled
		}
		return cmdErr(fmt.Errorf("interactive form failed: %w", err), output.ErrGeneral)
	}

	p, err := model.ParsePriority(priority)
	if err != nil {
		return cmdErr(err, output.ErrValidation)
	}
	issue.Title = title
	issue.Content = content
	issue.Priority = p
	return nil
}
