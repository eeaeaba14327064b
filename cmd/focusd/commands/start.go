package commands

import (
	"context"

	"git.home.luguber.info/inful/focusd/internal/client"
)

// StartCmd implements the 'start' command.
type StartCmd struct {
	Mode     string `arg:"" optional:"" help:"Focus mode: ai-assisted, review, architecture, veille, or a custom name" default:""`
	Duration int    `short:"d" help:"Session length in minutes (0 = configured default)"`
	CheckIn  int    `short:"i" name:"check-in" help:"Check-in interval in minutes (0 = configured default)"`
}

func (s *StartCmd) Run(_ *Global, root *CLI) error {
	c, err := root.Client()
	if err != nil {
		return err
	}

	res, err := c.Start(context.Background(), client.StartOptions{
		Mode:                   s.Mode,
		DurationMinutes:        s.Duration,
		CheckInIntervalMinutes: s.CheckIn,
	})
	if err != nil {
		return err
	}
	printWarning(res.Warning)
	printSnapshot(res.Snapshot)
	return nil
}
