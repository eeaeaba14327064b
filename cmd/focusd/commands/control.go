package commands

import (
	"context"
	"fmt"
)

// PauseCmd implements the 'pause' command.
type PauseCmd struct{}

func (p *PauseCmd) Run(_ *Global, root *CLI) error {
	c, err := root.Client()
	if err != nil {
		return err
	}
	res, err := c.Pause(context.Background())
	if err != nil {
		return err
	}
	printWarning(res.Warning)
	printSnapshot(res.Snapshot)
	return nil
}

// ResumeCmd implements the 'resume' command.
type ResumeCmd struct{}

func (r *ResumeCmd) Run(_ *Global, root *CLI) error {
	c, err := root.Client()
	if err != nil {
		return err
	}
	res, err := c.Resume(context.Background())
	if err != nil {
		return err
	}
	printWarning(res.Warning)
	printSnapshot(res.Snapshot)
	return nil
}

// StopCmd implements the 'stop' command.
type StopCmd struct{}

func (s *StopCmd) Run(_ *Global, root *CLI) error {
	c, err := root.Client()
	if err != nil {
		return err
	}
	res, err := c.Stop(context.Background())
	if err != nil {
		return err
	}
	printWarning(res.Warning)
	printSnapshot(res.Snapshot)
	return nil
}

// RespondCmd implements the 'respond' command.
type RespondCmd struct {
	Decision string `arg:"" enum:"continue,pause,stop" help:"Answer to the pending check-in"`
}

func (r *RespondCmd) Run(_ *Global, root *CLI) error {
	c, err := root.Client()
	if err != nil {
		return err
	}
	res, err := c.Respond(context.Background(), r.Decision)
	if err != nil {
		return err
	}
	printWarning(res.Warning)
	printSnapshot(res.Snapshot)
	return nil
}

// PingCmd implements the 'ping' command.
type PingCmd struct{}

func (p *PingCmd) Run(_ *Global, root *CLI) error {
	c, err := root.Client()
	if err != nil {
		return err
	}
	if err := c.Ping(context.Background()); err != nil {
		return err
	}
	fmt.Println("focusd is running")
	return nil
}

// StopdCmd implements the 'stop-daemon' command.
type StopdCmd struct{}

func (s *StopdCmd) Run(_ *Global, root *CLI) error {
	c, err := root.Client()
	if err != nil {
		return err
	}
	if err := c.Shutdown(context.Background()); err != nil {
		return err
	}
	fmt.Println("shutdown requested")
	return nil
}
