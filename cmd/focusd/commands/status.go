package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"git.home.luguber.info/inful/focusd/internal/protocol"
)

// StatusCmd implements the 'status' command.
type StatusCmd struct {
	JSON bool `help:"Emit the raw snapshot as JSON"`
}

func (s *StatusCmd) Run(_ *Global, root *CLI) error {
	c, err := root.Client()
	if err != nil {
		return err
	}
	res, err := c.Status(context.Background())
	if err != nil {
		return err
	}

	if s.JSON {
		return json.NewEncoder(os.Stdout).Encode(res.Snapshot)
	}
	printSnapshot(res.Snapshot)
	return nil
}

// WatchCmd implements the 'watch' command: it prints the current
// snapshot and then one line per session change until interrupted.
type WatchCmd struct {
	JSON bool `help:"Emit one JSON snapshot per line"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	c, err := root.Client()
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	err = c.Watch(context.Background(), func(snap protocol.Snapshot) error {
		if w.JSON {
			return encoder.Encode(snap)
		}
		printSnapshot(snap)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "stream closed by daemon")
	return nil
}
