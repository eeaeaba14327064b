package commands

import (
	"fmt"

	"git.home.luguber.info/inful/focusd/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	path := root.ConfigPath()
	if err := config.Init(path, i.Force); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
