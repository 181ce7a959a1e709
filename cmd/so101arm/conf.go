package main

import (
	"fmt"
	"os"

	"github.com/ankithreddypati/so101arm-mcp/pkg/config"
)

type ConfCommand struct {
	Force bool `long:"force" description:"Overwrite an existing config file"`
}

func (c *ConfCommand) Execute(args []string) error {
	if _, err := os.Stat(opts.Config); err == nil && !c.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", opts.Config)
	}

	if err := config.Default().Write(opts.Config); err != nil {
		return err
	}
	fmt.Printf("Wrote %s; set port: and id: for your arm\n", opts.Config)
	return nil
}
