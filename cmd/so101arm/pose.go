package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ankithreddypati/so101arm-mcp/pkg/config"
	"github.com/ankithreddypati/so101arm-mcp/pkg/device"
	"github.com/ankithreddypati/so101arm-mcp/pkg/motion"
	"github.com/ankithreddypati/so101arm-mcp/pkg/pose"
	"github.com/ankithreddypati/so101arm-mcp/pkg/robot"
)

type PoseCommand struct {
	Duration float64 `long:"duration" default:"1.5" description:"Move duration in seconds (goto)"`

	Args struct {
		Verb string `positional-arg-name:"verb" description:"save | list | delete | goto"`
		Name string `positional-arg-name:"name"`
	} `positional-args:"yes"`
}

func (c *PoseCommand) Execute(args []string) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return err
	}

	store := pose.NewStore(cfg.Poses)
	if err := store.Load(); err != nil {
		return err
	}

	switch c.Args.Verb {
	case "list":
		names := store.List()
		if len(names) == 0 {
			fmt.Println("No saved poses.")
			return nil
		}
		for _, name := range names {
			p, err := store.Get(name)
			if err != nil {
				return err
			}
			fmt.Printf("%-20s %v\n", name, formatJoints(p.Joints))
		}
		return nil

	case "delete":
		if c.Args.Name == "" {
			return fmt.Errorf("usage: pose delete <name>")
		}
		if err := store.Delete(c.Args.Name); err != nil {
			return err
		}
		fmt.Printf("Deleted pose %q\n", c.Args.Name)
		return nil

	case "save":
		if c.Args.Name == "" {
			return fmt.Errorf("usage: pose save <name>")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		arm, err := openArm(cfg)
		if err != nil {
			return err
		}
		defer arm.Close()

		joints, err := arm.ReadJoints(context.Background())
		if err != nil {
			return err
		}
		p, err := store.Save(c.Args.Name, joints)
		if err != nil {
			return err
		}
		fmt.Printf("Saved pose %q: %v\n", p.Name, formatJoints(p.Joints))
		return nil

	case "goto":
		if c.Args.Name == "" {
			return fmt.Errorf("usage: pose goto <name>")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		target, err := store.Get(c.Args.Name)
		if err != nil {
			return err
		}

		arm, err := openArm(cfg)
		if err != nil {
			return err
		}
		defer arm.Close()

		ctx := context.Background()
		if err := arm.Enable(ctx); err != nil {
			return fmt.Errorf("enable torque: %w", err)
		}

		ch, err := device.Open(ctx, arm)
		if err != nil {
			return err
		}

		duration := time.Duration(c.Duration * float64(time.Second))
		profile, err := motion.Plan(ch.State().Joints, target.Joints, duration, cfg.SampleHz)
		if err != nil {
			return err
		}
		if err := ch.Execute(ctx, profile); err != nil {
			return err
		}
		fmt.Printf("Moved to pose %q\n", c.Args.Name)
		return nil
	}

	return fmt.Errorf("unknown verb %q (want save, list, delete or goto)", c.Args.Verb)
}

func formatJoints(v robot.JointVector) string {
	out := "["
	for i, name := range robot.AllMotors() {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%.1f", name, v[i])
	}
	return out + "]"
}
