package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Config string `long:"config" default:"so101arm.yml" description:"Config file path"`

	Serve   ServeCommand   `command:"serve" description:"Connect to the arm and serve the tool HTTP API"`
	Monitor MonitorCommand `command:"monitor" description:"Live joint-position view (torque off, move the arm by hand)"`
	Pose    PoseCommand    `command:"pose" description:"Save, list, delete or go to named poses"`
	Conf    ConfCommand    `command:"conf" description:"Write a config file scaffold"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "so101arm - expose an SO-101 robot arm as named poses and gestures over HTTP"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
