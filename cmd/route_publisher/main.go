// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/rover_nav/internal/app"
	"github.com/relabs-tech/rover_nav/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to configuration file")
	clearQueue := flag.Bool("clear", false, "clear the queued waypoints first")
	start := flag.Bool("start", false, "start navigating after queuing")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("usage: route_publisher [-config file] [-clear] [-start] route.{csv,yaml}")
	}

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunRoutePublisher(flag.Arg(0), *clearQueue, *start); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
