package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/rover_nav/internal/app"
	"github.com/relabs-tech/rover_nav/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to configuration file")
	flag.Parse()

	log.Println("starting simulated rover producer")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunSimProducer(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
