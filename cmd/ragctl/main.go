package main

import (
	"os"

	"github.com/joho/godotenv"

	"gopherai-docqa/internal/cli"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	cli.Version = Version
	cli.BuildTime = BuildTime
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
