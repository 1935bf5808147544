package main

import (
	"log"

	"github.com/maxkalashnikow/telegramtobitrixsupportbot/core/cmd"
	"github.com/maxkalashnikow/telegramtobitrixsupportbot/internal/bot"
)

func main() {
	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config/config.yaml",
		LoadConfig:        bot.LoadConfig,
		Bootstrap:         bot.Bootstrap,
	})
	if err != nil {
		log.Fatalf("bot exited with error: %v", err)
	}
}
