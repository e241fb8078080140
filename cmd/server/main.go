package main

import (
	"github.com/OFFIS-RIT/lineage/internal/server"
	"github.com/OFFIS-RIT/lineage/internal/util"
	"github.com/OFFIS-RIT/lineage/pkg/logger"
	"github.com/OFFIS-RIT/lineage/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
		JSON:  util.GetEnvBool("LOG_JSON", false),
	})
	logger.Init(consoleLogger)

	server.Init()
}
