package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/lineage/internal/service"
	"github.com/OFFIS-RIT/lineage/internal/util"
	"github.com/OFFIS-RIT/lineage/pkg/logger"
	"github.com/OFFIS-RIT/lineage/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  util.GetEnvBool("DEBUG", false),
		Output: os.Stderr,
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(service.New).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
