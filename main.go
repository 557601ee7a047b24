package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	logger "github.com/sirupsen/logrus"

	"qppf/src/executors"
	"qppf/src/server"
)

var (
	PORT     = os.Getenv("SERVER_PORT")
	APP_NAME = os.Getenv("APP_NAME")
)

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	SetupLogger()
	defer handlePanic()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	config := executors.GetConfig()
	algo, err := executors.BuildAlgorithm(ctx, config)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build algorithm")
	}

	go func() {
		if loopErr := algo.Start(ctx, config.LoopPeriod, config.RetryPeriod); loopErr != nil {
			logger.WithError(loopErr).Error("algorithm loop exited")
		}
	}()

	port := PORT
	if port == "" {
		port = server.GetConfig().Port
	}
	server.StartServer(port, algo)
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
