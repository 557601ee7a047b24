package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	cmdalgorithm "qppf/cmd/algorithm"
	"qppf/src/executors"
	"qppf/src/server"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "QPPF CMD"
	app.Usage = "The QPPF command line interface"

	app.Commands = []cli.Command{
		algorithmCMD,
		serverCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	algorithmCMD = cli.Command{
		Name:        "algorithm",
		Usage:       "run Algorithm",
		Action:      algorithmAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the headless scoring and execution loop`,
	}
	serverCMD = cli.Command{
		Name:        "server",
		Usage:       "run Server",
		Action:      serverAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the scoring loop with the HTTP API`,
	}
)

func algorithmAction(_ *cli.Context) error {

	logrus.Info("Starting algorithm CMD")
	logrus.WithField("cmd", "algorithm")

	runner := &cmdalgorithm.Runner{}
	err := runner.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func serverAction(_ *cli.Context) error {

	logrus.Info("Starting server CMD")
	logrus.WithField("cmd", "server")

	config := executors.GetConfig()
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	algo, err := executors.BuildAlgorithm(ctx, config)
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	go func() {
		if loopErr := algo.Start(ctx, config.LoopPeriod, config.RetryPeriod); loopErr != nil {
			logrus.WithError(loopErr).Error("algorithm loop exited")
		}
	}()

	server.StartServer(server.GetConfig().Port, algo)
	return nil
}
