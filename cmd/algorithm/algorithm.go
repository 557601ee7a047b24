package algorithm

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"qppf/src/executors"
)

// Runner is the headless algorithm command: it runs the scoring loop without
// the HTTP surface, stopping on SIGINT/SIGTERM.
type Runner struct{}

func (r *Runner) Start() error {
	config := executors.GetConfig()
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	logrus.WithField("symbol", config.Symbol).Info("Starting algorithm for symbol")

	if err := executors.StartLoop(ctx); err != nil {
		logrus.WithError(err).Error("Failed to start algorithm loop")
		return err
	}

	return nil
}
