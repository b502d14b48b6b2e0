package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/njkim/stocksync/config"
	"github.com/njkim/stocksync/jobs"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	undo := zap.ReplaceGlobals(logger)
	defer undo()

	conf, err := config.Parse("")
	if err != nil {
		zap.L().Fatal("get environment variables failed", zap.Error(err))
	}
	zap.L().Info("get environment variables success")

	handler := NewRefreshHandler(jobs.NewRefresher(conf, false))
	lambda.Start(handler.Handler)
}

// RefreshHandler define the scheduled refresh entry
type RefreshHandler struct {
	refresher *jobs.Refresher
}

// NewRefreshHandler create refresh handler
func NewRefreshHandler(refresher *jobs.Refresher) *RefreshHandler {
	return &RefreshHandler{refresher}
}

// Handler process one scheduled event
func (s RefreshHandler) Handler(ctx context.Context, event events.CloudWatchEvent) error {
	zap.L().Info("scheduled refresh fired",
		zap.String("id", event.ID),
		zap.Time("time", event.Time))

	summary, err := s.refresher.Run(ctx)
	if err != nil {
		zap.L().Error("scheduled refresh failed", zap.Error(err))
		return err
	}

	zap.L().Info("scheduled refresh success",
		zap.Int("ok", summary.OK),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped))

	return nil
}
