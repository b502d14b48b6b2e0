package command

import (
	"github.com/njkim/stocksync/config"
	"github.com/njkim/stocksync/jobs"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Refresh struct{}

func (s Refresh) Command() *cli.Command {
	return &cli.Command{
		Name:    "refresh",
		Aliases: []string{"r"},
		Usage:   "resolve quotes for every tracked ticker and write them back",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file path",
				EnvVars: []string{"STOCKSYNC_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				EnvVars: []string{"STOCKSYNC_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "also write rotated json logs to this file",
				EnvVars: []string{"STOCKSYNC_LOG_FILE"},
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Usage:   "resolve quotes but skip all writes",
				EnvVars: []string{"STOCKSYNC_DRY_RUN"},
			},
		},
		Action: func(c *cli.Context) error {
			logger, err := s.buildLogger(c.String("log-level"), c.String("log-file"))
			if err != nil {
				return err
			}
			defer logger.Sync()

			undo := zap.ReplaceGlobals(logger)
			defer undo()

			conf, err := config.Parse(c.String("config"))
			if err != nil {
				zap.L().Fatal("parse config failed", zap.Error(err))
			}

			refresher := jobs.NewRefresher(conf, c.Bool("dry-run"))

			_, err = refresher.Run(c.Context)
			if err != nil {
				zap.L().Fatal("refresh failed", zap.Error(err))
			}

			return nil
		},
	}
}

// buildLogger build a console logger, teed into a rotated json file when asked
func (s Refresh) buildLogger(level, file string) (*zap.Logger, error) {
	logLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	lc := zap.NewDevelopmentConfig()
	lc.Level = zap.NewAtomicLevelAt(logLevel)

	logger, err := lc.Build()
	if err != nil {
		return nil, err
	}

	if file == "" {
		return logger, nil
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    100,
			MaxBackups: 7,
			MaxAge:     30,
		}),
		logLevel)

	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	})), nil
}
