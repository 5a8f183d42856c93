// Camera Filter Preview: desktop window around the preview presenter

package main

import (
	"flag"
	"os"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"

	"camera-filter-preview/internal/config"
	"camera-filter-preview/internal/gui"
)

const (
	AppName    = "Camera Filter Preview"
	AppID      = "com.example.camera-filter-preview"
	AppVersion = "1.0.0"
)

func main() {
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	// Initialize logger
	logger := initLogger(cfg.Debug)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": cfg.Debug,
		"frame":      cfg.FramePath,
	}).Info("Starting " + AppName)

	myApp := app.NewWithID(AppID)
	myApp.SetIcon(theme.MediaPhotoIcon())
	myApp.Settings().SetTheme(theme.DefaultTheme())

	mainApp, err := gui.NewApplication(myApp, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to start preview")
	}
	mainApp.ShowAndRun()

	logger.Info("Application shutting down gracefully")
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
