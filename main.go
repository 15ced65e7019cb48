package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	httpHelper "github.com/Luzifer/go_helpers/http"
	"github.com/Luzifer/mediacache/pkg/proxy"
	"github.com/Luzifer/mediacache/pkg/storage"
	"github.com/Luzifer/mediacache/pkg/storage/gcs"
	"github.com/Luzifer/mediacache/pkg/storage/local"
	"github.com/Luzifer/mediacache/pkg/tracker"
	"github.com/Luzifer/rconfig/v2"
)

const (
	logFileMaxSizeMB  = 100
	logFileMaxBackups = 5
	shutdownTimeout   = 10 * time.Second
)

var (
	cfg = struct {
		Listen         string `flag:"listen" default:"" description:"IP to listen on (empty for all interfaces)"`
		LogFile        string `flag:"log-file" default:"" description:"Write logs to this rotated file instead of stderr"`
		LogLevel       string `flag:"log-level" default:"info" description:"Log level (debug, info, warn, error, fatal)"`
		MetricsPath    string `flag:"metrics-path" default:"/metrics" description:"Path to expose Prometheus metrics on (empty to disable)"`
		Port           int    `flag:"port" env:"PORT" default:"5173" description:"Port to listen on"`
		ProxyPath      string `flag:"proxy-path" default:"/api/proxy" description:"Path to serve the proxy on"`
		StorageDir     string `flag:"storage-dir" default:"./.cache" description:"Where to store cached files (local path or gs://bucket/prefix)"`
		UserAgent      string `flag:"user-agent" default:"" description:"Override user-agent for upstream requests"`
		VersionAndExit bool   `flag:"version" default:"false" description:"Prints current version and exits"`
	}{}

	version = "dev"
)

func initApp() error {
	rconfig.AutoEnv(true)
	if err := rconfig.ParseAndValidate(&cfg); err != nil {
		return fmt.Errorf("parsing CLI options: %w", err)
	}

	l, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing log-level: %w", err)
	}
	logrus.SetLevel(l)

	if cfg.LogFile != "" {
		logrus.SetOutput(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    logFileMaxSizeMB,
			MaxBackups: logFileMaxBackups,
			LocalTime:  true,
		})
	}

	return nil
}

func main() {
	var err error
	if err = initApp(); err != nil {
		logrus.WithError(err).Fatal("initializing app")
	}

	if cfg.VersionAndExit {
		fmt.Printf("mediacache %s\n", version) //nolint:forbidigo
		os.Exit(0)
	}

	store, err := getStorage(cfg.StorageDir)
	if err != nil {
		logrus.WithError(err).Fatal("creating storage backend")
	}

	r := mux.NewRouter()
	r.Handle(cfg.ProxyPath, proxy.New(
		store,
		tracker.NewMemory(),
		proxy.WithLogger(logrus.StandardLogger()),
		proxy.WithUserAgent(cfg.UserAgent),
	)).Methods(http.MethodGet, http.MethodHead)

	if cfg.MetricsPath != "" {
		r.Handle(cfg.MetricsPath, promhttp.Handler()).Methods(http.MethodGet)
	}

	r.SkipClean(true)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Listen, strconv.Itoa(cfg.Port)),
		Handler:           httpHelper.NewHTTPLogHandler(r),
		ReadHeaderTimeout: time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("shutting down server")
		}
	}()

	logrus.WithFields(logrus.Fields{
		"addr":    server.Addr,
		"storage": cfg.StorageDir,
		"version": version,
	}).Infof("mediacache started, usage: http://localhost:%d%s?url=YOUR_URL", cfg.Port, cfg.ProxyPath)

	if err = server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logrus.WithError(err).Fatal("listening for HTTP traffic")
	}
}

func getStorage(location string) (storage.Storage, error) {
	if strings.HasPrefix(location, "gs://") {
		s, err := gcs.New(location)
		if err != nil {
			return nil, fmt.Errorf("creating GCS storage: %w", err)
		}
		return s, nil
	}

	return local.New(location), nil
}
