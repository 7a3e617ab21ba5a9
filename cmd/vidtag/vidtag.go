package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/vidtag/vidtag/server"
)

func main() {
	parser := argparse.NewParser("vidtag", "Video annotation server")
	configFile := parser.String("c", "config", &argparse.Options{Help: "JSON configuration file", Default: ""})
	port := parser.String("p", "port", &argparse.Options{Help: "Port to listen on, eg :8080", Default: ""})
	storageRoot := parser.String("s", "storage", &argparse.Options{Help: "Directory holding the annotation DB", Default: ""})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg := server.DefaultConfig()
	if *configFile != "" {
		cfg, err = server.LoadConfig(*configFile)
		if err != nil {
			logger.Errorf("%v", err)
			os.Exit(1)
		}
	}
	// Command-line flags override the config file
	if *port != "" {
		cfg.Port = *port
	}
	if *storageRoot != "" {
		cfg.StorageRoot = *storageRoot
	}

	srv, err := server.NewServer(logger, cfg)
	if err != nil {
		logger.Errorf("Failed to start server: %v", err)
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-stop
		logger.Infof("Received signal %v", sig)
		srv.Shutdown()
	}()

	if err := srv.ListenHTTP(cfg.Port); err != nil {
		logger.Errorf("ListenHTTP: %v", err)
		os.Exit(1)
	}
}
