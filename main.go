package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"video-editor-mcp/internal/bootstrap"
)

func main() {
	configPath := flag.String("config", "", "config file path (default ~/.video-editor-mcp/config.yaml)")
	httpAddr := flag.String("http", "", "serve MCP over Streamable HTTP on this address instead of stdio")
	check := flag.Bool("check", false, "run dependency checks, print the report and exit")
	flag.Parse()

	log.SetFlags(0)
	log.SetOutput(os.Stderr)

	if *check {
		if err := runChecks(*configPath); err != nil {
			log.Fatalf("video-editor-mcp: %v", err)
		}
		return
	}

	if err := run(*configPath, *httpAddr); err != nil {
		log.Fatalf("video-editor-mcp: %v", err)
	}
}

// run builds the application and serves until interrupted.
func run(configPath, httpAddr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, bootstrap.Options{
		ConfigPath: configPath,
		HTTPAddr:   httpAddr,
	})
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Run(ctx)
}

// runChecks prints the dependency report to stdout.
func runChecks(configPath string) error {
	report, err := bootstrap.Check(configPath)
	if err != nil {
		return err
	}

	for _, item := range report.Items {
		fmt.Printf("%-4s  %-18s %s\n", strings.ToUpper(string(item.Status)), item.Name, item.Message)
		if item.Hint != "" {
			fmt.Printf("      %s\n", item.Hint)
		}
	}
	if report.HasFailures {
		return fmt.Errorf("dependency checks failed")
	}
	return nil
}
