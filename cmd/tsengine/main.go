package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/calculatetimeshare/tsengine"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		if err := serve(); err != nil {
			log.Fatal(err)
		}
	case "hash-password":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: tsengine hash-password <password>")
			os.Exit(1)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[2]), bcrypt.DefaultCost)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(hash))
	case "version":
		fmt.Printf("tsengine %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func serve() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: .env: %v", err)
	}

	app := tsengine.New(tsengine.ConfigFromEnv())
	if err := app.Setup(); err != nil {
		app.Close()
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("tsengine %s listening on %s", version, app.Config.Addr)
		errCh <- app.Serve()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		app.Close()
		return err
	case <-quit:
	}

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Println("server stopped")
	return nil
}

func printUsage() {
	fmt.Println(`tsengine - CalculateTimeshare site API

Usage:
  tsengine [command] [arguments]

Commands:
  serve                  Start the HTTP server (default)
  hash-password <pw>     Print a bcrypt hash for ADMIN_PASSWORD_HASH
  version                Print the tsengine version
  help                   Show this help message

Configuration is read from the environment and an optional .env file.
JWT_SECRET and one of ADMIN_PASSWORD_HASH or ADMIN_PASSWORD are required.`)
}
