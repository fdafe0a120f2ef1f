// Package main is an interactive command-line client for the portal API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/tmsiti/backend/internal/client"
)

var (
	version   string
	buildDate string
)

// historyFile returns the path of the command history, next to the user's
// other config files.
func historyFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "tmsiti", "client_history")
}

// main parses command-line flags and starts the shell.
func main() {
	var (
		baseURL string
		caFile  string
		lang    string
		showVer bool
	)

	flag.StringVar(&baseURL, "url", "http://localhost:8000", "server base URL")
	flag.StringVar(&caFile, "ca", "", "path to CA cert for HTTPS servers with a private CA")
	flag.StringVar(&lang, "lang", "", "response language (uz, ru, en)")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("TMSITI Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	hc, err := client.NewHTTPClient(caFile)
	if err != nil {
		log.Fatal(err)
	}
	c := client.New(baseURL, hc)
	c.Lang = lang

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shell := &client.Shell{Client: c, Out: os.Stdout}

	// Piped input gets no line editing or history.
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		shell.Input = client.NewScanReader(os.Stdin, os.Stdout)
		shell.Run(ctx)
		return
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	path := historyFile()
	if f, err := os.Open(path); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return
		}
		defer f.Close()
		_, _ = line.WriteHistory(f)
	}()

	shell.Input = line
	shell.OnLine = line.AppendHistory
	shell.Run(ctx)
}
