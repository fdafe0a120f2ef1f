package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LineReader reads one line of input after printing a prompt.
// *liner.State satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	PasswordPrompt(prompt string) (string, error)
}

// ScanReader is a LineReader over a plain stream, used when stdin is not
// a terminal. Passwords are read as ordinary lines.
type ScanReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewScanReader returns a ScanReader reading from in and echoing prompts to out.
func NewScanReader(in io.Reader, out io.Writer) *ScanReader {
	return &ScanReader{scanner: bufio.NewScanner(in), out: out}
}

func (r *ScanReader) Prompt(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *ScanReader) PasswordPrompt(prompt string) (string, error) {
	return r.Prompt(prompt)
}

// Shell is the interactive command loop of cmd/client.
type Shell struct {
	Client *Client
	Input  LineReader
	Out    io.Writer
	Prompt string
	// OnLine is called with every non-empty command line, e.g. to keep history.
	OnLine func(string)
}

// Run reads commands until "exit", end of input or an aborted prompt.
func (s *Shell) Run(ctx context.Context) {
	prompt := s.Prompt
	if prompt == "" {
		prompt = "tmsiti> "
	}

	for {
		line, err := s.Input.Prompt(prompt)
		if err != nil {
			fmt.Fprintln(s.Out)
			return
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if s.OnLine != nil {
			s.OnLine(line)
		}
		switch args[0] {
		case "help":
			fmt.Fprintln(s.Out, "Available commands: help, login <username>, me, menu, documents [type], download <id>, lang <code>, logout, exit")
		case "login":
			if len(args) < 2 {
				fmt.Fprintln(s.Out, "Usage: login <username>")
				continue
			}
			password, err := s.Input.PasswordPrompt("Password: ")
			if err != nil {
				fmt.Fprintln(s.Out)
				return
			}
			ttl, err := s.Client.Login(ctx, args[1], password)
			if err != nil {
				s.fail(err)
				continue
			}
			fmt.Fprintf(s.Out, "Logged in as %s, token valid for %s\n", args[1], ttl)
		case "me":
			u, err := s.Client.Me(ctx)
			if err != nil {
				s.fail(err)
				continue
			}
			fmt.Fprintf(s.Out, "%s <%s> role=%s permissions=%s\n",
				u.Username, u.Email, u.Role, strings.Join(u.Permissions, ","))
		case "menu":
			items, err := s.Client.Menu(ctx)
			if err != nil {
				s.fail(err)
				continue
			}
			s.printMenu(items, 0)
		case "documents":
			var docType string
			if len(args) > 1 {
				docType = args[1]
			}
			docs, err := s.Client.Documents(ctx, docType)
			if err != nil {
				s.fail(err)
				continue
			}
			if len(docs) == 0 {
				fmt.Fprintln(s.Out, "No documents")
			}
			for _, d := range docs {
				fmt.Fprintf(s.Out, "%d\t[%s]\t%s\t(%d downloads)\n", d.ID, d.DocumentType, d.Label, d.DownloadCount)
			}
		case "download":
			if len(args) < 2 {
				fmt.Fprintln(s.Out, "Usage: download <id>")
				continue
			}
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				fmt.Fprintln(s.Out, "Usage: download <id>")
				continue
			}
			dl, err := s.Client.Download(ctx, id)
			if err != nil {
				s.fail(err)
				continue
			}
			path := "no file attached"
			if dl.FilePath != nil {
				path = *dl.FilePath
			}
			fmt.Fprintf(s.Out, "%s (download #%d)\n", path, dl.DownloadCount)
		case "lang":
			if len(args) < 2 {
				fmt.Fprintln(s.Out, "Usage: lang <uz|ru|en>")
				continue
			}
			s.Client.Lang = args[1]
		case "logout":
			if err := s.Client.Logout(ctx); err != nil {
				s.fail(err)
				continue
			}
			fmt.Fprintln(s.Out, "Logged out")
		case "exit":
			fmt.Fprintln(s.Out, "Bye")
			return
		default:
			fmt.Fprintln(s.Out, "Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func (s *Shell) fail(err error) {
	fmt.Fprintln(s.Out, "Error:", err)
}

func (s *Shell) printMenu(items []*MenuEntry, depth int) {
	for _, it := range items {
		fmt.Fprintf(s.Out, "%s%s\t%s\n", strings.Repeat("  ", depth), it.Label, it.URL)
		s.printMenu(it.Children, depth+1)
	}
}
