// Command xserver starts the crossword match server.
//
// It loads every puzzle file from a directory given on the command line,
// then listens for line-oriented TCP connections implementing the §6
// protocol: ADD_USER, GET_PUZZLES, GET_MATCHES, NEW_MATCH, PLAY_MATCH, TRY,
// CHALLENGE, EXIT_MATCH, QUIT.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/crosswd/xserver/config"
	"github.com/crosswd/xserver/lobby"
	"github.com/crosswd/xserver/server"
)

// Version is reported by --version.
const Version = "1.0.0"

func main() {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: error loading .env file: %v", err)
		}
	}

	cmd := &cli.Command{
		Name:  "xserver",
		Usage: "run the crossword match server",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "puzzle-dir"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   config.DefaultPort,
				Sources: cli.EnvVars("PORT"),
				Usage:   "TCP port to listen on",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "version",
				Usage: "print version and exit",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("version") {
		fmt.Printf("xserver v%s\n", Version)
		return nil
	}

	if cmd.Bool("debug") {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	puzzleDir := cmd.StringArg("puzzle-dir")
	if puzzleDir == "" {
		puzzleDir = os.Getenv("PUZZLE_DIR")
	}
	if puzzleDir == "" {
		return fmt.Errorf("xserver: a puzzle directory argument is required")
	}

	puzzles, err := config.LoadPuzzles(puzzleDir)
	if err != nil {
		return err
	}
	log.Printf("loaded %d puzzle(s) from %s", len(puzzles), puzzleDir)

	l := lobby.New(puzzles)
	addr := fmt.Sprintf(":%d", cmd.Int("port"))
	srv := server.New(addr, l)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
		log.Println("shutting down")
		srv.Shutdown()
		return <-errCh
	}
}
