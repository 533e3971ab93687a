// Command vowelscore assesses English vowel pronunciation by comparing an
// expected phoneme transcription with the phonemes a recogniser heard.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/MrWong99/vowelscore/cmd/vowelscore/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
