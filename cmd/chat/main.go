// Command chat is a terminal client for the chat endpoint. Each input line
// is sent as one message and the reply is printed as it streams in.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xecbot/xecbot-api/internal/chatclient"
)

func main() {
	baseURL := flag.String("url", envOr("XECBOT_URL", "http://localhost:8080"), "API base URL")
	token := flag.String("token", os.Getenv("XECBOT_TOKEN"), "access token (defaults to $XECBOT_TOKEN)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := chatclient.NewClient(*baseURL, *token, nil)
	var transcript chatclient.Transcript

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64<<10), 64<<10)

	fmt.Print("> ")
	for scanner.Scan() {
		printed := 0
		err := client.Send(ctx, &transcript, scanner.Text(), func(line chatclient.Line) {
			switch line.Role {
			case chatclient.RoleAssistant:
				if printed == 0 {
					fmt.Print(string(chatclient.RoleAssistant) + ": ")
				}
				fmt.Print(line.Text[printed:])
				printed = len(line.Text)
			default:
				fmt.Println(line.String())
			}
		})
		if err != nil {
			log.Debug().Err(err).Msg("send failed")
		}
		if ctx.Err() != nil {
			return
		}
		fmt.Print("> ")
	}
	if err := scanner.Err(); err != nil {
		log.Fatal().Err(err).Msg("read stdin")
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
