// profilectl fetches a public profile through the same retrieval state
// machine the profile page uses, printing each state transition. Useful as a
// smoke test against a running server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/linkplate/backend/internal/profileclient"
)

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base URL")
	timeout := flag.Duration("timeout", profileclient.DefaultAttemptTimeout, "per-attempt timeout")
	flag.Parse()

	username := flag.Arg(0)
	if username == "" {
		fmt.Fprintln(os.Stderr, "usage: profilectl [flags] <username>")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	terminal := make(chan profileclient.Snapshot, 1)
	loader := profileclient.New(*baseURL, username, func(s profileclient.Snapshot) {
		log.Printf("state=%s attempt=%d", s.State, s.Attempt)
		if s.State != profileclient.StateLoading {
			terminal <- s
		}
	}, &profileclient.Options{AttemptTimeout: *timeout})

	loader.Start(ctx)
	defer loader.Stop()

	select {
	case <-ctx.Done():
		log.Printf("interrupted")
		os.Exit(1)
	case s := <-terminal:
		if s.State == profileclient.StateFailed {
			log.Printf("failed: %v", s.Err)
			os.Exit(1)
		}
		out, err := json.MarshalIndent(s.Profile, "", "  ")
		if err != nil {
			log.Fatalf("encode: %v", err)
		}
		fmt.Println(string(out))
	case <-time.After(10 * time.Minute):
		log.Printf("gave up waiting")
		os.Exit(1)
	}
}
