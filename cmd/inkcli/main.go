package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"Inkwell/internal/sketch"
)

const usage = `inkcli - terminal client for Inkwell boards

Usage:
  inkcli [flags] watch <room-slug>          follow a board live
  inkcli [flags] replay <room-slug> <file>  send shapes from a file, one JSON shape per line
  inkcli [flags] history <room-id>          print stored shapes

Flags:
`

func main() {
	server := flag.String("server", envOr("INKWELL_URL", "http://localhost:8080"), "server base URL")
	email := flag.String("email", os.Getenv("INKWELL_EMAIL"), "account email")
	password := flag.String("password", os.Getenv("INKWELL_PASSWORD"), "account password")
	token := flag.String("token", os.Getenv("INKWELL_TOKEN"), "bearer token, skips login")
	delay := flag.Duration("delay", 20*time.Millisecond, "pause between replayed shapes")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := sketch.NewAPI(*server)

	var err error
	switch args[0] {
	case "watch":
		if len(args) != 2 {
			flag.Usage()
			os.Exit(2)
		}
		err = watch(ctx, api, *server, mustToken(ctx, api, *token, *email, *password), args[1])
	case "replay":
		if len(args) != 3 {
			flag.Usage()
			os.Exit(2)
		}
		err = replay(ctx, api, *server, mustToken(ctx, api, *token, *email, *password), args[1], args[2], *delay)
	case "history":
		if len(args) != 2 {
			flag.Usage()
			os.Exit(2)
		}
		err = history(ctx, api, args[1])
	default:
		fmt.Println(ErrorColor("❌ Unknown command:"), args[0])
		flag.Usage()
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Println(ErrorColor("❌ " + err.Error()))
		os.Exit(1)
	}
}

func mustToken(ctx context.Context, api *sketch.API, token, email, password string) string {
	if token != "" {
		return token
	}
	if email == "" || password == "" {
		fmt.Println(ErrorColor("❌ Provide -token or both -email and -password"))
		os.Exit(2)
	}
	token, err := api.Login(ctx, email, password)
	if err != nil {
		fmt.Println(ErrorColor("❌ Login failed:"), err)
		os.Exit(1)
	}
	fmt.Println(SuccessColor("✅ Logged in as " + email))
	return token
}

func openBoard(ctx context.Context, api *sketch.API, server, token, slug string, redraw func([]sketch.Entry)) (*sketch.Session, *sketch.Cache, error) {
	roomID, err := api.RoomID(ctx, slug)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve room %q: %w", slug, err)
	}

	stored, err := api.History(ctx, roomID)
	if err != nil {
		return nil, nil, fmt.Errorf("load history: %w", err)
	}

	cache := sketch.NewCache(redraw)
	cache.Load(stored)

	sess, err := sketch.Connect(ctx, server, token, roomID, cache)
	if err != nil {
		return nil, nil, err
	}
	fmt.Println(InfoColor(fmt.Sprintf("🔗 Joined %s (room %d)", slug, roomID)))
	return sess, cache, nil
}

func watch(ctx context.Context, api *sketch.API, server, token, slug string) error {
	sess, _, err := openBoard(ctx, api, server, token, slug, printBoard)
	if err != nil {
		return err
	}
	defer sess.Close()

	fmt.Println(WarningColor("Press Ctrl+C to stop watching"))
	return sess.Run(ctx)
}

func replay(ctx context.Context, api *sketch.API, server, token, slug, path string, delay time.Duration) error {
	shapes, err := readShapes(path)
	if err != nil {
		return err
	}
	if len(shapes) == 0 {
		fmt.Println(WarningColor("Nothing to replay"))
		return nil
	}

	sess, _, err := openBoard(ctx, api, server, token, slug, nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go sess.Run(runCtx)

	bar := newReplayBar(len(shapes), fmt.Sprintf("[cyan]Replaying[reset] %s", slug))
	for _, raw := range shapes {
		if err := sess.DrawRaw(raw); err != nil {
			return fmt.Errorf("send shape: %w", err)
		}
		bar.Add(1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	fmt.Println(SuccessColor(fmt.Sprintf("✅ Sent %d shapes", len(shapes))))
	return nil
}

// readShapes returns the lines of path that parse as shapes, normalized.
func readShapes(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		shape, err := sketch.Parse(text)
		if err != nil {
			fmt.Println(WarningColor(fmt.Sprintf("⚠ line %d skipped: %v", line, err)))
			continue
		}
		raw, err := sketch.Marshal(shape)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, scanner.Err()
}

func history(ctx context.Context, api *sketch.API, arg string) error {
	roomID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid room id %q", arg)
	}

	stored, err := api.History(ctx, roomID)
	if err != nil {
		return err
	}

	cache := sketch.NewCache(nil)
	cache.Load(stored)
	printBoard(cache.Shapes())
	if skipped := len(stored) - len(cache.Shapes()); skipped > 0 {
		fmt.Println(WarningColor(fmt.Sprintf("%d stored payloads are not shapes", skipped)))
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
