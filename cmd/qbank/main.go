// Command qbank submits question files to a running API and fetches random
// questions from it.
//
//	qbank [-api URL] [-token JWT] submit <kind> <file.json>...
//	qbank [-api URL] random <kind> [exclude-id...]
//
// A file holds one question object or an array of them.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/client"
	"github.com/stemsi/qbank-backend/internal/logger"
	"github.com/stemsi/qbank-backend/internal/model"
)

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", envOr("QBANK_API_URL", "http://localhost:8080"), "API base URL")
	token := flag.String("token", os.Getenv("QBANK_TOKEN"), "Bearer token sent with every request")
	timeout := flag.Duration("timeout", client.DefaultTimeout, "Per-request timeout")
	flag.Usage = usage
	flag.Parse()

	log := logger.Setup(envOr("LOG_LEVEL", "info"), "pretty")

	args := flag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}
	kind, ok := model.ParseKind(args[1])
	if !ok {
		log.Fatal().Str("kind", args[1]).Interface("known", model.Kinds()).Msg("Unknown question kind")
	}

	c := client.New(*apiURL, client.WithToken(*token), client.WithTimeout(*timeout))
	ctx := context.Background()

	switch args[0] {
	case "submit":
		if len(args) < 3 {
			usage()
			os.Exit(2)
		}
		if failed := submit(ctx, c, kind, args[2:], log); failed > 0 {
			log.Error().Int("failed", failed).Msg("Some questions were rejected")
			os.Exit(1)
		}
	case "random":
		res := c.Get(ctx, randomPath(kind, args[2:]))
		if !res.OK() {
			log.Fatal().Int("status", res.Status).Str("error", res.Error).Msg("Random question request failed")
		}
		var out bytes.Buffer
		if err := json.Indent(&out, res.Data, "", "  "); err != nil {
			out.Reset()
			out.Write(res.Data)
		}
		fmt.Println(out.String())
	default:
		usage()
		os.Exit(2)
	}
}

// submit posts every question found in files and returns how many failed.
func submit(ctx context.Context, c *client.Client, kind model.QuestionKind, files []string, log zerolog.Logger) int {
	path := "/api/questions/category/" + url.PathEscape(string(kind))
	failed := 0

	for _, file := range files {
		questions, err := readQuestions(file)
		if err != nil {
			log.Error().Err(err).Str("file", file).Msg("Skipping file")
			failed++
			continue
		}

		for i, q := range questions {
			res := c.Fetch(ctx, path, q)
			entry := log.With().Str("file", file).Int("index", i).Int("status", res.Status).Logger()
			if !res.OK() {
				entry.Error().Str("error", res.Error).Msg("Question rejected")
				failed++
				continue
			}
			entry.Info().Str("id", createdID(res.Data)).Msg("Question created")
		}
	}
	return failed
}

// readQuestions loads a file holding either one JSON object or an array.
func readQuestions(file string) ([]json.RawMessage, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("file is empty")
	}

	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
		return list, nil
	}
	if !json.Valid(raw) {
		return nil, errors.New("file is not valid JSON")
	}
	return []json.RawMessage{raw}, nil
}

func createdID(data json.RawMessage) string {
	var env struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	_ = json.Unmarshal(data, &env)
	return env.Data.ID
}

func randomPath(kind model.QuestionKind, exclude []string) string {
	p := "/api/questions/" + url.PathEscape(string(kind)) + "/random"
	if len(exclude) > 0 {
		p += "?" + url.Values{"exclude": {strings.Join(exclude, ",")}}.Encode()
	}
	return p
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: qbank [flags] <command> <kind> [args]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  submit <kind> <file.json>...   create questions from JSON files")
	fmt.Fprintln(os.Stderr, "  random <kind> [exclude-id...]  print one random question")
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}
