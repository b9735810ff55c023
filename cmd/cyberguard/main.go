package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"cyberguard/internal/assistant"
	"cyberguard/internal/config"
	"cyberguard/internal/corpus"
	"cyberguard/internal/llm"
	"cyberguard/internal/llm/hashembed"
	"cyberguard/internal/llm/openai"
	"cyberguard/internal/log"
	"cyberguard/internal/models"
	"cyberguard/internal/quiz"
	"cyberguard/internal/server"
	"cyberguard/internal/store"
	"cyberguard/internal/vectorindex"
	"cyberguard/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	if err := config.LoadAndApply(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := log.New()

	switch os.Args[1] {
	case "serve":
		fs := flag.NewFlagSet("serve", flag.ExitOnError)
		addr := fs.String("addr", config.Addr(), "listen address")
		_ = fs.Parse(os.Args[2:])
		if err := serve(*addr, logger); err != nil {
			logger.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	case "ask":
		fs := flag.NewFlagSet("ask", flag.ExitOnError)
		_ = fs.Parse(os.Args[2:])
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "usage: cyberguard ask \"<question>\"")
			os.Exit(1)
		}
		if err := askOnce(fs.Arg(0), logger); err != nil {
			fmt.Fprintf(os.Stderr, "ask error: %v\n", err)
			os.Exit(1)
		}
	case "suggest":
		fs := flag.NewFlagSet("suggest", flag.ExitOnError)
		limit := fs.Int("limit", 3, "max suggestions")
		_ = fs.Parse(os.Args[2:])
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "usage: cyberguard suggest [--limit 3] \"<topic>\"")
			os.Exit(1)
		}
		if err := suggestOnce(fs.Arg(0), *limit, logger); err != nil {
			fmt.Fprintf(os.Stderr, "suggest error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Println(version.String())
	case "help", "-h", "--help":
		usage()
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("cyberguard - cybersecurity education quizzes and assistant")
	fmt.Println("usage:")
	fmt.Println("  cyberguard serve [--addr :5000]")
	fmt.Println("  cyberguard ask \"<question>\"")
	fmt.Println("  cyberguard suggest [--limit 3] \"<topic>\"")
	fmt.Println("  cyberguard version")
}

// buildAssistant loads the corpus, builds the vector index, snapshots it, and
// wires the generation backend (or its absence) into an assistant.
func buildAssistant(ctx context.Context, bank map[string][]models.QuizQuestion, logger *log.Logger) (*assistant.Assistant, error) {
	docs := corpus.QuizDocuments(bank)
	fileDocs, err := corpus.DocumentsFromDir(config.DocsDir())
	if err != nil {
		return nil, err
	}
	docs = append(docs, fileDocs...)

	client := openai.NewFromEnv()

	var embedder llm.Embedder = hashembed.New()
	embedModel := config.EmbeddingModel()
	if embedModel != "" && client != nil {
		embedder = client
	}
	ix := vectorindex.New(embedder, embedModel)
	if err := ix.Build(ctx, docs); err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	logger.Info("vector index built", "documents", ix.Size())
	if err := ix.Save(config.SnapshotPrefix()); err != nil {
		// snapshot failure affects restarts, not this process
		logger.Error("index snapshot failed", "error", err.Error())
	}

	var provider llm.ChatProvider
	if client != nil {
		provider = client
	} else {
		logger.Warn("no generation backend configured, answers use fallback mode")
	}
	gen := assistant.NewGenerator(provider, config.ChatModel(), logger)
	return assistant.New(ix, gen, logger), nil
}

func loadBank() (map[string][]models.QuizQuestion, error) {
	if path := config.QuizBankPath(); path != "" {
		return quiz.LoadBank(path)
	}
	return quiz.Bank(), nil
}

func serve(addr string, logger *log.Logger) error {
	bank, err := loadBank()
	if err != nil {
		return err
	}
	as, err := buildAssistant(context.Background(), bank, logger)
	if err != nil {
		return err
	}
	sessions, err := store.Open(config.SQLitePath())
	if err != nil {
		return err
	}
	defer sessions.Close()

	api := server.NewAPI(as, sessions, bank, logger)
	logger.Info("listening", "addr", addr)
	return server.Run(addr, api.Handler(), logger)
}

func askOnce(question string, logger *log.Logger) error {
	bank, err := loadBank()
	if err != nil {
		return err
	}
	as, err := buildAssistant(context.Background(), bank, logger)
	if err != nil {
		return err
	}
	answer, err := as.Ask(context.Background(), question)
	if err != nil {
		return err
	}
	return printJSON(answer)
}

func suggestOnce(topic string, limit int, logger *log.Logger) error {
	bank, err := loadBank()
	if err != nil {
		return err
	}
	as, err := buildAssistant(context.Background(), bank, logger)
	if err != nil {
		return err
	}
	suggestions, err := as.RelevantQuizQuestions(context.Background(), topic, limit)
	if err != nil {
		return err
	}
	return printJSON(suggestions)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
