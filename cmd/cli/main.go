package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-assistant/internal/ai"
	"github.com/dvloznov/finance-assistant/internal/archive"
	"github.com/dvloznov/finance-assistant/internal/assistant"
	"github.com/dvloznov/finance-assistant/internal/audio"
	"github.com/dvloznov/finance-assistant/internal/config"
	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/logger"
	"github.com/dvloznov/finance-assistant/internal/notionexport"
	"github.com/dvloznov/finance-assistant/internal/store"
	bqstore "github.com/dvloznov/finance-assistant/internal/store/bigquery"
	"github.com/dvloznov/finance-assistant/internal/store/inmemory"
	"github.com/dvloznov/finance-assistant/internal/summary"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, true)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "chat":
		runChat(cfg, log)
	case "voice":
		runVoice(cfg, log)
	case "summary":
		runSummary(cfg, log)
	case "export-notion":
		runExportNotion(cfg, log)
	case "reset":
		runReset(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Assistant CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  chat           Start an interactive chat session")
	fmt.Println("  voice          Run one voice turn from a recorded clip file")
	fmt.Println("  summary        Print the financial summary from the configured store")
	fmt.Println("  export-notion  Export recorded transactions to a Notion database")
	fmt.Println("  reset          Clear all transactions, budgets and goals")
	fmt.Println("  help           Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// openRecordStore selects the record store per configuration. The returned
// closer is a no-op for the in-memory backend.
func openRecordStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.RecordStore, func()) {
	if cfg.StoreBackend == config.BackendBigQuery {
		bq, err := bqstore.NewStore(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery store")
		}
		return bq, func() { bq.Close() }
	}
	return inmemory.NewStore(), func() {}
}

func newAIClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) *ai.Client {
	client, err := ai.NewClient(ctx, ai.Config{
		TextModel:   cfg.TextModel,
		SpeechModel: cfg.SpeechModel,
		Voice:       cfg.Voice,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}
	return client
}

func runChat(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)

	records, closeStore := openRecordStore(ctx, cfg, log)
	defer closeStore()
	transcript := inmemory.NewStore()

	aiClient := newAIClient(ctx, cfg, log)
	asst := assistant.New(records, transcript, aiClient, aiClient, log)

	fmt.Println("Tell me about your income and spending. Commands: /budget CATEGORY LIMIT, /summary, /reset, /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := runChatCommand(ctx, line, records, log); quit {
				return
			}
			continue
		}

		reply, err := asst.HandleMessage(ctx, line)
		if err != nil {
			log.Error().Err(err).Msg("Turn failed")
			continue
		}
		fmt.Println(reply.Content)
	}
}

// runChatCommand handles the /-prefixed REPL commands. Returns true on /quit.
func runChatCommand(ctx context.Context, line string, records store.RecordStore, log zerolog.Logger) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/summary":
		txs, err := records.ListTransactions(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list transactions")
			return false
		}
		printSummary(summary.Compute(txs))
	case "/reset":
		if err := records.Reset(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to reset records")
			return false
		}
		fmt.Println("All records cleared.")
	case "/budget":
		if len(fields) != 3 {
			fmt.Println("Usage: /budget CATEGORY LIMIT")
			return false
		}
		limit, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			fmt.Println("LIMIT must be a number.")
			return false
		}
		b := domain.Budget{
			ID:       uuid.New().String(),
			Category: fields[1],
			Limit:    limit,
			Period:   domain.PeriodMonthly,
		}
		if err := records.AddBudget(ctx, b); err != nil {
			log.Error().Err(err).Msg("Failed to add budget")
			return false
		}
		fmt.Printf("Budget set: %s up to %.2f per month.\n", b.Category, b.Limit)
	default:
		fmt.Printf("Unknown command: %s\n", fields[0])
	}
	return false
}

// fileRecorder satisfies the recorder contract by reading a pre-recorded
// clip from disk, so one voice turn can run without a live microphone.
type fileRecorder struct {
	path string
}

func (r *fileRecorder) RequestPermission(ctx context.Context) error { return nil }

func (r *fileRecorder) Start(ctx context.Context) error { return nil }

func (r *fileRecorder) Stop(ctx context.Context) ([]byte, string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, "", fmt.Errorf("reading clip %q: %w", r.path, err)
	}
	return data, clipMIMEType(r.path), nil
}

func clipMIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webm":
		return "audio/webm"
	case ".ogg":
		return "audio/ogg"
	case ".m4a", ".mp4":
		return "audio/mp4"
	case ".wav":
		return "audio/wav"
	default:
		return "audio/webm"
	}
}

func runVoice(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("voice", flag.ExitOnError)
	clipPath := fs.String("file", "", "Path to a recorded audio clip")
	replyWAV := fs.String("reply-wav", "", "Write the synthesized reply to this WAV file")
	fs.Parse(os.Args[2:])

	if *clipPath == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	records, closeStore := openRecordStore(ctx, cfg, log)
	defer closeStore()
	transcript := inmemory.NewStore()

	aiClient := newAIClient(ctx, cfg, log)
	asst := assistant.New(records, transcript, aiClient, aiClient, log)

	var clipArchive audio.ClipArchiver
	var archiver *archive.Archiver
	if cfg.GCSBucket != "" {
		archiver = archive.NewArchiver(archive.NewGCSUploader(cfg.GCSBucket), 4, 1, log)
		clipArchive = archiver
	}

	controller := audio.NewController(
		&fileRecorder{path: *clipPath},
		aiClient, aiClient, audio.NewClockOutput(), asst, clipArchive, log,
	)
	defer controller.Close()

	if err := controller.StartRecording(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start recording")
	}
	text, err := controller.StopRecording(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to transcribe clip")
	}
	if text == "" {
		fmt.Println("Nothing was understood in the clip.")
		return
	}
	fmt.Printf("You said: %s\n", text)

	reply, err := controller.Submit(ctx, text)
	if err != nil {
		log.Fatal().Err(err).Msg("Turn failed")
	}
	fmt.Println(reply.Content)

	if *replyWAV != "" {
		pcm, err := aiClient.Synthesize(ctx, reply.Content)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to synthesize reply")
		}
		if len(pcm) == 0 {
			fmt.Println("No audio available for the reply.")
		} else if err := os.WriteFile(*replyWAV, audio.EncodeWAV(pcm, audio.SampleRate), 0o644); err != nil {
			log.Fatal().Err(err).Msg("Failed to write WAV file")
		} else {
			fmt.Printf("Reply speech written to %s\n", *replyWAV)
		}
	}

	if archiver != nil {
		if err := archiver.Stop(ctx); err != nil {
			log.Error().Err(err).Msg("Error flushing clip archive")
		}
	}
}

func runSummary(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	records, closeStore := openRecordStore(ctx, cfg, log)
	defer closeStore()

	txs, err := records.ListTransactions(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list transactions")
	}
	printSummary(summary.Compute(txs))
}

func printSummary(s domain.FinancialSummary) {
	fmt.Printf("Income:  %10.2f\n", s.TotalIncome)
	fmt.Printf("Expense: %10.2f\n", s.TotalExpense)
	fmt.Printf("Balance: %10.2f\n", s.Balance)

	if len(s.ExpensesByCategory) > 0 {
		fmt.Println("\nExpenses by category:")
		for _, c := range s.ExpensesByCategory {
			fmt.Printf("  %-20s %10.2f\n", c.Category, c.Amount)
		}
	}
	if len(s.DailyExpenses) > 0 {
		fmt.Println("\nDaily expenses:")
		for _, d := range s.DailyExpenses {
			fmt.Printf("  %-12s %10.2f\n", d.Label, d.Amount)
		}
	}
	if len(s.MonthlyCashflow) > 0 {
		fmt.Println("\nMonthly cashflow:")
		for _, m := range s.MonthlyCashflow {
			fmt.Printf("  %-12s in %10.2f  out %10.2f\n", m.Month, m.Income, m.Expense)
		}
	}
}

func runExportNotion(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("export-notion", flag.ExitOnError)
	databaseID := fs.String("database-id", cfg.NotionDatabaseID, "Notion database ID (or set NOTION_DATABASE_ID)")
	fs.Parse(os.Args[2:])

	if cfg.NotionToken == "" {
		log.Fatal().Msg("Error: NOTION_TOKEN is required")
	}
	if *databaseID == "" {
		log.Fatal().Msg("Error: --database-id is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	records, closeStore := openRecordStore(ctx, cfg, log)
	defer closeStore()

	txs, err := records.ListTransactions(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list transactions")
	}

	res, err := notionexport.Export(ctx, notionexport.NewClient(cfg.NotionToken), *databaseID, txs)
	if err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}
	fmt.Printf("Exported %d transactions (%d already present).\n", res.Created, res.Skipped)
}

func runReset(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	confirm := fs.Bool("yes", false, "Skip the confirmation prompt")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	if !*confirm {
		fmt.Print("This clears all transactions, budgets and goals. Continue? [y/N] ")
		var answer string
		fmt.Scanln(&answer)
		if !strings.EqualFold(answer, "y") {
			fmt.Println("Aborted.")
			return
		}
	}

	records, closeStore := openRecordStore(ctx, cfg, log)
	defer closeStore()

	if err := records.Reset(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to reset records")
	}
	fmt.Println("All records cleared.")
}
