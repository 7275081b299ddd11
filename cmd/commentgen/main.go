package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fadilmartias/comment-assistant/internal/config"
	"github.com/fadilmartias/comment-assistant/internal/logger"
	"github.com/fadilmartias/comment-assistant/internal/model"
	"github.com/fadilmartias/comment-assistant/internal/repository"
	"github.com/fadilmartias/comment-assistant/internal/service"
	"github.com/fadilmartias/comment-assistant/internal/usecase"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose bool

	inputPath  string
	outputDir  string
	grade      string
	term       string
	subject    string
	basis      string
	tone       string
	apiKeyFlag string

	zlog *zap.Logger

	// newGeneratorFactory is swapped in tests.
	newGeneratorFactory = service.NewGeneratorFactory
)

var rootCmd = &cobra.Command{
	Use:   "commentgen",
	Short: "Generate report-card comments for a class spreadsheet",
	Long: `commentgen reads a class list (.xlsx or .xls), asks the configured AI
provider for a short comment per student in batches of five, and writes the
sheet back out with a comment column appended.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		if zlog != nil {
			return nil
		}
		var err error
		zlog, err = logger.New(config.LoadAppConfig().Env, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if zlog != nil {
			_ = zlog.Sync()
		}
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Import a spreadsheet, generate comments and export the result",
	Example: `  commentgen generate --input lop3a.xlsx --grade 3 --term 2 --subject "Toán"
  commentgen generate -i lop1.xls -o out --basis level`,
	RunE: runGenerate,
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print grades and their subjects as YAML",
	RunE:  runCatalog,
}

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Manage the saved API key",
}

var credentialSetCmd = &cobra.Command{
	Use:   "set [api-key]",
	Short: "Save an API key; it takes precedence over the environment",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCredentialSet,
}

var credentialClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the saved API key",
	RunE:  runCredentialClear,
}

var credentialStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the API key comes from",
	RunE:  runCredentialStatus,
}

var credentialTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send one request to the provider with the current key",
	RunE:  runCredentialTest,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	generateCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Class spreadsheet (.xlsx, .xls)")
	generateCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory for the exported workbook")
	generateCmd.Flags().StringVar(&grade, "grade", string(model.Grade1), "Grade 1-5")
	generateCmd.Flags().StringVar(&term, "term", "", "Term name or its number 1-4 (default: Cuối học kỳ 1)")
	generateCmd.Flags().StringVar(&subject, "subject", "", "Subject (default: first subject of the grade)")
	generateCmd.Flags().StringVar(&basis, "basis", string(model.BasisBoth), "Evaluation basis: score, level or both")
	generateCmd.Flags().StringVar(&tone, "tone", "", "Tone: professional or encouraging")
	_ = generateCmd.MarkFlagRequired("input")

	credentialSetCmd.Flags().StringVar(&apiKeyFlag, "key", "", "API key (alternative to the positional argument)")

	credentialCmd.AddCommand(credentialSetCmd)
	credentialCmd.AddCommand(credentialClearCmd)
	credentialCmd.AddCommand(credentialStatusCmd)
	credentialCmd.AddCommand(credentialTestCmd)

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(credentialCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if msg := usecase.UserMessage(err); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

type deps struct {
	credentials *usecase.CredentialUsecase
	generation  *usecase.GenerationUsecase
	sessions    *usecase.SessionUsecase
	provider    string
}

func buildDeps() (*deps, error) {
	appConfig := config.LoadAppConfig()
	genConfig := config.LoadGenerationConfig()
	geminiConfig := config.LoadGeminiConfig()
	openRouterConfig := config.LoadOpenRouterConfig()

	catalog, err := model.LoadCatalog(appConfig.CatalogFile)
	if err != nil {
		return nil, err
	}
	db, err := repository.OpenDatabase(config.LoadDBConfig(), appConfig)
	if err != nil {
		return nil, err
	}
	newGenerator, err := newGeneratorFactory(genConfig, geminiConfig, openRouterConfig, zlog)
	if err != nil {
		return nil, err
	}

	credentials := usecase.NewCredentialUsecase(repository.NewSettingRepository(db), service.FallbackAPIKey(genConfig, geminiConfig, openRouterConfig))
	return &deps{
		credentials: credentials,
		generation:  usecase.NewGenerationUsecase(credentials, newGenerator, genConfig.BatchSize, zlog),
		sessions:    usecase.NewSessionUsecase(repository.NewSessionRepository(), catalog, zlog),
		provider:    genConfig.Provider,
	}, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// parseTerm accepts a term name or its 1-based position.
func parseTerm(raw string) (model.Term, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 1 || n > len(model.Terms) {
			return "", fmt.Errorf("%w: term number must be 1-%d", model.ErrInvalidConfig, len(model.Terms))
		}
		return model.Terms[n-1], nil
	}
	t := model.Term(raw)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown term %q", model.ErrInvalidConfig, raw)
	}
	return t, nil
}

func configUpdateFromFlags(cmd *cobra.Command) (usecase.ConfigUpdate, error) {
	var u usecase.ConfigUpdate

	g := model.Grade(grade)
	u.Grade = &g
	if cmd.Flags().Changed("term") {
		t, err := parseTerm(term)
		if err != nil {
			return u, err
		}
		u.Term = &t
	}
	if cmd.Flags().Changed("subject") {
		u.Subject = &subject
	}
	b := model.EvaluationBasis(basis)
	u.EvaluationBasis = &b
	if cmd.Flags().Changed("tone") {
		t := model.Tone(tone)
		u.Tone = &t
	}
	return u, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	d, err := buildDeps()
	if err != nil {
		return err
	}

	session := d.sessions.Create()
	id := session.ID.String()

	update, err := configUpdateFromFlags(cmd)
	if err != nil {
		return err
	}
	cfg, err := d.sessions.UpdateConfig(id, update)
	if err != nil {
		return err
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	result, err := d.sessions.Import(id, f, filepath.Base(inputPath))
	f.Close()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d rows from %q (%s, lớp %s, %s)\n",
		result.Imported, result.TotalRows, result.SheetName, cfg.Subject, cfg.Grade, cfg.Term)

	run, err := d.generation.Start(ctx, session)
	if err != nil {
		return err
	}
	summary := run.Execute(ctx)

	file, err := d.sessions.Export(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	out := filepath.Join(outputDir, file.Name)
	if err := os.WriteFile(out, file.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d batches, %d completed, %d failed in %s\nWrote %s\n",
		summary.Batches, summary.Completed, summary.Failed, summary.Duration.Round(time.Millisecond), out)
	return nil
}

func runCatalog(cmd *cobra.Command, args []string) error {
	catalog, err := model.LoadCatalog(config.LoadAppConfig().CatalogFile)
	if err != nil {
		return err
	}
	data, err := catalog.Marshal()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runCredentialSet(cmd *cobra.Command, args []string) error {
	key := apiKeyFlag
	if len(args) == 1 {
		key = args[0]
	}
	d, err := buildDeps()
	if err != nil {
		return err
	}
	if err := d.credentials.Save(commandContext(cmd), key); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "API key saved")
	return nil
}

func runCredentialClear(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	if err := d.credentials.Clear(commandContext(cmd)); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Saved API key removed")
	return nil
}

func runCredentialStatus(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	_, source, err := d.credentials.Resolve(commandContext(cmd))
	if err != nil && !errors.Is(err, usecase.ErrCredentialRequired) {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "provider: %s\nsource: %s\n", d.provider, source)
	return nil
}

func runCredentialTest(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	reply, source, err := d.generation.Verify(commandContext(cmd))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ok (%s key): %s\n", source, reply)
	return nil
}
