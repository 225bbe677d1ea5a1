package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/crypto/bcrypt"

	"inkwell/internal/actions"
	"inkwell/internal/config"
	"inkwell/internal/db"
	"inkwell/internal/domain"
	"inkwell/internal/logging"
	"inkwell/internal/migrate"
	"inkwell/internal/pipeline"
	"inkwell/internal/provider"
	"inkwell/internal/repo"
	"inkwell/internal/server"
	"inkwell/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "Inkwell CLI",
	Long: `Inkwell turns model providers into a content generation API.
It exposes rewrite/expand/shorten/article/seo-content actions, image
synthesis, and resume scoring over HTTP, with per-user history stored
in a local SQLite workspace.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("INKWELL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().Bool("debug", false, "debug logging")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(imagesCmd())
	rootCmd.AddCommand(actionsCmd())
	rootCmd.AddCommand(logCmd())
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("base-path") {
				cfg.Server.BasePath = basePath
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("jwt secret is required; set INKWELL_JWT_SECRET or auth.jwt_secret in %s", config.Path(workspace))
			}

			logger, err := logging.New(viper.GetBool("debug"))
			if err != nil {
				return err
			}
			defer logger.Sync()

			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}

			gemini, err := provider.NewGeminiClient(cmd.Context(), provider.GeminiConfig{
				APIKey:            cfg.Gemini.APIKey,
				Model:             cfg.Gemini.Model,
				Timeout:           cfg.Gemini.Timeout,
				RequestsPerSecond: cfg.Gemini.RequestsPerSecond,
			}, logger)
			if err != nil {
				return err
			}
			content := pipeline.New(gemini, cfg.Gemini.Model, r, logger)

			var images *pipeline.ImagePipeline
			imagesDir := filepath.Join(workspace, db.WorkspaceDir, "images")
			if cfg.HuggingFace.Token != "" {
				hf, err := provider.NewHFClient(provider.HFConfig{
					Token:   cfg.HuggingFace.Token,
					Model:   cfg.HuggingFace.Model,
					Timeout: cfg.HuggingFace.Timeout,
				})
				if err != nil {
					return err
				}
				blobs, err := storage.NewDiskStore(imagesDir, "/images")
				if err != nil {
					return err
				}
				images = pipeline.NewImagePipeline(hf, blobs, r, logger)
			} else {
				logger.Warn("image generation disabled, no huggingface token configured")
			}

			handler, err := server.New(server.Config{
				Repo:     r,
				Content:  content,
				Images:   images,
				BasePath: cfg.Server.BasePath,
				Auth: server.AuthConfig{
					JWTSecret: cfg.Auth.JWTSecret,
					TokenTTL:  cfg.Auth.TokenTTL,
					Logger:    logger,
				},
				ImagesDir: imagesDir,
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Inkwell API on http://%s%s\n", cfg.Server.Addr, cfg.Server.BasePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

func userCmd() *cobra.Command {
	user := &cobra.Command{Use: "user", Short: "Manage users"}
	user.AddCommand(userCreateCmd())
	user.AddCommand(userShowCmd())
	return user
}

func userCreateCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || email == "" || password == "" {
				return fmt.Errorf("--name, --email, and --password required")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				u := domain.User{
					ID:           uuid.NewString(),
					Name:         name,
					Email:        email,
					PasswordHash: string(hash),
					CreatedAt:    time.Now().UTC().Format(time.RFC3339),
				}
				if err := r.InsertUser(ctx, u); err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	return cmd
}

func userShowCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a user by email",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email required")
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				u, err := r.GetUserByEmail(ctx, email)
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	return cmd
}

func apikeyCmd() *cobra.Command {
	key := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	key.AddCommand(apikeyCreateCmd())
	key.AddCommand(apikeyListCmd())
	key.AddCommand(apikeyDeleteCmd())
	return key
}

func apikeyCreateCmd() *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email required")
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				u, err := r.GetUserByEmail(ctx, email)
				if err != nil {
					return err
				}
				secret := "ik_" + strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
				key := domain.APIKey{
					ID:        uuid.NewString(),
					UserID:    u.ID,
					Name:      name,
					KeyHash:   repo.HashAPIKey(secret),
					CreatedAt: time.Now().UTC().Format(time.RFC3339),
				}
				if err := r.InsertAPIKey(ctx, key); err != nil {
					return err
				}
				// The secret is only shown once.
				return printJSONOrTable(map[string]string{
					"id":     key.ID,
					"secret": secret,
				})
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "owner email")
	cmd.Flags().StringVar(&name, "name", "", "key label")
	return cmd
}

func apikeyListCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email required")
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				u, err := r.GetUserByEmail(ctx, email)
				if err != nil {
					return err
				}
				keys, err := r.ListAPIKeys(ctx, u.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(keys)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Created"})
				for _, k := range keys {
					tw.AppendRow(table.Row{k.ID, k.Name, k.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "owner email")
	return cmd
}

func apikeyDeleteCmd() *cobra.Command {
	var email, id string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || id == "" {
				return fmt.Errorf("--email and --id required")
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				u, err := r.GetUserByEmail(ctx, email)
				if err != nil {
					return err
				}
				return r.DeleteAPIKey(ctx, u.ID, id)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "owner email")
	cmd.Flags().StringVar(&id, "id", "", "key id")
	return cmd
}

func historyCmd() *cobra.Command {
	hist := &cobra.Command{Use: "history", Short: "Content generation history"}
	hist.AddCommand(historyListCmd())
	hist.AddCommand(historyDeleteCmd())
	return hist
}

func historyListCmd() *cobra.Command {
	var email string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's generations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email required")
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				u, err := r.GetUserByEmail(ctx, email)
				if err != nil {
					return err
				}
				items, err := r.ListGenerations(ctx, u.ID, limit, offset)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Type", "Tone", "Input", "Created"})
				for _, g := range items {
					tw.AppendRow(table.Row{g.ID, g.Type, g.Tone, clip(g.InputContent, 40), g.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "owner email")
	cmd.Flags().IntVar(&limit, "limit", 20, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}

func historyDeleteCmd() *cobra.Command {
	var email, id string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete one of a user's generations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || id == "" {
				return fmt.Errorf("--email and --id required")
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				u, err := r.GetUserByEmail(ctx, email)
				if err != nil {
					return err
				}
				return r.DeleteGeneration(ctx, u.ID, id)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "owner email")
	cmd.Flags().StringVar(&id, "id", "", "record id")
	return cmd
}

func imagesCmd() *cobra.Command {
	img := &cobra.Command{Use: "images", Short: "Generated images"}
	var email string
	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List a user's images, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email required")
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				u, err := r.GetUserByEmail(ctx, email)
				if err != nil {
					return err
				}
				items, err := r.ListImages(ctx, u.ID, limit, offset)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Prompt", "URL", "Created"})
				for _, i := range items {
					tw.AppendRow(table.Row{i.ID, clip(i.Prompt, 40), i.ImageURL, i.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	list.Flags().StringVar(&email, "email", "", "owner email")
	list.Flags().IntVar(&limit, "limit", 20, "page size")
	list.Flags().IntVar(&offset, "offset", 0, "page offset")
	img.AddCommand(list)
	return img
}

func actionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List supported generation actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := actions.All()
			if viper.GetBool("json") {
				return printJSON(defs)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Action", "Structured", "Message"})
			for _, d := range defs {
				tw.AppendRow(table.Row{d.ID, d.Structured, d.Message})
			}
			tw.Render()
			return nil
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{Use: "log", Short: "Audit event log"}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, userID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail audit events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				events, err := r.LatestEvents(ctx, n, evtType, userID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&userID, "user-id", "", "user filter")
	return cmd
}

// --- helpers ---

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
