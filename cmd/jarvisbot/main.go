package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/bookwormlabs/jarvisbot/pkg/agent"
	"github.com/bookwormlabs/jarvisbot/pkg/books"
	"github.com/bookwormlabs/jarvisbot/pkg/bus"
	"github.com/bookwormlabs/jarvisbot/pkg/channels"
	"github.com/bookwormlabs/jarvisbot/pkg/config"
	"github.com/bookwormlabs/jarvisbot/pkg/logger"
	"github.com/bookwormlabs/jarvisbot/pkg/profile"
	"github.com/bookwormlabs/jarvisbot/pkg/provider"
	"github.com/bookwormlabs/jarvisbot/pkg/sched"
	"github.com/bookwormlabs/jarvisbot/pkg/store"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

const appName = "jarvisbot"

func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

func printVersion() {
	fmt.Printf("%s %s\n", appName, formatVersion())
	if buildTime != "" {
		fmt.Printf("  Build: %s\n", buildTime)
	}
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	fmt.Printf("  Go: %s\n", goVer)
}

func main() {
	if err := executeCLI(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".jarvisbot", "config.json")
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(getConfigPath())
}

func validateRuntimeConfig(cfg *config.Config, requireChannel bool) error {
	configPath := getConfigPath()
	if strings.TrimSpace(cfg.Provider.AccessToken) == "" {
		return fmt.Errorf("provider.access_token is required in %s or JARVISBOT_PROVIDER_ACCESS_TOKEN", configPath)
	}
	if requireChannel &&
		strings.TrimSpace(cfg.Channels.Telegram.Token) == "" &&
		strings.TrimSpace(cfg.Channels.Discord.Token) == "" {
		return fmt.Errorf("at least one channel token is required in %s (channels.telegram.token or channels.discord.token)", configPath)
	}
	return nil
}

func onboard() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config already exists at %s\n", configPath)
		fmt.Print("Overwrite? (y/n): ")
		reader := bufio.NewReader(os.Stdin)
		response, readErr := reader.ReadString('\n')
		if readErr != nil {
			fmt.Println("Aborted.")
			return nil
		}
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "y" && response != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if err := config.SaveConfig(configPath, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath()), 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	fmt.Printf("%s is ready!\n", appName)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Add your API access token to", configPath)
	fmt.Println("  2. (Serve mode) Add a Telegram or Discord bot token under channels")
	fmt.Println("  3. Chat locally: jarvisbot chat -m \"Hello!\"")
	fmt.Println("  4. Run the bot: jarvisbot serve")
	fmt.Println("  5. Check readiness: jarvisbot status")
	return nil
}

// buildCore wires the store, profile service, provider, and book
// searcher shared by chat and serve modes. The caller owns the
// returned store handle and must Close it.
func buildCore(ctx context.Context, cfg *config.Config) (store.Store, *profile.Service, *agent.Loop, *bus.MessageBus, error) {
	st, err := store.Open(ctx, store.Config{
		Addr:       cfg.Store.Addr,
		Username:   cfg.Store.Username,
		Password:   cfg.Store.Password,
		RootKey:    cfg.Store.RootKey,
		SQLitePath: cfg.SQLitePath(),
		OpTimeout:  cfg.Store.OpTimeout(),
	})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("opening store: %w", err)
	}

	tokenizer, err := profile.NewTokenizer()
	if err != nil {
		st.Close()
		return nil, nil, nil, nil, fmt.Errorf("loading tokenizer: %w", err)
	}

	profiles, err := profile.NewService(profile.Config{
		RootKey:          cfg.Store.RootKey,
		VectorDims:       cfg.Interests.VectorDims,
		TrainPasses:      cfg.Interests.TrainPasses,
		ContextWindow:    cfg.Interests.ContextWindow,
		MatchThreshold:   cfg.Interests.MatchThreshold,
		MaxConversations: cfg.Interests.MaxConversations,
	}, st, tokenizer)
	if err != nil {
		st.Close()
		return nil, nil, nil, nil, fmt.Errorf("creating profile service: %w", err)
	}

	chatClient, err := provider.New(provider.Config{
		APIBase:     cfg.Provider.APIBase,
		Model:       cfg.Provider.Model,
		APIVersion:  cfg.Provider.APIVersion,
		AccessToken: cfg.Provider.AccessToken,
	})
	if err != nil {
		st.Close()
		return nil, nil, nil, nil, fmt.Errorf("creating provider: %w", err)
	}

	msgBus := bus.NewMessageBus()
	searcher := books.NewGoogleSearcher(cfg.Books.MaxResults)
	loop := agent.NewLoop(msgBus, chatClient, profiles, searcher, cfg.Books.DefaultLanguage)
	return st, profiles, loop, msgBus, nil
}

func chatCmd(message, userID string, debug bool) error {
	if debug {
		logger.SetLevel(logger.DEBUG)
		fmt.Println("Debug mode enabled")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := validateRuntimeConfig(cfg, false); err != nil {
		return err
	}

	ctx := context.Background()
	st, _, loop, _, err := buildCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if message != "" {
		fmt.Printf("\n%s %s\n", appName, loop.ProcessDirect(ctx, userID, message))
		return nil
	}

	fmt.Printf("%s Interactive mode (Ctrl+C to exit)\n\n", appName)
	interactiveMode(loop, userID)
	return nil
}

func interactiveMode(loop *agent.Loop, userID string) {
	prompt := fmt.Sprintf("%s You: ", appName)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     filepath.Join(os.TempDir(), ".jarvisbot_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("Error initializing readline: %v\n", err)
		fmt.Println("Falling back to simple input mode...")
		simpleInteractiveMode(loop, userID)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Goodbye!")
			return
		}

		fmt.Printf("\n%s %s\n\n", appName, loop.ProcessDirect(context.Background(), userID, input))
	}
}

func simpleInteractiveMode(loop *agent.Loop, userID string) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s You: ", appName)
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Goodbye!")
			return
		}

		fmt.Printf("\n%s %s\n\n", appName, loop.ProcessDirect(context.Background(), userID, input))
	}
}

func serveCmd(debug bool) error {
	if debug {
		logger.SetLevel(logger.DEBUG)
		fmt.Println("Debug mode enabled")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := validateRuntimeConfig(cfg, true); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, profiles, loop, msgBus, err := buildCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	channelManager, err := channels.NewManager(cfg, msgBus)
	if err != nil {
		return fmt.Errorf("creating channel manager: %w", err)
	}
	fmt.Printf("Channels enabled: %s\n", strings.Join(channelManager.GetEnabledChannels(), ", "))

	if cfg.Maintenance.Enabled {
		scheduler, err := sched.New(cfg.Maintenance.Schedule, profiles.MaintenanceSweep)
		if err != nil {
			return fmt.Errorf("creating scheduler: %w", err)
		}
		go scheduler.Run(ctx)
	}

	if err := channelManager.StartAll(ctx); err != nil {
		return fmt.Errorf("starting channels: %w", err)
	}
	go loop.Run(ctx)

	fmt.Println("Bot started. Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down...")
	cancel()
	channelManager.StopAll(ctx)
	msgBus.Close()
	fmt.Println("Bot stopped")
	return nil
}

func statusCmd() error {
	configPath := getConfigPath()

	fmt.Printf("%s Status\n", appName)
	fmt.Printf("Version: %s\n", formatVersion())
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Println("Config:", configPath, "error:", err)
		return nil
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("Config:", configPath, "ok")
	} else {
		fmt.Println("Config:", configPath, "missing (run: jarvisbot onboard)")
	}

	ready := func(ok bool) string {
		if ok {
			return "ok"
		}
		return "not set"
	}

	fmt.Printf("Model: %s\n", cfg.Provider.Model)
	fmt.Println("Provider token:", ready(strings.TrimSpace(cfg.Provider.AccessToken) != ""))
	fmt.Println("Telegram token:", ready(strings.TrimSpace(cfg.Channels.Telegram.Token) != ""))
	fmt.Println("Discord token:", ready(strings.TrimSpace(cfg.Channels.Discord.Token) != ""))

	if cfg.Store.Addr != "" {
		fmt.Println("Store: redis at", cfg.Store.Addr)
	} else {
		dbPath := cfg.SQLitePath()
		if _, err := os.Stat(dbPath); err == nil {
			fmt.Println("Store: sqlite at", dbPath)
		} else {
			fmt.Println("Store: sqlite at", dbPath, "(not initialized)")
		}
	}
	return nil
}
