package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/hession/boxmate/internal/agent"
	"github.com/hession/boxmate/internal/config"
	"github.com/hession/boxmate/internal/homebox"
	"github.com/hession/boxmate/internal/llm"
	"github.com/hession/boxmate/internal/store"
	"github.com/hession/boxmate/internal/tools"
)

const (
	Version = "0.1.0"

	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// repl holds the interactive session state.
type repl struct {
	agent    *agent.Agent
	registry *tools.Registry
	store    store.Store
	cfg      *config.Config
}

// Run starts the interactive chat interface.
func Run(cfg *config.Config) error {
	printWelcome()

	if !cfg.IsHomeboxConfigured() {
		return fmt.Errorf("homebox is not configured, set homebox.base_url and a token or username/password in the config file")
	}
	if !cfg.IsAPIKeyConfigured() {
		if err := promptAPIKey(cfg); err != nil {
			return err
		}
	}

	llmClient := llm.New(
		cfg.Model.APIKey,
		cfg.Model.BaseURL,
		cfg.Model.Model,
		cfg.Model.Temperature,
		cfg.Model.MaxTokens,
	)

	st, err := store.NewSQLiteStore(cfg.Store.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	var cache homebox.Cache
	if rc := store.NewResponseCache(st, time.Duration(cfg.Store.CacheTTLMinutes)*time.Minute); rc != nil {
		cache = rc
	}

	client, err := homebox.NewClient(homebox.ClientConfig{
		BaseURL:              cfg.Homebox.BaseURL,
		Token:                cfg.Homebox.Token,
		Username:             cfg.Homebox.Username,
		Password:             cfg.Homebox.Password,
		CFAccessClientID:     cfg.Homebox.CFAccessClientID,
		CFAccessClientSecret: cfg.Homebox.CFAccessClientSecret,
		UserAgent:            cfg.Homebox.UserAgent,
		Timeout:              time.Duration(cfg.Homebox.TimeoutSeconds) * time.Second,
		Cache:                cache,
	})
	if err != nil {
		return fmt.Errorf("failed to create homebox client: %w", err)
	}

	var confirm tools.ConfirmFunc
	if cfg.Safety.ConfirmWrites {
		confirm = confirmWrite
	}

	registry := tools.NewDefaultRegistry(client, cfg.Homebox.PageSize, confirm)
	registry.SetAuditor(st, "repl")

	ag, err := agent.New(
		cfg, llmClient, st, registry,
		agent.WithStreamHandler(streamOutput),
		agent.WithToolCallHandler(toolCallOutput),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	r := &repl{agent: ag, registry: registry, store: st, cfg: cfg}
	p := prompt.New(
		r.execute,
		r.complete,
		prompt.OptionTitle("boxmate"),
		prompt.OptionPrefix("You: "),
		prompt.OptionPrefixTextColor(prompt.Green),
		prompt.OptionSetExitCheckerOnInput(isExitCommand),
	)
	p.Run()
	return nil
}

// printWelcome prints the banner
func printWelcome() {
	fmt.Printf("\n%s📦 Boxmate v%s%s - Chat with your Homebox inventory\n", colorCyan, Version, colorReset)
	fmt.Printf("%sType /help for help, /exit to quit%s\n\n", colorGray, colorReset)
}

// promptAPIKey asks for the LLM API key on first run
func promptAPIKey(cfg *config.Config) error {
	fmt.Printf("%s⚠️  LLM API Key not configured%s\n\n", colorYellow, colorReset)

	apiKey := strings.TrimSpace(prompt.Input("Please enter your API Key: ", noComplete))
	if apiKey == "" {
		return fmt.Errorf("API Key cannot be empty")
	}

	cfg.Model.APIKey = apiKey
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("\n%s✅ API Key saved%s\n\n", colorGreen, colorReset)
	return nil
}

func isExitCommand(input string, breakline bool) bool {
	if !breakline {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "/exit", "/quit", "/q":
		return true
	}
	return false
}

func noComplete(d prompt.Document) []prompt.Suggest {
	return nil
}

// complete suggests built-in commands while typing
func (r *repl) complete(d prompt.Document) []prompt.Suggest {
	return suggestCommands(d.TextBeforeCursor())
}

func suggestCommands(text string) []prompt.Suggest {
	if !strings.HasPrefix(text, "/") {
		return nil
	}

	suggestions := []prompt.Suggest{
		{Text: "/help", Description: "Show help"},
		{Text: "/tools", Description: "List available inventory tools"},
		{Text: "/config", Description: "Show current configuration"},
		{Text: "/audit", Description: "Show recent tool calls"},
		{Text: "/clear", Description: "Clear current session history"},
		{Text: "/new", Description: "Start a new session"},
		{Text: "/exit", Description: "Exit boxmate"},
	}
	return prompt.FilterHasPrefix(suggestions, text, true)
}

// execute handles one line of user input
func (r *repl) execute(line string) {
	input := strings.TrimSpace(line)
	if input == "" {
		return
	}

	if strings.HasPrefix(input, "/") {
		r.handleCommand(input)
		return
	}

	fmt.Printf("\n%sBoxmate: %s", colorBlue, colorReset)
	if _, err := r.agent.Chat(context.Background(), input); err != nil {
		fmt.Printf("\n%s❌ Error: %v%s\n", colorRed, err, colorReset)
	}
	fmt.Println()
	fmt.Println()
}

// handleCommand dispatches built-in commands
func (r *repl) handleCommand(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch strings.ToLower(parts[0]) {
	case "/help":
		printHelp()

	case "/tools":
		r.printTools()

	case "/config":
		fmt.Println(r.cfg.String())

	case "/audit":
		r.printAudit()

	case "/clear":
		if err := r.agent.ClearSession(); err != nil {
			fmt.Printf("%s❌ Failed to clear session: %v%s\n", colorRed, err, colorReset)
		} else {
			fmt.Printf("%s✅ Session cleared%s\n", colorGreen, colorReset)
		}

	case "/new":
		if err := r.agent.NewSession(); err != nil {
			fmt.Printf("%s❌ Failed to create new session: %v%s\n", colorRed, err, colorReset)
		} else {
			fmt.Printf("%s✅ New session created%s\n", colorGreen, colorReset)
		}

	case "/exit", "/quit", "/q":
		fmt.Printf("%sGoodbye! 👋%s\n", colorCyan, colorReset)

	default:
		fmt.Printf("%s❓ Unknown command: %s%s\n", colorYellow, cmd, colorReset)
		fmt.Println("Type /help for available commands")
	}
}

func (r *repl) printTools() {
	fmt.Printf("%sAvailable Tools:%s\n", colorYellow, colorReset)
	for _, tool := range r.registry.List() {
		fmt.Printf("  %s%-22s%s %s\n", colorGreen, tool.Name(), colorReset, tool.Description())
	}
	fmt.Println()
}

func (r *repl) printAudit() {
	records, err := r.store.RecentToolCalls(10)
	if err != nil {
		fmt.Printf("%s❌ Failed to read audit log: %v%s\n", colorRed, err, colorReset)
		return
	}
	if len(records) == 0 {
		fmt.Printf("%sNo tool calls recorded yet%s\n", colorGray, colorReset)
		return
	}

	fmt.Printf("%sRecent Tool Calls:%s\n", colorYellow, colorReset)
	for _, rec := range records {
		status := colorGreen + "ok" + colorReset
		if !rec.OK {
			status = colorRed + "failed" + colorReset
		}
		fmt.Printf("  %s %-22s [%s] %dms %s\n",
			rec.CreatedAt.Format("15:04:05"), rec.Tool, rec.Origin, rec.DurationMS, status)
		if rec.Error != "" {
			fmt.Printf("    %s%s%s\n", colorGray, rec.Error, colorReset)
		}
	}
	fmt.Println()
}

// printHelp prints help information
func printHelp() {
	fmt.Printf(`
%s📚 Boxmate Help%s

%sBuilt-in Commands:%s
  /help    - Show this help message
  /tools   - List available inventory tools
  /config  - Show current configuration
  /audit   - Show recent tool calls
  /clear   - Clear current session history
  /new     - Start a new session
  /exit    - Exit program

%sExamples:%s
  "Do I have any spare HDMI cables?"
  "What's stored in the garage?"
  "Show me the details of the cordless drill"
  "Add a label printer to the office, quantity 1"
  "We used two AA batteries, update the count"

`, colorCyan, colorReset, colorYellow, colorReset, colorYellow, colorReset)
}

// streamOutput prints content fragments as they stream in
func streamOutput(content string) {
	fmt.Print(content)
}

// toolCallOutput reports each tool invocation
func toolCallOutput(name string, args map[string]any, result string, err error) {
	fmt.Printf("\n\n%s🔧 Calling tool: %s%s\n", colorYellow, name, colorReset)

	if len(args) > 0 {
		fmt.Printf("%s   Args: %v%s\n", colorGray, args, colorReset)
	}

	if err != nil {
		fmt.Printf("%s   Status: ❌ Failed - %v%s\n", colorRed, err, colorReset)
	} else {
		fmt.Printf("%s   Status: ✅ Done%s\n", colorGreen, colorReset)
	}

	fmt.Println()
}

// confirmWrite asks the user before a write hits the inventory
func confirmWrite(action string) bool {
	fmt.Printf("\n%s⚠️  Inventory Write%s\n", colorYellow, colorReset)
	fmt.Printf("About to %s\n", action)

	input := strings.ToLower(strings.TrimSpace(prompt.Input("Confirm? (y/N): ", noComplete)))
	return input == "y" || input == "yes"
}
