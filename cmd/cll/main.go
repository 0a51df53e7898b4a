// Package main provides the cll CLI.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FergusFettes/command-line-loom/internal/config"
	"github.com/FergusFettes/command-line-loom/internal/history"
	"github.com/FergusFettes/command-line-loom/internal/loom"
	"github.com/FergusFettes/command-line-loom/internal/model"
	"github.com/FergusFettes/command-line-loom/internal/store"
	"github.com/FergusFettes/command-line-loom/internal/templater"
	"github.com/FergusFettes/command-line-loom/internal/view"
)

var rootCmd = &cobra.Command{
	Use:   "cll",
	Short: "Command-line loom - branching conversations with language models",
	Long:  `cll keeps conversations as trees. Every reply is a branch you can revisit, extend, tag, and recombine.`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config directory, default settings and templates",
	RunE:  runInit,
}

var sendCmd = &cobra.Command{
	Use:   "send <text>...",
	Short: "Add your message to the conversation and generate replies",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSend,
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Generate replies from the current path without new input",
	RunE:  runPush,
}

var appendCmd = &cobra.Command{
	Use:   "append <text>...",
	Short: "Add your message without generating",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAppend,
}

var newCmd = &cobra.Command{
	Use:   "new [text]...",
	Short: "Start a fresh branch, optionally with a first message",
	RunE:  runNew,
}

var navCmd = &cobra.Command{
	Use:   "nav <direction>...",
	Short: "Move through the tree (h/j/k/l, wasd, or parent/child/prev/next)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runNav,
}

var checkoutCmd = &cobra.Command{
	Use:     "checkout <id-or-tag>",
	Aliases: []string{"co"},
	Short:   "Check out a node by id or tag",
	Args:    cobra.ExactArgs(1),
	RunE:    runCheckout,
}

var tagCmd = &cobra.Command{
	Use:   "tag [name]",
	Short: "Tag the current tip, or list tags",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTag,
}

var cherryPickCmd = &cobra.Command{
	Use:     "cherry-pick <id-or-tag>...",
	Aliases: []string{"cp"},
	Short:   "Copy nodes onto the current path",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runCherryPick,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete nodes",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

var hoistCmd = &cobra.Command{
	Use:   "hoist <id>",
	Short: "Detach a subtree and reattach it as a root or under a tagged node",
	Args:  cobra.ExactArgs(1),
	RunE:  runHoist,
}

var editCmd = &cobra.Command{
	Use:   "edit [id-or-tag]",
	Short: "Edit a node's text in $EDITOR (default: the current tip)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEdit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current tree",
	RunE:  runShowTree,
}

var showAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Show every tree, untruncated",
	RunE:  runShowAll,
}

var showPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the nodes on the current path",
	RunE:  runShowPath,
}

var showPromptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Show the raw prompt for the current path",
	RunE:  runShowPrompt,
}

var showTemplatedCmd = &cobra.Command{
	Use:   "templated",
	Short: "Show the prompt as it would be sent to the model",
	RunE:  runShowTemplated,
}

var showNodeCmd = &cobra.Command{
	Use:   "node <id-or-tag>",
	Short: "Show a single node's full text",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowNode,
}

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "List saved chats",
	RunE:  runChats,
}

var chatsDumpCmd = &cobra.Command{
	Use:   "dump <name>",
	Short: "Print a chat's raw JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatsDump,
}

var chatsRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a chat file",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatsRm,
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent generations for the current chat",
	RunE:  runLog,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Update a setting (or comma-separated key=value pairs)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runConfigSet,
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive loom shell",
	RunE:  runShell,
}

var (
	chatFlag    string
	cascadeFlag bool
	underFlag   string
	choiceFlag  int
	limitFlag   int
	widthFlag   int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&chatFlag, "chat", "", "Chat name (default from config)")
	deleteCmd.Flags().BoolVar(&cascadeFlag, "all", false, "Also delete each node's subtree")
	hoistCmd.Flags().StringVar(&underFlag, "under", "", "Reattach under this tagged node instead of as a root")
	sendCmd.Flags().IntVar(&choiceFlag, "choose", 0, "Pick candidate N without prompting (1-based)")
	pushCmd.Flags().IntVar(&choiceFlag, "choose", 0, "Pick candidate N without prompting (1-based)")
	logCmd.Flags().IntVarP(&limitFlag, "limit", "n", 10, "Number of entries")
	showCmd.PersistentFlags().IntVar(&widthFlag, "width", 0, "Display width for tree labels")

	showCmd.AddCommand(showAllCmd)
	showCmd.AddCommand(showPathCmd)
	showCmd.AddCommand(showPromptCmd)
	showCmd.AddCommand(showTemplatedCmd)
	showCmd.AddCommand(showNodeCmd)
	chatsCmd.AddCommand(chatsDumpCmd)
	chatsCmd.AddCommand(chatsRmCmd)
	configCmd.AddCommand(configSetCmd)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(appendCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(navCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(cherryPickCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(hoistCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(chatsCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(shellCmd)
}

func main() {
	setupLogging()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging sends structured logs to stderr; DEBUG=1 raises the level.
func setupLogging() {
	level := slog.LevelWarn
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// configDir resolves the config directory, honoring CLL_CONFIG_DIR.
func configDir() (string, error) {
	if dir := os.Getenv("CLL_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	return config.DefaultDir()
}

func loadConfig() (*config.Config, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if chatFlag != "" {
		cfg.ChatName = chatFlag
	}
	return cfg, nil
}

// openChat loads the configured chat from disk.
func openChat(cfg *config.Config) (*store.Store, *loom.Index, error) {
	s, err := store.Open(cfg.ChatPath)
	if err != nil {
		return nil, nil, err
	}
	ix, err := s.Load(cfg.ChatName)
	if err != nil {
		return nil, nil, err
	}
	return s, ix, nil
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := configDir()
	if err != nil {
		return err
	}
	cfg := config.Default(dir)
	if err := cfg.Save(); err != nil {
		return err
	}
	if err := templater.New(&cfg.Templater).EnsureDefaults(); err != nil {
		return err
	}
	if _, err := store.Open(cfg.ChatPath); err != nil {
		return err
	}
	fmt.Printf("Initialized config in %s\n", dir)
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, ix, err := openChat(cfg)
	if err != nil {
		return err
	}
	text := strings.Join(args, " ")
	if _, err := ix.Extend(text, cfg.Templater.InPrefix); err != nil {
		return err
	}
	if err := generate(cmd.Context(), cfg, ix); err != nil {
		return err
	}
	return finish(cfg, s, ix)
}

func runPush(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, ix, err := openChat(cfg)
	if err != nil {
		return err
	}
	if ix.Tip() == nil {
		return fmt.Errorf("pushing: no active path: %w", loom.ErrInvalidState)
	}
	if err := generate(cmd.Context(), cfg, ix); err != nil {
		return err
	}
	return finish(cfg, s, ix)
}

func runAppend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, ix, err := openChat(cfg)
	if err != nil {
		return err
	}
	if _, err := ix.Extend(strings.Join(args, " "), cfg.Templater.InPrefix); err != nil {
		return err
	}
	return finish(cfg, s, ix)
}

func runNew(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, ix, err := openChat(cfg)
	if err != nil {
		return err
	}
	ix.NewBranch()
	if len(args) > 0 {
		if _, err := ix.Extend(strings.Join(args, " "), cfg.Templater.InPrefix); err != nil {
			return err
		}
	}
	return finish(cfg, s, ix)
}

func runNav(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, ix, err := openChat(cfg)
	if err != nil {
		return err
	}
	for _, arg := range args {
		dir, err := loom.ParseDirection(arg)
		if err != nil {
			return err
		}
		if err := ix.Step(dir); err != nil {
			return err
		}
	}
	if err := printTree(ix); err != nil {
		return err
	}
	return finish(cfg, s, ix)
}

func runCheckout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, ix, err := openChat(cfg)
	if err != nil {
		return err
	}
	if err := ix.CheckoutRef(args[0]); err != nil {
		return err
	}
	if err := printTree(ix); err != nil {
		return err
	}
	return finish(cfg, s, ix)
}

func runTag(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, ix, err := openChat(cfg)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		tags := ix.Tags()
		if len(tags) == 0 {
			fmt.Println("No tags.")
			return nil
		}
		for name, id := range tags {
			fmt.Printf("%s\t%d\n", name, id)
		}
		return nil
	}
	if err := ix.Tag(args[0]); err != nil {
		return err
	}
	return finish(cfg, s, ix)
}

func runCherryPick(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, ix, err := openChat(cfg)
	if err != nil {
		return err
	}
	picked, err := ix.CherryPick(args)
	if err != nil {
		return err
	}
	for _, node := range picked {
		fmt.Printf("Picked %d\n", node.ID)
	}
	return finish(cfg, s, ix)
}

func runDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, ix, err := openChat(cfg)
	if err != nil {
		return err
	}
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("deleting: %q is not a node id: %w", arg, loom.ErrInvalidInput)
		}
		ids = append(ids, id)
	}
	if err := ix.Delete(ids, cascadeFlag); err != nil {
		return err
	}
	return finish(cfg, s, ix)
}

func runHoist(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, ix, err := openChat(cfg)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("hoisting: %q is not a node id: %w", args[0], loom.ErrInvalidInput)
	}
	if err := ix.Hoist(id, underFlag); err != nil {
		return err
	}
	return finish(cfg, s, ix)
}

func runEdit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, ix, err := openChat(cfg)
	if err != nil {
		return err
	}
	var node *loom.Node
	if len(args) > 0 {
		node, err = ix.Resolve(args[0])
		if err != nil {
			return err
		}
	} else {
		node = ix.Tip()
		if node == nil {
			return fmt.Errorf("editing: no active path: %w", loom.ErrInvalidState)
		}
	}
	text, err := editText(node.Text)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("editing node %d: text cannot be empty: %w", node.ID, loom.ErrInvalidInput)
	}
	node.Text = text
	return finish(cfg, s, ix)
}

// editText round-trips text through $EDITOR via a temp file.
func editText(text string) (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	tmp, err := os.CreateTemp("", "cll-edit-*.txt")
	if err != nil {
		return "", fmt.Errorf("creating edit file: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing edit file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing edit file: %w", err)
	}

	ed := exec.Command(editor, path)
	ed.Stdin = os.Stdin
	ed.Stdout = os.Stdout
	ed.Stderr = os.Stderr
	if err := ed.Run(); err != nil {
		return "", fmt.Errorf("running editor: %w", err)
	}
	edited, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading edit file: %w", err)
	}
	return strings.TrimRight(string(edited), "\n"), nil
}

func runShowTree(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, ix, err := openChat(cfg)
	if err != nil {
		return err
	}
	return printTree(ix)
}

func runShowAll(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, ix, err := openChat(cfg)
	if err != nil {
		return err
	}
	out, err := renderer().RenderForest(ix.Graph())
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func runShowPath(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, ix, err := openChat(cfg)
	if err != nil {
		return err
	}
	for _, node := range ix.Path() {
		fmt.Printf("%d: %s\n", node.ID, node.String())
	}
	return nil
}

func runShowPrompt(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, ix, err := openChat(cfg)
	if err != nil {
		return err
	}
	fmt.Println(ix.Prompt())
	return nil
}

func runShowTemplated(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, ix, err := openChat(cfg)
	if err != nil {
		return err
	}
	prompt, err := templater.New(&cfg.Templater).Prompt(ix.Prompt())
	if err != nil {
		return err
	}
	fmt.Println(prompt)
	return nil
}

func runShowNode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, ix, err := openChat(cfg)
	if err != nil {
		return err
	}
	node, err := ix.Resolve(args[0])
	if err != nil {
		return err
	}
	fmt.Println(node.String())
	return nil
}

func runChats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := store.Open(cfg.ChatPath)
	if err != nil {
		return err
	}
	names, err := s.List()
	if err != nil {
		return err
	}
	fmt.Printf("Found %d chats.\n", len(names))
	for _, name := range names {
		marker := " "
		if name == cfg.ChatName {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, name)
	}
	return nil
}

func runChatsDump(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := store.Open(cfg.ChatPath)
	if err != nil {
		return err
	}
	raw, err := s.Dump(args[0])
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}

func runChatsRm(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := store.Open(cfg.ChatPath)
	if err != nil {
		return err
	}
	if err := s.Remove(args[0]); err != nil {
		return err
	}
	fmt.Printf("Removed %s\n", args[0])
	return nil
}

func runLog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	hist, err := history.Open(cfg.Dir())
	if err != nil {
		return err
	}
	defer hist.Close()

	entries, err := hist.Recent(cfg.ChatName, limitFlag)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("#%d [%s] %s\n", e.ID, e.Model, firstLine(e.Prompt))
		fmt.Printf("    %s\n", firstLine(e.Response))
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fmt.Print(cfg.String())
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) == 2 {
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
	} else {
		if err := cfg.SetPairs(args[0]); err != nil {
			return err
		}
	}
	return cfg.Save()
}

// generate renders the templated prompt, asks the model for candidates,
// inserts them as sibling branches and lets the user pick one to continue.
func generate(ctx context.Context, cfg *config.Config, ix *loom.Index) error {
	tp := templater.New(&cfg.Templater)
	prompt, err := tp.Prompt(ix.Prompt())
	if err != nil {
		return err
	}
	if cfg.EchoPrompt {
		fmt.Println(prompt)
	}

	client, err := model.New(cfg.Model)
	if err != nil {
		return err
	}
	slog.Debug("generating", "chat", cfg.ChatName, "model", cfg.Model.Model)
	candidates, err := client.Generate(ctx, prompt)
	if err != nil {
		return err
	}

	inserted := make([]*loom.Node, 0, len(candidates))
	for _, text := range candidates {
		node, err := ix.Insert(text, cfg.Templater.OutPrefix)
		if err != nil {
			return err
		}
		inserted = append(inserted, node)
	}
	for i, node := range inserted {
		fmt.Printf("[%d] %s\n", i+1, strings.TrimSpace(node.Text))
	}

	choice := chooseCandidate(len(inserted))
	if choice >= 0 {
		if err := ix.Checkout(inserted[choice].ID); err != nil {
			return err
		}
	}

	if hist, err := history.Open(cfg.Dir()); err == nil {
		defer hist.Close()
		if err := hist.Record(cfg.ChatName, cfg.Model.Model, prompt, candidates, choice); err != nil {
			slog.Warn("recording generation failed", "error", err)
		}
	}
	return nil
}

// chooseCandidate picks which inserted candidate becomes the new tip. A
// single candidate is taken directly; otherwise the --choose flag or a
// prompt decides. Returns -1 to leave the checkout where it was.
func chooseCandidate(n int) int {
	if n == 0 {
		return -1
	}
	if n == 1 {
		return 0
	}
	if choiceFlag > 0 && choiceFlag <= n {
		return choiceFlag - 1
	}
	fmt.Printf("Choose a completion [1-%d, enter to skip]: ", n)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return -1
	}
	choice, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || choice < 1 || choice > n {
		return -1
	}
	return choice - 1
}

// finish persists the chat when file mode is on.
func finish(cfg *config.Config, s *store.Store, ix *loom.Index) error {
	if !cfg.File {
		return nil
	}
	return s.Save(ix)
}

func renderer() *view.Renderer {
	opts := view.DefaultOptions()
	if widthFlag > 0 {
		opts.Width = widthFlag
	}
	return view.NewRenderer(opts)
}

func printTree(ix *loom.Index) error {
	out, err := renderer().RenderActive(ix.Graph())
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func runShell(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, ix, err := openChat(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Chat %q. h/j/k/l to move, 'send <text>', 'tag <name>', 'show', 'q' to quit.\n", cfg.ChatName)
	if err := printTree(ix); err != nil {
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("loom> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		verb, rest, _ := strings.Cut(line, " ")
		switch verb {
		case "q", "quit", "exit":
			return finish(cfg, s, ix)
		case "h", "j", "k", "l", "w", "a", "s", "d":
			dir, err := loom.ParseDirection(verb)
			if err != nil {
				fmt.Println(err)
				continue
			}
			if err := ix.Step(dir); err != nil {
				fmt.Println(err)
				continue
			}
			if err := printTree(ix); err != nil {
				return err
			}
		case "send":
			if rest == "" {
				fmt.Println("send needs text")
				continue
			}
			if _, err := ix.Extend(rest, cfg.Templater.InPrefix); err != nil {
				fmt.Println(err)
				continue
			}
			if err := generate(cmd.Context(), cfg, ix); err != nil {
				fmt.Println(err)
				continue
			}
			if err := printTree(ix); err != nil {
				return err
			}
		case "push":
			if err := generate(cmd.Context(), cfg, ix); err != nil {
				fmt.Println(err)
				continue
			}
			if err := printTree(ix); err != nil {
				return err
			}
		case "co", "checkout":
			if err := ix.CheckoutRef(rest); err != nil {
				fmt.Println(err)
				continue
			}
			if err := printTree(ix); err != nil {
				return err
			}
		case "tag":
			if rest == "" {
				for name, id := range ix.Tags() {
					fmt.Printf("%s\t%d\n", name, id)
				}
				continue
			}
			if err := ix.Tag(rest); err != nil {
				fmt.Println(err)
			}
		case "new":
			ix.NewBranch()
			if rest != "" {
				if _, err := ix.Extend(rest, cfg.Templater.InPrefix); err != nil {
					fmt.Println(err)
					continue
				}
			}
			if err := printTree(ix); err != nil {
				return err
			}
		case "show":
			if err := printTree(ix); err != nil {
				return err
			}
		case "prompt":
			fmt.Println(ix.Prompt())
		default:
			fmt.Printf("Unknown command %q\n", verb)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return finish(cfg, s, ix)
}
