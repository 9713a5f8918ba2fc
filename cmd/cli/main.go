package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"replybot/internal/config"
	"replybot/internal/storage"
	"replybot/internal/trigger"
	"replybot/pkg/cmd"
)

type cliContext struct {
	guildID string
	store   *storage.Storage
	engine  *trigger.Engine
}

type cliCommand struct {
	name string
	desc string
	run  func(ctx context.Context, c *cliContext, inv *cmd.Invocation) error
}

func (c *cliCommand) Name() string        { return c.name }
func (c *cliCommand) Description() string { return c.desc }

func (c *cliCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	cc, ok := inv.Data.(*cliContext)
	if !ok {
		return fmt.Errorf("%s: missing cli context", c.name)
	}
	return c.run(ctx, cc, inv)
}

func main() {
	guildID := flag.String("guild", "", "guild ID to inspect")
	flag.Usage = usage
	flag.Parse()

	registry := cmd.NewRegistry()
	registry.MustRegister(&cliCommand{name: "list", desc: "print the guild's triggers", run: runList})
	registry.MustRegister(&cliCommand{name: "match", desc: "show which trigger a message would hit", run: runMatch})
	registry.MustRegister(&cliCommand{name: "logs", desc: "print the guild's audit log", run: runLogs})

	if flag.NArg() == 0 || *guildID == "" {
		flag.Usage()
		listCommands(registry)
		os.Exit(2)
	}

	name := flag.Arg(0)
	if registry.Get(name) == nil {
		log.Fatalf("[ERR] Unknown command %q", name)
	}

	cfg, err := config.LoadStorage()
	if err != nil {
		log.Fatalf("[ERR] Invalid configuration: %v", err)
	}
	store, err := storage.Open(cfg.StorageDriver, cfg.StoragePath, cfg.SQLitePath, cfg.AuditLogLimit)
	if err != nil {
		log.Fatalf("[ERR] Open storage: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	inv := &cmd.Invocation{
		Args: flag.Args()[1:],
		Data: &cliContext{
			guildID: *guildID,
			store:   store,
			engine:  trigger.NewEngine(store, trigger.NewCache(store), nil, nil),
		},
	}
	if err := registry.Run(ctx, name, inv); err != nil {
		log.Printf("[ERR] %s: %v", name, err)
		store.Close()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s -guild <id> <command> [args]\n\n", os.Args[0])
	flag.PrintDefaults()
}

func listCommands(r *cmd.Registry) {
	fmt.Fprintln(os.Stderr, "\ncommands:")
	for _, c := range r.GetAll() {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.Name(), c.Description())
	}
}

func runList(ctx context.Context, c *cliContext, _ *cmd.Invocation) error {
	records, err := c.engine.Triggers(ctx, c.guildID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		log.Printf("[INFO] Guild %s has no triggers", c.guildID)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TRIGGER\tTYPE\tMODE\tPROB\tREPLIES")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\t%d\n", r.Trigger, r.MatchType, r.SendMode, r.Probability, len(r.Replies))
	}
	return w.Flush()
}

func runMatch(ctx context.Context, c *cliContext, inv *cmd.Invocation) error {
	content := inv.Rest(0)
	if content == "" {
		return fmt.Errorf("match needs message text")
	}

	r, ok := c.engine.Lookup(ctx, c.guildID, content)
	if !ok {
		log.Printf("[INFO] No trigger matches %q", content)
		return nil
	}
	fmt.Printf("trigger:     %s\ntype:        %s\nmode:        %s\nprobability: %d%%\n", r.Trigger, r.MatchType, r.SendMode, r.Probability)
	for i, reply := range r.Replies {
		fmt.Printf("reply %d:     %s\n", i+1, reply)
	}
	return nil
}

func runLogs(ctx context.Context, c *cliContext, _ *cmd.Invocation) error {
	entries, err := c.store.FetchAudit(ctx, c.guildID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		log.Printf("[INFO] Guild %s has no audit entries", c.guildID)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tUSER\tTRIGGER")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s (%s)\t%s\n", e.Timestamp.Format(time.RFC3339), e.Action, e.Username, e.UserID, e.Record.Trigger)
	}
	return w.Flush()
}
