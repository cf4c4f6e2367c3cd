package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/xxxserbagd-cmyk/germasik/internal/access"
	"github.com/xxxserbagd-cmyk/germasik/internal/config"
	"github.com/xxxserbagd-cmyk/germasik/internal/engine"
	"github.com/xxxserbagd-cmyk/germasik/internal/extract"
	"github.com/xxxserbagd-cmyk/germasik/internal/mcp"
	"github.com/xxxserbagd-cmyk/germasik/internal/store"
	"github.com/xxxserbagd-cmyk/germasik/internal/textenc"
)

const version = "0.1.0"

// maxFileSize caps input dumps at 50 MB.
const maxFileSize = 50 * 1024 * 1024

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	var err error
	switch os.Args[1] {
	case "process":
		err = runProcess(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	case "clear":
		err = runClear(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "access":
		err = runAccess(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("germasik %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// commonFlags are the flags shared by every store-touching command.
type commonFlags struct {
	configPath string
	storePath  string
	backend    string
}

// parseCommon strips shared flags from args and returns the rest.
func parseCommon(args []string, flags *commonFlags) ([]string, error) {
	var rest []string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--config" && i+1 < len(args):
			flags.configPath = args[i+1]
			i++
		case args[i] == "--store" && i+1 < len(args):
			flags.storePath = args[i+1]
			i++
		case args[i] == "--backend" && i+1 < len(args):
			flags.backend = args[i+1]
			i++
		default:
			rest = append(rest, args[i])
		}
	}
	return rest, nil
}

// setup resolves config and opens the store and engine.
func setup(flags commonFlags, log *zap.Logger) (config.ResolvedConfig, store.Store, *engine.Engine, error) {
	cfg, err := config.Resolve(config.ResolveOptions{
		ConfigPath:      flags.configPath,
		CLIStorePath:    flags.storePath,
		CLIStoreBackend: flags.backend,
	})
	if err != nil {
		return cfg, nil, nil, err
	}

	st, err := store.Open(store.Config{
		Path:    cfg.StorePath.Value,
		Backend: cfg.StoreBackend.Value,
		Logger:  log,
	})
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("opening store: %w", err)
	}

	eng := engine.New(st,
		engine.WithLogger(log),
		engine.WithExtractor(extract.NewExtractor(extract.WithKeywords(cfg.Keywords))),
	)
	return cfg, st, eng, nil
}

func newLogger() *zap.Logger {
	log, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func runProcess(args []string) error {
	var flags commonFlags
	outDir := "."
	rest, err := parseCommon(args, &flags)
	if err != nil {
		return err
	}
	var paths []string
	for i := 0; i < len(rest); i++ {
		switch {
		case rest[i] == "--out" && i+1 < len(rest):
			outDir = rest[i+1]
			i++
		case strings.HasPrefix(rest[i], "-"):
			return fmt.Errorf("unknown flag: %s", rest[i])
		default:
			paths = append(paths, rest[i])
		}
	}
	if len(paths) != 1 {
		return errors.New("usage: germasik process <file> [--out dir] [--store path] [--backend file|sqlite]")
	}
	path := paths[0]

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if info.Size() > maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	text := textenc.Decode(data)

	log := newLogger()
	defer log.Sync()
	_, st, eng, err := setup(flags, log)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := eng.Process(text, filepath.Base(path))
	if err != nil {
		return err
	}

	if res.TotalCount == 0 {
		fmt.Println("No records found. Check the dump format: records need a full name plus at least one identifier.")
		return nil
	}

	outputs := map[string]string{
		"valid.txt":       res.Valid,
		"nevalid.txt":     res.Invalid,
		"duplicates.txt":  res.Duplicates,
		"all_records.txt": res.All,
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for name, content := range outputs {
		if strings.TrimSpace(content) == "" {
			continue
		}
		target := filepath.Join(outDir, name)
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}
		fmt.Printf("wrote %s\n", target)
	}

	fmt.Println()
	fmt.Printf("valid:      %d\n", res.ValidCount)
	fmt.Printf("invalid:    %d\n", res.InvalidCount)
	fmt.Printf("duplicates: %d\n", res.DuplicateCount)
	fmt.Printf("total:      %d\n", res.TotalCount)
	fmt.Printf("unique names in store: %d\n", res.StoreStats.Count)
	return nil
}

func runStats(args []string) error {
	var flags commonFlags
	if _, err := parseCommon(args, &flags); err != nil {
		return err
	}
	log := newLogger()
	defer log.Sync()
	_, st, _, err := setup(flags, log)
	if err != nil {
		return err
	}
	defer st.Close()

	fmt.Printf("unique names in store: %d\n", st.Stats().Count)
	return nil
}

func runClear(args []string) error {
	var flags commonFlags
	rest, err := parseCommon(args, &flags)
	if err != nil {
		return err
	}
	confirmed := false
	for _, arg := range rest {
		if arg == "--yes" || arg == "-y" {
			confirmed = true
		}
	}
	if !confirmed {
		return errors.New("refusing to clear the store without --yes")
	}

	log := newLogger()
	defer log.Sync()
	_, st, _, err := setup(flags, log)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Clear(); err != nil {
		return fmt.Errorf("clearing store: %w", err)
	}
	fmt.Println("store cleared")
	return nil
}

func runServe(args []string) error {
	var flags commonFlags
	if _, err := parseCommon(args, &flags); err != nil {
		return err
	}

	log := newLogger()
	defer log.Sync()
	cfg, st, eng, err := setup(flags, log)
	if err != nil {
		return err
	}
	defer st.Close()

	mgr := access.NewManager(cfg.AccessPath.Value, ownerID(), log)
	srv := mcp.NewServer(mcp.ServerConfig{
		Engine:  eng,
		Store:   st,
		Access:  mgr,
		Version: version,
	})
	return mcpserver.ServeStdio(srv)
}

func runAccess(args []string) error {
	var flags commonFlags
	rest, err := parseCommon(args, &flags)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return errors.New("usage: germasik access <list|allow|remove|approve|deny|admin-add|admin-remove> [user_id]")
	}

	log := newLogger()
	defer log.Sync()
	cfg, err := config.Resolve(config.ResolveOptions{ConfigPath: flags.configPath})
	if err != nil {
		return err
	}
	owner := ownerID()
	mgr := access.NewManager(cfg.AccessPath.Value, owner, log)

	argID := func() (int64, error) {
		if len(rest) < 2 {
			return 0, errors.New("user_id required")
		}
		return strconv.ParseInt(rest[1], 10, 64)
	}

	switch rest[0] {
	case "list":
		fmt.Println(mgr.String())
		fmt.Printf("admins:  %v\n", mgr.Admins())
		fmt.Printf("allowed: %v\n", mgr.AllowedUsers())
		for _, r := range mgr.Requests() {
			fmt.Printf("pending: %d (%s)\n", r.UserID, r.Username)
		}
		return nil
	case "allow":
		id, err := argID()
		if err != nil {
			return err
		}
		if !mgr.AddAllowedUser(id, owner) {
			return fmt.Errorf("user %d already allowed", id)
		}
	case "remove":
		id, err := argID()
		if err != nil {
			return err
		}
		if !mgr.RemoveAllowedUser(id, owner) {
			return fmt.Errorf("cannot remove user %d", id)
		}
	case "approve":
		id, err := argID()
		if err != nil {
			return err
		}
		if !mgr.ApproveRequest(id, owner) {
			return fmt.Errorf("no pending request for user %d", id)
		}
	case "deny":
		id, err := argID()
		if err != nil {
			return err
		}
		if !mgr.DenyRequest(id, owner) {
			return fmt.Errorf("no pending request for user %d", id)
		}
	case "admin-add":
		id, err := argID()
		if err != nil {
			return err
		}
		if !mgr.AddAdmin(id, owner) {
			return fmt.Errorf("user %d is already an admin", id)
		}
	case "admin-remove":
		id, err := argID()
		if err != nil {
			return err
		}
		if !mgr.RemoveAdmin(id, owner) {
			return fmt.Errorf("cannot demote user %d", id)
		}
	default:
		return fmt.Errorf("unknown access subcommand: %s", rest[0])
	}
	fmt.Println("ok")
	return nil
}

// ownerID reads the configured owner identity. The CLI always acts as the
// owner; the ID only matters for policy files shared with the MCP server.
func ownerID() int64 {
	if v := os.Getenv("GERMASIK_OWNER_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			return id
		}
	}
	return 0
}

func printUsage() {
	fmt.Println(`germasik: record extraction and dedup engine for raw text dumps

Usage:
  germasik process <file> [--out dir]    Extract, dedupe, and bucket records
  germasik stats                         Show fingerprint store counters
  germasik clear --yes                   Drop every stored fingerprint
  germasik serve                         Serve the engine over MCP (stdio)
  germasik access <cmd> [user_id]        Manage the allow list
  germasik version                       Print version

Shared flags:
  --config <path>    Config file (default germasik.yaml, env GERMASIK_CONFIG)
  --store <path>     Fingerprint store path
  --backend <name>   Store backend: file (default) or sqlite

Access subcommands: list, allow, remove, approve, deny, admin-add, admin-remove`)
}
