// Command triggerctl administers a trigger-enabled record store from the
// command line: record CRUD, kill-switch management, and audit batch
// archiving. Storage and archive backends are selected through the
// TRIGGERCORE_ environment variables.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"triggercore/handlers/order"
	"triggercore/internal/archive"
	"triggercore/internal/blob"
	"triggercore/internal/config"
	"triggercore/internal/core"
	"triggercore/pkg/trigger"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "triggerctl:", err)
		os.Exit(1)
	}
}

func usage() error {
	return fmt.Errorf("usage: triggerctl <insert|update|list|delete|undelete|switch> [flags]")
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return usage()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	zlog, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = zlog.Sync() }()

	registry := trigger.NewRegistry()
	if err := order.Register(registry); err != nil {
		return err
	}
	store, err := core.OpenPersistentStore(ctx, cfg, registry)
	if err != nil {
		return err
	}
	audit := core.NewMemoryAuditRecorder()
	svc := core.NewService(store,
		core.WithLogger(core.NewZapLogger(zlog)),
		core.WithAuditRecorder(audit),
	)

	var cmdErr error
	switch args[0] {
	case "insert", "update":
		cmdErr = mutate(ctx, svc, args[0], args[1:], out)
	case "list":
		return list(svc, args[1:], out)
	case "delete", "undelete":
		cmdErr = recycle(ctx, svc, args[0], args[1:], out)
	case "switch":
		return switchCmd(ctx, svc, args[1:], out)
	default:
		return usage()
	}
	// Mutations leave an audit trail; archive it even when the mutation
	// itself failed so rejected batches stay inspectable.
	if err := archiveAudit(ctx, cfg, audit, zlog); err != nil {
		zlog.Warn("archive audit batch", zap.Error(err))
	}
	return cmdErr
}

func archiveAudit(ctx context.Context, cfg config.Config, audit *core.MemoryAuditRecorder, zlog *zap.Logger) error {
	if len(audit.Entries()) == 0 {
		return nil
	}
	artifacts, err := blob.Open(ctx, cfg)
	if err != nil {
		return err
	}
	info, err := archive.New(artifacts).Flush(ctx, audit)
	if err != nil {
		return err
	}
	if info.Key != "" {
		zlog.Info("audit batch archived", zap.String("key", info.Key), zap.Int64("size", info.Size))
	}
	return nil
}

func mutate(ctx context.Context, svc *core.Service, verb string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(verb, flag.ContinueOnError)
	entity := fs.String("entity", string(order.Entity), "entity type")
	fields := fs.String("fields", "", "record fields as a JSON object, or an array of objects")
	id := fs.String("id", "", "record id (update only)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fields == "" {
		return fmt.Errorf("%s: -fields is required", verb)
	}
	records, err := decodeRecords(*fields, *id)
	if err != nil {
		return err
	}
	var result []core.Record
	if verb == "insert" {
		result, err = svc.InsertRecords(ctx, core.EntityType(*entity), records)
	} else {
		result, err = svc.UpdateRecords(ctx, core.EntityType(*entity), records)
	}
	if err != nil {
		return err
	}
	return printJSON(out, result)
}

func decodeRecords(fields, id string) ([]core.Record, error) {
	trimmed := strings.TrimSpace(fields)
	if strings.HasPrefix(trimmed, "[") {
		var batch []map[string]any
		if err := json.Unmarshal([]byte(trimmed), &batch); err != nil {
			return nil, fmt.Errorf("decode fields: %w", err)
		}
		records := make([]core.Record, 0, len(batch))
		for _, m := range batch {
			records = append(records, core.Record{Fields: m})
		}
		return records, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return []core.Record{{ID: id, Fields: m}}, nil
}

func list(svc *core.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	entity := fs.String("entity", string(order.Entity), "entity type")
	deleted := fs.Bool("deleted", false, "list the recycle bin instead of live records")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var records []core.Record
	if *deleted {
		records = svc.ListDeletedRecords(core.EntityType(*entity))
	} else {
		records = svc.ListRecords(core.EntityType(*entity))
	}
	return printJSON(out, records)
}

func recycle(ctx context.Context, svc *core.Service, verb string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(verb, flag.ContinueOnError)
	entity := fs.String("entity", string(order.Entity), "entity type")
	ids := fs.String("ids", "", "comma-separated record ids")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ids == "" {
		return fmt.Errorf("%s: -ids is required", verb)
	}
	split := strings.Split(*ids, ",")
	var (
		records []core.Record
		err     error
	)
	if verb == "delete" {
		records, err = svc.DeleteRecords(ctx, core.EntityType(*entity), split)
	} else {
		records, err = svc.UndeleteRecords(ctx, core.EntityType(*entity), split)
	}
	if err != nil {
		return err
	}
	return printJSON(out, records)
}

func switchCmd(ctx context.Context, svc *core.Service, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: triggerctl switch <list|set|clear> [flags]")
	}
	switch args[0] {
	case "list":
		return printJSON(out, svc.ListKillSwitches())
	case "set":
		fs := flag.NewFlagSet("switch set", flag.ContinueOnError)
		name := fs.String("name", trigger.SwitchAll, "switch name (entity type or \"all\")")
		enable := fs.Bool("enable", false, "re-enable instead of disabling")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		sw, err := svc.SetKillSwitch(ctx, *name, !*enable)
		if err != nil {
			return err
		}
		return printJSON(out, sw)
	case "clear":
		fs := flag.NewFlagSet("switch clear", flag.ContinueOnError)
		name := fs.String("name", trigger.SwitchAll, "switch name")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		removed, err := svc.ClearKillSwitch(ctx, *name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "removed: %v\n", removed)
		return nil
	default:
		return fmt.Errorf("unknown switch subcommand %q", args[0])
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
