package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"autorepair/config"
	"autorepair/internal/backup"
	"autorepair/internal/store"
	"autorepair/internal/util"

	"github.com/samber/lo"
)

const usage = `usage: backup <command> [arguments]

commands:
  create [-name file.db]   copy the database into the backup directory
  restore <path>          replace the database with a backup (stop the server first)
  list                    list backups, newest first
  delete <name|path>      remove a backup
  vacuum                  rebuild the database file
  check                   run the integrity check
  info                    print row counts and file size
`

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	if cfg.Database.Driver != config.DriverSQLite {
		log.Fatalf("Backups need DB_DRIVER=%s, got %s", config.DriverSQLite, cfg.Database.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	manager := backup.NewManager(cfg.Database.DSN, cfg.Backup.Dir)
	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "create":
		fs := flag.NewFlagSet("create", flag.ExitOnError)
		name := fs.String("name", "", "backup file name")
		_ = fs.Parse(args)

		path, err := manager.Backup(*name)
		if err != nil {
			log.Fatalf("Backup failed: %v", err)
		}
		fmt.Println(path)

	case "restore":
		if len(args) != 1 {
			log.Fatal("restore needs the backup path")
		}
		if err := manager.Restore(ctx, args[0]); err != nil {
			log.Fatalf("Restore failed: %v", err)
		}
		fmt.Printf("Restored %s into %s\n", args[0], cfg.Database.DSN)

	case "list":
		files, err := manager.List()
		if err != nil {
			log.Fatalf("Failed to list backups: %v", err)
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
		for _, f := range files {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", f.Name, f.SizeBytes, f.ModTime.Format(time.DateTime))
		}
		_ = tw.Flush()

	case "delete":
		if len(args) != 1 {
			log.Fatal("delete needs a backup name or path")
		}
		if err := manager.Delete(args[0]); err != nil {
			log.Fatalf("Delete failed: %v", err)
		}

	case "vacuum", "check", "info":
		db, err := store.NewStore(cfg.Database)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()

		if err := runMaintenance(ctx, db, cmd); err != nil {
			log.Fatalf("%s failed: %v", cmd, err)
		}

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func runMaintenance(ctx context.Context, db *store.Store, cmd string) error {
	switch cmd {
	case "vacuum":
		return db.Vacuum(ctx)

	case "check":
		problems, err := db.IntegrityCheck(ctx)
		if err != nil {
			return err
		}
		if len(problems) > 0 {
			for _, p := range problems {
				fmt.Println(p)
			}
			return fmt.Errorf("%d problems found", len(problems))
		}
		fmt.Println("ok")

	case "info":
		info, err := db.Info(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("driver: %s\npath:   %s\nsize:   %d bytes\n", info.Driver, info.Path, info.SizeBytes)
		tables := lo.Keys(info.RowCounts)
		slices.Sort(tables)
		for _, table := range tables {
			fmt.Printf("  %-20s %d\n", table, info.RowCounts[table])
		}
	}
	return nil
}
