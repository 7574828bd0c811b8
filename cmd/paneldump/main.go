package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"ccm-system/internal/panel"
	"ccm-system/pkg/logger"
)

// paneldump is a headless exercise of the panel core: it logs in, pulls the
// equipment list and status counters, applies an optional search, and writes
// the visible rows to an xlsx file.
func main() {
	var (
		baseURL  = flag.String("base", "http://localhost:5172", "server base URL")
		username = flag.String("user", "", "login username")
		password = flag.String("pass", "", "login password")
		status   = flag.String("status", "", "status filter to apply")
		search   = flag.String("search", "", "search term to apply")
		out      = flag.String("out", "equipment.xlsx", "output workbook path")
	)
	flag.Parse()

	log := logger.NewLogger()
	defer log.Sync()

	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: paneldump -user NAME -pass SECRET [-base URL] [-status S] [-search TERM] [-out FILE]")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sessionPath := filepath.Join(os.TempDir(), "paneldump-session.json")
	session := panel.NewSession(sessionPath, log)
	client := panel.NewClient(panel.Endpoints{
		Equipment: *baseURL,
		Report:    *baseURL,
		Auth:      *baseURL,
	}, session, log)

	if err := client.Login(ctx, *username, *password); err != nil {
		log.Fatal("login failed", zap.Error(err))
	}

	list := panel.NewListController(client, session, log)
	if *status != "" {
		if err := list.ApplyStatusFilter(ctx, *status); err != nil {
			log.Fatal("fetch failed", zap.Error(err))
		}
	} else if err := list.FetchRecords(ctx); err != nil {
		log.Fatal("fetch failed", zap.Error(err))
	}
	if err := list.FetchStatusCounts(ctx); err != nil {
		log.Fatal("status counts failed", zap.Error(err))
	}
	list.SetSearchTerm(*search)

	for st, count := range list.StatusCounts() {
		fmt.Printf("%s\t%d\n", st, count)
	}
	fmt.Printf("visible rows: %d\n", len(list.VisibleRecords()))

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal("cannot create output file", zap.Error(err))
	}
	defer f.Close()

	if err := list.ExportVisible(f); err != nil {
		if errors.Is(err, panel.ErrNothingToExport) {
			log.Warn("no rows to export, workbook not written")
			os.Remove(*out)
			return
		}
		log.Fatal("export failed", zap.Error(err))
	}
	log.Info("workbook written", zap.String("path", *out))
}
