package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tracker/internal/cache"
	"tracker/internal/report"
)

var lookupMatch string

var lookupCmd = &cobra.Command{
	Use:   "lookup <name#tag>",
	Short: "Print a player's profile, stats and current-season matches",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func init() {
	lookupCmd.Flags().StringVar(&lookupMatch, "match", "", "also print the scoreboard for this match id")
}

func runLookup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	name, tag, err := splitRiotID(args[0])
	if err != nil {
		return err
	}

	store, err := cache.Open(ctx, cfg.CacheURL)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	svc, _, err := newService(store, nil)
	if err != nil {
		return err
	}

	page, err := svc.Load(ctx, name, tag)
	if err != nil {
		return fmt.Errorf("load %s#%s: %w", name, tag, err)
	}
	report.PrintPage(os.Stdout, page)

	if lookupMatch != "" {
		sb, err := svc.Scoreboard(ctx, page.SessionID, name, tag, lookupMatch)
		if err != nil {
			return fmt.Errorf("scoreboard %s: %w", lookupMatch, err)
		}
		report.PrintScoreboard(os.Stdout, *sb)
	}
	return nil
}

// splitRiotID splits "Name#Tag" at the last '#'.
func splitRiotID(id string) (string, string, error) {
	i := strings.LastIndex(id, "#")
	if i <= 0 || i == len(id)-1 {
		return "", "", fmt.Errorf("invalid Riot ID %q, expected Name#Tag", id)
	}
	return strings.TrimSpace(id[:i]), strings.TrimSpace(id[i+1:]), nil
}
