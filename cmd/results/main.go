// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Command results prints live election results as tables.
//
//	results -server http://localhost:3318 -election election_1 -watch
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/danielhkuo/campus-tally/models"
)

func main() {
	server := flag.String("server", "http://localhost:3318", "API base URL")
	electionID := flag.String("election", "", "Election id (required)")
	watch := flag.Bool("watch", false, "Re-render whenever results change")
	flag.Parse()

	if *electionID == "" {
		fmt.Fprintln(os.Stderr, "-election is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &client{base: strings.TrimRight(*server, "/"), http: &http.Client{Timeout: 10 * time.Second}}

	if err := c.show(ctx, os.Stdout, *electionID); err != nil {
		slog.Error("failed to fetch results", "election_id", *electionID, "error", err)
		os.Exit(1)
	}
	if !*watch {
		return
	}

	// Streams stay open, so they use a client without a timeout
	c.stream = &http.Client{}
	if err := c.watch(ctx, os.Stdout, *electionID); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("watch stopped", "election_id", *electionID, "error", err)
		os.Exit(1)
	}
}

type client struct {
	base   string
	http   *http.Client
	stream *http.Client
}

func (c *client) endpoint(electionID, resource string) string {
	return c.base + "/elections/" + url.PathEscape(electionID) + "/" + resource
}

func (c *client) fetch(ctx context.Context, electionID string) (models.ResultsSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(electionID, "results"), nil)
	if err != nil {
		return models.ResultsSnapshot{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return models.ResultsSnapshot{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e models.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
			return models.ResultsSnapshot{}, fmt.Errorf("server returned %d", resp.StatusCode)
		}
		return models.ResultsSnapshot{}, fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Message)
	}

	var res models.ResultsSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return models.ResultsSnapshot{}, fmt.Errorf("failed to decode results: %w", err)
	}
	return res, nil
}

func (c *client) show(ctx context.Context, w io.Writer, electionID string) error {
	res, err := c.fetch(ctx, electionID)
	if err != nil {
		return err
	}
	render(w, res, time.Now())
	return nil
}

// watch re-renders on every update marker. Markers may be coalesced by the
// server, so each one triggers a full refetch.
func (c *client) watch(ctx context.Context, w io.Writer, electionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(electionID, "updates"), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if scanner.Text() != "event: update" {
			continue
		}
		fmt.Fprintln(w)
		if err := c.show(ctx, w, electionID); err != nil {
			slog.Warn("refresh failed", "election_id", electionID, "error", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return ctx.Err()
}

// render prints one table per position followed by a turnout line
func render(w io.Writer, res models.ResultsSnapshot, now time.Time) {
	for _, p := range res.Positions {
		fmt.Fprintf(w, "%s (choose %d) - %s votes\n", p.Title, p.MaxSelections, humanize.Comma(int64(p.TotalVotes)))

		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Rank", "Candidate", "Roll No", "Votes", "Updated"})
		table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
		table.SetCenterSeparator("|")

		for _, c := range p.Candidates {
			name := c.Name
			if c.CandidateID == p.WinnerID {
				name += " *"
			}
			table.Append([]string{
				fmt.Sprint(c.Rank),
				name,
				c.RollNumber,
				humanize.Comma(int64(c.Votes)),
				since(c.LastUpdated, now),
			})
		}
		table.Render()

		if p.RunnerUpID != "" {
			fmt.Fprintf(w, "Margin: %.1f%%\n", p.Margin)
		}
		fmt.Fprintln(w)
	}

	s := res.Statistics
	if s.TotalVoters > 0 {
		fmt.Fprintf(w, "Turnout: %s of %s (%.1f%%), updated %s\n",
			humanize.Comma(int64(s.TotalVoted)), humanize.Comma(int64(s.TotalVoters)),
			s.VotingPercentage, since(s.LastUpdated, now))
	} else {
		fmt.Fprintf(w, "Turnout: %s voted, updated %s\n", humanize.Comma(int64(s.TotalVoted)), since(s.LastUpdated, now))
	}
}

func since(t *time.Time, now time.Time) string {
	if t == nil {
		return "never"
	}
	return humanize.RelTime(*t, now, "ago", "from now")
}
