package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/focusd/internal/config"
	"git.home.luguber.info/inful/focusd/internal/store"
)

// HistoryCmd implements the 'history' command. It reads the session
// database directly, so it works whether or not the daemon is running.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of sessions to show" default:"10"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.ConfigPath())
	if err != nil {
		return err
	}

	st, err := store.NewSQLiteStore(cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	records, err := st.Recent(ctx, h.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no finished sessions yet")
		return nil
	}

	for _, r := range records {
		focused := time.Duration(r.ElapsedSeconds) * time.Second
		fmt.Printf("%s  %-12s %-14s %s  (%d check-ins)\n",
			r.EndedAt.Local().Format("2006-01-02 15:04"),
			r.State, r.Mode,
			formatSeconds(int64(focused.Seconds())),
			r.CheckInCount)
	}
	return nil
}
