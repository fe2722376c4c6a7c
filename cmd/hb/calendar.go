package main

import (
	"fmt"
	"time"

	"github.com/fs-ise/handbook-tools/internal/calendar"
	"github.com/spf13/cobra"
)

var calendarName string

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarCmd.Flags().StringVar(&calendarName, "name", "Lab events", "Calendar display name")
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Expand recurring events into an ICS feed",
	RunE:  runCalendar,
}

func runCalendar(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	ef, err := calendar.LoadEvents(cfg.Path(cfg.EventsFile))
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	if ef.Timezone == "" {
		ef.Timezone = cfg.Timezone
	}

	horizon := time.Duration(cfg.CalendarHorizonDays) * 24 * time.Hour
	occs, err := calendar.Expand(ef, horizon)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	outPath := cfg.Path(cfg.CalendarOutput)
	if err := calendar.WriteICS(outPath, calendarName, occs, time.Now()); err != nil {
		return err
	}

	fmt.Printf("wrote %d events to %s\n", len(occs), outPath)
	return nil
}
