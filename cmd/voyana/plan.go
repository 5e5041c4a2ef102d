package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/briculinos/voyana/internal/events"
	"github.com/briculinos/voyana/internal/intent"
	"github.com/briculinos/voyana/internal/travel"
)

var (
	planOrigin    string
	planAdults    int
	planChildAges []int
)

var planCmd = &cobra.Command{
	Use:   "plan <request...>",
	Short: "Plan a trip from a free-text request",
	Long: `Run one planning request from the command line and print the three
itineraries. The request is free text, for example:

  voyana plan "a week in Rome in June for two, around 6000 euro"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.bus.Close()

	message := strings.Join(args, " ")
	fields := intent.StructuredFields{
		Origin:    planOrigin,
		Adults:    planAdults,
		ChildAges: planChildAges,
	}

	_, ch := a.runner.Run(cmd.Context(), message, fields)

	var result *events.Result
	for event := range ch {
		switch event.Type {
		case events.TypeStageCompleted:
			cmd.Printf("[%s] %s\n", event.Stage, event.Status)
		case events.TypeCompleted:
			result = event.Result
		case events.TypeFailed:
			return fmt.Errorf("planning failed at %s stage: %s [%s]",
				event.Failure.Stage, event.Failure.Message, event.Failure.Code)
		}
	}
	if result == nil {
		return fmt.Errorf("planning ended without a result")
	}

	printResult(cmd, result)
	return nil
}

func printResult(cmd *cobra.Command, result *events.Result) {
	in := result.Intent
	cmd.Println()
	cmd.Printf("Trip: %s to %s, %s to %s (%d days, %d travelers, budget %.0f %s)\n",
		in.Origin, in.Destination,
		in.DepartureDate.Format("2006-01-02"), in.ReturnDate.Format("2006-01-02"),
		in.DurationDays, in.PartySize(), in.Budget.Amount, in.Budget.Currency)

	for _, warning := range result.Warnings {
		cmd.Printf("Warning: %s\n", warning)
	}

	for _, it := range result.Itineraries {
		cmd.Println()
		cmd.Printf("=== %s ===\n", it.Title)
		cmd.Printf("%s\n", it.Summary)
		printFlight(cmd, it.Flight)
		for i := range it.Lodging {
			printLodging(cmd, &it.Lodging[i])
		}
		cmd.Printf("  Costs:   flights %.2f, lodging %.2f, activities %.2f, food %.2f\n",
			it.FlightCost, it.LodgingCost, it.ActivitiesCost, it.FoodCost)
		cmd.Printf("  Total:   %.2f %s\n", it.TotalCost, it.Currency)
		if it.DegradedCoverage {
			cmd.Println("  Note:    availability was limited for these dates")
		}
	}
}

func printFlight(cmd *cobra.Command, f travel.FlightOption) {
	if len(f.Outbound) == 0 {
		return
	}
	stops := "nonstop"
	if f.Stops == 1 {
		stops = "1 stop"
	} else if f.Stops > 1 {
		stops = fmt.Sprintf("%d stops", f.Stops)
	}
	cmd.Printf("  Flight:  %s, %s, %s via %s\n",
		f.Outbound[0].Departure.Format("Jan 2 15:04"), stops, f.Price, f.Source)
}

func printLodging(cmd *cobra.Command, l *travel.LodgingOption) {
	if l == nil {
		return
	}
	rating := "unrated"
	if l.Rating != nil {
		rating = fmt.Sprintf("%.1f/10", *l.Rating)
	}
	cmd.Printf("  Stay:    %s (%s), %d nights, %s/night\n",
		l.Name, rating, l.Nights(), l.NightlyPrice)
}

func init() {
	planCmd.Flags().StringVar(&planOrigin, "origin", "", "Departure city when not stated in the request")
	planCmd.Flags().IntVar(&planAdults, "adults", 0, "Number of adult travelers when not stated in the request")
	planCmd.Flags().IntSliceVar(&planChildAges, "child-age", nil, "Age of a child traveler (repeatable)")
}
