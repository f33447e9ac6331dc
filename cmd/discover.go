package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ruslanmv/jobcraft/internal/discovery"
	"github.com/ruslanmv/jobcraft/internal/safety"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Fetch job postings from compliant board APIs",
}

var discoverGreenhouseCmd = &cobra.Command{
	Use:   "greenhouse [board-token]",
	Short: "List the jobs of a Greenhouse board",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		discover(cmd, "greenhouse", args[0])
	},
}

var discoverLeverCmd = &cobra.Command{
	Use:   "lever [company]",
	Short: "List the postings of a Lever company",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		discover(cmd, "lever", args[0])
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
	discoverCmd.AddCommand(discoverGreenhouseCmd)
	discoverCmd.AddCommand(discoverLeverCmd)

	discoverCmd.PersistentFlags().StringP("countries", "c", "", "comma-separated country codes to filter by (default from settings)")
}

func discover(cmd *cobra.Command, source, target string) {
	logger := newLogger()
	static, _, _, _ := coreServices(logger)

	csv := cmd.Flag("countries").Value.String()
	if csv == "" {
		csv = static.DefaultCountries
	}
	countries := safety.ParseCountries(csv)

	client := discovery.NewClient(logger)

	var jobs []discovery.JobPosting
	var err error
	switch source {
	case "greenhouse":
		jobs, err = client.Greenhouse(context.Background(), target, countries)
	case "lever":
		jobs, err = client.Lever(context.Background(), target, countries)
	}
	if err != nil {
		logger.Fatal("discovery failed", zap.Error(err))
	}

	for _, jp := range jobs {
		loc := jp.Location
		if loc == "" {
			loc = "-"
		}
		fmt.Printf("%s | %s | %s | %s\n", jp.Title, jp.Company, loc, jp.URL)
	}
	fmt.Printf("%d postings\n", len(jobs))
}
