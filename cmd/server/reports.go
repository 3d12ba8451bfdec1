package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/hours-engine/api"
	"github.com/warp/hours-engine/factory"
	"github.com/warp/hours-engine/generic"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func summaryCmd() *cobra.Command {
	var employeeID string
	var year, month int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print an employee summary for a month, or the year without --month",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.service.EmployeeSummary(cmd.Context(), employeeID, year, month)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), api.ToSummaryDTO(summary))
		},
	}

	cmd.Flags().StringVar(&employeeID, "employee", "", "Employee ID")
	cmd.Flags().IntVar(&year, "year", generic.Today().Year(), "Year")
	cmd.Flags().IntVar(&month, "month", 0, "Month 1-12 (0 for the whole year)")
	_ = cmd.MarkFlagRequired("employee")
	return cmd
}

func billingCmd() *cobra.Command {
	var employeeID, companyID string
	var year, month int

	cmd := &cobra.Command{
		Use:   "billing",
		Short: "Print the billing window referenced by --year/--month for an employee or a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (employeeID == "") == (companyID == "") {
				return fmt.Errorf("exactly one of --employee or --company must be specified")
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if companyID != "" {
				report, err := a.service.CompanyBilling(cmd.Context(), companyID, year, month)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), api.ToCompanyBillingDTO(report))
			}
			report, err := a.service.EmployeeBilling(cmd.Context(), employeeID, year, month)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), api.ToBillingDTO(report))
		},
	}

	today := generic.Today()
	cmd.Flags().StringVar(&employeeID, "employee", "", "Employee ID")
	cmd.Flags().StringVar(&companyID, "company", "", "Company ID")
	cmd.Flags().IntVar(&year, "year", today.Year(), "Reference year")
	cmd.Flags().IntVar(&month, "month", int(today.Month()), "Reference month 1-12")
	return cmd
}

func projectionCmd() *cobra.Command {
	var employeeID string
	var year int

	cmd := &cobra.Command{
		Use:   "projection",
		Short: "Print an employee's projected year",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			forecast, err := a.service.EmployeeProjection(cmd.Context(), employeeID, year)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), api.ToProjectionDTO(forecast))
		},
	}

	cmd.Flags().StringVar(&employeeID, "employee", "", "Employee ID")
	cmd.Flags().IntVar(&year, "year", generic.Today().Year(), "Year")
	_ = cmd.MarkFlagRequired("employee")
	return cmd
}

func rollupCmd() *cobra.Command {
	var teamID string
	var year, month int

	cmd := &cobra.Command{
		Use:   "rollup",
		Short: "Print a team rollup, or the organization rollup without --team",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if teamID != "" {
				team, err := a.service.TeamRollup(cmd.Context(), teamID, year, month)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), api.ToTeamRollupDTO(team))
			}
			org, err := a.service.OrganizationRollup(cmd.Context(), year, month)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), api.ToOrganizationRollupDTO(org))
		},
	}

	cmd.Flags().StringVar(&teamID, "team", "", "Team ID")
	cmd.Flags().IntVar(&year, "year", generic.Today().Year(), "Year")
	cmd.Flags().IntVar(&month, "month", 0, "Month 1-12 (0 for the whole year)")
	return cmd
}

func importHolidaysCmd() *cobra.Command {
	var country, region, city string

	cmd := &cobra.Command{
		Use:   "import-holidays FILE",
		Short: "Load holidays from a production-calendar file",
		Long:  "Each line is `YYYY-MM-DD type working_hours [note]`; holiday and recurring lines are stored for the given scope (global without --country).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open calendar file: %w", err)
			}
			defer f.Close()

			scope := generic.Location{Country: country, Region: region, City: city}
			hols, err := factory.New().ReadHolidays(f, scope, a.logger)
			if err != nil {
				return err
			}
			return saveHolidays(cmd.Context(), a, hols, scope)
		},
	}

	cmd.Flags().StringVar(&country, "country", "", "Country scope")
	cmd.Flags().StringVar(&region, "region", "", "Region scope (requires --country)")
	cmd.Flags().StringVar(&city, "city", "", "City scope (requires --country)")
	return cmd
}

func saveHolidays(ctx context.Context, a *app, hols []generic.Holiday, scope generic.Location) error {
	for _, h := range hols {
		if err := a.store.SaveHoliday(ctx, h); err != nil {
			return fmt.Errorf("save holiday %s: %w", h.Date, err)
		}
	}
	a.logger.Info("Holidays imported",
		zap.Int("count", len(hols)),
		zap.Stringer("scope", scope))
	return nil
}
