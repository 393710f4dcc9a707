package main

import (
	"fmt"

	"github.com/deppfellow/openwork/internal/config"
	"github.com/deppfellow/openwork/internal/database"
	"github.com/deppfellow/openwork/internal/lib/utils"
	"github.com/deppfellow/openwork/internal/logger"
	"github.com/deppfellow/openwork/internal/query"
	"github.com/deppfellow/openwork/internal/repository"
	"github.com/deppfellow/openwork/internal/service"
	"github.com/spf13/cobra"
)

type queryFlags struct {
	filters        []string
	timestamps     string
	project        string
	sort           string
	desc           bool
	limit          int
	withAttributes bool
}

// buildQuery turns the command line into a query. Filters use the
// field:operator:value[,value] form, e.g. description:~:original.
func (f queryFlags) buildQuery() (query.Query, error) {
	var q query.Query

	for _, expr := range f.filters {
		filter, err := query.ParseFilter(expr)
		if err != nil {
			return q, err
		}
		q.Filters = append(q.Filters, filter)
	}

	timestamps, err := query.ParseTimestamps(f.timestamps)
	if err != nil {
		return q, err
	}
	q.Timestamps = timestamps

	if f.project != "" {
		id, err := utils.ParseID(f.project)
		if err != nil {
			return q, fmt.Errorf("--project: %w", err)
		}
		q.ProjectID = &id
	}

	q.Sort.Field = query.SortField(f.sort)
	if f.desc {
		q.Sort.Direction = query.SortDesc
	}
	q.Limit = f.limit
	return q, nil
}

func newQueryCmd() *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a work package query and print the results as JSON",
		Example: `  openwork query --filter description:~:original --timestamp 2022-08-01T00:00:00Z,PT0S
  openwork query --filter file_link_origin_id:=:42 --project 1`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := flags.buildQuery()
			if err != nil {
				return err
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			log := logger.NewLoggerWithService(cfg.Observability, nil)

			db, err := database.New(cfg, &log, nil)
			if err != nil {
				return err
			}
			defer db.Close()

			repos := repository.NewRepositoriesWithPool(db.Pool)
			queries := service.NewQueryService(repos.Query, repos.Journal, cfg.Query, nil, &log)

			res, err := queries.Results(cmd.Context(), q, flags.withAttributes)
			if err != nil {
				return err
			}
			return utils.PrintJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringArrayVarP(&flags.filters, "filter", "f", nil, "filter as field:operator:values (repeatable)")
	cmd.Flags().StringVarP(&flags.timestamps, "timestamp", "t", "", "comma separated timestamps (ISO 8601 date-times or durations such as P-1D)")
	cmd.Flags().StringVarP(&flags.project, "project", "p", "", "restrict to a project id")
	cmd.Flags().StringVar(&flags.sort, "sort", "", "sort by id, subject, created_at or updated_at")
	cmd.Flags().BoolVar(&flags.desc, "desc", false, "sort descending")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "maximum number of results")
	cmd.Flags().BoolVar(&flags.withAttributes, "attributes", false, "include each result's state at every timestamp")

	return cmd
}
