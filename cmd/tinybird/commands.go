package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinybird-go/tinybird-go"
)

func (a *app) queryCmd() *cobra.Command {
	var (
		format   string
		pipeline string
		params   []string
	)
	cmd := &cobra.Command{
		Use:               "query SQL",
		Short:             "Run a SQL query",
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: a.connect,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			extra, err := parseParams(params)
			if err != nil {
				return err
			}
			if format != string(tinybird.QueryFormatJSON) {
				data, err := a.client.Query.Export(ctx, args[0], tinybird.QueryFormat(format))
				if err != nil {
					return err
				}
				return a.write(data)
			}

			var opts *tinybird.QueryParams
			if pipeline != "" {
				opts = &tinybird.QueryParams{Pipeline: pipeline}
			}
			result, err := a.client.Query.SQL(ctx, args[0], opts, extra)
			if err != nil {
				return err
			}
			return a.print(result)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(tinybird.QueryFormatJSON), "ClickHouse output format")
	cmd.Flags().StringVar(&pipeline, "pipeline", "", "pipe that _ refers to")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "extra query parameter as key=value")
	return cmd
}

func (a *app) pipesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "pipes",
		Short:             "Inspect pipes and call their endpoints",
		PersistentPreRunE: a.connect,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List pipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			pipes, err := a.client.Pipes.List(ctx, &tinybird.PipesListParams{Dependencies: tinybird.Bool(false)})
			if err != nil {
				return err
			}
			return a.print(pipes)
		},
	}

	get := &cobra.Command{
		Use:   "get NAME",
		Short: "Show a pipe and its nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			pipe, err := a.client.Pipes.Retrieve(ctx, args[0])
			if err != nil {
				return err
			}
			return a.print(pipe)
		},
	}

	var format string
	data := &cobra.Command{
		Use:   "data NAME [key=value...]",
		Short: "Call a pipe endpoint",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			if format != string(tinybird.PipeFormatJSON) {
				out, err := a.client.Pipes.Export(ctx, args[0], tinybird.PipeFormat(format), params)
				if err != nil {
					return err
				}
				return a.write(out)
			}
			result, err := a.client.Pipes.Data(ctx, args[0], params)
			if err != nil {
				return err
			}
			return a.print(result)
		},
	}
	data.Flags().StringVarP(&format, "format", "f", string(tinybird.PipeFormatJSON), "endpoint format: json, csv, ndjson, parquet")

	var node string
	explain := &cobra.Command{
		Use:   "explain NAME [key=value...]",
		Short: "Show the query plan of a pipe",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			res, err := a.client.Pipes.Explain(ctx, args[0], node, params)
			if err != nil {
				return err
			}
			return a.print(res)
		},
	}
	explain.Flags().StringVar(&node, "node", "", "explain a single node")

	cmd.AddCommand(list, get, data, explain)
	return cmd
}

func (a *app) dataSourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "datasources",
		Aliases:           []string{"ds"},
		Short:             "Inspect data sources",
		PersistentPreRunE: a.connect,
	}

	var attrs []string
	list := &cobra.Command{
		Use:   "list",
		Short: "List data sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			list, err := a.client.DataSources.List(ctx, attrs...)
			if err != nil {
				return err
			}
			return a.print(list)
		},
	}
	list.Flags().StringSliceVar(&attrs, "attrs", nil, "attributes to return")

	get := &cobra.Command{
		Use:   "get NAME...",
		Short: "Show one or more data sources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			if len(args) == 1 {
				ds, err := a.client.DataSources.Retrieve(ctx, args[0])
				if err != nil {
					return err
				}
				return a.print(ds)
			}

			results, err := a.client.DataSources.RetrieveBatch(ctx, args)
			if err != nil {
				return err
			}
			out := make(map[string]any, len(results))
			for name, r := range results {
				if r.Err != nil {
					out[name] = map[string]string{"error": r.Err.Error()}
					continue
				}
				out[name] = r.Value
			}
			return a.print(out)
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}

func (a *app) jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "jobs",
		Short:             "Inspect, wait for and cancel jobs",
		PersistentPreRunE: a.connect,
	}

	var kind, status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			jobs, err := a.client.Jobs.List(ctx, &tinybird.JobsListParams{
				Kind:   tinybird.JobKind(kind),
				Status: tinybird.JobStatus(status),
			})
			if err != nil {
				return err
			}
			return a.print(jobs)
		},
	}
	list.Flags().StringVar(&kind, "kind", "", "filter by kind")
	list.Flags().StringVar(&status, "status", "", "filter by status")

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			job, err := a.client.Jobs.Retrieve(ctx, args[0])
			if err != nil {
				return err
			}
			return a.print(job)
		},
	}

	cancelCmd := &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			job, err := a.client.Jobs.Cancel(ctx, args[0])
			if err != nil {
				return err
			}
			return a.print(job)
		},
	}

	wait := &cobra.Command{
		Use:   "wait ID",
		Short: "Wait until a job finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			job, err := a.client.Jobs.Wait(ctx, args[0], tinybird.WithProgress(func(j *tinybird.Job) {
				fmt.Fprintf(a.cfg.Stderr, "job %s: %s\n", j.ID, j.Status)
			}))
			if job != nil {
				if perr := a.print(job); perr != nil {
					return perr
				}
			}
			return err
		},
	}

	cmd.AddCommand(list, get, cancelCmd, wait)
	return cmd
}

func (a *app) tokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "tokens",
		Short:             "Inspect tokens",
		PersistentPreRunE: a.connect,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			tokens, err := a.client.Tokens.List(ctx)
			if err != nil {
				return err
			}
			return a.print(tokens)
		},
	}

	get := &cobra.Command{
		Use:   "get NAME",
		Short: "Show a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()
			token, err := a.client.Tokens.Retrieve(ctx, args[0])
			if err != nil {
				return err
			}
			return a.print(token)
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}

func (a *app) eventsCmd() *cobra.Command {
	var (
		wait     bool
		compress string
	)
	cmd := &cobra.Command{
		Use:               "send DATASOURCE [FILE]",
		Short:             "Send NDJSON rows from FILE or stdin to a data source",
		Args:              cobra.RangeArgs(1, 2),
		PersistentPreRunE: a.connect,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			var (
				data []byte
				err  error
			)
			if len(args) == 2 && args[1] != "-" {
				data, err = os.ReadFile(args[1])
			} else {
				data, err = io.ReadAll(a.cfg.Stdin)
			}
			if err != nil {
				return fmt.Errorf("read events: %w", err)
			}

			var opts []tinybird.EventsOption
			if wait {
				opts = append(opts, tinybird.WithWait())
			}

			var res *tinybird.IngestResult
			switch tinybird.Compression(compress) {
			case tinybird.CompressionNone, "":
				res, err = a.client.Events.SendNDJSON(ctx, args[0], data, opts...)
			case tinybird.CompressionGzip, tinybird.CompressionGz:
				var body []byte
				if body, err = tinybird.Gzip(data); err == nil {
					res, err = a.client.Events.SendGzip(ctx, args[0], body, opts...)
				}
			case tinybird.CompressionZstd:
				var body []byte
				if body, err = tinybird.Zstd(data); err == nil {
					res, err = a.client.Events.SendZstd(ctx, args[0], body, opts...)
				}
			default:
				return fmt.Errorf("unknown compression %q", compress)
			}
			if err != nil {
				return err
			}
			return a.print(res)
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "wait until rows are written")
	cmd.Flags().StringVar(&compress, "compress", "", "compress the payload: gzip or zstd")

	events := &cobra.Command{
		Use:   "events",
		Short: "Ingest events",
	}
	events.AddCommand(cmd)
	return events
}
