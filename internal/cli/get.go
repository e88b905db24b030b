package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	api "github.com/kaamsetu/kaamsetu/api/v1"
	"github.com/kaamsetu/kaamsetu/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
	"sigs.k8s.io/yaml"
)

const (
	jsonFormat = "json"
	yamlFormat = "yaml"
)

var (
	legalOutputTypes = []string{jsonFormat, yamlFormat}
)

type GetOptions struct {
	GlobalOptions

	Output   string
	Statuses []string
	Employer string
	Worker   string
	Limit    int
}

func DefaultGetOptions() *GetOptions {
	return &GetOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdGet() *cobra.Command {
	o := DefaultGetOptions()
	cmd := &cobra.Command{
		Use:   "get (TYPE | TYPE/ID)",
		Short: "Display one or many resources.",
		Example: "get jobs --status open,booked\n" +
			"get job/<job id>\n" +
			"get applications/<job id>\n" +
			"get profile/<worker id>\n" +
			"get assignment/<worker id>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *GetOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
	fs.StringSliceVarP(&o.Statuses, "status", "s", o.Statuses, "Only list jobs with these statuses")
	fs.StringVar(&o.Employer, "employer", o.Employer, "Only list jobs posted by this employer")
	fs.StringVar(&o.Worker, "worker", o.Worker, "Only list jobs assigned to this worker")
	fs.IntVar(&o.Limit, "limit", o.Limit, "Maximum number of jobs to list")
}

func (o *GetOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	return nil
}

func (o *GetOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}

	kind, id, err := parseAndValidateKindId(args[0])
	if err != nil {
		return err
	}

	if len(o.Output) > 0 && !funk.Contains(legalOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}

	listFlags := len(o.Statuses) > 0 || o.Employer != "" || o.Worker != "" || o.Limit > 0
	if listFlags && (kind != JobKind || id != "") {
		return fmt.Errorf("--status, --employer, --worker and --limit only apply to listing jobs")
	}

	return nil
}

func (o *GetOptions) Run(ctx context.Context, args []string) error {
	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	kind, id, err := parseAndValidateKindId(args[0])
	if err != nil {
		return err
	}

	resource, err := o.fetch(ctx, c, kind, id)
	if err != nil {
		if id == "" {
			return fmt.Errorf("listing %s: %w", plural(kind), err)
		}
		return fmt.Errorf("reading %s/%s: %w", kind, id, err)
	}

	return printResource(o.Out(), o.Output, resource)
}

func (o *GetOptions) fetch(ctx context.Context, c *client.Client, kind string, id string) (any, error) {
	switch kind {
	case JobKind:
		if id == "" {
			return c.ListJobs(ctx, client.JobListParams{
				Statuses: o.Statuses,
				Employer: o.Employer,
				Worker:   o.Worker,
				Limit:    o.Limit,
			})
		}
		jobID, err := parseJobID(id)
		if err != nil {
			return nil, err
		}
		return c.GetJob(ctx, jobID)
	case ApplicationKind:
		jobID, err := parseJobID(id)
		if err != nil {
			return nil, err
		}
		return c.ListApplications(ctx, jobID)
	case ProfileKind:
		return c.GetProfile(ctx, id)
	case AssignmentKind:
		return c.ActiveAssignment(ctx, id)
	default:
		return nil, fmt.Errorf("unsupported resource kind: %s", kind)
	}
}

func printResource(w io.Writer, output string, resource any) error {
	switch output {
	case jsonFormat:
		marshalled, err := json.Marshal(resource)
		if err != nil {
			return fmt.Errorf("marshalling resource: %w", err)
		}
		fmt.Fprintf(w, "%s\n", string(marshalled))
		return nil
	case yamlFormat:
		marshalled, err := yaml.Marshal(resource)
		if err != nil {
			return fmt.Errorf("marshalling resource: %w", err)
		}
		fmt.Fprintf(w, "%s\n", string(marshalled))
		return nil
	default:
		return printTable(w, resource)
	}
}

func printTable(out io.Writer, resource any) error {
	w := tabwriter.NewWriter(out, 0, 8, 1, '\t', 0)
	switch r := resource.(type) {
	case api.JobList:
		printJobsTable(w, r...)
	case *api.Job:
		printJobsTable(w, *r)
	case api.ApplicationList:
		printApplicationsTable(w, r...)
	case *api.WorkerProfile:
		fmt.Fprintln(w, "WORKER\tCOMPLETED\tRATINGS\tAVERAGE")
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\n", r.WorkerId, r.CompletedJobs, r.RatingCount, r.AverageRating)
	default:
		return fmt.Errorf("unknown resource type %T", resource)
	}
	return w.Flush()
}

func printJobsTable(w io.Writer, jobs ...api.Job) {
	fmt.Fprintln(w, "ID\tTITLE\tPAY\tLOCATION\tSTATUS\tWORKER\tCREATED")
	for _, j := range jobs {
		worker := "-"
		if j.AssignedWorkerId != nil {
			worker = *j.AssignedWorkerId
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n", j.Id, j.Title, j.Pay, j.Location, j.Status, worker, j.CreatedAt.Format(time.RFC3339))
	}
}

func printApplicationsTable(w io.Writer, applications ...api.Application) {
	fmt.Fprintln(w, "WORKER\tNAME\tPHONE\tSTATUS\tSUBMITTED")
	for _, a := range applications {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.WorkerId, a.WorkerName, a.WorkerPhone, a.Status, a.CreatedAt.Format(time.RFC3339))
	}
}
