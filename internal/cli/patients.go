package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/me/asilo/internal/patients"
	"github.com/me/asilo/pkg/directory"
	"github.com/me/asilo/pkg/model"
)

func defaultDirectoryURL() string {
	if s := os.Getenv("ASILO_DIRECTORY_URL"); s != "" {
		return s
	}
	return directory.DefaultBaseURL
}

func newPatientsCmd() *cobra.Command {
	var (
		query        string
		asJSON       bool
		direct       bool
		directoryURL string
		limit        int
	)

	cmd := &cobra.Command{
		Use:   "patients",
		Short: "List patients",
		Long: `List patients, optionally filtered by a text query matched against
first name, last name, email, phone and city.

By default the list is fetched from the Asilo server. With --direct the
patient directory is queried without a server. Ctrl-C abandons the request
without reporting an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
			defer stop()

			var (
				list model.PatientList
				err  error
			)
			if direct {
				list, err = listDirect(ctx, directory.Config{
					BaseURL: directoryURL,
					Path:    directory.DefaultPath,
					Limit:   limit,
					Timeout: directory.DefaultTimeout,
				}, query)
			} else {
				list, err = client.ListPatients(ctx, query)
			}
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				logger.Debug("patient listing cancelled")
				return nil
			}
			if err != nil {
				return fmt.Errorf("list patients: %w", err)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), list)
			}
			writePatientTable(cmd.OutOrStdout(), list)
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	cmd.Flags().BoolVar(&direct, "direct", false, "Query the patient directory instead of the server")
	cmd.Flags().StringVar(&directoryURL, "directory-url", defaultDirectoryURL(), "Patient directory base URL for --direct (or ASILO_DIRECTORY_URL env)")
	cmd.Flags().IntVar(&limit, "limit", directory.DefaultLimit, "Maximum records to request with --direct (1-100)")

	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// listDirect mounts a local view against the directory and waits for it to
// settle. The view reports failures with the same generic message the
// dashboard shows.
func listDirect(ctx context.Context, cfg directory.Config, query string) (model.PatientList, error) {
	if _, err := cfg.Endpoint(); err != nil {
		return model.PatientList{}, err
	}

	v := patients.NewView("cli", directory.NewClient(cfg, logger), patients.WithLogger(logger))
	v.SetQuery(query)
	v.Mount(ctx)
	defer v.Unmount()

	if err := v.Wait(ctx); err != nil {
		return model.PatientList{}, err
	}

	snap := v.Snapshot()
	if snap.Presentation() == patients.PresentError {
		return model.PatientList{}, errors.New(snap.Error)
	}
	return model.PatientList{
		Query:    query,
		Total:    snap.Total,
		Matched:  len(snap.Records),
		Patients: snap.Records,
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writePatientTable(w io.Writer, list model.PatientList) {
	if len(list.Patients) == 0 {
		if patients.NormalizeQuery(list.Query) != "" {
			fmt.Fprintf(w, "Sin resultados para “%s”.\n", list.Query)
		} else {
			fmt.Fprintln(w, "No hay pacientes para mostrar.")
		}
		return
	}

	fmt.Fprintf(w, "%-28s  %-32s  %-20s  %-18s  %s\n", "NOMBRE", "CORREO", "TELÉFONO", "CIUDAD", "EDAD")
	fmt.Fprintf(w, "%-28s  %-32s  %-20s  %-18s  %s\n", "------", "------", "--------", "------", "----")
	for _, p := range list.Patients {
		fmt.Fprintf(w, "%-28s  %-32s  %-20s  %-18s  %s\n",
			p.FullName(), orDash(p.Email), orDash(p.Phone), orDash(p.City()), ageLabel(p.Age))
	}
	if list.Matched < list.Total {
		fmt.Fprintf(w, "\n(%d de %d pacientes)\n", list.Matched, list.Total)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func ageLabel(age *int) string {
	if age == nil {
		return "-"
	}
	return strconv.Itoa(*age)
}
