package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the registered tools and resources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, io.Discard)
			if err != nil {
				return err
			}
			defer a.close()

			d := a.server.Dispatcher()
			tools := d.ListTools(cmd.Context())
			resources := d.ListResources(cmd.Context())
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"tools":     tools.Tools,
					"resources": resources.Resources,
				})
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tID\tDESCRIPTION")
			for _, t := range tools.Tools {
				fmt.Fprintf(w, "tool\t%s\t%s\n", t.Name, t.Description)
			}
			for _, r := range resources.Resources {
				fmt.Fprintf(w, "resource\t%s\t%s\n", r.URI, r.Description)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print descriptors as JSON")
	return cmd
}
