package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kdudkov/scanrelay/internal/catalog"
	"github.com/kdudkov/scanrelay/pkg/model"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [id...]",
	Short: "Check the talkgroup file",
	Long: `Load the talkgroup file the same way the server does and print the
result as yaml. With ids given only those entries are printed.`,
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.Flags().StringP("file", "f", "", "talkgroup csv file, overrides the config")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("file")
	if name == "" {
		name = cfg.TalkgroupFile()
	}

	cat, err := catalog.LoadFile(name)
	if err != nil {
		return err
	}

	out, err := catalogDump(cat, args)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), out)

	return nil
}

func catalogDump(cat *catalog.Catalog, ids []string) (string, error) {
	entries := make(map[string]*model.TalkgroupInfo)

	if len(ids) == 0 {
		entries = cat.All()
	}

	var missing []string

	for _, id := range ids {
		id = model.NormalizeID(id)

		if info, ok := cat.Lookup(id); ok {
			entries[id] = info
		} else {
			missing = append(missing, id)
		}
	}

	b, err := yaml.Marshal(entries)
	if err != nil {
		return "", err
	}

	s := string(b)

	for _, id := range missing {
		s += fmt.Sprintf("# %s: not found\n", id)
	}

	return s, nil
}
