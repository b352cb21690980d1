package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/azournas/art-agent/internal/artifacts"
	"github.com/azournas/art-agent/internal/coda"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Browse and pull experiment data from Coda",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accessible Coda documents",
	RunE:  runDocsList,
}

var docsTablesCmd = &cobra.Command{
	Use:   "tables [doc-id]",
	Short: "List the data tables of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsTables,
}

var docsPullCmd = &cobra.Command{
	Use:   "pull [doc-id] [table-id]",
	Short: "Download a table as CSV into the workspace",
	Args:  cobra.ExactArgs(2),
	RunE:  runDocsPull,
}

var docsAttachmentsCmd = &cobra.Command{
	Use:   "attachments [doc-id] [table-id] [column]",
	Short: "List or download file attachments from a table column",
	Args:  cobra.ExactArgs(3),
	RunE:  runDocsAttachments,
}

var (
	docsPullOutput          string
	docsAttachmentsDownload bool
	docsAttachmentsDest     string
)

func init() {
	docsPullCmd.Flags().StringVarP(&docsPullOutput, "output", "o", "", "Destination CSV path under the workspace root (required)")
	_ = docsPullCmd.MarkFlagRequired("output")

	docsAttachmentsCmd.Flags().BoolVar(&docsAttachmentsDownload, "download", false, "Download the attachments instead of listing them")
	docsAttachmentsCmd.Flags().StringVar(&docsAttachmentsDest, "dest", "", "Destination directory for downloads")

	docsCmd.AddCommand(docsListCmd, docsTablesCmd, docsPullCmd, docsAttachmentsCmd)
	rootCmd.AddCommand(docsCmd)
}

// codaClient builds a Coda client from the merged configuration.
func codaClient(cmd *cobra.Command) (*coda.Client, *artifacts.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.CodaAPIKey == "" {
		return nil, nil, fmt.Errorf("a Coda API key is required (CODA_API_KEY)")
	}

	client, err := coda.NewClient(cfg.CodaAPIKey, nil)
	if err != nil {
		return nil, nil, err
	}

	store, err := artifacts.NewStore(cfg.SandboxRoot)
	if err != nil {
		return nil, nil, err
	}
	return client, store, nil
}

func runDocsList(cmd *cobra.Command, _ []string) error {
	client, _, err := codaClient(cmd)
	if err != nil {
		return err
	}

	docs, err := client.ListDocs(cmd.Context())
	if err != nil {
		return err
	}

	for _, doc := range docs {
		fmt.Printf("%s\t%s\n", doc.ID, doc.Name)
	}
	return nil
}

func runDocsTables(cmd *cobra.Command, args []string) error {
	client, _, err := codaClient(cmd)
	if err != nil {
		return err
	}

	tables, err := client.ListTables(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s\t%s\n", tables[name], name)
	}
	return nil
}

func runDocsPull(cmd *cobra.Command, args []string) error {
	client, store, err := codaClient(cmd)
	if err != nil {
		return err
	}

	content, err := client.GetTableContent(cmd.Context(), args[0], args[1], func(header []string, rows [][]string) (string, error) {
		return store.SaveCSV(docsPullOutput, header, rows)
	})
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d rows x %d columns to %s\n", content.NumRows, content.NumColumns, content.Path)
	return nil
}

// attachmentDest resolves the download directory against the restricted
// workspace root. Runs before anything is written so an escaping destination
// never causes a filesystem mutation.
func attachmentDest(store *artifacts.Store, dest string) (string, error) {
	if dest == "" {
		return store.Root(), nil
	}
	return store.Resolve(dest)
}

func runDocsAttachments(cmd *cobra.Command, args []string) error {
	client, store, err := codaClient(cmd)
	if err != nil {
		return err
	}

	attachments, err := client.GetAttachments(cmd.Context(), args[0], args[1], args[2])
	if err != nil {
		return err
	}

	if !docsAttachmentsDownload {
		for _, att := range attachments {
			fmt.Printf("%s\t%s\t%s\n", att.RowID, att.Name, att.MimeType)
		}
		return nil
	}

	dest, err := attachmentDest(store, docsAttachmentsDest)
	if err != nil {
		return err
	}
	paths, err := client.DownloadAttachments(cmd.Context(), attachments, dest)
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Println(path)
	}
	return nil
}
