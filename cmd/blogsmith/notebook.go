package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var notebookCmd = &cobra.Command{
	Use:   "notebook",
	Short: "Manage notebooks on the research service",
}

// --- list subcommand ---

var notebookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notebooks visible to the current session",
	RunE:  runNotebookList,
}

func runNotebookList(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	notebooks, err := client.ListNotebooks(context.Background())
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(notebooks)
	}

	if len(notebooks) == 0 {
		fmt.Println("No notebooks found.")
		return nil
	}
	for _, nb := range notebooks {
		fmt.Printf("%-40s  %s\n", nb.ID, nb.Title)
	}
	fmt.Printf("\n%d notebook(s)\n", len(notebooks))
	return nil
}

// --- create subcommand ---

var notebookCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a notebook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		nb, err := client.CreateNotebook(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Created notebook %s (%s)\n", nb.ID, nb.Title)
		return nil
	},
}

// --- delete subcommand ---

var notebookDeleteCmd = &cobra.Command{
	Use:   "delete <notebook-id>...",
	Short: "Delete notebooks by ID",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		for _, id := range args {
			if err := client.DeleteNotebook(context.Background(), id); err != nil {
				return fmt.Errorf("deleting %s: %w", id, err)
			}
			fmt.Printf("Deleted %s\n", id)
		}
		return nil
	},
}

// --- cleanup subcommand ---

var notebookCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete notebooks whose titles match a prefix",
	Long: `Cleanup deletes generated notebooks in bulk. Pipeline runs leave one
notebook per topic behind on the service; cleanup removes them by title
prefix. Use --dry-run to preview what would be deleted.`,
	RunE: runNotebookCleanup,
}

func runNotebookCleanup(cmd *cobra.Command, args []string) error {
	prefix, _ := cmd.Flags().GetString("prefix")
	if prefix == "" {
		return fmt.Errorf("--prefix is required: refusing to delete every notebook")
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	notebooks, err := client.ListNotebooks(context.Background())
	if err != nil {
		return err
	}

	deleted := 0
	for _, nb := range notebooks {
		if !strings.HasPrefix(nb.Title, prefix) {
			continue
		}
		if dryRun {
			fmt.Printf("would delete %s (%s)\n", nb.ID, nb.Title)
			deleted++
			continue
		}
		if err := client.DeleteNotebook(context.Background(), nb.ID); err != nil {
			fmt.Fprintf(os.Stderr, "warning: deleting %s: %v\n", nb.ID, err)
			continue
		}
		fmt.Printf("deleted %s (%s)\n", nb.ID, nb.Title)
		deleted++
	}

	if dryRun {
		fmt.Printf("\n%d notebook(s) would be deleted\n", deleted)
	} else {
		fmt.Printf("\n%d notebook(s) deleted\n", deleted)
	}
	return nil
}

func init() {
	notebookListCmd.Flags().Bool("json", false, "output notebooks as JSON")

	notebookCleanupCmd.Flags().String("prefix", "", "delete notebooks whose title starts with this prefix")
	notebookCleanupCmd.Flags().Bool("dry-run", false, "list matching notebooks without deleting")

	notebookCmd.AddCommand(notebookListCmd)
	notebookCmd.AddCommand(notebookCreateCmd)
	notebookCmd.AddCommand(notebookDeleteCmd)
	notebookCmd.AddCommand(notebookCleanupCmd)

	rootCmd.AddCommand(notebookCmd)
}
