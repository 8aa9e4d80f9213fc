package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ConcealedGem/versa-chat-view/internal/interfaces"
	"github.com/ConcealedGem/versa-chat-view/internal/model"
	"github.com/ConcealedGem/versa-chat-view/internal/render"
)

func init() {
	assistantsCmd.Flags().String("switch", "", "make the assistant with this id active")
	toolsCmd.Flags().String("delete", "", "delete the tool with this name")
	rootCmd.AddCommand(assistantsCmd, toolsCmd, uploadCmd)
}

var assistantsCmd = &cobra.Command{
	Use:   "assistants",
	Short: "List the backend assistants or switch the active one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		if id, _ := cmd.Flags().GetString("switch"); id != "" {
			if err := a.Client.SwitchAssistant(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Switched to assistant %s\n", id)
			return nil
		}
		return printAssistants(cmd, a.Client)
	},
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the backend tools or delete one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		if name, _ := cmd.Flags().GetString("delete"); name != "" {
			if err := a.Client.DeleteTool(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted tool %s\n", name)
			return nil
		}
		return printTools(cmd, a.Client)
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <path>",
	Short: "Upload a file and print its message part",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		part, err := a.Client.UploadFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printFilePart(cmd.OutOrStdout(), part)
		return nil
	},
}

func printAssistants(cmd *cobra.Command, svc interfaces.AgentService) error {
	list, err := svc.ListAssistants(cmd.Context())
	if err != nil {
		return err
	}
	activeID := ""
	if list.Active != nil {
		activeID = list.Active.ID
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tNAME\tDESCRIPTION")
	for _, assistant := range list.Assistants {
		marker := ""
		if assistant.ID == activeID {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, assistant.ID, assistant.Name, assistant.Description)
	}
	return w.Flush()
}

func printTools(cmd *cobra.Command, svc interfaces.AgentService) error {
	tools, err := svc.ListTools(cmd.Context())
	if err != nil {
		return err
	}
	if len(tools) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tools registered.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tSTATUS\tDESCRIPTION")
	for _, tool := range tools {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", tool.Name, tool.Version, tool.Status, tool.Description)
	}
	return w.Flush()
}

func printFilePart(w io.Writer, part model.ContentPart) {
	if part.File == nil {
		return
	}
	fmt.Fprintf(w, "name: %s\nurl:  %s\n", part.File.Name, part.File.URL)
	if part.File.FileSizeKB != nil {
		fmt.Fprintf(w, "size: %s\n", render.FileSize(part.File.FileSizeKB))
	}
	if part.File.Message != "" {
		fmt.Fprintf(w, "note: %s\n", part.File.Message)
	}
}
