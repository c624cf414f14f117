package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/adi-analytics/ticketdesk/internal/attachment"
	"github.com/adi-analytics/ticketdesk/internal/debug"
)

var downloadCmd = &cobra.Command{
	Use:     "download <id>",
	Short:   "Save a ticket's attachment",
	GroupID: "tickets",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseTicketID(args[0])
		encoded, err := store.GetAttachment(cmd.Context(), id)
		if err != nil {
			FatalError("%v", err)
		}
		data, err := attachment.Decode(encoded)
		if errors.Is(err, attachment.ErrNoFile) {
			FatalError("No File")
		}
		if err != nil {
			FatalError("%v", err)
		}

		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = attachment.FileName(id)
		}
		if out == "-" {
			_, _ = cmd.OutOrStdout().Write(data)
			return
		}
		if err := os.WriteFile(out, data, 0o600); err != nil {
			FatalError("writing %s: %v", out, err)
		}
		debug.PrintNormal("Saved %s (%d bytes)\n", out, len(data))
	},
}

func init() {
	downloadCmd.Flags().StringP("output", "o", "", "Output path (default ticket_<id>.xlsx, - for stdout)")
	rootCmd.AddCommand(downloadCmd)
}
