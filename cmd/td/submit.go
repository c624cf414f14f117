package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/adi-analytics/ticketdesk/internal/debug"
	"github.com/adi-analytics/ticketdesk/internal/intake"
	"github.com/adi-analytics/ticketdesk/internal/types"
	"github.com/adi-analytics/ticketdesk/internal/ui"
)

var submitCmd = &cobra.Command{
	Use:     "submit",
	Short:   "Submit a new analytics request",
	GroupID: "tickets",
	Long: `Submit a new analytics request, exactly as the web form would.

Fields come from flags, or from an interactive terminal form with --form.
The region, business segment and data manager are derived from the function.

Examples:
  td submit --function "Credit" --email jane.doe@example.com \
    --type "Report Request" --title "Aging report" --name "Weekly aging by branch" \
    --file aging.xlsx
  td submit --form`,
	Run: func(cmd *cobra.Command, args []string) {
		useForm, _ := cmd.Flags().GetBool("form")

		var sub intake.Submission
		var filePath string
		if useForm {
			var err error
			sub, filePath, err = runSubmitForm()
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Fprintln(os.Stderr, "Submission cancelled.")
				os.Exit(0)
			}
			if err != nil {
				FatalError("form error: %v", err)
			}
		} else {
			sub.Function, _ = cmd.Flags().GetString("function")
			sub.Email, _ = cmd.Flags().GetString("email")
			sub.RequestType, _ = cmd.Flags().GetString("type")
			sub.RequestTitle, _ = cmd.Flags().GetString("title")
			sub.RequestName, _ = cmd.Flags().GetString("name")
			filePath, _ = cmd.Flags().GetString("file")
		}

		if filePath != "" {
			file, err := readSubmissionFile(filePath, intakeOptions().MaxUploadBytes)
			if err != nil {
				FatalError("%v", err)
			}
			sub.File = file
		}

		router, _, err := loadRouter()
		if err != nil {
			FatalError("load routing rules: %v", err)
		}
		ticket, err := newIntakeService(router).Submit(cmd.Context(), sub, getActor())
		if err != nil {
			var verr *intake.ValidationError
			if errors.As(err, &verr) {
				FatalError("%s", verr.Message)
			}
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(ticket)
			return
		}
		debug.PrintNormal("%s Created ticket %d (%s / %s, data manager %s)\n",
			ui.RenderPass("✓"), ticket.ID, ticket.Region, ticket.BusinessSegment, ticket.DataManager)
		debug.PrintlnNormal(intake.SuccessMessage)
	},
}

func init() {
	f := submitCmd.Flags()
	f.Bool("form", false, "Fill in the request with an interactive form")
	f.String("function", "", "Requesting function")
	f.String("email", "", "Requestor email address")
	f.String("type", "", "Request type (Report Request, BI Tool Inquiry, BI Tool Request, Adhoc/Automated)")
	f.String("title", "", "Short request title")
	f.String("name", "", "Request description")
	f.String("file", "", "Spreadsheet to attach (.xlsx or .xls)")
	rootCmd.AddCommand(submitCmd)
}

// readSubmissionFile reads at most maxBytes+1 bytes so validation can
// reject an oversized file without loading all of it.
func readSubmissionFile(path string, maxBytes int64) (*intake.File, error) {
	f, err := os.Open(path) // #nosec G304 - path supplied by the user
	if err != nil {
		return nil, fmt.Errorf("open attachment: %w", err)
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, maxBytes+1)
	n, err := readFull(f, buf)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	return &intake.File{Name: filepath.Base(path), Data: buf[:n]}, nil
}

func runSubmitForm() (intake.Submission, string, error) {
	var sub intake.Submission
	var filePath string

	requestTypes := make([]string, 0, len(types.RequestTypes))
	for _, rt := range types.RequestTypes {
		requestTypes = append(requestTypes, string(rt))
	}
	required := func(msg string) func(string) error {
		return func(s string) error {
			if len(s) == 0 {
				return errors.New(msg)
			}
			return nil
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Function").
				Description("Which function is asking?").
				Options(huh.NewOptions(types.Functions...)...).
				Value(&sub.Function),

			huh.NewInput().
				Title("Email").
				Placeholder("jane.doe@example.com").
				Value(&sub.Email).
				Validate(required(intake.MsgEmail)),

			huh.NewSelect[string]().
				Title("Request Type").
				Options(huh.NewOptions(requestTypes...)...).
				Value(&sub.RequestType),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Request Title").
				Value(&sub.RequestTitle).
				Validate(required(intake.MsgRequestTitle)),

			huh.NewText().
				Title("Request").
				Description("What do you need? Markdown is fine.").
				CharLimit(5000).
				Value(&sub.RequestName).
				Validate(required(intake.MsgRequestName)),

			huh.NewInput().
				Title("Attachment").
				Description("Path to an .xlsx or .xls file (optional)").
				Value(&filePath),
		),
	)

	if err := form.Run(); err != nil {
		return sub, "", err
	}
	return sub, filePath, nil
}

// readFull fills buf as far as r allows. A short read is not an error.
func readFull(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return n, nil
	}
	return n, err
}
