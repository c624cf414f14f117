package intake

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adi-analytics/ticketdesk/internal/attachment"
	"github.com/adi-analytics/ticketdesk/internal/routing"
	"github.com/adi-analytics/ticketdesk/internal/storage/memory"
	"github.com/adi-analytics/ticketdesk/internal/types"
)

func validSubmission() Submission {
	return Submission{
		Function:     "Snap Sales",
		Email:        "jane.doe@example.com",
		RequestType:  "BI Tool Request",
		RequestTitle: "  Dealer scorecard  ",
		RequestName:  "Please build a dealer scorecard",
	}
}

func TestValidateOrder(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Submission)
		want   string
	}{
		{"valid", func(*Submission) {}, ""},
		{"no function", func(s *Submission) { s.Function = "" }, MsgFunction},
		{"placeholder function", func(s *Submission) { s.Function = "Select an Option" }, MsgFunction},
		{"function reported before email", func(s *Submission) { s.Function = ""; s.Email = "" }, MsgFunction},
		{"no email", func(s *Submission) { s.Email = "" }, MsgEmail},
		{"bad email", func(s *Submission) { s.Email = "jane@localhost" }, MsgEmail},
		{"email with spaces", func(s *Submission) { s.Email = "jane doe@example.com" }, MsgEmail},
		{"no request type", func(s *Submission) { s.RequestType = "" }, MsgRequestType},
		{"unknown request type", func(s *Submission) { s.RequestType = "Coffee" }, MsgRequestType},
		{"blank title", func(s *Submission) { s.RequestTitle = "   " }, MsgRequestTitle},
		{"blank name", func(s *Submission) { s.RequestName = "\n" }, MsgRequestName},
		{
			"file too large",
			func(s *Submission) { s.File = &File{Name: "big.xlsx", Data: make([]byte, DefaultMaxUploadBytes+1)} },
			MsgFileTooLarge,
		},
		{
			"file at limit",
			func(s *Submission) { s.File = &File{Name: "ok.xlsx", Data: make([]byte, DefaultMaxUploadBytes)} },
			"",
		},
		{"wrong extension", func(s *Submission) { s.File = &File{Name: "notes.csv", Data: []byte("a,b")} }, MsgFileType},
		{"upper-case extension", func(s *Submission) { s.File = &File{Name: "DATA.XLS", Data: []byte("x")} }, ""},
		{"empty file ignored", func(s *Submission) { s.File = &File{Name: "notes.csv"} }, ""},
		{"unknown function accepted", func(s *Submission) { s.Function = "EMEA Finance" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission()
			tt.mutate(&sub)
			err := Validate(sub, Options{})
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "want *ValidationError, got %v", err)
			assert.Equal(t, tt.want, verr.Message)
		})
	}
}

func TestValidateCustomOptions(t *testing.T) {
	sub := validSubmission()
	sub.File = &File{Name: "data.csv", Data: []byte("12345")}
	err := Validate(sub, Options{MaxUploadBytes: 4, AllowedExtensions: []string{"csv"}})
	assert.EqualError(t, err, MsgFileTooLarge)

	err = Validate(sub, Options{AllowedExtensions: []string{"xlsx"}})
	assert.EqualError(t, err, "Only .xlsx files are accepted.")
}

func TestSubmitRoutesAndStores(t *testing.T) {
	store := memory.New()
	svc := NewService(store, routing.NewRouter(nil), Options{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	sub := validSubmission()
	sub.File = &File{Name: "dealers.xlsx", Data: []byte("PK\x03\x04")}
	ticket, err := svc.Submit(ctx, sub, "jane.doe@example.com")
	require.NoError(t, err)
	require.NotZero(t, ticket.ID)

	got, err := store.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "dale.slaughenhaupt@adiglobal.com", got.DataManager)
	assert.Equal(t, types.RegionNA, got.Region)
	assert.Equal(t, types.SegmentSnapOne, got.BusinessSegment)
	assert.Equal(t, "Dealer scorecard", got.RequestTitle)
	assert.Equal(t, types.StatusNotAssigned, got.ProjectStatus)
	assert.Equal(t, "N", got.Assigned)
	require.NotNil(t, got.Download)
	assert.Equal(t, types.DownloadGlyph, *got.Download)

	data, err := attachment.Decode(got.Upload)
	require.NoError(t, err)
	assert.Equal(t, "PK\x03\x04", string(data))
}

func TestSubmitWithoutFile(t *testing.T) {
	store := memory.New()
	svc := NewService(store, nil, Options{}, nil)
	sub := validSubmission()
	sub.Function = "EMEA Finance"

	ticket, err := svc.Submit(context.Background(), sub, "tester")
	require.NoError(t, err)
	assert.Nil(t, ticket.Download)
	assert.Empty(t, ticket.Upload)
	assert.Empty(t, ticket.DataManager)
	assert.Equal(t, types.RegionEMEA, ticket.Region)
	assert.Equal(t, types.SegmentEMEA, ticket.BusinessSegment)
}

func TestSubmitValidationStoresNothing(t *testing.T) {
	store := memory.New()
	svc := NewService(store, nil, Options{}, nil)
	sub := validSubmission()
	sub.Email = "nope"

	_, err := svc.Submit(context.Background(), sub, "tester")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "valid email"))

	rows, _ := store.ListTickets(context.Background(), types.TicketFilter{})
	assert.Empty(t, rows)
}
