package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adi-analytics/ticketdesk/internal/grid"
	"github.com/adi-analytics/ticketdesk/internal/intake"
	"github.com/adi-analytics/ticketdesk/internal/storage/memory"
	"github.com/adi-analytics/ticketdesk/internal/types"
)

type fixture struct {
	store  *memory.MemoryStorage
	intake *intake.Service
	server *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := intake.NewService(store, nil, intake.Options{}, logger)

	mux := http.NewServeMux()
	Register(mux, Deps{
		Tickets: store,
		Intake:  svc,
		Grid:    grid.NewService(store, logger),
		Actor:   "tester",
		Logger:  logger,
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		_ = store.Close()
	})
	return &fixture{store: store, intake: svc, server: srv}
}

func validSubmission() intake.Submission {
	return intake.Submission{
		Function:     "Data Analytics",
		Email:        "jane.doe@example.com",
		RequestType:  string(types.RequestReport),
		RequestTitle: "Weekly sales",
		RequestName:  "Sales by branch",
	}
}

func (f *fixture) seed(t *testing.T, file []byte) *types.Ticket {
	t.Helper()
	sub := validSubmission()
	if file != nil {
		sub.File = &intake.File{Name: "data.xlsx", Data: file}
	}
	ticket, err := f.intake.Submit(context.Background(), sub, "seed")
	require.NoError(t, err)
	return ticket
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("upload", fileName)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func formFields() map[string]string {
	return map[string]string{
		"function_name":   "Data Analytics",
		"requestor_email": "jane.doe@example.com",
		"request_type":    string(types.RequestReport),
		"request_title":   "Weekly sales",
		"request_name":    "Sales by branch",
	}
}

func TestIntakePage(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.server.URL + "/")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="requestor_email"`)
	assert.Contains(t, body, "Data Analytics")
}

func TestSubmitForm(t *testing.T) {
	f := newFixture(t)
	body, ctype := multipartBody(t, formFields(), "data.xlsx", []byte("sheet"))
	resp, err := http.Post(f.server.URL+"/submit", ctype, body)
	require.NoError(t, err)
	page := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, page, "successfully submitted")

	tickets, err := f.store.ListTickets(context.Background(), types.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.True(t, tickets[0].HasAttachment())
	assert.Equal(t, types.StatusNotAssigned, tickets[0].ProjectStatus)
}

func TestSubmitFormValidation(t *testing.T) {
	f := newFixture(t)

	t.Run("bad email keeps values", func(t *testing.T) {
		fields := formFields()
		fields["requestor_email"] = "not-an-email"
		body, ctype := multipartBody(t, fields, "", nil)
		resp, err := http.Post(f.server.URL+"/submit", ctype, body)
		require.NoError(t, err)
		page := readBody(t, resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, page, "Please enter a valid email address.")
		assert.Contains(t, page, "Weekly sales")
	})

	t.Run("wrong extension", func(t *testing.T) {
		body, ctype := multipartBody(t, formFields(), "data.csv", []byte("a,b"))
		resp, err := http.Post(f.server.URL+"/submit", ctype, body)
		require.NoError(t, err)
		page := readBody(t, resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, page, intake.MsgFileType)
	})

	t.Run("file too large", func(t *testing.T) {
		big := bytes.Repeat([]byte("x"), intake.DefaultMaxUploadBytes+10)
		body, ctype := multipartBody(t, formFields(), "data.xlsx", big)
		resp, err := http.Post(f.server.URL+"/submit", ctype, body)
		require.NoError(t, err)
		page := readBody(t, resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, page, "too large")
	})

	t.Run("oversized file before the fields keeps values", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("upload", "data.xlsx")
		require.NoError(t, err)
		_, err = fw.Write(bytes.Repeat([]byte("x"), 3*intake.DefaultMaxUploadBytes))
		require.NoError(t, err)
		for k, v := range formFields() {
			require.NoError(t, mw.WriteField(k, v))
		}
		require.NoError(t, mw.Close())

		resp, err := http.Post(f.server.URL+"/submit", mw.FormDataContentType(), &buf)
		require.NoError(t, err)
		page := readBody(t, resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, page, "too large")
		assert.Contains(t, page, "Weekly sales")
		assert.Contains(t, page, "jane.doe@example.com")
		assert.Contains(t, page, "Sales by branch")
	})

	tickets, err := f.store.ListTickets(context.Background(), types.TicketFilter{})
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestCreateJSON(t *testing.T) {
	f := newFixture(t)

	payload := map[string]string{
		"function":      "Data Analytics",
		"email":         "jane.doe@example.com",
		"request_type":  string(types.RequestBIInquiry),
		"request_title": "Dashboard access",
		"request_name":  "Need access",
		"file_name":     "q.xlsx",
		"file_base64":   base64.StdEncoding.EncodeToString([]byte("sheet")),
	}
	raw, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/api/tickets", bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(ActorHeader, "jane")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body := readBody(t, resp)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "/api/tickets/1", resp.Header.Get("Location"))

	events, err := f.store.GetEvents(context.Background(), 1, 0)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, "jane", events[0].Actor)

	payload["request_title"] = "  "
	raw, _ = json.Marshal(payload)
	resp, err = http.Post(f.server.URL+"/api/tickets", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	body = readBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, intake.MsgRequestTitle)
}

func TestListAndDetail(t *testing.T) {
	f := newFixture(t)
	ticket := f.seed(t, nil)

	resp, err := http.Get(f.server.URL + "/api/tickets?status=All")
	require.NoError(t, err)
	var list struct {
		Tickets []*types.Ticket `json:"tickets"`
	}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &list))
	require.Len(t, list.Tickets, 1)
	assert.Equal(t, ticket.ID, list.Tickets[0].ID)

	resp, err = http.Get(f.server.URL + "/api/tickets?status=Completed")
	require.NoError(t, err)
	list.Tickets = nil
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &list))
	assert.Empty(t, list.Tickets)

	resp, err = http.Get(f.server.URL + "/api/tickets/1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = readBody(t, resp)

	resp, err = http.Get(f.server.URL + "/api/tickets/99")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = readBody(t, resp)

	resp, err = http.Get(f.server.URL + "/api/tickets/abc")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = readBody(t, resp)
}

func TestAttachmentDownload(t *testing.T) {
	f := newFixture(t)
	withFile := f.seed(t, []byte("spreadsheet bytes"))
	withoutFile := f.seed(t, nil)

	resp, err := http.Get(f.server.URL + "/api/tickets/" + itoa(withFile.ID) + "/attachment")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "spreadsheet bytes", body)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "ticket_1.xlsx")
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "application/vnd.openxmlformats"))

	resp, err = http.Get(f.server.URL + "/api/tickets/" + itoa(withoutFile.ID) + "/attachment")
	require.NoError(t, err)
	body = readBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, NoFileMessage)
}

func TestGridPage(t *testing.T) {
	f := newFixture(t)
	f.seed(t, []byte("x"))

	resp, err := http.Get(f.server.URL + "/grid?region=All")
	require.NoError(t, err)
	page := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, page, `id="grid-baseline"`)
	assert.Contains(t, page, "/api/tickets/1/attachment")
}

func postApply(t *testing.T, url string, req applyRequest) (*http.Response, string) {
	t.Helper()
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(url+"/api/grid/apply", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func TestGridApply(t *testing.T) {
	f := newFixture(t)
	f.seed(t, nil)
	f.seed(t, nil)

	baseline, err := f.store.ListTickets(context.Background(), types.TicketFilter{})
	require.NoError(t, err)
	edited := make([]*types.Ticket, len(baseline))
	for i, row := range baseline {
		edited[i] = row.Clone()
	}
	edited[0].AssignedName = types.StringPtr("Dana")
	edited[0].ProjectStatus = types.StatusCompleted

	resp, body := postApply(t, f.server.URL, applyRequest{Baseline: baseline, Edited: edited})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	var out applyResponse
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, grid.AppliedMessage, out.Message)
	assert.Empty(t, out.Errors)
	require.Len(t, out.Rows, 2)

	got, err := f.store.GetTicket(context.Background(), baseline[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Y", got.Assigned)
	assert.Equal(t, types.StatusCompleted, got.ProjectStatus)
	assert.NotNil(t, got.DateCompleted)

	events, err := f.store.GetEvents(context.Background(), baseline[0].ID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, "tester", events[0].Actor)
}

func TestGridApplyShapeMismatch(t *testing.T) {
	f := newFixture(t)
	f.seed(t, nil)
	f.seed(t, nil)

	baseline, err := f.store.ListTickets(context.Background(), types.TicketFilter{})
	require.NoError(t, err)
	edited := []*types.Ticket{baseline[0].Clone()}
	edited[0].Comments = types.StringPtr("changed")

	resp, body := postApply(t, f.server.URL, applyRequest{Baseline: baseline, Edited: edited})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, grid.ShapeMismatchMessage)

	got, err := f.store.GetTicket(context.Background(), baseline[0].ID)
	require.NoError(t, err)
	assert.Nil(t, got.Comments)
}

func TestGridApplyInvalidDateIsWarning(t *testing.T) {
	f := newFixture(t)
	f.seed(t, nil)

	baseline, err := f.store.ListTickets(context.Background(), types.TicketFilter{})
	require.NoError(t, err)
	edited := []*types.Ticket{baseline[0].Clone()}
	edited[0].ETC = types.StringPtr("xyzzy")
	edited[0].Comments = types.StringPtr("still written")

	resp, body := postApply(t, f.server.URL, applyRequest{Baseline: baseline, Edited: edited})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	var out applyResponse
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "Invalid date 'xyzzy' for ETC")

	got, err := f.store.GetTicket(context.Background(), baseline[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "still written", types.Deref(got.Comments))
	assert.Nil(t, got.ETC)
}

func TestOptions(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.server.URL + "/api/options")
	require.NoError(t, err)
	var out struct {
		Filters        types.FilterOptions `json:"filters"`
		MaxUploadBytes int64               `json:"max_upload_bytes"`
	}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &out))
	assert.Equal(t, types.FilterAll, out.Filters.Regions[0])
	assert.Equal(t, int64(intake.DefaultMaxUploadBytes), out.MaxUploadBytes)
}

func TestHandlersWithoutStore(t *testing.T) {
	mux := http.NewServeMux()
	Register(mux, Deps{})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	for _, path := range []string{"/api/tickets", "/api/tickets/1", "/api/tickets/1/attachment", "/grid"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err, path)
		_ = readBody(t, resp)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, path)
	}
}

func TestWriteJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteServiceUnavailable(rec, " down ", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"down"}`, rec.Body.String())
}

func TestFilterFromQuery(t *testing.T) {
	q := map[string][]string{
		"region":  {"NA"},
		"segment": {"All"},
		"status":  {" Pending "},
	}
	f := filterFromQuery(q)
	assert.Equal(t, types.TicketFilter{Region: "NA", ProjectStatus: "Pending"}, f)
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
