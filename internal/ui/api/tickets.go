package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/adi-analytics/ticketdesk/internal/attachment"
	"github.com/adi-analytics/ticketdesk/internal/storage"
	"github.com/adi-analytics/ticketdesk/internal/types"
)

// NoFileMessage is returned when a ticket has no attachment.
const NoFileMessage = "No File"

func ticketID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ticket id %q", r.PathValue("id"))
	}
	return id, nil
}

// NewListHandler returns the filtered ticket rows as JSON.
func NewListHandler(d Deps) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d.Tickets == nil {
			WriteServiceUnavailable(w, "ticket list unavailable", "")
			return
		}
		filter := filterFromQuery(r.URL.Query())
		tickets, err := d.Tickets.ListTickets(r.Context(), filter)
		if err != nil {
			WriteJSONError(w, http.StatusInternalServerError, "list tickets failed", err.Error())
			return
		}
		if tickets == nil {
			tickets = []*types.Ticket{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"filter":  filter,
			"tickets": tickets,
		})
	})
}

// NewDetailHandler returns one ticket as JSON.
func NewDetailHandler(d Deps) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d.Tickets == nil {
			WriteServiceUnavailable(w, "ticket store unavailable", "")
			return
		}
		id, err := ticketID(r)
		if err != nil {
			WriteJSONError(w, http.StatusBadRequest, err.Error(), "")
			return
		}
		ticket, err := d.Tickets.GetTicket(r.Context(), id)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ticket)
	})
}

// NewAttachmentHandler streams a ticket's attachment as ticket_<id>.xlsx.
func NewAttachmentHandler(d Deps) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d.Tickets == nil {
			WriteServiceUnavailable(w, "attachments unavailable", "")
			return
		}
		id, err := ticketID(r)
		if err != nil {
			WriteJSONError(w, http.StatusBadRequest, err.Error(), "")
			return
		}
		encoded, err := d.Tickets.GetAttachment(r.Context(), id)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		data, err := attachment.Decode(encoded)
		if errors.Is(err, attachment.ErrNoFile) {
			WriteJSONError(w, http.StatusNotFound, NoFileMessage, "")
			return
		}
		if err != nil {
			d.logger().Error("attachment decode failed", "id", id, "error", err)
			WriteJSONError(w, http.StatusInternalServerError, "attachment is corrupt", err.Error())
			return
		}

		w.Header().Set("Content-Type", attachment.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, attachment.FileName(id)))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	})
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		WriteJSONError(w, http.StatusNotFound, "ticket not found", err.Error())
		return
	}
	WriteJSONError(w, http.StatusInternalServerError, "load ticket failed", err.Error())
}

// NewOptionsHandler returns the selector and form option lists.
func NewOptionsHandler(d Deps) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"filters":   types.DefaultFilterOptions(),
			"functions": types.Functions,
			"statuses":  types.ProjectStatuses,
			"editable":  types.EditableColumns,
			"columns":   types.DisplayColumns,
		}
		if d.Intake != nil {
			opts := d.Intake.Options()
			resp["max_upload_bytes"] = opts.MaxUploadBytes
			resp["allowed_extensions"] = opts.AllowedExtensions
		}
		writeJSON(w, http.StatusOK, resp)
	})
}
