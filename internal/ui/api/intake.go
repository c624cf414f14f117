package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/adi-analytics/ticketdesk/internal/intake"
	"github.com/adi-analytics/ticketdesk/internal/types"
	"github.com/adi-analytics/ticketdesk/internal/ui/templates"
)

// multipartOverhead is allowed on top of the upload limit for the text fields.
const multipartOverhead = 1 << 20

// oversizeFactor sets the hard cap on a form body as a multiple of the upload
// limit. Uploads between the limit and the cap are read and discarded so the
// fields after them still parse.
const oversizeFactor = 16

// maxFieldBytes bounds a single text field of the intake form.
const maxFieldBytes = 64 << 10

func intakePage(d Deps, sub intake.Submission, message string) ([]byte, error) {
	opts := d.Intake.Options()
	requestTypes := make([]string, 0, len(types.RequestTypes))
	for _, rt := range types.RequestTypes {
		requestTypes = append(requestTypes, string(rt))
	}
	return templates.RenderIntake(templates.IntakePageData{
		Functions:    types.Functions,
		RequestTypes: requestTypes,
		Extensions:   opts.AllowedExtensions,
		MaxUploadMB:  float64(opts.MaxUploadBytes) / 1_000_000,
		Error:        message,
		Values: map[string]string{
			"function_name":   sub.Function,
			"requestor_email": sub.Email,
			"request_type":    sub.RequestType,
			"request_title":   sub.RequestTitle,
			"request_name":    sub.RequestName,
		},
	})
}

// NewIntakePageHandler serves the empty request form.
func NewIntakePageHandler(d Deps) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d.Intake == nil {
			WriteServiceUnavailable(w, "intake unavailable", "")
			return
		}
		page, err := intakePage(d, intake.Submission{}, "")
		if err != nil {
			http.Error(w, fmt.Sprintf("render intake form: %v", err), http.StatusInternalServerError)
			return
		}
		writeHTML(w, http.StatusOK, page)
	})
}

// NewSubmitFormHandler accepts the multipart intake form. Validation errors
// re-render the form with the message and the entered values.
func NewSubmitFormHandler(d Deps) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d.Intake == nil {
			WriteServiceUnavailable(w, "intake unavailable", "")
			return
		}
		maxUpload := d.Intake.Options().MaxUploadBytes
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload*oversizeFactor+multipartOverhead)
		sub, err := readSubmission(r, maxUpload)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				renderIntakeError(w, d, sub, intake.MsgFileTooLarge)
				return
			}
			http.Error(w, fmt.Sprintf("parse form: %v", err), http.StatusBadRequest)
			return
		}

		ticket, err := d.Intake.Submit(r.Context(), sub, d.actor(r))
		if err != nil {
			var verr *intake.ValidationError
			if errors.As(err, &verr) {
				renderIntakeError(w, d, sub, verr.Message)
				return
			}
			d.logger().Error("ticket submission failed", "error", err)
			renderIntakeError(w, d, sub, "Error inserting into database: "+err.Error())
			return
		}

		page, err := templates.RenderSuccess(templates.SuccessPageData{
			Message:  intake.SuccessMessage,
			TicketID: ticket.ID,
		})
		if err != nil {
			http.Error(w, fmt.Sprintf("render confirmation: %v", err), http.StatusInternalServerError)
			return
		}
		writeHTML(w, http.StatusOK, page)
	})
}

func renderIntakeError(w http.ResponseWriter, d Deps, sub intake.Submission, message string) {
	page, err := intakePage(d, sub, message)
	if err != nil {
		http.Error(w, message, http.StatusBadRequest)
		return
	}
	writeHTML(w, http.StatusBadRequest, page)
}

// readSubmission streams the multipart intake form. Fields read before an
// error are returned with it.
func readSubmission(r *http.Request, maxUpload int64) (intake.Submission, error) {
	var sub intake.Submission
	mr, err := r.MultipartReader()
	if err != nil {
		return sub, err
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return sub, nil
		}
		if err != nil {
			return sub, err
		}

		if part.FormName() == "upload" {
			file, err := readUpload(part, maxUpload)
			if err != nil {
				return sub, err
			}
			sub.File = file
			continue
		}

		value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
		if err != nil {
			return sub, err
		}
		switch part.FormName() {
		case "function_name":
			sub.Function = string(value)
		case "requestor_email":
			sub.Email = string(value)
		case "request_type":
			sub.RequestType = string(value)
		case "request_title":
			sub.RequestTitle = string(value)
		case "request_name":
			sub.RequestName = string(value)
		}
	}
}

// readUpload keeps at most maxUpload+1 bytes, enough for validation to see
// an oversized file, and discards the rest of the part.
func readUpload(part *multipart.Part, maxUpload int64) (*intake.File, error) {
	data, err := io.ReadAll(io.LimitReader(part, maxUpload+1))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(io.Discard, part); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &intake.File{Name: part.FileName(), Data: data}, nil
}

type createRequest struct {
	intake.Submission
	FileName   string `json:"file_name,omitempty"`
	FileBase64 string `json:"file_base64,omitempty"`
}

// NewCreateHandler accepts a JSON submission. The attachment, if any, is
// carried base64-encoded.
func NewCreateHandler(d Deps) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d.Intake == nil {
			WriteServiceUnavailable(w, "intake unavailable", "")
			return
		}
		maxUpload := d.Intake.Options().MaxUploadBytes
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload*2+multipartOverhead)
		defer r.Body.Close() // nolint:errcheck

		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteJSONError(w, http.StatusBadRequest, "decode payload", err.Error())
			return
		}
		sub := req.Submission
		if req.FileBase64 != "" {
			data, err := base64.StdEncoding.DecodeString(req.FileBase64)
			if err != nil {
				WriteJSONError(w, http.StatusBadRequest, "file_base64 is not valid base64", err.Error())
				return
			}
			sub.File = &intake.File{Name: req.FileName, Data: data}
		}

		ticket, err := d.Intake.Submit(r.Context(), sub, d.actor(r))
		if err != nil {
			var verr *intake.ValidationError
			if errors.As(err, &verr) {
				WriteJSONError(w, http.StatusBadRequest, verr.Message, verr.Field)
				return
			}
			d.logger().Error("ticket submission failed", "error", err)
			WriteJSONError(w, http.StatusInternalServerError, "create ticket failed", err.Error())
			return
		}

		w.Header().Set("Location", "/api/tickets/"+strconv.FormatInt(ticket.ID, 10))
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": intake.SuccessMessage,
			"ticket":  ticket,
		})
	})
}
