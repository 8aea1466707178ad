package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	billingservices "github.com/nordwell/desk-sdk/modules/billing/services"
	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/dataset"
	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/importrun"
	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/mapping"
	"github.com/nordwell/desk-sdk/modules/dataio/infrastructure/decode"
	"github.com/nordwell/desk-sdk/modules/dataio/services"
	"github.com/nordwell/desk-sdk/pkg/application"
	"github.com/nordwell/desk-sdk/pkg/configuration"
	"github.com/nordwell/desk-sdk/pkg/httpapi"
	"github.com/nordwell/desk-sdk/pkg/middleware"
	"github.com/nordwell/desk-sdk/pkg/serrors"
)

// previewSampleSize caps how many mapped rows the preview response carries.
const previewSampleSize = 10

type ImportAPIController struct {
	app      application.Application
	decoder  *decode.Decoder
	mapper   *services.MappingService
	importer *services.ImportService
	exporter *services.ExportService
	basePath string
}

func NewImportAPIController(app application.Application) application.Controller {
	return &ImportAPIController{
		app:      app,
		decoder:  decode.NewDecoder(),
		mapper:   app.Service(services.MappingService{}).(*services.MappingService),
		importer: app.Service(services.ImportService{}).(*services.ImportService),
		exporter: app.Service(services.ExportService{}).(*services.ExportService),
		basePath: "/crm/api",
	}
}

func (c *ImportAPIController) Key() string {
	return c.basePath + "/import"
}

func (c *ImportAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.ProvideTenant())
	router.HandleFunc("/import/preview", c.Preview).Methods(http.MethodPost)
	// Run manages its own per-batch transactions; no WithTransaction here.
	router.HandleFunc("/import/run", c.Run).Methods(http.MethodPost)
	router.HandleFunc("/import/logs", c.Logs).Methods(http.MethodGet)
	router.HandleFunc("/export/{target}", c.Export).Methods(http.MethodGet)
}

// Preview decodes the upload and returns the proposed mapping plus a sample of
// mapped records, so the caller can adjust columns before running.
func (c *ImportAPIController) Preview(w http.ResponseWriter, r *http.Request) {
	target, ds, filename, ok := c.decodeUpload(w, r)
	if !ok {
		return
	}

	proposal := c.mapper.ProposeMapping(ds.Columns, target)
	suggestions := c.mapper.Suggestions(ds.Columns, proposal, target)

	sample := ds.Records
	if len(sample) > previewSampleSize {
		sample = sample[:previewSampleSize]
	}
	sampleDS := &dataset.Dataset{Columns: ds.Columns, Records: sample}

	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"filename":    filename,
		"target":      target,
		"columns":     ds.Columns,
		"records":     len(ds.Records),
		"mapping":     proposal,
		"suggestions": suggestions,
		"sample":      c.mapper.MapRecords(sampleDS, proposal, true),
	})
}

func (c *ImportAPIController) Run(w http.ResponseWriter, r *http.Request) {
	target, ds, filename, ok := c.decodeUpload(w, r)
	if !ok {
		return
	}

	opts := importrun.Options{
		SkipExisting:   formBool(r, "skip_existing"),
		UpdateExisting: formBool(r, "update_existing"),
		IncludeAll:     formBool(r, "include_all"),
	}
	if v := strings.TrimSpace(r.FormValue("batch_size")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.BatchSize = n
		}
	}

	fm := c.mapper.ProposeMapping(ds.Columns, target)
	if raw := strings.TrimSpace(r.FormValue("mapping")); raw != "" {
		fm = mapping.FieldMapping{}
		if err := json.Unmarshal([]byte(raw), &fm); err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "IMPORT_INVALID_MAPPING", "mapping is not valid json", nil)
			return
		}
	}

	summary, err := c.importer.Run(r.Context(), services.RunParams{
		Target:   target,
		Filename: filename,
		Records:  c.mapper.MapRecords(ds, fm, opts.IncludeAll),
		Options:  opts,
	})
	if err != nil {
		status := http.StatusUnprocessableEntity
		code := "IMPORT_FAILED"
		var coded *serrors.BaseError
		if errors.As(err, &coded) {
			code = coded.Code
			if coded.Is(billingservices.ErrQuotaExceeded) {
				status = http.StatusPaymentRequired
			}
		}
		_ = httpapi.WriteError(w, status, code, err.Error(), nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, summary)
}

func (c *ImportAPIController) Logs(w http.ResponseWriter, r *http.Request) {
	logs, err := c.importer.History(r.Context(), &importrun.LogFindParams{Limit: 50})
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "IMPORT_INTERNAL", "internal error", nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": logs})
}

func (c *ImportAPIController) Export(w http.ResponseWriter, r *http.Request) {
	target, ok := mapping.ParseTarget(mux.Vars(r)["target"])
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "EXPORT_INVALID_TARGET", "target must be customer or ticket", nil)
		return
	}
	format := services.FormatXLSX
	if v := strings.TrimSpace(r.URL.Query().Get("format")); v != "" {
		format = services.ExportFormat(v)
	}

	data, filename, err := c.exporter.Export(r.Context(), target, format)
	if err != nil {
		if errors.Is(err, services.ErrUnknownFormat) {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "EXPORT_UNKNOWN_FORMAT", "format must be xlsx or csv", nil)
			return
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "EXPORT_INTERNAL", "internal error", nil)
		return
	}

	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if format == services.FormatCSV {
		contentType = "text/csv"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (c *ImportAPIController) decodeUpload(w http.ResponseWriter, r *http.Request) (mapping.Target, *dataset.Dataset, string, bool) {
	conf := configuration.Use()
	if err := r.ParseMultipartForm(conf.MaxUploadSize); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "IMPORT_INVALID_UPLOAD", "expected multipart form upload", nil)
		return "", nil, "", false
	}

	target, ok := mapping.ParseTarget(r.FormValue("target"))
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "IMPORT_INVALID_TARGET", "target must be customer or ticket", nil)
		return "", nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "IMPORT_MISSING_FILE", "file field is required", nil)
		return "", nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, conf.MaxUploadSize))
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "IMPORT_UNREADABLE_FILE", "could not read upload", nil)
		return "", nil, "", false
	}

	ds, err := c.decoder.Decode(header.Filename, data)
	if err != nil {
		var decodeErr *dataset.DecodeError
		if errors.As(err, &decodeErr) {
			_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "IMPORT_DECODE_FAILED", decodeErr.Error(), nil)
			return "", nil, "", false
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "IMPORT_INTERNAL", "internal error", nil)
		return "", nil, "", false
	}
	return target, ds, header.Filename, true
}

func formBool(r *http.Request, field string) bool {
	switch strings.ToLower(strings.TrimSpace(r.FormValue(field))) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
