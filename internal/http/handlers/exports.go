package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"explorer/internal/bulkexport"
)

// maxExportBody bounds the JSON body of a bulk export request.
const maxExportBody = 64 << 10

func (a *App) ExportsPage(w http.ResponseWriter, r *http.Request) {
	a.page(w, r, http.StatusOK, "exports", "Bulk Export", "exports", exportsView{MaxEntities: a.Config.ExportMaxEntities}, nil)
}

// BulkExport runs a multi-entity export and answers with the stored file.
func (a *App) BulkExport(w http.ResponseWriter, r *http.Request) {
	var req bulkexport.Request
	dec := json.NewDecoder(io.LimitReader(r.Body, maxExportBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	res, err := a.Exporter.Export(r.Context(), req)
	switch {
	case bulkexport.IsInvalid(err):
		a.error(w, http.StatusBadRequest, "invalid_export", err.Error())
		return
	case err != nil && r.Context().Err() != nil:
		a.error(w, http.StatusServiceUnavailable, "canceled", "Export canceled")
		return
	case err != nil:
		a.Logger.Error().Err(err).Str("kind", req.Kind).Int("entities", len(req.EntityIDs)).Msg("bulk export failed")
		a.error(w, http.StatusInternalServerError, "export_failed", "Export failed")
		return
	}
	a.json(w, http.StatusOK, res)
}
