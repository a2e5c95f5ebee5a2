package handlers

import (
	"bytes"
	"net/http"
	"net/url"
	"strconv"

	"github.com/testboard/engine/internal/export"
	"github.com/testboard/engine/internal/filter"
	"github.com/testboard/engine/internal/records"
	"github.com/testboard/engine/internal/services"
)

type TestCasesHandler struct {
	svc     services.TestCaseService
	imports services.ImportService
}

func NewTestCasesHandler(svc services.TestCaseService, imports services.ImportService) *TestCasesHandler {
	return &TestCasesHandler{svc: svc, imports: imports}
}

// queryFrom reads ?q, ?status and ?feature_id into a filter query.
func queryFrom(v url.Values) (filter.Query, error) {
	status, err := filter.ParseStatus(v.Get("status"))
	if err != nil {
		return filter.Query{}, err
	}
	q := filter.Query{Text: v.Get("q"), Status: status}
	if v.Has("feature_id") {
		scope := v.Get("feature_id")
		q.FeatureScope = &scope
	}
	return q, nil
}

func (h *TestCasesHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := queryFrom(r.URL.Query())
	if err != nil {
		writeErrorStr(w, r, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.svc.ListTestCases(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	paginate(w, r, items)
}

func (h *TestCasesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.TestCaseInput
	if !decodeJSON(w, r, &req) {
		return
	}
	tc, err := h.svc.CreateTestCase(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, r, http.StatusCreated, tc)
}

func (h *TestCasesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, valid := pathID(w, r)
	if !valid {
		return
	}
	tc, err := h.svc.GetTestCase(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, tc)
}

func (h *TestCasesHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id, valid := pathID(w, r)
	if !valid {
		return
	}
	var req services.TestCaseInput
	if !decodeJSON(w, r, &req) {
		return
	}
	tc, err := h.svc.ReplaceTestCase(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, tc)
}

func (h *TestCasesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, valid := pathID(w, r)
	if !valid {
		return
	}
	if err := h.svc.DeleteTestCase(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Import accepts a list or a keyed snapshot of test case records in any of
// the supported legacy shapes.
func (h *TestCasesHandler) Import(w http.ResponseWriter, r *http.Request) {
	body, valid := readBody(w, r)
	if !valid {
		return
	}
	items, err := records.DecodeCollection(body)
	if err != nil {
		writeErrorStr(w, r, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.imports.Import(r.Context(), records.Batch{TestCases: records.TestCases(items)})
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, res)
}

// Export renders the filtered table as a download. The document is built in
// memory so a failure can still be reported as JSON.
func (h *TestCasesHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeErrorStr(w, r, http.StatusBadRequest, err.Error())
		return
	}
	q, err := queryFrom(r.URL.Query())
	if err != nil {
		writeErrorStr(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := h.svc.ExportTestCases(r.Context(), &buf, q, format); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename()+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
