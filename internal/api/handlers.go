package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cabewaldrop/microdb/internal/catalog"
	"github.com/cabewaldrop/microdb/internal/record"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("OK"))
}

// handleCreateTable handles POST /tables.
func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req CreateTableRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fields := make([]catalog.FieldInfo, len(req.Fields))
	for i, f := range req.Fields {
		fi, err := f.toFieldInfo()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		fields[i] = fi
	}

	s.mu.Lock()
	err := s.db.CreateTable(req.Name, fields)
	s.mu.Unlock()
	if err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// handleDropTable handles DELETE /tables/{name}.
func (s *Server) handleDropTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	s.mu.Lock()
	err := s.db.DropTable(name)
	s.mu.Unlock()
	if err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleInsert handles POST /tables/{name}/rows.
func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req InsertRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	values := make([]record.FieldData, len(req.Values))
	for i, v := range req.Values {
		fd, err := v.toFieldData()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		values[i] = fd
	}

	s.mu.Lock()
	err := s.db.Insert(name, values)
	s.mu.Unlock()
	if err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// handleSelect handles POST /tables/{name}/query.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req ConditionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cond, err := req.toCondition()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	s.mu.Lock()
	rs, err := s.db.Select(name, cond)
	s.mu.Unlock()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordSetToResponse(rs))
}

// handleDelete handles POST /tables/{name}/delete.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req ConditionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cond, err := req.toCondition()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	s.mu.Lock()
	err = s.db.Delete(name, cond)
	s.mu.Unlock()
	if err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
