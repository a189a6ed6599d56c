package main

import (
	"net/http"

	"github.com/lychee-technology/eav"
)

type createEntityTypeRequest struct {
	Name string `json:"name"`
}

type createEntityRequest struct {
	EntityType string `json:"entity_type"`
	Name       string `json:"name"`
}

type createAttributeRequest struct {
	EntityTypeID  int64  `json:"entity_type_id"`
	Name          string `json:"name"`
	ValueType     string `json:"value_type"`
	AllowMultiple bool   `json:"allow_multiple"`
}

// serve runs fn under the store lock and writes its result.
func serve[T any](s *Server, w http.ResponseWriter, status int, fn func() (T, error)) {
	result, err := func() (T, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn()
	}()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeSuccess(w, status, result)
}

// ack is serve for operations that return nothing.
func ack(s *Server, w http.ResponseWriter, fn func() error) {
	serve(s, w, http.StatusOK, func() (any, error) {
		return nil, fn()
	})
}

// handleConnect handles POST /api/v1/connect
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	ack(s, w, func() error { return s.store.Connect(r.Context()) })
}

// handleHealth handles GET /api/v1/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ack(s, w, func() error { return s.store.Ping(r.Context()) })
}

// handleListEntityTypes handles GET /api/v1/entity-types[?ids=1,2]
func (s *Server) handleListEntityTypes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Has("ids") {
		ids, err := parseIDList(q, "ids")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		serve(s, w, http.StatusOK, func() ([]eav.EntityType, error) {
			return s.store.ListEntityTypesByIDs(r.Context(), ids)
		})
		return
	}
	serve(s, w, http.StatusOK, func() ([]eav.EntityType, error) {
		return s.store.ListEntityTypes(r.Context())
	})
}

// handleCreateEntityType handles POST /api/v1/entity-types
func (s *Server) handleCreateEntityType(w http.ResponseWriter, r *http.Request) {
	var req createEntityTypeRequest
	if err := readJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body: "+err.Error())
		return
	}
	serve(s, w, http.StatusCreated, func() (*eav.EntityType, error) {
		return s.store.CreateEntityType(r.Context(), req.Name)
	})
}

// handleGetEntityType handles GET /api/v1/entity-types/{id}
func (s *Server) handleGetEntityType(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	serve(s, w, http.StatusOK, func() (*eav.EntityType, error) {
		return s.store.GetEntityType(r.Context(), id)
	})
}

// handleDeleteEntityType handles DELETE /api/v1/entity-types/{id}
func (s *Server) handleDeleteEntityType(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ack(s, w, func() error { return s.store.DeleteEntityType(r.Context(), id) })
}

// handleListEntities handles GET /api/v1/entity-types/{id}/entities?page=N
func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := parsePage(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	serve(s, w, http.StatusOK, func() ([]eav.Entity, error) {
		return s.store.ListEntities(r.Context(), id, page)
	})
}

// handleListAttributes handles GET /api/v1/entity-types/{id}/attributes?multi_only=true
func (s *Server) handleListAttributes(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	multiOnly, err := parseBool(r.URL.Query(), "multi_only")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	serve(s, w, http.StatusOK, func() ([]eav.Attribute, error) {
		return s.store.ListAttributes(r.Context(), id, multiOnly)
	})
}

// handleEntityTypeSchema handles GET /api/v1/entity-types/{id}/schema
func (s *Server) handleEntityTypeSchema(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	serve(s, w, http.StatusOK, func() (any, error) {
		return s.store.EntityTypeSchema(r.Context(), id)
	})
}

// handleCreateEntity handles POST /api/v1/entities
func (s *Server) handleCreateEntity(w http.ResponseWriter, r *http.Request) {
	var req createEntityRequest
	if err := readJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body: "+err.Error())
		return
	}
	serve(s, w, http.StatusCreated, func() (*eav.Entity, error) {
		return s.store.CreateEntity(r.Context(), req.EntityType, req.Name)
	})
}

// handleGetEntity handles GET /api/v1/entities/{id}
func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	serve(s, w, http.StatusOK, func() (*eav.Entity, error) {
		return s.store.GetEntity(r.Context(), id)
	})
}

// handleDeleteEntity handles DELETE /api/v1/entities/{id}
func (s *Server) handleDeleteEntity(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ack(s, w, func() error { return s.store.DeleteEntity(r.Context(), id) })
}

// handleFetchViews handles GET /api/v1/entities/{id}/views?page=N
func (s *Server) handleFetchViews(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := parsePage(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	serve(s, w, http.StatusOK, func() ([]eav.View, error) {
		return s.store.FetchViews(r.Context(), id, page)
	})
}

// handleValidateEntity handles GET /api/v1/entities/{id}/validate
func (s *Server) handleValidateEntity(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ack(s, w, func() error { return s.store.ValidateEntity(r.Context(), id) })
}

// handleCreateAttribute handles POST /api/v1/attributes
func (s *Server) handleCreateAttribute(w http.ResponseWriter, r *http.Request) {
	var req createAttributeRequest
	if err := readJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body: "+err.Error())
		return
	}
	serve(s, w, http.StatusCreated, func() (*eav.Attribute, error) {
		return s.store.CreateAttribute(r.Context(), req.EntityTypeID, req.Name, eav.ValueType(req.ValueType), req.AllowMultiple)
	})
}

// handleGetAttribute handles GET /api/v1/attributes/{id}
func (s *Server) handleGetAttribute(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	serve(s, w, http.StatusOK, func() (*eav.Attribute, error) {
		return s.store.GetAttribute(r.Context(), id)
	})
}

// handleDeleteAttribute handles DELETE /api/v1/attributes/{id}
func (s *Server) handleDeleteAttribute(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ack(s, w, func() error { return s.store.DeleteAttribute(r.Context(), id) })
}

// handleCreateValue handles POST /api/v1/values
func (s *Server) handleCreateValue(w http.ResponseWriter, r *http.Request) {
	var req eav.CreateValueRequest
	if err := readJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body: "+err.Error())
		return
	}
	serve(s, w, http.StatusCreated, func() (*eav.Value, error) {
		return s.store.CreateValue(r.Context(), &req)
	})
}

// handleGetValue handles GET /api/v1/values/{id}
func (s *Server) handleGetValue(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	serve(s, w, http.StatusOK, func() (*eav.Value, error) {
		return s.store.GetValue(r.Context(), id)
	})
}

// handleUpdateValue handles PUT /api/v1/values/{id}
func (s *Server) handleUpdateValue(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var payload eav.ValuePayload
	if err := readJSONBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body: "+err.Error())
		return
	}
	serve(s, w, http.StatusOK, func() (*eav.Value, error) {
		return s.store.UpdateValue(r.Context(), &eav.UpdateValueRequest{ID: id, ValuePayload: payload})
	})
}

// handleDeleteValue handles DELETE /api/v1/values/{id}
func (s *Server) handleDeleteValue(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ack(s, w, func() error { return s.store.DeleteValue(r.Context(), id) })
}

// handleSearch handles GET /api/v1/search?q=...&page=N using the search-bar grammar.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := parsePage(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	serve(s, w, http.StatusOK, func() ([]eav.Entity, error) {
		return s.store.Search(r.Context(), q.Get("q"), page)
	})
}

// handleSearchByName handles GET /api/v1/search/name?pattern=...&extended=true
func (s *Server) handleSearchByName(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := parsePage(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	extended, err := parseBool(q, "extended")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	serve(s, w, http.StatusOK, func() ([]eav.Entity, error) {
		return s.store.SearchEntities(r.Context(), q.Get("pattern"), extended, page)
	})
}

// handleSearchWithAttribute handles GET /api/v1/search/with-attribute?attr=...
func (s *Server) handleSearchWithAttribute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := parsePage(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	serve(s, w, http.StatusOK, func() ([]eav.Entity, error) {
		return s.store.SearchEntitiesWithAttribute(r.Context(), q.Get("attr"), page)
	})
}

// handleSearchWithoutAttribute handles GET /api/v1/search/without-attribute?attr=...
func (s *Server) handleSearchWithoutAttribute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := parsePage(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	serve(s, w, http.StatusOK, func() ([]eav.Entity, error) {
		return s.store.SearchEntitiesWithoutAttribute(r.Context(), q.Get("attr"), page)
	})
}

// handleSearchByValue handles GET /api/v1/search/value?attr=...&value=...
func (s *Server) handleSearchByValue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := parsePage(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	serve(s, w, http.StatusOK, func() ([]eav.Entity, error) {
		return s.store.SearchEntitiesByValue(r.Context(), q.Get("attr"), q.Get("value"), page)
	})
}

// handleSearchByComparison handles GET /api/v1/search/compare?attr=...&op=>&value=...
func (s *Server) handleSearchByComparison(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := parsePage(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	op := eav.CompareOperator(q.Get("op"))
	serve(s, w, http.StatusOK, func() ([]eav.Entity, error) {
		return s.store.SearchEntitiesByComparison(r.Context(), q.Get("attr"), q.Get("value"), op, page)
	})
}
