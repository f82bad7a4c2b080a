package gitlab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/apperr"
)

func testServer(t *testing.T, register func(r chi.Router)) *Client {
	t.Helper()
	r := chi.NewRouter()
	register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token")
}

func pageItems(page, n int) []map[string]any {
	items := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		id := page*1000 + i
		items = append(items, map[string]any{
			"id":                  id,
			"name":                fmt.Sprintf("proj-%d", id),
			"path_with_namespace": fmt.Sprintf("group/proj-%d", id),
			"web_url":             fmt.Sprintf("https://gitlab.example/group/proj-%d", id),
		})
	}
	return items
}

func TestListProjects_PaginationTerminates(t *testing.T) {
	var requests int
	client := testServer(t, func(r chi.Router) {
		r.Get("/api/v4/projects", func(w http.ResponseWriter, req *http.Request) {
			requests++
			page, _ := strconv.Atoi(req.URL.Query().Get("page"))
			if page <= 3 {
				w.Header().Set("x-next-page", strconv.Itoa(page+1))
				_ = json.NewEncoder(w).Encode(pageItems(page, listPerPage))
				return
			}
			// Short page, no next-page header: end of listing.
			_ = json.NewEncoder(w).Encode(pageItems(page, 7))
		})
	})

	projects, err := client.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if requests != 4 {
		t.Errorf("requests = %d, want 4", requests)
	}
	if len(projects) != 3*listPerPage+7 {
		t.Errorf("len(projects) = %d, want %d", len(projects), 3*listPerPage+7)
	}
}

func TestListProjects_FullPageWithoutHeaderTriesNext(t *testing.T) {
	client := testServer(t, func(r chi.Router) {
		r.Get("/api/v4/projects", func(w http.ResponseWriter, req *http.Request) {
			page, _ := strconv.Atoi(req.URL.Query().Get("page"))
			if page == 1 {
				_ = json.NewEncoder(w).Encode(pageItems(page, listPerPage))
				return
			}
			_ = json.NewEncoder(w).Encode([]map[string]any{})
		})
	})

	projects, err := client.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != listPerPage {
		t.Errorf("len(projects) = %d, want %d", len(projects), listPerPage)
	}
}

func TestListProjects_DropsInvalidItems(t *testing.T) {
	client := testServer(t, func(r chi.Router) {
		r.Get("/api/v4/projects", func(w http.ResponseWriter, req *http.Request) {
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"id": 1, "name": "ok", "path_with_namespace": "g/ok", "web_url": "https://g/ok"},
				{"id": 2, "name": "no-path", "web_url": "https://g/no-path"},
				{"name": "no-id", "path_with_namespace": "g/x", "web_url": "https://g/x"},
			})
		})
	})

	projects, err := client.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 1 || projects[0].ID != 1 {
		t.Errorf("projects = %+v, want only id 1", projects)
	}
}

func TestListProjects_NonArrayBodyIsValidationError(t *testing.T) {
	client := testServer(t, func(r chi.Router) {
		r.Get("/api/v4/projects", func(w http.ResponseWriter, req *http.Request) {
			_, _ = w.Write([]byte(`{"message":"not a list"}`))
		})
	})

	_, err := client.ListProjects(context.Background())
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestListProjects_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, apperr.ErrAuth},
		{http.StatusForbidden, apperr.ErrPermission},
		{http.StatusNotFound, apperr.ErrNotFound},
		{http.StatusInternalServerError, apperr.ErrServer},
		{http.StatusBadGateway, apperr.ErrServer},
	}
	for _, tc := range cases {
		client := testServer(t, func(r chi.Router) {
			r.Get("/api/v4/projects", func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(tc.status)
			})
		})
		_, err := client.ListProjects(context.Background())
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: err = %v, want %v", tc.status, err, tc.want)
		}
	}
}

func TestListProjects_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(srv.URL, "test-token")

	_, err := client.ListProjects(context.Background())
	if !errors.Is(err, apperr.ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork", err)
	}
}

func TestDo_DeadlineDuringBodyReadIsTimeout(t *testing.T) {
	client := testServer(t, func(r chi.Router) {
		r.Get("/api/v4/projects", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`[{"id":`))
			w.(http.Flusher).Flush()
			time.Sleep(500 * time.Millisecond)
		})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	var items []projectPayload
	_, err := client.do(ctx, http.MethodGet, "/api/v4/projects", nil, nil, &items)
	if !errors.Is(err, apperr.ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestListProjects_SendsBearerToken(t *testing.T) {
	var auth string
	client := testServer(t, func(r chi.Router) {
		r.Get("/api/v4/projects", func(w http.ResponseWriter, req *http.Request) {
			auth = req.Header.Get("Authorization")
			_ = json.NewEncoder(w).Encode([]map[string]any{})
		})
	})

	if _, err := client.ListProjects(context.Background()); err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if auth != "Bearer test-token" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestSearchProjects_BestEffort(t *testing.T) {
	client := testServer(t, func(r chi.Router) {
		r.Get("/api/v4/projects", func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Query().Get("search") != "api" {
				t.Errorf("search = %q, want %q", req.URL.Query().Get("search"), "api")
			}
			if req.URL.Query().Get("per_page") != strconv.Itoa(searchPerPage) {
				t.Errorf("per_page = %q", req.URL.Query().Get("per_page"))
			}
			_ = json.NewEncoder(w).Encode(pageItems(1, 2))
		})
	})

	results := client.SearchProjects(context.Background(), "api")
	if len(results) != 2 {
		t.Errorf("len(results) = %d, want 2", len(results))
	}
}

func TestSearchProjects_FailureYieldsEmpty(t *testing.T) {
	client := testServer(t, func(r chi.Router) {
		r.Get("/api/v4/projects", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
	})

	if results := client.SearchProjects(context.Background(), "api"); len(results) != 0 {
		t.Errorf("results = %v, want empty", results)
	}
}

func TestCreateIssue_Success(t *testing.T) {
	var body createIssueRequest
	client := testServer(t, func(r chi.Router) {
		r.Post("/api/v4/projects/{id}/issues", func(w http.ResponseWriter, req *http.Request) {
			if chi.URLParam(req, "id") != "42" {
				t.Errorf("project id = %q, want 42", chi.URLParam(req, "id"))
			}
			_ = json.NewDecoder(req.Body).Decode(&body)
			_ = json.NewEncoder(w).Encode(map[string]string{"web_url": "https://gitlab.example/p/-/issues/7"})
		})
	})

	url, err := client.CreateIssue(context.Background(), 42, "Title", "Description", []string{"bug", "notes"})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	if url != "https://gitlab.example/p/-/issues/7" {
		t.Errorf("url = %q", url)
	}
	if body.Title != "Title" || body.Description != "Description" || len(body.Labels) != 2 {
		t.Errorf("request body = %+v", body)
	}
}

func TestCreateIssue_MissingWebURL(t *testing.T) {
	client := testServer(t, func(r chi.Router) {
		r.Post("/api/v4/projects/{id}/issues", func(w http.ResponseWriter, req *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]int{"iid": 7})
		})
	})

	_, err := client.CreateIssue(context.Background(), 1, "Title", "Description", nil)
	if !errors.Is(err, apperr.ErrInvalidResponse) {
		t.Errorf("err = %v, want ErrInvalidResponse", err)
	}
}

func TestCreateIssue_EmptyTitle(t *testing.T) {
	client := NewClient("https://gitlab.example", "t")
	_, err := client.CreateIssue(context.Background(), 1, "  ", "Description", nil)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestTestConnection_UsernameAndFallback(t *testing.T) {
	client := testServer(t, func(r chi.Router) {
		r.Get("/api/v4/user", func(w http.ResponseWriter, req *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"username": "alice"})
		})
	})
	status := client.TestConnection(context.Background())
	if !status.OK || status.Identity != "alice" {
		t.Errorf("status = %+v", status)
	}

	client = testServer(t, func(r chi.Router) {
		r.Get("/api/v4/user", func(w http.ResponseWriter, req *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"name": "Alice A."})
		})
	})
	status = client.TestConnection(context.Background())
	if !status.OK || status.Identity != "Alice A." {
		t.Errorf("status = %+v", status)
	}
}

func TestTestConnection_NeverErrors(t *testing.T) {
	client := testServer(t, func(r chi.Router) {
		r.Get("/api/v4/user", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	})
	status := client.TestConnection(context.Background())
	if status.OK || status.Message == "" {
		t.Errorf("status = %+v, want failure with message", status)
	}
}

func TestMergeProjects_FirstOccurrenceWins(t *testing.T) {
	base := []Project{{ID: 5, Name: "cached", PathWithNamespace: "g/cached", WebURL: "u"}}
	extra := []Project{
		{ID: 5, Name: "remote", Description: "different", PathWithNamespace: "g/cached", WebURL: "u"},
		{ID: 6, Name: "new", PathWithNamespace: "g/new", WebURL: "u"},
	}
	merged := MergeProjects(base, extra)
	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
	if merged[0].Name != "cached" {
		t.Errorf("merged[0].Name = %q, want the cached entry", merged[0].Name)
	}
}

func TestSortProjects_FavoritesFirst(t *testing.T) {
	projects := []Project{
		{ID: 1, Name: "B"},
		{ID: 2, Name: "A"},
		{ID: 3, Name: "C"},
	}
	SortProjects(projects, func(id int) bool { return id == 2 })
	got := []string{projects[0].Name, projects[1].Name, projects[2].Name}
	if got[0] != "A" || got[1] != "B" || got[2] != "C" {
		t.Errorf("order = %v, want [A B C]", got)
	}
}
