package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/authify/authify-gateway/internal/core/domain"
)

func TestListUsers_TranslatesPage(t *testing.T) {
	var gotPage, gotSize int
	b := &fakeBackend{listUsersFn: func(page, size int) (*domain.UserPage, error) {
		gotPage, gotSize = page, size
		return &domain.UserPage{Content: []domain.AdminUser{{ID: "u1"}}, TotalPages: 3}, nil
	}}
	sess := newSession()
	loggedIn(sess, "ROLE_ADMIN")
	c, rec := newCtx(http.MethodGet, "/api/admin/users?page=2&size=5", "", sess, b)

	if err := newTestHandler(nil).ListUsers(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotPage != 1 || gotSize != 5 {
		t.Fatalf("expected server page 1 size 5, got %d %d", gotPage, gotSize)
	}
	resp := decode(t, rec)
	if resp["page"] != float64(2) || resp["hasPrev"] != true || resp["hasNext"] != true {
		t.Fatalf("unexpected page payload: %+v", resp)
	}
}

func TestListUsers_SearchFiltersAcrossPages(t *testing.T) {
	users := []domain.AdminUser{
		{ID: "u0", Name: "Bob", Email: "bob@example.com"},
		{ID: "u1", Name: "Alice", Email: "alice@example.com"},
		{ID: "u2", Name: "Carol", Email: "carol@example.com"},
		{ID: "u3", Name: "Malice", Email: "m@example.com"},
	}
	b := &fakeBackend{listUsersFn: func(page, size int) (*domain.UserPage, error) {
		start := min(page*size, len(users))
		end := min(start+size, len(users))
		return &domain.UserPage{Content: users[start:end], TotalPages: 2}, nil
	}}
	c, rec := newCtx(http.MethodGet, "/api/admin/users?size=2&q=alice", "", newSession(), b)

	if err := newTestHandler(nil).ListUsers(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	content, _ := decode(t, rec)["content"].([]any)
	if len(content) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(content))
	}
}

func TestListUsers_SearchReportsTruncation(t *testing.T) {
	b := &fakeBackend{listUsersFn: func(page, size int) (*domain.UserPage, error) {
		if page == 0 {
			return &domain.UserPage{Content: []domain.AdminUser{{ID: "u0", Name: "Alice"}}, TotalPages: 80}, nil
		}
		return &domain.UserPage{TotalPages: 80}, nil
	}}
	c, rec := newCtx(http.MethodGet, "/api/admin/users?q=alice", "", newSession(), b)

	if err := newTestHandler(nil).ListUsers(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if resp := decode(t, rec); resp["truncated"] != true {
		t.Fatalf("expected truncated flag, got %+v", resp)
	}
}

func TestListUsers_BadPageParam(t *testing.T) {
	c, _ := newCtx(http.MethodGet, "/api/admin/users?page=two", "", newSession(), &fakeBackend{})

	if err := newTestHandler(nil).ListUsers(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPromoteUser_RefetchesPage(t *testing.T) {
	b := &fakeBackend{}
	c, rec := newCtx(http.MethodPost, "/api/admin/users/u7/promote?page=1", "", newSession(), b)
	c.SetParamNames("id")
	c.SetParamValues("u7")

	if err := newTestHandler(nil).PromoteUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(b.calls) != 2 || b.calls[0] != "promote:u7" || b.calls[1] != "list-users" {
		t.Fatalf("expected promote then refetch, got %v", b.calls)
	}
}

func TestUserAction_Unsupported(t *testing.T) {
	b := &fakeBackend{}
	c, _ := newCtx(http.MethodPost, "/api/admin/users/u7/delete", "", newSession(), b)
	c.SetParamNames("id", "action")
	c.SetParamValues("u7", "delete")

	if err := newTestHandler(nil).UserAction(c); !errors.Is(err, domain.ErrUnsupportedAction) {
		t.Fatalf("expected ErrUnsupportedAction, got %v", err)
	}
	if len(b.calls) != 0 {
		t.Fatalf("expected no backend calls, got %v", b.calls)
	}
}
