package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/goccy/go-json"
)

func TestMasterManagesRolesAndAssignments(t *testing.T) {
	ts, closeFn := newTestServer(t)
	defer closeFn()

	ts.provisionOperator(t, "role-master@example.com", "Valid#Pass1234", "master")
	reviewer := ts.provisionOperator(t, "role-target@example.com", "Valid#Pass1234", "")
	ts.login(t, "role-master@example.com", "Valid#Pass1234")
	csrf := ts.csrf(t)

	resp, raw := doRawText(t, ts.client, http.MethodPost, ts.baseURL+"/api/v1/roles", map[string]any{
		"name":        "catalog-reviewer",
		"description": "review products without touching them",
		"grants": []map[string]any{
			{"admin_code": "product", "capabilities": []string{"LIST", "VIEW"}},
		},
	}, map[string]string{"X-CSRF-Token": csrf}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create role failed: status=%d body=%s", resp.StatusCode, raw)
	}
	var created struct {
		ID     uint   `json:"id"`
		Name   string `json:"name"`
		Grants []struct {
			AdminCode    string   `json:"admin_code"`
			Capabilities []string `json:"capabilities"`
		} `json:"grants"`
	}
	if err := json.Unmarshal([]byte(raw), &created); err != nil {
		t.Fatalf("decode created role: %v", err)
	}
	if created.Name != "catalog-reviewer" || len(created.Grants) != 1 {
		t.Fatalf("unexpected created role: %+v", created)
	}

	resp, env := doJSON(t, ts.client, http.MethodPut, fmt.Sprintf("%s/api/v1/roles/%d/grants", ts.baseURL, created.ID), map[string]any{
		"grants": []map[string]any{
			{"admin_code": "product", "capabilities": []string{"LIST", "VIEW", "EXPORT"}},
		},
	}, map[string]string{"X-CSRF-Token": csrf})
	if resp.StatusCode != http.StatusOK || env.Error != nil {
		t.Fatalf("replace grants failed: status=%d err=%#v", resp.StatusCode, env.Error)
	}

	resp, env = doJSON(t, ts.client, http.MethodPut, fmt.Sprintf("%s/api/v1/operators/%d/roles", ts.baseURL, reviewer.ID), map[string]any{
		"role_ids": []uint{created.ID},
	}, map[string]string{"X-CSRF-Token": csrf})
	if resp.StatusCode != http.StatusOK || env.Error != nil {
		t.Fatalf("assign roles failed: status=%d err=%#v", resp.StatusCode, env.Error)
	}

	// The assignee can list and export products but not create them.
	ts.login(t, "role-target@example.com", "Valid#Pass1234")
	resp, _ = ts.get(t, "/admin/product")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected assignee to list products, got %d", resp.StatusCode)
	}
	resp, _ = ts.get(t, "/admin/product/export?format=csv")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected assignee export to succeed, got %d", resp.StatusCode)
	}
	resp, _ = ts.get(t, "/admin/product/create")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected assignee create denial, got %d", resp.StatusCode)
	}
}

func TestRoleAPIRejectsUnknownCapability(t *testing.T) {
	ts, closeFn := newTestServer(t)
	defer closeFn()

	ts.provisionOperator(t, "role-bad@example.com", "Valid#Pass1234", "master")
	ts.login(t, "role-bad@example.com", "Valid#Pass1234")

	resp, env := doJSON(t, ts.client, http.MethodPost, ts.baseURL+"/api/v1/roles", map[string]any{
		"name": "broken",
		"grants": []map[string]any{
			{"admin_code": "product", "capabilities": []string{"FLY"}},
		},
	}, map[string]string{"X-CSRF-Token": ts.csrf(t)})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown capability, got %d", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "BAD_REQUEST" {
		t.Fatalf("expected BAD_REQUEST envelope, got %#v", env.Error)
	}
}

func TestMasterCannotModifyOwnRoleAssignment(t *testing.T) {
	ts, closeFn := newTestServer(t)
	defer closeFn()

	self := ts.provisionOperator(t, "role-self@example.com", "Valid#Pass1234", "master")
	ts.login(t, "role-self@example.com", "Valid#Pass1234")

	resp, env := doJSON(t, ts.client, http.MethodPut, fmt.Sprintf("%s/api/v1/operators/%d/roles", ts.baseURL, self.ID), map[string]any{
		"role_ids": []uint{},
	}, map[string]string{"X-CSRF-Token": ts.csrf(t)})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for self role change, got %d", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN envelope, got %#v", env.Error)
	}
}
