package admin

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRegistryGet(t *testing.T) {
	d := newFixtureDescriptor(t, nil)
	reg, err := NewRegistry(d)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	got, err := reg.Get("widgets")
	if err != nil {
		t.Fatalf("get widgets: %v", err)
	}
	if got != d {
		t.Fatal("expected the registered descriptor")
	}
	_, err = reg.Get("gizmos")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("unknown code should be NotFoundError, got %v", err)
	}
}

func TestRegistryRejectsDuplicateCodes(t *testing.T) {
	a := newFixtureDescriptor(t, nil)
	b := newFixtureDescriptor(t, nil)
	if _, err := NewRegistry(a, b); err == nil {
		t.Fatal("expected duplicate code rejection")
	}
}

func TestDescriptorDefaults(t *testing.T) {
	d := newFixtureDescriptor(t, func(cfg *DescriptorConfig) {
		cfg.Label = ""
		cfg.EntityName = ""
		cfg.PageSize = 0
		cfg.ShowFields = nil
	})
	if d.Label() != "Widgets" {
		t.Fatalf("unexpected default label %q", d.Label())
	}
	if d.EntityName() != "widgets" {
		t.Fatalf("unexpected default entity name %q", d.EntityName())
	}
	if d.PageSize() != defaultDescriptorPageSize {
		t.Fatalf("unexpected default page size %d", d.PageSize())
	}
	if len(d.ShowFields()) != len(d.ListFields()) {
		t.Fatal("show fields should fall back to list fields")
	}
	if d.Template("list") != "admin/list" {
		t.Fatalf("unexpected default template %q", d.Template("list"))
	}
}

func TestDescriptorRequiredFields(t *testing.T) {
	_, err := NewDescriptor(DescriptorConfig{})
	if err == nil {
		t.Fatal("empty config must fail")
	}
	_, err = NewDescriptor(DescriptorConfig{Code: "widgets", Manager: fixtureManager{}})
	if err == nil {
		t.Fatal("missing binder must fail")
	}
}

func TestDescriptorObjectNameFallback(t *testing.T) {
	d := newFixtureDescriptor(t, nil)
	obj := &fixtureEntity{ID: 42, Name: ""}
	if got := d.ObjectName(obj); got != "widget 42" {
		t.Fatalf("unexpected fallback object name %q", got)
	}
}

func TestDescriptorURLs(t *testing.T) {
	d := newFixtureDescriptor(t, func(cfg *DescriptorConfig) {
		cfg.Subclasses = []string{"premium"}
	})
	if d.ListURL() != "/admin/widgets" {
		t.Fatalf("list url: %q", d.ListURL())
	}
	if d.EditURL("7") != "/admin/widgets/7/edit" {
		t.Fatalf("edit url: %q", d.EditURL("7"))
	}
	if got := d.CreateURL("premium"); !strings.Contains(got, "subclass=premium") {
		t.Fatalf("create url should carry subclass: %q", got)
	}
	if got := d.CreateURL("bogus"); strings.Contains(got, "subclass") {
		t.Fatalf("unknown subclass must be dropped: %q", got)
	}
}

func TestRedirectTargetPriorities(t *testing.T) {
	d := newFixtureDescriptor(t, nil)
	obj := &fixtureEntity{ID: 7}

	cases := []struct {
		name   string
		method string
		form   string
		want   string
	}{
		{"update and list wins", "POST", ParamUpdateAndList + "=1", d.ListURL()},
		{"create and list wins", "POST", ParamCreateAndList + "=1", d.ListURL()},
		{"create and create", "POST", ParamCreateAndCreate + "=1", d.CreateURL("")},
		{"delete verb", "DELETE", "", d.ListURL()},
		{"method override delete", "POST", "_method=DELETE", d.ListURL()},
		{"default is edit", "POST", "name=x", d.EditURL("7")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(tc.method, "/admin/widgets/7/edit", strings.NewReader(tc.form))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if got := RedirectTarget(r, d, obj); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestRedirectTargetButtonBeatsDeleteVerb(t *testing.T) {
	d := newFixtureDescriptor(t, nil)
	obj := &fixtureEntity{ID: 7}
	r := httptest.NewRequest("POST", "/admin/widgets/7/edit", strings.NewReader(ParamUpdateAndList+"=1&_method=DELETE"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if got := RedirectTarget(r, d, obj); got != d.ListURL() {
		t.Fatalf("button marker should win, got %q", got)
	}
}
