package registry_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/storepilot/storepilot/internal/registry"
)

type recordArgs struct {
	CustomerName string   `json:"customer_name" desc:"name of the customer"`
	Amount       float64  `json:"amount"`
	Quantity     int      `json:"quantity" default:"1"`
	CardType     string   `json:"card_type" enum:"count,balance,period"`
	Notes        *string  `json:"notes"`
	Tags         []string `json:"tags"`
	Active       bool     `json:"active"`
}

func noopRecord(_ context.Context, _ recordArgs) (any, error) {
	return "ok", nil
}

func TestRegisterInfersSchemaFromStruct(t *testing.T) {
	r := registry.New()
	if err := r.Register("record_sale", "record a sale", noopRecord); err != nil {
		t.Fatalf("register: %v", err)
	}

	d, err := r.Get("record_sale")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	want := []struct {
		name     string
		typ      string
		required bool
		nullable bool
	}{
		{"customer_name", registry.TypeString, true, false},
		{"amount", registry.TypeNumber, true, false},
		{"quantity", registry.TypeInteger, false, false},
		{"card_type", registry.TypeString, true, false},
		{"notes", registry.TypeString, false, true},
		{"tags", registry.TypeArray, true, false},
		{"active", registry.TypeBoolean, true, false},
	}
	if len(d.Params) != len(want) {
		t.Fatalf("expected %d params, got %d", len(want), len(d.Params))
	}
	for i, w := range want {
		p := d.Params[i]
		if p.Name != w.name || p.Type != w.typ || p.Required != w.required || p.Nullable != w.nullable {
			t.Errorf("param %d = %+v, want %+v", i, p, w)
		}
	}

	if d.Params[2].Default != 1 {
		t.Errorf("quantity default = %v, want 1", d.Params[2].Default)
	}
	if len(d.Params[3].Enum) != 3 || d.Params[3].Enum[0] != "count" {
		t.Errorf("card_type enum = %v", d.Params[3].Enum)
	}
	if d.Params[0].Description != "name of the customer" {
		t.Errorf("description = %q", d.Params[0].Description)
	}
}

func TestRegisterRejectsUnsupportedTypes(t *testing.T) {
	r := registry.New()
	type badArgs struct {
		Signal chan int `json:"signal"`
	}
	err := r.Register("bad_op", "broken", func(_ context.Context, _ badArgs) (any, error) {
		return nil, nil
	})
	var infErr *registry.SchemaInferenceError
	if !errors.As(err, &infErr) {
		t.Fatalf("expected SchemaInferenceError, got %v", err)
	}
	if infErr.Field != "signal" {
		t.Errorf("field = %q, want signal", infErr.Field)
	}
}

func TestRegisterRejectsBadSignatures(t *testing.T) {
	r := registry.New()
	cases := []struct {
		name string
		fn   any
	}{
		{"not_a_func", 42},
		{"no_ctx", func(s string) (any, error) { return nil, nil }},
		{"no_error", func(_ context.Context, _ recordArgs) string { return "" }},
		{"non_struct", func(_ context.Context, _ string) (any, error) { return nil, nil }},
	}
	for _, tc := range cases {
		err := r.Register(tc.name, "", tc.fn)
		var infErr *registry.SchemaInferenceError
		if !errors.As(err, &infErr) {
			t.Errorf("%s: expected SchemaInferenceError, got %v", tc.name, err)
		}
	}
}

func TestGetNotFound(t *testing.T) {
	r := registry.New()
	_, err := r.Get("missing_op")
	var nf *registry.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Name != "missing_op" {
		t.Errorf("name = %q", nf.Name)
	}
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	r := registry.New()
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		if err := r.Register(name, "", noopRecord); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	var got []string
	for _, d := range r.List() {
		got = append(got, d.Name)
	}
	want := []string{"charlie", "alpha", "bravo"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("list order = %v, want %v", got, want)
		}
	}
}

func TestReRegisterReplacesDescriptor(t *testing.T) {
	r := registry.New()
	type emptyArgs struct{}
	first := func(_ context.Context, _ emptyArgs) (any, error) { return "first", nil }
	second := func(_ context.Context, _ emptyArgs) (any, error) { return "second", nil }

	if err := r.Register("op", "v1", first); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register("op", "v2", second); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	if r.Len() != 1 {
		t.Fatalf("expected exactly one descriptor, got %d", r.Len())
	}
	d, err := r.Get("op")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.Description != "v2" {
		t.Errorf("description = %q, want v2", d.Description)
	}
	out, err := d.Invoke(context.Background(), nil)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out != "second" {
		t.Errorf("invoke = %v, want second (newer callable)", out)
	}
}

func TestRegisterWithExplicitSchema(t *testing.T) {
	r := registry.New()
	params := []registry.Param{
		{Name: "sql", Type: registry.TypeString, Required: true},
	}
	err := r.Register("run_query", "run a query",
		func(_ context.Context, args map[string]any) (any, error) {
			return args["sql"], nil
		},
		registry.WithSchema(params), registry.WithBlocking())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	d, _ := r.Get("run_query")
	if !d.Blocking {
		t.Error("expected blocking descriptor")
	}
	out, err := d.Invoke(context.Background(), map[string]any{"sql": "SELECT 1"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out != "SELECT 1" {
		t.Errorf("invoke = %v", out)
	}
}

func TestInvokeDecodesArguments(t *testing.T) {
	r := registry.New()
	type args struct {
		Name  string  `json:"name"`
		Total float64 `json:"total"`
	}
	err := r.Register("echo", "", func(_ context.Context, a args) (any, error) {
		return map[string]any{"name": a.Name, "total": a.Total}, nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	d, _ := r.Get("echo")
	out, err := d.Invoke(context.Background(), map[string]any{"name": "zhang", "total": 198.0})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	m := out.(map[string]any)
	if m["name"] != "zhang" || m["total"] != 198.0 {
		t.Errorf("invoke = %v", m)
	}
}

func TestConcurrentLookups(t *testing.T) {
	r := registry.New()
	for _, name := range []string{"a", "b", "c"} {
		if err := r.Register(name, "", noopRecord); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := r.Get("b"); err != nil {
					t.Errorf("get: %v", err)
					return
				}
				if got := len(r.Schemas()); got != 3 {
					t.Errorf("schemas len = %d", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestInputSchemaShape(t *testing.T) {
	s := registry.Schema{
		Name: "get_daily_summary",
		Params: []registry.Param{
			{Name: "date", Type: registry.TypeString, Required: false, Default: "today"},
			{Name: "detail", Type: registry.TypeBoolean, Required: true},
		},
	}
	js := s.InputSchema()
	if js["type"] != "object" {
		t.Errorf("type = %v", js["type"])
	}
	props := js["properties"].(map[string]any)
	if _, ok := props["date"]; !ok {
		t.Error("missing date property")
	}
	req := js["required"].([]string)
	if len(req) != 1 || req[0] != "detail" {
		t.Errorf("required = %v", req)
	}
}
