package command

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func params(t *testing.T, js string) map[string]any {
	t.Helper()
	var p map[string]any
	if err := json.Unmarshal([]byte(js), &p); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestParseOperation(t *testing.T) {
	for _, name := range []string{"write_cell", "read_range", "append_row", "find_replace", "list_sheets", " list_sheets "} {
		if _, err := ParseOperation(name); err != nil {
			t.Errorf("ParseOperation(%q) = %v", name, err)
		}
	}
	for _, name := range []string{"delete_sheet", "", "WRITE_CELL", "write-cell", "format_cells"} {
		_, err := ParseOperation(name)
		if KindOf(err) != KindUnsupported {
			t.Errorf("ParseOperation(%q) kind = %v, want unsupported", name, KindOf(err))
		}
	}
}

func TestCatalogCoversEveryOperation(t *testing.T) {
	if got := len(Catalog()); got != 5 {
		t.Fatalf("catalog has %d entries", got)
	}
	want := []string{"write_cell", "read_range", "append_row", "find_replace", "list_sheets"}
	if !reflect.DeepEqual(Names(), want) {
		t.Errorf("Names() = %v", Names())
	}
	mutating := map[Operation]bool{WriteCell: true, AppendRow: true, FindReplace: true}
	for _, op := range Operations() {
		if op.Mutates() != mutating[op] {
			t.Errorf("%s.Mutates() = %v", op, op.Mutates())
		}
	}
}

func TestNewIntentValid(t *testing.T) {
	tests := []struct {
		name   string
		op     string
		params string
		want   map[string]any
	}{
		{"write string", "write_cell", `{"cell":"a1","value":"Hello World"}`, map[string]any{"cell": "A1", "value": "Hello World"}},
		{"write number", "write_cell", `{"cell":"B2","value":42}`, map[string]any{"cell": "B2", "value": "42"}},
		{"write decimal", "write_cell", `{"cell":"B2","value":3.5}`, map[string]any{"cell": "B2", "value": "3.5"}},
		{"write bool", "write_cell", `{"cell":"C3","value":false}`, map[string]any{"cell": "C3", "value": "false"}},
		{"write with sheet", "write_cell", `{"cell":"A1","value":"x","sheet":" Budget "}`, map[string]any{"cell": "A1", "value": "x", "sheet": "Budget"}},
		{"write qualified cell", "write_cell", `{"cell":"'My Tab'!d4","value":"x"}`, map[string]any{"cell": "D4", "value": "x", "sheet": "My Tab"}},
		{"read range", "read_range", `{"range":"a1:c3"}`, map[string]any{"range": "A1:C3"}},
		{"read single cell", "read_range", `{"range":"B7"}`, map[string]any{"range": "B7:B7"}},
		{"read qualified", "read_range", `{"range":"Data!A1:B2"}`, map[string]any{"range": "A1:B2", "sheet": "Data"}},
		{"append", "append_row", `{"values":["John","Doe",30,true,null]}`, map[string]any{"values": []string{"John", "Doe", "30", "true", ""}}},
		{"find replace range", "find_replace", `{"find":"Manager","replace":"Director","range":"B1:B9"}`, map[string]any{"find": "Manager", "replace": "Director", "range": "B1:B9"}},
		{"find replace whole sheet", "find_replace", `{"find":"a","replace":"","scope":"sheet"}`, map[string]any{"find": "a", "replace": "", "scope": "sheet"}},
		{"find replace empty range falls back to scope", "find_replace", `{"find":"a","replace":"b","range":"","scope":"Sheet"}`, map[string]any{"find": "a", "replace": "b", "scope": "sheet"}},
		{"list sheets ignores extras", "list_sheets", `{"verbose":true}`, map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := NewIntent(tt.op, params(t, tt.params))
			if err != nil {
				t.Fatal(err)
			}
			if string(in.Operation()) != tt.op {
				t.Errorf("op = %s", in.Operation())
			}
			if got := in.Params(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Params() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestNewIntentInvalid(t *testing.T) {
	tests := []struct {
		name   string
		op     string
		params string
		kind   Kind
	}{
		{"unknown op", "delete_rows", `{}`, KindUnsupported},
		{"write missing cell", "write_cell", `{"value":"x"}`, KindValidation},
		{"write bad cell", "write_cell", `{"cell":"1A","value":"x"}`, KindValidation},
		{"write range as cell", "write_cell", `{"cell":"A1:B2","value":"x"}`, KindValidation},
		{"write missing value", "write_cell", `{"cell":"A1"}`, KindValidation},
		{"write null value", "write_cell", `{"cell":"A1","value":null}`, KindValidation},
		{"write object value", "write_cell", `{"cell":"A1","value":{"a":1}}`, KindValidation},
		{"write numeric cell", "write_cell", `{"cell":11,"value":"x"}`, KindValidation},
		{"read missing range", "read_range", `{}`, KindValidation},
		{"read bad range", "read_range", `{"range":"A1:B"}`, KindValidation},
		{"read column range", "read_range", `{"range":"A:C"}`, KindValidation},
		{"read past last row", "read_range", `{"range":"A1:Z100000000"}`, KindValidation},
		{"read past last column", "read_range", `{"range":"A1:XFE2"}`, KindValidation},
		{"write past last row", "write_cell", `{"cell":"A1048577","value":"x"}`, KindValidation},
		{"find range past last row", "find_replace", `{"find":"x","replace":"y","range":"A1:A2000000"}`, KindValidation},
		{"append missing", "append_row", `{}`, KindValidation},
		{"append empty", "append_row", `{"values":[]}`, KindValidation},
		{"append not list", "append_row", `{"values":"a,b"}`, KindValidation},
		{"append nested", "append_row", `{"values":[["a"]]}`, KindValidation},
		{"find missing", "find_replace", `{"replace":"x","range":"A1:A2"}`, KindValidation},
		{"find empty", "find_replace", `{"find":"","replace":"x","range":"A1:A2"}`, KindValidation},
		{"replace missing", "find_replace", `{"find":"x","range":"A1:A2"}`, KindValidation},
		{"whole sheet unconfirmed", "find_replace", `{"find":"x","replace":"y"}`, KindValidation},
		{"whole sheet wrong scope", "find_replace", `{"find":"x","replace":"y","scope":"all"}`, KindValidation},
		{"sheet not string", "list_sheets", `{"sheet":3}`, KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIntent(tt.op, params(t, tt.params))
			if err == nil {
				t.Fatal("expected error")
			}
			var cmdErr *Error
			if !errors.As(err, &cmdErr) {
				t.Fatalf("error %T is not *command.Error", err)
			}
			if cmdErr.Kind != tt.kind {
				t.Errorf("kind = %s, want %s (%v)", cmdErr.Kind, tt.kind, err)
			}
		})
	}
}

func TestIntentValuesIsCopy(t *testing.T) {
	in, err := NewIntent("append_row", map[string]any{"values": []any{"a", "b"}})
	if err != nil {
		t.Fatal(err)
	}
	v := in.Values()
	v[0] = "changed"
	if in.Values()[0] != "a" {
		t.Error("Values() must not expose internal state")
	}
}

func TestFailEnvelope(t *testing.T) {
	env := Fail(Validationf(WriteCell, "bad cell"))
	if env.Success || env.Kind != KindValidation || env.Operation != "write_cell" || env.Error != "bad cell" {
		t.Errorf("envelope = %+v", env)
	}
	if env.Result != nil {
		t.Error("failed envelope must not carry a result")
	}

	env = Fail(errors.New("boom"))
	if env.Kind != KindUpstream {
		t.Errorf("untyped error kind = %s", env.Kind)
	}

	wrapped := Connectivity(errors.New("dial tcp: refused"))
	if KindOf(wrapped) != KindConnectivity {
		t.Errorf("kind = %s", KindOf(wrapped))
	}
	if wrapped.Error() != "could not reach the SheetSense relay: dial tcp: refused" {
		t.Errorf("message = %q", wrapped.Error())
	}
}

func TestEnvelopeJSONShape(t *testing.T) {
	ok, _ := json.Marshal(Succeed(ListSheets, ListResult{Sheets: []string{"A"}}))
	if string(ok) != `{"success":true,"operation":"list_sheets","result":{"sheets":["A"]}}` {
		t.Errorf("success json = %s", ok)
	}
	bad, _ := json.Marshal(Fail(Interpretationf(nil, "model said no")))
	if string(bad) != `{"success":false,"error":"model said no","kind":"interpretation_error"}` {
		t.Errorf("failure json = %s", bad)
	}
}
