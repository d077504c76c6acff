package poller

import (
	"errors"
	"testing"
)

func TestExtractString(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "top level", body: `{"message":"Found 2 good proxies"}`, path: "message", want: "Found 2 good proxies"},
		{name: "nested", body: `{"data":{"message":"hi"}}`, path: "data.message", want: "hi"},
		{name: "kept verbatim", body: `{"message":"  <b>x</b>  "}`, path: "message", want: "  <b>x</b>  "},
		{name: "number", body: `{"message":42}`, path: "message", want: "42"},
		{name: "bool", body: `{"message":false}`, path: "message", want: "false"},
		{name: "missing", body: `{"other":"x"}`, path: "message", wantErr: true},
		{name: "object", body: `{"message":{}}`, path: "message", wantErr: true},
		{name: "invalid json", body: `<html>`, path: "message", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractString([]byte(tt.body), tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractString_NotFoundSentinel(t *testing.T) {
	_, err := ExtractString([]byte(`{}`), "message")
	if !errors.Is(err, ErrFieldNotFound) {
		t.Errorf("error = %v, want ErrFieldNotFound", err)
	}
}

func TestExtractStrings(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		path    string
		want    []string
		wantErr bool
	}{
		{name: "strings", body: `{"results":["a","b"]}`, path: "results", want: []string{"a", "b"}},
		{name: "empty", body: `{"results":[]}`, path: "results", want: []string{}},
		{name: "null", body: `{"results":null}`, path: "results", want: []string{}},
		{name: "mixed scalars", body: `{"results":["a",1.5,true]}`, path: "results", want: []string{"a", "1.5", "true"}},
		{name: "not array", body: `{"results":"a"}`, path: "results", wantErr: true},
		{name: "nested element", body: `{"results":[["a"]]}`, path: "results", wantErr: true},
		{name: "missing", body: `{}`, path: "results", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractStrings([]byte(tt.body), tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractStrings() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractStrings() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
