package domain

import (
	"reflect"
	"testing"
)

func TestParseProblem(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   Problem
		wantOK bool
	}{
		{
			name:   "Problem with details",
			body:   `{"code":409.3,"message":"A resource already exists.","details":{"field":"xmlFormId"}}`,
			want:   Problem{Code: 409.3, Message: "A resource already exists.", Details: map[string]any{"field": "xmlFormId"}},
			wantOK: true,
		},
		{
			name:   "Problem without details",
			body:   `{"code":404.1,"message":"Could not find the resource you were looking for."}`,
			want:   Problem{Code: 404.1, Message: "Could not find the resource you were looking for."},
			wantOK: true,
		},
		{
			name:   "Integer code",
			body:   `{"code":403,"message":"Forbidden"}`,
			want:   Problem{Code: 403, Message: "Forbidden"},
			wantOK: true,
		},
		{
			name:   "Non-object details are dropped",
			body:   `{"code":400.2,"message":"Missing parameter","details":"field"}`,
			want:   Problem{Code: 400.2, Message: "Missing parameter"},
			wantOK: true,
		},
		{
			name: "String code",
			body: `{"code":"404.1","message":"nope"}`,
		},
		{
			name: "Missing code",
			body: `{"message":"nope"}`,
		},
		{
			name: "Missing message",
			body: `{"code":404.1}`,
		},
		{
			name: "Non-string message",
			body: `{"code":404.1,"message":42}`,
		},
		{
			name: "Array body",
			body: `[{"code":404.1,"message":"nope"}]`,
		},
		{
			name: "Scalar body",
			body: `"nope"`,
		},
		{
			name: "Invalid JSON",
			body: `{"code":404.1,"message":`,
		},
		{
			name: "HTML body",
			body: `<html><body>Bad Gateway</body></html>`,
		},
		{
			name: "Empty body",
			body: ``,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseProblem([]byte(tt.body))
			if ok != tt.wantOK {
				t.Fatalf("\nwanted:\n%v\ngot:\n%v", tt.wantOK, ok)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("\nwanted:\n%#v\ngot:\n%#v", tt.want, got)
			}
		})
	}
}

func TestProblemError(t *testing.T) {
	problem := Problem{Code: 404.1, Message: "nope"}

	if got, want := problem.Error(), "problem 404.1: nope"; got != want {
		t.Fatalf("\nwanted:\n%s\ngot:\n%s", want, got)
	}
	if !problem.Is(404.1) {
		t.Fatal("wanted Is(404.1) to be true")
	}
	if problem.Is(404) {
		t.Fatal("wanted Is(404) to be false")
	}
}
