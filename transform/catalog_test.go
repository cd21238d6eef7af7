package transform

import (
	"errors"
	"net/http"
	"testing"

	"github.com/tfkr-ae/mirsal/domain"
	"github.com/tfkr-ae/mirsal/option"
)

func jsonResponse(status int, body string) Response {
	return Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       []byte(body),
	}
}

func TestDefault(t *testing.T) {
	r := Default()

	t.Run("form should decode to a form pointer", func(t *testing.T) {
		got, err := r.Apply(domain.KeyForm, jsonResponse(200, `{"projectId":1,"xmlFormId":"simple","name":null,"version":"2"}`))
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		form, ok := got.(*domain.Form)
		if !ok {
			t.Fatalf("\nwanted:\n*domain.Form\ngot:\n%T", got)
		}
		if form.NameOrID() != "simple" || form.Version != "2" {
			t.Fatalf("\nwanted:\nsimple v2\ngot:\n%+v", form)
		}
	})

	t.Run("formDraft problem should be None", func(t *testing.T) {
		got, err := r.Apply(domain.KeyFormDraft, jsonResponse(404, `{"code":404.1,"message":"Could not find the resource you were looking for."}`))
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		draft, ok := got.(option.Option[*domain.Form])
		if !ok || draft.IsDefined() {
			t.Fatalf("\nwanted:\nNone\ngot:\n%v", got)
		}
	})

	t.Run("formDraft body should be Some", func(t *testing.T) {
		got, _ := r.Apply(domain.KeyFormDraft, jsonResponse(200, `{"xmlFormId":"simple","draftToken":"abc"}`))
		draft := got.(option.Option[*domain.Form])
		if draft.IsEmpty() || *draft.Get().DraftToken != "abc" {
			t.Fatalf("\nwanted:\nSome draft\ngot:\n%v", got)
		}
	})

	t.Run("attachments should be Some list", func(t *testing.T) {
		got, _ := r.Apply(domain.KeyAttachments, jsonResponse(200, `[{"name":"a.png","type":"image","exists":true}]`))
		attachments := got.(option.Option[[]domain.Attachment]).Get()
		if len(attachments) != 1 || !attachments[0].Exists {
			t.Fatalf("\nwanted:\none existing attachment\ngot:\n%v", attachments)
		}
	})

	t.Run("analyticsConfig empty object should be None", func(t *testing.T) {
		for _, body := range []string{"", " {} "} {
			got, err := r.Apply(domain.KeyAnalyticsConfig, jsonResponse(200, body))
			if err != nil {
				t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
			}
			if got.(option.Option[*domain.AnalyticsConfig]).IsDefined() {
				t.Fatalf("body %q\nwanted:\nNone\ngot:\n%v", body, got)
			}
		}
		got, _ := r.Apply(domain.KeyAnalyticsConfig, jsonResponse(200, `{"enabled":true}`))
		if !got.(option.Option[*domain.AnalyticsConfig]).Get().Enabled {
			t.Fatalf("\nwanted:\nenabled\ngot:\n%v", got)
		}
	})

	t.Run("backupsConfig problem should be None", func(t *testing.T) {
		got, _ := r.Apply(domain.KeyBackupsConfig, jsonResponse(404, `{"code":404.1,"message":"not found"}`))
		if got.(option.Option[*domain.BackupsConfig]).IsDefined() {
			t.Fatalf("\nwanted:\nNone\ngot:\n%v", got)
		}
	})

	t.Run("submissionsChunk should read OData fields", func(t *testing.T) {
		body := `{"@odata.count":12,"@odata.nextLink":"next?$skip=2","value":[{"__id":"a"},{"__id":"b"}]}`
		got, err := r.Apply(domain.KeySubmissionsChunk, jsonResponse(200, body))
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		chunk := got.(*domain.SubmissionsChunk)
		if chunk.Count != 12 || len(chunk.Value) != 2 || chunk.NextLink != "next?$skip=2" {
			t.Fatalf("\nwanted:\ncount 12, 2 rows, next link\ngot:\n%+v", chunk)
		}
		if chunk.Value[1]["__id"] != "b" {
			t.Fatalf("\nwanted:\nb\ngot:\n%v", chunk.Value[1]["__id"])
		}
	})

	t.Run("entities without a count should count rows", func(t *testing.T) {
		got, _ := r.Apply(domain.KeyEntities, jsonResponse(200, `{"value":[{"label":"x"}]}`))
		if chunk := got.(*domain.EntitiesChunk); chunk.Count != 1 {
			t.Fatalf("\nwanted:\n1\ngot:\n%d", chunk.Count)
		}
	})

	t.Run("malformed OData should fail", func(t *testing.T) {
		_, err := r.Apply(domain.KeyEntities, jsonResponse(200, `{"value":3}`))
		if !errors.Is(err, ErrMalformed) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", ErrMalformed, err)
		}
	})

	t.Run("formVersionXml should extract ids and fields", func(t *testing.T) {
		xml := `<?xml version="1.0"?>
<h:html xmlns="http://www.w3.org/2002/xforms" xmlns:h="http://www.w3.org/1999/xhtml">
  <h:head>
    <h:title>Simple</h:title>
    <model>
      <instance>
        <data id="simple" version="2.1"><name/><age/></data>
      </instance>
      <bind nodeset="/data/name" type="string"/>
      <bind nodeset="/data/age" type="int"/>
    </model>
  </h:head>
  <h:body/>
</h:html>`
		got, err := r.Apply(domain.KeyFormVersionXML, Response{StatusCode: 200, Header: http.Header{}, Body: []byte(xml)})
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		form := got.(*domain.FormXML)
		if form.Title != "Simple" || form.XMLFormID != "simple" || form.Version != "2.1" {
			t.Fatalf("\nwanted:\nSimple simple 2.1\ngot:\n%+v", form)
		}
		if len(form.Fields) != 2 || form.Fields[1].Name != "age" || form.Fields[1].Type != "int" {
			t.Fatalf("\nwanted:\nname, age:int\ngot:\n%+v", form.Fields)
		}
	})

	t.Run("invalid JSON for a typed key should fail", func(t *testing.T) {
		if _, err := r.Apply(domain.KeyProjects, jsonResponse(200, `{`)); err == nil {
			t.Fatal("wanted an error")
		}
	})
}
