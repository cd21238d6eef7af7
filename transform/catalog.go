package transform

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/beevik/etree"
	"github.com/tfkr-ae/mirsal/domain"
	"github.com/tfkr-ae/mirsal/option"
	"github.com/tidwall/gjson"
)

// ErrMalformed is returned when a payload does not have the shape its key expects.
var ErrMalformed = errors.New("malformed payload")

// Default returns a registry holding the transform of every catalog key
// that produces a typed value.
func Default() *Registry {
	r := New()
	r.Register(domain.KeySession, Typed(pointer[domain.Session]))
	r.Register(domain.KeyCurrentUser, Typed(pointer[domain.User]))
	r.Register(domain.KeyUser, Typed(pointer[domain.User]))
	r.Register(domain.KeyUsers, Typed(list[domain.User]))
	r.Register(domain.KeyRoles, Typed(list[domain.Role]))
	r.Register(domain.KeyActors, Typed(list[domain.Actor]))
	r.Register(domain.KeyProjects, Typed(list[domain.Project]))
	r.Register(domain.KeyProject, Typed(pointer[domain.Project]))
	r.Register(domain.KeyProjectAssignments, Typed(list[domain.Assignment]))
	r.Register(domain.KeyFieldKeys, Typed(list[domain.FieldKey]))
	r.Register(domain.KeyForms, Typed(list[domain.Form]))
	r.Register(domain.KeyForm, Typed(pointer[domain.Form]))
	r.Register(domain.KeyFormDraft, unlessProblem(pointer[domain.Form]))
	r.Register(domain.KeyFormVersions, Typed(list[domain.Form]))
	r.Register(domain.KeyFormVersionXML, FormXML)
	r.Register(domain.KeyAttachments, unlessProblem(list[domain.Attachment]))
	r.Register(domain.KeyPublicLinks, Typed(list[domain.PublicLink]))
	r.Register(domain.KeyKeys, Typed(list[domain.EncryptionKey]))
	r.Register(domain.KeySubmissionsChunk, SubmissionsChunk)
	r.Register(domain.KeyDatasets, Typed(list[domain.Dataset]))
	r.Register(domain.KeyDataset, Typed(pointer[domain.Dataset]))
	r.Register(domain.KeyEntities, EntitiesChunk)
	r.Register(domain.KeyAudits, Typed(list[domain.Audit]))
	r.Register(domain.KeyBackupsConfig, unlessProblem(pointer[domain.BackupsConfig]))
	r.Register(domain.KeyAnalyticsConfig, AnalyticsConfig)
	return r
}

func decode[T any](resp Response) (T, error) {
	var v T
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return v, fmt.Errorf("decoding %T : %w", v, err)
	}
	return v, nil
}

func pointer[T any](resp Response) (*T, error) {
	v, err := decode[T](resp)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func list[T any](resp Response) ([]T, error) {
	return decode[[]T](resp)
}

// unlessProblem wraps fn so that a problem payload, which only reaches a
// transform through reclassification, is stored as None.
func unlessProblem[T any](fn func(Response) (T, error)) Func {
	return func(resp Response) (any, error) {
		if _, ok := resp.Problem(); ok {
			return option.None[T](), nil
		}
		v, err := fn(resp)
		if err != nil {
			return nil, err
		}
		return option.Some(v), nil
	}
}

// Typed wraps a transform returning a concrete type as a Func.
func Typed[T any](fn func(Response) (T, error)) Func {
	return func(resp Response) (any, error) {
		return fn(resp)
	}
}

// AnalyticsConfig stores None when the server has no configuration, which
// it reports with an empty body or an empty object.
func AnalyticsConfig(resp Response) (any, error) {
	trimmed := bytes.TrimSpace(resp.Body)
	if len(trimmed) == 0 {
		return option.None[*domain.AnalyticsConfig](), nil
	}
	parsed := gjson.ParseBytes(trimmed)
	if parsed.IsObject() && len(parsed.Map()) == 0 {
		return option.None[*domain.AnalyticsConfig](), nil
	}
	config, err := pointer[domain.AnalyticsConfig](resp)
	if err != nil {
		return nil, err
	}
	return option.Some(config), nil
}

// SubmissionsChunk reads one OData page of submissions.
func SubmissionsChunk(resp Response) (any, error) {
	count, value, next, err := odata(resp.Body)
	if err != nil {
		return nil, err
	}
	return &domain.SubmissionsChunk{Count: count, Value: value, NextLink: next}, nil
}

// EntitiesChunk reads one OData page of entities.
func EntitiesChunk(resp Response) (any, error) {
	count, value, next, err := odata(resp.Body)
	if err != nil {
		return nil, err
	}
	return &domain.EntitiesChunk{Count: count, Value: value, NextLink: next}, nil
}

func odata(body []byte) (int64, []map[string]any, string, error) {
	if !gjson.ValidBytes(body) {
		return 0, nil, "", fmt.Errorf("decoding odata : %w", ErrMalformed)
	}
	parsed := gjson.ParseBytes(body)
	rows := parsed.Get("value")
	if !rows.IsArray() {
		return 0, nil, "", fmt.Errorf("decoding odata : value is not an array : %w", ErrMalformed)
	}

	value := make([]map[string]any, 0, len(rows.Array()))
	for _, row := range rows.Array() {
		m, ok := row.Value().(map[string]any)
		if !ok {
			return 0, nil, "", fmt.Errorf("decoding odata : row is %s : %w", row.Type, ErrMalformed)
		}
		value = append(value, m)
	}

	count := int64(len(value))
	if c := parsed.Get(`@odata\.count`); c.Exists() {
		count = c.Int()
	}
	return count, value, parsed.Get(`@odata\.nextLink`).String(), nil
}

// FormXML parses an XForms definition into its title, ids and fields.
func FormXML(resp Response) (any, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(resp.Body); err != nil {
		return nil, fmt.Errorf("parsing form xml : %w", err)
	}

	form := &domain.FormXML{Raw: append([]byte(nil), resp.Body...)}
	if title := doc.FindElement("//head/title"); title != nil {
		form.Title = title.Text()
	}

	instance := doc.FindElement("//model/instance")
	if instance == nil || len(instance.ChildElements()) == 0 {
		return nil, fmt.Errorf("parsing form xml : no primary instance : %w", ErrMalformed)
	}
	data := instance.ChildElements()[0]
	form.XMLFormID = data.SelectAttrValue("id", "")
	form.Version = data.SelectAttrValue("version", "")

	for _, bind := range doc.FindElements("//model/bind") {
		nodeset := bind.SelectAttrValue("nodeset", "")
		if nodeset == "" {
			continue
		}
		form.Fields = append(form.Fields, domain.FormField{
			Path: nodeset,
			Name: path.Base(nodeset),
			Type: bind.SelectAttrValue("type", "string"),
		})
	}
	return form, nil
}
