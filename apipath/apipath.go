// Package apipath builds API paths for the resource keys. Path segments are
// escaped; the results are relative to the configured API base.
package apipath

import (
	"net/url"
	"strconv"
	"strings"
)

func join(segments ...string) string {
	var b strings.Builder
	b.WriteString("/v1")
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

func id(n int64) string {
	return strconv.FormatInt(n, 10)
}

func withQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

func Sessions() string       { return join("sessions") }
func SessionRestore() string { return join("sessions", "restore") }
func Session(token string) string {
	return join("sessions", token)
}

func CurrentUser() string      { return join("users", "current") }
func Users() string            { return join("users") }
func User(userID int64) string { return join("users", id(userID)) }
func Roles() string            { return join("roles") }
func Assignments() string      { return join("assignments") }

func Projects() string                    { return join("projects") }
func Project(projectID int64) string      { return join("projects", id(projectID)) }
func FieldKeys(projectID int64) string    { return join("projects", id(projectID), "app-users") }
func Datasets(projectID int64) string     { return join("projects", id(projectID), "datasets") }
func ProjectForms(projectID int64) string { return join("projects", id(projectID), "forms") }
func ProjectAssignments(projectID int64) string {
	return join("projects", id(projectID), "assignments")
}

func Form(projectID int64, xmlFormID string) string {
	return join("projects", id(projectID), "forms", xmlFormID)
}

func FormDraft(projectID int64, xmlFormID string) string {
	return join("projects", id(projectID), "forms", xmlFormID, "draft")
}

func FormDraftAttachments(projectID int64, xmlFormID string) string {
	return join("projects", id(projectID), "forms", xmlFormID, "draft", "attachments")
}

func FormAttachments(projectID int64, xmlFormID string) string {
	return join("projects", id(projectID), "forms", xmlFormID, "attachments")
}

func FormVersions(projectID int64, xmlFormID string) string {
	return join("projects", id(projectID), "forms", xmlFormID, "versions")
}

// FormXML is the XForms definition of the published version.
func FormXML(projectID int64, xmlFormID string) string {
	return join("projects", id(projectID), "forms", xmlFormID+".xml")
}

// FormVersionXML is the XForms definition of one published version.
func FormVersionXML(projectID int64, xmlFormID, version string) string {
	return join("projects", id(projectID), "forms", xmlFormID, "versions", version+".xml")
}

func PublicLinks(projectID int64, xmlFormID string) string {
	return join("projects", id(projectID), "forms", xmlFormID, "public-links")
}

func SubmissionKeys(projectID int64, xmlFormID string) string {
	return join("projects", id(projectID), "forms", xmlFormID, "submissions", "keys")
}

func Submission(projectID int64, xmlFormID, instanceID string) string {
	return join("projects", id(projectID), "forms", xmlFormID, "submissions", instanceID)
}

func SubmissionVersions(projectID int64, xmlFormID, instanceID string) string {
	return join("projects", id(projectID), "forms", xmlFormID, "submissions", instanceID, "versions")
}

// OData holds the paging and filtering options of an OData query.
type OData struct {
	Top    int    // page size, 0 for the server default
	Skip   int    // rows to skip
	Count  bool   // ask for @odata.count
	Filter string // $filter expression
}

func (q OData) values() url.Values {
	v := url.Values{}
	if q.Top > 0 {
		v.Set("$top", strconv.Itoa(q.Top))
	}
	if q.Skip > 0 {
		v.Set("$skip", strconv.Itoa(q.Skip))
	}
	if q.Count {
		v.Set("$count", "true")
	}
	if q.Filter != "" {
		v.Set("$filter", q.Filter)
	}
	return v
}

// ODataSubmissions is one page of a form's submissions.
func ODataSubmissions(projectID int64, xmlFormID string, q OData) string {
	return withQuery(join("projects", id(projectID), "forms", xmlFormID+".svc", "Submissions"), q.values())
}

func Dataset(projectID int64, name string) string {
	return join("projects", id(projectID), "datasets", name)
}

func Entities(projectID int64, name string) string {
	return join("projects", id(projectID), "datasets", name, "entities")
}

func Entity(projectID int64, name, entityID string) string {
	return join("projects", id(projectID), "datasets", name, "entities", entityID)
}

// ODataEntities is one page of a dataset's entities.
func ODataEntities(projectID int64, name string, q OData) string {
	return withQuery(join("projects", id(projectID), "datasets", name+".svc", "Entities"), q.values())
}

// Audits lists audit log entries, optionally filtered by action.
func Audits(action string, limit int) string {
	v := url.Values{}
	if action != "" {
		v.Set("action", action)
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	return withQuery(join("audits"), v)
}

func BackupsConfig() string   { return join("config", "backups") }
func AnalyticsConfig() string { return join("config", "analytics") }
