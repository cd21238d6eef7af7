package main

import (
	"errors"
	"fmt"

	"github.com/tfkr-ae/mirsal/apipath"
	"github.com/tfkr-ae/mirsal/domain"
)

var errMissingTarget = errors.New("missing target")

// pathTarget holds the identifiers given on the command line.
type pathTarget struct {
	ProjectID int64
	Form      string
	Instance  string
	Dataset   string
}

func (t pathTarget) need(project, form, instance, dataset bool) error {
	switch {
	case project && t.ProjectID == 0:
		return fmt.Errorf("%w: --project", errMissingTarget)
	case form && t.Form == "":
		return fmt.Errorf("%w: --form", errMissingTarget)
	case instance && t.Instance == "":
		return fmt.Errorf("%w: --instance", errMissingTarget)
	case dataset && t.Dataset == "":
		return fmt.Errorf("%w: --dataset", errMissingTarget)
	}
	return nil
}

// pathFor maps key to the endpoint that serves it.
func pathFor(key domain.Key, t pathTarget) (string, error) {
	var err error
	switch key {
	case domain.KeySession:
		return apipath.SessionRestore(), nil
	case domain.KeyCurrentUser:
		return apipath.CurrentUser(), nil
	case domain.KeyUsers:
		return apipath.Users(), nil
	case domain.KeyRoles:
		return apipath.Roles(), nil
	case domain.KeyProjects:
		return apipath.Projects(), nil
	case domain.KeyAudits:
		return apipath.Audits("", 0), nil
	case domain.KeyBackupsConfig:
		return apipath.BackupsConfig(), nil
	case domain.KeyAnalyticsConfig:
		return apipath.AnalyticsConfig(), nil

	case domain.KeyProject, domain.KeyProjectAssignments, domain.KeyFieldKeys, domain.KeyForms, domain.KeyDatasets:
		if err = t.need(true, false, false, false); err != nil {
			return "", err
		}
		switch key {
		case domain.KeyProject:
			return apipath.Project(t.ProjectID), nil
		case domain.KeyProjectAssignments:
			return apipath.ProjectAssignments(t.ProjectID), nil
		case domain.KeyFieldKeys:
			return apipath.FieldKeys(t.ProjectID), nil
		case domain.KeyForms:
			return apipath.ProjectForms(t.ProjectID), nil
		default:
			return apipath.Datasets(t.ProjectID), nil
		}

	case domain.KeyForm, domain.KeyFormDraft, domain.KeyFormVersions, domain.KeyFormVersionXML,
		domain.KeyAttachments, domain.KeyPublicLinks, domain.KeyKeys, domain.KeySubmissionsChunk:
		if err = t.need(true, true, false, false); err != nil {
			return "", err
		}
		switch key {
		case domain.KeyForm:
			return apipath.Form(t.ProjectID, t.Form), nil
		case domain.KeyFormDraft:
			return apipath.FormDraft(t.ProjectID, t.Form), nil
		case domain.KeyFormVersions:
			return apipath.FormVersions(t.ProjectID, t.Form), nil
		case domain.KeyFormVersionXML:
			return apipath.FormXML(t.ProjectID, t.Form), nil
		case domain.KeyAttachments:
			return apipath.FormAttachments(t.ProjectID, t.Form), nil
		case domain.KeyPublicLinks:
			return apipath.PublicLinks(t.ProjectID, t.Form), nil
		case domain.KeyKeys:
			return apipath.SubmissionKeys(t.ProjectID, t.Form), nil
		default:
			return apipath.ODataSubmissions(t.ProjectID, t.Form, apipath.OData{Top: 250, Count: true}), nil
		}

	case domain.KeySubmission, domain.KeySubmissionVersions:
		if err = t.need(true, true, true, false); err != nil {
			return "", err
		}
		if key == domain.KeySubmission {
			return apipath.Submission(t.ProjectID, t.Form, t.Instance), nil
		}
		return apipath.SubmissionVersions(t.ProjectID, t.Form, t.Instance), nil

	case domain.KeyDataset, domain.KeyEntities:
		if err = t.need(true, false, false, true); err != nil {
			return "", err
		}
		if key == domain.KeyDataset {
			return apipath.Dataset(t.ProjectID, t.Dataset), nil
		}
		return apipath.ODataEntities(t.ProjectID, t.Dataset, apipath.OData{Top: 250, Count: true}), nil

	case domain.KeyEntity:
		if err = t.need(true, false, true, true); err != nil {
			return "", err
		}
		return apipath.Entity(t.ProjectID, t.Dataset, t.Instance), nil
	}
	return "", fmt.Errorf("no endpoint for %s", key)
}
