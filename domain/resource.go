package domain

import "time"

// Session is an authenticated API session.
type Session struct {
	Token     string    `json:"token" yaml:"token"`
	CSRF      string    `json:"csrf" yaml:"csrf"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt" yaml:"expiresAt"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Actor is anything that can act on the API: users, app users, public links.
type Actor struct {
	ID          int64      `json:"id" yaml:"id"`
	Type        string     `json:"type" yaml:"type"`
	DisplayName string     `json:"displayName" yaml:"displayName"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt" yaml:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt" yaml:"deletedAt"`
}

// User is a web user account.
type User struct {
	Actor `yaml:",inline"`
	Email string   `json:"email" yaml:"email"`
	Verbs []string `json:"verbs,omitempty" yaml:"verbs,omitempty"` // only present with extended metadata
}

// Can reports whether the user was granted verb.
func (u *User) Can(verb string) bool {
	for _, v := range u.Verbs {
		if v == verb {
			return true
		}
	}
	return false
}

// Role groups verbs under a system name such as "admin" or "manager".
type Role struct {
	ID     int64    `json:"id" yaml:"id"`
	Name   string   `json:"name" yaml:"name"`
	System string   `json:"system" yaml:"system"`
	Verbs  []string `json:"verbs" yaml:"verbs"`
}

// Project groups forms, app users and datasets.
type Project struct {
	ID             int64      `json:"id" yaml:"id"`
	Name           string     `json:"name" yaml:"name"`
	Description    string     `json:"description" yaml:"description"`
	Archived       bool       `json:"archived" yaml:"archived"`
	KeyID          *int64     `json:"keyId" yaml:"keyId"`
	CreatedAt      time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt      *time.Time `json:"updatedAt" yaml:"updatedAt"`
	Forms          int        `json:"forms,omitempty" yaml:"forms,omitempty"`
	AppUsers       int        `json:"appUsers,omitempty" yaml:"appUsers,omitempty"`
	LastSubmission *time.Time `json:"lastSubmission,omitempty" yaml:"lastSubmission,omitempty"`
	Verbs          []string   `json:"verbs,omitempty" yaml:"verbs,omitempty"`
	Datasets       int        `json:"datasets,omitempty" yaml:"datasets,omitempty"`
}

// Assignment binds an actor to a role on a project or form.
type Assignment struct {
	ActorID int64  `json:"actorId" yaml:"actorId"`
	RoleID  int64  `json:"roleId" yaml:"roleId"`
	Actor   *Actor `json:"actor,omitempty" yaml:"actor,omitempty"`
}

// FieldKey is an app user credential scoped to a project.
type FieldKey struct {
	Actor     `yaml:",inline"`
	Token     *string `json:"token" yaml:"token"`
	ProjectID int64   `json:"projectId" yaml:"projectId"`
}

// Form is a published form or a form draft.
type Form struct {
	ProjectID        int64      `json:"projectId" yaml:"projectId"`
	XMLFormID        string     `json:"xmlFormId" yaml:"xmlFormId"`
	Name             *string    `json:"name" yaml:"name"`
	Version          string     `json:"version" yaml:"version"`
	EnketoID         *string    `json:"enketoId" yaml:"enketoId"`
	Hash             string     `json:"hash" yaml:"hash"`
	KeyID            *int64     `json:"keyId" yaml:"keyId"`
	State            string     `json:"state" yaml:"state"`
	PublishedAt      *time.Time `json:"publishedAt" yaml:"publishedAt"`
	CreatedAt        time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt        *time.Time `json:"updatedAt" yaml:"updatedAt"`
	Submissions      int        `json:"submissions,omitempty" yaml:"submissions,omitempty"`
	LastSubmission   *time.Time `json:"lastSubmission,omitempty" yaml:"lastSubmission,omitempty"`
	ExcelContentType *string    `json:"excelContentType,omitempty" yaml:"excelContentType,omitempty"`
	DraftToken       *string    `json:"draftToken,omitempty" yaml:"draftToken,omitempty"`
}

// NameOrID returns the form title, falling back to its xmlFormId.
func (f *Form) NameOrID() string {
	if f.Name != nil && *f.Name != "" {
		return *f.Name
	}
	return f.XMLFormID
}

// Attachment is a media or data file a form expects.
type Attachment struct {
	Name      string     `json:"name" yaml:"name"`
	Type      string     `json:"type" yaml:"type"`
	Exists    bool       `json:"exists" yaml:"exists"`
	Blob      bool       `json:"blobExists" yaml:"blobExists"`
	Dataset   bool       `json:"datasetExists" yaml:"datasetExists"`
	UpdatedAt *time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// FormField is one question or group extracted from a form definition.
type FormField struct {
	Path string `json:"path" yaml:"path"`
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// FormXML is the parsed XForms definition of a form version.
type FormXML struct {
	Title     string      `json:"title" yaml:"title"`
	XMLFormID string      `json:"xmlFormId" yaml:"xmlFormId"`
	Version   string      `json:"version" yaml:"version"`
	Fields    []FormField `json:"fields" yaml:"fields"`
	Raw       []byte      `json:"-" yaml:"-"`
}

// PublicLink grants anonymous submission access to a form.
type PublicLink struct {
	Actor `yaml:",inline"`
	Once  bool    `json:"once" yaml:"once"`
	Token *string `json:"token" yaml:"token"`
}

// EncryptionKey is a project managed encryption key.
type EncryptionKey struct {
	ID      int64  `json:"id" yaml:"id"`
	Public  string `json:"public" yaml:"public"`
	Managed bool   `json:"managed" yaml:"managed"`
	Hint    string `json:"hint" yaml:"hint"`
}

// SubmissionsChunk is one OData page of submissions.
type SubmissionsChunk struct {
	Count    int64            `json:"count" yaml:"count"`
	Value    []map[string]any `json:"value" yaml:"value"`
	NextLink string           `json:"nextLink,omitempty" yaml:"nextLink,omitempty"`
}

// Dataset is an entity list.
type Dataset struct {
	ProjectID        int64      `json:"projectId" yaml:"projectId"`
	Name             string     `json:"name" yaml:"name"`
	CreatedAt        time.Time  `json:"createdAt" yaml:"createdAt"`
	ApprovalRequired bool       `json:"approvalRequired" yaml:"approvalRequired"`
	Entities         int        `json:"entities,omitempty" yaml:"entities,omitempty"`
	LastEntity       *time.Time `json:"lastEntity,omitempty" yaml:"lastEntity,omitempty"`
}

// EntitiesChunk is one OData page of entities.
type EntitiesChunk struct {
	Count    int64            `json:"count" yaml:"count"`
	Value    []map[string]any `json:"value" yaml:"value"`
	NextLink string           `json:"nextLink,omitempty" yaml:"nextLink,omitempty"`
}

// Audit is a server audit log entry.
type Audit struct {
	ActorID  *int64         `json:"actorId" yaml:"actorId"`
	Action   string         `json:"action" yaml:"action"`
	ActeeID  *string        `json:"acteeId" yaml:"acteeId"`
	Details  map[string]any `json:"details" yaml:"details"`
	LoggedAt time.Time      `json:"loggedAt" yaml:"loggedAt"`
}

// BackupsConfig describes the configured backup target.
type BackupsConfig struct {
	Type    string         `json:"type" yaml:"type"`
	SetAt   time.Time      `json:"setAt" yaml:"setAt"`
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
}

// AnalyticsConfig holds the usage reporting settings.
type AnalyticsConfig struct {
	Enabled      bool   `json:"enabled" yaml:"enabled"`
	Email        string `json:"email,omitempty" yaml:"email,omitempty"`
	Organization string `json:"organization,omitempty" yaml:"organization,omitempty"`
}
