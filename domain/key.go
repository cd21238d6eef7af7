package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownKey is returned when a name does not belong to the resource key catalog.
var ErrUnknownKey = errors.New("unknown resource key")

// Key identifies one named remote resource. The catalog is closed: every
// key is declared below and no key is created at runtime.
type Key uint8

const (
	KeySession Key = iota
	KeyCurrentUser
	KeyUsers
	KeyUser
	KeyRoles
	KeyActors
	KeyProjects
	KeyProject
	KeyProjectAssignments
	KeyFieldKeys
	KeyForms
	KeyForm
	KeyFormDraft
	KeyFormVersions
	KeyFormVersionXML
	KeyAttachments
	KeyPublicLinks
	KeyKeys
	KeySubmissionsChunk
	KeySubmission
	KeySubmissionVersions
	KeyDatasets
	KeyDataset
	KeyEntities
	KeyEntity
	KeyAudits
	KeyBackupsConfig
	KeyAnalyticsConfig

	keyCount
)

var keyNames = [keyCount]string{
	KeySession:            "session",
	KeyCurrentUser:        "currentUser",
	KeyUsers:              "users",
	KeyUser:               "user",
	KeyRoles:              "roles",
	KeyActors:             "actors",
	KeyProjects:           "projects",
	KeyProject:            "project",
	KeyProjectAssignments: "projectAssignments",
	KeyFieldKeys:          "fieldKeys",
	KeyForms:              "forms",
	KeyForm:               "form",
	KeyFormDraft:          "formDraft",
	KeyFormVersions:       "formVersions",
	KeyFormVersionXML:     "formVersionXml",
	KeyAttachments:        "attachments",
	KeyPublicLinks:        "publicLinks",
	KeyKeys:               "keys",
	KeySubmissionsChunk:   "submissionsChunk",
	KeySubmission:         "submission",
	KeySubmissionVersions: "submissionVersions",
	KeyDatasets:           "datasets",
	KeyDataset:            "dataset",
	KeyEntities:           "entities",
	KeyEntity:             "entity",
	KeyAudits:             "audits",
	KeyBackupsConfig:      "backupsConfig",
	KeyAnalyticsConfig:    "analyticsConfig",
}

var keysByName = func() map[string]Key {
	m := make(map[string]Key, keyCount)
	for k := Key(0); k < keyCount; k++ {
		m[keyNames[k]] = k
	}
	return m
}()

// Valid reports whether k belongs to the catalog.
func (k Key) Valid() bool {
	return k < keyCount
}

func (k Key) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Key(%d)", uint8(k))
	}
	return keyNames[k]
}

// MarshalText encodes the key by name so keys can be used in JSON and YAML maps.
func (k Key) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKey, uint8(k))
	}
	return []byte(keyNames[k]), nil
}

// UnmarshalText decodes a key name.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKey resolves a catalog name such as "formDraft".
func ParseKey(name string) (Key, error) {
	k, ok := keysByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	return k, nil
}

// AllKeys returns every key in catalog order.
func AllKeys() []Key {
	keys := make([]Key, keyCount)
	for k := Key(0); k < keyCount; k++ {
		keys[k] = k
	}
	return keys
}
