// Package domain holds the types shared by every mirsal package: the closed
// resource key catalog, ledger states, the API problem payload, the resource
// models produced by transforms, and the journal records with the repository
// interfaces that persist them.
//
// The package has no dependency on storage or transport. The db package
// implements the repository interfaces declared here.
package domain
