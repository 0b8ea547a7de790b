package domain

// Credentials is passed through to the metadata store on every query.
// Local adapters ignore it.
type Credentials struct {
	SessionKey string
}
