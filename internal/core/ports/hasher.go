package ports

// Fingerprinter computes a content fingerprint of a directory.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Fingerprinter interface {
	// Fingerprint hashes the relative paths and contents of all files below dir.
	// A missing directory has an empty fingerprint.
	Fingerprint(dir string) (string, error)
}
