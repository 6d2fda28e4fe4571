// Storage pairs a Repository backend with the value codec used to encode
// and decode record bodies. Keys never go through this codec: they are
// always encoded by the order-preserving functions in lexicographic.go,
// wrapped by wrap.go.
package kivis

// Storage binds a Repository to a ValueCodec.
type Storage struct {
	Repo   Repository
	Values ValueCodec
}

// NewStorage returns a Storage using the default JSON value codec.
func NewStorage(repo Repository) *Storage {
	return &Storage{Repo: repo, Values: JSONCodec{}}
}
