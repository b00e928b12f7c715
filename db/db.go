package db

// DB is a general interface to access storage data.
// The fork's account state lives behind this interface so the sandbox can
// run fully in memory (default) or on a badger-backed directory.
type DB interface {
	Type() string
	Set(namespace []byte, key []byte, value []byte) error
	Delete(namespace []byte, key []byte) error
	Get(namespace []byte, key []byte) ([]byte, bool, error)
	Exist(namespace []byte, key []byte) (bool, error)
	Close() error
}

var (
	NamespaceAccounts = []byte("acct")

	Separator = []byte("|")
)

func PrependNamespace(namespace []byte, key []byte) []byte {
	if namespace != nil {
		return append(append(namespace, Separator...), key...)
	}
	return key
}

func ConvNilToBytes(byteArray []byte) []byte {
	if byteArray == nil {
		return []byte{}
	}
	return byteArray
}
