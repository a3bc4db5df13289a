package utils

// Empty is a zero-byte placeholder for signal channels and set values.
type Empty struct{}

// UniqueSet tracks which string keys have been seen.
type UniqueSet map[string]Empty

func (s UniqueSet) Add(key string) {
	s[key] = Empty{}
}

func (s UniqueSet) AlreadyExists(key string) bool {
	_, exists := s[key]
	return exists
}

func (s UniqueSet) Delete(key string) {
	delete(s, key)
}
