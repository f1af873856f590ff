package qc

// HasAttr reports whether a tag with the given attribute exists.
func (s *tagSet) HasAttr(name string) bool {
	_, ok := s.index[name]
	return ok
}

// GetAttr returns the tag with the given attribute. With duplicate
// attributes the last one wins.
func (s *tagSet) GetAttr(name string) (*Tag, bool) {
	t, ok := s.index[name]
	return t, ok
}

// lookup returns the tag for name when it carries a usable value.
// Missing tags, absent values and unresolved parameters are ErrNotFound;
// the wildcard is ErrWrongType since it is not a usable value.
func (s *tagSet) lookup(name, want string) (*Tag, error) {
	t, ok := s.index[name]
	if !ok || t.IsParam() || t.value.IsNone() {
		return nil, errNoValue(name)
	}
	if t.value.IsWildcard() {
		return nil, errWrongType(name, want)
	}
	return t, nil
}

// GetStringValue returns the string value of the named attribute.
func (s *tagSet) GetStringValue(name string) (string, error) {
	t, err := s.lookup(name, "string")
	if err != nil {
		return "", err
	}
	v, ok := t.value.Str()
	if !ok {
		return "", errWrongType(name, "string")
	}
	return v, nil
}

// GetNumberValue returns the numeric value of the named attribute.
func (s *tagSet) GetNumberValue(name string) (int64, error) {
	t, err := s.lookup(name, "number")
	if err != nil {
		return 0, err
	}
	v, ok := t.value.Number()
	if !ok {
		return 0, errWrongType(name, "number")
	}
	return v, nil
}

// GetNestedQuery returns the nested query of the named attribute. A nested
// tag list whose first tag is a bare word is promoted to a query, so
// "select(users limit=5)" yields the query "users limit=5".
func (s *tagSet) GetNestedQuery(name string) (*Query, error) {
	t, err := s.lookup(name, "query")
	if err != nil {
		return nil, err
	}
	if q, ok := t.value.Query(); ok {
		return q, nil
	}
	if l, ok := t.value.TagList(); ok {
		if q, ok := l.AsQuery(); ok {
			return q, nil
		}
	}
	return nil, errWrongType(name, "query")
}

// GetNestedTagList returns the nested tag list of the named attribute.
func (s *tagSet) GetNestedTagList(name string) (*TagList, error) {
	t, err := s.lookup(name, "taglist")
	if err != nil {
		return nil, err
	}
	l, ok := t.value.TagList()
	if !ok {
		return nil, errWrongType(name, "taglist")
	}
	return l, nil
}

func (s *tagSet) GetStringValueOptional(name, def string) string {
	if v, err := s.GetStringValue(name); err == nil {
		return v
	}
	return def
}

func (s *tagSet) GetNumberValueOptional(name string, def int64) int64 {
	if v, err := s.GetNumberValue(name); err == nil {
		return v
	}
	return def
}

func (s *tagSet) GetNestedQueryOptional(name string, def *Query) *Query {
	if v, err := s.GetNestedQuery(name); err == nil {
		return v
	}
	return def
}

func (s *tagSet) GetNestedTagListOptional(name string, def *TagList) *TagList {
	if v, err := s.GetNestedTagList(name); err == nil {
		return v
	}
	return def
}
