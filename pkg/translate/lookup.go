package translate

// get walks doc along path, where string steps index objects and int steps
// index arrays. A present key holding null yields nil without error.
func get(doc any, path ...any) (any, error) {
	cur := doc
	for i, step := range path {
		switch k := step.(type) {
		case string:
			obj, ok := cur.(map[string]any)
			if !ok {
				return nil, &FieldTypeError{Path: formatPath(path[:i]), Want: "object", Got: cur}
			}
			v, ok := obj[k]
			if !ok {
				return nil, &MissingFieldError{Path: formatPath(path[:i+1])}
			}
			cur = v
		case int:
			arr, ok := cur.([]any)
			if !ok {
				return nil, &FieldTypeError{Path: formatPath(path[:i]), Want: "array", Got: cur}
			}
			if k < 0 || k >= len(arr) {
				return nil, &MissingFieldError{Path: formatPath(path[:i+1])}
			}
			cur = arr[k]
		}
	}
	return cur, nil
}

// optional is get for keys that may be absent: absence yields nil.
func optional(doc any, path ...any) (any, error) {
	v, err := get(doc, path...)
	if _, missing := err.(*MissingFieldError); missing {
		return nil, nil
	}
	return v, err
}

func getFloat(doc any, path ...any) (float64, error) {
	v, err := get(doc, path...)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, &FieldTypeError{Path: formatPath(path), Want: "number", Got: v}
}

func getString(doc any, path ...any) (string, error) {
	v, err := get(doc, path...)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", &FieldTypeError{Path: formatPath(path), Want: "string", Got: v}
	}
	return s, nil
}
